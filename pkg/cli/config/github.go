package config

import (
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/ehsan18t/easy-mingw-installer/pkg/domain/interfaces"
	githubinfra "github.com/ehsan18t/easy-mingw-installer/pkg/infra/github"
	"github.com/ehsan18t/easy-mingw-installer/pkg/utils/retry"
)

// GitHub holds GitHub API configuration. A token or GitHub App credentials
// raise the rate limit; without either the API is used anonymously.
type GitHub struct {
	Token          string `masq:"secret"`
	AppID          int64
	InstallationID int64
	PrivateKey     string `masq:"secret"`
	PrivateKeyFile string
	BaseURL        string
	RetryCount     int64
	RetryDelay     time.Duration
	Timeout        time.Duration
}

// Flags returns CLI flags for GitHub configuration
func (c *GitHub) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "github-token",
			Usage:       "GitHub token",
			Destination: &c.Token,
			Sources:     cli.EnvVars("EASY_MINGW_GITHUB_TOKEN", "GITHUB_TOKEN"),
		},
		&cli.Int64Flag{
			Name:        "github-app-id",
			Usage:       "GitHub App ID (instead of a token)",
			Destination: &c.AppID,
			Sources:     cli.EnvVars("EASY_MINGW_GITHUB_APP_ID"),
		},
		&cli.Int64Flag{
			Name:        "github-installation-id",
			Usage:       "GitHub App installation ID",
			Destination: &c.InstallationID,
			Sources:     cli.EnvVars("EASY_MINGW_GITHUB_INSTALLATION_ID"),
		},
		&cli.StringFlag{
			Name:        "github-private-key",
			Usage:       "GitHub App private key (PEM)",
			Destination: &c.PrivateKey,
			Sources:     cli.EnvVars("EASY_MINGW_GITHUB_PRIVATE_KEY"),
		},
		&cli.StringFlag{
			Name:        "github-private-key-file",
			Usage:       "Path to the GitHub App private key",
			Destination: &c.PrivateKeyFile,
			Sources:     cli.EnvVars("EASY_MINGW_GITHUB_PRIVATE_KEY_FILE"),
		},
		&cli.StringFlag{
			Name:        "github-api-url",
			Usage:       "GitHub API base URL",
			Destination: &c.BaseURL,
			Sources:     cli.EnvVars("EASY_MINGW_GITHUB_API_URL"),
		},
		&cli.Int64Flag{
			Name:        "github-retry-count",
			Usage:       "Attempts per GitHub request",
			Value:       retry.DefaultAttempts,
			Destination: &c.RetryCount,
			Sources:     cli.EnvVars("EASY_MINGW_GITHUB_RETRY_COUNT"),
		},
		&cli.DurationFlag{
			Name:        "github-retry-delay",
			Usage:       "Delay between GitHub request attempts",
			Value:       retry.DefaultDelay,
			Destination: &c.RetryDelay,
			Sources:     cli.EnvVars("EASY_MINGW_GITHUB_RETRY_DELAY"),
		},
		&cli.DurationFlag{
			Name:        "github-timeout",
			Usage:       "Timeout of a single GitHub API request",
			Value:       10 * time.Second,
			Destination: &c.Timeout,
			Sources:     cli.EnvVars("EASY_MINGW_GITHUB_TIMEOUT"),
		},
	}
}

// RetryPolicy returns the configured retry policy
func (c *GitHub) RetryPolicy() retry.Policy {
	return retry.Policy{Attempts: int(c.RetryCount), Delay: c.RetryDelay}
}

// NewClient creates a GitHub client from the configuration
func (c *GitHub) NewClient() (interfaces.GitHubClient, error) {
	opts := []githubinfra.Option{
		githubinfra.WithRetry(c.RetryPolicy()),
	}
	if c.Timeout > 0 {
		opts = append(opts, githubinfra.WithTimeout(c.Timeout))
	}
	if c.BaseURL != "" {
		opts = append(opts, githubinfra.WithBaseURL(c.BaseURL))
	}

	switch {
	case c.AppID != 0:
		key := []byte(c.PrivateKey)
		if len(key) == 0 && c.PrivateKeyFile != "" {
			data, err := os.ReadFile(c.PrivateKeyFile)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to read GitHub App private key", goerr.V("path", c.PrivateKeyFile))
			}
			key = data
		}
		if c.InstallationID == 0 || len(key) == 0 {
			return nil, goerr.New("GitHub App auth needs installation ID and private key", goerr.V("app_id", c.AppID))
		}
		opts = append(opts, githubinfra.WithAppAuth(c.AppID, c.InstallationID, key))
	case c.Token != "":
		opts = append(opts, githubinfra.WithToken(c.Token))
	}

	return githubinfra.NewClient(opts...)
}
