package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/ehsan18t/easy-mingw-installer/pkg/domain/interfaces"
	"github.com/ehsan18t/easy-mingw-installer/pkg/domain/model"
	"github.com/ehsan18t/easy-mingw-installer/pkg/domain/types"
	"github.com/ehsan18t/easy-mingw-installer/pkg/utils/retry"
)

const (
	// defaultPerPage is the maximum page size of the GitHub REST API
	defaultPerPage = 100

	// defaultMaxPages bounds pagination
	defaultMaxPages = 5

	// defaultTimeout applies to each API request, not to asset downloads
	defaultTimeout = 10 * time.Second
)

type options struct {
	token          string
	appID          int64
	installationID int64
	privateKey     []byte
	baseURL        string
	httpClient     *http.Client
	policy         retry.Policy
	timeout        time.Duration
	maxPages       int
}

// Option configures the client
type Option func(*options)

// WithToken authenticates with a personal access or Actions token
func WithToken(token string) Option {
	return func(o *options) {
		o.token = token
	}
}

// WithAppAuth authenticates as a GitHub App installation
func WithAppAuth(appID, installationID int64, privateKey []byte) Option {
	return func(o *options) {
		o.appID = appID
		o.installationID = installationID
		o.privateKey = privateKey
	}
}

// WithBaseURL overrides the API base URL, used by tests
func WithBaseURL(baseURL string) Option {
	return func(o *options) {
		o.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client used for API calls and downloads
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithRetry sets the retry policy of API calls
func WithRetry(p retry.Policy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithTimeout sets the per-request timeout of API calls
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithMaxPages bounds how many release pages are fetched
func WithMaxPages(n int) Option {
	return func(o *options) {
		o.maxPages = n
	}
}

type client struct {
	githubClient *github.Client
	httpClient   *http.Client
	policy       retry.Policy
	timeout      time.Duration
	maxPages     int
}

// NewClient creates a GitHub release API client. Without credentials the
// client works anonymously with the lower rate limit.
func NewClient(opts ...Option) (interfaces.GitHubClient, error) {
	o := &options{
		httpClient: &http.Client{},
		policy:     retry.Default(),
		timeout:    defaultTimeout,
		maxPages:   defaultMaxPages,
	}
	for _, opt := range opts {
		opt(o)
	}

	apiHTTPClient := o.httpClient
	if o.appID != 0 {
		transport := o.httpClient.Transport
		if transport == nil {
			transport = http.DefaultTransport
		}
		itr, err := ghinstallation.New(transport, o.appID, o.installationID, o.privateKey)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create GitHub App transport",
				goerr.V("app_id", o.appID),
				goerr.V("installation_id", o.installationID),
			)
		}
		apiHTTPClient = &http.Client{Transport: itr}
	}

	githubClient := github.NewClient(apiHTTPClient)
	if o.token != "" && o.appID == 0 {
		githubClient = githubClient.WithAuthToken(o.token)
	}

	if o.baseURL != "" {
		base, err := url.Parse(strings.TrimRight(o.baseURL, "/") + "/")
		if err != nil {
			return nil, goerr.Wrap(err, "invalid GitHub API base URL", goerr.V("base_url", o.baseURL))
		}
		githubClient.BaseURL = base
	}

	return &client{
		githubClient: githubClient,
		httpClient:   o.httpClient,
		policy:       o.policy,
		timeout:      o.timeout,
		maxPages:     o.maxPages,
	}, nil
}

// call runs fn with retry and a per-attempt timeout
func (c *client) call(ctx context.Context, op string, fn func(ctx context.Context) (*github.Response, error)) error {
	return retry.Do(ctx, c.policy, op, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		resp, err := fn(ctx)
		if err == nil {
			return nil
		}
		if !isRetryable(resp, err) {
			return retry.Permanent(err)
		}
		return err
	})
}

// ListReleases fetches all release pages of owner/repo up to the page limit
func (c *client) ListReleases(ctx context.Context, owner, repo string) ([]model.Release, error) {
	logger := ctxlog.From(ctx)
	opt := &github.ListOptions{PerPage: defaultPerPage}

	var all []model.Release
	for page := 0; page < c.maxPages; page++ {
		var releases []*github.RepositoryRelease
		var resp *github.Response

		err := c.call(ctx, "list releases", func(ctx context.Context) (*github.Response, error) {
			var err error
			releases, resp, err = c.githubClient.Repositories.ListReleases(ctx, owner, repo, opt)
			return resp, err
		})
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list releases",
				goerr.V("owner", owner),
				goerr.V("repo", repo),
				goerr.V("page", opt.Page),
			)
		}

		for _, r := range releases {
			all = append(all, toRelease(r))
		}

		if resp == nil || resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}

	logger.Debug("Listed releases", "owner", owner, "repo", repo, "count", len(all))
	return all, nil
}

// ListTags returns all tag names of owner/repo up to the page limit
func (c *client) ListTags(ctx context.Context, owner, repo string) ([]string, error) {
	opt := &github.ListOptions{PerPage: defaultPerPage}

	var names []string
	for page := 0; page < c.maxPages; page++ {
		var tags []*github.RepositoryTag
		var resp *github.Response

		err := c.call(ctx, "list tags", func(ctx context.Context) (*github.Response, error) {
			var err error
			tags, resp, err = c.githubClient.Repositories.ListTags(ctx, owner, repo, opt)
			return resp, err
		})
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list tags",
				goerr.V("owner", owner),
				goerr.V("repo", repo),
			)
		}

		for _, tag := range tags {
			names = append(names, tag.GetName())
		}

		if resp == nil || resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}

	return names, nil
}

// GetReleaseByTag fetches one release. A tag without release returns (nil, nil).
func (c *client) GetReleaseByTag(ctx context.Context, owner, repo, tag string) (*model.Release, error) {
	var rel *github.RepositoryRelease

	err := c.call(ctx, "get release by tag", func(ctx context.Context) (*github.Response, error) {
		var resp *github.Response
		var err error
		rel, resp, err = c.githubClient.Repositories.GetReleaseByTag(ctx, owner, repo, tag)
		return resp, err
	})
	if err != nil {
		var errResp *github.ErrorResponse
		if errors.As(err, &errResp) && errResp.Response != nil && errResp.Response.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to get release",
			goerr.V("owner", owner),
			goerr.V("repo", repo),
			goerr.V("tag", tag),
		)
	}

	r := toRelease(rel)
	return &r, nil
}

// DownloadAsset streams the asset into w. It does not retry: a failed
// download leaves w partially written and the caller restarts from scratch.
func (c *client) DownloadAsset(ctx context.Context, asset *model.Asset, w io.Writer) (int64, error) {
	if asset == nil || asset.DownloadURL == "" {
		return 0, goerr.Wrap(types.ErrInvalidArgument, "asset has no download URL")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, asset.DownloadURL, http.NoBody)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to create download request", goerr.V("asset", asset.Name))
	}
	req.Header.Set("Accept", "application/octet-stream")
	req.Header.Set("User-Agent", types.ServiceName+"/"+types.Version)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to download asset",
			goerr.V("asset", asset.Name),
			goerr.V("url", redactURL(asset.DownloadURL)),
		)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, goerr.New(fmt.Sprintf("unexpected status code %d", resp.StatusCode),
			goerr.V("asset", asset.Name),
			goerr.V("url", redactURL(asset.DownloadURL)),
		)
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, goerr.Wrap(err, "failed to read asset body", goerr.V("asset", asset.Name))
	}

	return n, nil
}

func toRelease(r *github.RepositoryRelease) model.Release {
	assets := make([]model.Asset, 0, len(r.Assets))
	for _, a := range r.Assets {
		assets = append(assets, model.Asset{
			ID:          a.GetID(),
			Name:        a.GetName(),
			DownloadURL: a.GetBrowserDownloadURL(),
			Size:        int64(a.GetSize()),
		})
	}

	return model.Release{
		Name:        r.GetName(),
		TagName:     r.GetTagName(),
		PublishedAt: r.GetPublishedAt().Time,
		Prerelease:  r.GetPrerelease(),
		Draft:       r.GetDraft(),
		Body:        r.GetBody(),
		HTMLURL:     r.GetHTMLURL(),
		Assets:      assets,
	}
}

// isRetryable reports whether a failed API call may succeed on another try
func isRetryable(resp *github.Response, err error) bool {
	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if resp != nil && resp.Response != nil && resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
		return false
	}
	return true
}

// redactURL strips query parameters and fragments for log and error output
func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid-url>"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
