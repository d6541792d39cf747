package usecase

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/ehsan18t/easy-mingw-installer/pkg/domain/changelog"
	"github.com/ehsan18t/easy-mingw-installer/pkg/domain/interfaces"
	"github.com/ehsan18t/easy-mingw-installer/pkg/domain/model"
	"github.com/ehsan18t/easy-mingw-installer/pkg/domain/types"
)

type changelogUseCase struct {
	githubClient interfaces.GitHubClient
}

// NewChangelog creates a new instance of ChangelogUseCase
func NewChangelog(githubClient interfaces.GitHubClient) interfaces.ChangelogUseCase {
	return &changelogUseCase{
		githubClient: githubClient,
	}
}

// Generate reads the current build info from req.CurrentTag or req.InputFile,
// compares it with the release at req.PreviousTag and renders release notes.
func (uc *changelogUseCase) Generate(ctx context.Context, req *model.ChangelogRequest) (string, error) {
	logger := ctxlog.From(ctx)

	if req.InputFile == "" && req.CurrentTag == "" {
		return "", goerr.Wrap(types.ErrInvalidArgument, "either input file or current tag is required")
	}
	if req.InputFile != "" && req.CurrentTag != "" {
		logger.Info("Both input file and current tag provided, using current tag", "tag", req.CurrentTag)
	}

	var current model.BuildInfo
	if req.CurrentTag != "" {
		logger.Info("Fetching current package info from release", "tag", req.CurrentTag)
		rel, err := uc.githubClient.GetReleaseByTag(ctx, req.Owner, req.Repo, req.CurrentTag)
		if err != nil {
			return "", goerr.Wrap(err, "failed to fetch current release", goerr.V("tag", req.CurrentTag))
		}
		if rel == nil || strings.TrimSpace(rel.Body) == "" {
			return "", goerr.New("current release has no body", goerr.V("tag", req.CurrentTag))
		}
		current = changelog.ParseReleaseBody(rel.Body)
	} else {
		data, err := os.ReadFile(req.InputFile)
		if err != nil {
			return "", goerr.Wrap(err, "failed to read input file", goerr.V("path", req.InputFile))
		}
		current = changelog.ParseInfoFile(string(data))
	}

	if current.Packages == nil || current.Packages.Len() == 0 {
		logger.Warn("Could not parse package list from input")
	} else {
		logger.Info("Parsed current packages", "count", current.Packages.Len())
	}

	previous, state := fetchBaseline(ctx, uc.githubClient, req.Owner, req.Repo, req.PreviousTag)

	in := model.ReleaseNotesInput{
		Owner:           req.Owner,
		Repo:            req.Repo,
		Current:         current,
		Previous:        previous,
		PreviousState:   state,
		PreviousTag:     req.PreviousTag,
		CurrentBuildTag: req.CurrentBuildTag,
		ScriptChanges:   req.ScriptChanges,
	}
	warnIncompleteLink(ctx, in)

	notes, err := changelog.RenderReleaseNotes(in)
	if err != nil {
		return "", goerr.Wrap(err, "failed to render release notes")
	}

	if req.OutputFile != "" {
		if err := writeFile(req.OutputFile, notes); err != nil {
			return "", err
		}
		logger.Info("Release notes written", "path", req.OutputFile)
	}

	return notes, nil
}

// fetchBaseline loads the package manifest of the project release at tag.
// Failures degrade to a PreviousState instead of an error.
func fetchBaseline(ctx context.Context, client interfaces.GitHubClient, owner, repo, tag string) (*model.Manifest, model.PreviousState) {
	logger := ctxlog.From(ctx)

	if tag == "" {
		logger.Info("No previous tag provided, skipping comparison")
		return nil, model.PreviousNoTag
	}

	rel, err := client.GetReleaseByTag(ctx, owner, repo, tag)
	if err != nil {
		logger.Warn("Could not fetch previous release", "tag", tag, "error", err)
		return nil, model.PreviousUnavailable
	}
	if rel == nil || strings.TrimSpace(rel.Body) == "" {
		logger.Warn("Previous release not found or empty", "tag", tag)
		return nil, model.PreviousUnavailable
	}

	previous := changelog.ExtractPackageSection(rel.Body)
	if previous.Len() == 0 {
		logger.Warn("No package list found in previous release", "tag", tag)
		return previous, model.PreviousUnparsed
	}

	logger.Info("Parsed previous packages", "tag", tag, "count", previous.Len())
	return previous, model.PreviousParsed
}

// warnIncompleteLink logs when the notes end with a placeholder compare link
func warnIncompleteLink(ctx context.Context, in model.ReleaseNotesInput) {
	if changelog.FullChangelogComplete(in) {
		return
	}
	ctxlog.From(ctx).Warn("Full changelog link is incomplete",
		"previous_tag", in.PreviousTag,
		"current_build_tag", in.CurrentBuildTag,
	)
}

func writeFile(path, content string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return goerr.Wrap(err, "failed to create output directory", goerr.V("dir", dir))
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return goerr.Wrap(err, "failed to write file", goerr.V("path", path))
	}
	return nil
}
