package interfaces

import (
	"context"
	"io"

	"github.com/ehsan18t/easy-mingw-installer/pkg/domain/model"
)

// GitHubClient defines the release API operations the pipeline needs
type GitHubClient interface {
	// ListReleases returns releases of owner/repo in API order (newest first)
	ListReleases(ctx context.Context, owner, repo string) ([]model.Release, error)

	// ListTags returns tag names of owner/repo
	ListTags(ctx context.Context, owner, repo string) ([]string, error)

	// GetReleaseByTag returns a single release. A missing tag yields (nil, nil).
	GetReleaseByTag(ctx context.Context, owner, repo, tag string) (*model.Release, error)

	// DownloadAsset streams the asset content into w and returns the number of bytes written
	DownloadAsset(ctx context.Context, asset *model.Asset, w io.Writer) (int64, error)
}
