// Package release selects the upstream release and the per-architecture asset
// from already fetched release metadata. Nothing here touches the network.
package release

import (
	"fmt"

	"github.com/m-mizutani/goerr/v2"

	"github.com/ehsan18t/easy-mingw-installer/pkg/domain/model"
	"github.com/ehsan18t/easy-mingw-installer/pkg/domain/types"
)

// SelectRelease returns the newest stable release whose title matches pattern.
// Drafts and prereleases are never returned. Releases with equal PublishedAt
// resolve to the first one in releases.
func SelectRelease(releases []model.Release, pattern types.TitlePattern) (*model.Release, error) {
	var best *model.Release
	for i := range releases {
		r := &releases[i]
		if r.Prerelease || r.Draft || !pattern.Match(r.Name) {
			continue
		}
		if best == nil || r.PublishedAt.After(best.PublishedAt) {
			best = r
		}
	}

	if best == nil {
		return nil, goerr.Wrap(types.ErrNoMatchingRelease,
			fmt.Sprintf("no stable release title matches `%s` (%d candidates considered)", pattern, len(releases)),
			goerr.V("title_pattern", pattern.String()),
			goerr.V("candidates", len(releases)),
		)
	}

	return best, nil
}

// SelectAsset returns the first asset of rel, in list order, whose name
// matches pattern.
func SelectAsset(rel *model.Release, pattern types.AssetPattern) (*model.Asset, error) {
	if rel == nil {
		return nil, goerr.Wrap(types.ErrInvalidArgument, "release is nil")
	}
	if pattern.IsZero() {
		return nil, goerr.Wrap(types.ErrInvalidArgument, "asset pattern is not set",
			goerr.V("release", rel.Name),
		)
	}

	for i := range rel.Assets {
		if pattern.Match(rel.Assets[i].Name) {
			return &rel.Assets[i], nil
		}
	}

	return nil, goerr.Wrap(types.ErrNoMatchingAsset,
		fmt.Sprintf("no asset of %q matches `%s` (%d candidates considered)", rel.Name, pattern, len(rel.Assets)),
		goerr.V("asset_pattern", pattern.String()),
		goerr.V("release", rel.Name),
		goerr.V("candidates", len(rel.Assets)),
	)
}
