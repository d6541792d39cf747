package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/ehsan18t/easy-mingw-installer/pkg/cli/config"
	"github.com/ehsan18t/easy-mingw-installer/pkg/domain/interfaces"
	"github.com/ehsan18t/easy-mingw-installer/pkg/infra/archive"
	"github.com/ehsan18t/easy-mingw-installer/pkg/infra/hasher"
	"github.com/ehsan18t/easy-mingw-installer/pkg/infra/inno"
	"github.com/ehsan18t/easy-mingw-installer/pkg/usecase"
)

// newBuildUseCase wires the pipeline from configuration. The returned
// function releases the sink clients.
func newBuildUseCase(
	ctx context.Context,
	githubCfg *config.GitHub,
	buildCfg *config.Build,
	storageCfg *config.Storage,
	notifyCfg *config.Notify,
) (interfaces.BuildUseCase, func(), error) {
	githubClient, err := githubCfg.NewClient()
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to create GitHub client")
	}

	h, err := hasher.New(buildCfg.Hashes...)
	if err != nil {
		return nil, nil, err
	}

	sinks, err := storageCfg.Configure(ctx)
	if err != nil {
		return nil, nil, err
	}

	opts := []usecase.BuildOption{
		usecase.WithUpstream(buildCfg.UpstreamOwner, buildCfg.UpstreamRepo),
		usecase.WithDownloadRetry(githubCfg.RetryPolicy()),
	}
	if sinks.Store != nil {
		opts = append(opts, usecase.WithArtifactStore(sinks.Store))
	}
	if sinks.Recorder != nil {
		opts = append(opts, usecase.WithBuildRecorder(sinks.Recorder))
	}
	if n := notifyCfg.Notifier(); n != nil {
		opts = append(opts, usecase.WithNotifier(n))
	}

	uc := usecase.NewBuild(
		githubClient,
		archive.New(archive.WithSevenZip(buildCfg.SevenZip)),
		inno.New(inno.WithISCC(buildCfg.ISCC)),
		h,
		opts...,
	)
	return uc, sinks.Close, nil
}
