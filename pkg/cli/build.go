package cli

import (
	"context"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/ehsan18t/easy-mingw-installer/pkg/cli/config"
)

func cmdBuild() *cli.Command {
	var (
		githubCfg  config.GitHub
		buildCfg   config.Build
		storageCfg config.Storage
		notifyCfg  config.Notify
	)

	var flags []cli.Flag
	flags = append(flags, githubCfg.Flags()...)
	flags = append(flags, buildCfg.Flags()...)
	flags = append(flags, storageCfg.Flags()...)
	flags = append(flags, notifyCfg.Flags()...)

	return &cli.Command{
		Name:    "build",
		Aliases: []string{"b"},
		Usage:   "Download the selected WinLibs release and build installers",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			req, err := buildCfg.Request()
			if err != nil {
				return err
			}
			if req.BuildTag == "" {
				return goerr.New("--build-tag is required")
			}

			uc, cleanup, err := newBuildUseCase(ctx, &githubCfg, &buildCfg, &storageCfg, &notifyCfg)
			if err != nil {
				return err
			}
			defer cleanup()

			report, err := uc.Run(ctx, req)
			if err != nil {
				return goerr.Wrap(err, "build failed")
			}

			printReport(os.Stdout, report)
			if failed := report.Failed(); len(failed) > 0 {
				return goerr.New("some architectures failed",
					goerr.V("failed", len(failed)),
					goerr.V("total", len(report.Results)),
				)
			}
			return nil
		},
	}
}
