package cli

import (
	"context"
	"encoding/json"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/ehsan18t/easy-mingw-installer/pkg/cli/config"
	"github.com/ehsan18t/easy-mingw-installer/pkg/infra/archive"
	"github.com/ehsan18t/easy-mingw-installer/pkg/infra/hasher"
	"github.com/ehsan18t/easy-mingw-installer/pkg/infra/inno"
	"github.com/ehsan18t/easy-mingw-installer/pkg/usecase"
)

func cmdSelect() *cli.Command {
	var (
		githubCfg config.GitHub
		buildCfg  config.Build
		asJSON    bool
	)

	flags := append(githubCfg.Flags(), buildCfg.Flags()...)
	flags = append(flags, &cli.BoolFlag{
		Name:        "json",
		Usage:       "Print the selection as JSON",
		Destination: &asJSON,
	})

	return &cli.Command{
		Name:  "select",
		Usage: "Show the release and assets a build would use",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			req, err := buildCfg.Request()
			if err != nil {
				return err
			}

			githubClient, err := githubCfg.NewClient()
			if err != nil {
				return err
			}

			h, err := hasher.New(buildCfg.Hashes...)
			if err != nil {
				return err
			}

			uc := usecase.NewBuild(githubClient, archive.New(), inno.New(), h,
				usecase.WithUpstream(buildCfg.UpstreamOwner, buildCfg.UpstreamRepo),
			)

			selections, err := uc.Preview(ctx, req)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(selections); err != nil {
					return goerr.Wrap(err, "failed to encode selection")
				}
				return nil
			}

			printSelections(os.Stdout, selections)
			return nil
		},
	}
}
