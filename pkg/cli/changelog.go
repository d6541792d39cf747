package cli

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/ehsan18t/easy-mingw-installer/pkg/cli/config"
	"github.com/ehsan18t/easy-mingw-installer/pkg/domain/model"
	"github.com/ehsan18t/easy-mingw-installer/pkg/usecase"
)

func cmdChangelog() *cli.Command {
	var (
		githubCfg config.GitHub
		req       model.ChangelogRequest
	)

	flags := append(githubCfg.Flags(),
		&cli.StringFlag{
			Name:        "input-file",
			Usage:       "Info file of the current build, required unless --current-tag is given",
			Destination: &req.InputFile,
		},
		&cli.StringFlag{
			Name:        "output-file",
			Usage:       "Path of the generated Markdown",
			Required:    true,
			Destination: &req.OutputFile,
		},
		&cli.StringFlag{
			Name:        "prev-tag",
			Usage:       "Previous project release tag, no comparison when omitted",
			Destination: &req.PreviousTag,
		},
		&cli.StringFlag{
			Name:        "current-build-tag",
			Usage:       "Tag of the release being built",
			Required:    true,
			Destination: &req.CurrentBuildTag,
		},
		&cli.StringFlag{
			Name:        "current-tag",
			Usage:       "Read the current packages from this project release instead of --input-file",
			Destination: &req.CurrentTag,
		},
		&cli.StringSliceFlag{
			Name:        "script-change",
			Usage:       "Installer change listed under Script/Installer Changelogs, repeatable",
			Destination: &req.ScriptChanges,
		},
		&cli.StringFlag{
			Name:        "github-owner",
			Usage:       "Project repository owner",
			Value:       "ehsan18t",
			Destination: &req.Owner,
		},
		&cli.StringFlag{
			Name:        "github-repo",
			Usage:       "Project repository name",
			Value:       "easy-mingw-installer",
			Destination: &req.Repo,
		},
	)

	return &cli.Command{
		Name:    "changelog",
		Aliases: []string{"c"},
		Usage:   "Generate release notes from a build info file or an existing release",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			githubClient, err := githubCfg.NewClient()
			if err != nil {
				return err
			}

			_, err = usecase.NewChangelog(githubClient).Generate(ctx, &req)
			return err
		},
	}
}
