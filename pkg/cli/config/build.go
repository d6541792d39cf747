package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/ehsan18t/easy-mingw-installer/pkg/domain/model"
	"github.com/ehsan18t/easy-mingw-installer/pkg/domain/types"
	"github.com/ehsan18t/easy-mingw-installer/pkg/infra/hasher"
)

//go:embed defaults.toml
var defaultTargets []byte

// Build holds the packaging pipeline configuration
type Build struct {
	ConfigFile      string
	TitlePattern    string
	Archs           []string
	ProjectOwner    string
	ProjectRepo     string
	UpstreamOwner   string
	UpstreamRepo    string
	BuildTag        string
	PreviousTag     string
	SkipPreviousTag bool
	InnoScript      string
	OutputDir       string
	WorkDir         string
	InstallerName   string
	KeepWorkDir     bool
	SevenZip        string
	ISCC            string
	Hashes          []string
	ScriptChanges   []string
}

// Flags returns CLI flags for build configuration
func (c *Build) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "Target definition file (.toml, .yaml or .yml)",
			Destination: &c.ConfigFile,
			Sources:     cli.EnvVars("EASY_MINGW_CONFIG"),
		},
		&cli.StringFlag{
			Name:        "title-pattern",
			Usage:       "Glob matched against upstream release titles, overrides the target file",
			Destination: &c.TitlePattern,
			Sources:     cli.EnvVars("EASY_MINGW_TITLE_PATTERN"),
		},
		&cli.StringSliceFlag{
			Name:        "arch",
			Usage:       "Architecture labels to build, all when omitted",
			Destination: &c.Archs,
			Sources:     cli.EnvVars("EASY_MINGW_ARCHS"),
		},
		&cli.StringFlag{
			Name:        "project-owner",
			Usage:       "Owner of the repository publishing the installers",
			Value:       "ehsan18t",
			Destination: &c.ProjectOwner,
			Sources:     cli.EnvVars("EASY_MINGW_PROJECT_OWNER"),
		},
		&cli.StringFlag{
			Name:        "project-repo",
			Usage:       "Repository publishing the installers",
			Value:       "easy-mingw-installer",
			Destination: &c.ProjectRepo,
			Sources:     cli.EnvVars("EASY_MINGW_PROJECT_REPO"),
		},
		&cli.StringFlag{
			Name:        "upstream-owner",
			Usage:       "Owner of the upstream WinLibs repository",
			Value:       "brechtsanders",
			Destination: &c.UpstreamOwner,
			Sources:     cli.EnvVars("EASY_MINGW_UPSTREAM_OWNER"),
		},
		&cli.StringFlag{
			Name:        "upstream-repo",
			Usage:       "Upstream WinLibs repository",
			Value:       "winlibs_mingw",
			Destination: &c.UpstreamRepo,
			Sources:     cli.EnvVars("EASY_MINGW_UPSTREAM_REPO"),
		},
		&cli.StringFlag{
			Name:        "build-tag",
			Usage:       "Tag of the release being built, e.g. 2025.06.09",
			Destination: &c.BuildTag,
			Sources:     cli.EnvVars("EASY_MINGW_BUILD_TAG"),
		},
		&cli.StringFlag{
			Name:        "prev-tag",
			Usage:       "Previous project tag to compare against, detected from tags when omitted",
			Destination: &c.PreviousTag,
			Sources:     cli.EnvVars("EASY_MINGW_PREV_TAG"),
		},
		&cli.BoolFlag{
			Name:        "no-prev-tag",
			Usage:       "Do not compare against a previous release",
			Destination: &c.SkipPreviousTag,
			Sources:     cli.EnvVars("EASY_MINGW_NO_PREV_TAG"),
		},
		&cli.StringFlag{
			Name:        "inno-script",
			Usage:       "Inno Setup script",
			Value:       "installer.iss",
			Destination: &c.InnoScript,
			Sources:     cli.EnvVars("EASY_MINGW_INNO_SCRIPT"),
		},
		&cli.StringFlag{
			Name:        "output-dir",
			Usage:       "Directory receiving installers and release notes",
			Value:       "output",
			Destination: &c.OutputDir,
			Sources:     cli.EnvVars("EASY_MINGW_OUTPUT_DIR"),
		},
		&cli.StringFlag{
			Name:        "work-dir",
			Usage:       "Download and extraction directory, temporary when omitted",
			Destination: &c.WorkDir,
			Sources:     cli.EnvVars("EASY_MINGW_WORK_DIR"),
		},
		&cli.StringFlag{
			Name:        "installer-name",
			Usage:       "Installer name prefix",
			Value:       "EasyMinGW.Installer",
			Destination: &c.InstallerName,
			Sources:     cli.EnvVars("EASY_MINGW_INSTALLER_NAME"),
		},
		&cli.BoolFlag{
			Name:        "keep-work-dir",
			Usage:       "Keep the temporary work directory",
			Destination: &c.KeepWorkDir,
			Sources:     cli.EnvVars("EASY_MINGW_KEEP_WORK_DIR"),
		},
		&cli.StringFlag{
			Name:        "7z",
			Usage:       "7-Zip executable",
			Value:       "7z",
			Destination: &c.SevenZip,
			Sources:     cli.EnvVars("EASY_MINGW_7Z"),
		},
		&cli.StringFlag{
			Name:        "iscc",
			Usage:       "Inno Setup compiler executable",
			Value:       "ISCC.exe",
			Destination: &c.ISCC,
			Sources:     cli.EnvVars("EASY_MINGW_ISCC"),
		},
		&cli.StringSliceFlag{
			Name:        "hash",
			Usage:       "Hash algorithms listed in the release notes (" + strings.Join(hasher.Algorithms(), ", ") + "), all when omitted",
			Destination: &c.Hashes,
			Sources:     cli.EnvVars("EASY_MINGW_HASHES"),
		},
		&cli.StringSliceFlag{
			Name:        "script-change",
			Usage:       "Installer change listed under Script/Installer Changelogs, repeatable",
			Destination: &c.ScriptChanges,
		},
	}
}

// Targets is the content of a target definition file
type Targets struct {
	TitlePattern  string         `toml:"title_pattern" yaml:"title_pattern"`
	Architectures []TargetConfig `toml:"architectures" yaml:"architectures"`
}

// TargetConfig describes one architecture in a target definition file
type TargetConfig struct {
	Label        string `toml:"label" yaml:"label"`
	DisplayName  string `toml:"display_name" yaml:"display_name"`
	AssetPattern string `toml:"asset_pattern" yaml:"asset_pattern"`
	InnoArch     string `toml:"inno_arch" yaml:"inno_arch"`
	RootDir      string `toml:"root_dir" yaml:"root_dir"`
}

// DefaultTargets returns the built-in WinLibs target definitions
func DefaultTargets() (*Targets, error) {
	var t Targets
	if err := toml.Unmarshal(defaultTargets, &t); err != nil {
		return nil, goerr.Wrap(err, "failed to parse built-in targets")
	}
	return &t, nil
}

// LoadTargets reads a target definition file. The format follows the extension.
func LoadTargets(path string) (*Targets, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read target file", goerr.V("path", path))
	}

	var t Targets
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &t)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &t)
	default:
		return nil, goerr.Wrap(types.ErrInvalidArgument, "unsupported target file format", goerr.V("path", path))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse target file", goerr.V("path", path))
	}

	return &t, nil
}

// Compile compiles the targets, keeping only the given labels when any
func (t *Targets) Compile(labels []string) ([]model.Architecture, error) {
	want := make(map[string]bool, len(labels))
	for _, l := range labels {
		if l = strings.TrimSpace(l); l != "" {
			want[l] = true
		}
	}
	filter := len(want) > 0

	var archs []model.Architecture
	for _, tc := range t.Architectures {
		if filter && !want[tc.Label] {
			continue
		}
		delete(want, tc.Label)

		pattern, err := types.ParseAssetPattern(tc.AssetPattern)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid asset pattern", goerr.V("arch", tc.Label))
		}
		archs = append(archs, model.Architecture{
			Label:        tc.Label,
			DisplayName:  tc.DisplayName,
			AssetPattern: pattern,
			InnoArch:     tc.InnoArch,
			RootDir:      tc.RootDir,
		})
	}

	for label := range want {
		return nil, goerr.Wrap(types.ErrInvalidArgument, "unknown architecture", goerr.V("arch", label))
	}
	return archs, nil
}

// Request builds the pipeline input from flags and target definitions
func (c *Build) Request() (*model.BuildRequest, error) {
	targets, err := c.targets()
	if err != nil {
		return nil, err
	}

	archs, err := targets.Compile(c.Archs)
	if err != nil {
		return nil, err
	}

	title := targets.TitlePattern
	if c.TitlePattern != "" {
		title = c.TitlePattern
	}

	return &model.BuildRequest{
		TitlePattern:    types.TitlePattern(title),
		Architectures:   archs,
		ProjectOwner:    c.ProjectOwner,
		ProjectRepo:     c.ProjectRepo,
		BuildTag:        c.BuildTag,
		PreviousTag:     c.PreviousTag,
		SkipPreviousTag: c.SkipPreviousTag,
		InnoScript:      c.InnoScript,
		OutputDir:       c.OutputDir,
		WorkDir:         c.WorkDir,
		InstallerName:   c.InstallerName,
		KeepWorkDir:     c.KeepWorkDir,
		ScriptChanges:   c.ScriptChanges,
	}, nil
}

func (c *Build) targets() (*Targets, error) {
	if c.ConfigFile == "" {
		return DefaultTargets()
	}
	return LoadTargets(c.ConfigFile)
}
