package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/ehsan18t/easy-mingw-installer/pkg/cli/config"
	"github.com/ehsan18t/easy-mingw-installer/pkg/domain/types"
)

func TestDefaultTargets(t *testing.T) {
	targets, err := config.DefaultTargets()
	gt.NoError(t, err)

	archs, err := targets.Compile(nil)
	gt.NoError(t, err)
	gt.Number(t, len(archs)).Equal(2)

	gt.Value(t, archs[0].Label).Equal("64")
	gt.Value(t, archs[0].AssetPattern.Match("winlibs-x86_64-posix-seh-gcc-15.1.0-mingw-w64ucrt-13.0.0-r4.7z")).Equal(true)
	gt.Value(t, archs[0].AssetPattern.Match("winlibs-x86_64-posix-seh-gcc-15.1.0-mingw-w64ucrt-13.0.0-r4.zip")).Equal(false)
	gt.Value(t, archs[1].AssetPattern.Match("winlibs-i686-posix-dwarf-gcc-15.1.0-mingw-w64ucrt-13.0.0-r4.7z")).Equal(true)

	title := types.TitlePattern(targets.TitlePattern)
	gt.Value(t, title.Match("GCC 15.1.0 (with POSIX threads) + LLVM/Clang/LLD/LLDB 20.1.7 + MinGW-w64 13.0.0 (UCRT) - release 4")).Equal(true)
	gt.Value(t, title.Match("GCC 15.1.0 (with POSIX threads) + MinGW-w64 13.0.0 (UCRT) - release 4")).Equal(true)
	gt.Value(t, title.Match("GCC 15.1.0 (with MCF threads) + MinGW-w64 13.0.0 (UCRT) - release 4")).Equal(false)
	gt.Value(t, title.Match("GCC 15.1.0 (with POSIX threads) + MinGW-w64 13.0.0 (MSVCRT) - release 4")).Equal(false)
}

func TestTargets_ArchitectureFilter(t *testing.T) {
	targets, err := config.DefaultTargets()
	gt.NoError(t, err)

	archs, err := targets.Compile([]string{"32"})
	gt.NoError(t, err)
	gt.Number(t, len(archs)).Equal(1)
	gt.Value(t, archs[0].HashHeading()).Equal("32-bit")

	_, err = targets.Compile([]string{"arm64"})
	gt.Error(t, err)
	gt.Value(t, errors.Is(err, types.ErrInvalidArgument)).Equal(true)
}

func TestLoadTargets(t *testing.T) {
	dir := t.TempDir()

	tomlPath := filepath.Join(dir, "targets.toml")
	gt.NoError(t, os.WriteFile(tomlPath, []byte(`
title_pattern = "GCC * (UCRT) *"

[[architectures]]
label = "64"
asset_pattern = 'x86_64.*\.7z$'
`), 0o644))

	yamlPath := filepath.Join(dir, "targets.yml")
	gt.NoError(t, os.WriteFile(yamlPath, []byte(`
title_pattern: "GCC * (UCRT) *"
architectures:
  - label: "64"
    display_name: "x64"
    asset_pattern: 'x86_64.*\.7z$'
    root_dir: mingw64
`), 0o644))

	for _, path := range []string{tomlPath, yamlPath} {
		t.Run(filepath.Ext(path), func(t *testing.T) {
			targets, err := config.LoadTargets(path)
			gt.NoError(t, err)
			gt.Value(t, targets.TitlePattern).Equal("GCC * (UCRT) *")

			archs, err := targets.Compile(nil)
			gt.NoError(t, err)
			gt.Number(t, len(archs)).Equal(1)
			gt.Value(t, archs[0].AssetPattern.String()).Equal(`x86_64.*\.7z$`)
		})
	}

	t.Run("unsupported extension", func(t *testing.T) {
		p := filepath.Join(dir, "targets.json")
		gt.NoError(t, os.WriteFile(p, []byte(`{}`), 0o644))
		_, err := config.LoadTargets(p)
		gt.Value(t, errors.Is(err, types.ErrInvalidArgument)).Equal(true)
	})

	t.Run("invalid regex", func(t *testing.T) {
		p := filepath.Join(dir, "bad.toml")
		gt.NoError(t, os.WriteFile(p, []byte("[[architectures]]\nlabel = \"64\"\nasset_pattern = \"x86_64(\"\n"), 0o644))
		targets, err := config.LoadTargets(p)
		gt.NoError(t, err)
		_, err = targets.Compile(nil)
		gt.Value(t, errors.Is(err, types.ErrInvalidArgument)).Equal(true)
	})
}

func TestBuild_Request(t *testing.T) {
	cfg := &config.Build{
		TitlePattern:  "GCC 15.* (UCRT) *",
		Archs:         []string{"64"},
		ProjectOwner:  "ehsan18t",
		ProjectRepo:   "easy-mingw-installer",
		BuildTag:      "2025.06.09",
		InnoScript:    "installer.iss",
		ScriptChanges: []string{"Fix PATH update"},
	}

	req, err := cfg.Request()
	gt.NoError(t, err)
	gt.Value(t, req.TitlePattern).Equal(types.TitlePattern("GCC 15.* (UCRT) *"))
	gt.Number(t, len(req.Architectures)).Equal(1)
	gt.Value(t, req.Architectures[0].RootDir).Equal("mingw64")
	gt.Value(t, req.BuildTag).Equal("2025.06.09")
	gt.Value(t, req.ScriptChanges).Equal([]string{"Fix PATH update"})
}
