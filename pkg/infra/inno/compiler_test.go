package inno_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/ehsan18t/easy-mingw-installer/pkg/infra/inno"
)

func TestArgs(t *testing.T) {
	args := inno.Args(`C:\src\installer.iss`, map[string]string{
		"MyAppVersion":       "2025.06.09",
		"Arch":               "64",
		"OutputDir":          `C:\out`,
		"OutputBaseFilename": "EasyMinGW.Installer.v2025.06.09.64-bit",
	})

	gt.Value(t, args).Equal([]string{
		"/DArch=64",
		"/DMyAppVersion=2025.06.09",
		"/DOutputBaseFilename=EasyMinGW.Installer.v2025.06.09.64-bit",
		`/DOutputDir=C:\out`,
		`/OC:\out`,
		"/FEasyMinGW.Installer.v2025.06.09.64-bit",
		`C:\src\installer.iss`,
	})
}

func fakeExecCommand(mode string) func(context.Context, string, ...string) *exec.Cmd {
	return func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cs := append([]string{"-test.run=TestHelperProcess", "--", name}, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], cs...)
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "HELPER_MODE="+mode)
		return cmd
	}
}

// TestHelperProcess stands in for ISCC.exe
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	args = args[1:]

	fmt.Println("Inno Setup 6 Command-Line Compiler")
	if os.Getenv("HELPER_MODE") == "fail" {
		fmt.Fprintln(os.Stderr, "Error on line 12 in installer.iss: Unknown identifier \"Arch\"")
		fmt.Println("Compile aborted.")
		os.Exit(2)
	}

	var outDir, base string
	for _, a := range args[1:] {
		switch {
		case strings.HasPrefix(a, "/O"):
			outDir = strings.TrimPrefix(a, "/O")
		case strings.HasPrefix(a, "/F"):
			base = strings.TrimPrefix(a, "/F")
		}
	}
	if outDir != "" && base != "" {
		if err := os.WriteFile(filepath.Join(outDir, base+".exe"), []byte("MZ"), 0o644); err != nil {
			os.Exit(4)
		}
	}
	fmt.Println("Successful compile")
	os.Exit(0)
}

func TestCompile_Success(t *testing.T) {
	tmp := t.TempDir()
	script := filepath.Join(tmp, "installer.iss")
	gt.NoError(t, os.WriteFile(script, []byte("[Setup]"), 0o644))

	c := inno.New(inno.WithExecCommand(fakeExecCommand("ok")))
	result, err := c.Compile(context.Background(), script, map[string]string{
		inno.DefineOutputDir:          tmp,
		inno.DefineOutputBaseFilename: "EasyMinGW.Installer.64-bit",
	})
	gt.NoError(t, err)
	gt.Number(t, result.ExitCode).Equal(0)
	gt.String(t, result.Output).Contains("Successful compile")
	gt.Value(t, result.OutputFile).Equal(filepath.Join(tmp, "EasyMinGW.Installer.64-bit.exe"))

	_, err = os.Stat(result.OutputFile)
	gt.NoError(t, err)
}

func TestCompile_NonZeroExit(t *testing.T) {
	tmp := t.TempDir()
	script := filepath.Join(tmp, "installer.iss")

	c := inno.New(inno.WithISCC("iscc"), inno.WithExecCommand(fakeExecCommand("fail")))
	result, err := c.Compile(context.Background(), script, nil)
	gt.Error(t, err)
	gt.Value(t, result).NotNil()
	gt.Number(t, result.ExitCode).Equal(2)
	gt.String(t, result.Output).Contains("Compile aborted.")
	gt.String(t, err.Error()).Contains("installer compilation failed")
}

func TestCompile_MissingBinary(t *testing.T) {
	tmp := t.TempDir()

	c := inno.New(inno.WithISCC(filepath.Join(tmp, "does-not-exist.exe")))
	result, err := c.Compile(context.Background(), filepath.Join(tmp, "installer.iss"), nil)
	gt.Error(t, err)
	gt.Value(t, result).Nil()
}
