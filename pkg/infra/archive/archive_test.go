package archive_test

import (
	"archive/zip"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/ehsan18t/easy-mingw-installer/pkg/infra/archive"
)

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	gt.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		gt.NoError(t, err)
		_, err = w.Write([]byte(content))
		gt.NoError(t, err)
	}
	gt.NoError(t, zw.Close())
}

func TestExtract_Zip(t *testing.T) {
	tmp := t.TempDir()
	archivePath := filepath.Join(tmp, "winlibs.zip")
	writeZip(t, archivePath, map[string]string{
		"mingw64/version_info.txt": "winlibs build",
		"mingw64/bin/gcc.exe":      "MZ",
	})

	dest := filepath.Join(tmp, "out")
	result, err := archive.New().Extract(context.Background(), archivePath, dest)
	gt.NoError(t, err)
	gt.Value(t, result.Dir).Equal(dest)
	gt.Number(t, len(result.Files)).Equal(2)
	gt.Number(t, result.Size).Equal(int64(len("winlibs build") + len("MZ")))

	content, err := os.ReadFile(filepath.Join(dest, "mingw64", "version_info.txt"))
	gt.NoError(t, err)
	gt.Value(t, string(content)).Equal("winlibs build")
}

func TestExtract_ZipRejectsPathTraversal(t *testing.T) {
	tmp := t.TempDir()
	archivePath := filepath.Join(tmp, "evil.zip")
	writeZip(t, archivePath, map[string]string{
		"../escape.txt": "nope",
	})

	_, err := archive.New().Extract(context.Background(), archivePath, filepath.Join(tmp, "out"))
	gt.Error(t, err)

	_, statErr := os.Stat(filepath.Join(tmp, "escape.txt"))
	gt.Value(t, os.IsNotExist(statErr)).Equal(true)
}

func fakeExecCommand(mode string) func(context.Context, string, ...string) *exec.Cmd {
	return func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cs := append([]string{"-test.run=TestHelperProcess", "--", name}, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], cs...)
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "HELPER_MODE="+mode)
		return cmd
	}
}

// TestHelperProcess stands in for the 7z binary
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	args = args[1:]

	if os.Getenv("HELPER_MODE") == "fail" {
		fmt.Fprintln(os.Stderr, "ERROR: Can not open the file as archive")
		os.Exit(2)
	}

	if len(args) != 5 || args[1] != "x" || args[2] != "-y" || !strings.HasPrefix(args[3], "-o") {
		fmt.Fprintf(os.Stderr, "unexpected arguments: %v\n", args)
		os.Exit(3)
	}

	dest := strings.TrimPrefix(args[3], "-o")
	if err := os.MkdirAll(filepath.Join(dest, "mingw32", "bin"), 0o755); err != nil {
		os.Exit(4)
	}
	if err := os.WriteFile(filepath.Join(dest, "mingw32", "version_info.txt"), []byte("info"), 0o644); err != nil {
		os.Exit(4)
	}
	if err := os.WriteFile(filepath.Join(dest, "mingw32", "bin", "gcc.exe"), []byte("MZMZ"), 0o644); err != nil {
		os.Exit(4)
	}
	os.Exit(0)
}

func TestExtract_SevenZip(t *testing.T) {
	tmp := t.TempDir()
	dest := filepath.Join(tmp, "out")

	x := archive.New(
		archive.WithSevenZip(`C:\Program Files\7-Zip\7z.exe`),
		archive.WithExecCommand(fakeExecCommand("ok")),
	)
	result, err := x.Extract(context.Background(), filepath.Join(tmp, "winlibs-i686.7z"), dest)
	gt.NoError(t, err)
	gt.Value(t, result.Files).Equal([]string{"mingw32/bin/gcc.exe", "mingw32/version_info.txt"})
	gt.Number(t, result.Size).Equal(int64(8))
}

func TestExtract_SevenZipFailure(t *testing.T) {
	tmp := t.TempDir()

	x := archive.New(archive.WithExecCommand(fakeExecCommand("fail")))
	_, err := x.Extract(context.Background(), filepath.Join(tmp, "broken.7z"), filepath.Join(tmp, "out"))
	gt.Error(t, err)
	gt.String(t, err.Error()).Contains("7-Zip extraction failed")
}
