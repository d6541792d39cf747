package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/ehsan18t/easy-mingw-installer/pkg/domain/model"
)

// DefaultSevenZip is looked up in PATH when no explicit binary is configured
const DefaultSevenZip = "7z"

// Extractor unpacks WinLibs archives. .zip files are extracted natively,
// everything else (.7z in practice) through the 7-Zip command line.
type Extractor struct {
	sevenZip string
	execCC   func(context.Context, string, ...string) *exec.Cmd // Allows test overrides
}

// Option configures the Extractor
type Option func(*Extractor)

// WithSevenZip sets the 7-Zip executable
func WithSevenZip(path string) Option {
	return func(x *Extractor) {
		x.sevenZip = path
	}
}

// WithExecCommand replaces exec.CommandContext
func WithExecCommand(fn func(context.Context, string, ...string) *exec.Cmd) Option {
	return func(x *Extractor) {
		x.execCC = fn
	}
}

// New creates an Extractor
func New(opts ...Option) *Extractor {
	x := &Extractor{
		sevenZip: DefaultSevenZip,
		execCC:   exec.CommandContext,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Extract unpacks archivePath into destDir, creating destDir when needed
func (x *Extractor) Extract(ctx context.Context, archivePath, destDir string) (*model.ExtractResult, error) {
	logger := ctxlog.From(ctx)

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, goerr.Wrap(err, "failed to create extraction directory", goerr.V("dir", destDir))
	}

	if strings.EqualFold(filepath.Ext(archivePath), ".zip") {
		logger.Debug("Extracting zip archive", "archive", archivePath, "dest", destDir)
		return extractZip(archivePath, destDir)
	}

	logger.Debug("Extracting archive with 7-Zip", "archive", archivePath, "dest", destDir, "7z", x.sevenZip)
	if err := x.run7z(ctx, archivePath, destDir); err != nil {
		return nil, err
	}

	return scanDir(destDir)
}

func (x *Extractor) run7z(ctx context.Context, archivePath, destDir string) error {
	args := []string{"x", "-y", "-o" + destDir, archivePath}
	cmd := x.execCC(ctx, x.sevenZip, args...)

	var out bytes.Buffer
	cmd.Stdout, cmd.Stderr = &out, &out
	if err := cmd.Run(); err != nil {
		return goerr.Wrap(err, "7-Zip extraction failed",
			goerr.V("archive", archivePath),
			goerr.V("dest", destDir),
			goerr.V("output", strings.TrimSpace(out.String())),
		)
	}
	return nil
}

func extractZip(archivePath, destDir string) (*model.ExtractResult, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open zip archive", goerr.V("archive", archivePath))
	}
	defer zr.Close()

	result := &model.ExtractResult{Dir: destDir}
	for _, file := range zr.File {
		if err := extractFile(file, destDir); err != nil {
			return nil, goerr.Wrap(err, "failed to extract file", goerr.V("file", file.Name))
		}
		if !file.FileInfo().IsDir() {
			result.Files = append(result.Files, filepath.ToSlash(filepath.Clean(file.Name)))
			result.Size += int64(file.UncompressedSize64)
		}
	}

	return result, nil
}

func extractFile(file *zip.File, destDir string) error {
	destPath := filepath.Join(destDir, file.Name)
	if !strings.HasPrefix(destPath, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return goerr.New("invalid file path in archive", goerr.V("file", file.Name), goerr.V("dest", destPath))
	}

	if file.FileInfo().IsDir() {
		return os.MkdirAll(destPath, 0o755)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return goerr.Wrap(err, "failed to create parent directories", goerr.V("dir", filepath.Dir(destPath)))
	}

	rc, err := file.Open()
	if err != nil {
		return goerr.Wrap(err, "failed to open file in zip")
	}
	defer rc.Close()

	mode := file.FileInfo().Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}
	destFile, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return goerr.Wrap(err, "failed to create destination file", goerr.V("path", destPath))
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, rc); err != nil {
		return goerr.Wrap(err, "failed to copy file content", goerr.V("path", destPath))
	}

	return nil
}

// scanDir lists the regular files below dir
func scanDir(dir string) (*model.ExtractResult, error) {
	result := &model.ExtractResult{Dir: dir}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		result.Files = append(result.Files, filepath.ToSlash(rel))
		result.Size += info.Size()
		return nil
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to scan extracted files", goerr.V("dir", dir))
	}
	return result, nil
}
