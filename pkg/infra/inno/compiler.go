package inno

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/ehsan18t/easy-mingw-installer/pkg/domain/model"
)

const (
	// DefaultISCC is looked up in PATH when no explicit compiler is configured
	DefaultISCC = "ISCC.exe"

	// DefineOutputDir is passed as /O in addition to /D
	DefineOutputDir = "OutputDir"
	// DefineOutputBaseFilename is passed as /F in addition to /D
	DefineOutputBaseFilename = "OutputBaseFilename"
)

// Compiler runs the Inno Setup command line compiler
type Compiler struct {
	iscc   string
	execCC func(context.Context, string, ...string) *exec.Cmd // Allows test overrides
}

// Option configures the Compiler
type Option func(*Compiler)

// WithISCC sets the ISCC executable
func WithISCC(path string) Option {
	return func(c *Compiler) {
		c.iscc = path
	}
}

// WithExecCommand replaces exec.CommandContext
func WithExecCommand(fn func(context.Context, string, ...string) *exec.Cmd) Option {
	return func(c *Compiler) {
		c.execCC = fn
	}
}

// New creates a Compiler
func New(opts ...Option) *Compiler {
	c := &Compiler{
		iscc:   DefaultISCC,
		execCC: exec.CommandContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Args builds the ISCC command line. Defines are emitted in key order.
func Args(script string, defines map[string]string) []string {
	keys := make([]string, 0, len(defines))
	for k := range defines {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]string, 0, len(keys)+3)
	for _, k := range keys {
		args = append(args, "/D"+k+"="+defines[k])
	}
	if dir := defines[DefineOutputDir]; dir != "" {
		args = append(args, "/O"+dir)
	}
	if name := defines[DefineOutputBaseFilename]; name != "" {
		args = append(args, "/F"+name)
	}
	return append(args, script)
}

// Compile runs ISCC on script. A non-zero exit code is returned in the
// result together with an error carrying the compiler output.
func (c *Compiler) Compile(ctx context.Context, script string, defines map[string]string) (*model.CompileResult, error) {
	logger := ctxlog.From(ctx)

	args := Args(script, defines)
	cmd := c.execCC(ctx, c.iscc, args...)
	cmd.Dir = filepath.Dir(script)

	var out bytes.Buffer
	cmd.Stdout, cmd.Stderr = &out, &out

	logger.Debug("Running installer compiler", "cmd", strings.Join(cmd.Args, " "))

	result := &model.CompileResult{}
	err := cmd.Run()
	result.Output = out.String()

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, goerr.Wrap(err, "failed to run installer compiler", goerr.V("iscc", c.iscc))
		}
		result.ExitCode = exitErr.ExitCode()
		return result, goerr.Wrap(err, "installer compilation failed",
			goerr.V("script", script),
			goerr.V("exit_code", result.ExitCode),
			goerr.V("output", lastLines(result.Output, 20)),
		)
	}

	if dir, name := defines[DefineOutputDir], defines[DefineOutputBaseFilename]; dir != "" && name != "" {
		result.OutputFile = filepath.Join(dir, name+".exe")
	}

	logger.Info("Installer compiled", "script", script, "output_file", result.OutputFile)
	return result, nil
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\r\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
