// Package toolchain drives the external compilers that turn generated source
// into runnable artifacts, and runs native artifacts.
package toolchain

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/forge-platform/forgecode/internal/core/domain"
	"github.com/forge-platform/forgecode/internal/core/ports"
)

// CompileError reports a compiler that ran but rejected the generated source.
type CompileError struct {
	Tool   string
	Output string
	Err    error
}

func (e *CompileError) Error() string {
	msg := fmt.Sprintf("%s failed: %v", e.Tool, e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += "\n" + out
	}
	return msg
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// Options configures a toolchain.
type Options struct {
	// Binary is the compiler command; it defaults to the target's usual name.
	Binary string
	// WorkDir holds scratch directories for toolchains that need a project.
	WorkDir string
	// KeepWork leaves scratch directories in place for inspection.
	KeepWork bool
	Logger   ports.Logger
}

// New returns the toolchain for a target.
func New(target domain.Target, opts Options) (ports.Toolchain, error) {
	switch target {
	case domain.TargetRust:
		return NewRustc(opts), nil
	case domain.TargetGo:
		return NewGoBuild(opts), nil
	default:
		return nil, fmt.Errorf("no toolchain for target %q", target)
	}
}

// runCompiler runs cmd, routing its output to diag or into the error.
func runCompiler(cmd *exec.Cmd, tool string, diag io.Writer) error {
	var captured bytes.Buffer
	out := diag
	if out == nil {
		out = &captured
	}
	cmd.Stdout = out
	cmd.Stderr = out

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &CompileError{Tool: tool, Output: captured.String(), Err: err}
		}
		return fmt.Errorf("failed to start %s: %w", tool, err)
	}
	return nil
}
