package toolchain

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/forge-platform/forgecode/internal/core/domain"
	"github.com/forge-platform/forgecode/internal/core/ports"
)

// WasiRustTarget is the rustc target used for sandboxed builds.
const WasiRustTarget = "wasm32-wasip1"

// Rustc compiles generated Rust by piping it to rustc on stdin.
type Rustc struct {
	binary string
	logger ports.Logger
}

// NewRustc creates a rustc toolchain.
func NewRustc(opts Options) *Rustc {
	binary := opts.Binary
	if binary == "" {
		binary = "rustc"
	}
	return &Rustc{binary: binary, logger: opts.Logger}
}

func (r *Rustc) Target() domain.Target {
	return domain.TargetRust
}

// Args returns the rustc arguments for a request.
func (r *Rustc) Args(req ports.BuildRequest) []string {
	args := []string{"-", "-o", req.Output}
	if req.Sandbox {
		args = append(args, "--target", WasiRustTarget)
	}
	return args
}

// Build compiles req.Source into req.Output.
func (r *Rustc) Build(ctx context.Context, req ports.BuildRequest) error {
	if req.Output == "" {
		return fmt.Errorf("rustc build needs an output path")
	}
	out, err := filepath.Abs(req.Output)
	if err != nil {
		return fmt.Errorf("failed to resolve output path: %w", err)
	}
	req.Output = out

	args := r.Args(req)
	if r.logger != nil {
		r.logger.Debug("Invoking compiler", "tool", r.binary, "args", strings.Join(args, " "))
	}

	cmd := exec.CommandContext(ctx, r.binary, args...)
	cmd.Stdin = strings.NewReader(req.Source)
	return runCompiler(cmd, r.binary, req.Diagnostics)
}

var _ ports.Toolchain = (*Rustc)(nil)
