package toolchain

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"syscall"

	"github.com/forge-platform/forgecode/internal/core/ports"
)

// NativeExecutor runs artifacts as host processes.
type NativeExecutor struct{}

// NewNativeExecutor creates a native executor.
func NewNativeExecutor() *NativeExecutor {
	return &NativeExecutor{}
}

// Run executes the artifact and returns its exit code.
func (e *NativeExecutor) Run(ctx context.Context, req ports.RunRequest) (int, error) {
	cmd := exec.CommandContext(ctx, req.Artifact, req.Args...)
	cmd.Stdin = req.Stdin
	cmd.Stdout = req.Stdout
	cmd.Stderr = req.Stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return -1, fmt.Errorf("run of %s interrupted: %w", req.Artifact, ctx.Err())
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitStatus(exitErr), nil
		}
		return -1, fmt.Errorf("failed to run %s: %w", req.Artifact, err)
	}
	return 0, nil
}

// exitStatus maps a process killed by a signal to 128+signal, the status a
// shell reports for it.
func exitStatus(err *exec.ExitError) int {
	if code := err.ExitCode(); code >= 0 {
		return code
	}
	if ws, ok := err.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return 1
}

var _ ports.Executor = (*NativeExecutor)(nil)
