package toolchain

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/forge-platform/forgecode/internal/core/domain"
	"github.com/forge-platform/forgecode/internal/core/ports"
)

const goModContent = "module forgeprogram\n\ngo 1.22\n"

// GoBuild compiles generated Go inside a scratch module with go build.
type GoBuild struct {
	binary   string
	workDir  string
	keepWork bool
	logger   ports.Logger
}

// NewGoBuild creates a go build toolchain.
func NewGoBuild(opts Options) *GoBuild {
	binary := opts.Binary
	if binary == "" {
		binary = "go"
	}
	return &GoBuild{
		binary:   binary,
		workDir:  opts.WorkDir,
		keepWork: opts.KeepWork,
		logger:   opts.Logger,
	}
}

func (g *GoBuild) Target() domain.Target {
	return domain.TargetGo
}

// Env returns the extra environment for a request.
func (g *GoBuild) Env(req ports.BuildRequest) []string {
	env := []string{"GOWORK=off", "GOFLAGS=-mod=mod"}
	if req.Sandbox {
		env = append(env, "GOOS=wasip1", "GOARCH=wasm")
	}
	return env
}

// Build writes req.Source as main.go next to a go.mod and builds it into
// req.Output.
func (g *GoBuild) Build(ctx context.Context, req ports.BuildRequest) error {
	if req.Output == "" {
		return fmt.Errorf("go build needs an output path")
	}
	out, err := filepath.Abs(req.Output)
	if err != nil {
		return fmt.Errorf("failed to resolve output path: %w", err)
	}

	tmpDir, err := os.MkdirTemp(g.workDir, "forge-go-*")
	if err != nil {
		return fmt.Errorf("failed to create work dir: %w", err)
	}
	if g.keepWork {
		if g.logger != nil {
			g.logger.Info("Keeping go work dir", "dir", tmpDir)
		}
	} else {
		defer os.RemoveAll(tmpDir)
	}

	if err := os.WriteFile(filepath.Join(tmpDir, "main.go"), []byte(req.Source), 0644); err != nil {
		return fmt.Errorf("failed to write main.go: %w", err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "go.mod"), []byte(goModContent), 0644); err != nil {
		return fmt.Errorf("failed to write go.mod: %w", err)
	}

	if g.logger != nil {
		g.logger.Debug("Invoking compiler", "tool", g.binary, "dir", tmpDir, "sandbox", req.Sandbox)
	}

	cmd := exec.CommandContext(ctx, g.binary, "build", "-o", out, ".")
	cmd.Dir = tmpDir
	cmd.Env = append(os.Environ(), g.Env(req)...)
	return runCompiler(cmd, g.binary+" build", req.Diagnostics)
}

var _ ports.Toolchain = (*GoBuild)(nil)
