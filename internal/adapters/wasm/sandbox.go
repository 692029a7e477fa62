// Package wasm runs WebAssembly artifacts in a wazero sandbox.
package wasm

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/forge-platform/forgecode/internal/core/ports"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"
)

// SandboxOptions configures the sandbox executor.
type SandboxOptions struct {
	// CacheDir persists compiled modules between runs. Empty disables it.
	CacheDir string
	// Env is exposed to the guest as its environment.
	Env map[string]string
}

// Sandbox executes wasip1 artifacts with no filesystem or network access.
// Only stdio, clocks and the random source are wired through.
type Sandbox struct {
	logger ports.Logger
	opts   SandboxOptions
}

// NewSandbox creates a sandbox executor.
func NewSandbox(logger ports.Logger, opts SandboxOptions) *Sandbox {
	return &Sandbox{logger: logger, opts: opts}
}

// Run instantiates the artifact and runs its _start function. A guest that
// calls proc_exit reports that code; one that returns normally reports 0.
func (s *Sandbox) Run(ctx context.Context, req ports.RunRequest) (int, error) {
	wasmBytes, err := os.ReadFile(req.Artifact)
	if err != nil {
		return -1, fmt.Errorf("failed to read artifact: %w", err)
	}
	return s.RunBytes(ctx, filepath.Base(req.Artifact), wasmBytes, req)
}

// RunBytes runs an in-memory module. name becomes the guest's argv[0].
func (s *Sandbox) RunBytes(ctx context.Context, name string, wasmBytes []byte, req ports.RunRequest) (int, error) {
	hash := sha256.Sum256(wasmBytes)
	s.logger.Debug("Starting sandbox", "module", name, "sha256", hex.EncodeToString(hash[:8]), "size", len(wasmBytes))

	// Cancelling ctx closes the module even while the guest is looping.
	rtConfig := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if s.opts.CacheDir != "" {
		cache, err := wazero.NewCompilationCacheWithDir(s.opts.CacheDir)
		if err != nil {
			s.logger.Warn("Compilation cache unavailable", "dir", s.opts.CacheDir, "error", err)
		} else {
			defer cache.Close(ctx)
			rtConfig = rtConfig.WithCompilationCache(cache)
		}
	}

	r := wazero.NewRuntimeWithConfig(ctx, rtConfig)
	defer r.Close(ctx)

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, r); err != nil {
		return -1, fmt.Errorf("failed to instantiate WASI: %w", err)
	}

	compiled, err := r.CompileModule(ctx, wasmBytes)
	if err != nil {
		return -1, fmt.Errorf("failed to compile module: %w", err)
	}

	config := wazero.NewModuleConfig().
		WithName(name).
		WithArgs(append([]string{name}, req.Args...)...).
		WithSysWalltime().
		WithSysNanotime().
		WithSysNanosleep().
		WithRandSource(rand.Reader)
	if req.Stdin != nil {
		config = config.WithStdin(req.Stdin)
	}
	if req.Stdout != nil {
		config = config.WithStdout(req.Stdout)
	}
	if req.Stderr != nil {
		config = config.WithStderr(req.Stderr)
	}
	for k, v := range s.opts.Env {
		config = config.WithEnv(k, v)
	}

	mod, err := r.InstantiateModule(ctx, compiled, config)
	if err != nil {
		if ctx.Err() != nil {
			return -1, fmt.Errorf("module %s interrupted: %w", name, ctx.Err())
		}
		var exitErr *sys.ExitError
		if errors.As(err, &exitErr) {
			code := int(exitErr.ExitCode())
			s.logger.Debug("Sandbox exited", "module", name, "code", code)
			return code, nil
		}
		return -1, fmt.Errorf("failed to run module: %w", err)
	}
	if mod != nil {
		defer mod.Close(ctx)
	}

	s.logger.Debug("Sandbox returned", "module", name)
	return 0, nil
}

var _ ports.Executor = (*Sandbox)(nil)
