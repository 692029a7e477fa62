package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/forge-platform/forgecode/internal/adapters/backend"
	"github.com/forge-platform/forgecode/internal/adapters/cloud"
	"github.com/forge-platform/forgecode/internal/adapters/storage"
	"github.com/forge-platform/forgecode/internal/adapters/toolchain"
	"github.com/forge-platform/forgecode/internal/adapters/wasm"
	"github.com/forge-platform/forgecode/internal/core/domain"
	"github.com/forge-platform/forgecode/internal/core/ports"
	"github.com/forge-platform/forgecode/internal/core/services"
)

// app holds the services a command needs, built from the loaded config.
type app struct {
	logger     ports.Logger
	transpiler *services.Transpiler
	builds     *services.BuildService

	closers []func() error
}

func newLogger() ports.Logger {
	return services.NewSlogLogger(cfg.Core.LogLevel, cfg.Core.LogJSON)
}

// newTranspiler builds a transpiler for the configured target.
func newTranspiler(logger ports.Logger) (*services.Transpiler, error) {
	b, err := backend.Lookup(cfg.Transpile.Target)
	if err != nil {
		return nil, err
	}
	return services.NewTranspiler(b, logger.With("target", b.Name()), services.TranspilerOptions{
		Mode:       domain.Mode(cfg.Transpile.Mode),
		IndentUnit: cfg.Transpile.Indent,
	}), nil
}

// newApp wires the pipeline. History and publishing are only opened when
// the command needs them.
func newApp(ctx context.Context, withHistory, withPublish bool) (*app, error) {
	logger := newLogger()

	tr, err := newTranspiler(logger)
	if err != nil {
		return nil, err
	}

	tc, err := toolchain.New(tr.Backend().Name(), toolchain.Options{
		Binary:   cfg.ToolchainBinary(cfg.Transpile.Target),
		WorkDir:  cfg.Toolchain.WorkDir,
		KeepWork: cfg.Toolchain.KeepArtifacts,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	var executor ports.Executor = toolchain.NewNativeExecutor()
	if cfg.Run.Sandbox {
		executor = wasm.NewSandbox(logger, wasm.SandboxOptions{
			CacheDir: filepath.Join(cfg.Core.DataDir, "wasm-cache"),
		})
	}

	a := &app{logger: logger, transpiler: tr}

	var repo ports.BuildRepository
	if withHistory && cfg.History.Enabled {
		db, err := openDatabase()
		if err != nil {
			logger.Warn("Build history unavailable", "error", err)
		} else {
			a.closers = append(a.closers, db.Close)
			repo = storage.NewBuildRepository(db)
		}
	}

	a.builds = services.NewBuildService(tr, tc, executor, repo, logger, services.BuildConfig{
		WorkDir:       cfg.Toolchain.WorkDir,
		KeepArtifacts: cfg.Toolchain.KeepArtifacts,
		Sandbox:       cfg.Run.Sandbox,
	})

	if withPublish {
		store, err := openArtifactStore(ctx, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		a.builds.SetArtifactStore(store)
	}

	return a, nil
}

// Close releases the database and artifact store.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("Failed to close resource", "error", err)
		}
	}
	a.closers = nil
}

// enableMetrics exports finished builds to Cloud Monitoring when a project
// is configured. Failing to connect only disables the export.
func (a *app) enableMetrics(ctx context.Context) {
	if !cfg.IsMetricsEnabled() {
		return
	}
	metrics, err := cloud.NewGCPBuildMetrics(ctx, cloud.GCPConfig{
		ProjectID:       cfg.GCP.ProjectID,
		CredentialsPath: cfg.GCP.CredentialsPath,
		MetricPrefix:    cfg.GCP.MetricPrefix,
	}, a.logger)
	if err != nil {
		a.logger.Warn("Build metrics unavailable", "error", err)
		return
	}
	a.closers = append(a.closers, metrics.Close)
	a.builds.SetMetrics(metrics)
}

func openDatabase() (*storage.DB, error) {
	return storage.New(storage.DefaultConfig(cfg.Database.Path))
}

func openArtifactStore(ctx context.Context, logger ports.Logger) (*cloud.GCSArtifactStore, error) {
	if !cfg.IsGCSEnabled() {
		return nil, fmt.Errorf("publishing requires gcs.bucket to be configured")
	}
	return cloud.NewGCSArtifactStore(ctx, cloud.GCSConfig{
		Bucket:          cfg.GCS.Bucket,
		CredentialsPath: cfg.GCS.CredentialsPath,
		Prefix:          cfg.GCS.Prefix,
	}, logger)
}
