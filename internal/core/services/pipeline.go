package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/forge-platform/forgecode/internal/core/domain"
	"github.com/forge-platform/forgecode/internal/core/ports"
	"github.com/google/uuid"
)

// ErrHistoryDisabled is returned by history queries when no repository is wired.
var ErrHistoryDisabled = errors.New("build history is disabled")

// RunBinaryName is the artifact name used for throwaway run builds.
const RunBinaryName = "forge_tmp_bin"

// BuildConfig holds build service configuration.
type BuildConfig struct {
	WorkDir       string
	KeepArtifacts bool
	Sandbox       bool
}

// BuildOptions configures a single Build call.
type BuildOptions struct {
	// Output is the artifact path; it defaults to the script name without
	// its extension, next to the script.
	Output      string
	Publish     bool
	Diagnostics io.Writer
}

// RunOptions configures a single Run call.
type RunOptions struct {
	Args   []string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// BuildService takes scripts through transpile, compile and run, recording
// each pass in the build history.
type BuildService struct {
	transpiler *Transpiler
	toolchain  ports.Toolchain
	executor   ports.Executor
	repo       ports.BuildRepository
	store      ports.ArtifactStore
	metrics    ports.BuildMetrics
	logger     ports.Logger
	config     BuildConfig
}

// NewBuildService creates a new build service. repo may be nil to disable
// history.
func NewBuildService(
	transpiler *Transpiler,
	toolchain ports.Toolchain,
	executor ports.Executor,
	repo ports.BuildRepository,
	logger ports.Logger,
	config BuildConfig,
) *BuildService {
	if config.WorkDir == "" {
		config.WorkDir = os.TempDir()
	}
	return &BuildService{
		transpiler: transpiler,
		toolchain:  toolchain,
		executor:   executor,
		repo:       repo,
		logger:     logger,
		config:     config,
	}
}

// SetArtifactStore enables publishing built artifacts.
func (s *BuildService) SetArtifactStore(store ports.ArtifactStore) {
	s.store = store
}

// SetMetrics exports the outcome of every finished build.
func (s *BuildService) SetMetrics(metrics ports.BuildMetrics) {
	s.metrics = metrics
}

// LoadScript reads a Forge Code script after checking its extension.
func LoadScript(path string) (string, error) {
	if !strings.EqualFold(filepath.Ext(path), domain.ScriptExtension) {
		return "", fmt.Errorf("%s: %w", path, domain.ErrNotForgeScript)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read script: %w", err)
	}
	return string(data), nil
}

// Emit returns the generated program for a script.
func (s *BuildService) Emit(ctx context.Context, path string) (string, error) {
	source, err := LoadScript(path)
	if err != nil {
		return "", err
	}
	return s.transpiler.Encode(source)
}

// Check transpiles a script without compiling it. Translation failures are
// reported in the returned report, not as an error.
func (s *BuildService) Check(ctx context.Context, path string) (*domain.CheckReport, error) {
	source, err := LoadScript(path)
	if err != nil {
		return nil, err
	}

	_, stats, err := s.transpiler.EncodeWithStats(source)
	report := &domain.CheckReport{
		Script: path,
		Target: s.transpiler.Backend().Name(),
		OK:     err == nil,
		Stats:  stats,
	}
	if err != nil {
		te, ok := domain.AsTranspileError(err)
		if !ok {
			return nil, err
		}
		report.Diagnostic = domain.NewDiagnostic(te)
	}
	return report, nil
}

// Build transpiles and compiles a script into an artifact, optionally
// publishing the generated source and artifact.
func (s *BuildService) Build(ctx context.Context, path string, opts BuildOptions) (*domain.Build, error) {
	source, err := LoadScript(path)
	if err != nil {
		return nil, err
	}

	build := s.begin(ctx, domain.BuildKindBuild, path, source)

	program, err := s.transpiler.Encode(source)
	if err != nil {
		return s.fail(ctx, build, domain.BuildStatusTranspileFailed, err)
	}

	output := opts.Output
	if output == "" {
		output = defaultOutput(path, s.config.Sandbox)
	}

	if err := s.compile(ctx, program, output, opts.Diagnostics); err != nil {
		return s.fail(ctx, build, domain.BuildStatusCompileFailed, err)
	}
	build.Artifacts = []string{output}
	build.Finish(domain.BuildStatusBuilt, nil)

	var publishErr error
	if opts.Publish {
		publishErr = s.publish(ctx, build, program, output)
	}

	s.record(ctx, build)
	s.logger.Info("Build finished", "id", build.ID, "script", path, "output", output, "duration", build.Duration)
	return build, publishErr
}

// Run transpiles, compiles into a scratch directory and executes a script,
// returning the build with the program's exit code.
func (s *BuildService) Run(ctx context.Context, path string, opts RunOptions) (*domain.Build, error) {
	source, err := LoadScript(path)
	if err != nil {
		return nil, err
	}

	build := s.begin(ctx, domain.BuildKindRun, path, source)

	program, err := s.transpiler.Encode(source)
	if err != nil {
		return s.fail(ctx, build, domain.BuildStatusTranspileFailed, err)
	}

	tmpDir, err := os.MkdirTemp(s.config.WorkDir, "forge-run-*")
	if err != nil {
		return s.fail(ctx, build, domain.BuildStatusCompileFailed, fmt.Errorf("failed to create work dir: %w", err))
	}
	if s.config.KeepArtifacts {
		s.logger.Info("Keeping run artifacts", "dir", tmpDir)
	} else {
		defer os.RemoveAll(tmpDir)
	}

	artifact := filepath.Join(tmpDir, RunBinaryName)
	if s.config.Sandbox {
		artifact += ".wasm"
	}
	if err := s.compile(ctx, program, artifact, opts.Stderr); err != nil {
		return s.fail(ctx, build, domain.BuildStatusCompileFailed, err)
	}

	code, err := s.executor.Run(ctx, ports.RunRequest{
		Artifact: artifact,
		Args:     opts.Args,
		Stdin:    opts.Stdin,
		Stdout:   opts.Stdout,
		Stderr:   opts.Stderr,
	})
	if err != nil {
		return s.fail(ctx, build, domain.BuildStatusRunFailed, err)
	}

	build.MarkExited(code)
	s.record(ctx, build)
	s.logger.Debug("Run finished", "id", build.ID, "script", path, "exit_code", code)
	return build, nil
}

// History lists recorded builds.
func (s *BuildService) History(ctx context.Context, filter ports.BuildFilter) ([]*domain.Build, error) {
	if s.repo == nil {
		return nil, ErrHistoryDisabled
	}
	return s.repo.List(ctx, filter)
}

// GetBuild returns a recorded build.
func (s *BuildService) GetBuild(ctx context.Context, id uuid.UUID) (*domain.Build, error) {
	if s.repo == nil {
		return nil, ErrHistoryDisabled
	}
	return s.repo.GetByID(ctx, id)
}

// ClearHistory removes all recorded builds.
func (s *BuildService) ClearHistory(ctx context.Context) (int64, error) {
	if s.repo == nil {
		return 0, ErrHistoryDisabled
	}
	n, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to clear history: %w", err)
	}
	s.logger.Info("Build history cleared", "deleted", n)
	return n, nil
}

func (s *BuildService) compile(ctx context.Context, program, output string, diag io.Writer) error {
	return s.toolchain.Build(ctx, ports.BuildRequest{
		Source:      program,
		Output:      output,
		Sandbox:     s.config.Sandbox,
		Diagnostics: diag,
	})
}

// publish writes the generated program beside the artifact's scratch copy
// and uploads both.
func (s *BuildService) publish(ctx context.Context, build *domain.Build, program, output string) error {
	if s.store == nil {
		return fmt.Errorf("failed to publish artifacts: no artifact store configured")
	}

	tmpDir, err := os.MkdirTemp(s.config.WorkDir, "forge-publish-*")
	if err != nil {
		return fmt.Errorf("failed to create work dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	name := strings.TrimSuffix(filepath.Base(build.Script), filepath.Ext(build.Script))
	srcFile := filepath.Join(tmpDir, name+s.transpiler.Backend().Extension())
	if err := os.WriteFile(srcFile, []byte(program), 0644); err != nil {
		return fmt.Errorf("failed to write generated source: %w", err)
	}

	locations, err := s.store.Publish(ctx, build, []string{srcFile, output})
	build.Artifacts = append(build.Artifacts, locations...)
	if err != nil {
		build.Error = err.Error()
		return fmt.Errorf("failed to publish artifacts: %w", err)
	}
	return nil
}

func (s *BuildService) begin(ctx context.Context, kind domain.BuildKind, path, source string) *domain.Build {
	build := domain.NewBuild(kind, path, s.transpiler.Backend().Name(), source)
	build.Sandbox = s.config.Sandbox
	if s.repo != nil {
		if err := s.repo.Create(ctx, build); err != nil {
			s.logger.Warn("Failed to record build", "id", build.ID, "error", err)
		}
	}
	return build
}

func (s *BuildService) fail(ctx context.Context, build *domain.Build, status domain.BuildStatus, err error) (*domain.Build, error) {
	build.Finish(status, err)
	s.record(ctx, build)
	s.logger.Debug("Build failed", "id", build.ID, "status", status, "error", err)
	return build, err
}

func (s *BuildService) record(ctx context.Context, build *domain.Build) {
	if s.metrics != nil {
		if err := s.metrics.Record(ctx, build); err != nil {
			s.logger.Warn("Failed to export build metrics", "id", build.ID, "error", err)
		}
	}
	if s.repo == nil {
		return
	}
	if err := s.repo.Update(ctx, build); err != nil {
		s.logger.Warn("Failed to update build record", "id", build.ID, "error", err)
	}
}

func defaultOutput(script string, sandbox bool) string {
	out := strings.TrimSuffix(script, filepath.Ext(script))
	if sandbox {
		out += ".wasm"
	}
	return out
}
