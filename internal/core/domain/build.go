package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// BuildStatus represents the outcome of a build or run.
type BuildStatus string

const (
	BuildStatusPending         BuildStatus = "pending"
	BuildStatusTranspileFailed BuildStatus = "transpile_failed"
	BuildStatusCompileFailed   BuildStatus = "compile_failed"
	BuildStatusBuilt           BuildStatus = "built"
	BuildStatusSucceeded       BuildStatus = "succeeded"
	BuildStatusRunFailed       BuildStatus = "run_failed"
)

// BuildKind distinguishes a plain build from a build followed by a run.
type BuildKind string

const (
	BuildKindBuild BuildKind = "build"
	BuildKindRun   BuildKind = "run"
)

// Build is one pass of a script through the pipeline. Builds are persisted
// to SQLite so that past runs can be listed and browsed.
type Build struct {
	ID          uuid.UUID     `json:"id" yaml:"id"`
	Kind        BuildKind     `json:"kind" yaml:"kind"`
	Script      string        `json:"script" yaml:"script"`
	Target      Target        `json:"target" yaml:"target"`
	Sandbox     bool          `json:"sandbox" yaml:"sandbox"`
	SourceHash  string        `json:"source_hash" yaml:"source_hash"`
	Status      BuildStatus   `json:"status" yaml:"status"`
	ExitCode    int           `json:"exit_code" yaml:"exit_code"`
	Artifacts   []string      `json:"artifacts,omitempty" yaml:"artifacts,omitempty"`
	Error       string        `json:"error,omitempty" yaml:"error,omitempty"`
	CreatedAt   time.Time     `json:"created_at" yaml:"created_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	Duration    time.Duration `json:"duration" yaml:"duration"`
}

// NewBuild creates a pending build for a script.
func NewBuild(kind BuildKind, script string, target Target, source string) *Build {
	return &Build{
		ID:         uuid.Must(uuid.NewV7()),
		Kind:       kind,
		Script:     script,
		Target:     target,
		SourceHash: HashSource(source),
		Status:     BuildStatusPending,
		CreatedAt:  time.Now(),
	}
}

// HashSource returns the hex SHA-256 of a script's text.
func HashSource(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// Finish moves the build into a terminal status.
func (b *Build) Finish(status BuildStatus, err error) {
	now := time.Now()
	b.Status = status
	b.CompletedAt = &now
	b.Duration = now.Sub(b.CreatedAt)
	if err != nil {
		b.Error = err.Error()
	}
}

// MarkExited records the exit status of the executed program.
func (b *Build) MarkExited(code int) {
	b.ExitCode = code
	if code == 0 {
		b.Finish(BuildStatusSucceeded, nil)
		return
	}
	b.Finish(BuildStatusRunFailed, nil)
}

// IsTerminal reports whether the build has finished.
func (b *Build) IsTerminal() bool {
	return b.Status != BuildStatusPending
}

// Failed reports whether the build ended in any failure status.
func (b *Build) Failed() bool {
	switch b.Status {
	case BuildStatusTranspileFailed, BuildStatusCompileFailed, BuildStatusRunFailed:
		return true
	}
	return false
}

// Ran reports whether the compiled program was executed.
func (b *Build) Ran() bool {
	return b.Kind == BuildKindRun && (b.Status == BuildStatusSucceeded || b.Status == BuildStatusRunFailed)
}

// Platform returns the target, suffixed with /wasm for sandboxed builds.
func (b *Build) Platform() string {
	if b.Sandbox {
		return string(b.Target) + "/wasm"
	}
	return string(b.Target)
}
