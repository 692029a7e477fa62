package ports

import (
	"context"
	"io"

	"github.com/forge-platform/forgecode/internal/core/domain"
)

// Backend renders Forge Code constructs in a target language. Every method
// except Prologue and Epilogue returns a single line without indentation.
type Backend interface {
	// Name returns the target this backend emits.
	Name() domain.Target

	// Extension returns the source file extension of the target, e.g. ".rs".
	Extension() string

	// BodyDepth is the indentation depth of statements inside the entry point.
	BodyDepth() int

	// Prologue returns imports, helper definitions and the entry point opener.
	Prologue() string

	// Epilogue closes the entry point.
	Epilogue() string

	// RandHelper returns the identifier of the pseudo-random helper.
	RandHelper() string

	Print(arg string, literal bool) string
	Prompt(name string, prompt Prompt) string
	Declare(name, expr string) (string, error)
	If(cond string) string
	ElseIf(cond string) string
	Else() string
	While(cond string) string
	Close() string
	Statement(stmt string) string
}

// Prompt is the argument of an input call.
type Prompt struct {
	// Text is either the unquoted, escaped literal or a raw expression.
	Text    string
	Literal bool
}

// BuildRequest asks a toolchain to compile generated source.
type BuildRequest struct {
	Source  string
	Output  string
	Sandbox bool

	// Diagnostics receives the compiler's own output. When nil it is
	// folded into the returned error instead.
	Diagnostics io.Writer
}

// Toolchain compiles generated source into an executable artifact.
type Toolchain interface {
	// Target returns the language this toolchain compiles.
	Target() domain.Target

	// Build compiles req.Source into req.Output.
	Build(ctx context.Context, req BuildRequest) error
}

// RunRequest asks an executor to run a compiled artifact.
type RunRequest struct {
	Artifact string
	Args     []string
	Stdin    io.Reader
	Stdout   io.Writer
	Stderr   io.Writer
}

// Executor runs compiled artifacts and reports their exit status.
type Executor interface {
	// Run executes the artifact. A non-zero exit is reported through the
	// exit code, not the error; the error is reserved for failures to start.
	Run(ctx context.Context, req RunRequest) (int, error)
}

// ArtifactStore publishes generated files outside the local machine.
type ArtifactStore interface {
	// Publish uploads files for a build and returns their locations.
	Publish(ctx context.Context, build *domain.Build, files []string) ([]string, error)

	// Close releases the store's resources.
	Close() error
}

// BuildMetrics reports finished builds to a monitoring backend.
type BuildMetrics interface {
	// Record exports the outcome of a build.
	Record(ctx context.Context, build *domain.Build) error

	// Close releases the exporter's resources.
	Close() error
}

// Logger defines the interface for structured logging.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	With(args ...interface{}) Logger
}
