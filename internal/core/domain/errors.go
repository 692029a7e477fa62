package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for each class of transpilation failure.
var (
	ErrUnrecognizedLine    = errors.New("unrecognized line")
	ErrUnbalancedBlock     = errors.New("unbalanced block")
	ErrMalformedPrompt     = errors.New("malformed input prompt")
	ErrUnclosedBlock       = errors.New("unclosed block")
	ErrUnterminatedComment = errors.New("unterminated block comment")
	ErrUnsupported         = errors.New("unsupported construct")
)

// ErrNotForgeScript is returned for input files without the .fc1 extension.
var ErrNotForgeScript = errors.New("file must be a " + ScriptExtension + " file")

// TranspileError reports a failure at a specific source line.
type TranspileError struct {
	Kind   error
	Line   int
	Text   string
	Detail string
}

// NewTranspileError creates an error of the given kind at a 1-based line.
func NewTranspileError(kind error, line int, text, detail string) *TranspileError {
	return &TranspileError{Kind: kind, Line: line, Text: text, Detail: detail}
}

// Error implements the error interface.
func (e *TranspileError) Error() string {
	msg := fmt.Sprintf("line %d: %v", e.Line, e.Kind)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Text != "" {
		msg += fmt.Sprintf(" (%q)", e.Text)
	}
	return msg
}

// Unwrap returns the sentinel so callers can use errors.Is.
func (e *TranspileError) Unwrap() error {
	return e.Kind
}

// KindName returns a stable identifier for the error kind.
func (e *TranspileError) KindName() string {
	switch e.Kind {
	case ErrUnrecognizedLine:
		return "unrecognized_line"
	case ErrUnbalancedBlock:
		return "unbalanced_block"
	case ErrMalformedPrompt:
		return "malformed_prompt"
	case ErrUnclosedBlock:
		return "unclosed_block"
	case ErrUnterminatedComment:
		return "unterminated_comment"
	case ErrUnsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// AsTranspileError extracts a *TranspileError from an error chain.
func AsTranspileError(err error) (*TranspileError, bool) {
	var te *TranspileError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}
