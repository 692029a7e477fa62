package domain

// CheckReport summarises a transpile-only pass over a script.
type CheckReport struct {
	Script     string      `json:"script" yaml:"script"`
	Target     Target      `json:"target" yaml:"target"`
	OK         bool        `json:"ok" yaml:"ok"`
	Stats      ScanStats   `json:"stats" yaml:"stats"`
	Diagnostic *Diagnostic `json:"diagnostic,omitempty" yaml:"diagnostic,omitempty"`
}

// ScanStats counts what a scan saw.
type ScanStats struct {
	Lines       int `json:"lines" yaml:"lines"`
	Blank       int `json:"blank" yaml:"blank"`
	Comments    int `json:"comments" yaml:"comments"`
	Statements  int `json:"statements" yaml:"statements"`
	Blocks      int `json:"blocks" yaml:"blocks"`
	MaxDepth    int `json:"max_depth" yaml:"max_depth"`
	RandCalls   int `json:"rand_calls" yaml:"rand_calls"`
	Passthrough int `json:"passthrough" yaml:"passthrough"`
}

// Diagnostic is the serialisable form of a TranspileError.
type Diagnostic struct {
	Kind   string `json:"kind" yaml:"kind"`
	Line   int    `json:"line" yaml:"line"`
	Text   string `json:"text,omitempty" yaml:"text,omitempty"`
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// NewDiagnostic converts a TranspileError for reporting.
func NewDiagnostic(err *TranspileError) *Diagnostic {
	if err == nil {
		return nil
	}
	return &Diagnostic{
		Kind:   err.KindName(),
		Line:   err.Line,
		Text:   err.Text,
		Detail: err.Detail,
	}
}
