package domain

// Target names a host language the transpiler can emit.
type Target string

const (
	TargetRust Target = "rust"
	TargetGo   Target = "go"
)

// Mode selects how lines that match no rule are handled.
type Mode string

const (
	// ModeStrict fails on the first unrecognized line.
	ModeStrict Mode = "strict"
	// ModePermissive passes unrecognized lines through verbatim.
	ModePermissive Mode = "permissive"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeStrict || m == ModePermissive
}
