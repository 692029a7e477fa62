package backend

import (
	"fmt"

	"github.com/forge-platform/forgecode/internal/core/domain"
	"github.com/forge-platform/forgecode/internal/core/ports"
)

const rustPrologue = `#![allow(unused_imports, unused_mut, unused_variables, unused_assignments, dead_code)]
use std::io::{self, Write};
use std::time::{SystemTime, UNIX_EPOCH};

fn forge_rand(min: i32, max: i32) -> i32 {
    use std::collections::hash_map::RandomState;
    use std::hash::{BuildHasher, Hasher};
    if max <= min {
        return min;
    }
    let nanos = SystemTime::now()
        .duration_since(UNIX_EPOCH)
        .map(|d| d.as_nanos())
        .unwrap_or(0);
    let mut hasher = RandomState::new().build_hasher();
    hasher.write_u128(nanos);
    let span = (max as i64 - min as i64 + 1) as u64;
    (min as i64 + (hasher.finish() % span) as i64) as i32
}

fn main() {
`

// Rust emits programs for rustc. It is the default target.
type Rust struct{}

// NewRust creates the Rust backend.
func NewRust() *Rust {
	return &Rust{}
}

func (Rust) Name() domain.Target { return domain.TargetRust }
func (Rust) Extension() string   { return ".rs" }
func (Rust) BodyDepth() int      { return 1 }
func (Rust) Prologue() string    { return rustPrologue }
func (Rust) Epilogue() string    { return "}\n" }
func (Rust) RandHelper() string  { return "forge_rand" }

// Print passes a literal through as the format string and wraps anything
// else in a single-value interpolation.
func (Rust) Print(arg string, literal bool) string {
	switch {
	case arg == "":
		return "println!();"
	case literal:
		return fmt.Sprintf("println!(%s);", arg)
	default:
		return fmt.Sprintf("println!(\"{}\", %s);", arg)
	}
}

// Prompt prints the prompt, flushes stdout, reads one line into a fresh
// String and trims its trailing whitespace in place.
func (Rust) Prompt(name string, prompt ports.Prompt) string {
	show := prompt.Text
	if prompt.Literal {
		show = `"` + prompt.Text + `"`
	}
	return fmt.Sprintf(
		"print!(\"{}\", %s); io::stdout().flush().unwrap(); let mut %s = String::new(); io::stdin().read_line(&mut %s).unwrap(); %s.truncate(%s.trim_end().len());",
		show, name, name, name, name,
	)
}

func (Rust) Declare(name, expr string) (string, error) {
	if expr == "" {
		return fmt.Sprintf("let mut %s;", name), nil
	}
	return fmt.Sprintf("let mut %s = %s;", name, expr), nil
}

func (Rust) If(cond string) string     { return fmt.Sprintf("if %s {", cond) }
func (Rust) ElseIf(cond string) string { return fmt.Sprintf("} else if %s {", cond) }
func (Rust) Else() string              { return "} else {" }
func (Rust) While(cond string) string  { return fmt.Sprintf("while %s {", cond) }
func (Rust) Close() string             { return "}" }

func (Rust) Statement(stmt string) string {
	return stmt + ";"
}

var _ ports.Backend = (*Rust)(nil)
