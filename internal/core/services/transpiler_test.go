package services

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/forge-platform/forgecode/internal/core/domain"
	"github.com/forge-platform/forgecode/internal/core/ports"
)

// fakeBackend renders constructs in a compact pseudo-language so tests can
// assert on structure without depending on a real target.
type fakeBackend struct {
	declareErr error
}

func (f *fakeBackend) Name() domain.Target { return "fake" }
func (f *fakeBackend) Extension() string   { return ".fake" }
func (f *fakeBackend) BodyDepth() int      { return 0 }
func (f *fakeBackend) Prologue() string    { return "BEGIN\n" }
func (f *fakeBackend) Epilogue() string    { return "END\n" }
func (f *fakeBackend) RandHelper() string  { return "helper_rand" }

func (f *fakeBackend) Print(arg string, literal bool) string {
	if literal {
		return "print lit " + arg
	}
	return "print val " + arg
}

func (f *fakeBackend) Prompt(name string, p ports.Prompt) string {
	return fmt.Sprintf("prompt %s [%s] literal=%v", name, p.Text, p.Literal)
}

func (f *fakeBackend) Declare(name, expr string) (string, error) {
	if f.declareErr != nil {
		return "", f.declareErr
	}
	return fmt.Sprintf("let %s = %s", name, expr), nil
}

func (f *fakeBackend) If(cond string) string     { return "if " + cond + " {" }
func (f *fakeBackend) ElseIf(cond string) string { return "} elif " + cond + " {" }
func (f *fakeBackend) Else() string              { return "} else {" }
func (f *fakeBackend) While(cond string) string  { return "while " + cond + " {" }
func (f *fakeBackend) Close() string             { return "}" }
func (f *fakeBackend) Statement(stmt string) string {
	return stmt + ";"
}

type recordingLogger struct {
	warnings []string
}

func (l *recordingLogger) Debug(msg string, args ...interface{}) {}
func (l *recordingLogger) Info(msg string, args ...interface{})  {}
func (l *recordingLogger) Warn(msg string, args ...interface{})  { l.warnings = append(l.warnings, msg) }
func (l *recordingLogger) Error(msg string, args ...interface{}) {}
func (l *recordingLogger) With(args ...interface{}) ports.Logger { return l }

func newTestTranspiler(mode domain.Mode) *Transpiler {
	return NewTranspiler(&fakeBackend{}, &recordingLogger{}, TranspilerOptions{Mode: mode, IndentUnit: "  "})
}

func body(t *testing.T, out string) string {
	t.Helper()
	if !strings.HasPrefix(out, "BEGIN\n") || !strings.HasSuffix(out, "END\n") {
		t.Fatalf("output not wrapped in prologue/epilogue:\n%s", out)
	}
	return strings.TrimSuffix(strings.TrimPrefix(out, "BEGIN\n"), "END\n")
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{
			name:   "print literal",
			source: `print("hello")--`,
			want:   "print lit \"hello\"\n",
		},
		{
			name:   "print identifier",
			source: `print(x)--`,
			want:   "print val x\n",
		},
		{
			name:   "declaration",
			source: `var count = 0--`,
			want:   "let count = 0\n",
		},
		{
			name:   "declaration with random call",
			source: `var n = rand(1, 10)--`,
			want:   "let n = helper_rand(1, 10)\n",
		},
		{
			name:   "assignment",
			source: `count = count + 1--`,
			want:   "count = count + 1;\n",
		},
		{
			name:   "bare statement",
			source: `do_something()--`,
			want:   "do_something();\n",
		},
		{
			name:   "prompted input",
			source: `var n = input("Enter a number: ")--`,
			want:   "prompt n [Enter a number: ] literal=true\n",
		},
		{
			name:   "prompt with single quotes",
			source: `var n = input('Name: ')--`,
			want:   "prompt n [Name: ] literal=true\n",
		},
		{
			name:   "prompt expression",
			source: `var n = input(question)--`,
			want:   "prompt n [question] literal=false\n",
		},
		{
			name:   "whitespace is insignificant",
			source: "   print(x)--   \n\n\t\t",
			want:   "print val x\n",
		},
		{
			name: "comments are dropped",
			source: strings.Join([]string{
				"// line comment",
				"# hash comment",
				"/* inline block */",
				"print(x)--",
			}, "\n"),
			want: "print val x\n",
		},
		{
			name: "while loop",
			source: strings.Join([]string{
				"while i < 10 {",
				"i = i + 1--",
				"}",
			}, "\n"),
			want: "while i < 10 {\n  i = i + 1;\n}\n",
		},
		{
			name: "nested blocks",
			source: strings.Join([]string{
				"while a {",
				"if b {",
				"print(c)--",
				"}",
				"}",
			}, "\n"),
			want: "while a {\n  if b {\n    print val c\n  }\n}\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := newTestTranspiler(domain.ModeStrict).Encode(tt.source)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if got := body(t, out); got != tt.want {
				t.Errorf("Encode() body =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestEncode_IfElseNesting(t *testing.T) {
	fused := strings.Join([]string{
		"if a > b {",
		"print(a)--",
		"} else {",
		"print(b)--",
		"}",
		"print(done)--",
	}, "\n")
	standalone := strings.Join([]string{
		"if a > b {",
		"print(a)--",
		"}",
		"// the else may sit on its own line",
		"else {",
		"print(b)--",
		"}",
		"print(done)--",
	}, "\n")
	want := "if a > b {\n  print val a\n} else {\n  print val b\n}\nprint val done\n"

	for name, src := range map[string]string{"fused": fused, "standalone": standalone} {
		t.Run(name, func(t *testing.T) {
			out, err := newTestTranspiler(domain.ModeStrict).Encode(src)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if got := body(t, out); got != want {
				t.Errorf("body =\n%s\nwant\n%s", got, want)
			}
		})
	}
}

func TestEncode_ElseIfChain(t *testing.T) {
	src := strings.Join([]string{
		"if x == 1 {",
		"print(1)--",
		"} else if x == 2 {",
		"print(2)--",
		"}",
		"else {",
		"print(3)--",
		"}",
	}, "\n")
	want := "if x == 1 {\n  print val 1\n} elif x == 2 {\n  print val 2\n} else {\n  print val 3\n}\n"

	out, err := newTestTranspiler(domain.ModeStrict).Encode(src)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if got := body(t, out); got != want {
		t.Errorf("body =\n%s\nwant\n%s", got, want)
	}
}

func TestEncode_PendingCloserFlushedAtEnd(t *testing.T) {
	out, err := newTestTranspiler(domain.ModeStrict).Encode("if a {\nprint(a)--\n}")
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if got, want := body(t, out), "if a {\n  print val a\n}\n"; got != want {
		t.Errorf("body =\n%s\nwant\n%s", got, want)
	}
}

func TestEncode_Errors(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		wantKind error
		wantLine int
	}{
		{"isolated closer", "print(\"a\")--\n}", domain.ErrUnbalancedBlock, 2},
		{"extra closer after if", "if a {\n}\n}", domain.ErrUnbalancedBlock, 3},
		{"else without if", "else {\nprint(x)--\n}", domain.ErrUnbalancedBlock, 1},
		{"fused else closes a loop", "while a {\n} else {\n}", domain.ErrUnbalancedBlock, 2},
		{"standalone else after loop", "while a {\n}\nelse {\n}", domain.ErrUnbalancedBlock, 3},
		{"unrecognized line", "print(x)--\nthis is not forge code", domain.ErrUnrecognizedLine, 2},
		{"missing terminator", "x = 1", domain.ErrUnrecognizedLine, 1},
		{"if without condition", "if {\n}", domain.ErrUnrecognizedLine, 1},
		{"prompt without name", `var = input("x")--`, domain.ErrMalformedPrompt, 1},
		{"prompt without closing paren", `var n = input("x"--`, domain.ErrMalformedPrompt, 1},
		{"prompt without assignment", `var n input("x")--`, domain.ErrMalformedPrompt, 1},
		{"unclosed block", "print(x)--\nwhile a {\nprint(x)--", domain.ErrUnclosedBlock, 2},
		{"unterminated comment", "print(x)--\n/* open\nstill open", domain.ErrUnterminatedComment, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := newTestTranspiler(domain.ModeStrict).Encode(tt.source)
			if err == nil {
				t.Fatalf("Encode() expected error, got output:\n%s", out)
			}
			if out != "" {
				t.Errorf("Encode() returned partial output on error:\n%s", out)
			}
			if !errors.Is(err, tt.wantKind) {
				t.Errorf("Encode() error = %v, want kind %v", err, tt.wantKind)
			}
			te, ok := domain.AsTranspileError(err)
			if !ok {
				t.Fatalf("error %T is not a *TranspileError", err)
			}
			if te.Line != tt.wantLine {
				t.Errorf("error line = %d, want %d", te.Line, tt.wantLine)
			}
		})
	}
}

func TestEncode_UnsupportedDeclaration(t *testing.T) {
	tr := NewTranspiler(&fakeBackend{declareErr: errors.New("needs initializer")}, &recordingLogger{}, TranspilerOptions{})
	_, err := tr.Encode("var x--")
	if !errors.Is(err, domain.ErrUnsupported) {
		t.Fatalf("Encode() error = %v, want ErrUnsupported", err)
	}
	if !strings.Contains(err.Error(), "needs initializer") {
		t.Errorf("error %q does not carry the backend reason", err)
	}
}

func TestEncode_PermissivePassesThrough(t *testing.T) {
	logger := &recordingLogger{}
	tr := NewTranspiler(&fakeBackend{}, logger, TranspilerOptions{Mode: domain.ModePermissive, IndentUnit: "  "})

	out, stats, err := tr.EncodeWithStats("while a {\nraw line here\n}")
	if err != nil {
		t.Fatalf("EncodeWithStats() error = %v", err)
	}
	if got, want := body(t, out), "while a {\n  raw line here\n}\n"; got != want {
		t.Errorf("body =\n%s\nwant\n%s", got, want)
	}
	if stats.Passthrough != 1 {
		t.Errorf("Passthrough = %d, want 1", stats.Passthrough)
	}
	if len(logger.warnings) != 1 {
		t.Errorf("warnings = %d, want 1", len(logger.warnings))
	}
}

func TestEncode_PermissiveStillRejectsStructuralErrors(t *testing.T) {
	_, err := newTestTranspiler(domain.ModePermissive).Encode("}")
	if !errors.Is(err, domain.ErrUnbalancedBlock) {
		t.Fatalf("Encode() error = %v, want ErrUnbalancedBlock", err)
	}
}

func TestEncode_RandRename(t *testing.T) {
	src := strings.Join([]string{
		`var a = rand(1, 6)--`,
		`a = rand(1, 6) + rand(10, 20)--`,
		`roll(rand(0, 1))--`,
		`var s = "rand(1, 2) stays"--`,
		`var g = grand(3)--`,
	}, "\n")
	out, stats, err := newTestTranspiler(domain.ModeStrict).EncodeWithStats(src)
	if err != nil {
		t.Fatalf("EncodeWithStats() error = %v", err)
	}
	want := strings.Join([]string{
		`let a = helper_rand(1, 6)`,
		`a = helper_rand(1, 6) + helper_rand(10, 20);`,
		`roll(helper_rand(0, 1));`,
		`let s = "rand(1, 2) stays"`,
		`let g = grand(3)`,
	}, "\n") + "\n"
	if got := body(t, out); got != want {
		t.Errorf("body =\n%s\nwant\n%s", got, want)
	}
	if stats.RandCalls != 4 {
		t.Errorf("RandCalls = %d, want 4", stats.RandCalls)
	}
}

func TestEncode_Stats(t *testing.T) {
	src := strings.Join([]string{
		"// header",
		"var i = 0--",
		"",
		"while i < 3 {",
		"if i == 1 {",
		"print(i)--",
		"}",
		"i = i + 1--",
		"}",
	}, "\n")
	_, stats, err := newTestTranspiler(domain.ModeStrict).EncodeWithStats(src)
	if err != nil {
		t.Fatalf("EncodeWithStats() error = %v", err)
	}
	want := domain.ScanStats{Lines: 9, Blank: 1, Comments: 1, Statements: 3, Blocks: 2, MaxDepth: 2}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
}

func TestScanner_WellFormedInputReturnsToZero(t *testing.T) {
	sc := newTestTranspiler(domain.ModeStrict).NewScanner()
	lines := []string{
		"var x = 1--",
		"while x < 5 {",
		"if x == 2 {",
		"print(\"two\")--",
		"} else {",
		"print(x)--",
		"}",
		"x = x + 1--",
		"}",
	}
	maxDepth := 0
	for _, l := range lines {
		if _, err := sc.Feed(l); err != nil {
			t.Fatalf("Feed(%q) error = %v", l, err)
		}
		if sc.Depth() < 0 {
			t.Fatalf("depth went negative after %q", l)
		}
		if sc.Depth() > maxDepth {
			maxDepth = sc.Depth()
		}
	}
	if _, err := sc.Finish(); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}
	if sc.Depth() != 0 {
		t.Errorf("Depth() = %d at end of input, want 0", sc.Depth())
	}
	if maxDepth != 2 {
		t.Errorf("max depth = %d, want 2", maxDepth)
	}
}

func TestScanner_BlockCommentSpan(t *testing.T) {
	sc := newTestTranspiler(domain.ModeStrict).NewScanner()
	if _, err := sc.Feed("while a {"); err != nil {
		t.Fatal(err)
	}
	before := sc.Depth()

	for _, l := range []string{"/* this comment", "} print(x)-- if b {", "ends here */"} {
		frag, err := sc.Feed(l)
		if err != nil {
			t.Fatalf("Feed(%q) error = %v", l, err)
		}
		if frag != "" {
			t.Errorf("Feed(%q) emitted %q inside a comment", l, frag)
		}
		if sc.Depth() != before {
			t.Errorf("depth changed inside comment: %d -> %d", before, sc.Depth())
		}
	}
	if sc.InBlockComment() {
		t.Error("still in block comment after closing marker")
	}
	if got := sc.Stats().Comments; got != 3 {
		t.Errorf("Comments = %d, want 3", got)
	}
}

func TestScanner_BlockCommentLineIsWhollyComment(t *testing.T) {
	// Code sharing a line with a block comment marker is not translated.
	sc := newTestTranspiler(domain.ModeStrict).NewScanner()
	for _, l := range []string{"/* note */ print(x)--", "/* opens", "closes */ print(y)--"} {
		frag, err := sc.Feed(l)
		if err != nil {
			t.Fatalf("Feed(%q) error = %v", l, err)
		}
		if frag != "" {
			t.Errorf("Feed(%q) emitted %q", l, frag)
		}
	}
	if sc.InBlockComment() {
		t.Error("still in block comment after closing marker")
	}

	frag, err := sc.Feed("print(z)--")
	if err != nil || frag != "print val z\n" {
		t.Errorf("Feed after comments = %q, %v", frag, err)
	}
}

func TestScanner_ErrorLeavesPriorOutput(t *testing.T) {
	sc := newTestTranspiler(domain.ModeStrict).NewScanner()
	for _, l := range []string{"if a {", "}"} {
		if _, err := sc.Feed(l); err != nil {
			t.Fatal(err)
		}
	}
	frag, err := sc.Feed("}")
	if !errors.Is(err, domain.ErrUnbalancedBlock) {
		t.Fatalf("Feed() error = %v, want ErrUnbalancedBlock", err)
	}
	if frag != "}\n" {
		t.Errorf("Feed() fragment = %q, want the flushed if closer", frag)
	}
	if sc.Depth() != 0 {
		t.Errorf("Depth() = %d, want 0", sc.Depth())
	}
}

func TestNewTranspiler_Defaults(t *testing.T) {
	tr := NewTranspiler(&fakeBackend{}, &recordingLogger{}, TranspilerOptions{})
	if tr.opts.Mode != domain.ModeStrict {
		t.Errorf("Mode = %q, want strict", tr.opts.Mode)
	}
	if tr.opts.IndentUnit != DefaultIndentUnit {
		t.Errorf("IndentUnit = %q, want %q", tr.opts.IndentUnit, DefaultIndentUnit)
	}
	if tr.Backend().Name() != "fake" {
		t.Errorf("Backend().Name() = %q", tr.Backend().Name())
	}
}
