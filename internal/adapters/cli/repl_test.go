package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/forge-platform/forgecode/internal/adapters/backend"
	"github.com/forge-platform/forgecode/internal/core/services"
)

func newTestSession() (*replSession, *bytes.Buffer, *bytes.Buffer) {
	tr := services.NewTranspiler(backend.NewRust(), &services.NopLogger{}, services.TranspilerOptions{})
	var out, errOut bytes.Buffer
	return newReplSession(tr, &out, &errOut), &out, &errOut
}

func TestReplSession_TranslatesLines(t *testing.T) {
	s, out, _ := newTestSession()

	if s.Eval(`print("hi")--`) {
		t.Fatal("statement ended the session")
	}
	if out.String() != "    println!(\"hi\");\n" {
		t.Errorf("fragment = %q", out.String())
	}
}

func TestReplSession_ContinuationPrompt(t *testing.T) {
	s, out, _ := newTestSession()

	if s.Prompt() != promptMain {
		t.Errorf("Prompt() = %q, want main prompt", s.Prompt())
	}
	s.Eval("while i < 3 {")
	if s.Prompt() != promptCont {
		t.Errorf("Prompt() = %q inside a block, want continuation", s.Prompt())
	}
	s.Eval("i = i + 1--")
	s.Eval("}")
	if s.Prompt() != promptMain {
		t.Errorf("Prompt() = %q after closing, want main prompt", s.Prompt())
	}
	if !strings.Contains(out.String(), "        i = i + 1;\n") {
		t.Errorf("block body not indented:\n%s", out.String())
	}

	s.Eval("/* notes")
	if s.Prompt() != promptCont {
		t.Error("block comment should show the continuation prompt")
	}
}

func TestReplSession_ErrorKeepsSession(t *testing.T) {
	s, out, errOut := newTestSession()

	s.Eval("}")
	if !strings.Contains(errOut.String(), "unbalanced block at line 1") {
		t.Errorf("stderr = %q", errOut.String())
	}
	if len(s.lines) != 1 || s.lines[0] != "" {
		t.Errorf("lines = %q, want the rejected line blanked", s.lines)
	}

	s.Eval(`print("ok")--`)
	if !strings.Contains(out.String(), `println!("ok");`) {
		t.Errorf("session unusable after an error: %q", out.String())
	}
}

func TestReplSession_Commands(t *testing.T) {
	s, out, _ := newTestSession()

	s.Eval("var x = 1--")
	out.Reset()
	s.Eval(":show")
	if !strings.Contains(out.String(), "use std::io") || !strings.Contains(out.String(), "let mut x = 1;") {
		t.Errorf(":show output:\n%s", out.String())
	}

	s.Eval(":reset")
	if len(s.lines) != 0 || s.scanner.Depth() != 0 {
		t.Error(":reset kept state")
	}

	out.Reset()
	s.Eval(":help")
	if !strings.Contains(out.String(), ":load <file>") {
		t.Errorf(":help output = %q", out.String())
	}

	out.Reset()
	s.Eval(":bogus")
	if !strings.Contains(out.String(), "unknown command") {
		t.Errorf(":bogus output = %q", out.String())
	}

	if !s.Eval(":quit") {
		t.Error(":quit should end the session")
	}
}

func TestReplSession_Load(t *testing.T) {
	s, out, errOut := newTestSession()
	path := filepath.Join(t.TempDir(), "loop.fc1")
	if err := os.WriteFile(path, []byte("var i = 0--\nwhile i < 2 {\ni = i + 1--\n}\n"), 0644); err != nil {
		t.Fatal(err)
	}

	s.Eval(":load " + path)
	if errOut.Len() != 0 {
		t.Fatalf("stderr = %q", errOut.String())
	}
	if !strings.Contains(out.String(), "    while i < 2 {\n") || len(s.lines) != 5 {
		t.Errorf("load output:\n%s (lines=%d)", out.String(), len(s.lines))
	}

	s.Eval(":load " + filepath.Join(t.TempDir(), "x.txt"))
	if !strings.Contains(errOut.String(), "must be a .fc1 file") {
		t.Errorf("stderr = %q", errOut.String())
	}
}

func TestReplSession_CloseReportsOpenBlock(t *testing.T) {
	s, _, errOut := newTestSession()
	s.Eval("if x {")
	s.Close()
	if !strings.Contains(errOut.String(), "unclosed block at line 1") {
		t.Errorf("stderr = %q", errOut.String())
	}
}

func TestReplSession_ErrorFlushesPendingCloser(t *testing.T) {
	s, out, errOut := newTestSession()

	for _, l := range []string{"if a {", "x = 1--", "}"} {
		s.Eval(l)
	}
	if strings.Contains(out.String(), "    }\n") {
		t.Fatalf("if closer emitted before the next line:\n%s", out.String())
	}

	s.Eval("}")
	if !strings.Contains(out.String(), "        x = 1;\n    }\n") {
		t.Errorf("closer held for else was lost:\n%s", out.String())
	}
	if !strings.Contains(errOut.String(), "unbalanced block at line 4") {
		t.Errorf("stderr = %q", errOut.String())
	}

	errOut.Reset()
	s.Eval(`print(y)--`)
	s.Eval("}")
	if !strings.Contains(errOut.String(), "unbalanced block at line 6") {
		t.Errorf("stderr = %q", errOut.String())
	}
	if len(s.lines) != 6 {
		t.Errorf("session recorded %d lines, scanner saw 6", len(s.lines))
	}

	out.Reset()
	errOut.Reset()
	s.Eval(":show")
	if errOut.Len() != 0 {
		t.Errorf(":show failed on a session with rejected lines: %q", errOut.String())
	}
	if !strings.Contains(out.String(), "    }\n    println!(\"{}\", y);\n") {
		t.Errorf(":show output:\n%s", out.String())
	}
}
