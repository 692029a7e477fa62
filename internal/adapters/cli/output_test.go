package cli

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/forge-platform/forgecode/internal/core/domain"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"program exit", &ExitError{Code: 42}, 42},
		{"wrapped program exit", fmt.Errorf("run: %w", &ExitError{Code: 7}), 7},
		{"other error", errors.New("boom"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPrinter_TranspileError(t *testing.T) {
	var buf bytes.Buffer
	p := newPrinter(&buf)
	if p.color {
		t.Fatal("colour enabled for a buffer")
	}

	p.Error(fmt.Errorf("failed: %w", domain.NewTranspileError(domain.ErrUnbalancedBlock, 12, "}", "no open block to close")))

	want := "error: unbalanced block at line 12\n" +
		"  12 | }\n" +
		"     = no open block to close\n"
	if buf.String() != want {
		t.Errorf("output:\n%q\nwant:\n%q", buf.String(), want)
	}
}

func TestPrinter_PlainError(t *testing.T) {
	var buf bytes.Buffer
	newPrinter(&buf).Error(errors.New("rustc not found"))
	if buf.String() != "error: rustc not found\n" {
		t.Errorf("output = %q", buf.String())
	}
}

func TestPrinter_Success(t *testing.T) {
	var buf bytes.Buffer
	newPrinter(&buf).Success("Built %s", "out")
	if buf.String() != "✓ Built out\n" {
		t.Errorf("output = %q", buf.String())
	}
}

func TestWriteStructured(t *testing.T) {
	v := map[string]int{"lines": 3}

	var buf bytes.Buffer
	if err := writeStructured(&buf, formatJSON, v); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "{\n  \"lines\": 3\n}\n" {
		t.Errorf("json = %q", buf.String())
	}

	buf.Reset()
	if err := writeStructured(&buf, formatYAML, v); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "lines: 3" {
		t.Errorf("yaml = %q", buf.String())
	}

	if err := writeStructured(&buf, "xml", v); err == nil {
		t.Error("unsupported format should fail")
	}
}
