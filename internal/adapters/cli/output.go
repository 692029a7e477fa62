package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/forge-platform/forgecode/internal/core/domain"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// ExitError carries a program's non-zero exit status out of Execute.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// ExitCode maps an Execute error to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exit *ExitError
	if errors.As(err, &exit) {
		return exit.Code
	}
	return 1
}

// Output formats accepted by --output.
const (
	formatText  = "text"
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

// writeStructured encodes v as JSON or YAML.
func writeStructured(w io.Writer, format string, v interface{}) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// printer writes human-readable messages, styled only when the writer is a
// terminal.
type printer struct {
	w     io.Writer
	color bool

	errStyle    lipgloss.Style
	okStyle     lipgloss.Style
	lineNoStyle lipgloss.Style
	mutedStyle  lipgloss.Style
}

func newPrinter(w io.Writer) *printer {
	color := false
	if f, ok := w.(*os.File); ok {
		color = term.IsTerminal(int(f.Fd()))
	}
	r := lipgloss.NewRenderer(w)
	return &printer{
		w:           w,
		color:       color,
		errStyle:    r.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true),
		okStyle:     r.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true),
		lineNoStyle: r.NewStyle().Foreground(lipgloss.Color("#7C3AED")),
		mutedStyle:  r.NewStyle().Foreground(lipgloss.Color("#6B7280")),
	}
}

func (p *printer) render(s lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return s.Render(text)
}

// Error prints an error, with a source excerpt for transpile errors.
func (p *printer) Error(err error) {
	if te, ok := domain.AsTranspileError(err); ok {
		p.Diagnostic(domain.NewDiagnostic(te))
		return
	}
	fmt.Fprintf(p.w, "%s %v\n", p.render(p.errStyle, "error:"), err)
}

// Diagnostic prints a transpile diagnostic in compiler style.
func (p *printer) Diagnostic(d *domain.Diagnostic) {
	fmt.Fprintf(p.w, "%s %s at line %d\n", p.render(p.errStyle, "error:"), strings.ReplaceAll(d.Kind, "_", " "), d.Line)
	if d.Text != "" {
		gutter := fmt.Sprintf("%4d |", d.Line)
		fmt.Fprintf(p.w, "%s %s\n", p.render(p.lineNoStyle, gutter), d.Text)
	}
	if d.Detail != "" {
		fmt.Fprintf(p.w, "%s %s\n", p.render(p.mutedStyle, "     ="), d.Detail)
	}
}

// Success prints a confirmation line.
func (p *printer) Success(format string, args ...interface{}) {
	fmt.Fprintf(p.w, "%s %s\n", p.render(p.okStyle, "✓"), fmt.Sprintf(format, args...))
}
