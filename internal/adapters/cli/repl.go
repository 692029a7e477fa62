package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/forge-platform/forgecode/internal/core/services"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"
)

const (
	replHistoryFile = "repl_history"
	promptMain      = "fc> "
	promptCont      = "... "
)

const replHelp = `Type Forge Code one line at a time; each line prints the code it emits.
  :show         print the whole program translated so far
  :reset        start a new program
  :load <file>  feed a script into the session
  :help         show this help
  :quit         leave the REPL
`

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Translate Forge Code interactively",
	Long:  `Start an interactive session that translates each line as it is typed.`,
	Args:  cobra.NoArgs,
	RunE:  runREPL,
}

func runREPL(cmd *cobra.Command, args []string) error {
	tr, err := newTranspiler(newLogger())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Forge Code REPL (%s target). Type :help for help.\n", tr.Backend().Name())

	histPath := filepath.Join(cfg.Core.DataDir, replHistoryFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	// Load history (best-effort)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	session := newReplSession(tr, out, cmd.ErrOrStderr())
	for {
		line, err := ln.Prompt(session.Prompt())
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(out)
			break
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		if strings.TrimSpace(line) != "" {
			ln.AppendHistory(line)
		}
		if session.Eval(line) {
			break
		}
	}
	session.Close()

	// Persist history (best-effort)
	if err := os.MkdirAll(filepath.Dir(histPath), 0755); err == nil {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}
	return nil
}

// replSession feeds typed lines through a single scanner so blocks can span
// several prompts.
type replSession struct {
	tr      *services.Transpiler
	scanner *services.Scanner
	lines   []string
	out     io.Writer
	errs    *printer
}

func newReplSession(tr *services.Transpiler, out, errOut io.Writer) *replSession {
	return &replSession{
		tr:      tr,
		scanner: tr.NewScanner(),
		out:     out,
		errs:    newPrinter(errOut),
	}
}

// Prompt returns the continuation prompt while a block or comment is open.
func (r *replSession) Prompt() string {
	if r.scanner.Depth() > 0 || r.scanner.InBlockComment() {
		return promptCont
	}
	return promptMain
}

// Eval handles one input line and reports whether the session should end.
func (r *replSession) Eval(line string) (exit bool) {
	if strings.HasPrefix(strings.TrimSpace(line), ":") {
		return r.command(line)
	}
	r.feed(line)
	return false
}

// feed passes one line to the scanner. A rejected line is kept as a blank
// so :show reports the same line numbers as the session.
func (r *replSession) feed(line string) bool {
	fragment, err := r.scanner.Feed(line)
	if fragment != "" {
		fmt.Fprint(r.out, fragment)
	}
	if err != nil {
		r.lines = append(r.lines, "")
		r.errs.Error(err)
		return false
	}
	r.lines = append(r.lines, line)
	return true
}

func (r *replSession) command(line string) bool {
	fields := strings.Fields(line)
	switch strings.ToLower(fields[0]) {
	case ":help":
		fmt.Fprint(r.out, replHelp)

	case ":quit", ":exit", ":q":
		return true

	case ":reset":
		r.reset()
		fmt.Fprintln(r.out, "program reset.")

	case ":show":
		program, err := r.tr.Encode(strings.Join(r.lines, "\n"))
		if err != nil {
			r.errs.Error(err)
			return false
		}
		fmt.Fprint(r.out, program)

	case ":load":
		if len(fields) < 2 {
			fmt.Fprintln(r.out, "usage: :load <file>")
			return false
		}
		source, err := services.LoadScript(fields[1])
		if err != nil {
			r.errs.Error(err)
			return false
		}
		for _, l := range strings.Split(source, "\n") {
			if !r.feed(l) {
				break
			}
		}

	default:
		fmt.Fprintln(r.out, "unknown command. Type :help for help.")
	}
	return false
}

func (r *replSession) reset() {
	r.scanner = r.tr.NewScanner()
	r.lines = nil
}

// Close reports anything left open when the session ends.
func (r *replSession) Close() {
	if fragment, err := r.scanner.Finish(); err != nil {
		r.errs.Error(err)
	} else if fragment != "" {
		fmt.Fprint(r.out, fragment)
	}
}
