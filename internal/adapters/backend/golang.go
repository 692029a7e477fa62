package backend

import (
	"errors"
	"fmt"

	"github.com/forge-platform/forgecode/internal/core/domain"
	"github.com/forge-platform/forgecode/internal/core/ports"
)

const goPrologue = `package main

import (
	"bufio"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
)

var forgeStdin = bufio.NewReader(os.Stdin)

var (
	_ = fmt.Print
	_ = strings.TrimRight
)

func forgeRand(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rand.IntN(hi-lo+1)
}

func main() {
`

// Go emits programs for the go command. Every declared variable is also
// assigned to the blank identifier so unused bindings still compile.
type Go struct{}

// NewGo creates the Go backend.
func NewGo() *Go {
	return &Go{}
}

func (Go) Name() domain.Target { return domain.TargetGo }
func (Go) Extension() string   { return ".go" }
func (Go) BodyDepth() int      { return 1 }
func (Go) Prologue() string    { return goPrologue }
func (Go) Epilogue() string    { return "}\n" }
func (Go) RandHelper() string  { return "forgeRand" }

func (Go) Print(arg string, literal bool) string {
	switch {
	case arg == "":
		return "fmt.Println()"
	case literal:
		return fmt.Sprintf("fmt.Println(%s)", arg)
	default:
		return fmt.Sprintf("fmt.Printf(\"%%v\\n\", %s)", arg)
	}
}

func (Go) Prompt(name string, prompt ports.Prompt) string {
	show := prompt.Text
	if prompt.Literal {
		show = `"` + prompt.Text + `"`
	}
	return fmt.Sprintf(
		"fmt.Print(%s); _ = os.Stdout.Sync(); var %s string; %s, _ = forgeStdin.ReadString('\\n'); %s = strings.TrimRight(%s, \" \\t\\r\\n\"); _ = %s",
		show, name, name, name, name, name,
	)
}

// Declare needs an initializer: Go cannot infer the type of a bare binding.
func (Go) Declare(name, expr string) (string, error) {
	if expr == "" {
		return "", errors.New("the go target requires an initializer")
	}
	return fmt.Sprintf("var %s = %s; _ = %s", name, expr, name), nil
}

func (Go) If(cond string) string     { return fmt.Sprintf("if %s {", cond) }
func (Go) ElseIf(cond string) string { return fmt.Sprintf("} else if %s {", cond) }
func (Go) Else() string              { return "} else {" }
func (Go) While(cond string) string  { return fmt.Sprintf("for %s {", cond) }
func (Go) Close() string             { return "}" }

func (Go) Statement(stmt string) string {
	return stmt
}

var _ ports.Backend = (*Go)(nil)
