package services

import (
	"strings"

	"github.com/forge-platform/forgecode/internal/core/domain"
)

// rule is one entry of the dispatch table. Rules are tried in order and the
// first match wins, so later rules only see lines earlier ones rejected.
type rule struct {
	name  string
	match func(line string) bool
	apply func(s *Scanner, line string) error
}

var rules = []rule{
	{name: "print", match: isPrint, apply: (*Scanner).emitPrint},
	{name: "input", match: isInputDeclaration, apply: (*Scanner).emitPrompt},
	{name: "declaration", match: isDeclaration, apply: (*Scanner).emitDeclaration},
	{name: "if", match: isIf, apply: (*Scanner).openIf},
	{name: "else", match: isElse, apply: (*Scanner).emitElse},
	{name: "while", match: isWhile, apply: (*Scanner).openWhile},
	{name: "close", match: isClose, apply: (*Scanner).closeBlock},
	{name: "assignment", match: isAssignment, apply: (*Scanner).emitStatement},
	{name: "statement", match: isStatement, apply: (*Scanner).emitStatement},
}

// classify returns the first rule matching line.
func classify(line string) (rule, bool) {
	for _, r := range rules {
		if r.match(line) {
			return r, true
		}
	}
	return rule{}, false
}

func isPrint(line string) bool {
	return strings.HasPrefix(line, domain.PrintPrefix) && strings.HasSuffix(line, domain.PrintSuffix)
}

func isDeclaration(line string) bool {
	return strings.HasPrefix(line, domain.DeclKeyword) &&
		strings.HasSuffix(line, domain.StatementTerminator) &&
		len(line) >= len(domain.DeclKeyword)+len(domain.StatementTerminator)
}

func isInputDeclaration(line string) bool {
	return isDeclaration(line) && hasCall(declarationBody(line), strings.TrimSuffix(domain.InputCall, "("))
}

func isIf(line string) bool {
	return strings.HasPrefix(line, domain.IfKeyword) && strings.HasSuffix(line, domain.BlockOpen)
}

func isWhile(line string) bool {
	return strings.HasPrefix(line, domain.WhileKeyword) && strings.HasSuffix(line, domain.BlockOpen)
}

func isClose(line string) bool {
	return line == domain.BlockClose
}

// elseForm describes a recognized else line.
type elseForm struct {
	fused bool   // the line starts with the closer of the if body
	cond  string // non-empty for else-if
}

func parseElse(line string) (elseForm, bool) {
	if line == domain.FusedElse {
		return elseForm{fused: true}, true
	}
	var form elseForm
	rest := line
	if strings.HasPrefix(rest, domain.BlockClose) {
		form.fused = true
		rest = strings.TrimSpace(rest[len(domain.BlockClose):])
	}
	if !strings.HasPrefix(rest, domain.ElseKeyword) || !strings.HasSuffix(rest, domain.BlockOpen) {
		return elseForm{}, false
	}
	body := strings.TrimSpace(rest[len(domain.ElseKeyword) : len(rest)-len(domain.BlockOpen)])
	if body == "" {
		return form, true
	}
	if !strings.HasPrefix(body, domain.IfKeyword) {
		return elseForm{}, false
	}
	form.cond = strings.TrimSpace(body[len(domain.IfKeyword):])
	if form.cond == "" {
		return elseForm{}, false
	}
	return form, true
}

func isElse(line string) bool {
	_, ok := parseElse(line)
	return ok
}

func isAssignment(line string) bool {
	return strings.HasSuffix(line, domain.StatementTerminator) &&
		strings.Contains(line, "=") &&
		!strings.HasPrefix(line, domain.DeclKeyword)
}

func isStatement(line string) bool {
	return strings.HasSuffix(line, domain.StatementTerminator)
}

func isComment(line string) bool {
	return strings.HasPrefix(line, domain.LineComment) || strings.HasPrefix(line, domain.HashComment)
}

// declarationBody strips the keyword and terminator from a declaration.
func declarationBody(line string) string {
	return strings.TrimSpace(line[len(domain.DeclKeyword) : len(line)-len(domain.StatementTerminator)])
}

// blockCondition extracts the condition between a keyword and the block opener.
func blockCondition(line, keyword string) string {
	return strings.TrimSpace(line[len(keyword) : len(line)-len(domain.BlockOpen)])
}
