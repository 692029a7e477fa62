package services

import (
	"regexp"
	"strings"

	"github.com/forge-platform/forgecode/internal/core/domain"
	"github.com/forge-platform/forgecode/internal/core/ports"
)

// inputDecl matches the body of `var NAME = input(PROMPT)`.
var inputDecl = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*=\s*input\((.*)\)$`)

func isIdentByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// scanCalls walks s outside double-quoted literals and invokes fn at every
// identifier-bounded call of name. fn returns the text to write in place of
// "name(" or "" to keep it.
func scanCalls(s, name string, fn func() string) (string, int) {
	call := name + "("
	var sb strings.Builder
	count := 0
	inString := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			sb.WriteByte(c)
			if c == '\\' && i+1 < len(s) {
				i++
				sb.WriteByte(s[i])
			} else if c == '"' {
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			sb.WriteByte(c)
			continue
		}
		if strings.HasPrefix(s[i:], call) && (i == 0 || !isIdentByte(s[i-1]) && s[i-1] != '.') {
			count++
			if repl := fn(); repl != "" {
				sb.WriteString(repl)
				sb.WriteByte('(')
			} else {
				sb.WriteString(call)
			}
			i += len(call) - 1
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String(), count
}

// renameRand rewrites every rand( call to the backend helper and reports how
// many call sites were renamed. Arguments are left untouched.
func renameRand(expr, helper string) (string, int) {
	return scanCalls(expr, domain.RandCall, func() string { return helper })
}

// hasCall reports whether expr calls name outside of string literals.
func hasCall(expr, name string) bool {
	_, n := scanCalls(expr, name, func() string { return "" })
	return n > 0
}

// parsePrompt splits the body of an input declaration into the variable name
// and its prompt.
func parsePrompt(stmt string) (string, ports.Prompt, bool) {
	m := inputDecl.FindStringSubmatch(strings.TrimSpace(stmt))
	if m == nil {
		return "", ports.Prompt{}, false
	}
	name := m[1]
	raw := strings.TrimSpace(m[2])
	if text, ok := unquote(raw); ok {
		return name, ports.Prompt{Text: escapeQuotes(text), Literal: true}, true
	}
	if raw == "" {
		return name, ports.Prompt{Literal: true}, true
	}
	return name, ports.Prompt{Text: raw}, true
}

// unquote strips one layer of matching double or single quotes.
func unquote(s string) (string, bool) {
	if len(s) < 2 {
		return "", false
	}
	first, last := s[0], s[len(s)-1]
	if first == last && (first == '"' || first == '\'') {
		return s[1 : len(s)-1], true
	}
	return "", false
}

// escapeQuotes escapes double quotes that are not already escaped.
func escapeQuotes(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) {
			sb.WriteByte(c)
			i++
			sb.WriteByte(s[i])
			continue
		}
		if c == '"' {
			sb.WriteString(`\"`)
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// splitDeclaration separates `NAME = EXPR` into its parts. EXPR is empty
// when the declaration has no initializer.
func splitDeclaration(stmt string) (string, string) {
	idx := strings.Index(stmt, "=")
	if idx < 0 {
		return strings.TrimSpace(stmt), ""
	}
	return strings.TrimSpace(stmt[:idx]), strings.TrimSpace(stmt[idx+1:])
}
