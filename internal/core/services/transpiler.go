package services

import (
	"strings"

	"github.com/forge-platform/forgecode/internal/core/domain"
	"github.com/forge-platform/forgecode/internal/core/ports"
)

// DefaultIndentUnit is the indentation emitted per nesting level.
const DefaultIndentUnit = "    "

// TranspilerOptions configures a Transpiler.
type TranspilerOptions struct {
	Mode       domain.Mode
	IndentUnit string
}

// Transpiler converts Forge Code into a program for one backend.
// It holds no per-call state and is safe for concurrent use.
type Transpiler struct {
	backend ports.Backend
	logger  ports.Logger
	opts    TranspilerOptions
}

// NewTranspiler creates a transpiler for a backend.
func NewTranspiler(backend ports.Backend, logger ports.Logger, opts TranspilerOptions) *Transpiler {
	if opts.Mode == "" {
		opts.Mode = domain.ModeStrict
	}
	if opts.IndentUnit == "" {
		opts.IndentUnit = DefaultIndentUnit
	}
	return &Transpiler{
		backend: backend,
		logger:  logger,
		opts:    opts,
	}
}

// Backend returns the backend the transpiler emits for.
func (t *Transpiler) Backend() ports.Backend {
	return t.backend
}

// Encode translates a whole program. On error no partial output is returned.
func (t *Transpiler) Encode(source string) (string, error) {
	out, _, err := t.EncodeWithStats(source)
	return out, err
}

// EncodeWithStats is Encode that also reports what the scan saw. Stats are
// returned even when translation fails.
func (t *Transpiler) EncodeWithStats(source string) (string, domain.ScanStats, error) {
	var sb strings.Builder
	sb.WriteString(t.backend.Prologue())

	sc := t.NewScanner()
	for _, line := range strings.Split(source, "\n") {
		frag, err := sc.Feed(line)
		if err != nil {
			return "", sc.Stats(), err
		}
		sb.WriteString(frag)
	}
	tail, err := sc.Finish()
	if err != nil {
		return "", sc.Stats(), err
	}
	sb.WriteString(tail)
	sb.WriteString(t.backend.Epilogue())

	t.logger.Debug("Transpiled program",
		"target", t.backend.Name(),
		"lines", sc.stats.Lines,
		"statements", sc.stats.Statements,
	)
	return sb.String(), sc.Stats(), nil
}

// NewScanner starts a fresh single-pass scan.
func (t *Transpiler) NewScanner() *Scanner {
	return &Scanner{
		backend: t.backend,
		logger:  t.logger,
		mode:    t.opts.Mode,
		unit:    t.opts.IndentUnit,
	}
}

// Scanner classifies lines one at a time and tracks block nesting.
type Scanner struct {
	backend ports.Backend
	logger  ports.Logger
	mode    domain.Mode
	unit    string

	state domain.ScanState
	line  int
	text  string
	stats domain.ScanStats
	buf   strings.Builder
}

// Depth returns the current nesting depth.
func (s *Scanner) Depth() int {
	return s.state.Indent()
}

// InBlockComment reports whether the scanner is inside a block comment.
func (s *Scanner) InBlockComment() bool {
	return s.state.InBlockComment
}

// Stats returns the counters collected so far.
func (s *Scanner) Stats() domain.ScanStats {
	return s.stats
}

// Feed classifies one physical line and returns the code it emitted. On error
// the returned fragment holds whatever was emitted before the failure.
func (s *Scanner) Feed(raw string) (string, error) {
	s.line++
	s.stats.Lines++
	s.buf.Reset()

	line := strings.TrimSpace(raw)
	s.text = line
	if line == "" {
		s.stats.Blank++
		return "", nil
	}

	if s.state.InBlockComment {
		s.stats.Comments++
		if strings.Contains(line, domain.BlockCommentEnd) {
			s.state.InBlockComment = false
		}
		return "", nil
	}
	if strings.HasPrefix(line, domain.BlockCommentOpen) {
		s.stats.Comments++
		if !strings.Contains(line[len(domain.BlockCommentOpen):], domain.BlockCommentEnd) {
			s.state.InBlockComment = true
			s.state.CommentLine = s.line
		}
		return "", nil
	}
	if isComment(line) {
		s.stats.Comments++
		return "", nil
	}

	err := s.dispatch(line)
	return s.buf.String(), err
}

// Finish flushes any pending closer and validates end-of-input state.
func (s *Scanner) Finish() (string, error) {
	s.buf.Reset()
	if s.state.InBlockComment {
		return "", domain.NewTranspileError(domain.ErrUnterminatedComment, s.state.CommentLine, "", "comment opened here is never closed")
	}
	s.flushPending()
	if top, ok := s.state.Top(); ok {
		return s.buf.String(), domain.NewTranspileError(domain.ErrUnclosedBlock, top.Line, "", string(top.Kind)+" block is never closed")
	}
	return s.buf.String(), nil
}

func (s *Scanner) dispatch(line string) error {
	r, ok := classify(line)
	if !ok {
		return s.unrecognized(line)
	}
	if r.name != "else" {
		s.flushPending()
	}
	s.logger.Debug("Classified line", "line", s.line, "rule", r.name)
	return r.apply(s, line)
}

func (s *Scanner) unrecognized(line string) error {
	if s.mode != domain.ModePermissive {
		return s.fail(domain.ErrUnrecognizedLine, "no rule matches this line")
	}
	s.flushPending()
	s.logger.Warn("Passing unrecognized line through", "line", s.line, "text", line)
	s.stats.Passthrough++
	s.emit(s.Depth(), line)
	return nil
}

func (s *Scanner) fail(kind error, detail string) error {
	return domain.NewTranspileError(kind, s.line, s.text, detail)
}

func (s *Scanner) emit(depth int, code string) {
	s.buf.WriteString(strings.Repeat(s.unit, s.backend.BodyDepth()+depth))
	s.buf.WriteString(code)
	s.buf.WriteByte('\n')
}

// flushPending emits the closer of an if block that was held back in case an
// else followed it.
func (s *Scanner) flushPending() {
	if !s.state.PendingIfClose {
		return
	}
	s.state.PendingIfClose = false
	s.emit(s.Depth(), s.backend.Close())
}

func (s *Scanner) open(kind domain.BlockKind) {
	s.state.Push(kind, s.line)
	s.stats.Blocks++
	if d := s.Depth(); d > s.stats.MaxDepth {
		s.stats.MaxDepth = d
	}
}

func (s *Scanner) rename(expr string) string {
	out, n := renameRand(expr, s.backend.RandHelper())
	s.stats.RandCalls += n
	return out
}

func (s *Scanner) emitPrint(line string) error {
	arg := strings.TrimSpace(line[len(domain.PrintPrefix) : len(line)-len(domain.PrintSuffix)])
	literal := strings.HasPrefix(arg, `"`)
	s.stats.Statements++
	s.emit(s.Depth(), s.backend.Print(s.rename(arg), literal))
	return nil
}

func (s *Scanner) emitPrompt(line string) error {
	name, prompt, ok := parsePrompt(declarationBody(line))
	if !ok {
		return s.fail(domain.ErrMalformedPrompt, "expected `var NAME = input(PROMPT)--`")
	}
	if !prompt.Literal {
		prompt.Text = s.rename(prompt.Text)
	}
	s.stats.Statements++
	s.emit(s.Depth(), s.backend.Prompt(name, prompt))
	return nil
}

func (s *Scanner) emitDeclaration(line string) error {
	name, expr := splitDeclaration(declarationBody(line))
	if name == "" {
		return s.fail(domain.ErrUnrecognizedLine, "declaration has no variable name")
	}
	code, err := s.backend.Declare(name, s.rename(expr))
	if err != nil {
		return s.fail(domain.ErrUnsupported, err.Error())
	}
	s.stats.Statements++
	s.emit(s.Depth(), code)
	return nil
}

func (s *Scanner) openIf(line string) error {
	cond := blockCondition(line, domain.IfKeyword)
	if cond == "" {
		return s.fail(domain.ErrUnrecognizedLine, "if has no condition")
	}
	s.emit(s.Depth(), s.backend.If(s.rename(cond)))
	s.open(domain.BlockIf)
	return nil
}

func (s *Scanner) openWhile(line string) error {
	cond := blockCondition(line, domain.WhileKeyword)
	if cond == "" {
		return s.fail(domain.ErrUnrecognizedLine, "while has no condition")
	}
	s.emit(s.Depth(), s.backend.While(s.rename(cond)))
	s.open(domain.BlockWhile)
	return nil
}

// emitElse handles both the fused form, which closes the if body itself, and
// the standalone form, which must directly follow the closer of an if body.
func (s *Scanner) emitElse(line string) error {
	form, _ := parseElse(line)

	if form.fused {
		s.flushPending()
		top, ok := s.state.Top()
		if !ok || top.Kind != domain.BlockIf {
			return s.fail(domain.ErrUnbalancedBlock, "else does not close an if block")
		}
		s.state.Pop()
	} else {
		if !s.state.PendingIfClose {
			return s.fail(domain.ErrUnbalancedBlock, "else does not follow an if block")
		}
		s.state.PendingIfClose = false
	}

	kind := domain.BlockElse
	code := s.backend.Else()
	if form.cond != "" {
		kind = domain.BlockIf
		code = s.backend.ElseIf(s.rename(form.cond))
	}
	s.emit(s.Depth(), code)
	s.open(kind)
	return nil
}

func (s *Scanner) closeBlock(string) error {
	top, ok := s.state.Pop()
	if !ok {
		return s.fail(domain.ErrUnbalancedBlock, "closing brace without an open block")
	}
	if top.Kind == domain.BlockIf {
		s.state.PendingIfClose = true
		return nil
	}
	s.emit(s.Depth(), s.backend.Close())
	return nil
}

func (s *Scanner) emitStatement(line string) error {
	stmt := strings.TrimSpace(strings.TrimSuffix(line, domain.StatementTerminator))
	s.stats.Statements++
	s.emit(s.Depth(), s.backend.Statement(s.rename(stmt)))
	return nil
}
