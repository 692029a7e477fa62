package domain

// BlockKind identifies the construct that opened a block.
type BlockKind string

const (
	BlockIf    BlockKind = "if"
	BlockElse  BlockKind = "else"
	BlockWhile BlockKind = "while"
)

// Block is an open block together with the line that opened it.
type Block struct {
	Kind BlockKind
	Line int
}

// ScanState is the mutable state of one single-pass scan.
// Indent always equals the number of open blocks.
type ScanState struct {
	Blocks         []Block
	InBlockComment bool
	CommentLine    int

	// PendingIfClose is set when a "}" closed an if block and its closer
	// has not been emitted yet, so that a following standalone "else"
	// can be fused with it.
	PendingIfClose bool
}

// Indent returns the current nesting depth.
func (s *ScanState) Indent() int {
	return len(s.Blocks)
}

// Push opens a block.
func (s *ScanState) Push(kind BlockKind, line int) {
	s.Blocks = append(s.Blocks, Block{Kind: kind, Line: line})
}

// Pop closes the innermost block. It reports false on an empty stack and
// leaves the state untouched.
func (s *ScanState) Pop() (Block, bool) {
	if len(s.Blocks) == 0 {
		return Block{}, false
	}
	top := s.Blocks[len(s.Blocks)-1]
	s.Blocks = s.Blocks[:len(s.Blocks)-1]
	return top, true
}

// Top returns the innermost open block.
func (s *ScanState) Top() (Block, bool) {
	if len(s.Blocks) == 0 {
		return Block{}, false
	}
	return s.Blocks[len(s.Blocks)-1], true
}
