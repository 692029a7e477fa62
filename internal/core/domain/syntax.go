// Package domain contains the core entities of the Forge Code toolchain.
// These entities are pure and have no knowledge of persistence or presentation.
package domain

// Fixed Forge Code tokens. Matching is case-sensitive with no aliasing.
const (
	StatementTerminator = "--"
	BlockOpen           = "{"
	BlockClose          = "}"

	DeclKeyword = "var "
	PrintPrefix = "print("
	PrintSuffix = ")--"
	InputCall   = "input("

	IfKeyword    = "if "
	WhileKeyword = "while "
	ElseKeyword  = "else"

	FusedElse = "} else {"

	LineComment      = "//"
	HashComment      = "#"
	BlockCommentOpen = "/*"
	BlockCommentEnd  = "*/"

	RandCall = "rand"
)

// ScriptExtension is the file extension of Forge Code scripts.
const ScriptExtension = ".fc1"
