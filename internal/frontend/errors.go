package frontend

import (
	"errors"
	"fmt"
)

// ErrSyntax indicates source that tree-sitter could not parse cleanly
var ErrSyntax = errors.New("syntax error")

// SyntaxError locates the first parse error in a source file
type SyntaxError struct {
	File string
	// Line and Column are 0-indexed
	Line   uint
	Column uint
}

func (e *SyntaxError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("syntax error at %d:%d", e.Line+1, e.Column+1)
	}
	return fmt.Sprintf("syntax error in %s at %d:%d", e.File, e.Line+1, e.Column+1)
}

func (e *SyntaxError) Unwrap() error {
	return ErrSyntax
}

// NewSyntaxError creates a new syntax error
func NewSyntaxError(line, column uint) error {
	return &SyntaxError{Line: line, Column: column}
}
