package revset

import (
	"fmt"
	"strings"
)

// ParseError reports a syntax or semantic error at a byte offset of the
// revset text.
type ParseError struct {
	Offset int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s (at offset %d)", e.Msg, e.Offset)
}

func errorf(offset int, format string, args ...any) *ParseError {
	return &ParseError{Offset: offset, Msg: fmt.Sprintf(format, args...)}
}

// AliasError reports a failure while expanding a revset alias. Chain lists
// the aliases being expanded, outermost first.
type AliasError struct {
	Chain []string
	Err   error
}

func (e *AliasError) Error() string {
	return fmt.Sprintf("in alias %s: %v", strings.Join(e.Chain, " -> "), e.Err)
}

func (e *AliasError) Unwrap() error {
	return e.Err
}

func unknownExpression(e Expression) string {
	return fmt.Sprintf("revset: unknown expression %T", e)
}
