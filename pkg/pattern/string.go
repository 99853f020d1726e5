// Package pattern holds the small sub-languages that appear inside revset
// filters (string patterns, date patterns, file sets, numeric ranges) and
// renders them back into canonical revset text.
package pattern

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind selects how a StringPattern matches.
type Kind int

const (
	Exact Kind = iota
	ExactI
	Substring
	SubstringI
	Glob
	GlobI
	Regex
	RegexI
)

var kindNames = [...]string{
	Exact:      "exact",
	ExactI:     "exact-i",
	Substring:  "substring",
	SubstringI: "substring-i",
	Glob:       "glob",
	GlobI:      "glob-i",
	Regex:      "regex",
	RegexI:     "regex-i",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind maps a pattern prefix such as "glob-i" to its Kind.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}
	return 0, false
}

// CaseInsensitive reports whether k is one of the "-i" variants.
func (k Kind) CaseInsensitive() bool {
	return strings.HasSuffix(k.String(), "-i")
}

// IsGlob reports whether k is Glob or GlobI.
func (k Kind) IsGlob() bool {
	return k == Glob || k == GlobI
}

// StringExpr is a boolean combination of string patterns. Implementations are
// StringPattern, StringNotIn, StringUnion and StringIntersection.
type StringExpr interface {
	isStringExpr()
}

// StringPattern is a single kind:"text" leaf.
type StringPattern struct {
	Kind Kind
	Text string
}

// StringNotIn negates its operand.
type StringNotIn struct {
	Expr StringExpr
}

// StringUnion matches when either operand does.
type StringUnion struct {
	Left, Right StringExpr
}

// StringIntersection matches when both operands do.
type StringIntersection struct {
	Left, Right StringExpr
}

func (StringPattern) isStringExpr()      {}
func (StringNotIn) isStringExpr()        {}
func (StringUnion) isStringExpr()        {}
func (StringIntersection) isStringExpr() {}

// MatchesAll reports whether p is the empty substring pattern, which is what
// argument-less functions like bookmarks() use to mean "everything".
func (p StringPattern) MatchesAll() bool {
	return p.Kind == Substring && p.Text == ""
}

func (p StringPattern) String() string {
	return p.Kind.String() + ":" + strconv.Quote(p.Text)
}

// FormatString renders a string expression in canonical revset form.
func FormatString(expr StringExpr) string {
	switch e := expr.(type) {
	case StringPattern:
		return e.String()
	case StringNotIn:
		return "~" + FormatString(e.Expr)
	case StringUnion:
		return "(" + FormatString(e.Left) + " | " + FormatString(e.Right) + ")"
	case StringIntersection:
		return "(" + FormatString(e.Left) + " & " + FormatString(e.Right) + ")"
	default:
		panic(fmt.Sprintf("pattern: unknown string expression %T", expr))
	}
}

// IsMatchAll reports whether expr is a lone match-everything pattern.
func IsMatchAll(expr StringExpr) bool {
	p, ok := expr.(StringPattern)
	return ok && p.MatchesAll()
}
