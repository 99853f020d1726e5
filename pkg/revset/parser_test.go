package revset

import (
	"errors"
	"strconv"
	"strings"
	"testing"
)

// sexpr prints a syntax tree in a compact prefix form for comparisons.
func sexpr(n Node) string {
	switch n := n.(type) {
	case *Identifier:
		return n.Name
	case *StringLiteral:
		return strconv.Quote(n.Value)
	case *PatternNode:
		return n.Kind + ":" + strconv.Quote(n.Value)
	case *RemoteSymbol:
		return n.Name + "@" + n.Remote
	case *WorkingCopyNode:
		return n.Workspace + "@"
	case *RangeAll:
		if n.Dag {
			return "::"
		}
		return ".."
	case *FunctionCall:
		var args []string
		for _, a := range n.Args {
			args = append(args, sexpr(a))
		}
		for _, kw := range n.Keywords {
			args = append(args, kw.Name+"="+sexpr(kw.Value))
		}
		return n.Name + "(" + strings.Join(args, ", ") + ")"
	case *UnaryOp:
		ops := map[UnaryKind]string{
			Negate:          "not",
			DagRangePrefix:  "::x",
			DagRangePostfix: "x::",
			RangePrefix:     "..x",
			RangePostfix:    "x..",
			ParentsOp:       "x-",
			ChildrenOp:      "x+",
		}
		return "(" + ops[n.Op] + " " + sexpr(n.Operand) + ")"
	case *BinaryOp:
		ops := map[BinaryKind]string{
			UnionOp:        "|",
			IntersectionOp: "&",
			DifferenceOp:   "~",
			DagRangeOp:     "::",
			RangeOp:        "..",
		}
		return "(" + ops[n.Op] + " " + sexpr(n.Left) + " " + sexpr(n.Right) + ")"
	default:
		return "?"
	}
}

func TestLexIdentifiers(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"release-1.2", []string{"release-1.2"}},
		{"x-", []string{"x", "-"}},
		{"x--", []string{"x", "-", "-"}},
		{"a..b", []string{"a", "..", "b"}},
		{"1.2..3", []string{"1.2", "..", "3"}},
		{"a::b", []string{"a", "::", "b"}},
		{"glob:x", []string{"glob", ":", "x"}},
		{"src/*.go", []string{"src/*.go"}},
		{"naïve+1", []string{"naïve+1"}},
	}
	for _, tt := range tests {
		toks, err := lex(tt.input)
		if err != nil {
			t.Fatalf("lex(%q): %v", tt.input, err)
		}
		var got []string
		for _, tok := range toks[:len(toks)-1] {
			got = append(got, tok.text)
		}
		if strings.Join(got, " ") != strings.Join(tt.want, " ") {
			t.Errorf("lex(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestLexStrings(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`"a b"`, "a b"},
		{`"quote \" and \\ and \n"`, "quote \" and \\ and \n"},
		{`'raw \n'`, `raw \n`},
		{`""`, ""},
	}
	for _, tt := range tests {
		toks, err := lex(tt.input)
		if err != nil {
			t.Fatalf("lex(%q): %v", tt.input, err)
		}
		if toks[0].kind != tokString || toks[0].text != tt.want {
			t.Errorf("lex(%q) = %v %q, want string %q", tt.input, toks[0].kind, toks[0].text, tt.want)
		}
	}
}

func TestParseSyntax(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"a | b & c", "(| a (& b c))"},
		{"a ~ b ~ c", "(~ (~ a b) c)"},
		{"~a & b", "(& (not a) b)"},
		{"~~a", "(not (not a))"},
		{"::a", "(::x a)"},
		{"a::", "(x:: a)"},
		{"a::b", "(:: a b)"},
		{"a..b", "(.. a b)"},
		{"..a", "(..x a)"},
		{"a..", "(x.. a)"},
		{"::", "::"},
		{"..", ".."},
		{"x-+", "(x+ (x- x))"},
		{"::x-", "(::x (x- x))"},
		{"(a | b)::", "(x:: (| a b))"},
		{"x:: | y", "(| (x:: x) y)"},
		{"release-1.2", "release-1.2"},
		{"main@origin", "main@origin"},
		{`main@"my remote"`, "main@my remote"},
		{"ws@", "ws@"},
		{"@", "@"},
		{"@-", "(x- @)"},
		{`"a b"`, `"a b"`},
		{`glob:"v*"`, `glob:"v*"`},
		{"heads(a, x=b | c)", "heads(a, x=(| b c))"},
		{"none()", "none()"},
		{"f(a,)", "f(a)"},
		{"  a\n|\tb ", "(| a b)"},
	}
	for _, tt := range tests {
		n, err := ParseSyntax(tt.input)
		if err != nil {
			t.Fatalf("ParseSyntax(%q): %v", tt.input, err)
		}
		if got := sexpr(n); got != tt.want {
			t.Errorf("ParseSyntax(%q) = %s, want %s", tt.input, got, tt.want)
		}
	}
}

func TestParseSyntaxErrors(t *testing.T) {
	tests := []struct {
		input  string
		offset int
		msg    string
	}{
		{"a |", 3, "unexpected end of input"},
		{"a b", 2, "unexpected identifier"},
		{"f(x=a, b)", 7, "positional argument follows keyword argument"},
		{`"abc`, 0, "unterminated string literal"},
		{"'abc", 0, "unterminated string literal"},
		{"a $ b", 2, "unexpected character '$'"},
		{"a::b::c", 4, "range operators cannot be chained"},
		{"(a", 2, "expected ')'"},
		{"glob:", 5, "expected pattern value"},
		{`"\q"`, 1, "invalid escape sequence"},
	}
	for _, tt := range tests {
		_, err := ParseSyntax(tt.input)
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Fatalf("ParseSyntax(%q) error = %v, want *ParseError", tt.input, err)
		}
		if perr.Offset != tt.offset || !strings.Contains(perr.Msg, tt.msg) {
			t.Errorf("ParseSyntax(%q) = %q at %d, want %q at %d", tt.input, perr.Msg, perr.Offset, tt.msg, tt.offset)
		}
	}
}

func TestParseErrorMessage(t *testing.T) {
	err := errorf(7, "unexpected %s", tokPipe)
	if got, want := err.Error(), "unexpected '|' (at offset 7)"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}
