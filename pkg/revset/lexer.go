package revset

import (
	"strings"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokAt
	tokLParen
	tokRParen
	tokComma
	tokEquals
	tokColon
	tokDoubleColon
	tokDoubleDot
	tokPipe
	tokAmp
	tokTilde
	tokMinus
	tokPlus
)

var tokenNames = [...]string{
	tokEOF:         "end of input",
	tokIdent:       "identifier",
	tokString:      "string",
	tokAt:          "'@'",
	tokLParen:      "'('",
	tokRParen:      "')'",
	tokComma:       "','",
	tokEquals:      "'='",
	tokColon:       "':'",
	tokDoubleColon: "'::'",
	tokDoubleDot:   "'..'",
	tokPipe:        "'|'",
	tokAmp:         "'&'",
	tokTilde:       "'~'",
	tokMinus:       "'-'",
	tokPlus:        "'+'",
}

func (k tokenKind) String() string { return tokenNames[k] }

type token struct {
	kind   tokenKind
	text   string
	offset int
}

// isIdentByte reports whether c may appear anywhere in an identifier.
// Non-ASCII bytes are accepted so that UTF-8 names lex as one identifier.
func isIdentByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' ||
		c == '_' || c == '/' || c == '*' || c >= utf8.RuneSelf
}

// lex splits input into tokens. Identifiers may contain '.', '-' and '+'
// between identifier characters, so "release-1.2" is one token while "x-"
// and "x..y" are not.
func lex(input string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(input) {
		c := input[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case isIdentByte(c):
			start := i
			for i < len(input) {
				if isIdentByte(input[i]) {
					i++
					continue
				}
				sep := input[i]
				if (sep == '.' || sep == '-' || sep == '+') && i+1 < len(input) && isIdentByte(input[i+1]) {
					i += 2
					continue
				}
				break
			}
			toks = append(toks, token{kind: tokIdent, text: input[start:i], offset: start})
		case c == '"':
			text, n, err := lexQuoted(input[i:], i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{kind: tokString, text: text, offset: i})
			i += n
		case c == '\'':
			end := strings.IndexByte(input[i+1:], '\'')
			if end < 0 {
				return nil, errorf(i, "unterminated string literal")
			}
			toks = append(toks, token{kind: tokString, text: input[i+1 : i+1+end], offset: i})
			i += end + 2
		case c == ':' && strings.HasPrefix(input[i:], "::"):
			toks = append(toks, token{kind: tokDoubleColon, text: "::", offset: i})
			i += 2
		case c == '.' && strings.HasPrefix(input[i:], ".."):
			toks = append(toks, token{kind: tokDoubleDot, text: "..", offset: i})
			i += 2
		default:
			kind, ok := punctuation[c]
			if !ok {
				r, _ := utf8.DecodeRuneInString(input[i:])
				return nil, errorf(i, "unexpected character %q", r)
			}
			toks = append(toks, token{kind: kind, text: input[i : i+1], offset: i})
			i++
		}
	}
	toks = append(toks, token{kind: tokEOF, offset: len(input)})
	return toks, nil
}

var punctuation = map[byte]tokenKind{
	'@': tokAt,
	'(': tokLParen,
	')': tokRParen,
	',': tokComma,
	'=': tokEquals,
	':': tokColon,
	'|': tokPipe,
	'&': tokAmp,
	'~': tokTilde,
	'-': tokMinus,
	'+': tokPlus,
}

// lexQuoted decodes a double-quoted literal at the start of s and returns
// the decoded text and the number of bytes consumed.
func lexQuoted(s string, offset int) (string, int, error) {
	var b strings.Builder
	i := 1
	for i < len(s) {
		c := s[i]
		switch c {
		case '"':
			return b.String(), i + 1, nil
		case '\\':
			if i+1 >= len(s) {
				return "", 0, errorf(offset+i, "unterminated escape sequence")
			}
			switch esc := s[i+1]; esc {
			case '"', '\\':
				b.WriteByte(esc)
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '0':
				b.WriteByte(0)
			case 'e':
				b.WriteByte(0x1b)
			default:
				return "", 0, errorf(offset+i, "invalid escape sequence \\%c", esc)
			}
			i += 2
		default:
			b.WriteByte(c)
			i++
		}
	}
	return "", 0, errorf(offset, "unterminated string literal")
}
