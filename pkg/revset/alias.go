package revset

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// AliasMap holds symbol aliases ("name") and function aliases
// ("name(a, b)"). Function aliases overload by arity. Bodies are stored as
// text and parsed on first use.
type AliasMap struct {
	symbols   map[string]string
	functions map[functionKey]functionAlias
}

type functionKey struct {
	name  string
	arity int
}

type functionAlias struct {
	params []string
	body   string
}

// NewAliasMap returns an empty alias map.
func NewAliasMap() *AliasMap {
	return &AliasMap{
		symbols:   make(map[string]string),
		functions: make(map[functionKey]functionAlias),
	}
}

// Insert defines or replaces the alias declared by decl.
func (m *AliasMap) Insert(decl, body string) error {
	name, params, isFunc, err := parseDeclaration(decl)
	if err != nil {
		return err
	}
	if isFunc {
		m.functions[functionKey{name, len(params)}] = functionAlias{params: params, body: body}
	} else {
		m.symbols[name] = body
	}
	return nil
}

// Remove deletes the alias declared by decl, reporting whether it existed.
func (m *AliasMap) Remove(decl string) bool {
	name, params, isFunc, err := parseDeclaration(decl)
	if err != nil {
		return false
	}
	if isFunc {
		key := functionKey{name, len(params)}
		_, ok := m.functions[key]
		delete(m.functions, key)
		return ok
	}
	_, ok := m.symbols[name]
	delete(m.symbols, name)
	return ok
}

// Collapse redefines decl as a quoted symbol of its own text, so the alias
// shows up as one opaque reference instead of its expansion.
func (m *AliasMap) Collapse(decl string) error {
	return m.Insert(decl, strconv.Quote(decl))
}

// Declarations returns every declared alias in sorted order.
func (m *AliasMap) Declarations() []string {
	out := make([]string, 0, len(m.symbols)+len(m.functions))
	for name := range m.symbols {
		out = append(out, name)
	}
	for key, f := range m.functions {
		out = append(out, fmt.Sprintf("%s(%s)", key.name, strings.Join(f.params, ", ")))
	}
	sort.Strings(out)
	return out
}

// parseDeclaration parses "name", "name()" or "name(a, b)".
func parseDeclaration(decl string) (name string, params []string, isFunc bool, err error) {
	toks, err := lex(decl)
	if err != nil {
		return "", nil, false, fmt.Errorf("alias declaration %q: %w", decl, err)
	}
	bad := func(t token) error {
		return fmt.Errorf("alias declaration %q: unexpected %s at offset %d", decl, t.kind, t.offset)
	}
	if toks[0].kind != tokIdent {
		return "", nil, false, bad(toks[0])
	}
	name = toks[0].text
	if toks[1].kind == tokEOF {
		return name, nil, false, nil
	}
	if toks[1].kind != tokLParen {
		return "", nil, false, bad(toks[1])
	}
	i := 2
	for toks[i].kind != tokRParen {
		if toks[i].kind != tokIdent {
			return "", nil, false, bad(toks[i])
		}
		if slices.Contains(params, toks[i].text) {
			return "", nil, false, fmt.Errorf("alias declaration %q: duplicate parameter %q", decl, toks[i].text)
		}
		params = append(params, toks[i].text)
		i++
		if toks[i].kind == tokComma {
			i++
			continue
		}
		if toks[i].kind != tokRParen {
			return "", nil, false, bad(toks[i])
		}
	}
	if toks[i+1].kind != tokEOF {
		return "", nil, false, bad(toks[i+1])
	}
	return name, params, true, nil
}

// arities returns the sorted arities declared for the function alias name.
func (m *AliasMap) arities(name string) []int {
	var out []int
	for key := range m.functions {
		if key.name == name {
			out = append(out, key.arity)
		}
	}
	slices.Sort(out)
	return out
}

func aliasArityText(arities []int) string {
	if len(arities) == 1 {
		return arityText(arities[0], arities[0])
	}
	parts := make([]string, len(arities))
	for i, n := range arities {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts[:len(parts)-1], ", ") + " or " + parts[len(parts)-1] + " arguments"
}

var errRecursiveAlias = errors.New("alias expanded recursively")

type expander struct {
	aliases *AliasMap
	stack   []string
	locals  map[string]Node
}

// Expand substitutes every alias reachable from n.
func (m *AliasMap) Expand(n Node) (Node, error) {
	x := &expander{aliases: m}
	return x.expand(n)
}

func (x *expander) expand(n Node) (Node, error) {
	switch n := n.(type) {
	case *Identifier:
		if arg, ok := x.locals[n.Name]; ok {
			return arg, nil
		}
		if body, ok := x.aliases.symbols[n.Name]; ok {
			return x.expandAlias(n.Name, body, nil)
		}
		return n, nil
	case *FunctionCall:
		out := &FunctionCall{pos: n.pos, Name: n.Name}
		for _, arg := range n.Args {
			expanded, err := x.expand(arg)
			if err != nil {
				return nil, err
			}
			out.Args = append(out.Args, expanded)
		}
		for _, kw := range n.Keywords {
			expanded, err := x.expand(kw.Value)
			if err != nil {
				return nil, err
			}
			out.Keywords = append(out.Keywords, KeywordArg{Name: kw.Name, Value: expanded})
		}
		arities := x.aliases.arities(n.Name)
		if len(arities) == 0 {
			return out, nil
		}
		label := n.Name + "()"
		if len(out.Keywords) > 0 {
			return nil, errorf(n.Pos(), "alias %s does not accept keyword arguments", label)
		}
		alias, ok := x.aliases.functions[functionKey{n.Name, len(out.Args)}]
		if !ok {
			return nil, errorf(n.Pos(), "alias %s: expected %s, got %d", label, aliasArityText(arities), len(out.Args))
		}
		locals := make(map[string]Node, len(alias.params))
		for i, p := range alias.params {
			locals[p] = out.Args[i]
		}
		return x.expandAlias(label, alias.body, locals)
	case *UnaryOp:
		operand, err := x.expand(n.Operand)
		if err != nil {
			return nil, err
		}
		return &UnaryOp{pos: n.pos, Op: n.Op, Operand: operand}, nil
	case *BinaryOp:
		left, err := x.expand(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := x.expand(n.Right)
		if err != nil {
			return nil, err
		}
		return &BinaryOp{pos: n.pos, Op: n.Op, Left: left, Right: right}, nil
	default:
		return n, nil
	}
}

func (x *expander) expandAlias(label, body string, locals map[string]Node) (Node, error) {
	chain := append(slices.Clone(x.stack), label)
	if slices.Contains(x.stack, label) {
		return nil, &AliasError{Chain: chain, Err: errRecursiveAlias}
	}
	tree, err := ParseSyntax(body)
	if err != nil {
		return nil, &AliasError{Chain: chain, Err: err}
	}
	child := &expander{aliases: x.aliases, stack: chain, locals: locals}
	expanded, err := child.expand(tree)
	if err != nil {
		var aliasErr *AliasError
		if errors.As(err, &aliasErr) {
			return nil, err
		}
		return nil, &AliasError{Chain: chain, Err: err}
	}
	return expanded, nil
}
