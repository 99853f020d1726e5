package revset

// ParseSyntax parses revset text into a syntax tree without expanding
// aliases or checking function names.
//
// Precedence, loosest first: '|'; binary '&' and '~'; prefix '~'; the range
// operators '::' and '..' in prefix, infix and postfix position; postfix
// '-' and '+'; primaries.
func ParseSyntax(input string) (Node, error) {
	toks, err := lex(input)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	n, err := p.union()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, errorf(t.offset, "unexpected %s", t.kind)
	}
	return n, nil
}

type parser struct {
	toks []token
	i    int
}

func (p *parser) peek() token {
	return p.toks[p.i]
}

func (p *parser) peekAt(n int) token {
	if p.i+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.i+n]
}

func (p *parser) next() token {
	t := p.toks[p.i]
	if t.kind != tokEOF {
		p.i++
	}
	return t
}

func (p *parser) expect(kind tokenKind) (token, error) {
	t := p.next()
	if t.kind != kind {
		return t, errorf(t.offset, "expected %s, found %s", kind, t.kind)
	}
	return t, nil
}

func (p *parser) union() (Node, error) {
	left, err := p.intersection()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokPipe {
		op := p.next()
		right, err := p.intersection()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{pos: pos(op.offset), Op: UnionOp, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) intersection() (Node, error) {
	left, err := p.negate()
	if err != nil {
		return nil, err
	}
	for {
		var kind BinaryKind
		switch p.peek().kind {
		case tokAmp:
			kind = IntersectionOp
		case tokTilde:
			kind = DifferenceOp
		default:
			return left, nil
		}
		op := p.next()
		right, err := p.negate()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{pos: pos(op.offset), Op: kind, Left: left, Right: right}
	}
}

func (p *parser) negate() (Node, error) {
	if p.peek().kind != tokTilde {
		return p.rangeExpr()
	}
	op := p.next()
	operand, err := p.negate()
	if err != nil {
		return nil, err
	}
	return &UnaryOp{pos: pos(op.offset), Op: Negate, Operand: operand}, nil
}

func isRangeToken(k tokenKind) bool {
	return k == tokDoubleColon || k == tokDoubleDot
}

// startsPrimary reports whether a token can begin an operand of a range
// operator.
func startsPrimary(k tokenKind) bool {
	switch k {
	case tokIdent, tokString, tokAt, tokLParen:
		return true
	}
	return false
}

func (p *parser) rangeExpr() (Node, error) {
	if t := p.peek(); isRangeToken(t.kind) {
		p.next()
		dag := t.kind == tokDoubleColon
		if !startsPrimary(p.peek().kind) {
			return &RangeAll{pos: pos(t.offset), Dag: dag}, nil
		}
		operand, err := p.postfix()
		if err != nil {
			return nil, err
		}
		kind := RangePrefix
		if dag {
			kind = DagRangePrefix
		}
		return &UnaryOp{pos: pos(t.offset), Op: kind, Operand: operand}, nil
	}

	left, err := p.postfix()
	if err != nil {
		return nil, err
	}
	t := p.peek()
	if !isRangeToken(t.kind) {
		return left, nil
	}
	p.next()
	dag := t.kind == tokDoubleColon
	if !startsPrimary(p.peek().kind) {
		kind := RangePostfix
		if dag {
			kind = DagRangePostfix
		}
		return &UnaryOp{pos: pos(t.offset), Op: kind, Operand: left}, nil
	}
	right, err := p.postfix()
	if err != nil {
		return nil, err
	}
	if next := p.peek(); isRangeToken(next.kind) {
		return nil, errorf(next.offset, "range operators cannot be chained; use parentheses")
	}
	kind := RangeOp
	if dag {
		kind = DagRangeOp
	}
	return &BinaryOp{pos: pos(t.offset), Op: kind, Left: left, Right: right}, nil
}

func (p *parser) postfix() (Node, error) {
	n, err := p.primary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		switch t.kind {
		case tokMinus:
			p.next()
			n = &UnaryOp{pos: pos(t.offset), Op: ParentsOp, Operand: n}
		case tokPlus:
			p.next()
			n = &UnaryOp{pos: pos(t.offset), Op: ChildrenOp, Operand: n}
		default:
			return n, nil
		}
	}
}

func (p *parser) primary() (Node, error) {
	t := p.next()
	switch t.kind {
	case tokLParen:
		n, err := p.union()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return n, nil
	case tokAt:
		return &WorkingCopyNode{pos: pos(t.offset)}, nil
	case tokString:
		return &StringLiteral{pos: pos(t.offset), Value: t.text}, nil
	case tokIdent:
		return p.afterIdent(t)
	case tokEOF:
		return nil, errorf(t.offset, "unexpected end of input")
	default:
		return nil, errorf(t.offset, "unexpected %s", t.kind)
	}
}

func (p *parser) afterIdent(ident token) (Node, error) {
	switch p.peek().kind {
	case tokLParen:
		p.next()
		return p.call(ident)
	case tokColon:
		p.next()
		v := p.next()
		if v.kind != tokIdent && v.kind != tokString {
			return nil, errorf(v.offset, "expected pattern value after %q, found %s", ident.text+":", v.kind)
		}
		return &PatternNode{pos: pos(ident.offset), Kind: ident.text, Value: v.text}, nil
	case tokAt:
		p.next()
		if r := p.peek(); r.kind == tokIdent || r.kind == tokString {
			p.next()
			return &RemoteSymbol{pos: pos(ident.offset), Name: ident.text, Remote: r.text}, nil
		}
		return &WorkingCopyNode{pos: pos(ident.offset), Workspace: ident.text}, nil
	default:
		return &Identifier{pos: pos(ident.offset), Name: ident.text}, nil
	}
}

func (p *parser) call(name token) (Node, error) {
	fc := &FunctionCall{pos: pos(name.offset), Name: name.text}
	for p.peek().kind != tokRParen {
		if kw := p.peek(); kw.kind == tokIdent && p.peekAt(1).kind == tokEquals {
			p.next()
			p.next()
			value, err := p.union()
			if err != nil {
				return nil, err
			}
			fc.Keywords = append(fc.Keywords, KeywordArg{Name: kw.text, Value: value})
		} else {
			if len(fc.Keywords) > 0 {
				return nil, errorf(kw.offset, "positional argument follows keyword argument")
			}
			arg, err := p.union()
			if err != nil {
				return nil, err
			}
			fc.Args = append(fc.Args, arg)
		}
		if p.peek().kind != tokComma {
			break
		}
		p.next()
	}
	if _, err := p.expect(tokRParen); err != nil {
		return nil, err
	}
	return fc, nil
}
