package expr

import "fmt"

// Parser is a hand-written recursive-descent (Pratt-style) parser over the
// post-implicit-composition token stream (spec.md §4.D, §9).
type Parser struct {
	toks []Token
	pos  int
}

// Parse lexes src, applies implicit-composition insertion, and parses the
// result into a single expression AST.
func Parse(src string) (Node, error) {
	lx := NewLexer(src)
	toks, err := lx.Tokenize()
	if err != nil {
		return nil, err
	}
	toks = insertImplicitComposition(toks)
	p := &Parser{toks: toks}
	n, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if p.cur().Kind != TokEOF {
		return nil, fmt.Errorf("unexpected token %q at offset %d", p.cur().Text, int(p.cur().Start))
	}
	return n, nil
}

func (p *Parser) cur() Token  { return p.toks[p.pos] }
func (p *Parser) advance() Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) isOp(s string) bool {
	return p.cur().Kind == TokOp && p.cur().Text == s
}

func (p *Parser) isKw(s string) bool {
	return p.cur().Kind == TokKeyword && p.cur().Text == s
}

func (p *Parser) expectOp(s string) error {
	if !p.isOp(s) {
		return fmt.Errorf("expected %q at offset %d, got %q", s, int(p.cur().Start), p.cur().Text)
	}
	p.advance()
	return nil
}

// parseTernary: `X if Cond else Y` | or-expr
func (p *Parser) parseTernary() (Node, error) {
	x, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.isKw("if") {
		pos := p.cur().Start
		p.advance()
		cond, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if !p.isKw("else") {
			return nil, fmt.Errorf("expected 'else' at offset %d", int(p.cur().Start))
		}
		p.advance()
		y, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		return &IfExp{Cond: cond, X: x, Y: y, Pos: pos}, nil
	}
	return x, nil
}

func (p *Parser) parseOr() (Node, error) {
	x, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	if !p.isKw("or") {
		return x, nil
	}
	pos := p.cur().Start
	vals := []Node{x}
	for p.isKw("or") {
		p.advance()
		y, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		vals = append(vals, y)
	}
	return &BoolOp{Op: "or", Vals: vals, Pos: pos}, nil
}

func (p *Parser) parseAnd() (Node, error) {
	x, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	if !p.isKw("and") {
		return x, nil
	}
	pos := p.cur().Start
	vals := []Node{x}
	for p.isKw("and") {
		p.advance()
		y, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		vals = append(vals, y)
	}
	return &BoolOp{Op: "and", Vals: vals, Pos: pos}, nil
}

func (p *Parser) parseNot() (Node, error) {
	if p.isKw("not") {
		pos := p.cur().Start
		p.advance()
		x, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &UnaryOp{Op: "not", X: x, Pos: pos}, nil
	}
	return p.parseComparison()
}

var compareOps = map[string]bool{
	"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true,
}

func (p *Parser) parseComparison() (Node, error) {
	x, err := p.parseComposition()
	if err != nil {
		return nil, err
	}
	var ops []string
	var rest []Node
	pos := p.cur().Start
	for {
		op, ok := p.matchCompareOp()
		if !ok {
			break
		}
		y, err := p.parseComposition()
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
		rest = append(rest, y)
	}
	if len(ops) == 0 {
		return x, nil
	}
	return &Compare{First: x, Ops: ops, Rest: rest, Pos: pos}, nil
}

func (p *Parser) matchCompareOp() (string, bool) {
	if p.cur().Kind == TokOp && compareOps[p.cur().Text] {
		op := p.cur().Text
		p.advance()
		return op, true
	}
	if p.isKw("is") {
		p.advance()
		if p.isKw("not") {
			p.advance()
			return "is-not", true
		}
		return "is", true
	}
	if p.isKw("in") {
		p.advance()
		return "in", true
	}
	if p.isKw("not") && p.pos+1 < len(p.toks) && p.toks[p.pos+1].Kind == TokKeyword && p.toks[p.pos+1].Text == "in" {
		p.advance()
		p.advance()
		return "not-in", true
	}
	return "", false
}

// parseComposition: left-assoc `@` (implicit or explicit tuple
// composition), spec.md §4.E "BinOp @".
func (p *Parser) parseComposition() (Node, error) {
	x, err := p.parseBitOr()
	if err != nil {
		return nil, err
	}
	for p.isOp("@") {
		pos := p.cur().Start
		p.advance()
		y, err := p.parseBitOr()
		if err != nil {
			return nil, err
		}
		x = &BinOp{Op: "@", X: x, Y: y, Pos: pos}
	}
	return x, nil
}

func (p *Parser) binLevel(next func() (Node, error), ops ...string) (Node, error) {
	x, err := next()
	if err != nil {
		return nil, err
	}
	for {
		matched := ""
		if p.cur().Kind == TokOp {
			for _, op := range ops {
				if p.cur().Text == op {
					matched = op
					break
				}
			}
		}
		if matched == "" {
			return x, nil
		}
		pos := p.cur().Start
		p.advance()
		y, err := next()
		if err != nil {
			return nil, err
		}
		x = &BinOp{Op: matched, X: x, Y: y, Pos: pos}
	}
}

func (p *Parser) parseBitOr() (Node, error) { return p.binLevel(p.parseBitXor, "|") }
func (p *Parser) parseBitXor() (Node, error) { return p.binLevel(p.parseBitAnd, "^") }
func (p *Parser) parseBitAnd() (Node, error) { return p.binLevel(p.parseShift, "&") }
func (p *Parser) parseShift() (Node, error)  { return p.binLevel(p.parseAdd, "<<", ">>") }
func (p *Parser) parseAdd() (Node, error)    { return p.binLevel(p.parseMul, "+", "-") }
func (p *Parser) parseMul() (Node, error)    { return p.binLevel(p.parseUnary, "*", "/", "//", "%") }

func (p *Parser) parseUnary() (Node, error) {
	if p.cur().Kind == TokOp && (p.cur().Text == "+" || p.cur().Text == "-" || p.cur().Text == "~") {
		op := p.cur().Text
		pos := p.cur().Start
		p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryOp{Op: op, X: x, Pos: pos}, nil
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (Node, error) {
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.isOp("."):
			pos := p.cur().Start
			p.advance()
			if p.cur().Kind != TokName && p.cur().Kind != TokKeyword {
				return nil, fmt.Errorf("expected identifier after '.' at offset %d", int(p.cur().Start))
			}
			attr := p.advance().Text
			x = &Attribute{X: x, Attr: attr, Pos: pos}

		case p.isOp("["):
			pos := p.cur().Start
			p.advance()
			x, err = p.parseSubscriptOrSlice(x, pos)
			if err != nil {
				return nil, err
			}

		case p.isOp("("):
			pos := p.cur().Start
			p.advance()
			call := &Call{Func: x, Pos: pos}
			if err := p.parseCallArgs(call); err != nil {
				return nil, err
			}
			x = call

		default:
			return x, nil
		}
	}
}

func (p *Parser) parseSubscriptOrSlice(x Node, pos Pos) (Node, error) {
	var lo, hi Node
	var err error
	if !p.isOp(":") && !p.isOp("]") {
		lo, err = p.parseTernary()
		if err != nil {
			return nil, err
		}
	}
	if p.isOp(":") {
		p.advance()
		if !p.isOp("]") {
			hi, err = p.parseTernary()
			if err != nil {
				return nil, err
			}
		}
		if err := p.expectOp("]"); err != nil {
			return nil, err
		}
		return &Slice{X: x, Lo: lo, Hi: hi, Pos: pos}, nil
	}
	if err := p.expectOp("]"); err != nil {
		return nil, err
	}
	return &Subscript{X: x, Index: lo, Pos: pos}, nil
}

func (p *Parser) parseCallArgs(call *Call) error {
	if p.isOp(")") {
		p.advance()
		return nil
	}
	for {
		if p.cur().Kind == TokName && p.pos+1 < len(p.toks) && p.toks[p.pos+1].Kind == TokOp && p.toks[p.pos+1].Text == "=" {
			name := p.advance().Text
			p.advance() // '='
			v, err := p.parseTernary()
			if err != nil {
				return err
			}
			call.Kwargs = append(call.Kwargs, Keyword{Name: name, Value: v})
		} else {
			v, err := p.parseTernary()
			if err != nil {
				return err
			}
			call.Args = append(call.Args, v)
		}
		if p.isOp(",") {
			p.advance()
			if p.isOp(")") {
				break
			}
			continue
		}
		break
	}
	return p.expectOp(")")
}

func (p *Parser) parsePrimary() (Node, error) {
	tok := p.cur()
	switch {
	case tok.Kind == TokNumber:
		p.advance()
		kind := ConstInt
		for _, r := range tok.Text {
			if r == '.' || r == 'e' || r == 'E' {
				kind = ConstFloat
				break
			}
		}
		return &Constant{Kind: kind, Text: tok.Text, Pos: tok.Start}, nil

	case tok.Kind == TokString:
		p.advance()
		return &Constant{Kind: ConstString, Text: tok.Text, Pos: tok.Start}, nil

	case tok.Kind == TokKeyword && tok.Text == "True":
		p.advance()
		return &Constant{Kind: ConstBool, Text: "true", Pos: tok.Start}, nil

	case tok.Kind == TokKeyword && tok.Text == "False":
		p.advance()
		return &Constant{Kind: ConstBool, Text: "false", Pos: tok.Start}, nil

	case tok.Kind == TokKeyword && tok.Text == "None":
		p.advance()
		return &Constant{Kind: ConstNull, Pos: tok.Start}, nil

	case tok.Kind == TokName:
		p.advance()
		return &Name{Ident: tok.Text, Pos: tok.Start}, nil

	case p.isOp("("):
		return p.parseParenOrTuple()

	case p.isOp("["):
		return p.parseListOrComp()

	case p.isOp("{"):
		return p.parseDictOrSet()

	default:
		return nil, fmt.Errorf("unexpected token %q at offset %d", tok.Text, int(tok.Start))
	}
}

func (p *Parser) parseParenOrTuple() (Node, error) {
	pos := p.cur().Start
	p.advance() // '('
	if p.isOp(")") {
		p.advance()
		return &TupleLit{Pos: pos}, nil
	}
	first, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if p.isKw("for") {
		clauses, err := p.parseCompClauses()
		if err != nil {
			return nil, err
		}
		if err := p.expectOp(")"); err != nil {
			return nil, err
		}
		return &Comprehension{Kind: CompGen, Elt: first, Clauses: clauses, Pos: pos}, nil
	}
	if p.isOp(",") {
		elts := []Node{first}
		for p.isOp(",") {
			p.advance()
			if p.isOp(")") {
				break
			}
			n, err := p.parseTernary()
			if err != nil {
				return nil, err
			}
			elts = append(elts, n)
		}
		if err := p.expectOp(")"); err != nil {
			return nil, err
		}
		return &TupleLit{Elts: elts, Pos: pos}, nil
	}
	if err := p.expectOp(")"); err != nil {
		return nil, err
	}
	return first, nil
}

func (p *Parser) parseListOrComp() (Node, error) {
	pos := p.cur().Start
	p.advance() // '['
	if p.isOp("]") {
		p.advance()
		return &ListLit{Pos: pos}, nil
	}
	first, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if p.isKw("for") {
		clauses, err := p.parseCompClauses()
		if err != nil {
			return nil, err
		}
		if err := p.expectOp("]"); err != nil {
			return nil, err
		}
		return &Comprehension{Kind: CompList, Elt: first, Clauses: clauses, Pos: pos}, nil
	}
	elts := []Node{first}
	for p.isOp(",") {
		p.advance()
		if p.isOp("]") {
			break
		}
		n, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		elts = append(elts, n)
	}
	if err := p.expectOp("]"); err != nil {
		return nil, err
	}
	return &ListLit{Elts: elts, Pos: pos}, nil
}

func (p *Parser) parseDictOrSet() (Node, error) {
	pos := p.cur().Start
	p.advance() // '{'
	if p.isOp("}") {
		p.advance()
		return &DictLit{Pos: pos}, nil
	}
	firstKey, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if p.isOp(":") {
		p.advance()
		firstVal, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		if p.isKw("for") {
			clauses, err := p.parseCompClauses()
			if err != nil {
				return nil, err
			}
			if err := p.expectOp("}"); err != nil {
				return nil, err
			}
			return &Comprehension{Kind: CompDict, Key: firstKey, Value: firstVal, Clauses: clauses, Pos: pos}, nil
		}
		entries := []DictEntry{{Key: firstKey, Value: firstVal}}
		for p.isOp(",") {
			p.advance()
			if p.isOp("}") {
				break
			}
			k, err := p.parseTernary()
			if err != nil {
				return nil, err
			}
			if err := p.expectOp(":"); err != nil {
				return nil, err
			}
			v, err := p.parseTernary()
			if err != nil {
				return nil, err
			}
			entries = append(entries, DictEntry{Key: k, Value: v})
		}
		if err := p.expectOp("}"); err != nil {
			return nil, err
		}
		return &DictLit{Entries: entries, Pos: pos}, nil
	}
	// Set literal or set comprehension.
	if p.isKw("for") {
		clauses, err := p.parseCompClauses()
		if err != nil {
			return nil, err
		}
		if err := p.expectOp("}"); err != nil {
			return nil, err
		}
		return &Comprehension{Kind: CompSet, Elt: firstKey, Clauses: clauses, Pos: pos}, nil
	}
	elts := []Node{firstKey}
	for p.isOp(",") {
		p.advance()
		if p.isOp("}") {
			break
		}
		n, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		elts = append(elts, n)
	}
	if err := p.expectOp("}"); err != nil {
		return nil, err
	}
	return &SetLit{Elts: elts, Pos: pos}, nil
}

func (p *Parser) parseCompClauses() ([]CompClause, error) {
	var clauses []CompClause
	for p.isKw("for") {
		p.advance()
		var targets []string
		for {
			if p.cur().Kind != TokName {
				return nil, fmt.Errorf("expected identifier in comprehension target at offset %d", int(p.cur().Start))
			}
			targets = append(targets, p.advance().Text)
			if p.isOp(",") {
				p.advance()
				continue
			}
			break
		}
		if !p.isKw("in") {
			return nil, fmt.Errorf("expected 'in' at offset %d", int(p.cur().Start))
		}
		p.advance()
		iter, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		clause := CompClause{Targets: targets, Iter: iter}
		for p.isKw("if") {
			p.advance()
			cond, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			clause.Ifs = append(clause.Ifs, cond)
		}
		clauses = append(clauses, clause)
	}
	return clauses, nil
}
