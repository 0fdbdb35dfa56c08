package parser

import (
	"github.com/basislang/sml/internal/ast"
	"github.com/basislang/sml/internal/diag"
	"github.com/basislang/sml/internal/runtime"
	"github.com/basislang/sml/pkg/token"
)

// parsePattern parses a full pattern: an infix-resolved constructor chain
// optionally followed by a type annotation and/or an `as`-layer (spec.md
// §4.2's pattern grammar).
func (p *Parser) parsePattern() (ast.Pat, *diag.Error) {
	base, err := p.parseInfixPattern()
	if err != nil {
		return nil, err
	}
	for p.isSym(":") {
		p.advance()
		ty, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		base = &ast.TypedPat{Sub: base, Type: ty, P: base.Pos()}
	}
	if p.isKeyword("as") {
		p.advance()
		name, pos, err := p.layerName(base)
		if err != nil {
			return nil, err
		}
		sub, err := p.parsePattern()
		if err != nil {
			return nil, err
		}
		return &ast.LayeredPat{Name: name, Sub: sub, P: pos}, nil
	}
	return base, nil
}

// layerName extracts the bound identifier from the left side of an
// `as`-pattern, which the grammar restricts to a (possibly typed) plain
// variable.
func (p *Parser) layerName(pat ast.Pat) (string, token.Position, *diag.Error) {
	switch n := pat.(type) {
	case *ast.VarPat:
		return n.Name, n.P, nil
	case *ast.TypedPat:
		return p.layerName(n.Sub)
	default:
		return "", pat.Pos(), p.errf(pat.Pos(), "left side of `as` must be a variable")
	}
}

// parseInfixPattern resolves user-defined infix constructors (like `::`)
// within a chain of applied-constructor patterns, using the same
// precedence-climbing fold as parseInfixExpr but building ast.Pat nodes.
func (p *Parser) parseInfixPattern() (ast.Pat, *diag.Error) {
	first, err := p.parseAppPattern()
	if err != nil {
		return nil, err
	}
	var operands []ast.Pat
	var ops []string
	var opPos []token.Position
	operands = append(operands, first)
	for !p.isSym("=") {
		name, pos, ok := p.tryConsumeInfixOperator()
		if !ok {
			break
		}
		rhs, err := p.parseAppPattern()
		if err != nil {
			return nil, err
		}
		ops = append(ops, name)
		opPos = append(opPos, pos)
		operands = append(operands, rhs)
	}
	return p.foldPatternInfix(operands, ops, opPos)
}

// foldPatternInfix applies the same precedence/associativity fold used
// for expressions (see expressions.go's foldExprInfix) but constructs
// ConPat{Name:op, Arg: tuple(l,r)} nodes.
func (p *Parser) foldPatternInfix(operands []ast.Pat, ops []string, opPos []token.Position) (ast.Pat, *diag.Error) {
	if len(ops) == 0 {
		return operands[0], nil
	}
	type frame struct {
		val  ast.Pat
		name string
		pos  token.Position
		fe   runtime.FixityEntry
	}
	var stack []frame
	stack = append(stack, frame{val: operands[0]})

	apply := func(l ast.Pat, name string, pos token.Position, r ast.Pat) ast.Pat {
		return &ast.ConPat{Name: name, Arg: &ast.TuplePat{Elems: []ast.Pat{l, r}, P: pos}, P: pos}
	}

	for i, name := range ops {
		fe, _ := p.lookupFixity(name)
		for len(stack) >= 2 {
			top := stack[len(stack)-1]
			if top.fe.Precedence > fe.Precedence ||
				(top.fe.Precedence == fe.Precedence && !top.fe.RightAssoc && !fe.RightAssoc) {
				stack = stack[:len(stack)-1]
				below := stack[len(stack)-1]
				below.val = apply(below.val, top.name, top.pos, top.val)
				stack[len(stack)-1] = below
				continue
			}
			if top.fe.Precedence == fe.Precedence && top.fe.RightAssoc != fe.RightAssoc {
				return nil, p.errf(pos2(opPos, i), "operators %q and %q have the same precedence but colliding associativity", top.name, name)
			}
			break
		}
		stack = append(stack, frame{val: operands[i+1], name: name, pos: opPos[i], fe: fe})
	}
	for len(stack) >= 2 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		below := stack[len(stack)-1]
		below.val = apply(below.val, top.name, top.pos, top.val)
		stack[len(stack)-1] = below
	}
	return stack[0].val, nil
}

func pos2(opPos []token.Position, i int) token.Position { return opPos[i] }

// parseAppPattern parses one atomic pattern, and if it names a nullary
// constructor immediately followed by another atomic pattern, applies it
// (spec.md's "applied constructor" form `SOME x`). A constructor takes
// at most one argument, so no further chaining is attempted.
func (p *Parser) parseAppPattern() (ast.Pat, *diag.Error) {
	base, err := p.parseAtomicPattern()
	if err != nil {
		return nil, err
	}
	con, ok := base.(*ast.ConPat)
	if !ok || con.Arg != nil {
		return base, nil
	}
	if !p.startsAtomicPattern() {
		return base, nil
	}
	arg, err := p.parseAtomicPattern()
	if err != nil {
		return nil, err
	}
	con.Arg = arg
	return con, nil
}

func (p *Parser) startsAtomicPattern() bool {
	t := p.cur()
	switch t.Kind {
	case token.IntegerConstant, token.Numeric, token.WordConstant, token.RealConstant,
		token.CharacterConstant, token.StringConstant:
		return true
	case token.LongIdentifier:
		return true
	case token.AlphanumericIdentifier:
		return !p.isInfixHere(t.Text)
	case token.SymbolicIdentifier:
		return t.Text == "(" || t.Text == "{" || t.Text == "["
	}
	if p.isKeyword("op") {
		return true
	}
	return false
}

func (p *Parser) parseAtomicPattern() (ast.Pat, *diag.Error) {
	t := p.cur()
	pos := t.Pos

	if p.isKeyword("op") {
		p.advance()
		nt := p.advance()
		name := identText(nt)
		return p.identifierPattern(name, nil, pos)
	}

	switch t.Kind {
	case token.IntegerConstant:
		p.advance()
		return &ast.ConstPat{Kind: ast.ConstInt, I: t.IntVal, P: pos}, nil
	case token.Numeric:
		p.advance()
		return &ast.ConstPat{Kind: ast.ConstInt, I: t.IntVal, P: pos}, nil
	case token.WordConstant:
		p.advance()
		return &ast.ConstPat{Kind: ast.ConstWord, I: t.IntVal, P: pos}, nil
	case token.RealConstant:
		p.advance()
		return &ast.ConstPat{Kind: ast.ConstReal, R: t.RealVal, P: pos}, nil
	case token.CharacterConstant:
		p.advance()
		return &ast.ConstPat{Kind: ast.ConstChar, C: t.CharVal, P: pos}, nil
	case token.StringConstant:
		p.advance()
		return &ast.ConstPat{Kind: ast.ConstString, S: t.StrVal, P: pos}, nil
	case token.AlphanumericIdentifier:
		p.advance()
		if t.Text == "_" {
			return &ast.WildcardPat{P: pos}, nil
		}
		return p.identifierPattern(t.Text, nil, pos)
	case token.LongIdentifier:
		p.advance()
		return p.identifierPattern(t.Final, t.Qualifiers, pos)
	case token.SymbolicIdentifier:
		switch t.Text {
		case "(":
			return p.parseParenPattern()
		case "{":
			return p.parseRecordPattern()
		case "[":
			return p.parseListPattern()
		}
	}
	return nil, p.errf(pos, "expected a pattern, got %s", t)
}

// identifierPattern classifies a bare identifier as a nullary constructor
// pattern (if it is bound to a constructor value in the current state)
// or a variable-binding pattern otherwise, exactly as real Standard ML
// resolves pattern identifiers against the value environment.
func (p *Parser) identifierPattern(name string, quals []string, pos token.Position) (ast.Pat, *diag.Error) {
	if len(quals) == 0 && p.isConstructorName(name) {
		return &ast.ConPat{Name: name, P: pos}, nil
	}
	if len(quals) > 0 {
		return &ast.ConPat{Qualifiers: quals, Name: name, P: pos}, nil
	}
	return &ast.VarPat{Name: name, P: pos}, nil
}

func (p *Parser) isConstructorName(name string) bool {
	v, ok := p.state.LookupValue(name)
	if !ok {
		return false
	}
	switch v.(type) {
	case *runtime.ValueConstructor, *runtime.ConstructedValue,
		*runtime.ExceptionConstructor, *runtime.ExceptionValue:
		return true
	default:
		return false
	}
}

func (p *Parser) parseParenPattern() (ast.Pat, *diag.Error) {
	pos := p.cur().Pos
	p.advance() // '('
	if p.isSym(")") {
		p.advance()
		return &ast.TuplePat{P: pos}, nil
	}
	first, err := p.parsePattern()
	if err != nil {
		return nil, err
	}
	if !p.isSym(",") {
		if err := p.expectSym(")"); err != nil {
			return nil, err
		}
		return first, nil
	}
	elems := []ast.Pat{first}
	for p.isSym(",") {
		p.advance()
		next, err := p.parsePattern()
		if err != nil {
			return nil, err
		}
		elems = append(elems, next)
	}
	if err := p.expectSym(")"); err != nil {
		return nil, err
	}
	return &ast.TuplePat{Elems: elems, P: pos}, nil
}

func (p *Parser) parseListPattern() (ast.Pat, *diag.Error) {
	pos := p.cur().Pos
	p.advance() // '['
	var elems []ast.Pat
	for !p.isSym("]") {
		e, err := p.parsePattern()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
		if p.isSym(",") {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectSym("]"); err != nil {
		return nil, err
	}
	return &ast.ListPat{Elems: elems, P: pos}, nil
}

func (p *Parser) parseRecordPattern() (ast.Pat, *diag.Error) {
	pos := p.cur().Pos
	p.advance() // '{'
	var fields []ast.RecordPatField
	complete := true
	for !p.isSym("}") {
		if p.isSym("...") {
			p.advance()
			complete = false
			break
		}
		label, err := p.parseFieldLabel()
		if err != nil {
			return nil, err
		}
		var fieldPat ast.Pat
		if p.isSym("=") {
			p.advance()
			fieldPat, err = p.parsePattern()
			if err != nil {
				return nil, err
			}
		} else {
			fieldPat = &ast.VarPat{Name: label, P: p.cur().Pos}
		}
		fields = append(fields, ast.RecordPatField{Label: label, Pat: fieldPat})
		if p.isSym(",") {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectSym("}"); err != nil {
		return nil, err
	}
	return &ast.RecordPat{Fields: fields, Complete: complete, P: pos}, nil
}
