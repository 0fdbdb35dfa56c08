package parser

import (
	"github.com/basislang/sml/internal/ast"
	"github.com/basislang/sml/internal/diag"
	"github.com/basislang/sml/pkg/token"
)

// parseTypeExpr parses a full type annotation: the lowest-precedence form
// is the right-associative function arrow, above which tuples (`*`) bind
// tighter, above which postfix type-constructor application binds
// tightest (spec.md §4.2's grammar, generalized from the teacher's
// types.go structure to this language's distinct type syntax).
func (p *Parser) parseTypeExpr() (ast.TypeExpr, *diag.Error) {
	return p.parseArrowType()
}

func (p *Parser) parseArrowType() (ast.TypeExpr, *diag.Error) {
	pos := p.cur().Pos
	lhs, err := p.parseTupleType()
	if err != nil {
		return nil, err
	}
	if p.isSym("->") {
		p.advance()
		rhs, err := p.parseArrowType()
		if err != nil {
			return nil, err
		}
		return &ast.FunctionTypeExpr{Domain: lhs, Codomain: rhs, P: pos}, nil
	}
	return lhs, nil
}

func (p *Parser) parseTupleType() (ast.TypeExpr, *diag.Error) {
	pos := p.cur().Pos
	first, err := p.parseAppType()
	if err != nil {
		return nil, err
	}
	if p.cur().Kind != token.Star {
		return first, nil
	}
	elems := []ast.TypeExpr{first}
	for p.cur().Kind == token.Star {
		p.advance()
		next, err := p.parseAppType()
		if err != nil {
			return nil, err
		}
		elems = append(elems, next)
	}
	return &ast.TupleTypeExpr{Elems: elems, P: pos}, nil
}

// parseAppType parses an atomic type followed by zero or more postfix
// type-constructor applications (`int list`, `int list list`).
func (p *Parser) parseAppType() (ast.TypeExpr, *diag.Error) {
	t, err := p.parseAtomicType()
	if err != nil {
		return nil, err
	}
	for {
		name, quals, ok := p.tryConsumeTyconName()
		if !ok {
			return t, nil
		}
		t = &ast.ConTypeExpr{Qualifiers: quals, Name: name, Args: []ast.TypeExpr{t}, P: t.Pos()}
	}
}

// tryConsumeTyconName consumes a type-constructor name token if the
// current token is a plain or long alphanumeric identifier.
func (p *Parser) tryConsumeTyconName() (string, []string, bool) {
	t := p.cur()
	switch t.Kind {
	case token.AlphanumericIdentifier:
		p.advance()
		return t.Text, nil, true
	case token.LongIdentifier:
		p.advance()
		return t.Final, t.Qualifiers, true
	}
	return "", nil, false
}

func (p *Parser) parseAtomicType() (ast.TypeExpr, *diag.Error) {
	t := p.cur()
	pos := t.Pos
	switch t.Kind {
	case token.TypeVariable:
		p.advance()
		return &ast.TypeVarExpr{Name: t.Text, Equality: false, P: pos}, nil
	case token.EqualityTypeVariable:
		p.advance()
		return &ast.TypeVarExpr{Name: t.Text, Equality: true, P: pos}, nil
	case token.AlphanumericIdentifier:
		p.advance()
		return &ast.ConTypeExpr{Name: t.Text, P: pos}, nil
	case token.LongIdentifier:
		p.advance()
		return &ast.ConTypeExpr{Qualifiers: t.Qualifiers, Name: t.Final, P: pos}, nil
	case token.SymbolicIdentifier:
		if t.Text == "{" {
			return p.parseRecordType()
		}
	}
	if p.isSym("(") {
		return p.parseParenType()
	}
	return nil, p.errf(pos, "expected a type, got %s", t)
}

func (p *Parser) parseParenType() (ast.TypeExpr, *diag.Error) {
	pos := p.cur().Pos
	p.advance() // '('
	first, err := p.parseTypeExpr()
	if err != nil {
		return nil, err
	}
	if !p.isSym(",") {
		if err := p.expectSym(")"); err != nil {
			return nil, err
		}
		return first, nil
	}
	elems := []ast.TypeExpr{first}
	for p.isSym(",") {
		p.advance()
		next, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		elems = append(elems, next)
	}
	if err := p.expectSym(")"); err != nil {
		return nil, err
	}
	name, quals, ok := p.tryConsumeTyconName()
	if !ok {
		return nil, p.errf(p.cur().Pos, "expected a type constructor name after (%d types)", len(elems))
	}
	return &ast.ConTypeExpr{Qualifiers: quals, Name: name, Args: elems, P: pos}, nil
}

func (p *Parser) parseRecordType() (ast.TypeExpr, *diag.Error) {
	pos := p.cur().Pos
	p.advance() // '{'
	var fields []ast.RecordTypeField
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
		if err := p.expectSym(":"); err != nil {
			return nil, err
		}
		ty, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		fields = append(fields, ast.RecordTypeField{Label: label, Type: ty})
		if p.isSym(",") {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectSym("}"); err != nil {
		return nil, err
	}
	return &ast.RecordTypeExpr{Fields: fields, Complete: complete, P: pos}, nil
}

// parseFieldLabel accepts an alphanumeric identifier, a positive
// numeric literal with no leading zero, or a symbolic identifier
// (including `*`) as a record label (spec.md §4.2's "Atomic-pattern
// labels"). `=` is not accepted.
func (p *Parser) parseFieldLabel() (string, *diag.Error) {
	t := p.cur()
	switch t.Kind {
	case token.AlphanumericIdentifier:
		p.advance()
		return t.Text, nil
	case token.Numeric:
		p.advance()
		return t.Text, nil
	case token.SymbolicIdentifier, token.Star:
		p.advance()
		return identText(t), nil
	}
	return "", p.errf(t.Pos, "invalid record label %s", t)
}
