package parser

import (
	"github.com/basislang/sml/internal/ast"
	"github.com/basislang/sml/internal/diag"
	"github.com/basislang/sml/internal/runtime"
	"github.com/basislang/sml/pkg/token"
)

// parseExpr parses a full expression, the lowest-precedence form being a
// type ascription `exp : ty`, generalized from the teacher's Pratt-parser
// entry point into the layered-precedence descent spec.md §4.2 describes
// (orelse < andalso < handle < if/case/fn/raise/while or an infix
// expression resolved against the live fixity table).
func (p *Parser) parseExpr() (ast.Expr, *diag.Error) {
	e, err := p.parseOrElseExpr()
	if err != nil {
		return nil, err
	}
	if p.isSym(":") {
		p.advance()
		ty, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		return &ast.TypedExpr{Sub: e, Type: ty, P: e.Pos()}, nil
	}
	return e, nil
}

func (p *Parser) parseOrElseExpr() (ast.Expr, *diag.Error) {
	lhs, err := p.parseAndAlsoExpr()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("orelse") {
		pos := p.cur().Pos
		p.advance()
		rhs, err := p.parseAndAlsoExpr()
		if err != nil {
			return nil, err
		}
		lhs = &ast.OrElseExpr{L: lhs, R: rhs, P: pos}
	}
	return lhs, nil
}

func (p *Parser) parseAndAlsoExpr() (ast.Expr, *diag.Error) {
	lhs, err := p.parseHandleExpr()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("andalso") {
		pos := p.cur().Pos
		p.advance()
		rhs, err := p.parseHandleExpr()
		if err != nil {
			return nil, err
		}
		lhs = &ast.AndAlsoExpr{L: lhs, R: rhs, P: pos}
	}
	return lhs, nil
}

func (p *Parser) parseHandleExpr() (ast.Expr, *diag.Error) {
	lhs, err := p.parseKeywordOrInfixExpr()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("handle") {
		pos := p.cur().Pos
		p.advance()
		m, err := p.parseMatch()
		if err != nil {
			return nil, err
		}
		lhs = &ast.HandleExpr{Body: lhs, M: m, P: pos}
	}
	return lhs, nil
}

// parseKeywordOrInfixExpr dispatches to one of the keyword-introduced
// expression forms, or otherwise parses a fixity-resolved infix
// expression over application chains.
func (p *Parser) parseKeywordOrInfixExpr() (ast.Expr, *diag.Error) {
	pos := p.cur().Pos
	switch {
	case p.isKeyword("if"):
		p.advance()
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("then"); err != nil {
			return nil, err
		}
		thenE, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("else"); err != nil {
			return nil, err
		}
		elseE, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ast.IfExpr{Cond: cond, Then: thenE, Else: elseE, P: pos}, nil

	case p.isKeyword("case"):
		p.advance()
		scrut, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("of"); err != nil {
			return nil, err
		}
		m, err := p.parseMatch()
		if err != nil {
			return nil, err
		}
		return &ast.CaseExpr{Scrutinee: scrut, M: m, P: pos}, nil

	case p.isKeyword("fn"):
		p.advance()
		m, err := p.parseMatch()
		if err != nil {
			return nil, err
		}
		return &ast.FnExpr{M: m, P: pos}, nil

	case p.isKeyword("raise"):
		p.advance()
		e, err := p.parseKeywordOrInfixExpr()
		if err != nil {
			return nil, err
		}
		return &ast.RaiseExpr{Exn: e, P: pos}, nil

	case p.isKeyword("while"):
		p.advance()
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("do"); err != nil {
			return nil, err
		}
		body, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ast.WhileExpr{Cond: cond, Body: body, P: pos}, nil

	default:
		return p.parseInfixExpr()
	}
}

// parseMatch parses `pat1 => exp1 | pat2 => exp2 | ...`.
func (p *Parser) parseMatch() (*ast.Match, *diag.Error) {
	pos := p.cur().Pos
	var clauses []ast.Clause
	for {
		pat, err := p.parsePattern()
		if err != nil {
			return nil, err
		}
		if err := p.expectSym("=>"); err != nil {
			return nil, err
		}
		body, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, ast.Clause{Pat: pat, Body: body})
		if p.isSym("|") {
			p.advance()
			continue
		}
		break
	}
	return &ast.Match{Clauses: clauses, P: pos}, nil
}

// parseInfixExpr folds a chain of application-expressions connected by
// user-definable infix operators, resolving precedence/associativity
// dynamically against the live fixity table (spec.md §4.2) rather than a
// static table, via a precedence-climbing shift/reduce fold over an
// explicit stack.
func (p *Parser) parseInfixExpr() (ast.Expr, *diag.Error) {
	first, err := p.parseAppExpr()
	if err != nil {
		return nil, err
	}
	var operands []ast.Expr
	var ops []string
	var opPos []token.Position
	operands = append(operands, first)
	for {
		name, pos, ok := p.tryConsumeInfixOperator()
		if !ok {
			break
		}
		rhs, err := p.parseAppExpr()
		if err != nil {
			return nil, err
		}
		ops = append(ops, name)
		opPos = append(opPos, pos)
		operands = append(operands, rhs)
	}
	return p.foldExprInfix(operands, ops, opPos)
}

// foldExprInfix runs the same precedence-climbing fold as
// foldPatternInfix, applying a synthetic variable reference for each
// operator name to the pair (lhs, rhs) of its operands.
func (p *Parser) foldExprInfix(operands []ast.Expr, ops []string, opPos []token.Position) (ast.Expr, *diag.Error) {
	if len(ops) == 0 {
		return operands[0], nil
	}
	type frame struct {
		val  ast.Expr
		name string
		pos  token.Position
		fe   runtime.FixityEntry
	}
	var stack []frame
	stack = append(stack, frame{val: operands[0]})

	apply := func(l ast.Expr, name string, pos token.Position, r ast.Expr) ast.Expr {
		pair := &ast.TupleExpr{Elems: []ast.Expr{l, r}, P: pos}
		return &ast.AppExpr{Fun: &ast.Var{Name: name, P: pos}, Arg: pair, P: pos}
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
				return nil, p.errf(opPos[i], "operators %q and %q have the same precedence but colliding associativity", top.name, name)
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

// parseAppExpr parses a left-associative juxtaposition chain of atomic
// expressions (ordinary function application binds tighter than any
// infix operator).
func (p *Parser) parseAppExpr() (ast.Expr, *diag.Error) {
	fn, err := p.parseAtomicExpr()
	if err != nil {
		return nil, err
	}
	for p.startsAtomicExprArg() {
		arg, err := p.parseAtomicExpr()
		if err != nil {
			return nil, err
		}
		fn = &ast.AppExpr{Fun: fn, Arg: arg, P: fn.Pos()}
	}
	return fn, nil
}

func (p *Parser) startsAtomicExprArg() bool {
	t := p.cur()
	switch t.Kind {
	case token.IntegerConstant, token.Numeric, token.WordConstant, token.RealConstant,
		token.CharacterConstant, token.StringConstant, token.LongIdentifier:
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

func (p *Parser) parseAtomicExpr() (ast.Expr, *diag.Error) {
	t := p.cur()
	pos := t.Pos

	if p.isKeyword("op") {
		p.advance()
		nt := p.advance()
		return &ast.Var{Name: identText(nt), OpPrefixed: true, P: pos}, nil
	}

	switch t.Kind {
	case token.IntegerConstant, token.Numeric:
		p.advance()
		return &ast.IntLit{Value: t.IntVal, P: pos}, nil
	case token.WordConstant:
		p.advance()
		return &ast.WordLit{Value: t.IntVal, P: pos}, nil
	case token.RealConstant:
		p.advance()
		return &ast.RealLit{Value: t.RealVal, P: pos}, nil
	case token.CharacterConstant:
		p.advance()
		return &ast.CharLit{Value: t.CharVal, P: pos}, nil
	case token.StringConstant:
		p.advance()
		return &ast.StringLit{Value: t.StrVal, P: pos}, nil
	case token.AlphanumericIdentifier:
		p.advance()
		return &ast.Var{Name: t.Text, P: pos}, nil
	case token.LongIdentifier:
		p.advance()
		return &ast.Var{Qualifiers: t.Qualifiers, Name: t.Final, P: pos}, nil
	case token.SymbolicIdentifier:
		switch t.Text {
		case "(":
			return p.parseParenExpr()
		case "{":
			return p.parseRecordExpr()
		case "[":
			return p.parseListExpr()
		}
	}

	if p.isKeyword("let") {
		return p.parseLetExpr()
	}

	return nil, p.errf(pos, "expected an expression, got %s", t)
}

// tryConsumeInfixOperator consumes the current token if it names an
// identifier currently declared infix.
func (p *Parser) tryConsumeInfixOperator() (string, token.Position, bool) {
	t := p.cur()
	if !p.isIdentKind(t.Kind) {
		return "", t.Pos, false
	}
	name := identText(t)
	if !p.isInfixHere(name) {
		return "", t.Pos, false
	}
	p.advance()
	return name, t.Pos, true
}

func (p *Parser) parseParenExpr() (ast.Expr, *diag.Error) {
	pos := p.cur().Pos
	p.advance() // '('
	if p.isSym(")") {
		p.advance()
		return &ast.TupleExpr{P: pos}, nil
	}
	first, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	switch {
	case p.isSym(","):
		elems := []ast.Expr{first}
		for p.isSym(",") {
			p.advance()
			next, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			elems = append(elems, next)
		}
		if err := p.expectSym(")"); err != nil {
			return nil, err
		}
		return &ast.TupleExpr{Elems: elems, P: pos}, nil
	case p.isSym(";"):
		exprs := []ast.Expr{first}
		for p.isSym(";") {
			p.advance()
			next, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			exprs = append(exprs, next)
		}
		if err := p.expectSym(")"); err != nil {
			return nil, err
		}
		return &ast.SeqExpr{Exprs: exprs, P: pos}, nil
	default:
		if err := p.expectSym(")"); err != nil {
			return nil, err
		}
		return first, nil
	}
}

func (p *Parser) parseListExpr() (ast.Expr, *diag.Error) {
	pos := p.cur().Pos
	p.advance() // '['
	var elems []ast.Expr
	for !p.isSym("]") {
		e, err := p.parseExpr()
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
	return &ast.ListExpr{Elems: elems, P: pos}, nil
}

func (p *Parser) parseRecordExpr() (ast.Expr, *diag.Error) {
	pos := p.cur().Pos
	p.advance() // '{'
	var fields []ast.RecordField
	for !p.isSym("}") {
		label, err := p.parseFieldLabel()
		if err != nil {
			return nil, err
		}
		if err := p.expectSym("="); err != nil {
			return nil, err
		}
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		fields = append(fields, ast.RecordField{Label: label, Value: val})
		if p.isSym(",") {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectSym("}"); err != nil {
		return nil, err
	}
	return &ast.RecordExpr{Fields: fields, P: pos}, nil
}

func (p *Parser) parseLetExpr() (ast.Expr, *diag.Error) {
	pos := p.cur().Pos
	p.advance() // 'let'
	p.pushFixityScope()
	defer p.popFixityScope()
	decs, err := p.parseDecSeq(func() bool { return p.isKeyword("in") })
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("in"); err != nil {
		return nil, err
	}
	first, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	exprs := []ast.Expr{first}
	for p.isSym(";") {
		p.advance()
		next, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, next)
	}
	body := first
	if len(exprs) > 1 {
		body = &ast.SeqExpr{Exprs: exprs, P: first.Pos()}
	}
	if err := p.expectKeyword("end"); err != nil {
		return nil, err
	}
	return &ast.LetExpr{Decs: decs, Body: body, P: pos}, nil
}
