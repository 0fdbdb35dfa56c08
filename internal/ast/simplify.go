package ast

import (
	"fmt"

	"github.com/basislang/sml/internal/core"
	"github.com/basislang/sml/internal/diag"
)

// Simplify lowers a surface declaration to the core calculus (spec.md
// §4.3). It is pure: given the same input it always produces an
// equal-up-to-synthetic-position output, and it never consults any
// State. synth mints positions for nodes with no surface-source
// counterpart (while-loops, if-as-case, etc.), all reported as
// token.Synthetic per spec.md §3.
func Simplify(d Dec) (core.Dec, *diag.Error) {
	return simplifyDec(d)
}

func simplifyDec(d Dec) (core.Dec, *diag.Error) {
	switch n := d.(type) {
	case *ValDec:
		binds := make([]core.ValBind, 0, len(n.Bindings))
		for _, b := range n.Bindings {
			e, err := simplifyExpr(b.Rhs)
			if err != nil {
				return nil, err
			}
			binds = append(binds, core.ValBind{Pat: simplifyPat(b.Pat), Rhs: e})
		}
		if !n.Rec {
			return &core.ValDec{Bindings: binds, P: n.P}, nil
		}
		recBinds := make([]core.RecBind, 0, len(binds))
		for _, b := range binds {
			vp, ok := b.Pat.(*VarPat)
			if !ok {
				return nil, diag.New(diag.ParserError, n.P, "val rec requires a variable pattern")
			}
			fn, ok := b.Rhs.(*core.Fn)
			if !ok {
				return nil, diag.New(diag.ParserError, n.P, "val rec requires a fn expression")
			}
			recBinds = append(recBinds, core.RecBind{Name: vp.Name, Fn: fn})
		}
		return &core.ValRecDec{Bindings: recBinds, P: n.P}, nil

	case *FunDec:
		return simplifyFunDec(n)

	case *TypeDec:
		return &core.TypeDec{Bindings: n.Bindings, P: n.P}, nil

	case *DatatypeDec:
		if n.HasWithType {
			return nil, diag.New(diag.FeatureDisabledError, n.P, "withtype is not supported")
		}
		return &core.DatatypeDec{Bindings: n.Bindings, P: n.P}, nil

	case *AbstypeDec:
		dtDec, err := simplifyDec(n.Datatype)
		if err != nil {
			return nil, err
		}
		body, err := simplifyDecs(n.Body)
		if err != nil {
			return nil, err
		}
		return &core.AbstypeDec{Datatype: dtDec.(*core.DatatypeDec), Body: body, P: n.P}, nil

	case *ExceptionDec:
		return &core.ExceptionDec{Bindings: n.Bindings, P: n.P}, nil

	case *OpenDec:
		return &core.OpenDec{Names: n.Names, P: n.P}, nil

	case *LocalDec:
		d1, err := simplifyDecs(n.Decs1)
		if err != nil {
			return nil, err
		}
		d2, err := simplifyDecs(n.Decs2)
		if err != nil {
			return nil, err
		}
		return &core.LocalDec{Decs1: d1, Decs2: d2, P: n.P}, nil

	case *InfixDec, *NonfixDec:
		// Fixity declarations are consumed entirely by the parser while
		// it builds the surface tree (spec.md §4.2); they carry no
		// runtime or static meaning past that point, so they lower to
		// an empty sequence.
		return &core.SeqDec{P: d.Pos()}, nil

	case *SeqDec:
		decs, err := simplifyDecs(n.Decs)
		if err != nil {
			return nil, err
		}
		return &core.SeqDec{Decs: decs, P: n.P}, nil

	default:
		return nil, diag.New(diag.InternalInterpreterError, d.Pos(), "simplify: unhandled declaration %T", d)
	}
}

func simplifyDecs(ds []Dec) ([]core.Dec, *diag.Error) {
	out := make([]core.Dec, 0, len(ds))
	for _, d := range ds {
		cd, err := simplifyDec(d)
		if err != nil {
			return nil, err
		}
		out = append(out, cd)
	}
	return out, nil
}

// simplifyFunDec lowers an `and`-joined `fun` group to a single
// multi-binding `val rec` (spec.md §4.3), one core.RecBind per member,
// so that `fun f ... and g ...` puts both names in scope of each
// other's body -- the usual idiom for mutual recursion -- the same way
// `val rec f = ... and g = ...` already does.
func simplifyFunDec(n *FunDec) (core.Dec, *diag.Error) {
	if len(n.Binds) == 0 {
		return nil, diag.New(diag.ParserError, n.P, "fun declaration has no bindings")
	}
	recBinds := make([]core.RecBind, 0, len(n.Binds))
	for _, b := range n.Binds {
		fn, err := simplifyFunBind(b, n.P)
		if err != nil {
			return nil, err
		}
		recBinds = append(recBinds, core.RecBind{Name: b.Name, Fn: fn})
	}
	return &core.ValRecDec{Bindings: recBinds, P: n.P}, nil
}

// simplifyFunBind lowers one `fun f p1 ... pn = e | ...` member of a
// group to `fn a1 => ... => fn an => case (a1,...,an) of <clauses>`. A
// single-parameter clause set skips the tuple wrapper, matching
// directly on the one argument.
func simplifyFunBind(b FunBind, pos Pos) (*core.Fn, *diag.Error) {
	if len(b.Clauses) == 0 {
		return nil, diag.New(diag.ParserError, pos, "fun %s has no clauses", b.Name)
	}
	arity := len(b.Clauses[0].Params)
	for _, c := range b.Clauses {
		if len(c.Params) != arity {
			return nil, diag.New(diag.ParserError, pos, "mismatched arities across fun %s clauses", b.Name)
		}
	}

	argNames := make([]string, arity)
	for i := range argNames {
		argNames[i] = fmt.Sprintf("__arg%d", i+1)
	}

	var scrutinee core.Expr
	if arity == 1 {
		scrutinee = &core.Var{Name: argNames[0], P: core.Pos(-1)}
	} else {
		fields := make([]core.RecordField, arity)
		for i, nm := range argNames {
			fields[i] = core.RecordField{Label: fmt.Sprintf("%d", i+1), Value: &core.Var{Name: nm, P: core.Pos(-1)}}
		}
		scrutinee = &core.Record{Fields: fields, P: core.Pos(-1)}
	}

	clauses := make([]core.Clause, 0, len(b.Clauses))
	for _, c := range b.Clauses {
		body, err := simplifyExpr(c.Body)
		if err != nil {
			return nil, err
		}
		var pat Pat
		if arity == 1 {
			pat = simplifyPat(c.Params[0])
		} else {
			elems := make([]Pat, arity)
			for i, p := range c.Params {
				elems[i] = simplifyPat(p)
			}
			pat = tuplePatFromFields(elems)
		}
		clauses = append(clauses, core.Clause{Pat: pat, Body: body})
	}

	caseExpr := &core.Case{Scrutinee: scrutinee, M: &core.Match{Clauses: clauses, P: core.Pos(-1)}, P: core.Pos(-1)}

	var body core.Expr = caseExpr
	for i := arity - 1; i >= 0; i-- {
		body = &core.Fn{
			M: &core.Match{
				Clauses: []core.Clause{{Pat: &VarPat{Name: argNames[i], P: core.Pos(-1)}, Body: body}},
				P:       core.Pos(-1),
			},
			P: core.Pos(-1),
		}
	}
	fn, ok := body.(*core.Fn)
	if !ok {
		return nil, diag.New(diag.InternalInterpreterError, pos, "fun lowering produced non-fn body")
	}
	return fn, nil
}

func tuplePatFromFields(elems []Pat) Pat {
	fields := make([]RecordPatField, len(elems))
	for i, p := range elems {
		fields[i] = RecordPatField{Label: fmt.Sprintf("%d", i+1), Pat: p}
	}
	return &RecordPat{Fields: fields, Complete: true, P: core.Pos(-1)}
}

// --------------------------------------------------------------- Expressions

func simplifyExpr(e Expr) (core.Expr, *diag.Error) {
	switch n := e.(type) {
	case *Var:
		return &core.Var{Qualifiers: n.Qualifiers, Name: n.Name, P: n.P}, nil

	case *IntLit:
		return &core.Lit{Kind: core.LitInt, I: n.Value, P: n.P}, nil
	case *WordLit:
		return &core.Lit{Kind: core.LitWord, I: n.Value, P: n.P}, nil
	case *RealLit:
		return &core.Lit{Kind: core.LitReal, R: n.Value, P: n.P}, nil
	case *CharLit:
		return &core.Lit{Kind: core.LitChar, C: n.Value, P: n.P}, nil
	case *StringLit:
		return &core.Lit{Kind: core.LitString, S: n.Value, P: n.P}, nil

	case *TupleExpr:
		fields := make([]core.RecordField, len(n.Elems))
		for i, el := range n.Elems {
			ce, err := simplifyExpr(el)
			if err != nil {
				return nil, err
			}
			fields[i] = core.RecordField{Label: fmt.Sprintf("%d", i+1), Value: ce}
		}
		return &core.Record{Fields: fields, P: n.P}, nil

	case *RecordExpr:
		fields := make([]core.RecordField, len(n.Fields))
		for i, f := range n.Fields {
			ce, err := simplifyExpr(f.Value)
			if err != nil {
				return nil, err
			}
			fields[i] = core.RecordField{Label: f.Label, Value: ce}
		}
		return &core.Record{Fields: fields, P: n.P}, nil

	case *ListExpr:
		var tail core.Expr = &core.Var{Name: "nil", P: n.P}
		for i := len(n.Elems) - 1; i >= 0; i-- {
			ce, err := simplifyExpr(n.Elems[i])
			if err != nil {
				return nil, err
			}
			pair := &core.Record{Fields: []core.RecordField{
				{Label: "1", Value: ce}, {Label: "2", Value: tail},
			}, P: n.P}
			tail = &core.App{Fun: &core.Var{Name: "::", P: n.P}, Arg: pair, P: n.P}
		}
		return tail, nil

	case *SeqExpr:
		return simplifySeq(n.Exprs, n.P)

	case *AppExpr:
		fn, err := simplifyExpr(n.Fun)
		if err != nil {
			return nil, err
		}
		arg, err := simplifyExpr(n.Arg)
		if err != nil {
			return nil, err
		}
		return &core.App{Fun: fn, Arg: arg, P: n.P}, nil

	case *FnExpr:
		m, err := simplifyMatch(n.M)
		if err != nil {
			return nil, err
		}
		return &core.Fn{M: m, P: n.P}, nil

	case *CaseExpr:
		scr, err := simplifyExpr(n.Scrutinee)
		if err != nil {
			return nil, err
		}
		m, err := simplifyMatch(n.M)
		if err != nil {
			return nil, err
		}
		return &core.Case{Scrutinee: scr, M: m, P: n.P}, nil

	case *IfExpr:
		cond, err := simplifyExpr(n.Cond)
		if err != nil {
			return nil, err
		}
		thenE, err := simplifyExpr(n.Then)
		if err != nil {
			return nil, err
		}
		elseE, err := simplifyExpr(n.Else)
		if err != nil {
			return nil, err
		}
		return boolCase(cond, thenE, elseE, n.P), nil

	case *AndAlsoExpr:
		l, err := simplifyExpr(n.L)
		if err != nil {
			return nil, err
		}
		r, err := simplifyExpr(n.R)
		if err != nil {
			return nil, err
		}
		return boolCase(l, r, &core.Var{Name: "false", P: n.P}, n.P), nil

	case *OrElseExpr:
		l, err := simplifyExpr(n.L)
		if err != nil {
			return nil, err
		}
		r, err := simplifyExpr(n.R)
		if err != nil {
			return nil, err
		}
		return boolCase(l, &core.Var{Name: "true", P: n.P}, r, n.P), nil

	case *WhileExpr:
		return simplifyWhile(n)

	case *RaiseExpr:
		exn, err := simplifyExpr(n.Exn)
		if err != nil {
			return nil, err
		}
		return &core.Raise{Exn: exn, P: n.P}, nil

	case *HandleExpr:
		body, err := simplifyExpr(n.Body)
		if err != nil {
			return nil, err
		}
		m, err := simplifyMatch(n.M)
		if err != nil {
			return nil, err
		}
		return &core.Handle{Body: body, M: m, P: n.P}, nil

	case *TypedExpr:
		sub, err := simplifyExpr(n.Sub)
		if err != nil {
			return nil, err
		}
		return &core.Typed{Sub: sub, Type: n.Type, P: n.P}, nil

	case *LetExpr:
		decs, err := simplifyDecs(n.Decs)
		if err != nil {
			return nil, err
		}
		body, err := simplifyExpr(n.Body)
		if err != nil {
			return nil, err
		}
		return &core.Let{Decs: decs, Body: body, P: n.P}, nil

	default:
		return nil, diag.New(diag.InternalInterpreterError, e.Pos(), "simplify: unhandled expression %T", e)
	}
}

// boolCase builds `case cond of true => thenE | false => elseE`,
// the lowering spec.md §4.3 specifies for `if`/`andalso`/`orelse`.
func boolCase(cond, thenE, elseE core.Expr, p Pos) core.Expr {
	return &core.Case{
		Scrutinee: cond,
		M: &core.Match{
			Clauses: []core.Clause{
				{Pat: &ConPat{Name: "true", P: p}, Body: thenE},
				{Pat: &ConPat{Name: "false", P: p}, Body: elseE},
			},
			P: p,
		},
		P: p,
	}
}

// simplifySeq lowers `(e1; e2; e3)` to nested `case e of _ => ...`,
// preserving left-to-right evaluation order without a dedicated
// sequencing construct in the core calculus (spec.md §4.3).
func simplifySeq(exprs []Expr, p Pos) (core.Expr, *diag.Error) {
	if len(exprs) == 0 {
		return nil, diag.New(diag.ParserError, p, "empty sequence")
	}
	ces := make([]core.Expr, len(exprs))
	for i, e := range exprs {
		ce, err := simplifyExpr(e)
		if err != nil {
			return nil, err
		}
		ces[i] = ce
	}
	result := ces[len(ces)-1]
	for i := len(ces) - 2; i >= 0; i-- {
		result = &core.Case{
			Scrutinee: ces[i],
			M: &core.Match{
				Clauses: []core.Clause{{Pat: &WildcardPat{P: p}, Body: result}},
				P:       p,
			},
			P: p,
		}
	}
	return result, nil
}

// simplifyWhile lowers `while c do body` to:
//
//	let val rec loop = fn () => if c then (body; loop ()) else ()
//	in loop () end
//
// (spec.md §4.3), all synthetic nodes.
func simplifyWhile(n *WhileExpr) (core.Expr, *diag.Error) {
	cond, err := simplifyExpr(n.Cond)
	if err != nil {
		return nil, err
	}
	body, err := simplifyExpr(n.Body)
	if err != nil {
		return nil, err
	}
	synth := core.Pos(-1)
	loopCall := &core.App{Fun: &core.Var{Name: "loop", P: synth}, Arg: &core.Record{P: synth}, P: synth}
	bodyThenLoop := &core.Case{
		Scrutinee: body,
		M: &core.Match{Clauses: []core.Clause{{Pat: &WildcardPat{P: synth}, Body: loopCall}}, P: synth},
		P: synth,
	}
	loopBody := boolCase(cond, bodyThenLoop, &core.Record{P: synth}, synth)
	loopFn := &core.Fn{
		M: &core.Match{
			Clauses: []core.Clause{{Pat: &RecordPat{Complete: true, P: synth}, Body: loopBody}},
			P:       synth,
		},
		P: synth,
	}
	return &core.Let{
		Decs: []core.Dec{&core.ValRecDec{Bindings: []core.RecBind{{Name: "loop", Fn: loopFn}}, P: synth}},
		Body: &core.App{Fun: &core.Var{Name: "loop", P: synth}, Arg: &core.Record{P: synth}, P: synth},
		P:    n.P,
	}, nil
}

func simplifyMatch(m *Match) (*core.Match, *diag.Error) {
	clauses := make([]core.Clause, 0, len(m.Clauses))
	for _, c := range m.Clauses {
		body, err := simplifyExpr(c.Body)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, core.Clause{Pat: simplifyPat(c.Pat), Body: body})
	}
	return &core.Match{Clauses: clauses, P: m.P}, nil
}

// ----------------------------------------------------------------- Patterns

// simplifyPat lowers ListPat to a `::`/`nil` ConPat chain; every other
// pattern form needs no lowering.
func simplifyPat(p Pat) Pat {
	switch n := p.(type) {
	case *ListPat:
		var tail Pat = &ConPat{Name: "nil", P: n.P}
		for i := len(n.Elems) - 1; i >= 0; i-- {
			head := simplifyPat(n.Elems[i])
			tail = &ConPat{
				Name: "::",
				Arg: &RecordPat{Fields: []RecordPatField{
					{Label: "1", Pat: head}, {Label: "2", Pat: tail},
				}, Complete: true, P: n.P},
				P: n.P,
			}
		}
		return tail
	case *TuplePat:
		elems := make([]Pat, len(n.Elems))
		for i, e := range n.Elems {
			elems[i] = simplifyPat(e)
		}
		return tuplePatFromFields(elems)
	case *RecordPat:
		fields := make([]RecordPatField, len(n.Fields))
		for i, f := range n.Fields {
			fields[i] = RecordPatField{Label: f.Label, Pat: simplifyPat(f.Pat)}
		}
		return &RecordPat{Fields: fields, Complete: n.Complete, P: n.P}
	case *ConPat:
		if n.Arg != nil {
			return &ConPat{Qualifiers: n.Qualifiers, Name: n.Name, Arg: simplifyPat(n.Arg), P: n.P}
		}
		return n
	case *LayeredPat:
		return &LayeredPat{Name: n.Name, Type: n.Type, Sub: simplifyPat(n.Sub), P: n.P}
	case *TypedPat:
		return &TypedPat{Sub: simplifyPat(n.Sub), Type: n.Type, P: n.P}
	default:
		return p
	}
}
