// Package elaborator implements Hindley-Milner type inference over
// internal/core, with let-polymorphism, the value restriction, and the
// datatype/abstype/exception elaboration spec.md §4.4 describes.
package elaborator

import (
	"fmt"

	"github.com/basislang/sml/internal/core"
	"github.com/basislang/sml/internal/diag"
	"github.com/basislang/sml/internal/runtime"
	"github.com/basislang/sml/internal/types"
)

// Elaborator carries no state of its own; its methods are grouped under
// one receiver so unify.go/pattern.go/decls.go/typeconv.go can share
// helpers without package-level free functions colliding by name.
type Elaborator struct {
	Warnings []diag.Warning
}

// Elaborate type-checks one top-level declaration against env and, on
// success, returns a new child State carrying every static binding the
// declaration introduces (schemes, type info, exception identities). On
// failure no state is touched, matching spec.md §4.4's "fatal to the
// current top-level declaration" rule, since all writes land in the
// fresh child rather than env itself. internal/evaluator walks the same
// declaration against this child afterward to install its dynamic
// values.
func Elaborate(d core.Dec, env *runtime.State) (*runtime.State, []diag.Warning, *diag.Error) {
	el := &Elaborator{}
	child := runtime.NewChild(env)
	if err := el.elaborateDec(d, child); err != nil {
		return nil, nil, err
	}
	return child, el.Warnings, nil
}

func (e *Elaborator) warn(pos core.Pos, format string, args ...any) {
	e.Warnings = append(e.Warnings, diag.Warning{Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// ---------------------------------------------------------------- Expressions

func (e *Elaborator) inferExpr(ex core.Expr, env *runtime.State) (types.Type, *diag.Error) {
	switch n := ex.(type) {
	case *core.Var:
		sc, ok := env.LookupScheme(n.Name)
		if !ok {
			return nil, diag.NewElaboration(UnboundIdentifier, n.P, "unbound identifier %s", n.Name)
		}
		return sc.Instantiate(), nil

	case *core.Lit:
		switch n.Kind {
		case core.LitInt:
			return types.Int(), nil
		case core.LitWord:
			return types.Word(), nil
		case core.LitReal:
			return types.Real(), nil
		case core.LitChar:
			return types.Char(), nil
		case core.LitString:
			return types.String(), nil
		}
		return nil, diag.New(diag.InternalInterpreterError, n.P, "unhandled literal kind %d", n.Kind)

	case *core.Record:
		order := make([]string, len(n.Fields))
		fields := make(map[string]types.Type, len(n.Fields))
		for i, f := range n.Fields {
			ft, err := e.inferExpr(f.Value, env)
			if err != nil {
				return nil, err
			}
			order[i] = f.Label
			fields[f.Label] = ft
		}
		return types.NewRecord(order, fields, true), nil

	case *core.Fn:
		argTy, resTy, err := e.inferMatch(n.M, env)
		if err != nil {
			return nil, err
		}
		return &types.Func{Domain: argTy, Codomain: resTy}, nil

	case *core.App:
		funTy, err := e.inferExpr(n.Fun, env)
		if err != nil {
			return nil, err
		}
		argTy, err := e.inferExpr(n.Arg, env)
		if err != nil {
			return nil, err
		}
		resTy := types.NewVar(false)
		if uerr := e.unify(funTy, &types.Func{Domain: argTy, Codomain: resTy}, n.P); uerr != nil {
			return nil, uerr
		}
		return resTy, nil

	case *core.Typed:
		subTy, err := e.inferExpr(n.Sub, env)
		if err != nil {
			return nil, err
		}
		annTy, err := e.resolveTypeExpr(n.Type, env, tvEnv{})
		if err != nil {
			return nil, err
		}
		if uerr := e.unify(subTy, annTy, n.P); uerr != nil {
			return nil, uerr
		}
		return annTy, nil

	case *core.Raise:
		exnTy, err := e.inferExpr(n.Exn, env)
		if err != nil {
			return nil, err
		}
		if uerr := e.unify(exnTy, types.Exn(), n.P); uerr != nil {
			return nil, uerr
		}
		return types.NewVar(false), nil

	case *core.Handle:
		bodyTy, err := e.inferExpr(n.Body, env)
		if err != nil {
			return nil, err
		}
		scrTy, resTy, err := e.inferMatch(n.M, env)
		if err != nil {
			return nil, err
		}
		if uerr := e.unify(scrTy, types.Exn(), n.P); uerr != nil {
			return nil, uerr
		}
		if uerr := e.unify(bodyTy, resTy, n.P); uerr != nil {
			return nil, uerr
		}
		return bodyTy, nil

	case *core.Case:
		scrExprTy, err := e.inferExpr(n.Scrutinee, env)
		if err != nil {
			return nil, err
		}
		scrTy, resTy, err := e.inferMatch(n.M, env)
		if err != nil {
			return nil, err
		}
		if uerr := e.unify(scrExprTy, scrTy, n.P); uerr != nil {
			return nil, uerr
		}
		return resTy, nil

	case *core.Let:
		child := runtime.NewChild(env)
		for _, d := range n.Decs {
			if err := e.elaborateDec(d, child); err != nil {
				return nil, err
			}
		}
		return e.inferExpr(n.Body, child)

	default:
		return nil, diag.New(diag.InternalInterpreterError, ex.Pos(), "elaborate: unhandled expression %T", ex)
	}
}

// inferMatch infers a fresh scrutinee type and a fresh result type for
// m, unifying both across every clause.
func (e *Elaborator) inferMatch(m *core.Match, env *runtime.State) (types.Type, types.Type, *diag.Error) {
	scrTy := types.NewVar(false)
	resTy := types.NewVar(false)
	for _, c := range m.Clauses {
		patTy, binds, err := e.inferPat(c.Pat, env)
		if err != nil {
			return nil, nil, err
		}
		if uerr := e.unify(scrTy, patTy, c.Pat.Pos()); uerr != nil {
			return nil, nil, uerr
		}
		clauseEnv := runtime.NewChild(env)
		for name, sc := range binds {
			clauseEnv.BindScheme(name, sc)
		}
		bodyTy, err := e.inferExpr(c.Body, clauseEnv)
		if err != nil {
			return nil, nil, err
		}
		if uerr := e.unify(resTy, bodyTy, c.Body.Pos()); uerr != nil {
			return nil, nil, uerr
		}
	}
	return scrTy, resTy, nil
}
