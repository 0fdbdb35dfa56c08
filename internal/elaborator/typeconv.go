package elaborator

import (
	"strconv"

	"github.com/basislang/sml/internal/ast"
	"github.com/basislang/sml/internal/diag"
	"github.com/basislang/sml/internal/runtime"
	"github.com/basislang/sml/internal/types"
)

// tvEnv maps a surface type-variable name ('a, ''a, ...) to the fresh
// TVar it denotes within one type annotation, so repeated occurrences
// of the same name resolve to the same variable.
type tvEnv map[string]*types.TVar

func (e *Elaborator) resolveTypeExpr(te ast.TypeExpr, env *runtime.State, tv tvEnv) (types.Type, *diag.Error) {
	switch n := te.(type) {
	case *ast.TypeVarExpr:
		if existing, ok := tv[n.Name]; ok {
			return existing, nil
		}
		v := types.NewVar(n.Equality)
		tv[n.Name] = v
		return v, nil

	case *ast.ConTypeExpr:
		args := make([]types.Type, len(n.Args))
		for i, a := range n.Args {
			at, err := e.resolveTypeExpr(a, env, tv)
			if err != nil {
				return nil, err
			}
			args[i] = at
		}
		ti, ok := env.LookupType(n.Name)
		if !ok {
			return nil, diag.NewElaboration(UnboundIdentifier, n.P, "unbound type %s", n.Name)
		}
		if len(args) != ti.Arity {
			return nil, diag.NewElaboration(ArityMismatch, n.P, "type %s expects %d argument(s), got %d", n.Name, ti.Arity, len(args))
		}
		if ti.AliasBody != nil {
			sub := make(map[*types.TVar]types.Type, len(ti.AliasParams))
			for i, p := range ti.AliasParams {
				sub[p] = args[i]
			}
			return types.Substitute(ti.AliasBody, sub), nil
		}
		return &types.Con{Name: n.Name, Args: args}, nil

	case *ast.RecordTypeExpr:
		order := make([]string, len(n.Fields))
		fields := make(map[string]types.Type, len(n.Fields))
		for i, f := range n.Fields {
			ft, err := e.resolveTypeExpr(f.Type, env, tv)
			if err != nil {
				return nil, err
			}
			order[i] = f.Label
			fields[f.Label] = ft
		}
		return types.NewRecord(order, fields, n.Complete), nil

	case *ast.TupleTypeExpr:
		order := make([]string, len(n.Elems))
		fields := make(map[string]types.Type, len(n.Elems))
		for i, el := range n.Elems {
			et, err := e.resolveTypeExpr(el, env, tv)
			if err != nil {
				return nil, err
			}
			order[i] = strconv.Itoa(i + 1)
			fields[order[i]] = et
		}
		return types.NewRecord(order, fields, true), nil

	case *ast.FunctionTypeExpr:
		dom, err := e.resolveTypeExpr(n.Domain, env, tv)
		if err != nil {
			return nil, err
		}
		cod, err := e.resolveTypeExpr(n.Codomain, env, tv)
		if err != nil {
			return nil, err
		}
		return &types.Func{Domain: dom, Codomain: cod}, nil

	default:
		return nil, diag.New(diag.InternalInterpreterError, te.Pos(), "unhandled type expression %T", te)
	}
}
