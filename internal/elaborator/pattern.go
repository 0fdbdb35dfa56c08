package elaborator

import (
	"github.com/basislang/sml/internal/ast"
	"github.com/basislang/sml/internal/diag"
	"github.com/basislang/sml/internal/runtime"
	"github.com/basislang/sml/internal/types"
)

// inferPat infers p's type against env (for constructor/exception
// lookup only; pattern variables are never visible to themselves) and
// returns the monomorphic bindings it introduces. Patterns never
// generalize (spec.md §4.4): every bound variable gets a fresh,
// unquantified type variable, unified against its use inside the
// pattern and, by the caller, against the clause body's environment.
func (e *Elaborator) inferPat(p ast.Pat, env *runtime.State) (types.Type, map[string]*types.Scheme, *diag.Error) {
	switch n := p.(type) {
	case *ast.WildcardPat:
		return types.NewVar(false), nil, nil

	case *ast.VarPat:
		tv := types.NewVar(false)
		return tv, map[string]*types.Scheme{n.Name: types.Mono(tv)}, nil

	case *ast.ConstPat:
		switch n.Kind {
		case ast.ConstInt:
			return types.Int(), nil, nil
		case ast.ConstWord:
			return types.Word(), nil, nil
		case ast.ConstReal:
			return types.Real(), nil, nil
		case ast.ConstChar:
			return types.Char(), nil, nil
		case ast.ConstString:
			return types.String(), nil, nil
		}
		return nil, nil, diag.New(diag.InternalInterpreterError, n.P, "unhandled constant pattern kind %d", n.Kind)

	case *ast.ConPat:
		sc, ok := env.LookupScheme(n.Name)
		if !ok {
			return nil, nil, diag.NewElaboration(UnboundConstructor, n.P, "unbound constructor %s", n.Name)
		}
		conTy := sc.Instantiate()
		if n.Arg == nil {
			if _, isFunc := types.Prune(conTy).(*types.Func); isFunc {
				return nil, nil, diag.NewElaboration(ArityMismatch, n.P, "constructor %s expects an argument", n.Name)
			}
			return conTy, nil, nil
		}
		fn, ok := types.Prune(conTy).(*types.Func)
		if !ok {
			return nil, nil, diag.NewElaboration(ArityMismatch, n.P, "constructor %s takes no argument", n.Name)
		}
		argTy, binds, err := e.inferPat(n.Arg, env)
		if err != nil {
			return nil, nil, err
		}
		if uerr := e.unify(argTy, fn.Domain, n.P); uerr != nil {
			return nil, nil, uerr
		}
		return fn.Codomain, binds, nil

	case *ast.RecordPat:
		order := make([]string, len(n.Fields))
		fields := make(map[string]types.Type, len(n.Fields))
		binds := map[string]*types.Scheme{}
		for i, f := range n.Fields {
			ft, fbinds, err := e.inferPat(f.Pat, env)
			if err != nil {
				return nil, nil, err
			}
			order[i] = f.Label
			fields[f.Label] = ft
			mergeBinds(binds, fbinds)
		}
		return types.NewRecord(order, fields, n.Complete), binds, nil

	case *ast.LayeredPat:
		subTy, binds, err := e.inferPat(n.Sub, env)
		if err != nil {
			return nil, nil, err
		}
		if n.Type != nil {
			annTy, terr := e.resolveTypeExpr(n.Type, env, tvEnv{})
			if terr != nil {
				return nil, nil, terr
			}
			if uerr := e.unify(subTy, annTy, n.P); uerr != nil {
				return nil, nil, uerr
			}
		}
		if binds == nil {
			binds = map[string]*types.Scheme{}
		}
		binds[n.Name] = types.Mono(subTy)
		return subTy, binds, nil

	case *ast.TypedPat:
		subTy, binds, err := e.inferPat(n.Sub, env)
		if err != nil {
			return nil, nil, err
		}
		annTy, terr := e.resolveTypeExpr(n.Type, env, tvEnv{})
		if terr != nil {
			return nil, nil, terr
		}
		if uerr := e.unify(subTy, annTy, n.P); uerr != nil {
			return nil, nil, uerr
		}
		return annTy, binds, nil

	default:
		return nil, nil, diag.New(diag.InternalInterpreterError, p.Pos(), "elaborate: unhandled pattern %T", p)
	}
}

func mergeBinds(dst, src map[string]*types.Scheme) {
	for k, v := range src {
		dst[k] = v
	}
}
