package elaborator

import (
	"sort"
	"strings"

	"github.com/basislang/sml/internal/core"
	"github.com/basislang/sml/internal/diag"
	"github.com/basislang/sml/internal/runtime"
	"github.com/basislang/sml/internal/types"
)

// elaborateDec type-checks d, writing every static binding it
// introduces directly into env: Scheme for every value identifier,
// TypeInfo for every type constructor, an ExceptionConstructor (id only,
// no value) for every exception. It never touches env's dynamic values
// -- the evaluator walks the same declaration afterward and installs
// every runtime value, closures and constructors alike, in one place.
func (e *Elaborator) elaborateDec(d core.Dec, env *runtime.State) *diag.Error {
	switch n := d.(type) {
	case *core.ValDec:
		for _, b := range n.Bindings {
			rhsTy, err := e.inferExpr(b.Rhs, env)
			if err != nil {
				return err
			}
			patTy, binds, err := e.inferPat(b.Pat, env)
			if err != nil {
				return err
			}
			if uerr := e.unify(patTy, rhsTy, b.Pat.Pos()); uerr != nil {
				return uerr
			}
			generalizable := isSyntacticValue(b.Rhs)
			for name, sc := range binds {
				if generalizable {
					env.BindScheme(name, e.generalize(sc.Type, env))
				} else {
					env.BindScheme(name, types.Mono(sc.Type))
				}
			}
		}
		return nil

	case *core.ValRecDec:
		tvs := make(map[string]*types.TVar, len(n.Bindings))
		for _, b := range n.Bindings {
			tv := types.NewVar(false)
			tvs[b.Name] = tv
			env.BindScheme(b.Name, types.Mono(tv))
		}
		for _, b := range n.Bindings {
			fnTy, err := e.inferExpr(b.Fn, env)
			if err != nil {
				return err
			}
			if uerr := e.unify(tvs[b.Name], fnTy, b.Fn.P); uerr != nil {
				return uerr
			}
		}
		for _, b := range n.Bindings {
			env.BindScheme(b.Name, e.generalize(tvs[b.Name], env))
		}
		return nil

	case *core.TypeDec:
		for _, b := range n.Bindings {
			tv, params := newParamEnv(b.Params)
			body, err := e.resolveTypeExpr(b.Type, env, tv)
			if err != nil {
				return err
			}
			env.BindType(b.Name, &runtime.TypeInfo{Arity: len(b.Params), AliasParams: params, AliasBody: body})
		}
		return nil

	case *core.DatatypeDec:
		return e.elaborateDatatype(n, env)

	case *core.AbstypeDec:
		inner := runtime.NewChild(env)
		if err := e.elaborateDatatype(n.Datatype, inner); err != nil {
			return err
		}
		vis := runtime.NewChild(inner)
		for _, d2 := range n.Body {
			if err := e.elaborateDec(d2, vis); err != nil {
				return err
			}
		}
		for _, b := range n.Datatype.Bindings {
			env.BindType(b.Name, &runtime.TypeInfo{Arity: len(b.Params)})
		}
		copySchemes(env, vis.LocalSchemes())
		copyDynamic(env, vis.LocalDynamic())
		copyExceptions(env, vis.LocalExceptions())
		for tn, ti := range vis.LocalTypeInfos() {
			env.BindType(tn, ti)
		}
		return nil

	case *core.ExceptionDec:
		return e.elaborateExceptionDec(n, env)

	case *core.OpenDec:
		for _, path := range n.Names {
			name := path[len(path)-1]
			m, ok := env.LookupModule(name)
			if !ok {
				e.warn(n.P, "open %s: no such structure in scope", strings.Join(path, "."))
				continue
			}
			copySchemes(env, m.LocalSchemes())
			copyDynamic(env, m.LocalDynamic())
			copyExceptions(env, m.LocalExceptions())
			for tn, ti := range m.LocalTypeInfos() {
				env.BindType(tn, ti)
			}
		}
		return nil

	case *core.LocalDec:
		hidden := runtime.NewChild(env)
		for _, d1 := range n.Decs1 {
			if err := e.elaborateDec(d1, hidden); err != nil {
				return err
			}
		}
		vis := runtime.NewChild(hidden)
		for _, d2 := range n.Decs2 {
			if err := e.elaborateDec(d2, vis); err != nil {
				return err
			}
		}
		copySchemes(env, vis.LocalSchemes())
		copyDynamic(env, vis.LocalDynamic())
		copyExceptions(env, vis.LocalExceptions())
		for tn, ti := range vis.LocalTypeInfos() {
			env.BindType(tn, ti)
		}
		return nil

	case *core.SeqDec:
		for _, d2 := range n.Decs {
			if err := e.elaborateDec(d2, env); err != nil {
				return err
			}
		}
		return nil

	default:
		return diag.New(diag.InternalInterpreterError, d.Pos(), "elaborate: unhandled declaration %T", d)
	}
}

// elaborateDatatype registers every binding's arity up front (so a
// mutually-recursive datatype group can reference each other's names in
// constructor argument types), then resolves each constructor.
func (e *Elaborator) elaborateDatatype(n *core.DatatypeDec, env *runtime.State) *diag.Error {
	for _, b := range n.Bindings {
		env.BindType(b.Name, &runtime.TypeInfo{Arity: len(b.Params)})
	}
	for _, b := range n.Bindings {
		tv, params := newParamEnv(b.Params)
		resultTy := &types.Con{Name: b.Name, Args: tvarsToTypes(params)}
		conNames := make([]string, len(b.Constructors))
		for i, cb := range b.Constructors {
			conNames[i] = cb.Name
			if cb.Arg == nil {
				env.BindScheme(cb.Name, &types.Scheme{Vars: params, Type: resultTy})
			} else {
				argTy, err := e.resolveTypeExpr(cb.Arg, env, tv)
				if err != nil {
					return err
				}
				env.BindScheme(cb.Name, &types.Scheme{Vars: params, Type: &types.Func{Domain: argTy, Codomain: resultTy}})
			}
		}
		env.BindType(b.Name, &runtime.TypeInfo{Arity: len(b.Params), Constructors: conNames})
	}
	return nil
}

func (e *Elaborator) elaborateExceptionDec(n *core.ExceptionDec, env *runtime.State) *diag.Error {
	for _, b := range n.Bindings {
		if b.CopyFrom != nil {
			ec, ok := env.LookupException(b.CopyFrom.Name)
			if !ok {
				return diag.NewElaboration(UnboundConstructor, n.P, "unbound exception %s", b.CopyFrom.Name)
			}
			sc, _ := env.LookupScheme(b.CopyFrom.Name)
			env.BindException(b.Name, &runtime.ExceptionConstructor{Name: b.Name, ID: ec.ID})
			env.BindScheme(b.Name, sc)
			continue
		}
		id := env.Fresh()
		if b.Arg == nil {
			env.BindException(b.Name, &runtime.ExceptionConstructor{Name: b.Name, ID: id})
			env.BindScheme(b.Name, types.Mono(types.Exn()))
			continue
		}
		argTy, err := e.resolveTypeExpr(b.Arg, env, tvEnv{})
		if err != nil {
			return err
		}
		if len(types.FreeVars(argTy)) > 0 {
			return diag.NewElaboration(UnguardedTypeVariable, n.P, "exception %s may not carry a polymorphic argument type", b.Name)
		}
		env.BindException(b.Name, &runtime.ExceptionConstructor{Name: b.Name, ID: id})
		env.BindScheme(b.Name, types.Mono(&types.Func{Domain: argTy, Codomain: types.Exn()}))
	}
	return nil
}

// newParamEnv allocates one fresh TVar per declared type parameter,
// keyed by its surface name so resolveTypeExpr resolves occurrences in
// a datatype/type-alias body to the same variable.
func newParamEnv(names []string) (tvEnv, []*types.TVar) {
	tv := tvEnv{}
	params := make([]*types.TVar, len(names))
	for i, name := range names {
		v := types.NewVar(false)
		tv[name] = v
		params[i] = v
	}
	return tv, params
}

func tvarsToTypes(vs []*types.TVar) []types.Type {
	out := make([]types.Type, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}

func copySchemes(dst *runtime.State, src map[string]*types.Scheme) {
	for k, v := range src {
		dst.BindScheme(k, v)
	}
}

func copyDynamic(dst *runtime.State, src map[string]runtime.Value) {
	for k, v := range src {
		dst.BindValue(k, v)
	}
}

func copyExceptions(dst *runtime.State, src map[string]*runtime.ExceptionConstructor) {
	for k, v := range src {
		dst.BindException(k, v)
	}
}

// generalize implements spec.md §4.4's let-polymorphism rule: quantify
// over every free variable of t that is not also free somewhere in env
// (a variable still free in env is constrained by an enclosing binding
// and must stay monomorphic here).
func (e *Elaborator) generalize(t types.Type, env *runtime.State) *types.Scheme {
	tfree := types.FreeVars(t)
	efree := envFreeVars(env)
	vars := make([]*types.TVar, 0, len(tfree))
	for v := range tfree {
		if !efree[v] {
			vars = append(vars, v)
		}
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i].ID < vars[j].ID })
	return &types.Scheme{Vars: vars, Type: t}
}

func envFreeVars(env *runtime.State) map[*types.TVar]bool {
	out := map[*types.TVar]bool{}
	for f := env; f != nil; f = f.Parent() {
		for _, sc := range f.LocalSchemes() {
			quantified := make(map[*types.TVar]bool, len(sc.Vars))
			for _, v := range sc.Vars {
				quantified[v] = true
			}
			for v := range types.FreeVars(sc.Type) {
				if !quantified[v] {
					out[v] = true
				}
			}
		}
	}
	return out
}

// isSyntacticValue implements the value restriction (spec.md §4.4):
// only a syntactic value generalizes. Function application is
// conservatively never treated as a value, even when the applied
// function is itself a constructor, trading a little polymorphism
// (e.g. `val x = SOME 5` binds a monomorphic `int option`) for a simple
// and sound rule.
func isSyntacticValue(ex core.Expr) bool {
	switch n := ex.(type) {
	case *core.Var, *core.Lit, *core.Fn:
		return true
	case *core.Record:
		for _, f := range n.Fields {
			if !isSyntacticValue(f.Value) {
				return false
			}
		}
		return true
	case *core.Typed:
		return isSyntacticValue(n.Sub)
	default:
		return false
	}
}
