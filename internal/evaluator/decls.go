package evaluator

import (
	"github.com/basislang/sml/internal/core"
	"github.com/basislang/sml/internal/diag"
	"github.com/basislang/sml/internal/runtime"
)

// EvalDec installs every dynamic binding d introduces directly into
// env, mirroring internal/elaborator.elaborateDec's structure one for
// one but building runtime Values instead of static Schemes: val/fun
// bindings get evaluated right-hand sides and closures, datatype/
// exception declarations get fresh constructor identities (the
// elaborator never assigns these at the dynamic layer -- see
// decls.go's doc comment there), and local/abstype/open re-derive
// their own hidden frames rather than reusing the elaborator's
// (already-discarded) ones, since only the schemes/type-info copied up
// from those frames survive past Elaborate.
func EvalDec(d core.Dec, env *runtime.State) (*diag.Error, *runtime.Exception) {
	switch n := d.(type) {
	case *core.ValDec:
		for _, b := range n.Bindings {
			v, derr, exn := Eval(b.Rhs, env)
			if derr != nil || exn != nil {
				return derr, exn
			}
			binds, ok := match(b.Pat, v, env)
			if !ok {
				return nil, runtime.RaiseBuiltin(runtime.ExnBind)
			}
			if derr := checkRebinds(env, binds, b.Pat.Pos()); derr != nil {
				return derr, nil
			}
			bindAll(env, binds)
		}
		return nil, nil

	case *core.ValRecDec:
		for _, b := range n.Bindings {
			if derr := checkRebind(env, b.Name, n.P); derr != nil {
				return derr, nil
			}
			env.BindValue(b.Name, &runtime.Function{Match: b.Fn.M, Env: env, RecName: b.Name})
		}
		return nil, nil

	case *core.TypeDec:
		// A type alias has no runtime representation of its own.
		return nil, nil

	case *core.DatatypeDec:
		return bindDatatype(n, env), nil

	case *core.AbstypeDec:
		hidden := runtime.NewChild(env)
		if derr := bindDatatype(n.Datatype, hidden); derr != nil {
			return derr, nil
		}
		vis := runtime.NewChild(hidden)
		for _, d2 := range n.Body {
			if derr, exn := EvalDec(d2, vis); derr != nil || exn != nil {
				return derr, exn
			}
		}
		copyDynamicUp(env, vis)
		return nil, nil

	case *core.ExceptionDec:
		return bindExceptionDec(n, env), nil

	case *core.OpenDec:
		for _, path := range n.Names {
			name := path[len(path)-1]
			m, ok := env.LookupModule(name)
			if !ok {
				continue // the elaborator already warned about this
			}
			copyDynamicUp(env, m)
		}
		return nil, nil

	case *core.LocalDec:
		hidden := runtime.NewChild(env)
		for _, d1 := range n.Decs1 {
			if derr, exn := EvalDec(d1, hidden); derr != nil || exn != nil {
				return derr, exn
			}
		}
		vis := runtime.NewChild(hidden)
		for _, d2 := range n.Decs2 {
			if derr, exn := EvalDec(d2, vis); derr != nil || exn != nil {
				return derr, exn
			}
		}
		copyDynamicUp(env, vis)
		return nil, nil

	case *core.SeqDec:
		for _, d2 := range n.Decs {
			if derr, exn := EvalDec(d2, env); derr != nil || exn != nil {
				return derr, exn
			}
		}
		return nil, nil

	default:
		return diag.New(diag.InternalInterpreterError, d.Pos(), "evaluate: unhandled declaration %T", d), nil
	}
}

func copyDynamicUp(dst, src *runtime.State) {
	for k, v := range src.LocalDynamic() {
		dst.BindValue(k, v)
	}
}

// bindDatatype gives each of n's constructors a fresh runtime identity:
// a ready-made ConstructedValue for a nullary constructor, or a
// callable ValueConstructor for one that takes an argument.
func bindDatatype(n *core.DatatypeDec, env *runtime.State) *diag.Error {
	for _, b := range n.Bindings {
		for _, cb := range b.Constructors {
			if derr := checkRebind(env, cb.Name, n.P); derr != nil {
				return derr
			}
			id := env.Fresh()
			if cb.Arg == nil {
				env.BindValue(cb.Name, &runtime.ConstructedValue{TypeName_: b.Name, Name: cb.Name, ID: id})
			} else {
				env.BindValue(cb.Name, &runtime.ValueConstructor{TypeName_: b.Name, Name: cb.Name, ID: id})
			}
		}
	}
	return nil
}

// bindExceptionDec gives each of n's bindings a fresh runtime identity,
// or aliases an existing one for `exception E2 = E1` (spec.md §4.5):
// the alias shares E1's exact dynamic value, so `raise E2` is caught by
// a `handle E1 => ...` clause, matching real copy-exception semantics.
func bindExceptionDec(n *core.ExceptionDec, env *runtime.State) *diag.Error {
	for _, b := range n.Bindings {
		if derr := checkRebind(env, b.Name, n.P); derr != nil {
			return derr
		}
		if b.CopyFrom != nil {
			v, ok := env.LookupValue(b.CopyFrom.Name)
			if !ok {
				return diag.New(diag.InternalInterpreterError, n.P, "unbound exception %s at evaluation", b.CopyFrom.Name)
			}
			env.BindValue(b.Name, v)
			continue
		}
		id := env.Fresh()
		if b.Arg == nil {
			env.BindValue(b.Name, &runtime.ExceptionConstructor{Name: b.Name, ID: id})
		} else {
			env.BindValue(b.Name, &runtime.ValueConstructor{TypeName_: "exn", Name: b.Name, ID: id})
		}
	}
	return nil
}

// checkRebind implements spec.md §8's rebind-protection property: a
// handful of built-in identifiers (true, false, nil, ::, ref) may never
// be rebound once getInitialState() has fixed their identity. Since
// ordinary `val` pattern matching can never actually name one of those
// (the parser resolves them as constructor patterns, not bindings) the
// practical trigger is `fun`/`val rec` reusing a protected name, or a
// datatype/exception declaration reintroducing one of its constructors.
func checkRebind(env *runtime.State, name string, pos core.Pos) *diag.Error {
	if env.RebindStatusOf(name) == runtime.Never {
		return diag.New(diag.EvaluationError, pos, "%s may not be rebound", name)
	}
	return nil
}

func checkRebinds(env *runtime.State, binds map[string]runtime.Value, pos core.Pos) *diag.Error {
	for name := range binds {
		if derr := checkRebind(env, name, pos); derr != nil {
			return derr
		}
	}
	return nil
}
