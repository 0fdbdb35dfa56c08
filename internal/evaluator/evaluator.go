// Package evaluator walks internal/core (the calculus internal/ast's
// Simplify produces) to execute a declaration that internal/elaborator
// already type-checked. It installs every dynamic value a declaration
// introduces -- closures for val/fun bindings, constructor identities
// for datatype/exception declarations -- since the elaborator, being
// purely static, leaves env's dynamic environment untouched (spec.md
// §4.4/§4.5).
package evaluator

import (
	"github.com/basislang/sml/internal/core"
	"github.com/basislang/sml/internal/diag"
	"github.com/basislang/sml/internal/runtime"
)

func init() {
	runtime.Apply = applyHost
}

// Eval evaluates ex against env per spec.md §4.5's deterministic,
// strictly left-to-right evaluation order (function before argument in
// application, label order 1..n in record/tuple construction, and
// left-to-right in sequencing, the last already encoded as nested
// `case` by Simplify). It returns at most one of a *diag.Error (an
// internal invariant violation -- an unbound identifier or a
// non-callable application that a sound elaboration should have
// already ruled out) or a *runtime.Exception (a legitimate SML `raise`
// propagating up the call stack); both nil means evaluation produced v
// without incident.
func Eval(ex core.Expr, env *runtime.State) (v runtime.Value, derr *diag.Error, exn *runtime.Exception) {
	switch n := ex.(type) {
	case *core.Var:
		val, ok := env.LookupValue(n.Name)
		if !ok {
			return nil, diag.New(diag.InternalInterpreterError, n.P, "unbound identifier %s at evaluation", n.Name), nil
		}
		return val, nil, nil

	case *core.Lit:
		return evalLit(n), nil, nil

	case *core.Record:
		order := make([]string, len(n.Fields))
		fields := make(map[string]runtime.Value, len(n.Fields))
		for i, f := range n.Fields {
			fv, derr, exn := Eval(f.Value, env)
			if derr != nil || exn != nil {
				return nil, derr, exn
			}
			order[i] = f.Label
			fields[f.Label] = fv
		}
		return &runtime.Record{Order: order, Fields: fields}, nil, nil

	case *core.Fn:
		return &runtime.Function{Match: n.M, Env: env}, nil, nil

	case *core.App:
		fn, derr, exn := Eval(n.Fun, env)
		if derr != nil || exn != nil {
			return nil, derr, exn
		}
		arg, derr, exn := Eval(n.Arg, env)
		if derr != nil || exn != nil {
			return nil, derr, exn
		}
		return applyValue(fn, arg, n.P)

	case *core.Typed:
		return Eval(n.Sub, env)

	case *core.Raise:
		val, derr, exn := Eval(n.Exn, env)
		if derr != nil || exn != nil {
			return nil, derr, exn
		}
		ev, derr := toExceptionValue(val, n.P)
		if derr != nil {
			return nil, derr, nil
		}
		return nil, nil, &runtime.Exception{Value: ev}

	case *core.Handle:
		val, derr, exn := Eval(n.Body, env)
		if derr != nil {
			return nil, derr, nil
		}
		if exn == nil {
			return val, nil, nil
		}
		res, derr, matched, exn2 := evalMatch(n.M, exn.Value, env)
		if derr != nil {
			return nil, derr, nil
		}
		if !matched {
			return nil, nil, exn
		}
		return res, nil, exn2

	case *core.Case:
		scr, derr, exn := Eval(n.Scrutinee, env)
		if derr != nil || exn != nil {
			return nil, derr, exn
		}
		res, derr, matched, exn2 := evalMatch(n.M, scr, env)
		if derr != nil {
			return nil, derr, nil
		}
		if !matched {
			return nil, nil, runtime.RaiseBuiltin(runtime.ExnMatch)
		}
		return res, nil, exn2

	case *core.Let:
		child := runtime.NewChild(env)
		for _, d := range n.Decs {
			derr, exn := EvalDec(d, child)
			if derr != nil || exn != nil {
				return nil, derr, exn
			}
		}
		return Eval(n.Body, child)

	default:
		return nil, diag.New(diag.InternalInterpreterError, ex.Pos(), "evaluate: unhandled expression %T", ex), nil
	}
}

func evalLit(n *core.Lit) runtime.Value {
	switch n.Kind {
	case core.LitInt:
		return &runtime.Int{V: n.I}
	case core.LitWord:
		return &runtime.Word{V: uint64(n.I)}
	case core.LitReal:
		return &runtime.Real{V: n.R}
	case core.LitChar:
		return &runtime.Char{V: n.C}
	case core.LitString:
		return &runtime.Str{V: n.S}
	default:
		return nil
	}
}

// evalMatch tries each clause of m against v in order, as spec.md
// §4.5's `case` semantics require, returning matched=false when every
// clause fails so the caller (Case, Handle) can apply its own
// no-match behavior (raise Match, or re-raise the original exception).
func evalMatch(m *core.Match, v runtime.Value, env *runtime.State) (res runtime.Value, derr *diag.Error, matched bool, exn *runtime.Exception) {
	for _, c := range m.Clauses {
		binds, ok := match(c.Pat, v, env)
		if !ok {
			continue
		}
		clauseEnv := runtime.NewChild(env)
		bindAll(clauseEnv, binds)
		res, derr, exn := Eval(c.Body, clauseEnv)
		return res, derr, true, exn
	}
	return nil, nil, false, nil
}

// applyValue invokes any callable Value with arg, with the diag.Error
// slot reserved for the (normally unreachable) case of applying a value
// the elaborator should already have rejected as non-callable.
func applyValue(fn, arg runtime.Value, pos core.Pos) (runtime.Value, *diag.Error, *runtime.Exception) {
	switch f := fn.(type) {
	case *runtime.Function:
		res, derr, matched, exn := evalMatch(f.Match, arg, runtime.NewChild(f.Env))
		if derr != nil {
			return nil, derr, nil
		}
		if !matched {
			return nil, nil, runtime.RaiseBuiltin(runtime.ExnBind)
		}
		return res, nil, exn

	case *runtime.PredefinedFunction:
		v, exn := f.Fn(arg)
		return v, nil, exn

	case *runtime.ValueConstructor:
		if f.TypeName_ == "exn" {
			return &runtime.ExceptionValue{Name: f.Name, ID: f.ID, Arg: arg}, nil, nil
		}
		return &runtime.ConstructedValue{TypeName_: f.TypeName_, Name: f.Name, ID: f.ID, Arg: arg}, nil, nil

	default:
		return nil, diag.New(diag.InternalInterpreterError, pos, "attempt to apply a non-function value"), nil
	}
}

// toExceptionValue coerces the value a `raise` expression evaluated to
// into the ExceptionValue an Exception carrier wraps: applying an
// exception constructor already produced one directly, but a bare
// nullary exception is still an ExceptionConstructor at this point and
// must be promoted to its argument-less ExceptionValue form.
func toExceptionValue(v runtime.Value, pos core.Pos) (*runtime.ExceptionValue, *diag.Error) {
	switch x := v.(type) {
	case *runtime.ExceptionValue:
		return x, nil
	case *runtime.ExceptionConstructor:
		return &runtime.ExceptionValue{Name: x.Name, ID: x.ID}, nil
	default:
		return nil, diag.New(diag.InternalInterpreterError, pos, "raise: value is not an exception")
	}
}

// applyHost adapts applyValue to runtime.Apply's narrower signature, so
// that a built-in like `o` (function composition) can call back into
// application logic without this package importing runtime or runtime
// importing this package. A non-callable application surfacing here
// would mean a soundness bug in the elaborator, not a condition a
// well-typed program can trigger, so it is reported as a Go panic
// rather than silently swallowed.
func applyHost(fn, arg runtime.Value) (runtime.Value, *runtime.Exception) {
	v, derr, exn := applyValue(fn, arg, -1)
	if derr != nil {
		panic(derr)
	}
	return v, exn
}
