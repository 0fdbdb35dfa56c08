package runtime

import (
	"github.com/basislang/sml/internal/types"
)

func bindPrim(s *State, name string, scheme *types.Scheme, fn HostFunc) {
	s.BindScheme(name, scheme)
	s.BindValue(name, &PredefinedFunction{Name: name, Fn: fn})
	s.SetRebindStatus(name, Never)
}

func bindInfix(s *State, name string, precedence int, rightAssoc bool) {
	s.BindFixity(name, FixityEntry{Precedence: precedence, RightAssoc: rightAssoc, Infix: true})
}

func pair(r *Record) (Value, Value) { return r.Fields["1"], r.Fields["2"] }

func tupleOf(a, b Value) *Record {
	return &Record{Order: []string{"1", "2"}, Fields: map[string]Value{"1": a, "2": b}}
}

func intBinOp(f func(a, b int64) (int64, *Exception)) HostFunc {
	return func(arg Value) (Value, *Exception) {
		a, b := pair(arg.(*Record))
		r, exn := f(a.(*Int).V, b.(*Int).V)
		if exn != nil {
			return nil, exn
		}
		return &Int{V: r}, nil
	}
}

func intCmpOp(f func(a, b int64) bool) HostFunc {
	return func(arg Value) (Value, *Exception) {
		a, b := pair(arg.(*Record))
		return boolValue(f(a.(*Int).V, b.(*Int).V)), nil
	}
}

// boolValue returns the already-bound `true`/`false` nullary
// constructor for b, so every boolean-producing builtin yields the
// same representation `if`/`andalso`/`orelse` match against: bool is
// an ordinary two-constructor datatype (spec.md §3), not a distinct
// primitive value kind.
func boolValue(b bool) Value {
	if b {
		return &ConstructedValue{TypeName_: "bool", Name: "true", ID: idTrue}
	}
	return &ConstructedValue{TypeName_: "bool", Name: "false", ID: idFalse}
}

// GetInitialState produces the primordial environment of spec.md §6:
// built-in types, exceptions, value constructors, and operators with
// their fixity, mirroring the teacher's analogous bootstrap of global
// scope before any user source is processed.
func GetInitialState() *State {
	s := NewRoot()

	for name, arity := range map[string]int{
		"int": 0, "real": 0, "bool": 0, "char": 0, "string": 0,
		"word": 0, "exn": 0, "list": 1, "option": 1, "order": 0,
	} {
		s.BindType(name, &TypeInfo{Arity: arity})
	}
	s.BindType("list", &TypeInfo{Arity: 1, Constructors: []string{"nil", "::"}})
	s.BindType("option", &TypeInfo{Arity: 1, Constructors: []string{"NONE", "SOME"}})
	s.BindType("order", &TypeInfo{Arity: 0, Constructors: []string{"LESS", "EQUAL", "GREATER"}})

	for _, ec := range []*ExceptionConstructor{ExnBind, ExnMatch, ExnDiv, ExnOverflow, ExnChr, ExnSize, ExnSubscript, ExnEmpty, ExnDomain} {
		s.BindException(ec.Name, ec)
		s.BindValue(ec.Name, ec)
		s.BindScheme(ec.Name, types.Mono(types.Exn()))
		s.SetRebindStatus(ec.Name, Never)
	}

	bindNullaryCon := func(name, typeName string, id int, ty types.Type) {
		s.BindValue(name, &ConstructedValue{TypeName_: typeName, Name: name, ID: id})
		s.BindScheme(name, types.Mono(ty))
		s.SetRebindStatus(name, Never)
	}
	bindNullaryCon("true", "bool", idTrue, types.Bool())
	bindNullaryCon("false", "bool", idFalse, types.Bool())
	bindNullaryCon("LESS", "order", idLess, types.Order())
	bindNullaryCon("EQUAL", "order", idEqual, types.Order())
	bindNullaryCon("GREATER", "order", idGreater, types.Order())

	elemA := types.NewVar(false)
	listA := types.List(elemA)
	s.BindValue("nil", &ConstructedValue{TypeName_: "list", Name: "nil", ID: idNil})
	s.BindScheme("nil", &types.Scheme{Vars: []*types.TVar{elemA}, Type: listA})
	s.SetRebindStatus("nil", Never)

	consA := types.NewVar(false)
	consElemTy := &types.Record{Order: []string{"1", "2"}, Complete: true, Fields: map[string]types.Type{
		"1": consA, "2": types.List(consA),
	}}
	s.BindValue("::", &ValueConstructor{TypeName_: "list", Name: "::", ID: idCons})
	s.BindScheme("::", &types.Scheme{Vars: []*types.TVar{consA}, Type: &types.Func{Domain: consElemTy, Codomain: types.List(consA)}})
	s.SetRebindStatus("::", Never)
	bindInfix(s, "::", 5, true)

	someA := types.NewVar(false)
	s.BindValue("NONE", &ConstructedValue{TypeName_: "option", Name: "NONE", ID: idNone})
	s.BindScheme("NONE", &types.Scheme{Vars: []*types.TVar{someA}, Type: types.Option(someA)})
	s.SetRebindStatus("NONE", Never)

	someB := types.NewVar(false)
	s.BindValue("SOME", &ValueConstructor{TypeName_: "option", Name: "SOME", ID: idSome})
	s.BindScheme("SOME", &types.Scheme{Vars: []*types.TVar{someB}, Type: &types.Func{Domain: someB, Codomain: types.Option(someB)}})
	s.SetRebindStatus("SOME", Never)

	s.SetRebindStatus("ref", Never)

	intPair := &types.Func{
		Domain:   types.NewRecord([]string{"1", "2"}, map[string]types.Type{"1": types.Int(), "2": types.Int()}, true),
		Codomain: types.Int(),
	}
	bindPrim(s, "+", types.Mono(intPair), intBinOp(AddInt))
	bindPrim(s, "-", types.Mono(intPair), intBinOp(SubInt))
	bindPrim(s, "*", types.Mono(intPair), intBinOp(MulInt))
	bindPrim(s, "div", types.Mono(intPair), intBinOp(DivInt))
	bindPrim(s, "mod", types.Mono(intPair), intBinOp(ModInt))
	bindInfix(s, "+", 6, false)
	bindInfix(s, "-", 6, false)
	bindInfix(s, "*", 7, false)
	bindInfix(s, "div", 7, false)
	bindInfix(s, "mod", 7, false)

	realPair := &types.Func{
		Domain:   types.NewRecord([]string{"1", "2"}, map[string]types.Type{"1": types.Real(), "2": types.Real()}, true),
		Codomain: types.Real(),
	}
	bindPrim(s, "/", types.Mono(realPair), func(arg Value) (Value, *Exception) {
		a, b := pair(arg.(*Record))
		return &Real{V: a.(*Real).V / b.(*Real).V}, nil
	})
	bindInfix(s, "/", 7, false)

	cmpBool := &types.Func{
		Domain:   types.NewRecord([]string{"1", "2"}, map[string]types.Type{"1": types.Int(), "2": types.Int()}, true),
		Codomain: types.Bool(),
	}
	bindPrim(s, "<", types.Mono(cmpBool), intCmpOp(func(a, b int64) bool { return a < b }))
	bindPrim(s, "<=", types.Mono(cmpBool), intCmpOp(func(a, b int64) bool { return a <= b }))
	bindPrim(s, ">", types.Mono(cmpBool), intCmpOp(func(a, b int64) bool { return a > b }))
	bindPrim(s, ">=", types.Mono(cmpBool), intCmpOp(func(a, b int64) bool { return a >= b }))
	for _, op := range []string{"<", "<=", ">", ">="} {
		bindInfix(s, op, 4, false)
	}

	eqA := types.NewVar(true)
	eqTy := &types.Func{
		Domain:   types.NewRecord([]string{"1", "2"}, map[string]types.Type{"1": eqA, "2": eqA}, true),
		Codomain: types.Bool(),
	}
	bindPrim(s, "=", &types.Scheme{Vars: []*types.TVar{eqA}, Type: eqTy}, func(arg Value) (Value, *Exception) {
		a, b := pair(arg.(*Record))
		return boolValue(Equal(a, b)), nil
	})
	neqA := types.NewVar(true)
	neqTy := &types.Func{
		Domain:   types.NewRecord([]string{"1", "2"}, map[string]types.Type{"1": neqA, "2": neqA}, true),
		Codomain: types.Bool(),
	}
	bindPrim(s, "<>", &types.Scheme{Vars: []*types.TVar{neqA}, Type: neqTy}, func(arg Value) (Value, *Exception) {
		a, b := pair(arg.(*Record))
		return boolValue(!Equal(a, b)), nil
	})
	bindInfix(s, "=", 4, false)
	bindInfix(s, "<>", 4, false)

	strPair := &types.Func{
		Domain:   types.NewRecord([]string{"1", "2"}, map[string]types.Type{"1": types.String(), "2": types.String()}, true),
		Codomain: types.String(),
	}
	bindPrim(s, "^", types.Mono(strPair), func(arg Value) (Value, *Exception) {
		a, b := pair(arg.(*Record))
		return &Str{V: a.(*Str).V + b.(*Str).V}, nil
	})
	bindInfix(s, "^", 6, false)

	appA := types.NewVar(false)
	appTy := &types.Func{
		Domain: types.NewRecord([]string{"1", "2"}, map[string]types.Type{
			"1": types.List(appA), "2": types.List(appA),
		}, true),
		Codomain: types.List(appA),
	}
	bindPrim(s, "@", &types.Scheme{Vars: []*types.TVar{appA}, Type: appTy}, func(arg Value) (Value, *Exception) {
		a, b := pair(arg.(*Record))
		xs, err := toSlice(a)
		if err != nil {
			return nil, err
		}
		rest := b
		for i := len(xs) - 1; i >= 0; i-- {
			rest = cons(xs[i], rest)
		}
		return rest, nil
	})
	bindInfix(s, "@", 5, true)

	oA, oB, oC := types.NewVar(false), types.NewVar(false), types.NewVar(false)
	composeTy := &types.Func{
		Domain: types.NewRecord([]string{"1", "2"}, map[string]types.Type{
			"1": &types.Func{Domain: oB, Codomain: oC},
			"2": &types.Func{Domain: oA, Codomain: oB},
		}, true),
		Codomain: &types.Func{Domain: oA, Codomain: oC},
	}
	bindPrim(s, "o", &types.Scheme{Vars: []*types.TVar{oA, oB, oC}, Type: composeTy}, func(arg Value) (Value, *Exception) {
		f, g := pair(arg.(*Record))
		return &PredefinedFunction{Name: "o", Fn: func(x Value) (Value, *Exception) {
			gx, exn := Apply(g, x)
			if exn != nil {
				return nil, exn
			}
			return Apply(f, gx)
		}}, nil
	})
	bindInfix(s, "o", 3, false)

	return s
}

// Apply invokes any callable Value (a closure, a predefined function,
// or a datatype/exception constructor treated as a function) with arg.
// It is assigned by internal/evaluator at startup, since applying a
// Function closure requires the evaluator's pattern-match and
// expression-evaluation logic; runtime cannot import evaluator without
// creating an import cycle, so the dependency runs the other way.
var Apply func(fn, arg Value) (Value, *Exception)

// cons builds the list value `x :: xs`.
func cons(x, xs Value) Value {
	return &ConstructedValue{TypeName_: "list", Name: "::", ID: idCons, Arg: tupleOf(x, xs)}
}

// toSlice flattens a list value into a Go slice, in order.
func toSlice(v Value) ([]Value, *Exception) {
	var out []Value
	for {
		cv, ok := v.(*ConstructedValue)
		if !ok {
			return out, nil
		}
		if cv.Name == "nil" {
			return out, nil
		}
		head, tail := pair(cv.Arg.(*Record))
		out = append(out, head)
		v = tail
	}
}

