package evaluator

import (
	"github.com/basislang/sml/internal/ast"
	"github.com/basislang/sml/internal/runtime"
)

// match attempts to match v against pat, returning the variable
// bindings it introduces. It consults env only to resolve a ConPat's
// name to the constructor identity bound there (spec.md §4.5's pattern
// semantics never requires anything more than a value lookup). A
// pattern's Qualifiers are ignored, mirroring the elaborator's own
// inferPat: this language resolves constructors by flat name (spec.md
// §1's non-goal: no module system beyond long-identifier
// qualification).
func match(pat ast.Pat, v runtime.Value, env *runtime.State) (map[string]runtime.Value, bool) {
	switch p := pat.(type) {
	case *ast.WildcardPat:
		return map[string]runtime.Value{}, true

	case *ast.VarPat:
		return map[string]runtime.Value{p.Name: v}, true

	case *ast.ConstPat:
		return matchConst(p, v)

	case *ast.ConPat:
		return matchCon(p, v, env)

	case *ast.RecordPat:
		return matchRecord(p, v, env)

	case *ast.LayeredPat:
		binds, ok := match(p.Sub, v, env)
		if !ok {
			return nil, false
		}
		binds[p.Name] = v
		return binds, true

	case *ast.TypedPat:
		return match(p.Sub, v, env)

	default:
		return nil, false
	}
}

func matchConst(p *ast.ConstPat, v runtime.Value) (map[string]runtime.Value, bool) {
	ok := false
	switch p.Kind {
	case ast.ConstInt:
		iv, isInt := v.(*runtime.Int)
		ok = isInt && iv.V == p.I
	case ast.ConstWord:
		wv, isWord := v.(*runtime.Word)
		ok = isWord && wv.V == uint64(p.I)
	case ast.ConstReal:
		rv, isReal := v.(*runtime.Real)
		ok = isReal && rv.V == p.R
	case ast.ConstChar:
		cv, isChar := v.(*runtime.Char)
		ok = isChar && cv.V == p.C
	case ast.ConstString:
		sv, isStr := v.(*runtime.Str)
		ok = isStr && sv.V == p.S
	}
	if !ok {
		return nil, false
	}
	return map[string]runtime.Value{}, true
}

// matchCon resolves p.Name's constructor identity, by the same dynamic
// lookup the parser's identifierPattern used when it chose to parse
// this name as a ConPat in the first place, and compares it against v's
// tag by id.
func matchCon(p *ast.ConPat, v runtime.Value, env *runtime.State) (map[string]runtime.Value, bool) {
	bound, ok := env.LookupValue(p.Name)
	if !ok {
		return nil, false
	}
	switch b := bound.(type) {
	case *runtime.ConstructedValue:
		cv, ok := v.(*runtime.ConstructedValue)
		if !ok || cv.ID != b.ID {
			return nil, false
		}
		return map[string]runtime.Value{}, true

	case *runtime.ValueConstructor:
		if b.TypeName_ == "exn" {
			ev, ok := v.(*runtime.ExceptionValue)
			if !ok || ev.ID != b.ID || p.Arg == nil {
				return nil, false
			}
			return match(p.Arg, ev.Arg, env)
		}
		cv, ok := v.(*runtime.ConstructedValue)
		if !ok || cv.ID != b.ID || p.Arg == nil {
			return nil, false
		}
		return match(p.Arg, cv.Arg, env)

	case *runtime.ExceptionConstructor:
		ev, ok := v.(*runtime.ExceptionValue)
		if !ok || ev.ID != b.ID {
			return nil, false
		}
		return map[string]runtime.Value{}, true

	default:
		return nil, false
	}
}

// matchRecord implements spec.md §4.5's record-pattern rule: the value
// must carry every labeled field the pattern names, and a Complete
// (closed) pattern additionally requires the label sets to coincide.
func matchRecord(p *ast.RecordPat, v runtime.Value, env *runtime.State) (map[string]runtime.Value, bool) {
	rv, ok := v.(*runtime.Record)
	if !ok {
		return nil, false
	}
	binds := map[string]runtime.Value{}
	for _, f := range p.Fields {
		fv, ok := rv.Fields[f.Label]
		if !ok {
			return nil, false
		}
		fbinds, ok := match(f.Pat, fv, env)
		if !ok {
			return nil, false
		}
		for k, bv := range fbinds {
			binds[k] = bv
		}
	}
	if p.Complete && len(rv.Order) != len(p.Fields) {
		return nil, false
	}
	return binds, true
}

func bindAll(env *runtime.State, binds map[string]runtime.Value) {
	for name, v := range binds {
		env.BindValue(name, v)
	}
}
