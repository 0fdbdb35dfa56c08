package elaborator

import (
	"github.com/basislang/sml/internal/diag"
	"github.com/basislang/sml/internal/types"
	"github.com/basislang/sml/pkg/token"
)

const (
	TypeMismatch          = "TypeMismatch"
	OccursCheck           = "OccursCheck"
	UnboundIdentifier     = "UnboundIdentifier"
	UnboundConstructor    = "UnboundConstructor"
	EqualityRequired      = "EqualityRequired"
	UnguardedTypeVariable = "UnguardedTypeVariable"
	ArityMismatch         = "ArityMismatch"
	RecordLabelMismatch   = "RecordLabelMismatch"
)

// unify makes a and b equal by binding unbound type variables
// (mutating types.TVar.Instance in place), per spec.md §4.4's Robinson
// unification with an occurs check and the equality-type-variable
// constraint.
func (e *Elaborator) unify(a, b types.Type, pos token.Position) *diag.Error {
	a, b = types.Prune(a), types.Prune(b)

	if av, ok := a.(*types.TVar); ok {
		if bv, ok := b.(*types.TVar); ok && av == bv {
			return nil
		}
		return e.bindVar(av, b, pos)
	}
	if bv, ok := b.(*types.TVar); ok {
		return e.bindVar(bv, a, pos)
	}

	switch an := a.(type) {
	case *types.Con:
		bn, ok := b.(*types.Con)
		if !ok || an.Name != bn.Name || len(an.Args) != len(bn.Args) {
			return diag.NewElaboration(TypeMismatch, pos, "cannot unify %s with %s", a, b)
		}
		for i := range an.Args {
			if err := e.unify(an.Args[i], bn.Args[i], pos); err != nil {
				return err
			}
		}
		return nil

	case *types.Record:
		bn, ok := b.(*types.Record)
		if !ok {
			return diag.NewElaboration(TypeMismatch, pos, "cannot unify %s with %s", a, b)
		}
		return e.unifyRecords(an, bn, pos)

	case *types.Func:
		bn, ok := b.(*types.Func)
		if !ok {
			return diag.NewElaboration(TypeMismatch, pos, "cannot unify %s with %s", a, b)
		}
		if err := e.unify(an.Domain, bn.Domain, pos); err != nil {
			return err
		}
		return e.unify(an.Codomain, bn.Codomain, pos)

	default:
		return diag.NewElaboration(TypeMismatch, pos, "cannot unify %s with %s", a, b)
	}
}

func (e *Elaborator) unifyRecords(a, b *types.Record, pos token.Position) *diag.Error {
	if a.Complete && b.Complete {
		if len(a.Order) != len(b.Order) {
			return diag.NewElaboration(RecordLabelMismatch, pos, "record arity mismatch: %s vs %s", a, b)
		}
		for _, l := range a.Order {
			bt, ok := b.Fields[l]
			if !ok {
				return diag.NewElaboration(RecordLabelMismatch, pos, "record label %q missing from %s", l, b)
			}
			if err := e.unify(a.Fields[l], bt, pos); err != nil {
				return err
			}
		}
		return nil
	}
	// An open row pattern (Complete=false) must have all of its labels
	// present (with matching types) in the other side, but may omit some.
	open, closed := b, a
	if !a.Complete {
		open, closed = a, b
	}
	for _, l := range open.Order {
		ct, ok := closed.Fields[l]
		if !ok {
			return diag.NewElaboration(RecordLabelMismatch, pos, "record label %q missing from %s", l, closed)
		}
		if err := e.unify(open.Fields[l], ct, pos); err != nil {
			return err
		}
	}
	return nil
}

func (e *Elaborator) bindVar(v *types.TVar, t types.Type, pos token.Position) *diag.Error {
	if tv, ok := t.(*types.TVar); ok && tv == v {
		return nil
	}
	if occurs(v, t) {
		return diag.NewElaboration(OccursCheck, pos, "occurs check failed: %s occurs in %s", v, t)
	}
	if v.Equality && !types.AdmitsEquality(t) {
		return diag.NewElaboration(EqualityRequired, pos, "%s requires an equality type, got %s", v, t)
	}
	v.Instance = t
	return nil
}

func occurs(v *types.TVar, t types.Type) bool {
	switch n := types.Prune(t).(type) {
	case *types.TVar:
		return n == v
	case *types.Con:
		for _, a := range n.Args {
			if occurs(v, a) {
				return true
			}
		}
		return false
	case *types.Record:
		for _, l := range n.Order {
			if occurs(v, n.Fields[l]) {
				return true
			}
		}
		return false
	case *types.Func:
		return occurs(v, n.Domain) || occurs(v, n.Codomain)
	default:
		return false
	}
}
