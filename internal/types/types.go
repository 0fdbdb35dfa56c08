// Package types implements the static type representation, Robinson
// unification, and Hindley-Milner generalization/instantiation used by
// internal/elaborator (spec.md §4.4).
package types

import (
	"fmt"
	"sort"
	"strings"
)

// Type is implemented by every static type node (spec.md §3). Tuples are
// not a distinct variant: a tuple type is sugar for a Record whose
// labels are "1".."n" and which is Complete.
type Type interface {
	typeNode()
	String() string
}

var tvarCounter int

// TVar is a mutable type variable in the classic union-find style:
// Instance is nil while unbound, and is set (once) when unification
// binds it. Equality marks a variable whose name began with two primes
// in source (spec.md §3) and therefore requires its eventual binding to
// admit equality comparison.
type TVar struct {
	ID       int
	Name     string
	Equality bool
	Instance Type // nil while unbound
}

// NewVar allocates a fresh, unbound type variable.
func NewVar(equality bool) *TVar {
	tvarCounter++
	prefix := "'"
	if equality {
		prefix = "''"
	}
	return &TVar{ID: tvarCounter, Name: fmt.Sprintf("%sa%d", prefix, tvarCounter), Equality: equality}
}

func (*TVar) typeNode() {}
func (v *TVar) String() string {
	if r := Prune(v); r != Type(v) {
		return r.String()
	}
	return v.Name
}

// Con is a type constructor applied to zero or more arguments: `int`,
// `bool`, `'a list`, `('a,'b) tree`.
type Con struct {
	Name string
	Args []Type
}

func (*Con) typeNode() {}
func (c *Con) String() string {
	switch len(c.Args) {
	case 0:
		return c.Name
	case 1:
		return c.Args[0].String() + " " + c.Name
	default:
		parts := make([]string, len(c.Args))
		for i, a := range c.Args {
			parts[i] = a.String()
		}
		return "(" + strings.Join(parts, ",") + ") " + c.Name
	}
}

// Record is a labeled product type. Complete=false marks an open row,
// valid only as the type of a pattern with a trailing `...` (spec.md §3).
type Record struct {
	Fields   map[string]Type
	Order    []string
	Complete bool
}

func NewRecord(order []string, fields map[string]Type, complete bool) *Record {
	return &Record{Fields: fields, Order: order, Complete: complete}
}

// IsTuple reports whether r's labels are exactly "1".."n" in order,
// which is how tuple types are represented (spec.md §3).
func (r *Record) IsTuple() bool {
	for i, l := range r.Order {
		if l != fmt.Sprintf("%d", i+1) {
			return false
		}
	}
	return true
}

func (*Record) typeNode() {}
func (r *Record) String() string {
	if r.IsTuple() && len(r.Order) != 1 {
		parts := make([]string, len(r.Order))
		for i, l := range r.Order {
			parts[i] = r.Fields[l].String()
		}
		if len(parts) == 0 {
			return "unit"
		}
		return strings.Join(parts, " * ")
	}
	labels := append([]string{}, r.Order...)
	sort.Strings(labels)
	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		parts = append(parts, l+":"+r.Fields[l].String())
	}
	if !r.Complete {
		parts = append(parts, "...")
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Func is a function type `domain -> codomain`.
type Func struct {
	Domain, Codomain Type
}

func (*Func) typeNode() {}
func (f *Func) String() string {
	dom := f.Domain.String()
	if _, ok := Prune(f.Domain).(*Func); ok {
		dom = "(" + dom + ")"
	}
	return dom + " -> " + f.Codomain.String()
}

// Prune follows a chain of bound type variables to the representative
// type, compressing the chain as it goes (classic union-find path
// compression applied to unification).
func Prune(t Type) Type {
	v, ok := t.(*TVar)
	if !ok || v.Instance == nil {
		return t
	}
	root := Prune(v.Instance)
	v.Instance = root
	return root
}

// Scheme is a type scheme `forall vars. type` (spec.md §4.4). Only `val`
// bindings generalize to a Scheme with a non-empty Vars set; monomorphic
// bindings (including those subject to the value restriction) carry an
// empty Vars slice.
type Scheme struct {
	Vars []*TVar
	Type Type
}

// Mono wraps a type with no quantified variables.
func Mono(t Type) *Scheme { return &Scheme{Type: t} }

// Instantiate substitutes fresh type variables for every quantified
// variable of the scheme, per lookup, as spec.md §4.4 requires.
func (s *Scheme) Instantiate() Type {
	if len(s.Vars) == 0 {
		return s.Type
	}
	sub := make(map[*TVar]Type, len(s.Vars))
	for _, v := range s.Vars {
		sub[v] = NewVar(v.Equality)
	}
	return substitute(s.Type, sub)
}

// Substitute replaces every occurrence of a variable in sub's domain
// with its mapped type; used both by Scheme.Instantiate and by the
// elaborator to expand a `type` alias applied to concrete arguments.
func Substitute(t Type, sub map[*TVar]Type) Type { return substitute(t, sub) }

func substitute(t Type, sub map[*TVar]Type) Type {
	switch n := Prune(t).(type) {
	case *TVar:
		if repl, ok := sub[n]; ok {
			return repl
		}
		return n
	case *Con:
		args := make([]Type, len(n.Args))
		for i, a := range n.Args {
			args[i] = substitute(a, sub)
		}
		return &Con{Name: n.Name, Args: args}
	case *Record:
		fields := make(map[string]Type, len(n.Fields))
		for k, v := range n.Fields {
			fields[k] = substitute(v, sub)
		}
		return &Record{Fields: fields, Order: append([]string{}, n.Order...), Complete: n.Complete}
	case *Func:
		return &Func{Domain: substitute(n.Domain, sub), Codomain: substitute(n.Codomain, sub)}
	default:
		return t
	}
}

// FreeVars returns the set of unbound type variables occurring in t.
func FreeVars(t Type) map[*TVar]bool {
	out := map[*TVar]bool{}
	collectFreeVars(t, out)
	return out
}

func collectFreeVars(t Type, out map[*TVar]bool) {
	switch n := Prune(t).(type) {
	case *TVar:
		out[n] = true
	case *Con:
		for _, a := range n.Args {
			collectFreeVars(a, out)
		}
	case *Record:
		for _, f := range n.Order {
			collectFreeVars(n.Fields[f], out)
		}
	case *Func:
		collectFreeVars(n.Domain, out)
		collectFreeVars(n.Codomain, out)
	}
}

// AdmitsEquality reports whether t is an equality type: primitive
// non-real types, or tuples/records/constructed types whose components
// all admit equality, but never a function type (spec.md §4.4).
func AdmitsEquality(t Type) bool {
	switch n := Prune(t).(type) {
	case *TVar:
		return true // unconstrained; resolved once bound
	case *Func:
		return false
	case *Record:
		for _, l := range n.Order {
			if !AdmitsEquality(n.Fields[l]) {
				return false
			}
		}
		return true
	case *Con:
		switch n.Name {
		case "real":
			return false
		case "int", "word", "bool", "char", "string", "exn":
			return true
		default:
			for _, a := range n.Args {
				if !AdmitsEquality(a) {
					return false
				}
			}
			return true
		}
	default:
		return false
	}
}

// Convenience constructors for the built-in primitive types.
func Int() Type    { return &Con{Name: "int"} }
func Word() Type   { return &Con{Name: "word"} }
func Real() Type   { return &Con{Name: "real"} }
func Bool() Type   { return &Con{Name: "bool"} }
func Char() Type   { return &Con{Name: "char"} }
func String() Type { return &Con{Name: "string"} }
func Exn() Type    { return &Con{Name: "exn"} }
func Unit() Type   { return &Record{Fields: map[string]Type{}, Complete: true} }
func List(elem Type) Type   { return &Con{Name: "list", Args: []Type{elem}} }
func Option(elem Type) Type { return &Con{Name: "option", Args: []Type{elem}} }
func Order() Type           { return &Con{Name: "order"} }
