package runtime

import "github.com/basislang/sml/internal/types"

// RebindStatus controls whether a name may be rebound in a child scope
// (spec.md §3): most identifiers default to Allowed, but a handful of
// reserved constructors (true, false, nil, ::, ref) are Never rebindable
// as ordinary value identifiers without going through a datatype
// redeclaration, matching the Standard ML rebind-restriction rules.
type RebindStatus int

const (
	Allowed RebindStatus = iota
	Never
)

// FixityEntry records one operator's declared fixity (spec.md §4.2).
type FixityEntry struct {
	Precedence int
	RightAssoc bool
	Infix      bool // false means the identifier is Nonfix
}

// TypeInfo is the static description of a declared type: its arity and,
// for a datatype, the constructors that belong to it (used by the
// elaborator and by exhaustiveness-adjacent work in the evaluator). A
// `type t = ...` alias additionally carries AliasParams/AliasBody so
// the elaborator can expand an occurrence of t in a type annotation.
type TypeInfo struct {
	Arity        int
	Constructors []string // nil for a type alias or abstract/built-in scalar

	AliasParams []*types.TVar
	AliasBody   types.Type // nil unless this TypeInfo is a `type` alias
}

// State is the single parent-linked environment frame described in
// spec.md §3: it carries static bindings (types, schemes, type
// declarations, exception identities), the dynamic value environment,
// the live fixity table, and rebind-protection status, all in one
// object so that a closure capturing "the state at its point of
// definition" captures every one of these concerns together.
type State struct {
	parent *State

	values   map[string]*types.Scheme
	dynamic  map[string]Value
	typeInfo map[string]*TypeInfo
	exnInfo  map[string]*ExceptionConstructor
	fixity   map[string]FixityEntry
	rebind   map[string]RebindStatus
	modules  map[string]*State
	nextID   *int

	id         int
	generation *int
}

// NewRoot creates the outermost, parentless frame. The id counter
// starts above the block of reserved IDs that builtins.go assigns to
// built-in constructors/exceptions, so that every subsequent
// user-declared datatype or exception is guaranteed a fresh identity.
func NewRoot() *State {
	id := reservedIDCeiling
	gen := 0
	return &State{
		values:     map[string]*types.Scheme{},
		dynamic:    map[string]Value{},
		typeInfo:   map[string]*TypeInfo{},
		exnInfo:    map[string]*ExceptionConstructor{},
		fixity:     map[string]FixityEntry{},
		rebind:     map[string]RebindStatus{},
		modules:    map[string]*State{},
		nextID:     &id,
		generation: &gen,
	}
}

// NewChild opens a nested scope whose writes never affect the parent,
// but whose reads fall through to it when a name is not locally bound.
// Every child is stamped with the next tick of the shared generation
// counter so State.ToString can tell which frames were added by a
// given call to Interpret (spec.md §3 "State.id").
func NewChild(parent *State) *State {
	*parent.generation++
	return &State{
		parent:     parent,
		values:     map[string]*types.Scheme{},
		dynamic:    map[string]Value{},
		typeInfo:   map[string]*TypeInfo{},
		exnInfo:    map[string]*ExceptionConstructor{},
		fixity:     map[string]FixityEntry{},
		rebind:     map[string]RebindStatus{},
		modules:    map[string]*State{},
		nextID:     parent.nextID,
		id:         *parent.generation,
		generation: parent.generation,
	}
}

// ID returns this frame's generation number: 0 for the root, and a
// strictly increasing tick for every child created after it. A host
// embedder can stash the ID of the state returned by a prior Interpret
// call and pass it back as PrintOptions.StopID to render only the
// bindings introduced since then.
func (s *State) ID() int { return s.id }

// Fresh allocates a new process-wide unique integer id, used to give
// each datatype/exception constructor declaration a distinct identity
// even across repeated declarations of the same name.
func (s *State) Fresh() int {
	*s.nextID++
	return *s.nextID
}

func (s *State) LookupScheme(name string) (*types.Scheme, bool) {
	for f := s; f != nil; f = f.parent {
		if sc, ok := f.values[name]; ok {
			return sc, true
		}
	}
	return nil, false
}

func (s *State) BindScheme(name string, sc *types.Scheme) { s.values[name] = sc }

func (s *State) LookupValue(name string) (Value, bool) {
	for f := s; f != nil; f = f.parent {
		if v, ok := f.dynamic[name]; ok {
			return v, true
		}
	}
	return nil, false
}

func (s *State) BindValue(name string, v Value) { s.dynamic[name] = v }

func (s *State) LookupType(name string) (*TypeInfo, bool) {
	for f := s; f != nil; f = f.parent {
		if ti, ok := f.typeInfo[name]; ok {
			return ti, true
		}
	}
	return nil, false
}

func (s *State) BindType(name string, ti *TypeInfo) { s.typeInfo[name] = ti }

func (s *State) LookupException(name string) (*ExceptionConstructor, bool) {
	for f := s; f != nil; f = f.parent {
		if ec, ok := f.exnInfo[name]; ok {
			return ec, true
		}
	}
	return nil, false
}

func (s *State) BindException(name string, ec *ExceptionConstructor) { s.exnInfo[name] = ec }

func (s *State) LookupFixity(name string) (FixityEntry, bool) {
	for f := s; f != nil; f = f.parent {
		if fe, ok := f.fixity[name]; ok {
			return fe, true
		}
	}
	return FixityEntry{}, false
}

func (s *State) BindFixity(name string, fe FixityEntry) { s.fixity[name] = fe }

// SetNonfix removes any infix/infixr status a name previously held,
// which is what the `nonfix` declaration means (spec.md §4.2).
func (s *State) SetNonfix(name string) { s.fixity[name] = FixityEntry{Infix: false} }

func (s *State) RebindStatusOf(name string) RebindStatus {
	for f := s; f != nil; f = f.parent {
		if rs, ok := f.rebind[name]; ok {
			return rs
		}
	}
	return Allowed
}

func (s *State) SetRebindStatus(name string, rs RebindStatus) { s.rebind[name] = rs }

// LocalNames returns every identifier bound in this frame's dynamic value
// environment (used by `open` to re-export a structure's bindings into
// the enclosing frame).
func (s *State) LocalNames() []string {
	names := make([]string, 0, len(s.dynamic))
	for n := range s.dynamic {
		names = append(names, n)
	}
	return names
}

// BindModule/LookupModule register and resolve the namespace `open`
// copies bindings from (spec.md §9(i)): a flat lookup by name, not a
// structure/signature module system. Nothing in this language's
// surface grammar currently produces a module to register here; the
// hook exists so a host embedder can pre-populate one, mirroring how
// spec.md §6 lets the host extend State with predefined functions.
func (s *State) BindModule(name string, m *State) { s.modules[name] = m }

func (s *State) LookupModule(name string) (*State, bool) {
	for f := s; f != nil; f = f.parent {
		if m, ok := f.modules[name]; ok {
			return m, true
		}
	}
	return nil, false
}

// LocalSchemes, LocalTypeInfos, LocalExceptions, and LocalDynamic
// expose exactly this frame's own bindings (not the parent chain), for
// `local`/`abstype`/`open` to copy a child frame's bindings into
// another frame without re-walking scope.
// Parent returns the enclosing frame, or nil for the root, so the
// elaborator can walk the full chain when computing an environment's
// free type variables for generalization.
func (s *State) Parent() *State { return s.parent }

func (s *State) LocalSchemes() map[string]*types.Scheme    { return s.values }
func (s *State) LocalTypeInfos() map[string]*TypeInfo      { return s.typeInfo }
func (s *State) LocalExceptions() map[string]*ExceptionConstructor { return s.exnInfo }
func (s *State) LocalDynamic() map[string]Value            { return s.dynamic }
