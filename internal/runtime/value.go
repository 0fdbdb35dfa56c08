// Package runtime holds both the dynamic environment (State) and the
// runtime Value representation. The two live in one package because a
// Function value must capture a *State (its defining environment) while
// State stores Values in its dynamic bindings: splitting them into
// separate packages would force a mutual import cycle. The teacher's
// own internal/interp package combines value.go and environment.go for
// the analogous reason.
package runtime

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/basislang/sml/internal/core"
)

// Value is implemented by every runtime value variant (spec.md §3).
type Value interface {
	valueNode()
	TypeName() string
	String() string
}

type Int struct{ V int64 }
type Word struct{ V uint64 }
type Real struct{ V float64 }
type Char struct{ V rune }
type Str struct{ V string }

func (*Int) valueNode()  {}
func (*Word) valueNode() {}
func (*Real) valueNode() {}
func (*Char) valueNode() {}
func (*Str) valueNode()  {}

func (*Int) TypeName() string  { return "int" }
func (*Word) TypeName() string { return "word" }
func (*Real) TypeName() string { return "real" }
func (*Char) TypeName() string { return "char" }
func (*Str) TypeName() string  { return "string" }

func (v *Int) String() string  { return strconv.FormatInt(v.V, 10) }
func (v *Word) String() string { return "0wx" + strconv.FormatUint(v.V, 16) }
func (v *Real) String() string { return formatReal(v.V) }
func (v *Char) String() string { return "#\"" + escapeChar(v.V) + "\"" }
func (v *Str) String() string  { return "\"" + escapeString(v.V) + "\"" }

func formatReal(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return strings.ReplaceAll(s, "-", "~")
}

func escapeChar(r rune) string { return escapeString(string(r)) }

func escapeString(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString("\\\"")
		case '\\':
			b.WriteString("\\\\")
		case '\n':
			b.WriteString("\\n")
		case '\t':
			b.WriteString("\\t")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// RecordField is one labeled component of a Record value.
type RecordField struct {
	Label string
	Value Value
}

// Record is the runtime representation of both records and tuples
// (tuples use numeric labels "1".."n"); Order preserves declaration
// order for printing while Fields gives label-keyed lookup.
type Record struct {
	Order  []string
	Fields map[string]Value
}

func (*Record) valueNode()       {}
func (*Record) TypeName() string { return "record" }

func (r *Record) IsTuple() bool {
	for i, l := range r.Order {
		if l != strconv.Itoa(i+1) {
			return false
		}
	}
	return true
}

func (r *Record) String() string {
	if len(r.Order) == 0 {
		return "()"
	}
	if r.IsTuple() {
		parts := make([]string, len(r.Order))
		for i, l := range r.Order {
			parts[i] = r.Fields[l].String()
		}
		if len(parts) == 1 {
			return parts[0]
		}
		return "(" + strings.Join(parts, ",") + ")"
	}
	labels := append([]string{}, r.Order...)
	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = l + "=" + r.Fields[l].String()
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// Function is a closure: a match together with the State frame active
// at the point of its `fn`. RecName is non-empty for a `val rec` binding
// so the closure's own environment can expose itself for recursive
// calls (spec.md's "cyclic closure graphs" design note, §9(i)).
type Function struct {
	Match   *core.Match
	Env     *State
	RecName string
}

func (*Function) valueNode()       {}
func (*Function) TypeName() string { return "fn" }
func (*Function) String() string   { return "fn" }

// HostFunc is the signature every predefined (built-in) function
// implements: it receives only the argument value (no State) and
// either returns a result or raises by returning a non-nil *Exception.
type HostFunc func(arg Value) (Value, *Exception)

// PredefinedFunction wraps a built-in like `+`, `explode`, or `print`.
type PredefinedFunction struct {
	Name string
	Fn   HostFunc
}

func (*PredefinedFunction) valueNode()       {}
func (*PredefinedFunction) TypeName() string { return "fn" }
func (*PredefinedFunction) String() string   { return "fn" }

// ValueConstructor is an unapplied datatype constructor, e.g. `SOME`
// or `::`, considered as a value until applied. Nullary constructors
// such as `NONE` are represented directly as ConstructedValue with a
// nil Arg, never as a ValueConstructor.
type ValueConstructor struct {
	TypeName_ string
	Name      string
	ID        int
}

func (*ValueConstructor) valueNode()       {}
func (c *ValueConstructor) TypeName() string { return "fn" }
func (c *ValueConstructor) String() string   { return c.Name }

// ConstructedValue is a datatype value: either nullary (Arg == nil) or
// applied to one argument value (records/tuples supply multiple
// "arguments" via a single Record argument, per SML's rule that
// constructors take at most one argument).
type ConstructedValue struct {
	TypeName_ string
	Name      string
	ID        int
	Arg       Value // nil for a nullary constructor
}

func (*ConstructedValue) valueNode() {}
func (c *ConstructedValue) TypeName() string { return c.TypeName_ }
func (c *ConstructedValue) String() string {
	if c.Arg == nil {
		return c.Name
	}
	arg := c.Arg.String()
	if r, ok := c.Arg.(*Record); ok && r.IsTuple() && len(r.Order) > 1 {
		return c.Name + " " + arg
	}
	return c.Name + " " + parenthesize(c.Arg)
}

func parenthesize(v Value) string {
	switch n := v.(type) {
	case *ConstructedValue:
		if n.Arg != nil {
			return "(" + n.String() + ")"
		}
	}
	return v.String()
}

// ExceptionConstructor is an unapplied exception constructor, e.g. the
// bare name `Fail` before it is applied to build an ExceptionValue.
type ExceptionConstructor struct {
	Name string
	ID   int
}

func (*ExceptionConstructor) valueNode()       {}
func (*ExceptionConstructor) TypeName() string { return "exn" }
func (e *ExceptionConstructor) String() string { return e.Name }

// ExceptionValue is a raised/raisable exception packet: a constructor
// identity (by ID, since two distinct `exception E` declarations with
// the same textual name must stay distinct, spec.md §4.5) plus an
// optional carried value.
type ExceptionValue struct {
	Name string
	ID   int
	Arg  Value // nil if the exception carries no value
}

func (*ExceptionValue) valueNode()       {}
func (*ExceptionValue) TypeName() string { return "exn" }
func (e *ExceptionValue) String() string {
	if e.Arg == nil {
		return e.Name
	}
	return e.Name + " " + parenthesize(e.Arg)
}

// Exception is the Go-level carrier for a raised SML exception as it
// propagates through the evaluator's call stack (distinct from
// diag.Error, which aborts lexing/parsing/elaboration instead).
type Exception struct {
	Value *ExceptionValue
}

func (e *Exception) Error() string { return fmt.Sprintf("uncaught exception %s", e.Value.String()) }

// NewUserException allocates a fresh exception identity for a
// user-declared `exception E` (or `exception E of ty`), scoped to the
// given State's id counter so it can never collide with a built-in or
// with any other exception declared elsewhere in the run.
func NewUserException(s *State, name string) *ExceptionConstructor {
	return &ExceptionConstructor{Name: name, ID: s.Fresh()}
}

// RaiseBuiltin constructs the Exception carrier for a built-in,
// argument-less exception (Bind, Match, Div, Overflow, Chr, Size,
// Subscript, Empty, Domain).
func RaiseBuiltin(c *ExceptionConstructor) *Exception {
	return &Exception{Value: &ExceptionValue{Name: c.Name, ID: c.ID}}
}

// Raise constructs the Exception carrier for any exception constructor,
// built-in or user-declared, optionally carrying a payload value.
func Raise(c *ExceptionConstructor, arg Value) *Exception {
	return &Exception{Value: &ExceptionValue{Name: c.Name, ID: c.ID, Arg: arg}}
}
