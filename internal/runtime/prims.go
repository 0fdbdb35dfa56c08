package runtime

import (
	"math"
)

// Built-in exception identities, fixed at package init (see reserved.go)
// so that every part of the interpreter raising, say, Div shares the
// same ID that GetInitialState binds into State for `handle` matching.
var (
	ExnBind      = &ExceptionConstructor{Name: "Bind", ID: idExnBind}
	ExnMatch     = &ExceptionConstructor{Name: "Match", ID: idExnMatch}
	ExnDiv       = &ExceptionConstructor{Name: "Div", ID: idExnDiv}
	ExnOverflow  = &ExceptionConstructor{Name: "Overflow", ID: idExnOverflow}
	ExnChr       = &ExceptionConstructor{Name: "Chr", ID: idExnChr}
	ExnSize      = &ExceptionConstructor{Name: "Size", ID: idExnSize}
	ExnSubscript = &ExceptionConstructor{Name: "Subscript", ID: idExnSubscript}
	ExnEmpty     = &ExceptionConstructor{Name: "Empty", ID: idExnEmpty}
	ExnDomain    = &ExceptionConstructor{Name: "Domain", ID: idExnDomain}
)

// maxInt/minInt bound int to the 31-bit tagged range spec.md §8
// scenario 2 tests against (`fac 14` overflows): one bit reserved for
// a tag, as SML/NJ's default boxed-free `int` representation does,
// leaving [-2^30, 2^30-1].
const (
	maxInt int64 = 1<<30 - 1
	minInt int64 = -(1 << 30)
)

func overflowsAdd(a, b int64) bool {
	r := a + b
	return ((a > 0 && b > 0 && r <= 0) || (a < 0 && b < 0 && r >= 0) || r > maxInt || r < minInt)
}

func overflowsSub(a, b int64) bool {
	r := a - b
	return ((a >= 0 && b < 0 && r < 0) || (a < 0 && b > 0 && r > 0) || r > maxInt || r < minInt)
}

func overflowsMul(a, b int64) bool {
	if a == 0 || b == 0 {
		return false
	}
	r := a * b
	if r/b != a {
		return true
	}
	return r > maxInt || r < minInt
}

// AddInt, SubInt, MulInt implement `+`, `-`, `*` on int, raising
// Overflow on the fixed-precision boundary (spec.md §6).
func AddInt(a, b int64) (int64, *Exception) {
	if overflowsAdd(a, b) {
		return 0, RaiseBuiltin(ExnOverflow)
	}
	return a + b, nil
}

func SubInt(a, b int64) (int64, *Exception) {
	if overflowsSub(a, b) {
		return 0, RaiseBuiltin(ExnOverflow)
	}
	return a - b, nil
}

func MulInt(a, b int64) (int64, *Exception) {
	if overflowsMul(a, b) {
		return 0, RaiseBuiltin(ExnOverflow)
	}
	return a * b, nil
}

// DivInt, ModInt implement `div`/`mod` with floor-division semantics,
// raising Div on a zero divisor (spec.md §6).
func DivInt(a, b int64) (int64, *Exception) {
	if b == 0 {
		return 0, RaiseBuiltin(ExnDiv)
	}
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q, nil
}

func ModInt(a, b int64) (int64, *Exception) {
	if b == 0 {
		return 0, RaiseBuiltin(ExnDiv)
	}
	m := a % b
	if m != 0 && ((a < 0) != (b < 0)) {
		m += b
	}
	return m, nil
}

func NegInt(a int64) (int64, *Exception) {
	if a == minInt {
		return 0, RaiseBuiltin(ExnOverflow)
	}
	return -a, nil
}

func AbsInt(a int64) (int64, *Exception) {
	if a < 0 {
		return NegInt(a)
	}
	return a, nil
}

// Chr converts a code point to a Char, raising Chr outside 0..255
// (spec.md treats `char` as the Latin-1 byte range like the Basis
// library's CHAR structure).
func Chr(code int64) (rune, *Exception) {
	if code < 0 || code > 255 {
		return 0, RaiseBuiltin(ExnChr)
	}
	return rune(code), nil
}

// Equal implements SML structural `=`/`<>` over equality types. It
// assumes its caller (the elaborator) already rejected comparisons
// involving function or real-containing types.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case *Int:
		y, ok := b.(*Int)
		return ok && x.V == y.V
	case *Word:
		y, ok := b.(*Word)
		return ok && x.V == y.V
	case *Char:
		y, ok := b.(*Char)
		return ok && x.V == y.V
	case *Str:
		y, ok := b.(*Str)
		return ok && x.V == y.V
	case *Record:
		y, ok := b.(*Record)
		if !ok || len(x.Order) != len(y.Order) {
			return false
		}
		for _, l := range x.Order {
			yv, ok := y.Fields[l]
			if !ok || !Equal(x.Fields[l], yv) {
				return false
			}
		}
		return true
	case *ConstructedValue:
		y, ok := b.(*ConstructedValue)
		if !ok || x.ID != y.ID {
			return false
		}
		if x.Arg == nil || y.Arg == nil {
			return x.Arg == nil && y.Arg == nil
		}
		return Equal(x.Arg, y.Arg)
	case *ExceptionValue:
		y, ok := b.(*ExceptionValue)
		if !ok || x.ID != y.ID {
			return false
		}
		if x.Arg == nil || y.Arg == nil {
			return x.Arg == nil && y.Arg == nil
		}
		return Equal(x.Arg, y.Arg)
	default:
		return false
	}
}

// Compare implements the total order used by `<`, `<=`, `>`, `>=` over
// int, word, real, char, and string (spec.md §6).
func Compare(a, b Value) int {
	switch x := a.(type) {
	case *Int:
		y := b.(*Int)
		switch {
		case x.V < y.V:
			return -1
		case x.V > y.V:
			return 1
		default:
			return 0
		}
	case *Word:
		y := b.(*Word)
		switch {
		case x.V < y.V:
			return -1
		case x.V > y.V:
			return 1
		default:
			return 0
		}
	case *Real:
		y := b.(*Real)
		switch {
		case x.V < y.V:
			return -1
		case x.V > y.V:
			return 1
		default:
			return 0
		}
	case *Char:
		y := b.(*Char)
		switch {
		case x.V < y.V:
			return -1
		case x.V > y.V:
			return 1
		default:
			return 0
		}
	case *Str:
		y := b.(*Str)
		return stringCompare(x.V, y.V)
	}
	return 0
}

func stringCompare(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// RealIsFinite reports whether f is neither NaN nor infinite.
func RealIsFinite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
