package sml

import (
	"testing"

	"github.com/basislang/sml/internal/runtime"
)

// chunk runs one Interpret call against a freshly built initial state
// and fails the test immediately on any reported error.
func chunk(t *testing.T, source string) Result {
	t.Helper()
	res := Interpret(source, GetInitialState(), Options{})
	if res.EvaluationErrored {
		if res.Error != nil {
			t.Fatalf("unexpected error interpreting %q: %s", source, res.Error.Format())
		}
		t.Fatalf("unexpected uncaught exception interpreting %q: %v", source, res.Exception)
	}
	return res
}

// boolOf reports the bool a runtime value represents, true/false being
// the nullary constructors of the built-in `bool` datatype rather than
// a dedicated primitive kind (spec.md §3).
func boolOf(t *testing.T, v runtime.Value) bool {
	t.Helper()
	c, ok := v.(*runtime.ConstructedValue)
	if !ok || c.TypeName_ != "bool" {
		t.Fatalf("expected a bool value, got %T", v)
	}
	return c.Name == "true"
}

func lookupInt(t *testing.T, s *State, name string) int64 {
	t.Helper()
	v, ok := s.LookupValue(name)
	if !ok {
		t.Fatalf("expected %s to be bound", name)
	}
	i, ok := v.(*runtime.Int)
	if !ok {
		t.Fatalf("expected %s to be an Int, got %T", name, v)
	}
	return i.V
}

// TestArithmeticScenario is spec.md §8 scenario 1.
func TestArithmeticScenario(t *testing.T) {
	res := chunk(t, "val x = 4*7+3;")
	if got := lookupInt(t, res.State, "x"); got != 31 {
		t.Fatalf("expected x = 31, got %d", got)
	}
}

// TestFactorialAndOverflowScenario is spec.md §8 scenario 2.
func TestFactorialAndOverflowScenario(t *testing.T) {
	state := GetInitialState()
	res := Interpret("val rec fac = fn n => if n<1 then 1 else n*fac(n-1);", state, Options{})
	if res.EvaluationErrored {
		t.Fatalf("unexpected error: %v", res.Error)
	}
	state = res.State

	res = Interpret("fac 10;", state, Options{})
	if res.EvaluationErrored {
		t.Fatalf("unexpected error: %v", res.Error)
	}
	if got := lookupInt(t, res.State, "it"); got != 3628800 {
		t.Fatalf("expected it = 3628800, got %d", got)
	}
	state = res.State

	res = Interpret("fac 14;", state, Options{})
	if !res.EvaluationErrored || res.Exception == nil {
		t.Fatalf("expected an uncaught Overflow exception, got %+v", res)
	}
	if res.Exception.Value.Name != "Overflow" {
		t.Fatalf("expected Overflow, got %s", res.Exception.Value.Name)
	}
	// The state returned on an uncaught exception equals the state
	// passed in (spec.md §7).
	if res.State != state {
		t.Fatalf("expected the pre-chunk state to be returned unchanged")
	}
}

// TestSwapScenario is spec.md §8 scenario 3.
func TestSwapScenario(t *testing.T) {
	state := GetInitialState()
	res := Interpret("fun swap (x,y) = (y,x);", state, Options{})
	if res.EvaluationErrored {
		t.Fatalf("unexpected error: %v", res.Error)
	}
	res = Interpret("swap (3, true);", res.State, Options{})
	if res.EvaluationErrored {
		t.Fatalf("unexpected error: %v", res.Error)
	}
	v, ok := res.State.LookupValue("it")
	if !ok {
		t.Fatal("expected it to be bound")
	}
	r, ok := v.(*runtime.Record)
	if !ok || !r.IsTuple() {
		t.Fatalf("expected a tuple, got %T", v)
	}
	if !boolOf(t, r.Fields["1"]) {
		t.Fatalf("expected first component true, got %v", r.Fields["1"])
	}
	if r.Fields["2"].(*runtime.Int).V != 3 {
		t.Fatalf("expected second component 3, got %v", r.Fields["2"])
	}
}

// TestTreeSizeScenario is spec.md §8 scenario 4.
func TestTreeSizeScenario(t *testing.T) {
	state := GetInitialState()
	res := Interpret(`datatype 'a tree = Leaf | Node of 'a tree * 'a * 'a tree;
		fun size Leaf = 0 | size (Node(l,_,r)) = 1 + size l + size r;`, state, Options{})
	if res.EvaluationErrored {
		t.Fatalf("unexpected error: %v", res.Error)
	}
	res = Interpret("size (Node(Leaf, 1, Node(Leaf,2,Leaf)));", res.State, Options{})
	if res.EvaluationErrored {
		t.Fatalf("unexpected error: %v", res.Error)
	}
	if got := lookupInt(t, res.State, "it"); got != 2 {
		t.Fatalf("expected it = 2, got %d", got)
	}
}

// TestUserExceptionScenario is spec.md §8 scenario 5.
func TestUserExceptionScenario(t *testing.T) {
	state := GetInitialState()
	res := Interpret("exception Bad of int;", state, Options{})
	if res.EvaluationErrored {
		t.Fatalf("unexpected error: %v", res.Error)
	}
	res = Interpret("(raise Bad 7) handle Bad n => n;", res.State, Options{})
	if res.EvaluationErrored {
		t.Fatalf("unexpected error: %v", res.Error)
	}
	if got := lookupInt(t, res.State, "it"); got != 7 {
		t.Fatalf("expected it = 7, got %d", got)
	}
}

// TestFixityScenario is spec.md §8 scenario 6.
func TestFixityScenario(t *testing.T) {
	state := GetInitialState()
	res := Interpret("infix 5 ++; fun a ++ b = a+b+1;", state, Options{})
	if res.EvaluationErrored {
		t.Fatalf("unexpected error: %v", res.Error)
	}
	res = Interpret("2 ++ 3 ++ 4;", res.State, Options{})
	if res.EvaluationErrored {
		t.Fatalf("unexpected error: %v", res.Error)
	}
	if got := lookupInt(t, res.State, "it"); got != 11 {
		t.Fatalf("expected it = 11 (left-associative), got %d", got)
	}

	res = Interpret("infixr 5 ++;", res.State, Options{})
	if res.EvaluationErrored {
		t.Fatalf("unexpected error: %v", res.Error)
	}
	res = Interpret("2 ++ 3 ++ 4;", res.State, Options{})
	if res.EvaluationErrored {
		t.Fatalf("unexpected error: %v", res.Error)
	}
	if got := lookupInt(t, res.State, "it"); got != 11 {
		t.Fatalf("expected it = 11 (right-associative gives the same sum here), got %d", got)
	}

	state = GetInitialState()
	res = Interpret("infix 5 ++; infixr 5 **; fun a ++ b = a+b; fun a ** b = a+b;", state, Options{})
	if res.EvaluationErrored {
		t.Fatalf("unexpected error: %v", res.Error)
	}
	res = Interpret("1 ++ 2 ** 3;", res.State, Options{})
	if !res.EvaluationErrored || res.Error == nil {
		t.Fatalf("expected a ParserError for colliding associativities, got %+v", res)
	}
}

// TestMutualRecursionScenario checks that `fun f ... and g ...` joins
// distinct names into one letrec group (spec.md §1, §3 invariant I2),
// so each body can call the other's name rather than only itself.
func TestMutualRecursionScenario(t *testing.T) {
	state := GetInitialState()
	res := Interpret(`fun isEven n = if n = 0 then true else isOdd (n-1)
		and isOdd n = if n = 0 then false else isEven (n-1);`, state, Options{})
	if res.EvaluationErrored {
		t.Fatalf("unexpected error: %v", res.Error)
	}
	res = Interpret("isEven 10;", res.State, Options{})
	if res.EvaluationErrored {
		t.Fatalf("unexpected error: %v", res.Error)
	}
	v, ok := res.State.LookupValue("it")
	if !ok {
		t.Fatal("expected it to be bound")
	}
	if !boolOf(t, v) {
		t.Fatalf("expected isEven 10 = true, got %v", v)
	}
	res = Interpret("isOdd 10;", res.State, Options{})
	if res.EvaluationErrored {
		t.Fatalf("unexpected error: %v", res.Error)
	}
	v, ok = res.State.LookupValue("it")
	if !ok {
		t.Fatal("expected it to be bound")
	}
	if boolOf(t, v) {
		t.Fatalf("expected isOdd 10 = false, got %v", v)
	}
}

// TestRebindProtection checks spec.md §8's rebind-protection property.
func TestRebindProtection(t *testing.T) {
	state := GetInitialState()
	for _, src := range []string{"datatype d = true | false;", "exception nil;"} {
		res := Interpret(src, state, Options{})
		if !res.EvaluationErrored || res.Error == nil {
			t.Fatalf("expected rebinding a protected identifier to fail for %q, got %+v", src, res)
		}
	}
}

// TestErroredChunkLeavesStateUnchanged checks spec.md §7's "the state
// returned on error equals the state before the chunk".
func TestErroredChunkLeavesStateUnchanged(t *testing.T) {
	state := GetInitialState()
	res := Interpret("val x = 1 + true;", state, Options{})
	if !res.EvaluationErrored {
		t.Fatal("expected a type error")
	}
	if res.State != state {
		t.Fatal("expected the original state back unchanged")
	}
	if _, ok := state.LookupValue("x"); ok {
		t.Fatal("x must not be bound after a failed chunk")
	}
}

func TestToStringRendersNewBindingsOnly(t *testing.T) {
	state := GetInitialState()
	stopID := state.ID()
	res := Interpret("val a = 1; val b = 2;", state, Options{})
	if res.EvaluationErrored {
		t.Fatalf("unexpected error: %v", res.Error)
	}
	out := res.State.ToString(PrintOptions{StopID: stopID})
	if out == "" {
		t.Fatal("expected non-empty rendering of new bindings")
	}
	if !contains(out, "val a : int = 1") || !contains(out, "val b : int = 2") {
		t.Fatalf("expected both a and b rendered, got %q", out)
	}
}

func contains(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}
