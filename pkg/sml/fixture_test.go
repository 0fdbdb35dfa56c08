package sml

import (
	"fmt"
	"os"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
)

// TestMain lets go-snaps prune any snapshot entries that no longer
// correspond to a fixture below, the way the teacher's fixture suite
// does (go-snaps.CleanAfter / snaps.Clean at the end of the run).
func TestMain(m *testing.M) {
	v := m.Run()
	snaps.Clean(m)
	os.Exit(v)
}

// fixture is one chunk of source run against a fresh initial state,
// with its rendered bindings and any warnings captured into a
// snapshot. Mirrors the teacher's table-driven fixture categories,
// scaled down to this language's own representative programs instead
// of a ported DWScript test corpus.
type fixture struct {
	name   string
	source string
}

var fixtures = []fixture{
	{
		name:   "ArithmeticAndLet",
		source: "val x = 4*7+3; val y = let val z = x*2 in z+1 end;",
	},
	{
		name:   "RecursiveFactorial",
		source: "val rec fac = fn n => if n<1 then 1 else n*fac(n-1); val ten = fac 10;",
	},
	{
		name:   "DatatypeAndCase",
		source: `datatype 'a tree = Leaf | Node of 'a tree * 'a * 'a tree;
fun size Leaf = 0 | size (Node(l,_,r)) = 1 + size l + size r;
val s = size (Node(Leaf, 1, Node(Leaf,2,Leaf)));`,
	},
	{
		name:   "UserExceptionHandled",
		source: "exception Bad of int; val caught = (raise Bad 7) handle Bad n => n;",
	},
	{
		name:   "UserInfixOperator",
		source: "infix 5 ++; fun a ++ b = a+b+1; val total = 2 ++ 3 ++ 4;",
	},
}

// TestFixtures snapshots the rendered binding set each fixture program
// introduces, so a regression in elaboration or evaluation shows up as
// a snapshot diff instead of a silently wrong value.
func TestFixtures(t *testing.T) {
	for _, fx := range fixtures {
		fx := fx
		t.Run(fx.name, func(t *testing.T) {
			state := GetInitialState()
			stopID := state.ID()
			res := Interpret(fx.source, state, Options{})
			if res.EvaluationErrored {
				if res.Error != nil {
					t.Fatalf("unexpected error: %s", res.Error.Format())
				}
				t.Fatalf("unexpected uncaught exception: %v", res.Exception)
			}
			rendered := res.State.ToString(PrintOptions{StopID: stopID})
			snaps.MatchSnapshot(t, fmt.Sprintf("%s_bindings", fx.name), rendered)
		})
	}
}
