// Package core defines the lowered calculus that internal/ast.Simplify
// produces and that both the elaborator and the evaluator consume
// exclusively (spec.md §4.3): variables/literals, records (tuples are
// records with numeric labels), function literals built from a match,
// application, typed expressions, `raise`, `handle`, `case`, and
// `let`-in-end. Declarations still carry patterns and literals from
// internal/ast (they need no further lowering) but the expressions
// inside them are always core.Expr.
package core

import "github.com/basislang/sml/internal/ast"

type Pos = ast.Pos

type Expr interface {
	exprNode()
	Pos() Pos
}

type Var struct {
	Qualifiers []string
	Name       string
	P          Pos
}

type LitKind int

const (
	LitInt LitKind = iota
	LitWord
	LitReal
	LitChar
	LitString
)

type Lit struct {
	Kind LitKind
	I    int64
	R    float64
	C    rune
	S    string
	P    Pos
}

type RecordField struct {
	Label string
	Value Expr
}

// Record is the single aggregate construct: a tuple `(a,b)` is a Record
// with labels "1","2".
type Record struct {
	Fields []RecordField
	P      Pos
}

type Clause struct {
	Pat  ast.Pat
	Body Expr
}

type Match struct {
	Clauses []Clause
	P       Pos
}

type Fn struct {
	M *Match
	P Pos
}

type App struct {
	Fun, Arg Expr
	P        Pos
}

type Typed struct {
	Sub  Expr
	Type ast.TypeExpr
	P    Pos
}

type Raise struct {
	Exn Expr
	P   Pos
}

type Handle struct {
	Body Expr
	M    *Match
	P    Pos
}

type Case struct {
	Scrutinee Expr
	M         *Match
	P         Pos
}

type Let struct {
	Decs []Dec
	Body Expr
	P    Pos
}

func (*Var) exprNode()    {}
func (*Lit) exprNode()    {}
func (*Record) exprNode() {}
func (*Fn) exprNode()     {}
func (*App) exprNode()    {}
func (*Typed) exprNode()  {}
func (*Raise) exprNode()  {}
func (*Handle) exprNode() {}
func (*Case) exprNode()   {}
func (*Let) exprNode()    {}

func (e *Var) Pos() Pos    { return e.P }
func (e *Lit) Pos() Pos    { return e.P }
func (e *Record) Pos() Pos { return e.P }
func (e *Fn) Pos() Pos     { return e.P }
func (e *App) Pos() Pos    { return e.P }
func (e *Typed) Pos() Pos  { return e.P }
func (e *Raise) Pos() Pos  { return e.P }
func (e *Handle) Pos() Pos { return e.P }
func (e *Case) Pos() Pos   { return e.P }
func (e *Let) Pos() Pos    { return e.P }

// --------------------------------------------------------------- Declarations

type Dec interface {
	decNode()
	Pos() Pos
}

type ValBind struct {
	Pat ast.Pat
	Rhs Expr
}

type ValDec struct {
	Bindings []ValBind
	P        Pos
}

// RecBind is one member of a `val rec` mutually-recursive group; its
// right-hand side is always a Fn, as the surface grammar requires
// (spec.md §3's "val rec fac = fn n => ...").
type RecBind struct {
	Name string
	Fn   *Fn
}

type ValRecDec struct {
	Bindings []RecBind
	P        Pos
}

type TypeDec struct {
	Bindings []ast.TypeBind
	P        Pos
}

type DatatypeDec struct {
	Bindings []ast.DatatypeBind
	P        Pos
}

type AbstypeDec struct {
	Datatype *DatatypeDec
	Body     []Dec
	P        Pos
}

type ExceptionDec struct {
	Bindings []ast.ExceptionBind
	P        Pos
}

type OpenDec struct {
	Names [][]string
	P     Pos
}

type LocalDec struct {
	Decs1, Decs2 []Dec
	P            Pos
}

type SeqDec struct {
	Decs []Dec
	P    Pos
}

func (*ValDec) decNode()       {}
func (*ValRecDec) decNode()    {}
func (*TypeDec) decNode()      {}
func (*DatatypeDec) decNode()  {}
func (*AbstypeDec) decNode()   {}
func (*ExceptionDec) decNode() {}
func (*OpenDec) decNode()      {}
func (*LocalDec) decNode()     {}
func (*SeqDec) decNode()       {}

func (d *ValDec) Pos() Pos       { return d.P }
func (d *ValRecDec) Pos() Pos    { return d.P }
func (d *TypeDec) Pos() Pos      { return d.P }
func (d *DatatypeDec) Pos() Pos  { return d.P }
func (d *AbstypeDec) Pos() Pos   { return d.P }
func (d *ExceptionDec) Pos() Pos { return d.P }
func (d *OpenDec) Pos() Pos      { return d.P }
func (d *LocalDec) Pos() Pos     { return d.P }
func (d *SeqDec) Pos() Pos       { return d.P }
