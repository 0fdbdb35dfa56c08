// Package ast defines the surface syntax tree produced by the parser
// (spec.md §4.3) and the Simplify pass that lowers it to internal/core.
//
// Expressions and patterns are kept as sibling node sets rather than one
// shared "PatternExpression" type (spec.md §4.3's note on the source's
// design): Go's static typing makes a single shared node awkward to
// consume safely from both the pattern-matching and expression-evaluating
// walks, so the parser instead builds whichever tree a given grammar
// position calls for and ExprToPattern converts an already-parsed
// expression into a pattern on the rare occasions the grammar is
// ambiguous until a `=` or `=>` is seen.
package ast

import "github.com/basislang/sml/pkg/token"

type Pos = token.Position

// ---------------------------------------------------------------- Types

// TypeExpr is a surface type annotation as written by the user.
type TypeExpr interface {
	typeNode()
	Pos() Pos
}

type TypeVarExpr struct {
	Name     string
	Equality bool
	P        Pos
}

type ConTypeExpr struct {
	Qualifiers []string
	Name       string
	Args       []TypeExpr
	P          Pos
}

type RecordTypeField struct {
	Label string
	Type  TypeExpr
}

// RecordTypeExpr is a `{l1: t1, l2: t2}` type, or with Complete=false an
// open row `{l1: t1, ...}` valid only inside a pattern annotation.
type RecordTypeExpr struct {
	Fields   []RecordTypeField
	Complete bool
	P        Pos
}

type TupleTypeExpr struct {
	Elems []TypeExpr
	P     Pos
}

type FunctionTypeExpr struct {
	Domain, Codomain TypeExpr
	P                Pos
}

func (*TypeVarExpr) typeNode()       {}
func (*ConTypeExpr) typeNode()       {}
func (*RecordTypeExpr) typeNode()    {}
func (*TupleTypeExpr) typeNode()     {}
func (*FunctionTypeExpr) typeNode()  {}
func (t *TypeVarExpr) Pos() Pos      { return t.P }
func (t *ConTypeExpr) Pos() Pos      { return t.P }
func (t *RecordTypeExpr) Pos() Pos   { return t.P }
func (t *TupleTypeExpr) Pos() Pos    { return t.P }
func (t *FunctionTypeExpr) Pos() Pos { return t.P }

// --------------------------------------------------------------- Patterns

type Pat interface {
	patNode()
	Pos() Pos
}

type WildcardPat struct{ P Pos }

type VarPat struct {
	Name string
	P    Pos
}

// ConstKind distinguishes the literal kinds a ConstPat may hold.
type ConstKind int

const (
	ConstInt ConstKind = iota
	ConstWord
	ConstReal
	ConstChar
	ConstString
)

type ConstPat struct {
	Kind ConstKind
	I    int64
	R    float64
	C    rune
	S    string
	P    Pos
}

// ConPat matches a (possibly applied) value or exception constructor.
// Arg is nil for a nullary constructor pattern.
type ConPat struct {
	Qualifiers []string
	Name       string
	Arg        Pat
	P          Pos
}

type TuplePat struct {
	Elems []Pat
	P     Pos
}

type RecordPatField struct {
	Label string
	Pat   Pat
}

type RecordPat struct {
	Fields   []RecordPatField
	Complete bool
	P        Pos
}

// LayeredPat is `x as p` or `x : ty as p`.
type LayeredPat struct {
	Name string
	Type TypeExpr // optional
	Sub  Pat
	P    Pos
}

type TypedPat struct {
	Sub  Pat
	Type TypeExpr
	P    Pos
}

// ListPat is sugar for a right-folded `::`/`nil` ConPat chain, lowered by
// Simplify.
type ListPat struct {
	Elems []Pat
	P     Pos
}

func (*WildcardPat) patNode()  {}
func (*VarPat) patNode()       {}
func (*ConstPat) patNode()     {}
func (*ConPat) patNode()       {}
func (*TuplePat) patNode()     {}
func (*RecordPat) patNode()    {}
func (*LayeredPat) patNode()   {}
func (*TypedPat) patNode()     {}
func (*ListPat) patNode()      {}
func (p *WildcardPat) Pos() Pos { return p.P }
func (p *VarPat) Pos() Pos      { return p.P }
func (p *ConstPat) Pos() Pos    { return p.P }
func (p *ConPat) Pos() Pos      { return p.P }
func (p *TuplePat) Pos() Pos    { return p.P }
func (p *RecordPat) Pos() Pos   { return p.P }
func (p *LayeredPat) Pos() Pos  { return p.P }
func (p *TypedPat) Pos() Pos    { return p.P }
func (p *ListPat) Pos() Pos     { return p.P }

// ------------------------------------------------------------- Expressions

type Expr interface {
	exprNode()
	Pos() Pos
}

// Var references a value identifier, a nullary constructor, or (via
// Qualifiers) a long identifier such as Math.pi.
type Var struct {
	Qualifiers []string
	Name       string
	OpPrefixed bool
	P          Pos
}

type IntLit struct {
	Value int64
	P     Pos
}

type WordLit struct {
	Value int64
	P     Pos
}

type RealLit struct {
	Value float64
	P     Pos
}

type CharLit struct {
	Value rune
	P     Pos
}

type StringLit struct {
	Value string
	P     Pos
}

// TupleExpr is `(e1, e2, ..., en)`; Simplify rewrites it to RecordExpr
// with labels "1".."n" (spec.md §4.3).
type TupleExpr struct {
	Elems []Expr
	P     Pos
}

type RecordField struct {
	Label string
	Value Expr
}

type RecordExpr struct {
	Fields []RecordField
	P      Pos
}

// ListExpr is `[e1, ..., en]`; Simplify rewrites it to a `::`/`nil` chain.
type ListExpr struct {
	Elems []Expr
	P     Pos
}

// SeqExpr is `(e1; e2; ...; en)`; Simplify rewrites it to nested
// `case e of _ => ...` to fix evaluation order without a dedicated
// sequencing construct in the core calculus.
type SeqExpr struct {
	Exprs []Expr
	P     Pos
}

// AppExpr is function application; fixity resolution (internal/parser)
// has already turned infix operator use into nested AppExpr nodes by the
// time the parser returns.
type AppExpr struct {
	Fun, Arg Expr
	P        Pos
}

type Match struct {
	Clauses []Clause
	P       Pos
}

type Clause struct {
	Pat  Pat
	Body Expr
}

type FnExpr struct {
	M *Match
	P Pos
}

type CaseExpr struct {
	Scrutinee Expr
	M         *Match
	P         Pos
}

// IfExpr is lowered by Simplify to a CaseExpr over true/false.
type IfExpr struct {
	Cond, Then, Else Expr
	P                Pos
}

// AndAlsoExpr/OrElseExpr are lowered by Simplify to IfExpr-shaped cases.
type AndAlsoExpr struct {
	L, R Expr
	P    Pos
}

type OrElseExpr struct {
	L, R Expr
	P    Pos
}

// WhileExpr is lowered by Simplify to a `val rec loop = fn () => ...`
// binding followed by `loop ()` (spec.md §4.3).
type WhileExpr struct {
	Cond, Body Expr
	P          Pos
}

type RaiseExpr struct {
	Exn Expr
	P   Pos
}

type HandleExpr struct {
	Body Expr
	M    *Match
	P    Pos
}

type TypedExpr struct {
	Sub  Expr
	Type TypeExpr
	P    Pos
}

type LetExpr struct {
	Decs []Dec
	Body Expr
	P    Pos
}

func (*Var) exprNode()         {}
func (*IntLit) exprNode()      {}
func (*WordLit) exprNode()     {}
func (*RealLit) exprNode()     {}
func (*CharLit) exprNode()     {}
func (*StringLit) exprNode()   {}
func (*TupleExpr) exprNode()   {}
func (*RecordExpr) exprNode()  {}
func (*ListExpr) exprNode()    {}
func (*SeqExpr) exprNode()     {}
func (*AppExpr) exprNode()     {}
func (*FnExpr) exprNode()      {}
func (*CaseExpr) exprNode()    {}
func (*IfExpr) exprNode()      {}
func (*AndAlsoExpr) exprNode() {}
func (*OrElseExpr) exprNode()  {}
func (*WhileExpr) exprNode()   {}
func (*RaiseExpr) exprNode()   {}
func (*HandleExpr) exprNode()  {}
func (*TypedExpr) exprNode()   {}
func (*LetExpr) exprNode()     {}

func (e *Var) Pos() Pos         { return e.P }
func (e *IntLit) Pos() Pos      { return e.P }
func (e *WordLit) Pos() Pos     { return e.P }
func (e *RealLit) Pos() Pos     { return e.P }
func (e *CharLit) Pos() Pos     { return e.P }
func (e *StringLit) Pos() Pos   { return e.P }
func (e *TupleExpr) Pos() Pos   { return e.P }
func (e *RecordExpr) Pos() Pos  { return e.P }
func (e *ListExpr) Pos() Pos    { return e.P }
func (e *SeqExpr) Pos() Pos     { return e.P }
func (e *AppExpr) Pos() Pos     { return e.P }
func (e *FnExpr) Pos() Pos      { return e.P }
func (e *CaseExpr) Pos() Pos    { return e.P }
func (e *IfExpr) Pos() Pos      { return e.P }
func (e *AndAlsoExpr) Pos() Pos { return e.P }
func (e *OrElseExpr) Pos() Pos  { return e.P }
func (e *WhileExpr) Pos() Pos   { return e.P }
func (e *RaiseExpr) Pos() Pos   { return e.P }
func (e *HandleExpr) Pos() Pos  { return e.P }
func (e *TypedExpr) Pos() Pos   { return e.P }
func (e *LetExpr) Pos() Pos     { return e.P }

// -------------------------------------------------------------- Declarations

type Dec interface {
	decNode()
	Pos() Pos
}

type ValBind struct {
	Pat Pat
	Rhs Expr
}

// ValDec covers both `val` and `val rec` bindings (spec.md §4.4's
// "State machine for value bindings").
type ValDec struct {
	Rec      bool
	Bindings []ValBind
	P        Pos
}

type FunClause struct {
	Params     []Pat
	ResultType TypeExpr // optional
	Body       Expr
}

// FunBind is one `and`-joined member of a `fun` declaration group: a
// name together with its own clause set.
type FunBind struct {
	Name    string
	Clauses []FunClause
}

// FunDec is `fun f p1 ... pn = e | ... and g q1 ... qm = e | ...`;
// Simplify lowers the whole group to a single multi-binding `val rec`
// (spec.md §4.3), so mutually recursive `and`-joined functions can see
// each other's names while elaborating.
type FunDec struct {
	Binds []FunBind
	P     Pos
}

type TypeBind struct {
	Name   string
	Params []string
	Type   TypeExpr
}

type TypeDec struct {
	Bindings []TypeBind
	P        Pos
}

type ConBind struct {
	Name string
	Arg  TypeExpr // nil for a nullary constructor
}

type DatatypeBind struct {
	Name         string
	Params       []string
	Constructors []ConBind
}

type DatatypeDec struct {
	Bindings []DatatypeBind
	// HasWithType records that the surface syntax included a `withtype`
	// clause; the feature is deliberately disabled (spec.md §4.3, §9(ii))
	// and Simplify rejects it rather than guessing its lowering.
	HasWithType bool
	P           Pos
}

// AbstypeDec elaborates its Datatype as a DatatypeDec while checking
// Body, then hides the constructors after `end` (spec.md §4.4).
type AbstypeDec struct {
	Datatype *DatatypeDec
	Body     []Dec
	P        Pos
}

// ExceptionBind is `exception X`, `exception X of ty`, or
// `exception X = Y` (CopyFrom set).
type ExceptionBind struct {
	Name     string
	Arg      TypeExpr
	CopyFrom *Var
}

type ExceptionDec struct {
	Bindings []ExceptionBind
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

type InfixDec struct {
	Precedence int
	Right      bool
	Names      []string
	P          Pos
}

type NonfixDec struct {
	Names []string
	P     Pos
}

type SeqDec struct {
	Decs []Dec
	P    Pos
}

func (*ValDec) decNode()       {}
func (*FunDec) decNode()       {}
func (*TypeDec) decNode()      {}
func (*DatatypeDec) decNode()  {}
func (*AbstypeDec) decNode()   {}
func (*ExceptionDec) decNode() {}
func (*OpenDec) decNode()      {}
func (*LocalDec) decNode()     {}
func (*InfixDec) decNode()     {}
func (*NonfixDec) decNode()    {}
func (*SeqDec) decNode()       {}

func (d *ValDec) Pos() Pos       { return d.P }
func (d *FunDec) Pos() Pos       { return d.P }
func (d *TypeDec) Pos() Pos      { return d.P }
func (d *DatatypeDec) Pos() Pos  { return d.P }
func (d *AbstypeDec) Pos() Pos   { return d.P }
func (d *ExceptionDec) Pos() Pos { return d.P }
func (d *OpenDec) Pos() Pos      { return d.P }
func (d *LocalDec) Pos() Pos     { return d.P }
func (d *InfixDec) Pos() Pos     { return d.P }
func (d *NonfixDec) Pos() Pos    { return d.P }
func (d *SeqDec) Pos() Pos       { return d.P }

// ExprToPattern converts an already-parsed expression into a pattern, for
// the grammar positions where the parser cannot tell until it has
// consumed an atomic-expression chain whether it was looking at a pattern
// or an expression (e.g. the left-hand side of a `fun` clause written
// with infix constructors, `x :: xs = ...`).
func ExprToPattern(e Expr) (Pat, bool) {
	switch n := e.(type) {
	case *Var:
		if len(n.Qualifiers) > 0 {
			return &ConPat{Qualifiers: n.Qualifiers, Name: n.Name, P: n.P}, true
		}
		if n.Name == "_" {
			return &WildcardPat{P: n.P}, true
		}
		return &VarPat{Name: n.Name, P: n.P}, true
	case *IntLit:
		return &ConstPat{Kind: ConstInt, I: n.Value, P: n.P}, true
	case *WordLit:
		return &ConstPat{Kind: ConstWord, I: n.Value, P: n.P}, true
	case *RealLit:
		return &ConstPat{Kind: ConstReal, R: n.Value, P: n.P}, true
	case *CharLit:
		return &ConstPat{Kind: ConstChar, C: n.Value, P: n.P}, true
	case *StringLit:
		return &ConstPat{Kind: ConstString, S: n.Value, P: n.P}, true
	case *TupleExpr:
		elems := make([]Pat, len(n.Elems))
		for i, el := range n.Elems {
			p, ok := ExprToPattern(el)
			if !ok {
				return nil, false
			}
			elems[i] = p
		}
		return &TuplePat{Elems: elems, P: n.P}, true
	case *ListExpr:
		elems := make([]Pat, len(n.Elems))
		for i, el := range n.Elems {
			p, ok := ExprToPattern(el)
			if !ok {
				return nil, false
			}
			elems[i] = p
		}
		return &ListPat{Elems: elems, P: n.P}, true
	case *RecordExpr:
		fields := make([]RecordPatField, len(n.Fields))
		for i, f := range n.Fields {
			p, ok := ExprToPattern(f.Value)
			if !ok {
				return nil, false
			}
			fields[i] = RecordPatField{Label: f.Label, Pat: p}
		}
		return &RecordPat{Fields: fields, Complete: true, P: n.P}, true
	case *AppExpr:
		fn, ok := n.Fun.(*Var)
		if !ok {
			return nil, false
		}
		arg, ok := ExprToPattern(n.Arg)
		if !ok {
			return nil, false
		}
		return &ConPat{Qualifiers: fn.Qualifiers, Name: fn.Name, Arg: arg, P: n.P}, true
	case *TypedExpr:
		sub, ok := ExprToPattern(n.Sub)
		if !ok {
			return nil, false
		}
		return &TypedPat{Sub: sub, Type: n.Type, P: n.P}, true
	default:
		return nil, false
	}
}
