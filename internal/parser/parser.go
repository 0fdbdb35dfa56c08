// Package parser turns a token sequence into a surface internal/ast
// declaration, resolving user-definable infix operators against the
// fixity table carried by the current internal/runtime.State as it goes
// (spec.md §4.2). The grammar itself is a hand-written recursive-descent
// parser, generalized from the teacher's own Pratt-parser shape
// (internal/parser/parser.go's prefixParseFn/precedences table) into a
// dynamic lookup against State instead of a fixed precedence map, since
// this language's operator precedences are themselves runtime data.
package parser

import (
	"github.com/basislang/sml/internal/ast"
	"github.com/basislang/sml/internal/diag"
	"github.com/basislang/sml/internal/runtime"
	"github.com/basislang/sml/pkg/token"
)

// Parser holds the token cursor, the live (possibly lexically scoped)
// fixity table, and the source text for error rendering.
type Parser struct {
	toks []token.Token
	pos  int
	src  string

	state  *runtime.State
	scopes []map[string]runtime.FixityEntry
}

// New constructs a Parser over toks, consulting state's fixity table as
// the outermost scope. Fixity declarations encountered while parsing
// mutate the innermost scope only; scopes are pushed/popped around
// `let`/`local` so a fixity change inside one is invisible once it ends
// (spec.md §3 "Fixity table").
func New(toks []token.Token, state *runtime.State) *Parser {
	return &Parser{toks: toks, state: state, scopes: []map[string]runtime.FixityEntry{{}}}
}

// WithSource attaches the original source text so diagnostics can render
// a caret under the offending position.
func (p *Parser) WithSource(src string) *Parser {
	p.src = src
	return p
}

// Parse consumes a full top-level declaration sequence (spec.md §4.2's
// contract), committing any fixity declarations made at the outermost
// scope into state so later chunks observe them.
func Parse(toks []token.Token, state *runtime.State, src string) (ast.Dec, *diag.Error) {
	p := New(toks, state).WithSource(src)
	d, err := p.parseTopLevel()
	if err != nil {
		return nil, err.WithSource(src)
	}
	p.commitFixity(state)
	return d, nil
}

func (p *Parser) commitFixity(state *runtime.State) {
	for name, fe := range p.scopes[0] {
		if fe.Infix {
			state.BindFixity(name, fe)
		} else {
			state.SetNonfix(name)
		}
	}
}

// -------------------------------------------------------------- Cursor

func (p *Parser) cur() token.Token {
	if p.pos >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}
	return p.toks[p.pos]
}

func (p *Parser) peekN(n int) token.Token {
	i := p.pos + n
	if i >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}
	return p.toks[i]
}

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *Parser) atEOF() bool { return p.cur().Kind == token.EOF }

func (p *Parser) errf(pos token.Position, format string, args ...any) *diag.Error {
	return diag.New(diag.ParserError, pos, format, args...)
}

// isKeyword reports whether the current token is the keyword kw.
func (p *Parser) isKeyword(kw string) bool {
	t := p.cur()
	return t.Kind == token.Keyword && t.Text == kw
}

func (p *Parser) expectKeyword(kw string) *diag.Error {
	if !p.isKeyword(kw) {
		return p.errf(p.cur().Pos, "expected %q, got %s", kw, p.cur())
	}
	p.advance()
	return nil
}

// isSym reports whether the current token is the given single-rune
// special punctuation: '*' (Star) or '=' (Equals), or a SymbolicIdentifier
// whose text matches (used for e.g. `|`, `:`, `=>`, `->`, which the lexer
// hands back as SymbolicIdentifier tokens since they're made of symbolic
// characters).
func (p *Parser) isSym(text string) bool {
	t := p.cur()
	switch t.Kind {
	case token.Star:
		return text == "*"
	case token.Equals:
		return text == "="
	case token.SymbolicIdentifier:
		return t.Text == text
	}
	return false
}

func (p *Parser) expectSym(text string) *diag.Error {
	if !p.isSym(text) {
		return p.errf(p.cur().Pos, "expected %q, got %s", text, p.cur())
	}
	p.advance()
	return nil
}

// isIdent reports whether the current token could begin a value
// identifier (alphanumeric or symbolic, including the special Star/Equals
// punctuation tokens which are also legal identifier texts in some
// positions), optionally prefixed by `op`.
func (p *Parser) isIdentKind(k token.Kind) bool {
	return k == token.AlphanumericIdentifier || k == token.SymbolicIdentifier ||
		k == token.Star || k == token.Equals
}

// identText returns the textual spelling of an identifier-shaped token
// (Star/Equals included) for use as a name.
func identText(t token.Token) string {
	switch t.Kind {
	case token.Star:
		return "*"
	case token.Equals:
		return "="
	default:
		return t.Text
	}
}

// -------------------------------------------------------------- Fixity

func (p *Parser) lookupFixity(name string) (runtime.FixityEntry, bool) {
	for i := len(p.scopes) - 1; i >= 0; i-- {
		if fe, ok := p.scopes[i][name]; ok {
			return fe, true
		}
	}
	return p.state.LookupFixity(name)
}

func (p *Parser) isInfixHere(name string) bool {
	fe, ok := p.lookupFixity(name)
	return ok && fe.Infix
}

func (p *Parser) setFixity(name string, fe runtime.FixityEntry) {
	p.scopes[len(p.scopes)-1][name] = fe
}

func (p *Parser) pushFixityScope() { p.scopes = append(p.scopes, map[string]runtime.FixityEntry{}) }
func (p *Parser) popFixityScope()  { p.scopes = p.scopes[:len(p.scopes)-1] }

// -------------------------------------------------------------- Top level

// parseTopLevel parses one or more `;`-separated declarations (or bare
// expressions, sugared to `val it = exp`), returning a single Dec
// (wrapping more than one in a SeqDec, spec.md §4.3).
func (p *Parser) parseTopLevel() (ast.Dec, *diag.Error) {
	var decs []ast.Dec
	for !p.atEOF() {
		d, err := p.parseOneDec()
		if err != nil {
			return nil, err
		}
		decs = append(decs, d)
		for p.isSym(";") {
			p.advance()
		}
	}
	if len(decs) == 0 {
		return nil, p.errf(p.cur().Pos, "empty input")
	}
	if len(decs) == 1 {
		return decs[0], nil
	}
	return &ast.SeqDec{Decs: decs, P: decs[0].Pos()}, nil
}

// parseOneDec dispatches on the leading keyword to a specific declaration
// form, or falls back to parsing a bare expression sugared as `val it =
// exp` (spec.md §8 scenario 2's `fac 10;`).
func (p *Parser) parseOneDec() (ast.Dec, *diag.Error) {
	switch {
	case p.isKeyword("val"):
		return p.parseValDec()
	case p.isKeyword("fun"):
		return p.parseFunDec()
	case p.isKeyword("type"):
		return p.parseTypeDec()
	case p.isKeyword("datatype"):
		return p.parseDatatypeDec()
	case p.isKeyword("abstype"):
		return p.parseAbstypeDec()
	case p.isKeyword("exception"):
		return p.parseExceptionDec()
	case p.isKeyword("open"):
		return p.parseOpenDec()
	case p.isKeyword("local"):
		return p.parseLocalDec()
	case p.isKeyword("infix"):
		return p.parseInfixDec(false)
	case p.isKeyword("infixr"):
		return p.parseInfixDec(true)
	case p.isKeyword("nonfix"):
		return p.parseNonfixDec()
	default:
		pos := p.cur().Pos
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ast.ValDec{Bindings: []ast.ValBind{{Pat: &ast.VarPat{Name: "it", P: pos}, Rhs: e}}, P: pos}, nil
	}
}

// parseDecSeq parses zero or more declarations up to (but not consuming)
// a terminating keyword such as `in`/`end`, for use inside `let`/`local`.
func (p *Parser) parseDecSeq(stop func() bool) ([]ast.Dec, *diag.Error) {
	var decs []ast.Dec
	for !p.atEOF() && !stop() {
		d, err := p.parseOneDec()
		if err != nil {
			return nil, err
		}
		decs = append(decs, d)
		for p.isSym(";") {
			p.advance()
		}
	}
	return decs, nil
}
