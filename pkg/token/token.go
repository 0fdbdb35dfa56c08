// Package token defines the token vocabulary shared by the lexer, parser,
// and diagnostics for the interpreted language.
package token

import "fmt"

// Position is a nonnegative byte offset into the source being scanned.
// A Position of -1 marks a synthetic node introduced by simplification or
// desugaring; it has no corresponding source text.
type Position int

// Synthetic is the position recorded on AST nodes that the simplifier or
// parser manufactures rather than reads from source.
const Synthetic Position = -1

// IsSynthetic reports whether p was manufactured rather than read from
// source text.
func (p Position) IsSynthetic() bool { return p < 0 }

// Kind classifies a Token. The set mirrors the tagged token variants of
// the language's lexical grammar: keywords, literal forms distinguishing
// integers/reals/words/characters/strings, the two flavors of identifier
// (alphanumeric vs. symbolic), type variables (plain and equality), the
// punctuation that the grammar treats specially (Star, Equals), and long
// (dotted) identifiers.
type Kind int

const (
	// Illegal marks a character sequence the lexer could not classify.
	Illegal Kind = iota
	EOF

	Keyword
	// Numeric is the subtype of IntegerConstant permitted as a record
	// label: a decimal integer literal with no leading zero and no
	// leading '~'.
	Numeric
	IntegerConstant
	RealConstant
	WordConstant
	CharacterConstant
	StringConstant

	AlphanumericIdentifier
	SymbolicIdentifier
	TypeVariable
	EqualityTypeVariable

	Star
	Equals

	LongIdentifier
)

func (k Kind) String() string {
	switch k {
	case Illegal:
		return "Illegal"
	case EOF:
		return "EOF"
	case Keyword:
		return "Keyword"
	case Numeric:
		return "Numeric"
	case IntegerConstant:
		return "IntegerConstant"
	case RealConstant:
		return "RealConstant"
	case WordConstant:
		return "WordConstant"
	case CharacterConstant:
		return "CharacterConstant"
	case StringConstant:
		return "StringConstant"
	case AlphanumericIdentifier:
		return "AlphanumericIdentifier"
	case SymbolicIdentifier:
		return "SymbolicIdentifier"
	case TypeVariable:
		return "TypeVariable"
	case EqualityTypeVariable:
		return "EqualityTypeVariable"
	case Star:
		return "Star"
	case Equals:
		return "Equals"
	case LongIdentifier:
		return "LongIdentifier"
	default:
		return "Unknown"
	}
}

// Token is a single lexeme together with its source position and any
// decoded literal value. IntVal/RealVal/CharVal are populated according to
// Kind; Qualifiers/Final are populated only for LongIdentifier tokens.
type Token struct {
	Kind Kind
	Text string // the raw (or reconstructed) source text of the token
	Pos  Position

	IntVal  int64   // IntegerConstant, Numeric, WordConstant
	RealVal float64 // RealConstant
	CharVal rune    // CharacterConstant
	StrVal  string  // StringConstant (decoded, escapes processed)

	// OpPrefixed records that this identifier occurrence was written
	// with an explicit leading `op`, forcing non-infix use at this
	// occurrence only (spec.md §4.2).
	OpPrefixed bool

	// Qualifiers and Final decompose a LongIdentifier `a.b.c` into its
	// qualifier chain ["a","b"] and final component "c".
	Qualifiers []string
	Final      string
}

func (t Token) String() string {
	if t.Kind == LongIdentifier {
		return fmt.Sprintf("%s(%s)", t.Kind, t.Text)
	}
	return fmt.Sprintf("%s(%q)", t.Kind, t.Text)
}

// Keywords is the reserved-word table consulted once an alphanumeric
// identifier has been scanned in full (longest-match-then-lookup, per
// spec.md §4.1).
var Keywords = map[string]bool{
	"abstype": true, "and": true, "andalso": true, "as": true,
	"case": true, "datatype": true, "do": true, "else": true,
	"end": true, "exception": true, "fn": true, "fun": true,
	"handle": true, "if": true, "in": true, "infix": true,
	"infixr": true, "let": true, "local": true, "nonfix": true,
	"of": true, "op": true, "open": true, "orelse": true,
	"raise": true, "rec": true, "then": true, "type": true,
	"val": true, "with": true, "withtype": true, "while": true,
}

// IsKeyword reports whether text names a reserved word.
func IsKeyword(text string) bool { return Keywords[text] }
