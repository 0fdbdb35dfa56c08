// Package lexer turns Standard-ML-dialect source text into a token
// sequence (spec.md §4.1). The scanner is rune-based so multi-byte UTF-8
// source is handled correctly; byte offsets (not rune counts) are what
// Position records, since positions must survive re-slicing the original
// source string for diagnostics.
package lexer

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/basislang/sml/internal/diag"
	"github.com/basislang/sml/pkg/token"
)

// MaxInt/MinInt bound an integer literal to the 31-bit tagged `int`
// range (spec.md §4.1, §8 scenario 2), matching internal/runtime's
// arithmetic overflow boundary so a literal that would already be out
// of range is rejected at lex time rather than wrapping silently.
const (
	MaxInt int64 = 1<<30 - 1
	MinInt int64 = -(1 << 30)
)

func isAlphanumericClass(r rune) bool {
	return r == '_' || r == '\'' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func isAlphanumericStart(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isSymbolicClass(r rune) bool {
	switch r {
	case '!', '%', '&', '$', '#', '+', '-', '/', ':', '<', '=', '>', '?',
		'@', '\\', '~', '`', '^', '|', '*':
		return true
	}
	return false
}

func isDigit(r rune) bool  { return r >= '0' && r <= '9' }
func isHexDigit(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}
func isWhitespace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\f'
}

// Option configures a Lexer at construction time.
type Option func(*Lexer)

// WithAllowUnicode permits non-ASCII runes inside identifiers, matching
// the Options.allowUnicode entry point of spec.md §6.
func WithAllowUnicode(allow bool) Option {
	return func(l *Lexer) { l.allowUnicode = allow }
}

// Lexer is a single-pass scanner over a string held entirely in memory.
// It has no notion of "the current chunk" beyond the string it was
// constructed with; the host concatenates more input and re-lexes on an
// IncompleteError, per spec.md §7.
type Lexer struct {
	input        string
	pos          int // byte offset of ch
	readPos      int // byte offset of next rune
	ch           rune
	allowUnicode bool
}

// New constructs a Lexer over input, stripping a leading UTF-8 BOM if
// present (mirrors the teacher's BOM handling in internal/lexer/lexer.go).
func New(input string, opts ...Option) *Lexer {
	if bom := string(rune(0xFEFF)); strings.HasPrefix(input, bom) {
		input = input[len(bom):]
	}
	l := &Lexer{input: input}
	for _, opt := range opts {
		opt(l)
	}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0
		l.pos = len(l.input)
		l.readPos = len(l.input) + 1
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPos:])
	l.pos = l.readPos
	l.ch = r
	l.readPos += size
}

func (l *Lexer) peekChar() rune {
	if l.readPos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPos:])
	return r
}

func (l *Lexer) atEOF() bool { return l.pos >= len(l.input) }

func (l *Lexer) currentPos() token.Position { return token.Position(l.pos) }

// skipWhitespaceAndComments consumes whitespace and nested (* ... *)
// comments. An unterminated comment is reported as IncompleteError so the
// host may append more input and retry (spec.md §4.1, §7).
func (l *Lexer) skipWhitespaceAndComments() *diag.Error {
	for {
		for isWhitespace(l.ch) {
			l.readChar()
		}
		if l.ch == '(' && l.peekChar() == '*' {
			start := l.currentPos()
			depth := 0
			for {
				if l.ch == 0 && l.atEOF() {
					return diag.New(diag.IncompleteError, start, "unterminated comment")
				}
				if l.ch == '(' && l.peekChar() == '*' {
					depth++
					l.readChar()
					l.readChar()
					continue
				}
				if l.ch == '*' && l.peekChar() == ')' {
					depth--
					l.readChar()
					l.readChar()
					if depth == 0 {
						break
					}
					continue
				}
				l.readChar()
			}
			continue
		}
		break
	}
	return nil
}

// Next scans and returns the next token. At end of input it returns an
// EOF token forever; it never advances past EOF.
func (l *Lexer) Next() (token.Token, *diag.Error) {
	if err := l.skipWhitespaceAndComments(); err != nil {
		return token.Token{}, err
	}
	start := l.currentPos()

	if l.ch == 0 && l.atEOF() {
		return token.Token{Kind: token.EOF, Pos: start}, nil
	}

	switch {
	case l.ch == '~' && isDigit(l.peekChar()):
		return l.lexNumber()
	case isDigit(l.ch):
		return l.lexNumber()
	case l.ch == '"':
		return l.lexString()
	case l.ch == '#' && l.peekChar() == '"':
		return l.lexChar()
	case l.ch == '\'':
		return l.lexTypeVariable()
	case isAlphanumericStart(l.ch) || l.ch == '_':
		return l.lexAlphanumeric()
	case isSymbolicClass(l.ch):
		return l.lexSymbolic()
	case l.ch == '.':
		return l.lexDots()
	case strings.ContainsRune("()[]{},;", l.ch):
		r := l.ch
		l.readChar()
		return token.Token{Kind: token.SymbolicIdentifier, Text: string(r), Pos: start}, nil
	default:
		r := l.ch
		l.readChar()
		return token.Token{}, diag.New(diag.LexerError, start, "unexpected character %q", r)
	}
}

// lexDots scans the record-pattern/type ellipsis "..." as a single
// SymbolicIdentifier token. A bare '.' otherwise only ever appears as a
// long-identifier qualifier separator, consumed inline by
// lexAlphanumeric, so three dots is the only standalone form reaching
// here.
func (l *Lexer) lexDots() (token.Token, *diag.Error) {
	start := l.currentPos()
	for i := 0; i < 3; i++ {
		if l.ch != '.' {
			return token.Token{}, diag.New(diag.LexerError, start, "unexpected character %q", '.')
		}
		l.readChar()
	}
	return token.Token{Kind: token.SymbolicIdentifier, Text: "...", Pos: start}, nil
}

// lexNumber scans an integer, word, or real literal, with an optional
// leading '~' negation (spec.md §4.1).
func (l *Lexer) lexNumber() (token.Token, *diag.Error) {
	start := l.currentPos()
	var sb strings.Builder
	neg := false
	if l.ch == '~' {
		neg = true
		sb.WriteRune(l.ch)
		l.readChar()
	}

	// 0x / 0wx / 0w forms.
	if l.ch == '0' && (l.peekChar() == 'x' || l.peekChar() == 'w') {
		markPos, markText := l.pos, sb.String()
		sb.WriteRune(l.ch) // '0'
		l.readChar()
		if l.ch == 'w' {
			sb.WriteRune('w')
			l.readChar()
			if l.ch == 'x' && isHexDigit(l.peekChar()) {
				sb.WriteRune('x')
				l.readChar()
				return l.finishHexWord(start, &sb, neg)
			}
			if isDigit(l.ch) {
				return l.finishDecWord(start, &sb, neg)
			}
			// "0w" not followed by digit/x-digit: backtrack, lex "0" then identifier.
			return l.backtrackZero(start, markPos, markText, neg)
		}
		if l.ch == 'x' {
			if isHexDigit(l.peekChar()) {
				sb.WriteRune('x')
				l.readChar()
				return l.finishHexInt(start, &sb, neg)
			}
			// "~0x" / "0x" without a following hex digit: backtrack.
			return l.backtrackZero(start, markPos, markText, neg)
		}
	}

	for isDigit(l.ch) {
		sb.WriteRune(l.ch)
		l.readChar()
	}

	isReal := false
	if l.ch == '.' {
		if !isDigit(l.peekChar()) {
			return token.Token{}, diag.New(diag.LexerError, l.currentPos(), "missing digits after decimal point")
		}
		isReal = true
		sb.WriteRune('.')
		l.readChar()
		for isDigit(l.ch) {
			sb.WriteRune(l.ch)
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		save := l.pos
		var exp strings.Builder
		exp.WriteRune(l.ch)
		expCh := l.ch
		l.readChar()
		if l.ch == '~' {
			exp.WriteRune('~')
			l.readChar()
		}
		if !isDigit(l.ch) {
			if isReal {
				return token.Token{}, diag.New(diag.LexerError, token.Position(save), "missing digits after exponent marker")
			}
			// Not part of a real: "3e" where e starts an identifier-ish
			// suffix is not legal SML either, but if nothing consumed a
			// real marker, leave ch alone for the next token to handle.
			l.seekTo(save, expCh)
		} else {
			isReal = true
			sb.WriteString(exp.String())
			for isDigit(l.ch) {
				sb.WriteRune(l.ch)
				l.readChar()
			}
		}
	}

	text := sb.String()
	if isReal {
		v, convErr := strconv.ParseFloat(strings.ReplaceAll(text, "~", "-"), 64)
		if convErr != nil {
			return token.Token{}, diag.New(diag.LexerError, start, "malformed real literal %q", text)
		}
		return token.Token{Kind: token.RealConstant, Text: text, Pos: start, RealVal: v}, nil
	}

	digits := text
	if neg {
		digits = digits[1:]
	}
	iv, convErr := strconv.ParseInt(digits, 10, 64)
	if convErr != nil {
		return token.Token{}, diag.New(diag.LexerError, start, "integer literal %q overflows", text)
	}
	if neg {
		iv = -iv
	}
	if iv < MinInt || iv > MaxInt {
		return token.Token{}, diag.New(diag.LexerError, start, "integer literal %q out of range", text)
	}
	kind := token.IntegerConstant
	if !neg && len(digits) > 0 && digits[0] != '0' {
		kind = token.Numeric
	}
	return token.Token{Kind: kind, Text: text, Pos: start, IntVal: iv}, nil
}

// seekTo repositions the lexer to re-read from byte offset p, with ch
// being the rune that starts there.
func (l *Lexer) seekTo(p int, ch rune) {
	l.pos = p
	l.ch = ch
	l.readPos = p + utf8.RuneLen(ch)
}

// backtrackZero implements the "0w"/"0x" edge cases of spec.md §4.1: when
// the prefix is not followed by a valid digit, the token ends at "0" (or
// "~0") and the rest re-lexes as a fresh identifier.
func (l *Lexer) backtrackZero(start token.Position, markPos int, markText string, neg bool) (token.Token, *diag.Error) {
	l.seekTo(markPos, '0')
	l.readChar() // consume the '0' we're about to claim as the literal
	text := markText + "0"
	return token.Token{Kind: token.IntegerConstant, Text: text, Pos: start, IntVal: 0}, nil
}

func (l *Lexer) finishHexInt(start token.Position, sb *strings.Builder, neg bool) (token.Token, *diag.Error) {
	var hex strings.Builder
	for isHexDigit(l.ch) {
		hex.WriteRune(l.ch)
		sb.WriteRune(l.ch)
		l.readChar()
	}
	iv, err := strconv.ParseInt(hex.String(), 16, 64)
	if err != nil {
		return token.Token{}, diag.New(diag.LexerError, start, "hex literal %q overflows", sb.String())
	}
	if neg {
		iv = -iv
	}
	return token.Token{Kind: token.IntegerConstant, Text: sb.String(), Pos: start, IntVal: iv}, nil
}

func (l *Lexer) finishHexWord(start token.Position, sb *strings.Builder, neg bool) (token.Token, *diag.Error) {
	var hex strings.Builder
	for isHexDigit(l.ch) {
		hex.WriteRune(l.ch)
		sb.WriteRune(l.ch)
		l.readChar()
	}
	iv, err := strconv.ParseUint(hex.String(), 16, 64)
	if err != nil {
		return token.Token{}, diag.New(diag.LexerError, start, "word literal %q overflows", sb.String())
	}
	return token.Token{Kind: token.WordConstant, Text: sb.String(), Pos: start, IntVal: int64(iv)}, nil
}

func (l *Lexer) finishDecWord(start token.Position, sb *strings.Builder, neg bool) (token.Token, *diag.Error) {
	var dec strings.Builder
	for isDigit(l.ch) {
		dec.WriteRune(l.ch)
		sb.WriteRune(l.ch)
		l.readChar()
	}
	iv, err := strconv.ParseUint(dec.String(), 10, 64)
	if err != nil {
		return token.Token{}, diag.New(diag.LexerError, start, "word literal %q overflows", sb.String())
	}
	return token.Token{Kind: token.WordConstant, Text: sb.String(), Pos: start, IntVal: int64(iv)}, nil
}

// lexString scans a "..." string literal with escape processing, including
// the whitespace-continuation escape \<ws>...<ws>\ (spec.md §4.1).
func (l *Lexer) lexString() (token.Token, *diag.Error) {
	start := l.currentPos()
	l.readChar() // consume opening quote
	var raw strings.Builder
	var decoded strings.Builder
	for {
		if l.ch == 0 && l.atEOF() {
			return token.Token{}, diag.New(diag.IncompleteError, start, "unterminated string literal")
		}
		if l.ch == '"' {
			l.readChar()
			break
		}
		if l.ch < 0x20 {
			return token.Token{}, diag.New(diag.LexerError, l.currentPos(), "illegal control character in string literal")
		}
		if l.ch == '\\' {
			raw.WriteRune(l.ch)
			l.readChar()
			if isWhitespace(l.ch) {
				// Whitespace-continuation escape: \<ws>...<ws>\ vanishes.
				for isWhitespace(l.ch) {
					raw.WriteRune(l.ch)
					l.readChar()
				}
				if l.ch != '\\' {
					return token.Token{}, diag.New(diag.LexerError, l.currentPos(), "malformed whitespace-continuation escape")
				}
				raw.WriteRune(l.ch)
				l.readChar()
				continue
			}
			r, err := l.lexEscape()
			if err != nil {
				return token.Token{}, err
			}
			decoded.WriteRune(r)
			continue
		}
		raw.WriteRune(l.ch)
		decoded.WriteRune(l.ch)
		l.readChar()
	}
	return token.Token{Kind: token.StringConstant, Text: raw.String(), Pos: start, StrVal: decoded.String()}, nil
}

// lexEscape decodes the escape sequence starting just after the backslash
// (l.ch is the character following '\\').
func (l *Lexer) lexEscape() (rune, *diag.Error) {
	pos := l.currentPos()
	switch l.ch {
	case 'a':
		l.readChar()
		return '\a', nil
	case 'b':
		l.readChar()
		return '\b', nil
	case 't':
		l.readChar()
		return '\t', nil
	case 'n':
		l.readChar()
		return '\n', nil
	case 'v':
		l.readChar()
		return '\v', nil
	case 'f':
		l.readChar()
		return '\f', nil
	case 'r':
		l.readChar()
		return '\r', nil
	case '"':
		l.readChar()
		return '"', nil
	case '\\':
		l.readChar()
		return '\\', nil
	case '^':
		l.readChar()
		c := l.ch
		if c < 64 || c > 95 {
			return 0, diag.New(diag.LexerError, pos, "invalid control escape \\^%c", c)
		}
		l.readChar()
		return c - 64, nil
	case 'u':
		l.readChar()
		var hex strings.Builder
		for i := 0; i < 4; i++ {
			if !isHexDigit(l.ch) {
				return 0, diag.New(diag.LexerError, pos, "malformed \\u escape")
			}
			hex.WriteRune(l.ch)
			l.readChar()
		}
		v, _ := strconv.ParseInt(hex.String(), 16, 32)
		return rune(v), nil
	default:
		if isDigit(l.ch) {
			var dec strings.Builder
			for i := 0; i < 3; i++ {
				if !isDigit(l.ch) {
					return 0, diag.New(diag.LexerError, pos, "malformed \\ddd escape")
				}
				dec.WriteRune(l.ch)
				l.readChar()
			}
			v, _ := strconv.Atoi(dec.String())
			if v > 255 {
				return 0, diag.New(diag.LexerError, pos, "\\ddd escape %d out of range", v)
			}
			return rune(v), nil
		}
		return 0, diag.New(diag.LexerError, pos, "unknown escape sequence \\%c", l.ch)
	}
}

// lexChar scans a #"X" character literal: exactly one logical character
// after escape processing (spec.md §4.1).
func (l *Lexer) lexChar() (token.Token, *diag.Error) {
	start := l.currentPos()
	l.readChar() // '#'
	l.readChar() // opening quote
	if l.ch == 0 && l.atEOF() {
		return token.Token{}, diag.New(diag.IncompleteError, start, "unterminated character literal")
	}
	var r rune
	var raw strings.Builder
	raw.WriteString("#\"")
	if l.ch == '\\' {
		raw.WriteRune(l.ch)
		l.readChar()
		var err *diag.Error
		r, err = l.lexEscape()
		if err != nil {
			return token.Token{}, err
		}
	} else {
		if l.ch < 0x20 {
			return token.Token{}, diag.New(diag.LexerError, l.currentPos(), "illegal control character in character literal")
		}
		r = l.ch
		l.readChar()
	}
	if l.ch != '"' {
		return token.Token{}, diag.New(diag.LexerError, start, "character literal must contain exactly one character")
	}
	l.readChar()
	raw.WriteRune(r)
	raw.WriteByte('"')
	return token.Token{Kind: token.CharacterConstant, Text: raw.String(), Pos: start, CharVal: r}, nil
}

// lexTypeVariable scans 'a or ''a type-variable tokens. A single-prime
// name must have length >= 2 including the quote (spec.md §4.1).
func (l *Lexer) lexTypeVariable() (token.Token, *diag.Error) {
	start := l.currentPos()
	var sb strings.Builder
	primes := 0
	for l.ch == '\'' {
		primes++
		sb.WriteRune(l.ch)
		l.readChar()
	}
	for isAlphanumericClass(l.ch) {
		sb.WriteRune(l.ch)
		l.readChar()
	}
	text := sb.String()
	if len(text) < 2 {
		return token.Token{}, diag.New(diag.LexerError, start, "type variable %q too short", text)
	}
	kind := token.TypeVariable
	if primes >= 2 {
		kind = token.EqualityTypeVariable
	}
	return token.Token{Kind: kind, Text: text, Pos: start}, nil
}

// lexAlphanumeric scans an identifier or long identifier (spec.md §4.1).
func (l *Lexer) lexAlphanumeric() (token.Token, *diag.Error) {
	start := l.currentPos()
	first := l.readAlphanumericRun()

	var qualifiers []string
	for l.ch == '.' && isAlphanumericStart(l.peekChar()) {
		qualifiers = append(qualifiers, first)
		l.readChar() // '.'
		first = l.readAlphanumericRun()
	}
	// A trailing '.' followed by a symbolic final component is also a
	// long identifier, as long as the final isn't '='.
	if len(qualifiers) == 0 && l.ch == '.' && isSymbolicClass(l.peekChar()) {
		save := l.pos
		l.readChar() // '.'
		var sym strings.Builder
		for isSymbolicClass(l.ch) {
			sym.WriteRune(l.ch)
			l.readChar()
		}
		if sym.String() == "=" || sym.Len() == 0 {
			l.seekTo(save, '.')
		} else {
			text := first + "." + sym.String()
			return token.Token{
				Kind: token.LongIdentifier, Text: text, Pos: start,
				Qualifiers: []string{first}, Final: sym.String(),
			}, nil
		}
	}

	if len(qualifiers) > 0 {
		text := strings.Join(qualifiers, ".") + "." + first
		return token.Token{Kind: token.LongIdentifier, Text: text, Pos: start, Qualifiers: qualifiers, Final: first}, nil
	}

	if token.IsKeyword(first) {
		return token.Token{Kind: token.Keyword, Text: first, Pos: start}, nil
	}
	return token.Token{Kind: token.AlphanumericIdentifier, Text: first, Pos: start}, nil
}

func (l *Lexer) readAlphanumericRun() string {
	var sb strings.Builder
	for isAlphanumericClass(l.ch) {
		sb.WriteRune(l.ch)
		l.readChar()
	}
	return sb.String()
}

// lexSymbolic scans an all-symbolic identifier, or the special single-rune
// tokens '*' (Star) and '=' (Equals) when they stand alone (spec.md §4.1).
func (l *Lexer) lexSymbolic() (token.Token, *diag.Error) {
	start := l.currentPos()
	var sb strings.Builder
	for isSymbolicClass(l.ch) {
		sb.WriteRune(l.ch)
		l.readChar()
	}
	text := sb.String()
	switch text {
	case "*":
		return token.Token{Kind: token.Star, Text: text, Pos: start}, nil
	case "=":
		return token.Token{Kind: token.Equals, Text: text, Pos: start}, nil
	}
	return token.Token{Kind: token.SymbolicIdentifier, Text: text, Pos: start}, nil
}

// Lex scans the entire input and returns the token sequence, stopping
// (and returning the error) at the first lexical failure.
func Lex(src string, opts ...Option) ([]token.Token, *diag.Error) {
	l := New(src, opts...)
	var toks []token.Token
	for {
		tok, err := l.Next()
		if err != nil {
			return toks, err.WithSource(src)
		}
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks, nil
		}
	}
}
