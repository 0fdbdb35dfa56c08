package lexer

import (
	"testing"

	"github.com/basislang/sml/internal/diag"
	"github.com/basislang/sml/pkg/token"
)

func kinds(t *testing.T, toks []token.Token) []token.Kind {
	t.Helper()
	ks := make([]token.Kind, len(toks))
	for i, tok := range toks {
		ks[i] = tok.Kind
	}
	return ks
}

func TestLexBasicDeclaration(t *testing.T) {
	toks, err := Lex("val x = 4*7+3;")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []token.Kind{
		token.Keyword, token.AlphanumericIdentifier, token.Equals,
		token.Numeric, token.Star, token.Numeric, token.SymbolicIdentifier,
		token.Numeric, token.SymbolicIdentifier, token.EOF,
	}
	got := kinds(t, toks)
	if len(got) != len(want) {
		t.Fatalf("got %d tokens %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %v want %v", i, got[i], want[i])
		}
	}
}

func TestLexNumericEdgeCases(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want []token.Kind
	}{
		{"zero-w-no-digit", "0w", []token.Kind{token.IntegerConstant, token.AlphanumericIdentifier, token.EOF}},
		{"neg-zero-x-no-hex", "~0x", []token.Kind{token.IntegerConstant, token.AlphanumericIdentifier, token.EOF}},
		{"hex-word", "0wx1F", []token.Kind{token.WordConstant, token.EOF}},
		{"real", "1.5e10", []token.Kind{token.RealConstant, token.EOF}},
		{"real-neg-exp", "1.5e~10", []token.Kind{token.RealConstant, token.EOF}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			toks, err := Lex(c.src)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := kinds(t, toks)
			if len(got) != len(c.want) {
				t.Fatalf("got %v, want kinds %v", got, c.want)
			}
			for i := range c.want {
				if got[i] != c.want[i] {
					t.Errorf("token %d: got %v want %v", i, got[i], c.want[i])
				}
			}
		})
	}
}

func TestLexRealMissingMantissaDigits(t *testing.T) {
	if _, err := Lex("1."); err == nil {
		t.Fatal("expected LexerError for missing digits after decimal point")
	} else if err.Kind != diag.LexerError {
		t.Errorf("got kind %v, want LexerError", err.Kind)
	}
}

func TestLexStringEscapes(t *testing.T) {
	toks, err := Lex(`"a\tb\nc\065"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks[0].Kind != token.StringConstant {
		t.Fatalf("got kind %v", toks[0].Kind)
	}
	want := "a\tb\nc" + string(rune(65))
	if toks[0].StrVal != want {
		t.Errorf("got %q want %q", toks[0].StrVal, want)
	}
}

func TestLexCharacterLiteral(t *testing.T) {
	toks, err := Lex(`#"X"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks[0].Kind != token.CharacterConstant || toks[0].CharVal != 'X' {
		t.Fatalf("got %+v", toks[0])
	}
}

func TestLexUnterminatedCommentIsIncomplete(t *testing.T) {
	_, err := Lex("(* never closes")
	if err == nil {
		t.Fatal("expected IncompleteError")
	}
}

func TestLexNestedComments(t *testing.T) {
	toks, err := Lex("(* outer (* inner *) still outer *) val x = 1;")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks[0].Kind != token.Keyword || toks[0].Text != "val" {
		t.Fatalf("expected comment to be fully skipped, got %+v", toks[0])
	}
}

func TestLexTypeVariables(t *testing.T) {
	toks, err := Lex("'a ''b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks[0].Kind != token.TypeVariable {
		t.Errorf("got %v want TypeVariable", toks[0].Kind)
	}
	if toks[1].Kind != token.EqualityTypeVariable {
		t.Errorf("got %v want EqualityTypeVariable", toks[1].Kind)
	}
}

func TestLexLongIdentifier(t *testing.T) {
	toks, err := Lex("Math.pi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks[0].Kind != token.LongIdentifier {
		t.Fatalf("got %v", toks[0].Kind)
	}
	if toks[0].Final != "pi" || len(toks[0].Qualifiers) != 1 || toks[0].Qualifiers[0] != "Math" {
		t.Errorf("got qualifiers=%v final=%q", toks[0].Qualifiers, toks[0].Final)
	}
}

func TestLexIntegerOverflow(t *testing.T) {
	_, err := Lex("99999999999999999999999999")
	if err == nil {
		t.Fatal("expected overflow LexerError")
	}
}
