package lexer_test

import (
	"testing"

	"kestrel/internal/diag"
	"kestrel/internal/lexer"
	"kestrel/internal/source"
	"kestrel/internal/token"
)

func lex(t *testing.T, src string) ([]token.Token, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	f := fs.Get(fs.AddVirtual("test.ks", []byte(src)))
	bag := diag.NewBag(16)
	return lexer.All(f, lexer.Options{Reporter: diag.BagReporter{Bag: bag}}), bag
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, tok := range toks {
		out[i] = tok.Kind
	}
	return out
}

func TestLexFunction(t *testing.T) {
	toks, bag := lex(t, "fn add(a: int) -> int { return a + 1_000; } // trailing")
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
	want := []token.Kind{
		token.KwFn, token.Ident, token.LParen, token.Ident, token.Colon, token.Ident, token.RParen,
		token.Arrow, token.Ident, token.LBrace, token.KwReturn, token.Ident, token.Plus, token.IntLit,
		token.Semicolon, token.RBrace, token.EOF,
	}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("got %d tokens %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestLexOperators(t *testing.T) {
	toks, _ := lex(t, "== != <= >= && || ! < > = /* block */ -")
	want := []token.Kind{
		token.EqEq, token.BangEq, token.LtEq, token.GtEq, token.AndAnd, token.OrOr,
		token.Bang, token.Lt, token.Gt, token.Assign, token.Minus, token.EOF,
	}
	got := kinds(toks)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestLexNumbers(t *testing.T) {
	tests := []struct {
		src  string
		kind token.Kind
	}{
		{"42", token.IntLit},
		{"3.25", token.FloatLit},
		{"1e9", token.FloatLit},
		{"2.5E-3", token.FloatLit},
	}
	for _, tt := range tests {
		toks, bag := lex(t, tt.src)
		if toks[0].Kind != tt.kind || toks[0].Text != tt.src || bag.Len() != 0 {
			t.Errorf("%q: got %v %q (diags %d)", tt.src, toks[0].Kind, toks[0].Text, bag.Len())
		}
	}

	toks, bag := lex(t, "12abc")
	if toks[0].Kind != token.Invalid || !bag.HasErrors() {
		t.Errorf("12abc should be an invalid number")
	}
}

func TestLexStrings(t *testing.T) {
	toks, bag := lex(t, `"a\tb\"c" "plain"`)
	if bag.Len() != 0 {
		t.Fatalf("diagnostics: %+v", bag.Items())
	}
	if toks[0].Text != "a\tb\"c" || toks[1].Text != "plain" {
		t.Errorf("decoded = %q, %q", toks[0].Text, toks[1].Text)
	}

	toks, bag = lex(t, "\"e\u0301\"")
	if toks[0].Text != "\u00e9" || bag.Len() != 0 {
		t.Errorf("string not NFC-normalised: %q", toks[0].Text)
	}

	_, bag = lex(t, `"open`)
	if !bag.HasErrors() || bag.Items()[0].Code != diag.LexUnterminatedString {
		t.Errorf("expected unterminated string diagnostic")
	}

	_, bag = lex(t, `"bad \q"`)
	if !bag.HasErrors() || bag.Items()[0].Code != diag.LexBadEscape {
		t.Errorf("expected bad escape diagnostic")
	}
}

func TestLexUnknownChar(t *testing.T) {
	toks, bag := lex(t, "a # b")
	if !bag.HasErrors() {
		t.Fatalf("expected diagnostic for '#'")
	}
	if toks[1].Kind != token.Invalid || toks[2].Kind != token.Ident {
		t.Errorf("lexer must continue after an unknown char: %v", kinds(toks))
	}
}
