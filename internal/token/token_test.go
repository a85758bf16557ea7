package token_test

import (
	"testing"

	"loom/internal/token"
)

func TestLookupKeywordIsCaseSensitive(t *testing.T) {
	k, ok := token.LookupKeyword("if")
	if !ok || k != token.KwIf {
		t.Fatalf("LookupKeyword(\"if\") = (%v, %v), want (KwIf, true)", k, ok)
	}
	if _, ok := token.LookupKeyword("If"); ok {
		t.Fatalf("LookupKeyword(\"If\") should not match a keyword")
	}
	if _, ok := token.LookupKeyword("iff"); ok {
		t.Fatalf("LookupKeyword(\"iff\") should not match a keyword")
	}
}

func TestKindIsKeyword(t *testing.T) {
	if !token.KwClass.IsKeyword() {
		t.Fatalf("KwClass.IsKeyword() = false, want true")
	}
	if token.Ident.IsKeyword() {
		t.Fatalf("Ident.IsKeyword() = true, want false")
	}
	if token.Plus.IsKeyword() {
		t.Fatalf("Plus.IsKeyword() = true, want false")
	}
}

func TestTokenIsLiteral(t *testing.T) {
	cases := []struct {
		k    token.Kind
		want bool
	}{
		{token.Number, true},
		{token.StringLit, true},
		{token.TemplateString, true},
		{token.KwTrue, true},
		{token.KwNull, true},
		{token.Ident, false},
		{token.Plus, false},
	}
	for _, c := range cases {
		tok := token.Token{Kind: c.k}
		if got := tok.IsLiteral(); got != c.want {
			t.Errorf("Token{Kind: %s}.IsLiteral() = %v, want %v", c.k, got, c.want)
		}
	}
}

func TestKindStringUnknown(t *testing.T) {
	var k token.Kind = 250
	if got := k.String(); got != "unknown" {
		t.Fatalf("String() = %q, want %q", got, "unknown")
	}
}
