package lexer

import (
	"testing"

	"github.com/emberlang/ember/internal/diag"
	"github.com/emberlang/ember/internal/token"
)

func tokenize(t *testing.T, source string) ([]token.Token, *diag.Reporter) {
	t.Helper()
	r := diag.NewReporter()
	l := New(source, r)
	return l.Tokenize(), r
}

func kinds(tokens []token.Token) []token.Kind {
	out := make([]token.Kind, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Kind
	}
	return out
}

func assertKinds(t *testing.T, source string, want ...token.Kind) []token.Token {
	t.Helper()
	tokens, r := tokenize(t, source)
	if r.HasErrors() {
		t.Fatalf("unexpected diagnostics for %q: %v", source, r.Diagnostics())
	}
	got := kinds(tokens)
	if len(got) != len(want) {
		t.Fatalf("%q: got %d tokens %v, want %d %v", source, len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("%q: token %d = %s, want %s", source, i, got[i], want[i])
		}
	}
	return tokens
}

func TestTokenizeDeclaration(t *testing.T) {
	assertKinds(t, `let x: i32 = 1 + 2;`,
		token.KW_LET, token.IDENT, token.COLON, token.KW_I32, token.ASSIGN,
		token.NUMBER, token.PLUS, token.NUMBER, token.SEMICOLON, token.EOF)
}

func TestTokenizeKeywords(t *testing.T) {
	assertKinds(t, `struct extern fn if else loop while break continue return let`,
		token.KW_STRUCT, token.KW_EXTERN, token.KW_FN, token.KW_IF, token.KW_ELSE,
		token.KW_LOOP, token.KW_WHILE, token.KW_BREAK, token.KW_CONTINUE, token.KW_RETURN,
		token.KW_LET, token.EOF)
}

func TestTokenizeBuiltinTypeKeywords(t *testing.T) {
	assertKinds(t, `i8 u8 i16 u16 i32 u32 bool`,
		token.KW_I8, token.KW_U8, token.KW_I16, token.KW_U16,
		token.KW_I32, token.KW_U32, token.KW_BOOL, token.EOF)
}

func TestTokenizeAllPunctuation(t *testing.T) {
	assertKinds(t, `( ) { } [ ] , . ; _`,
		token.LPAREN, token.RPAREN, token.LBRACE, token.RBRACE,
		token.LBRACKET, token.RBRACKET, token.COMMA, token.DOT,
		token.SEMICOLON, token.UNDERSCORE, token.EOF)
}

func TestTokenizeAllSingleCharOperators(t *testing.T) {
	assertKinds(t, `< > = + - * / % ! & :`,
		token.LT, token.GT, token.ASSIGN, token.PLUS, token.MINUS,
		token.STAR, token.SLASH, token.PERCENT, token.BANG, token.AMP,
		token.COLON, token.EOF)
}

func TestTokenizeTwoCharOperators(t *testing.T) {
	assertKinds(t, `:: -> <= >= == != && ||`,
		token.DOUBLECOLON, token.ARROW, token.LE, token.GE, token.EQ, token.NE,
		token.ANDAND, token.OROR, token.EOF)
}

func TestTokenizeBoolLiteral(t *testing.T) {
	tokens := assertKinds(t, `true false`, token.BOOL, token.BOOL, token.EOF)
	if !tokens[0].BoolValue {
		t.Errorf("expected true literal, got %v", tokens[0].BoolValue)
	}
	if tokens[1].BoolValue {
		t.Errorf("expected false literal, got %v", tokens[1].BoolValue)
	}
}

func TestTokenizeCharLiteral(t *testing.T) {
	tokens := assertKinds(t, `'a' '\n'`, token.CHAR, token.CHAR, token.EOF)
	if tokens[0].CharValue != 'a' {
		t.Errorf("expected 'a', got %q", tokens[0].CharValue)
	}
	if tokens[1].CharValue != '\n' {
		t.Errorf("expected newline, got %q", tokens[1].CharValue)
	}
}

func TestTokenizeStringLiteral(t *testing.T) {
	tokens := assertKinds(t, `"hello\nworld"`, token.STRING, token.EOF)
	if tokens[0].Lexeme != "hello\nworld" {
		t.Errorf("got lexeme %q", tokens[0].Lexeme)
	}
}

func TestTokenizeNumberKeepsRawLexeme(t *testing.T) {
	tokens := assertKinds(t, `3.14`, token.NUMBER, token.EOF)
	if tokens[0].Lexeme != "3.14" {
		t.Errorf("got lexeme %q, want 3.14", tokens[0].Lexeme)
	}
}

func TestTokenizeLineCommentStripped(t *testing.T) {
	assertKinds(t, "let x = 1; // trailing comment\nlet y = 2;",
		token.KW_LET, token.IDENT, token.ASSIGN, token.NUMBER, token.SEMICOLON,
		token.KW_LET, token.IDENT, token.ASSIGN, token.NUMBER, token.SEMICOLON, token.EOF)
}

func TestTokenizeTurbofish(t *testing.T) {
	assertKinds(t, `f::<i32>(1)`,
		token.IDENT, token.DOUBLECOLON, token.LT, token.KW_I32, token.GT,
		token.LPAREN, token.NUMBER, token.RPAREN, token.EOF)
}

func TestTokenizeUnterminatedStringReportsError(t *testing.T) {
	tokens, r := tokenize(t, `"unterminated`)
	if !r.HasErrors() {
		t.Fatalf("expected an error diagnostic")
	}
	if kinds(tokens)[0] != token.ERROR {
		t.Errorf("expected ERROR token, got %s", kinds(tokens)[0])
	}
}

func TestTokenizeIllegalByteReportsError(t *testing.T) {
	tokens, r := tokenize(t, `let x = 1 @ 2;`)
	if !r.HasErrors() {
		t.Fatalf("expected an error diagnostic for '@'")
	}
	found := false
	for _, tok := range tokens {
		if tok.Kind == token.ERROR {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an ERROR token among %v", kinds(tokens))
	}
}

func TestTokenizeSpanTracksLineAndColumn(t *testing.T) {
	tokens, _ := tokenize(t, "let x\n= 1;")
	// find the '=' token, on line 2
	for _, tok := range tokens {
		if tok.Kind == token.ASSIGN {
			if tok.Span.Start.Line != 2 {
				t.Errorf("expected '=' on line 2, got line %d", tok.Span.Start.Line)
			}
			return
		}
	}
	t.Fatalf("did not find '=' token")
}
