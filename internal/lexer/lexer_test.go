package lexer

import (
	"testing"

	"github.com/tangzhangming/pcode/internal/token"
)

func TestLexerBasicTokens(t *testing.T) {
	input := `+ - * / ** | = <> != < <= > >= += -= |= ( ) [ ] , ; . :`

	expected := []token.TokenType{
		token.PLUS, token.MINUS, token.STAR, token.SLASH, token.POWER, token.PIPE,
		token.EQ, token.NE, token.NE,
		token.LT, token.LE, token.GT, token.GE,
		token.PLUS_ASSIGN, token.MINUS_ASSIGN, token.PIPE_ASSIGN,
		token.LPAREN, token.RPAREN, token.LBRACKET, token.RBRACKET,
		token.COMMA, token.SEMICOLON, token.DOT, token.COLON,
		token.EOF,
	}

	l := New(input, "test.pc")
	tokens := l.ScanTokens()

	if len(tokens) != len(expected) {
		t.Fatalf("token count mismatch: got %d, want %d", len(tokens), len(expected))
	}

	for i, tok := range tokens {
		if tok.Type != expected[i] {
			t.Errorf("token[%d] type mismatch: got %s, want %s", i, tok.Type, expected[i])
		}
	}
}

func TestLexerKeywordsCaseInsensitive(t *testing.T) {
	input := `class END-CLASS Method end-method If THEN End-If when-other Evaluate
	Local global Component instance private protected property readonly get set
	and OR not True false null`

	expected := []token.TokenType{
		token.CLASS, token.END_CLASS, token.METHOD, token.END_METHOD,
		token.IF, token.THEN, token.END_IF, token.WHEN_OTHER, token.EVALUATE,
		token.LOCAL, token.GLOBAL, token.COMPONENT, token.INSTANCE, token.PRIVATE,
		token.PROTECTED, token.PROPERTY, token.READONLY, token.GET, token.SET,
		token.AND, token.OR, token.NOT, token.TRUE, token.FALSE, token.NULL,
		token.EOF,
	}

	tokens := New(input, "test.pc").ScanTokens()
	if len(tokens) != len(expected) {
		t.Fatalf("token count mismatch: got %d, want %d", len(tokens), len(expected))
	}
	for i, tok := range tokens {
		if tok.Type != expected[i] {
			t.Errorf("token[%d] type mismatch: got %s, want %s (literal: %s)",
				i, tok.Type, expected[i], tok.Literal)
		}
	}
}

func TestLexerHyphenNotKeyword(t *testing.T) {
	// end-foo 不是关键字，应拆成 end - foo
	tokens := New(`end-foo`, "test.pc").ScanTokens()
	expected := []token.TokenType{token.IDENT, token.MINUS, token.IDENT, token.EOF}
	if len(tokens) != len(expected) {
		t.Fatalf("token count mismatch: got %d, want %d", len(tokens), len(expected))
	}
	for i, tok := range tokens {
		if tok.Type != expected[i] {
			t.Errorf("token[%d]: got %s, want %s", i, tok.Type, expected[i])
		}
	}
}

func TestLexerVariables(t *testing.T) {
	input := `&name %This %Super &rec_1 RECORD.FIELD#1`

	tokens := New(input, "test.pc").ScanTokens()

	expected := []struct {
		typ     token.TokenType
		literal string
	}{
		{token.VARIABLE, "&name"},
		{token.SYSVAR, "%This"},
		{token.SYSVAR, "%Super"},
		{token.VARIABLE, "&rec_1"},
		{token.IDENT, "RECORD"},
		{token.DOT, "."},
		{token.IDENT, "FIELD#1"},
		{token.EOF, ""},
	}

	if len(tokens) != len(expected) {
		t.Fatalf("token count mismatch: got %d, want %d", len(tokens), len(expected))
	}
	for i, tok := range tokens {
		if tok.Type != expected[i].typ {
			t.Errorf("token[%d] type mismatch: got %s, want %s", i, tok.Type, expected[i].typ)
		}
		if expected[i].literal != "" && tok.Literal != expected[i].literal {
			t.Errorf("token[%d] literal mismatch: got %s, want %s", i, tok.Literal, expected[i].literal)
		}
	}
}

func TestLexerNumbers(t *testing.T) {
	tests := []struct {
		input   string
		tokType token.TokenType
		value   interface{}
	}{
		{"123", token.INT, int64(123)},
		{"0", token.INT, int64(0)},
		{"3.14", token.NUMBER, 3.14},
		{".5", token.NUMBER, 0.5},
	}

	for _, tt := range tests {
		tokens := New(tt.input, "test.pc").ScanTokens()
		if len(tokens) != 2 {
			t.Errorf("input %q: expected 2 tokens, got %d", tt.input, len(tokens))
			continue
		}
		tok := tokens[0]
		if tok.Type != tt.tokType {
			t.Errorf("input %q: type mismatch: got %s, want %s", tt.input, tok.Type, tt.tokType)
		}
		if tok.Value != tt.value {
			t.Errorf("input %q: value mismatch: got %v, want %v", tt.input, tok.Value, tt.value)
		}
	}
}

func TestLexerStrings(t *testing.T) {
	tests := []struct {
		input string
		value string
	}{
		{`"hello"`, "hello"},
		{`"say ""hi"""`, `say "hi"`},
		{`'it''s'`, "it's"},
		{`""`, ""},
	}

	for _, tt := range tests {
		l := New(tt.input, "test.pc")
		tokens := l.ScanTokens()
		if l.HasErrors() {
			t.Errorf("input %s: unexpected errors %v", tt.input, l.Errors())
			continue
		}
		if tokens[0].Type != token.STRING || tokens[0].Value != tt.value {
			t.Errorf("input %s: got %s %v, want %q", tt.input, tokens[0].Type, tokens[0].Value, tt.value)
		}
	}
}

func TestLexerComments(t *testing.T) {
	input := `/* block */ &a <* outer <* inner *> still *> &b
REM this is a remark;
/+ &x as String +/ // trailing
&c`

	tokens := New(input, "test.pc").ScanTokens()
	expected := []string{"&a", "&b", "&c"}

	var got []string
	for _, tok := range tokens {
		if tok.Type == token.VARIABLE {
			got = append(got, tok.Literal)
		}
	}
	if len(got) != len(expected) {
		t.Fatalf("variables = %v, want %v", got, expected)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("variable[%d] = %s, want %s", i, got[i], expected[i])
		}
	}
	if last := tokens[len(tokens)-2]; last.Pos.Line != 4 || last.Pos.Column != 1 {
		t.Errorf("&c position = %s, want 4:1", last.Pos)
	}
}

func TestLexerErrors(t *testing.T) {
	tests := []string{
		`"unterminated`,
		`/* never closed`,
		`&a ~ &b`,
	}
	for _, input := range tests {
		l := New(input, "test.pc")
		l.ScanTokens()
		if !l.HasErrors() {
			t.Errorf("input %q: expected a lexer error", input)
		}
	}
}

func TestLexerPositions(t *testing.T) {
	tokens := New("Local string &s =\n   \"x\";", "a.pc").ScanTokens()
	str := tokens[4]
	if str.Type != token.STRING {
		t.Fatalf("tokens[4] = %s, want STRING", str.Type)
	}
	if str.Pos.Line != 2 || str.Pos.Column != 4 || str.Pos.Filename != "a.pc" {
		t.Errorf("string position = %s, want a.pc:2:4", str.Pos)
	}
}
