package compiler

import (
	"testing"
)

func TestScannerPunctuation(t *testing.T) {
	input := `( ) { } , . - + ; / * ! != = == > >= < <=`
	expected := []struct {
		kind TokenKind
		lex  string
	}{
		{TokenLeftParen, "("},
		{TokenRightParen, ")"},
		{TokenLeftBrace, "{"},
		{TokenRightBrace, "}"},
		{TokenComma, ","},
		{TokenDot, "."},
		{TokenMinus, "-"},
		{TokenPlus, "+"},
		{TokenSemicolon, ";"},
		{TokenSlash, "/"},
		{TokenStar, "*"},
		{TokenBang, "!"},
		{TokenBangEqual, "!="},
		{TokenEqual, "="},
		{TokenEqualEqual, "=="},
		{TokenGreater, ">"},
		{TokenGreaterEqual, ">="},
		{TokenLess, "<"},
		{TokenLessEqual, "<="},
		{TokenEOF, ""},
	}

	s := NewScanner(input)
	for i, exp := range expected {
		tok := s.Next()
		if tok.Kind != exp.kind {
			t.Errorf("token[%d] kind = %v, want %v", i, tok.Kind, exp.kind)
		}
		if tok.Lexeme != exp.lex {
			t.Errorf("token[%d] lexeme = %q, want %q", i, tok.Lexeme, exp.lex)
		}
	}
}

func TestScannerNumbers(t *testing.T) {
	tests := []struct {
		input string
		kinds []TokenKind
		first string
	}{
		{"42", []TokenKind{TokenNumber, TokenEOF}, "42"},
		{"3.14", []TokenKind{TokenNumber, TokenEOF}, "3.14"},
		{"0.5", []TokenKind{TokenNumber, TokenEOF}, "0.5"},
		// trailing dot is not part of the number
		{"1.", []TokenKind{TokenNumber, TokenDot, TokenEOF}, "1"},
		{"1.x", []TokenKind{TokenNumber, TokenDot, TokenIdentifier, TokenEOF}, "1"},
		// leading dot is a Dot token
		{".5", []TokenKind{TokenDot, TokenNumber, TokenEOF}, "."},
		// unary minus is a separate token
		{"-7", []TokenKind{TokenMinus, TokenNumber, TokenEOF}, "-"},
	}

	for _, tc := range tests {
		tokens := Tokenize(tc.input)
		if len(tokens) != len(tc.kinds) {
			t.Errorf("Tokenize(%q) = %v, want %d tokens", tc.input, tokens, len(tc.kinds))
			continue
		}
		for i, k := range tc.kinds {
			if tokens[i].Kind != k {
				t.Errorf("Tokenize(%q)[%d] kind = %v, want %v", tc.input, i, tokens[i].Kind, k)
			}
		}
		if tokens[0].Lexeme != tc.first {
			t.Errorf("Tokenize(%q)[0] lexeme = %q, want %q", tc.input, tokens[0].Lexeme, tc.first)
		}
	}
}

func TestScannerKeywords(t *testing.T) {
	tests := []struct {
		input string
		want  TokenKind
	}{
		{"and", TokenAnd},
		{"class", TokenClass},
		{"else", TokenElse},
		{"false", TokenFalse},
		{"for", TokenFor},
		{"fun", TokenFun},
		{"if", TokenIf},
		{"nil", TokenNil},
		{"or", TokenOr},
		{"print", TokenPrint},
		{"return", TokenReturn},
		{"super", TokenSuper},
		{"this", TokenThis},
		{"true", TokenTrue},
		{"var", TokenVar},
		{"while", TokenWhile},
		// near misses are identifiers
		{"f", TokenIdentifier},
		{"fa", TokenIdentifier},
		{"t", TokenIdentifier},
		{"classy", TokenIdentifier},
		{"an", TokenIdentifier},
		{"True", TokenIdentifier},
		{"NIL", TokenIdentifier},
		{"_private", TokenIdentifier},
		{"x1", TokenIdentifier},
	}

	for _, tc := range tests {
		tok := NewScanner(tc.input).Next()
		if tok.Kind != tc.want {
			t.Errorf("Next(%q) kind = %v, want %v", tc.input, tok.Kind, tc.want)
		}
		if tok.Lexeme != tc.input {
			t.Errorf("Next(%q) lexeme = %q", tc.input, tok.Lexeme)
		}
	}
}

func TestScannerStrings(t *testing.T) {
	tok := NewScanner(`"hello world"`).Next()
	if tok.Kind != TokenString {
		t.Fatalf("kind = %v, want STRING", tok.Kind)
	}
	if tok.Lexeme != `"hello world"` {
		t.Errorf("lexeme = %q, want quotes included", tok.Lexeme)
	}

	// a string token reports the line it ends on
	s := NewScanner("\"a\nb\" x")
	tok = s.Next()
	if tok.Kind != TokenString || tok.Line != 2 {
		t.Errorf("multi-line string = %v line %d, want STRING line 2", tok.Kind, tok.Line)
	}
	if tok.Offset != 0 {
		t.Errorf("multi-line string offset = %d, want 0", tok.Offset)
	}
	if next := s.Next(); next.Line != 2 {
		t.Errorf("token after multi-line string line = %d, want 2", next.Line)
	}
}

func TestScannerErrors(t *testing.T) {
	tests := []struct {
		input string
		msg   string
	}{
		{`"unterminated`, "Unterminated string."},
		{`@`, "Unexpected character."},
		{`#`, "Unexpected character."},
	}

	for _, tc := range tests {
		tok := NewScanner(tc.input).Next()
		if tok.Kind != TokenError {
			t.Errorf("Next(%q) kind = %v, want ERROR", tc.input, tok.Kind)
			continue
		}
		if tok.Lexeme != tc.msg {
			t.Errorf("Next(%q) message = %q, want %q", tc.input, tok.Lexeme, tc.msg)
		}
	}

	// scanning resumes after an unexpected character
	tokens := Tokenize("1 @ 2")
	kinds := []TokenKind{TokenNumber, TokenError, TokenNumber, TokenEOF}
	for i, k := range kinds {
		if tokens[i].Kind != k {
			t.Errorf("Tokenize(\"1 @ 2\")[%d] = %v, want %v", i, tokens[i].Kind, k)
		}
	}
}

func TestScannerWhitespaceAndComments(t *testing.T) {
	s := NewScanner("1 // comment + 2\n\t\r 3")
	first := s.Next()
	second := s.Next()

	if first.Lexeme != "1" || first.Line != 1 {
		t.Errorf("first = %v line %d, want 1 on line 1", first, first.Line)
	}
	if second.Lexeme != "3" || second.Line != 2 {
		t.Errorf("second = %v line %d, want 3 on line 2", second, second.Line)
	}
	if second.Offset != 20 {
		t.Errorf("second offset = %d, want 20", second.Offset)
	}
}

func TestScannerEOFIsSticky(t *testing.T) {
	s := NewScanner("1")
	s.Next()
	for i := 0; i < 3; i++ {
		if tok := s.Next(); tok.Kind != TokenEOF {
			t.Fatalf("call %d after end = %v, want EOF", i, tok.Kind)
		}
	}
}

func TestTokenKindString(t *testing.T) {
	if got := TokenGreaterEqual.String(); got != ">=" {
		t.Errorf("String() = %q, want \">=\"", got)
	}
	if got := TokenKind(999).String(); got != "Token(999)" {
		t.Errorf("String() = %q, want \"Token(999)\"", got)
	}
}

// ---------------------------------------------------------------------------
// FuzzScanner: the scanner never panics and always terminates.
// ---------------------------------------------------------------------------

func FuzzScanner(f *testing.F) {
	seeds := []string{
		`1 + 2 * 3`, `(1 + 2) * 3`, `!true == false`, `"a" + "b"`,
		`"unterminated`, `1.`, `.5`, `@#$`, "// only a comment", ``, "\n\n",
		`and class else false for fun if nil or print return super this true var while`,
	}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, input string) {
		s := NewScanner(input)
		for i := 0; i <= len(input)+1; i++ {
			tok := s.Next()
			if tok.Kind == TokenEOF {
				return
			}
			if tok.Kind != TokenError && tok.Offset+len(tok.Lexeme) > len(input) {
				t.Fatalf("token %v overruns input of length %d", tok, len(input))
			}
		}
		t.Fatalf("scanner did not reach EOF on %q", input)
	})
}
