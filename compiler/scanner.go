package compiler

// Scanner turns Lox source into tokens on demand. It never looks further
// back than the start of the current token.
type Scanner struct {
	source  string
	start   int // start of the token being scanned
	current int // next unread byte
	line    int
}

// NewScanner creates a scanner positioned at the first byte of source.
func NewScanner(source string) *Scanner {
	return &Scanner{source: source, line: 1}
}

// Next returns the next token. Once the source is exhausted every call
// returns an EOF token.
func (s *Scanner) Next() Token {
	s.skipWhitespace()
	s.start = s.current

	if s.atEnd() {
		return s.makeToken(TokenEOF)
	}

	c := s.advance()
	switch {
	case isAlpha(c):
		return s.identifier()
	case isDigit(c):
		return s.number()
	}

	switch c {
	case '(':
		return s.makeToken(TokenLeftParen)
	case ')':
		return s.makeToken(TokenRightParen)
	case '{':
		return s.makeToken(TokenLeftBrace)
	case '}':
		return s.makeToken(TokenRightBrace)
	case ';':
		return s.makeToken(TokenSemicolon)
	case ',':
		return s.makeToken(TokenComma)
	case '.':
		return s.makeToken(TokenDot)
	case '-':
		return s.makeToken(TokenMinus)
	case '+':
		return s.makeToken(TokenPlus)
	case '/':
		return s.makeToken(TokenSlash)
	case '*':
		return s.makeToken(TokenStar)
	case '!':
		return s.makeToken(s.pick('=', TokenBangEqual, TokenBang))
	case '=':
		return s.makeToken(s.pick('=', TokenEqualEqual, TokenEqual))
	case '<':
		return s.makeToken(s.pick('=', TokenLessEqual, TokenLess))
	case '>':
		return s.makeToken(s.pick('=', TokenGreaterEqual, TokenGreater))
	case '"':
		return s.string()
	}

	return s.errorToken("Unexpected character.")
}

// Tokenize scans the whole source, including the final EOF token.
func Tokenize(source string) []Token {
	s := NewScanner(source)
	var tokens []Token
	for {
		tok := s.Next()
		tokens = append(tokens, tok)
		if tok.Kind == TokenEOF {
			return tokens
		}
	}
}

// ---------------------------------------------------------------------------
// Character helpers
// ---------------------------------------------------------------------------

func (s *Scanner) atEnd() bool {
	return s.current >= len(s.source)
}

func (s *Scanner) advance() byte {
	c := s.source[s.current]
	s.current++
	return c
}

func (s *Scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.source[s.current]
}

func (s *Scanner) peekNext() byte {
	if s.current+1 >= len(s.source) {
		return 0
	}
	return s.source[s.current+1]
}

// pick consumes expected if it is next and returns two, otherwise one.
func (s *Scanner) pick(expected byte, two, one TokenKind) TokenKind {
	if s.atEnd() || s.source[s.current] != expected {
		return one
	}
	s.current++
	return two
}

func (s *Scanner) skipWhitespace() {
	for !s.atEnd() {
		switch s.peek() {
		case ' ', '\r', '\t':
			s.current++
		case '\n':
			s.line++
			s.current++
		case '/':
			if s.peekNext() != '/' {
				return
			}
			for !s.atEnd() && s.peek() != '\n' {
				s.current++
			}
		default:
			return
		}
	}
}

func (s *Scanner) makeToken(kind TokenKind) Token {
	return Token{
		Kind:   kind,
		Lexeme: s.source[s.start:s.current],
		Offset: s.start,
		Line:   s.line,
	}
}

func (s *Scanner) errorToken(message string) Token {
	return Token{Kind: TokenError, Lexeme: message, Offset: s.start, Line: s.line}
}

// ---------------------------------------------------------------------------
// Literals and identifiers
// ---------------------------------------------------------------------------

func (s *Scanner) string() Token {
	for !s.atEnd() && s.peek() != '"' {
		if s.peek() == '\n' {
			s.line++
		}
		s.current++
	}
	if s.atEnd() {
		return s.errorToken("Unterminated string.")
	}
	s.current++ // closing quote
	return s.makeToken(TokenString)
}

func (s *Scanner) number() Token {
	for isDigit(s.peek()) {
		s.current++
	}
	// A trailing '.' without a digit after it is left for the next token.
	if s.peek() == '.' && isDigit(s.peekNext()) {
		s.current++
		for isDigit(s.peek()) {
			s.current++
		}
	}
	return s.makeToken(TokenNumber)
}

func (s *Scanner) identifier() Token {
	for isAlpha(s.peek()) || isDigit(s.peek()) {
		s.current++
	}
	return s.makeToken(s.identifierKind())
}

// identifierKind classifies the current lexeme against the keyword set,
// branching on the first one or two characters.
func (s *Scanner) identifierKind() TokenKind {
	lex := s.source[s.start:s.current]
	switch lex[0] {
	case 'a':
		return keyword(lex, "and", TokenAnd)
	case 'c':
		return keyword(lex, "class", TokenClass)
	case 'e':
		return keyword(lex, "else", TokenElse)
	case 'f':
		if len(lex) > 1 {
			switch lex[1] {
			case 'a':
				return keyword(lex, "false", TokenFalse)
			case 'o':
				return keyword(lex, "for", TokenFor)
			case 'u':
				return keyword(lex, "fun", TokenFun)
			}
		}
	case 'i':
		return keyword(lex, "if", TokenIf)
	case 'n':
		return keyword(lex, "nil", TokenNil)
	case 'o':
		return keyword(lex, "or", TokenOr)
	case 'p':
		return keyword(lex, "print", TokenPrint)
	case 'r':
		return keyword(lex, "return", TokenReturn)
	case 's':
		return keyword(lex, "super", TokenSuper)
	case 't':
		if len(lex) > 1 {
			switch lex[1] {
			case 'h':
				return keyword(lex, "this", TokenThis)
			case 'r':
				return keyword(lex, "true", TokenTrue)
			}
		}
	case 'v':
		return keyword(lex, "var", TokenVar)
	case 'w':
		return keyword(lex, "while", TokenWhile)
	}
	return TokenIdentifier
}

func keyword(lex, word string, kind TokenKind) TokenKind {
	if lex == word {
		return kind
	}
	return TokenIdentifier
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
