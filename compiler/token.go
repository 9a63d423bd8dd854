package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Token kinds for the Lox scanner
// ---------------------------------------------------------------------------

// TokenKind classifies a token.
type TokenKind int

const (
	// Single-character tokens
	TokenLeftParen  TokenKind = iota // (
	TokenRightParen                  // )
	TokenLeftBrace                   // {
	TokenRightBrace                  // }
	TokenComma                       // ,
	TokenDot                         // .
	TokenMinus                       // -
	TokenPlus                        // +
	TokenSemicolon                   // ;
	TokenSlash                       // /
	TokenStar                        // *

	// One or two character tokens
	TokenBang         // !
	TokenBangEqual    // !=
	TokenEqual        // =
	TokenEqualEqual   // ==
	TokenGreater      // >
	TokenGreaterEqual // >=
	TokenLess         // <
	TokenLessEqual    // <=

	// Literals
	TokenIdentifier
	TokenString
	TokenNumber

	// Keywords
	TokenAnd
	TokenClass
	TokenElse
	TokenFalse
	TokenFor
	TokenFun
	TokenIf
	TokenNil
	TokenOr
	TokenPrint
	TokenReturn
	TokenSuper
	TokenThis
	TokenTrue
	TokenVar
	TokenWhile

	// Sentinels
	TokenError
	TokenEOF

	tokenKindCount
)

var tokenNames = [tokenKindCount]string{
	TokenLeftParen:    "(",
	TokenRightParen:   ")",
	TokenLeftBrace:    "{",
	TokenRightBrace:   "}",
	TokenComma:        ",",
	TokenDot:          ".",
	TokenMinus:        "-",
	TokenPlus:         "+",
	TokenSemicolon:    ";",
	TokenSlash:        "/",
	TokenStar:         "*",
	TokenBang:         "!",
	TokenBangEqual:    "!=",
	TokenEqual:        "=",
	TokenEqualEqual:   "==",
	TokenGreater:      ">",
	TokenGreaterEqual: ">=",
	TokenLess:         "<",
	TokenLessEqual:    "<=",
	TokenIdentifier:   "IDENTIFIER",
	TokenString:       "STRING",
	TokenNumber:       "NUMBER",
	TokenAnd:          "and",
	TokenClass:        "class",
	TokenElse:         "else",
	TokenFalse:        "false",
	TokenFor:          "for",
	TokenFun:          "fun",
	TokenIf:           "if",
	TokenNil:          "nil",
	TokenOr:           "or",
	TokenPrint:        "print",
	TokenReturn:       "return",
	TokenSuper:        "super",
	TokenThis:         "this",
	TokenTrue:         "true",
	TokenVar:          "var",
	TokenWhile:        "while",
	TokenError:        "ERROR",
	TokenEOF:          "EOF",
}

func (k TokenKind) String() string {
	if k >= 0 && k < tokenKindCount {
		return tokenNames[k]
	}
	return fmt.Sprintf("Token(%d)", int(k))
}

// Token is a classified slice of source text. Lexeme shares memory with the
// source string it was scanned from; for TokenError it holds the message.
type Token struct {
	Kind   TokenKind
	Lexeme string
	Offset int // byte offset of the first character
	Line   int // 1-based
}

func (t Token) String() string {
	switch t.Kind {
	case TokenEOF:
		return "EOF"
	case TokenError:
		return fmt.Sprintf("ERROR(%s)", t.Lexeme)
	}
	if len(t.Lexeme) > 20 {
		return fmt.Sprintf("%s(%q...)", t.Kind, t.Lexeme[:20])
	}
	return fmt.Sprintf("%s(%q)", t.Kind, t.Lexeme)
}
