package compiler

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/chazu/lox/pkg/bytecode"
	"github.com/chazu/lox/pkg/value"
)

var log = commonlog.GetLogger("lox.compiler")

// ---------------------------------------------------------------------------
// Diagnostics
// ---------------------------------------------------------------------------

// Diagnostic is one reported compile error.
type Diagnostic struct {
	Line    int
	Offset  int    // byte offset of the offending token
	Length  int    // length of the offending lexeme; 0 at end of input
	Where   string // "", " at end", or " at 'lexeme'"
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("[line %d] Error%s: %s", d.Line, d.Where, d.Message)
}

// CompileError reports that compilation failed. It carries every diagnostic
// that was emitted, in source order.
type CompileError struct {
	Diagnostics []Diagnostic
}

func (e *CompileError) Error() string {
	lines := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		lines[i] = d.String()
	}
	return strings.Join(lines, "\n")
}

// ---------------------------------------------------------------------------
// Options
// ---------------------------------------------------------------------------

type options struct {
	diagnostics io.Writer
	disassembly io.Writer
}

// Option configures a single Compile call.
type Option func(*options)

// WithDiagnostics sets where diagnostics are printed as they are reported.
// A nil writer discards them; they are still returned on the CompileError.
func WithDiagnostics(w io.Writer) Option {
	return func(o *options) {
		if w == nil {
			w = io.Discard
		}
		o.diagnostics = w
	}
}

// WithDisassembly prints the finished chunk to w.
func WithDisassembly(w io.Writer) Option {
	return func(o *options) { o.disassembly = w }
}

// ---------------------------------------------------------------------------
// Compiler
// ---------------------------------------------------------------------------

// compiler is the state of a single compilation. It is discarded when
// Compile returns.
type compiler struct {
	scanner  *Scanner
	previous Token
	current  Token
	chunk    *bytecode.Chunk
	opts     options

	hadError  bool
	panicMode bool
	diags     []Diagnostic
}

// Compile translates a single Lox expression into a chunk ending in
// OpReturn. On failure the chunk is nil and the error is a *CompileError.
func Compile(source string, opts ...Option) (*bytecode.Chunk, error) {
	c := &compiler{
		scanner: NewScanner(source),
		chunk:   bytecode.NewChunk(),
		opts:    options{diagnostics: os.Stderr},
	}
	for _, opt := range opts {
		opt(&c.opts)
	}

	c.advance()
	c.expression()
	c.consume(TokenEOF, "Expect end of expression.")
	c.emit(bytecode.OpReturn)

	if c.hadError {
		log.Debug("compile failed", "diagnostics", len(c.diags))
		return nil, &CompileError{Diagnostics: c.diags}
	}

	log.Debug("compiled", "instructions", c.chunk.Len(), "constants", c.chunk.ConstantCount())
	if c.opts.disassembly != nil {
		bytecode.Disassemble(c.opts.disassembly, c.chunk, "code")
	}
	return c.chunk, nil
}

// ---------------------------------------------------------------------------
// Token stream
// ---------------------------------------------------------------------------

func (c *compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.scanner.Next()
		if c.current.Kind != TokenError {
			return
		}
		c.errorAtCurrent(c.current.Lexeme)
	}
}

func (c *compiler) consume(kind TokenKind, message string) {
	if c.current.Kind == kind {
		c.advance()
		return
	}
	c.errorAtCurrent(message)
}

// ---------------------------------------------------------------------------
// Error reporting
// ---------------------------------------------------------------------------

func (c *compiler) errorAtCurrent(message string) {
	c.errorAt(c.current, message)
}

func (c *compiler) error(message string) {
	c.errorAt(c.previous, message)
}

// errorAt records a diagnostic unless the compiler is already in panic mode.
// There is no synchronization point in a single expression, so panic mode
// lasts until the end of the compilation.
func (c *compiler) errorAt(tok Token, message string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true

	d := Diagnostic{Line: tok.Line, Offset: tok.Offset, Message: message}
	switch tok.Kind {
	case TokenEOF:
		d.Where = " at end"
	case TokenError:
		// the lexeme is the message itself
	default:
		d.Where = fmt.Sprintf(" at '%s'", tok.Lexeme)
		d.Length = len(tok.Lexeme)
	}
	c.diags = append(c.diags, d)
	fmt.Fprintln(c.opts.diagnostics, d.String())
}

// ---------------------------------------------------------------------------
// Emission
// ---------------------------------------------------------------------------

func (c *compiler) emit(op bytecode.Opcode) {
	c.chunk.Emit(op, c.previous.Line)
}

func (c *compiler) emitPair(a, b bytecode.Opcode) {
	c.emit(a)
	c.emit(b)
}

func (c *compiler) emitConstant(v value.Value) {
	c.chunk.EmitConstant(v, c.previous.Line)
}

// ---------------------------------------------------------------------------
// Pratt parser
// ---------------------------------------------------------------------------

func (c *compiler) expression() {
	c.parsePrecedence(PrecAssignment)
}

// parsePrecedence parses any expression whose operators bind at least as
// tightly as prec.
func (c *compiler) parsePrecedence(prec Precedence) {
	c.advance()
	prefix := getRule(c.previous.Kind).prefix
	if prefix == nil {
		c.error("Expected prefix expression")
		return
	}
	prefix(c)

	for prec <= getRule(c.current.Kind).precedence {
		c.advance()
		infix := getRule(c.previous.Kind).infix
		infix(c)
	}
}

func (c *compiler) grouping() {
	c.expression()
	c.consume(TokenRightParen, "Expect ')' after expression.")
}

func (c *compiler) number() {
	n, err := strconv.ParseFloat(c.previous.Lexeme, 64)
	if err != nil {
		c.error("Invalid number literal.")
		return
	}
	c.emitConstant(value.Number(n))
}

func (c *compiler) string() {
	lex := c.previous.Lexeme
	c.emitConstant(value.String(lex[1 : len(lex)-1]))
}

func (c *compiler) literal() {
	switch c.previous.Kind {
	case TokenFalse:
		c.emit(bytecode.OpFalse)
	case TokenNil:
		c.emit(bytecode.OpNil)
	case TokenTrue:
		c.emit(bytecode.OpTrue)
	}
}

func (c *compiler) unary() {
	op := c.previous.Kind

	c.parsePrecedence(PrecUnary)

	switch op {
	case TokenMinus:
		c.emit(bytecode.OpNegate)
	case TokenBang:
		c.emit(bytecode.OpNot)
	}
}

func (c *compiler) binary() {
	op := c.previous.Kind
	c.parsePrecedence(getRule(op).precedence.next())

	switch op {
	case TokenPlus:
		c.emit(bytecode.OpAdd)
	case TokenMinus:
		c.emit(bytecode.OpSubtract)
	case TokenStar:
		c.emit(bytecode.OpMultiply)
	case TokenSlash:
		c.emit(bytecode.OpDivide)
	case TokenEqualEqual:
		c.emit(bytecode.OpEqual)
	case TokenBangEqual:
		c.emitPair(bytecode.OpEqual, bytecode.OpNot)
	case TokenGreater:
		c.emit(bytecode.OpGreater)
	case TokenGreaterEqual:
		c.emitPair(bytecode.OpLess, bytecode.OpNot)
	case TokenLess:
		c.emit(bytecode.OpLess)
	case TokenLessEqual:
		c.emitPair(bytecode.OpGreater, bytecode.OpNot)
	}
}
