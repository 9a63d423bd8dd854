package vm

import (
	"fmt"

	"github.com/chazu/lox/pkg/bytecode"
)

// Runtime error messages.
const (
	msgOperandNumber   = "Operand must be a number."
	msgOperandsNumbers = "Operands must be numbers."
	msgOperandsAdd     = "Operands must be two numbers or two strings."
	msgNoReturn        = "Chunk ended without a return."
)

// RuntimeError is a type error raised while executing a chunk.
type RuntimeError struct {
	Message string
	Line    int             // source line of the failing instruction
	Offset  int             // instruction offset in the chunk
	Op      bytecode.Opcode // failing opcode
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("[line %d] %s", e.Line, e.Message)
}
