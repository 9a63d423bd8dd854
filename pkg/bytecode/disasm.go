package bytecode

import (
	"fmt"
	"io"
	"strings"
)

// Disassemble writes a human-readable listing of the chunk to w under a
// "== label ==" header.
func Disassemble(w io.Writer, c *Chunk, label string) {
	fmt.Fprintf(w, "== %s ==\n", label)
	for offset := 0; offset < c.Len(); offset++ {
		DisassembleInstruction(w, c, offset)
	}
}

// DisassembleString returns the listing produced by Disassemble.
func DisassembleString(c *Chunk, label string) string {
	var sb strings.Builder
	Disassemble(&sb, c, label)
	return sb.String()
}

// DisassembleInstruction writes the single instruction at offset. An
// instruction on the same source line as its predecessor shows "   |"
// instead of the line number.
func DisassembleInstruction(w io.Writer, c *Chunk, offset int) {
	fmt.Fprintf(w, "%04d ", offset)
	if offset > 0 && c.LineAt(offset) == c.LineAt(offset-1) {
		fmt.Fprint(w, "   | ")
	} else {
		fmt.Fprintf(w, "%4d ", c.LineAt(offset))
	}

	ins := c.InstructionAt(offset)
	switch ins.Op {
	case OpConstant:
		fmt.Fprintf(w, "%-16s %4d '%s'\n", ins.Op, ins.Operand, constantDisplay(c, ins.Operand))
	default:
		if !ins.Op.Valid() {
			fmt.Fprintf(w, "Unknown opcode %d\n", byte(ins.Op))
			return
		}
		fmt.Fprintf(w, "%s\n", ins.Op)
	}
}

func constantDisplay(c *Chunk, index int) string {
	if index < 0 || index >= c.ConstantCount() {
		return "<invalid>"
	}
	return c.ConstantAt(index).String()
}
