package bytecode

import (
	"fmt"

	"github.com/chazu/lox/pkg/value"
)

// BytecodeVersion is the current chunk format version.
// Increment when making incompatible changes to the instruction set.
const BytecodeVersion uint16 = 1

// Instruction is a fixed-size tagged record. Operand is the constant pool
// index for OpConstant and zero for every other opcode.
type Instruction struct {
	Op      Opcode
	Operand int
}

// String renders the instruction the way tests and logs print it.
func (ins Instruction) String() string {
	if GetOpcodeInfo(ins.Op).HasOperand {
		return fmt.Sprintf("%s(%d)", ins.Op, ins.Operand)
	}
	return ins.Op.String()
}

// Chunk is a compiled unit: an instruction stream, a parallel line table and
// a constant pool. A chunk is written by a single compiler and is read-only
// afterwards, so it may be shared by any number of readers.
type Chunk struct {
	version      uint16
	instructions []Instruction
	lines        []int
	constants    []value.Value
}

// NewChunk creates an empty chunk with the current version.
func NewChunk() *Chunk {
	return &Chunk{
		version:      BytecodeVersion,
		instructions: make([]Instruction, 0, 16),
		lines:        make([]int, 0, 16),
		constants:    make([]value.Value, 0, 4),
	}
}

// Version returns the format version the chunk was built for.
func (c *Chunk) Version() uint16 {
	return c.version
}

// AddInstruction appends an instruction attributed to the given source line
// and returns its offset.
func (c *Chunk) AddInstruction(ins Instruction, line int) int {
	c.instructions = append(c.instructions, ins)
	c.lines = append(c.lines, line)
	return len(c.instructions) - 1
}

// Emit appends an operand-less instruction.
func (c *Chunk) Emit(op Opcode, line int) int {
	return c.AddInstruction(Instruction{Op: op}, line)
}

// AddConstant appends v to the constant pool and returns its index.
// Constants are never deduplicated.
func (c *Chunk) AddConstant(v value.Value) int {
	c.constants = append(c.constants, v)
	return len(c.constants) - 1
}

// EmitConstant adds v to the pool and emits an OpConstant referring to it.
func (c *Chunk) EmitConstant(v value.Value, line int) int {
	idx := c.AddConstant(v)
	return c.AddInstruction(Instruction{Op: OpConstant, Operand: idx}, line)
}

// InstructionAt returns the instruction at offset.
// Panics if offset is out of range: that is a compiler or VM bug.
func (c *Chunk) InstructionAt(offset int) Instruction {
	if offset < 0 || offset >= len(c.instructions) {
		panic(fmt.Sprintf("bytecode: instruction offset %d out of range [0,%d)", offset, len(c.instructions)))
	}
	return c.instructions[offset]
}

// LineAt returns the source line of the instruction at offset.
// Panics if offset is out of range.
func (c *Chunk) LineAt(offset int) int {
	if offset < 0 || offset >= len(c.lines) {
		panic(fmt.Sprintf("bytecode: line offset %d out of range [0,%d)", offset, len(c.lines)))
	}
	return c.lines[offset]
}

// ConstantAt returns the constant at index.
// Panics if index is out of range.
func (c *Chunk) ConstantAt(index int) value.Value {
	if index < 0 || index >= len(c.constants) {
		panic(fmt.Sprintf("bytecode: constant index %d out of range [0,%d)", index, len(c.constants)))
	}
	return c.constants[index]
}

// Len returns the number of instructions.
func (c *Chunk) Len() int {
	return len(c.instructions)
}

// ConstantCount returns the number of constants in the pool.
func (c *Chunk) ConstantCount() int {
	return len(c.constants)
}

// Instructions returns a copy of the instruction stream.
func (c *Chunk) Instructions() []Instruction {
	out := make([]Instruction, len(c.instructions))
	copy(out, c.instructions)
	return out
}

// Validate checks the structural invariants of the chunk: one line per
// instruction, only defined opcodes, every constant index in range, and a
// stack that never underflows and holds a value at every OpReturn.
func (c *Chunk) Validate() error {
	if len(c.instructions) != len(c.lines) {
		return fmt.Errorf("bytecode: %d instructions but %d line entries", len(c.instructions), len(c.lines))
	}
	for offset, ins := range c.instructions {
		if !ins.Op.Valid() {
			return fmt.Errorf("bytecode: invalid opcode 0x%02X at offset %d", byte(ins.Op), offset)
		}
		if ins.Op == OpConstant && (ins.Operand < 0 || ins.Operand >= len(c.constants)) {
			return fmt.Errorf("bytecode: constant index %d at offset %d out of range [0,%d)",
				ins.Operand, offset, len(c.constants))
		}
	}
	return c.checkStack()
}

// checkStack simulates the operand stack depth across the instruction
// stream. There are no jumps, so a single linear pass sees every path.
func (c *Chunk) checkStack() error {
	depth := 0
	for offset, ins := range c.instructions {
		info := GetOpcodeInfo(ins.Op)
		if depth < info.StackPop {
			return fmt.Errorf("bytecode: %s at offset %d needs %d stack values, has %d",
				ins.Op, offset, info.StackPop, depth)
		}
		depth += ins.Op.StackEffect()
	}
	return nil
}
