package bytecode

import "fmt"

// Opcode identifies a VM instruction.
// Opcodes are organized into ranges by category so that later families
// (globals, jumps, calls) can be added without renumbering.
type Opcode byte

const (
	// ========================================================================
	// Constants and literals (0x00-0x0F)
	// ========================================================================

	OpConstant Opcode = 0x00 // Push constant from pool: operand = pool index
	OpNil      Opcode = 0x01 // Push nil
	OpTrue     Opcode = 0x02 // Push true
	OpFalse    Opcode = 0x03 // Push false

	// ========================================================================
	// Arithmetic (0x10-0x1F)
	// ========================================================================

	OpNegate   Opcode = 0x10 // Negate top of stack
	OpAdd      Opcode = 0x11 // Pop b, pop a, push a + b (numbers or strings)
	OpSubtract Opcode = 0x12 // Pop b, pop a, push a - b
	OpMultiply Opcode = 0x13 // Pop b, pop a, push a * b
	OpDivide   Opcode = 0x14 // Pop b, pop a, push a / b

	// ========================================================================
	// Logic and comparison (0x20-0x2F)
	// ========================================================================

	OpNot     Opcode = 0x20 // Push !truthy(pop)
	OpEqual   Opcode = 0x21 // Pop b, pop a, push a == b
	OpGreater Opcode = 0x22 // Pop b, pop a, push a > b
	OpLess    Opcode = 0x23 // Pop b, pop a, push a < b

	// ========================================================================
	// Return (0xF0-0xFF)
	// ========================================================================

	OpReturn Opcode = 0xF0 // Pop the result and stop
)

// OpcodeInfo provides metadata about each opcode for debugging and validation.
type OpcodeInfo struct {
	Name       string // Mnemonic used by the disassembler
	StackPop   int    // How many values are popped
	StackPush  int    // How many values are pushed
	HasOperand bool   // Whether Instruction.Operand is meaningful
}

var opcodeInfoTable = map[Opcode]OpcodeInfo{
	OpConstant: {"OpConstant", 0, 1, true},
	OpNil:      {"OpNil", 0, 1, false},
	OpTrue:     {"OpTrue", 0, 1, false},
	OpFalse:    {"OpFalse", 0, 1, false},

	OpNegate:   {"OpNegate", 1, 1, false},
	OpAdd:      {"OpAdd", 2, 1, false},
	OpSubtract: {"OpSubtract", 2, 1, false},
	OpMultiply: {"OpMultiply", 2, 1, false},
	OpDivide:   {"OpDivide", 2, 1, false},

	OpNot:     {"OpNot", 1, 1, false},
	OpEqual:   {"OpEqual", 2, 1, false},
	OpGreater: {"OpGreater", 2, 1, false},
	OpLess:    {"OpLess", 2, 1, false},

	OpReturn: {"OpReturn", 1, 0, false},
}

// GetOpcodeInfo returns metadata for an opcode.
// Unknown opcodes get a name of the form "UNKNOWN(0xNN)".
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if info, ok := opcodeInfoTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN(0x%02X)", byte(op))}
}

// String returns the mnemonic of an opcode.
func (op Opcode) String() string {
	return GetOpcodeInfo(op).Name
}

// Valid reports whether op is a defined opcode.
func (op Opcode) Valid() bool {
	_, ok := opcodeInfoTable[op]
	return ok
}

// StackEffect returns the net change in stack depth caused by op.
func (op Opcode) StackEffect() int {
	info := GetOpcodeInfo(op)
	return info.StackPush - info.StackPop
}

// AllOpcodes returns every defined opcode.
func AllOpcodes() []Opcode {
	opcodes := make([]Opcode, 0, len(opcodeInfoTable))
	for op := range opcodeInfoTable {
		opcodes = append(opcodes, op)
	}
	return opcodes
}
