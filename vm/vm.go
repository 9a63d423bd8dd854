package vm

import (
	"fmt"
	"io"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/chazu/lox/pkg/bytecode"
	"github.com/chazu/lox/pkg/value"
)

var log = commonlog.GetLogger("lox.vm")

const initialStackSize = 256

// VM executes bytecode chunks.
type VM struct {
	chunk *bytecode.Chunk
	ip    int
	stack []value.Value

	trace io.Writer
}

// Option configures a VM.
type Option func(*VM)

// WithTrace prints the operand stack and each instruction to w before the
// instruction executes.
func WithTrace(w io.Writer) Option {
	return func(vm *VM) { vm.trace = w }
}

// New creates a VM with an empty stack.
func New(opts ...Option) *VM {
	vm := &VM{stack: make([]value.Value, 0, initialStackSize)}
	for _, opt := range opts {
		opt(vm)
	}
	return vm
}

// StackDepth reports the number of values on the operand stack.
func (vm *VM) StackDepth() int {
	return len(vm.stack)
}

// Interpret runs chunk from its first instruction until OpReturn and
// returns the value it produced. The stack is empty when Interpret returns.
//
// Interpret panics if the chunk fails validation.
func (vm *VM) Interpret(chunk *bytecode.Chunk) (value.Value, error) {
	if err := chunk.Validate(); err != nil {
		panic(fmt.Sprintf("vm: invalid chunk: %v", err))
	}
	vm.chunk = chunk
	vm.ip = 0
	vm.resetStack()

	result, err := vm.run()
	if err != nil {
		log.Debugf("runtime error at offset %d: %v", vm.ip-1, err)
		vm.resetStack()
		return value.Nil(), err
	}
	return result, nil
}

// run is the dispatch loop.
func (vm *VM) run() (value.Value, error) {
	for vm.ip < vm.chunk.Len() {
		if vm.trace != nil {
			vm.traceStep()
		}

		ins := vm.chunk.InstructionAt(vm.ip)
		vm.ip++

		switch ins.Op {
		case bytecode.OpConstant:
			vm.push(vm.chunk.ConstantAt(ins.Operand))
		case bytecode.OpNil:
			vm.push(value.Nil())
		case bytecode.OpTrue:
			vm.push(value.Bool(true))
		case bytecode.OpFalse:
			vm.push(value.Bool(false))

		case bytecode.OpNegate:
			if !vm.peek(0).IsNumber() {
				return value.Nil(), vm.runtimeError(msgOperandNumber)
			}
			vm.push(value.Number(-vm.pop().AsNumber()))

		case bytecode.OpAdd:
			b, a := vm.peek(0), vm.peek(1)
			switch {
			case a.IsNumber() && b.IsNumber():
				vm.pop()
				vm.pop()
				vm.push(value.Number(a.AsNumber() + b.AsNumber()))
			case a.IsString() && b.IsString():
				vm.pop()
				vm.pop()
				vm.push(value.String(a.AsString() + b.AsString()))
			default:
				return value.Nil(), vm.runtimeError(msgOperandsAdd)
			}

		case bytecode.OpSubtract, bytecode.OpMultiply, bytecode.OpDivide,
			bytecode.OpGreater, bytecode.OpLess:
			if err := vm.binaryNumber(ins.Op); err != nil {
				return value.Nil(), err
			}

		case bytecode.OpNot:
			vm.push(value.Bool(value.Falsey(vm.pop())))

		case bytecode.OpEqual:
			b := vm.pop()
			a := vm.pop()
			vm.push(value.Bool(value.Equal(a, b)))

		case bytecode.OpReturn:
			return vm.pop(), nil

		default:
			panic(fmt.Sprintf("vm: unknown opcode %s at offset %d", ins.Op, vm.ip-1))
		}
	}
	return value.Nil(), vm.runtimeError(msgNoReturn)
}

// binaryNumber executes an arithmetic or comparison opcode whose operands
// must both be numbers.
func (vm *VM) binaryNumber(op bytecode.Opcode) error {
	if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
		return vm.runtimeError(msgOperandsNumbers)
	}
	b := vm.pop().AsNumber()
	a := vm.pop().AsNumber()

	switch op {
	case bytecode.OpSubtract:
		vm.push(value.Number(a - b))
	case bytecode.OpMultiply:
		vm.push(value.Number(a * b))
	case bytecode.OpDivide:
		vm.push(value.Number(a / b))
	case bytecode.OpGreater:
		vm.push(value.Bool(a > b))
	case bytecode.OpLess:
		vm.push(value.Bool(a < b))
	}
	return nil
}

// ---------------------------------------------------------------------------
// Stack
// ---------------------------------------------------------------------------

func (vm *VM) push(v value.Value) {
	vm.stack = append(vm.stack, v)
}

func (vm *VM) pop() value.Value {
	n := len(vm.stack)
	if n == 0 {
		panic(fmt.Sprintf("vm: stack underflow at offset %d", vm.ip-1))
	}
	v := vm.stack[n-1]
	vm.stack = vm.stack[:n-1]
	return v
}

// peek returns the value distance slots below the top without removing it.
func (vm *VM) peek(distance int) value.Value {
	n := len(vm.stack)
	if distance >= n {
		panic(fmt.Sprintf("vm: stack underflow at offset %d", vm.ip-1))
	}
	return vm.stack[n-1-distance]
}

func (vm *VM) resetStack() {
	vm.stack = vm.stack[:0]
}

// runtimeError builds an error for the instruction that was just fetched.
func (vm *VM) runtimeError(message string) *RuntimeError {
	offset := vm.ip - 1
	if offset < 0 || offset >= vm.chunk.Len() {
		offset = vm.chunk.Len() - 1
	}
	e := &RuntimeError{Message: message, Offset: offset}
	if offset >= 0 {
		e.Line = vm.chunk.LineAt(offset)
		e.Op = vm.chunk.InstructionAt(offset).Op
	}
	return e
}

// ---------------------------------------------------------------------------
// Tracing
// ---------------------------------------------------------------------------

func (vm *VM) traceStep() {
	var sb strings.Builder
	sb.WriteString("          ")
	for _, v := range vm.stack {
		sb.WriteString("[ ")
		sb.WriteString(v.String())
		sb.WriteString(" ]")
	}
	sb.WriteByte('\n')
	io.WriteString(vm.trace, sb.String())
	bytecode.DisassembleInstruction(vm.trace, vm.chunk, vm.ip)
}
