package vm

import (
	"bytes"
	"errors"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/chazu/lox/compiler"
	"github.com/chazu/lox/pkg/bytecode"
	"github.com/chazu/lox/pkg/value"
)

func eval(t *testing.T, source string) (value.Value, error) {
	t.Helper()
	chunk, err := compiler.Compile(source, compiler.WithDiagnostics(io.Discard))
	if err != nil {
		t.Fatalf("Compile(%q): %v", source, err)
	}
	vm := New()
	v, err := vm.Interpret(chunk)
	if depth := vm.StackDepth(); depth != 0 {
		t.Errorf("Interpret(%q) left %d values on the stack", source, depth)
	}
	return v, err
}

func TestInterpretExpressions(t *testing.T) {
	tests := []struct {
		source string
		want   value.Value
	}{
		{"42", value.Number(42)},
		{"-7", value.Number(-7)},
		{"--7", value.Number(7)},
		{"1 - 2 - 3", value.Number(-4)},
		{"1 + 2 * 3", value.Number(7)},
		{"(1 + 2) * 3", value.Number(9)},
		{"8 / 4 / 2", value.Number(1)},
		{"-(1 + 2)", value.Number(-3)},
		{"true", value.Bool(true)},
		{"nil", value.Nil()},
		{"!nil", value.Bool(true)},
		{"!false", value.Bool(true)},
		{"!0", value.Bool(false)},
		{`!""`, value.Bool(false)},
		{"!!true", value.Bool(true)},
		{"1 < 2", value.Bool(true)},
		{"2 <= 2", value.Bool(true)},
		{"3 > 4", value.Bool(false)},
		{"3 >= 4", value.Bool(false)},
		{"1 == 1", value.Bool(true)},
		{"1 != 1", value.Bool(false)},
		{"nil == nil", value.Bool(true)},
		{"nil == false", value.Bool(false)},
		{"0 == false", value.Bool(false)},
		{`"1" == 1`, value.Bool(false)},
		{`"ab" == "ab"`, value.Bool(true)},
		{`"a" + "b"`, value.String("ab")},
		{`"" + ""`, value.String("")},
		{"!(5 - 4 > 3 * 2 == !nil)", value.Bool(true)},
	}

	for _, tc := range tests {
		got, err := eval(t, tc.source)
		if err != nil {
			t.Errorf("Interpret(%q) error: %v", tc.source, err)
			continue
		}
		if got.Kind != tc.want.Kind || !value.Equal(got, tc.want) {
			t.Errorf("Interpret(%q) = %v (%s), want %v (%s)", tc.source, got, got.Kind, tc.want, tc.want.Kind)
		}
	}
}

func TestInterpretIEEEDivision(t *testing.T) {
	tests := []struct {
		source string
		check  func(float64) bool
		desc   string
	}{
		{"1 / 0", func(f float64) bool { return math.IsInf(f, 1) }, "+Inf"},
		{"-1 / 0", func(f float64) bool { return math.IsInf(f, -1) }, "-Inf"},
		{"0 / 0", math.IsNaN, "NaN"},
	}

	for _, tc := range tests {
		got, err := eval(t, tc.source)
		if err != nil {
			t.Errorf("Interpret(%q) error: %v", tc.source, err)
			continue
		}
		if !got.IsNumber() || !tc.check(got.AsNumber()) {
			t.Errorf("Interpret(%q) = %v, want %s", tc.source, got, tc.desc)
		}
	}

	// NaN is never equal to itself
	if got, _ := eval(t, "0/0 == 0/0"); !value.Equal(got, value.Bool(false)) {
		t.Errorf("Interpret(0/0 == 0/0) = %v, want false", got)
	}
}

func TestInterpretRuntimeErrors(t *testing.T) {
	tests := []struct {
		source string
		msg    string
		op     bytecode.Opcode
		line   int
	}{
		{"-true", "Operand must be a number.", bytecode.OpNegate, 1},
		{`-"s"`, "Operand must be a number.", bytecode.OpNegate, 1},
		{"1 + true", "Operands must be two numbers or two strings.", bytecode.OpAdd, 1},
		{`1 + "a"`, "Operands must be two numbers or two strings.", bytecode.OpAdd, 1},
		{"nil - 1", "Operands must be numbers.", bytecode.OpSubtract, 1},
		{`"a" * 2`, "Operands must be numbers.", bytecode.OpMultiply, 1},
		{"true / false", "Operands must be numbers.", bytecode.OpDivide, 1},
		{`"a" < "b"`, "Operands must be numbers.", bytecode.OpLess, 1},
		{"1 >\n\nnil", "Operands must be numbers.", bytecode.OpGreater, 3},
	}

	for _, tc := range tests {
		_, err := eval(t, tc.source)
		var re *RuntimeError
		if !errors.As(err, &re) {
			t.Errorf("Interpret(%q) error = %v, want *RuntimeError", tc.source, err)
			continue
		}
		if re.Message != tc.msg {
			t.Errorf("Interpret(%q) message = %q, want %q", tc.source, re.Message, tc.msg)
		}
		if re.Op != tc.op {
			t.Errorf("Interpret(%q) op = %s, want %s", tc.source, re.Op, tc.op)
		}
		if re.Line != tc.line {
			t.Errorf("Interpret(%q) line = %d, want %d", tc.source, re.Line, tc.line)
		}
	}
}

func TestRuntimeErrorString(t *testing.T) {
	err := &RuntimeError{Message: "Operands must be numbers.", Line: 3}
	if got := err.Error(); got != "[line 3] Operands must be numbers." {
		t.Errorf("Error() = %q", got)
	}
}

func TestInterpretMissingReturn(t *testing.T) {
	c := bytecode.NewChunk()
	c.Emit(bytecode.OpTrue, 1)

	vm := New()
	_, err := vm.Interpret(c)
	var re *RuntimeError
	if !errors.As(err, &re) || re.Message != "Chunk ended without a return." {
		t.Errorf("Interpret(no return) error = %v", err)
	}
	if vm.StackDepth() != 0 {
		t.Errorf("StackDepth() = %d after error, want 0", vm.StackDepth())
	}
}

func TestInterpretReusesVM(t *testing.T) {
	vm := New()
	for _, src := range []string{"-true", "1 + 1", "2 * 3"} {
		chunk, err := compiler.Compile(src, compiler.WithDiagnostics(io.Discard))
		if err != nil {
			t.Fatal(err)
		}
		vm.Interpret(chunk)
	}

	chunk, _ := compiler.Compile("10 - 4", compiler.WithDiagnostics(io.Discard))
	got, err := vm.Interpret(chunk)
	if err != nil || !value.Equal(got, value.Number(6)) {
		t.Errorf("Interpret = %v, %v; want 6", got, err)
	}
}

func TestInterpretPanicsOnStackUnderflow(t *testing.T) {
	c := bytecode.NewChunk()
	c.Emit(bytecode.OpAdd, 1)
	c.Emit(bytecode.OpReturn, 1)

	defer func() {
		if recover() == nil {
			t.Error("expected panic on empty stack")
		}
	}()
	New().Interpret(c)
}

func TestInterpretPanicsOnInvalidChunk(t *testing.T) {
	c := bytecode.NewChunk()
	c.AddInstruction(bytecode.Instruction{Op: bytecode.OpConstant, Operand: 3}, 1)

	defer func() {
		if recover() == nil {
			t.Error("expected panic on dangling constant index")
		}
	}()
	New().Interpret(c)
}

func TestTrace(t *testing.T) {
	chunk, err := compiler.Compile("1 + 2", compiler.WithDiagnostics(io.Discard))
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if _, err := New(WithTrace(&buf)).Interpret(chunk); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	want := []string{
		"          ",
		"0000    1 OpConstant          0 '1'",
		"          [ 1 ]",
		"0001    | OpConstant          1 '2'",
		"          [ 1 ][ 2 ]",
		"0002    | OpAdd",
		"          [ 3 ]",
		"0003    | OpReturn",
	}
	if len(lines) != len(want) {
		t.Fatalf("trace has %d lines, want %d:\n%s", len(lines), len(want), buf.String())
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("trace line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}
