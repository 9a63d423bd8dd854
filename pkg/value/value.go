// Package value defines the runtime value model shared by the compiler's
// constant pool and the virtual machine's operand stack.
package value

import (
	"fmt"
	"strconv"
)

// Kind is the tag of a Value. New kinds are appended at the end so that
// encoded chunks keep their meaning.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindString
)

var kindNames = [...]string{
	KindNil:    "nil",
	KindBool:   "bool",
	KindNumber: "number",
	KindString: "string",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Value is a tagged union. Only the field selected by Kind is meaningful.
// Values are copied, never shared.
type Value struct {
	Kind Kind
	num  float64
	b    bool
	str  string
}

// Nil returns the nil value.
func Nil() Value { return Value{Kind: KindNil} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{Kind: KindBool, b: b} }

// Number wraps a float64.
func Number(n float64) Value { return Value{Kind: KindNumber, num: n} }

// String wraps an owned string.
func String(s string) Value { return Value{Kind: KindString, str: s} }

func (v Value) IsNil() bool    { return v.Kind == KindNil }
func (v Value) IsBool() bool   { return v.Kind == KindBool }
func (v Value) IsNumber() bool { return v.Kind == KindNumber }
func (v Value) IsString() bool { return v.Kind == KindString }

// AsNumber returns the numeric payload. It is zero for non-numbers.
func (v Value) AsNumber() float64 { return v.num }

// AsBool returns the boolean payload. It is false for non-booleans.
func (v Value) AsBool() bool { return v.b }

// AsString returns the string payload. It is empty for non-strings.
func (v Value) AsString() string { return v.str }

// Truthy reports whether v counts as true in a conditional context.
// Only nil and false are falsey.
func Truthy(v Value) bool {
	switch v.Kind {
	case KindNil:
		return false
	case KindBool:
		return v.b
	default:
		return true
	}
}

// Falsey is the negation of Truthy.
func Falsey(v Value) bool { return !Truthy(v) }

// Equal compares two values without any cross-kind coercion.
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNil:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		return a.num == b.num
	case KindString:
		return a.str == b.str
	default:
		return false
	}
}

// String renders the value the way the REPL prints it.
func (v Value) String() string {
	switch v.Kind {
	case KindNil:
		return "nil"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindString:
		return v.str
	default:
		return fmt.Sprintf("<%s>", v.Kind)
	}
}
