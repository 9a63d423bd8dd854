package bytecode

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/lox/pkg/value"
)

// ChunkMagic tags encoded chunks ("Lox ByteCode").
const ChunkMagic = "LXBC"

// ErrBadChunk is returned when encoded bytes do not describe a usable chunk.
var ErrBadChunk = errors.New("bytecode: bad chunk encoding")

// wireChunk is the on-disk and on-the-wire form of a Chunk.
type wireChunk struct {
	Magic     string      `cbor:"1,keyasint"`
	Version   uint16      `cbor:"2,keyasint"`
	Code      []wireInstr `cbor:"3,keyasint"`
	Lines     []int       `cbor:"4,keyasint"`
	Constants []wireValue `cbor:"5,keyasint,omitempty"`
}

type wireInstr struct {
	Op      Opcode `cbor:"1,keyasint"`
	Operand int    `cbor:"2,keyasint,omitempty"`
}

type wireValue struct {
	Kind value.Kind `cbor:"1,keyasint"`
	Num  float64    `cbor:"2,keyasint"`
	Bool bool       `cbor:"3,keyasint,omitempty"`
	Str  string     `cbor:"4,keyasint,omitempty"`
}

// cborEncMode uses canonical encoding so equal chunks encode to equal bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bytecode: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// MarshalChunk serializes a chunk to canonical CBOR.
func MarshalChunk(c *Chunk) ([]byte, error) {
	w := wireChunk{
		Magic:     ChunkMagic,
		Version:   c.version,
		Code:      make([]wireInstr, len(c.instructions)),
		Lines:     append([]int(nil), c.lines...),
		Constants: make([]wireValue, len(c.constants)),
	}
	for i, ins := range c.instructions {
		w.Code[i] = wireInstr{Op: ins.Op, Operand: ins.Operand}
	}
	for i, v := range c.constants {
		w.Constants[i] = toWireValue(v)
	}
	return cborEncMode.Marshal(&w)
}

// UnmarshalChunk deserializes and validates a chunk. Encoded chunks come from
// files and the network, so every structural problem is reported as an
// error wrapping ErrBadChunk.
func UnmarshalChunk(data []byte) (*Chunk, error) {
	var w wireChunk
	if err := cbor.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadChunk, err)
	}
	if w.Magic != ChunkMagic {
		return nil, fmt.Errorf("%w: magic %q", ErrBadChunk, w.Magic)
	}
	if w.Version != BytecodeVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadChunk, w.Version)
	}

	c := &Chunk{
		version:      w.Version,
		instructions: make([]Instruction, len(w.Code)),
		lines:        w.Lines,
		constants:    make([]value.Value, len(w.Constants)),
	}
	if c.lines == nil {
		c.lines = []int{}
	}
	for i, ins := range w.Code {
		c.instructions[i] = Instruction{Op: ins.Op, Operand: ins.Operand}
	}
	for i, wv := range w.Constants {
		v, err := fromWireValue(wv)
		if err != nil {
			return nil, err
		}
		c.constants[i] = v
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadChunk, err)
	}
	return c, nil
}

func toWireValue(v value.Value) wireValue {
	switch v.Kind {
	case value.KindNumber:
		return wireValue{Kind: v.Kind, Num: v.AsNumber()}
	case value.KindBool:
		return wireValue{Kind: v.Kind, Bool: v.AsBool()}
	case value.KindString:
		return wireValue{Kind: v.Kind, Str: v.AsString()}
	default:
		return wireValue{Kind: v.Kind}
	}
}

func fromWireValue(w wireValue) (value.Value, error) {
	switch w.Kind {
	case value.KindNil:
		return value.Nil(), nil
	case value.KindBool:
		return value.Bool(w.Bool), nil
	case value.KindNumber:
		return value.Number(w.Num), nil
	case value.KindString:
		return value.String(w.Str), nil
	default:
		return value.Value{}, fmt.Errorf("%w: unknown value kind %d", ErrBadChunk, w.Kind)
	}
}
