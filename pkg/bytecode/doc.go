// Package bytecode defines the compiled form of a Lox expression and the
// tools that read it.
//
// # Architecture Overview
//
//   - Opcodes: a small stack-based instruction set covering literals,
//     arithmetic, comparison and return. Opcodes are grouped into numeric
//     ranges so that variables, jumps and calls can be added later without
//     renumbering existing instructions.
//
//   - Chunk: an instruction stream, a parallel source-line table (one entry
//     per instruction) and a constant pool. Instructions are fixed-size
//     records rather than a packed byte stream; the constant operand is an
//     index into the pool.
//
//   - Disassembler: renders a chunk as text. Consecutive instructions on the
//     same source line print a "   |" marker instead of repeating the line.
//
//   - Wire format: chunks serialize to canonical CBOR (magic "LXBC") so they
//     can be written to .loxc files, cached in SQLite, or sent between
//     processes.
//
// # Lifecycle
//
// A chunk has a single writer, the compiler. Once compilation finishes the
// chunk is never mutated again, which makes it safe to execute and
// disassemble from several goroutines at once.
package bytecode
