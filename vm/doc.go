// Package vm executes compiled Lox chunks.
//
// The VM is a plain stack machine: an instruction pointer into the chunk
// and an operand stack of values. It is not safe for concurrent use; give
// each goroutine its own VM, or funnel work through a single owner as the
// server's Worker does.
//
// Type errors in the program (negating a string, adding a number to a
// boolean) are returned as *RuntimeError. Faults that mean the chunk itself
// is malformed, such as popping an empty stack, panic.
package vm
