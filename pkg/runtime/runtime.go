// Package runtime wires the compiler, the chunk store and the VM into the
// compile-then-execute pipeline shared by the CLI, the REPL and the server.
package runtime

import (
	"errors"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	"github.com/chazu/lox/compiler"
	"github.com/chazu/lox/pkg/bytecode"
	"github.com/chazu/lox/pkg/value"
	"github.com/chazu/lox/store"
	"github.com/chazu/lox/vm"
)

var log = commonlog.GetLogger("lox.runtime")

var (
	// ErrCompile matches any error caused by a failed compilation.
	ErrCompile = errors.New("compile error")
	// ErrRuntime matches any error raised while executing a chunk.
	ErrRuntime = errors.New("runtime error")
)

// Error wraps a *compiler.CompileError or *vm.RuntimeError and tags it
// with ErrCompile or ErrRuntime.
type Error struct {
	Kind error // ErrCompile or ErrRuntime
	Err  error
}

func (e *Error) Error() string { return e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == e.Kind }

// Runtime owns one VM and evaluates source against it. It is not safe for
// concurrent use.
type Runtime struct {
	id          string
	vm          *vm.VM
	store       *store.Store
	diagnostics io.Writer
	printCode   io.Writer
	trace       io.Writer
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithStore caches compiled chunks in s.
func WithStore(s *store.Store) Option {
	return func(r *Runtime) { r.store = s }
}

// WithDiagnostics sets where compile diagnostics are printed. The default
// is os.Stderr; nil discards them.
func WithDiagnostics(w io.Writer) Option {
	return func(r *Runtime) {
		if w == nil {
			w = io.Discard
		}
		r.diagnostics = w
	}
}

// WithPrintCode disassembles every freshly compiled chunk to w.
func WithPrintCode(w io.Writer) Option {
	return func(r *Runtime) { r.printCode = w }
}

// WithTrace traces execution to w.
func WithTrace(w io.Writer) Option {
	return func(r *Runtime) { r.trace = w }
}

// New creates a runtime with a fresh VM and session ID.
func New(opts ...Option) *Runtime {
	r := &Runtime{
		id:          uuid.NewString(),
		diagnostics: os.Stderr,
	}
	for _, opt := range opts {
		opt(r)
	}

	var vmOpts []vm.Option
	if r.trace != nil {
		vmOpts = append(vmOpts, vm.WithTrace(r.trace))
	}
	r.vm = vm.New(vmOpts...)

	log.Debug("runtime created", "session", r.id)
	return r
}

// ID returns the session identifier of this runtime.
func (r *Runtime) ID() string {
	return r.id
}

// Compile returns the chunk for source, consulting the store first when
// one is configured. Store failures are logged and otherwise ignored.
func (r *Runtime) Compile(source string) (*bytecode.Chunk, error) {
	if r.store != nil {
		chunk, ok, err := r.store.Get(source)
		if err != nil {
			log.Warningf("chunk store lookup failed: %v", err)
		} else if ok {
			log.Debug("chunk cache hit", "session", r.id)
			if r.printCode != nil {
				bytecode.Disassemble(r.printCode, chunk, "code")
			}
			return chunk, nil
		}
	}

	opts := []compiler.Option{compiler.WithDiagnostics(r.diagnostics)}
	if r.printCode != nil {
		opts = append(opts, compiler.WithDisassembly(r.printCode))
	}
	chunk, err := compiler.Compile(source, opts...)
	if err != nil {
		return nil, &Error{Kind: ErrCompile, Err: err}
	}

	if r.store != nil {
		if err := r.store.Put(source, chunk); err != nil {
			log.Warningf("chunk store write failed: %v", err)
		}
	}
	return chunk, nil
}

// Run executes a compiled chunk.
func (r *Runtime) Run(chunk *bytecode.Chunk) (value.Value, error) {
	v, err := r.vm.Interpret(chunk)
	if err != nil {
		return value.Nil(), &Error{Kind: ErrRuntime, Err: err}
	}
	return v, nil
}

// Eval compiles and runs source.
func (r *Runtime) Eval(source string) (value.Value, error) {
	chunk, err := r.Compile(source)
	if err != nil {
		return value.Nil(), err
	}
	return r.Run(chunk)
}

// Disassemble compiles source and returns its listing under label.
func (r *Runtime) Disassemble(source, label string) (string, error) {
	chunk, err := r.Compile(source)
	if err != nil {
		return "", err
	}
	if label == "" {
		label = "code"
	}
	return bytecode.DisassembleString(chunk, label), nil
}

// Diagnostics extracts the compile diagnostics carried by err, if any.
func Diagnostics(err error) []compiler.Diagnostic {
	var ce *compiler.CompileError
	if errors.As(err, &ce) {
		return ce.Diagnostics
	}
	return nil
}

