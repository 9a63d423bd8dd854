package runtime

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/lox/compiler"
	"github.com/chazu/lox/pkg/value"
	"github.com/chazu/lox/store"
	"github.com/chazu/lox/vm"
)

func TestEval(t *testing.T) {
	r := New(WithDiagnostics(nil))

	v, err := r.Eval("(1 + 2) * 3")
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if !value.Equal(v, value.Number(9)) {
		t.Errorf("Eval = %v, want 9", v)
	}
}

func TestEvalCompileError(t *testing.T) {
	var diag bytes.Buffer
	r := New(WithDiagnostics(&diag))

	_, err := r.Eval("(1 + 2")
	if !errors.Is(err, ErrCompile) {
		t.Fatalf("error = %v, want ErrCompile", err)
	}
	if errors.Is(err, ErrRuntime) {
		t.Error("compile error should not match ErrRuntime")
	}
	var ce *compiler.CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("error should unwrap to *compiler.CompileError")
	}
	if got := Diagnostics(err); len(got) != 1 {
		t.Errorf("Diagnostics = %v, want one", got)
	}
	if !strings.Contains(diag.String(), "Expect ')' after expression.") {
		t.Errorf("diagnostic output = %q", diag.String())
	}
}

func TestEvalRuntimeError(t *testing.T) {
	r := New(WithDiagnostics(nil))

	_, err := r.Eval("1 + nil")
	if !errors.Is(err, ErrRuntime) {
		t.Fatalf("error = %v, want ErrRuntime", err)
	}
	var re *vm.RuntimeError
	if !errors.As(err, &re) {
		t.Fatalf("error should unwrap to *vm.RuntimeError")
	}
	if Diagnostics(err) != nil {
		t.Error("runtime error should carry no diagnostics")
	}

	// the runtime stays usable
	if v, err := r.Eval("2"); err != nil || !value.Equal(v, value.Number(2)) {
		t.Errorf("Eval after error = %v, %v", v, err)
	}
}

func TestCompileUsesStore(t *testing.T) {
	s := store.NewMemory()
	r := New(WithStore(s), WithDiagnostics(nil))

	first, err := r.Compile("1 + 1")
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Compile("1 + 1")
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("second compile should be served from the store")
	}
	if s.Len() != 1 {
		t.Errorf("store Len = %d, want 1", s.Len())
	}

	if _, err := r.Compile("1 +"); err == nil {
		t.Fatal("expected compile error")
	}
	if s.Len() != 1 {
		t.Errorf("failed compiles must not be stored, Len = %d", s.Len())
	}
}

func TestCompileWithPersistentStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chunks.db")
	s, err := store.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := New(WithStore(s)).Eval(`"a" + "b"`); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = store.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	v, err := New(WithStore(s)).Eval(`"a" + "b"`)
	if err != nil {
		t.Fatal(err)
	}
	if v.AsString() != "ab" {
		t.Errorf("Eval = %v, want ab", v)
	}
}

func TestPrintCodeAndTrace(t *testing.T) {
	var code, trace bytes.Buffer
	r := New(WithPrintCode(&code), WithTrace(&trace))

	if _, err := r.Eval("-1"); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(code.String(), "== code ==") {
		t.Errorf("print-code output = %q", code.String())
	}
	if !strings.Contains(trace.String(), "[ 1 ]") {
		t.Errorf("trace output = %q, want stack line", trace.String())
	}
}

func TestDisassemble(t *testing.T) {
	r := New(WithDiagnostics(nil))

	listing, err := r.Disassemble("true", "")
	if err != nil {
		t.Fatal(err)
	}
	want := "== code ==\n0000    1 OpTrue\n0001    | OpReturn\n"
	if listing != want {
		t.Errorf("Disassemble = %q, want %q", listing, want)
	}
}

func TestIDsAreUnique(t *testing.T) {
	a, b := New(), New()
	if a.ID() == "" || a.ID() == b.ID() {
		t.Errorf("IDs %q and %q should be distinct and non-empty", a.ID(), b.ID())
	}
}
