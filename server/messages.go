package server

// Messages of the lox.v1.EvaluationService. Handlers work on these structs;
// both transports carry them as dynamic protobuf messages (see schema.go).

// EvaluateRequest asks the server to compile and run an expression.
type EvaluateRequest struct {
	Source string
}

// EvaluateResponse reports the value of an expression or why there is none.
type EvaluateResponse struct {
	Success      bool
	Result       string
	Kind         string
	ErrorKind    string // "compile", "runtime" or "internal"
	ErrorMessage string
	Diagnostics  []string
	Session      string
}

// DisassembleRequest asks for the bytecode listing of an expression.
type DisassembleRequest struct {
	Source string
	Label  string
}

// DisassembleResponse carries a listing, or diagnostics if the source
// did not compile.
type DisassembleResponse struct {
	Listing     string
	Diagnostics []string
}

const (
	errorKindCompile  = "compile"
	errorKindRuntime  = "runtime"
	errorKindInternal = "internal"
)
