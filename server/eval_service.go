package server

import (
	"context"
	"errors"
	"fmt"
	"io"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/chazu/lox/pkg/runtime"
)

// errSourceRequired is returned for requests without source text. Each
// transport maps it to its own invalid-argument code.
var errSourceRequired = errors.New("source is required")

// EvalService implements the EvaluationService for both transports.
type EvalService struct {
	worker *Worker
}

// NewEvalService creates an EvalService.
func NewEvalService(worker *Worker) *EvalService {
	return &EvalService{worker: worker}
}

// ---------------------------------------------------------------------------
// Connect handlers
// ---------------------------------------------------------------------------

// Evaluate compiles and executes a Lox expression.
func (s *EvalService) Evaluate(
	ctx context.Context,
	req *connect.Request[dynamicpb.Message],
) (*connect.Response[dynamicpb.Message], error) {
	resp, err := s.EvaluateSource(ctx, evaluateRequestFromProto(req.Msg))
	if errors.Is(err, errSourceRequired) {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	if err != nil {
		return nil, connect.NewError(connect.CodeUnknown, err)
	}
	return connect.NewResponse(resp.toProto()), nil
}

// Disassemble compiles a Lox expression and returns its bytecode listing.
func (s *EvalService) Disassemble(
	ctx context.Context,
	req *connect.Request[dynamicpb.Message],
) (*connect.Response[dynamicpb.Message], error) {
	resp, err := s.DisassembleSource(ctx, disassembleRequestFromProto(req.Msg))
	if errors.Is(err, errSourceRequired) {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(resp.toProto()), nil
}

// ---------------------------------------------------------------------------
// Transport-neutral operations
// ---------------------------------------------------------------------------

// EvaluateSource runs req on the worker. Compile and runtime failures are
// reported inside the response, not as an error.
func (s *EvalService) EvaluateSource(ctx context.Context, req *EvaluateRequest) (*EvaluateResponse, error) {
	if req.Source == "" {
		return nil, errSourceRequired
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := s.worker.Do(func(rt *runtime.Runtime) any {
		return evaluate(rt, req.Source)
	})
	if err != nil {
		return &EvaluateResponse{
			Success:      false,
			ErrorKind:    errorKindInternal,
			ErrorMessage: err.Error(),
			Session:      s.worker.Session(),
		}, nil
	}
	return result.(*EvaluateResponse), nil
}

// DisassembleSource compiles req on the worker and returns the listing.
func (s *EvalService) DisassembleSource(ctx context.Context, req *DisassembleRequest) (*DisassembleResponse, error) {
	if req.Source == "" {
		return nil, errSourceRequired
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := s.worker.Do(func(rt *runtime.Runtime) any {
		listing, err := rt.Disassemble(req.Source, req.Label)
		if err != nil {
			return &DisassembleResponse{Diagnostics: diagnosticStrings(err)}
		}
		return &DisassembleResponse{Listing: listing}
	})
	if err != nil {
		return nil, err
	}
	return result.(*DisassembleResponse), nil
}

// evaluate compiles and runs source. Must be called on the worker goroutine.
func evaluate(rt *runtime.Runtime, source string) *EvaluateResponse {
	v, err := rt.Eval(source)
	switch {
	case err == nil:
		return &EvaluateResponse{
			Success: true,
			Result:  v.String(),
			Kind:    v.Kind.String(),
			Session: rt.ID(),
		}
	case errors.Is(err, runtime.ErrCompile):
		return &EvaluateResponse{
			ErrorKind:    errorKindCompile,
			ErrorMessage: "Compile error: " + err.Error(),
			Diagnostics:  diagnosticStrings(err),
			Session:      rt.ID(),
		}
	default:
		return &EvaluateResponse{
			ErrorKind:    errorKindRuntime,
			ErrorMessage: err.Error(),
			Session:      rt.ID(),
		}
	}
}

func diagnosticStrings(err error) []string {
	diags := runtime.Diagnostics(err)
	if diags == nil {
		return []string{err.Error()}
	}
	out := make([]string, len(diags))
	for i, d := range diags {
		out[i] = d.String()
	}
	return out
}

// newServiceRuntime creates the runtime owned by a server worker. Compile
// diagnostics are returned to clients, so nothing is printed.
func newServiceRuntime(opts ...runtime.Option) *runtime.Runtime {
	return runtime.New(append([]runtime.Option{runtime.WithDiagnostics(io.Discard)}, opts...)...)
}

func (r *EvaluateResponse) String() string {
	if r.Success {
		return fmt.Sprintf("%s (%s)", r.Result, r.Kind)
	}
	return fmt.Sprintf("%s error: %s", r.ErrorKind, r.ErrorMessage)
}
