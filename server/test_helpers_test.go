package server

import (
	"context"
	"testing"

	"connectrpc.com/connect"
)

// ---------------------------------------------------------------------------
// Shared test infrastructure for server package tests.
// ---------------------------------------------------------------------------

// newTestEvalService creates an EvalService backed by its own worker. The
// worker is stopped when the test finishes.
func newTestEvalService(t *testing.T) *EvalService {
	w := NewWorker(newServiceRuntime())
	t.Cleanup(w.Stop)
	return NewEvalService(w)
}

func bg() context.Context {
	return context.Background()
}

// callEvaluate sends req through the Connect handler method, encoding it
// as the dynamic protobuf message the handler receives on the wire.
func callEvaluate(svc *EvalService, req *EvaluateRequest) (*EvaluateResponse, error) {
	resp, err := svc.Evaluate(bg(), connect.NewRequest(req.toProto()))
	if err != nil {
		return nil, err
	}
	return evaluateResponseFromProto(resp.Msg), nil
}

func callDisassemble(svc *EvalService, req *DisassembleRequest) (*DisassembleResponse, error) {
	resp, err := svc.Disassemble(bg(), connect.NewRequest(req.toProto()))
	if err != nil {
		return nil, err
	}
	return disassembleResponseFromProto(resp.Msg), nil
}
