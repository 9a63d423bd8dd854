package server

import (
	"context"
	"fmt"
	"net/http"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

// Fully-qualified procedure names, shared by Connect and gRPC.
const (
	EvaluationServiceName        = "lox.v1.EvaluationService"
	EvaluationServiceEvaluate    = "/" + EvaluationServiceName + "/Evaluate"
	EvaluationServiceDisassemble = "/" + EvaluationServiceName + "/Disassemble"
	evaluationServicePathPrefix  = "/" + EvaluationServiceName + "/"
)

// initDynamic sizes a dynamic message to the method in spec.Schema: the
// request on the handler side, the response on the client side.
func initDynamic(spec connect.Spec, msg any) error {
	dynamic, ok := msg.(*dynamicpb.Message)
	if !ok {
		return nil
	}
	md, ok := spec.Schema.(protoreflect.MethodDescriptor)
	if !ok {
		return fmt.Errorf("server: %s has no method descriptor", spec.Procedure)
	}
	if spec.IsClient {
		*dynamic = *dynamicpb.NewMessage(md.Output())
	} else {
		*dynamic = *dynamicpb.NewMessage(md.Input())
	}
	return nil
}

// NewEvaluationServiceHandler builds the Connect handler for svc. It
// returns the path prefix to mount it on. Requests may use the binary
// protobuf or the JSON codec.
func NewEvaluationServiceHandler(svc *EvalService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithRequestInitializer(initDynamic)}, opts...)
	withSchema := func(md protoreflect.MethodDescriptor) []connect.HandlerOption {
		return append([]connect.HandlerOption{connect.WithSchema(md)}, opts...)
	}

	evaluate := connect.NewUnaryHandler(EvaluationServiceEvaluate, svc.Evaluate, withSchema(evaluateMethod)...)
	disassemble := connect.NewUnaryHandler(EvaluationServiceDisassemble, svc.Disassemble, withSchema(disassembleMethod)...)

	return evaluationServicePathPrefix, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case EvaluationServiceEvaluate:
			evaluate.ServeHTTP(w, r)
		case EvaluationServiceDisassemble:
			disassemble.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// EvaluationClient calls the evaluation service over Connect (HTTP/JSON).
type EvaluationClient struct {
	evaluate    *connect.Client[dynamicpb.Message, dynamicpb.Message]
	disassemble *connect.Client[dynamicpb.Message, dynamicpb.Message]
}

// NewEvaluationClient creates a client for the service at baseURL,
// for example "http://localhost:4567".
func NewEvaluationClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *EvaluationClient {
	opts = append([]connect.ClientOption{
		connect.WithProtoJSON(),
		connect.WithResponseInitializer(initDynamic),
	}, opts...)
	withSchema := func(md protoreflect.MethodDescriptor) []connect.ClientOption {
		return append([]connect.ClientOption{connect.WithSchema(md)}, opts...)
	}
	return &EvaluationClient{
		evaluate: connect.NewClient[dynamicpb.Message, dynamicpb.Message](
			httpClient, baseURL+EvaluationServiceEvaluate, withSchema(evaluateMethod)...),
		disassemble: connect.NewClient[dynamicpb.Message, dynamicpb.Message](
			httpClient, baseURL+EvaluationServiceDisassemble, withSchema(disassembleMethod)...),
	}
}

// Evaluate calls lox.v1.EvaluationService.Evaluate.
func (c *EvaluationClient) Evaluate(ctx context.Context, req *EvaluateRequest) (*EvaluateResponse, error) {
	resp, err := c.evaluate.CallUnary(ctx, connect.NewRequest(req.toProto()))
	if err != nil {
		return nil, err
	}
	return evaluateResponseFromProto(resp.Msg), nil
}

// Disassemble calls lox.v1.EvaluationService.Disassemble.
func (c *EvaluationClient) Disassemble(ctx context.Context, req *DisassembleRequest) (*DisassembleResponse, error) {
	resp, err := c.disassemble.CallUnary(ctx, connect.NewRequest(req.toProto()))
	if err != nil {
		return nil, err
	}
	return disassembleResponseFromProto(resp.Msg), nil
}
