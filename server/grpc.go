package server

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/dynamicpb"
)

// EvaluationServer is the server API of lox.v1.EvaluationService.
type EvaluationServer interface {
	EvaluateSource(context.Context, *EvaluateRequest) (*EvaluateResponse, error)
	DisassembleSource(context.Context, *DisassembleRequest) (*DisassembleResponse, error)
}

// RegisterGRPC registers svc on s. Messages use the default protobuf codec.
func RegisterGRPC(s grpc.ServiceRegistrar, svc EvaluationServer) {
	s.RegisterService(&evaluationServiceDesc, svc)
}

var evaluationServiceDesc = grpc.ServiceDesc{
	ServiceName: EvaluationServiceName,
	HandlerType: (*EvaluationServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Evaluate", Handler: evaluateGRPCHandler},
		{MethodName: "Disassemble", Handler: disassembleGRPCHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: evaluationFileName,
}

func evaluateGRPCHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := dynamicpb.NewMessage(evaluateMethod.Input())
	if err := dec(in); err != nil {
		return nil, err
	}
	call := func(ctx context.Context, req any) (any, error) {
		resp, err := srv.(EvaluationServer).EvaluateSource(ctx, evaluateRequestFromProto(req.(*dynamicpb.Message)))
		if err != nil {
			return nil, grpcError(err)
		}
		return resp.toProto(), nil
	}
	if interceptor == nil {
		return call(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: EvaluationServiceEvaluate}
	return interceptor(ctx, in, info, call)
}

func disassembleGRPCHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := dynamicpb.NewMessage(disassembleMethod.Input())
	if err := dec(in); err != nil {
		return nil, err
	}
	call := func(ctx context.Context, req any) (any, error) {
		resp, err := srv.(EvaluationServer).DisassembleSource(ctx, disassembleRequestFromProto(req.(*dynamicpb.Message)))
		if err != nil {
			return nil, grpcError(err)
		}
		return resp.toProto(), nil
	}
	if interceptor == nil {
		return call(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: EvaluationServiceDisassemble}
	return interceptor(ctx, in, info, call)
}

// grpcError maps service errors onto gRPC status codes.
func grpcError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errSourceRequired):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// GRPCClient calls the evaluation service over gRPC.
type GRPCClient struct {
	cc grpc.ClientConnInterface
}

// NewGRPCClient wraps an established connection.
func NewGRPCClient(cc grpc.ClientConnInterface) *GRPCClient {
	return &GRPCClient{cc: cc}
}

// Evaluate calls lox.v1.EvaluationService.Evaluate.
func (c *GRPCClient) Evaluate(ctx context.Context, in *EvaluateRequest, opts ...grpc.CallOption) (*EvaluateResponse, error) {
	out := dynamicpb.NewMessage(evaluateMethod.Output())
	if err := c.cc.Invoke(ctx, EvaluationServiceEvaluate, in.toProto(), out, opts...); err != nil {
		return nil, err
	}
	return evaluateResponseFromProto(out), nil
}

// Disassemble calls lox.v1.EvaluationService.Disassemble.
func (c *GRPCClient) Disassemble(ctx context.Context, in *DisassembleRequest, opts ...grpc.CallOption) (*DisassembleResponse, error) {
	out := dynamicpb.NewMessage(disassembleMethod.Output())
	if err := c.cc.Invoke(ctx, EvaluationServiceDisassemble, in.toProto(), out, opts...); err != nil {
		return nil, err
	}
	return disassembleResponseFromProto(out), nil
}
