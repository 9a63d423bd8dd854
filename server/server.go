package server

import (
	"errors"
	"net"
	"net/http"

	"github.com/tliron/commonlog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	"github.com/chazu/lox/pkg/runtime"
)

var log = commonlog.GetLogger("lox.server")

// Server is the evaluation server. It serves Connect (HTTP/JSON) on one
// address and, optionally, gRPC (protobuf) on another. Both transports share
// one worker and therefore one VM.
type Server struct {
	worker *Worker
	eval   *EvalService
	mux    *http.ServeMux
	grpc   *grpc.Server
}

// New creates a Server with a fresh runtime configured by opts.
func New(opts ...runtime.Option) *Server {
	worker := NewWorker(newServiceRuntime(opts...))
	eval := NewEvalService(worker)

	s := &Server{
		worker: worker,
		eval:   eval,
		mux:    http.NewServeMux(),
		grpc:   grpc.NewServer(),
	}

	path, handler := NewEvaluationServiceHandler(eval)
	s.mux.Handle(path, handler)
	RegisterGRPC(s.grpc, eval)
	reflection.Register(s.grpc)

	return s
}

// Handler returns the HTTP handler serving the Connect endpoints.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// EvalService returns the service shared by both transports.
func (s *Server) EvalService() *EvalService {
	return s.eval
}

// Session returns the ID of the server's runtime.
func (s *Server) Session() string {
	return s.worker.Session()
}

// ListenAndServe serves the Connect endpoints on addr, in the form
// "host:port" or ":port".
func (s *Server) ListenAndServe(addr string) error {
	log.Noticef("lox evaluation server listening on %s", addr)
	log.Infof("  Connect (HTTP/JSON): http://%s%s", addr, EvaluationServiceEvaluate)
	return http.ListenAndServe(addr, s.mux)
}

// ServeGRPC serves the gRPC endpoints on lis until Stop is called.
func (s *Server) ServeGRPC(lis net.Listener) error {
	log.Noticef("lox gRPC server listening on %s", lis.Addr())
	err := s.grpc.Serve(lis)
	if errors.Is(err, grpc.ErrServerStopped) {
		return nil
	}
	return err
}

// Stop shuts down the gRPC server and the worker.
func (s *Server) Stop() {
	s.grpc.GracefulStop()
	s.worker.Stop()
}
