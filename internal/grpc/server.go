package grpc

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/LeJamon/goOCR2/internal/core/tx"
	"github.com/LeJamon/goOCR2/internal/log"
)

// Server represents the gRPC server for feed reads.
type Server struct {
	mu sync.RWMutex

	// grpcServer is the underlying gRPC server
	grpcServer *grpc.Server

	// view reads committed accounts
	view tx.AccountReader

	// config holds the server configuration
	config *ServerConfig

	// listener is the network listener
	listener net.Listener

	// running indicates if the server is currently serving
	running bool

	logger zerolog.Logger
}

// NewServer creates a gRPC server answering from view.
func NewServer(cfg *ServerConfig, view tx.AccountReader) (*Server, error) {
	if cfg == nil {
		cfg = DefaultServerConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	server := &Server{
		view:   view,
		config: cfg,
		logger: log.Component("grpc"),
	}

	server.grpcServer = grpc.NewServer(
		grpc.MaxRecvMsgSize(cfg.MaxMessageBytes),
		grpc.MaxSendMsgSize(cfg.MaxMessageBytes),
		grpc.MaxConcurrentStreams(cfg.MaxConcurrentStreams),
		grpc.UnaryInterceptor(server.unaryInterceptor),
	)
	RegisterFeedServiceServer(server.grpcServer, &feedService{view: view})

	return server, nil
}

// Listen binds the configured address without serving.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return errors.New("server is already listening")
	}
	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return err
	}
	s.listener = listener
	return nil
}

// Serve accepts connections on l, or on the listener bound by Listen when l
// is nil. It blocks until Stop is called.
func (s *Server) Serve(l net.Listener) error {
	s.mu.Lock()
	if l != nil {
		s.listener = l
	}
	if s.listener == nil {
		s.mu.Unlock()
		return errors.New("server is not listening")
	}
	if s.running {
		s.mu.Unlock()
		return errors.New("server is already running")
	}
	s.running = true
	listener := s.listener
	s.mu.Unlock()

	s.logger.Info().Str("addr", listener.Addr().String()).Msg("grpc listening")
	return s.grpcServer.Serve(listener)
}

// Start listens on the configured address and serves. It blocks until the
// server is stopped.
func (s *Server) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(nil)
}

// Stop gracefully stops the gRPC server. A server stopped before Serve
// refuses to serve.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.grpcServer.GracefulStop()
	s.running = false
}

// IsRunning returns true if the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Address returns the address the server is listening on, or an empty
// string.
func (s *Server) Address() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// GetGRPCServer returns the underlying grpc.Server.
func (s *Server) GetGRPCServer() *grpc.Server {
	return s.grpcServer
}

// unaryInterceptor logs every call at debug level.
func (s *Server) unaryInterceptor(
	ctx context.Context,
	req interface{},
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (interface{}, error) {
	if s.config.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.CallTimeout)
		defer cancel()
	}
	start := time.Now()
	resp, err := handler(ctx, req)
	s.logger.Debug().
		Str("method", info.FullMethod).
		Str("code", status.Code(err).String()).
		Dur("took", time.Since(start)).
		Msg("grpc call")
	return resp, err
}
