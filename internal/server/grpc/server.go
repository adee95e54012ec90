// Package grpc serves the note service over gRPC using the hand-registered
// notesrpc service description.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/gophnotes/internal/logging"
	"github.com/dmitrijs2005/gophnotes/internal/notesrpc"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
	"google.golang.org/grpc"
)

// NoteService is the business layer the handlers call.
type NoteService interface {
	SelectAll(ctx context.Context, owner string) ([]models.Note, error)
	Insert(ctx context.Context, n models.Note) error
	UpdateByID(ctx context.Context, id, owner string, f models.NoteFields) error
	DeleteByID(ctx context.Context, id, owner string) error
	Ping(ctx context.Context) error
}

type GRPCServer struct {
	address string
	notes   NoteService
	logger  logging.Logger
}

var _ notesrpc.NoteServiceServer = (*GRPCServer)(nil)

func NewGRPCServer(a string, l logging.Logger, ns NoteService) *GRPCServer {
	return &GRPCServer{
		address: a,
		logger:  l.With("module", "grpc_server"),
		notes:   ns,
	}
}

// newServer builds the grpc.Server with the service and interceptors
// registered.
func (s *GRPCServer) newServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(s.loggingInterceptor))
	srv := grpc.NewServer(opts...)
	notesrpc.RegisterNoteServiceServer(srv, s)
	return srv
}

// Serve accepts connections on listen until ctx is cancelled, then stops
// gracefully.
func (s *GRPCServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}
