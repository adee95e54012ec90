package remote

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophnotes/internal/client/models"
	"github.com/dmitrijs2005/gophnotes/internal/notesrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type noteRPC interface {
	Ping(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	SelectAll(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.ListValue, error)
	Insert(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error)
	UpdateByID(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error)
	DeleteByID(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error)
}

type GRPCStore struct {
	conn   *grpc.ClientConn
	client noteRPC
}

func NewGRPCStore(endpointURL string, opts ...grpc.DialOption) (*GRPCStore, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(endpointURL, opts...)
	if err != nil {
		return nil, err
	}
	return &GRPCStore{conn: conn, client: notesrpc.NewNoteServiceClient(conn)}, nil
}

func (s *GRPCStore) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *GRPCStore) Ping(ctx context.Context) error {
	resp, err := s.client.Ping(ctx, &emptypb.Empty{})
	if err != nil {
		return s.mapError(err)
	}
	if resp.GetValue() != "OK" {
		return ErrUnavailable
	}
	return nil
}

func (s *GRPCStore) SelectAll(ctx context.Context, owner string) ([]models.Note, error) {
	resp, err := s.client.SelectAll(ctx, wrapperspb.String(owner))
	if err != nil {
		return nil, s.mapError(err)
	}
	records, err := notesrpc.DecodeRecords(resp)
	if err != nil {
		return nil, err
	}
	out := make([]models.Note, 0, len(records))
	for _, r := range records {
		out = append(out, noteFromRecord(r))
	}
	return out, nil
}

func (s *GRPCStore) Insert(ctx context.Context, n models.Note) error {
	_, err := s.client.Insert(ctx, notesrpc.EncodeRecord(recordFromNote(n)))
	return s.mapError(err)
}

func (s *GRPCStore) UpdateByID(ctx context.Context, id, owner string, f models.NoteFields) error {
	req := notesrpc.EncodeRecord(notesrpc.Record{
		ID: id, Owner: owner, Title: f.Title, Body: f.Body, ModifiedAt: f.ModifiedAt,
	})
	_, err := s.client.UpdateByID(ctx, req)
	return s.mapError(err)
}

func (s *GRPCStore) DeleteByID(ctx context.Context, id, owner string) error {
	_, err := s.client.DeleteByID(ctx, notesrpc.EncodeRecord(notesrpc.Record{ID: id, Owner: owner}))
	return s.mapError(err)
}

func (s *GRPCStore) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.AlreadyExists:
		return ErrAlreadyExists
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}

func recordFromNote(n models.Note) notesrpc.Record {
	return notesrpc.Record{
		ID: n.ID, Owner: n.Owner, Title: n.Title, Body: n.Body,
		CreatedAt: n.CreatedAt, ModifiedAt: n.ModifiedAt,
	}
}

func noteFromRecord(r notesrpc.Record) models.Note {
	return models.Note{
		ID: r.ID, Owner: r.Owner, Title: r.Title, Body: r.Body,
		CreatedAt: r.CreatedAt, ModifiedAt: r.ModifiedAt,
	}
}
