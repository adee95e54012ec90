package remote

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/client/models"
	"github.com/dmitrijs2005/gophnotes/internal/notesrpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// fakeServer records the last request of each kind and returns preset errors.
type fakeServer struct {
	records []notesrpc.Record

	lastOwner  string
	lastInsert notesrpc.Record
	lastUpdate notesrpc.Record
	lastDelete notesrpc.Record

	insertErr error
	updateErr error
	pingValue string
}

func (f *fakeServer) Ping(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error) {
	return wrapperspb.String(f.pingValue), nil
}

func (f *fakeServer) SelectAll(_ context.Context, in *wrapperspb.StringValue) (*structpb.ListValue, error) {
	f.lastOwner = in.GetValue()
	return notesrpc.EncodeRecords(f.records), nil
}

func (f *fakeServer) Insert(_ context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	r, err := notesrpc.DecodeRecord(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	f.lastInsert = r
	return &emptypb.Empty{}, f.insertErr
}

func (f *fakeServer) UpdateByID(_ context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	r, err := notesrpc.DecodeRecord(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	f.lastUpdate = r
	return &emptypb.Empty{}, f.updateErr
}

func (f *fakeServer) DeleteByID(_ context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	r, err := notesrpc.DecodeRecord(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	f.lastDelete = r
	return &emptypb.Empty{}, nil
}

func startBufconn(t *testing.T, f *fakeServer) *GRPCStore {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	notesrpc.RegisterNoteServiceServer(srv, f)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	s, err := NewGRPCStore("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestGRPCStore_RoundTrip(t *testing.T) {
	ts := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)
	f := &fakeServer{
		pingValue: "OK",
		records:   []notesrpc.Record{{ID: "n1", Owner: "u1", Title: "t", Body: "b", CreatedAt: ts, ModifiedAt: ts}},
	}
	s := startBufconn(t, f)
	ctx := context.Background()

	require.NoError(t, s.Ping(ctx))

	got, err := s.SelectAll(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", f.lastOwner)
	assert.Equal(t, []models.Note{{ID: "n1", Owner: "u1", Title: "t", Body: "b", CreatedAt: ts, ModifiedAt: ts}}, got)

	require.NoError(t, s.Insert(ctx, models.Note{ID: "n2", Owner: "u1", Title: "x", CreatedAt: ts, ModifiedAt: ts}))
	assert.Equal(t, notesrpc.Record{ID: "n2", Owner: "u1", Title: "x", CreatedAt: ts, ModifiedAt: ts}, f.lastInsert)

	require.NoError(t, s.UpdateByID(ctx, "n2", "u1", models.NoteFields{Title: "y", Body: "z", ModifiedAt: ts}))
	assert.Equal(t, notesrpc.Record{ID: "n2", Owner: "u1", Title: "y", Body: "z", ModifiedAt: ts}, f.lastUpdate)

	require.NoError(t, s.DeleteByID(ctx, "n2", "u1"))
	assert.Equal(t, "n2", f.lastDelete.ID)
	assert.Equal(t, "u1", f.lastDelete.Owner)
}

func TestGRPCStore_ErrorMapping(t *testing.T) {
	f := &fakeServer{
		pingValue: "NOPE",
		insertErr: status.Error(codes.AlreadyExists, "exists"),
		updateErr: status.Error(codes.Internal, "db down"),
	}
	s := startBufconn(t, f)
	ctx := context.Background()

	require.ErrorIs(t, s.Ping(ctx), ErrUnavailable)
	require.ErrorIs(t, s.Insert(ctx, models.Note{ID: "n1", Owner: "u1"}), ErrAlreadyExists)

	err := s.UpdateByID(ctx, "n1", "u1", models.NoteFields{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rpc error")
	assert.Equal(t, codes.Internal, status.Code(err))
}

func TestGRPCStore_MapError(t *testing.T) {
	s := &GRPCStore{}
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"unavailable", status.Error(codes.Unavailable, "down"), ErrUnavailable},
		{"deadline", status.Error(codes.DeadlineExceeded, "slow"), ErrUnavailable},
		{"exists", status.Error(codes.AlreadyExists, "dup"), ErrAlreadyExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, s.mapError(tt.in), tt.want)
		})
	}
	require.NoError(t, s.mapError(nil))
}
