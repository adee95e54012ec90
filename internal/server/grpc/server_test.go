package grpc

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	clientmodels "github.com/dmitrijs2005/gophnotes/internal/client/models"
	"github.com/dmitrijs2005/gophnotes/internal/client/remote"
	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/logging"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"
)

type memService struct {
	mu      sync.Mutex
	notes   map[string]models.Note
	pingErr error
	err     error
}

func newMemService() *memService {
	return &memService{notes: map[string]models.Note{}}
}

func (m *memService) SelectAll(_ context.Context, owner string) ([]models.Note, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Note
	for _, n := range m.notes {
		if n.Owner == owner {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *memService) Insert(_ context.Context, n models.Note) error {
	if n.Owner == "" || n.ID == "" {
		return common.ErrorInvalidArgument
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := n.Owner + "/" + n.ID
	if _, ok := m.notes[key]; ok {
		return common.ErrorAlreadyExists
	}
	m.notes[key] = n
	return nil
}

func (m *memService) UpdateByID(_ context.Context, id, owner string, f models.NoteFields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok := m.notes[owner+"/"+id]; ok {
		f.Apply(&n)
		m.notes[owner+"/"+id] = n
	}
	return nil
}

func (m *memService) DeleteByID(_ context.Context, id, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.notes, owner+"/"+id)
	return nil
}

func (m *memService) Ping(context.Context) error { return m.pingErr }

func startBufconn(t *testing.T, svc NoteService) *remote.GRPCStore {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	s := NewGRPCServer("bufnet", logging.NewNopLogger(), svc)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Serve(ctx, lis)
	}()

	store, err := remote.NewGRPCStore("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = store.Close()
		cancel()
		<-done
	})
	return store
}

func TestGRPC_RoundTripWithGRPCStore(t *testing.T) {
	store := startBufconn(t, newMemService())
	ctx := context.Background()

	ts := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	note := clientmodels.Note{ID: "n1", Owner: "u1", Title: "t", Body: "b", CreatedAt: ts, ModifiedAt: ts}

	require.NoError(t, store.Ping(ctx))
	require.NoError(t, store.Insert(ctx, note))
	require.ErrorIs(t, store.Insert(ctx, note), remote.ErrAlreadyExists)

	later := ts.Add(time.Minute)
	require.NoError(t, store.UpdateByID(ctx, "n1", "u1", clientmodels.NoteFields{Title: "t2", Body: "b2", ModifiedAt: later}))

	got, err := store.SelectAll(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "t2", got[0].Title)
	assert.True(t, ts.Equal(got[0].CreatedAt))
	assert.True(t, later.Equal(got[0].ModifiedAt))

	require.NoError(t, store.DeleteByID(ctx, "n1", "u1"))
	got, err = store.SelectAll(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGRPC_PingUnavailable(t *testing.T) {
	svc := newMemService()
	svc.pingErr = common.ErrorInternal
	store := startBufconn(t, svc)

	require.ErrorIs(t, store.Ping(context.Background()), remote.ErrUnavailable)
}

func TestGRPC_InternalErrorIsNotUnavailable(t *testing.T) {
	svc := newMemService()
	svc.err = common.ErrorInternal
	store := startBufconn(t, svc)

	_, err := store.SelectAll(context.Background(), "u1")
	require.Error(t, err)
	require.NotErrorIs(t, err, remote.ErrUnavailable)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	srv := NewGRPCServer("127.0.0.1:0", logging.NewNopLogger(), newMemService())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error on graceful stop: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	t.Parallel()

	srv := NewGRPCServer("127.0.0.1:99999", logging.NewNopLogger(), newMemService())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.Run(ctx); err == nil {
		t.Fatal("expected error from Run on bad address, got nil")
	}
}
