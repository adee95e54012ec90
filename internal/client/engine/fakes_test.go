package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/client/models"
	"github.com/dmitrijs2005/gophnotes/internal/client/remote"
	"github.com/dmitrijs2005/gophnotes/internal/client/storage"
	"github.com/stretchr/testify/require"
)

const testOwner = "owner-1"

// fakeRemote is an in-memory remote store with per-note failure injection.
type fakeRemote struct {
	mu    sync.Mutex
	notes map[string]models.Note
	calls []string

	failInsert map[string]error
	failUpdate map[string]error
	failDelete map[string]error
	selectErr  error

	// insertGate, when set, blocks Insert until it is closed. insertEntered
	// is signalled on every blocked Insert.
	insertGate    chan struct{}
	insertEntered chan struct{}
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		notes:      make(map[string]models.Note),
		failInsert: make(map[string]error),
		failUpdate: make(map[string]error),
		failDelete: make(map[string]error),
	}
}

func (f *fakeRemote) SelectAll(_ context.Context, owner string) ([]models.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "select")
	if f.selectErr != nil {
		return nil, f.selectErr
	}
	out := make([]models.Note, 0, len(f.notes))
	for _, n := range f.notes {
		if n.Owner == owner {
			out = append(out, n)
		}
	}
	slices.SortFunc(out, func(a, b models.Note) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (f *fakeRemote) Insert(ctx context.Context, n models.Note) error {
	f.mu.Lock()
	gate, entered := f.insertGate, f.insertEntered
	f.mu.Unlock()
	if gate != nil {
		if entered != nil {
			entered <- struct{}{}
		}
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "insert "+n.ID)
	if err := f.failInsert[n.ID]; err != nil {
		return err
	}
	if _, ok := f.notes[n.ID]; ok {
		return remote.ErrAlreadyExists
	}
	f.notes[n.ID] = n
	return nil
}

func (f *fakeRemote) UpdateByID(_ context.Context, id, owner string, fields models.NoteFields) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "update "+id)
	if err := f.failUpdate[id]; err != nil {
		return err
	}
	n, ok := f.notes[id]
	if !ok || n.Owner != owner {
		return nil
	}
	n.Title, n.Body, n.ModifiedAt = fields.Title, fields.Body, fields.ModifiedAt
	f.notes[id] = n
	return nil
}

func (f *fakeRemote) DeleteByID(_ context.Context, id, owner string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "delete "+id)
	if err := f.failDelete[id]; err != nil {
		return err
	}
	if n, ok := f.notes[id]; ok && n.Owner == owner {
		delete(f.notes, id)
	}
	return nil
}

func (f *fakeRemote) Ping(context.Context) error { return nil }

func (f *fakeRemote) put(n models.Note) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes[n.ID] = n
}

func (f *fakeRemote) get(id string) (models.Note, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.notes[id]
	return n, ok
}

func (f *fakeRemote) setFailInsert(id string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.failInsert, id)
		return
	}
	f.failInsert[id] = err
}

// testClock advances one second on every reading.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func sequentialIDs() func() string {
	var n atomic.Int64
	return func() string { return fmt.Sprintf("id-%03d", n.Add(1)) }
}

func openTestStore(t *testing.T) *storage.Store {
	t.Helper()
	s, err := storage.Open(context.Background(), filepath.Join(t.TempDir(), "notes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

type fixture struct {
	engine *Engine
	local  *storage.Store
	remote *fakeRemote
	clock  *testClock
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{local: openTestStore(t), remote: newFakeRemote(), clock: newTestClock()}
	base := []Option{
		WithOwner(testOwner),
		WithClock(f.clock.Now),
		WithIDGenerator(sequentialIDs()),
		WithCallTimeout(time.Second),
	}
	e, err := New(f.local, f.remote, append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	f.engine = e
	return f
}

func (f *fixture) note(t *testing.T, id string) *models.Note {
	t.Helper()
	n, err := f.local.GetNote(context.Background(), id)
	require.NoError(t, err)
	return n
}

func waitDrain(t *testing.T, d *Drain) Report {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r, err := d.Wait(ctx)
	require.NoError(t, err)
	return r
}
