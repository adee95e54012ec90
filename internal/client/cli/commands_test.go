package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/client/engine"
	"github.com/dmitrijs2005/gophnotes/internal/client/models"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	online  bool
	pending int
	notes   map[string]models.Note

	listOpts   models.ListOptions
	added      []string
	patches    []models.NotePatch
	deleted    []string
	cleared    bool
	syncReport engine.Report
	syncErr    error
	syncCalls  int
}

func newFakeEngine(notes ...models.Note) *fakeEngine {
	f := &fakeEngine{notes: map[string]models.Note{}}
	for _, n := range notes {
		f.notes[n.ID] = n
	}
	return f
}

func (f *fakeEngine) Owner() string    { return "owner-1" }
func (f *fakeEngine) Online() bool     { return f.online }
func (f *fakeEngine) Syncing() bool    { return false }
func (f *fakeEngine) SetOnline(b bool) { f.online = b }
func (f *fakeEngine) PendingCount(context.Context) (int, error) {
	return f.pending, nil
}
func (f *fakeEngine) GetNote(_ context.Context, id string) (models.Note, error) {
	n, ok := f.notes[id]
	if !ok {
		return models.Note{}, engine.ErrNotFound
	}
	return n, nil
}
func (f *fakeEngine) ListNotes(_ context.Context, opts models.ListOptions) ([]models.Note, error) {
	f.listOpts = opts
	out := make([]models.Note, 0, len(f.notes))
	for _, n := range f.notes {
		out = append(out, n)
	}
	return out, nil
}
func (f *fakeEngine) AddNote(_ context.Context, title, body string) (models.Note, *engine.Drain, error) {
	f.added = append(f.added, title+"|"+body)
	f.pending++
	return models.Note{ID: "new-id", Title: title, Body: body}, nil, nil
}
func (f *fakeEngine) UpdateNote(_ context.Context, id string, patch models.NotePatch) (models.Note, *engine.Drain, error) {
	f.patches = append(f.patches, patch)
	n := f.notes[id]
	patch.Apply(&n)
	return n, nil, nil
}
func (f *fakeEngine) DeleteNote(_ context.Context, id string) (*engine.Drain, error) {
	f.deleted = append(f.deleted, id)
	return nil, nil
}
func (f *fakeEngine) ClearQueue(context.Context) (int, error) {
	f.cleared = true
	return f.pending, nil
}
func (f *fakeEngine) TriggerSync(context.Context) (engine.Report, error) {
	f.syncCalls++
	return f.syncReport, f.syncErr
}
func (f *fakeEngine) Subscribe(int) *engine.Subscription { return nil }
func (f *fakeEngine) Close() error                       { return nil }

func newTestApp(eng *fakeEngine, input string) (*App, *bytes.Buffer) {
	var out bytes.Buffer
	return &App{
		engine: eng,
		reader: bufio.NewReader(strings.NewReader(input)),
		out:    &out,
	}, &out
}

func sampleNote(id, title string) models.Note {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return models.Note{
		ID: id, Title: title, Body: "body of " + title,
		CreatedAt: ts, ModifiedAt: ts, SyncStatus: models.StatusSynced,
	}
}

func TestApp_List(t *testing.T) {
	eng := newFakeEngine(sampleNote("n1", "groceries"))
	a, out := newTestApp(eng, "")

	require.NoError(t, a.List(context.Background(), "groc"))
	require.Equal(t, "groc", eng.listOpts.Query)
	require.Contains(t, out.String(), "ID")
	require.Contains(t, out.String(), "groceries")
	require.Contains(t, out.String(), "synced")
}

func TestApp_List_Empty(t *testing.T) {
	a, out := newTestApp(newFakeEngine(), "")
	require.NoError(t, a.List(context.Background(), ""))
	require.Equal(t, "No notes.\n", out.String())
}

func TestApp_Sort(t *testing.T) {
	eng := newFakeEngine()
	a, _ := newTestApp(eng, "")
	ctx := context.Background()

	require.NoError(t, a.Sort(ctx, []string{"title"}))
	require.Equal(t, models.SortByTitle, a.listOptions.SortBy)
	require.Equal(t, models.OrderAsc, a.listOptions.Order)

	require.NoError(t, a.Sort(ctx, []string{"created", "asc"}))
	require.Equal(t, models.SortByCreated, a.listOptions.SortBy)
	require.Equal(t, models.OrderAsc, a.listOptions.Order)

	require.Error(t, a.Sort(ctx, []string{"size"}))
	require.Error(t, a.Sort(ctx, []string{"title", "sideways"}))

	require.NoError(t, a.List(ctx, ""))
	require.Equal(t, models.SortByCreated, eng.listOpts.SortBy)
}

func TestApp_Show(t *testing.T) {
	a, out := newTestApp(newFakeEngine(sampleNote("n1", "groceries")), "")

	require.NoError(t, a.Show(context.Background(), "n1"))
	require.Contains(t, out.String(), "Title:    groceries")
	require.Contains(t, out.String(), "body of groceries")

	out.Reset()
	require.NoError(t, a.Show(context.Background(), "missing"))
	require.Contains(t, out.String(), "Note not found: missing")
}

func TestApp_Add(t *testing.T) {
	eng := newFakeEngine()
	a, out := newTestApp(eng, "  Shopping \nmilk\neggs\n\n")

	require.NoError(t, a.Add(context.Background()))
	require.Equal(t, []string{"Shopping|milk\neggs"}, eng.added)
	require.Contains(t, out.String(), "Note added: new-id")
}

func TestApp_Add_ValidationFails(t *testing.T) {
	eng := newFakeEngine()
	a, _ := newTestApp(eng, "\n")

	err := a.Add(context.Background())
	require.ErrorIs(t, err, ErrTitleRequired)
	require.Empty(t, eng.added)
}

func TestApp_Edit_KeepsEmptyFields(t *testing.T) {
	eng := newFakeEngine(sampleNote("n1", "groceries"))
	a, out := newTestApp(eng, "\nnew body\n\n")

	require.NoError(t, a.Edit(context.Background(), "n1"))
	require.Len(t, eng.patches, 1)
	require.Nil(t, eng.patches[0].Title)
	require.Equal(t, "new body", *eng.patches[0].Body)
	require.Contains(t, out.String(), "Note updated: n1")
}

func TestApp_Edit_NothingChanged(t *testing.T) {
	eng := newFakeEngine(sampleNote("n1", "groceries"))
	a, out := newTestApp(eng, "groceries\n\n")

	require.NoError(t, a.Edit(context.Background(), "n1"))
	require.Empty(t, eng.patches)
	require.Contains(t, out.String(), "Nothing changed.")
}

func TestApp_Delete(t *testing.T) {
	eng := newFakeEngine(sampleNote("n1", "groceries"))
	a, out := newTestApp(eng, "")

	require.NoError(t, a.Delete(context.Background(), "n1"))
	require.Equal(t, []string{"n1"}, eng.deleted)

	out.Reset()
	require.NoError(t, a.Delete(context.Background(), "zzz"))
	require.Equal(t, []string{"n1"}, eng.deleted)
	require.Contains(t, out.String(), "Note not found: zzz")
}

func TestApp_Sync_Offline(t *testing.T) {
	eng := newFakeEngine()
	eng.pending = 3
	a, out := newTestApp(eng, "")

	require.NoError(t, a.Sync(context.Background()))
	require.Zero(t, eng.syncCalls)
	require.Contains(t, out.String(), "Offline, 3 change(s)")
}

func TestApp_Sync_Online(t *testing.T) {
	eng := newFakeEngine()
	eng.online = true
	eng.syncReport = engine.Report{Replayed: 2, Failed: 1}
	eng.syncErr = errors.New("replay failed")
	a, out := newTestApp(eng, "")

	err := a.Sync(context.Background())
	require.ErrorContains(t, err, "replay failed")
	require.Contains(t, out.String(), "2 replayed, 1 failed")
}

func TestApp_Sync_AlreadyRunning(t *testing.T) {
	eng := newFakeEngine()
	eng.online = true
	eng.syncReport = engine.Report{Skipped: true}
	a, out := newTestApp(eng, "")

	require.NoError(t, a.Sync(context.Background()))
	require.Contains(t, out.String(), "already running")
}

func TestApp_Status(t *testing.T) {
	eng := newFakeEngine()
	eng.online = true
	eng.pending = 4
	a, out := newTestApp(eng, "")

	require.NoError(t, a.Status(context.Background()))
	require.Contains(t, out.String(), "Owner:   owner-1")
	require.Contains(t, out.String(), "Mode:    online")
	require.Contains(t, out.String(), "Pending: 4")
	require.Equal(t, "(online, 4 pending)", a.statusLine())
}

func TestApp_ClearQueue_RequiresConfirmation(t *testing.T) {
	eng := newFakeEngine()
	a, out := newTestApp(eng, "no\n")
	require.NoError(t, a.ClearQueue(context.Background()))
	require.False(t, eng.cleared)
	require.Contains(t, out.String(), "Cancelled.")

	a, out = newTestApp(eng, "yes\n")
	require.NoError(t, a.ClearQueue(context.Background()))
	require.True(t, eng.cleared)
	require.Contains(t, out.String(), "Queue cleared")
}

func TestShorten(t *testing.T) {
	require.Equal(t, "abc", shorten("abc", 5))
	require.Equal(t, "abcd…", shorten("abcdefgh", 5))
}
