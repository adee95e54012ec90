package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestNotePatch_Apply(t *testing.T) {
	n := Note{Title: "old title", Body: "old body"}

	NotePatch{Title: strPtr("new title")}.Apply(&n)
	assert.Equal(t, "new title", n.Title)
	assert.Equal(t, "old body", n.Body)

	NotePatch{Body: strPtr("")}.Apply(&n)
	assert.Equal(t, "", n.Body, "empty string is a real value, not a skip")
}

func TestNotePatch_Empty(t *testing.T) {
	assert.True(t, NotePatch{}.Empty())
	assert.False(t, NotePatch{Body: strPtr("x")}.Empty())
}

func TestNote_JSONOmitsLocalBookkeeping(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	n := Note{
		ID: "n1", Owner: "u1", Title: "t", Body: "b",
		CreatedAt: ts, ModifiedAt: ts,
		SyncStatus: StatusPending, Tombstoned: true,
	}

	b, err := json.Marshal(n)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.ElementsMatch(t, []string{"id", "owner", "title", "body", "created_at", "modified_at"}, keys(m))
}

func TestNote_Fields(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	n := Note{Title: "t", Body: "b", ModifiedAt: ts}
	assert.Equal(t, NoteFields{Title: "t", Body: "b", ModifiedAt: ts}, n.Fields())
}

func TestSyncStatus_Valid(t *testing.T) {
	for _, s := range []SyncStatus{StatusSynced, StatusPending, StatusSyncing, StatusFailed} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, SyncStatus("queued").Valid())
}

func TestParseSort(t *testing.T) {
	f, ok := ParseSortField("title")
	assert.True(t, ok)
	assert.Equal(t, SortByTitle, f)

	_, ok = ParseSortField("size")
	assert.False(t, ok)

	o, ok := ParseSortOrder("asc")
	assert.True(t, ok)
	assert.Equal(t, OrderAsc, o)

	_, ok = ParseSortOrder("up")
	assert.False(t, ok)
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
