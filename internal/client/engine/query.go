package engine

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/dmitrijs2005/gophnotes/internal/client/models"
)

// GetNote returns a visible note or ErrNotFound.
func (e *Engine) GetNote(ctx context.Context, id string) (models.Note, error) {
	n, err := e.visibleNote(ctx, id)
	if err != nil {
		return models.Note{}, err
	}
	return *n, nil
}

// ListNotes returns the visible notes matching opts.Query, ordered by
// opts.SortBy and opts.Order. An empty Order means newest first, or A to Z
// when sorting by title.
func (e *Engine) ListNotes(ctx context.Context, opts models.ListOptions) ([]models.Note, error) {
	notes, err := e.local.ListNotes(ctx)
	if err != nil {
		return nil, err
	}
	notes = filterNotes(notes, opts.Query)
	sortNotes(notes, opts.SortBy, opts.Order)
	return notes, nil
}

func filterNotes(notes []models.Note, query string) []models.Note {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return notes
	}
	out := notes[:0]
	for _, n := range notes {
		if strings.Contains(strings.ToLower(n.Title), q) || strings.Contains(strings.ToLower(n.Body), q) {
			out = append(out, n)
		}
	}
	return out
}

func sortNotes(notes []models.Note, by models.SortField, order models.SortOrder) {
	slices.SortStableFunc(notes, func(a, b models.Note) int {
		var c int
		switch by {
		case models.SortByCreated:
			c = a.CreatedAt.Compare(b.CreatedAt)
		case models.SortByTitle:
			c = cmp.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		default:
			c = a.ModifiedAt.Compare(b.ModifiedAt)
		}
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if order == models.OrderAsc {
			return c
		}
		if by == models.SortByTitle && order == "" {
			return c
		}
		return -c
	})
}
