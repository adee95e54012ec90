package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/dmitrijs2005/gophnotes/internal/client/engine"
	"github.com/dmitrijs2005/gophnotes/internal/client/models"
)

const timeLayout = "2006-01-02 15:04"

func (a *App) List(ctx context.Context, query string) error {
	opts := a.listOptions
	opts.Query = query

	notes, err := a.engine.ListNotes(ctx, opts)
	if err != nil {
		return fmt.Errorf("error listing notes: %w", err)
	}
	if len(notes) == 0 {
		fmt.Fprintln(a.out, "No notes.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tMODIFIED")
	for _, n := range notes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", n.ID, shorten(n.Title, 40), n.SyncStatus, n.ModifiedAt.Local().Format(timeLayout))
	}
	return tw.Flush()
}

func (a *App) Sort(_ context.Context, args []string) error {
	if len(args) == 0 || len(args) > 2 {
		fmt.Fprintln(a.out, "Usage: sort <created|modified|title> [asc|desc]")
		return nil
	}
	field, ok := models.ParseSortField(args[0])
	if !ok {
		return fmt.Errorf("unknown sort field %q", args[0])
	}
	order := models.OrderDesc
	if field == models.SortByTitle {
		order = models.OrderAsc
	}
	if len(args) == 2 {
		if order, ok = models.ParseSortOrder(args[1]); !ok {
			return fmt.Errorf("unknown sort order %q", args[1])
		}
	}
	a.listOptions.SortBy, a.listOptions.Order = field, order
	fmt.Fprintf(a.out, "Sorting by %s, %s\n", field, order)
	return nil
}

func (a *App) Show(ctx context.Context, id string) error {
	n, err := a.engine.GetNote(ctx, id)
	if errors.Is(err, engine.ErrNotFound) {
		fmt.Fprintln(a.out, "Note not found:", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("error retrieving note: %w", err)
	}

	fmt.Fprintf(a.out, "ID:       %s\n", n.ID)
	fmt.Fprintf(a.out, "Title:    %s\n", n.Title)
	fmt.Fprintf(a.out, "Status:   %s\n", n.SyncStatus)
	fmt.Fprintf(a.out, "Created:  %s\n", n.CreatedAt.Local().Format(timeLayout))
	fmt.Fprintf(a.out, "Modified: %s\n", n.ModifiedAt.Local().Format(timeLayout))
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, n.Body)
	return nil
}

func (a *App) Add(ctx context.Context) error {
	raw, err := GetSimpleText(a.reader, "Title", a.out)
	if err != nil {
		return err
	}
	title, err := validateTitle(raw)
	if err != nil {
		return err
	}

	raw, err = GetMultiline(a.reader, "Body", a.out)
	if err != nil {
		return err
	}
	body, err := validateBody(raw)
	if err != nil {
		return err
	}

	n, _, err := a.engine.AddNote(ctx, title, body)
	if err != nil {
		return fmt.Errorf("error adding note: %w", err)
	}
	fmt.Fprintln(a.out, "Note added:", n.ID)
	return nil
}

func (a *App) Edit(ctx context.Context, id string) error {
	current, err := a.engine.GetNote(ctx, id)
	if errors.Is(err, engine.ErrNotFound) {
		fmt.Fprintln(a.out, "Note not found:", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("error retrieving note: %w", err)
	}

	var patch models.NotePatch

	raw, err := GetSimpleText(a.reader, fmt.Sprintf("Title [%s] (empty keeps it)", shorten(current.Title, 40)), a.out)
	if err != nil {
		return err
	}
	if raw != "" {
		title, err := validateTitle(raw)
		if err != nil {
			return err
		}
		if title != current.Title {
			patch.Title = &title
		}
	}

	raw, err = GetMultiline(a.reader, "Body (empty keeps it)", a.out)
	if err != nil {
		return err
	}
	if raw != "" {
		body, err := validateBody(raw)
		if err != nil {
			return err
		}
		if body != current.Body {
			patch.Body = &body
		}
	}

	if patch.Empty() {
		fmt.Fprintln(a.out, "Nothing changed.")
		return nil
	}

	if _, _, err := a.engine.UpdateNote(ctx, id, patch); err != nil {
		return fmt.Errorf("error updating note: %w", err)
	}
	fmt.Fprintln(a.out, "Note updated:", id)
	return nil
}

func (a *App) Delete(ctx context.Context, id string) error {
	if _, err := a.engine.GetNote(ctx, id); errors.Is(err, engine.ErrNotFound) {
		fmt.Fprintln(a.out, "Note not found:", id)
		return nil
	}
	if _, err := a.engine.DeleteNote(ctx, id); err != nil {
		return fmt.Errorf("error deleting note: %w", err)
	}
	fmt.Fprintln(a.out, "Note deleted:", id)
	return nil
}

func (a *App) Sync(ctx context.Context) error {
	if !a.engine.Online() {
		n, err := a.engine.PendingCount(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Offline, %d change(s) waiting to sync.\n", n)
		return nil
	}

	r, err := a.engine.TriggerSync(ctx)
	if r.Skipped {
		fmt.Fprintln(a.out, "A sync is already running.")
		return err
	}
	fmt.Fprintf(a.out, "Synced: %d replayed, %d failed, %d deferred.\n", r.Replayed, r.Failed, r.Deferred)
	if err != nil {
		return fmt.Errorf("sync error: %w", err)
	}
	return nil
}

func (a *App) Pending(ctx context.Context) error {
	n, err := a.engine.PendingCount(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d change(s) waiting to sync.\n", n)
	return nil
}

func (a *App) Status(ctx context.Context) error {
	n, err := a.engine.PendingCount(ctx)
	if err != nil {
		return err
	}
	mode := ModeOffline
	if a.engine.Online() {
		mode = ModeOnline
	}
	fmt.Fprintf(a.out, "Owner:   %s\n", a.engine.Owner())
	fmt.Fprintf(a.out, "Mode:    %s\n", mode)
	fmt.Fprintf(a.out, "Pending: %d\n", n)
	fmt.Fprintf(a.out, "Syncing: %t\n", a.engine.Syncing())
	return nil
}

func (a *App) ClearQueue(ctx context.Context) error {
	answer, err := GetSimpleText(a.reader, "Discard every unsynced change? Type 'yes' to confirm", a.out)
	if err != nil {
		return err
	}
	if answer != "yes" {
		fmt.Fprintln(a.out, "Cancelled.")
		return nil
	}
	n, err := a.engine.ClearQueue(ctx)
	if err != nil {
		return fmt.Errorf("error clearing queue: %w", err)
	}
	fmt.Fprintf(a.out, "Queue cleared, %d note(s) affected.\n", n)
	return nil
}

func shorten(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}
