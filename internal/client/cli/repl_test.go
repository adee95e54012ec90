package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeExec struct {
	calls []string
	args  []string
	err   error
}

func (f *fakeExec) record(name string, arg string) error {
	f.calls = append(f.calls, name)
	f.args = append(f.args, arg)
	return f.err
}

func (f *fakeExec) List(_ context.Context, query string) error { return f.record("list", query) }
func (f *fakeExec) Sort(_ context.Context, args []string) error {
	return f.record("sort", strings.Join(args, " "))
}
func (f *fakeExec) Show(_ context.Context, id string) error   { return f.record("show", id) }
func (f *fakeExec) Add(_ context.Context) error               { return f.record("add", "") }
func (f *fakeExec) Edit(_ context.Context, id string) error   { return f.record("edit", id) }
func (f *fakeExec) Delete(_ context.Context, id string) error { return f.record("delete", id) }
func (f *fakeExec) Sync(_ context.Context) error              { return f.record("sync", "") }
func (f *fakeExec) Pending(_ context.Context) error           { return f.record("pending", "") }
func (f *fakeExec) Status(_ context.Context) error            { return f.record("status", "") }
func (f *fakeExec) ClearQueue(_ context.Context) error        { return f.record("clear-queue", "") }

func capturePrintln(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, strings.TrimSuffix(fmt.Sprintln(a...), "\n"))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	capturePrintln(t)

	input := strings.NewReader(strings.Join([]string{
		"list",
		"list shopping list",
		"sort title asc",
		"show n1",
		"add",
		"edit n2",
		"delete n3",
		"sync",
		"pending",
		"status",
		"clear-queue",
		"exit",
		"list",
	}, "\n") + "\n")

	f := &fakeExec{}
	runREPL(context.Background(), f, func() string { return "" }, bufio.NewReader(input), false)

	require.Equal(t, []string{
		"list", "list", "sort", "show", "add", "edit", "delete",
		"sync", "pending", "status", "clear-queue",
	}, f.calls)
	require.Equal(t, "shopping list", f.args[1])
	require.Equal(t, "title asc", f.args[2])
	require.Equal(t, "n1", f.args[3])
	require.Equal(t, "n3", f.args[6])
}

func TestRunREPL_UsageAndUnknown(t *testing.T) {
	lines := capturePrintln(t)

	input := strings.NewReader("show\nfrobnicate\n\nquit\n")
	f := &fakeExec{}
	runREPL(context.Background(), f, func() string { return "" }, bufio.NewReader(input), false)

	require.Empty(t, f.calls)
	require.Contains(t, *lines, "Usage: show <id>")
	require.Contains(t, *lines, "Unknown command: frobnicate")
	require.Contains(t, *lines, "Bye!")
}

func TestRunREPL_PrintsErrorsAndContinues(t *testing.T) {
	lines := capturePrintln(t)

	f := &fakeExec{err: errors.New("boom")}
	input := strings.NewReader("sync\npending\n")
	runREPL(context.Background(), f, func() string { return "" }, bufio.NewReader(input), false)

	require.Equal(t, []string{"sync", "pending"}, f.calls)
	require.Contains(t, *lines, "Error: boom")
}

func TestRunREPL_PromptShowsStatus(t *testing.T) {
	lines := capturePrintln(t)

	input := strings.NewReader("exit\n")
	runREPL(context.Background(), &fakeExec{}, func() string { return "(offline, 2 pending)" }, bufio.NewReader(input), true)

	require.Equal(t, "notes (offline, 2 pending)> ", (*lines)[0])
}

func TestRunREPL_LastLineWithoutNewline(t *testing.T) {
	capturePrintln(t)

	f := &fakeExec{}
	runREPL(context.Background(), f, func() string { return "" }, bufio.NewReader(strings.NewReader("status")), false)

	require.Equal(t, []string{"status"}, f.calls)
}

func TestRunREPL_StopsOnCancelledContext(t *testing.T) {
	capturePrintln(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := &fakeExec{}
	runREPL(ctx, f, func() string { return "" }, bufio.NewReader(strings.NewReader("list\n")), false)
	require.Empty(t, f.calls)
}
