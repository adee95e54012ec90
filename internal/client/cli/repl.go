package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. The real App
// satisfies it; tests provide a lightweight stub.
type execIface interface {
	List(ctx context.Context, query string) error
	Sort(ctx context.Context, args []string) error
	Show(ctx context.Context, id string) error
	Add(ctx context.Context) error
	Edit(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	Sync(ctx context.Context) error
	Pending(ctx context.Context) error
	Status(ctx context.Context) error
	ClearQueue(ctx context.Context) error
}

const helpText = `Available commands:
  list [query]                         list notes, optionally filtered
  sort <created|modified|title> <asc|desc>
  show <id>                            show a note
  add                                  add a note
  edit <id>                            edit a note
  delete <id>                          delete a note
  sync                                 sync now
  pending                              show the number of unsynced changes
  status                               show connection and sync status
  clear-queue                          discard unsynced changes
  exit                                 leave the program`

// runREPL reads commands from reader until EOF or "exit"/"quit" and
// dispatches them to a. The prompt is printed only when prompt is set.
//
// Errors returned by command handlers are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, prompt bool) {
	for {
		if ctx.Err() != nil {
			return
		}
		if prompt {
			printlnFn(fmt.Sprintf("notes %s> ", statusFn()))
		}
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			printlnFn(helpText)

		case "l", "list":
			cmdErr = a.List(ctx, strings.Join(args, " "))

		case "sort":
			cmdErr = a.Sort(ctx, args)

		case "show":
			if id, ok := singleArg("show", args); ok {
				cmdErr = a.Show(ctx, id)
			}

		case "add":
			cmdErr = a.Add(ctx)

		case "edit":
			if id, ok := singleArg("edit", args); ok {
				cmdErr = a.Edit(ctx, id)
			}

		case "delete", "rm":
			if id, ok := singleArg("delete", args); ok {
				cmdErr = a.Delete(ctx, id)
			}

		case "sync":
			cmdErr = a.Sync(ctx)

		case "pending":
			cmdErr = a.Pending(ctx)

		case "status":
			cmdErr = a.Status(ctx)

		case "clear-queue":
			cmdErr = a.ClearQueue(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", cmdErr)
		}
		if err != nil {
			return
		}
	}
}

func singleArg(cmd string, args []string) (string, bool) {
	if len(args) != 1 {
		printlnFn(fmt.Sprintf("Usage: %s <id>", cmd))
		return "", false
	}
	return args[0], true
}
