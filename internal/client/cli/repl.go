package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	Add(ctx context.Context, collection string) error
	Edit(ctx context.Context, collection, id string) error
	Delete(ctx context.Context, collection, id string) error
	List(ctx context.Context, collection string) error
	Show(ctx context.Context, collection, id string) error
	Pending(ctx context.Context) error
	Sync(ctx context.Context) error
	Status(ctx context.Context) error
	Watch(ctx context.Context, collection string) error
	Schedule(ctx context.Context) error
	Unschedule(ctx context.Context) error
}

const helpText = `Available commands:
  add <collection>             add a record (articles, categories, tags)
  edit <collection> <id>       edit a record
  delete <collection> <id>     delete a record
  list <collection>            list records
  show <collection> <id>       show a record
  pending                      count unsynced records
  sync                         synchronize now
  status                       connectivity, pending records and periodic sync
  watch <collection>           follow a collection live until Enter
  schedule | unschedule        start or stop the periodic sync
  exit | quit                  leave the program`

// runREPL reads commands line by line from reader and dispatches them to a.
// The loop exits on EOF or when the user types "exit" or "quit". Command
// errors are printed and never end the loop.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("ks %s > ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		need := func(n int, usage string) bool {
			if len(args) < n {
				printlnFn("Usage:", usage)
				return false
			}
			return true
		}

		var cmdErr error
		switch cmd {
		case "help":
			printlnFn(helpText)

		case "add":
			if need(1, "add <collection>") {
				cmdErr = a.Add(ctx, args[0])
			}

		case "edit":
			if need(2, "edit <collection> <id>") {
				cmdErr = a.Edit(ctx, args[0], args[1])
			}

		case "delete":
			if need(2, "delete <collection> <id>") {
				cmdErr = a.Delete(ctx, args[0], args[1])
			}

		case "l", "list":
			if need(1, "list <collection>") {
				cmdErr = a.List(ctx, args[0])
			}

		case "show":
			if need(2, "show <collection> <id>") {
				cmdErr = a.Show(ctx, args[0], args[1])
			}

		case "pending":
			cmdErr = a.Pending(ctx)

		case "sync":
			cmdErr = a.Sync(ctx)

		case "status":
			cmdErr = a.Status(ctx)

		case "watch":
			if need(1, "watch <collection>") {
				cmdErr = a.Watch(ctx, args[0])
			}

		case "schedule":
			cmdErr = a.Schedule(ctx)

		case "unschedule":
			cmdErr = a.Unschedule(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", cmdErr)
		}
	}
}
