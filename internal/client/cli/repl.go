package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// commands is the surface the REPL dispatches to. App satisfies it; tests
// use a recording stub.
type commands interface {
	isLoggedIn(ctx context.Context) bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Status(ctx context.Context) error
	Env(ctx context.Context, args []string) error
	List(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	Add(ctx context.Context) error
	Delete(ctx context.Context, args []string) error
	Act(ctx context.Context, args []string) error
}

const (
	helpSignedOut = "Available commands: login, status, env, act, help, exit"
	helpSignedIn  = "Available commands: (l)ist, show, add, delete, status, env, act, logout, help, exit"
)

// runREPL reads commands line by line until EOF, "exit"/"quit" or ctx is
// done. Command errors are already reported by the handlers and do not end
// the loop.
func runREPL(ctx context.Context, c commands, prompt func(context.Context) string, reader *bufio.Reader, w io.Writer) {
	for {
		if ctx.Err() != nil {
			return
		}
		fmt.Fprint(w, prompt(ctx))

		line, err := readLine(reader)
		if err != nil {
			fmt.Fprintln(w)
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if c.isLoggedIn(ctx) {
				fmt.Fprintln(w, helpSignedIn)
			} else {
				fmt.Fprintln(w, helpSignedOut)
			}
		case "login":
			_ = c.Login(ctx)
		case "logout":
			_ = c.Logout(ctx)
		case "status":
			_ = c.Status(ctx)
		case "env":
			_ = c.Env(ctx, args)
		case "l", "list":
			_ = c.List(ctx, args)
		case "show":
			_ = c.Show(ctx, args)
		case "add":
			_ = c.Add(ctx)
		case "delete", "rm":
			_ = c.Delete(ctx, args)
		case "act":
			_ = c.Act(ctx, args)
		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return
		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
		}
	}
}
