package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

// errExit ends the REPL.
var errExit = errors.New("exit")

type command struct {
	usage string
	help  string
	run   func(ctx context.Context, a *App, args []string) error
}

// commands is the complete set of verbs the CLI understands. Input is never
// evaluated beyond looking up its first word here.
var commands map[string]command

func init() {
	commands = map[string]command{
		"help":     {"help", "show this list", cmdHelp},
		"anon":     {"anon", "log on anonymously", cmdAnon},
		"login":    {"login [username]", "log on with an account", cmdLogin},
		"logout":   {"logout", "end the session", cmdLogout},
		"status":   {"status", "show session and loaded tickets", cmdStatus},
		"find":     {"find", "scan the tickets directory", cmdFind},
		"load":     {"load [path | app depot manifest]", "load a ticket or bundle (no argument: first ticket found)", cmdLoad},
		"make":     {"make app depot manifest [code]", "build and save a ticket", cmdMake},
		"bulk":     {"bulk app", "build tickets for every content depot of an app", cmdBulk},
		"download": {"download [app depot manifest]", "download a loaded manifest (no argument: all loaded)", cmdDownload},
		"tickets":  {"tickets", "list indexed tickets", cmdTickets},
		"history":  {"history [n]", "show recent download runs", cmdHistory},
		"exit":     {"exit", "leave the program", cmdExit},
		"quit":     {"quit", "leave the program", cmdExit},
	}
}

// dispatch runs a single input line.
func dispatch(ctx context.Context, a *App, line string) error {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil
	}
	cmd, ok := commands[parts[0]]
	if !ok {
		return fmt.Errorf("unknown command %q, type 'help'", parts[0])
	}
	return cmd.run(ctx, a, parts[1:])
}

// runREPL reads lines from in until EOF or exit and dispatches them.
// Command errors are printed and the loop goes on.
func runREPL(ctx context.Context, a *App, in *bufio.Reader, out io.Writer) {
	for {
		fmt.Fprint(out, a.prompt())
		line, err := in.ReadString('\n')
		if line == "" && err != nil {
			fmt.Fprintln(out)
			return
		}

		switch derr := dispatch(ctx, a, line); {
		case errors.Is(derr, errExit):
			fmt.Fprintln(out, "Bye!")
			return
		case derr != nil:
			fmt.Fprintln(out, "error:", derr)
		}

		if err != nil {
			return
		}
	}
}

func cmdHelp(ctx context.Context, a *App, args []string) error {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := commands[name]
		fmt.Fprintf(a.out, "  %-36s %s\n", c.usage, c.help)
	}
	return nil
}

func cmdExit(ctx context.Context, a *App, args []string) error {
	return errExit
}
