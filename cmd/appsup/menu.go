package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

const menuText = `appsup - application supervisor
  1) start    start both services (backend first)
  2) stop     stop both services (frontend first)
  3) status   show consolidated status
  4) restart  stop then start
  q) quit
`

// Menu runs the interactive loop used when appsup is invoked with no
// subcommand. Every choice maps onto the same one-shot operations the
// subcommands use.
func (c command) Menu(in io.Reader, out io.Writer) error {
	printTo(out, menuText)
	sc := bufio.NewScanner(in)
	for {
		printTo(out, "> ")
		if !sc.Scan() {
			printTo(out, "\n")
			return sc.Err()
		}
		choice := strings.ToLower(strings.TrimSpace(sc.Text()))
		switch choice {
		case "":
			continue
		case "1", "start":
			runChoice(c.Start(StartFlags{}))
		case "2", "stop":
			runChoice(c.Stop(StopFlags{}))
		case "3", "status":
			runChoice(c.Status(StatusFlags{}))
		case "4", "restart":
			runChoice(c.Restart())
		case "h", "help", "?":
			printTo(out, menuText)
		case "q", "quit", "exit":
			return nil
		default:
			fmt.Fprintf(out, "unknown choice %q, type 'help' for the menu\n", choice)
		}
	}
}

// runChoice keeps the menu alive on operation errors; only quitting exits.
func runChoice(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
}
