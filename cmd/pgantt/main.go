package main

import (
	"context"
	"fmt"
	"os"

	"github.com/daedaleanai/pgantt/internal/cli"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	app := &cli.App{IsInteractive: isTerminal}
	defer app.Close()

	return cli.NewRootCmd(app).ExecuteContext(context.Background())
}

// isTerminal reports whether both ends of the session are a terminal. The
// live chart and the forms read keys from stdin and draw on stdout.
func isTerminal() bool {
	return tty(os.Stdin.Fd()) && tty(os.Stdout.Fd())
}

func tty(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
