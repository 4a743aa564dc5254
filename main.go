// fifoirc relays lines from a named pipe, and optionally a subprocess,
// into an IRC channel.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"fifoirc/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), quitSignals...)
	defer cancel()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "fifoirc: %v\n", err)
		os.Exit(1)
	}
}
