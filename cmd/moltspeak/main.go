package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"moltspeak/cmd/moltspeak/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := commands.Execute(ctx); err != nil {
		os.Exit(1)
	}
}
