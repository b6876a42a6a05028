package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"mspro-labs/cellar-scout/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		stop()
		log.Fatalf("cellar-scout: %v", err)
	}
}
