package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"maestro/internal/app/bootstrap"
)

// API process entrypoint.
// Data flow:
// 1) Load config and the reviewer roster.
// 2) Build app wiring (ports + adapters + use cases).
// 3) Serve HTTP; relay and consumer loops run alongside when enabled.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.BuildAPI(ctx)
	if err != nil {
		log.Fatalf("bootstrap api failed: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("api shutdown close failed: %v", err)
		}
	}()

	if err := app.Run(ctx); err != nil {
		log.Printf("maestro api stopped with error: %v", err)
	}
}
