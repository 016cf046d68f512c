package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/law-makers/sismos/internal/cli"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	// Cancel the running command on interrupt; serve shuts down, run aborts the fetch.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn().Msg("Interrupt received, shutting down gracefully...")
		cancel()
	}()

	code := cli.ExecuteContext(ctx)
	cancel()
	os.Exit(code)
}
