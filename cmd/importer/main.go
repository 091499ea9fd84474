package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/riskibarqy/league-sync/internal/platform/logging"
)

func main() {
	cli := newCLI(os.Stdout, os.Stderr)

	// An interrupted run is not cancelled cooperatively: closing the connection
	// on exit makes PostgreSQL roll back the open transaction.
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-signals
		logger := cli.logger
		if logger == nil {
			logger = logging.Default()
		}
		logger.Warn("import interrupted", "signal", sig.String())
		_ = logger.Sync()
		os.Exit(1)
	}()

	if err := cli.rootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		cli.close()
		os.Exit(1)
	}
	cli.close()
}
