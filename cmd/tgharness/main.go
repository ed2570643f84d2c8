// Package main is the entry point for the tgharness binary.
// It delegates immediately to the CLI command tree.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/neoclaw-ai/tgharness/internal/cli"
	"github.com/neoclaw-ai/tgharness/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.NewRootCmd().ExecuteContext(ctx); err != nil {
		logging.Logger().Error("fatal error", "err", err)
		stop()
		os.Exit(1)
	}
}
