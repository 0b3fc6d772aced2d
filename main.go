package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"gitlab.com/nunet/yarn-data/cmd"
	"gitlab.com/nunet/yarn-data/internal"
	"gitlab.com/nunet/yarn-data/internal/config"
	"gitlab.com/nunet/yarn-data/internal/tracing"
)

func main() {
	// a .env file is optional, variables already in the environment win
	if err := godotenv.Load(); err == nil {
		config.LoadConfig()
	}

	ctx, cancel := internal.NotifyShutdown(context.Background())

	shutdownTracing, err := tracing.InitTracer(ctx, config.GetConfig().Tracing)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Tracing disabled: %v\n", err)
		shutdownTracing = func(context.Context) error { return nil }
	}

	// Execute command-line interface; traces are flushed before exiting
	err = cmd.Execute(ctx)
	err = multierr.Append(err, shutdownTracing(context.Background()))
	cancel()

	cobra.CheckErr(err)
}
