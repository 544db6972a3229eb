// Command modgraph loads a modulation patch, renders a number of blocks with
// swept control inputs and prints the resulting parameter values.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/katalvlaran/paramgraph/cmd/modgraph/runner"
	"github.com/katalvlaran/paramgraph/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	opts := runner.NewOptions()
	opts.AddFlags(pflag.CommandLine)
	pflag.Parse()

	if err := opts.Complete(); err != nil {
		return err
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	log, err := logging.NewZapLogger(opts.LogVerbosity, opts.Development)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	setupLog := log.WithName("setup")

	flags := make(map[string]any)
	pflag.VisitAll(func(f *pflag.Flag) {
		flags[f.Name] = f.Value
	})
	setupLog.Info("Flags processed", "flags", flags)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runner.NewRunner(opts, os.Stdout, log).Run(ctx); err != nil {
		setupLog.Error(err, "Run failed")
		return err
	}
	setupLog.V(logging.VERBOSE).Info("Done")

	return nil
}
