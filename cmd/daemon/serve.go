// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/ManuGH/clipmp3/internal/app/bootstrap"
	"github.com/ManuGH/clipmp3/internal/version"
)

func newServeCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the daemon until interrupted",
		Long: "Run the daemon. Once the listener is bound a single JSON line\n" +
			`{"event":"ready","url":...,"handle":...} is written to stdout;` + "\n" +
			"logs go to stderr.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			stderr := cmd.ErrOrStderr()
			c, err := bootstrap.WireServices(ctx, bootstrap.Options{
				Version:    version.Version,
				ConfigPath: flags.configPath,
				DotEnvPath: flags.dotEnvPath,
				LogOutput:  stderr,
				LogConsole: isTerminal(stderr),
				OnReady:    readyWriter(cmd.OutOrStdout()),
			})
			if err != nil {
				return err
			}

			if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}

// readyWriter emits the ready record as exactly one line.
func readyWriter(w io.Writer) func(bootstrap.Ready) {
	var mu sync.Mutex
	return func(r bootstrap.Ready) {
		mu.Lock()
		defer mu.Unlock()
		_ = json.NewEncoder(w).Encode(r)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
