// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	platformnet "github.com/ManuGH/clipmp3/internal/platform/net"
	"github.com/ManuGH/clipmp3/internal/platform/paths"
)

func newCheckCommand(flags *globalFlags) *cobra.Command {
	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Run the request validators offline",
	}
	checkCmd.AddCommand(newCheckURLCommand())
	checkCmd.AddCommand(newCheckPathCommand(flags))
	return checkCmd
}

func newCheckURLCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "url <url>",
		Short: "Report whether a URL would be handed to the fetch tool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := platformnet.ValidateMediaURL(args[0])
			if err != nil {
				return fmt.Errorf("rejected: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "accepted: %s\n", platformnet.SanitizeURL(u.String()))
			return nil
		},
	}
}

func newCheckPathCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "path <path>",
		Short: "Report whether a local file would be accepted as a conversion source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			p, err := paths.ValidateLocalFilePath(args[0], paths.BaseSource{
				TempDir:       cfg.TempDir,
				RemovableRoot: cfg.RemovableRoot,
			})
			if err != nil {
				return fmt.Errorf("rejected: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "accepted: %s\n", p.String())
			return nil
		},
	}
}
