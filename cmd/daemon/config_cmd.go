// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ManuGH/clipmp3/internal/app/bootstrap"
	"github.com/ManuGH/clipmp3/internal/config"
	"github.com/ManuGH/clipmp3/internal/version"
)

func newConfigCommand(flags *globalFlags) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}
	configCmd.AddCommand(newConfigShowCommand(flags))
	configCmd.AddCommand(newConfigValidateCommand(flags))
	return configCmd
}

func newConfigShowCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			return enc.Close()
		},
	}
}

func newConfigValidateCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(flags); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Configuration valid")
			return nil
		},
	}
}

// loadConfig resolves and loads the configuration the way serve does,
// without preparing directories or configuring the logger.
func loadConfig(flags *globalFlags) (config.AppConfig, error) {
	path, _, err := bootstrap.ResolveConfigPath(strings.TrimSpace(flags.configPath))
	if err != nil {
		return config.AppConfig{}, fmt.Errorf("resolve config path: %w", err)
	}
	cfg, err := config.NewLoader(path, version.Version).WithDotEnv(flags.dotEnvPath).Load()
	if err != nil {
		return config.AppConfig{}, err
	}
	return cfg, nil
}
