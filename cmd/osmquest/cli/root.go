// Copyright 2025 the original author or authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cli holds the root command and what the subcommands share.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"m4o.io/osmquest/internal/config"
)

// RootCmd is the osmquest command.  Subcommands register themselves in init.
var RootCmd = &cobra.Command{
	Use:   "osmquest",
	Short: "Maintain quests for OpenStreetMap data",
	Long: "Maintain a database of quests, small actionable edits, computed " +
		"from OpenStreetMap data and a set of quest type rules.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := Settings(cmd)
		if err != nil {
			return err
		}

		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))

		return nil
	},
}

func init() {
	flags := RootCmd.PersistentFlags()
	flags.String("db", "", "SQLite file holding the quests (OSMQUEST_DB_PATH)")
	flags.String("hidden", "", "directory holding the hidden quests (OSMQUEST_HIDDEN_PATH)")
	flags.String("registry", "", "YAML file defining the quest types (OSMQUEST_REGISTRY_PATH)")
	flags.String("countries", "", "YAML file with country boxes (OSMQUEST_COUNTRIES_PATH)")
	flags.Uint16P("cpu", "c", 0, "number of CPUs to use for evaluation (OSMQUEST_WORKERS)")
}

// Settings reads the configuration from the environment; flags given on the
// command line take precedence.
func Settings(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()

	for name, target := range map[string]*string{
		"db":        &cfg.DBPath,
		"hidden":    &cfg.HiddenPath,
		"registry":  &cfg.RegistryPath,
		"countries": &cfg.CountriesPath,
	} {
		if !flags.Changed(name) {
			continue
		}

		if *target, err = flags.GetString(name); err != nil {
			return config.Config{}, err
		}
	}

	if flags.Changed("cpu") {
		if cfg.Workers, err = flags.GetUint16("cpu"); err != nil {
			return config.Config{}, err
		}
	}

	return cfg, nil
}
