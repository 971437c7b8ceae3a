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

// Package config reads the command line defaults from the environment.
package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
)

// Config holds the settings shared by every command.
type Config struct {
	// DBPath is the SQLite file holding the quests.
	DBPath string `env:"OSMQUEST_DB_PATH" envDefault:"osmquest.db"`

	// HiddenPath is the BadgerDB directory holding the hidden quests.
	HiddenPath string `env:"OSMQUEST_HIDDEN_PATH" envDefault:"osmquest-hidden"`

	// RegistryPath is the YAML file defining the quest types.
	RegistryPath string `env:"OSMQUEST_REGISTRY_PATH" envDefault:"quest_types.yaml"`

	// CountriesPath is the YAML file with country boxes.  Without it,
	// country restricted quest types never apply.
	CountriesPath string `env:"OSMQUEST_COUNTRIES_PATH"`

	// Workers is the number of evaluation goroutines; 0 picks a default.
	Workers uint16 `env:"OSMQUEST_WORKERS" envDefault:"0"`

	LogLevel slog.Level `env:"OSMQUEST_LOG_LEVEL" envDefault:"INFO"`
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// ParseEnv loads configuration from environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	return nil
}
