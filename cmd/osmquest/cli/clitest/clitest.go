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

// Package clitest opens throwaway applications for command tests.
package clitest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"m4o.io/osmquest/cmd/osmquest/cli"
	"m4o.io/osmquest/internal/config"
)

// Registry defines a shop name quest for nodes and a road surface quest for
// ways.
const Registry = `quest_types:
  - name: AddRoadSurface
    kind: tags
    elements: [way]
    all: ["highway", "!surface"]
  - name: AddShopName
    kind: tags
    elements: [node]
    all: ["shop", "!name"]
`

// Config returns a configuration whose files all live in a temporary
// directory.
func Config(t *testing.T) config.Config {
	t.Helper()

	dir := t.TempDir()

	registry := filepath.Join(dir, "quest_types.yaml")
	require.NoError(t, os.WriteFile(registry, []byte(Registry), 0o600))

	return config.Config{
		DBPath:       filepath.Join(dir, "quests.db"),
		HiddenPath:   filepath.Join(dir, "hidden"),
		RegistryPath: registry,
		Workers:      2,
	}
}

// Open opens an application on cfg that is closed with the test.
func Open(t *testing.T, cfg config.Config) *cli.App {
	t.Helper()

	app, err := cli.Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	return app
}
