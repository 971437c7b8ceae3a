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

package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"m4o.io/osmquest"
	"m4o.io/osmquest/countries"
	"m4o.io/osmquest/internal/config"
	"m4o.io/osmquest/mapdata"
	"m4o.io/osmquest/notes"
	"m4o.io/osmquest/questtype"
	"m4o.io/osmquest/storage/badger"
	"m4o.io/osmquest/storage/sqlite"
)

// App wires the stores, sources and controller of one command invocation.
type App struct {
	Store      *sqlite.Store
	Hidden     *badger.Store
	MapData    *mapdata.Source
	Notes      *notes.Source
	Registry   *questtype.Registry
	Controller *osmquest.Controller
}

// Open opens the stores named by cfg and starts a controller on them.
func Open(ctx context.Context, cfg config.Config) (*App, error) {
	registry, err := questtype.LoadRegistry(cfg.RegistryPath)
	if err != nil {
		return nil, err
	}

	store, err := sqlite.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}

	hidden, err := badger.Open(badger.Config{Path: cfg.HiddenPath, SyncWrites: true, Logger: slog.Default()})
	if err != nil {
		_ = store.Close()

		return nil, err
	}

	app := &App{
		Store:    store,
		Hidden:   hidden,
		MapData:  mapdata.NewSource(),
		Notes:    notes.NewSource(),
		Registry: registry,
	}

	opts := []osmquest.Option{osmquest.WithLogger(slog.Default())}
	if cfg.Workers > 0 {
		opts = append(opts, osmquest.WithWorkers(cfg.Workers))
	}

	app.Controller, err = osmquest.New(registry, store, hidden, resolver(ctx, cfg.CountriesPath), app.MapData, app.Notes, opts...)
	if err != nil {
		_ = app.Close()

		return nil, fmt.Errorf("unable to start controller: %w", err)
	}

	return app, nil
}

func resolver(ctx context.Context, path string) *countries.Resolver {
	if path == "" {
		return countries.Resolved(nil)
	}

	return countries.NewResolver(ctx, func(context.Context) (countries.Index, error) {
		index, err := countries.LoadBoxIndex(path)
		if err != nil {
			return nil, err
		}

		return index, nil
	})
}

// Close stops the controller and closes the stores.
func (a *App) Close() error {
	var errs []error

	if a.Controller != nil {
		errs = append(errs, a.Controller.Close())
	}

	errs = append(errs, a.Hidden.Close(), a.Store.Close())

	return errors.Join(errs...)
}
