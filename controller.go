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

// Package osmquest keeps a persisted set of quests consistent with changing
// OpenStreetMap data, notes and hidden quests.
package osmquest

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"m4o.io/osmquest/countries"
	"m4o.io/osmquest/model"
	"m4o.io/osmquest/questtype"
)

// ErrClosed is returned by events submitted after Close.
var ErrClosed = errors.New("controller closed")

// command is one event waiting in the inbox.
type command struct {
	ctx    context.Context
	event  string
	run    func(ctx context.Context) error
	result chan error
}

// Controller reconciles the quest store with upstream events.  Events are
// queued on a single inbox and applied one at a time, in arrival order, by
// one goroutine.  Queries may be called concurrently at any time.
type Controller struct {
	store     QuestStore
	hidden    SuppressionStore
	mapData   MapDataSource
	notes     NotesSource
	countries *countries.Resolver
	evaluator *Evaluator
	cfg       options

	inbox   chan command
	closing chan struct{}
	done    chan struct{}
	once    sync.Once

	mu        sync.RWMutex
	listeners []Listener
}

// New creates a controller and starts its inbox.  mapData and notes may be
// nil, in which case complex quest types only see the updated elements and
// there are no notes.  Call Close when done.
func New(
	registry *questtype.Registry,
	store QuestStore,
	hidden SuppressionStore,
	resolver *countries.Resolver,
	mapData MapDataSource,
	notes NotesSource,
	opts ...Option,
) (*Controller, error) {
	if registry == nil || store == nil || hidden == nil || resolver == nil {
		return nil, errors.New("registry, quest store, suppression store and country resolver are required")
	}

	cfg := defaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}

	c := &Controller{
		store:     store,
		hidden:    hidden,
		mapData:   mapData,
		notes:     notes,
		countries: resolver,
		evaluator: NewEvaluator(registry, cfg.workers),
		cfg:       cfg,
		inbox:     make(chan command, cfg.inboxSize),
		closing:   make(chan struct{}),
		done:      make(chan struct{}),
	}

	go c.run()

	return c, nil
}

// Close stops the inbox.  Events already being applied run to completion;
// queued and later events fail with ErrClosed.
func (c *Controller) Close() error {
	c.once.Do(func() { close(c.closing) })
	<-c.done

	return nil
}

// AddListener registers l to be told about every change.
func (c *Controller) AddListener(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.listeners = append(c.listeners, l)
}

// RemoveListener unregisters l.
func (c *Controller) RemoveListener(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.listeners = slices.DeleteFunc(c.listeners, func(o Listener) bool { return o == l })
}

func (c *Controller) run() {
	defer close(c.done)

	for {
		select {
		case <-c.closing:
			return
		case cmd := <-c.inbox:
			c.process(cmd)
		}
	}
}

func (c *Controller) process(cmd command) {
	start := time.Now()

	// once started an event is never abandoned
	err := cmd.run(context.WithoutCancel(cmd.ctx))

	status := "ok"
	if err != nil {
		status = "error"

		c.cfg.logger.Error("unable to process event", "event", cmd.event, "error", err)
	}

	eventsTotal.WithLabelValues(cmd.event, status).Inc()
	eventDuration.WithLabelValues(cmd.event).Observe(time.Since(start).Seconds())

	cmd.result <- err
}

// submit queues an event and waits for it to be applied.  If ctx is done
// before that, submit returns early but the event is still applied.
func (c *Controller) submit(ctx context.Context, event string, run func(ctx context.Context) error) error {
	cmd := command{ctx: ctx, event: event, run: run, result: make(chan error, 1)}

	select {
	case <-c.closing:
		return ErrClosed
	default:
	}

	select {
	case c.inbox <- cmd:
	case <-c.closing:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-cmd.result:
		return err
	case <-c.done:
		select {
		case err := <-cmd.result:
			return err
		default:
			return ErrClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// apply commits one batch and notifies the listeners.
func (c *Controller) apply(ctx context.Context, event string, deleteIDs []model.QuestID, add []model.Quest) ([]model.Quest, error) {
	if len(deleteIDs) == 0 && len(add) == 0 {
		return nil, nil
	}

	added, err := c.store.Apply(ctx, deleteIDs, add)
	if err != nil {
		return nil, fmt.Errorf("unable to apply %s: %w", event, err)
	}

	if len(added) == 0 {
		added = nil
	}

	questsAdded.WithLabelValues(event).Add(float64(len(added)))
	questsDeleted.WithLabelValues(event).Add(float64(len(deleteIDs)))

	c.cfg.logger.Debug("applied quest changes", "event", event, "added", len(added), "deleted", len(deleteIDs))

	c.notify(added, deleteIDs)

	return added, nil
}

func (c *Controller) notify(added []model.Quest, deleted []model.QuestID) {
	if len(added) == 0 && len(deleted) == 0 {
		return
	}

	c.mu.RLock()
	listeners := slices.Clone(c.listeners)
	c.mu.RUnlock()

	for _, l := range listeners {
		l.OnUpdated(added, deleted)
	}
}

// inputs gathers the hidden keys, the country index and the positions of
// open notes within bbox.  A nil bbox means no notes are needed.
func (c *Controller) inputs(ctx context.Context, bbox *model.BoundingBox) (Inputs, error) {
	in := Inputs{}

	index, err := c.countries.Await(ctx)
	if err != nil && ctx.Err() != nil {
		return in, err
	}

	in.Countries = index

	entries, err := c.hidden.All(ctx)
	if err != nil {
		return in, fmt.Errorf("unable to read hidden quests: %w", err)
	}

	in.Hidden = make(map[model.QuestKey]struct{}, len(entries))
	for _, entry := range entries {
		in.Hidden[entry.Key] = struct{}{}
	}

	if bbox != nil {
		in.Blacklist, err = c.blacklist(ctx, *bbox)
		if err != nil {
			return in, err
		}
	}

	return in, nil
}

func (c *Controller) blacklist(ctx context.Context, bbox model.BoundingBox) (map[model.LatLon]struct{}, error) {
	if c.notes == nil {
		return nil, nil
	}

	positions, err := c.notes.Positions(ctx, bbox)
	if err != nil {
		return nil, fmt.Errorf("unable to read note positions: %w", err)
	}

	blacklist := make(map[model.LatLon]struct{}, len(positions))
	for _, p := range positions {
		blacklist[p] = struct{}{}
	}

	return blacklist, nil
}

// surroundings returns a lazy fetch of the map data around g.
func (c *Controller) surroundings(g model.Geometry, fallback model.MapData) func() model.MapData {
	return func() model.MapData {
		if c.mapData == nil {
			return fallback
		}

		return c.mapData.MapDataWithGeometry(g.Bounds().Enlarged(c.cfg.elementPadding))
	}
}
