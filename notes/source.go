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

// Package notes keeps the annotations users attach to positions on the map.
package notes

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"

	"m4o.io/osmquest/model"
)

// Listener is notified after notes changed.
type Listener interface {
	OnUpdated(ctx context.Context, added, updated, deleted []model.Note) error
}

// Source is an in-memory note store.
type Source struct {
	mu    sync.RWMutex
	notes map[int64]model.Note

	listenersMu sync.Mutex
	listeners   []Listener
}

// NewSource creates an empty source.
func NewSource() *Source {
	return &Source{notes: make(map[int64]model.Note)}
}

func (s *Source) AddListener(l Listener) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()

	s.listeners = append(s.listeners, l)
}

func (s *Source) RemoveListener(l Listener) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()

	s.listeners = slices.DeleteFunc(s.listeners, func(o Listener) bool { return o == l })
}

func (s *Source) Get(id int64) (model.Note, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.notes[id]

	return n, ok
}

// Positions returns the positions of all open notes within bbox, ordered by
// note id.
func (s *Source) Positions(_ context.Context, bbox model.BoundingBox) ([]model.LatLon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int64, 0, len(s.notes))

	for id, n := range s.notes {
		if !n.Closed && bbox.ContainsLatLon(n.Position) {
			ids = append(ids, id)
		}
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	positions := make([]model.LatLon, len(ids))
	for i, id := range ids {
		positions[i] = s.notes[id].Position
	}

	return positions, nil
}

// Put adds or replaces notes and notifies listeners.
func (s *Source) Put(ctx context.Context, notes ...model.Note) error {
	s.mu.Lock()

	var added, updated []model.Note

	for _, n := range notes {
		if _, ok := s.notes[n.ID]; ok {
			updated = append(updated, n)
		} else {
			added = append(added, n)
		}

		s.notes[n.ID] = n
	}

	s.mu.Unlock()

	return s.notify(ctx, added, updated, nil)
}

// Delete removes notes and notifies listeners.  Unknown ids are ignored.
func (s *Source) Delete(ctx context.Context, ids ...int64) error {
	s.mu.Lock()

	var deleted []model.Note

	for _, id := range ids {
		if n, ok := s.notes[id]; ok {
			deleted = append(deleted, n)
			delete(s.notes, id)
		}
	}

	s.mu.Unlock()

	if len(deleted) == 0 {
		return nil
	}

	return s.notify(ctx, nil, nil, deleted)
}

func (s *Source) notify(ctx context.Context, added, updated, deleted []model.Note) error {
	s.listenersMu.Lock()
	listeners := slices.Clone(s.listeners)
	s.listenersMu.Unlock()

	var errs []error

	for _, l := range listeners {
		if err := l.OnUpdated(ctx, added, updated, deleted); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
