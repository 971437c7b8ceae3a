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

package mapdata

import (
	"context"
	"errors"
	"slices"
	"sync"

	"m4o.io/osmquest/model"
)

// Listener is notified after the source changed.
type Listener interface {
	// OnUpdated is called after elements were added, changed or deleted.
	// updated holds the changed elements with their geometry.
	OnUpdated(ctx context.Context, updated model.MapData, deleted []model.ElementKey) error

	// OnReplaced is called after all data within bbox was replaced.
	OnReplaced(ctx context.Context, bbox model.BoundingBox, data model.MapData) error
}

// Source is an in-memory map data store.  Reads may happen concurrently with
// writes; listeners are called after each write, in registration order.
type Source struct {
	mu       sync.RWMutex
	elements map[model.ElementKey]model.Element
	order    []model.ElementKey

	listenersMu sync.Mutex
	listeners   []Listener
}

// NewSource creates an empty source.
func NewSource() *Source {
	return &Source{elements: make(map[model.ElementKey]model.Element)}
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

// Element returns the current version of an element.
func (s *Source) Element(key model.ElementKey) (model.Element, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.elements[key]

	return e, ok
}

// Geometry materializes the current geometry of an element.
func (s *Source) Geometry(key model.ElementKey) (model.Geometry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.elements[key]
	if !ok {
		return nil, false
	}

	g := BuildGeometry(e, s.lookup)

	return g, g != nil
}

// MapDataWithGeometry returns a snapshot of all elements whose geometry
// intersects bbox.
func (s *Source) MapDataWithGeometry(bbox model.BoundingBox) model.MapData {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := NewSnapshot().SetBoundingBox(bbox)

	for _, key := range s.order {
		e := s.elements[key]

		g := BuildGeometry(e, s.lookup)
		if g == nil || !g.Bounds().Intersects(bbox) {
			continue
		}

		snapshot.Put(e, g)
	}

	return snapshot
}

func (s *Source) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.elements)
}

// Put adds or replaces elements and notifies listeners.  Ways whose
// geometry changed because one of their nodes moved are reported as updated
// too.
func (s *Source) Put(ctx context.Context, elements ...model.Element) error {
	s.mu.Lock()

	touched := make(map[model.ElementKey]bool, len(elements))
	keys := make([]model.ElementKey, 0, len(elements))

	for _, e := range elements {
		s.put(e)

		if !touched[e.Key()] {
			touched[e.Key()] = true
			keys = append(keys, e.Key())
		}
	}

	for _, key := range s.order {
		if w, ok := s.elements[key].(*model.Way); ok && !touched[key] && s.referencesAny(w, touched) {
			touched[key] = true
			keys = append(keys, key)
		}
	}

	updated := NewSnapshot()
	for _, key := range keys {
		e := s.elements[key]
		updated.Put(e, BuildGeometry(e, s.lookup))
	}

	s.mu.Unlock()

	return s.notify(func(l Listener) error { return l.OnUpdated(ctx, updated, nil) })
}

// Delete removes elements and notifies listeners.  Unknown keys are ignored.
func (s *Source) Delete(ctx context.Context, keys ...model.ElementKey) error {
	s.mu.Lock()

	deleted := make([]model.ElementKey, 0, len(keys))

	for _, key := range keys {
		if _, ok := s.elements[key]; ok {
			delete(s.elements, key)
			deleted = append(deleted, key)
		}
	}

	s.order = slices.DeleteFunc(s.order, func(k model.ElementKey) bool {
		_, ok := s.elements[k]

		return !ok
	})

	s.mu.Unlock()

	if len(deleted) == 0 {
		return nil
	}

	return s.notify(func(l Listener) error { return l.OnUpdated(ctx, NewSnapshot(), deleted) })
}

// Replace drops every element whose geometry intersects bbox, stores data in
// its place and notifies listeners with the new data.
func (s *Source) Replace(ctx context.Context, bbox model.BoundingBox, data model.MapData) error {
	s.mu.Lock()

	stale := make(map[model.ElementKey]bool)

	for _, key := range s.order {
		g := BuildGeometry(s.elements[key], s.lookup)
		if g != nil && g.Bounds().Intersects(bbox) {
			stale[key] = true
		}
	}

	for key := range stale {
		delete(s.elements, key)
	}

	s.order = slices.DeleteFunc(s.order, func(k model.ElementKey) bool { return stale[k] })

	replaced := NewSnapshot().SetBoundingBox(bbox)

	for _, e := range data.Elements() {
		s.put(e)
	}

	for _, e := range data.Elements() {
		replaced.Put(e, BuildGeometry(e, s.lookup))
	}

	s.mu.Unlock()

	return s.notify(func(l Listener) error { return l.OnReplaced(ctx, bbox, replaced) })
}

func (s *Source) put(e model.Element) {
	key := e.Key()
	if _, ok := s.elements[key]; !ok {
		s.order = append(s.order, key)
	}

	s.elements[key] = e
}

// lookup must be called with mu held.
func (s *Source) lookup(key model.ElementKey) (model.Element, bool) {
	e, ok := s.elements[key]

	return e, ok
}

func (s *Source) referencesAny(w *model.Way, keys map[model.ElementKey]bool) bool {
	for _, id := range w.NodeIDs {
		if keys[model.ElementKey{Type: model.NODE, ID: id}] {
			return true
		}
	}

	return false
}

func (s *Source) notify(f func(l Listener) error) error {
	s.listenersMu.Lock()
	listeners := slices.Clone(s.listeners)
	s.listenersMu.Unlock()

	var errs []error

	for _, l := range listeners {
		if err := f(l); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
