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

// Package mapdata holds map data in memory: snapshots of elements with their
// geometry, a mutable source that notifies listeners of changes, and a loader
// for OpenStreetMap PBF files.
package mapdata

import (
	"m4o.io/osmquest/model"
)

// Snapshot is an immutable-by-convention model.MapData.  It is built with
// Put and must not be modified once handed out.
type Snapshot struct {
	elements   []model.Element
	index      map[model.ElementKey]int
	geometries map[model.ElementKey]model.Geometry
	bbox       *model.BoundingBox
}

var _ model.MapData = (*Snapshot)(nil)

// NewSnapshot creates an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		index:      make(map[model.ElementKey]int),
		geometries: make(map[model.ElementKey]model.Geometry),
	}
}

// Put adds e with its geometry, which may be nil.  Putting an element that
// is already present replaces it but keeps its position in the order.
func (s *Snapshot) Put(e model.Element, g model.Geometry) *Snapshot {
	key := e.Key()

	if i, ok := s.index[key]; ok {
		s.elements[i] = e
	} else {
		s.index[key] = len(s.elements)
		s.elements = append(s.elements, e)
	}

	if g != nil {
		s.geometries[key] = g
	} else {
		delete(s.geometries, key)
	}

	return s
}

// SetBoundingBox records the area the snapshot covers.
func (s *Snapshot) SetBoundingBox(bbox model.BoundingBox) *Snapshot {
	s.bbox = &bbox

	return s
}

func (s *Snapshot) Elements() []model.Element {
	return s.elements
}

func (s *Snapshot) Get(key model.ElementKey) (model.Element, bool) {
	i, ok := s.index[key]
	if !ok {
		return nil, false
	}

	return s.elements[i], true
}

func (s *Snapshot) Geometry(key model.ElementKey) (model.Geometry, bool) {
	g, ok := s.geometries[key]

	return g, ok
}

// BoundingBox returns the recorded area, or else the bounds of all
// geometries.
func (s *Snapshot) BoundingBox() (model.BoundingBox, bool) {
	if s.bbox != nil {
		return *s.bbox, true
	}

	if len(s.geometries) == 0 {
		return model.BoundingBox{}, false
	}

	bbox := model.InitialBoundingBox()
	for _, g := range s.geometries {
		bbox.ExpandWithBoundingBox(g.Bounds())
	}

	return *bbox, true
}

func (s *Snapshot) Len() int {
	return len(s.elements)
}
