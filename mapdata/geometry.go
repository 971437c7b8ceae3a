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
	"m4o.io/osmquest/model"
)

// Lookup resolves elements by key.
type Lookup func(key model.ElementKey) (model.Element, bool)

// areaKeys are the tags that make a closed way an area.
var areaKeys = []string{
	"building", "landuse", "natural", "leisure", "amenity", "shop",
	"tourism", "place", "man_made", "aeroway", "waterway", "parking",
}

// IsArea reports whether a closed way describes an area rather than a ring
// shaped line.
func IsArea(w *model.Way) bool {
	if !w.IsClosed() || w.Tags["area"] == "no" {
		return false
	}

	if w.Tags["area"] == "yes" {
		return true
	}

	for _, k := range areaKeys {
		if _, ok := w.Tags[k]; ok {
			return true
		}
	}

	return false
}

// BuildGeometry materializes the geometry of e from the elements lookup can
// resolve.  It returns nil if e has no geometry: a way with a missing node,
// or a relation that is not a multipolygon with at least one complete closed
// member way.
func BuildGeometry(e model.Element, lookup Lookup) model.Geometry {
	switch e := e.(type) {
	case *model.Node:
		return model.NewPointGeometry(e.Lat, e.Lon)
	case *model.Way:
		ring, ok := wayPositions(e, lookup)
		if !ok {
			return nil
		}

		if IsArea(e) {
			g, err := model.NewPolygonsGeometry([][]model.LatLon{ring})
			if err != nil {
				return nil
			}

			return g
		}

		g, err := model.NewPolylinesGeometry([][]model.LatLon{ring})
		if err != nil {
			return nil
		}

		return g
	case *model.Relation:
		return relationGeometry(e, lookup)
	default:
		return nil
	}
}

func wayPositions(w *model.Way, lookup Lookup) ([]model.LatLon, bool) {
	if len(w.NodeIDs) == 0 {
		return nil, false
	}

	positions := make([]model.LatLon, 0, len(w.NodeIDs))

	for _, id := range w.NodeIDs {
		e, ok := lookup(model.ElementKey{Type: model.NODE, ID: id})
		if !ok {
			return nil, false
		}

		n, ok := e.(*model.Node)
		if !ok {
			return nil, false
		}

		positions = append(positions, n.Position())
	}

	return positions, true
}

func relationGeometry(r *model.Relation, lookup Lookup) model.Geometry {
	if r.Tags["type"] != "multipolygon" {
		return nil
	}

	var polygons [][]model.LatLon

	for _, m := range r.Members {
		if m.Type != model.WAY {
			continue
		}

		e, ok := lookup(m.Key())
		if !ok {
			continue
		}

		w, ok := e.(*model.Way)
		if !ok || !w.IsClosed() {
			continue
		}

		ring, ok := wayPositions(w, lookup)
		if !ok {
			continue
		}

		polygons = append(polygons, ring)
	}

	if len(polygons) == 0 {
		return nil
	}

	g, err := model.NewPolygonsGeometry(polygons)
	if err != nil {
		return nil
	}

	return g
}
