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

package model

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

var ErrEmptyGeometry = errors.New("geometry has no coordinates")

// LatLon is a position on the earth's surface.  Two LatLons are the same
// position only if they are exactly equal.
type LatLon struct {
	Lat Degrees
	Lon Degrees
}

func (p LatLon) latLng() s2.LatLng {
	return s2.LatLngFromDegrees(float64(p.Lat), float64(p.Lon))
}

func fromLatLng(ll s2.LatLng) LatLon {
	return LatLon{Lat: Degrees(ll.Lat.Degrees()), Lon: Degrees(ll.Lng.Degrees())}
}

// DistanceTo returns the great circle distance to o in meters.
func (p LatLon) DistanceTo(o LatLon) float64 {
	return p.latLng().Distance(o.latLng()).Radians() * EarthRadiusMeters
}

func (p LatLon) String() string {
	return fmt.Sprintf("(%s, %s)", ftoa(float64(p.Lat)), ftoa(float64(p.Lon)))
}

// Geometry is the materialized shape of an element.  Center is the
// representative point a quest is placed at.
type Geometry interface {
	isGeometry() // prevents extensions

	Center() LatLon

	Bounds() BoundingBox
}

// PointGeometry is the geometry of a node.
type PointGeometry struct {
	Point LatLon
}

var _ Geometry = PointGeometry{}

// NewPointGeometry creates the geometry of a node at lat, lon.
func NewPointGeometry(lat, lon Degrees) PointGeometry {
	return PointGeometry{Point: LatLon{Lat: lat, Lon: lon}}
}

func (g PointGeometry) isGeometry() {}

func (g PointGeometry) Center() LatLon { return g.Point }

func (g PointGeometry) Bounds() BoundingBox { return BoundingBoxAround(g.Point) }

// PolylinesGeometry is the geometry of an open way.
type PolylinesGeometry struct {
	Polylines [][]LatLon

	center LatLon
	bounds BoundingBox
}

var _ Geometry = PolylinesGeometry{}

// NewPolylinesGeometry creates a line geometry.  The center is the point
// halfway along the first polyline.
func NewPolylinesGeometry(polylines [][]LatLon) (PolylinesGeometry, error) {
	if len(polylines) == 0 || len(polylines[0]) == 0 {
		return PolylinesGeometry{}, ErrEmptyGeometry
	}

	return PolylinesGeometry{
		Polylines: polylines,
		center:    halfwayAlong(polylines[0]),
		bounds:    boundsOf(polylines),
	}, nil
}

func (g PolylinesGeometry) isGeometry() {}

func (g PolylinesGeometry) Center() LatLon { return g.center }

func (g PolylinesGeometry) Bounds() BoundingBox { return g.bounds }

// PolygonsGeometry is the geometry of an area: a closed way or a
// multipolygon relation.
type PolygonsGeometry struct {
	Polygons [][]LatLon

	center LatLon
	bounds BoundingBox
}

var _ Geometry = PolygonsGeometry{}

// NewPolygonsGeometry creates an area geometry.  The center is the center of
// the bounding rectangle of the first polygon.
func NewPolygonsGeometry(polygons [][]LatLon) (PolygonsGeometry, error) {
	if len(polygons) == 0 || len(polygons[0]) == 0 {
		return PolygonsGeometry{}, ErrEmptyGeometry
	}

	rect := s2.EmptyRect()
	for _, p := range polygons[0] {
		rect = rect.AddPoint(p.latLng())
	}

	return PolygonsGeometry{
		Polygons: polygons,
		center:   fromLatLng(rect.Center()),
		bounds:   boundsOf(polygons),
	}, nil
}

func (g PolygonsGeometry) isGeometry() {}

func (g PolygonsGeometry) Center() LatLon { return g.center }

func (g PolygonsGeometry) Bounds() BoundingBox { return g.bounds }

func boundsOf(rings [][]LatLon) BoundingBox {
	bbox := InitialBoundingBox()
	for _, ring := range rings {
		for _, p := range ring {
			bbox.ExpandWithLatLng(p.Lat, p.Lon)
		}
	}

	return *bbox
}

func halfwayAlong(line []LatLon) LatLon {
	if len(line) == 1 {
		return line[0]
	}

	var total s1.Angle
	for i := 1; i < len(line); i++ {
		total += line[i-1].latLng().Distance(line[i].latLng())
	}

	half := total / 2

	var walked s1.Angle
	for i := 1; i < len(line); i++ {
		segment := line[i-1].latLng().Distance(line[i].latLng())
		if walked+segment >= half {
			if segment == 0 {
				return line[i-1]
			}

			t := float64((half - walked) / segment)
			a := s2.PointFromLatLng(line[i-1].latLng())
			b := s2.PointFromLatLng(line[i].latLng())

			return fromLatLng(s2.LatLngFromPoint(s2.Interpolate(t, a, b)))
		}

		walked += segment
	}

	return line[len(line)-1]
}

const (
	pointKind     = "point"
	polylinesKind = "polylines"
	polygonsKind  = "polygons"
)

type geometryJSON struct {
	Kind   string         `json:"kind"`
	Coords [][][2]float64 `json:"coords"`
}

func toCoords(rings [][]LatLon) [][][2]float64 {
	coords := make([][][2]float64, len(rings))
	for i, ring := range rings {
		coords[i] = make([][2]float64, len(ring))
		for j, p := range ring {
			coords[i][j] = [2]float64{float64(p.Lat), float64(p.Lon)}
		}
	}

	return coords
}

func fromCoords(coords [][][2]float64) [][]LatLon {
	rings := make([][]LatLon, len(coords))
	for i, ring := range coords {
		rings[i] = make([]LatLon, len(ring))
		for j, c := range ring {
			rings[i][j] = LatLon{Lat: Degrees(c[0]), Lon: Degrees(c[1])}
		}
	}

	return rings
}

// MarshalGeometry encodes a geometry as JSON.
func MarshalGeometry(g Geometry) ([]byte, error) {
	var gj geometryJSON

	switch g := g.(type) {
	case PointGeometry:
		gj = geometryJSON{Kind: pointKind, Coords: toCoords([][]LatLon{{g.Point}})}
	case PolylinesGeometry:
		gj = geometryJSON{Kind: polylinesKind, Coords: toCoords(g.Polylines)}
	case PolygonsGeometry:
		gj = geometryJSON{Kind: polygonsKind, Coords: toCoords(g.Polygons)}
	default:
		return nil, fmt.Errorf("unsupported geometry %T", g)
	}

	return json.Marshal(gj)
}

// UnmarshalGeometry decodes a geometry encoded by MarshalGeometry.
func UnmarshalGeometry(b []byte) (Geometry, error) {
	var gj geometryJSON
	if err := json.Unmarshal(b, &gj); err != nil {
		return nil, fmt.Errorf("unable to unmarshal geometry: %w", err)
	}

	rings := fromCoords(gj.Coords)

	switch gj.Kind {
	case pointKind:
		if len(rings) != 1 || len(rings[0]) != 1 {
			return nil, fmt.Errorf("point geometry must have exactly one coordinate")
		}

		return PointGeometry{Point: rings[0][0]}, nil
	case polylinesKind:
		return NewPolylinesGeometry(rings)
	case polygonsKind:
		return NewPolygonsGeometry(rings)
	default:
		return nil, fmt.Errorf("unknown geometry kind %q", gj.Kind)
	}
}
