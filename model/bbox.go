// Copyright 2017-25 the original author or authors.
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
	"fmt"
	"math"
	"strings"
)

const (
	MaxLat Degrees = 90.0
	MaxLon Degrees = 180.0
	MinLat Degrees = -90.0
	MinLon Degrees = -180.0
)

// BoundingBox is simply a bounding box.  Boxes never cross the antimeridian.
type BoundingBox struct {
	Top    Degrees `json:"top"`
	Left   Degrees `json:"left"`
	Bottom Degrees `json:"bottom"`
	Right  Degrees `json:"right"`
}

// InitialBoundingBox creates a BoundingBox that is meant to be expanded.
func InitialBoundingBox() *BoundingBox {
	return &BoundingBox{
		Top:    MinLat,
		Left:   MaxLon,
		Bottom: MaxLat,
		Right:  MinLon,
	}
}

// BoundingBoxAround returns the smallest bounding box containing all points.
func BoundingBoxAround(points ...LatLon) BoundingBox {
	bbox := InitialBoundingBox()
	for _, p := range points {
		bbox.ExpandWithLatLng(p.Lat, p.Lon)
	}

	return *bbox
}

// IsEmpty reports whether the box has not been expanded with any point.
func (b BoundingBox) IsEmpty() bool {
	return b.Bottom > b.Top || b.Left > b.Right
}

// EqualWithin checks if two bounding boxes are within a specific epsilon.
func (b BoundingBox) EqualWithin(o BoundingBox, eps Epsilon) bool {
	return b.Left.EqualWithin(o.Left, eps) &&
		b.Right.EqualWithin(o.Right, eps) &&
		b.Top.EqualWithin(o.Top, eps) &&
		b.Bottom.EqualWithin(o.Bottom, eps)
}

// Contains checks if the bounding box contains the lat lng point.  Edges are
// inclusive.
func (b BoundingBox) Contains(lat Degrees, lng Degrees) bool {
	return b.Left <= lng && lng <= b.Right && b.Bottom <= lat && lat <= b.Top
}

// ContainsLatLon is Contains for a LatLon.
func (b BoundingBox) ContainsLatLon(p LatLon) bool {
	return b.Contains(p.Lat, p.Lon)
}

// Intersects checks if the two boxes share at least one point.
func (b BoundingBox) Intersects(o BoundingBox) bool {
	if b.IsEmpty() || o.IsEmpty() {
		return false
	}

	return b.Left <= o.Right && o.Left <= b.Right && b.Bottom <= o.Top && o.Bottom <= b.Top
}

// Enlarged returns a copy of the box grown by meters on every side, clamped
// to valid coordinates.
func (b BoundingBox) Enlarged(meters float64) BoundingBox {
	if b.IsEmpty() || meters <= 0 {
		return b
	}

	dLat := FromAngle(MetersToAngle(meters))

	// longitude degrees shrink towards the poles; use the latitude closest to
	// a pole so the box is never too small
	maxAbsLat := math.Max(math.Abs(float64(b.Top)), math.Abs(float64(b.Bottom)))
	cosLat := math.Cos(Degrees(maxAbsLat).Angle().Radians())

	dLon := MaxLon
	if cosLat > 1e-9 {
		dLon = min(MaxLon, dLat/Degrees(cosLat))
	}

	return BoundingBox{
		Top:    min(MaxLat, b.Top+dLat),
		Left:   max(MinLon, b.Left-dLon),
		Bottom: max(MinLat, b.Bottom-dLat),
		Right:  min(MaxLon, b.Right+dLon),
	}
}

func (b *BoundingBox) ExpandWithLatLng(lat, lng Degrees) {
	if b.Top < lat {
		b.Top = lat
	}

	if b.Bottom > lat {
		b.Bottom = lat
	}

	if b.Left > lng {
		b.Left = lng
	}

	if b.Right < lng {
		b.Right = lng
	}
}

func (b *BoundingBox) ExpandWithBoundingBox(bbox BoundingBox) {
	if bbox.IsEmpty() {
		return
	}

	b.ExpandWithLatLng(bbox.Top, bbox.Left)
	b.ExpandWithLatLng(bbox.Bottom, bbox.Right)
}

// ParseBoundingBox parses "left,bottom,right,top", the order used by the OSM
// API.
func ParseBoundingBox(s string) (BoundingBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return BoundingBox{}, fmt.Errorf("invalid bounding box %q: expected left,bottom,right,top", s)
	}

	var values [4]Degrees

	for i, part := range parts {
		d, err := ParseDegrees(strings.TrimSpace(part))
		if err != nil {
			return BoundingBox{}, fmt.Errorf("invalid bounding box %q: %w", s, err)
		}

		values[i] = d
	}

	bbox := BoundingBox{Left: values[0], Bottom: values[1], Right: values[2], Top: values[3]}
	if bbox.IsEmpty() {
		return BoundingBox{}, fmt.Errorf("invalid bounding box %q: bottom/left exceed top/right", s)
	}

	return bbox, nil
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("[(%s, %s) (%s, %s)]",
		ftoa(float64(b.Top)), ftoa(float64(b.Left)),
		ftoa(float64(b.Bottom)), ftoa(float64(b.Right)))
}
