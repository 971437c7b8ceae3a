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

package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"m4o.io/osmquest/model"
)

var london = model.BoundingBox{Top: 51.69344, Left: -0.511482, Bottom: 51.28554, Right: 0.335437}

func TestInitialBoundingBox(t *testing.T) {
	initial := model.InitialBoundingBox()
	assert.True(t, initial.IsEmpty())
	assert.False(t, initial.Intersects(london))
}

func TestBoundingBox_Contains(t *testing.T) {
	test_cases := []struct {
		name     string
		lat      model.Degrees
		lng      model.Degrees
		expected bool
	}{
		{"bottom/left", london.Bottom, london.Left, true},
		{"top/right", london.Top, london.Right, true},
		{"bottom/left-E5", london.Bottom, london.Left - model.Degrees(model.E5), false},
		{"top+E5/right", london.Top + model.Degrees(model.E5), london.Right, false},
		{"inside", 51.5, 0, true},
	}

	for _, tc := range test_cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, london.Contains(tc.lat, tc.lng))
		})
	}
}

func TestBoundingBox_Intersects(t *testing.T) {
	test_cases := []struct {
		name     string
		other    model.BoundingBox
		expected bool
	}{
		{"same", london, true},
		{"inside", model.BoundingBox{Top: 51.5, Left: 0, Bottom: 51.4, Right: 0.1}, true},
		{"touching corner", model.BoundingBox{Top: 51.28554, Left: 0.335437, Bottom: 51, Right: 1}, true},
		{"east", model.BoundingBox{Top: 51.6, Left: 1, Bottom: 51.4, Right: 2}, false},
		{"point inside", model.BoundingBoxAround(model.LatLon{Lat: 51.5, Lon: 0}), true},
	}

	for _, tc := range test_cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, london.Intersects(tc.other))
			assert.Equal(t, tc.expected, tc.other.Intersects(london))
		})
	}
}

func TestBoundingBox_Enlarged(t *testing.T) {
	bbox := model.BoundingBoxAround(model.LatLon{Lat: 0, Lon: 0})
	enlarged := bbox.Enlarged(1000)

	// one kilometer is roughly 0.009 degrees at the equator
	assert.InDelta(t, 0.009, float64(enlarged.Top), 0.0001)
	assert.InDelta(t, -0.009, float64(enlarged.Bottom), 0.0001)
	assert.InDelta(t, 0.009, float64(enlarged.Right), 0.0001)
	assert.InDelta(t, -0.009, float64(enlarged.Left), 0.0001)

	polar := model.BoundingBoxAround(model.LatLon{Lat: 89.9999, Lon: 179.9999}).Enlarged(1000)
	assert.Equal(t, model.MaxLat, polar.Top)
	assert.Equal(t, model.MaxLon, polar.Right)

	assert.Equal(t, london, london.Enlarged(0))
}

func TestBoundingBox_ExpandWithBoundingBox(t *testing.T) {
	bbox := model.InitialBoundingBox()
	bbox.ExpandWithBoundingBox(model.BoundingBox{Top: 45.0, Left: 70.0, Bottom: 20.0, Right: 90.0})
	bbox.ExpandWithBoundingBox(*model.InitialBoundingBox())
	bbox.ExpandWithBoundingBox(model.BoundingBox{Top: -25.0, Left: -90.0, Bottom: -45.0, Right: -70.0})

	assert.True(t, bbox.Contains(-45, 90))
	assert.True(t, bbox.Contains(45, -90))
	assert.False(t, bbox.IsEmpty())
}

func TestParseBoundingBox(t *testing.T) {
	bbox, err := model.ParseBoundingBox("-0.511482, 51.28554, 0.335437, 51.69344")
	require.NoError(t, err)
	assert.True(t, bbox.EqualWithin(london, model.E9))

	_, err = model.ParseBoundingBox("1,2,3")
	assert.Error(t, err)

	_, err = model.ParseBoundingBox("1,2,x,4")
	assert.Error(t, err)

	_, err = model.ParseBoundingBox("1,2,0,1")
	assert.Error(t, err)
}

func TestBoundingBoxString(t *testing.T) {
	assert.Equal(t, "[(51.69344, -0.511482) (51.28554, 0.335437)]", london.String())
}
