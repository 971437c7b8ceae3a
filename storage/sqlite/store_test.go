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

package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"m4o.io/osmquest/model"
	"m4o.io/osmquest/storage/sqlite"
)

func openTempStore(t *testing.T) *sqlite.Store {
	t.Helper()

	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "quests.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func quest(typeName string, et model.ElementType, id model.ID, lat, lon model.Degrees) model.Quest {
	return model.Quest{
		TypeName:    typeName,
		ElementType: et,
		ElementID:   id,
		Geometry:    model.NewPointGeometry(lat, lon),
	}
}

func ids(quests []model.Quest) []model.QuestID {
	out := make([]model.QuestID, len(quests))
	for i, q := range quests {
		out[i] = q.ID
	}

	return out
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := sqlite.Open(context.Background(), " ")
	assert.Error(t, err)
}

func TestReopenKeepsQuests(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "quests.db")

	store, err := sqlite.Open(ctx, path)
	require.NoError(t, err)

	_, err = store.Apply(ctx, nil, []model.Quest{quest("A", model.NODE, 1, 1, 1)})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = sqlite.Open(ctx, path)
	require.NoError(t, err)
	defer store.Close()

	n, err := store.Count(ctx, model.BoundingBox{Top: 2, Left: 0, Bottom: 0, Right: 2})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestApplyAssignsIDs(t *testing.T) {
	ctx := context.Background()
	store := openTempStore(t)

	added, err := store.Apply(ctx, nil, []model.Quest{
		quest("A", model.NODE, 1, 1, 1),
		quest("B", model.NODE, 1, 1, 1),
		quest("A", model.WAY, 2, 5, 5),
	})
	require.NoError(t, err)
	require.Len(t, added, 3)
	assert.Equal(t, []model.QuestID{1, 2, 3}, ids(added))

	got, ok, err := store.Get(ctx, 2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, added[1], got)

	_, ok, err = store.Get(ctx, 99)
	require.NoError(t, err)
	assert.False(t, ok)

	got, ok, err = store.GetByKey(ctx, model.QuestKey{ElementType: model.WAY, ElementID: 2, QuestTypeName: "A"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.QuestID(3), got.ID)

	// deleting and adding in one go never reuses ids
	added, err = store.Apply(ctx, []model.QuestID{3}, []model.Quest{quest("C", model.WAY, 2, 5, 5)})
	require.NoError(t, err)
	assert.Equal(t, []model.QuestID{4}, ids(added))

	forElement, err := store.GetAllForElement(ctx, model.WAY, 2)
	require.NoError(t, err)
	assert.Equal(t, []model.QuestID{4}, ids(forElement))
}

func TestApplyIsAtomic(t *testing.T) {
	ctx := context.Background()
	store := openTempStore(t)

	_, err := store.Apply(ctx, nil, []model.Quest{quest("A", model.NODE, 1, 1, 1)})
	require.NoError(t, err)

	// the duplicate key fails the whole batch, including the delete
	_, err = store.Apply(ctx, []model.QuestID{1}, []model.Quest{
		quest("B", model.NODE, 2, 1, 1),
		quest("B", model.NODE, 2, 1, 1),
	})
	require.Error(t, err)

	all, err := store.GetAllInBBox(ctx, model.BoundingBox{Top: 90, Left: -180, Bottom: -90, Right: 180})
	require.NoError(t, err)
	assert.Equal(t, []model.QuestID{1}, ids(all))
}

func TestGeometryRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTempStore(t)

	line, err := model.NewPolylinesGeometry([][]model.LatLon{{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 2}}})
	require.NoError(t, err)

	area, err := model.NewPolygonsGeometry([][]model.LatLon{{{Lat: 10, Lon: 10}, {Lat: 10, Lon: 12}, {Lat: 12, Lon: 12}, {Lat: 10, Lon: 10}}})
	require.NoError(t, err)

	added, err := store.Apply(ctx, nil, []model.Quest{
		{TypeName: "Line", ElementType: model.WAY, ElementID: 1, Geometry: line},
		{TypeName: "Area", ElementType: model.WAY, ElementID: 2, Geometry: area},
	})
	require.NoError(t, err)

	for _, q := range added {
		got, ok, err := store.Get(ctx, q.ID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, q.Geometry, got.Geometry)
	}
}

func TestSpatialQueries(t *testing.T) {
	ctx := context.Background()
	store := openTempStore(t)

	_, err := store.Apply(ctx, nil, []model.Quest{
		quest("A", model.NODE, 1, 1, 1),
		quest("B", model.NODE, 2, 1.5, 1.5),
		quest("A", model.NODE, 3, 3, 3),
		quest("C", model.NODE, 4, 1.5, 1.5),
	})
	require.NoError(t, err)

	bbox := model.BoundingBox{Top: 2, Left: 0, Bottom: 0, Right: 2}

	inside, err := store.GetAllInBBox(ctx, bbox)
	require.NoError(t, err)
	assert.Equal(t, []model.QuestID{1, 2, 4}, ids(inside))

	filtered, err := store.GetAllInBBox(ctx, bbox, "A", "C")
	require.NoError(t, err)
	assert.Equal(t, []model.QuestID{1, 4}, ids(filtered))

	n, err := store.Count(ctx, bbox)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	at, err := store.GetAllAt(ctx, []model.LatLon{{Lat: 1.5, Lon: 1.5}, {Lat: 3, Lon: 3}})
	require.NoError(t, err)
	assert.Equal(t, []model.QuestID{2, 3, 4}, ids(at))

	at, err = store.GetAllAt(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, at)
}

func TestGetAllAtManyPositions(t *testing.T) {
	ctx := context.Background()
	store := openTempStore(t)

	added, err := store.Apply(ctx, nil, []model.Quest{
		quest("A", model.NODE, 1, 0.001, 0.001),
		quest("A", model.NODE, 2, 0.5, 0.5),
		quest("B", model.NODE, 2, 0.5, 0.5),
		quest("A", model.NODE, 3, 1.999, 1.999),
	})
	require.NoError(t, err)

	// far more positions than bind variables allowed in one statement,
	// with repeats spread across several chunks
	positions := make([]model.LatLon, 0, 4002)
	for i := 1; i <= 2000; i++ {
		d := model.Degrees(i) / 1000
		positions = append(positions, model.LatLon{Lat: d, Lon: d}, model.LatLon{Lat: -d, Lon: d})
	}

	positions = append(positions, model.LatLon{Lat: 0.5, Lon: 0.5}, model.LatLon{Lat: 0.001, Lon: 0.001})

	at, err := store.GetAllAt(ctx, positions)
	require.NoError(t, err)
	assert.Equal(t, ids(added), ids(at))
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	store := openTempStore(t)

	_, err := store.Apply(ctx, nil, []model.Quest{quest("A", model.NODE, 1, 1, 1)})
	require.NoError(t, err)

	deleted, err := store.Delete(ctx, 1)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.Delete(ctx, 1)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestNotConfigured(t *testing.T) {
	var store *sqlite.Store

	_, _, err := store.Get(context.Background(), 1)
	assert.ErrorIs(t, err, sqlite.ErrNotConfigured)
	assert.NoError(t, store.Close())
}

func TestCanceledContext(t *testing.T) {
	store := openTempStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Count(ctx, model.BoundingBox{})
	assert.ErrorIs(t, err, context.Canceled)
}
