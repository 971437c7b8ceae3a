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

package osmquest_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"m4o.io/osmquest"
	"m4o.io/osmquest/countries"
	"m4o.io/osmquest/mapdata"
	"m4o.io/osmquest/model"
	"m4o.io/osmquest/notes"
	"m4o.io/osmquest/questtype"
	"m4o.io/osmquest/storage/badger"
	"m4o.io/osmquest/storage/sqlite"
)

var world = model.BoundingBox{Top: 90, Left: -180, Bottom: -90, Right: 180}

type update struct {
	added   []model.Quest
	deleted []model.QuestID
}

type recorder struct {
	mu      sync.Mutex
	updates []update
}

func (r *recorder) OnUpdated(added []model.Quest, deleted []model.QuestID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.updates = append(r.updates, update{added: added, deleted: deleted})
}

func (r *recorder) all() []update {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]update(nil), r.updates...)
}

type fixture struct {
	ctrl     *osmquest.Controller
	store    *sqlite.Store
	hidden   *badger.Store
	mapData  *mapdata.Source
	notes    *notes.Source
	listener *recorder
}

// defaultRegistry mirrors the quest types the controller scenarios are
// written against.
func defaultRegistry(t *testing.T) *questtype.Registry {
	t.Helper()

	registry, err := questtype.NewRegistry(
		questtype.Simple("Applicable", always, countries.AllCountries()),
		questtype.Simple("NotApplicable", never, countries.AllCountries()),
		questtype.Complex("ComplexNode42", onlyNode(42), countries.AllCountries()),
		questtype.Simple("NotInAnyCountry", always, countries.NoCountriesExcept()),
		questtype.Simple("Applicable2", always, countries.AllCountries()),
	)
	require.NoError(t, err)

	return registry
}

func newFixture(t *testing.T, registry *questtype.Registry, resolver *countries.Resolver, opts ...osmquest.Option) *fixture {
	t.Helper()

	ctx := context.Background()

	store, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "quests.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	hidden, err := badger.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = hidden.Close() })

	if resolver == nil {
		resolver = countries.Resolved(countries.NewBoxIndex())
	}

	f := &fixture{
		store:    store,
		hidden:   hidden,
		mapData:  mapdata.NewSource(),
		notes:    notes.NewSource(),
		listener: &recorder{},
	}

	ctrl, err := osmquest.New(registry, store, hidden, resolver, f.mapData, f.notes, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctrl.Close() })

	ctrl.AddListener(f.listener)
	f.ctrl = ctrl

	return f
}

// seed stores quests directly and returns them with their ids.
func (f *fixture) seed(t *testing.T, quests ...model.Quest) []model.Quest {
	t.Helper()

	added, err := f.store.Apply(context.Background(), nil, quests)
	require.NoError(t, err)

	return added
}

func (f *fixture) stored(t *testing.T) []model.QuestKey {
	t.Helper()

	all, err := f.ctrl.GetAllInBBox(context.Background(), world)
	require.NoError(t, err)

	return keysOf(all)
}

func quest(typeName string, et model.ElementType, id model.ID, g model.Geometry) model.Quest {
	return model.Quest{TypeName: typeName, ElementType: et, ElementID: id, Geometry: g}
}

func idsOf(quests []model.Quest) []model.QuestID {
	ids := make([]model.QuestID, len(quests))
	for i, q := range quests {
		ids[i] = q.ID
	}

	return ids
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := osmquest.New(nil, nil, nil, nil, nil, nil)
	assert.Error(t, err)
}

func TestQueries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, defaultRegistry(t), nil)

	seeded := f.seed(t,
		quest("Applicable", model.NODE, 1, point(0.5, 0.5)),
		quest("Applicable2", model.NODE, 1, point(0.5, 0.5)),
		quest("Applicable", model.NODE, 2, point(5, 5)),
	)

	bbox := model.BoundingBox{Top: 1, Left: 0, Bottom: 0, Right: 1}

	n, err := f.ctrl.Count(ctx, bbox)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, ok, err := f.ctrl.Get(ctx, seeded[2].ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, seeded[2], got)

	visible, err := f.ctrl.GetAllVisible(ctx, bbox)
	require.NoError(t, err)
	assert.ElementsMatch(t, seeded[:2], visible)

	visible, err = f.ctrl.GetAllVisible(ctx, bbox, "Applicable2")
	require.NoError(t, err)
	assert.Equal(t, seeded[1:2], visible)

	forElement, err := f.ctrl.GetAllForElement(ctx, model.NODE, 1)
	require.NoError(t, err)
	assert.Equal(t, idsOf(seeded[:2]), idsOf(forElement))
}

func TestHide(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, defaultRegistry(t), nil)

	q := f.seed(t, quest("Applicable", model.NODE, 1, point(1, 1)))[0]

	require.NoError(t, f.ctrl.Hide(ctx, q))

	hidden, err := f.hidden.Contains(ctx, q.Key())
	require.NoError(t, err)
	assert.True(t, hidden)
	assert.Empty(t, f.stored(t))
	assert.Equal(t, []update{{deleted: []model.QuestID{q.ID}}}, f.listener.all())

	// hiding again is a no-op
	require.NoError(t, f.ctrl.Hide(ctx, q))
	assert.Len(t, f.listener.all(), 1)

	// and the quest does not come back with new map data
	data := mapdata.NewSnapshot().Put(node(1, 1, 1), point(1, 1))
	require.NoError(t, f.ctrl.OnMapDataReplaced(ctx, world, data))
	require.NoError(t, f.ctrl.OnMapDataUpdated(ctx, data, nil))

	assert.NotContains(t, f.stored(t), q.Key())
	assert.Contains(t, f.stored(t), questKey(model.NODE, 1, "Applicable2"))
}

func TestHideUnstoredQuest(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, defaultRegistry(t), nil)

	require.NoError(t, f.ctrl.Hide(ctx, quest("Applicable", model.NODE, 1, point(1, 1))))

	assert.Empty(t, f.listener.all())

	entries, err := f.hidden.All(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestHideTimestamp(t *testing.T) {
	ctx := context.Background()
	at := time.UnixMilli(1_600_000_000_000)
	f := newFixture(t, defaultRegistry(t), nil, osmquest.WithClock(func() time.Time { return at }))

	require.NoError(t, f.ctrl.Hide(ctx, quest("Applicable", model.NODE, 1, point(1, 1))))

	entries, err := f.hidden.All(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, at.Equal(entries[0].HiddenAt))
}

func TestUnhideAll(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, defaultRegistry(t), nil)

	require.NoError(t, f.mapData.Put(ctx,
		node(1, 1, 1),
		&model.Way{ID: 2, NodeIDs: []model.ID{98, 99}},
		node(4, 2, 2),
		node(42, 1, 1),
	))
	require.NoError(t, f.notes.Put(ctx, model.Note{ID: 1, Position: model.LatLon{Lat: 2, Lon: 2}}))

	for _, key := range []model.QuestKey{
		// applicable
		questKey(model.NODE, 1, "Applicable"),
		questKey(model.NODE, 42, "ComplexNode42"),

		// complex type not applicable to the element
		questKey(model.NODE, 1, "ComplexNode42"),
		questKey(model.NODE, 1, "NotApplicable"),
		questKey(model.NODE, 1, "invalid"),
		// no geometry
		questKey(model.WAY, 2, "Applicable"),
		// no element
		questKey(model.NODE, 3, "Applicable"),
		// at a note
		questKey(model.NODE, 4, "Applicable"),
		// disabled in every country
		questKey(model.NODE, 1, "NotInAnyCountry"),
	} {
		_, err := f.hidden.Add(ctx, key, time.Now())
		require.NoError(t, err)
	}

	restored, err := f.ctrl.UnhideAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, restored)

	expected := []model.QuestKey{
		questKey(model.NODE, 1, "Applicable"),
		questKey(model.NODE, 42, "ComplexNode42"),
	}

	assert.ElementsMatch(t, expected, f.stored(t))

	updates := f.listener.all()
	require.Len(t, updates, 1)
	assert.ElementsMatch(t, expected, keysOf(updates[0].added))
	assert.Empty(t, updates[0].deleted)

	for _, q := range updates[0].added {
		assert.NotZero(t, q.ID)
	}

	entries, err := f.hidden.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUnhideAllDropsStaleEntries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, defaultRegistry(t), nil)

	require.NoError(t, f.mapData.Put(ctx, node(1, 1, 1)))

	for _, key := range []model.QuestKey{
		questKey(model.NODE, 1, "Applicable"),
		questKey(model.NODE, 3, "Applicable"),
	} {
		_, err := f.hidden.Add(ctx, key, time.Now())
		require.NoError(t, err)
	}

	restored, err := f.ctrl.UnhideAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, restored)
	assert.Equal(t, []model.QuestKey{questKey(model.NODE, 1, "Applicable")}, f.stored(t))

	restored, err = f.ctrl.UnhideAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, restored)
	assert.Len(t, f.listener.all(), 1)
}

func TestUnhideAllCallerGivesUp(t *testing.T) {
	release := make(chan struct{})
	resolver := countries.NewResolver(context.Background(), func(context.Context) (countries.Index, error) {
		<-release

		return countries.NewBoxIndex(), nil
	})

	f := newFixture(t, defaultRegistry(t), resolver)

	require.NoError(t, f.mapData.Put(context.Background(), node(1, 1, 1)))

	_, err := f.hidden.Add(context.Background(), questKey(model.NODE, 1, "Applicable"), time.Now())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	restored, err := f.ctrl.UnhideAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, restored)

	close(release)

	// the unhide still runs to completion before the next event
	require.NoError(t, f.ctrl.OnNotesUpdated(context.Background(), nil, nil, nil))
	assert.Equal(t, []model.QuestKey{questKey(model.NODE, 1, "Applicable")}, f.stored(t))
}

func TestNotesUpdated(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, defaultRegistry(t), nil)
	f.notes.AddListener(f.ctrl.NotesListener())

	seeded := f.seed(t,
		quest("Applicable", model.NODE, 1, point(1, 0)),
		quest("Applicable", model.NODE, 2, point(0.5, 0.5)),
		quest("Applicable", model.NODE, 3, point(3, 3)),
	)

	require.NoError(t, f.notes.Put(ctx,
		model.Note{ID: 1, Position: model.LatLon{Lat: 1, Lon: 0}},
		model.Note{ID: 2, Position: model.LatLon{Lat: 0.5, Lon: 0.5}},
	))

	updates := f.listener.all()
	require.Len(t, updates, 1)
	assert.Empty(t, updates[0].added)
	assert.ElementsMatch(t, idsOf(seeded[:2]), updates[0].deleted)
	assert.Equal(t, []model.QuestKey{seeded[2].Key()}, f.stored(t))

	// nothing left at the notes, so closing them changes nothing
	require.NoError(t, f.notes.Put(ctx, model.Note{ID: 1, Position: model.LatLon{Lat: 1, Lon: 0}, Closed: true}))
	assert.Len(t, f.listener.all(), 1)
}

func TestMapDataDeleted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, defaultRegistry(t), nil)

	seeded := f.seed(t,
		quest("Applicable", model.NODE, 1, point(1, 1)),
		quest("ComplexNode42", model.NODE, 1, point(1, 1)),
		quest("Applicable", model.NODE, 2, point(2, 2)),
		quest("Applicable", model.NODE, 5, point(5, 5)),
	)

	deleted := []model.ElementKey{{Type: model.NODE, ID: 1}, {Type: model.NODE, ID: 2}}
	require.NoError(t, f.ctrl.OnMapDataUpdated(ctx, mapdata.NewSnapshot(), deleted))

	updates := f.listener.all()
	require.Len(t, updates, 1)
	assert.Empty(t, updates[0].added)
	assert.ElementsMatch(t, idsOf(seeded[:3]), updates[0].deleted)
	assert.Equal(t, []model.QuestKey{seeded[3].Key()}, f.stored(t))
}

func TestMapDataUpdated(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, defaultRegistry(t), nil)

	require.NoError(t, f.mapData.Put(ctx, node(1, 1, 1)))

	seeded := f.seed(t,
		quest("Applicable", model.NODE, 1, point(1, 1)),
		quest("NotApplicable", model.NODE, 1, point(1, 1)),
		quest("Applicable", model.NODE, 2, point(1, 2)),
	)

	updated := mapdata.NewSnapshot().
		Put(node(1, 1, 1), point(1, 1)).
		Put(node(2, 1, 2), nil)

	require.NoError(t, f.ctrl.OnMapDataUpdated(ctx, updated, nil))

	updates := f.listener.all()
	require.Len(t, updates, 1)
	assert.Equal(t, []model.QuestID{seeded[1].ID}, updates[0].deleted)
	require.Len(t, updates[0].added, 1)
	assert.Equal(t, questKey(model.NODE, 1, "Applicable2"), updates[0].added[0].Key())
	assert.Greater(t, updates[0].added[0].ID, seeded[2].ID)

	// node 2 had no geometry, its quest is left alone
	assert.Contains(t, f.stored(t), seeded[2].Key())
}

func TestMapDataUpdatedStoredDiff(t *testing.T) {
	ctx := context.Background()

	registry, err := questtype.NewRegistry(
		questtype.Simple("A", always, countries.AllCountries()),
		questtype.Simple("B", never, countries.AllCountries()),
	)
	require.NoError(t, err)

	f := newFixture(t, registry, nil)

	seeded := f.seed(t,
		quest("A", model.NODE, 1, point(1, 1)),
		quest("B", model.NODE, 1, point(1, 1)),
	)

	updated := mapdata.NewSnapshot().Put(node(1, 1, 1), point(1, 1))
	require.NoError(t, f.ctrl.OnMapDataUpdated(ctx, updated, nil))

	assert.Equal(t, []update{{deleted: []model.QuestID{seeded[1].ID}}}, f.listener.all())

	// nothing changes the second time around
	require.NoError(t, f.ctrl.OnMapDataUpdated(ctx, updated, nil))
	assert.Len(t, f.listener.all(), 1)
}

func TestMapDataReplaced(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, defaultRegistry(t), nil)

	seeded := f.seed(t,
		quest("Applicable", model.NODE, 1, point(1, 1)),
		quest("NotApplicable", model.NODE, 1, point(1, 1)),
		// vanished from the new data
		quest("Applicable", model.NODE, 9, point(2.5, 2.5)),
		// outside of bbox
		quest("Applicable", model.NODE, 10, point(10, 10)),
	)

	require.NoError(t, f.notes.Put(ctx, model.Note{ID: 1, Position: model.LatLon{Lat: 2, Lon: 2}}))

	_, err := f.hidden.Add(ctx, questKey(model.NODE, 3, "Applicable2"), time.Now())
	require.NoError(t, err)

	data := mapdata.NewSnapshot().
		Put(node(1, 1, 1), point(1, 1)).
		Put(node(2, 1, 1), nil).
		Put(node(3, 1, 1), point(1, 1)).
		Put(node(4, 2, 2), point(2, 2))

	bbox := model.BoundingBox{Top: 3, Left: 0, Bottom: 0, Right: 3}
	require.NoError(t, f.ctrl.OnMapDataReplaced(ctx, bbox, data))

	updates := f.listener.all()
	require.Len(t, updates, 1)
	assert.Equal(t, []model.QuestKey{
		questKey(model.NODE, 1, "Applicable2"),
		questKey(model.NODE, 3, "Applicable"),
	}, keysOf(updates[0].added))
	assert.ElementsMatch(t, []model.QuestID{seeded[1].ID, seeded[2].ID}, updates[0].deleted)

	assert.ElementsMatch(t, []model.QuestKey{
		questKey(model.NODE, 1, "Applicable"),
		questKey(model.NODE, 1, "Applicable2"),
		questKey(model.NODE, 3, "Applicable"),
		questKey(model.NODE, 10, "Applicable"),
	}, f.stored(t))

	// replacing with the same data again is a no-op
	require.NoError(t, f.ctrl.OnMapDataReplaced(ctx, bbox, data))
	assert.Len(t, f.listener.all(), 1)
}

func TestMapDataListener(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, defaultRegistry(t), nil)
	f.mapData.AddListener(f.ctrl.MapDataListener())

	require.NoError(t, f.mapData.Put(ctx, node(42, 1, 1)))
	assert.Equal(t, []model.QuestKey{
		questKey(model.NODE, 42, "Applicable"),
		questKey(model.NODE, 42, "ComplexNode42"),
		questKey(model.NODE, 42, "Applicable2"),
	}, f.stored(t))

	require.NoError(t, f.mapData.Delete(ctx, model.ElementKey{Type: model.NODE, ID: 42}))
	assert.Empty(t, f.stored(t))

	updates := f.listener.all()
	require.Len(t, updates, 2)
	assert.Len(t, updates[1].deleted, 3)

	f.mapData.RemoveListener(f.ctrl.MapDataListener())
	require.NoError(t, f.mapData.Put(ctx, node(1, 1, 1)))
	assert.Empty(t, f.stored(t))
}

func TestCountriesUnavailable(t *testing.T) {
	ctx := context.Background()

	registry, err := questtype.NewRegistry(
		questtype.Simple("Everywhere", always, countries.AllCountries()),
		questtype.Simple("NotInDE", always, countries.AllCountriesExcept("DE")),
	)
	require.NoError(t, err)

	resolver := countries.NewResolver(ctx, func(context.Context) (countries.Index, error) {
		return nil, errors.New("boundaries missing")
	})

	f := newFixture(t, registry, resolver)

	data := mapdata.NewSnapshot().Put(node(1, 1, 1), point(1, 1))
	require.NoError(t, f.ctrl.OnMapDataReplaced(ctx, world, data))

	assert.Equal(t, []model.QuestKey{questKey(model.NODE, 1, "Everywhere")}, f.stored(t))
}

func TestEventsWaitForCountries(t *testing.T) {
	release := make(chan struct{})
	resolver := countries.NewResolver(context.Background(), func(context.Context) (countries.Index, error) {
		<-release

		return countries.NewBoxIndex(), nil
	})

	f := newFixture(t, defaultRegistry(t), resolver)

	data := mapdata.NewSnapshot().Put(node(1, 1, 1), point(1, 1))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := f.ctrl.OnMapDataReplaced(ctx, world, data)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)

	// events are applied in order, so the first one is done once this returns
	require.NoError(t, f.ctrl.OnNotesUpdated(context.Background(), nil, nil, nil))
	assert.Len(t, f.stored(t), 2)
}

type failingStore struct {
	osmquest.QuestStore
}

func (failingStore) Apply(context.Context, []model.QuestID, []model.Quest) ([]model.Quest, error) {
	return nil, errors.New("disk full")
}

func TestStoreFailureAbortsEvent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, defaultRegistry(t), nil)

	ctrl, err := osmquest.New(defaultRegistry(t), failingStore{f.store}, f.hidden,
		countries.Resolved(countries.NewBoxIndex()), f.mapData, f.notes)
	require.NoError(t, err)
	defer ctrl.Close()

	listener := &recorder{}
	ctrl.AddListener(listener)

	data := mapdata.NewSnapshot().Put(node(1, 1, 1), point(1, 1))
	err = ctrl.OnMapDataReplaced(ctx, world, data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	assert.Empty(t, listener.all())
	assert.Empty(t, f.stored(t))
}

type deleteFailingStore struct {
	osmquest.QuestStore
}

func (deleteFailingStore) Delete(context.Context, model.QuestID) (bool, error) {
	return false, errors.New("disk full")
}

func TestHideStoreFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, defaultRegistry(t), nil)

	q := f.seed(t, quest("Applicable", model.NODE, 1, point(1, 1)))[0]

	ctrl, err := osmquest.New(defaultRegistry(t), deleteFailingStore{f.store}, f.hidden,
		countries.Resolved(countries.NewBoxIndex()), f.mapData, f.notes)
	require.NoError(t, err)
	defer ctrl.Close()

	err = ctrl.Hide(ctx, q)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	hidden, err := f.hidden.Contains(ctx, q.Key())
	require.NoError(t, err)
	assert.False(t, hidden)
	assert.Equal(t, []model.QuestKey{q.Key()}, f.stored(t))
}

func TestUnhideAllStoreFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, defaultRegistry(t), nil)

	require.NoError(t, f.mapData.Put(ctx, node(1, 1, 1)))

	at := time.UnixMilli(1_700_000_000_000)
	key := questKey(model.NODE, 1, "Applicable")

	_, err := f.hidden.Add(ctx, key, at)
	require.NoError(t, err)

	ctrl, err := osmquest.New(defaultRegistry(t), failingStore{f.store}, f.hidden,
		countries.Resolved(countries.NewBoxIndex()), f.mapData, f.notes)
	require.NoError(t, err)
	defer ctrl.Close()

	restored, err := ctrl.UnhideAll(ctx)
	require.Error(t, err)
	assert.Zero(t, restored)

	entries, err := f.hidden.All(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, key, entries[0].Key)
	assert.True(t, at.Equal(entries[0].HiddenAt))
	assert.Empty(t, f.stored(t))
}

func TestConcurrentEvents(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, defaultRegistry(t), nil, osmquest.WithWorkers(2), osmquest.WithInboxSize(1))

	var wg sync.WaitGroup

	for i := 1; i <= 20; i++ {
		wg.Add(1)

		go func(id model.ID) {
			defer wg.Done()

			data := mapdata.NewSnapshot().Put(node(id, 1, model.Degrees(id)), point(1, model.Degrees(id)))
			assert.NoError(t, f.ctrl.OnMapDataUpdated(ctx, data, nil))
			assert.NoError(t, f.ctrl.OnMapDataUpdated(ctx, data, nil))
		}(model.ID(i))
	}

	wg.Wait()

	assert.Len(t, f.stored(t), 40)
	assert.Len(t, f.listener.all(), 20)
}

func TestClosed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, defaultRegistry(t), nil)

	require.NoError(t, f.ctrl.Close())
	require.NoError(t, f.ctrl.Close())

	assert.ErrorIs(t, f.ctrl.OnNotesUpdated(ctx, nil, nil, nil), osmquest.ErrClosed)

	_, err := f.ctrl.UnhideAll(ctx)
	assert.ErrorIs(t, err, osmquest.ErrClosed)
}

func TestRemoveListener(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, defaultRegistry(t), nil)

	f.ctrl.RemoveListener(f.listener)

	data := mapdata.NewSnapshot().Put(node(1, 1, 1), point(1, 1))
	require.NoError(t, f.ctrl.OnMapDataUpdated(ctx, data, nil))

	assert.Empty(t, f.listener.all())
	assert.Len(t, f.stored(t), 2)
}
