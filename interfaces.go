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

package osmquest

import (
	"context"
	"time"

	"m4o.io/osmquest/model"
)

// QuestStore persists materialized quests.  Implementations must be safe for
// concurrent reads while a single writer calls Apply or Delete, and readers
// must only ever see committed state.
type QuestStore interface {
	Get(ctx context.Context, id model.QuestID) (model.Quest, bool, error)

	GetByKey(ctx context.Context, key model.QuestKey) (model.Quest, bool, error)

	GetAllForElement(ctx context.Context, elementType model.ElementType, id model.ID) ([]model.Quest, error)

	// GetAllInBBox returns the quests positioned within bbox, optionally
	// restricted to the given quest type names.
	GetAllInBBox(ctx context.Context, bbox model.BoundingBox, questTypes ...string) ([]model.Quest, error)

	// GetAllAt returns the quests positioned exactly at one of positions.
	GetAllAt(ctx context.Context, positions []model.LatLon) ([]model.Quest, error)

	Count(ctx context.Context, bbox model.BoundingBox) (int, error)

	// Apply deletes and adds quests in one transaction and returns the added
	// quests with their assigned ids.
	Apply(ctx context.Context, deleteIDs []model.QuestID, add []model.Quest) ([]model.Quest, error)

	Delete(ctx context.Context, id model.QuestID) (bool, error)
}

// SuppressionStore persists the quests a user chose to hide.
type SuppressionStore interface {
	// Add records key as hidden.  It reports false if it already was.
	Add(ctx context.Context, key model.QuestKey, at time.Time) (bool, error)

	Contains(ctx context.Context, key model.QuestKey) (bool, error)

	All(ctx context.Context) ([]model.SuppressionEntry, error)

	// Remove forgets key.  Removing a key that is not hidden does nothing.
	Remove(ctx context.Context, key model.QuestKey) error

	// DeleteAll removes every entry and returns how many there were.
	DeleteAll(ctx context.Context) (int, error)
}

// MapDataSource gives access to the current map data.
type MapDataSource interface {
	Element(key model.ElementKey) (model.Element, bool)

	Geometry(key model.ElementKey) (model.Geometry, bool)

	// MapDataWithGeometry returns all elements with a geometry intersecting
	// bbox.
	MapDataWithGeometry(bbox model.BoundingBox) model.MapData
}

// NotesSource gives access to the positions of open notes.
type NotesSource interface {
	Positions(ctx context.Context, bbox model.BoundingBox) ([]model.LatLon, error)
}

// Listener is told about every change to the set of quests.  It is called
// once per upstream event with a net change, after the change was committed.
// OnUpdated runs on the controller's inbox goroutine, so it must not call
// back into the controller's event methods (Hide, UnhideAll, OnMapDataUpdated,
// OnMapDataReplaced, OnNotesUpdated); such a call never returns.  Queries are
// fine.
type Listener interface {
	OnUpdated(added []model.Quest, deleted []model.QuestID)
}
