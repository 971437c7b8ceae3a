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

	"m4o.io/osmquest/mapdata"
	"m4o.io/osmquest/model"
	"m4o.io/osmquest/notes"
)

type mapDataListener struct {
	c *Controller
}

var _ mapdata.Listener = mapDataListener{}

func (l mapDataListener) OnUpdated(ctx context.Context, updated model.MapData, deleted []model.ElementKey) error {
	return l.c.OnMapDataUpdated(ctx, updated, deleted)
}

func (l mapDataListener) OnReplaced(ctx context.Context, bbox model.BoundingBox, data model.MapData) error {
	return l.c.OnMapDataReplaced(ctx, bbox, data)
}

// MapDataListener returns the controller as a listener of a mapdata.Source.
func (c *Controller) MapDataListener() mapdata.Listener {
	return mapDataListener{c: c}
}

type notesListener struct {
	c *Controller
}

var _ notes.Listener = notesListener{}

func (l notesListener) OnUpdated(ctx context.Context, added, updated, deleted []model.Note) error {
	return l.c.OnNotesUpdated(ctx, added, updated, deleted)
}

// NotesListener returns the controller as a listener of a notes.Source.
func (c *Controller) NotesListener() notes.Listener {
	return notesListener{c: c}
}
