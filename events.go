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
	"errors"
	"fmt"

	"m4o.io/osmquest/model"
)

const (
	eventMapDataUpdated  = "map_data_updated"
	eventMapDataReplaced = "map_data_replaced"
	eventNotesUpdated    = "notes_updated"
	eventHide            = "hide"
	eventUnhideAll       = "unhide_all"
)

// OnMapDataUpdated reconciles the quests of the updated and deleted elements.
// Updated elements without geometry are skipped and keep their quests.
func (c *Controller) OnMapDataUpdated(ctx context.Context, updated model.MapData, deleted []model.ElementKey) error {
	return c.submit(ctx, eventMapDataUpdated, func(ctx context.Context) error {
		return c.mapDataUpdated(ctx, updated, deleted)
	})
}

// OnMapDataReplaced reconciles every quest within bbox against data.  Stored
// quests within bbox that data does not produce are deleted.
func (c *Controller) OnMapDataReplaced(ctx context.Context, bbox model.BoundingBox, data model.MapData) error {
	return c.submit(ctx, eventMapDataReplaced, func(ctx context.Context) error {
		return c.mapDataReplaced(ctx, bbox, data)
	})
}

// OnNotesUpdated deletes the quests at the positions of the changed notes.
// They come back with the next map data event that covers them.
func (c *Controller) OnNotesUpdated(ctx context.Context, added, updated, deleted []model.Note) error {
	return c.submit(ctx, eventNotesUpdated, func(ctx context.Context) error {
		return c.notesUpdated(ctx, added, updated, deleted)
	})
}

// Hide hides the quest for good.  Hiding a hidden quest does nothing.
func (c *Controller) Hide(ctx context.Context, quest model.Quest) error {
	return c.submit(ctx, eventHide, func(ctx context.Context) error {
		return c.hide(ctx, quest.Key())
	})
}

// UnhideAll forgets every hidden quest and returns how many of them were
// materialized again.  Hidden quests that no longer apply are dropped.
func (c *Controller) UnhideAll(ctx context.Context) (int, error) {
	restored := make(chan int, 1)

	err := c.submit(ctx, eventUnhideAll, func(ctx context.Context) error {
		n, err := c.unhideAll(ctx)
		restored <- n

		return err
	})
	if err != nil {
		return 0, err
	}

	return <-restored, nil
}

func (c *Controller) mapDataUpdated(ctx context.Context, updated model.MapData, deleted []model.ElementKey) error {
	var deleteIDs []model.QuestID

	seen := make(map[model.QuestID]struct{})
	drop := func(id model.QuestID) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			deleteIDs = append(deleteIDs, id)
		}
	}

	for _, key := range deleted {
		stored, err := c.store.GetAllForElement(ctx, key.Type, key.ID)
		if err != nil {
			return fmt.Errorf("unable to read quests of %s: %w", key, err)
		}

		for _, q := range stored {
			drop(q.ID)
		}
	}

	type withGeometry struct {
		element  model.Element
		geometry model.Geometry
	}

	var (
		elements []withGeometry
		area     *model.BoundingBox
	)

	if updated != nil {
		for _, e := range updated.Elements() {
			g, ok := updated.Geometry(e.Key())
			if !ok || g == nil {
				continue
			}

			elements = append(elements, withGeometry{element: e, geometry: g})

			if area == nil {
				area = model.InitialBoundingBox()
			}

			area.ExpandWithBoundingBox(g.Bounds())
		}
	}

	in, err := c.inputs(ctx, area)
	if err != nil {
		return err
	}

	var add []model.Quest

	for _, eg := range elements {
		key := eg.element.Key()

		evaluated := c.evaluator.ForElement(eg.element, eg.geometry, c.surroundings(eg.geometry, updated), in)

		stored, err := c.store.GetAllForElement(ctx, key.Type, key.ID)
		if err != nil {
			return fmt.Errorf("unable to read quests of %s: %w", key, err)
		}

		toAdd, toDelete := diff(evaluated, stored)

		add = append(add, toAdd...)
		for _, id := range toDelete {
			drop(id)
		}
	}

	_, err = c.apply(ctx, eventMapDataUpdated, deleteIDs, add)

	return err
}

func (c *Controller) mapDataReplaced(ctx context.Context, bbox model.BoundingBox, data model.MapData) error {
	in, err := c.inputs(ctx, &bbox)
	if err != nil {
		return err
	}

	evaluated, err := c.evaluator.ForSnapshot(ctx, data, &bbox, in)
	if err != nil {
		return fmt.Errorf("unable to evaluate %s: %w", bbox, err)
	}

	stored, err := c.store.GetAllInBBox(ctx, bbox)
	if err != nil {
		return fmt.Errorf("unable to read quests in %s: %w", bbox, err)
	}

	toAdd, toDelete := diff(evaluated, stored)

	// quests of elements reaching into bbox may be positioned outside of it
	add := toAdd[:0]

	for _, q := range toAdd {
		_, exists, err := c.store.GetByKey(ctx, q.Key())
		if err != nil {
			return fmt.Errorf("unable to read quest %s: %w", q.Key(), err)
		}

		if !exists {
			add = append(add, q)
		}
	}

	_, err = c.apply(ctx, eventMapDataReplaced, toDelete, add)

	return err
}

func (c *Controller) notesUpdated(ctx context.Context, added, updated, deleted []model.Note) error {
	var positions []model.LatLon

	seen := make(map[model.LatLon]struct{})

	for _, notes := range [][]model.Note{added, updated, deleted} {
		for _, n := range notes {
			if _, ok := seen[n.Position]; !ok {
				seen[n.Position] = struct{}{}
				positions = append(positions, n.Position)
			}
		}
	}

	if len(positions) == 0 {
		return nil
	}

	stored, err := c.store.GetAllAt(ctx, positions)
	if err != nil {
		return fmt.Errorf("unable to read quests at note positions: %w", err)
	}

	deleteIDs := make([]model.QuestID, 0, len(stored))
	for _, q := range stored {
		deleteIDs = append(deleteIDs, q.ID)
	}

	_, err = c.apply(ctx, eventNotesUpdated, deleteIDs, nil)

	return err
}

func (c *Controller) hide(ctx context.Context, key model.QuestKey) error {
	added, err := c.hidden.Add(ctx, key, c.cfg.now())
	if err != nil {
		return err
	}

	id, err := c.deleteHidden(ctx, key)
	if err != nil {
		// a failed hide leaves the key as it was
		if added {
			if rerr := c.hidden.Remove(ctx, key); rerr != nil {
				err = errors.Join(err, rerr)
			}
		}

		return err
	}

	if id != 0 {
		questsDeleted.WithLabelValues(eventHide).Inc()
		c.notify(nil, []model.QuestID{id})
	}

	return nil
}

// deleteHidden deletes the stored quest for key and returns its id, or zero
// if none was stored.
func (c *Controller) deleteHidden(ctx context.Context, key model.QuestKey) (model.QuestID, error) {
	stored, ok, err := c.store.GetByKey(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("unable to read quest %s: %w", key, err)
	}

	if !ok {
		return 0, nil
	}

	deleted, err := c.store.Delete(ctx, stored.ID)
	if err != nil {
		return 0, fmt.Errorf("unable to delete quest %s: %w", key, err)
	}

	if !deleted {
		return 0, nil
	}

	return stored.ID, nil
}

func (c *Controller) unhideAll(ctx context.Context) (int, error) {
	entries, err := c.hidden.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("unable to read hidden quests: %w", err)
	}

	if _, err := c.hidden.DeleteAll(ctx); err != nil {
		return 0, fmt.Errorf("unable to clear hidden quests: %w", err)
	}

	n, err := c.restore(ctx, entries)
	if err != nil {
		// a failed unhide leaves every entry hidden
		for _, entry := range entries {
			if _, rerr := c.hidden.Add(ctx, entry.Key, entry.HiddenAt); rerr != nil {
				err = errors.Join(err, rerr)
			}
		}

		return 0, err
	}

	return n, nil
}

// restore materializes the entries that apply to the current map data.
func (c *Controller) restore(ctx context.Context, entries []model.SuppressionEntry) (int, error) {
	if len(entries) == 0 || c.mapData == nil {
		return 0, nil
	}

	type candidate struct {
		key      model.QuestKey
		element  model.Element
		geometry model.Geometry
	}

	var (
		candidates []candidate
		area       *model.BoundingBox
	)

	for _, entry := range entries {
		e, ok := c.mapData.Element(entry.Key.ElementKey())
		if !ok {
			continue
		}

		g, ok := c.mapData.Geometry(entry.Key.ElementKey())
		if !ok || g == nil {
			continue
		}

		candidates = append(candidates, candidate{key: entry.Key, element: e, geometry: g})

		if area == nil {
			area = model.InitialBoundingBox()
		}

		area.ExpandWithBoundingBox(g.Bounds())
	}

	in, err := c.inputs(ctx, area)
	if err != nil {
		return 0, err
	}

	var add []model.Quest

	for _, cand := range candidates {
		if !c.evaluator.Applies(cand.key, cand.element, cand.geometry, c.surroundings(cand.geometry, nil), in) {
			continue
		}

		_, exists, err := c.store.GetByKey(ctx, cand.key)
		if err != nil {
			return 0, fmt.Errorf("unable to read quest %s: %w", cand.key, err)
		}

		if exists {
			continue
		}

		add = append(add, model.Quest{
			TypeName:    cand.key.QuestTypeName,
			ElementType: cand.key.ElementType,
			ElementID:   cand.key.ElementID,
			Geometry:    cand.geometry,
		})
	}

	added, err := c.apply(ctx, eventUnhideAll, nil, add)
	if err != nil {
		return 0, err
	}

	return len(added), nil
}

// diff compares evaluated quests with stored ones by key.  It returns the
// evaluated quests that are not stored, and the ids of stored quests that were
// not evaluated, both in their original order.
func diff(evaluated, stored []model.Quest) ([]model.Quest, []model.QuestID) {
	storedKeys := make(map[model.QuestKey]struct{}, len(stored))
	for _, q := range stored {
		storedKeys[q.Key()] = struct{}{}
	}

	evaluatedKeys := make(map[model.QuestKey]struct{}, len(evaluated))

	var toAdd []model.Quest

	for _, q := range evaluated {
		k := q.Key()
		if _, dup := evaluatedKeys[k]; dup {
			continue
		}

		evaluatedKeys[k] = struct{}{}

		if _, ok := storedKeys[k]; !ok {
			toAdd = append(toAdd, q)
		}
	}

	var toDelete []model.QuestID

	for _, q := range stored {
		if _, ok := evaluatedKeys[q.Key()]; !ok {
			toDelete = append(toDelete, q.ID)
		}
	}

	return toAdd, toDelete
}
