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

	"m4o.io/osmquest/model"
)

// Get returns the quest with the given id.
func (c *Controller) Get(ctx context.Context, id model.QuestID) (model.Quest, bool, error) {
	return c.store.Get(ctx, id)
}

// Count returns the number of quests within bbox.
func (c *Controller) Count(ctx context.Context, bbox model.BoundingBox) (int, error) {
	return c.store.Count(ctx, bbox)
}

// GetAllVisible returns the quests within bbox, restricted to questTypes
// when any are given.
func (c *Controller) GetAllVisible(ctx context.Context, bbox model.BoundingBox, questTypes ...string) ([]model.Quest, error) {
	return c.store.GetAllInBBox(ctx, bbox, questTypes...)
}

// GetAllForElement returns the quests of one element.
func (c *Controller) GetAllForElement(ctx context.Context, elementType model.ElementType, id model.ID) ([]model.Quest, error) {
	return c.store.GetAllForElement(ctx, elementType, id)
}

// GetAllInBBox returns every quest within bbox.
func (c *Controller) GetAllInBBox(ctx context.Context, bbox model.BoundingBox) ([]model.Quest, error) {
	return c.store.GetAllInBBox(ctx, bbox)
}
