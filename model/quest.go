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
	"fmt"
	"strconv"
	"strings"
	"time"
)

// QuestID is the store assigned identity of a materialized quest.  IDs are
// monotonic and never reused.
type QuestID int64

// QuestKey is the durable identity of a quest: one element and one quest
// type.  It does not depend on the store and is stable across restarts.
type QuestKey struct {
	ElementType   ElementType
	ElementID     ID
	QuestTypeName string
}

// ElementKey returns the key of the element the quest is about.
func (k QuestKey) ElementKey() ElementKey {
	return ElementKey{Type: k.ElementType, ID: k.ElementID}
}

// String returns "TYPE/id/QuestTypeName".
func (k QuestKey) String() string {
	return fmt.Sprintf("%s/%d/%s", k.ElementType, k.ElementID, k.QuestTypeName)
}

// ParseQuestKey is the inverse of QuestKey.String.
func ParseQuestKey(s string) (QuestKey, error) {
	parts := strings.SplitN(s, "/", 3)
	if len(parts) != 3 || parts[2] == "" {
		return QuestKey{}, fmt.Errorf("invalid quest key %q", s)
	}

	et, err := ParseElementType(parts[0])
	if err != nil {
		return QuestKey{}, fmt.Errorf("invalid quest key %q: %w", s, err)
	}

	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return QuestKey{}, fmt.Errorf("invalid quest key %q: %w", s, err)
	}

	return QuestKey{ElementType: et, ElementID: ID(id), QuestTypeName: parts[2]}, nil
}

// Quest is a materialized unit of work for one element and one quest type.
// ID is zero until the quest has been persisted.
type Quest struct {
	ID          QuestID
	TypeName    string
	ElementType ElementType
	ElementID   ID
	Geometry    Geometry
}

// Key derives the durable identity of the quest.
func (q Quest) Key() QuestKey {
	return QuestKey{ElementType: q.ElementType, ElementID: q.ElementID, QuestTypeName: q.TypeName}
}

// Position is where the quest is shown: the center of its geometry.
func (q Quest) Position() LatLon {
	return q.Geometry.Center()
}

// SuppressionEntry records that the user hid a quest.
type SuppressionEntry struct {
	Key      QuestKey
	HiddenAt time.Time
}

// Note is a free-text annotation anchored at a position.  Open notes block
// quests on nodes at exactly the same position.
type Note struct {
	ID       int64
	Position LatLon
	Closed   bool
}
