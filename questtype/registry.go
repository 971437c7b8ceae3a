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

package questtype

import (
	"errors"
	"fmt"
)

var ErrDuplicateQuestType = errors.New("duplicate quest type")

// Registry is the ordered, immutable set of enabled quest types.  The order
// decides the order of quests generated for the same element.
type Registry struct {
	types  []QuestType
	byName map[string]QuestType
}

// NewRegistry creates a registry of types in the given order.
func NewRegistry(types ...QuestType) (*Registry, error) {
	r := &Registry{
		types:  make([]QuestType, 0, len(types)),
		byName: make(map[string]QuestType, len(types)),
	}

	for _, t := range types {
		if _, ok := r.byName[t.Name()]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateQuestType, t.Name())
		}

		r.types = append(r.types, t)
		r.byName[t.Name()] = t
	}

	return r, nil
}

// All returns the quest types in registry order.
func (r *Registry) All() []QuestType {
	types := make([]QuestType, len(r.types))
	copy(types, r.types)

	return types
}

// ByName looks a quest type up by its name.
func (r *Registry) ByName(name string) (QuestType, bool) {
	t, ok := r.byName[name]

	return t, ok
}

func (r *Registry) Len() int {
	return len(r.types)
}

// Names returns the quest type names in registry order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.types))
	for i, t := range r.types {
		names[i] = t.Name()
	}

	return names
}
