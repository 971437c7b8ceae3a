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
	"m4o.io/osmquest/countries"
	"m4o.io/osmquest/model"
)

// WayWithoutTaggedNode creates a complex type that applies to ways matching
// ways none of whose nodes, as far as they are known to the snapshot, match
// nodes.  A typical use is a crossing quest on footways without a tagged
// crossing node.
func WayWithoutTaggedNode(name string, ways Filter, nodes Filter, policy countries.Policy) QuestType {
	isWay := func(e model.Element) bool {
		_, ok := e.(*model.Way)

		return ok && ways.Matches(e)
	}

	members := func(data model.MapData) []model.ElementKey {
		var keys []model.ElementKey

		for _, e := range data.Elements() {
			if !isWay(e) {
				continue
			}

			if !hasMatchingNode(e.(*model.Way), data, nodes) {
				keys = append(keys, e.Key())
			}
		}

		return keys
	}

	return ComplexFiltered(name, isWay, members, policy)
}

func hasMatchingNode(w *model.Way, data model.MapData, nodes Filter) bool {
	for _, id := range w.NodeIDs {
		n, ok := data.Get(model.ElementKey{Type: model.NODE, ID: id})
		if ok && nodes.Matches(n) {
			return true
		}
	}

	return false
}
