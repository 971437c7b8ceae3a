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

	"github.com/destel/rill"

	"m4o.io/osmquest/countries"
	"m4o.io/osmquest/model"
	"m4o.io/osmquest/questtype"
)

// Inputs are the signals besides the map data that decide which quests exist.
type Inputs struct {
	// Hidden holds the keys of quests the user hid.
	Hidden map[model.QuestKey]struct{}

	// Countries is nil when country data is unavailable, in which case
	// country restricted quest types never apply.
	Countries countries.Index

	// Blacklist holds the positions of open notes.
	Blacklist map[model.LatLon]struct{}
}

// Evaluator computes the quests that should exist for elements.  It has no
// state besides its registry, and its output depends on nothing but its
// arguments.
type Evaluator struct {
	registry *questtype.Registry
	workers  int
}

// NewEvaluator creates an evaluator for the quest types of registry.
func NewEvaluator(registry *questtype.Registry, workers uint16) *Evaluator {
	return &Evaluator{registry: registry, workers: int(max(workers, 1))}
}

// memberships caches the members of complex quest types within one snapshot.
type memberships struct {
	data  func() model.MapData
	byTyp map[string]map[model.ElementKey]struct{}
}

func newMemberships(data func() model.MapData) *memberships {
	return &memberships{data: data, byTyp: make(map[string]map[model.ElementKey]struct{})}
}

func (m *memberships) of(t questtype.QuestType) map[model.ElementKey]struct{} {
	members, ok := m.byTyp[t.Name()]
	if ok {
		return members
	}

	members = make(map[model.ElementKey]struct{})

	if m.data != nil {
		if data := m.data(); data != nil {
			for _, k := range t.MembersOf(data) {
				members[k] = struct{}{}
			}
		}
	}

	m.byTyp[t.Name()] = members

	return members
}

func (m *memberships) contains(t questtype.QuestType, key model.ElementKey) bool {
	_, found := m.of(t)[key]

	return found
}

// ForElement returns the quests that should exist for a single element.
// snapshot is only called if a complex quest type needs the map data around
// the element.
func (ev *Evaluator) ForElement(e model.Element, g model.Geometry, snapshot func() model.MapData, in Inputs) []model.Quest {
	var data model.MapData

	fetched := false
	lazy := func() model.MapData {
		if !fetched && snapshot != nil {
			data, fetched = snapshot(), true
		}

		return data
	}

	return ev.evaluate(e, g, ev.registry.All(), newMemberships(lazy), in)
}

// ForSnapshot returns the quests that should exist for every element of data
// whose geometry intersects bbox, or for every element if bbox is nil.  The
// members of complex quest types are computed once for the whole snapshot.
func (ev *Evaluator) ForSnapshot(ctx context.Context, data model.MapData, bbox *model.BoundingBox, in Inputs) ([]model.Quest, error) {
	types := ev.registry.All()

	// filled up front, the workers below only read it
	members := newMemberships(func() model.MapData { return data })
	for _, t := range types {
		members.of(t)
	}

	type candidate struct {
		element  model.Element
		geometry model.Geometry
	}

	var candidates []candidate

	for _, e := range data.Elements() {
		g, ok := data.Geometry(e.Key())
		if !ok || g == nil {
			continue
		}

		if bbox != nil && !g.Bounds().Intersects(*bbox) {
			continue
		}

		candidates = append(candidates, candidate{element: e, geometry: g})
	}

	results := rill.OrderedMap(rill.FromSlice(candidates, nil), ev.workers, func(c candidate) ([]model.Quest, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		return ev.evaluate(c.element, c.geometry, types, members, in), nil
	})

	perElement, err := rill.ToSlice(results)
	if err != nil {
		return nil, err
	}

	var quests []model.Quest
	for _, q := range perElement {
		quests = append(quests, q...)
	}

	return quests, nil
}

// Applies reports whether the quest identified by key should exist for the
// element e.  Unknown quest types never apply.
func (ev *Evaluator) Applies(key model.QuestKey, e model.Element, g model.Geometry, snapshot func() model.MapData, in Inputs) bool {
	t, ok := ev.registry.ByName(key.QuestTypeName)
	if !ok || e == nil || e.Key() != key.ElementKey() {
		return false
	}

	return len(ev.evaluate(e, g, []questtype.QuestType{t}, newMemberships(snapshot), in)) > 0
}

func (ev *Evaluator) evaluate(
	e model.Element,
	g model.Geometry,
	types []questtype.QuestType,
	members *memberships,
	in Inputs,
) []model.Quest {
	if g == nil || blacklisted(e, g, in.Blacklist) {
		return nil
	}

	key := e.Key()

	var (
		codes    []string
		resolved bool
		quests   []model.Quest
	)

	for _, t := range types {
		qk := model.QuestKey{ElementType: key.Type, ElementID: key.ID, QuestTypeName: t.Name()}
		if _, hidden := in.Hidden[qk]; hidden {
			continue
		}

		if policy := t.Countries(); policy.Restricted() {
			if in.Countries == nil {
				continue
			}

			if !resolved {
				codes, resolved = in.Countries.CountriesAt(g.Center()), true
			}

			if !policy.Allows(codes) {
				continue
			}
		}

		switch t.Decide(e) {
		case questtype.Applicable:
		case questtype.RequiresFullScan:
			if !members.contains(t, key) {
				continue
			}
		default:
			continue
		}

		quests = append(quests, model.Quest{
			TypeName:    t.Name(),
			ElementType: key.Type,
			ElementID:   key.ID,
			Geometry:    g,
		})
	}

	return quests
}

func blacklisted(e model.Element, g model.Geometry, blacklist map[model.LatLon]struct{}) bool {
	if len(blacklist) == 0 || e.Key().Type != model.NODE {
		return false
	}

	p, ok := g.(model.PointGeometry)
	if !ok {
		return false
	}

	_, found := blacklist[p.Point]

	return found
}
