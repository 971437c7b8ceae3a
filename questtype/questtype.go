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

// Package questtype defines the rules that decide which elements a quest is
// generated for, and the ordered registry they are kept in.
package questtype

import (
	"m4o.io/osmquest/countries"
	"m4o.io/osmquest/model"
)

// Decision is the outcome of asking a quest type about a single element.
type Decision int

const (
	NotApplicable Decision = iota
	Applicable
	// RequiresFullScan means the element alone is not enough to decide and
	// the type's MembersOf must be consulted with a map data snapshot.
	RequiresFullScan
)

func (d Decision) String() string {
	switch d {
	case Applicable:
		return "applicable"
	case RequiresFullScan:
		return "requires full scan"
	default:
		return "not applicable"
	}
}

// QuestType is a named rule deciding which elements get a quest.
type QuestType interface {
	Name() string

	// Decide inspects a single element.
	Decide(e model.Element) Decision

	// MembersOf returns the keys of all elements in data the type applies
	// to.  Types that can decide from an element alone return nil.
	MembersOf(data model.MapData) []model.ElementKey

	Countries() countries.Policy
}

type simpleType struct {
	name      string
	predicate func(model.Element) bool
	policy    countries.Policy
}

var _ QuestType = (*simpleType)(nil)

// Simple creates a quest type that decides from the element alone.
func Simple(name string, predicate func(model.Element) bool, policy countries.Policy) QuestType {
	return &simpleType{name: name, predicate: predicate, policy: policy}
}

func (t *simpleType) Name() string { return t.name }

func (t *simpleType) Decide(e model.Element) Decision {
	if t.predicate(e) {
		return Applicable
	}

	return NotApplicable
}

func (t *simpleType) MembersOf(model.MapData) []model.ElementKey { return nil }

func (t *simpleType) Countries() countries.Policy { return t.policy }

type complexType struct {
	name      string
	prefilter func(model.Element) bool
	members   func(model.MapData) []model.ElementKey
	policy    countries.Policy
}

var _ QuestType = (*complexType)(nil)

// Complex creates a quest type whose applicability depends on surrounding
// elements.  Every element requires a full scan.
func Complex(name string, members func(model.MapData) []model.ElementKey, policy countries.Policy) QuestType {
	return &complexType{name: name, members: members, policy: policy}
}

// ComplexFiltered is Complex with a cheap per element prefilter.  Elements
// rejected by prefilter are not applicable without a scan.
func ComplexFiltered(
	name string,
	prefilter func(model.Element) bool,
	members func(model.MapData) []model.ElementKey,
	policy countries.Policy,
) QuestType {
	return &complexType{name: name, prefilter: prefilter, members: members, policy: policy}
}

func (t *complexType) Name() string { return t.name }

func (t *complexType) Decide(e model.Element) Decision {
	if t.prefilter != nil && !t.prefilter(e) {
		return NotApplicable
	}

	return RequiresFullScan
}

func (t *complexType) MembersOf(data model.MapData) []model.ElementKey {
	return t.members(data)
}

func (t *complexType) Countries() countries.Policy { return t.policy }
