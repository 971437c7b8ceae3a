// Copyright 2017-25 the original author or authors.
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

// Package model contains the shared model for quest reconciliation: OSM
// elements and their geometry, quests, suppression entries and notes.
package model

import (
	"fmt"
	"strconv"
)

// ID is the primary key of an element.
type ID int64

// ElementType is an enumeration of OSM element types.
type ElementType int32

const (
	// NODE denotes a point element.
	NODE ElementType = iota

	// WAY denotes a line or area element.
	WAY

	// RELATION denotes an area or a grouping of elements.
	RELATION
)

func (t ElementType) String() string {
	switch t {
	case NODE:
		return "NODE"
	case WAY:
		return "WAY"
	case RELATION:
		return "RELATION"
	default:
		return "ElementType(" + strconv.FormatInt(int64(t), 10) + ")"
	}
}

// ParseElementType is the inverse of ElementType.String, case-insensitive
// for the single letter forms n, w and r.
func ParseElementType(s string) (ElementType, error) {
	switch s {
	case "NODE", "node", "n":
		return NODE, nil
	case "WAY", "way", "w":
		return WAY, nil
	case "RELATION", "relation", "r":
		return RELATION, nil
	default:
		return 0, fmt.Errorf("unknown element type %q", s)
	}
}

// ElementKey is the stable identity of an element.
type ElementKey struct {
	Type ElementType
	ID   ID
}

func (k ElementKey) String() string {
	return fmt.Sprintf("%s/%d", k.Type, k.ID)
}

// Element is implemented by Node, Way and Relation.
type Element interface {
	isElement() // prevents extensions

	Key() ElementKey

	GetTags() map[string]string

	GetVersion() int32
}

// Node represents a specific point on the earth's surface defined by its
// latitude and longitude.
type Node struct {
	ID      ID
	Version int32
	Tags    map[string]string
	Lat     Degrees
	Lon     Degrees
}

var _ Element = (*Node)(nil)

func (n *Node) isElement() {}

func (n *Node) Key() ElementKey { return ElementKey{Type: NODE, ID: n.ID} }

func (n *Node) GetTags() map[string]string { return n.Tags }

func (n *Node) GetVersion() int32 { return n.Version }

// Position returns the node's coordinate.
func (n *Node) Position() LatLon { return LatLon{Lat: n.Lat, Lon: n.Lon} }

// Way is an ordered list of nodes that define a polyline.  A way whose first
// and last node are the same is closed and may describe an area.
type Way struct {
	ID      ID
	Version int32
	Tags    map[string]string
	NodeIDs []ID
}

var _ Element = (*Way)(nil)

func (w *Way) isElement() {}

func (w *Way) Key() ElementKey { return ElementKey{Type: WAY, ID: w.ID} }

func (w *Way) GetTags() map[string]string { return w.Tags }

func (w *Way) GetVersion() int32 { return w.Version }

// IsClosed reports whether the way starts and ends at the same node.
func (w *Way) IsClosed() bool {
	return len(w.NodeIDs) >= 4 && w.NodeIDs[0] == w.NodeIDs[len(w.NodeIDs)-1]
}

// Member is a reference from a relation to another element.
type Member struct {
	ID   ID
	Type ElementType
	Role string
}

// Key returns the key of the referenced element.
func (m Member) Key() ElementKey { return ElementKey{Type: m.Type, ID: m.ID} }

// Relation is a multipurpose data structure that documents a relationship
// between two or more elements.
type Relation struct {
	ID      ID
	Version int32
	Tags    map[string]string
	Members []Member
}

var _ Element = (*Relation)(nil)

func (r *Relation) isElement() {}

func (r *Relation) Key() ElementKey { return ElementKey{Type: RELATION, ID: r.ID} }

func (r *Relation) GetTags() map[string]string { return r.Tags }

func (r *Relation) GetVersion() int32 { return r.Version }
