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

package pbf

import (
	"fmt"

	"m4o.io/osmquest/model"
)

const defaultGranularity = 100

type blockContext struct {
	strings     []string
	granularity int32
	latOffset   int64
	lonOffset   int64
}

func parsePrimitiveBlock(buf []byte) ([]model.Element, error) {
	c := &blockContext{granularity: defaultGranularity}

	var groups [][]byte

	err := walk(buf, func(f field) error {
		switch f.Num {
		case 1:
			return walk(f.Bytes, func(s field) error {
				if s.Num == 1 {
					c.strings = append(c.strings, string(s.Bytes))
				}

				return nil
			})
		case 2:
			groups = append(groups, f.Bytes)
		case 17:
			c.granularity = int32(f.Varint)
		case 19:
			c.latOffset = int64(f.Varint)
		case 20:
			c.lonOffset = int64(f.Varint)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to unmarshal primitive block: %w", err)
	}

	elements := make([]model.Element, 0)

	for _, g := range groups {
		err := walk(g, func(f field) error {
			var (
				decoded []model.Element
				err     error
			)

			switch f.Num {
			case 1:
				decoded, err = c.decodeNode(f.Bytes)
			case 2:
				decoded, err = c.decodeDenseNodes(f.Bytes)
			case 3:
				decoded, err = c.decodeWay(f.Bytes)
			case 4:
				decoded, err = c.decodeRelation(f.Bytes)
			}

			elements = append(elements, decoded...)

			return err
		})
		if err != nil {
			return nil, fmt.Errorf("unable to unmarshal primitive group: %w", err)
		}
	}

	return elements, nil
}

func (c *blockContext) string(i uint32) (string, error) {
	if int(i) >= len(c.strings) {
		return "", fmt.Errorf("string index %d out of range", i)
	}

	return c.strings[i], nil
}

func (c *blockContext) decodeTags(keys, vals []uint32) (map[string]string, error) {
	if len(keys) != len(vals) {
		return nil, fmt.Errorf("%d keys but %d values", len(keys), len(vals))
	}

	tags := make(map[string]string, len(keys))

	for i := range keys {
		k, err := c.string(keys[i])
		if err != nil {
			return nil, err
		}

		v, err := c.string(vals[i])
		if err != nil {
			return nil, err
		}

		tags[k] = v
	}

	return tags, nil
}

func decodeVersion(buf []byte) (int32, error) {
	var version int32

	err := walk(buf, func(f field) error {
		if f.Num == 1 {
			version = int32(f.Varint)
		}

		return nil
	})

	return version, err
}

func (c *blockContext) decodeNode(buf []byte) ([]model.Element, error) {
	var (
		n          model.Node
		keys, vals []uint32
		lat, lon   int64
		err        error
	)

	err = walk(buf, func(f field) error {
		var err error

		switch f.Num {
		case 1:
			n.ID = model.ID(sint64(f.Varint))
		case 2:
			keys, err = appendVarints(keys, f, false)
		case 3:
			vals, err = appendVarints(vals, f, false)
		case 4:
			n.Version, err = decodeVersion(f.Bytes)
		case 8:
			lat = sint64(f.Varint)
		case 9:
			lon = sint64(f.Varint)
		}

		return err
	})
	if err != nil {
		return nil, err
	}

	if n.Tags, err = c.decodeTags(keys, vals); err != nil {
		return nil, err
	}

	n.Lat = model.ToDegrees(c.latOffset, c.granularity, lat)
	n.Lon = model.ToDegrees(c.lonOffset, c.granularity, lon)

	return []model.Element{&n}, nil
}

func (c *blockContext) decodeDenseNodes(buf []byte) ([]model.Element, error) {
	var (
		ids, lats, lons []int64
		versions        []int32
		keyVals         []int32
	)

	err := walk(buf, func(f field) error {
		var err error

		switch f.Num {
		case 1:
			ids, err = appendVarints(ids, f, true)
		case 5:
			err = walk(f.Bytes, func(i field) error {
				var err error
				if i.Num == 1 {
					versions, err = appendVarints(versions, i, false)
				}

				return err
			})
		case 8:
			lats, err = appendVarints(lats, f, true)
		case 9:
			lons, err = appendVarints(lons, f, true)
		case 10:
			keyVals, err = appendVarints(keyVals, f, false)
		}

		return err
	})
	if err != nil {
		return nil, err
	}

	if len(lats) != len(ids) || len(lons) != len(ids) {
		return nil, fmt.Errorf("dense nodes: %d ids, %d lats, %d lons", len(ids), len(lats), len(lons))
	}

	undelta(ids)
	undelta(lats)
	undelta(lons)

	elements := make([]model.Element, len(ids))
	kv := 0

	for i := range ids {
		tags := map[string]string{}

		for kv < len(keyVals) && keyVals[kv] != 0 {
			if kv+1 >= len(keyVals) {
				return nil, fmt.Errorf("dense nodes: dangling key")
			}

			k, err := c.string(uint32(keyVals[kv]))
			if err != nil {
				return nil, err
			}

			v, err := c.string(uint32(keyVals[kv+1]))
			if err != nil {
				return nil, err
			}

			tags[k] = v
			kv += 2
		}

		// skip the zero delimiter
		kv++

		n := &model.Node{
			ID:   model.ID(ids[i]),
			Tags: tags,
			Lat:  model.ToDegrees(c.latOffset, c.granularity, lats[i]),
			Lon:  model.ToDegrees(c.lonOffset, c.granularity, lons[i]),
		}

		if i < len(versions) {
			n.Version = versions[i]
		}

		elements[i] = n
	}

	return elements, nil
}

func (c *blockContext) decodeWay(buf []byte) ([]model.Element, error) {
	var (
		w          model.Way
		keys, vals []uint32
		refs       []int64
		err        error
	)

	err = walk(buf, func(f field) error {
		var err error

		switch f.Num {
		case 1:
			w.ID = model.ID(f.Varint)
		case 2:
			keys, err = appendVarints(keys, f, false)
		case 3:
			vals, err = appendVarints(vals, f, false)
		case 4:
			w.Version, err = decodeVersion(f.Bytes)
		case 8:
			refs, err = appendVarints(refs, f, true)
		}

		return err
	})
	if err != nil {
		return nil, err
	}

	if w.Tags, err = c.decodeTags(keys, vals); err != nil {
		return nil, err
	}

	w.NodeIDs = make([]model.ID, len(refs))
	for i, ref := range undelta(refs) {
		w.NodeIDs[i] = model.ID(ref)
	}

	return []model.Element{&w}, nil
}

func (c *blockContext) decodeRelation(buf []byte) ([]model.Element, error) {
	var (
		r          model.Relation
		keys, vals []uint32
		roles      []int32
		memids     []int64
		types      []int32
		err        error
	)

	err = walk(buf, func(f field) error {
		var err error

		switch f.Num {
		case 1:
			r.ID = model.ID(f.Varint)
		case 2:
			keys, err = appendVarints(keys, f, false)
		case 3:
			vals, err = appendVarints(vals, f, false)
		case 4:
			r.Version, err = decodeVersion(f.Bytes)
		case 8:
			roles, err = appendVarints(roles, f, false)
		case 9:
			memids, err = appendVarints(memids, f, true)
		case 10:
			types, err = appendVarints(types, f, false)
		}

		return err
	})
	if err != nil {
		return nil, err
	}

	if r.Tags, err = c.decodeTags(keys, vals); err != nil {
		return nil, err
	}

	if len(roles) != len(memids) || len(types) != len(memids) {
		return nil, fmt.Errorf("relation %d: %d members, %d roles, %d types", r.ID, len(memids), len(roles), len(types))
	}

	r.Members = make([]model.Member, len(memids))

	for i, id := range undelta(memids) {
		role, err := c.string(uint32(roles[i]))
		if err != nil {
			return nil, err
		}

		t, err := decodeMemberType(types[i])
		if err != nil {
			return nil, err
		}

		r.Members[i] = model.Member{ID: model.ID(id), Type: t, Role: role}
	}

	return []model.Element{&r}, nil
}

// decodeMemberType converts the Relation.MemberType enum to an ElementType.
func decodeMemberType(mt int32) (model.ElementType, error) {
	switch mt {
	case 0:
		return model.NODE, nil
	case 1:
		return model.WAY, nil
	case 2:
		return model.RELATION, nil
	default:
		return 0, fmt.Errorf("unrecognized member type %d", mt)
	}
}
