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

// Package pbftest writes small OpenStreetMap PBF files for tests.
package pbftest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/pierrec/lz4"
	"google.golang.org/protobuf/encoding/protowire"

	"m4o.io/osmquest/model"
)

// Compression of the data blobs written.
type Compression int

const (
	Raw Compression = iota
	LZ4
)

// nanodegrees at the default granularity of 100
const coordinateScale = 1e7

// Encode writes a header blob with bbox and one data blob holding elements.
func Encode(bbox model.BoundingBox, elements []model.Element, c Compression) ([]byte, error) {
	var out []byte

	header, err := frame("OSMHeader", headerBlock(bbox), Raw)
	if err != nil {
		return nil, err
	}

	out = append(out, header...)

	data, err := frame("OSMData", primitiveBlock(elements), c)
	if err != nil {
		return nil, err
	}

	return append(out, data...), nil
}

func appendMessage(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)

	return protowire.AppendBytes(b, msg)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)

	return protowire.AppendVarint(b, v)
}

func appendSint(b []byte, num protowire.Number, v int64) []byte {
	return appendVarint(b, num, protowire.EncodeZigZag(v))
}

func frame(kind string, payload []byte, c Compression) ([]byte, error) {
	var b []byte

	switch c {
	case LZ4:
		var buf bytes.Buffer

		w := lz4.NewWriter(&buf)
		if _, err := w.Write(payload); err != nil {
			return nil, fmt.Errorf("lz4 write: %w", err)
		}

		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("lz4 close: %w", err)
		}

		b = appendVarint(b, 2, uint64(len(payload)))
		b = appendMessage(b, 6, buf.Bytes())
	default:
		b = appendMessage(b, 1, payload)
	}

	var h []byte
	h = appendMessage(h, 1, []byte(kind))
	h = appendVarint(h, 3, uint64(len(b)))

	out := binary.BigEndian.AppendUint32(nil, uint32(len(h)))
	out = append(out, h...)

	return append(out, b...), nil
}

func nano(d model.Degrees) int64 {
	return int64(math.Round(float64(d) * 1e9))
}

func headerBlock(bbox model.BoundingBox) []byte {
	var b []byte
	b = appendSint(b, 1, nano(bbox.Left))
	b = appendSint(b, 2, nano(bbox.Right))
	b = appendSint(b, 3, nano(bbox.Top))
	b = appendSint(b, 4, nano(bbox.Bottom))

	var h []byte
	h = appendMessage(h, 1, b)
	h = appendMessage(h, 4, []byte("OsmSchema-V0.6"))

	return appendMessage(h, 16, []byte("pbftest"))
}

type stringTable struct {
	index   map[string]uint32
	strings []string
}

func newStringTable() *stringTable {
	return &stringTable{index: map[string]uint32{"": 0}, strings: []string{""}}
}

func (t *stringTable) id(s string) uint64 {
	if i, ok := t.index[s]; ok {
		return uint64(i)
	}

	i := uint32(len(t.strings))
	t.index[s] = i
	t.strings = append(t.strings, s)

	return uint64(i)
}

func (t *stringTable) appendTags(b []byte, tags map[string]string) []byte {
	var keys, vals []byte

	for _, k := range slices.Sorted(maps.Keys(tags)) {
		keys = protowire.AppendVarint(keys, t.id(k))
		vals = protowire.AppendVarint(vals, t.id(tags[k]))
	}

	b = appendMessage(b, 2, keys)

	return appendMessage(b, 3, vals)
}

func primitiveBlock(elements []model.Element) []byte {
	st := newStringTable()

	var group []byte

	for _, e := range elements {
		var msg []byte

		switch e := e.(type) {
		case *model.Node:
			msg = appendSint(msg, 1, int64(e.ID))
			msg = st.appendTags(msg, e.Tags)
			msg = appendMessage(msg, 4, appendVarint(nil, 1, uint64(e.Version)))
			msg = appendSint(msg, 8, int64(math.Round(float64(e.Lat)*coordinateScale)))
			msg = appendSint(msg, 9, int64(math.Round(float64(e.Lon)*coordinateScale)))
			group = appendMessage(group, 1, msg)
		case *model.Way:
			msg = appendVarint(msg, 1, uint64(e.ID))
			msg = st.appendTags(msg, e.Tags)
			msg = appendMessage(msg, 4, appendVarint(nil, 1, uint64(e.Version)))

			var refs []byte
			var prev int64
			for _, id := range e.NodeIDs {
				refs = protowire.AppendVarint(refs, protowire.EncodeZigZag(int64(id)-prev))
				prev = int64(id)
			}

			msg = appendMessage(msg, 8, refs)
			group = appendMessage(group, 3, msg)
		case *model.Relation:
			msg = appendVarint(msg, 1, uint64(e.ID))
			msg = st.appendTags(msg, e.Tags)
			msg = appendMessage(msg, 4, appendVarint(nil, 1, uint64(e.Version)))

			var roles, memids, types []byte
			var prev int64
			for _, m := range e.Members {
				roles = protowire.AppendVarint(roles, st.id(m.Role))
				memids = protowire.AppendVarint(memids, protowire.EncodeZigZag(int64(m.ID)-prev))
				types = protowire.AppendVarint(types, uint64(m.Type))
				prev = int64(m.ID)
			}

			msg = appendMessage(msg, 8, roles)
			msg = appendMessage(msg, 9, memids)
			msg = appendMessage(msg, 10, types)
			group = appendMessage(group, 4, msg)
		}
	}

	var table []byte
	for _, s := range st.strings {
		table = appendMessage(table, 1, []byte(s))
	}

	var blk []byte
	blk = appendMessage(blk, 1, table)

	return appendMessage(blk, 2, group)
}
