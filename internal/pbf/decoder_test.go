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

package pbf

import (
	"bytes"
	"compress/zlib"
	"context"
	"encoding/binary"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"m4o.io/osmquest/model"
)

func appendMessage(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)

	return protowire.AppendBytes(b, msg)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)

	return protowire.AppendVarint(b, v)
}

func appendPacked(b []byte, num protowire.Number, values []int64, zigzag bool) []byte {
	var packed []byte
	for _, v := range values {
		if zigzag {
			packed = protowire.AppendVarint(packed, protowire.EncodeZigZag(v))
		} else {
			packed = protowire.AppendVarint(packed, uint64(v))
		}
	}

	return appendMessage(b, num, packed)
}

type blobEncoding int

const (
	encodeRaw blobEncoding = iota
	encodeZlib
	encodeZstd
	encodeNothing
)

// frame wraps payload in a blob and its length prefixed blob header.
func frame(t *testing.T, kind string, payload []byte, enc blobEncoding) []byte {
	t.Helper()

	var b []byte

	switch enc {
	case encodeRaw:
		b = appendMessage(b, 1, payload)
	case encodeZlib:
		var buf bytes.Buffer
		w := zlib.NewWriter(&buf)
		_, err := w.Write(payload)
		require.NoError(t, err)
		require.NoError(t, w.Close())

		b = appendVarint(b, 2, uint64(len(payload)))
		b = appendMessage(b, 3, buf.Bytes())
	case encodeZstd:
		w, err := zstd.NewWriter(nil)
		require.NoError(t, err)

		b = appendVarint(b, 2, uint64(len(payload)))
		b = appendMessage(b, 7, w.EncodeAll(payload, nil))
		require.NoError(t, w.Close())
	case encodeNothing:
		b = appendVarint(b, 2, uint64(len(payload)))
	}

	var h []byte
	h = appendMessage(h, 1, []byte(kind))
	h = appendVarint(h, 3, uint64(len(b)))

	out := binary.BigEndian.AppendUint32(nil, uint32(len(h)))
	out = append(out, h...)

	return append(out, b...)
}

func headerBlock() []byte {
	var bbox []byte
	bbox = appendVarint(bbox, 1, protowire.EncodeZigZag(-1_000_000_000))
	bbox = appendVarint(bbox, 2, protowire.EncodeZigZag(2_000_000_000))
	bbox = appendVarint(bbox, 3, protowire.EncodeZigZag(3_000_000_000))
	bbox = appendVarint(bbox, 4, protowire.EncodeZigZag(-4_000_000_000))

	var h []byte
	h = appendMessage(h, 1, bbox)
	h = appendMessage(h, 4, []byte("OsmSchema-V0.6"))
	h = appendMessage(h, 4, []byte("DenseNodes"))
	h = appendMessage(h, 16, []byte("osmquest-test"))

	return h
}

// dataBlock holds two dense nodes, a way through them and a relation with
// the way as member.
func dataBlock() []byte {
	var st []byte
	for _, s := range []string{"", "highway", "crossing", "footway", "type", "multipolygon", "outer"} {
		st = appendMessage(st, 1, []byte(s))
	}

	var dense []byte
	dense = appendPacked(dense, 1, []int64{10, 1}, true)
	dense = appendMessage(dense, 5, appendPacked(nil, 1, []int64{3, 4}, false))
	dense = appendPacked(dense, 8, []int64{515_000_000, 1_000}, true)
	dense = appendPacked(dense, 9, []int64{-1_000_000, -1_000}, true)
	// node 10 has highway=crossing, node 11 no tags
	dense = appendPacked(dense, 10, []int64{1, 2, 0, 0}, false)

	var way []byte
	way = appendVarint(way, 1, 20)
	way = appendPacked(way, 2, []int64{1}, false)
	way = appendPacked(way, 3, []int64{3}, false)
	way = appendMessage(way, 4, appendVarint(nil, 1, 2))
	way = appendPacked(way, 8, []int64{10, 1}, true)

	var rel []byte
	rel = appendVarint(rel, 1, 30)
	rel = appendPacked(rel, 2, []int64{4}, false)
	rel = appendPacked(rel, 3, []int64{5}, false)
	rel = appendPacked(rel, 8, []int64{6}, false)
	rel = appendPacked(rel, 9, []int64{20}, true)
	rel = appendPacked(rel, 10, []int64{1}, false)

	var nodesGroup, waysGroup, relsGroup []byte
	nodesGroup = appendMessage(nodesGroup, 2, dense)
	waysGroup = appendMessage(waysGroup, 3, way)
	relsGroup = appendMessage(relsGroup, 4, rel)

	var blk []byte
	blk = appendMessage(blk, 1, st)
	blk = appendMessage(blk, 2, nodesGroup)
	blk = appendMessage(blk, 2, waysGroup)
	blk = appendMessage(blk, 2, relsGroup)

	return blk
}

func decodeAll(t *testing.T, d *Decoder) []model.Element {
	t.Helper()

	var elements []model.Element

	for batch, err := range d.Decode(context.Background()) {
		require.NoError(t, err)

		elements = append(elements, batch...)
	}

	return elements
}

func TestDecoder(t *testing.T) {
	test_cases := []struct {
		name string
		enc  blobEncoding
	}{
		{"raw", encodeRaw},
		{"zlib", encodeZlib},
		{"zstd", encodeZstd},
	}

	for _, tc := range test_cases {
		t.Run(tc.name, func(t *testing.T) {
			var file []byte
			file = append(file, frame(t, osmHeaderType, headerBlock(), tc.enc)...)
			file = append(file, frame(t, osmDataType, dataBlock(), tc.enc)...)

			d, err := NewDecoder(bytes.NewReader(file), WithNCpus(2))
			require.NoError(t, err)

			assert.True(t, d.Header.HasBoundingBox)
			assert.True(t, d.Header.BoundingBox.Left.EqualWithin(-1, model.E9))
			assert.True(t, d.Header.BoundingBox.Right.EqualWithin(2, model.E9))
			assert.True(t, d.Header.BoundingBox.Top.EqualWithin(3, model.E9))
			assert.True(t, d.Header.BoundingBox.Bottom.EqualWithin(-4, model.E9))
			assert.Equal(t, []string{"OsmSchema-V0.6", "DenseNodes"}, d.Header.RequiredFeatures)
			assert.Equal(t, "osmquest-test", d.Header.WritingProgram)

			elements := decodeAll(t, d)
			require.Len(t, elements, 4)

			n10 := elements[0].(*model.Node)
			assert.Equal(t, model.ID(10), n10.ID)
			assert.Equal(t, int32(3), n10.Version)
			assert.Equal(t, map[string]string{"highway": "crossing"}, n10.Tags)
			assert.True(t, n10.Lat.EqualWithin(51.5, model.E7))
			assert.True(t, n10.Lon.EqualWithin(-0.1, model.E7))

			n11 := elements[1].(*model.Node)
			assert.Equal(t, model.ID(11), n11.ID)
			assert.Equal(t, int32(4), n11.Version)
			assert.Empty(t, n11.Tags)
			assert.True(t, n11.Lat.EqualWithin(51.5001, model.E7))
			assert.True(t, n11.Lon.EqualWithin(-0.1001, model.E7))

			w := elements[2].(*model.Way)
			assert.Equal(t, model.ID(20), w.ID)
			assert.Equal(t, int32(2), w.Version)
			assert.Equal(t, map[string]string{"highway": "footway"}, w.Tags)
			assert.Equal(t, []model.ID{10, 11}, w.NodeIDs)

			r := elements[3].(*model.Relation)
			assert.Equal(t, model.ID(30), r.ID)
			assert.Equal(t, map[string]string{"type": "multipolygon"}, r.Tags)
			assert.Equal(t, []model.Member{{ID: 20, Type: model.WAY, Role: "outer"}}, r.Members)
		})
	}
}

func TestDecoderRequiresHeader(t *testing.T) {
	_, err := NewDecoder(bytes.NewReader(frame(t, osmDataType, dataBlock(), encodeRaw)))
	assert.Error(t, err)

	_, err = NewDecoder(bytes.NewReader(nil))
	assert.Error(t, err)
}

func TestDecoderUnknownCompression(t *testing.T) {
	var file []byte
	file = append(file, frame(t, osmHeaderType, headerBlock(), encodeRaw)...)
	file = append(file, frame(t, osmDataType, dataBlock(), encodeNothing)...)

	d, err := NewDecoder(bytes.NewReader(file))
	require.NoError(t, err)

	var failed error
	for _, err := range d.Decode(context.Background()) {
		if err != nil {
			failed = err
		}
	}

	assert.ErrorIs(t, failed, ErrUnknownCompressionType)
}

func TestDecoderTruncated(t *testing.T) {
	var file []byte
	file = append(file, frame(t, osmHeaderType, headerBlock(), encodeRaw)...)
	data := frame(t, osmDataType, dataBlock(), encodeRaw)
	file = append(file, data[:len(data)/2]...)

	d, err := NewDecoder(bytes.NewReader(file))
	require.NoError(t, err)

	var failed error
	for _, err := range d.Decode(context.Background()) {
		if err != nil {
			failed = err
		}
	}

	assert.Error(t, failed)
}

func TestUndelta(t *testing.T) {
	assert.Equal(t, []int64{5, 7, 4}, undelta([]int64{5, 2, -3}))
	assert.Equal(t, []int32{}, undelta([]int32{}))
}
