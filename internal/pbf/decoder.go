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

// Package pbf reads OpenStreetMap PBF files.
package pbf

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/destel/rill"

	"m4o.io/osmquest/internal/core"
	"m4o.io/osmquest/model"
)

// Decoder reads and decodes OpenStreetMap PBF data from an input stream.
type Decoder struct {
	Header Header

	reader io.Reader
	cfg    decoderOptions
}

// NewDecoder reads the header block from r and returns a decoder for the
// rest of the stream.
func NewDecoder(r io.Reader, opts ...DecoderOption) (*Decoder, error) {
	cfg := defaultDecoderConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	buf := core.NewPooledBuffer()
	defer buf.Close()

	b, err := readBlob(buf, r)
	if err != nil {
		return nil, fmt.Errorf("unable to read header blob: %w", err)
	}

	if b.kind != osmHeaderType {
		return nil, fmt.Errorf("expected %s blob but got %q", osmHeaderType, b.kind)
	}

	unpacked, err := unpack(buf, b)
	if err != nil {
		return nil, err
	}

	h, err := parseHeaderBlock(unpacked)
	if err != nil {
		return nil, err
	}

	return &Decoder{Header: h, reader: r, cfg: cfg}, nil
}

// Decode returns an iterator over the elements of the stream, one primitive
// block at a time, in file order.  Blocks are decompressed and parsed
// concurrently.
func (d *Decoder) Decode(ctx context.Context) func(yield func([]model.Element, error) bool) {
	return func(yield func([]model.Element, error) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		blobs := generate(ctx, d.reader)
		decoded := rill.OrderedMap(blobs, int(d.cfg.nCPU), decodeBlob)

		defer rill.DrainNB(decoded)

		for try := range decoded {
			if !yield(try.Value, try.Error) || try.Error != nil {
				return
			}
		}
	}
}

func decodeBlob(b blob) ([]model.Element, error) {
	if b.kind != osmDataType {
		slog.Warn("skipping unknown blob type", "type", b.kind)

		return nil, nil
	}

	buf := core.NewPooledBuffer()
	defer buf.Close()

	unpacked, err := unpack(buf, b)
	if err != nil {
		slog.Error("unable to unpack blob", "error", err)

		return nil, err
	}

	elements, err := parsePrimitiveBlock(unpacked)
	if err != nil {
		slog.Error("unable to parse block", "error", err)

		return nil, err
	}

	return elements, nil
}
