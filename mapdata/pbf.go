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

package mapdata

import (
	"context"
	"fmt"
	"io"

	"m4o.io/osmquest/internal/pbf"
	"m4o.io/osmquest/model"
)

// LoadPBF reads an OpenStreetMap PBF stream into a snapshot with geometry.
// The snapshot's bounding box is the one declared by the file header, if
// any.  workers bounds the number of blocks decoded concurrently.
func LoadPBF(ctx context.Context, r io.Reader, workers uint16) (*Snapshot, error) {
	d, err := pbf.NewDecoder(r, pbf.WithNCpus(workers))
	if err != nil {
		return nil, fmt.Errorf("unable to read pbf header: %w", err)
	}

	all := NewSnapshot()

	for elements, err := range d.Decode(ctx) {
		if err != nil {
			return nil, fmt.Errorf("unable to decode pbf: %w", err)
		}

		for _, e := range elements {
			all.Put(e, nil)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snapshot := NewSnapshot()
	if d.Header.HasBoundingBox {
		snapshot.SetBoundingBox(d.Header.BoundingBox)
	}

	for _, e := range all.Elements() {
		snapshot.Put(e, BuildGeometry(e, all.Get))
	}

	return snapshot, nil
}

// Count returns the number of nodes, ways and relations in data.
func Count(data model.MapData) (nodes, ways, relations int64) {
	for _, e := range data.Elements() {
		switch e.(type) {
		case *model.Node:
			nodes++
		case *model.Way:
			ways++
		case *model.Relation:
			relations++
		}
	}

	return nodes, ways, relations
}
