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
	"fmt"

	"m4o.io/osmquest/model"
)

// Header is the contents of the OpenStreetMap PBF header block.
type Header struct {
	// BoundingBox is the area the file covers; HasBoundingBox is false if
	// the file does not say.
	BoundingBox      model.BoundingBox
	HasBoundingBox   bool
	RequiredFeatures []string
	OptionalFeatures []string
	WritingProgram   string
	Source           string
}

func parseHeaderBlock(buf []byte) (Header, error) {
	var h Header

	err := walk(buf, func(f field) error {
		switch f.Num {
		case 1:
			bbox, err := parseHeaderBBox(f.Bytes)
			if err != nil {
				return err
			}

			h.BoundingBox, h.HasBoundingBox = bbox, true
		case 4:
			h.RequiredFeatures = append(h.RequiredFeatures, string(f.Bytes))
		case 5:
			h.OptionalFeatures = append(h.OptionalFeatures, string(f.Bytes))
		case 16:
			h.WritingProgram = string(f.Bytes)
		case 17:
			h.Source = string(f.Bytes)
		}

		return nil
	})
	if err != nil {
		return Header{}, fmt.Errorf("unable to unmarshal header block: %w", err)
	}

	return h, nil
}

// parseHeaderBBox decodes a HeaderBBox, whose coordinates are in nanodegrees.
func parseHeaderBBox(buf []byte) (model.BoundingBox, error) {
	var bbox model.BoundingBox

	err := walk(buf, func(f field) error {
		d := model.ToDegrees(0, 1, sint64(f.Varint))

		switch f.Num {
		case 1:
			bbox.Left = d
		case 2:
			bbox.Right = d
		case 3:
			bbox.Top = d
		case 4:
			bbox.Bottom = d
		}

		return nil
	})

	return bbox, err
}
