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

package sqlite

import (
	"fmt"

	"github.com/klauspost/compress/zstd"

	"m4o.io/osmquest/model"
)

// Geometries are stored as zstd compressed JSON.  EncodeAll and DecodeAll
// are safe for concurrent use.
var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	decoder, _ = zstd.NewReader(nil)
)

func encodeGeometry(g model.Geometry) ([]byte, error) {
	b, err := model.MarshalGeometry(g)
	if err != nil {
		return nil, err
	}

	return encoder.EncodeAll(b, nil), nil
}

func decodeGeometry(b []byte) (model.Geometry, error) {
	raw, err := decoder.DecodeAll(b, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress geometry: %w", err)
	}

	return model.UnmarshalGeometry(raw)
}
