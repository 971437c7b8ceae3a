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

package model

// MapData is a read-only snapshot of elements together with the geometry that
// could be materialized for them.  An element may be present without a
// geometry, e.g. a way whose nodes were not part of the download.
type MapData interface {
	// Elements returns all elements in a stable order.
	Elements() []Element

	Get(key ElementKey) (Element, bool)

	Geometry(key ElementKey) (Geometry, bool)

	// BoundingBox returns the area the snapshot covers, if known.
	BoundingBox() (BoundingBox, bool)
}
