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

package cli

import (
	"github.com/spf13/pflag"

	"m4o.io/osmquest/model"
)

// World covers every position.
var World = model.BoundingBox{Top: model.MaxLat, Left: model.MinLon, Bottom: model.MinLat, Right: model.MaxLon}

// -- model.BoundingBox Value
type bboxValue struct {
	value *model.BoundingBox
	set   *bool
}

// NewBoundingBoxValue creates a pflag Value parsing "left,bottom,right,top".
// set, if not nil, records whether the flag was given.
func NewBoundingBoxValue(def model.BoundingBox, p *model.BoundingBox, set *bool) pflag.Value {
	*p = def

	return &bboxValue{value: p, set: set}
}

func (b *bboxValue) Set(val string) error {
	bbox, err := model.ParseBoundingBox(val)
	if err != nil {
		return err
	}

	*b.value = bbox

	if b.set != nil {
		*b.set = true
	}

	return nil
}

func (b *bboxValue) Type() string {
	return "bbox"
}

func (b *bboxValue) String() string {
	return b.value.String()
}
