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

package countries

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"m4o.io/osmquest/model"
)

// Index maps a position to the codes of the countries it lies in.
type Index interface {
	CountriesAt(p model.LatLon) []string
}

type country struct {
	code  string
	boxes []model.BoundingBox
}

// BoxIndex approximates country boundaries with bounding boxes.  A position
// may lie in several countries, e.g. "US" and "US-TX".
type BoxIndex struct {
	countries []country
}

var _ Index = (*BoxIndex)(nil)

// NewBoxIndex creates an empty index.
func NewBoxIndex() *BoxIndex {
	return &BoxIndex{}
}

// Add registers boxes for a country code.
func (x *BoxIndex) Add(code string, boxes ...model.BoundingBox) {
	code = strings.ToUpper(strings.TrimSpace(code))

	for i := range x.countries {
		if x.countries[i].code == code {
			x.countries[i].boxes = append(x.countries[i].boxes, boxes...)

			return
		}
	}

	x.countries = append(x.countries, country{code: code, boxes: boxes})
}

// CountriesAt returns the codes of every country with a box containing p,
// in registration order.
func (x *BoxIndex) CountriesAt(p model.LatLon) []string {
	var codes []string

	for _, c := range x.countries {
		for _, box := range c.boxes {
			if box.ContainsLatLon(p) {
				codes = append(codes, c.code)

				break
			}
		}
	}

	return codes
}

type boxIndexYAML struct {
	Countries []struct {
		Code  string       `yaml:"code"`
		Boxes [][4]float64 `yaml:"boxes"`
	} `yaml:"countries"`
}

// ParseBoxIndex reads an index from YAML.  Boxes are given in the OSM API
// order left, bottom, right, top:
//
//	countries:
//	  - code: DE
//	    boxes:
//	      - [5.87, 47.27, 15.04, 55.06]
func ParseBoxIndex(raw []byte) (*BoxIndex, error) {
	var doc boxIndexYAML
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("countries yaml: %w", err)
	}

	x := NewBoxIndex()

	for _, c := range doc.Countries {
		if strings.TrimSpace(c.Code) == "" {
			return nil, fmt.Errorf("countries yaml: country without code")
		}

		boxes := make([]model.BoundingBox, 0, len(c.Boxes))

		for _, b := range c.Boxes {
			box := model.BoundingBox{
				Left:   model.Degrees(b[0]),
				Bottom: model.Degrees(b[1]),
				Right:  model.Degrees(b[2]),
				Top:    model.Degrees(b[3]),
			}
			if box.IsEmpty() {
				return nil, fmt.Errorf("countries yaml: invalid box %v for %s", b, c.Code)
			}

			boxes = append(boxes, box)
		}

		x.Add(c.Code, boxes...)
	}

	return x, nil
}

// LoadBoxIndex reads an index from a YAML file.
func LoadBoxIndex(path string) (*BoxIndex, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read countries file: %w", err)
	}

	return ParseBoxIndex(raw)
}
