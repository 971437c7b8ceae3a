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

package questtype

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"m4o.io/osmquest/countries"
)

var ErrUnknownKind = errors.New("unknown quest type kind")

const (
	KindTags                 = "tags"
	KindWayWithoutTaggedNode = "way_without_tagged_node"
)

type countriesYAML struct {
	Only   []string `yaml:"only"`
	Except []string `yaml:"except"`
}

type questTypeYAML struct {
	Name      string         `yaml:"name"`
	Kind      string         `yaml:"kind"`
	Elements  []string       `yaml:"elements"`
	All       []string       `yaml:"all"`
	Ways      []string       `yaml:"ways"`
	Nodes     []string       `yaml:"nodes"`
	Countries *countriesYAML `yaml:"countries"`
}

type registryYAML struct {
	QuestTypes []questTypeYAML `yaml:"quest_types"`
}

// ParseRegistry reads a registry from YAML, keeping the order of the
// document:
//
//	quest_types:
//	  - name: AddRoadSurface
//	    kind: tags
//	    elements: [way]
//	    all: ["highway~residential|service", "!surface"]
//	    countries: {except: [GB]}
//	  - name: AddFootwayCrossing
//	    kind: way_without_tagged_node
//	    ways: ["highway=footway"]
//	    nodes: ["highway=crossing"]
func ParseRegistry(raw []byte) (*Registry, error) {
	var doc registryYAML
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("quest types yaml: %w", err)
	}

	types := make([]QuestType, 0, len(doc.QuestTypes))

	for _, qt := range doc.QuestTypes {
		t, err := qt.build()
		if err != nil {
			return nil, fmt.Errorf("quest type %q: %w", qt.Name, err)
		}

		types = append(types, t)
	}

	return NewRegistry(types...)
}

// LoadRegistry reads a registry from a YAML file.
func LoadRegistry(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read quest types file: %w", err)
	}

	return ParseRegistry(raw)
}

func (qt questTypeYAML) build() (QuestType, error) {
	if qt.Name == "" {
		return nil, fmt.Errorf("missing name")
	}

	policy, err := qt.Countries.policy()
	if err != nil {
		return nil, err
	}

	switch qt.Kind {
	case KindTags:
		f, err := ParseFilter(qt.Elements, qt.All)
		if err != nil {
			return nil, err
		}

		return Simple(qt.Name, f.Matches, policy), nil
	case KindWayWithoutTaggedNode:
		ways, err := ParseFilter([]string{"way"}, qt.Ways)
		if err != nil {
			return nil, err
		}

		nodes, err := ParseFilter([]string{"node"}, qt.Nodes)
		if err != nil {
			return nil, err
		}

		return WayWithoutTaggedNode(qt.Name, ways, nodes, policy), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, qt.Kind)
	}
}

func (c *countriesYAML) policy() (countries.Policy, error) {
	switch {
	case c == nil:
		return countries.AllCountries(), nil
	case len(c.Only) > 0 && len(c.Except) > 0:
		return countries.Policy{}, fmt.Errorf("countries: only and except are exclusive")
	case len(c.Only) > 0:
		return countries.NoCountriesExcept(c.Only...), nil
	case len(c.Except) > 0:
		return countries.AllCountriesExcept(c.Except...), nil
	default:
		return countries.AllCountries(), nil
	}
}
