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
	"fmt"
	"slices"
	"strings"

	"m4o.io/osmquest/model"
)

type operator int

const (
	has operator = iota
	hasNot
	equals
	notEquals
	oneOf
)

type condition struct {
	key    string
	op     operator
	values []string
}

func (c condition) matches(tags map[string]string) bool {
	v, ok := tags[c.key]

	switch c.op {
	case hasNot:
		return !ok
	case equals:
		return ok && v == c.values[0]
	case notEquals:
		return !ok || v != c.values[0]
	case oneOf:
		return ok && slices.Contains(c.values, v)
	default:
		return ok
	}
}

// Filter matches elements by type and tags.  All conditions must hold.
type Filter struct {
	types      []model.ElementType
	conditions []condition
}

// ParseFilter builds a filter.  An empty types list matches every element
// type.  Conditions are one of
//
//	key            tag is present
//	!key           tag is absent
//	key=value      tag has value
//	key!=value     tag is absent or has another value
//	key~v1|v2      tag has one of the values
func ParseFilter(types []string, conditions []string) (Filter, error) {
	var f Filter

	for _, s := range types {
		t, err := model.ParseElementType(strings.ToUpper(strings.TrimSpace(s)))
		if err != nil {
			return Filter{}, err
		}

		f.types = append(f.types, t)
	}

	for _, s := range conditions {
		c, err := parseCondition(s)
		if err != nil {
			return Filter{}, err
		}

		f.conditions = append(f.conditions, c)
	}

	return f, nil
}

func parseCondition(s string) (condition, error) {
	s = strings.TrimSpace(s)

	var c condition

	switch {
	case strings.HasPrefix(s, "!"):
		c = condition{key: s[1:], op: hasNot}
	case strings.Contains(s, "!="):
		k, v, _ := strings.Cut(s, "!=")
		c = condition{key: k, op: notEquals, values: []string{v}}
	case strings.Contains(s, "~"):
		k, v, _ := strings.Cut(s, "~")
		c = condition{key: k, op: oneOf, values: strings.Split(v, "|")}
	case strings.Contains(s, "="):
		k, v, _ := strings.Cut(s, "=")
		c = condition{key: k, op: equals, values: []string{v}}
	default:
		c = condition{key: s, op: has}
	}

	c.key = strings.TrimSpace(c.key)
	if c.key == "" {
		return condition{}, fmt.Errorf("invalid tag condition %q", s)
	}

	for i := range c.values {
		c.values[i] = strings.TrimSpace(c.values[i])
	}

	return c, nil
}

// Matches reports whether e satisfies the filter.
func (f Filter) Matches(e model.Element) bool {
	if len(f.types) > 0 && !slices.Contains(f.types, e.Key().Type) {
		return false
	}

	tags := e.GetTags()
	for _, c := range f.conditions {
		if !c.matches(tags) {
			return false
		}
	}

	return true
}
