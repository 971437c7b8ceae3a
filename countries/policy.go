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

// Package countries resolves which countries a position lies in and decides
// whether a country restricted quest type may be surfaced there.
package countries

import (
	"sort"
	"strings"
)

type mode int

const (
	all mode = iota
	allExcept
	noneExcept
)

// Policy restricts a quest type to a set of countries.  The zero value
// allows every country.
type Policy struct {
	mode  mode
	codes map[string]struct{}
}

// AllCountries allows a quest type everywhere.
func AllCountries() Policy {
	return Policy{mode: all}
}

// AllCountriesExcept allows a quest type everywhere except in the given
// countries.
func AllCountriesExcept(codes ...string) Policy {
	return Policy{mode: allExcept, codes: toSet(codes)}
}

// NoCountriesExcept allows a quest type only in the given countries.
func NoCountriesExcept(codes ...string) Policy {
	return Policy{mode: noneExcept, codes: toSet(codes)}
}

// Restricted reports whether the policy depends on country data at all.
func (p Policy) Restricted() bool {
	return p.mode != all
}

// Allows reports whether a position inside the given countries satisfies the
// policy.
func (p Policy) Allows(codes []string) bool {
	switch p.mode {
	case allExcept:
		return !p.containsAny(codes)
	case noneExcept:
		return p.containsAny(codes)
	default:
		return true
	}
}

// Codes returns the sorted country codes named by the policy.
func (p Policy) Codes() []string {
	codes := make([]string, 0, len(p.codes))
	for code := range p.codes {
		codes = append(codes, code)
	}

	sort.Strings(codes)

	return codes
}

func (p Policy) String() string {
	switch p.mode {
	case allExcept:
		return "all except " + strings.Join(p.Codes(), ",")
	case noneExcept:
		return "only " + strings.Join(p.Codes(), ",")
	default:
		return "all"
	}
}

func (p Policy) containsAny(codes []string) bool {
	for _, code := range codes {
		if _, ok := p.codes[code]; ok {
			return true
		}
	}

	return false
}

func toSet(codes []string) map[string]struct{} {
	set := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		set[strings.ToUpper(strings.TrimSpace(code))] = struct{}{}
	}

	return set
}
