// Copyright 2010-2025 Google LLC
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

// Package network holds the in-memory description of a retail network: the
// demand locations, customer segments and store sites of one planning run,
// together with the sparse parameters that relate them.
//
// An `Instance` is immutable once loaded. Parameters are stored as sparse
// mappings with an explicit default per parameter, and are read through
// `Lookup` rather than by indexing a map directly.
package network

import (
	"slices"
	"strings"
)

// DefaultUnreachableDistance is the distance assumed for a (location, site) pair
// that has no recorded distance. Its reciprocal is small enough to make the pair
// irrelevant to the objective.
const DefaultUnreachableDistance = 1e6

// ID identifies a location, segment or site.
type ID string

// Category classifies a store site. It is derived from the identifier prefix,
// which is the only categorization mechanism of the input data.
type Category int

// Store categories.
const (
	Uncategorized Category = iota
	Existing
	Competitor
	Potential
)

var categoryNames = map[Category]string{
	Uncategorized: "uncategorized",
	Existing:      "existing",
	Competitor:    "competitor",
	Potential:     "potential",
}

// String returns the lower case name of the category.
func (c Category) String() string {
	if n, ok := categoryNames[c]; ok {
		return n
	}
	return "unknown"
}

// Categorize returns the category encoded in the first character of `id`:
// "E" existing, "C" competitor, "P" potential.
func Categorize(id ID) Category {
	switch {
	case strings.HasPrefix(string(id), "E"):
		return Existing
	case strings.HasPrefix(string(id), "C"):
		return Competitor
	case strings.HasPrefix(string(id), "P"):
		return Potential
	}
	return Uncategorized
}

// Instance is the typed input of one planning run.
type Instance struct {
	// Locations is the set I of demand locations without a store.
	Locations []ID
	// Segments is the set S of customer segments.
	Segments []ID
	// Sites is the set M of all store sites, of every category.
	Sites []ID
	// Candidates is the set J. It is expected to equal the potential subset of
	// Sites; this is a property of the input data and is not enforced.
	Candidates []ID

	// Demand is h[i, s], defaulting to 0.
	Demand *Param2
	// Distance is d[i, j], defaulting to the unreachable distance.
	Distance *Param2
	// BaselineUtility is v0[i], the utility of not buying at one of our stores.
	// TODO: feed v0 into a discrete-choice capture model once product settles
	// on the utility formulation; the linearized objective does not read it.
	BaselineUtility *Param1
}

// SitesOf returns the sites of category `c`, in the order of `Sites`.
func (in *Instance) SitesOf(c Category) []ID {
	var out []ID
	for _, id := range in.Sites {
		if Categorize(id) == c {
			out = append(out, id)
		}
	}
	return out
}

// Potential returns the potential new-store sites, in the order of `Sites`.
func (in *Instance) Potential() []ID { return in.SitesOf(Potential) }

// Existing returns our existing stores.
func (in *Instance) Existing() []ID { return in.SitesOf(Existing) }

// Competitors returns the competitor stores.
func (in *Instance) Competitors() []ID { return in.SitesOf(Competitor) }

// CandidateMismatch returns the ids that appear in exactly one of `Candidates`
// and the potential subset of `Sites`, sorted.
func (in *Instance) CandidateMismatch() []ID {
	pot := make(map[ID]bool)
	for _, id := range in.Potential() {
		pot[id] = true
	}
	cand := make(map[ID]bool)
	for _, id := range in.Candidates {
		cand[id] = true
	}
	var out []ID
	for id := range pot {
		if !cand[id] {
			out = append(out, id)
		}
	}
	for id := range cand {
		if !pot[id] {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}
