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

package network

import (
	"errors"
	"fmt"
	"math"
)

// ConsistencyError reports a structural mismatch in the input data, such as a
// distance to a site that is not in the site set, or a negative demand weight.
type ConsistencyError struct {
	Table  string
	Key    string
	Reason string
}

func (e *ConsistencyError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("data consistency: %s: %s", e.Table, e.Reason)
	}
	return fmt.Sprintf("data consistency: %s %s: %s", e.Table, e.Key, e.Reason)
}

// Validate checks the structural consistency of the instance. All violations are
// returned, joined with errors.Join; each one is a *ConsistencyError.
//
// Distance values are not checked here: whether a distance is usable depends on
// whether the objective references it, which is decided when the model is built.
func (in *Instance) Validate() error {
	var errs []error
	add := func(table, key, reason string) {
		errs = append(errs, &ConsistencyError{Table: table, Key: key, Reason: reason})
	}

	locations := indexSet("I", in.Locations, add)
	segments := indexSet("S", in.Segments, add)
	sites := indexSet("M", in.Sites, add)
	indexSet("J", in.Candidates, add)

	for _, id := range in.Sites {
		if Categorize(id) == Uncategorized {
			add("M", string(id), `site id has no category prefix ("E", "C" or "P")`)
		}
	}

	if in.Demand != nil {
		for _, k := range in.Demand.Keys() {
			v, _ := in.Demand.Get(k.A, k.B)
			key := fmt.Sprintf("(%s, %s)", k.A, k.B)
			if !locations[k.A] {
				add("h_is", key, "location not in set I")
			}
			if !segments[k.B] {
				add("h_is", key, "segment not in set S")
			}
			if v < 0 {
				add("h_is", key, fmt.Sprintf("negative demand weight %v", v))
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				add("h_is", key, fmt.Sprintf("demand weight %v is not finite", v))
			}
		}
	}

	if in.Distance != nil {
		for _, k := range in.Distance.Keys() {
			key := fmt.Sprintf("(%s, %s)", k.A, k.B)
			if !locations[k.A] {
				add("d_ij", key, "location not in set I")
			}
			if !sites[k.B] {
				add("d_ij", key, "site not in set M")
			}
		}
	}

	if in.BaselineUtility != nil {
		for _, k := range in.BaselineUtility.Keys() {
			if !locations[k] {
				add("V_j=0", string(k), "location not in set I")
			}
		}
	}

	return errors.Join(errs...)
}

func indexSet(table string, ids []ID, add func(table, key, reason string)) map[ID]bool {
	seen := make(map[ID]bool, len(ids))
	for _, id := range ids {
		if id == "" {
			add(table, "", "empty identifier")
			continue
		}
		if seen[id] {
			add(table, string(id), "duplicate identifier")
		}
		seen[id] = true
	}
	return seen
}
