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

package milp

import (
	"fmt"
	"math"
)

// Interval stores the closed interval `[Lower,Upper]` over the reals. Either end
// may be infinite. If `Lower` is greater than `Upper`, the interval is empty.
type Interval struct {
	Lower float64
	Upper float64
}

// Unbounded returns `(-inf,+inf)`.
func Unbounded() Interval {
	return Interval{math.Inf(-1), math.Inf(1)}
}

// AtMost returns `(-inf,ub]`.
func AtMost(ub float64) Interval {
	return Interval{math.Inf(-1), ub}
}

// AtLeast returns `[lb,+inf)`.
func AtLeast(lb float64) Interval {
	return Interval{lb, math.Inf(1)}
}

// Between returns `[lb,ub]`.
func Between(lb, ub float64) Interval {
	return Interval{lb, ub}
}

// Exactly returns the singleton interval `[v,v]`.
func Exactly(v float64) Interval {
	return Interval{v, v}
}

// IsEmpty reports whether no value lies in the interval. NaN bounds make the
// interval empty.
func (i Interval) IsEmpty() bool {
	return !(i.Lower <= i.Upper)
}

// HasLower reports whether the lower end is finite.
func (i Interval) HasLower() bool { return !math.IsInf(i.Lower, -1) }

// HasUpper reports whether the upper end is finite.
func (i Interval) HasUpper() bool { return !math.IsInf(i.Upper, 1) }

// IsFixed reports whether the interval is a single value.
func (i Interval) IsFixed() bool { return i.Lower == i.Upper }

// Contains reports whether `v` lies in the interval widened by `tol` on both ends.
func (i Interval) Contains(v, tol float64) bool {
	return v >= i.Lower-tol && v <= i.Upper+tol
}

// Intersect returns the intersection of the two intervals.
func (i Interval) Intersect(o Interval) Interval {
	return Interval{math.Max(i.Lower, o.Lower), math.Min(i.Upper, o.Upper)}
}

// Offset shifts both ends by `delta`. Infinite ends stay infinite.
func (i Interval) Offset(delta float64) Interval {
	return Interval{i.Lower + delta, i.Upper + delta}
}

func (i Interval) String() string {
	lb, ub := "[", "]"
	if !i.HasLower() {
		lb = "("
	}
	if !i.HasUpper() {
		ub = ")"
	}
	return fmt.Sprintf("%s%v,%v%s", lb, i.Lower, i.Upper, ub)
}
