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
	"fmt"
	"slices"
)

// Pair is the key of a two-index parameter.
type Pair struct {
	A, B ID
}

// Param2 is a sparse parameter indexed by two ids. Absent pairs read as the
// default value given at construction.
type Param2 struct {
	name   string
	values map[Pair]float64
	def    float64
}

// NewParam2 creates an empty sparse parameter with the given default.
func NewParam2(name string, def float64) *Param2 {
	return &Param2{name: name, values: make(map[Pair]float64), def: def}
}

// Name returns the name of the parameter.
func (p *Param2) Name() string { return p.name }

// Default returns the value read for absent pairs.
func (p *Param2) Default() float64 { return p.def }

// Set records the value for (a, b). Recording the same pair twice is an error.
func (p *Param2) Set(a, b ID, v float64) error {
	k := Pair{a, b}
	if _, ok := p.values[k]; ok {
		return &ConsistencyError{Table: p.name, Key: fmt.Sprintf("(%s, %s)", a, b), Reason: "duplicate entry"}
	}
	p.values[k] = v
	return nil
}

// Lookup returns the value for (a, b), or the default if none was recorded.
func (p *Param2) Lookup(a, b ID) float64 {
	if v, ok := p.values[Pair{a, b}]; ok {
		return v
	}
	return p.def
}

// Get returns the recorded value for (a, b) and whether one was recorded.
func (p *Param2) Get(a, b ID) (float64, bool) {
	v, ok := p.values[Pair{a, b}]
	return v, ok
}

// Len returns the number of recorded pairs.
func (p *Param2) Len() int { return len(p.values) }

// Keys returns the recorded pairs sorted by (A, B).
func (p *Param2) Keys() []Pair {
	keys := make([]Pair, 0, len(p.values))
	for k := range p.values {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(x, y Pair) int {
		if x.A != y.A {
			if x.A < y.A {
				return -1
			}
			return 1
		}
		if x.B < y.B {
			return -1
		}
		if x.B > y.B {
			return 1
		}
		return 0
	})
	return keys
}

// Param1 is a sparse parameter indexed by a single id.
type Param1 struct {
	name   string
	values map[ID]float64
	def    float64
}

// NewParam1 creates an empty sparse parameter with the given default.
func NewParam1(name string, def float64) *Param1 {
	return &Param1{name: name, values: make(map[ID]float64), def: def}
}

// Name returns the name of the parameter.
func (p *Param1) Name() string { return p.name }

// Set records the value for `a`. Recording the same id twice is an error.
func (p *Param1) Set(a ID, v float64) error {
	if _, ok := p.values[a]; ok {
		return &ConsistencyError{Table: p.name, Key: string(a), Reason: "duplicate entry"}
	}
	p.values[a] = v
	return nil
}

// Lookup returns the value for `a`, or the default.
func (p *Param1) Lookup(a ID) float64 {
	if v, ok := p.values[a]; ok {
		return v
	}
	return p.def
}

// Len returns the number of recorded ids.
func (p *Param1) Len() int { return len(p.values) }

// Keys returns the recorded ids, sorted.
func (p *Param1) Keys() []ID {
	keys := make([]ID, 0, len(p.values))
	for k := range p.values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
