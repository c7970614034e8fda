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

// The two_site_sample command builds and solves a small site selection
// instance in-process and prints the stores to open.
package main

import (
	"context"
	"fmt"

	log "github.com/golang/glog"

	"github.com/myerscody16/siteplan/network"
	"github.com/myerscody16/siteplan/selection"
	"github.com/myerscody16/siteplan/solver"
)

func twoSiteSample() error {
	// Two demand locations of a single segment, two candidate sites.
	demand := network.NewParam2("h_is", 0)
	distance := network.NewParam2("d_ij", network.DefaultUnreachableDistance)
	for _, e := range []struct {
		p    *network.Param2
		a, b network.ID
		v    float64
	}{
		{demand, "A", "S1", 10},
		{demand, "B", "S1", 5},
		{distance, "A", "P1", 2},
		{distance, "A", "P2", 4},
		{distance, "B", "P1", 5},
		{distance, "B", "P2", 1},
	} {
		if err := e.p.Set(e.a, e.b, e.v); err != nil {
			return err
		}
	}

	m, err := selection.Build(selection.Input{
		Locations: []network.ID{"A", "B"},
		Segments:  []network.ID{"S1"},
		Potential: []network.ID{"P1", "P2"},
		Demand:    demand,
		Distance:  distance,
		Budget:    1,
	})
	if err != nil {
		return fmt.Errorf("failed to instantiate the site selection model: %w", err)
	}

	// Solve.
	res := solver.Solve(context.Background(), m.MILP, solver.Config{Backend: solver.BackendSimplex})
	if res.Err != nil {
		return fmt.Errorf("failed to solve the model: %w", res.Err)
	}

	fmt.Printf("Status: %v\n", res.Status)
	if res.Status == solver.StatusOptimal {
		// This should print out:
		// Captured demand: 7.5
		// Open P2
		fmt.Printf("Captured demand: %v\n", res.Objective)
		for _, id := range m.OpenedSites(res.Assignment) {
			fmt.Printf("Open %s\n", id)
		}
	}

	return nil
}

func main() {
	if err := twoSiteSample(); err != nil {
		log.Exitf("twoSiteSample returned with error: %v", err)
	}
}
