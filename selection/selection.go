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

// Package selection builds the store site selection model: one binary decision
// per potential site, a budget on the number of opened sites, and an objective
// that sums the demand captured by opened sites, weighted by inverse distance.
//
// The builder is a pure function of its Input. The objective
//
//	sum_i sum_s h[i,s] * sum_j (1/d[i,j]) * x[j]
//
// is linear in x, so the coefficients of every x[j] are precomputed and the
// model stays solvable by any MILP solver.
package selection

import (
	"fmt"
	"math"

	log "github.com/golang/glog"
	"golang.org/x/sync/errgroup"

	"github.com/myerscody16/siteplan/milp"
	"github.com/myerscody16/siteplan/network"
)

// BudgetConstraintName is the name of the budget row in the built model.
const BudgetConstraintName = "budget"

// NumericError reports a distance that cannot be inverted, or a demand weight
// that is not a finite number, for a pair the objective references.
type NumericError struct {
	Location network.ID
	// Site is empty when the error is about a demand weight.
	Site    network.ID
	Segment network.ID
	Value   float64
	Reason  string
}

func (e *NumericError) Error() string {
	if e.Site == "" {
		return fmt.Sprintf("numeric error: demand weight h[%s, %s] = %v: %s", e.Location, e.Segment, e.Value, e.Reason)
	}
	return fmt.Sprintf("numeric error: distance d[%s, %s] = %v: %s", e.Location, e.Site, e.Value, e.Reason)
}

// Input holds the sets and parameters the model is built from.
type Input struct {
	Locations []network.ID
	Segments  []network.ID
	// Potential lists the candidate sites; it fixes the variable order.
	Potential []network.ID
	Demand    *network.Param2
	Distance  *network.Param2
	Budget    int
	// Parallelism bounds the number of goroutines computing coefficients.
	// Values below 2 compute them on the calling goroutine.
	Parallelism int
}

// InputFromInstance returns the Input for `in` with the given budget.
func InputFromInstance(in *network.Instance, budget int) Input {
	return Input{
		Locations: in.Locations,
		Segments:  in.Segments,
		Potential: in.Potential(),
		Demand:    in.Demand,
		Distance:  in.Distance,
		Budget:    budget,
	}
}

// Model is a built site selection model.
type Model struct {
	// MILP is the formal model. Variable k is the decision for Sites[k].
	MILP *milp.Model
	// Sites are the potential sites, in variable order.
	Sites []network.ID
	// Coefficients are the objective coefficients, in variable order.
	Coefficients []float64
	Budget       int
}

// OpenedSites returns the sites whose value in `assignment` exceeds 0.5, in
// variable order. The threshold absorbs solver tolerance on binary values.
func (m *Model) OpenedSites(assignment []float64) []network.ID {
	var out []network.ID
	for k, id := range m.Sites {
		if k < len(assignment) && assignment[k] > 0.5 {
			out = append(out, id)
		}
	}
	return out
}

// Build returns the site selection model for `in`.
//
// It fails with a *network.ConsistencyError for a negative budget or a negative
// demand weight, and with a *NumericError when a distance that the objective
// references is zero, negative or not finite, or a demand weight is not finite.
// A pair is referenced when its location has positive demand in some segment.
func Build(in Input) (*Model, error) {
	if in.Budget < 0 {
		return nil, &network.ConsistencyError{Table: "config", Key: "budget", Reason: fmt.Sprintf("negative budget %d", in.Budget)}
	}
	coeffs, err := Coefficients(in)
	if err != nil {
		return nil, err
	}

	b := milp.NewBuilder("retail_site_selection")
	vars := make([]milp.Var, len(in.Potential))
	for k, id := range in.Potential {
		vars[k] = b.NewBinaryVar().WithName(string(id))
	}
	b.Maximize(NewObjective(vars, coeffs))
	b.AddLessOrEqual(NewBudgetExpr(vars), float64(in.Budget)).WithName(BudgetConstraintName)

	m, err := b.Model()
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate the site selection model: %w", err)
	}
	log.V(1).Infof("built site selection model: %d sites, %d locations, %d segments, budget %d",
		len(in.Potential), len(in.Locations), len(in.Segments), in.Budget)
	return &Model{
		MILP:         m,
		Sites:        append([]network.ID(nil), in.Potential...),
		Coefficients: coeffs,
		Budget:       in.Budget,
	}, nil
}

// NewObjective returns sum_k coeffs[k] * vars[k].
func NewObjective(vars []milp.Var, coeffs []float64) *milp.LinearExpr {
	return milp.NewLinearExpr().AddWeightedSum(vars, coeffs)
}

// NewBudgetExpr returns sum_k vars[k], the number of opened sites.
func NewBudgetExpr(vars []milp.Var) *milp.LinearExpr {
	return milp.NewLinearExpr().AddSum(vars...)
}

// Coefficients returns, for every potential site j, the objective coefficient
// sum_i sum_s h[i,s] / d[i,j]. Partial sums are added in location order, so
// the result does not depend on Parallelism.
func Coefficients(in Input) ([]float64, error) {
	partials := make([][]float64, len(in.Locations))
	if in.Parallelism < 2 {
		for n, i := range in.Locations {
			p, err := locationCoefficients(in, i)
			if err != nil {
				return nil, err
			}
			partials[n] = p
		}
	} else {
		// Errors are kept per location so that the first one in location
		// order is reported, as in the sequential path.
		errs := make([]error, len(in.Locations))
		var g errgroup.Group
		g.SetLimit(in.Parallelism)
		for n, i := range in.Locations {
			g.Go(func() error {
				partials[n], errs[n] = locationCoefficients(in, i)
				return nil
			})
		}
		g.Wait()
		for _, err := range errs {
			if err != nil {
				return nil, err
			}
		}
	}

	coeffs := make([]float64, len(in.Potential))
	for _, p := range partials {
		for k, c := range p {
			coeffs[k] += c
		}
	}
	return coeffs, nil
}

// locationCoefficients returns the contribution of demand location `i` to
// every potential site coefficient.
func locationCoefficients(in Input, i network.ID) ([]float64, error) {
	p := make([]float64, len(in.Potential))
	for _, s := range in.Segments {
		h := in.Demand.Lookup(i, s)
		if math.IsNaN(h) || math.IsInf(h, 0) {
			return nil, &NumericError{Location: i, Segment: s, Value: h, Reason: "not a finite number"}
		}
		if h < 0 {
			return nil, &network.ConsistencyError{Table: "h_is", Key: fmt.Sprintf("(%s, %s)", i, s), Reason: fmt.Sprintf("negative demand weight %v", h)}
		}
		if h == 0 {
			continue
		}
		for k, j := range in.Potential {
			d := in.Distance.Lookup(i, j)
			if err := checkDistance(i, j, d); err != nil {
				return nil, err
			}
			p[k] += h * (1 / d)
		}
	}
	return p, nil
}

func checkDistance(i, j network.ID, d float64) error {
	switch {
	case d == 0:
		return &NumericError{Location: i, Site: j, Value: d, Reason: "zero distance has no reciprocal"}
	case d < 0:
		return &NumericError{Location: i, Site: j, Value: d, Reason: "distance must be positive"}
	case math.IsNaN(d) || math.IsInf(d, 0):
		return &NumericError{Location: i, Site: j, Value: d, Reason: "distance is not a finite number"}
	}
	return nil
}
