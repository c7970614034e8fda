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

package solver

import (
	"context"
	"errors"
	"fmt"
	"math"

	log "github.com/golang/glog"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/myerscody16/siteplan/milp"
)

// simplexTolerance is passed to gonum's simplex as its pivoting tolerance.
const simplexTolerance = 1e-10

// simplexBackend solves the LP relaxation of the model with gonum's simplex
// method. Integrality is not enforced: the relaxation answer is accepted only
// when it is already integral, which holds for models whose constraint
// matrix is totally unimodular such as a single cardinality budget.
type simplexBackend struct{}

type simplexResult struct {
	x   []float64
	err error
}

func (simplexBackend) solve(ctx context.Context, m *milp.Model) (*solution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sf, err := newStandardForm(m)
	if err != nil {
		return nil, err
	}
	if sf.infeasible {
		return &solution{status: StatusInfeasible}, nil
	}

	done := make(chan simplexResult, 1)
	go func() {
		x, err := sf.solve()
		done <- simplexResult{x: x, err: err}
	}()

	// gonum's simplex cannot be interrupted; a canceled solve is abandoned and
	// its goroutine exits on its own.
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		if errors.Is(r.err, lp.ErrInfeasible) {
			return &solution{status: StatusInfeasible}, nil
		}
		if r.err != nil {
			return nil, r.err
		}
		return &solution{status: StatusOptimal, values: r.x}, nil
	}
}

// columnMap expresses model variable x as base + sign*y[pos] - y[neg] with
// y >= 0. neg is -1 unless the variable is free.
type columnMap struct {
	base float64
	sign float64
	pos  int
	neg  int
}

// standardForm is the model rewritten as
//
//	minimize c'y  subject to  A y = b, y >= 0
//
// with one slack column per inequality row and per finite upper bound.
type standardForm struct {
	cols []columnMap
	c    []float64
	// rows is dense and grows as columns are added.
	rows [][]float64
	b    []float64

	// slacks holds the +1 slack column of each row, or -1.
	slacks     []int
	infeasible bool
}

func (sf *standardForm) newColumn(cost float64) int {
	sf.c = append(sf.c, cost)
	for i := range sf.rows {
		sf.rows[i] = append(sf.rows[i], 0)
	}
	return len(sf.c) - 1
}

func (sf *standardForm) newRow() int {
	sf.rows = append(sf.rows, make([]float64, len(sf.c)))
	sf.b = append(sf.b, 0)
	sf.slacks = append(sf.slacks, -1)
	return len(sf.rows) - 1
}

// addRow adds the row sum coeffs*x (in model variables) `op` rhs, where op
// is -1 for <=, +1 for >= and 0 for =.
func (sf *standardForm) addRow(terms []milp.Term, op int, rhs float64) {
	r := sf.newRow()
	for _, t := range terms {
		cm := sf.cols[t.Var]
		rhs -= t.Coeff * cm.base
		sf.rows[r][cm.pos] += t.Coeff * cm.sign
		if cm.neg >= 0 {
			sf.rows[r][cm.neg] -= t.Coeff
		}
	}
	if op != 0 {
		s := sf.newColumn(0)
		sf.rows[r][s] = -float64(op)
		if op < 0 {
			sf.slacks[r] = s
		}
	}
	sf.b[r] = rhs
}

func newStandardForm(m *milp.Model) (*standardForm, error) {
	obj := m.Objective()
	dir := 1.0
	if obj.Sense == milp.Maximize {
		dir = -1
	}
	cost := make([]float64, m.NumVars())
	for _, t := range obj.Terms {
		cost[t.Var] = dir * t.Coeff
	}

	sf := &standardForm{}
	type boundRow struct {
		v  milp.VarIndex
		ub float64
	}
	var boundRows []boundRow
	for i, v := range m.Vars() {
		b := v.Bounds
		if b.IsEmpty() {
			sf.infeasible = true
			return sf, nil
		}
		switch {
		case b.HasLower():
			cm := columnMap{base: b.Lower, sign: 1, neg: -1}
			cm.pos = sf.newColumn(cost[i])
			if b.HasUpper() {
				boundRows = append(boundRows, boundRow{v: milp.VarIndex(i), ub: b.Upper})
			}
			sf.cols = append(sf.cols, cm)
		case b.HasUpper():
			cm := columnMap{base: b.Upper, sign: -1, neg: -1}
			cm.pos = sf.newColumn(-cost[i])
			sf.cols = append(sf.cols, cm)
		default:
			cm := columnMap{sign: 1}
			cm.pos = sf.newColumn(cost[i])
			cm.neg = sf.newColumn(-cost[i])
			sf.cols = append(sf.cols, cm)
		}
	}
	for _, br := range boundRows {
		sf.addRow([]milp.Term{{Var: br.v, Coeff: 1}}, -1, br.ub)
	}

	for _, c := range m.Constraints() {
		b := c.Bounds
		if b.IsEmpty() {
			sf.infeasible = true
			return sf, nil
		}
		if len(c.Terms) == 0 {
			if !b.Contains(0, FeasibilityTolerance) {
				sf.infeasible = true
				return sf, nil
			}
			continue
		}
		switch {
		case b.IsFixed():
			sf.addRow(c.Terms, 0, b.Lower)
		default:
			if b.HasUpper() {
				sf.addRow(c.Terms, -1, b.Upper)
			}
			if b.HasLower() {
				sf.addRow(c.Terms, 1, b.Lower)
			}
		}
	}
	return sf, nil
}

// solve runs the simplex method and maps the answer back to model variables.
func (sf *standardForm) solve() (x []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("gonum simplex panicked: %v", r)
		}
	}()

	y := make([]float64, len(sf.c))
	used := sf.usedColumns()
	var cols []int
	for j, u := range used {
		switch {
		case u:
			cols = append(cols, j)
		case sf.c[j] < 0:
			return nil, errors.New("objective is unbounded")
		}
	}

	if len(sf.rows) > 0 {
		if len(sf.rows) > len(cols) {
			return nil, fmt.Errorf("%d equality rows for %d columns", len(sf.rows), len(cols))
		}
		c := make([]float64, len(cols))
		a := mat.NewDense(len(sf.rows), len(cols), nil)
		for k, j := range cols {
			c[k] = sf.c[j]
			for r := range sf.rows {
				a.Set(r, k, sf.rows[r][j])
			}
		}
		log.V(1).Infof("simplex on %d rows and %d columns", len(sf.rows), len(cols))
		b := append([]float64(nil), sf.b...)
		_, opt, err := lp.Simplex(c, a, b, simplexTolerance, sf.initialBasis(cols))
		if err != nil {
			return nil, err
		}
		for k, j := range cols {
			y[j] = opt[k]
		}
	}

	x = make([]float64, len(sf.cols))
	for i, cm := range sf.cols {
		x[i] = cm.base + cm.sign*y[cm.pos]
		if cm.neg >= 0 {
			x[i] -= y[cm.neg]
		}
	}
	return x, nil
}

// usedColumns reports the columns with a nonzero entry in some row. Unused
// columns sit at zero unless their cost is negative.
func (sf *standardForm) usedColumns() []bool {
	used := make([]bool, len(sf.c))
	for _, row := range sf.rows {
		for j, v := range row {
			if v != 0 {
				used[j] = true
			}
		}
	}
	return used
}

// initialBasis returns the slack columns as a feasible starting basis when
// every row has a +1 slack and a non-negative right hand side, and nil
// otherwise, leaving gonum to find a basis itself.
func (sf *standardForm) initialBasis(cols []int) []int {
	index := make(map[int]int, len(cols))
	for k, j := range cols {
		index[j] = k
	}
	basis := make([]int, len(sf.rows))
	for r, s := range sf.slacks {
		if s < 0 || sf.b[r] < 0 || math.IsNaN(sf.b[r]) {
			return nil
		}
		basis[r] = index[s]
	}
	return basis
}
