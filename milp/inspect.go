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
	"slices"
)

// Model is an immutable mixed-integer linear model produced by a Builder.
type Model struct {
	name        string
	vars        []VarDef
	constraints []ConstraintDef
	objective   Objective
}

// Name returns the name given to the Builder.
func (m *Model) Name() string { return m.name }

// NumVars returns the number of variables.
func (m *Model) NumVars() int { return len(m.vars) }

// NumConstraints returns the number of constraints.
func (m *Model) NumConstraints() int { return len(m.constraints) }

// Var returns the definition of variable `i`.
func (m *Model) Var(i VarIndex) VarDef { return m.vars[i] }

// Vars returns a copy of all variable definitions, in index order.
func (m *Model) Vars() []VarDef { return slices.Clone(m.vars) }

// Constraint returns a copy of the definition of constraint `i`.
func (m *Model) Constraint(i ConstrIndex) ConstraintDef { return cloneConstraint(m.constraints[i]) }

// Constraints returns a copy of all constraint definitions, in index order.
func (m *Model) Constraints() []ConstraintDef {
	out := make([]ConstraintDef, len(m.constraints))
	for i, c := range m.constraints {
		out[i] = cloneConstraint(c)
	}
	return out
}

// Objective returns a copy of the objective.
func (m *Model) Objective() Objective { return cloneObjective(m.objective) }

// IsMIP reports whether the model has at least one integer variable.
func (m *Model) IsMIP() bool {
	return slices.ContainsFunc(m.vars, func(v VarDef) bool { return v.Integer })
}

func evaluateTerms(terms []Term, x []float64) float64 {
	var sum float64
	for _, t := range terms {
		sum += t.Coeff * x[t.Var]
	}
	return sum
}

// ObjectiveValue returns the value of the objective at `x`, which holds one
// value per variable in index order.
func (m *Model) ObjectiveValue(x []float64) float64 {
	return evaluateTerms(m.objective.Terms, x) + m.objective.Offset
}

// Activity returns the value of the left hand side of constraint `i` at `x`.
func (m *Model) Activity(i ConstrIndex, x []float64) float64 {
	return evaluateTerms(m.constraints[i].Terms, x)
}

// Check returns an error describing the first violated variable bound,
// integrality requirement or constraint at `x`, or nil if `x` is feasible
// within `tol`.
func (m *Model) Check(x []float64, tol float64) error {
	if len(x) != len(m.vars) {
		return fmt.Errorf("assignment has %d values, model has %d variables", len(x), len(m.vars))
	}
	for i, v := range m.vars {
		if math.IsNaN(x[i]) {
			return fmt.Errorf("variable %s is NaN", m.varLabel(VarIndex(i)))
		}
		if !v.Bounds.Contains(x[i], tol) {
			return fmt.Errorf("variable %s = %v outside of %v", m.varLabel(VarIndex(i)), x[i], v.Bounds)
		}
		if v.Integer && math.Abs(x[i]-math.Round(x[i])) > tol {
			return fmt.Errorf("integer variable %s = %v is fractional", m.varLabel(VarIndex(i)), x[i])
		}
	}
	for i, c := range m.constraints {
		if a := m.Activity(ConstrIndex(i), x); !c.Bounds.Contains(a, tol) {
			return fmt.Errorf("constraint %s activity %v outside of %v", m.constraintLabel(ConstrIndex(i)), a, c.Bounds)
		}
	}
	return nil
}

func (m *Model) varLabel(i VarIndex) string {
	if n := m.vars[i].Name; n != "" {
		return n
	}
	return fmt.Sprintf("#%d", i)
}

func (m *Model) constraintLabel(i ConstrIndex) string {
	if n := m.constraints[i].Name; n != "" {
		return n
	}
	return fmt.Sprintf("#%d", i)
}
