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

// Package milp offers a small API to build mixed-integer linear models.
//
// The `Builder` struct accumulates variables, constraints and the objective, and
// `Builder.Model` returns an immutable `Model` value that can be evaluated,
// exported in CPLEX LP format, or handed to a solver.
// The `Var` struct is a reference to a variable of a specific builder, and the
// `LinearExpr` struct provides helper methods for creating constraints and the
// objective from expressions with many variables and coefficients.
package milp

import (
	"errors"
	"fmt"
	"math"
	"slices"

	log "github.com/golang/glog"
)

// ErrMixedModels holds the error when elements added to a model are different.
var ErrMixedModels = errors.New("elements are not part of the same model")

type (
	// VarIndex is the index of a variable in the model.
	VarIndex int32
	// ConstrIndex is the index of a constraint in the model.
	ConstrIndex int32
)

// Sense is the optimization direction of the objective.
type Sense int

// Objective senses.
const (
	Minimize Sense = iota
	Maximize
)

func (s Sense) String() string {
	if s == Maximize {
		return "maximize"
	}
	return "minimize"
}

// Term is one `coeff * var` product of a linear expression.
type Term struct {
	Var   VarIndex
	Coeff float64
}

// LinearExpr is a container for a linear expression.
type LinearExpr struct {
	varCoeffs []varCoeff
	offset    float64
}

type varCoeff struct {
	ind   VarIndex
	coeff float64
	b     *Builder
}

// NewLinearExpr creates a new empty LinearExpr.
func NewLinearExpr() *LinearExpr {
	return &LinearExpr{}
}

// NewConstant creates and returns a LinearExpr containing the constant `c`.
func NewConstant(c float64) *LinearExpr {
	return &LinearExpr{offset: c}
}

// Add adds the variable to the LinearExpr and returns itself.
func (l *LinearExpr) Add(v Var) *LinearExpr {
	return l.AddTerm(v, 1)
}

// AddConstant adds the constant to the LinearExpr and returns itself.
func (l *LinearExpr) AddConstant(c float64) *LinearExpr {
	l.offset += c
	return l
}

// AddTerm adds the variable with the given coefficient to the LinearExpr and returns itself.
func (l *LinearExpr) AddTerm(v Var, coeff float64) *LinearExpr {
	l.varCoeffs = append(l.varCoeffs, varCoeff{ind: v.ind, coeff: coeff, b: v.b})
	return l
}

// AddSum adds the sum of the variables to the LinearExpr and returns itself.
func (l *LinearExpr) AddSum(vs ...Var) *LinearExpr {
	for _, v := range vs {
		l.Add(v)
	}
	return l
}

// AddWeightedSum adds the variables with the corresponding coefficients to the LinearExpr
// and returns itself.
func (l *LinearExpr) AddWeightedSum(vs []Var, coeffs []float64) *LinearExpr {
	if len(coeffs) != len(vs) {
		log.Fatalf("vs and coeffs must be the same length: %v != %v", len(vs), len(coeffs))
	}
	for i, v := range vs {
		l.AddTerm(v, coeffs[i])
	}
	return l
}

// Offset returns the constant part of the expression.
func (l *LinearExpr) Offset() float64 { return l.offset }

// compile merges repeated variables and returns the terms sorted by variable index.
// Terms whose merged coefficient is zero are dropped.
func (l *LinearExpr) compile() []Term {
	sums := make(map[VarIndex]float64, len(l.varCoeffs))
	for _, vc := range l.varCoeffs {
		sums[vc.ind] += vc.coeff
	}
	terms := make([]Term, 0, len(sums))
	for ind, c := range sums {
		if c != 0 {
			terms = append(terms, Term{Var: ind, Coeff: c})
		}
	}
	slices.SortFunc(terms, func(a, b Term) int { return int(a.Var) - int(b.Var) })
	return terms
}

// Var is a reference to a variable in the model.
type Var struct {
	ind VarIndex
	b   *Builder
}

// Index returns the index of the variable.
func (v Var) Index() VarIndex {
	return v.ind
}

// Name returns the name of the variable.
func (v Var) Name() string {
	return v.b.vars[v.ind].Name
}

// WithName sets the name of the variable.
func (v Var) WithName(s string) Var {
	v.b.vars[v.ind].Name = s
	return v
}

// Constraint is a reference to a constraint in the model.
type Constraint struct {
	ind ConstrIndex
	b   *Builder
}

// Index returns the index of the constraint.
func (c Constraint) Index() ConstrIndex {
	return c.ind
}

// Name returns the name of the constraint.
func (c Constraint) Name() string {
	return c.b.constraints[c.ind].Name
}

// WithName sets the name of the constraint.
func (c Constraint) WithName(s string) Constraint {
	c.b.constraints[c.ind].Name = s
	return c
}

// VarDef describes a variable of a built model.
type VarDef struct {
	Name    string
	Bounds  Interval
	Integer bool
}

// ConstraintDef describes the row `Bounds.Lower <= sum(Terms) <= Bounds.Upper`.
type ConstraintDef struct {
	Name   string
	Terms  []Term
	Bounds Interval
}

// Objective is the linear objective of a model.
type Objective struct {
	Sense  Sense
	Terms  []Term
	Offset float64
}

// Builder accumulates the variables, constraints and objective of a model.
type Builder struct {
	name        string
	vars        []VarDef
	constraints []ConstraintDef
	objective   Objective
	// The first and only the first error is reported in Model.
	err error
}

// NewBuilder creates and returns a new model Builder.
func NewBuilder(name string) *Builder {
	return &Builder{name: name}
}

// checkSameModelAndSetErrorf returns true if `b` and `b2` point to the same Builder.
// If false, an error with the error message `format` is set on `b` if `b.err`
// is nil.
func (b *Builder) checkSameModelAndSetErrorf(b2 *Builder, format string, a ...any) bool {
	if b == b2 {
		return true
	}
	args := make([]any, len(a)+1)
	copy(args, a)
	args[len(a)] = ErrMixedModels
	err := fmt.Errorf(format+": %w", args...)
	log.Errorf("%v", err)
	if b.err == nil {
		b.err = err
	}
	return false
}

func (b *Builder) setErrorf(format string, a ...any) {
	err := fmt.Errorf(format, a...)
	log.Errorf("%v", err)
	if b.err == nil {
		b.err = err
	}
}

// NewVar creates a new variable with the given bounds.
func (b *Builder) NewVar(bounds Interval, integer bool) Var {
	v := Var{ind: VarIndex(len(b.vars)), b: b}
	b.vars = append(b.vars, VarDef{Bounds: bounds, Integer: integer})
	return v
}

// NewBinaryVar creates a new integer variable with domain `{0,1}`.
func (b *Builder) NewBinaryVar() Var {
	return b.NewVar(Between(0, 1), true)
}

// NewContinuousVar creates a new continuous variable in `[lb,ub]`.
func (b *Builder) NewContinuousVar(lb, ub float64) Var {
	return b.NewVar(Between(lb, ub), false)
}

func (b *Builder) resolve(expr *LinearExpr, what string) ([]Term, float64, bool) {
	for _, vc := range expr.varCoeffs {
		if !b.checkSameModelAndSetErrorf(vc.b, "invalid variable %v added to %s", vc.ind, what) {
			return nil, 0, false
		}
		if math.IsNaN(vc.coeff) || math.IsInf(vc.coeff, 0) {
			b.setErrorf("coefficient %v of variable %v in %s is not finite", vc.coeff, vc.ind, what)
			return nil, 0, false
		}
	}
	return expr.compile(), expr.offset, true
}

// AddConstraint adds the row `bounds.Lower <= expr <= bounds.Upper`. The constant
// part of `expr` is moved to the bounds.
func (b *Builder) AddConstraint(expr *LinearExpr, bounds Interval) Constraint {
	c := Constraint{ind: ConstrIndex(len(b.constraints)), b: b}
	terms, offset, ok := b.resolve(expr, fmt.Sprintf("constraint %v", c.ind))
	if math.IsNaN(bounds.Lower) || math.IsNaN(bounds.Upper) {
		b.setErrorf("constraint %v has NaN bounds", c.ind)
	}
	b.constraints = append(b.constraints, ConstraintDef{Terms: terms, Bounds: bounds.Offset(-offset)})
	if !ok {
		b.constraints[c.ind].Terms = nil
	}
	return c
}

// AddLessOrEqual adds `expr <= ub`.
func (b *Builder) AddLessOrEqual(expr *LinearExpr, ub float64) Constraint {
	return b.AddConstraint(expr, AtMost(ub))
}

// AddGreaterOrEqual adds `expr >= lb`.
func (b *Builder) AddGreaterOrEqual(expr *LinearExpr, lb float64) Constraint {
	return b.AddConstraint(expr, AtLeast(lb))
}

// AddEquality adds `expr == rhs`.
func (b *Builder) AddEquality(expr *LinearExpr, rhs float64) Constraint {
	return b.AddConstraint(expr, Exactly(rhs))
}

func (b *Builder) setObjective(sense Sense, obj *LinearExpr) {
	terms, offset, ok := b.resolve(obj, "the objective")
	if !ok {
		return
	}
	b.objective = Objective{Sense: sense, Terms: terms, Offset: offset}
}

// Minimize sets a linear minimization objective.
func (b *Builder) Minimize(obj *LinearExpr) {
	b.setObjective(Minimize, obj)
}

// Maximize sets a linear maximization objective.
func (b *Builder) Maximize(obj *LinearExpr) {
	b.setObjective(Maximize, obj)
}

// Model returns an immutable snapshot of the built model. Later calls on the
// Builder do not affect models already returned.
//
// Model returns an error when invalid parameters have been used during model
// building (e.g. passing variables from other builders, non-finite
// coefficients), or when two variables or two constraints share a non-empty name.
func (b *Builder) Model() (*Model, error) {
	if b.err != nil {
		return nil, b.err
	}
	seen := make(map[string]bool)
	for i, v := range b.vars {
		if math.IsNaN(v.Bounds.Lower) || math.IsNaN(v.Bounds.Upper) {
			return nil, fmt.Errorf("variable %v has NaN bounds", i)
		}
		if v.Name == "" {
			continue
		}
		if seen[v.Name] {
			return nil, fmt.Errorf("variable with name %s already exists", v.Name)
		}
		seen[v.Name] = true
	}
	clear(seen)
	for _, c := range b.constraints {
		if c.Name == "" {
			continue
		}
		if seen[c.Name] {
			return nil, fmt.Errorf("constraint with name %s already exists", c.Name)
		}
		seen[c.Name] = true
	}

	m := &Model{
		name:      b.name,
		vars:      slices.Clone(b.vars),
		objective: cloneObjective(b.objective),
	}
	m.constraints = make([]ConstraintDef, len(b.constraints))
	for i, c := range b.constraints {
		m.constraints[i] = cloneConstraint(c)
	}
	return m, nil
}

func cloneObjective(o Objective) Objective {
	o.Terms = slices.Clone(o.Terms)
	return o
}

func cloneConstraint(c ConstraintDef) ConstraintDef {
	c.Terms = slices.Clone(c.Terms)
	return c
}
