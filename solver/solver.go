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

// Package solver solves milp models with an external or in-process backend and
// returns a typed result: optimal with an assignment, infeasible, or an error.
//
// Infeasibility is a normal outcome and is never reported as an error.
package solver

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	log "github.com/golang/glog"

	"github.com/myerscody16/siteplan/milp"
)

const (
	// BackendGLPK runs GLPK's glpsol executable on an LP file.
	BackendGLPK = "glpk"
	// BackendSimplex solves the LP relaxation in-process with gonum.
	BackendSimplex = "simplex"

	// IntegralityTolerance is how far an integer variable may be from the
	// nearest integer before the solution is rejected.
	IntegralityTolerance = 1e-6
	// FeasibilityTolerance applies to variable bounds and constraint activities.
	FeasibilityTolerance = 1e-6
)

// Status is the outcome of a solve.
type Status int

const (
	// StatusError means the solve failed; see Result.Err.
	StatusError Status = iota
	// StatusOptimal means an optimal assignment was found.
	StatusOptimal
	// StatusInfeasible means no assignment satisfies the constraints.
	StatusInfeasible
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "OPTIMAL"
	case StatusInfeasible:
		return "INFEASIBLE"
	case StatusError:
		return "ERROR"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Config selects and parameterizes the backend.
type Config struct {
	// Backend is BackendGLPK or BackendSimplex.
	Backend string
	// GLPSOLPath is the glpsol executable; empty means "glpsol" on PATH.
	GLPSOLPath string
	// Timeout bounds the solve; zero means no limit.
	Timeout time.Duration
	// KeepFiles keeps the scratch directory of file based backends.
	KeepFiles bool
	// WorkDir is where scratch directories are created; empty means the
	// system temporary directory.
	WorkDir string
}

// SolverError reports a solve that did not produce a usable result.
type SolverError struct {
	Backend string
	Detail  string
	Err     error
}

func (e *SolverError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("solver %s: %s", e.Backend, e.Detail)
	}
	return fmt.Sprintf("solver %s: %s: %v", e.Backend, e.Detail, e.Err)
}

func (e *SolverError) Unwrap() error { return e.Err }

// Result is the outcome of Solve.
type Result struct {
	Status Status
	// Assignment holds one value per model variable when Status is
	// StatusOptimal. Integer variables hold exact integers.
	Assignment []float64
	// Objective is the objective value of Assignment, recomputed from the model.
	Objective float64
	// Err is set when Status is StatusError.
	Err      *SolverError
	Backend  string
	Duration time.Duration
}

// solution is what a backend reports before normalization.
type solution struct {
	status Status
	values []float64
}

type backend interface {
	solve(ctx context.Context, m *milp.Model) (*solution, error)
}

func newBackend(cfg Config) (backend, error) {
	switch cfg.Backend {
	case BackendGLPK:
		path := cfg.GLPSOLPath
		if path == "" {
			path = "glpsol"
		}
		return &glpkBackend{path: path, keepFiles: cfg.KeepFiles, workDir: cfg.WorkDir}, nil
	case BackendSimplex:
		return &simplexBackend{}, nil
	}
	return nil, fmt.Errorf("unknown backend %q, want %q or %q", cfg.Backend, BackendGLPK, BackendSimplex)
}

// Solve solves `m` with the backend selected by `cfg`.
//
// The returned assignment is normalized: integer variables are snapped to
// integers, and the assignment is checked against every bound and constraint
// of `m`. A backend answer that fails these checks is a StatusError result.
func Solve(ctx context.Context, m *milp.Model, cfg Config) Result {
	start := time.Now()
	res := solve(ctx, m, cfg)
	res.Backend = cfg.Backend
	res.Duration = time.Since(start)
	if res.Err != nil {
		log.Errorf("solve of model %q failed: %v", m.Name(), res.Err)
	} else {
		log.Infof("solve of model %q with %s finished in %v: %v", m.Name(), cfg.Backend, res.Duration, res.Status)
	}
	return res
}

func solve(ctx context.Context, m *milp.Model, cfg Config) Result {
	if m.NumVars() == 0 {
		return decideEmpty(m)
	}

	be, err := newBackend(cfg)
	if err != nil {
		return errorResult(cfg.Backend, "configuration", err)
	}
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	sol, err := be.solve(ctx, m)
	if err != nil {
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			return errorResult(cfg.Backend, "timeout", err)
		case errors.Is(ctx.Err(), context.Canceled):
			return errorResult(cfg.Backend, "canceled", err)
		}
		return errorResult(cfg.Backend, "backend failure", err)
	}

	switch sol.status {
	case StatusInfeasible:
		return Result{Status: StatusInfeasible}
	case StatusOptimal:
		x, err := normalize(m, sol.values)
		if err != nil {
			return errorResult(cfg.Backend, "solution rejected", err)
		}
		return Result{Status: StatusOptimal, Assignment: x, Objective: m.ObjectiveValue(x)}
	}
	return errorResult(cfg.Backend, "backend failure", fmt.Errorf("unexpected status %v", sol.status))
}

// decideEmpty answers a model without variables: it is optimal with an empty
// assignment if every constraint accepts an activity of zero.
func decideEmpty(m *milp.Model) Result {
	if err := m.Check(nil, FeasibilityTolerance); err != nil {
		log.V(1).Infof("model %q has no variables and is infeasible: %v", m.Name(), err)
		return Result{Status: StatusInfeasible}
	}
	return Result{Status: StatusOptimal, Assignment: []float64{}, Objective: m.ObjectiveValue(nil)}
}

func errorResult(backend, detail string, err error) Result {
	return Result{Status: StatusError, Err: &SolverError{Backend: backend, Detail: detail, Err: err}}
}

// normalize snaps integer variables and checks the assignment against `m`.
func normalize(m *milp.Model, values []float64) ([]float64, error) {
	if len(values) != m.NumVars() {
		return nil, fmt.Errorf("backend returned %d values for %d variables", len(values), m.NumVars())
	}
	x := make([]float64, len(values))
	copy(x, values)
	for i, v := range m.Vars() {
		if !v.Integer {
			continue
		}
		r := math.Round(x[i])
		if math.IsNaN(r) || math.Abs(x[i]-r) > IntegralityTolerance {
			return nil, fmt.Errorf("integer variable %s = %v is not integral; use a MILP backend", label(v.Name, i), x[i])
		}
		if r == 0 {
			r = 0 // drops the sign of -0
		}
		x[i] = r
	}
	if err := m.Check(x, FeasibilityTolerance); err != nil {
		return nil, err
	}
	return x, nil
}

func label(name string, i int) string {
	if name != "" {
		return name
	}
	return fmt.Sprintf("#%d", i)
}
