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
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	log "github.com/golang/glog"

	"github.com/myerscody16/siteplan/milp"
)

const (
	glpkModelFile    = "model.lp"
	glpkSolutionFile = "solution.txt"
	// glpkWaitDelay bounds how long a killed glpsol may hold its output pipes.
	glpkWaitDelay = 2 * time.Second
)

// glpsol prints this when presolve or the LP relaxation proves infeasibility;
// the MIP solution file then only carries an undefined status.
var glpkNoFeasibleRE = regexp.MustCompile(`(?i)NO\s+(PRIMAL\s+|INTEGER\s+)?FEASIBLE\s+SOLUTION`)

// glpkBackend runs glpsol on the model written in CPLEX LP format and reads
// back the raw solution file written with -w.
type glpkBackend struct {
	path      string
	keepFiles bool
	workDir   string
}

func (g *glpkBackend) solve(ctx context.Context, m *milp.Model) (*solution, error) {
	dir, err := os.MkdirTemp(g.workDir, "siteplan-glpk-")
	if err != nil {
		return nil, fmt.Errorf("creating scratch directory failed: %w", err)
	}
	if g.keepFiles {
		log.Infof("keeping glpk files in %s", dir)
	} else {
		defer func() {
			if err := os.RemoveAll(dir); err != nil {
				log.Warningf("removing scratch directory %s failed: %v", dir, err)
			}
		}()
	}

	modelPath := filepath.Join(dir, glpkModelFile)
	if err := writeModelFile(modelPath, m); err != nil {
		return nil, err
	}
	solutionPath := filepath.Join(dir, glpkSolutionFile)

	cmd := exec.CommandContext(ctx, g.path, "--lp", modelPath, "-w", solutionPath)
	cmd.WaitDelay = glpkWaitDelay
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output
	log.V(1).Infof("running %s", strings.Join(cmd.Args, " "))
	runErr := cmd.Run()
	if log.V(1) {
		log.Infof("glpsol output:\n%s", output.String())
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if runErr != nil {
		return nil, fmt.Errorf("running %s failed: %w: %s", g.path, runErr, lastLines(output.String(), 5))
	}

	f, err := os.Open(solutionPath)
	if err != nil {
		return nil, fmt.Errorf("reading glpsol solution failed: %w", err)
	}
	defer f.Close()
	raw, err := parseGLPKSolution(f, m.NumVars())
	if err != nil {
		return nil, fmt.Errorf("parsing %s failed: %w", solutionPath, err)
	}
	return raw.toSolution(output.String())
}

func writeModelFile(path string, m *milp.Model) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating model file failed: %w", err)
	}
	if err := milp.WriteLP(f, m); err != nil {
		f.Close()
		return fmt.Errorf("writing model file failed: %w", err)
	}
	return f.Close()
}

// glpkSolution is the content of a GLPK raw solution file. GLPK writes a
// "mip" status line for models with integer columns and a "bas" line for
// pure LPs solved by the simplex method.
type glpkSolution struct {
	kind string
	// primal is the primal (or MIP) status: 'o' optimal, 'f' feasible,
	// 'n' no feasible solution, 'u' undefined, 'i' infeasible.
	primal byte
	// dual is only set for "bas" solutions.
	dual      byte
	objective float64
	values    []float64
}

func (s *glpkSolution) toSolution(output string) (*solution, error) {
	switch s.kind {
	case "mip":
		switch s.primal {
		case 'o':
			return &solution{status: StatusOptimal, values: s.values}, nil
		case 'n':
			return &solution{status: StatusInfeasible}, nil
		case 'u':
			if glpkNoFeasibleRE.MatchString(output) {
				return &solution{status: StatusInfeasible}, nil
			}
		}
	case "bas":
		switch {
		case s.primal == 'f' && s.dual == 'f':
			return &solution{status: StatusOptimal, values: s.values}, nil
		case s.primal == 'n':
			return &solution{status: StatusInfeasible}, nil
		}
	}
	status := string(s.primal)
	if s.kind == "bas" {
		status += string(s.dual)
	}
	return nil, fmt.Errorf("glpsol ended with %s status %q, not proven optimal: %s", s.kind, status, lastLines(output, 5))
}

// parseGLPKSolution reads the raw solution format written by glpsol -w for a
// model with `numVars` columns, numbered by first appearance in the LP file.
func parseGLPKSolution(r io.Reader, numVars int) (*glpkSolution, error) {
	sol := &glpkSolution{values: make([]float64, numVars)}
	seen := make([]bool, numVars)
	sc := bufio.NewScanner(r)
	lineNo := 0
	ended := false
	for sc.Scan() {
		lineNo++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "c", "i":
		case "s":
			if err := sol.parseStatus(fields); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
		case "j":
			if sol.kind == "" {
				return nil, fmt.Errorf("line %d: column line before status line", lineNo)
			}
			col, v, err := sol.parseColumn(fields)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			if col < 1 || col > numVars {
				return nil, fmt.Errorf("line %d: column %d out of range [1,%d]", lineNo, col, numVars)
			}
			sol.values[col-1] = v
			seen[col-1] = true
		case "e":
			ended = true
		default:
			return nil, fmt.Errorf("line %d: unexpected record %q", lineNo, fields[0])
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if sol.kind == "" {
		return nil, fmt.Errorf("no status line")
	}
	if !ended {
		return nil, fmt.Errorf("truncated solution file")
	}
	if sol.primal == 'o' || (sol.primal == 'f' && sol.dual == 'f') {
		for i, ok := range seen {
			if !ok {
				return nil, fmt.Errorf("no value for column %d", i+1)
			}
		}
	}
	return sol, nil
}

// parseStatus reads "s mip ROWS COLS STATUS OBJ" or
// "s bas ROWS COLS PRIMAL DUAL OBJ".
func (s *glpkSolution) parseStatus(fields []string) error {
	if len(fields) < 2 {
		return fmt.Errorf("malformed status line")
	}
	s.kind = fields[1]
	var status []string
	switch s.kind {
	case "mip":
		if len(fields) != 6 {
			return fmt.Errorf("malformed mip status line %q", strings.Join(fields, " "))
		}
		status = fields[4:5]
	case "bas":
		if len(fields) != 7 {
			return fmt.Errorf("malformed bas status line %q", strings.Join(fields, " "))
		}
		status = fields[4:6]
	default:
		return fmt.Errorf("unsupported solution kind %q", s.kind)
	}
	for _, st := range status {
		if len(st) != 1 {
			return fmt.Errorf("malformed status %q", st)
		}
	}
	s.primal = status[0][0]
	if len(status) > 1 {
		s.dual = status[1][0]
	}
	obj, err := strconv.ParseFloat(fields[len(fields)-1], 64)
	if err != nil {
		return fmt.Errorf("malformed objective: %w", err)
	}
	s.objective = obj
	return nil
}

// parseColumn reads "j COL VAL" (mip) or "j COL STAT PRIM DUAL" (bas).
func (s *glpkSolution) parseColumn(fields []string) (int, float64, error) {
	want, valueField := 3, 2
	if s.kind == "bas" {
		want, valueField = 5, 3
	}
	if len(fields) != want {
		return 0, 0, fmt.Errorf("malformed column line %q", strings.Join(fields, " "))
	}
	col, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, fmt.Errorf("malformed column number: %w", err)
	}
	v, err := strconv.ParseFloat(fields[valueField], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed column value: %w", err)
	}
	return col, v, nil
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}
