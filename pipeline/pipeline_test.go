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

package pipeline

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/myerscody16/siteplan/config"
	"github.com/myerscody16/siteplan/network"
	"github.com/myerscody16/siteplan/selection"
	"github.com/myerscody16/siteplan/solver"
	"github.com/myerscody16/siteplan/tables"
)

var scenario = map[string]string{
	tables.SheetLocations:  "I\nA\nB\n",
	tables.SheetCandidates: "J\nP1\nP2\n",
	tables.SheetSites:      "M\nE1\nP1\nC1\nP2\n",
	tables.SheetSegments:   "S\nS1\n",
	tables.SheetDemand:     "i,s,value\nA,S1,10\nB,S1,5\n",
	tables.SheetDistance:   "i,j,value\nA,P1,2\nA,P2,4\nB,P1,5\nB,P2,1\n",
	tables.SheetBaseline:   "v0\ni,value\nA,-1\n",
}

// testConfig writes `files` over the scenario tables and returns a config
// reading them with the simplex backend.
func testConfig(t *testing.T, budget int, files map[string]string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	for sheet, content := range scenario {
		if override, ok := files[sheet]; ok {
			content = override
		}
		path := filepath.Join(dir, tables.FileName("RetailStores", sheet))
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("os.WriteFile(%s) returned with unexpected error %v", path, err)
		}
	}
	cfg := config.DefaultConfig()
	cfg.Data.Dir = dir
	cfg.Model.Budget = budget
	cfg.Solver.Backend = solver.BackendSimplex
	return cfg
}

func TestRun(t *testing.T) {
	testCases := []struct {
		name          string
		budget        int
		parallelism   int
		wantOpened    []network.ID
		wantObjective float64
	}{
		{name: "BudgetZero", budget: 0, wantOpened: nil, wantObjective: 0},
		{name: "BudgetOne", budget: 1, wantOpened: []network.ID{"P2"}, wantObjective: 7.5},
		{name: "BudgetOneParallel", budget: 1, parallelism: 4, wantOpened: []network.ID{"P2"}, wantObjective: 7.5},
		{name: "DefaultBudget", budget: 5, wantOpened: []network.ID{"P1", "P2"}, wantObjective: 13.5},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			cfg := testConfig(t, test.budget, nil)
			if test.parallelism > 0 {
				cfg.Model.Parallelism = test.parallelism
			}
			out, err := Run(context.Background(), cfg)
			if err != nil {
				t.Fatalf("Run() returned with unexpected error %v", err)
			}
			if out.Result.Status != solver.StatusOptimal {
				t.Fatalf("Run() status = %v (err %v), want %v", out.Result.Status, out.Result.Err, solver.StatusOptimal)
			}
			if diff := cmp.Diff(test.wantOpened, out.Report.OpenedSites); diff != "" {
				t.Errorf("OpenedSites returned with unexpected diff (-want+got);\n%s", diff)
			}
			if math.Abs(out.Report.Objective-test.wantObjective) > 1e-6 {
				t.Errorf("Objective = %v, want %v", out.Report.Objective, test.wantObjective)
			}
			var opened int
			for _, v := range out.Result.Assignment {
				if v != 0 && v != 1 {
					t.Errorf("assignment value %v is not binary", v)
				}
				opened += int(v)
			}
			if opened > test.budget {
				t.Errorf("%d sites opened over a budget of %d", opened, test.budget)
			}
		})
	}
}

func TestRun_WritesMetricsTextfile(t *testing.T) {
	cfg := testConfig(t, 1, nil)
	cfg.Metrics.Textfile = filepath.Join(t.TempDir(), "siteplan.prom")
	if _, err := Run(context.Background(), cfg); err != nil {
		t.Fatalf("Run() returned with unexpected error %v", err)
	}
	b, err := os.ReadFile(cfg.Metrics.Textfile)
	if err != nil {
		t.Fatalf("os.ReadFile() returned with unexpected error %v", err)
	}
	if !strings.Contains(string(b), `siteplan_solves_total{backend="simplex",status="OPTIMAL"}`) {
		t.Errorf("metrics textfile lacks the solve counter:\n%s", b)
	}
}

func TestRun_SolverErrorIsReported(t *testing.T) {
	cfg := testConfig(t, 1, nil)
	cfg.Solver.Backend = solver.BackendGLPK
	cfg.Solver.GLPSOLPath = filepath.Join(t.TempDir(), "no-such-glpsol")

	out, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run() returned with unexpected error %v", err)
	}
	if out.Result.Status != solver.StatusError {
		t.Fatalf("Run() status = %v, want %v", out.Result.Status, solver.StatusError)
	}
	if out.Report.Err == nil {
		t.Errorf("Report.Err = nil, want the solver error")
	}
}

func TestRun_Errors(t *testing.T) {
	testCases := []struct {
		name   string
		files  map[string]string
		wantAs func(err error) bool
	}{
		{
			name:  "MalformedTable",
			files: map[string]string{tables.SheetDemand: "i,s,value\nA,S1,lots\n"},
			wantAs: func(err error) bool {
				var target *tables.LoadError
				return errors.As(err, &target)
			},
		},
		{
			name:  "UncategorizedSite",
			files: map[string]string{tables.SheetSites: "M\nE1\nP1\nX9\nP2\n"},
			wantAs: func(err error) bool {
				var target *network.ConsistencyError
				return errors.As(err, &target)
			},
		},
		{
			name:  "ZeroDistance",
			files: map[string]string{tables.SheetDistance: "i,j,value\nA,P1,0\n"},
			wantAs: func(err error) bool {
				var target *selection.NumericError
				return errors.As(err, &target)
			},
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			_, err := Run(context.Background(), testConfig(t, 1, test.files))
			if err == nil {
				t.Fatalf("Run() err = nil, want error")
			}
			if !test.wantAs(err) {
				t.Errorf("Run() err = %v (%T), want a different error type", err, err)
			}
		})
	}
}

func TestLoadInstance_Workbook(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Data.Workbook = filepath.Join(t.TempDir(), "absent.xlsx")
	_, err := LoadInstance(cfg)
	var loadErr *tables.LoadError
	if !errors.As(err, &loadErr) {
		t.Errorf("LoadInstance() err = %v, want a *tables.LoadError", err)
	}
}

func TestDescribe(t *testing.T) {
	in := &network.Instance{
		Locations: []network.ID{"A", "B"},
		Segments:  []network.ID{"S1"},
		Sites:     []network.ID{"E1", "P1", "C1", "P2"},
	}
	want := "2 locations, 1 segments, 1 existing stores, 1 competitors, 2 potential sites"
	if got := Describe(in); got != want {
		t.Errorf("Describe() = %q, want %q", got, want)
	}
}

func TestValidate_WithoutBaselineUtility(t *testing.T) {
	demand := network.NewParam2(tables.SheetDemand, 0)
	if err := demand.Set("A", "S1", 10); err != nil {
		t.Fatalf("Set() returned with unexpected error %v", err)
	}
	in := &network.Instance{
		Locations:  []network.ID{"A"},
		Segments:   []network.ID{"S1"},
		Sites:      []network.ID{"P1"},
		Candidates: []network.ID{"P1"},
		Demand:     demand,
		Distance:   network.NewParam2(tables.SheetDistance, network.DefaultUnreachableDistance),
	}
	if err := Validate(in); err != nil {
		t.Errorf("Validate() returned with unexpected error %v", err)
	}
}
