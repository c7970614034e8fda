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

package main

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/myerscody16/siteplan/config"
	"github.com/myerscody16/siteplan/report"
	"github.com/myerscody16/siteplan/solver"
	"github.com/myerscody16/siteplan/tables"
)

func TestExitCode(t *testing.T) {
	testCases := []struct {
		status solver.Status
		want   int
	}{
		{status: solver.StatusOptimal, want: exitOK},
		{status: solver.StatusInfeasible, want: exitOK},
		{status: solver.StatusError, want: exitSolveError},
	}
	for _, test := range testCases {
		if got := exitCode(&report.Report{Status: test.status}); got != test.want {
			t.Errorf("exitCode(%v) = %d, want %d", test.status, got, test.want)
		}
	}
}

var scenario = map[string]string{
	tables.SheetLocations:  "I\nA\nB\n",
	tables.SheetCandidates: "J\nP1\nP2\n",
	tables.SheetSites:      "M\nE1\nP1\nC1\nP2\n",
	tables.SheetSegments:   "S\nS1\n",
	tables.SheetDemand:     "i,s,value\nA,S1,10\nB,S1,5\n",
	tables.SheetDistance:   "i,j,value\nA,P1,2\nA,P2,4\nB,P1,5\nB,P2,1\n",
	tables.SheetBaseline:   "v0\ni,value\nA,-1\n",
}

// writeTables writes the scenario tables, with `overrides` replacing some of
// them, and returns their directory.
func writeTables(t *testing.T, overrides map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for sheet, content := range scenario {
		if o, ok := overrides[sheet]; ok {
			content = o
		}
		path := filepath.Join(dir, tables.FileName("RetailStores", sheet))
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("os.WriteFile(%s) returned with unexpected error %v", path, err)
		}
	}
	return dir
}

// failingGLPSOL writes a glpsol stand-in that exits with an error.
func failingGLPSOL(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake glpsol needs a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "glpsol")
	script := "#!/bin/sh\necho \"glpsol: unable to read model\" >&2\nexit 1\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("os.WriteFile(%s) returned with unexpected error %v", path, err)
	}
	return path
}

func TestSolve_ExitStatus(t *testing.T) {
	testCases := []struct {
		name       string
		overrides  map[string]string
		modify     func(t *testing.T, cfg *config.Config)
		want       int
		wantReport string
	}{
		{
			name:       "Optimal",
			want:       exitOK,
			wantReport: "Optimal Locations for New Stores:",
		},
		{
			name: "NoPotentialSites",
			overrides: map[string]string{
				tables.SheetSites:    "M\nE1\nC1\n",
				tables.SheetDistance: "i,j,value\n",
			},
			want:       exitOK,
			wantReport: "No sites opened.",
		},
		{
			name:      "ZeroDistance",
			overrides: map[string]string{tables.SheetDistance: "i,j,value\nA,P1,0\n"},
			want:      exitInputError,
		},
		{
			name:      "MalformedTable",
			overrides: map[string]string{tables.SheetDemand: "i,s,value\nA,S1,lots\n"},
			want:      exitInputError,
		},
		{
			name: "SolverFailure",
			modify: func(t *testing.T, cfg *config.Config) {
				cfg.Solver.Backend = solver.BackendGLPK
				cfg.Solver.GLPSOLPath = failingGLPSOL(t)
				cfg.Solver.WorkDir = t.TempDir()
			},
			want:       exitSolveError,
			wantReport: "Solve failed:",
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Data.Dir = writeTables(t, test.overrides)
			cfg.Model.Budget = 1
			cfg.Solver.Backend = solver.BackendSimplex
			if test.modify != nil {
				test.modify(t, cfg)
			}
			reportPath := filepath.Join(t.TempDir(), "report.txt")
			saved := *outPath
			*outPath = reportPath
			defer func() { *outPath = saved }()

			if got := solve(context.Background(), cfg); got != test.want {
				t.Errorf("solve() = %d, want %d", got, test.want)
			}
			if test.wantReport == "" {
				return
			}
			b, err := os.ReadFile(reportPath)
			if err != nil {
				t.Fatalf("os.ReadFile() returned with unexpected error %v", err)
			}
			if !strings.Contains(string(b), test.wantReport) {
				t.Errorf("report lacks %q:\n%s", test.wantReport, b)
			}
		})
	}
}
