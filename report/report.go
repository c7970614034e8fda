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

// Package report turns a solve result into the list of stores to open and
// renders it as text or JSON.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/myerscody16/siteplan/network"
	"github.com/myerscody16/siteplan/selection"
	"github.com/myerscody16/siteplan/solver"
)

// Report is the outcome of one planning run.
type Report struct {
	RunID    string
	Status   solver.Status
	Backend  string
	Budget   int
	Duration time.Duration
	// Objective and OpenedSites are only meaningful for StatusOptimal.
	Objective float64
	// OpenedSites lists the sites to open, in potential-site order.
	OpenedSites []network.ID
	// Err describes the failure for StatusError.
	Err error
}

// New builds the report for result `res` of solving `m`.
func New(res solver.Result, m *selection.Model) *Report {
	r := &Report{
		RunID:    uuid.NewString(),
		Status:   res.Status,
		Backend:  res.Backend,
		Budget:   m.Budget,
		Duration: res.Duration,
	}
	switch res.Status {
	case solver.StatusOptimal:
		r.Objective = res.Objective
		r.OpenedSites = m.OpenedSites(res.Assignment)
	case solver.StatusError:
		if res.Err != nil {
			r.Err = res.Err
		} else {
			r.Err = fmt.Errorf("solve failed without detail")
		}
	}
	return r
}

// WriteText writes a human readable rendering of the report.
func (r *Report) WriteText(w io.Writer) error {
	p := &printer{w: w}
	p.printf("Run %s (backend %s, budget %d, %v)\n", r.RunID, r.Backend, r.Budget, r.Duration.Round(time.Millisecond))
	switch r.Status {
	case solver.StatusOptimal:
		p.printf("Optimal solution found. Captured demand: %.6g\n", r.Objective)
		if len(r.OpenedSites) == 0 {
			p.printf("No sites opened.\n")
			break
		}
		p.printf("Optimal Locations for New Stores:\n")
		for _, id := range r.OpenedSites {
			p.printf("%s\n", id)
		}
	case solver.StatusInfeasible:
		p.printf("No feasible configuration exists under the current budget of %d.\n", r.Budget)
	default:
		p.printf("Solve failed: %v\n", r.Err)
	}
	return p.err
}

// Proto returns the report as a protobuf Struct.
func (r *Report) Proto() (*structpb.Struct, error) {
	sites := make([]any, len(r.OpenedSites))
	for k, id := range r.OpenedSites {
		sites[k] = string(id)
	}
	fields := map[string]any{
		"run_id":           r.RunID,
		"status":           r.Status.String(),
		"backend":          r.Backend,
		"budget":           r.Budget,
		"duration_seconds": r.Duration.Seconds(),
	}
	switch r.Status {
	case solver.StatusOptimal:
		fields["objective"] = r.Objective
		fields["opened_sites"] = sites
	case solver.StatusError:
		fields["error"] = fmt.Sprint(r.Err)
	}
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("converting report to a Struct failed: %w", err)
	}
	return s, nil
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	s, err := r.Proto()
	if err != nil {
		return err
	}
	b, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling report failed: %w", err)
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, a ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, a...)
}
