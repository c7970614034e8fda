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

// Package pipeline runs one planning pass: load the tables, validate them,
// build the site selection model, solve it and report the stores to open.
package pipeline

import (
	"context"
	"fmt"
	"time"

	log "github.com/golang/glog"

	"github.com/myerscody16/siteplan/config"
	"github.com/myerscody16/siteplan/metrics"
	"github.com/myerscody16/siteplan/network"
	"github.com/myerscody16/siteplan/report"
	"github.com/myerscody16/siteplan/selection"
	"github.com/myerscody16/siteplan/solver"
	"github.com/myerscody16/siteplan/tables"
)

// Outcome holds every stage output of a run.
type Outcome struct {
	Instance *network.Instance
	Model    *selection.Model
	Result   solver.Result
	Report   *report.Report
}

// LoadInstance reads the input tables named by `cfg`: the workbook when one is
// configured, the CSV directory otherwise.
func LoadInstance(cfg *config.Config) (*network.Instance, error) {
	opts := tables.Options{UnreachableDistance: cfg.Model.UnreachableDistance}
	if cfg.Data.Workbook != "" {
		wb, err := tables.OpenWorkbook(cfg.Data.Workbook)
		if err != nil {
			return nil, err
		}
		defer wb.Close()
		return tables.Load(wb, opts)
	}
	return tables.Load(tables.CSVDir{Dir: cfg.Data.Dir, Prefix: cfg.Data.Prefix}, opts)
}

// Validate checks the consistency of `in` and logs the oddities that do not
// prevent a run.
func Validate(in *network.Instance) error {
	if err := in.Validate(); err != nil {
		return err
	}
	if diff := in.CandidateMismatch(); len(diff) > 0 {
		log.Warningf("set J differs from the potential sites of set M on %v; set J is not used by the model", diff)
	}
	if in.BaselineUtility != nil && in.BaselineUtility.Len() > 0 {
		log.Warningf("%d baseline utilities loaded from %q are not used by the linear model", in.BaselineUtility.Len(), in.BaselineUtility.Name())
	}
	return nil
}

// Build builds the site selection model of `in` with the budget and
// parallelism of `cfg`.
func Build(in *network.Instance, cfg *config.Config) (*selection.Model, error) {
	start := time.Now()
	input := selection.InputFromInstance(in, cfg.Model.Budget)
	input.Parallelism = cfg.Model.Parallelism
	m, err := selection.Build(input)
	if err != nil {
		return nil, err
	}
	metrics.ObserveBuild(m.MILP, time.Since(start))
	return m, nil
}

// Run performs one planning pass.
//
// Load, validation and build failures are returned as errors. A failed solve
// is not: the outcome then carries a StatusError result and its report.
func Run(ctx context.Context, cfg *config.Config) (*Outcome, error) {
	metrics.Register()

	in, err := LoadInstance(cfg)
	if err != nil {
		return nil, err
	}
	if err := Validate(in); err != nil {
		return nil, err
	}
	m, err := Build(in, cfg)
	if err != nil {
		return nil, err
	}
	log.Infof("site selection model has been built: %d potential sites, budget %d", len(m.Sites), m.Budget)

	res := solver.Solve(ctx, m.MILP, cfg.SolverSettings())
	rep := report.New(res, m)
	metrics.ObserveSolve(res, len(rep.OpenedSites))
	if path := cfg.Metrics.Textfile; path != "" {
		if err := metrics.WriteTextfile(path); err != nil {
			log.Warningf("writing metrics to %s failed: %v", path, err)
		}
	}
	return &Outcome{Instance: in, Model: m, Result: res, Report: rep}, nil
}

// Describe returns a one line summary of `in`.
func Describe(in *network.Instance) string {
	return fmt.Sprintf("%d locations, %d segments, %d existing stores, %d competitors, %d potential sites",
		len(in.Locations), len(in.Segments), len(in.Existing()), len(in.Competitors()), len(in.Potential()))
}
