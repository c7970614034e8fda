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

// Package metrics exposes the Prometheus metrics of planning runs. A run is a
// batch job, so the registry is written to a node exporter textfile instead of
// being scraped.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/myerscody16/siteplan/milp"
	"github.com/myerscody16/siteplan/solver"
)

var (
	// Registry is the dedicated registry of siteplan metrics.
	Registry = prometheus.NewRegistry()
	// BuildDuration records model build durations in seconds.
	BuildDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "siteplan_model_build_duration_seconds", Help: "Site selection model build duration in seconds.", Buckets: prometheus.DefBuckets},
	)
	// ModelSize reports the size of the last built model by kind.
	ModelSize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "siteplan_model_size", Help: "Number of variables and constraints of the last built model."},
		[]string{"kind"},
	)
	// SolveDuration records solve durations in seconds by backend.
	SolveDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "siteplan_solve_duration_seconds", Help: "Solve duration in seconds.", Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300}},
		[]string{"backend"},
	)
	// Solves counts solves by backend and status.
	Solves = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "siteplan_solves_total", Help: "Solves by backend and status."},
		[]string{"backend", "status"},
	)
	// OpenedSites is the number of sites opened by the last optimal solve.
	OpenedSites = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "siteplan_opened_sites", Help: "Sites opened by the last optimal solve."},
	)
	// LastRun is the time of the last completed run.
	LastRun = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "siteplan_last_run_timestamp_seconds", Help: "Unix time of the last completed run."},
	)
)

var regOnce sync.Once

// Register registers the collectors with Registry. It is safe to call more
// than once.
func Register() {
	regOnce.Do(func() {
		Registry.MustRegister(BuildDuration)
		Registry.MustRegister(ModelSize)
		Registry.MustRegister(SolveDuration)
		Registry.MustRegister(Solves)
		Registry.MustRegister(OpenedSites)
		Registry.MustRegister(LastRun)
	})
}

// ObserveBuild records the build of `m`, which took `d`.
func ObserveBuild(m *milp.Model, d time.Duration) {
	BuildDuration.Observe(d.Seconds())
	ModelSize.WithLabelValues("variables").Set(float64(m.NumVars()))
	ModelSize.WithLabelValues("constraints").Set(float64(m.NumConstraints()))
}

// ObserveSolve records a solve result and, for an optimal result, the number
// of opened sites.
func ObserveSolve(res solver.Result, opened int) {
	SolveDuration.WithLabelValues(res.Backend).Observe(res.Duration.Seconds())
	Solves.WithLabelValues(res.Backend, res.Status.String()).Inc()
	if res.Status == solver.StatusOptimal {
		OpenedSites.Set(float64(opened))
	}
	LastRun.SetToCurrentTime()
}

// WriteTextfile writes the registry to `path` in the text exposition format.
// The file is replaced atomically.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}
