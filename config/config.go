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

// Package config holds the run configuration of siteplan, read from a TOML
// file and overridden by environment variables and command line flags.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/myerscody16/siteplan/network"
	"github.com/myerscody16/siteplan/solver"
)

// Environment variables that override the file configuration.
const (
	EnvGLPSOL  = "SITEPLAN_GLPSOL"
	EnvDataDir = "SITEPLAN_DATA_DIR"
	EnvBackend = "SITEPLAN_BACKEND"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config is the configuration of a planning run.
type Config struct {
	Data    DataConfig    `toml:"data"`
	Model   ModelConfig   `toml:"model"`
	Solver  SolverConfig  `toml:"solver"`
	Output  OutputConfig  `toml:"output"`
	Metrics MetricsConfig `toml:"metrics"`
}

// DataConfig locates the input tables.
type DataConfig struct {
	// Dir holds the "<Prefix>-<sheet>.csv" files.
	Dir    string `toml:"dir"`
	Prefix string `toml:"prefix"`
	// Workbook, when set, is read directly instead of the CSV files.
	Workbook string `toml:"workbook"`
}

// ModelConfig parameterizes the site selection model.
type ModelConfig struct {
	// Budget is P_max, the maximum number of new stores.
	Budget int `toml:"budget"`
	// UnreachableDistance is read for location/site pairs without a distance.
	UnreachableDistance float64 `toml:"unreachable_distance"`
	// Parallelism bounds the goroutines computing objective coefficients.
	Parallelism int `toml:"parallelism"`
}

// SolverConfig selects the solver backend.
type SolverConfig struct {
	Backend        string  `toml:"backend"`
	GLPSOLPath     string  `toml:"glpsol_path"`
	TimeoutSeconds float64 `toml:"timeout_seconds"`
	KeepFiles      bool    `toml:"keep_files"`
	// WorkDir holds the scratch directories of file based backends; empty
	// means the system temporary directory.
	WorkDir string `toml:"work_dir"`
}

// OutputConfig controls report rendering.
type OutputConfig struct {
	Format string `toml:"format"`
}

// MetricsConfig controls the metrics textfile.
type MetricsConfig struct {
	// Textfile, when set, receives the run metrics in Prometheus text format.
	Textfile string `toml:"textfile"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			Dir:    ".",
			Prefix: "RetailStores",
		},
		Model: ModelConfig{
			Budget:              5,
			UnreachableDistance: network.DefaultUnreachableDistance,
			Parallelism:         1,
		},
		Solver: SolverConfig{
			Backend: solver.BackendGLPK,
		},
		Output: OutputConfig{
			Format: FormatText,
		},
	}
}

// Load reads the configuration at `path` over the defaults and applies the
// environment overrides. An empty path or a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config %s failed: %w", path, err)
		default:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s failed: %w", path, err)
			}
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvGLPSOL); v != "" {
		c.Solver.GLPSOLPath = v
	}
	if v := os.Getenv(EnvDataDir); v != "" {
		c.Data.Dir = v
	}
	if v := os.Getenv(EnvBackend); v != "" {
		c.Solver.Backend = v
	}
}

// Validate reports every invalid setting, joined with errors.Join.
func (c *Config) Validate() error {
	var errs []error
	if c.Data.Workbook == "" && c.Data.Dir == "" {
		errs = append(errs, errors.New("data.dir or data.workbook must be set"))
	}
	if c.Model.Budget < 0 {
		errs = append(errs, fmt.Errorf("model.budget must be non-negative, got %d", c.Model.Budget))
	}
	if d := c.Model.UnreachableDistance; !(d > 0) || math.IsInf(d, 1) {
		errs = append(errs, fmt.Errorf("model.unreachable_distance must be positive and finite, got %v", d))
	}
	if c.Model.Parallelism < 1 {
		errs = append(errs, fmt.Errorf("model.parallelism must be at least 1, got %d", c.Model.Parallelism))
	}
	switch c.Solver.Backend {
	case solver.BackendGLPK, solver.BackendSimplex:
	default:
		errs = append(errs, fmt.Errorf("solver.backend must be %q or %q, got %q", solver.BackendGLPK, solver.BackendSimplex, c.Solver.Backend))
	}
	if t := c.Solver.TimeoutSeconds; t < 0 || math.IsNaN(t) || math.IsInf(t, 0) {
		errs = append(errs, fmt.Errorf("solver.timeout_seconds must be a non-negative number, got %v", t))
	}
	switch c.Output.Format {
	case FormatText, FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("output.format must be %q or %q, got %q", FormatText, FormatJSON, c.Output.Format))
	}
	return errors.Join(errs...)
}

// SolverSettings returns the solver section as a solver.Config.
func (c *Config) SolverSettings() solver.Config {
	return solver.Config{
		Backend:    c.Solver.Backend,
		GLPSOLPath: c.Solver.GLPSOLPath,
		Timeout:    time.Duration(c.Solver.TimeoutSeconds * float64(time.Second)),
		KeepFiles:  c.Solver.KeepFiles,
		WorkDir:    c.Solver.WorkDir,
	}
}
