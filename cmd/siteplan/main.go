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

// The siteplan command selects which candidate sites to open as new retail
// stores so as to capture the most customer demand under a store budget.
//
// Usage:
//
//	siteplan [flags] solve       load, validate, build, solve and report
//	siteplan [flags] validate    load and validate the input tables
//	siteplan [flags] export-lp   write the built model in CPLEX LP format
//	siteplan [flags] convert     write the sheets of -workbook as CSV files into -data_dir
//
// Exit status is 0 when the solve is optimal or proves infeasibility, 1 on
// input errors and 2 when the solver fails.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	log "github.com/golang/glog"

	"github.com/myerscody16/siteplan/config"
	"github.com/myerscody16/siteplan/milp"
	"github.com/myerscody16/siteplan/pipeline"
	"github.com/myerscody16/siteplan/report"
	"github.com/myerscody16/siteplan/solver"
	"github.com/myerscody16/siteplan/tables"
)

var (
	configPath = flag.String("config", "", "TOML configuration file; a missing file means defaults")
	budget     = flag.Int("budget", -1, "maximum number of new stores (overrides model.budget)")
	backend    = flag.String("backend", "", `solver backend, "glpk" or "simplex" (overrides solver.backend)`)
	dataDir    = flag.String("data_dir", "", "directory of the <prefix>-<sheet>.csv tables (overrides data.dir)")
	workbook   = flag.String("workbook", "", "Excel workbook holding the tables (overrides data.workbook)")
	format     = flag.String("format", "", `report format, "text" or "json" (overrides output.format)`)
	outPath    = flag.String("out", "", "write the report or LP model to this file instead of stdout")
)

const (
	exitOK         = 0
	exitInputError = 1
	exitSolveError = 2
)

func loadConfig() *config.Config {
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Exitf("Failed to load configuration: %v", err)
	}
	if *budget >= 0 {
		cfg.Model.Budget = *budget
	}
	if *backend != "" {
		cfg.Solver.Backend = *backend
	}
	if *dataDir != "" {
		cfg.Data.Dir = *dataDir
	}
	if *workbook != "" {
		cfg.Data.Workbook = *workbook
	}
	if *format != "" {
		cfg.Output.Format = *format
	}
	if err := cfg.Validate(); err != nil {
		log.Exitf("Invalid configuration: %v", err)
	}
	return cfg
}

// output returns the destination of the command output and its closer.
func output() (io.Writer, func()) {
	if *outPath == "" {
		return os.Stdout, func() {}
	}
	f, err := os.Create(*outPath)
	if err != nil {
		log.Exitf("Failed to create %s: %v", *outPath, err)
	}
	return f, func() {
		if err := f.Close(); err != nil {
			log.Exitf("Failed to write %s: %v", *outPath, err)
		}
	}
}

func solve(ctx context.Context, cfg *config.Config) int {
	out, err := pipeline.Run(ctx, cfg)
	if err != nil {
		log.Errorf("Planning run failed: %v", err)
		return exitInputError
	}
	w, closeOut := output()
	defer closeOut()
	render := out.Report.WriteText
	if cfg.Output.Format == config.FormatJSON {
		render = out.Report.WriteJSON
	}
	if err := render(w); err != nil {
		log.Errorf("Failed to write the report: %v", err)
		return exitInputError
	}
	return exitCode(out.Report)
}

func exitCode(r *report.Report) int {
	if r.Status == solver.StatusError {
		return exitSolveError
	}
	return exitOK
}

func validate(cfg *config.Config) int {
	in, err := pipeline.LoadInstance(cfg)
	if err != nil {
		log.Errorf("Failed to load the tables: %v", err)
		return exitInputError
	}
	if err := pipeline.Validate(in); err != nil {
		log.Errorf("Input tables are inconsistent: %v", err)
		return exitInputError
	}
	fmt.Printf("Input tables are consistent: %s\n", pipeline.Describe(in))
	return exitOK
}

func exportLP(cfg *config.Config) int {
	in, err := pipeline.LoadInstance(cfg)
	if err == nil {
		err = pipeline.Validate(in)
	}
	if err != nil {
		log.Errorf("Failed to load the tables: %v", err)
		return exitInputError
	}
	m, err := pipeline.Build(in, cfg)
	if err != nil {
		log.Errorf("Failed to build the model: %v", err)
		return exitInputError
	}
	w, closeOut := output()
	defer closeOut()
	if err := milp.WriteLP(w, m.MILP); err != nil {
		log.Errorf("Failed to write the model: %v", err)
		return exitInputError
	}
	return exitOK
}

func convert(cfg *config.Config) int {
	if cfg.Data.Workbook == "" {
		log.Errorf("convert needs -workbook or data.workbook")
		return exitInputError
	}
	wb, err := tables.OpenWorkbook(cfg.Data.Workbook)
	if err != nil {
		log.Errorf("Failed to open the workbook: %v", err)
		return exitInputError
	}
	defer wb.Close()
	written, err := tables.ConvertWorkbook(wb, cfg.Data.Dir, cfg.Data.Prefix)
	if err != nil {
		var loadErr *tables.LoadError
		if errors.As(err, &loadErr) {
			log.Errorf("Failed to read sheet %q: %v", loadErr.Table, loadErr.Err)
		} else {
			log.Errorf("Failed to convert the workbook: %v", err)
		}
		return exitInputError
	}
	fmt.Printf("All %d sheets converted to CSV in %s\n", len(written), cfg.Data.Dir)
	return exitOK
}

func run() int {
	flag.Parse()
	cfg := loadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := flag.Arg(0)
	if cmd == "" {
		cmd = "solve"
	}
	switch cmd {
	case "solve":
		return solve(ctx, cfg)
	case "validate":
		return validate(cfg)
	case "export-lp":
		return exportLP(cfg)
	case "convert":
		return convert(cfg)
	}
	log.Errorf("Unknown command %q; want solve, validate, export-lp or convert", cmd)
	return exitInputError
}

func main() {
	code := run()
	log.Flush()
	os.Exit(code)
}
