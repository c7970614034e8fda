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

// Package tables reads the planning input tables, from CSV files or from an
// Excel workbook, into a network.Instance.
package tables

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	log "github.com/golang/glog"

	"github.com/myerscody16/siteplan/network"
)

// Sheet names of the input tables. CSV files are named "<prefix>-<sheet>.csv".
const (
	SheetLocations  = "Set I"
	SheetCandidates = "Set J"
	SheetSites      = "Set M"
	SheetSegments   = "Set S"
	SheetDemand     = "h_is"
	SheetDistance   = "d_ij"
	SheetBaseline   = "V_j=0"
)

// layout describes how a table is laid out in its sheet.
type layout struct {
	sheet string
	// skip is the number of leading rows that are headers.
	skip int
	// columns is the number of columns read.
	columns int
}

var layouts = []layout{
	{sheet: SheetLocations, skip: 1, columns: 1},
	{sheet: SheetCandidates, skip: 1, columns: 1},
	{sheet: SheetSites, skip: 1, columns: 1},
	{sheet: SheetSegments, skip: 1, columns: 1},
	{sheet: SheetDemand, skip: 1, columns: 3},
	{sheet: SheetDistance, skip: 1, columns: 3},
	{sheet: SheetBaseline, skip: 2, columns: 2},
}

// Sheets returns the names of the input tables, in load order.
func Sheets() []string {
	out := make([]string, len(layouts))
	for k, l := range layouts {
		out[k] = l.sheet
	}
	return out
}

// LoadError reports a table that is missing, unreadable or malformed.
type LoadError struct {
	Table string
	Path  string
	// Row is the 1-based row of the offending record, or 0 for the whole table.
	Row int
	Err error
}

func (e *LoadError) Error() string {
	if e.Row == 0 {
		return fmt.Sprintf("loading table %q from %s: %v", e.Table, e.Path, e.Err)
	}
	return fmt.Sprintf("loading table %q from %s: row %d: %v", e.Table, e.Path, e.Row, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Row is one record of a table with its 1-based position in the source.
type Row struct {
	Line  int
	Cells []string
}

// Source provides the raw rows of the input tables.
type Source interface {
	// Rows returns every row of `sheet`, headers included, and a description
	// of where they were read from.
	Rows(sheet string) (rows []Row, location string, err error)
}

// Options controls the defaults of the loaded parameters.
type Options struct {
	// UnreachableDistance is the distance read for pairs without a d_ij row.
	// Zero means network.DefaultUnreachableDistance.
	UnreachableDistance float64
}

// Load reads every input table from `src`.
//
// Set tables keep their row order and may contain duplicates; those are found
// by network.Instance.Validate. Duplicate parameter keys are reported as a
// *network.ConsistencyError, any other problem as a *LoadError.
func Load(src Source, opts Options) (*network.Instance, error) {
	unreachable := opts.UnreachableDistance
	if unreachable == 0 {
		unreachable = network.DefaultUnreachableDistance
	}
	in := &network.Instance{
		Demand:          network.NewParam2(SheetDemand, 0),
		Distance:        network.NewParam2(SheetDistance, unreachable),
		BaselineUtility: network.NewParam1(SheetBaseline, 0),
	}
	sets := map[string]*[]network.ID{
		SheetLocations:  &in.Locations,
		SheetCandidates: &in.Candidates,
		SheetSites:      &in.Sites,
		SheetSegments:   &in.Segments,
	}

	for _, l := range layouts {
		rows, location, err := src.Rows(l.sheet)
		if err != nil {
			return nil, &LoadError{Table: l.sheet, Path: location, Err: err}
		}
		records, err := l.records(rows, location)
		if err != nil {
			return nil, err
		}
		switch l.sheet {
		case SheetDemand:
			err = loadParam2(in.Demand, records, location)
		case SheetDistance:
			err = loadParam2(in.Distance, records, location)
		case SheetBaseline:
			err = loadParam1(in.BaselineUtility, records, location)
		default:
			*sets[l.sheet] = loadSet(records)
		}
		if err != nil {
			return nil, err
		}
		log.V(1).Infof("loaded %d records of %q from %s", len(records), l.sheet, location)
	}
	log.Infof("loaded %d locations, %d segments, %d sites, %d demand weights, %d distances",
		len(in.Locations), len(in.Segments), len(in.Sites), in.Demand.Len(), in.Distance.Len())
	return in, nil
}

// records drops the header rows and blank rows of `rows`, trims every cell
// and checks the column count.
func (l layout) records(rows []Row, location string) ([]Row, error) {
	if len(rows) < l.skip {
		return nil, &LoadError{Table: l.sheet, Path: location, Err: fmt.Errorf("want %d header rows, got %d rows", l.skip, len(rows))}
	}
	var out []Row
	for _, r := range rows[l.skip:] {
		cells := make([]string, len(r.Cells))
		blank := true
		for k, c := range r.Cells {
			cells[k] = strings.TrimSpace(c)
			if cells[k] != "" {
				blank = false
			}
		}
		if blank {
			continue
		}
		if len(cells) < l.columns {
			return nil, &LoadError{Table: l.sheet, Path: location, Row: r.Line, Err: fmt.Errorf("want %d columns, got %d", l.columns, len(cells))}
		}
		for k := 0; k < l.columns; k++ {
			if cells[k] == "" {
				return nil, &LoadError{Table: l.sheet, Path: location, Row: r.Line, Err: fmt.Errorf("column %d is empty", k+1)}
			}
		}
		out = append(out, Row{Line: r.Line, Cells: cells[:l.columns]})
	}
	return out, nil
}

func loadSet(records []Row) []network.ID {
	out := make([]network.ID, len(records))
	for k, r := range records {
		out[k] = network.ID(r.Cells[0])
	}
	return out
}

func loadParam2(p *network.Param2, records []Row, location string) error {
	for _, r := range records {
		v, err := parseValue(r.Cells[2])
		if err != nil {
			return &LoadError{Table: p.Name(), Path: location, Row: r.Line, Err: err}
		}
		if err := p.Set(network.ID(r.Cells[0]), network.ID(r.Cells[1]), v); err != nil {
			return err
		}
	}
	return nil
}

func loadParam1(p *network.Param1, records []Row, location string) error {
	for _, r := range records {
		v, err := parseValue(r.Cells[1])
		if err != nil {
			return &LoadError{Table: p.Name(), Path: location, Row: r.Line, Err: err}
		}
		if err := p.Set(network.ID(r.Cells[0]), v); err != nil {
			return err
		}
	}
	return nil
}

func parseValue(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) {
			err = numErr.Err
		}
		return 0, fmt.Errorf("malformed number %q: %w", s, err)
	}
	return v, nil
}
