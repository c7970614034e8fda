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

package tables

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const utf8BOM = "\ufeff"

// CSVDir reads the tables from "<Prefix>-<sheet>.csv" files in Dir.
type CSVDir struct {
	Dir    string
	Prefix string
}

// Path returns the file holding `sheet`.
func (d CSVDir) Path(sheet string) string {
	return filepath.Join(d.Dir, FileName(d.Prefix, sheet))
}

// FileName returns the CSV file name of `sheet` for the given prefix.
func FileName(prefix, sheet string) string {
	return prefix + "-" + sheet + ".csv"
}

// Rows implements Source.
func (d CSVDir) Rows(sheet string) ([]Row, string, error) {
	path := d.Path(sheet)
	f, err := os.Open(path)
	if err != nil {
		return nil, path, err
	}
	defer f.Close()
	rows, err := ReadCSV(f)
	return rows, path, err
}

// ReadCSV reads every record of `r`. Records may have different lengths, and
// a leading byte order mark is dropped.
func ReadCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	var rows []Row
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 && len(rec) > 0 {
			rec[0] = strings.TrimPrefix(rec[0], utf8BOM)
		}
		line, _ := cr.FieldPos(0)
		rows = append(rows, Row{Line: line, Cells: rec})
	}
}

// WriteCSV writes `rows` to the file at `path`, replacing it.
func WriteCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("writing %s failed: %w", path, err)
	}
	return f.Close()
}
