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
	"fmt"
	"os"

	log "github.com/golang/glog"
	"github.com/xuri/excelize/v2"
)

// Workbook reads the tables from the sheets of an Excel workbook.
type Workbook struct {
	f    *excelize.File
	path string
}

// OpenWorkbook opens the .xlsx file at `path`. The caller must Close it.
func OpenWorkbook(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &LoadError{Table: "workbook", Path: path, Err: err}
	}
	return &Workbook{f: f, path: path}, nil
}

// Close releases the workbook.
func (w *Workbook) Close() error { return w.f.Close() }

// Rows implements Source. Cells are read as stored, without their number
// format applied.
func (w *Workbook) Rows(sheet string) ([]Row, string, error) {
	location := fmt.Sprintf("%s[%s]", w.path, sheet)
	cells, err := w.f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, location, err
	}
	rows := make([]Row, len(cells))
	for k, c := range cells {
		rows[k] = Row{Line: k + 1, Cells: c}
	}
	return rows, location, nil
}

// ConvertWorkbook writes every input sheet of `w` to "<prefix>-<sheet>.csv"
// in `outDir`, keeping all rows so that CSVDir reads the files unchanged. It
// returns the written paths.
func ConvertWorkbook(w *Workbook, outDir, prefix string) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory failed: %w", err)
	}
	dst := CSVDir{Dir: outDir, Prefix: prefix}
	var written []string
	for _, sheet := range Sheets() {
		cells, err := w.f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return written, &LoadError{Table: sheet, Path: w.path, Err: err}
		}
		path := dst.Path(sheet)
		if err := WriteCSV(path, cells); err != nil {
			return written, err
		}
		log.Infof("converted sheet %q to %s", sheet, path)
		written = append(written, path)
	}
	return written, nil
}
