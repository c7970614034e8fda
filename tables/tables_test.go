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
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"

	"github.com/myerscody16/siteplan/network"
)

const testPrefix = "RetailStores"

var scenarioCSV = map[string]string{
	SheetLocations:  "I\nA\nB\n",
	SheetCandidates: "J\nP1\nP2\n",
	SheetSites:      "M\nE1\nP1\nC1\nP2\n",
	SheetSegments:   "S\nS1\n",
	SheetDemand:     "i,s,value\nA,S1,10\nB,S1,5\n",
	SheetDistance:   "i,j,value\nA,P1,2\nA,P2,4\nB,P1,5\nB,P2,1\nA,E1,3\n",
	SheetBaseline:   "Baseline utility of the outside option\ni,value\nA,-1.5\n\nB,0\n",
}

func writeCSVDir(t *testing.T, files map[string]string) CSVDir {
	t.Helper()
	d := CSVDir{Dir: t.TempDir(), Prefix: testPrefix}
	for sheet, content := range files {
		if err := os.WriteFile(d.Path(sheet), []byte(content), 0o644); err != nil {
			t.Fatalf("os.WriteFile(%s) returned with unexpected error %v", d.Path(sheet), err)
		}
	}
	return d
}

func withFile(sheet, content string) map[string]string {
	files := make(map[string]string, len(scenarioCSV))
	for k, v := range scenarioCSV {
		files[k] = v
	}
	files[sheet] = content
	return files
}

var instanceCmp = cmp.AllowUnexported(network.Param2{}, network.Param1{})

func TestLoad_CSV(t *testing.T) {
	in, err := Load(writeCSVDir(t, scenarioCSV), Options{})
	if err != nil {
		t.Fatalf("Load() returned with unexpected error %v", err)
	}

	if diff := cmp.Diff([]network.ID{"A", "B"}, in.Locations); diff != "" {
		t.Errorf("Locations returned with unexpected diff (-want+got);\n%s", diff)
	}
	if diff := cmp.Diff([]network.ID{"E1", "P1", "C1", "P2"}, in.Sites); diff != "" {
		t.Errorf("Sites returned with unexpected diff (-want+got);\n%s", diff)
	}
	if diff := cmp.Diff([]network.ID{"P1", "P2"}, in.Candidates); diff != "" {
		t.Errorf("Candidates returned with unexpected diff (-want+got);\n%s", diff)
	}
	if diff := cmp.Diff([]network.ID{"S1"}, in.Segments); diff != "" {
		t.Errorf("Segments returned with unexpected diff (-want+got);\n%s", diff)
	}

	testCases := []struct {
		name string
		got  float64
		want float64
	}{
		{name: "h(A,S1)", got: in.Demand.Lookup("A", "S1"), want: 10},
		{name: "h(C,S1) default", got: in.Demand.Lookup("C", "S1"), want: 0},
		{name: "d(B,P2)", got: in.Distance.Lookup("B", "P2"), want: 1},
		{name: "d(B,E1) default", got: in.Distance.Lookup("B", "E1"), want: network.DefaultUnreachableDistance},
		{name: "v0(A)", got: in.BaselineUtility.Lookup("A"), want: -1.5},
		{name: "v0(B)", got: in.BaselineUtility.Lookup("B"), want: 0},
	}
	for _, test := range testCases {
		if test.got != test.want {
			t.Errorf("%s = %v, want %v", test.name, test.got, test.want)
		}
	}
	if got := in.BaselineUtility.Len(); got != 2 {
		t.Errorf("BaselineUtility.Len() = %d, want 2 (two header rows skipped)", got)
	}
	if err := in.Validate(); err != nil {
		t.Errorf("Validate() returned with unexpected error %v", err)
	}
}

func TestLoad_UnreachableDistanceOption(t *testing.T) {
	in, err := Load(writeCSVDir(t, scenarioCSV), Options{UnreachableDistance: 500})
	if err != nil {
		t.Fatalf("Load() returned with unexpected error %v", err)
	}
	if got := in.Distance.Lookup("B", "E1"); got != 500 {
		t.Errorf("Distance.Lookup(B, E1) = %v, want 500", got)
	}
}

func TestLoad_BlankRowsAndWhitespace(t *testing.T) {
	files := withFile(SheetLocations, "\ufeffI\n\n A \n,\nB\n")
	in, err := Load(writeCSVDir(t, files), Options{})
	if err != nil {
		t.Fatalf("Load() returned with unexpected error %v", err)
	}
	if diff := cmp.Diff([]network.ID{"A", "B"}, in.Locations); diff != "" {
		t.Errorf("Locations returned with unexpected diff (-want+got);\n%s", diff)
	}
}

func TestLoad_Errors(t *testing.T) {
	testCases := []struct {
		name      string
		files     map[string]string
		wantTable string
		wantRow   int
		wantMsg   string
	}{
		{
			name:      "MalformedNumber",
			files:     withFile(SheetDistance, "i,j,value\nA,P1,2\nA,P2,far\n"),
			wantTable: SheetDistance,
			wantRow:   3,
			wantMsg:   `malformed number "far"`,
		},
		{
			name:      "TooFewColumns",
			files:     withFile(SheetDemand, "i,s,value\nA,S1\n"),
			wantTable: SheetDemand,
			wantRow:   2,
			wantMsg:   "want 3 columns, got 2",
		},
		{
			name:      "EmptyKey",
			files:     withFile(SheetBaseline, "title\ni,value\n,3\n"),
			wantTable: SheetBaseline,
			wantRow:   3,
			wantMsg:   "column 1 is empty",
		},
		{
			name:      "MissingHeaderRows",
			files:     withFile(SheetBaseline, "only one row\n"),
			wantTable: SheetBaseline,
			wantMsg:   "want 2 header rows",
		},
		{
			name:      "BadQuoting",
			files:     withFile(SheetSites, "M\n\"E1\n"),
			wantTable: SheetSites,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			_, err := Load(writeCSVDir(t, test.files), Options{})
			var loadErr *LoadError
			if !errors.As(err, &loadErr) {
				t.Fatalf("Load() err = %v, want a *LoadError", err)
			}
			if loadErr.Table != test.wantTable || loadErr.Row != test.wantRow {
				t.Errorf("Load() err at %s row %d, want %s row %d", loadErr.Table, loadErr.Row, test.wantTable, test.wantRow)
			}
			if !strings.Contains(err.Error(), test.wantMsg) {
				t.Errorf("Load() err = %q, want it to contain %q", err, test.wantMsg)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	files := withFile(SheetSegments, "")
	d := writeCSVDir(t, files)
	if err := os.Remove(d.Path(SheetSegments)); err != nil {
		t.Fatalf("os.Remove() returned with unexpected error %v", err)
	}

	_, err := Load(d, Options{})
	var loadErr *LoadError
	if !errors.As(err, &loadErr) || loadErr.Table != SheetSegments {
		t.Fatalf("Load() err = %v, want a *LoadError for %q", err, SheetSegments)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load() err = %v, want it to wrap os.ErrNotExist", err)
	}
	if want := filepath.Join(d.Dir, "RetailStores-Set S.csv"); loadErr.Path != want {
		t.Errorf("LoadError.Path = %q, want %q", loadErr.Path, want)
	}
}

func TestLoad_DuplicateParameter(t *testing.T) {
	files := withFile(SheetDemand, "i,s,value\nA,S1,10\nA,S1,11\n")
	_, err := Load(writeCSVDir(t, files), Options{})
	var consErr *network.ConsistencyError
	if !errors.As(err, &consErr) {
		t.Fatalf("Load() err = %v, want a *network.ConsistencyError", err)
	}
	if consErr.Table != SheetDemand {
		t.Errorf("ConsistencyError.Table = %q, want %q", consErr.Table, SheetDemand)
	}
}

// writeWorkbook saves the scenario as an .xlsx workbook, one sheet per table.
// Each edit is applied to the workbook before it is saved.
func writeWorkbook(t *testing.T, edits ...func(f *excelize.File) error) string {
	t.Helper()
	f := excelize.NewFile()
	t.Cleanup(func() { _ = f.Close() })

	sheets := map[string][][]any{
		SheetLocations:  {{"I"}, {"A"}, {"B"}},
		SheetCandidates: {{"J"}, {"P1"}, {"P2"}},
		SheetSites:      {{"M"}, {"E1"}, {"P1"}, {"C1"}, {"P2"}},
		SheetSegments:   {{"S"}, {"S1"}},
		SheetDemand:     {{"i", "s", "value"}, {"A", "S1", 10}, {"B", "S1", 5}},
		SheetDistance:   {{"i", "j", "value"}, {"A", "P1", 2}, {"A", "P2", 4}, {"B", "P1", 5}, {"B", "P2", 1}, {"A", "E1", 3}},
		SheetBaseline:   {{"Baseline utility of the outside option"}, {"i", "value"}, {"A", -1.5}, {}, {"B", 0}},
	}
	for _, sheet := range Sheets() {
		if _, err := f.NewSheet(sheet); err != nil {
			t.Fatalf("NewSheet(%q) returned with unexpected error %v", sheet, err)
		}
		for r, row := range sheets[sheet] {
			if len(row) == 0 {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				t.Fatalf("CoordinatesToCellName() returned with unexpected error %v", err)
			}
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				t.Fatalf("SetSheetRow(%q, %s) returned with unexpected error %v", sheet, cell, err)
			}
		}
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		t.Fatalf("DeleteSheet() returned with unexpected error %v", err)
	}
	for _, edit := range edits {
		if err := edit(f); err != nil {
			t.Fatalf("editing the workbook returned with unexpected error %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), "RetailStores.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs(%s) returned with unexpected error %v", path, err)
	}
	return path
}

func TestLoad_Workbook(t *testing.T) {
	wb, err := OpenWorkbook(writeWorkbook(t))
	if err != nil {
		t.Fatalf("OpenWorkbook() returned with unexpected error %v", err)
	}
	defer wb.Close()

	got, err := Load(wb, Options{})
	if err != nil {
		t.Fatalf("Load(workbook) returned with unexpected error %v", err)
	}
	want, err := Load(writeCSVDir(t, scenarioCSV), Options{})
	if err != nil {
		t.Fatalf("Load(csv) returned with unexpected error %v", err)
	}
	if diff := cmp.Diff(want, got, instanceCmp); diff != "" {
		t.Errorf("Load(workbook) returned with unexpected diff (-want+got);\n%s", diff)
	}
}

func TestConvertWorkbook(t *testing.T) {
	wb, err := OpenWorkbook(writeWorkbook(t))
	if err != nil {
		t.Fatalf("OpenWorkbook() returned with unexpected error %v", err)
	}
	defer wb.Close()

	outDir := filepath.Join(t.TempDir(), "data")
	written, err := ConvertWorkbook(wb, outDir, testPrefix)
	if err != nil {
		t.Fatalf("ConvertWorkbook() returned with unexpected error %v", err)
	}
	if got, want := len(written), len(Sheets()); got != want {
		t.Errorf("ConvertWorkbook() wrote %d files, want %d", got, want)
	}

	fromCSV, err := Load(CSVDir{Dir: outDir, Prefix: testPrefix}, Options{})
	if err != nil {
		t.Fatalf("Load(converted) returned with unexpected error %v", err)
	}
	fromWorkbook, err := Load(wb, Options{})
	if err != nil {
		t.Fatalf("Load(workbook) returned with unexpected error %v", err)
	}
	if diff := cmp.Diff(fromWorkbook, fromCSV, instanceCmp); diff != "" {
		t.Errorf("converted tables differ from the workbook (-workbook+csv);\n%s", diff)
	}

	header, err := os.ReadFile(filepath.Join(outDir, "RetailStores-d_ij.csv"))
	if err != nil {
		t.Fatalf("os.ReadFile() returned with unexpected error %v", err)
	}
	if !strings.HasPrefix(string(header), "i,j,value\n") {
		t.Errorf("converted d_ij does not keep its header row:\n%s", header)
	}
}

// setFormatted stores `v` in `cell` of `sheet` with the "0.00" number format.
func setFormatted(sheet, cell string, v float64) func(f *excelize.File) error {
	return func(f *excelize.File) error {
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
		style, err := f.NewStyle(&excelize.Style{NumFmt: 2})
		if err != nil {
			return err
		}
		return f.SetCellStyle(sheet, cell, cell, style)
	}
}

func TestWorkbook_NumberFormatsAreIgnored(t *testing.T) {
	wb, err := OpenWorkbook(writeWorkbook(t,
		setFormatted(SheetDemand, "C2", 12.3456),
		setFormatted(SheetDistance, "C2", 0.004),
	))
	if err != nil {
		t.Fatalf("OpenWorkbook() returned with unexpected error %v", err)
	}
	defer wb.Close()

	outDir := t.TempDir()
	if _, err := ConvertWorkbook(wb, outDir, testPrefix); err != nil {
		t.Fatalf("ConvertWorkbook() returned with unexpected error %v", err)
	}

	sources := []struct {
		name string
		src  Source
	}{
		{name: "Workbook", src: wb},
		{name: "ConvertedCSV", src: CSVDir{Dir: outDir, Prefix: testPrefix}},
	}
	for _, test := range sources {
		t.Run(test.name, func(t *testing.T) {
			in, err := Load(test.src, Options{})
			if err != nil {
				t.Fatalf("Load() returned with unexpected error %v", err)
			}
			if got, want := in.Demand.Lookup("A", "S1"), 12.3456; got != want {
				t.Errorf("h[A, S1] = %v, want %v", got, want)
			}
			if got, want := in.Distance.Lookup("A", "P1"), 0.004; got != want {
				t.Errorf("d[A, P1] = %v, want %v", got, want)
			}
		})
	}
}

func TestOpenWorkbook_Missing(t *testing.T) {
	_, err := OpenWorkbook(filepath.Join(t.TempDir(), "absent.xlsx"))
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Errorf("OpenWorkbook() err = %v, want a *LoadError", err)
	}
}

func TestLoad_WorkbookMissingSheet(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs() returned with unexpected error %v", err)
	}
	wb, err := OpenWorkbook(path)
	if err != nil {
		t.Fatalf("OpenWorkbook() returned with unexpected error %v", err)
	}
	defer wb.Close()

	_, err = Load(wb, Options{})
	var loadErr *LoadError
	if !errors.As(err, &loadErr) || loadErr.Table != SheetLocations {
		t.Errorf("Load() err = %v, want a *LoadError for %q", err, SheetLocations)
	}
}
