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

package milp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// termsPerLine bounds the length of the lines written by WriteLP.
const termsPerLine = 8

// LPVarName returns the column name used for variable `i` in LP output.
// Model names are free text and are only written as comments.
func LPVarName(i VarIndex) string {
	return "x" + strconv.Itoa(int(i))
}

// LPConstraintName returns the row name used for constraint `i` in LP output.
func LPConstraintName(i ConstrIndex) string {
	return "c" + strconv.Itoa(int(i))
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

type lpWriter struct {
	w   *bufio.Writer
	err error
}

func (lw *lpWriter) printf(format string, a ...any) {
	if lw.err != nil {
		return
	}
	_, lw.err = fmt.Fprintf(lw.w, format, a...)
}

func (lw *lpWriter) linearForm(terms []Term) {
	for n, t := range terms {
		if n > 0 && n%termsPerLine == 0 {
			lw.printf("\n  ")
		}
		sign := "+"
		c := t.Coeff
		if c < 0 || (c == 0 && math.Signbit(c)) {
			sign = "-"
			c = -c
		}
		lw.printf(" %s %s %s", sign, formatNumber(c), LPVarName(t.Var))
	}
}

// WriteLP writes the model in CPLEX LP format.
//
// Every variable appears in the objective, in index order, so solvers that
// number columns by first appearance (GLPK) number them like the model does.
// The objective offset is not part of the LP text; it is written as a comment.
func WriteLP(w io.Writer, m *Model) error {
	if m.NumVars() == 0 {
		return errors.New("cannot export a model without variables as LP format")
	}
	lw := &lpWriter{w: bufio.NewWriter(w)}

	lw.printf("\\ Model: %s\n", sanitizeComment(m.name))
	for i, v := range m.vars {
		if v.Name != "" {
			lw.printf("\\ %s = %s\n", LPVarName(VarIndex(i)), sanitizeComment(v.Name))
		}
	}
	for i, c := range m.constraints {
		if c.Name != "" {
			lw.printf("\\ %s = %s\n", LPConstraintName(ConstrIndex(i)), sanitizeComment(c.Name))
		}
	}
	if m.objective.Offset != 0 {
		lw.printf("\\ objective offset: %s\n", formatNumber(m.objective.Offset))
	}

	if m.objective.Sense == Maximize {
		lw.printf("Maximize\n")
	} else {
		lw.printf("Minimize\n")
	}
	coeffs := make([]float64, len(m.vars))
	for _, t := range m.objective.Terms {
		coeffs[t.Var] = t.Coeff
	}
	objTerms := make([]Term, len(m.vars))
	for i := range m.vars {
		objTerms[i] = Term{Var: VarIndex(i), Coeff: coeffs[i]}
	}
	lw.printf(" obj:")
	lw.linearForm(objTerms)
	lw.printf("\n")

	lw.printf("Subject To\n")
	for i, c := range m.constraints {
		terms := c.Terms
		if len(terms) == 0 {
			terms = []Term{{Var: 0, Coeff: 0}}
		}
		name := LPConstraintName(ConstrIndex(i))
		b := c.Bounds
		switch {
		case b.IsFixed():
			lw.printf(" %s:", name)
			lw.linearForm(terms)
			lw.printf(" = %s\n", formatNumber(b.Upper))
		case b.HasLower() && b.HasUpper():
			lw.printf(" %s_lo:", name)
			lw.linearForm(terms)
			lw.printf(" >= %s\n", formatNumber(b.Lower))
			lw.printf(" %s_hi:", name)
			lw.linearForm(terms)
			lw.printf(" <= %s\n", formatNumber(b.Upper))
		case b.HasUpper():
			lw.printf(" %s:", name)
			lw.linearForm(terms)
			lw.printf(" <= %s\n", formatNumber(b.Upper))
		case b.HasLower():
			lw.printf(" %s:", name)
			lw.linearForm(terms)
			lw.printf(" >= %s\n", formatNumber(b.Lower))
		default:
			lw.printf("\\ %s is free and omitted\n", name)
		}
	}

	lw.printf("Bounds\n")
	var binaries, generals []string
	for i, v := range m.vars {
		name := LPVarName(VarIndex(i))
		b := v.Bounds
		if v.Integer && b.Lower == 0 && b.Upper == 1 {
			binaries = append(binaries, name)
			continue
		}
		if v.Integer {
			generals = append(generals, name)
		}
		switch {
		case b.IsFixed():
			lw.printf(" %s = %s\n", name, formatNumber(b.Lower))
		case !b.HasLower() && !b.HasUpper():
			lw.printf(" %s free\n", name)
		case !b.HasLower():
			lw.printf(" -inf <= %s <= %s\n", name, formatNumber(b.Upper))
		case !b.HasUpper():
			if b.Lower != 0 {
				lw.printf(" %s >= %s\n", name, formatNumber(b.Lower))
			}
		default:
			lw.printf(" %s <= %s <= %s\n", formatNumber(b.Lower), name, formatNumber(b.Upper))
		}
	}
	writeNameSection(lw, "General", generals)
	writeNameSection(lw, "Binary", binaries)
	lw.printf("End\n")

	if lw.err != nil {
		return lw.err
	}
	return lw.w.Flush()
}

func writeNameSection(lw *lpWriter, section string, names []string) {
	if len(names) == 0 {
		return
	}
	lw.printf("%s\n", section)
	for n := 0; n < len(names); n += termsPerLine {
		end := min(n+termsPerLine, len(names))
		lw.printf(" %s\n", strings.Join(names[n:end], " "))
	}
}

func sanitizeComment(s string) string {
	return strings.NewReplacer("\n", " ", "\r", " ").Replace(s)
}

// ExportModelAsLpFormat returns the model as a string in CPLEX LP format.
func ExportModelAsLpFormat(m *Model) (string, error) {
	var sb strings.Builder
	if err := WriteLP(&sb, m); err != nil {
		return "", err
	}
	return sb.String(), nil
}
