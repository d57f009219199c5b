// Package engine reshapes an uploaded roster into an import format and
// validates the fields it recognizes.
package engine

import (
	"strconv"
	"strings"

	"github.com/nconklindev/censo/internal/schema"
	"github.com/nconklindev/censo/internal/types"
)

// ErrorColumn is the leading marker column some formats request.
const ErrorColumn = "ERROR"

// ColumnMapping maps a target field to a source column name. An empty or
// missing entry means the field is unmapped.
type ColumnMapping map[string]string

// NormalizedTable has exactly the target schema's columns in canonical order.
type NormalizedTable struct {
	Columns []string
	Rows    [][]any
	// SerialDates makes date fields accept Excel serial numbers.
	SerialDates bool
}

// HasErrorColumn reports whether the first column is the ERROR marker.
func (t *NormalizedTable) HasErrorColumn() bool {
	return len(t.Columns) > 0 && t.Columns[0] == ErrorColumn
}

// Column returns the index of the named column, or -1.
func (t *NormalizedTable) Column(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Strings renders every cell as text, header row first.
func (t *NormalizedTable) Strings() [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, append([]string(nil), t.Columns...))
	for _, row := range t.Rows {
		rec := make([]string, len(row))
		for i, cell := range row {
			rec[i] = CellString(cell)
		}
		out = append(out, rec)
	}
	return out
}

// CellString renders a table cell as text.
func CellString(cell any) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	}
	return ""
}

// BuildNormalizedTable copies each mapped source column into its target
// column. Unmapped fields, and fields mapped to a column the source does not
// have, come out empty. It never fails.
func BuildNormalizedTable(src *types.FileData, mapping ColumnMapping, specs []schema.FieldSpec, errorColumn bool) *NormalizedTable {
	offset := 0
	columns := make([]string, 0, len(specs)+1)
	if errorColumn {
		columns = append(columns, ErrorColumn)
		offset = 1
	}
	columns = append(columns, schema.Names(specs)...)

	rows := make([][]any, len(src.Rows))
	for r := range rows {
		row := make([]any, len(columns))
		for c := range row {
			row[c] = ""
		}
		rows[r] = row
	}

	for i, spec := range specs {
		source := mapping[spec.Name]
		if source == "" {
			continue
		}
		col := src.Column(source)
		if col < 0 {
			continue
		}
		for r := range rows {
			rows[r][offset+i] = src.Cell(r, col)
		}
	}

	return &NormalizedTable{Columns: columns, Rows: rows, SerialDates: src.SerialDates}
}

// CellRef locates one cell by data row index and column name.
type CellRef struct {
	Row   int    `json:"row"`
	Field string `json:"field"`
}

// ValidationResult lists every cell holding the Invalid marker, row by row.
type ValidationResult struct {
	Invalid []CellRef `json:"invalid"`
}

// Count is the number of invalid cells.
func (v ValidationResult) Count() int { return len(v.Invalid) }

// ByRow groups invalid field names by row index.
func (v ValidationResult) ByRow() map[int][]string {
	rows := make(map[int][]string)
	for _, ref := range v.Invalid {
		rows[ref.Row] = append(rows[ref.Row], ref.Field)
	}
	return rows
}

// InvalidRows counts rows with at least one invalid cell.
func (v ValidationResult) InvalidRows() int {
	return len(v.ByRow())
}

// ApplyValidators runs the registered validators on every cell of their
// fields, blank ones included, on a copy of table and reports every invalid
// cell. One bad cell never stops the others.
func ApplyValidators(table *NormalizedTable) (*NormalizedTable, ValidationResult) {
	out := &NormalizedTable{
		Columns:     append([]string(nil), table.Columns...),
		Rows:        make([][]any, len(table.Rows)),
		SerialDates: table.SerialDates,
	}

	checks := make([]Validator, len(out.Columns))
	for c, name := range out.Columns {
		if v, ok := validatorFor(name, table.SerialDates); ok {
			checks[c] = v
		}
	}

	var result ValidationResult
	for r, row := range table.Rows {
		next := make([]any, len(row))
		copy(next, row)
		for c := range next {
			if c < len(checks) && checks[c] != nil {
				next[c] = checks[c](CellString(next[c]))
			}
			if c < len(out.Columns) && out.Columns[c] != ErrorColumn {
				if s, ok := next[c].(string); ok && s == Invalid {
					result.Invalid = append(result.Invalid, CellRef{Row: r, Field: out.Columns[c]})
				}
			}
		}
		out.Rows[r] = next
	}

	if out.HasErrorColumn() {
		for r, fields := range result.ByRow() {
			out.Rows[r][0] = strings.Join(fields, ", ")
		}
	}

	return out, result
}

// Normalize builds and validates the table for a format in one pass.
func Normalize(src *types.FileData, mapping ColumnMapping, format schema.ImportFormat) (*NormalizedTable, ValidationResult) {
	table := BuildNormalizedTable(src, mapping, format.Fields(), format.ErrorColumn)
	return ApplyValidators(table)
}
