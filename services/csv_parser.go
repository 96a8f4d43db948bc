package services

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Canonical import column names
const (
	ColumnUniversity = "university"
	ColumnCollege    = "college"
	ColumnDepartment = "department"
	ColumnCapacity   = "capacity"
)

// RequiredImportColumns are the columns every import must declare
var RequiredImportColumns = []string{ColumnUniversity, ColumnCollege, ColumnDepartment, ColumnCapacity}

// columnLabels maps accepted header labels to canonical column names.
// The Korean labels are the ones used by the admissions office spreadsheets.
var columnLabels = map[string]string{
	"대학교":        ColumnUniversity,
	"university": ColumnUniversity,
	"단과대학":       ColumnCollege,
	"college":    ColumnCollege,
	"학과":         ColumnDepartment,
	"department": ColumnDepartment,
	"정원":         ColumnCapacity,
	"capacity":   ColumnCapacity,
}

// ImportRow is one data row of a hierarchy import, still as raw text
type ImportRow struct {
	Line       int    `json:"line"`
	University string `json:"university"`
	College    string `json:"college"`
	Department string `json:"department"`
	Capacity   string `json:"capacity"`
}

// RowWarning explains why a row was skipped
type RowWarning struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// ImportTable is a parsed import: the canonical columns the header declared,
// the well-formed rows, and warnings for rows dropped while parsing.
type ImportTable struct {
	Columns  []string     `json:"columns"`
	Rows     []ImportRow  `json:"rows"`
	Warnings []RowWarning `json:"warnings"`
}

// MissingColumns lists required columns the header did not declare
func (t *ImportTable) MissingColumns() []string {
	declared := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		declared[c] = true
	}

	var missing []string
	for _, c := range RequiredImportColumns {
		if !declared[c] {
			missing = append(missing, c)
		}
	}
	return missing
}

// ParseImportCSV reads comma-separated rows whose first line is the header.
// Fields may be wrapped in single or double quotes to carry commas. Rows whose
// field count differs from the header are skipped with a warning.
func ParseImportCSV(r io.Reader) (*ImportTable, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	table := &ImportTable{Rows: []ImportRow{}, Warnings: []RowWarning{}}

	var header []string
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if lineNo == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		if header == nil {
			header = canonicalHeader(splitCSVRow(line))
			table.Columns = header
			continue
		}

		values := splitCSVRow(line)
		if len(values) != len(header) {
			table.Warnings = append(table.Warnings, RowWarning{
				Line:   lineNo,
				Reason: fmt.Sprintf("expected %d fields, got %d", len(header), len(values)),
			})
			continue
		}

		row := ImportRow{Line: lineNo}
		for i, column := range header {
			switch column {
			case ColumnUniversity:
				row.University = values[i]
			case ColumnCollege:
				row.College = values[i]
			case ColumnDepartment:
				row.Department = values[i]
			case ColumnCapacity:
				row.Capacity = values[i]
			}
		}
		table.Rows = append(table.Rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read import: %w: %v", ErrMalformedInput, err)
	}
	if header == nil {
		return nil, fmt.Errorf("import has no header row: %w", ErrMalformedInput)
	}

	return table, nil
}

func canonicalHeader(labels []string) []string {
	columns := make([]string, len(labels))
	for i, label := range labels {
		if c, ok := columnLabels[strings.ToLower(label)]; ok {
			columns[i] = c
		} else {
			columns[i] = label
		}
	}
	return columns
}

// splitCSVRow splits on commas outside quotes. A quote only opens at the start of a
// field, so apostrophes inside names are kept; a doubled quote inside a quoted
// field is a literal quote.
func splitCSVRow(line string) []string {
	runes := []rune(line)
	fields := []string{}

	var current strings.Builder
	var quote rune
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case quote != 0 && ch == quote:
			if i+1 < len(runes) && runes[i+1] == quote {
				current.WriteRune(ch)
				i++
				continue
			}
			quote = 0
		case quote == 0 && (ch == '"' || ch == '\'') && strings.TrimSpace(current.String()) == "":
			current.Reset()
			quote = ch
		case quote == 0 && ch == ',':
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(ch)
		}
	}
	fields = append(fields, strings.TrimSpace(current.String()))

	return fields
}
