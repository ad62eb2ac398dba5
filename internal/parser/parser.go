// Package parser turns an uploaded roster file (CSV or XLSX) into normalized
// field-name-to-value rows keyed by a content-sniffed header.
package parser

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
)

// ErrUnsupportedFormat is returned for file extensions other than csv/xlsx
var ErrUnsupportedFormat = errors.New("unsupported file type, use .csv or .xlsx")

// headerToken identifies the header row when sniffing CSV content
const headerToken = "firstname"

// Row maps a normalized (lowercased, trimmed) field name to its raw cell value
type Row map[string]string

// Table is the parsed content of one roster file
type Table struct {
	Fields []string
	Rows   []Row
}

// Empty reports whether no header row was found
func (t *Table) Empty() bool {
	return len(t.Fields) == 0
}

// HasField reports whether the header contains the given normalized field
func (t *Table) HasField(name string) bool {
	for _, f := range t.Fields {
		if f == name {
			return true
		}
	}
	return false
}

// Parse reads a roster file with the declared extension ("csv" or "xlsx").
// A file whose header cannot be located yields an empty table, not an error;
// the caller decides whether that is fatal.
func Parse(r io.Reader, ext string) (*Table, error) {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "csv":
		return parseCSV(r), nil
	case "xlsx":
		return parseXLSX(r), nil
	default:
		return nil, ErrUnsupportedFormat
	}
}

// parseCSV scans lines top-down for the header row: comment lines (first cell
// starting with '#') and blank lines are discarded until a row containing the
// token "firstname" is found. Everything after the header is data; a literal
// '#' value after the header is treated as data, not a comment.
func parseCSV(r io.Reader) *Table {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var fields []string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return &Table{}
		}
		if err != nil {
			continue
		}

		trimmed := make([]string, len(record))
		for i, v := range record {
			trimmed[i] = strings.ToLower(strings.TrimSpace(v))
		}
		if len(trimmed) > 0 && strings.HasPrefix(trimmed[0], "#") {
			continue
		}
		allBlank := true
		for _, v := range trimmed {
			if v != "" {
				allBlank = false
				break
			}
		}
		if allBlank {
			continue
		}
		if containsToken(trimmed, headerToken) {
			fields = trimmed
			break
		}
		// Not a header candidate, keep scanning
	}

	table := &Table{Fields: fields}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		row := make(Row, len(fields))
		for i, key := range fields {
			if i < len(record) {
				row[key] = record[i]
			} else {
				row[key] = ""
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

func containsToken(cells []string, token string) bool {
	for _, c := range cells {
		if c == token {
			return true
		}
	}
	return false
}
