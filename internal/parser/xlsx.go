package parser

import (
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// parseXLSX reads the first worksheet of an XLSX archive. Unlike CSV there is
// no comment-skipping: the first row is always the header. An archive that
// cannot be opened or has no usable sheet yields an empty table rather than
// an error.
func parseXLSX(r io.Reader) *Table {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return &Table{}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return &Table{}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil || len(rows) == 0 {
		return &Table{}
	}

	fields := make([]string, len(rows[0]))
	for i, v := range rows[0] {
		fields[i] = strings.ToLower(strings.TrimSpace(v))
	}

	table := &Table{Fields: fields}
	for _, record := range rows[1:] {
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
