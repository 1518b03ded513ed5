package redcap

import (
	"encoding/csv"
	"io"
)

// WriteRecordsCSV writes rows in the flat CSV layout the records service accepts for
// imports. Columns missing in a row are left empty.
func WriteRecordsCSV(w io.Writer, columns []string, rows []Record) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(columns); err != nil {
		return err
	}
	line := make([]string, len(columns))
	for _, r := range rows {
		for i, c := range columns {
			line[i] = r[c]
		}
		if err := writer.Write(line); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
