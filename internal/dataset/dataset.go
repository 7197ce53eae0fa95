// Package dataset reads the externally supplied tabular file that maps file
// names to descriptions. Only CSV is handled here; richer spreadsheet
// formats are the host application's concern and arrive through the same
// map shape.
package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// Load reads a CSV file into a name-to-description mapping. Keys are
// lower-cased so lookups compare case-insensitively. The first row is
// treated as a header when it names a "description" column (matched
// case-insensitively, together with "file name"/"filename"); otherwise the
// first two columns are used as name and description. A duplicate file name
// silently takes the last row's description.
func Load(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}
	if len(records) == 0 {
		return map[string]string{}, nil
	}

	nameCol, descCol, hasHeader := detectColumns(records[0])
	rows := records
	if hasHeader {
		rows = records[1:]
	}

	result := make(map[string]string, len(rows))
	for _, row := range rows {
		if nameCol >= len(row) {
			continue
		}
		name := strings.TrimSpace(row[nameCol])
		if name == "" {
			continue
		}
		description := ""
		if descCol < len(row) {
			description = row[descCol]
		}
		result[strings.ToLower(name)] = description
	}
	return result, nil
}

// detectColumns finds the name and description columns from a header row.
func detectColumns(header []string) (nameCol, descCol int, hasHeader bool) {
	nameCol, descCol = 0, 1
	for i, cell := range header {
		switch strings.ToLower(strings.TrimSpace(cell)) {
		case "file name", "filename":
			nameCol = i
			hasHeader = true
		case "description":
			descCol = i
			hasHeader = true
		}
	}
	return nameCol, descCol, hasHeader
}
