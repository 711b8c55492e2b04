package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
)

// rowParser turns one CSV row into an item. A non-empty warning is recorded
// against the row.
type rowParser func(get func(col string) string, counter *int) (item *Item, originalName, warning string)

// parseCSV reads a header-based CSV export. Columns are looked up by name
// after normalize; required must be present.
func parseCSV(data []byte, normalize func(string) string, required string, parse rowParser) (*ImportResult, error) {
	result := newResult()

	// Strip UTF-8 BOM if present
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	reader := csv.NewReader(bytes.NewReader(data))
	reader.LazyQuotes = true // Handle malformed exports
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[normalize(col)] = i
	}
	if _, ok := colIndex[required]; !ok {
		return nil, fmt.Errorf("missing required column: %s", required)
	}

	itemCounter := 1
	rowNum := 1 // header is row 1
	for {
		rowNum++
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("row %d: failed to parse: %v", rowNum, err))
			continue
		}
		if len(row) != len(header) {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("row %d: column count mismatch (expected %d, got %d)", rowNum, len(header), len(row)))
			continue
		}

		get := func(col string) string {
			if idx, ok := colIndex[col]; ok {
				return row[idx]
			}
			return ""
		}
		item, name, warning := parse(get, &itemCounter)
		if warning != "" {
			result.Warnings = append(result.Warnings, fmt.Sprintf("row %d: %s", rowNum, warning))
		}
		if item != nil {
			result.addItem(item, name)
		}
	}

	return result, nil
}
