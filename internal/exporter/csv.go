package exporter

import (
	"encoding/csv"
	"fmt"
	"io"

	"sheetpilot/pkg/contracts/domain"
)

// CSVOptions configures CSV writing behavior.
type CSVOptions struct {
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes the grid to w, header row first.
func WriteCSV(w io.Writer, grid domain.Grid, options CSVOptions) error {
	if len(grid) == 0 {
		return fmt.Errorf("nothing to export: grid is empty")
	}

	if options.BOMPrefix {
		if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)
	defer writer.Flush()

	record := make([]string, 0, len(grid[0]))
	for i, row := range grid {
		record = record[:0]
		for _, cell := range row {
			record = append(record, formatCell(cell))
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}
