package exporter

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"sheetpilot/pkg/contracts/domain"
)

// ExcelWriter renders processed grids as styled .xlsx workbooks. It is the
// spreadsheet-writing collaborator of the pipeline: it receives the final
// grid plus column classification metadata and decides fonts, borders, and
// number formats itself; the pipeline only classifies.
type ExcelWriter struct {
	logger *slog.Logger
	styled bool
}

// ExcelWriterConfig holds configuration options for the ExcelWriter.
type ExcelWriterConfig struct {
	Styled bool // Apply header fill, borders, and number formats
}

// NewExcelWriter creates a styled workbook writer.
func NewExcelWriter(logger *slog.Logger, config ExcelWriterConfig) *ExcelWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExcelWriter{
		logger: logger.With(slog.String("component", "excel_writer")),
		styled: config.Styled,
	}
}

// WriteGrid writes the grid to w as a single-sheet workbook. Row 0 must be
// the header row.
func (e *ExcelWriter) WriteGrid(w io.Writer, grid domain.Grid, classification domain.ColumnClassification, sheetName string) error {
	if len(grid) == 0 {
		return fmt.Errorf("nothing to export: grid is empty")
	}
	if sheetName == "" {
		sheetName = "Processed Data"
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := e.writeSheet(f, sheetName, grid, classification); err != nil {
		return err
	}

	e.logger.Info("workbook written",
		slog.String("sheet", sheetName),
		slog.Int("rows", len(grid)))
	return f.Write(w)
}

// WriteSplit writes one sheet per month bucket, each repeating the header
// row, sheets in bucket order (ascending year then month).
func (e *ExcelWriter) WriteSplit(w io.Writer, header domain.Row, result domain.SplitResult, classification domain.ColumnClassification) error {
	if len(result.Buckets) == 0 {
		return fmt.Errorf("nothing to export: no month buckets")
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, bucket := range result.Buckets {
		sheetName := sanitizeSheetName(bucket.DisplayName)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheetName); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheetName); err != nil {
			return fmt.Errorf("create sheet %q: %w", sheetName, err)
		}

		grid := make(domain.Grid, 0, len(bucket.Rows)+1)
		grid = append(grid, header)
		grid = append(grid, bucket.Rows...)
		if err := e.writeSheet(f, sheetName, grid, classification); err != nil {
			return err
		}
	}

	e.logger.Info("split workbook written",
		slog.Int("sheets", len(result.Buckets)),
		slog.Int("invalid_date_rows", result.InvalidDateRows))
	return f.Write(w)
}

func (e *ExcelWriter) writeSheet(f *excelize.File, sheetName string, grid domain.Grid, classification domain.ColumnClassification) error {
	for r, row := range grid {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return fmt.Errorf("row %d: %w", r, err)
		}
		values := make([]interface{}, len(row))
		copy(values, row)
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", r, err)
		}
	}

	if !e.styled {
		return nil
	}

	styles := newStyleRegistry(f)
	if err := e.applyStyles(f, sheetName, grid, classification, styles); err != nil {
		return err
	}
	return autoFitColumns(f, sheetName, grid)
}

func (e *ExcelWriter) applyStyles(f *excelize.File, sheetName string, grid domain.Grid, classification domain.ColumnClassification, styles *styleRegistry) error {
	cols := len(grid[0])
	if cols == 0 {
		return nil
	}

	headerStyle, err := styles.header()
	if err != nil {
		return err
	}
	endHeader, _ := excelize.CoordinatesToCellName(cols, 1)
	if err := f.SetCellStyle(sheetName, "A1", endHeader, headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	if len(grid) < 2 {
		return nil
	}

	columnStyle := func(col int) (int, error) {
		switch {
		case containsIndex(classification.DateColumns, col):
			return styles.date()
		case containsIndex(classification.AmountColumns, col):
			return styles.amount()
		case containsIndex(classification.IDColumns, col):
			return styles.id()
		default:
			return styles.body()
		}
	}

	for col := 0; col < cols; col++ {
		styleID, err := columnStyle(col)
		if err != nil {
			return err
		}
		top, _ := excelize.CoordinatesToCellName(col+1, 2)
		bottom, _ := excelize.CoordinatesToCellName(col+1, len(grid))
		if err := f.SetCellStyle(sheetName, top, bottom, styleID); err != nil {
			return fmt.Errorf("style column %d: %w", col, err)
		}
	}
	return nil
}

func autoFitColumns(f *excelize.File, sheetName string, grid domain.Grid) error {
	const (
		minWidth = 10.0
		maxWidth = 40.0
	)
	cols := len(grid[0])
	for col := 0; col < cols; col++ {
		width := minWidth
		for _, row := range grid {
			if col >= len(row) {
				continue
			}
			if w := float64(len(formatCell(row[col]))) + 2; w > width {
				width = w
			}
		}
		if width > maxWidth {
			width = maxWidth
		}
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheetName, name, name, width); err != nil {
			return fmt.Errorf("set width for column %s: %w", name, err)
		}
	}
	return nil
}

func containsIndex(indexes []int, col int) bool {
	for _, i := range indexes {
		if i == col {
			return true
		}
	}
	return false
}

// Excel limits sheet names to 31 characters and bans a handful of
// characters.
func sanitizeSheetName(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			out = append(out, '_')
		default:
			out = append(out, r)
		}
	}
	if len(out) > 31 {
		out = out[:31]
	}
	if len(out) == 0 {
		return "Sheet"
	}
	return string(out)
}
