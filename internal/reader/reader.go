// Package reader turns an uploaded workbook into a raw domain.Grid. It is
// the file-reading collaborator of the transformation pipeline: all it
// does is pick the sheet holding the data and hand the cells over as
// primitive values. No transformation logic lives here.
package reader

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"sheetpilot/pkg/contracts/domain"
)

// ErrEmptyWorkbook reports a workbook with no sheets or no populated
// cells. Callers match it with errors.Is; the wrapping message names the
// offending file.
var ErrEmptyWorkbook = errors.New("workbook contains no data")

// Workbook is the result of reading one uploaded file.
type Workbook struct {
	SourceName string
	SheetName  string
	Grid       domain.Grid
}

// Reader reads spreadsheet files into grids.
type Reader struct {
	logger  *slog.Logger
	maxRows int
}

// ReaderConfig holds configuration options for the Reader.
type ReaderConfig struct {
	MaxRows int // Upper bound on rows read per sheet; 0 means no limit
}

// New creates a workbook reader.
func New(logger *slog.Logger, config ReaderConfig) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{
		logger:  logger.With(slog.String("component", "workbook_reader")),
		maxRows: config.MaxRows,
	}
}

// Read parses the workbook from r and returns its densest sheet as a grid.
// Sheets are compared by populated row count; ties go to sheet order.
// An empty workbook is an unrecoverable input error with a message fit for
// the user, and no partial state is produced.
func (rd *Reader) Read(r io.Reader, sourceName string) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook %q: %w", sourceName, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %q has no sheets: %w", sourceName, ErrEmptyWorkbook)
	}

	var bestSheet string
	var bestRows [][]string
	for _, name := range sheets {
		rows, err := f.GetRows(name)
		if err != nil {
			rd.logger.Warn("skipping unreadable sheet",
				slog.String("sheet", name),
				slog.String("error", err.Error()))
			continue
		}
		if populatedRows(rows) > populatedRows(bestRows) {
			bestSheet = name
			bestRows = rows
		}
	}

	if populatedRows(bestRows) == 0 {
		return nil, fmt.Errorf("workbook %q: %w", sourceName, ErrEmptyWorkbook)
	}
	if rd.maxRows > 0 && len(bestRows) > rd.maxRows {
		return nil, fmt.Errorf("workbook %q has %d rows, the limit is %d", sourceName, len(bestRows), rd.maxRows)
	}

	grid := toGrid(bestRows)
	rd.logger.Info("workbook read",
		slog.String("source", sourceName),
		slog.String("sheet", bestSheet),
		slog.Int("rows", len(grid)))

	return &Workbook{SourceName: sourceName, SheetName: bestSheet, Grid: grid}, nil
}

func populatedRows(rows [][]string) int {
	n := 0
	for _, row := range rows {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				n++
				break
			}
		}
	}
	return n
}

// toGrid converts string cells to primitives: empty cells become nil,
// numbers become float64, everything else stays a string. Trailing rows
// with no content are trimmed.
func toGrid(rows [][]string) domain.Grid {
	last := len(rows)
	for last > 0 && rowBlank(rows[last-1]) {
		last--
	}

	grid := make(domain.Grid, last)
	for i, row := range rows[:last] {
		cells := make(domain.Row, len(row))
		for j, raw := range row {
			cells[j] = toCell(raw)
		}
		grid[i] = cells
	}
	return grid
}

func toCell(raw string) domain.Cell {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return f
	}
	return raw
}

func rowBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
