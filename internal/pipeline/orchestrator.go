package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"sheetpilot/pkg/contracts/domain"
)

// ErrEmptyGrid is returned when a pipeline run is attempted on a grid with
// no rows at or below the header row.
var ErrEmptyGrid = errors.New("grid has no rows to process")

// Processor runs the full transformation sequence for one user selection.
type Processor struct {
	logger       *slog.Logger
	assumedOrder domain.DateOrder
}

// ProcessorConfig holds configuration options for the Processor.
type ProcessorConfig struct {
	AssumedOrder domain.DateOrder // Day/month ordering for ambiguous dates
}

// NewProcessor creates a pipeline processor with the given configuration.
func NewProcessor(logger *slog.Logger, config ProcessorConfig) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if config.AssumedOrder == "" {
		config.AssumedOrder = domain.DateOrderDayFirst
	}
	return &Processor{
		logger:       logger.With(slog.String("component", "pipeline_processor")),
		assumedOrder: config.AssumedOrder,
	}
}

// Process applies the user's selection to the grid and returns the final
// grid, header row first. Stages run in a fixed order:
//
//  1. Filter rows by excluded months. Runs first so later column edits see
//     only surviving rows, and because the date column index refers to an
//     original column position untouched by column edits.
//  2. Add new columns. Runs before reordering so order specs, which are
//     expressed over the combined original-plus-added header list, have
//     every name to resolve against.
//  3. Reorder columns, resolving the order spec by header name.
//  4. Remove selected columns, last, by name against the reordered header.
//     Removal running last means both remove and reorder work on stable
//     name-to-position mappings; a name that is both reordered and removed
//     ends up removed.
//
// Every stage is a pure grid-to-grid function; no stage mutates its input.
func (p *Processor) Process(ctx context.Context, grid domain.Grid, headerRowIndex int, selection domain.ProcessingSelection, dateColumnIndex int, monthBuckets []domain.MonthBucket) (domain.Grid, error) {
	if headerRowIndex < 0 || headerRowIndex >= len(grid) {
		return nil, ErrEmptyGrid
	}
	working := grid[headerRowIndex:]
	if len(working) == 0 {
		return nil, ErrEmptyGrid
	}

	if len(selection.SelectedMonths) > 0 && dateColumnIndex >= 0 {
		before := len(working)
		working = FilterRows(working, selection.SelectedMonths, monthBuckets, dateColumnIndex, p.assumedOrder)
		p.logger.InfoContext(ctx, "filtered rows by month",
			slog.Int("excluded_months", len(selection.SelectedMonths)),
			slog.Int("rows_removed", before-len(working)))
	}

	originalHeader := HeaderNames(working[0])

	if len(selection.AddedColumns) > 0 {
		working = AddColumns(working, selection.AddedColumns)
	}

	if len(selection.ColumnOrder) > 0 {
		permutation := p.resolveColumnOrder(ctx, selection.ColumnOrder, originalHeader, selection.AddedColumns, working[0])
		if len(permutation) > 0 {
			working = ReorderColumns(working, permutation)
		}
	}

	if len(selection.SelectedHeaders) > 0 {
		working = RemoveColumns(working, selection.SelectedHeaders)
	}

	return working, nil
}

// resolveColumnOrder turns a spec over combined-header-list positions into
// concrete indices of the post-addition header row. The indirection is
// required because the user chose an order against a header list that
// predates column removal and addition: each spec position names a header,
// and the name is looked up in the current header row. Spec positions out
// of range, and names no longer present, are dropped with a log line
// rather than failing the run.
func (p *Processor) resolveColumnOrder(ctx context.Context, spec domain.ColumnOrderSpec, originalHeader, addedColumns []string, currentHeader domain.Row) []int {
	combined := make([]string, 0, len(originalHeader)+len(addedColumns))
	combined = append(combined, originalHeader...)
	combined = append(combined, addedColumns...)

	idx := headerIndex(currentHeader)
	permutation := make([]int, 0, len(spec))
	for _, pos := range spec {
		if pos < 0 || pos >= len(combined) {
			p.logger.WarnContext(ctx, "column order position out of range",
				slog.Int("position", pos), slog.Int("combined_headers", len(combined)))
			continue
		}
		name := strings.TrimSpace(combined[pos])
		current, ok := idx[name]
		if !ok {
			p.logger.WarnContext(ctx, "column order references unknown header",
				slog.String("header", name))
			continue
		}
		permutation = append(permutation, current)
	}
	return permutation
}
