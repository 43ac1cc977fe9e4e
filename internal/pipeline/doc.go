// Package pipeline implements the spreadsheet transformation core: header
// row location, date column detection, month aggregation, row filtering,
// column editing, and the orchestrated processing sequence that stitches
// those stages together deterministically.
//
// # Architecture
//
// The package is organized around pure functions over domain.Grid values:
//
//  1. LocateHeaderRow: finds the row holding column labels
//  2. DetectDateColumns: ranks columns likely to hold dates
//  3. AggregateByMonth: counts data rows per year-month bucket
//  4. FilterRows: removes rows belonging to excluded months
//  5. AddColumns / RemoveColumns / ReorderColumns: column edits
//  6. Processor.Process: runs filter → add → reorder → remove in order
//  7. SplitByMonth: partitions a processed grid into per-month buckets
//
// # Data Flow
//
// The typical flow through this package:
//
//	raw Grid → LocateHeaderRow → DetectDateColumns → AggregateByMonth
//	         → Processor.Process → SplitByMonth → workbook writer
//
// # Error Handling
//
// Cell-level parsing never fails: ParseDate returns nil for anything that
// is not a date. Grid-level operations return errors only for structural
// impossibilities, such as splitting by a date column the user removed.
// No function in this package mutates its input grid.
package pipeline
