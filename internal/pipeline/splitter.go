package pipeline

import (
	"errors"
	"strings"

	"sheetpilot/pkg/contracts/domain"
)

// ErrDateColumnRemoved is returned when a split is requested but the date
// column is no longer present in the processed grid: the user's own column
// removal made per-month splitting impossible. Callers must surface this
// as a recoverable condition rather than export empty sheets.
var ErrDateColumnRemoved = errors.New("cannot split: date column removed")

// SplitByMonth partitions the data rows of a processed grid into one
// bucket per year-month, for multi-sheet export. Row 0 must be the header
// row. The date column is re-found by header name rather than trusting an
// index, because processing may have reordered it. Rows whose date cell
// does not parse are counted in InvalidDateRows and excluded from every
// bucket; the count is reported, never silently dropped. Buckets come back
// sorted ascending by year then month, each non-empty.
func SplitByMonth(finalGrid domain.Grid, dateColumnHeader string, assumedOrder domain.DateOrder) (domain.SplitResult, error) {
	if len(finalGrid) == 0 {
		return domain.SplitResult{}, ErrEmptyGrid
	}

	dateCol, ok := headerIndex(finalGrid[0])[strings.TrimSpace(dateColumnHeader)]
	if !ok {
		return domain.SplitResult{}, ErrDateColumnRemoved
	}

	byKey := make(map[string]*domain.MonthBucket)
	invalid := 0
	for _, row := range finalGrid[1:] {
		var my *domain.MonthYear
		if dateCol < len(row) {
			my = ParseDate(row[dateCol], assumedOrder)
		}
		if my == nil {
			invalid++
			continue
		}
		key := my.Key()
		bucket, seen := byKey[key]
		if !seen {
			bucket = &domain.MonthBucket{
				Key:         key,
				DisplayName: MonthName(my.Month) + " " + my.Year,
				Year:        my.Year,
				MonthCode:   my.Month,
			}
			byKey[key] = bucket
		}
		bucket.Rows = append(bucket.Rows, row)
		bucket.Count++
	}

	buckets := make([]domain.MonthBucket, 0, len(byKey))
	for _, b := range byKey {
		buckets = append(buckets, *b)
	}
	sortBuckets(buckets)
	return domain.SplitResult{Buckets: buckets, InvalidDateRows: invalid}, nil
}
