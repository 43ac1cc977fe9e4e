package pipeline

import (
	"sort"

	"sheetpilot/pkg/contracts/domain"
)

// AggregateByMonth counts data rows per year-month bucket using the value
// at dateColumnIndex. Row 0 must be the header row; every data row is
// visited, not a sample. Buckets come back sorted ascending by year then
// month. The result is empty when the column index is invalid or no row
// parses.
//
// Buckets are keyed "YYYY-MM", so January 2023 and January 2024 are always
// distinct. Callers must re-run aggregation when the selected date column
// changes and clear any month selections made against the old buckets:
// display names from another column's aggregation must not silently apply.
func AggregateByMonth(grid domain.Grid, dateColumnIndex int, assumedOrder domain.DateOrder) []domain.MonthBucket {
	if len(grid) < 2 || dateColumnIndex < 0 || dateColumnIndex >= len(grid[0]) {
		return nil
	}

	counts := make(map[string]*domain.MonthBucket)
	for _, row := range grid[1:] {
		if dateColumnIndex >= len(row) {
			continue
		}
		my := ParseDate(row[dateColumnIndex], assumedOrder)
		if my == nil {
			continue
		}
		key := my.Key()
		bucket, ok := counts[key]
		if !ok {
			bucket = &domain.MonthBucket{
				Key:         key,
				DisplayName: MonthName(my.Month) + " " + my.Year,
				Year:        my.Year,
				MonthCode:   my.Month,
			}
			counts[key] = bucket
		}
		bucket.Count++
	}

	buckets := make([]domain.MonthBucket, 0, len(counts))
	for _, b := range counts {
		buckets = append(buckets, *b)
	}
	sortBuckets(buckets)
	return buckets
}

// sortBuckets orders ascending by year then month code. Both are
// zero-padded numeric strings, so lexicographic comparison is numerically
// correct.
func sortBuckets(buckets []domain.MonthBucket) {
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Year != buckets[j].Year {
			return buckets[i].Year < buckets[j].Year
		}
		return buckets[i].MonthCode < buckets[j].MonthCode
	})
}
