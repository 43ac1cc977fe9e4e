package pipeline

import (
	"sheetpilot/pkg/contracts/domain"
)

// FilterRows removes data rows whose date falls in one of the excluded
// months. Row 0 must be the header row and is always kept. Excluded month
// display names are resolved to bucket keys via monthBuckets; names with
// no matching bucket are ignored.
//
// Whenever any month-based filtering is active, rows with a blank or
// unparseable date cell are removed as well, since they cannot be
// attributed to a month. The removed total can therefore exceed the
// counts of the explicitly excluded months.
//
// With no excluded months or an invalid date column index, the grid is
// returned unchanged.
func FilterRows(grid domain.Grid, excludedMonths []string, monthBuckets []domain.MonthBucket, dateColumnIndex int, assumedOrder domain.DateOrder) domain.Grid {
	if len(grid) == 0 || len(excludedMonths) == 0 || dateColumnIndex < 0 {
		return grid
	}

	excludedKeys := resolveMonthKeys(excludedMonths, monthBuckets)
	if len(excludedKeys) == 0 {
		return grid
	}

	out := make(domain.Grid, 0, len(grid))
	out = append(out, grid[0])
	for _, row := range grid[1:] {
		if dateColumnIndex >= len(row) || isBlank(row[dateColumnIndex]) {
			continue
		}
		my := ParseDate(row[dateColumnIndex], assumedOrder)
		if my == nil {
			continue
		}
		if excludedKeys[my.Key()] {
			continue
		}
		out = append(out, row)
	}
	return out
}

// resolveMonthKeys maps display names ("January 2024") to bucket keys
// ("2024-01"). Stale names referencing months of a previously selected
// date column simply resolve to nothing.
func resolveMonthKeys(displayNames []string, buckets []domain.MonthBucket) map[string]bool {
	byName := make(map[string]string, len(buckets))
	for _, b := range buckets {
		byName[b.DisplayName] = b.Key
	}

	keys := make(map[string]bool, len(displayNames))
	for _, name := range displayNames {
		if key, ok := byName[name]; ok {
			keys[key] = true
		}
	}
	return keys
}
