package pipeline

import (
	"fmt"
	"strings"

	"sheetpilot/pkg/contracts/domain"
)

// Column identity for user-facing edits is the header name, not the
// numeric index: indices shift whenever columns are added or removed, so
// every operation here re-resolves names against the current header row.
// When duplicate header names exist, the first occurrence wins.

// HeaderNames renders a header row as strings. Non-string header cells
// (a numeric label, say) are formatted rather than dropped so positions
// stay aligned with the grid.
func HeaderNames(header domain.Row) []string {
	names := make([]string, len(header))
	for i, cell := range header {
		switch v := cell.(type) {
		case nil:
			names[i] = ""
		case string:
			names[i] = v
		default:
			names[i] = fmt.Sprint(v)
		}
	}
	return names
}

// headerIndex maps each header name to its first position. Recomputed once
// per pipeline stage instead of threading index arithmetic across stages.
func headerIndex(header domain.Row) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range HeaderNames(header) {
		key := strings.TrimSpace(name)
		if _, seen := idx[key]; !seen {
			idx[key] = i
		}
	}
	return idx
}

// AddColumns appends the given header names to the header row and one
// empty-string cell per added column to every data row. Row 0 must be the
// header row. Duplicate names are allowed at this layer; name uniqueness
// is the caller's concern.
func AddColumns(grid domain.Grid, newHeaders []string) domain.Grid {
	if len(newHeaders) == 0 || len(grid) == 0 {
		return grid
	}

	out := make(domain.Grid, len(grid))
	for i, row := range grid {
		extended := make(domain.Row, len(row), len(row)+len(newHeaders))
		copy(extended, row)
		for _, name := range newHeaders {
			if i == 0 {
				extended = append(extended, name)
			} else {
				extended = append(extended, "")
			}
		}
		out[i] = extended
	}
	return out
}

// RemoveColumns drops the named columns from every row, header included.
// Names are resolved by exact match against the current header row;
// unmatched names are ignored. With nothing to remove the grid is
// returned unchanged.
func RemoveColumns(grid domain.Grid, namesToRemove []string) domain.Grid {
	if len(grid) == 0 || len(namesToRemove) == 0 {
		return grid
	}

	idx := headerIndex(grid[0])
	drop := make(map[int]bool, len(namesToRemove))
	for _, name := range namesToRemove {
		if i, ok := idx[strings.TrimSpace(name)]; ok {
			drop[i] = true
		}
	}
	if len(drop) == 0 {
		return grid
	}

	out := make(domain.Grid, len(grid))
	for r, row := range grid {
		kept := make(domain.Row, 0, len(row))
		for c, cell := range row {
			if !drop[c] {
				kept = append(kept, cell)
			}
		}
		out[r] = kept
	}
	return out
}

// ReorderColumns maps every row through the permutation: output column k
// holds input column permutation[k]. Indices beyond a row's length yield
// empty-string cells, so ragged rows never panic.
func ReorderColumns(grid domain.Grid, permutation []int) domain.Grid {
	if len(grid) == 0 || len(permutation) == 0 {
		return grid
	}

	out := make(domain.Grid, len(grid))
	for r, row := range grid {
		reordered := make(domain.Row, len(permutation))
		for k, src := range permutation {
			if src >= 0 && src < len(row) {
				reordered[k] = row[src]
			} else {
				reordered[k] = ""
			}
		}
		out[r] = reordered
	}
	return out
}
