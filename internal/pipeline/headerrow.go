package pipeline

import (
	"strconv"
	"strings"

	"sheetpilot/pkg/contracts/domain"
)

// Only the top of the sheet is considered; real header rows sit above the
// data, below at most a few title or metadata rows.
const maxHeaderScanRows = 10

// LocateHeaderRow returns the index of the row most plausibly holding the
// column labels. Title and metadata rows above the header typically have
// only one or two populated cells; the header row is the first row whose
// cells are mostly non-empty text. Returns 0 when no row scores better,
// so it never fails on odd input.
func LocateHeaderRow(grid domain.Grid) int {
	limit := len(grid)
	if limit > maxHeaderScanRows {
		limit = maxHeaderScanRows
	}

	bestRow := 0
	bestScore := 0.0
	for i := 0; i < limit; i++ {
		score := headerScore(grid[i])
		if score > bestScore {
			bestScore = score
			bestRow = i
		}
	}
	return bestRow
}

// headerScore rewards rows with many populated, textual, non-numeric cells.
func headerScore(row domain.Row) float64 {
	if len(row) < 2 {
		return 0
	}

	populated := 0
	textual := 0
	for _, cell := range row {
		s, ok := cell.(string)
		if !ok {
			if cell != nil {
				populated++
			}
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		populated++
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			textual++
		}
	}
	if populated < 2 {
		return 0
	}
	return float64(populated) + 2*float64(textual)
}
