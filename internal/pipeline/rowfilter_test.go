package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetpilot/pkg/contracts/domain"
)

func TestFilterRows_IdentityWithoutExclusions(t *testing.T) {
	grid := claimsGrid()
	buckets := AggregateByMonth(grid, 0, domain.DateOrderDayFirst)

	assert.Equal(t, grid, FilterRows(grid, nil, buckets, 0, domain.DateOrderDayFirst))
	assert.Equal(t, grid, FilterRows(grid, []string{}, buckets, 0, domain.DateOrderDayFirst))
	assert.Equal(t, grid, FilterRows(grid, []string{"January 2024"}, buckets, -1, domain.DateOrderDayFirst))
}

func TestFilterRows_ExcludesSelectedMonth(t *testing.T) {
	grid := claimsGrid()
	buckets := AggregateByMonth(grid, 0, domain.DateOrderDayFirst)

	got := FilterRows(grid, []string{"January 2024"}, buckets, 0, domain.DateOrderDayFirst)

	// Two January 2024 rows excluded plus the unparseable row dropped.
	require.Len(t, got, 3)
	assert.Equal(t, grid[0], got[0])
	assert.Equal(t, domain.Row{"20/02/2024", 200.0, "C"}, got[1])
	assert.Equal(t, domain.Row{"15/01/2023", 50.0, "D"}, got[2])
}

// A filter keeps the other year's January: display names resolve to
// year-month keys, never to bare month names.
func TestFilterRows_YearScopedExclusion(t *testing.T) {
	grid := domain.Grid{
		{"Date"},
		{"15/01/2023"},
		{"15/01/2024"},
	}
	buckets := AggregateByMonth(grid, 0, domain.DateOrderDayFirst)

	got := FilterRows(grid, []string{"January 2023"}, buckets, 0, domain.DateOrderDayFirst)
	require.Len(t, got, 2)
	assert.Equal(t, domain.Row{"15/01/2024"}, got[1])
}

func TestFilterRows_BlankAndUnparseableDropped(t *testing.T) {
	grid := domain.Grid{
		{"Date", "Amount", "Doctor"},
		{"10/01/2024", 100.0, "A"},
		{"20/02/2024", 200.0, "B"},
		{"", 300.0, "C"},
	}
	buckets := AggregateByMonth(grid, 0, domain.DateOrderDayFirst)

	got := FilterRows(grid, []string{"January 2024"}, buckets, 0, domain.DateOrderDayFirst)

	// Blank-dated row removed although its month was never selected: it
	// cannot be attributed to any month. 2 rows removed, 1 belonged to
	// the excluded month.
	require.Len(t, got, 2)
	assert.Equal(t, domain.Row{"20/02/2024", 200.0, "B"}, got[1])
}

func TestFilterRows_UnknownDisplayNameIgnored(t *testing.T) {
	grid := claimsGrid()
	buckets := AggregateByMonth(grid, 0, domain.DateOrderDayFirst)

	got := FilterRows(grid, []string{"Mars 2024"}, buckets, 0, domain.DateOrderDayFirst)
	assert.Equal(t, grid, got)
}

// The counts reported by aggregation and the rows removed by filtering go
// through the same parser with the same parameters, so they can never
// drift apart.
func TestFilterRows_CountConsistency(t *testing.T) {
	grid := domain.Grid{
		{"Date", "Amount"},
		{"05/01/2024", 1.0},
		{"06/01/2024", 2.0},
		{"07/02/2024", 3.0},
		{"08/02/2024", 4.0},
		{"09/02/2024", 5.0},
		{"10/03/2024", 6.0},
	}
	buckets := AggregateByMonth(grid, 0, domain.DateOrderDayFirst)
	require.NotEmpty(t, buckets)

	for _, b := range buckets {
		filtered := FilterRows(grid, []string{b.DisplayName}, buckets, 0, domain.DateOrderDayFirst)
		removed := len(grid) - len(filtered)
		assert.Equal(t, b.Count, removed, "month %s", b.DisplayName)
	}
}
