package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetpilot/pkg/contracts/domain"
)

func TestSplitByMonth(t *testing.T) {
	grid := domain.Grid{
		{"Date", "Amount"},
		{"10/01/2024", 100.0},
		{"15/01/2024", 150.0},
		{"20/02/2024", 200.0},
		{"15/01/2023", 50.0},
		{"garbage", 75.0},
	}

	got, err := SplitByMonth(grid, "Date", domain.DateOrderDayFirst)
	require.NoError(t, err)

	require.Len(t, got.Buckets, 3)
	assert.Equal(t, 1, got.InvalidDateRows)

	assert.Equal(t, "January 2023", got.Buckets[0].DisplayName)
	require.Len(t, got.Buckets[0].Rows, 1)

	assert.Equal(t, "January 2024", got.Buckets[1].DisplayName)
	require.Len(t, got.Buckets[1].Rows, 2)
	assert.Equal(t, domain.Row{"10/01/2024", 100.0}, got.Buckets[1].Rows[0])

	assert.Equal(t, "February 2024", got.Buckets[2].DisplayName)
	require.Len(t, got.Buckets[2].Rows, 1)
}

// The date column is re-found by name: a reorder must not break splitting.
func TestSplitByMonth_AfterReorder(t *testing.T) {
	grid := domain.Grid{
		{"Amount", "Date"},
		{100.0, "10/01/2024"},
	}

	got, err := SplitByMonth(grid, "Date", domain.DateOrderDayFirst)
	require.NoError(t, err)
	require.Len(t, got.Buckets, 1)
	assert.Equal(t, "2024-01", got.Buckets[0].Key)
}

func TestSplitByMonth_DateColumnRemoved(t *testing.T) {
	grid := domain.Grid{
		{"Amount", "Doctor"},
		{100.0, "A"},
	}

	_, err := SplitByMonth(grid, "Date", domain.DateOrderDayFirst)
	assert.ErrorIs(t, err, ErrDateColumnRemoved)
}

func TestSplitByMonth_EmptyGrid(t *testing.T) {
	_, err := SplitByMonth(domain.Grid{}, "Date", domain.DateOrderDayFirst)
	assert.ErrorIs(t, err, ErrEmptyGrid)
}

func TestSplitByMonth_OnlyInvalidRows(t *testing.T) {
	grid := domain.Grid{
		{"Date"},
		{"x"},
		{""},
	}

	got, err := SplitByMonth(grid, "Date", domain.DateOrderDayFirst)
	require.NoError(t, err)
	assert.Empty(t, got.Buckets)
	assert.Equal(t, 2, got.InvalidDateRows)
}
