package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetpilot/pkg/contracts/domain"
)

func TestAddColumns(t *testing.T) {
	grid := domain.Grid{
		{"A", "B"},
		{1.0, 2.0},
		{3.0, 4.0},
	}

	got := AddColumns(grid, []string{"C", "D"})
	require.Len(t, got, 3)
	assert.Equal(t, domain.Row{"A", "B", "C", "D"}, got[0])
	assert.Equal(t, domain.Row{1.0, 2.0, "", ""}, got[1])
	assert.Equal(t, domain.Row{3.0, 4.0, "", ""}, got[2])

	// Input grid untouched.
	assert.Equal(t, domain.Row{"A", "B"}, grid[0])
}

func TestAddColumns_NoOp(t *testing.T) {
	grid := domain.Grid{{"A"}}
	assert.Equal(t, grid, AddColumns(grid, nil))
	assert.Empty(t, AddColumns(domain.Grid{}, []string{"X"}))
}

func TestRemoveColumns(t *testing.T) {
	tests := []struct {
		name   string
		grid   domain.Grid
		remove []string
		want   domain.Grid
	}{
		{
			name: "remove middle column",
			grid: domain.Grid{
				{"A", "B", "C"},
				{1.0, 2.0, 3.0},
			},
			remove: []string{"B"},
			want: domain.Grid{
				{"A", "C"},
				{1.0, 3.0},
			},
		},
		{
			name: "unmatched names ignored",
			grid: domain.Grid{
				{"A", "B"},
				{1.0, 2.0},
			},
			remove: []string{"Nope", "B"},
			want: domain.Grid{
				{"A"},
				{1.0},
			},
		},
		{
			name: "nothing matches returns grid unchanged",
			grid: domain.Grid{
				{"A", "B"},
				{1.0, 2.0},
			},
			remove: []string{"X", "Y"},
			want: domain.Grid{
				{"A", "B"},
				{1.0, 2.0},
			},
		},
		{
			name: "duplicate header removes first occurrence",
			grid: domain.Grid{
				{"A", "A", "B"},
				{1.0, 2.0, 3.0},
			},
			remove: []string{"A"},
			want: domain.Grid{
				{"A", "B"},
				{2.0, 3.0},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RemoveColumns(tt.grid, tt.remove))
		})
	}
}

func TestReorderColumns(t *testing.T) {
	grid := domain.Grid{
		{"A", "B", "C"},
		{1.0, 2.0, 3.0},
		{4.0, 5.0}, // ragged
	}

	got := ReorderColumns(grid, []int{2, 0, 1})
	require.Len(t, got, 3)
	assert.Equal(t, domain.Row{"C", "A", "B"}, got[0])
	assert.Equal(t, domain.Row{3.0, 1.0, 2.0}, got[1])
	// Ragged row: missing source index yields an empty cell.
	assert.Equal(t, domain.Row{"", 4.0, 5.0}, got[2])
}

func TestReorderColumns_OutOfRangeIndexes(t *testing.T) {
	grid := domain.Grid{{"A", "B"}, {1.0, 2.0}}

	got := ReorderColumns(grid, []int{1, 5, -1, 0})
	assert.Equal(t, domain.Row{"B", "", "", "A"}, got[0])
	assert.Equal(t, domain.Row{2.0, "", "", 1.0}, got[1])
}

// Adding a column and immediately removing it restores the original grid.
func TestColumnEdits_RoundTrip(t *testing.T) {
	grid := domain.Grid{
		{"A", "B"},
		{1.0, 2.0},
		{3.0, 4.0},
	}

	got := RemoveColumns(AddColumns(grid, []string{"X"}), []string{"X"})
	assert.Equal(t, grid, got)
}
