package domain

// ColumnOrderSpec is a permutation expressed over positions in the combined
// header list (original headers followed by user-added headers). It captures
// ordering intent independent of later column removal; the orchestrator
// re-resolves it against actual post-addition header names before applying.
type ColumnOrderSpec []int

// ProcessingSelection is the complete user intent for one pipeline run,
// passed by value and never mutated by the pipeline.
type ProcessingSelection struct {
	// SelectedHeaders are column names chosen for removal.
	SelectedHeaders []string `json:"selected_headers"`
	// SelectedMonths are month display names ("January 2024") chosen for
	// row removal.
	SelectedMonths []string `json:"selected_months"`
	// ColumnOrder, when non-nil, reorders columns. See ColumnOrderSpec.
	ColumnOrder ColumnOrderSpec `json:"column_order,omitempty"`
	// AddedColumns are new empty columns appended before reordering.
	AddedColumns []string `json:"added_columns"`
}
