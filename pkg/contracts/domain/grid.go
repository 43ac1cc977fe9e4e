package domain

// Cell is a single spreadsheet cell value. The reader produces one of:
// string, float64, or nil for an empty cell. The pipeline additionally
// accepts time.Time cells so grids built by other producers parse too.
type Cell = interface{}

// Row is an ordered sequence of cells. Rows may be ragged; consumers must
// tolerate rows shorter than the header row.
type Row []Cell

// Grid is a raw 2-D sheet: an ordered sequence of rows. The header row is
// not assumed to be row 0; it is located by the pipeline.
type Grid []Row

// Clone returns a deep copy of the grid. Cell values themselves are copied
// by assignment, which is safe because cells are immutable primitives.
func (g Grid) Clone() Grid {
	out := make(Grid, len(g))
	for i, row := range g {
		out[i] = make(Row, len(row))
		copy(out[i], row)
	}
	return out
}

// DateOrder is the assumed day/month ordering for ambiguous numeric dates.
type DateOrder string

const (
	// DateOrderDayFirst reads N1/N2/YYYY as day/month/year.
	DateOrderDayFirst DateOrder = "DD/MM/YYYY"
	// DateOrderMonthFirst reads N1/N2/YYYY as month/day/year.
	DateOrderMonthFirst DateOrder = "MM/DD/YYYY"
)

// MonthYear is a parsed calendar month: zero-padded month code "01".."12"
// and four-digit year string.
type MonthYear struct {
	Month string `json:"month"`
	Year  string `json:"year"`
}

// Key returns the canonical "YYYY-MM" bucket key. Keying on year and month
// together keeps identically named months of different years apart.
func (m MonthYear) Key() string {
	return m.Year + "-" + m.Month
}

// DateColumnCandidate is a column the detector believes holds date values.
// Candidates are immutable once created and ranked descending by confidence.
type DateColumnCandidate struct {
	Index      int     `json:"index"`
	Header     string  `json:"header"`
	Confidence float64 `json:"confidence"`
	MatchType  string  `json:"match_type"`
}

// MonthBucket groups data rows sharing a calendar month and year.
// Aggregation fills Count only; splitting fills Rows as well.
type MonthBucket struct {
	Key         string `json:"key"`
	DisplayName string `json:"display_name"`
	Year        string `json:"year"`
	MonthCode   string `json:"month_code"`
	Count       int    `json:"count"`
	Rows        []Row  `json:"rows,omitempty"`
}

// SplitResult is the outcome of partitioning a processed grid by month.
// InvalidDateRows counts rows whose date cell did not parse; those rows are
// excluded from every bucket but never silently dropped without accounting.
type SplitResult struct {
	Buckets         []MonthBucket `json:"buckets"`
	InvalidDateRows int           `json:"invalid_date_rows"`
}

// ColumnClassification tells the workbook writer which columns look like
// dates, amounts, or identifiers so it can pick number formats. The core
// only classifies; rendering decisions belong to the writer.
type ColumnClassification struct {
	DateColumns   []int `json:"date_columns"`
	AmountColumns []int `json:"amount_columns"`
	IDColumns     []int `json:"id_columns"`
}
