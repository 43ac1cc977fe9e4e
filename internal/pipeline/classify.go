package pipeline

import (
	"regexp"
	"strconv"
	"strings"

	"sheetpilot/pkg/contracts/domain"
)

// Writer-facing heuristics. These ride on the same header-keyword plus
// content-sampling idiom as date detection but only inform formatting, so
// the thresholds are looser.

var amountKeywords = []string{"amount", "price", "cost", "fee", "total", "debit", "credit", "net", "value", "balance"}

var idHeaderPattern = regexp.MustCompile(`(^|[^a-z])id$|^id([^a-z]|$)|^ref|^account|^invoice|number$|code$`)

// ClassifyColumns tells the workbook writer which columns of a processed
// grid look like dates, amounts, or identifiers. Row 0 must be the header
// row. The writer decides how the classification is rendered; this
// function only classifies.
func ClassifyColumns(grid domain.Grid, assumedOrder domain.DateOrder) domain.ColumnClassification {
	out := domain.ColumnClassification{
		DateColumns:   []int{},
		AmountColumns: []int{},
		IDColumns:     []int{},
	}
	if len(grid) == 0 {
		return out
	}

	header := HeaderNames(grid[0])
	sample := grid[1:]
	if len(sample) > defaultDetectSamples {
		sample = sample[:defaultDetectSamples]
	}

	for col, name := range header {
		normalized := strings.ToLower(strings.TrimSpace(name))
		switch {
		case idHeaderPattern.MatchString(normalized):
			out.IDColumns = append(out.IDColumns, col)
		case matchesWordList(normalized, amountKeywords) && numericFraction(sample, col) > 0.5:
			out.AmountColumns = append(out.AmountColumns, col)
		case isDateColumn(normalized, sample, col, assumedOrder):
			out.DateColumns = append(out.DateColumns, col)
		}
	}
	return out
}

func isDateColumn(normalized string, sample []domain.Row, col int, assumedOrder domain.DateOrder) bool {
	if matchesWordList(normalized, nonDateKeywords) {
		return false
	}
	if containsAny(normalized, strongDatePatterns) || matchesWordList(normalized, dateKeywords) {
		return true
	}
	fraction, sampled := validDateFraction(sample, col, defaultDetectSamples, assumedOrder)
	return sampled > 0 && fraction > 0.9
}

func numericFraction(rows []domain.Row, col int) float64 {
	sampled, numeric := 0, 0
	for _, row := range rows {
		if col >= len(row) || isBlank(row[col]) {
			continue
		}
		sampled++
		switch v := row[col].(type) {
		case float64, int, int64:
			numeric++
		case string:
			if _, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				numeric++
			}
		}
	}
	if sampled == 0 {
		return 0
	}
	return float64(numeric) / float64(sampled)
}
