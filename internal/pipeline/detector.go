package pipeline

import (
	"regexp"
	"sort"
	"strings"

	"sheetpilot/pkg/contracts/domain"
)

// Bounds for content sampling: fewer rows give unstable fractions, more
// add nothing.
const (
	minDetectSamples     = 5
	defaultDetectSamples = 10
	maxDetectSamples     = 10
)

// Headers containing any of these are never date columns, even when their
// header also matches a date keyword ("Invoice Date Number") or their
// content happens to sit in the plausible serial range (numeric IDs often
// do).
var nonDateKeywords = []string{
	"quantity", "amount", "code", "id", "number", "name", "description",
	"type", "status", "rate", "price", "cost", "fee", "total", "count",
	"qty", "ref", "account", "balance", "percent",
}

// Multi-word header patterns that almost certainly label a date column.
var strongDatePatterns = []string{
	"service date", "submission date", "date of birth", "date of service",
	"start date", "end date", "due date", "invoice date", "payment date",
	"created date", "transaction date", "posting date", "claim date",
	"admission date", "discharge date",
}

// Single keywords suggesting a date column. Matched as a whole word or
// word suffix so "candidate" or "update" do not trigger "date".
var dateKeywords = []string{"date", "time", "submission", "created", "timestamp", "month"}

var headerWordSplit = regexp.MustCompile(`[^a-z0-9]+`)

const (
	confidenceStrongPattern = 0.95
	confidenceKeyword       = 0.8
	confidenceContentOnly   = 0.7
	confidenceBoosted       = 0.9
	dampenFactor            = 0.3

	// Candidates below this never reach the caller; content-only matches
	// sit exactly on it.
	confidenceFloor = 0.7
)

// DetectDateColumns scores every column by header keywords blended with
// sampled content evidence and returns candidates ranked descending by
// confidence, ties broken by original column order. It never fails: when
// no column qualifies the result is empty.
//
// Headers alone are unreliable (free-form, localized labels) and content
// alone is unreliable (ID columns carry numbers in the plausible serial
// range), so neither signal may veto the other outright: keywords
// nominate, content corroborates or dampens.
func DetectDateColumns(header []string, sampleRows []domain.Row, maxSamples int, assumedOrder domain.DateOrder) []domain.DateColumnCandidate {
	switch {
	case maxSamples < minDetectSamples:
		maxSamples = defaultDetectSamples
	case maxSamples > maxDetectSamples:
		maxSamples = maxDetectSamples
	}

	var candidates []domain.DateColumnCandidate
	for col, name := range header {
		normalized := strings.ToLower(strings.TrimSpace(name))
		if normalized == "" || matchesWordList(normalized, nonDateKeywords) {
			continue
		}

		confidence := 0.0
		matchType := ""
		switch {
		case containsAny(normalized, strongDatePatterns):
			confidence = confidenceStrongPattern
			matchType = "multi-word header pattern"
		case matchesWordList(normalized, dateKeywords):
			confidence = confidenceKeyword
			matchType = "header keyword"
		}

		fraction, sampled := validDateFraction(sampleRows, col, maxSamples, assumedOrder)
		if confidence > 0 && sampled > 0 {
			switch {
			case fraction > 0.8:
				if confidence < confidenceBoosted {
					confidence = confidenceBoosted
				}
				matchType += " + content"
			case fraction < 0.3:
				confidence *= dampenFactor
			}
		} else if confidence == 0 && sampled > 0 && fraction > 0.9 {
			confidence = confidenceContentOnly
			matchType = "content analysis"
		}

		if confidence >= confidenceFloor {
			candidates = append(candidates, domain.DateColumnCandidate{
				Index:      col,
				Header:     name,
				Confidence: confidence,
				MatchType:  matchType,
			})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})
	return candidates
}

// validDateFraction samples up to maxSamples non-empty cells from the
// column and reports what fraction parse as dates.
func validDateFraction(rows []domain.Row, col, maxSamples int, assumedOrder domain.DateOrder) (fraction float64, sampled int) {
	parsed := 0
	for _, row := range rows {
		if sampled >= maxSamples {
			break
		}
		if col >= len(row) || isBlank(row[col]) {
			continue
		}
		sampled++
		if ParseDate(row[col], assumedOrder) != nil {
			parsed++
		}
	}
	if sampled == 0 {
		return 0, 0
	}
	return float64(parsed) / float64(sampled), sampled
}

func containsAny(s string, substrings []string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// matchesWordList reports whether any word of the header equals, or ends
// with, one of the keywords. Suffix matching catches compound labels like
// "servicedate" without letting "id" fire inside "holiday".
func matchesWordList(normalized string, keywords []string) bool {
	for _, word := range headerWordSplit.Split(normalized, -1) {
		if word == "" {
			continue
		}
		for _, kw := range keywords {
			if word == kw || (len(kw) > 2 && strings.HasSuffix(word, kw)) {
				return true
			}
		}
	}
	return false
}

func isBlank(cell domain.Cell) bool {
	if cell == nil {
		return true
	}
	if s, ok := cell.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}
