package pipeline

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"sheetpilot/pkg/contracts/domain"
)

// Excel stores dates as day counts from this epoch (the 1900 date system
// with its leap-year quirk already folded in).
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// Serials outside this range are far more likely to be IDs or amounts than
// dates, so they are rejected. 25000 ≈ mid-1968, 50000 ≈ late 2036.
const (
	serialMin = 25000
	serialMax = 50000
)

const (
	minYear = 1900
	maxYear = 2100
)

var (
	// N1<sep>N2<sep>YYYY with an optional trailing time component.
	dmyPattern = regexp.MustCompile(`^(\d{1,2})[/\-.](\d{1,2})[/\-.](\d{4})(?:[ T]\d{1,2}:\d{2}(?::\d{2})?)?$`)
	// ISO YYYY-MM-DD, optional time.
	isoPattern = regexp.MustCompile(`^(\d{4})[/\-.](\d{1,2})[/\-.](\d{1,2})(?:[ T]\d{1,2}:\d{2}(?::\d{2})?(?:\.\d+)?Z?)?$`)
)

// Layouts tried by the permissive fallback, most specific first.
var fallbackLayouts = []string{
	time.RFC3339,
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	"January 2006",
	"Jan 2006",
	"2006-01-02 15:04:05",
}

var monthNames = [13]string{"",
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// MonthName returns the English month name for a zero-padded month code,
// or the code itself if it is not "01".."12".
func MonthName(code string) string {
	if n, err := strconv.Atoi(code); err == nil && n >= 1 && n <= 12 {
		return monthNames[n]
	}
	return code
}

// ParseDate parses a raw cell value into its calendar month and year.
// It accepts date-typed cells, plausible Excel serial numbers, and a range
// of string formats; assumedOrder settles ambiguous N1/N2/YYYY strings.
// It returns nil for anything that is not a date, never an error.
//
// ParseDate is the single source of truth for date interpretation:
// aggregation, filtering, and splitting all go through this one function,
// so the month counts shown to the user always agree with the rows a
// filter actually removes.
func ParseDate(value domain.Cell, assumedOrder domain.DateOrder) *domain.MonthYear {
	switch v := value.(type) {
	case nil:
		return nil
	case time.Time:
		return fromTime(v)
	case float64:
		return fromSerial(v)
	case int:
		return fromSerial(float64(v))
	case int64:
		return fromSerial(float64(v))
	case string:
		return fromString(v, assumedOrder)
	default:
		return nil
	}
}

func fromTime(t time.Time) *domain.MonthYear {
	year := t.Year()
	if year < minYear || year > maxYear {
		return nil
	}
	return monthYear(int(t.Month()), year)
}

func fromSerial(serial float64) *domain.MonthYear {
	if serial <= serialMin || serial >= serialMax {
		return nil
	}
	t := serialEpoch.AddDate(0, 0, int(serial))
	return monthYear(int(t.Month()), t.Year())
}

func fromString(s string, assumedOrder domain.DateOrder) *domain.MonthYear {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	// A bare number is only ever a date if it is a plausible serial.
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return fromSerial(f)
	}

	if m := dmyPattern.FindStringSubmatch(s); m != nil {
		n1, _ := strconv.Atoi(m[1])
		n2, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		day, month := resolveDayMonth(n1, n2, assumedOrder)
		if day < 1 || day > 31 {
			return nil
		}
		if year < minYear || year > maxYear {
			return nil
		}
		return monthYear(month, year)
	}

	if m := isoPattern.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if day < 1 || day > 31 || year < minYear || year > maxYear {
			return nil
		}
		return monthYear(month, year)
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return fromTime(t)
		}
	}
	return nil
}

// resolveDayMonth decides which of the two ambiguous numbers is the day.
// A value over 12 cannot be a month, so it forces the interpretation; when
// both could be months the assumed order wins, defaulting to day-first.
func resolveDayMonth(n1, n2 int, assumedOrder domain.DateOrder) (day, month int) {
	switch {
	case n1 > 12:
		return n1, n2
	case n2 > 12:
		return n2, n1
	case assumedOrder == domain.DateOrderMonthFirst:
		return n2, n1
	default:
		return n1, n2
	}
}

func monthYear(month, year int) *domain.MonthYear {
	if month < 1 || month > 12 {
		return nil
	}
	return &domain.MonthYear{
		Month: zeroPad(month),
		Year:  strconv.Itoa(year),
	}
}

func zeroPad(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
