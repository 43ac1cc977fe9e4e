package exporter

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// formatCell renders a heterogeneous grid cell for text output. Whole
// numbers drop the decimal point so identifiers read as "1001", not
// "1001.00".
func formatCell(cell interface{}) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1e15 {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return v.Format("2006-01-02")
	default:
		return fmt.Sprint(v)
	}
}
