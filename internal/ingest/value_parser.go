package ingest

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// parseDealValue coerces a raw cell into a non-negative deal value. Text
// values may carry a currency symbol and thousands separators ("$1,200.50").
// Anything unparseable degrades to 0 rather than failing the row.
func parseDealValue(v any) float64 {
	switch tv := v.(type) {
	case nil:
		return 0
	case float64:
		return clampDealValue(tv)
	case int:
		return clampDealValue(float64(tv))
	case string:
		clean := strings.TrimSpace(strings.NewReplacer("$", "", ",", "").Replace(tv))
		if clean == "" {
			return 0
		}
		f, err := strconv.ParseFloat(clean, 64)
		if err != nil {
			return 0
		}
		return clampDealValue(f)
	default:
		return 0
	}
}

// clampDealValue keeps the deal value finite and non-negative.
func clampDealValue(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}

// parseProcessDays coerces a raw cell into a day count. Unparseable or
// negative values become nil, not zero; absence is meaningful downstream.
func parseProcessDays(v any) *int {
	switch tv := v.(type) {
	case float64:
		n := int(tv)
		if n < 0 {
			return nil
		}
		return &n
	case int:
		if tv < 0 {
			return nil
		}
		n := tv
		return &n
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(tv))
		if err != nil || n < 0 {
			return nil
		}
		return &n
	default:
		return nil
	}
}

// asString renders a raw cell as text. Numeric cells from the values API
// arrive as float64; integral amounts render without a decimal tail.
func asString(v any) string {
	switch tv := v.(type) {
	case nil:
		return ""
	case string:
		return tv
	case float64:
		return strconv.FormatFloat(tv, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(tv)
	default:
		return fmt.Sprint(tv)
	}
}

// asStringPtr is asString for optional columns: empty cells stay nil.
func asStringPtr(v any) *string {
	s := strings.TrimSpace(asString(v))
	if s == "" {
		return nil
	}
	return &s
}
