package survey

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var numberPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// parseNumber reads the longest numeric prefix of a cell after leading
// whitespace, so "30 years" reads as 30. Anything unreadable is NaN.
func parseNumber(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int:
		return float64(x)
	case string:
		s := strings.TrimLeft(x, " \t\n\r\v\f")
		if m := numberPrefix.FindString(s); m != "" {
			f, err := strconv.ParseFloat(m, 64)
			if err == nil || math.IsInf(f, 0) {
				return f
			}
			return math.NaN()
		}
		switch {
		case strings.HasPrefix(s, "Infinity"), strings.HasPrefix(s, "+Infinity"):
			return math.Inf(1)
		case strings.HasPrefix(s, "-Infinity"):
			return math.Inf(-1)
		}
	}
	return math.NaN()
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// stringify renders a cell the way it appears in frequency tables.
func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case float64:
		return x != 0 && !math.IsNaN(x)
	case int:
		return x != 0
	case bool:
		return x
	default:
		return true
	}
}

// strictEqual compares two scalars by type and value. Composite values never
// compare equal.
func strictEqual(a, b any) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case string:
		y, ok := b.(string)
		return ok && x == y
	case float64:
		switch y := b.(type) {
		case float64:
			return x == y
		case int:
			return x == float64(y)
		}
	case int:
		switch y := b.(type) {
		case float64:
			return float64(x) == y
		case int:
			return x == y
		}
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	}
	return false
}

// distinctKey identifies a raw value for distinct counting: "1" and 1 differ.
func distinctKey(v any) string {
	switch v.(type) {
	case string:
		return "s:" + stringify(v)
	case float64, int:
		return "n:" + stringify(v)
	case bool:
		return "b:" + stringify(v)
	default:
		return "o:" + stringify(v)
	}
}

func isEmpty(v any, present bool) bool {
	if !present || v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}
