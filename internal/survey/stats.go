package survey

import (
	"math"
	"sort"
	"strconv"
)

const topValuesLimit = 5

type TopValue struct {
	Value      string `json:"value"`
	Count      int    `json:"count"`
	Percentage string `json:"percentage"`
}

// ColumnStats describes the non-empty values of one column. The numeric
// fields are set only when more than half of those values read as numbers.
type ColumnStats struct {
	TotalResponses int        `json:"totalResponses"`
	UniqueValues   int        `json:"uniqueValues"`
	TopValues      []TopValue `json:"topValues"`
	IsNumeric      bool       `json:"isNumeric,omitempty"`
	Average        *float64   `json:"average,omitempty"`
	Min            *float64   `json:"min,omitempty"`
	Max            *float64   `json:"max,omitempty"`
}

type StatsResult map[string]ColumnStats

func (e *Engine) Stats(columns []string) StatsResult {
	out := make(StatsResult, len(columns))
	for _, col := range columns {
		out[col] = columnStats(e.data.responses, col)
	}
	return out
}

func columnStats(rows []Response, column string) ColumnStats {
	values := make([]any, 0, len(rows))
	for _, row := range rows {
		v, ok := row[column]
		if isEmpty(v, ok) {
			continue
		}
		values = append(values, v)
	}

	distinct := make(map[string]struct{}, len(values))
	for _, v := range values {
		distinct[distinctKey(v)] = struct{}{}
	}

	stats := ColumnStats{
		TotalResponses: len(values),
		UniqueValues:   len(distinct),
		TopValues:      topValues(values, topValuesLimit),
	}

	nums := make([]float64, 0, len(values))
	for _, v := range values {
		if n := parseNumber(v); isFinite(n) {
			nums = append(nums, n)
		}
	}
	if float64(len(nums)) > float64(len(values))*0.5 {
		sum, lo, hi := 0.0, math.Inf(1), math.Inf(-1)
		for _, n := range nums {
			sum += n
			lo = math.Min(lo, n)
			hi = math.Max(hi, n)
		}
		avg := sum / float64(len(nums))
		stats.IsNumeric = true
		stats.Average = &avg
		stats.Min = &lo
		stats.Max = &hi
	}
	return stats
}

// topValues counts values by their string form and returns the n most
// frequent. Ties keep first-occurrence order.
func topValues(values []any, n int) []TopValue {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, v := range values {
		key := stringify(v)
		if _, seen := counts[key]; !seen {
			order = append(order, key)
		}
		counts[key]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > n {
		order = order[:n]
	}

	out := make([]TopValue, 0, len(order))
	for _, key := range order {
		c := counts[key]
		pct := float64(c) / float64(len(values)) * 100
		out = append(out, TopValue{
			Value:      key,
			Count:      c,
			Percentage: strconv.FormatFloat(pct, 'f', 1, 64),
		})
	}
	return out
}
