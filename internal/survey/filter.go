package survey

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Operator selects how a predicate filter compares a cell.
type Operator string

const (
	OpEquals   Operator = "equals"
	OpContains Operator = "contains"
	OpGTE      Operator = "gte"
	OpLTE      Operator = "lte"
)

type filterKind int

const (
	literalFilter filterKind = iota
	predicateFilter
)

// Filter is either a literal (exact match) or a predicate {operator, value}.
// Unknown operators are kept and compare by strict equality.
type Filter struct {
	kind     filterKind
	Operator Operator
	Value    any
}

// Filters maps a column name to the filter applied to it. All entries must match.
type Filters map[string]Filter

func Literal(v any) Filter {
	return Filter{kind: literalFilter, Value: v}
}

func Predicate(op Operator, v any) Filter {
	return Filter{kind: predicateFilter, Operator: op, Value: v}
}

func (f Filter) IsPredicate() bool {
	return f.kind == predicateFilter
}

// UnmarshalJSON decodes an object with a non-empty string "operator" as a
// predicate and any other value as a literal.
func (f *Filter) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if obj, ok := raw.(map[string]any); ok {
		if op, ok := obj["operator"].(string); ok && op != "" {
			*f = Predicate(Operator(op), obj["value"])
			return nil
		}
	}
	*f = Literal(raw)
	return nil
}

func (f Filter) MarshalJSON() ([]byte, error) {
	if f.IsPredicate() {
		return json.Marshal(map[string]any{"operator": f.Operator, "value": f.Value})
	}
	return json.Marshal(f.Value)
}

// Validate rejects predicates that cannot be evaluated.
func (f Filter) Validate() error {
	if f.IsPredicate() && f.Operator == OpContains {
		if _, ok := f.Value.(string); !ok {
			return fmt.Errorf("contains requires a string value, got %T", f.Value)
		}
	}
	return nil
}

// Matches reports whether the row's cell in column satisfies the filter.
func (f Filter) Matches(row Response, column string) bool {
	cell, present := row[column]
	if !f.IsPredicate() {
		return present && strictEqual(cell, f.Value)
	}
	switch f.Operator {
	case OpContains:
		if !present || !truthy(cell) {
			return false
		}
		target, _ := f.Value.(string)
		return strings.Contains(strings.ToLower(stringify(cell)), strings.ToLower(target))
	case OpGTE:
		if !present {
			return false
		}
		return parseNumber(cell) >= parseNumber(f.Value)
	case OpLTE:
		if !present {
			return false
		}
		return parseNumber(cell) <= parseNumber(f.Value)
	default:
		return present && strictEqual(cell, f.Value)
	}
}

func (fs Filters) validate() error {
	for _, col := range fs.columns() {
		if err := fs[col].Validate(); err != nil {
			return fmt.Errorf("filter %q: %w", col, err)
		}
	}
	return nil
}

func (fs Filters) columns() []string {
	cols := make([]string, 0, len(fs))
	for col := range fs {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

// Match reports whether row satisfies every filter. An empty set matches all rows.
func (fs Filters) Match(row Response) bool {
	for col, f := range fs {
		if !f.Matches(row, col) {
			return false
		}
	}
	return true
}
