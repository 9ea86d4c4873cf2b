package history

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jmylchreest/toastify/internal/model"
)

// FilterOptions specifies criteria for filtering entries.
type FilterOptions struct {
	Since  time.Duration // Entries removed within now-since (0=all)
	Reason Reason        // Exact reason (empty=any)
	Color  model.Color   // Exact color (empty=any)
	Expr   *FilterExpr   // Additional expression (nil=none)
	Limit  int           // Maximum results (0=unlimited)
}

// Filter returns the entries matching opts, preserving order.
func Filter(entries []Entry, opts FilterOptions, now time.Time) []Entry {
	result := make([]Entry, 0, len(entries))

	for _, e := range entries {
		if opts.Since > 0 && e.RemovedAt.Before(now.Add(-opts.Since)) {
			continue
		}
		if opts.Reason != "" && e.Reason != opts.Reason {
			continue
		}
		if opts.Color != "" && e.Toast.Color != opts.Color {
			continue
		}
		if opts.Expr != nil && !opts.Expr.Match(e, now) {
			continue
		}
		result = append(result, e)
	}

	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[:opts.Limit]
	}
	return result
}

// ParseDuration parses a duration string with extended formats.
// Supports: 48h, 7d, 1w, 0 (all time)
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "0" || s == "" {
		return 0, nil
	}

	if daysStr, found := strings.CutSuffix(s, "d"); found {
		days, err := strconv.Atoi(daysStr)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	if weeksStr, found := strings.CutSuffix(s, "w"); found {
		weeks, err := strconv.Atoi(weeksStr)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		return time.Duration(weeks) * 7 * 24 * time.Hour, nil
	}

	return time.ParseDuration(s)
}

// FilterOp represents a comparison operator.
type FilterOp string

const (
	FilterOpEqual     FilterOp = "="
	FilterOpNotEqual  FilterOp = "!="
	FilterOpContains  FilterOp = "~"
	FilterOpRegex     FilterOp = "~="
	FilterOpGreater   FilterOp = ">"
	FilterOpLess      FilterOp = "<"
	FilterOpGreaterEq FilterOp = ">="
	FilterOpLessEq    FilterOp = "<="
)

// FilterCondition is a single field comparison.
type FilterCondition struct {
	Field    string
	Operator FilterOp
	Value    string

	regex *regexp.Regexp
	age   time.Duration
}

// FilterExpr is a set of conditions ANDed together.
type FilterExpr struct {
	Conditions []FilterCondition
}

// ParseFilter parses "field=value,field2~value2" into a FilterExpr.
//
// Fields: title, description, color, reason, removed
// Operators: = != ~ ~= and, for removed, > < >= <= against an age
//
// Examples:
//   - "reason=expired"
//   - "title~deploy,color=error"
//   - "removed<1h" - removed less than an hour ago
func ParseFilter(expr string) (*FilterExpr, error) {
	filter := &FilterExpr{}
	if expr == "" {
		return filter, nil
	}

	for part := range strings.SplitSeq(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		cond, err := parseCondition(part)
		if err != nil {
			return nil, err
		}
		filter.Conditions = append(filter.Conditions, cond)
	}
	return filter, nil
}

func parseCondition(s string) (FilterCondition, error) {
	// Longest operators first so "!=" is not read as "=".
	operators := []FilterOp{
		FilterOpNotEqual,
		FilterOpGreaterEq,
		FilterOpLessEq,
		FilterOpRegex,
		FilterOpEqual,
		FilterOpContains,
		FilterOpGreater,
		FilterOpLess,
	}

	for _, op := range operators {
		idx := strings.Index(s, string(op))
		if idx <= 0 {
			continue
		}
		cond := FilterCondition{
			Field:    strings.ToLower(strings.TrimSpace(s[:idx])),
			Operator: op,
			Value:    strings.TrimSpace(s[idx+len(op):]),
		}
		if err := cond.init(); err != nil {
			return FilterCondition{}, err
		}
		return cond, nil
	}

	return FilterCondition{}, fmt.Errorf("invalid filter condition: %s (missing operator)", s)
}

func (c *FilterCondition) init() error {
	switch c.Field {
	case "title", "summary":
		c.Field = "title"
	case "description", "desc", "body":
		c.Field = "description"
	case "color", "kind":
		c.Field = "color"
	case "reason":
	case "removed", "age":
		c.Field = "removed"
		d, err := ParseDuration(c.Value)
		if err != nil {
			return fmt.Errorf("invalid age value: %w", err)
		}
		c.age = d
	default:
		return fmt.Errorf("unknown filter field: %s", c.Field)
	}

	if c.Operator == FilterOpRegex {
		re, err := regexp.Compile(c.Value)
		if err != nil {
			return fmt.Errorf("invalid regex: %w", err)
		}
		c.regex = re
	}
	return nil
}

// Match tests if an entry satisfies every condition.
func (f *FilterExpr) Match(e Entry, now time.Time) bool {
	for _, cond := range f.Conditions {
		if !cond.Match(e, now) {
			return false
		}
	}
	return true
}

// Match tests a single condition.
func (c *FilterCondition) Match(e Entry, now time.Time) bool {
	switch c.Field {
	case "title":
		return c.matchString(e.Toast.Title)
	case "description":
		return c.matchString(e.Toast.Description)
	case "color":
		return c.matchString(string(e.Toast.Color))
	case "reason":
		return c.matchString(string(e.Reason))
	case "removed":
		return c.matchAge(now.Sub(e.RemovedAt))
	default:
		return false
	}
}

func (c *FilterCondition) matchString(v string) bool {
	switch c.Operator {
	case FilterOpEqual:
		return v == c.Value
	case FilterOpNotEqual:
		return v != c.Value
	case FilterOpContains:
		return strings.Contains(strings.ToLower(v), strings.ToLower(c.Value))
	case FilterOpRegex:
		return c.regex != nil && c.regex.MatchString(v)
	default:
		return false
	}
}

func (c *FilterCondition) matchAge(age time.Duration) bool {
	switch c.Operator {
	case FilterOpGreater:
		return age > c.age
	case FilterOpLess:
		return age < c.age
	case FilterOpGreaterEq:
		return age >= c.age
	case FilterOpLessEq:
		return age <= c.age
	default:
		return false
	}
}
