// Package condition evaluates declarative conditions against an inventory
// tree. A condition compares the value at a path with an operand and may
// chain one AND and one OR child; evaluation order is
// (base AND and) OR or. A per-item AND intersects the wildcard items of both
// sides and falls back to a boolean AND when neither path has a wildcard.
package condition

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mdscan/mdscan/pkg/pathstore"
)

// Operator names a comparison.
type Operator string

const (
	Always    Operator = "always"
	Never     Operator = "never"
	Exists    Operator = "exists"
	NotExists Operator = "notexists"
	Null      Operator = "null"
	GT        Operator = "gt"
	GTE       Operator = "gte"
	LT        Operator = "lt"
	LTE       Operator = "lte"
	EQ        Operator = "eq"
	Between   Operator = "between"
)

// MinAPI may stand in for either bound of a between operand. It resolves to
// the minimum API version configured for the run.
const MinAPI = "minAPI"

var operators = map[Operator]bool{
	Always: true, Never: true, Exists: true, NotExists: true, Null: true,
	GT: true, GTE: true, LT: true, LTE: true, EQ: true, Between: true,
}

// Condition is one node of a condition tree.
type Condition struct {
	MetadataType  string     `yaml:"metadataType,omitempty" json:"metadataType,omitempty"`
	Operator      Operator   `yaml:"operator" json:"operator"`
	Operand       any        `yaml:"operand,omitempty" json:"operand,omitempty"`
	Expiration    string     `yaml:"expiration,omitempty" json:"expiration,omitempty"`
	ProcessAlways bool       `yaml:"processAlways,omitempty" json:"processAlways,omitempty"`
	PerItem       bool       `yaml:"conditionPerItem,omitempty" json:"conditionPerItem,omitempty"`
	And           *Condition `yaml:"conditionAnd,omitempty" json:"conditionAnd,omitempty"`
	Or            *Condition `yaml:"conditionOr,omitempty" json:"conditionOr,omitempty"`
	ShowDetails   bool       `yaml:"showDetails,omitempty" json:"showDetails,omitempty"`
}

// Env carries the run configuration a condition may depend on.
type Env struct {
	MinAPI int64
	Now    time.Time
}

// Result is the outcome of an evaluation. Items are the wildcard captures of
// the branches that passed, sorted.
type Result struct {
	Passed bool     `json:"passed"`
	Items  []string `json:"items,omitempty"`
}

// ParseTime accepts a date (2006-01-02) or an RFC 3339 timestamp.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// Validate checks the condition tree for structural errors.
func (c *Condition) Validate() error {
	if !operators[c.Operator] {
		return fmt.Errorf("operator: unknown operator %q", c.Operator)
	}
	if c.Operator != Always && c.Operator != Never && c.MetadataType == "" {
		return fmt.Errorf("metadataType: required for operator %q", c.Operator)
	}
	switch c.Operator {
	case GT, GTE, LT, LTE, EQ:
		if c.Operand == nil {
			return fmt.Errorf("operand: required for operator %q", c.Operator)
		}
		if _, ok := number(c.Operand, 0); !ok {
			return fmt.Errorf("operand: %v is not a number", c.Operand)
		}
	case Between:
		bounds, ok := c.Operand.([]any)
		if !ok || len(bounds) != 2 {
			return fmt.Errorf("operand: between needs a two-element list, got %v", c.Operand)
		}
		for _, b := range bounds {
			if _, ok := number(b, 0); !ok {
				return fmt.Errorf("operand: bound %v is neither a number nor %q", b, MinAPI)
			}
		}
	}
	if c.Expiration != "" {
		if _, err := ParseTime(c.Expiration); err != nil {
			return fmt.Errorf("expiration: %w", err)
		}
	}
	if c.And != nil {
		if err := c.And.Validate(); err != nil {
			return fmt.Errorf("conditionAnd.%w", err)
		}
	}
	if c.Or != nil {
		if err := c.Or.Validate(); err != nil {
			return fmt.Errorf("conditionOr.%w", err)
		}
	}
	return nil
}

// Evaluate runs c against tree. The AND child is evaluated only when the
// base passed unless it sets ProcessAlways; the OR child likewise only when
// the left side failed. A PerItem AND child passes only for items that
// satisfy both sides; when neither path has a wildcard there are no items
// and it combines as a plain boolean AND.
func Evaluate(c *Condition, tree pathstore.Tree, env Env) Result {
	if c == nil {
		return Result{}
	}
	res := evalBase(c, tree, env)

	if c.And != nil && (res.Passed || c.And.ProcessAlways) {
		right := Evaluate(c.And, tree, env)
		if c.And.PerItem && (pathstore.HasWildcard(c.MetadataType) || pathstore.HasWildcard(c.And.MetadataType)) {
			items := intersect(res.Items, right.Items)
			res = Result{Passed: len(items) > 0, Items: items}
		} else {
			res = Result{
				Passed: res.Passed && right.Passed,
				Items:  union(passedItems(res), passedItems(right)),
			}
		}
	} else if c.And != nil {
		res.Passed = false
	}

	if c.Or != nil && (!res.Passed || c.Or.ProcessAlways) {
		right := Evaluate(c.Or, tree, env)
		res = Result{
			Passed: res.Passed || right.Passed,
			Items:  union(passedItems(res), passedItems(right)),
		}
	}
	return res
}

func passedItems(r Result) []string {
	if !r.Passed {
		return nil
	}
	return r.Items
}

func evalBase(c *Condition, tree pathstore.Tree, env Env) Result {
	if c.Expiration != "" {
		exp, err := ParseTime(c.Expiration)
		if err != nil || !env.Now.Before(exp) {
			return Result{}
		}
	}

	switch c.Operator {
	case Always:
		return Result{Passed: true}
	case Never:
		return Result{}
	}

	if !pathstore.HasWildcard(c.MetadataType) {
		v, ok := tree.Lookup(c.MetadataType)
		return Result{Passed: test(c, v, ok, env)}
	}

	matches := tree.Expand(c.MetadataType)
	switch c.Operator {
	case NotExists, Null:
		for _, m := range matches {
			if !test(c, m.Value, true, env) {
				return Result{}
			}
		}
		return Result{Passed: true}
	}

	var items []string
	for _, m := range matches {
		if test(c, m.Value, true, env) {
			items = append(items, m.Item())
		}
	}
	items = union(items, nil)
	return Result{Passed: len(items) > 0, Items: items}
}

// test applies the operator to one value. Missing values compare as zero.
func test(c *Condition, v any, present bool, env Env) bool {
	switch c.Operator {
	case Exists:
		return present && nonEmpty(v)
	case NotExists:
		return !present || !nonEmpty(v)
	case Null:
		return !present
	}

	var n int64
	if present {
		var ok bool
		if n, ok = pathstore.Count(v); !ok {
			return false
		}
	}
	x := float64(n)

	if c.Operator == Between {
		bounds, ok := c.Operand.([]any)
		if !ok || len(bounds) != 2 {
			return false
		}
		lo, ok1 := number(bounds[0], env.MinAPI)
		hi, ok2 := number(bounds[1], env.MinAPI)
		return ok1 && ok2 && lo < x && x < hi
	}

	want, ok := number(c.Operand, env.MinAPI)
	if !ok {
		return false
	}
	switch c.Operator {
	case GT:
		return x > want
	case GTE:
		return x >= want
	case LT:
		return x < want
	case LTE:
		return x <= want
	case EQ:
		return x == want
	}
	return false
}

func nonEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case pathstore.Tree:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	}
	if n, ok := pathstore.Int(v); ok {
		return n != 0
	}
	return true
}

// number reads a numeric operand, resolving the MinAPI placeholder.
func number(v any, minAPI int64) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case float64:
		return x, true
	case string:
		if x == MinAPI {
			return float64(minAPI), true
		}
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	}
	return 0, false
}

func union(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range append(append([]string(nil), a...), b...) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

func intersect(a, b []string) []string {
	in := make(map[string]bool, len(b))
	for _, s := range b {
		in[s] = true
	}
	var out []string
	for _, s := range a {
		if in[s] {
			out = append(out, s)
		}
	}
	return union(out, nil)
}
