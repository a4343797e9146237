// Package rules defines the rule, edition and alert tables evaluated after a
// scan, along with their loading and validation.
package rules

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"gopkg.in/yaml.v3"

	"github.com/mdscan/mdscan/pkg/condition"
	"github.com/mdscan/mdscan/pkg/whttp"
)

// Recommendation is a message shown to the user, with an optional link.
type Recommendation struct {
	Message string `yaml:"message" json:"message"`
	URL     string `yaml:"url,omitempty" json:"url,omitempty"`
}

// AnySubType matches every sub-tally under a rule's path.
const AnySubType = "*"

// DetailThreshold applies a threshold to each matching sub-tally under the
// rule's path. Messages may contain {subtype}.
type DetailThreshold struct {
	SubType   string          `yaml:"subType" json:"subType"`
	Threshold int64           `yaml:"threshold" json:"threshold"`
	Positive  *Recommendation `yaml:"recPos,omitempty" json:"recPos,omitempty"`
	Negative  *Recommendation `yaml:"recNeg,omitempty" json:"recNeg,omitempty"`
}

// Rule maps inventory state to a recommendation. It carries either a
// Threshold compared against the count at MetadataType, a Condition, or only
// DetailThresholds. Condition messages may contain {items}.
type Rule struct {
	Name             string               `yaml:"name" json:"name"`
	Label            string               `yaml:"label,omitempty" json:"label,omitempty"`
	MetadataType     string               `yaml:"metadataType,omitempty" json:"metadataType,omitempty"`
	Threshold        *int64               `yaml:"threshold,omitempty" json:"threshold,omitempty"`
	Positive         *Recommendation      `yaml:"recPos,omitempty" json:"recPos,omitempty"`
	Negative         *Recommendation      `yaml:"recNeg,omitempty" json:"recNeg,omitempty"`
	DetailThresholds []DetailThreshold    `yaml:"detailThresholds,omitempty" json:"detailThresholds,omitempty"`
	Condition        *condition.Condition `yaml:"condition,omitempty" json:"condition,omitempty"`
}

// BlockingItem blocks an edition when the count at MetadataType exceeds
// Threshold.
type BlockingItem struct {
	MetadataType           string `yaml:"metadataType" json:"metadataType"`
	Label                  string `yaml:"label" json:"label"`
	Threshold              int64  `yaml:"threshold" json:"threshold"`
	RequiresSecurityReview bool   `yaml:"requiresSecurityReview,omitempty" json:"requiresSecurityReview,omitempty"`
}

// EditionBlockingRule lists what keeps a package out of one edition.
type EditionBlockingRule struct {
	Name          string         `yaml:"name" json:"name"`
	BlockingItems []BlockingItem `yaml:"blockingItems" json:"blockingItems"`
}

// Alert is a time-boxed notice shown while the count at MetadataType is
// above zero.
type Alert struct {
	MetadataType string `yaml:"metadataType" json:"metadataType"`
	Label        string `yaml:"label" json:"label"`
	Message      string `yaml:"message" json:"message"`
	URL          string `yaml:"url,omitempty" json:"url,omitempty"`
	Expiration   string `yaml:"expiration" json:"expiration"`
}

// Table is a complete rule set.
type Table struct {
	Version       string                `yaml:"version" json:"version"`
	MinAPIVersion int64                 `yaml:"minApiVersion" json:"minApiVersion"`
	Rules         []Rule                `yaml:"rules" json:"rules"`
	Editions      []EditionBlockingRule `yaml:"editions" json:"editions"`
	Alerts        []Alert               `yaml:"alerts" json:"alerts"`
}

// ConfigurationError reports a malformed table entry.
type ConfigurationError struct {
	Table  string
	Index  int
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid rule table: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid rule table: %s[%d].%s: %s", e.Table, e.Index, e.Field, e.Reason)
}

// Validate checks every entry and returns the first problem found.
func (t *Table) Validate() error {
	if t.MinAPIVersion < 0 {
		return &ConfigurationError{Index: -1, Field: "minApiVersion", Reason: "must not be negative"}
	}

	for i, r := range t.Rules {
		bad := func(field, reason string) error {
			return &ConfigurationError{Table: "rules", Index: i, Field: field, Reason: reason}
		}
		if strings.TrimSpace(r.Name) == "" {
			return bad("name", "required")
		}
		if r.Condition == nil && r.MetadataType == "" {
			return bad("metadataType", "required without a condition")
		}
		if r.Threshold != nil && *r.Threshold < 0 {
			return bad("threshold", "must not be negative")
		}
		if r.Condition == nil && r.Threshold == nil && len(r.DetailThresholds) == 0 {
			return bad("threshold", "rule needs a threshold, detail thresholds or a condition")
		}
		for j, dt := range r.DetailThresholds {
			if dt.SubType == "" {
				return bad(fmt.Sprintf("detailThresholds[%d].subType", j), "required")
			}
			if dt.Threshold < 0 {
				return bad(fmt.Sprintf("detailThresholds[%d].threshold", j), "must not be negative")
			}
		}
		if r.Condition != nil {
			if err := r.Condition.Validate(); err != nil {
				return bad("condition", err.Error())
			}
		}
	}

	seen := make(map[string]bool)
	for i, e := range t.Editions {
		bad := func(field, reason string) error {
			return &ConfigurationError{Table: "editions", Index: i, Field: field, Reason: reason}
		}
		if strings.TrimSpace(e.Name) == "" {
			return bad("name", "required")
		}
		if seen[e.Name] {
			return bad("name", fmt.Sprintf("duplicate edition %q", e.Name))
		}
		seen[e.Name] = true
		for j, it := range e.BlockingItems {
			if it.MetadataType == "" {
				return bad(fmt.Sprintf("blockingItems[%d].metadataType", j), "required")
			}
			if it.Threshold < 0 {
				return bad(fmt.Sprintf("blockingItems[%d].threshold", j), "must not be negative")
			}
		}
	}

	for i, a := range t.Alerts {
		bad := func(field, reason string) error {
			return &ConfigurationError{Table: "alerts", Index: i, Field: field, Reason: reason}
		}
		if a.MetadataType == "" {
			return bad("metadataType", "required")
		}
		if a.Label == "" {
			return bad("label", "required")
		}
		if _, err := condition.ParseTime(a.Expiration); err != nil {
			return bad("expiration", err.Error())
		}
	}
	return nil
}

// Parse decodes a YAML or JSON table and validates it.
func Parse(b []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(b, &t); err != nil {
		return nil, &ConfigurationError{Index: -1, Field: "document", Reason: err.Error()}
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Load reads a table from a file path or an http(s) URL. An empty src
// returns the built-in table. client may be nil for local sources.
func Load(ctx context.Context, src string, client *retryablehttp.Client) (*Table, error) {
	if src == "" {
		return Default(), nil
	}

	var (
		b   []byte
		err error
	)
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		if client == nil {
			if client, err = whttp.NewClient(""); err != nil {
				return nil, err
			}
		}
		b, err = whttp.Fetch(ctx, client, src)
	} else {
		b, err = os.ReadFile(src)
	}
	if err != nil {
		return nil, fmt.Errorf("load rules from %s: %w", src, err)
	}
	return Parse(b)
}
