// Package recommend evaluates a rule table against a finished inventory and
// produces recommendations, edition install warnings and active alerts.
package recommend

import (
	"fmt"
	"strings"
	"time"

	"github.com/mdscan/mdscan/pkg/condition"
	"github.com/mdscan/mdscan/pkg/inventory"
	"github.com/mdscan/mdscan/pkg/pathstore"
	"github.com/mdscan/mdscan/pkg/rules"
)

// Recommendation kinds.
const (
	Positive = "positive"
	Negative = "negative"
)

// Recommendation is one rendered message.
type Recommendation struct {
	Rule    string   `json:"rule"`
	Label   string   `json:"label,omitempty"`
	Kind    string   `json:"kind"`
	SubType string   `json:"subType,omitempty"`
	Message string   `json:"message"`
	URL     string   `json:"url,omitempty"`
	Items   []string `json:"items,omitempty"`
}

// BlockingReason is one blocking item that fired for an edition.
type BlockingReason struct {
	Label                  string `json:"label"`
	MetadataType           string `json:"metadataType"`
	Count                  int64  `json:"count"`
	Threshold              int64  `json:"threshold"`
	RequiresSecurityReview bool   `json:"requiresSecurityReview,omitempty"`
	Message                string `json:"message"`
}

// EditionResult tells whether a package installs into one edition.
type EditionResult struct {
	Edition     string           `json:"edition"`
	Installable bool             `json:"installable"`
	Reasons     []BlockingReason `json:"reasons,omitempty"`
}

// ActiveAlert is an alert that has not expired and whose count is positive.
type ActiveAlert struct {
	Label      string `json:"label"`
	Message    string `json:"message"`
	URL        string `json:"url,omitempty"`
	Expiration string `json:"expiration"`
	Count      int64  `json:"count"`
}

// Engine evaluates one rule table.
type Engine struct {
	Table *rules.Table
	Env   condition.Env
}

// New returns an engine for tbl. A positive minAPI overrides the table's
// minimum API version.
func New(tbl *rules.Table, minAPI int64, now time.Time) *Engine {
	if minAPI <= 0 {
		minAPI = tbl.MinAPIVersion
	}
	return &Engine{Table: tbl, Env: condition.Env{MinAPI: minAPI, Now: now}}
}

// count reads the tally at path; absent paths count as zero.
func count(tree pathstore.Tree, path string) int64 {
	n, _ := pathstore.Count(tree.Get(path, nil))
	return n
}

// Recommendations evaluates every rule in table order.
func (e *Engine) Recommendations(tree pathstore.Tree) []Recommendation {
	var out []Recommendation
	for _, r := range e.Table.Rules {
		if r.Threshold != nil {
			n := count(tree, r.MetadataType)
			out = appendRec(out, r, n > *r.Threshold, "", nil)
		}
		for _, dt := range r.DetailThresholds {
			for _, sub := range subTypes(tree, r.MetadataType, dt.SubType) {
				n := count(tree, r.MetadataType+string(pathstore.Separator)+pathstore.EscapeKey(sub))
				rec := dt.Negative
				kind := Negative
				if n > dt.Threshold {
					rec, kind = dt.Positive, Positive
				}
				if rec == nil {
					continue
				}
				out = append(out, Recommendation{
					Rule:    r.Name,
					Label:   r.Label,
					Kind:    kind,
					SubType: sub,
					Message: strings.ReplaceAll(rec.Message, "{subtype}", sub),
					URL:     rec.URL,
				})
			}
		}
		if r.Condition != nil {
			res := condition.Evaluate(r.Condition, tree, e.Env)
			var items []string
			if r.Condition.ShowDetails {
				items = res.Items
			}
			out = appendRec(out, r, res.Passed, "", items)
		}
	}
	return out
}

// subTypes resolves a detail threshold's sub-type against the keys under
// path. An exact sub-type is evaluated even when absent so its negative
// branch can fire; the wildcard covers only present keys.
func subTypes(tree pathstore.Tree, path, subType string) []string {
	if subType == rules.AnySubType {
		return tree.Keys(path)
	}
	return []string{subType}
}

func appendRec(out []Recommendation, r rules.Rule, passed bool, sub string, items []string) []Recommendation {
	rec, kind := r.Negative, Negative
	if passed {
		rec, kind = r.Positive, Positive
	}
	if rec == nil {
		return out
	}
	msg := strings.ReplaceAll(rec.Message, "{items}", strings.Join(items, ", "))
	return append(out, Recommendation{
		Rule:    r.Name,
		Label:   r.Label,
		Kind:    kind,
		SubType: sub,
		Message: msg,
		URL:     rec.URL,
		Items:   items,
	})
}

// Editions evaluates every edition independently.
func (e *Engine) Editions(tree pathstore.Tree) []EditionResult {
	out := make([]EditionResult, 0, len(e.Table.Editions))
	for _, ed := range e.Table.Editions {
		res := EditionResult{Edition: ed.Name}
		for _, it := range ed.BlockingItems {
			n := count(tree, it.MetadataType)
			if n <= it.Threshold {
				continue
			}
			msg := fmt.Sprintf("%s: %d exceeds the limit of %d", it.Label, n, it.Threshold)
			if it.RequiresSecurityReview {
				msg += " unless the package passes security review"
			}
			res.Reasons = append(res.Reasons, BlockingReason{
				Label:                  it.Label,
				MetadataType:           it.MetadataType,
				Count:                  n,
				Threshold:              it.Threshold,
				RequiresSecurityReview: it.RequiresSecurityReview,
				Message:                msg,
			})
		}
		res.Installable = len(res.Reasons) == 0
		out = append(out, res)
	}
	return out
}

// Alerts returns the alerts that have not expired and whose count is above
// zero.
func (e *Engine) Alerts(tree pathstore.Tree) []ActiveAlert {
	var out []ActiveAlert
	for _, a := range e.Table.Alerts {
		exp, err := condition.ParseTime(a.Expiration)
		if err != nil || !e.Env.Now.Before(exp) {
			continue
		}
		n := count(tree, a.MetadataType)
		if n <= 0 {
			continue
		}
		out = append(out, ActiveAlert{
			Label:      a.Label,
			Message:    a.Message,
			URL:        a.URL,
			Expiration: a.Expiration,
			Count:      n,
		})
	}
	return out
}

// Report is everything a scan produced, ready for presentation.
type Report struct {
	Source          string                 `json:"source"`
	GeneratedAt     time.Time              `json:"generatedAt"`
	RulesVersion    string                 `json:"rulesVersion"`
	MinAPIVersion   int64                  `json:"minApiVersion"`
	Inventory       pathstore.Tree         `json:"inventory"`
	Dependencies    inventory.Dependencies `json:"dependencies"`
	APIVersions     pathstore.Tree         `json:"apiVersions"`
	Properties      pathstore.Tree         `json:"componentProperties"`
	Recommendations []Recommendation       `json:"recommendations"`
	Editions        []EditionResult        `json:"editions"`
	Alerts          []ActiveAlert          `json:"alerts"`
	Diagnostics     []inventory.Diagnostic `json:"diagnostics"`
}

// Report evaluates the whole table against inv.
func (e *Engine) Report(src string, inv *inventory.Inventory) *Report {
	tree := inv.Tree()
	return &Report{
		Source:          src,
		GeneratedAt:     e.Env.Now,
		RulesVersion:    e.Table.Version,
		MinAPIVersion:   e.Env.MinAPI,
		Inventory:       inv.Types,
		Dependencies:    inv.Dependencies,
		APIVersions:     inv.APIVersions,
		Properties:      inv.Properties,
		Recommendations: e.Recommendations(tree),
		Editions:        e.Editions(tree),
		Alerts:          e.Alerts(tree),
		Diagnostics:     inv.Diagnostics,
	}
}
