package recommend

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/mdscan/mdscan/pkg/pathstore"
)

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteText writes the human-readable summary of the report.
func (r *Report) WriteText(w io.Writer) error {
	fmt.Fprintf(w, "Source: %s\nRules: %s (minimum API %d)\n\n", r.Source, r.RulesVersion, r.MinAPIVersion)

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tCOUNT\t")
	for _, t := range r.Inventory.Keys("") {
		n, _ := pathstore.Count(r.Inventory[t])
		fmt.Fprintf(tw, "%s\t%d\t\n", t, n)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(r.Recommendations) > 0 {
		fmt.Fprintln(w, "\nRecommendations:")
		for _, rec := range r.Recommendations {
			fmt.Fprintf(w, "  - %s\n", rec.Message)
			if rec.URL != "" {
				fmt.Fprintf(w, "    %s\n", rec.URL)
			}
		}
	}

	if len(r.Editions) > 0 {
		fmt.Fprintln(w, "\nEditions:")
		for _, ed := range r.Editions {
			if ed.Installable {
				fmt.Fprintf(w, "  %s: installable\n", ed.Edition)
				continue
			}
			fmt.Fprintf(w, "  %s: blocked\n", ed.Edition)
			for _, reason := range ed.Reasons {
				fmt.Fprintf(w, "    - %s\n", reason.Message)
			}
		}
	}

	if len(r.Alerts) > 0 {
		fmt.Fprintln(w, "\nAlerts:")
		for _, a := range r.Alerts {
			fmt.Fprintf(w, "  - %s (until %s): %s\n", a.Label, a.Expiration, a.Message)
		}
	}

	if ns := r.Dependencies.NamespaceList(); len(ns) > 0 {
		fmt.Fprintf(w, "\nNamespace dependencies: %v\n", ns)
	}
	if len(r.Diagnostics) > 0 {
		fmt.Fprintf(w, "\n%d diagnostics (run with --loglevel debug for details)\n", len(r.Diagnostics))
	}
	return nil
}
