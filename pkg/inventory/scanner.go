package inventory

import (
	"sort"

	"github.com/mdscan/mdscan/pkg/pathstore"
	"github.com/mdscan/mdscan/pkg/source"
)

// Scanner tallies the members of one metadata type into the inventory. The
// member count itself is already recorded when Scan is called. Scanners must
// produce the same tallies when run twice on the same input.
type Scanner interface {
	Scan(inv *Inventory, src source.Source, metadataType string, members []string) error
}

// ScannerFunc adapts a function to the Scanner interface.
type ScannerFunc func(inv *Inventory, src source.Source, metadataType string, members []string) error

// Scan calls f.
func (f ScannerFunc) Scan(inv *Inventory, src source.Source, metadataType string, members []string) error {
	return f(inv, src, metadataType, members)
}

// Registry maps metadata type names to scanners.
type Registry struct {
	scanners map[string]Scanner
	fallback Scanner
}

// NewRegistry returns a registry whose fallback only records API versions.
func NewRegistry() *Registry {
	return &Registry{
		scanners: make(map[string]Scanner),
		fallback: ScannerFunc(recordVersions),
	}
}

// Register binds a scanner to a type, replacing any previous one.
func (r *Registry) Register(metadataType string, s Scanner) {
	r.scanners[metadataType] = s
}

// Lookup returns the scanner for a type, or the fallback.
func (r *Registry) Lookup(metadataType string) Scanner {
	if s, ok := r.scanners[metadataType]; ok {
		return s
	}
	return r.fallback
}

// Types returns the types with a dedicated scanner, sorted.
func (r *Registry) Types() []string {
	out := make([]string, 0, len(r.scanners))
	for t := range r.scanners {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// recordVersions is the default strategy: the count is already in place, so
// it only picks up API versions from whatever detail exists.
func recordVersions(inv *Inventory, src source.Source, metadataType string, members []string) error {
	for _, m := range members {
		d, err := src.Detail(metadataType, m)
		if err != nil {
			continue
		}
		inv.SetAPIVersion(metadataType, m, d.String("apiVersion"))
	}
	return nil
}

// setCount records the authoritative member count of a type.
func (inv *Inventory) setCount(metadataType string, n int) error {
	return inv.Types.Set(pathstore.Join(metadataType, "count"), n)
}
