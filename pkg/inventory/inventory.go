// Package inventory holds the state of one scan: per-type tallies, the
// dependency set, API versions, component properties and diagnostics.
// An Inventory is built by Run and is read-only once Run returns.
package inventory

import (
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/mdscan/mdscan/pkg/classify"
	"github.com/mdscan/mdscan/pkg/pathstore"
	"github.com/mdscan/mdscan/pkg/source"
)

// Reserved top-level keys of the combined tree returned by Tree.
const (
	KeyDependencies = "dependencies"
	KeyAPIVersions  = "apiVersions"
	KeyProperties   = "componentProperties"
)

// Diagnostic kinds.
const (
	DetailMissing   = "detail-missing"
	ParseError      = "parse-error"
	ConversionError = "conversion-error"
	ScannerError    = "scanner-error"
)

// Diagnostic records a degraded part of the scan.
type Diagnostic struct {
	Kind    string `json:"kind"`
	Type    string `json:"type"`
	Member  string `json:"member,omitempty"`
	Message string `json:"message"`
}

// Dependencies is the set of managed-package namespaces and external
// components the scanned package refers to.
type Dependencies struct {
	Namespaces map[string]bool                  `json:"namespaces"`
	Components map[string]classify.ComponentRef `json:"components"`
}

// AddNamespace records a namespace.
func (d *Dependencies) AddNamespace(ns string) {
	if ns == "" {
		return
	}
	if d.Namespaces == nil {
		d.Namespaces = make(map[string]bool)
	}
	d.Namespaces[ns] = true
}

// AddComponent classifies fullName and records it once. The namespace of a
// namespaced component is recorded too.
func (d *Dependencies) AddComponent(fullName string) classify.ComponentRef {
	if ref, ok := d.Components[fullName]; ok {
		return ref
	}
	if d.Components == nil {
		d.Components = make(map[string]classify.ComponentRef)
	}
	ref := classify.Classify(fullName)
	d.Components[fullName] = ref
	d.AddNamespace(ref.Namespace)
	return ref
}

// NamespaceList returns the recorded namespaces, sorted.
func (d Dependencies) NamespaceList() []string {
	out := make([]string, 0, len(d.Namespaces))
	for ns := range d.Namespaces {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

// Tree renders the dependencies as a path-addressable tree.
func (d Dependencies) Tree() pathstore.Tree {
	namespaces := pathstore.New()
	for ns := range d.Namespaces {
		namespaces[ns] = true
	}
	components := pathstore.New()
	for name, ref := range d.Components {
		c := pathstore.New()
		c["fullName"] = ref.FullName
		c["name"] = ref.Name
		c["type"] = ref.Type
		if ref.Namespace != "" {
			c["namespace"] = ref.Namespace
		}
		if ref.Extension != "" {
			c["extension"] = ref.Extension
		}
		components[name] = c
	}
	return pathstore.Tree{"namespaces": namespaces, "components": components}
}

// Inventory is the state object of a single scan.
type Inventory struct {
	Types        pathstore.Tree `json:"types"`
	Dependencies Dependencies   `json:"dependencies"`
	APIVersions  pathstore.Tree `json:"apiVersions"`
	Properties   pathstore.Tree `json:"componentProperties"`
	Diagnostics  []Diagnostic   `json:"diagnostics"`

	log Logger
}

// New returns an empty inventory. A nil log discards messages.
func New(log Logger) *Inventory {
	if log == nil {
		log = nopLogger{}
	}
	return &Inventory{
		Types: pathstore.New(),
		Dependencies: Dependencies{
			Namespaces: make(map[string]bool),
			Components: make(map[string]classify.ComponentRef),
		},
		APIVersions: pathstore.New(),
		Properties:  pathstore.New(),
		log:         log,
	}
}

// Count returns the member count recorded for a type; absent types are zero.
func (inv *Inventory) Count(metadataType string) int64 {
	n, _ := pathstore.Int(inv.Types.Get(pathstore.Join(metadataType, "count"), int64(0)))
	return n
}

// Tree returns the tree conditions are evaluated against: every type record
// at the top level plus the dependency, API version and property trees under
// their reserved keys.
func (inv *Inventory) Tree() pathstore.Tree {
	root := make(pathstore.Tree, len(inv.Types)+3)
	for k, v := range inv.Types {
		root[k] = v
	}
	root[KeyDependencies] = inv.Dependencies.Tree()
	root[KeyAPIVersions] = inv.APIVersions
	root[KeyProperties] = inv.Properties
	return root
}

// Diagnose records a degraded condition and logs it.
func (inv *Inventory) Diagnose(kind, metadataType, member string, err error) {
	inv.Diagnostics = append(inv.Diagnostics, Diagnostic{
		Kind:    kind,
		Type:    metadataType,
		Member:  member,
		Message: err.Error(),
	})
	if kind == DetailMissing {
		inv.log.Debugf("%s: %v", kind, err)
		return
	}
	inv.log.Warnf("%s: %v", kind, err)
}

// Detail fetches the XML detail of a member and records its API version. A
// missing or unreadable companion file is diagnosed and answered with the
// zero Detail.
func (inv *Inventory) Detail(src source.Source, metadataType, member string) source.Detail {
	d, err := src.Detail(metadataType, member)
	if err != nil {
		inv.diagnoseLookup(metadataType, member, err)
		return source.Detail{}
	}
	inv.SetAPIVersion(metadataType, member, d.String("apiVersion"))
	return d
}

// Content fetches the raw files of a member, diagnosing a missing one.
func (inv *Inventory) Content(src source.Source, metadataType, member string) []source.File {
	files, err := src.Content(metadataType, member)
	if err != nil {
		inv.diagnoseLookup(metadataType, member, err)
		return nil
	}
	return files
}

func (inv *Inventory) diagnoseLookup(metadataType, member string, err error) {
	if errors.Is(err, source.ErrDetailNotFound) {
		inv.Diagnose(DetailMissing, metadataType, member, err)
		return
	}
	inv.Diagnose(ParseError, metadataType, member, err)
}

// SetAPIVersion records the major API version of a member. Blank or
// unparsable versions are ignored.
func (inv *Inventory) SetAPIVersion(metadataType, member, version string) {
	major, ok := MajorVersion(version)
	if !ok {
		return
	}
	if err := inv.APIVersions.Set(pathstore.Join(metadataType, member), major); err != nil {
		inv.Diagnose(ConversionError, metadataType, member, err)
	}
}

// MajorVersion parses "58.0" into 58.
func MajorVersion(version string) (int64, bool) {
	version = strings.TrimSpace(version)
	if version == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(version, 64)
	if err != nil || f < 0 {
		return 0, false
	}
	return int64(f), true
}
