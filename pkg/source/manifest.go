package source

import (
	"fmt"
	"sort"

	"github.com/clbanning/mxj/v2"
)

// WildcardMember in a manifest member list means "every member on disk".
const WildcardMember = "*"

// Manifest lists the declared members per metadata type. Order keeps the
// types in the order they were declared.
type Manifest struct {
	Types   map[string][]string
	Order   []string
	Version string
}

// NewManifest returns an empty manifest.
func NewManifest() Manifest {
	return Manifest{Types: make(map[string][]string)}
}

// Add appends members to a type, registering the type on first use.
func (m *Manifest) Add(metadataType string, members ...string) {
	if m.Types == nil {
		m.Types = make(map[string][]string)
	}
	if _, ok := m.Types[metadataType]; !ok {
		m.Order = append(m.Order, metadataType)
	}
	m.Types[metadataType] = append(m.Types[metadataType], members...)
}

// Members returns the declared members of a type.
func (m Manifest) Members(metadataType string) []string {
	return m.Types[metadataType]
}

// HasWildcard reports whether the member list of a type asks for expansion.
func (m Manifest) HasWildcard(metadataType string) bool {
	for _, member := range m.Types[metadataType] {
		if member == WildcardMember {
			return true
		}
	}
	return false
}

// TypeNames returns the declared types, sorted.
func (m Manifest) TypeNames() []string {
	names := append([]string(nil), m.Order...)
	sort.Strings(names)
	return names
}

// ParsePackageXML decodes a package.xml manifest.
func ParsePackageXML(b []byte) (Manifest, error) {
	mv, err := mxj.NewMapXml(b)
	if err != nil {
		return Manifest{}, fmt.Errorf("parse package.xml: %w", err)
	}
	if _, err := mv.ValueForPath("Package"); err != nil {
		return Manifest{}, fmt.Errorf("parse package.xml: missing Package root")
	}

	man := NewManifest()
	types, _ := mv.ValuesForPath("Package.types")
	for i, t := range types {
		node, ok := t.(map[string]interface{})
		if !ok {
			return Manifest{}, fmt.Errorf("parse package.xml: types[%d] is not an element", i)
		}
		name := text(node["name"])
		if name == "" {
			return Manifest{}, fmt.Errorf("parse package.xml: types[%d] has no name", i)
		}
		man.Add(name, texts(node["members"])...)
	}
	if v, err := mv.ValueForPath("Package.version"); err == nil {
		man.Version = text(v)
	}
	return man, nil
}
