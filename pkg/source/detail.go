package source

import (
	"fmt"
	"strings"

	"github.com/clbanning/mxj/v2"
)

// Detail is the parsed XML of one member, rooted at the component element.
// Paths are mxj paths relative to that root ("apiVersion",
// "targets.target"). The zero Detail answers every lookup with nothing.
type Detail struct {
	root string
	m    mxj.Map
}

// ParseDetail decodes a member's XML file.
func ParseDetail(b []byte) (Detail, error) {
	mv, err := mxj.NewMapXml(b)
	if err != nil {
		return Detail{}, err
	}
	for root, v := range mv {
		node, ok := v.(map[string]interface{})
		if !ok {
			// an empty root element decodes to ""
			return Detail{root: root, m: mxj.Map{}}, nil
		}
		return Detail{root: root, m: mxj.Map(node)}, nil
	}
	return Detail{}, fmt.Errorf("empty document")
}

// Root is the name of the component element, e.g. "ApexClass".
func (d Detail) Root() string {
	return d.root
}

// Empty reports whether nothing was loaded.
func (d Detail) Empty() bool {
	return len(d.m) == 0
}

// String returns the text of the first element at path.
func (d Detail) String(path string) string {
	if d.m == nil {
		return ""
	}
	v, err := d.m.ValueForPath(path)
	if err != nil {
		return ""
	}
	return text(v)
}

// Strings returns the text of every element at path.
func (d Detail) Strings(path string) []string {
	if d.m == nil {
		return nil
	}
	vs, err := d.m.ValuesForPath(path)
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		if s := text(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Bool reports whether the element at path holds "true".
func (d Detail) Bool(path string) bool {
	return strings.EqualFold(strings.TrimSpace(d.String(path)), "true")
}

// Has reports whether the element at path exists with non-empty text or
// children.
func (d Detail) Has(path string) bool {
	if d.m == nil {
		return false
	}
	v, err := d.m.ValueForPath(path)
	if err != nil {
		return false
	}
	switch x := v.(type) {
	case map[string]interface{}:
		return len(x) > 0
	case string:
		return strings.TrimSpace(x) != ""
	}
	return v != nil
}

// Children returns every element at path as its own Detail.
func (d Detail) Children(path string) []Detail {
	if d.m == nil {
		return nil
	}
	vs, err := d.m.ValuesForPath(path)
	if err != nil {
		return nil
	}
	root := path
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		root = path[i+1:]
	}
	var out []Detail
	for _, v := range vs {
		if node, ok := v.(map[string]interface{}); ok {
			out = append(out, Detail{root: root, m: mxj.Map(node)})
		}
	}
	return out
}

// text extracts the character data of a decoded element. Elements carrying
// attributes decode to a map holding the text under "#text".
func text(v interface{}) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case map[string]interface{}:
		return text(x["#text"])
	case []interface{}:
		if len(x) > 0 {
			return text(x[0])
		}
	case bool, float64:
		return fmt.Sprint(x)
	}
	return ""
}

func texts(v interface{}) []string {
	switch x := v.(type) {
	case []interface{}:
		out := make([]string, 0, len(x))
		for _, e := range x {
			if s := text(e); s != "" {
				out = append(out, s)
			}
		}
		return out
	case nil:
		return nil
	}
	if s := text(v); s != "" {
		return []string{s}
	}
	return nil
}
