package scanners

import (
	"bytes"
	"path"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// platformNamespaces are element and module prefixes that belong to the
// platform itself, or to the package being scanned ("c"), and so are not
// dependencies.
var platformNamespaces = map[string]bool{
	"analytics":       true,
	"apex":            true,
	"aura":            true,
	"c":               true,
	"chatter":         true,
	"flexipage":       true,
	"force":           true,
	"forcechatter":    true,
	"forcecommunity":  true,
	"lightning":       true,
	"lightningsnapin": true,
	"ltng":            true,
	"lwc":             true,
	"support":         true,
	"ui":              true,
	"wave":            true,
}

var markupExtensions = map[string]bool{
	".app":       true,
	".cmp":       true,
	".component": true,
	".evt":       true,
	".html":      true,
	".intf":      true,
	".page":      true,
}

func isMarkup(name string) bool {
	return markupExtensions[strings.ToLower(path.Ext(name))]
}

// parseMarkup parses a template or page into a goquery document. The HTML
// parser keeps "ns:tag" element names intact and lowercases them.
func parseMarkup(b []byte) (*goquery.Document, error) {
	root, err := html.Parse(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromNode(root), nil
}

// markupNamespaces returns the foreign namespaces of the elements in doc,
// taken from "ns:tag" names and from "ns-tag" custom elements.
func markupNamespaces(doc *goquery.Document) []string {
	seen := make(map[string]bool)
	var out []string
	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		ns := elementNamespace(goquery.NodeName(s))
		if ns == "" || platformNamespaces[ns] || seen[ns] {
			return
		}
		seen[ns] = true
		out = append(out, ns)
	})
	return out
}

func elementNamespace(tag string) string {
	if i := strings.IndexByte(tag, ':'); i > 0 {
		return tag[:i]
	}
	if i := strings.IndexByte(tag, '-'); i > 0 {
		return tag[:i]
	}
	return ""
}

var moduleImport = regexp.MustCompile(`(?m)\bfrom\s+['"]([A-Za-z][A-Za-z0-9_]*)/`)

// moduleNamespaces returns the foreign namespaces of the module imports of a
// script.
func moduleNamespaces(js []byte) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range moduleImport.FindAllSubmatch(js, -1) {
		ns := strings.ToLower(string(m[1]))
		if platformNamespaces[ns] || seen[ns] {
			continue
		}
		seen[ns] = true
		out = append(out, ns)
	}
	return out
}

// implementedInterfaces returns the interfaces named by the implements
// attribute of the markup's root component.
func implementedInterfaces(doc *goquery.Document) []string {
	var out []string
	doc.Find("[implements]").First().Each(func(_ int, s *goquery.Selection) {
		attr, _ := s.Attr("implements")
		for _, iface := range strings.Split(attr, ",") {
			if iface = strings.TrimSpace(iface); iface != "" {
				out = append(out, iface)
			}
		}
	})
	return out
}
