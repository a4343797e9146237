package scanners

import (
	"path"
	"strings"

	"github.com/mdscan/mdscan/pkg/inventory"
	"github.com/mdscan/mdscan/pkg/source"
)

func init() {
	register("LightningComponentBundle", scanLWC)
	register("AuraDefinitionBundle", scanAura)
	register("ApexPage", scanPages)
}

// scanLWC reads each bundle's descriptor for exposure and placement targets
// and its files for hard-coded URLs and foreign namespaces.
func scanLWC(inv *inventory.Inventory, src source.Source, t string, members []string) error {
	for _, m := range members {
		d := inv.Detail(src, t, m)
		if d.Bool("isExposed") {
			if err := inc(inv, t, "ExposedComponents"); err != nil {
				return err
			}
		}
		for _, target := range d.Strings("targets.target") {
			if err := inc(inv, t, "targets", target); err != nil {
				return err
			}
		}

		if err := scanBundleFiles(inv, t, m, inv.Content(src, t, m), nil); err != nil {
			return err
		}
	}
	return nil
}

// scanAura tallies the interfaces each component implements along with the
// same URL and namespace checks as LWC bundles.
func scanAura(inv *inventory.Inventory, src source.Source, t string, members []string) error {
	for _, m := range members {
		inv.Detail(src, t, m)
		err := scanBundleFiles(inv, t, m, inv.Content(src, t, m), func(ifaces []string) error {
			for _, iface := range ifaces {
				if err := inc(inv, t, "interfaces", iface); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func scanBundleFiles(inv *inventory.Inventory, t, member string, files []source.File, onInterfaces func([]string) error) error {
	for _, f := range files {
		if err := tallyURLs(inv, t, f.Data); err != nil {
			return err
		}

		switch {
		case isMarkup(f.Name):
			doc, err := parseMarkup(f.Data)
			if err != nil {
				inv.Diagnose(inventory.ParseError, t, member, err)
				continue
			}
			for _, ns := range markupNamespaces(doc) {
				inv.Dependencies.AddNamespace(ns)
			}
			if onInterfaces != nil {
				if err := onInterfaces(implementedInterfaces(doc)); err != nil {
					return err
				}
			}
		case strings.EqualFold(path.Ext(f.Name), ".js"):
			for _, ns := range moduleNamespaces(f.Data) {
				inv.Dependencies.AddNamespace(ns)
			}
		}
	}
	return nil
}

// scanPages sizes Visualforce pages and collects their foreign component
// namespaces.
func scanPages(inv *inventory.Inventory, src source.Source, t string, members []string) error {
	for _, m := range members {
		inv.Detail(src, t, m)
		body := joinFiles(inv.Content(src, t, m))
		if len(body) == 0 {
			continue
		}
		if err := addChars(inv, t, body); err != nil {
			return err
		}
		if err := tallyURLs(inv, t, body); err != nil {
			return err
		}
		doc, err := parseMarkup(body)
		if err != nil {
			inv.Diagnose(inventory.ParseError, t, m, err)
			continue
		}
		for _, ns := range markupNamespaces(doc) {
			inv.Dependencies.AddNamespace(ns)
		}
	}
	return nil
}
