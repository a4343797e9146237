package scanners

import (
	"github.com/mdscan/mdscan/pkg/inventory"
	"github.com/mdscan/mdscan/pkg/source"
)

func init() {
	register("Flow", scanFlows)
}

const unknownProcessType = "Unknown"

// scanFlows groups flows by process type and counts the object identifiers
// each definition mentions.
func scanFlows(inv *inventory.Inventory, src source.Source, t string, members []string) error {
	for _, m := range members {
		d := inv.Detail(src, t, m)
		if d.Empty() {
			continue
		}

		processType := d.String("processType")
		if processType == "" {
			processType = unknownProcessType
		}
		if err := inc(inv, t, "FlowTypes", processType, "count"); err != nil {
			return err
		}
		if d.Bool("isTemplate") {
			if err := inc(inv, t, "FlowTypes", processType, "templates"); err != nil {
				return err
			}
			if err := inc(inv, t, "FlowTemplates"); err != nil {
				return err
			}
		}

		text := joinFiles(inv.Content(src, t, m))
		if obj := d.String("start.object"); obj != "" {
			text = append(append(text, ' '), obj...)
		}
		if err := tallyRefs(inv, t, "objects", text); err != nil {
			return err
		}
	}
	return nil
}
