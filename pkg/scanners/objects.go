package scanners

import (
	"regexp"
	"strings"

	"github.com/mdscan/mdscan/pkg/classify"
	"github.com/mdscan/mdscan/pkg/inventory"
	"github.com/mdscan/mdscan/pkg/pathstore"
	"github.com/mdscan/mdscan/pkg/source"
)

func init() {
	register("CustomField", scanFields)
	register("CustomObject", scanObjects)
}

// objectTypeCounters maps semantic object types to their top-level tally.
var objectTypeCounters = map[string]string{
	classify.TypeBigObject:      "BigObject",
	classify.TypeExternalObject: "ExternalObject",
	classify.TypePlatformEvent:  "PlatformEvent",
	classify.TypeCustomMetadata: "CustomMetadataType",
}

var featurePattern = regexp.MustCompile(`(?i)(^|_)feature(s|flags?|parameters?|toggles?)?($|_)`)

// scanFields tallies fields per owning object. Members are "Object.Field".
func scanFields(inv *inventory.Inventory, src source.Source, t string, members []string) error {
	for _, m := range members {
		obj, field, ok := strings.Cut(m, ".")
		if !ok {
			inv.Diagnose(inventory.ParseError, t, m, &StructuralParseError{Type: t, Member: m, Reason: "field name has no owning object"})
			continue
		}
		objRef := classify.Classify(obj)
		fieldRef := classify.Classify(field)

		if err := inc(inv, t, "objects", obj, "count"); err != nil {
			return err
		}
		if err := inv.Types.Set(pathstore.Join(t, "objects", obj, "objectType"), objRef.Type); err != nil {
			return err
		}
		if err := inc(inv, t, "objectTypes", objRef.Type); err != nil {
			return err
		}

		if objRef.Namespaced() {
			inv.Dependencies.AddComponent(obj)
		}
		if fieldRef.Namespaced() {
			inv.Dependencies.AddComponent(m)
			continue
		}
		if !fieldRef.Custom() {
			continue
		}

		described := inv.Detail(src, t, m).Has("description")
		if err := setProperty(inv, described, t, m, "descriptionExists"); err != nil {
			return err
		}
		if !described {
			if err := inc(inv, t, "MissingDescription"); err != nil {
				return err
			}
		}
	}
	return nil
}

// scanObjects counts object variants by suffix and reads custom settings and
// descriptions from the object definition.
func scanObjects(inv *inventory.Inventory, src source.Source, t string, members []string) error {
	for _, m := range members {
		ref := classify.Classify(m)
		if err := inc(inv, t, "objectTypes", ref.Type); err != nil {
			return err
		}
		if counter, ok := objectTypeCounters[ref.Type]; ok {
			if err := inc(inv, t, counter); err != nil {
				return err
			}
		}
		if ref.Custom() && featurePattern.MatchString(ref.Name) {
			if err := inc(inv, t, "FeatureManagement"); err != nil {
				return err
			}
		}

		d := inv.Detail(src, t, m)
		if d.Empty() {
			continue
		}
		if err := setProperty(inv, d.Has("description"), t, m, "descriptionExists"); err != nil {
			return err
		}
		if d.Has("customSettingsType") {
			if err := inc(inv, t, "CustomSetting"); err != nil {
				return err
			}
			if err := setProperty(inv, true, t, m, "customSetting"); err != nil {
				return err
			}
		}
	}
	return nil
}
