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
	register("ApexClass", scanClasses)
	register("ApexTrigger", scanTriggers)
}

type detector struct {
	name    string
	pattern *regexp.Regexp
}

// apexDetectors flag API surface markers in class bodies. Each one that
// matches adds one to its tally, test classes included.
var apexDetectors = []detector{
	{"FutureCalls", regexp.MustCompile(`(?i)@future\b`)},
	{"QueueableApex", regexp.MustCompile(`(?i)\bimplements\b[^{]*\bQueueable\b`)},
	{"SchedulableApex", regexp.MustCompile(`(?i)\bimplements\b[^{]*\bSchedulable\b`)},
	{"BatchApex", regexp.MustCompile(`(?i)\bimplements\b[^{]*\bDatabase\.Batchable\b`)},
	{"ApexRest", regexp.MustCompile(`(?i)@RestResource\b`)},
	{"ApexSoap", regexp.MustCompile(`(?i)\bwebservice\s+static\b`)},
	{"InvocableCalls", regexp.MustCompile(`(?i)@Invocable(Method|Variable)\b`)},
	{"AuraEnabledCalls", regexp.MustCompile(`(?i)@AuraEnabled\b`)},
	{"RemoteActions", regexp.MustCompile(`(?i)@RemoteAction\b`)},
}

var testClassPattern = regexp.MustCompile(`(?i)@isTest\b|\btestMethod\b`)

// scanClasses runs the detectors over every class body in manifest order.
// Test classes are counted but left out of CharacterCount.
func scanClasses(inv *inventory.Inventory, src source.Source, t string, members []string) error {
	for _, m := range members {
		inv.Detail(src, t, m)
		body := joinFiles(inv.Content(src, t, m))
		if len(body) == 0 {
			continue
		}

		for _, det := range apexDetectors {
			if !det.pattern.Match(body) {
				continue
			}
			if err := inc(inv, t, det.name); err != nil {
				return err
			}
			if err := setProperty(inv, true, t, m, det.name); err != nil {
				return err
			}
		}

		if testClassPattern.Match(body) {
			if err := inc(inv, t, "TestClasses"); err != nil {
				return err
			}
		} else if err := addChars(inv, t, body); err != nil {
			return err
		}

		if err := tallyURLs(inv, t, body); err != nil {
			return err
		}
		if err := tallyRefs(inv, t, "objects", body); err != nil {
			return err
		}
	}
	return nil
}

var triggerHeader = regexp.MustCompile(`(?is)^\s*trigger\s+(\w+)\s+on\s+(\w+)\s*\(([^)]*)\)`)

// scanTriggers reads the target object and firing events from each
// trigger's header. A trigger without a parsable header is skipped.
func scanTriggers(inv *inventory.Inventory, src source.Source, t string, members []string) error {
	for _, m := range members {
		inv.Detail(src, t, m)
		body := joinFiles(inv.Content(src, t, m))
		if len(body) == 0 {
			continue
		}

		code := stripLeadingComments(body)
		header := triggerHeader.FindSubmatch(code)
		if header == nil {
			inv.Diagnose(inventory.ParseError, t, m, &StructuralParseError{Type: t, Member: m, Reason: "no trigger header"})
			continue
		}
		// The header is anchored at the start of code.
		rest := code[len(header[0]):]

		obj := string(header[2])
		ref := classify.Classify(obj)
		if err := inc(inv, t, "objects", obj, "count"); err != nil {
			return err
		}
		if err := inv.Types.Set(pathstore.Join(t, "objects", obj, "objectType"), ref.Type); err != nil {
			return err
		}
		if ref.Namespaced() {
			inv.Dependencies.AddComponent(obj)
		}

		for _, ev := range strings.Split(string(header[3]), ",") {
			ev = strings.ToLower(strings.Join(strings.Fields(ev), " "))
			if ev == "" {
				continue
			}
			if err := inc(inv, t, "events", ev); err != nil {
				return err
			}
		}

		if ref.Type == classify.TypeChangeDataCapture || (!ref.Custom() && strings.HasSuffix(obj, "ChangeEvent")) {
			if err := inc(inv, t, "AsyncTrigger"); err != nil {
				return err
			}
			if err := setProperty(inv, true, t, m, "async"); err != nil {
				return err
			}
		}

		if err := addChars(inv, t, body); err != nil {
			return err
		}
		if err := tallyURLs(inv, t, body); err != nil {
			return err
		}
		// objects.<Obj> holds trigger targets only.
		if err := tallyRefs(inv, t, "referencedObjects", rest); err != nil {
			return err
		}
	}
	return nil
}

var leadingComments = regexp.MustCompile(`^(?:\s*(?://[^\n]*\n|/\*(?s:.*?)\*/))*`)

func stripLeadingComments(body []byte) []byte {
	return body[len(leadingComments.Find(body)):]
}
