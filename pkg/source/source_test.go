package source

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

const packageXML = `<?xml version="1.0" encoding="UTF-8"?>
<Package xmlns="http://soap.sforce.com/2006/04/metadata">
    <types>
        <members>*</members>
        <name>ApexClass</name>
    </types>
    <types>
        <members>Account.Region__c</members>
        <members>Invoice__c.Total__c</members>
        <name>CustomField</name>
    </types>
    <types>
        <members>Invoice__c</members>
        <name>CustomObject</name>
    </types>
    <types>
        <members>Missing_Flow</members>
        <name>Flow</name>
    </types>
    <version>58.0</version>
</Package>`

func TestParsePackageXML(t *testing.T) {
	man, err := ParsePackageXML([]byte(packageXML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if man.Version != "58.0" {
		t.Fatalf("expected version 58.0, got %q", man.Version)
	}
	wantOrder := []string{"ApexClass", "CustomField", "CustomObject", "Flow"}
	if !reflect.DeepEqual(man.Order, wantOrder) {
		t.Fatalf("expected order %v, got %v", wantOrder, man.Order)
	}
	if got := man.Members("CustomField"); len(got) != 2 || got[0] != "Account.Region__c" {
		t.Fatalf("unexpected CustomField members %v", got)
	}
	if !man.HasWildcard("ApexClass") || man.HasWildcard("Flow") {
		t.Fatal("wildcard detection is wrong")
	}
}

func TestParsePackageXMLRejectsGarbage(t *testing.T) {
	if _, err := ParsePackageXML([]byte("<Other><x>1</x></Other>")); err == nil {
		t.Fatal("expected an error for a document without a Package root")
	}
}

func TestDirMetadataLayout(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"package.xml":                 packageXML,
		"classes/Alpha.cls":           "public class Alpha {}",
		"classes/Alpha.cls-meta.xml":  `<ApexClass><apiVersion>58.0</apiVersion><status>Active</status></ApexClass>`,
		"classes/Beta.cls":            "public class Beta {}",
		"classes/Beta.cls-meta.xml":   `<ApexClass><apiVersion>45.0</apiVersion></ApexClass>`,
		"objects/Invoice__c.object": `<CustomObject>
  <description>Invoices</description>
  <fields><fullName>Total__c</fullName><type>Currency</type></fields>
  <fields><fullName>Due__c</fullName><type>Date</type></fields>
</CustomObject>`,
	})

	d, err := Open(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	man, err := d.Manifest()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := man.Members("ApexClass"); !reflect.DeepEqual(got, []string{"Alpha", "Beta"}) {
		t.Fatalf("expected expanded classes [Alpha Beta], got %v", got)
	}

	det, err := d.Detail("ApexClass", "Beta")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if det.String("apiVersion") != "45.0" {
		t.Fatalf("expected apiVersion 45.0, got %q", det.String("apiVersion"))
	}

	files, err := d.Content("ApexClass", "Alpha")
	if err != nil || len(files) != 1 || string(files[0].Data) != "public class Alpha {}" {
		t.Fatalf("unexpected content %v, %v", files, err)
	}

	field, err := d.Detail("CustomField", "Invoice__c.Total__c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if field.String("type") != "Currency" || field.Root() != "CustomField" {
		t.Fatalf("unexpected field detail %q/%q", field.Root(), field.String("type"))
	}

	if _, err := d.Detail("Flow", "Missing_Flow"); !errors.Is(err, ErrDetailNotFound) {
		t.Fatalf("expected ErrDetailNotFound, got %v", err)
	}
	if _, err := d.Detail("CustomField", "Account.Region__c"); !errors.Is(err, ErrDetailNotFound) {
		t.Fatalf("expected ErrDetailNotFound for a field of an absent object, got %v", err)
	}

	if got := d.Enumerate("CustomField"); !reflect.DeepEqual(got, []string{"Invoice__c.Due__c", "Invoice__c.Total__c"}) {
		t.Fatalf("unexpected enumerated fields %v", got)
	}
}

func TestKnownTypes(t *testing.T) {
	types := KnownTypes()
	if len(types) == 0 {
		t.Fatal("expected a non-empty type table")
	}
	for _, ti := range types {
		if _, ok := LookupType(ti.Name); !ok {
			t.Fatalf("expected %s to be found by LookupType", ti.Name)
		}
	}
	first := types[0].Name
	types[0].Name = "Changed"
	if KnownTypes()[0].Name != first {
		t.Fatal("expected KnownTypes to return a copy of the table")
	}
}

func TestDirSourceLayout(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"sfdx-project.json": `{"packageDirectories":[{"path":"force-app","default":true}],"sourceApiVersion":"59.0"}`,
		"force-app/main/default/objects/Invoice__c/Invoice__c.object-meta.xml":         `<CustomObject><label>Invoice</label></CustomObject>`,
		"force-app/main/default/objects/Invoice__c/fields/Total__c.field-meta.xml":     `<CustomField><fullName>Total__c</fullName><description>Sum</description></CustomField>`,
		"force-app/main/default/lwc/invoiceCard/invoiceCard.js":                        "export default class InvoiceCard {}",
		"force-app/main/default/lwc/invoiceCard/invoiceCard.html":                      "<template></template>",
		"force-app/main/default/lwc/invoiceCard/invoiceCard.js-meta.xml":               `<LightningComponentBundle><apiVersion>59.0</apiVersion><isExposed>true</isExposed><targets><target>lightning__RecordPage</target><target>lightning__AppPage</target></targets></LightningComponentBundle>`,
		"unrelated/classes/Ignored.cls-meta.xml":                                       `<ApexClass/>`,
	})

	d, err := Open(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.HasManifest() {
		t.Fatal("expected no package.xml")
	}
	if d.SourceAPIVersion != "59.0" || !reflect.DeepEqual(d.PackageDirs, []string{"force-app"}) {
		t.Fatalf("unexpected project info %q %v", d.SourceAPIVersion, d.PackageDirs)
	}

	man, err := d.Manifest()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string][]string{
		"CustomField":              {"Invoice__c.Total__c"},
		"CustomObject":             {"Invoice__c"},
		"LightningComponentBundle": {"invoiceCard"},
	}
	if !reflect.DeepEqual(man.Types, want) {
		t.Fatalf("expected %v, got %v", want, man.Types)
	}

	bundle, err := d.Detail("LightningComponentBundle", "invoiceCard")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bundle.Bool("isExposed") {
		t.Fatal("expected exposed bundle")
	}
	if got := bundle.Strings("targets.target"); len(got) != 2 {
		t.Fatalf("expected two targets, got %v", got)
	}

	files, err := d.Content("LightningComponentBundle", "invoiceCard")
	if err != nil || len(files) != 2 {
		t.Fatalf("expected two bundle files, got %d (%v)", len(files), err)
	}

	field, err := d.Detail("CustomField", "Invoice__c.Total__c")
	if err != nil || !field.Has("description") {
		t.Fatalf("expected field description, got %v", err)
	}
}

func TestDetailZeroValue(t *testing.T) {
	var d Detail
	if d.String("x") != "" || d.Has("x") || d.Bool("x") || d.Strings("x") != nil {
		t.Fatal("zero Detail must answer nothing")
	}
}
