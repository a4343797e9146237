package scanners

import (
	"reflect"
	"testing"
	"unicode/utf8"

	"github.com/mdscan/mdscan/pkg/inventory"
	"github.com/mdscan/mdscan/pkg/source"
)

func run(t *testing.T, src *source.Memory) *inventory.Inventory {
	t.Helper()
	inv, err := inventory.Run(inventory.Config{Source: src, Registry: Registry()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return inv
}

func count(inv *inventory.Inventory, path string) int64 {
	v := inv.Types.Get(path, int64(0))
	n, _ := v.(int64)
	return n
}

func TestApexClassTallies(t *testing.T) {
	const (
		futureOnly = `public class Async { @future public static void go() {} }`
		futureTest = `@isTest private class AsyncTest { @future static void later() {} }`
		plain      = `public class Plain { Integer x; }`
	)
	src := source.NewMemory()
	src.AddMember("ApexClass", "Async", "", source.File{Name: "Async.cls", Data: []byte(futureOnly)})
	src.AddMember("ApexClass", "AsyncTest", "", source.File{Name: "AsyncTest.cls", Data: []byte(futureTest)})
	src.AddMember("ApexClass", "Plain", "", source.File{Name: "Plain.cls", Data: []byte(plain)})

	inv := run(t, src)

	if got := count(inv, "ApexClass.count"); got != 3 {
		t.Fatalf("expected count 3, got %d", got)
	}
	if got := count(inv, "ApexClass.FutureCalls"); got != 2 {
		t.Fatalf("expected FutureCalls 2, got %d", got)
	}
	if got := count(inv, "ApexClass.TestClasses"); got != 1 {
		t.Fatalf("expected TestClasses 1, got %d", got)
	}
	want := int64(utf8.RuneCountInString(futureOnly) + utf8.RuneCountInString(plain))
	if got := count(inv, "ApexClass.CharacterCount"); got != want {
		t.Fatalf("expected CharacterCount %d, got %d", want, got)
	}
	if inv.Properties.Get("ApexClass.Async.FutureCalls", false) != true {
		t.Fatal("expected per-class FutureCalls flag")
	}
}

func TestApexClassSurfaceAndRefs(t *testing.T) {
	body := `@RestResource(urlMapping='/x')
global class Api implements Database.Batchable<sObject>, Schedulable {
  @AuraEnabled public static void a() {}
  @InvocableMethod public static void b() {}
  void c() {
    ns__Widget__c w = new ns__Widget__c(Total__c = 1);
    String u = 'https://acme.my.salesforce.com/services';
    String other = 'https://example.com/x';
  }
}`
	src := source.NewMemory()
	src.AddMember("ApexClass", "Api", `<ApexClass><apiVersion>57.0</apiVersion></ApexClass>`, source.File{Name: "Api.cls", Data: []byte(body)})

	inv := run(t, src)
	for _, k := range []string{"ApexRest", "BatchApex", "SchedulableApex", "AuraEnabledCalls", "InvocableCalls"} {
		if got := count(inv, "ApexClass."+k); got != 1 {
			t.Errorf("expected %s 1, got %d", k, got)
		}
	}
	if got := count(inv, "ApexClass.QueueableApex"); got != 0 {
		t.Errorf("expected QueueableApex 0, got %d", got)
	}
	if got := count(inv, `ApexClass.hardcodedURLs.acme\.my\.salesforce\.com`); got != 1 {
		t.Fatalf("expected one hard-coded URL, got %d (%v)", got, inv.Types.Get("ApexClass.hardcodedURLs", nil))
	}
	if got := inv.Types.Keys("ApexClass.hardcodedURLs"); len(got) != 1 {
		t.Fatalf("non-platform URLs must be ignored, got %v", got)
	}
	if got := count(inv, "ApexClass.objects.ns__Widget__c.count"); got != 1 {
		t.Fatalf("expected ns__Widget__c referenced once, got %d", got)
	}
	if !inv.Dependencies.Namespaces["ns"] {
		t.Fatal("expected ns in dependencies")
	}
	if inv.APIVersions.Get("ApexClass.Api", nil) != int64(57) {
		t.Fatalf("expected api version 57, got %v", inv.APIVersions.Get("ApexClass.Api", nil))
	}
}

func TestTriggers(t *testing.T) {
	src := source.NewMemory()
	src.AddMember("ApexTrigger", "AccountTrigger", "", source.File{Name: "AccountTrigger.trigger",
		Data: []byte("// header comment\ntrigger AccountTrigger on Account (before insert, after  update) {}")})
	src.AddMember("ApexTrigger", "InvoiceCDC", "", source.File{Name: "InvoiceCDC.trigger",
		Data: []byte("trigger InvoiceCDC on Invoice__ChangeEvent (after insert) {}")})
	src.AddMember("ApexTrigger", "Broken", "", source.File{Name: "Broken.trigger",
		Data: []byte("this is not a trigger")})

	inv := run(t, src)

	if got := count(inv, "ApexTrigger.count"); got != 3 {
		t.Fatalf("expected count 3, got %d", got)
	}
	if got := count(inv, "ApexTrigger.objects.Account.count"); got != 1 {
		t.Fatalf("expected one Account trigger, got %d", got)
	}
	if inv.Types.Get("ApexTrigger.objects.Account.objectType", "") != "Standard" {
		t.Fatal("expected Account classified as Standard")
	}
	if got := count(inv, "ApexTrigger.events.after update"); got != 1 {
		t.Fatalf("expected normalized event key, got %v", inv.Types.Get("ApexTrigger.events", nil))
	}
	if got := count(inv, "ApexTrigger.AsyncTrigger"); got != 1 {
		t.Fatalf("expected one async trigger, got %d", got)
	}
	if inv.Properties.Get("ApexTrigger.InvoiceCDC.async", false) != true {
		t.Fatal("expected async property")
	}
	var parseErrs []inventory.Diagnostic
	for _, d := range inv.Diagnostics {
		if d.Kind == inventory.ParseError {
			parseErrs = append(parseErrs, d)
		}
	}
	if len(parseErrs) != 1 || parseErrs[0].Member != "Broken" {
		t.Fatalf("expected a parse diagnostic for Broken, got %+v", parseErrs)
	}
}

func TestTriggerBodyReferencesKeptApart(t *testing.T) {
	src := source.NewMemory()
	src.AddMember("ApexTrigger", "InvoiceTrigger", "", source.File{Name: "InvoiceTrigger.trigger",
		Data: []byte("trigger InvoiceTrigger on Invoice__c (before insert) {\n  Invoice__c inv = Trigger.new[0];\n}")})
	src.AddMember("ApexTrigger", "AccountTrigger", "", source.File{Name: "AccountTrigger.trigger",
		Data: []byte("trigger AccountTrigger on Account (after insert) {\n  List<Order__c> o = [SELECT Id FROM Order__c];\n}")})

	inv := run(t, src)

	if got := count(inv, "ApexTrigger.objects.Invoice__c.count"); got != 1 {
		t.Fatalf("expected one trigger on Invoice__c, got %d", got)
	}
	if _, ok := inv.Types.Lookup("ApexTrigger.objects.Order__c"); ok {
		t.Fatalf("expected Order__c not to be recorded as a triggered object, got %v", inv.Types.Get("ApexTrigger.objects", nil))
	}
	if got := count(inv, "ApexTrigger.referencedObjects.Order__c.count"); got != 1 {
		t.Fatalf("expected Order__c counted as a body reference, got %d", got)
	}
	if got := count(inv, "ApexTrigger.referencedObjects.Invoice__c.count"); got != 1 {
		t.Fatalf("expected Invoice__c referenced once in its own body, got %d", got)
	}
	if _, ok := inv.Dependencies.Components["Order__c"]; !ok {
		t.Fatal("expected Order__c recorded as a dependency")
	}
}

func TestFields(t *testing.T) {
	src := source.NewMemory()
	src.AddMember("CustomField", "Account.Region__c", `<CustomField><description>Sales region</description></CustomField>`)
	src.AddMember("CustomField", "Account.Tier__c", `<CustomField><label>Tier</label></CustomField>`)
	src.AddMember("CustomField", "Invoice__c.Total__c", "")
	src.AddMember("CustomField", "acme__Order__c.acme__Code__c", "")
	src.AddMember("CustomField", "Account.Name", "")

	inv := run(t, src)

	if got := count(inv, "CustomField.objects.Account.count"); got != 3 {
		t.Fatalf("expected 3 Account fields, got %d", got)
	}
	if inv.Types.Get("CustomField.objects.Invoice__c.objectType", "") != "Custom" {
		t.Fatal("expected Invoice__c classified as Custom")
	}
	if got := count(inv, "CustomField.objectTypes.Standard"); got != 3 {
		t.Fatalf("expected 3 fields on standard objects, got %d", got)
	}
	if got := count(inv, "CustomField.MissingDescription"); got != 2 {
		t.Fatalf("expected 2 missing descriptions, got %d", got)
	}
	if inv.Properties.Get(`CustomField.Account\.Region__c.descriptionExists`, nil) != true {
		t.Fatal("expected descriptionExists on Account.Region__c")
	}
	if _, ok := inv.Dependencies.Components["acme__Order__c"]; !ok {
		t.Fatal("expected the namespaced object as a dependency")
	}
}

func TestObjects(t *testing.T) {
	src := source.NewMemory()
	src.AddMember("CustomObject", "Archive__b", `<CustomObject><description>x</description></CustomObject>`)
	src.AddMember("CustomObject", "Order_Event__e", `<CustomObject/>`)
	src.AddMember("CustomObject", "Settings__c", `<CustomObject><customSettingsType>Hierarchy</customSettingsType></CustomObject>`)
	src.AddMember("CustomObject", "Feature_Flags__c", `<CustomObject><label>F</label></CustomObject>`)

	inv := run(t, src)

	for path, want := range map[string]int64{
		"CustomObject.BigObject":          1,
		"CustomObject.PlatformEvent":      1,
		"CustomObject.CustomSetting":      1,
		"CustomObject.FeatureManagement":  1,
		"CustomObject.objectTypes.Custom": 2,
	} {
		if got := count(inv, path); got != want {
			t.Errorf("%s: expected %d, got %d", path, want, got)
		}
	}
	if inv.Properties.Get("CustomObject.Settings__c.customSetting", false) != true {
		t.Fatal("expected customSetting property")
	}
}

const flowXML = `<Flow>
  <apiVersion>58.0</apiVersion>
  <processType>AutoLaunchedFlow</processType>
  <isTemplate>true</isTemplate>
  <start><object>Invoice__c</object></start>
  <recordLookups><object>acme__Rate__mdt</object></recordLookups>
</Flow>`

func TestFlows(t *testing.T) {
	src := source.NewMemory()
	src.AddMember("Flow", "Invoice_Flow", flowXML, source.File{Name: "Invoice_Flow.flow", Data: []byte(flowXML)})
	src.AddMember("Flow", "Screen", `<Flow><processType>Flow</processType></Flow>`)

	inv := run(t, src)

	if got := count(inv, "Flow.FlowTypes.AutoLaunchedFlow.count"); got != 1 {
		t.Fatalf("expected 1 autolaunched flow, got %d", got)
	}
	if got := count(inv, "Flow.FlowTypes.AutoLaunchedFlow.templates"); got != 1 {
		t.Fatalf("expected 1 template, got %d", got)
	}
	if got := count(inv, "Flow.FlowTemplates"); got != 1 {
		t.Fatalf("expected FlowTemplates 1, got %d", got)
	}
	if got := count(inv, "Flow.objects.Invoice__c.count"); got != 1 {
		t.Fatalf("identifiers count once per flow, got %d", got)
	}
	if got := count(inv, "Flow.objects.acme__Rate__mdt.count"); got != 1 {
		t.Fatalf("expected acme__Rate__mdt reference, got %d", got)
	}
	if got := inv.Dependencies.NamespaceList(); !reflect.DeepEqual(got, []string{"acme"}) {
		t.Fatalf("expected namespaces [acme], got %v", got)
	}
}

func TestBundles(t *testing.T) {
	src := source.NewMemory()
	src.AddMember("LightningComponentBundle", "card",
		`<LightningComponentBundle><isExposed>true</isExposed><targets><target>lightning__RecordPage</target><target>lightningCommunity__Page</target></targets></LightningComponentBundle>`,
		source.File{Name: "lwc/card/card.html", Data: []byte(`<template><lightning-card><acme-badge></acme-badge><c-local></c-local></lightning-card></template>`)},
		source.File{Name: "lwc/card/card.js", Data: []byte("import { LightningElement } from 'lwc';\nimport fmt from 'vend/format';\nconst u = 'https://login.salesforce.com';")},
	)
	src.AddMember("AuraDefinitionBundle", "panel", "",
		source.File{Name: "aura/panel/panel.cmp", Data: []byte(`<aura:component implements="force:appHostable, flexipage:availableForAllPageTypes"><other:thing/></aura:component>`)},
	)
	src.AddMember("ApexPage", "Home", "", source.File{Name: "pages/Home.page", Data: []byte(`<apex:page><pkg:widget/></apex:page>`)})

	inv := run(t, src)

	if got := count(inv, "LightningComponentBundle.ExposedComponents"); got != 1 {
		t.Fatalf("expected 1 exposed component, got %d", got)
	}
	if got := count(inv, "LightningComponentBundle.targets.lightning__RecordPage"); got != 1 {
		t.Fatalf("expected record page target, got %d", got)
	}
	if got := count(inv, `LightningComponentBundle.hardcodedURLs.login\.salesforce\.com`); got != 1 {
		t.Fatalf("expected hard-coded URL in script, got %d", got)
	}
	if got := count(inv, "AuraDefinitionBundle.interfaces.force:appHostable"); got != 1 {
		t.Fatalf("expected implemented interface, got %v", inv.Types.Get("AuraDefinitionBundle", nil))
	}
	if got := inv.Dependencies.NamespaceList(); !reflect.DeepEqual(got, []string{"acme", "other", "pkg", "vend"}) {
		t.Fatalf("expected namespaces [acme other pkg vend], got %v", got)
	}
	if count(inv, "ApexPage.CharacterCount") == 0 {
		t.Fatal("expected page characters counted")
	}
}

func TestCredentials(t *testing.T) {
	src := source.NewMemory()
	src.AddMember("ConnectedApp", "Portal", `<ConnectedApp><oauthConfig><consumerKey>k</consumerKey><consumerSecret>s3cr3t</consumerSecret></oauthConfig><canvasConfig><canvasUrl>x</canvasUrl></canvasConfig></ConnectedApp>`)
	src.AddMember("AuthProvider", "Google", `<AuthProvider><providerType>Google</providerType></AuthProvider>`)
	src.AddMember("NamedCredential", "GoogleApi", `<NamedCredential><protocol>Oauth</protocol><authProvider>Google</authProvider></NamedCredential>`)
	src.AddMember("ExternalCredential", "Ext", `<ExternalCredential><authenticationProtocol>Custom</authenticationProtocol></ExternalCredential>`)

	inv := run(t, src)

	if got := count(inv, "ConnectedApp.WithConsumerSecret"); got != 1 {
		t.Fatalf("expected 1 app with secret, got %d", got)
	}
	if got := count(inv, "ConnectedApp.CanvasApp"); got != 1 {
		t.Fatalf("expected 1 canvas app, got %d", got)
	}
	if inv.Properties.Get("ConnectedApp.Portal.hasConsumerSecret", false) != true {
		t.Fatal("expected secret flag")
	}
	if got := count(inv, "AuthProvider.providerTypes.Google"); got != 1 {
		t.Fatalf("expected Google provider type, got %d", got)
	}
	if inv.Properties.Get("NamedCredential.GoogleApi.authProvider.Google", false) != true {
		t.Fatal("expected credential to provider link")
	}
	if n, _ := inv.Properties.Get("AuthProvider.Google.namedCredentials", int64(0)).(int64); n != 1 {
		t.Fatalf("expected provider back-link counter 1, got %d", n)
	}
	if got := count(inv, "ExternalCredential.protocols.Custom"); got != 1 {
		t.Fatalf("expected Custom protocol, got %d", got)
	}
}

func TestObjectRefs(t *testing.T) {
	got := objectRefs([]byte("Account a; a.Region__r.Name__c; ns__Thing__c x; Region__r; String__value"))
	want := []string{"Region__r", "Name__c", "ns__Thing__c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestPlatformHost(t *testing.T) {
	tests := map[string]bool{
		"https://na1.salesforce.com":          true,
		"http://acme.lightning.force.com:443": true,
		"https://c.visualforce.com":           true,
		"https://salesforce.com.evil.io":      false,
		"https://example.com":                 false,
	}
	for in, want := range tests {
		if _, got := platformHost(in); got != want {
			t.Errorf("platformHost(%q) = %v, want %v", in, got, want)
		}
	}
}
