package rules

import "github.com/mdscan/mdscan/pkg/condition"

func threshold(n int64) *int64 {
	return &n
}

// Default returns the built-in table. Each call returns a fresh copy.
func Default() *Table {
	return &Table{
		Version:       "2026.10",
		MinAPIVersion: 45,
		Rules:         defaultRules(),
		Editions:      defaultEditions(),
		Alerts:        defaultAlerts(),
	}
}

func defaultRules() []Rule {
	return []Rule{
		{
			Name:         "flow",
			Label:        "Flows",
			MetadataType: "Flow",
			Threshold:    threshold(0),
			Negative: &Recommendation{
				Message: "No flows found. Flow is the recommended tool for declarative automation.",
				URL:     "https://help.salesforce.com/s/articleView?id=sf.flow.htm",
			},
		},
		{
			Name:         "flow-types",
			Label:        "Flow process types",
			MetadataType: "Flow.FlowTypes",
			DetailThresholds: []DetailThreshold{
				{
					SubType:   "Workflow",
					Threshold: 0,
					Positive: &Recommendation{
						Message: "The package contains {subtype} processes built with Process Builder. Migrate them to record-triggered flows.",
						URL:     "https://help.salesforce.com/s/articleView?id=sf.migrate_to_flow_tool.htm",
					},
				},
				{
					SubType:   "AutoLaunchedFlow",
					Threshold: 0,
					Positive:  &Recommendation{Message: "Autolaunched flows can be invoked from Apex and REST; document their entry points for subscribers."},
				},
			},
		},
		{
			Name:         "flow-templates",
			Label:        "Flow templates",
			MetadataType: "Flow.FlowTemplates",
			Threshold:    threshold(0),
			Positive:     &Recommendation{Message: "Flow templates let subscribers copy and customize packaged automation."},
		},
		{
			Name:         "future-calls",
			Label:        "@future methods",
			MetadataType: "ApexClass.FutureCalls",
			Threshold:    threshold(0),
			Positive: &Recommendation{
				Message: "Classes use @future methods. Queueable Apex supports job chaining and non-primitive parameters.",
				URL:     "https://developer.salesforce.com/docs/atlas.en-us.apexcode.meta/apexcode/apex_queueing_jobs.htm",
			},
		},
		{
			Name:         "batch-apex",
			Label:        "Batch Apex",
			MetadataType: "ApexClass.BatchApex",
			Threshold:    threshold(0),
			Positive:     &Recommendation{Message: "Batch jobs run in subscriber orgs against their data volumes; test them at scale."},
		},
		{
			Name:         "test-classes",
			Label:        "Apex tests",
			MetadataType: "ApexClass.TestClasses",
			Threshold:    threshold(0),
			Negative:     &Recommendation{Message: "No Apex test classes found. Managed packages need 75% code coverage to upload."},
		},
		{
			Name:         "async-triggers",
			Label:        "Change data capture triggers",
			MetadataType: "ApexTrigger.AsyncTrigger",
			Threshold:    threshold(0),
			Positive: &Recommendation{
				Message: "Asynchronous triggers on change events require Change Data Capture entitlements in the subscriber org.",
				URL:     "https://developer.salesforce.com/docs/atlas.en-us.change_data_capture.meta/change_data_capture/cdc_trigger_intro.htm",
			},
		},
		{
			Name:         "platform-events",
			Label:        "Platform events",
			MetadataType: "CustomObject.PlatformEvent",
			Threshold:    threshold(0),
			Positive:     &Recommendation{Message: "Platform event publishing counts against subscriber org allocations; monitor event usage."},
			Negative: &Recommendation{
				Message: "Consider platform events to decouple integrations from synchronous transactions.",
				URL:     "https://developer.salesforce.com/docs/atlas.en-us.platform_events.meta/platform_events/platform_events_intro.htm",
			},
		},
		{
			Name:         "big-objects",
			Label:        "Big objects",
			MetadataType: "CustomObject.BigObject",
			Threshold:    threshold(0),
			Positive:     &Recommendation{Message: "Big objects cannot be deleted from subscriber orgs once populated; plan their schema carefully."},
		},
		{
			Name:         "custom-settings",
			Label:        "Custom settings",
			MetadataType: "CustomObject.CustomSetting",
			Threshold:    threshold(0),
			Positive: &Recommendation{
				Message: "Custom metadata types are deployable and packageable with their records; prefer them over custom settings for configuration.",
				URL:     "https://help.salesforce.com/s/articleView?id=sf.custommetadatatypes_overview.htm",
			},
		},
		{
			Name:         "feature-management",
			Label:        "Feature management",
			MetadataType: "CustomObject.FeatureManagement",
			Threshold:    threshold(0),
			Negative: &Recommendation{
				Message: "Feature parameters in the Feature Management App let you toggle features per subscriber without custom objects.",
				URL:     "https://developer.salesforce.com/docs/atlas.en-us.packagingGuide.meta/packagingGuide/fma_intro.htm",
			},
		},
		{
			Name:         "field-descriptions",
			Label:        "Field descriptions",
			MetadataType: "CustomField.MissingDescription",
			Threshold:    threshold(0),
			Positive:     &Recommendation{Message: "Some custom fields have no description. Descriptions help subscriber admins understand packaged fields."},
		},
		{
			Name:         "lwc-targets",
			Label:        "Lightning web component targets",
			MetadataType: "LightningComponentBundle.targets",
			DetailThresholds: []DetailThreshold{
				{
					SubType:   "lightningCommunity__Page",
					Threshold: 0,
					Positive:  &Recommendation{Message: "Components exposed to {subtype} run for guest and external users; review their data access."},
				},
				{
					SubType:   "lightning__FlowScreen",
					Threshold: 0,
					Positive:  &Recommendation{Message: "Components exposed to {subtype} can be used in subscriber flows; keep their public properties stable."},
				},
				{
					SubType:   AnySubType,
					Threshold: 10,
					Positive:  &Recommendation{Message: "More than 10 components target {subtype}."},
				},
			},
		},
		{
			Name:  "hardcoded-urls",
			Label: "Hard-coded URLs",
			Condition: &condition.Condition{
				MetadataType: "ApexClass.hardcodedURLs.*",
				Operator:     condition.GT,
				Operand:      0,
				ShowDetails:  true,
				Or: &condition.Condition{
					MetadataType:  "ApexTrigger.hardcodedURLs.*",
					Operator:      condition.GT,
					Operand:       0,
					ProcessAlways: true,
					Or: &condition.Condition{
						MetadataType:  "LightningComponentBundle.hardcodedURLs.*",
						Operator:      condition.GT,
						Operand:       0,
						ProcessAlways: true,
					},
				},
			},
			Positive: &Recommendation{
				Message: "Hard-coded platform hosts break in subscriber orgs: {items}. Use relative URLs or named credentials.",
				URL:     "https://developer.salesforce.com/docs/atlas.en-us.apexcode.meta/apexcode/apex_classes_url.htm",
			},
		},
		{
			Name:  "old-api-versions",
			Label: "API versions",
			Condition: &condition.Condition{
				MetadataType: "apiVersions.*.*",
				Operator:     condition.Between,
				Operand:      []any{0, condition.MinAPI},
				ShowDetails:  true,
			},
			Positive: &Recommendation{Message: "Components below the minimum supported API version: {items}."},
		},
		{
			Name:  "triggered-objects-with-fields",
			Label: "Objects extended by fields and triggers",
			Condition: &condition.Condition{
				MetadataType: "CustomField.objects.*.count",
				Operator:     condition.GTE,
				Operand:      1,
				ShowDetails:  true,
				And: &condition.Condition{
					MetadataType: "ApexTrigger.objects.*.count",
					Operator:     condition.GTE,
					Operand:      1,
					PerItem:      true,
				},
			},
			Positive: &Recommendation{Message: "Objects carrying both packaged fields and triggers: {items}. Guard trigger logic against subscriber automation on the same objects."},
		},
		{
			Name:  "namespace-dependencies",
			Label: "Package dependencies",
			Condition: &condition.Condition{
				MetadataType: "dependencies.namespaces.*",
				Operator:     condition.Exists,
				ShowDetails:  true,
			},
			Positive: &Recommendation{Message: "The package references other namespaces: {items}. Declare them as package dependencies."},
		},
		{
			Name:         "consumer-secrets",
			Label:        "Packaged secrets",
			MetadataType: "ConnectedApp.WithConsumerSecret",
			Threshold:    threshold(0),
			Positive:     &Recommendation{Message: "Connected apps ship a consumer secret. Rotate it and avoid distributing secrets in package source."},
		},
	}
}

func defaultEditions() []EditionBlockingRule {
	return []EditionBlockingRule{
		{
			Name: "Essentials",
			BlockingItems: []BlockingItem{
				{MetadataType: "ApexClass", Label: "Apex classes", Threshold: 0, RequiresSecurityReview: true},
				{MetadataType: "ApexTrigger", Label: "Apex triggers", Threshold: 0, RequiresSecurityReview: true},
				{MetadataType: "CustomObject", Label: "Custom objects", Threshold: 10},
				{MetadataType: "CustomApplication", Label: "Custom apps", Threshold: 1},
				{MetadataType: "CustomTab", Label: "Custom tabs", Threshold: 10},
			},
		},
		{
			Name: "Group Edition",
			BlockingItems: []BlockingItem{
				{MetadataType: "ApexClass", Label: "Apex classes", Threshold: 0, RequiresSecurityReview: true},
				{MetadataType: "ApexTrigger", Label: "Apex triggers", Threshold: 0, RequiresSecurityReview: true},
				{MetadataType: "CustomObject", Label: "Custom objects", Threshold: 50},
				{MetadataType: "CustomField.objects.Activity.count", Label: "Custom fields on Activity", Threshold: 100},
				{MetadataType: "RecordType", Label: "Record types", Threshold: 0},
			},
		},
		{
			Name: "Professional Edition",
			BlockingItems: []BlockingItem{
				{MetadataType: "ApexClass", Label: "Apex classes", Threshold: 0, RequiresSecurityReview: true},
				{MetadataType: "ApexTrigger", Label: "Apex triggers", Threshold: 0, RequiresSecurityReview: true},
				{MetadataType: "CustomObject", Label: "Custom objects", Threshold: 50},
				{MetadataType: "CustomField.objects.Activity.count", Label: "Custom fields on Activity", Threshold: 100},
			},
		},
		{
			Name: "Enterprise Edition",
			BlockingItems: []BlockingItem{
				{MetadataType: "CustomObject", Label: "Custom objects", Threshold: 200},
				{MetadataType: "CustomField.objects.Activity.count", Label: "Custom fields on Activity", Threshold: 100},
			},
		},
	}
}

func defaultAlerts() []Alert {
	return []Alert{
		{
			MetadataType: "Flow.FlowTypes.Workflow",
			Label:        "Process Builder end of support",
			Message:      "Processes built with Process Builder no longer receive bug fixes. Migrate them to flows.",
			URL:          "https://help.salesforce.com/s/articleView?id=000389396&type=1",
			Expiration:   "2027-06-30",
		},
		{
			MetadataType: "ConnectedApp",
			Label:        "Connected app creation",
			Message:      "New connected apps are restricted in favor of external client apps. Plan the move for packaged apps.",
			URL:          "https://help.salesforce.com/s/articleView?id=xcloud.external_client_apps.htm",
			Expiration:   "2027-03-31",
		},
		{
			MetadataType: "NamedCredential.WithPassword",
			Label:        "Legacy named credentials",
			Message:      "Legacy named credentials with stored passwords are deprecated. Move to external credentials.",
			URL:          "https://help.salesforce.com/s/articleView?id=sf.nc_named_creds_and_ext_creds.htm",
			Expiration:   "2027-10-01",
		},
		{
			MetadataType: "ApexClass.ApexSoap",
			Label:        "SOAP login() retirement",
			Message:      "SOAP login() is being retired for recent API versions. Review packaged web services that rely on it.",
			URL:          "https://help.salesforce.com/s/articleView?id=005132110&type=1",
			Expiration:   "2026-06-30",
		},
	}
}
