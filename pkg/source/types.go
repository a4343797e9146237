package source

// TypeInfo describes where a metadata type keeps its files.
type TypeInfo struct {
	Name   string
	Folder string
	// Suffix is the file extension of the member, without the dot.
	Suffix string
	// Content types keep their body in Folder/<member>.<Suffix> and the XML
	// detail in the -meta.xml companion.
	Content bool
	// Bundle types keep each member in its own folder.
	Bundle bool
	// Parent is set for types stored inside their parent's file (metadata
	// API layout) or under the parent's folder (source layout). Members are
	// named "<Parent member>.<name>".
	Parent string
	// ParentTag is the element holding the children in the parent file.
	ParentTag string
}

// Child reports whether members live under a parent component.
func (ti TypeInfo) Child() bool {
	return ti.Parent != ""
}

var typeTable = []TypeInfo{
	{Name: "ApexClass", Folder: "classes", Suffix: "cls", Content: true},
	{Name: "ApexComponent", Folder: "components", Suffix: "component", Content: true},
	{Name: "ApexPage", Folder: "pages", Suffix: "page", Content: true},
	{Name: "ApexTrigger", Folder: "triggers", Suffix: "trigger", Content: true},
	{Name: "AuraDefinitionBundle", Folder: "aura", Bundle: true},
	{Name: "AuthProvider", Folder: "authproviders", Suffix: "authprovider"},
	{Name: "BusinessProcess", Folder: "businessProcesses", Suffix: "businessProcess", Parent: "CustomObject", ParentTag: "businessProcesses"},
	{Name: "CompactLayout", Folder: "compactLayouts", Suffix: "compactLayout", Parent: "CustomObject", ParentTag: "compactLayouts"},
	{Name: "ConnectedApp", Folder: "connectedApps", Suffix: "connectedApp"},
	{Name: "CustomApplication", Folder: "applications", Suffix: "app"},
	{Name: "CustomField", Folder: "fields", Suffix: "field", Parent: "CustomObject", ParentTag: "fields"},
	{Name: "CustomLabels", Folder: "labels", Suffix: "labels"},
	{Name: "CustomMetadata", Folder: "customMetadata", Suffix: "md"},
	{Name: "CustomObject", Folder: "objects", Suffix: "object"},
	{Name: "CustomPermission", Folder: "customPermissions", Suffix: "customPermission"},
	{Name: "CustomTab", Folder: "tabs", Suffix: "tab"},
	{Name: "Dashboard", Folder: "dashboards", Suffix: "dashboard"},
	{Name: "ExternalCredential", Folder: "externalCredentials", Suffix: "externalCredential"},
	{Name: "FieldSet", Folder: "fieldSets", Suffix: "fieldSet", Parent: "CustomObject", ParentTag: "fieldSets"},
	{Name: "FlexiPage", Folder: "flexipages", Suffix: "flexipage"},
	{Name: "Flow", Folder: "flows", Suffix: "flow"},
	{Name: "FlowDefinition", Folder: "flowDefinitions", Suffix: "flowDefinition"},
	{Name: "Layout", Folder: "layouts", Suffix: "layout"},
	{Name: "LightningComponentBundle", Folder: "lwc", Bundle: true},
	{Name: "LightningMessageChannel", Folder: "messageChannels", Suffix: "messageChannel"},
	{Name: "ListView", Folder: "listViews", Suffix: "listView", Parent: "CustomObject", ParentTag: "listViews"},
	{Name: "NamedCredential", Folder: "namedCredentials", Suffix: "namedCredential"},
	{Name: "PermissionSet", Folder: "permissionsets", Suffix: "permissionset"},
	{Name: "PlatformEventChannel", Folder: "platformEventChannels", Suffix: "platformEventChannel"},
	{Name: "Profile", Folder: "profiles", Suffix: "profile"},
	{Name: "QuickAction", Folder: "quickActions", Suffix: "quickAction"},
	{Name: "RecordType", Folder: "recordTypes", Suffix: "recordType", Parent: "CustomObject", ParentTag: "recordTypes"},
	{Name: "RemoteSiteSetting", Folder: "remoteSiteSettings", Suffix: "remoteSite"},
	{Name: "StaticResource", Folder: "staticresources", Suffix: "resource", Content: true},
	{Name: "ValidationRule", Folder: "validationRules", Suffix: "validationRule", Parent: "CustomObject", ParentTag: "validationRules"},
	{Name: "WebLink", Folder: "webLinks", Suffix: "webLink", Parent: "CustomObject", ParentTag: "webLinks"},
	{Name: "Workflow", Folder: "workflows", Suffix: "workflow"},
}

var typeIndex map[string]TypeInfo

func init() {
	typeIndex = make(map[string]TypeInfo, len(typeTable))
	for _, ti := range typeTable {
		typeIndex[ti.Name] = ti
	}
}

// LookupType returns the folder conventions of a metadata type.
func LookupType(name string) (TypeInfo, bool) {
	ti, ok := typeIndex[name]
	return ti, ok
}

// KnownTypes returns every type in the table, in table order.
func KnownTypes() []TypeInfo {
	return append([]TypeInfo(nil), typeTable...)
}
