// Package classify decomposes component names into namespace, base name and
// suffix, and maps the suffix to a semantic component type.
package classify

import "strings"

const delimiter = "__"

// Semantic component types.
const (
	TypeStandard              = "Standard"
	TypeUnknown               = "Unknown"
	TypeCustom                = "Custom"
	TypeRelationship          = "Relationship"
	TypeExternalObject        = "External Object"
	TypeBigObject             = "Big Object"
	TypePlatformEvent         = "Platform Event"
	TypeEventChannel          = "Platform Event Channel"
	TypeCustomMetadata        = "Custom Metadata Type"
	TypeChangeDataCapture     = "Change Data Capture"
	TypeKnowledgeArticle      = "Knowledge Article"
	TypeKnowledgeVersion      = "Knowledge Article Version"
	TypeKnowledgeViewStat     = "Knowledge Article View Stat"
	TypeKnowledgeVoteStat     = "Knowledge Article Vote Stat"
	TypeKnowledgeDataCategory = "Knowledge Article Data Category"
	TypePersonAccount         = "Person Account"
	TypePersonRelationship    = "Person Account Relationship"
	TypeSharing               = "Custom Object Sharing"
	TypeFeed                  = "Custom Object Feed"
	TypeHistory               = "Custom Object History"
	TypeTag                   = "Tag"
	TypeGeoLatitude           = "Geolocation Latitude"
	TypeGeoLongitude          = "Geolocation Longitude"
	TypeDataModelObject       = "Data Model Object"
	TypeDataLakeObject        = "Data Lake Object"
)

// ComponentRef is the classification of one component name. It is a value
// type; nothing mutates it after Classify returns.
type ComponentRef struct {
	FullName  string `json:"fullName"`
	Namespace string `json:"namespace,omitempty"`
	Name      string `json:"name"`
	Extension string `json:"extension,omitempty"`
	Type      string `json:"type"`
}

// Namespaced reports whether the component belongs to a managed package.
func (c ComponentRef) Namespaced() bool {
	return c.Namespace != ""
}

// Custom reports whether the name carried any suffix at all.
func (c ComponentRef) Custom() bool {
	return c.Type != TypeStandard
}

// typeSuffixes is the source of truth for suffix classification.
var typeSuffixes = map[string][]string{
	TypeCustom:                {"c"},
	TypeRelationship:          {"r"},
	TypeExternalObject:        {"x"},
	TypeBigObject:             {"b"},
	TypePlatformEvent:         {"e"},
	TypeEventChannel:          {"chn"},
	TypeCustomMetadata:        {"mdt"},
	TypeChangeDataCapture:     {"changeevent"},
	TypeKnowledgeArticle:      {"ka"},
	TypeKnowledgeVersion:      {"kav"},
	TypeKnowledgeViewStat:     {"viewstat"},
	TypeKnowledgeVoteStat:     {"votestat"},
	TypeKnowledgeDataCategory: {"datacategoryselection"},
	TypePersonAccount:         {"pc"},
	TypePersonRelationship:    {"pr"},
	TypeSharing:               {"share"},
	TypeFeed:                  {"feed"},
	TypeHistory:               {"history"},
	TypeTag:                   {"tag"},
	TypeGeoLatitude:           {"latitude__s"},
	TypeGeoLongitude:          {"longitude__s"},
	TypeDataModelObject:       {"dlm"},
	TypeDataLakeObject:        {"dll"},
}

// suffixMap is the reverse of typeSuffixes.
var suffixMap map[string]string

func init() {
	suffixMap = make(map[string]string)
	for semantic, suffixes := range typeSuffixes {
		for _, s := range suffixes {
			suffixMap[s] = semantic
		}
	}
}

// SuffixType maps a raw suffix to its semantic type, or TypeUnknown.
func SuffixType(suffix string) string {
	if t, ok := suffixMap[strings.ToLower(suffix)]; ok {
		return t
	}
	return TypeUnknown
}

// Classify decomposes fullName. A dotted name such as "Account.Region__c" is
// classified by its last segment; FullName keeps the whole input.
func Classify(fullName string) ComponentRef {
	ref := ComponentRef{FullName: fullName}

	local := fullName
	if i := strings.LastIndexByte(fullName, '.'); i >= 0 {
		local = fullName[i+1:]
	}

	parts := mergeGeolocation(strings.Split(local, delimiter))
	switch len(parts) {
	case 1:
		ref.Name = local
		ref.Type = TypeStandard
		return ref
	case 2:
		ref.Name = parts[0]
		ref.Extension = parts[1]
	default:
		ref.Namespace = parts[0]
		ref.Name = strings.Join(parts[1:len(parts)-1], delimiter)
		ref.Extension = parts[len(parts)-1]
	}
	ref.Type = SuffixType(ref.Extension)
	return ref
}

// mergeGeolocation rejoins the compound "latitude__s"/"longitude__s" suffix
// of geolocation sub-fields, which a plain split breaks in two.
func mergeGeolocation(parts []string) []string {
	n := len(parts)
	if n < 3 || !strings.EqualFold(parts[n-1], "s") {
		return parts
	}
	switch strings.ToLower(parts[n-2]) {
	case "latitude", "longitude":
		merged := append([]string(nil), parts[:n-2]...)
		return append(merged, parts[n-2]+delimiter+parts[n-1])
	}
	return parts
}
