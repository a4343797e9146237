package storage

import "time"

// Scan is one stored run of the scanner over a package.
type Scan struct {
	ID            int64     `json:"id"`
	Source        string    `json:"source"`
	StartedAt     time.Time `json:"startedAt"`
	RulesVersion  string    `json:"rulesVersion"`
	MinAPIVersion int64     `json:"minApiVersion"`
	Components    int64     `json:"components"`
	Findings      int       `json:"findings"`
}

// TypeCount is the member count of one metadata type in a scan.
type TypeCount struct {
	Type  string `json:"type"`
	Count int64  `json:"count"`
}

// Finding kinds stored next to recommendation kinds.
const (
	FindingEdition    = "edition"
	FindingAlert      = "alert"
	FindingDiagnostic = "diagnostic"
)

// Finding is one message produced by a scan: a recommendation, a blocked
// edition, an active alert or a diagnostic.
type Finding struct {
	ScanID  int64  `json:"scanId"`
	Kind    string `json:"kind"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
	URL     string `json:"url,omitempty"`
}

// Change captures how the count of one type moved between two scans.
type Change struct {
	Type       string `json:"type"`
	Before     int64  `json:"before"`
	After      int64  `json:"after"`
	ChangeType string `json:"changeType"` // added | updated | removed
}

// ListOptions controls selection when listing scans.
type ListOptions struct {
	Source string
	Since  time.Time
	Limit  int
}
