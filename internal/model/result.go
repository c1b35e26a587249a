package model

import (
	"fmt"
	"sort"
	"strings"
)

// noFindingsStr is rendered in place of severity counts when a scan
// reported none.
const noFindingsStr = "N/A"

// ScanResult captures everything downstream consumers need to know about
// one successfully processed scan: identifiers, display metadata, and the
// path of the downloaded report artifact.
//
// Values are snapshots taken at processing time; nothing here points back
// at live service state.
type ScanResult struct {
	// ScanID is the processed scan.
	ScanID string `json:"scan_id"`

	// TargetID is the scanned target.
	TargetID string `json:"target_id"`

	// Description is the human-readable target name.
	Description string `json:"description"`

	// StartDate is the scan start time verbatim from the service.
	StartDate string `json:"start_date"`

	// ReportID is the report generation job that produced the artifact.
	ReportID string `json:"report_id"`

	// ReportPath is where the downloaded report artifact was written.
	ReportPath string `json:"report_path"`

	// SeverityCounts maps severity labels to finding counts at scan end.
	SeverityCounts map[string]int `json:"severity_counts"`

	// Session is the raw session snapshot the result was built from.
	Session Session `json:"session"`
}

// TotalFindings returns the sum of all severity counts.
func (r *ScanResult) TotalFindings() int {
	total := 0
	for _, n := range r.SeverityCounts {
		total += n
	}
	return total
}

// SeverityLine renders the severity counts as a single display line such
// as "high: 2, medium: 1". Known severities come first in fixed order so
// the line is stable across runs; unknown labels follow alphabetically.
// Returns "N/A" when the scan reported no counts at all.
func (r *ScanResult) SeverityLine() string {
	if len(r.SeverityCounts) == 0 {
		return noFindingsStr
	}

	parts := make([]string, 0, len(r.SeverityCounts))
	seen := make(map[string]bool, len(r.SeverityCounts))
	for _, level := range SeverityLevels {
		if n, ok := r.SeverityCounts[string(level)]; ok {
			parts = append(parts, fmt.Sprintf("%s: %d", level, n))
			seen[string(level)] = true
		}
	}

	extra := make([]string, 0, len(r.SeverityCounts))
	for label := range r.SeverityCounts {
		if !seen[label] {
			extra = append(extra, label)
		}
	}
	sort.Strings(extra)
	for _, label := range extra {
		parts = append(parts, fmt.Sprintf("%s: %d", label, r.SeverityCounts[label]))
	}

	return strings.Join(parts, ", ")
}
