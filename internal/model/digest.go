package model

import (
	"fmt"
	"time"
)

// RunDigest summarizes one reconciliation run: which scans were processed,
// which were skipped and why, and whether the notification went out.
//
// The digest is the single value handed to the notification and summary
// layers, so everything they render must be captured here.
type RunDigest struct {
	// RunID uniquely identifies the run.
	RunID string `json:"run_id"`

	// StartedAt and FinishedAt bound the run in wall-clock time.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Discovered is how many scans the service listed this run.
	Discovered int `json:"discovered"`

	// SkippedProcessed counts scans skipped because an earlier run already
	// delivered them.
	SkippedProcessed int `json:"skipped_processed"`

	// SkippedIncomplete counts scans skipped because their results are not
	// final yet (scheduled or still running).
	SkippedIncomplete int `json:"skipped_incomplete"`

	// Failed counts scans whose report could not be produced this run.
	// They stay uncommitted and are retried on the next run.
	Failed int `json:"failed"`

	// Results holds the successfully processed scans in service order.
	Results []ScanResult `json:"results"`

	// Notified records whether the notification for Results was delivered.
	Notified bool `json:"notified"`
}

// Subject returns the notification subject line for this digest.
func (d *RunDigest) Subject() string {
	return fmt.Sprintf("Acunetix Scan Report - %d scans processed", len(d.Results))
}

// Empty returns true when the run produced no new results.
func (d *RunDigest) Empty() bool {
	return len(d.Results) == 0
}

// Duration returns the wall-clock duration of the run.
func (d *RunDigest) Duration() time.Duration {
	return d.FinishedAt.Sub(d.StartedAt)
}

// ScanIDs returns the scan ids of all results in order.
func (d *RunDigest) ScanIDs() []string {
	ids := make([]string, 0, len(d.Results))
	for _, r := range d.Results {
		ids = append(ids, r.ScanID)
	}
	return ids
}

// ReportIDs returns the report ids of all results in order, skipping
// results without one.
func (d *RunDigest) ReportIDs() []string {
	ids := make([]string, 0, len(d.Results))
	for _, r := range d.Results {
		if r.ReportID != "" {
			ids = append(ids, r.ReportID)
		}
	}
	return ids
}

// ReportPaths returns the downloaded artifact paths of all results in
// order. Paths are not checked for existence; callers that attach files
// decide how to treat missing ones.
func (d *RunDigest) ReportPaths() []string {
	paths := make([]string, 0, len(d.Results))
	for _, r := range d.Results {
		if r.ReportPath != "" {
			paths = append(paths, r.ReportPath)
		}
	}
	return paths
}
