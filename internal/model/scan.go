package model

// unknownTargetStr is the display name for scans with no usable target metadata.
const unknownTargetStr = "Unknown Target"

// ScanStatus represents the lifecycle state of a scan session as reported
// by the scanning service.
type ScanStatus string

// Scan status constants.
const (
	// ScanStatusScheduled means the scan has not started yet.
	ScanStatusScheduled ScanStatus = "scheduled"
	// ScanStatusRunning means the scan is currently executing.
	ScanStatusRunning ScanStatus = "running"
	// ScanStatusCompleted means the scan finished and results are final.
	ScanStatusCompleted ScanStatus = "completed"
	// ScanStatusFailed means the scan ended with an error.
	ScanStatusFailed ScanStatus = "failed"
	// ScanStatusStopped means the scan was stopped before completion.
	ScanStatusStopped ScanStatus = "stopped"
)

// String returns the string representation of the ScanStatus.
func (s ScanStatus) String() string {
	return string(s)
}

// IsCompleted returns true if the scan finished successfully and its
// results are final.
func (s ScanStatus) IsCompleted() bool {
	return s == ScanStatusCompleted
}

// IsTerminal returns true when the scan can make no further progress,
// successfully or not.
func (s ScanStatus) IsTerminal() bool {
	switch s {
	case ScanStatusCompleted, ScanStatusFailed, ScanStatusStopped:
		return true
	default:
		return false
	}
}

// Scan is one scan entry as returned by the scanning service.
//
// Only the fields the reconciliation flow reads are decoded; the service
// returns many more.
type Scan struct {
	// ScanID uniquely identifies the scan.
	ScanID string `json:"scan_id"`

	// TargetID identifies the scanned target. Report generation is keyed
	// by target, not by scan.
	TargetID string `json:"target_id"`

	// ProfileID identifies the scan profile used, when reported.
	ProfileID string `json:"profile_id,omitempty"`

	// Target describes the scanned asset.
	Target Target `json:"target"`

	// CurrentSession is the most recent session of this scan. Status and
	// severity counts live here.
	CurrentSession Session `json:"current_session"`
}

// DisplayName returns the target description, falling back to the target
// address and then a fixed placeholder when the service reported neither.
func (s *Scan) DisplayName() string {
	if s.Target.Description != "" {
		return s.Target.Description
	}
	if s.Target.Address != "" {
		return s.Target.Address
	}
	return unknownTargetStr
}

// Target identifies the asset a scan ran against.
type Target struct {
	// Address is the scanned address or URL.
	Address string `json:"address"`

	// Description is the operator-assigned target name. It seeds the
	// downloaded report filename, so it may contain arbitrary characters.
	Description string `json:"description"`

	// Criticality is the operator-assigned business criticality, when set.
	Criticality int `json:"criticality,omitempty"`
}

// Session holds the state of a single scan session.
type Session struct {
	// Status is the session lifecycle state.
	Status ScanStatus `json:"status"`

	// StartDate is the session start time exactly as the service reported
	// it. It is kept verbatim because it is only ever displayed, never
	// computed with.
	StartDate string `json:"start_date"`

	// SeverityCounts maps severity labels ("high", "medium", ...) to
	// finding counts.
	SeverityCounts map[string]int `json:"severity_counts"`

	// Progress is the completion percentage for in-flight sessions.
	Progress int `json:"progress,omitempty"`

	// EventLevel is the service's own severity rollup for the session.
	EventLevel int `json:"event_level,omitempty"`
}
