package model

// Severity represents a vulnerability severity label as reported by the
// scanning service.
type Severity string

// Severity constants, from most to least severe.
const (
	// SeverityHigh represents high severity findings.
	SeverityHigh Severity = "high"
	// SeverityMedium represents medium severity findings.
	SeverityMedium Severity = "medium"
	// SeverityLow represents low severity findings.
	SeverityLow Severity = "low"
	// SeverityInfo represents informational findings.
	SeverityInfo Severity = "info"
)

// SeverityLevels lists all known severity labels from most to least severe.
// Renderers iterate this slice so severity output keeps a stable order
// regardless of map iteration order.
var SeverityLevels = []Severity{SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo}

// String returns the string representation of the Severity.
func (s Severity) String() string {
	return string(s)
}

// IsValid returns true if this is a known severity label.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo:
		return true
	default:
		return false
	}
}
