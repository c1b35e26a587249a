package model

import "encoding/json"

// ReportStatus represents the lifecycle state of a report generation job.
type ReportStatus string

// Report status constants.
const (
	// ReportStatusQueued means generation has not started yet.
	ReportStatusQueued ReportStatus = "queued"
	// ReportStatusProcessing means generation is in progress.
	ReportStatusProcessing ReportStatus = "processing"
	// ReportStatusCompleted means the report is ready for download.
	ReportStatusCompleted ReportStatus = "completed"
	// ReportStatusFailed means generation ended with an error.
	ReportStatusFailed ReportStatus = "failed"
	// ReportStatusCancelled means generation was cancelled server-side.
	ReportStatusCancelled ReportStatus = "cancelled"
)

// String returns the string representation of the ReportStatus.
func (s ReportStatus) String() string {
	return string(s)
}

// IsTerminalFailure returns true when generation stopped and no download
// will ever become available, so further polling is pointless.
func (s ReportStatus) IsTerminalFailure() bool {
	return s == ReportStatusFailed || s == ReportStatusCancelled
}

// Report is the state of one report generation job as returned by the
// scanning service.
type Report struct {
	// ReportID uniquely identifies the report job.
	ReportID string `json:"report_id"`

	// Status is the generation state.
	Status ReportStatus `json:"status"`

	// TemplateName names the template the report was generated from.
	TemplateName string `json:"template_name,omitempty"`

	// GenerationDate is the completion time as reported by the service.
	GenerationDate string `json:"generation_date,omitempty"`

	// Download carries the download locator. Service versions disagree on
	// its shape, so decoding is tolerant; read it via DownloadLocator.
	Download DownloadField `json:"download,omitempty"`

	// DownloadURL is an alternative locator field some service versions
	// populate instead of Download.
	DownloadURL string `json:"download_url,omitempty"`
}

// DownloadLocator resolves the usable download locator for this report.
// It checks, in order: the download field (first entry wins), the
// download_url field, and finally the report id itself, which the service
// accepts as a download path. The boolean reports whether any locator
// was found.
func (r *Report) DownloadLocator() (string, bool) {
	if loc, ok := r.Download.First(); ok {
		return loc, true
	}
	if r.DownloadURL != "" {
		return r.DownloadURL, true
	}
	if r.ReportID != "" {
		return r.ReportID, true
	}
	return "", false
}

// DownloadField decodes the download field of a report. The service emits
// it in one of three shapes: a bare string, a list of strings, or a list
// of objects carrying a "url" key.
//
// Design decision: rather than scattering shape checks through callers, all
// tolerance lives in UnmarshalJSON and callers see a flat list of locator
// strings. Unknown shapes decode to an empty field instead of failing the
// whole report, because a missing locator still has fallbacks in
// Report.DownloadLocator.
type DownloadField struct {
	locators []string
}

// NewDownloadField builds a field from explicit locators. It exists so
// fixtures and fakes can fill the field without going through JSON.
func NewDownloadField(locators ...string) DownloadField {
	clean := make([]string, 0, len(locators))
	for _, loc := range locators {
		if loc != "" {
			clean = append(clean, loc)
		}
	}
	return DownloadField{locators: clean}
}

// First returns the first locator and true if one is present.
func (d DownloadField) First() (string, bool) {
	if len(d.locators) == 0 {
		return "", false
	}
	return d.locators[0], true
}

// Locators returns a copy of all decoded locators in wire order.
func (d DownloadField) Locators() []string {
	out := make([]string, len(d.locators))
	copy(out, d.locators)
	return out
}

// UnmarshalJSON accepts every locator shape the service is known to emit.
func (d *DownloadField) UnmarshalJSON(data []byte) error {
	d.locators = nil

	// Bare string. JSON null also lands here as a no-op decode.
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single != "" {
			d.locators = []string{single}
		}
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		// Some other shape entirely (object, number, bool): treat as absent.
		return nil
	}
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			if s != "" {
				d.locators = append(d.locators, s)
			}
			continue
		}
		var obj struct {
			URL string `json:"url"`
		}
		if err := json.Unmarshal(item, &obj); err == nil && obj.URL != "" {
			d.locators = append(d.locators, obj.URL)
		}
	}
	return nil
}

// MarshalJSON renders the field as a list of locator strings, the most
// common wire shape, or null when empty.
func (d DownloadField) MarshalJSON() ([]byte, error) {
	if len(d.locators) == 0 {
		return []byte("null"), nil
	}
	return json.Marshal(d.locators)
}
