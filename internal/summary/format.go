package summary

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/scanherald/scanherald/internal/model"
)

// noFindings is rendered when a scan or a run reported no severity counts,
// so a clean scan still shows a value instead of a blank cell.
const noFindings = "N/A"

// titleLabel renders a severity label for display ("high" -> "High").
//
// A cases.Caser carries internal state, so each call builds its own
// rather than sharing one across goroutines.
func titleLabel(label string) string {
	return cases.Title(language.English).String(label)
}

// FormatSeverityCounts renders severity counts as one display line such
// as "High: 2, Medium: 1, Low: 4". Known severities keep their fixed
// high-to-info order so lines are stable across runs; labels this version
// does not know follow alphabetically. Returns "N/A" for empty counts.
func FormatSeverityCounts(counts map[string]int) string {
	if len(counts) == 0 {
		return noFindings
	}

	parts := make([]string, 0, len(counts))
	seen := make(map[string]bool, len(counts))
	for _, level := range model.SeverityLevels {
		if n, ok := counts[string(level)]; ok {
			parts = append(parts, fmt.Sprintf("%s: %d", titleLabel(string(level)), n))
			seen[string(level)] = true
		}
	}

	extra := make([]string, 0, len(counts))
	for label := range counts {
		if !seen[label] {
			extra = append(extra, label)
		}
	}
	sort.Strings(extra)
	for _, label := range extra {
		parts = append(parts, fmt.Sprintf("%s: %d", titleLabel(label), counts[label]))
	}

	return strings.Join(parts, ", ")
}

// TotalSeverityCounts sums severity counts across all results of a run.
func TotalSeverityCounts(digest *model.RunDigest) map[string]int {
	totals := make(map[string]int)
	for _, r := range digest.Results {
		for label, n := range r.SeverityCounts {
			totals[label] += n
		}
	}
	return totals
}

// orderedLabels returns the label keys of counts in display order: the
// known severities high to info first, then unknown labels alphabetically.
func orderedLabels(counts map[string]int) []string {
	labels := make([]string, 0, len(counts))
	seen := make(map[string]bool, len(counts))
	for _, level := range model.SeverityLevels {
		if _, ok := counts[string(level)]; ok {
			labels = append(labels, string(level))
			seen[string(level)] = true
		}
	}

	extra := make([]string, 0, len(counts))
	for label := range counts {
		if !seen[label] {
			extra = append(extra, label)
		}
	}
	sort.Strings(extra)

	return append(labels, extra...)
}

// notificationStatus describes the digest's notification outcome in one
// short phrase.
func notificationStatus(digest *model.RunDigest) string {
	switch {
	case digest.Empty():
		return "nothing to send"
	case digest.Notified:
		return "sent"
	default:
		return "failed (scans will be retried next run)"
	}
}
