package summary

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/scanherald/scanherald/internal/model"
)

// TextWriter outputs a human-readable run digest.
// This format is designed for terminal display and for the mail body a
// cron daemon sends when the tool writes to stdout.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors because:
// 1. It works in all terminals without compatibility issues
// 2. Cron captures stdout verbatim, and escape codes make mailed output unreadable
// 3. It's easier to pipe to files or other tools
type TextWriter struct {
	baseWriter

	// showEmpty controls whether the processed-scans section is shown
	// for runs that produced nothing.
	showEmpty bool

	// verbose adds per-result identifiers useful when cross-checking
	// against the service.
	verbose bool
}

// TextWriterOption configures a TextWriter.
type TextWriterOption func(*TextWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) TextWriterOption {
	return func(w *TextWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with scan, target, and report IDs.
func WithVerbose(verbose bool) TextWriterOption {
	return func(w *TextWriter) {
		w.verbose = verbose
	}
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer, opts ...TextWriterOption) *TextWriter {
	w := &TextWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the digest in human-readable format.
func (w *TextWriter) Write(digest *model.RunDigest) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, digest)
	w.writeCounters(&sb, digest)
	w.writeResults(&sb, digest)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the run identification block.
func (w *TextWriter) writeHeader(sb *strings.Builder, digest *model.RunDigest) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                       SCANHERALD RUN SUMMARY\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Run ID:    %s\n", digest.RunID))
	sb.WriteString(fmt.Sprintf("Started:   %s\n", digest.StartedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Finished:  %s\n", digest.FinishedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Duration:  %s\n", digest.Duration().Round(time.Second)))
	sb.WriteString("\n")
}

// writeCounters writes the run outcome counters.
func (w *TextWriter) writeCounters(sb *strings.Builder, digest *model.RunDigest) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("RUN COUNTERS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  Scans discovered:   %d\n", digest.Discovered))
	sb.WriteString(fmt.Sprintf("  Already processed:  %d\n", digest.SkippedProcessed))
	sb.WriteString(fmt.Sprintf("  Not yet completed:  %d\n", digest.SkippedIncomplete))
	sb.WriteString(fmt.Sprintf("  Failed this run:    %d\n", digest.Failed))
	sb.WriteString(fmt.Sprintf("  Reports delivered:  %d\n", len(digest.Results)))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  Notification:       %s\n", notificationStatus(digest)))
	sb.WriteString("\n")
}

// writeResults writes one block per processed scan.
func (w *TextWriter) writeResults(sb *strings.Builder, digest *model.RunDigest) {
	if digest.Empty() && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("PROCESSED SCANS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if digest.Empty() {
		sb.WriteString("  No scans processed this run\n\n")
		return
	}

	for i, result := range digest.Results {
		sb.WriteString(fmt.Sprintf("  [%d] %s\n", i+1, result.Description))
		if result.StartDate != "" {
			sb.WriteString(fmt.Sprintf("      Started:   %s\n", result.StartDate))
		}
		sb.WriteString(fmt.Sprintf("      Findings:  %s\n", FormatSeverityCounts(result.SeverityCounts)))
		if result.ReportPath != "" {
			sb.WriteString(fmt.Sprintf("      Report:    %s\n", result.ReportPath))
		}
		if w.verbose {
			sb.WriteString(fmt.Sprintf("      Scan ID:   %s\n", result.ScanID))
			sb.WriteString(fmt.Sprintf("      Target ID: %s\n", result.TargetID))
			if result.ReportID != "" {
				sb.WriteString(fmt.Sprintf("      Report ID: %s\n", result.ReportID))
			}
		}
		sb.WriteString("\n")
	}
}

// writeFooter writes the digest footer.
func (w *TextWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Generated by scanherald\n")
	sb.WriteString("https://github.com/scanherald/scanherald\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
