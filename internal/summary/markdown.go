package summary

import (
	"io"
	"path/filepath"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/scanherald/scanherald/internal/model"
)

// MarkdownWriter outputs a run digest in Markdown format.
// This format is designed for the history directory and for mail readers
// that fall back to the plain-text alternative.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, alerts, and mermaid charts
// 3. GitHub-flavored output that renders well in repo viewers
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the digest in Markdown format.
func (w *MarkdownWriter) Write(digest *model.RunDigest) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, digest)
	w.writeCounters(md, digest)
	w.writeResults(md, digest)
	w.writeSeverityTotals(md, digest)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the run identification table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, digest *model.RunDigest) {
	md.H1("Scan Processing Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run ID", "`" + digest.RunID + "`"},
			{"Started", digest.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", digest.Duration().Round(time.Second).String()},
			{"Notification", notificationStatus(digest)},
		},
	})
	md.PlainText("")
}

// writeCounters writes the run outcome counters.
func (w *MarkdownWriter) writeCounters(md *markdown.Markdown, digest *model.RunDigest) {
	md.H2("Run Counters")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Counter", "Count"},
		Rows: [][]string{
			{"Scans discovered", strconv.Itoa(digest.Discovered)},
			{"Already processed", strconv.Itoa(digest.SkippedProcessed)},
			{"Not yet completed", strconv.Itoa(digest.SkippedIncomplete)},
			{"Failed this run", strconv.Itoa(digest.Failed)},
			{"Reports delivered", strconv.Itoa(len(digest.Results))},
		},
	})
	md.PlainText("")
}

// writeResults writes the processed-scans table.
func (w *MarkdownWriter) writeResults(md *markdown.Markdown, digest *model.RunDigest) {
	md.H2("Processed Scans")
	md.PlainText("")

	if digest.Empty() {
		md.PlainText("No scans were processed this run.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(digest.Results))
	for i, result := range digest.Results {
		startDate := result.StartDate
		if startDate == "" {
			startDate = "-"
		}
		report := "-"
		if result.ReportPath != "" {
			report = "`" + filepath.Base(result.ReportPath) + "`"
		}

		rows[i] = []string{
			result.Description,
			FormatSeverityCounts(result.SeverityCounts),
			startDate,
			report,
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Target", "Vulnerabilities", "Scan Date", "Report"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeSeverityTotals writes the aggregated severity section with a
// distribution chart and an alert matching the worst finding level.
func (w *MarkdownWriter) writeSeverityTotals(md *markdown.Markdown, digest *model.RunDigest) {
	if digest.Empty() {
		return
	}

	md.H2("Severity Totals")
	md.PlainText("")

	totals := TotalSeverityCounts(digest)
	total := 0
	for _, n := range totals {
		total += n
	}

	if total == 0 {
		md.Tip("All processed scans came back without findings.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(totals)+1)
	for _, label := range orderedLabels(totals) {
		rows = append(rows, []string{titleLabel(label), strconv.Itoa(totals[label])})
	}
	rows = append(rows, []string{"**Total**", "**" + strconv.Itoa(total) + "**"})

	md.Table(markdown.TableSet{
		Header: []string{"Severity", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writePieChart(md, totals)
	w.writeAlert(md, totals, total)
}

// writePieChart writes a mermaid pie chart for the severity distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, totals map[string]int) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Finding Severity Distribution"),
		piechart.WithShowData(true),
	)

	for _, label := range orderedLabels(totals) {
		if n := totals[label]; n > 0 {
			chart.LabelAndIntValue(titleLabel(label), uint64(n))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert matching the worst severity in the run.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, totals map[string]int, total int) {
	switch {
	case totals[string(model.SeverityHigh)] > 0:
		md.Cautionf(
			"High severity issues detected! %d high severity finding(s) require attention.",
			totals[string(model.SeverityHigh)],
		)
	case totals[string(model.SeverityMedium)] > 0:
		md.Warningf(
			"Medium severity issues found. %d finding(s) should be reviewed.",
			totals[string(model.SeverityMedium)],
		)
	case total > 0:
		md.Note("Only low severity and informational findings were reported.")
	default:
		md.Tip("No findings were reported by the processed scans.")
	}
	md.PlainText("")
}

// writeFooter writes the digest footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Generated by [scanherald](https://github.com/scanherald/scanherald)*")
}
