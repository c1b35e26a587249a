package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/scanherald/scanherald/internal/database"
	"github.com/scanherald/scanherald/internal/summary"
	"github.com/spf13/cobra"
)

// defaultHistoryLimit bounds the history output when no --limit is given.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show previously delivered scan reports",
		Long: `History lists the reports scanherald has delivered, newest first.

Every successful notification is recorded in a local SQLite ledger; this
command reads that ledger. It never talks to the scanning service.

Examples:
  # Show the last 20 deliveries
  scanherald history

  # Show the last 5 deliveries
  scanherald history -n 5

  # Show every delivery of one scan
  scanherald history --scan-id 8713ab12-9e19-4f3a-8d02-32c0ed8e9b1a

  # Machine-readable output
  scanherald history --json`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: scanherald.yaml in current or XDG config directory)")
	cmd.Flags().IntP("limit", "n", defaultHistoryLimit,
		"Maximum number of deliveries to show (0 for all)")
	cmd.Flags().String("scan-id", "",
		"Show only deliveries of the given scan id")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown (mutually exclusive with --json)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	// Only the paths section of the config is needed here; a full Validate
	// would demand service and SMTP credentials that reading local history
	// never uses.
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	scanID, err := cmd.Flags().GetString("scan-id")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	if jsonOutput && markdownOutput {
		return errors.New("--json and --markdown are mutually exclusive")
	}

	hdb, err := database.Open(cfg.Paths.HistoryDir, database.Options{EnableWAL: true})
	if err != nil {
		// No ledger simply means nothing was delivered yet.
		if errors.Is(err, database.ErrLedgerNotFound) {
			fmt.Fprintln(cmd.OutOrStdout(), "No deliveries recorded yet.")
			return nil
		}
		return fmt.Errorf("failed to open delivery ledger: %w", err)
	}
	defer func() {
		_ = hdb.Close()
	}()

	var deliveries []database.Delivery
	if scanID != "" {
		deliveries, err = hdb.DeliveriesForScan(cmd.Context(), scanID)
	} else {
		deliveries, err = hdb.ListDeliveries(cmd.Context(), limit)
	}
	if err != nil {
		return fmt.Errorf("failed to read delivery ledger: %w", err)
	}

	switch {
	case jsonOutput:
		return writeHistoryJSON(cmd.OutOrStdout(), deliveries)
	case markdownOutput:
		return writeHistoryMarkdown(cmd.OutOrStdout(), deliveries)
	default:
		return writeHistoryText(cmd.OutOrStdout(), deliveries)
	}
}

// writeHistoryText prints deliveries as a human-readable list.
func writeHistoryText(out io.Writer, deliveries []database.Delivery) error {
	if len(deliveries) == 0 {
		_, err := fmt.Fprintln(out, "No deliveries recorded yet.")
		return err
	}

	var sb strings.Builder
	for _, d := range deliveries {
		fmt.Fprintf(&sb, "%s  %s\n",
			d.NotifiedAt.Format("2006-01-02 15:04:05 MST"), d.Description)
		fmt.Fprintf(&sb, "    scan:     %s\n", d.ScanID)
		fmt.Fprintf(&sb, "    findings: %s\n", summary.FormatSeverityCounts(d.SeverityCounts))
		if d.ReportPath != "" {
			fmt.Fprintf(&sb, "    report:   %s\n", d.ReportPath)
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "Total: %d\n", len(deliveries))

	_, err := io.WriteString(out, sb.String())
	return err
}

// writeHistoryJSON prints deliveries as indented JSON.
func writeHistoryJSON(out io.Writer, deliveries []database.Delivery) error {
	// An empty history encodes as [], not null.
	if deliveries == nil {
		deliveries = []database.Delivery{}
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(deliveries)
}

// writeHistoryMarkdown prints deliveries as a Markdown table.
func writeHistoryMarkdown(out io.Writer, deliveries []database.Delivery) error {
	md := markdown.NewMarkdown(out)
	md.H1("Delivery History")
	md.PlainText("")

	if len(deliveries) == 0 {
		md.PlainText("No deliveries recorded yet.")
		return md.Build()
	}

	rows := make([][]string, len(deliveries))
	for i, d := range deliveries {
		report := "-"
		if d.ReportPath != "" {
			report = "`" + filepath.Base(d.ReportPath) + "`"
		}
		rows[i] = []string{
			d.NotifiedAt.Format("2006-01-02 15:04"),
			d.Description,
			"`" + d.ScanID + "`",
			summary.FormatSeverityCounts(d.SeverityCounts),
			report,
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Delivered", "Target", "Scan ID", "Findings", "Report"},
		Rows:   rows,
	})

	return md.Build()
}
