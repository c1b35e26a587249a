package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/scanherald/scanherald/internal/acunetix"
	"github.com/scanherald/scanherald/internal/config"
	"github.com/scanherald/scanherald/internal/database"
	"github.com/scanherald/scanherald/internal/log"
	"github.com/scanherald/scanherald/internal/model"
	"github.com/scanherald/scanherald/internal/notify"
	"github.com/scanherald/scanherald/internal/reconcile"
	"github.com/scanherald/scanherald/internal/store"
	"github.com/scanherald/scanherald/internal/summary"
	"github.com/spf13/cobra"
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Reconcile completed scans and email their reports",
		Long: `Run performs one reconciliation pass against the scanning service.

It lists the scans the service knows about, and for every completed scan
that has not been delivered yet it:
- generates a report and polls until the service finishes rendering it
- downloads the report artifact
- emails a summary with all reports of this run attached
- records the scan as delivered, so the next run skips it

Scans are marked delivered only after the notification mail is accepted.
A failed run leaves everything to be retried by the next one, which makes
scanherald safe to drive from cron.

Examples:
  # Run with scanherald.yaml from the current or XDG config directory
  scanherald run

  # Run with an explicit configuration file
  scanherald run -c /etc/scanherald/scanherald.yaml

  # Block on still-running scans instead of leaving them to the next run
  scanherald run --wait

  # Emit the run digest as JSON for a wrapper script to parse
  scanherald run --json

  # Write the run digest to a file instead of stdout
  scanherald run -m -o /var/log/scanherald/last-run.md`,
		Args: cobra.NoArgs,
		RunE: runRunCmd,
	}

	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: scanherald.yaml in current or XDG config directory)")
	cmd.Flags().BoolP("wait", "w", false,
		"Wait for running scans to complete (overrides wait_for_running)")

	// Digest format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output the run digest as JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output the run digest as Markdown (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write the run digest to the specified file path (creates directories if needed)")

	return cmd
}

// runRunCmd executes the run command.
func runRunCmd(cmd *cobra.Command, _ []string) error {
	format, err := parseDigestFormat(cmd)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// Flag overrides apply on top of the config file
	if cmd.Flags().Changed("wait") {
		wait, err := cmd.Flags().GetBool("wait")
		if err != nil {
			return err
		}
		cfg.Settings.WaitForRunning = wait
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging
	verbose := getVerboseFlag(cmd)
	logger := log.NewSecureLogger(os.Stderr, verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return executeRun(ctx, cfg, format, logger, cmd.OutOrStdout())
}

// digestFormat selects how and where the run digest is rendered.
type digestFormat struct {
	// json renders the digest as JSON.
	json bool

	// markdown renders the digest as Markdown.
	markdown bool

	// filePath redirects the digest to a file instead of stdout.
	filePath string

	// verbose includes scan and report identifiers in the text digest.
	verbose bool
}

// parseDigestFormat reads the digest format flags and validates them.
func parseDigestFormat(cmd *cobra.Command) (digestFormat, error) {
	var format digestFormat
	var err error

	format.json, err = cmd.Flags().GetBool("json")
	if err != nil {
		return format, err
	}

	format.markdown, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return format, err
	}

	if format.json && format.markdown {
		return format, errors.New("--json and --markdown are mutually exclusive")
	}

	format.filePath, err = cmd.Flags().GetString("output")
	if err != nil {
		return format, err
	}

	format.verbose = getVerboseFlag(cmd)
	return format, nil
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// loadConfig locates and loads the configuration file.
// If the user explicitly specified a config file path, a missing file is an
// error. Without an explicit path, a missing file falls back to defaults so
// that Validate can name the settings that have no default.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	found := config.FindConfigFile(configPath)
	if found == "" {
		if configPath != "" {
			return nil, fmt.Errorf("configuration file not found: %s", configPath)
		}
		return config.NewConfig(), nil
	}

	cfg, err := config.LoadConfigFile(found)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", found, err)
	}
	return cfg, nil
}

// executeRun performs one reconciliation pass: list, report, mail, record.
func executeRun(ctx context.Context, cfg *config.Config, format digestFormat, logger *slog.Logger, out io.Writer) error {
	client, err := acunetix.New(cfg.Acunetix.URL, cfg.Acunetix.APIKey,
		acunetix.WithTimeout(cfg.Acunetix.Timeout.Duration()),
		acunetix.WithMaxRetries(cfg.Acunetix.MaxRetries),
		acunetix.WithBackoffFactor(cfg.Acunetix.BackoffFactor),
		acunetix.WithTemplateID(cfg.Acunetix.ReportTemplateID),
		acunetix.WithUserAgent(cfg.Acunetix.UserAgent),
		acunetix.WithInsecureSkipVerify(!cfg.Acunetix.VerifySSL),
		acunetix.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("failed to create service client: %w", err)
	}

	notifier, err := notify.NewEmailNotifier(notify.SMTPSettings{
		Host:       cfg.Email.SMTPServer,
		Port:       cfg.Email.SMTPPort,
		Username:   cfg.Email.Username,
		Password:   cfg.Email.Password,
		From:       cfg.Email.FromAddress(),
		Recipients: cfg.Email.Recipients,
		UseTLS:     cfg.Email.UseTLS,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create mail notifier: %w", err)
	}

	processed := store.Open(cfg.Paths.ProcessedFile, logger)

	engine := reconcile.New(client, processed, notifier, logger,
		reconcile.WithReportPolling(cfg.Settings.ReportMaxRetries, cfg.Settings.ReportRetryDelay.Duration()),
		reconcile.WithScanPolling(cfg.Settings.ScanMaxChecks, cfg.Settings.ScanCheckDelay.Duration()),
		reconcile.WithWaitForRunning(cfg.Settings.WaitForRunning),
		reconcile.WithReportsDir(cfg.Paths.ReportsDir),
		reconcile.WithFileExtension(cfg.Settings.ReportFileExtension),
	)

	digest, runErr := engine.Run(ctx)
	if digest != nil {
		if err := writeDigest(out, format, digest); err != nil {
			logger.Error("failed to write run digest", "error", err)
		}
	}
	if runErr != nil {
		return fmt.Errorf("reconciliation failed: %w", runErr)
	}

	if digest.Notified {
		recordDeliveries(ctx, cfg, digest, logger)

		if cfg.Settings.CleanupRemoteReports {
			if err := client.DeleteReports(ctx, digest.ReportIDs()); err != nil {
				logger.Warn("failed to delete remote reports", "error", err)
			} else {
				logger.Info("deleted remote reports", "count", len(digest.ReportIDs()))
			}
		}
	}

	return nil
}

// writeDigest renders the run digest in the requested format.
func writeDigest(out io.Writer, format digestFormat, digest *model.RunDigest) error {
	if format.filePath != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(format.filePath)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Create/overwrite the output file with secure permissions (0600)
		// Digests name internal hosts and findings, so keep them owner-only
		f, err := os.OpenFile(format.filePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	var w summary.Writer
	switch {
	case format.json:
		w = summary.NewJSONWriter(out, summary.WithPrettyPrint())
	case format.markdown:
		w = summary.NewMarkdownWriter(out)
	default:
		w = summary.NewTextWriter(out, summary.WithVerbose(format.verbose))
	}

	_, err := w.Write(digest)
	return err
}

// recordDeliveries appends the run's results to the delivery ledger.
// Ledger failures are logged, not fatal: the mail went out and the scans
// were committed as processed, which is the state that matters.
func recordDeliveries(ctx context.Context, cfg *config.Config, digest *model.RunDigest, logger *slog.Logger) {
	hdb, err := database.Open(cfg.Paths.HistoryDir, database.DefaultOptions())
	if err != nil {
		logger.Error("failed to open delivery ledger", "error", err)
		return
	}
	defer func() {
		if err := hdb.Close(); err != nil {
			logger.Error("failed to close delivery ledger", "error", err)
		}
	}()

	for i := range digest.Results {
		if _, err := hdb.RecordDelivery(ctx, digest.RunID, &digest.Results[i]); err != nil {
			logger.Error("failed to record delivery",
				"scan_id", digest.Results[i].ScanID, "error", err)
		}
	}
}
