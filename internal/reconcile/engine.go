package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/scanherald/scanherald/internal/model"
)

// Polling defaults. The scanning service generates reports in seconds to
// minutes, so report polls are short and frequent; full scans run for
// hours, so completion checks are long and sparse.
const (
	// defaultReportMaxAttempts is how many times report generation is
	// polled before the scan is given up for this run.
	defaultReportMaxAttempts = 10

	// defaultReportInterval is the pause between report generation polls.
	defaultReportInterval = 10 * time.Second

	// defaultScanMaxChecks is how many times a running scan is re-checked
	// when waiting for completion is enabled.
	defaultScanMaxChecks = 10

	// defaultScanInterval is the pause between scan completion checks.
	defaultScanInterval = 1 * time.Hour

	// defaultFileExtension is the artifact extension for downloaded
	// reports. The default report template renders HTML.
	defaultFileExtension = "html"

	// reportsDirPerm is the mode for a created reports directory.
	reportsDirPerm = 0750
)

// ScanService is the slice of the scanning service API the engine
// consumes. *acunetix.Client satisfies it.
type ScanService interface {
	// ListScans returns every scan the service knows about.
	ListScans(ctx context.Context) ([]model.Scan, error)

	// GetScan returns a fresh snapshot of one scan.
	GetScan(ctx context.Context, scanID string) (*model.Scan, error)

	// GenerateReport requests a report for a target and returns the
	// report id to poll.
	GenerateReport(ctx context.Context, targetID string) (string, error)

	// GetReport returns the current state of a report generation job.
	GetReport(ctx context.Context, reportID string) (*model.Report, error)

	// DownloadReport streams a finished report to destPath and reports
	// whether the artifact was written.
	DownloadReport(ctx context.Context, locator, destPath string) bool
}

// ProcessedSet tracks which scans were already delivered in earlier runs.
// *store.Store satisfies it.
type ProcessedSet interface {
	// Contains reports whether the scan was already delivered.
	Contains(scanID string) bool

	// Commit durably marks the scan as delivered.
	Commit(scanID string)
}

// Notifier delivers the run digest to the operators.
// *notify.EmailNotifier satisfies it.
type Notifier interface {
	// Notify delivers the digest. An error means nothing reached the
	// recipients and the whole batch must be retried.
	Notify(ctx context.Context, digest *model.RunDigest) error
}

// Engine drives one reconciliation run: list, filter, report, download,
// notify, commit.
type Engine struct {
	// service is the scanning service the run reconciles against.
	service ScanService

	// processed is the durable set of already-delivered scan ids.
	processed ProcessedSet

	// notifier delivers the finished batch.
	notifier Notifier

	// logger is used for structured logging during the run.
	logger *slog.Logger

	// reportMaxAttempts and reportInterval bound the report generation
	// poll loop.
	reportMaxAttempts int
	reportInterval    time.Duration

	// scanMaxChecks and scanInterval bound the optional wait for running
	// scans to complete.
	scanMaxChecks int
	scanInterval  time.Duration

	// waitForRunning makes the engine wait for running scans instead of
	// leaving them for the next run.
	waitForRunning bool

	// reportsDir is where downloaded report artifacts are written.
	// Empty means the current directory.
	reportsDir string

	// fileExtension is the artifact extension, without the dot.
	fileExtension string
}

// Option configures an Engine.
type Option func(*Engine)

// WithReportPolling bounds the report generation poll loop. Non-positive
// attempts keep the default; a zero interval polls without sleeping,
// which tests rely on.
func WithReportPolling(maxAttempts int, interval time.Duration) Option {
	return func(e *Engine) {
		if maxAttempts > 0 {
			e.reportMaxAttempts = maxAttempts
		}
		if interval >= 0 {
			e.reportInterval = interval
		}
	}
}

// WithScanPolling bounds the wait for running scans to complete.
// Non-positive checks keep the default; a zero interval polls without
// sleeping.
func WithScanPolling(maxChecks int, interval time.Duration) Option {
	return func(e *Engine) {
		if maxChecks > 0 {
			e.scanMaxChecks = maxChecks
		}
		if interval >= 0 {
			e.scanInterval = interval
		}
	}
}

// WithWaitForRunning makes the engine wait for running scans to complete
// instead of skipping them.
//
// Design decision: This is off by default. Scans run for hours, and a
// batch tool that blocks on them holds its host's resources for the whole
// wait while the next cron invocation would pick the scan up anyway. The
// option exists for operators who run the tool manually and want one
// invocation to see a scan through.
func WithWaitForRunning(wait bool) Option {
	return func(e *Engine) {
		e.waitForRunning = wait
	}
}

// WithReportsDir sets the directory downloaded report artifacts are
// written to. It is created on first use.
func WithReportsDir(dir string) Option {
	return func(e *Engine) {
		e.reportsDir = dir
	}
}

// WithFileExtension sets the artifact extension for downloaded reports.
// A leading dot is tolerated; an empty extension keeps the default.
func WithFileExtension(ext string) Option {
	return func(e *Engine) {
		ext = strings.TrimPrefix(ext, ".")
		if ext != "" {
			e.fileExtension = ext
		}
	}
}

// New creates an Engine over the given service, processed set, and
// notifier. A nil logger falls back to slog.Default().
func New(service ScanService, processed ProcessedSet, notifier Notifier, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		service:           service,
		processed:         processed,
		notifier:          notifier,
		logger:            logger,
		reportMaxAttempts: defaultReportMaxAttempts,
		reportInterval:    defaultReportInterval,
		scanMaxChecks:     defaultScanMaxChecks,
		scanInterval:      defaultScanInterval,
		fileExtension:     defaultFileExtension,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = slog.Default()
	}

	return e
}

// Run executes one reconciliation run and returns its digest.
//
// The only error that aborts a run is a failure to list scans (there is
// nothing to reconcile without the listing) or a cancelled context.
// Per-scan failures are logged, counted in the digest, and retried on the
// next run. A failed notification is also not an error: the batch stays
// uncommitted and the next run delivers it again.
func (e *Engine) Run(ctx context.Context) (*model.RunDigest, error) {
	digest := &model.RunDigest{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
	logger := e.logger.With("run_id", digest.RunID)

	logger.Info("reconciliation run started")

	scans, err := e.service.ListScans(ctx)
	if err != nil {
		return nil, fmt.Errorf("list scans: %w", err)
	}
	digest.Discovered = len(scans)
	logger.Info("scans discovered", "count", len(scans))

	for i := range scans {
		// Check for cancellation before each scan so an interrupt lands
		// between scans, never half-way through a commit.
		select {
		case <-ctx.Done():
			logger.Warn("run cancelled", "reason", ctx.Err())
			digest.FinishedAt = time.Now()
			return digest, ctx.Err()
		default:
		}

		e.processScan(ctx, digest, &scans[i])
	}

	// The digest covers processing only; notification time is not part
	// of the run duration it reports.
	digest.FinishedAt = time.Now()

	if digest.Empty() {
		logger.Info("no new completed scans, skipping notification",
			"discovered", digest.Discovered,
			"already_processed", digest.SkippedProcessed,
			"not_completed", digest.SkippedIncomplete,
			"failed", digest.Failed,
		)
		return digest, nil
	}

	if err := e.notifier.Notify(ctx, digest); err != nil {
		logger.Error("notification failed, scans will be retried in the next run",
			"scans", digest.ScanIDs(),
			"error", err,
		)
		return digest, nil
	}

	// Commit only after the notification went out. Crashing between the
	// two duplicates a mail on the next run, which beats silently losing
	// the batch.
	for _, scanID := range digest.ScanIDs() {
		e.processed.Commit(scanID)
	}
	digest.Notified = true

	logger.Info("reconciliation run complete",
		"processed", len(digest.Results),
		"failed", digest.Failed,
		"elapsed", digest.Duration(),
	)

	return digest, nil
}

// processScan decides one scan's fate for this run: skip it, wait for it,
// or push it through the report protocol. Failures are counted in the
// digest and never abort the run.
func (e *Engine) processScan(ctx context.Context, digest *model.RunDigest, scan *model.Scan) {
	logger := e.logger.With(
		"run_id", digest.RunID,
		"scan_id", scan.ScanID,
		"target", scan.DisplayName(),
	)

	if e.processed.Contains(scan.ScanID) {
		digest.SkippedProcessed++
		logger.Debug("scan already processed, skipping")
		return
	}

	status := scan.CurrentSession.Status
	if status == model.ScanStatusScheduled {
		digest.SkippedIncomplete++
		logger.Debug("scan not started yet, skipping")
		return
	}

	snapshot := scan
	if !status.IsCompleted() {
		if !e.waitForRunning || status != model.ScanStatusRunning {
			digest.SkippedIncomplete++
			logger.Info("scan not completed, will be picked up next run", "status", status)
			return
		}

		completed, err := e.waitForScan(ctx, scan.ScanID)
		if err != nil {
			digest.Failed++
			logger.Error("waiting for scan completion failed", "error", err)
			return
		}
		snapshot = completed
	}

	result, err := e.produceReport(ctx, snapshot)
	if err != nil {
		digest.Failed++
		logger.Error("report processing failed", "error", err)
		return
	}

	digest.Results = append(digest.Results, *result)
	logger.Info("scan processed",
		"report_id", result.ReportID,
		"report_path", result.ReportPath,
		"findings", result.TotalFindings(),
	)
}

// produceReport runs the report protocol for one completed scan:
// generate, poll until ready, resolve the locator, download. It returns
// the result to append to the batch or the error that failed the scan.
func (e *Engine) produceReport(ctx context.Context, scan *model.Scan) (*model.ScanResult, error) {
	reportID, err := e.service.GenerateReport(ctx, scan.TargetID)
	if err != nil {
		return nil, fmt.Errorf("generate report: %w", err)
	}

	report, err := e.waitForReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, fmt.Errorf("report %s not ready after %d attempts", reportID, e.reportMaxAttempts)
	}

	locator, ok := report.DownloadLocator()
	if !ok {
		return nil, fmt.Errorf("report %s has no download locator", reportID)
	}

	destPath, err := e.reportDestination(scan)
	if err != nil {
		return nil, err
	}

	if !e.service.DownloadReport(ctx, locator, destPath) {
		return nil, fmt.Errorf("download report %s to %s", reportID, destPath)
	}

	return &model.ScanResult{
		ScanID:         scan.ScanID,
		TargetID:       scan.TargetID,
		Description:    scan.DisplayName(),
		StartDate:      scan.CurrentSession.StartDate,
		ReportID:       reportID,
		ReportPath:     destPath,
		SeverityCounts: scan.CurrentSession.SeverityCounts,
		Session:        scan.CurrentSession,
	}, nil
}

// waitForReport polls one report generation job until it completes. A
// terminal failure status ends the wait with an error; exhausting all
// attempts returns (nil, nil) and the caller decides what an absent
// report means. Poll errors are tolerated: the job may still finish.
func (e *Engine) waitForReport(ctx context.Context, reportID string) (*model.Report, error) {
	var ready *model.Report

	done, err := e.poll(ctx, "report generation", e.reportMaxAttempts, e.reportInterval, func(attempt int) (bool, error) {
		report, err := e.service.GetReport(ctx, reportID)
		if err != nil {
			e.logger.Warn("report status check failed",
				"report_id", reportID,
				"attempt", attempt,
				"error", err,
			)
			return false, nil
		}
		if report == nil {
			return false, nil
		}

		switch {
		case report.Status == model.ReportStatusCompleted:
			ready = report
			return true, nil
		case report.Status.IsTerminalFailure():
			return false, fmt.Errorf("report %s generation ended with status %q", reportID, report.Status)
		default:
			e.logger.Debug("report not ready",
				"report_id", reportID,
				"attempt", attempt,
				"status", report.Status,
			)
			return false, nil
		}
	})
	if err != nil || !done {
		return nil, err
	}
	return ready, nil
}

// waitForScan polls a running scan until its results are final. Unlike
// waitForReport, exhaustion is an error here: the caller asked to see
// this scan through and there is no later fallback within the run.
func (e *Engine) waitForScan(ctx context.Context, scanID string) (*model.Scan, error) {
	var completed *model.Scan

	done, err := e.poll(ctx, "scan completion", e.scanMaxChecks, e.scanInterval, func(attempt int) (bool, error) {
		scan, err := e.service.GetScan(ctx, scanID)
		if err != nil {
			e.logger.Warn("scan status check failed",
				"scan_id", scanID,
				"attempt", attempt,
				"error", err,
			)
			return false, nil
		}

		status := scan.CurrentSession.Status
		switch {
		case status.IsCompleted():
			completed = scan
			return true, nil
		case status.IsTerminal():
			return false, fmt.Errorf("scan %s ended with status %q", scanID, status)
		default:
			e.logger.Info("scan still in progress",
				"scan_id", scanID,
				"attempt", attempt,
				"status", status,
				"progress", scan.CurrentSession.Progress,
			)
			return false, nil
		}
	})
	if err != nil {
		return nil, err
	}
	if !done {
		return nil, fmt.Errorf("scan %s not completed after %d checks", scanID, e.scanMaxChecks)
	}
	return completed, nil
}

// poll invokes check up to maxAttempts times, sleeping interval between
// attempts. check returns true to end the wait successfully or an error
// to end it as a failure; anything else polls again. Exhausting all
// attempts returns (false, nil): whether an absent result is an error is
// the caller's call.
//
// Design decision: We check first and sleep after, skipping the sleep
// that would follow the final check. A result that is already available
// costs no wait, and the loop still performs exactly one check per
// attempt.
func (e *Engine) poll(ctx context.Context, what string, maxAttempts int, interval time.Duration, check func(attempt int) (bool, error)) (bool, error) {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		done, err := check(attempt)
		if err != nil {
			return false, err
		}
		if done {
			return true, nil
		}
		if attempt == maxAttempts {
			break
		}
		if err := sleepContext(ctx, interval); err != nil {
			return false, fmt.Errorf("waiting for %s: %w", what, err)
		}
	}

	e.logger.Warn("gave up waiting", "what", what, "attempts", maxAttempts)
	return false, nil
}

// reportDestination builds the artifact path for a scan's report and
// makes sure the reports directory exists.
func (e *Engine) reportDestination(scan *model.Scan) (string, error) {
	if e.reportsDir != "" {
		if err := os.MkdirAll(e.reportsDir, reportsDirPerm); err != nil {
			return "", fmt.Errorf("create reports directory: %w", err)
		}
	}
	name := reportFilename(scan.DisplayName(), time.Now(), e.fileExtension)
	return filepath.Join(e.reportsDir, name), nil
}

// sleepContext pauses for d or until the context is cancelled, whichever
// comes first. A non-positive duration still reports a cancelled context
// so zero-interval test runs abort promptly.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
