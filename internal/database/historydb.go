package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/scanherald/scanherald/internal/model"
)

// dbFileName is the ledger file created inside the database directory.
const dbFileName = "scanherald.db"

// ErrLedgerNotFound is returned by Open when CreateIfNotExists is false and
// no ledger file exists yet. Callers use it to tell "nothing delivered yet"
// apart from a real failure.
var ErrLedgerNotFound = errors.New("delivery ledger not found")

// HistoryDB provides SQLite-based storage for delivered report history.
//
// Design decision: One ledger file covers all runs rather than a file per
// run. Deliveries from different runs are what operators compare, and a
// single file keeps backup and cleanup trivial.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging so history reads don't block
	// a run that is recording deliveries.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB in the specified directory.
// If CreateIfNotExists is true, the directory and database file are
// created; otherwise a missing database is an error, which lets the
// history command tell "no deliveries yet" apart from a wrong path.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, dbFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s (use CreateIfNotExists option to create)", ErrLedgerNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check ledger path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}

	// modernc.org/sqlite takes the mode in the DSN: rwc allows creating
	// the file, rw requires it to exist.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	// SQLite supports one writer; a second connection buys nothing here.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// Path returns the path of the ledger file.
func (hdb *HistoryDB) Path() string {
	return hdb.dbPath
}

// createTables creates the ledger schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- Deliveries record every report that reached the recipients
	CREATE TABLE IF NOT EXISTS deliveries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		scan_id TEXT NOT NULL,
		target_id TEXT,
		description TEXT,
		start_date TEXT,
		report_id TEXT,
		report_path TEXT,
		severity_counts TEXT,
		notified_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_deliveries_scan ON deliveries(scan_id);
	CREATE INDEX IF NOT EXISTS idx_deliveries_run ON deliveries(run_id);
	CREATE INDEX IF NOT EXISTS idx_deliveries_notified ON deliveries(notified_at);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// Delivery is one ledger row: a report that was delivered to the
// recipients as part of a notified run.
type Delivery struct {
	// ID is the row id.
	ID int64 `json:"id"`

	// RunID is the reconciliation run that delivered the report.
	RunID string `json:"run_id"`

	// ScanID is the processed scan.
	ScanID string `json:"scan_id"`

	// TargetID is the scanned target.
	TargetID string `json:"target_id"`

	// Description is the human-readable target name at delivery time.
	Description string `json:"description"`

	// StartDate is the scan start time verbatim from the service.
	StartDate string `json:"start_date"`

	// ReportID is the report generation job that produced the artifact.
	ReportID string `json:"report_id"`

	// ReportPath is where the artifact was written. The file may have
	// been cleaned up since; the ledger records where it went.
	ReportPath string `json:"report_path"`

	// SeverityCounts maps severity labels to finding counts at delivery.
	SeverityCounts map[string]int `json:"severity_counts"`

	// NotifiedAt is when the delivery was recorded.
	NotifiedAt time.Time `json:"notified_at"`
}

// RecordDelivery inserts one delivered scan result into the ledger and
// returns the new row id.
func (hdb *HistoryDB) RecordDelivery(ctx context.Context, runID string, result *model.ScanResult) (int64, error) {
	severityJSON, err := json.Marshal(result.SeverityCounts)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize severity counts: %w", err)
	}

	query := `
	INSERT INTO deliveries (run_id, scan_id, target_id, description, start_date, report_id, report_path, severity_counts)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := hdb.db.ExecContext(ctx, query,
		runID,
		result.ScanID,
		result.TargetID,
		result.Description,
		result.StartDate,
		result.ReportID,
		result.ReportPath,
		string(severityJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to record delivery: %w", err)
	}

	return res.LastInsertId()
}

// ListDeliveries returns the most recent deliveries, newest first. A
// non-positive limit returns all rows.
func (hdb *HistoryDB) ListDeliveries(ctx context.Context, limit int) ([]Delivery, error) {
	if limit <= 0 {
		limit = -1 // SQLite: LIMIT -1 means unlimited
	}

	query := `
	SELECT id, run_id, scan_id, target_id, description, start_date, report_id, report_path, severity_counts, notified_at
	FROM deliveries
	ORDER BY notified_at DESC, id DESC
	LIMIT ?
	`

	rows, err := hdb.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list deliveries: %w", err)
	}
	defer rows.Close()

	return scanDeliveryRows(rows)
}

// DeliveriesForScan returns every recorded delivery of one scan, newest
// first. More than one row means the scan was re-delivered, which happens
// when a crash landed between notification and commit.
func (hdb *HistoryDB) DeliveriesForScan(ctx context.Context, scanID string) ([]Delivery, error) {
	query := `
	SELECT id, run_id, scan_id, target_id, description, start_date, report_id, report_path, severity_counts, notified_at
	FROM deliveries
	WHERE scan_id = ?
	ORDER BY notified_at DESC, id DESC
	`

	rows, err := hdb.db.QueryContext(ctx, query, scanID)
	if err != nil {
		return nil, fmt.Errorf("failed to query deliveries: %w", err)
	}
	defer rows.Close()

	return scanDeliveryRows(rows)
}

// LastDelivery returns the most recent delivery of one scan, or nil when
// the scan was never delivered.
func (hdb *HistoryDB) LastDelivery(ctx context.Context, scanID string) (*Delivery, error) {
	query := `
	SELECT id, run_id, scan_id, target_id, description, start_date, report_id, report_path, severity_counts, notified_at
	FROM deliveries
	WHERE scan_id = ?
	ORDER BY notified_at DESC, id DESC
	LIMIT 1
	`

	rows, err := hdb.db.QueryContext(ctx, query, scanID)
	if err != nil {
		return nil, fmt.Errorf("failed to query delivery: %w", err)
	}
	defer rows.Close()

	deliveries, err := scanDeliveryRows(rows)
	if err != nil {
		return nil, err
	}
	if len(deliveries) == 0 {
		return nil, nil
	}
	return &deliveries[0], nil
}

// scanDeliveryRows decodes ledger rows produced by the shared column list.
func scanDeliveryRows(rows *sql.Rows) ([]Delivery, error) {
	var deliveries []Delivery
	for rows.Next() {
		var d Delivery
		var severityJSON sql.NullString
		var notifiedAt string

		err := rows.Scan(
			&d.ID,
			&d.RunID,
			&d.ScanID,
			&d.TargetID,
			&d.Description,
			&d.StartDate,
			&d.ReportID,
			&d.ReportPath,
			&severityJSON,
			&notifiedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan delivery: %w", err)
		}

		d.NotifiedAt = parseTimestamp(notifiedAt)

		if severityJSON.Valid && severityJSON.String != "" {
			if err := json.Unmarshal([]byte(severityJSON.String), &d.SeverityCounts); err != nil {
				// A malformed row should not hide the rest of the history.
				d.SeverityCounts = nil
			}
		}

		deliveries = append(deliveries, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read deliveries: %w", err)
	}
	return deliveries, nil
}

// PruneBefore deletes ledger rows older than the cutoff and returns how
// many were removed. The ledger grows forever otherwise.
func (hdb *HistoryDB) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM deliveries WHERE notified_at < ?`

	res, err := hdb.db.ExecContext(ctx, query, cutoff.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return 0, fmt.Errorf("failed to prune deliveries: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned deliveries: %w", err)
	}
	return n, nil
}

// timestampFormats contains the timestamp formats SQLite may return.
// The order matters: more specific formats come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple
// formats, because SQLite returns timestamps in different shapes
// depending on configuration. Returns zero time if nothing matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
