package database

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/scanherald/scanherald/internal/model"
)

// setupTestDB creates a temporary ledger for testing.
func setupTestDB(t *testing.T) *HistoryDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open ledger: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

// testResult builds a delivered scan result fixture.
func testResult(scanID string) *model.ScanResult {
	return &model.ScanResult{
		ScanID:      scanID,
		TargetID:    "target-" + scanID,
		Description: "Production App",
		StartDate:   "2026-01-14T20:00:00.000000+00:00",
		ReportID:    "report-" + scanID,
		ReportPath:  "/var/lib/scanherald/reports/Production_App_20260114_221005.html",
		SeverityCounts: map[string]int{
			"high": 2,
			"low":  1,
		},
	}
}

// TestOpen tests ledger opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates the ledger in a new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "state", "ledger")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open ledger: %v", err)
		}
		defer db.Close()

		dbPath := filepath.Join(dbDir, "scanherald.db")
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			t.Error("ledger file was not created")
		}
		if db.Path() != dbPath {
			t.Errorf("Path() = %q, expected %q", db.Path(), dbPath)
		}
	})

	t.Run("CreateIfNotExists=false rejects a missing ledger", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "nowhere")
		opts := Options{CreateIfNotExists: false, EnableWAL: true}

		_, err := Open(dbDir, opts)
		if err == nil {
			t.Fatal("expected an error for a missing ledger")
		}
		if !strings.Contains(err.Error(), "not found") {
			t.Errorf("error = %q, expected it to mention the missing ledger", err.Error())
		}
		if _, statErr := os.Stat(dbDir); !os.IsNotExist(statErr) {
			t.Error("directory should not have been created")
		}
	})

	t.Run("CreateIfNotExists=false opens an existing ledger", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "existing")
		ctx := context.Background()

		db1, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create ledger: %v", err)
		}
		if _, err := db1.RecordDelivery(ctx, "run-1", testResult("scan-1")); err != nil {
			t.Fatalf("failed to record delivery: %v", err)
		}
		_ = db1.Close()

		db2, err := Open(dbDir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to reopen ledger: %v", err)
		}
		defer db2.Close()

		deliveries, err := db2.ListDeliveries(ctx, 0)
		if err != nil {
			t.Fatalf("failed to list deliveries: %v", err)
		}
		if len(deliveries) != 1 {
			t.Errorf("expected 1 delivery to persist, got %d", len(deliveries))
		}
	})
}

// TestHistoryDBRecordDelivery tests writing and reading ledger rows.
func TestHistoryDBRecordDelivery(t *testing.T) {
	t.Parallel()

	t.Run("round-trips a delivery", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		id, err := db.RecordDelivery(ctx, "run-1", testResult("scan-1"))
		if err != nil {
			t.Fatalf("failed to record delivery: %v", err)
		}
		if id <= 0 {
			t.Errorf("row id = %d, expected a positive id", id)
		}

		deliveries, err := db.DeliveriesForScan(ctx, "scan-1")
		if err != nil {
			t.Fatalf("failed to query deliveries: %v", err)
		}
		if len(deliveries) != 1 {
			t.Fatalf("expected 1 delivery, got %d", len(deliveries))
		}

		d := deliveries[0]
		if d.RunID != "run-1" {
			t.Errorf("RunID = %q, expected %q", d.RunID, "run-1")
		}
		if d.ScanID != "scan-1" || d.TargetID != "target-scan-1" {
			t.Errorf("ids = (%q, %q), expected (scan-1, target-scan-1)", d.ScanID, d.TargetID)
		}
		if d.Description != "Production App" {
			t.Errorf("Description = %q, expected %q", d.Description, "Production App")
		}
		if d.ReportID != "report-scan-1" {
			t.Errorf("ReportID = %q, expected %q", d.ReportID, "report-scan-1")
		}
		if !strings.HasSuffix(d.ReportPath, "Production_App_20260114_221005.html") {
			t.Errorf("ReportPath = %q, expected the artifact path", d.ReportPath)
		}
		if d.SeverityCounts["high"] != 2 || d.SeverityCounts["low"] != 1 {
			t.Errorf("SeverityCounts = %v, expected high:2 low:1", d.SeverityCounts)
		}
		if d.NotifiedAt.IsZero() {
			t.Error("NotifiedAt should be set")
		}
	})

	t.Run("tolerates empty severity counts", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		result := testResult("scan-clean")
		result.SeverityCounts = nil

		if _, err := db.RecordDelivery(ctx, "run-1", result); err != nil {
			t.Fatalf("failed to record delivery: %v", err)
		}

		deliveries, err := db.DeliveriesForScan(ctx, "scan-clean")
		if err != nil {
			t.Fatalf("failed to query deliveries: %v", err)
		}
		if len(deliveries) != 1 {
			t.Fatalf("expected 1 delivery, got %d", len(deliveries))
		}
		if len(deliveries[0].SeverityCounts) != 0 {
			t.Errorf("SeverityCounts = %v, expected none", deliveries[0].SeverityCounts)
		}
	})
}

// TestHistoryDBListDeliveries tests the recent-history query.
func TestHistoryDBListDeliveries(t *testing.T) {
	t.Parallel()

	t.Run("returns newest rows first and honors the limit", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		for _, scanID := range []string{"scan-1", "scan-2", "scan-3"} {
			if _, err := db.RecordDelivery(ctx, "run-1", testResult(scanID)); err != nil {
				t.Fatalf("failed to record delivery: %v", err)
			}
		}

		deliveries, err := db.ListDeliveries(ctx, 2)
		if err != nil {
			t.Fatalf("failed to list deliveries: %v", err)
		}
		if len(deliveries) != 2 {
			t.Fatalf("expected 2 deliveries, got %d", len(deliveries))
		}
		// All rows share one CURRENT_TIMESTAMP second, so the id breaks
		// the tie: the last insert comes back first.
		if deliveries[0].ScanID != "scan-3" || deliveries[1].ScanID != "scan-2" {
			t.Errorf("order = [%s, %s], expected [scan-3, scan-2]",
				deliveries[0].ScanID, deliveries[1].ScanID)
		}
	})

	t.Run("non-positive limit returns everything", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		for _, scanID := range []string{"scan-1", "scan-2", "scan-3"} {
			if _, err := db.RecordDelivery(ctx, "run-1", testResult(scanID)); err != nil {
				t.Fatalf("failed to record delivery: %v", err)
			}
		}

		deliveries, err := db.ListDeliveries(ctx, 0)
		if err != nil {
			t.Fatalf("failed to list deliveries: %v", err)
		}
		if len(deliveries) != 3 {
			t.Errorf("expected 3 deliveries, got %d", len(deliveries))
		}
	})

	t.Run("empty ledger lists nothing", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)

		deliveries, err := db.ListDeliveries(context.Background(), 10)
		if err != nil {
			t.Fatalf("failed to list deliveries: %v", err)
		}
		if len(deliveries) != 0 {
			t.Errorf("expected no deliveries, got %d", len(deliveries))
		}
	})
}

// TestHistoryDBDeliveriesForScan tests the per-scan history query.
func TestHistoryDBDeliveriesForScan(t *testing.T) {
	t.Parallel()

	t.Run("filters rows by scan id", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		// scan-1 was delivered twice (a crash between notification and
		// commit re-delivers on the next run).
		if _, err := db.RecordDelivery(ctx, "run-1", testResult("scan-1")); err != nil {
			t.Fatalf("failed to record delivery: %v", err)
		}
		if _, err := db.RecordDelivery(ctx, "run-2", testResult("scan-1")); err != nil {
			t.Fatalf("failed to record delivery: %v", err)
		}
		if _, err := db.RecordDelivery(ctx, "run-2", testResult("scan-2")); err != nil {
			t.Fatalf("failed to record delivery: %v", err)
		}

		deliveries, err := db.DeliveriesForScan(ctx, "scan-1")
		if err != nil {
			t.Fatalf("failed to query deliveries: %v", err)
		}
		if len(deliveries) != 2 {
			t.Fatalf("expected 2 deliveries, got %d", len(deliveries))
		}
		for _, d := range deliveries {
			if d.ScanID != "scan-1" {
				t.Errorf("ScanID = %q, expected %q", d.ScanID, "scan-1")
			}
		}
		if deliveries[0].RunID != "run-2" {
			t.Errorf("newest RunID = %q, expected %q", deliveries[0].RunID, "run-2")
		}
	})

	t.Run("unknown scan has no rows", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)

		deliveries, err := db.DeliveriesForScan(context.Background(), "scan-unknown")
		if err != nil {
			t.Fatalf("failed to query deliveries: %v", err)
		}
		if len(deliveries) != 0 {
			t.Errorf("expected no deliveries, got %d", len(deliveries))
		}
	})
}

// TestHistoryDBLastDelivery tests the single-row lookup.
func TestHistoryDBLastDelivery(t *testing.T) {
	t.Parallel()

	t.Run("returns the newest delivery", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		if _, err := db.RecordDelivery(ctx, "run-1", testResult("scan-1")); err != nil {
			t.Fatalf("failed to record delivery: %v", err)
		}
		if _, err := db.RecordDelivery(ctx, "run-2", testResult("scan-1")); err != nil {
			t.Fatalf("failed to record delivery: %v", err)
		}

		d, err := db.LastDelivery(ctx, "scan-1")
		if err != nil {
			t.Fatalf("failed to query delivery: %v", err)
		}
		if d == nil {
			t.Fatal("expected a delivery")
		}
		if d.RunID != "run-2" {
			t.Errorf("RunID = %q, expected %q", d.RunID, "run-2")
		}
	})

	t.Run("returns nil for a never-delivered scan", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)

		d, err := db.LastDelivery(context.Background(), "scan-unknown")
		if err != nil {
			t.Fatalf("failed to query delivery: %v", err)
		}
		if d != nil {
			t.Errorf("expected nil, got %+v", d)
		}
	})
}

// TestHistoryDBPruneBefore tests ledger cleanup.
func TestHistoryDBPruneBefore(t *testing.T) {
	t.Parallel()

	t.Run("removes rows older than the cutoff", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		for _, scanID := range []string{"scan-1", "scan-2"} {
			if _, err := db.RecordDelivery(ctx, "run-1", testResult(scanID)); err != nil {
				t.Fatalf("failed to record delivery: %v", err)
			}
		}

		n, err := db.PruneBefore(ctx, time.Now().Add(time.Hour))
		if err != nil {
			t.Fatalf("failed to prune: %v", err)
		}
		if n != 2 {
			t.Errorf("pruned %d rows, expected 2", n)
		}

		deliveries, err := db.ListDeliveries(ctx, 0)
		if err != nil {
			t.Fatalf("failed to list deliveries: %v", err)
		}
		if len(deliveries) != 0 {
			t.Errorf("expected an empty ledger, got %d rows", len(deliveries))
		}
	})

	t.Run("keeps rows newer than the cutoff", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		if _, err := db.RecordDelivery(ctx, "run-1", testResult("scan-1")); err != nil {
			t.Fatalf("failed to record delivery: %v", err)
		}

		n, err := db.PruneBefore(ctx, time.Now().Add(-time.Hour))
		if err != nil {
			t.Fatalf("failed to prune: %v", err)
		}
		if n != 0 {
			t.Errorf("pruned %d rows, expected 0", n)
		}

		deliveries, err := db.ListDeliveries(ctx, 0)
		if err != nil {
			t.Fatalf("failed to list deliveries: %v", err)
		}
		if len(deliveries) != 1 {
			t.Errorf("expected 1 row to survive, got %d", len(deliveries))
		}
	})
}
