package model

import (
	"encoding/json"
	"testing"
)

// TestScanStatusPredicates tests the IsCompleted and IsTerminal methods.
func TestScanStatusPredicates(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		status      ScanStatus
		isCompleted bool
		isTerminal  bool
	}{
		{ScanStatusScheduled, false, false},
		{ScanStatusRunning, false, false},
		{ScanStatusCompleted, true, true},
		{ScanStatusFailed, false, true},
		{ScanStatusStopped, false, true},
		{ScanStatus("something_new"), false, false},
	}

	for _, tc := range testCases {
		t.Run(tc.status.String(), func(t *testing.T) {
			t.Parallel()
			if tc.status.IsCompleted() != tc.isCompleted {
				t.Errorf("IsCompleted() = %v, expected %v", tc.status.IsCompleted(), tc.isCompleted)
			}
			if tc.status.IsTerminal() != tc.isTerminal {
				t.Errorf("IsTerminal() = %v, expected %v", tc.status.IsTerminal(), tc.isTerminal)
			}
		})
	}
}

// TestScanDisplayName tests the DisplayName fallback chain.
func TestScanDisplayName(t *testing.T) {
	t.Parallel()

	t.Run("uses description when present", func(t *testing.T) {
		t.Parallel()

		scan := Scan{Target: Target{Address: "https://app.example.com", Description: "Production App"}}
		if got := scan.DisplayName(); got != "Production App" {
			t.Errorf("got %q, expected %q", got, "Production App")
		}
	})

	t.Run("falls back to address", func(t *testing.T) {
		t.Parallel()

		scan := Scan{Target: Target{Address: "https://app.example.com"}}
		if got := scan.DisplayName(); got != "https://app.example.com" {
			t.Errorf("got %q, expected %q", got, "https://app.example.com")
		}
	})

	t.Run("falls back to placeholder", func(t *testing.T) {
		t.Parallel()

		scan := Scan{}
		if got := scan.DisplayName(); got != "Unknown Target" {
			t.Errorf("got %q, expected %q", got, "Unknown Target")
		}
	})
}

// TestScanJSONDecoding tests that the wire format of the scanning service
// decodes into the fields the reconciliation flow reads.
func TestScanJSONDecoding(t *testing.T) {
	t.Parallel()

	payload := `{
		"scan_id": "b0f8ae20-37ae-4f1e-97f3-d4a0c9c3a5d1",
		"target_id": "c6f2a7f4-1f0e-43a9-8a8a-2e9fb1e6cf02",
		"profile_id": "11111111-1111-1111-1111-111111111111",
		"target": {
			"address": "https://shop.example.com",
			"description": "Webshop (staging)",
			"criticality": 30
		},
		"current_session": {
			"status": "completed",
			"start_date": "2026-03-01T04:00:00+00:00",
			"severity_counts": {"high": 2, "medium": 5, "low": 1, "info": 9},
			"progress": 100
		}
	}`

	var scan Scan
	if err := json.Unmarshal([]byte(payload), &scan); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if scan.ScanID != "b0f8ae20-37ae-4f1e-97f3-d4a0c9c3a5d1" {
		t.Errorf("unexpected scan_id: %q", scan.ScanID)
	}
	if scan.TargetID != "c6f2a7f4-1f0e-43a9-8a8a-2e9fb1e6cf02" {
		t.Errorf("unexpected target_id: %q", scan.TargetID)
	}
	if scan.Target.Description != "Webshop (staging)" {
		t.Errorf("unexpected description: %q", scan.Target.Description)
	}
	if scan.CurrentSession.Status != ScanStatusCompleted {
		t.Errorf("unexpected status: %q", scan.CurrentSession.Status)
	}
	if scan.CurrentSession.SeverityCounts["high"] != 2 {
		t.Errorf("unexpected high count: %d", scan.CurrentSession.SeverityCounts["high"])
	}
	if scan.CurrentSession.StartDate != "2026-03-01T04:00:00+00:00" {
		t.Errorf("unexpected start_date: %q", scan.CurrentSession.StartDate)
	}
}
