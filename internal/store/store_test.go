package store

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

// discardLogger silences log output in tests.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeProcessedFile seeds a processed-scans file with raw content.
func writeProcessedFile(t *testing.T, path, content string) {
	t.Helper()

	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing processed file: %v", err)
	}
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("starts empty when the file does not exist", func(t *testing.T) {
		t.Parallel()

		s := Open(filepath.Join(t.TempDir(), "processed.json"), discardLogger())
		if s.Len() != 0 {
			t.Errorf("Len() = %d, expected 0", s.Len())
		}
		if s.Contains("scan-1") {
			t.Error("Contains(scan-1) = true, expected false for an empty store")
		}
	})

	t.Run("starts empty when the file is not JSON", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "processed.json")
		writeProcessedFile(t, path, "not json at all")

		s := Open(path, discardLogger())
		if s.Len() != 0 {
			t.Errorf("Len() = %d, expected 0 for a malformed file", s.Len())
		}
	})

	t.Run("starts empty when the file holds the wrong JSON shape", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "processed.json")
		writeProcessedFile(t, path, `{"scan-1": true}`)

		s := Open(path, discardLogger())
		if s.Len() != 0 {
			t.Errorf("Len() = %d, expected 0 for an object instead of an array", s.Len())
		}
	})

	t.Run("loads previously committed ids", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "processed.json")
		writeProcessedFile(t, path, `["scan-1", "scan-2"]`)

		s := Open(path, discardLogger())
		if s.Len() != 2 {
			t.Fatalf("Len() = %d, expected 2", s.Len())
		}
		if !s.Contains("scan-1") {
			t.Error("Contains(scan-1) = false, expected true")
		}
		if !s.Contains("scan-2") {
			t.Error("Contains(scan-2) = false, expected true")
		}
		if s.Contains("scan-3") {
			t.Error("Contains(scan-3) = true, expected false")
		}
	})

	t.Run("drops empty ids from the file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "processed.json")
		writeProcessedFile(t, path, `["", "scan-1"]`)

		s := Open(path, discardLogger())
		if s.Len() != 1 {
			t.Errorf("Len() = %d, expected 1", s.Len())
		}
	})
}

func TestStoreCommit(t *testing.T) {
	t.Parallel()

	t.Run("persists the id so a fresh open sees it", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "processed.json")

		first := Open(path, discardLogger())
		first.Commit("scan-1")

		second := Open(path, discardLogger())
		if !second.Contains("scan-1") {
			t.Error("Contains(scan-1) = false after reopening, expected true")
		}
	})

	t.Run("creates missing parent directories", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "state", "nested", "processed.json")

		s := Open(path, discardLogger())
		s.Commit("scan-1")

		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected the processed file to exist: %v", err)
		}
	})

	t.Run("writes a sorted JSON array", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "processed.json")

		s := Open(path, discardLogger())
		s.Commit("scan-b")
		s.Commit("scan-a")
		s.Commit("scan-c")

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("reading processed file: %v", err)
		}

		var ids []string
		if err := json.Unmarshal(data, &ids); err != nil {
			t.Fatalf("processed file is not a JSON array: %v", err)
		}
		expected := []string{"scan-a", "scan-b", "scan-c"}
		if len(ids) != len(expected) {
			t.Fatalf("got %d ids, expected %d", len(ids), len(expected))
		}
		for i, id := range expected {
			if ids[i] != id {
				t.Errorf("ids[%d] = %q, expected %q", i, ids[i], id)
			}
		}
	})

	t.Run("ignores duplicate and empty commits", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "processed.json")

		s := Open(path, discardLogger())
		s.Commit("scan-1")
		s.Commit("scan-1")
		s.Commit("")

		if s.Len() != 1 {
			t.Errorf("Len() = %d, expected 1", s.Len())
		}
	})

	t.Run("keeps the id in memory when the write fails", func(t *testing.T) {
		t.Parallel()

		// A regular file in the directory position makes MkdirAll fail.
		blocker := filepath.Join(t.TempDir(), "blocker")
		writeProcessedFile(t, blocker, "file, not a directory")

		s := Open(filepath.Join(blocker, "sub", "processed.json"), discardLogger())
		s.Commit("scan-1")

		if !s.Contains("scan-1") {
			t.Error("Contains(scan-1) = false, expected the commit to stay in memory")
		}
	})
}
