package store

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

// File and directory modes for the persisted set. Nothing in the file is
// sensitive, but there is no reason for it to be group-writable either.
const (
	filePerm = 0600
	dirPerm  = 0750
)

// Store tracks which scan IDs were already processed and delivered.
// It loads once at open and rewrites the file on every commit.
//
// Store is not safe for concurrent use: one reconciliation run owns it
// from open to the last commit.
type Store struct {
	// path is the JSON file the set persists to.
	path string

	// processed is the in-memory set of committed scan IDs.
	processed map[string]struct{}

	// logger records load and persistence problems.
	logger *slog.Logger
}

// Open loads the processed-scan set from path.
//
// Open never fails: a missing, unreadable, or malformed file starts an
// empty set with a warning. Re-processing a scan costs one duplicate
// notification; refusing to run costs the whole batch, so the tolerant
// reading wins.
func Open(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		path:      path,
		processed: make(map[string]struct{}),
		logger:    logger,
	}
	s.load()
	return s
}

// load reads the JSON array from disk into the in-memory set.
func (s *Store) load() {
	data, err := os.ReadFile(s.path) //nolint:gosec // the path comes from the user's own config
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Debug("no processed-scans file yet, starting empty", "path", s.path)
		} else {
			s.logger.Warn("could not read processed-scans file, starting empty", "path", s.path, "error", err)
		}
		return
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		s.logger.Warn("processed-scans file is malformed, starting empty", "path", s.path, "error", err)
		return
	}

	for _, id := range ids {
		if id == "" {
			continue
		}
		s.processed[id] = struct{}{}
	}
	s.logger.Debug("loaded processed scans", "path", s.path, "count", len(s.processed))
}

// Contains reports whether scanID was committed by an earlier run.
func (s *Store) Contains(scanID string) bool {
	_, ok := s.processed[scanID]
	return ok
}

// Len returns the number of committed scan IDs.
func (s *Store) Len() int {
	return len(s.processed)
}

// Commit adds scanID to the set and rewrites the file. Committing an
// already-present or empty ID is a no-op.
//
// A persistence failure is logged, not returned: the ID stays committed
// in memory so this run behaves consistently, and the next run simply
// processes the scan again.
func (s *Store) Commit(scanID string) {
	if scanID == "" {
		return
	}
	if _, ok := s.processed[scanID]; ok {
		return
	}

	s.processed[scanID] = struct{}{}
	s.persist()
}

// persist writes the whole set as a sorted, indented JSON array. The
// full rewrite keeps the file a single valid JSON document at all times.
func (s *Store) persist() {
	ids := make([]string, 0, len(s.processed))
	for id := range s.processed {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	data, err := json.MarshalIndent(ids, "", "  ")
	if err != nil {
		s.logger.Error("could not encode processed scans", "path", s.path, "error", err)
		return
	}

	if dir := filepath.Dir(s.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			s.logger.Error("could not create processed-scans directory", "path", dir, "error", err)
			return
		}
	}

	if err := os.WriteFile(s.path, data, filePerm); err != nil {
		s.logger.Error("could not write processed-scans file", "path", s.path, "error", err)
	}
}
