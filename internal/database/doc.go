// Package database provides the SQLite-backed delivery ledger.
//
// The ledger records every report delivery: which scan, which target,
// where the artifact was written, and when the notification went out.
// The processed-set file answers "was this scan delivered?"; the ledger
// answers "what did we send, and when?" for operators auditing past runs.
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of
// growing the processed-set file into a history format because:
// 1. No external dependencies - the ledger is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. History queries (recent deliveries, per-scan lookups) are real
//    queries, not full-file scans
// 4. WAL mode keeps concurrent history reads cheap while a run writes
package database
