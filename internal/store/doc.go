// Package store persists the set of scan IDs that have already been
// processed and delivered, so repeated runs never notify twice for the
// same scan.
//
// The on-disk format is a single JSON array of scan IDs, sorted for
// stable diffs. The whole file is rewritten on every commit; the set
// grows by one entry per delivered scan, so rewrite cost never matters.
//
// Design decision: The store never returns errors. A missing or
// malformed file degrades to an empty set, and a failed write is logged
// and swallowed. Both failure modes reduce to the same outcome: a scan
// may be processed again next run and the recipient sees one duplicate
// notification. That is the at-least-once trade this tool makes on
// purpose; refusing to run would cost the whole batch instead.
package store
