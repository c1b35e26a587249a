// Package acunetix provides a REST client for Acunetix-compatible
// scanning services (API v1).
//
// The client covers exactly the operations one reconciliation run needs:
// listing scans, reading a single scan, requesting report generation,
// polling a report, downloading the finished artifact, and deleting
// remote reports after delivery. It is not a general API binding.
//
// Design decision: We build the transport on hashicorp/go-retryablehttp
// rather than hand-rolling a retry loop because:
//  1. The retry policy we need (transient HTTP statuses plus
//     connection-level failures, exponential backoff) is exactly what
//     the library models
//  2. It handles body rewinding between attempts, which is easy to get
//     wrong with POST payloads
//  3. Only the policy hooks (CheckRetry, Backoff) need to be ours, so
//     the wire behavior stays small and auditable
//
// Design decision: All operations take a context.Context and return
// explicit errors except DownloadReport, which returns a bare bool.
// The caller treats a missing artifact exactly like any other per-scan
// failure and moves on to the remaining scans, so an error value would
// add a branch nobody takes. Download failures are logged here, where
// the URL and destination path are known.
package acunetix
