// Package model defines the core data structures used throughout scanherald.
//
// This package contains the following main types:
//   - Scan: A scan entry as listed by the scanning service
//   - Report: The state of a report generation job
//   - ScanResult: A snapshot of one successfully processed scan
//   - RunDigest: The summary of a whole reconciliation run
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (acunetix, reconcile, notify, summary) need
// to use these types, so centralizing them prevents import cycles.
//
// The models mirror the service's JSON wire format where they are decoded
// from it, and are serializable to JSON for the delivery ledger and digest
// output.
package model
