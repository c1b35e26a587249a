// Package reconcile implements the run loop that turns completed scans
// into delivered reports.
//
// One run lists every scan the scanning service knows about, filters out
// scans that were already delivered or whose results are not final, and
// pushes the remainder through the report protocol: generate, poll until
// ready, download. The batch of downloaded reports is then handed to the
// notifier, and only a successful notification commits the scan ids to
// the processed set, so a failed delivery is retried wholesale on the
// next run.
//
// Design decision: We process scans strictly sequentially rather than
// with a worker pool because:
// 1. A run handles a handful of scans and its latency is dominated by
//    report generation on the service side, not by local throughput
// 2. The processed set and the run digest stay single-owner values with
//    no locking to get wrong
// 3. Results keep the service's listing order, which makes logs and the
//    emailed digest easy to cross-reference
//
// Design decision: The engine depends on narrow consumer-side interfaces
// (ScanService, ProcessedSet, Notifier) instead of the concrete client,
// store, and notifier types so the run loop is testable with hand-rolled
// fakes, without a live scanning service or an SMTP server.
package reconcile
