// Package notify delivers the results of a reconciliation run to humans.
//
// The only implementation is EmailNotifier, which sends one mail per run:
// an HTML body with a per-scan table, a plain-text alternative rendered
// from the Markdown digest, and the downloaded report artifacts attached.
//
// Design decision: We send mail with wneessen/go-mail instead of net/smtp
// because:
//  1. net/smtp is frozen and leaves STARTTLS negotiation, auth selection
//     and MIME assembly to the caller
//  2. Multipart alternative bodies plus file attachments are exactly the
//     messages go-mail builds well
//  3. Its client honors context cancellation, which keeps an unattended
//     cron run from hanging on a dead mail server
//
// Delivery is all-or-nothing per run: one message covers every processed
// scan, and the caller only commits scans after Notify returns nil. A
// failed delivery therefore reschedules the whole batch instead of
// losing it.
package notify
