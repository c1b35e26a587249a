// Package summary renders a finished reconciliation run as human-readable
// text, as Markdown, and as JSON.
//
// Three writers share the Writer interface: TextWriter prints the terminal
// digest at the end of a run, MarkdownWriter produces the document written
// to the history directory and reused as the plain-text alternative of the
// notification mail, and JSONWriter emits the machine-readable digest for
// cron wrappers and downstream tooling.
//
// Design decision: Writers consume the immutable model.RunDigest rather
// than live engine state. The digest is complete by construction, so a
// writer can never observe a half-finished run, and the same value can be
// rendered any number of times in any format.
package summary
