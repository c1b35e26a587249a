package summary

import (
	"io"

	"github.com/scanherald/scanherald/internal/model"
)

// Writer renders a finished run digest to some destination.
//
// Design decision: We use an interface so the run command can fan the
// same digest out to the terminal, the history directory, and the mail
// body without caring about formats.
type Writer interface {
	// Write renders the digest to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(digest *model.RunDigest) (int, error)
}

// MultiWriter writes the same digest to several Writers in order.
//
// Design decision: We implement this as a separate type rather than
// using io.MultiWriter because our Writer interface is different from
// io.Writer - we write digests, not raw bytes.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write renders the digest to every writer, stopping on the first error.
// It returns the total bytes written across all writers.
func (m *MultiWriter) Write(digest *model.RunDigest) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(digest)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides the shared output destination for writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
