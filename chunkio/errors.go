// SPDX-License-Identifier: EPL-2.0

package chunkio

import (
	"errors"
	"fmt"
	"io"
)

var (
	ErrNotSeekable = errors.New("file does not support seeking backwards")
	ErrNotFile     = errors.New("not a regular file")
	ErrClosed      = errors.New("file already closed")
)

// ChunkIOError describes a read or seek that did not complete. Partial is
// the number of bytes obtained before it stopped.
type ChunkIOError struct {
	Op      string
	Name    string
	Partial int
	EOF     bool
	Err     error
}

func (e *ChunkIOError) Error() string {
	if e.EOF {
		return fmt.Sprintf("%s %s: end of file after %d bytes", e.Op, e.Name, e.Partial)
	}
	return fmt.Sprintf("%s %s: %v (after %d bytes)", e.Op, e.Name, e.Err, e.Partial)
}

func (e *ChunkIOError) Unwrap() error { return e.Err }

// IsEOF reports whether err is an end-of-file condition, either a
// *ChunkIOError with EOF set or io.EOF itself.
func IsEOF(err error) bool {
	var cerr *ChunkIOError
	if errors.As(err, &cerr) {
		return cerr.EOF
	}
	return errors.Is(err, io.EOF)
}
