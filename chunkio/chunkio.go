// SPDX-License-Identifier: EPL-2.0

package chunkio

import (
	"fmt"
	"io"
)

// Kind classifies the outcome of a chunk read.
type Kind uint8

const (
	// KindOK means the destination was filled completely.
	KindOK Kind = iota
	// KindEOF means the source ended after N bytes.
	KindEOF
	// KindError means the read failed after N bytes for a reason other
	// than end of file.
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindEOF:
		return "eof"
	case KindError:
		return "error"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Result is the outcome of File.Read. Err is set only for KindError.
type Result struct {
	N    int
	Kind Kind
	Err  error
}

// OK reports whether the read filled the destination.
func (r Result) OK() bool { return r.Kind == KindOK }

// EOF reports whether the source ended during the read.
func (r Result) EOF() bool { return r.Kind == KindEOF }

// Error converts a non-OK result into a *ChunkIOError. It returns nil for
// KindOK.
func (r Result) Error(op, name string) error {
	switch r.Kind {
	case KindOK:
		return nil
	case KindEOF:
		return &ChunkIOError{Op: op, Name: name, Partial: r.N, EOF: true, Err: io.EOF}
	default:
		return &ChunkIOError{Op: op, Name: name, Partial: r.N, Err: r.Err}
	}
}

// File is the capability the stream needs from an open audio file.
type File interface {
	// Read fills dst completely or reports how many bytes it obtained and
	// why it stopped.
	Read(dst []byte) Result
	// SeekRelative moves the read position by offset bytes.
	SeekRelative(offset int64) error
	Close() error
}

// FileSystem opens files and lists directories. OSFileSystem and
// FlashFileSystem are the two variants.
type FileSystem interface {
	Open(name string) (File, error)
	List(dir string) ([]string, error)
}

// readFull is shared by the file variants to map io errors onto a Result.
func readFull(r io.Reader, dst []byte) Result {
	if len(dst) == 0 {
		return Result{Kind: KindOK}
	}

	n, err := io.ReadFull(r, dst)
	switch err {
	case nil:
		return Result{N: n, Kind: KindOK}
	case io.EOF, io.ErrUnexpectedEOF:
		return Result{N: n, Kind: KindEOF}
	default:
		return Result{N: n, Kind: KindError, Err: err}
	}
}
