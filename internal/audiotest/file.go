// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"errors"
	"sync"

	"github.com/ik5/wavdac/chunkio"
)

// ErrInjected is returned by MemFile once FailAt is reached.
var ErrInjected = errors.New("injected read failure")

// MemFile is an in-memory chunkio.File. When FailAt is non-negative, any
// read reaching that offset fails with ErrInjected after delivering the
// bytes before it.
type MemFile struct {
	mu     sync.Mutex
	data   []byte
	pos    int
	FailAt int
	closed bool
	reads  []int
}

func NewMemFile(data []byte) *MemFile {
	return &MemFile{data: data, FailAt: -1}
}

func (m *MemFile) Read(dst []byte) chunkio.Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reads = append(m.reads, len(dst))
	if len(dst) == 0 {
		return chunkio.Result{Kind: chunkio.KindOK}
	}

	end := m.pos + len(dst)
	if m.FailAt >= 0 && end > m.FailAt {
		lo := min(m.pos, len(m.data))
		hi := max(lo, min(m.FailAt, len(m.data)))
		n := copy(dst, m.data[lo:hi])
		m.pos += n
		return chunkio.Result{N: n, Kind: chunkio.KindError, Err: ErrInjected}
	}

	n := copy(dst, m.data[min(m.pos, len(m.data)):])
	m.pos += n
	if n < len(dst) {
		return chunkio.Result{N: n, Kind: chunkio.KindEOF}
	}
	return chunkio.Result{N: n, Kind: chunkio.KindOK}
}

func (m *MemFile) SeekRelative(offset int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	pos := m.pos + int(offset)
	if pos < 0 {
		return chunkio.ErrNotSeekable
	}
	m.pos = pos
	return nil
}

func (m *MemFile) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MemFile) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.closed
}

// Reads returns the sizes of every Read request so far.
func (m *MemFile) Reads() []int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]int(nil), m.reads...)
}

// Offset is the current read position.
func (m *MemFile) Offset() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.pos
}
