// SPDX-License-Identifier: EPL-2.0

package chunkio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
)

// OSFileSystem reads files through the operating system. Names are used as
// given, relative to the working directory unless absolute.
type OSFileSystem struct{}

func (OSFileSystem) Open(name string) (File, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", name, err)
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, fmt.Errorf("open %s: %w", name, ErrNotFile)
	}

	return &seekFile{rs: f, c: f}, nil
}

// List returns the regular files in dir, joined with dir and sorted.
func (OSFileSystem) List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		names = append(names, filepath.Join(dir, e.Name()))
	}
	slices.Sort(names)

	return names, nil
}

// seekFile adapts an io.ReadSeeker to File.
type seekFile struct {
	rs     io.ReadSeeker
	c      io.Closer
	closed bool
}

func (f *seekFile) Read(dst []byte) Result {
	if f.closed {
		return Result{Kind: KindError, Err: ErrClosed}
	}
	return readFull(f.rs, dst)
}

func (f *seekFile) SeekRelative(offset int64) error {
	if f.closed {
		return ErrClosed
	}
	if _, err := f.rs.Seek(offset, io.SeekCurrent); err != nil {
		return fmt.Errorf("seek %d: %w", offset, err)
	}
	return nil
}

func (f *seekFile) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	if f.c == nil {
		return nil
	}
	return f.c.Close()
}
