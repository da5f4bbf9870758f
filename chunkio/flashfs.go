// SPDX-License-Identifier: EPL-2.0

package chunkio

import (
	"fmt"
	"io"
	"io/fs"
	"path"
	"slices"
)

// FlashFileSystem reads files packaged into the binary or mounted as an
// fs.FS, such as an embed.FS holding the sound set. Names use slash
// separated fs.FS paths.
type FlashFileSystem struct {
	FS fs.FS
}

func (f FlashFileSystem) Open(name string) (File, error) {
	file, err := f.FS.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat %s: %w", name, err)
	}
	if !info.Mode().IsRegular() {
		file.Close()
		return nil, fmt.Errorf("open %s: %w", name, ErrNotFile)
	}

	if rs, ok := file.(io.ReadSeeker); ok {
		return &seekFile{rs: rs, c: file}, nil
	}
	return &streamFile{r: file, c: file}, nil
}

func (f FlashFileSystem) List(dir string) ([]string, error) {
	if dir == "" {
		dir = "."
	}

	entries, err := fs.ReadDir(f.FS, dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		names = append(names, path.Join(dir, e.Name()))
	}
	slices.Sort(names)

	return names, nil
}

// streamFile serves files that cannot seek. Forward seeks discard bytes.
type streamFile struct {
	r      io.Reader
	c      io.Closer
	closed bool
}

func (f *streamFile) Read(dst []byte) Result {
	if f.closed {
		return Result{Kind: KindError, Err: ErrClosed}
	}
	return readFull(f.r, dst)
}

func (f *streamFile) SeekRelative(offset int64) error {
	if f.closed {
		return ErrClosed
	}
	if offset < 0 {
		return ErrNotSeekable
	}

	n, err := io.CopyN(io.Discard, f.r, offset)
	if err == io.EOF {
		return &ChunkIOError{Op: "seek", Partial: int(n), EOF: true, Err: io.EOF}
	}
	if err != nil {
		return fmt.Errorf("seek %d: %w", offset, err)
	}
	return nil
}

func (f *streamFile) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	return f.c.Close()
}
