// SPDX-License-Identifier: EPL-2.0

package chunkio

// Limit returns a File that reports KindEOF once n bytes have been read
// from f. Closing it closes f.
func Limit(f File, n int64) File {
	return &limitFile{f: f, remaining: n}
}

type limitFile struct {
	f         File
	remaining int64
}

func (l *limitFile) Read(dst []byte) Result {
	if int64(len(dst)) <= l.remaining {
		res := l.f.Read(dst)
		l.remaining -= int64(res.N)
		return res
	}

	res := l.f.Read(dst[:l.remaining])
	l.remaining -= int64(res.N)
	if res.Kind == KindOK {
		res.Kind = KindEOF
	}
	return res
}

// SeekRelative keeps the limit in step with the position of f.
func (l *limitFile) SeekRelative(offset int64) error {
	if err := l.f.SeekRelative(offset); err != nil {
		return err
	}
	l.remaining -= offset
	if l.remaining < 0 {
		l.remaining = 0
	}
	return nil
}

func (l *limitFile) Close() error { return l.f.Close() }
