// SPDX-License-Identifier: EPL-2.0

package transcode

import (
	"bytes"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// pcmReader is the part of the go-audio decoders a source reads from.
type pcmReader interface {
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// intSource converts go-audio integer buffers to float32.
type intSource struct {
	dec        pcmReader
	sampleRate int
	channels   int
	scale      float32
	offset     int
	buf        *goaudio.IntBuffer
}

func newIntSource(dec pcmReader, format *goaudio.Format, bits int, unsigned8 bool) (*intSource, error) {
	s := &intSource{
		dec:        dec,
		sampleRate: format.SampleRate,
		channels:   format.NumChannels,
		buf:        &goaudio.IntBuffer{Format: format},
	}

	switch bits {
	case 8:
		s.scale = 128
		if unsigned8 {
			s.offset = 128
		}
	case 16:
		s.scale = 32768
	case 24:
		s.scale = 8388608
	case 32:
		s.scale = 2147483648
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBits, bits)
	}
	return s, nil
}

func (s *intSource) SampleRate() int { return s.sampleRate }
func (s *intSource) Channels() int   { return s.channels }
func (s *intSource) Close() error    { return nil }

func (s *intSource) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	if cap(s.buf.Data) < len(dst) {
		s.buf.Data = make([]int, len(dst))
	}
	s.buf.Data = s.buf.Data[:len(dst)]

	n, err := s.dec.PCMBuffer(s.buf)
	for i, v := range s.buf.Data[:n] {
		dst[i] = float32(v-s.offset) / s.scale
	}

	if err != nil && err != io.EOF {
		return n, fmt.Errorf("decoding pcm: %w", err)
	}
	if n < len(dst) {
		return n, io.EOF
	}
	return n, nil
}

// seekable returns r as an io.ReadSeeker, buffering it in memory if it
// cannot seek. The go-audio decoders need to seek.
func seekable(r io.Reader) (io.ReadSeeker, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		return rs, nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("buffering input: %w", err)
	}
	return bytes.NewReader(data), nil
}

// WAVDecoder decodes PCM WAVE files of any layout and bit depth that
// go-audio reads.
type WAVDecoder struct{}

func (WAVDecoder) Decode(r io.Reader) (Source, error) {
	rs, err := seekable(r)
	if err != nil {
		return nil, err
	}

	dec := wav.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrNotWAVE
	}
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return nil, fmt.Errorf("reading wave header: %w", err)
	}

	format := dec.Format()
	if format == nil || format.NumChannels == 0 {
		return nil, ErrNotWAVE
	}
	return newIntSource(dec, format, int(dec.BitDepth), true)
}
