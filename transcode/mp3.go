// SPDX-License-Identifier: EPL-2.0

package transcode

import (
	"encoding/binary"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"
)

// byteReader is the part of a go-mp3 decoder the source reads from.
type byteReader interface {
	Read(p []byte) (int, error)
}

// s16Source reads interleaved signed 16-bit little-endian PCM.
type s16Source struct {
	r          byteReader
	sampleRate int
	channels   int
	buf        []byte
	// pending holds the first byte of a sample split across two reads.
	pending []byte
}

func (s *s16Source) SampleRate() int { return s.sampleRate }
func (s *s16Source) Channels() int   { return s.channels }
func (s *s16Source) Close() error    { return nil }

func (s *s16Source) ReadSamples(dst []float32) (int, error) {
	need := len(dst) * 2
	if cap(s.buf) < need {
		s.buf = make([]byte, need)
	}
	s.buf = s.buf[:need]

	k := copy(s.buf, s.pending)
	s.pending = s.pending[:0]

	n, err := s.r.Read(s.buf[k:])
	n += k
	if n%2 == 1 {
		s.pending = append(s.pending, s.buf[n-1])
		n--
	}

	samples := n / 2
	for i := range samples {
		dst[i] = float32(int16(binary.LittleEndian.Uint16(s.buf[2*i:]))) / 32768
	}

	if err != nil && err != io.EOF {
		return samples, fmt.Errorf("decoding mp3: %w", err)
	}
	return samples, err
}

// MP3Decoder decodes MPEG-1/2 Layer III. go-mp3 always yields stereo.
type MP3Decoder struct{}

func (MP3Decoder) Decode(r io.Reader) (Source, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("opening mp3: %w", err)
	}

	return &s16Source{r: dec, sampleRate: dec.SampleRate(), channels: 2}, nil
}
