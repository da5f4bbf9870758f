// SPDX-License-Identifier: EPL-2.0

package transcode

import (
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"
)

// floatReader is the part of an oggvorbis.Reader the source reads from.
// Read returns the number of values, not frames.
type floatReader interface {
	Read(p []float32) (int, error)
}

type floatSource struct {
	r          floatReader
	sampleRate int
	channels   int
}

func (s *floatSource) SampleRate() int { return s.sampleRate }
func (s *floatSource) Channels() int   { return s.channels }
func (s *floatSource) Close() error    { return nil }

func (s *floatSource) ReadSamples(dst []float32) (int, error) {
	// Whole frames only.
	dst = dst[:len(dst)-len(dst)%s.channels]
	if len(dst) == 0 {
		return 0, nil
	}

	n, err := s.r.Read(dst)
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("decoding vorbis: %w", err)
	}
	return n, err
}

// VorbisDecoder decodes Ogg Vorbis streams.
type VorbisDecoder struct{}

func (VorbisDecoder) Decode(r io.Reader) (Source, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening ogg vorbis: %w", err)
	}

	return &floatSource{r: dec, sampleRate: dec.SampleRate(), channels: dec.Channels()}, nil
}
