// SPDX-License-Identifier: EPL-2.0

package transcode

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/ik5/wavdac/internal/pcm"
	"github.com/ik5/wavdac/wave"
)

const (
	DefaultSampleRate = 8000
	defaultChunk      = 4096
)

type Options struct {
	// SampleRate of the output; DefaultSampleRate when zero.
	SampleRate int
	// Gain scales every sample before quantization; 1 when zero.
	Gain float32
	// Registry picks decoders in ConvertFile; DefaultRegistry when nil.
	Registry *Registry
}

func (o Options) withDefaults() Options {
	if o.SampleRate == 0 {
		o.SampleRate = DefaultSampleRate
	}
	if o.Gain == 0 {
		o.Gain = 1
	}
	if o.Registry == nil {
		o.Registry = DefaultRegistry()
	}
	return o
}

// Result describes a finished conversion.
type Result struct {
	SourceRate     int
	SourceChannels int
	SampleRate     int
	Frames         int
	// Clipped counts samples that left [-1, 1] after gain.
	Clipped int
}

// Convert resamples src, mixes it to mono and writes it to w as an 8-bit
// mono PCM WAVE file, the format the player streams best. src is not
// closed.
func Convert(src Source, w io.WriteSeeker, opts Options) (Result, error) {
	opts = opts.withDefaults()
	if opts.SampleRate < 1 || opts.SampleRate > wave.MaxSampleRate {
		return Result{}, fmt.Errorf("%w: %d", ErrSampleRate, opts.SampleRate)
	}

	res := Result{
		SourceRate:     src.SampleRate(),
		SourceChannels: src.Channels(),
		SampleRate:     opts.SampleRate,
	}

	var chain Source = src
	if src.SampleRate() != opts.SampleRate {
		chain = NewResampler(chain, opts.SampleRate)
	}
	chain = NewMonoMixer(chain)

	enc := wav.NewEncoder(w, opts.SampleRate, 8, 1, 1)
	in := make([]float32, defaultChunk)
	out := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: opts.SampleRate},
		Data:           make([]int, 0, defaultChunk),
		SourceBitDepth: 8,
	}

	empty := 0
	for {
		n, err := chain.ReadSamples(in)
		if err != nil && !errors.Is(err, io.EOF) {
			return res, fmt.Errorf("reading source: %w", err)
		}

		if n > 0 {
			empty = 0
			out.Data = out.Data[:0]
			for _, s := range in[:n] {
				s *= opts.Gain
				if s > 1 || s < -1 {
					res.Clipped++
				}
				out.Data = append(out.Data, int(pcm.Float32ToUint8(s)))
			}
			if werr := enc.Write(out); werr != nil {
				return res, fmt.Errorf("writing samples: %w", werr)
			}
			res.Frames += n
		} else if err == nil {
			if empty++; empty > maxEmptyReads {
				return res, io.ErrNoProgress
			}
		}

		if errors.Is(err, io.EOF) {
			break
		}
	}

	if err := enc.Close(); err != nil {
		return res, fmt.Errorf("finishing wave file: %w", err)
	}
	return res, nil
}

// ConvertFile decodes in, picking the decoder by extension, and writes
// the converted file to out.
func ConvertFile(in, out string, opts Options) (Result, error) {
	opts = opts.withDefaults()

	dec, ok := opts.Registry.ForFile(in)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownFormat, filepath.Ext(in))
	}

	f, err := os.Open(in)
	if err != nil {
		return Result{}, fmt.Errorf("opening input: %w", err)
	}
	defer f.Close()

	src, err := dec.Decode(f)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", in, err)
	}
	defer src.Close()

	dst, err := os.Create(out)
	if err != nil {
		return Result{}, fmt.Errorf("creating output: %w", err)
	}

	res, err := Convert(src, dst, opts)
	if cerr := dst.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("closing output: %w", cerr)
	}
	if err != nil {
		os.Remove(out)
		return res, err
	}
	return res, nil
}
