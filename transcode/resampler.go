// SPDX-License-Identifier: EPL-2.0

package transcode

import (
	"errors"
	"io"

	"github.com/ik5/wavdac/internal/pcm"
)

// maxEmptyReads bounds how often a source may return nothing without
// reporting EOF.
const maxEmptyReads = 100

// Resampler converts a source to another sample rate by cubic
// interpolation over a four-frame window. Downsampling runs the input
// through a one-pole low-pass first.
type Resampler struct {
	src  Source
	rate int
	ch   int
	step float64

	// win holds frames t-1, t, t+1 and t+2; left counts the real frames
	// from t on, the rest repeat the last frame.
	win    [4][]float32
	left   int
	primed bool
	pos    float64

	in      []float32
	inPos   int
	inLen   int
	srcDone bool

	lowPass bool
	lpState []float32
	lpInit  bool
}

func NewResampler(src Source, rate int) *Resampler {
	ch := src.Channels()
	r := &Resampler{
		src:     src,
		rate:    rate,
		ch:      ch,
		step:    float64(src.SampleRate()) / float64(rate),
		in:      make([]float32, 1024*ch),
		lpState: make([]float32, ch),
	}
	r.lowPass = r.step > 1
	for i := range r.win {
		r.win[i] = make([]float32, ch)
	}
	return r
}

func (r *Resampler) SampleRate() int { return r.rate }
func (r *Resampler) Channels() int   { return r.ch }
func (r *Resampler) Close() error    { return r.src.Close() }

// readFrame copies the next source frame into dst.
func (r *Resampler) readFrame(dst []float32) (bool, error) {
	empty := 0
	for r.inPos >= r.inLen {
		if r.srcDone {
			return false, nil
		}

		n, err := r.src.ReadSamples(r.in)
		r.inPos, r.inLen = 0, n-n%r.ch
		switch {
		case errors.Is(err, io.EOF):
			r.srcDone = true
		case err != nil:
			return false, err
		case n == 0:
			if empty++; empty > maxEmptyReads {
				return false, io.ErrNoProgress
			}
		}
	}

	copy(dst, r.in[r.inPos:r.inPos+r.ch])
	r.inPos += r.ch

	if r.lowPass {
		if !r.lpInit {
			copy(r.lpState, dst)
			r.lpInit = true
		}
		for c := range dst {
			dst[c] = 0.5*dst[c] + 0.5*r.lpState[c]
			r.lpState[c] = dst[c]
		}
	}
	return true, nil
}

func (r *Resampler) prime() error {
	r.primed = true

	ok, err := r.readFrame(r.win[1])
	if err != nil || !ok {
		return err
	}
	copy(r.win[0], r.win[1])
	r.left = 1

	for i := 2; i < 4; i++ {
		ok, err := r.readFrame(r.win[i])
		if err != nil {
			return err
		}
		if !ok {
			copy(r.win[i], r.win[i-1])
			continue
		}
		r.left++
	}
	return nil
}

// shift slides the window one source frame forward.
func (r *Resampler) shift() error {
	r.win[0], r.win[1], r.win[2], r.win[3] = r.win[1], r.win[2], r.win[3], r.win[0]
	r.left--

	ok, err := r.readFrame(r.win[3])
	if err != nil {
		return err
	}
	if ok {
		r.left++
	} else {
		copy(r.win[3], r.win[2])
	}
	return nil
}

// ReadSamples produces interleaved samples at the target rate.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.ch != 0 {
		return 0, ErrInvalidDstSize
	}
	if !r.primed {
		if err := r.prime(); err != nil {
			return 0, err
		}
	}

	frames := len(dst) / r.ch
	written := 0
	for written < frames {
		for r.pos >= 1 && r.left > 0 {
			r.pos--
			if err := r.shift(); err != nil {
				return written * r.ch, err
			}
		}
		if r.left <= 0 {
			return written * r.ch, io.EOF
		}

		x := float32(r.pos)
		out := dst[written*r.ch : (written+1)*r.ch]
		for c := range out {
			out[c] = pcm.CubicInterpolate(r.win[0][c], r.win[1][c], r.win[2][c], r.win[3][c], x)
		}
		written++
		r.pos += r.step
	}
	return written * r.ch, nil
}
