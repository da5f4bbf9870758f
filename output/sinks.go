// SPDX-License-Identifier: EPL-2.0

package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// NullDAC accepts samples and only counts them. It stands in for hardware
// when there is nothing to play through.
type NullDAC struct {
	n atomic.Uint64
}

func (d *NullDAC) WriteSample(uint8) error {
	d.n.Add(1)
	return nil
}

func (d *NullDAC) Count() uint64 { return d.n.Load() }

// WriterDAC holds the last written level and sends it to w on every tick
// as raw unsigned 8-bit mono, suitable for `aplay -t raw -f U8`. A raw
// stream has one rate, so files at another rate than the first are
// refused.
type WriterDAC struct {
	mu    sync.Mutex
	w     *bufio.Writer
	level uint8
	rate  fixedRate
}

func NewWriterDAC(w io.Writer) *WriterDAC {
	return &WriterDAC{w: bufio.NewWriter(w), level: initialLevel}
}

func (d *WriterDAC) WriteSample(v uint8) error {
	d.mu.Lock()
	d.level = v
	d.mu.Unlock()
	return nil
}

func (d *WriterDAC) SetSampleRate(hz int) error { return d.rate.set(hz) }

// SampleRate is the rate of the stream, 0 before the first file.
func (d *WriterDAC) SampleRate() int { return d.rate.get() }

func (d *WriterDAC) Latch() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.w.WriteByte(d.level)
}

func (d *WriterDAC) Flush() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.w.Flush()
}

// DefaultRecordRate is used to save a recording that never played a file.
const DefaultRecordRate = 8000

// Recorder captures the held level on every tick so a session can be
// saved as a WAVE file. It records at the rate of the first file played
// and refuses files at other rates.
type Recorder struct {
	mu      sync.Mutex
	level   uint8
	samples []uint8
	rate    fixedRate
}

func NewRecorder() *Recorder {
	return &Recorder{level: initialLevel}
}

func (r *Recorder) WriteSample(v uint8) error {
	r.mu.Lock()
	r.level = v
	r.mu.Unlock()
	return nil
}

func (r *Recorder) SetSampleRate(hz int) error { return r.rate.set(hz) }

// SampleRate is the rate the recording was ticked at, 0 before the first
// file.
func (r *Recorder) SampleRate() int { return r.rate.get() }

func (r *Recorder) Latch() error {
	r.mu.Lock()
	r.samples = append(r.samples, r.level)
	r.mu.Unlock()
	return nil
}

// Samples returns a copy of everything recorded so far.
func (r *Recorder) Samples() []uint8 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]uint8(nil), r.samples...)
}

// WriteWAV encodes the recording as 8-bit mono PCM at sampleRate. A
// sampleRate of 0 uses the recorded rate.
func (r *Recorder) WriteWAV(w io.WriteSeeker, sampleRate int) error {
	if sampleRate <= 0 {
		sampleRate = r.SampleRate()
	}
	if sampleRate <= 0 {
		sampleRate = DefaultRecordRate
	}
	samples := r.Samples()

	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}

	enc := wav.NewEncoder(w, sampleRate, 8, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 8,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encoding recording: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finishing recording: %w", err)
	}
	return nil
}

// Save writes the recording to path. A sampleRate of 0 uses the recorded
// rate.
func (r *Recorder) Save(path string, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating recording: %w", err)
	}

	if err := r.WriteWAV(f, sampleRate); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
