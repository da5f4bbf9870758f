// SPDX-License-Identifier: EPL-2.0

// Package speaker plays the DAC output through the host sound card.
//
// The Speaker is an output.DAC and output.Latcher: every tick queues the
// held level, and the sound card pulls the queue through an oto player.
// When the queue runs dry the held level is repeated, which is exactly what
// a DAC register does when nobody writes to it.
package speaker

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hajimehoshi/oto/v2"

	"github.com/ik5/wavdac/output"
)

const (
	// DefaultSampleRate is the rate the sound card is opened at.
	DefaultSampleRate = 8000
	// DefaultLatency is how much audio the queue holds before dropping.
	DefaultLatency = 250 * time.Millisecond

	silence = 0x7f
)

var ErrNotReady = errors.New("speaker: audio device not ready")

// Speaker is the host audio device seen as an 8-bit DAC.
type Speaker struct {
	rate int
	log  *slog.Logger

	mu      sync.Mutex
	level   byte
	q       *queue
	dropped uint64
	closed  bool

	ctx    *oto.Context
	player oto.Player
}

// New opens the sound card at sampleRate, unsigned 8-bit mono. oto allows
// one context per process, so there is one Speaker per process as well.
func New(sampleRate int, latency time.Duration, log *slog.Logger) (*Speaker, error) {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if latency <= 0 {
		latency = DefaultLatency
	}
	if log == nil {
		log = slog.Default()
	}

	s := newSpeaker(sampleRate, latency, log)

	ctx, ready, err := oto.NewContext(sampleRate, 1, oto.FormatUnsignedInt8)
	if err != nil {
		return nil, fmt.Errorf("opening audio device: %w", err)
	}

	select {
	case <-ready:
	case <-time.After(2 * time.Second):
		return nil, ErrNotReady
	}

	s.ctx = ctx
	s.player = ctx.NewPlayer(s)
	s.player.Play()
	s.log.Info("speaker opened", "sample_rate", sampleRate, "latency", latency)

	return s, nil
}

func newSpeaker(sampleRate int, latency time.Duration, log *slog.Logger) *Speaker {
	frames := int(int64(sampleRate) * int64(latency) / int64(time.Second))
	return &Speaker{
		rate:  sampleRate,
		log:   log.With("component", "speaker"),
		level: silence,
		q:     newQueue(frames),
	}
}

func (s *Speaker) SampleRate() int { return s.rate }

// SetSampleRate refuses files at another rate than the sound card was
// opened at; oto cannot reopen its context.
func (s *Speaker) SetSampleRate(hz int) error {
	if hz != s.rate {
		return fmt.Errorf("%w: file at %d Hz, speaker at %d Hz", output.ErrRateMismatch, hz, s.rate)
	}
	return nil
}

// WriteSample sets the held level.
func (s *Speaker) WriteSample(v uint8) error {
	s.mu.Lock()
	s.level = v
	s.mu.Unlock()
	return nil
}

// Latch queues the held level for the sound card.
func (s *Speaker) Latch() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	if s.q.Push(s.level) {
		s.dropped++
	}
	return nil
}

// Read feeds the oto player. It never blocks and never returns io.EOF; the
// gap after the queue drains is filled with the held level.
func (s *Speaker) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.q.Pop(p)
	for i := n; i < len(p); i++ {
		p[i] = s.level
	}
	return len(p), nil
}

// Dropped counts queued samples lost because the sound card fell behind.
func (s *Speaker) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.dropped
}

func (s *Speaker) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.q.Reset()
	s.mu.Unlock()

	if s.player == nil {
		return nil
	}
	if err := s.player.Close(); err != nil {
		return fmt.Errorf("closing speaker: %w", err)
	}
	return nil
}
