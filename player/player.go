// SPDX-License-Identifier: EPL-2.0

// Package player plays one WAVE file at a time through an output device.
//
// A Player owns the output task: a scheduler task that wakes every
// millisecond and lets a Pacer tick the consumer at the sample rate of the
// loaded file. Loading a file pauses that task and waits for it before the
// previous stream is torn down.
package player

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ik5/wavdac/chunkio"
	"github.com/ik5/wavdac/output"
	"github.com/ik5/wavdac/scheduler"
	"github.com/ik5/wavdac/stream"
	"github.com/ik5/wavdac/wave"
)

const (
	DefaultSettle         = 250 * time.Millisecond
	DefaultOutputPeriod   = time.Millisecond
	DefaultStatusInterval = 500 * time.Millisecond
)

var (
	ErrNotLoaded = errors.New("player: no file loaded")
	ErrClosed    = errors.New("player: closed")
)

type Config struct {
	Stream stream.Config
	// Settle is how long Load waits after opening a file so the fill task
	// gets ahead of the output. A negative value disables the wait.
	Settle         time.Duration
	OutputPeriod   time.Duration
	StatusInterval time.Duration
	Logger         *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.Settle < 0 {
		c.Settle = 0
	} else if c.Settle == 0 {
		c.Settle = DefaultSettle
	}
	if c.OutputPeriod <= 0 {
		c.OutputPeriod = DefaultOutputPeriod
	}
	if c.StatusInterval <= 0 {
		c.StatusInterval = DefaultStatusInterval
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Stream.Logger == nil {
		c.Stream.Logger = c.Logger
	}
	return c
}

// Player is a single-file player. It is safe for concurrent use.
type Player struct {
	fsys     chunkio.FileSystem
	dev      *output.Device
	consumer *output.Consumer
	pacer    *output.Pacer
	task     *scheduler.Task
	cfg      Config
	log      *slog.Logger

	cur atomic.Pointer[stream.Stream]

	mu      sync.Mutex
	playing bool
	closed  bool
}

// New creates a player writing to dev. Nothing plays until a file is
// loaded and Play is called.
func New(fsys chunkio.FileSystem, dev *output.Device, cfg Config) *Player {
	cfg = cfg.withDefaults()

	p := &Player{
		fsys: fsys,
		dev:  dev,
		cfg:  cfg,
		log:  cfg.Logger.With("component", "player"),
	}
	p.consumer = output.NewConsumer(dev, cfg.Logger)
	p.pacer = output.NewPacer(p.consumer.Tick, 0)
	p.task = scheduler.New("output", p.run, cfg.Logger)
	p.task.SetPeriod(cfg.OutputPeriod)

	return p
}

func (p *Player) run(t *scheduler.Task) {
	p.pacer.Run(t)

	if t.HasElapsed(p.cfg.StatusInterval) {
		t.ResetElapsedTimer()
		if s := p.cur.Load(); s != nil {
			p.log.Debug("playing",
				"file", s.Name(),
				"buffer_pct", s.BufferFullPercentage(),
				"file_pct", s.FileReadPercentage(),
			)
		}
	}
}

// Load stops output, releases the current file and opens name. On failure,
// including an output that cannot run at the file's sample rate, the
// player is left with nothing loaded.
func (p *Player) Load(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	p.task.Pause()
	p.playing = false
	p.unloadLocked()

	s, err := stream.Open(p.fsys, name, p.cfg.Stream)
	if err != nil {
		p.log.Error("unable to load file", "file", name, "err", err)
		return fmt.Errorf("loading %s: %w", name, err)
	}
	rate := int(s.Format().SampleRate)
	if err := p.dev.SetSampleRate(rate); err != nil {
		s.Close()
		p.log.Warn("output cannot play file", "file", name, "sample_rate", rate, "err", err)
		return fmt.Errorf("loading %s: %w", name, err)
	}
	if err := s.Start(); err != nil {
		s.Close()
		return fmt.Errorf("loading %s: %w", name, err)
	}

	p.cur.Store(s)
	p.consumer.Attach(s)
	p.pacer.SetRate(rate)
	p.log.Info("file loaded", "file", name, "format", s.Format().String())

	time.Sleep(p.cfg.Settle)
	return nil
}

// unloadLocked detaches and closes the current stream. The output task
// must be paused.
func (p *Player) unloadLocked() {
	s := p.cur.Swap(nil)
	if s == nil {
		return
	}

	p.consumer.Detach()
	if err := s.Close(); err != nil {
		p.log.Warn("closing stream", "file", s.Name(), "err", err)
	}
}

// Play starts or resumes output of the loaded file.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	if p.cur.Load() == nil {
		return ErrNotLoaded
	}
	if p.playing {
		return nil
	}

	p.pacer.Reset()
	p.task.Start()
	p.playing = true
	return nil
}

// Pause stops output and returns once the output task is idle. The file
// stays loaded and Play resumes where it stopped.
func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	if p.cur.Load() == nil {
		return ErrNotLoaded
	}

	p.task.Pause()
	p.playing = false
	return nil
}

// SetVolume sets the output volume, clamped to 0..100, and returns the
// value applied.
func (p *Player) SetVolume(v int) int { return p.dev.SetVolume(v) }

func (p *Player) Volume() int { return p.dev.Volume() }

// IsDonePlaying reports whether the loaded file has played out. With
// nothing loaded there is nothing left to play.
func (p *Player) IsDonePlaying() bool {
	s := p.cur.Load()
	if s == nil {
		p.log.Warn("done playing because nothing is loaded")
		return true
	}
	return s.IsPlaybackComplete()
}

// Err returns the error that stopped the loaded stream early, if any.
func (p *Player) Err() error {
	if s := p.cur.Load(); s != nil {
		return s.Err()
	}
	return nil
}

// IsPlaying reports whether output is running, including the silence
// after the file has played out.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.playing
}

// Status is a snapshot of the player.
type Status struct {
	File        string      `json:"file,omitempty"`
	Format      wave.Format `json:"format"`
	Loaded      bool        `json:"loaded"`
	Playing     bool        `json:"playing"`
	Volume      int         `json:"volume"`
	BufferPct   int         `json:"buffer_pct"`
	FilePct     int         `json:"file_pct"`
	Done        bool        `json:"done"`
	WriteErrors uint64      `json:"write_errors"`
	Err         string      `json:"error,omitempty"`
}

func (p *Player) Status() Status {
	st := Status{
		Playing:     p.IsPlaying(),
		Volume:      p.dev.Volume(),
		WriteErrors: p.consumer.Errors(),
		Done:        true,
	}

	s := p.cur.Load()
	if s == nil {
		return st
	}

	st.Loaded = true
	st.File = s.Name()
	st.Format = s.Format()
	st.BufferPct = s.BufferFullPercentage()
	st.FilePct = s.FileReadPercentage()
	st.Done = s.IsPlaybackComplete()
	if err := s.Err(); err != nil {
		st.Err = err.Error()
	}
	return st
}

// Close stops the output task and releases the loaded file.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	p.playing = false

	p.task.Terminate()
	p.unloadLocked()
	return nil
}
