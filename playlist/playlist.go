// SPDX-License-Identifier: EPL-2.0

// Package playlist plays entries from a list of files, optionally
// preceded by an intro, and switches the amplifier around each playout.
//
// The Manager is a small state machine polled by a scheduler task:
//
//	Idle -> PlayingIntro -> PlayingSound -> Idle
//
// Idle skips straight to PlayingSound when no intro is set. Pause stops
// output without leaving the playing state and Play resumes it.
package playlist

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"path"
	"slices"
	"sync"
	"time"

	"github.com/ik5/wavdac/chunkio"
	"github.com/ik5/wavdac/player"
	"github.com/ik5/wavdac/scheduler"
)

const (
	DefaultAmpSettle    = 100 * time.Millisecond
	DefaultPollInterval = 500 * time.Millisecond
)

type State int

const (
	Idle State = iota
	PlayingIntro
	PlayingSound
	// Paused is never entered; a paused playout keeps its playing state.
	Paused
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case PlayingIntro:
		return "playing_intro"
	case PlayingSound:
		return "playing_sound"
	case Paused:
		return "paused"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// FilePlayer is the part of player.Player the manager drives.
type FilePlayer interface {
	Load(name string) error
	Play() error
	Pause() error
	SetVolume(v int) int
	IsDonePlaying() bool
	Status() player.Status
}

type Config struct {
	Power        PowerSwitch
	AmpSettle    time.Duration
	PollInterval time.Duration
	// IntN picks the random entry; rand.IntN when nil.
	IntN   func(n int) int
	Logger *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.Power == nil {
		c.Power = NoPower{}
	}
	if c.AmpSettle < 0 {
		c.AmpSettle = 0
	} else if c.AmpSettle == 0 {
		c.AmpSettle = DefaultAmpSettle
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.IntN == nil {
		c.IntN = rand.IntN
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Manager owns the file list and the playout sequence.
type Manager struct {
	fsys   chunkio.FileSystem
	player FilePlayer
	cfg    Config
	log    *slog.Logger
	task   *scheduler.Task

	// seq serializes state transitions. It is held across the amplifier
	// settle and the load, so mu stays free for Status and the list.
	seq sync.Mutex

	mu     sync.Mutex
	files  []string
	intro  int
	toPlay int
	state  State
	closed bool
}

func New(fsys chunkio.FileSystem, p FilePlayer, cfg Config) *Manager {
	cfg = cfg.withDefaults()

	m := &Manager{
		fsys:   fsys,
		player: p,
		cfg:    cfg,
		log:    cfg.Logger.With("component", "playlist"),
		intro:  -1,
		toPlay: -1,
	}
	m.task = scheduler.New("playlist", func(*scheduler.Task) { m.Poll() }, cfg.Logger)
	m.task.SetPeriod(cfg.PollInterval)

	if err := cfg.Power.SetPower(false); err != nil {
		m.log.Warn("amplifier power off failed", "err", err)
	}
	return m
}

// Start begins polling for the end of each playout.
func (m *Manager) Start() { m.task.Start() }

// Close stops polling, pauses output and switches the amplifier off.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	m.task.Terminate()

	m.seq.Lock()
	defer m.seq.Unlock()

	if m.State() != Idle {
		m.player.Pause()
		m.setState(Idle)
	}
	return m.cfg.Power.SetPower(false)
}

// AddFilesFrom appends the files in dir to the list.
func (m *Manager) AddFilesFrom(dir string) error {
	names, err := m.fsys.List(dir)
	if err != nil {
		return fmt.Errorf("listing %s: %w", dir, err)
	}

	m.mu.Lock()
	m.files = append(m.files, names...)
	m.mu.Unlock()

	m.log.Info("files added", "dir", dir, "count", len(names))
	return nil
}

// ClearFileList empties the list and forgets the intro and selection.
func (m *Manager) ClearFileList() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.files = nil
	m.intro = -1
	m.toPlay = -1
}

func (m *Manager) Files() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return slices.Clone(m.files)
}

// SetIntroIndex makes entry i play before every selected entry.
func (m *Manager) SetIntroIndex(i int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i < 0 || i >= len(m.files) {
		return fmt.Errorf("%w: index %d", ErrNoSuchEntry, i)
	}
	m.intro = i
	return nil
}

// SetIntroName sets the intro by file name. An unknown name clears the
// intro.
func (m *Manager) SetIntroName(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.intro = m.indexLocked(name)
	if m.intro < 0 {
		return fmt.Errorf("%w: %q", ErrNoSuchEntry, name)
	}
	return nil
}

func (m *Manager) ClearIntro() {
	m.mu.Lock()
	m.intro = -1
	m.mu.Unlock()
}

// indexLocked finds name by full path first, then by base name.
func (m *Manager) indexLocked(name string) int {
	if i := slices.Index(m.files, name); i >= 0 {
		return i
	}
	return slices.IndexFunc(m.files, func(f string) bool { return path.Base(f) == name })
}

// PlayIndex selects entry i and plays it.
func (m *Manager) PlayIndex(i int) error {
	m.mu.Lock()
	if i < 0 || i >= len(m.files) {
		m.mu.Unlock()
		return fmt.Errorf("%w: index %d", ErrNoSuchEntry, i)
	}
	m.toPlay = i
	m.mu.Unlock()

	return m.Play()
}

// PlayName selects an entry by name and plays it. An unknown name clears
// the selection.
func (m *Manager) PlayName(name string) error {
	m.mu.Lock()
	m.toPlay = m.indexLocked(name)
	found := m.toPlay >= 0
	m.mu.Unlock()

	if !found {
		return fmt.Errorf("%w: %q", ErrNoSuchEntry, name)
	}
	return m.Play()
}

// PlayRandom selects a random entry and plays it.
func (m *Manager) PlayRandom() error {
	m.mu.Lock()
	n := len(m.files)
	if n == 0 {
		m.mu.Unlock()
		return ErrNoSuchEntry
	}
	m.toPlay = m.cfg.IntN(n)
	m.mu.Unlock()

	return m.Play()
}

// Play starts the sequence for the selected entry when idle. While an
// entry is already playing it only resumes output; the new selection is
// used by the next sequence.
func (m *Manager) Play() error {
	m.seq.Lock()
	defer m.seq.Unlock()

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.toPlay < 0 {
		m.mu.Unlock()
		return ErrNothingSelected
	}
	state := m.state
	next, name := PlayingSound, m.files[m.toPlay]
	if m.intro >= 0 {
		next, name = PlayingIntro, m.files[m.intro]
	}
	m.mu.Unlock()

	if state != Idle {
		return m.player.Play()
	}
	return m.enter(next, name)
}

// Pause stops output of the entry playing.
func (m *Manager) Pause() error {
	m.seq.Lock()
	defer m.seq.Unlock()

	if st := m.State(); st != PlayingIntro && st != PlayingSound {
		return nil
	}
	return m.player.Pause()
}

// SetVolume sets the output volume. Values outside 0..100 are rejected.
func (m *Manager) SetVolume(v int) error {
	if v < 0 || v > 100 {
		return fmt.Errorf("%w: %d", ErrVolumeRange, v)
	}
	m.player.SetVolume(v)
	return nil
}

func (m *Manager) setState(next State) {
	m.mu.Lock()
	if m.state != next {
		m.log.Info("state change", "from", m.state, "to", next)
	}
	m.state = next
	m.mu.Unlock()
}

// enter switches the amplifier on, loads name and plays it. A load failure
// returns the manager to Idle with the amplifier off. m.seq must be held.
func (m *Manager) enter(next State, name string) error {
	if err := m.cfg.Power.SetPower(true); err != nil {
		m.log.Warn("amplifier power on failed", "err", err)
	}
	time.Sleep(m.cfg.AmpSettle)

	err := m.player.Load(name)
	if err == nil {
		err = m.player.Play()
	}
	if err != nil {
		m.setState(Idle)
		if perr := m.cfg.Power.SetPower(false); perr != nil {
			m.log.Warn("amplifier power off failed", "err", perr)
		}
		return err
	}

	m.log.Debug("entry playing", "file", name)
	m.setState(next)
	return nil
}

// Poll advances the sequence once the playing entry has finished. The
// manager's task calls it every poll interval.
func (m *Manager) Poll() {
	m.seq.Lock()
	defer m.seq.Unlock()

	m.mu.Lock()
	state := m.state
	name := ""
	if m.toPlay >= 0 {
		name = m.files[m.toPlay]
	}
	m.mu.Unlock()

	switch state {
	case PlayingIntro:
		if !m.player.IsDonePlaying() {
			return
		}
		if name == "" {
			m.stop()
			return
		}
		if err := m.enter(PlayingSound, name); err != nil {
			m.log.Error("unable to play entry", "err", err)
		}

	case PlayingSound:
		if m.player.IsDonePlaying() {
			m.stop()
		}
	}
}

// stop switches the amplifier off and pauses output. m.seq must be held.
func (m *Manager) stop() {
	if err := m.cfg.Power.SetPower(false); err != nil {
		m.log.Warn("amplifier power off failed", "err", err)
	}
	if err := m.player.Pause(); err != nil {
		m.log.Warn("pausing output", "err", err)
	}
	m.setState(Idle)
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state
}

// Status is a snapshot of the manager and its player.
type Status struct {
	State    string        `json:"state"`
	Files    int           `json:"files"`
	Intro    string        `json:"intro,omitempty"`
	Selected string        `json:"selected,omitempty"`
	Player   player.Status `json:"player"`
}

func (m *Manager) Status() Status {
	m.mu.Lock()
	st := Status{State: m.state.String(), Files: len(m.files)}
	if m.intro >= 0 {
		st.Intro = m.files[m.intro]
	}
	if m.toPlay >= 0 {
		st.Selected = m.files[m.toPlay]
	}
	m.mu.Unlock()

	st.Player = m.player.Status()
	return st
}
