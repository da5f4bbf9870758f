// SPDX-License-Identifier: EPL-2.0

package stream

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ik5/wavdac/chunkio"
	"github.com/ik5/wavdac/internal/pcm"
	"github.com/ik5/wavdac/scheduler"
	"github.com/ik5/wavdac/wave"
)

// Stream buffers the payload of one WAVE file in a ring. One producer (the
// fill task, or a caller of Fill/Step) writes ahead of the read cursor and
// one consumer (Sample/Advance) moves the read cursor. Each cursor has a
// single writer.
type Stream struct {
	name   string
	format wave.Format
	file   chunkio.File
	cfg    Config
	log    *slog.Logger

	buf   []byte
	frame uint32

	read        atomic.Uint32
	write       atomic.Uint32
	doneReading atomic.Bool
	lastByte    atomic.Uint32
	bytesRead   atomic.Uint64

	// producer only
	firstFill   bool
	rampOutDone bool
	doneAt      time.Time
	milestone   uint64

	errMu sync.Mutex
	err   error

	lifeMu sync.Mutex
	task   *scheduler.Task
	closed bool
}

// Open opens name on fsys and prepares a stream for it.
func Open(fsys chunkio.FileSystem, name string, cfg Config) (*Stream, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	return New(f, name, cfg)
}

// New parses the header of f, allocates the ring, writes the ramp-in and
// performs the first fill. The stream owns f from here on; it is closed on
// error or by Close.
func New(f chunkio.File, name string, cfg Config) (*Stream, error) {
	cfg = cfg.withDefaults()
	log := cfg.Logger.With("component", "stream", "file", name)

	format, err := wave.ParseHeader(f, log)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	size, err := BufferSize(format.ByteRate)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	s := &Stream{
		name:      name,
		format:    format,
		file:      chunkio.Limit(f, int64(format.DataSize)),
		cfg:       cfg,
		log:       log,
		buf:       make([]byte, size),
		frame:     uint32(format.BlockAlign),
		firstFill: true,
	}
	log.Info("stream opened", "format", format.String(), "buffer", size)

	if !cfg.DisableRamp && format.IsMono8() {
		if err := s.rampIn(); err != nil {
			s.file.Close()
			return nil, err
		}
	}

	if err := s.Fill(); err != nil {
		s.file.Close()
		return nil, err
	}

	return s, nil
}

// Start launches the fill task. Calling it again has no effect.
func (s *Stream) Start() error {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.task != nil {
		return nil
	}

	s.task = scheduler.New("fill:"+s.name, s.run, s.log)
	s.task.SetPeriod(s.cfg.TaskPeriod)
	s.task.ResetElapsedTimer()
	s.task.Start()

	return nil
}

// Close stops the fill task, waiting for a fill in progress, and closes the
// file. The consumer must be detached first.
func (s *Stream) Close() error {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.task != nil {
		s.task.Terminate()
	}
	return s.file.Close()
}

func (s *Stream) run(t *scheduler.Task) {
	if t.HasElapsed(s.cfg.FillInterval) {
		t.ResetElapsedTimer()
		if err := s.Fill(); err != nil {
			s.fail(err)
		}
	}

	s.rampOut()

	if s.rampOutDone {
		t.PauseAsync()
	}
}

// Step performs one fill and, once reading is over, the ramp-out. It is
// the unit of work of the fill task.
func (s *Stream) Step() error {
	if err := s.Fill(); err != nil {
		s.fail(err)
		return err
	}
	s.rampOut()
	return nil
}

// Fill reads as much of the file as fits between the write cursor and a
// snapshot of the read cursor. Equal cursors mean the ring is full.
func (s *Stream) Fill() error {
	if s.doneReading.Load() {
		return nil
	}

	size := uint32(len(s.buf))
	w := s.write.Load()
	r := s.read.Load()

	if s.firstFill {
		s.firstFill = false
		_, err := s.readInto(w, w+2*size/5)
		return err
	}

	switch {
	case r > w:
		_, err := s.readInto(w, r)
		return err
	case w > r:
		stop, err := s.readInto(w, size)
		if stop || err != nil {
			return err
		}
		_, err = s.readInto(0, r)
		return err
	default:
		return nil
	}
}

// readInto fills buf[from:to] and moves the write cursor past what was
// read. stop reports that reading has ended.
func (s *Stream) readInto(from, to uint32) (stop bool, err error) {
	res := s.file.Read(s.buf[from:to])
	size := uint32(len(s.buf))
	w := (from + uint32(res.N)) % size

	s.write.Store(w)
	s.bytesRead.Add(uint64(res.N))
	s.logProgress()

	switch res.Kind {
	case chunkio.KindOK:
		return false, nil
	case chunkio.KindEOF:
		s.lastByte.Store(uint32(s.buf[(w+size-1)%size]))
		s.markDone()
		return true, nil
	default:
		return true, res.Error("fill", s.name)
	}
}

func (s *Stream) logProgress() {
	m := uint64(s.FileReadPercentage()) / 10
	if m > s.milestone {
		s.milestone = m
		s.log.Debug("reading", "percent", m*10)
	}
}

func (s *Stream) markDone() {
	s.doneAt = time.Now()
	s.doneReading.Store(true)
	s.log.Info("file read complete", "bytes", s.bytesRead.Load())
}

func (s *Stream) fail(err error) {
	s.errMu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.errMu.Unlock()

	s.log.Error("fill failed", "err", err)
	if !s.doneReading.Load() {
		s.markDone()
	}
}

// Err returns the read failure that ended the stream early, if any.
func (s *Stream) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()

	return s.err
}

func (s *Stream) rampSteps() int {
	steps := int(s.cfg.RampTime.Milliseconds() * 1000 / int64(s.format.SampleRate))
	return max(steps, 1)
}

// rampIn writes a staircase from zero up to the first sample so playback
// does not start with a jump.
func (s *Stream) rampIn() error {
	var first [1]byte
	res := s.file.Read(first[:])
	switch res.Kind {
	case chunkio.KindEOF:
		s.markDone()
		return nil
	case chunkio.KindError:
		return res.Error("ramp", s.name)
	}
	s.bytesRead.Add(1)

	target := int(first[0])
	delta := target / s.rampSteps()

	w := 0
	if delta > 0 {
		for v := 0; v < target; v += delta {
			s.buf[w] = byte(v)
			w++
		}
	}
	s.buf[w] = first[0]
	w++

	s.lastByte.Store(uint32(first[0]))
	s.write.Store(uint32(w))
	s.log.Debug("ramp in", "first", target, "delta", delta, "steps", w-1)

	return nil
}

// rampOut appends a staircase from the last sample down to zero when the
// contiguous space ahead of the write cursor allows it.
func (s *Stream) rampOut() {
	if s.rampOutDone || !s.doneReading.Load() {
		return
	}
	if time.Since(s.doneAt) < s.cfg.RampOutGrace {
		return
	}
	s.rampOutDone = true

	if s.cfg.DisableRamp || !s.format.IsMono8() || s.Err() != nil {
		return
	}

	size := len(s.buf)
	w := int(s.write.Load())
	r := int(s.read.Load())
	if r == w {
		s.log.Debug("ramp out skipped", "reason", "drained")
		return
	}

	start := int(s.buf[(w+size-1)%size])
	delta := start / s.rampSteps()
	if delta == 0 {
		s.log.Debug("ramp out skipped", "reason", "flat", "last", start)
		return
	}

	var space int
	if r > w {
		space = r - w - 1
	} else {
		space = size - w
		if r == 0 {
			space--
		}
	}

	n := start / delta
	if n > space {
		s.log.Debug("ramp out skipped", "reason", "no room", "need", n, "have", space)
		return
	}

	for v := start; v >= delta; v -= delta {
		s.buf[w] = byte(v)
		w++
	}
	s.write.Store(uint32(w % size))
	s.log.Debug("ramp out", "last", start, "delta", delta, "steps", n)
}

// Sample returns the frame at the read cursor as unsigned 8-bit mono.
func (s *Stream) Sample() uint8 {
	r := int(s.read.Load())
	if s.format.IsMono8() {
		return s.buf[r]
	}

	size := len(s.buf)
	at := func(i int) byte { return s.buf[(r+i)%size] }

	if s.format.BitsPerSample == 8 {
		return pcm.MixUint8(at(0), at(1))
	}

	left := int16(uint16(at(0)) | uint16(at(1))<<8)
	if s.format.Channels == 1 {
		return pcm.Int16ToUint8(left)
	}
	right := int16(uint16(at(2)) | uint16(at(3))<<8)
	return pcm.Int16ToUint8(pcm.MixInt16(left, right))
}

// Advance moves the read cursor one frame forward, wrapping at the end of
// the ring. Once reading is done it never passes the write cursor.
func (s *Stream) Advance() {
	size := uint32(len(s.buf))
	r := s.read.Load()

	if s.doneReading.Load() {
		w := s.write.Load()
		if left := (w + size - r) % size; left < s.frame {
			s.read.Store(w)
			return
		}
	}
	s.read.Store((r + s.frame) % size)
}

// IsPlaybackComplete reports whether the file was read completely and the
// read cursor caught up with the write cursor.
func (s *Stream) IsPlaybackComplete() bool {
	return s.doneReading.Load() && s.read.Load() == s.write.Load()
}

func (s *Stream) IsFileReadComplete() bool { return s.doneReading.Load() }

// FileReadPercentage is how much of the payload has been read, 0 to 100.
func (s *Stream) FileReadPercentage() int {
	total := uint64(s.format.DataSize)
	if total == 0 {
		return 100
	}
	return int(min(s.bytesRead.Load()*100/total, 100))
}

// Buffered is the number of bytes between the read and write cursors.
func (s *Stream) Buffered() int {
	size := len(s.buf)
	r := int(s.read.Load())
	w := int(s.write.Load())

	if r == w {
		if s.doneReading.Load() {
			return 0
		}
		return size
	}
	return (w - r + size) % size
}

// BufferFullPercentage is 100 minus the free share of the ring.
func (s *Stream) BufferFullPercentage() int {
	size := len(s.buf)
	free := size - s.Buffered()
	return 100 - 100*free/size
}

// LastByte is the last payload byte read from the file.
func (s *Stream) LastByte() uint8 { return uint8(s.lastByte.Load()) }

func (s *Stream) Format() wave.Format { return s.format }
func (s *Stream) Name() string        { return s.name }
func (s *Stream) BufferLen() int      { return len(s.buf) }

// Stats is a point-in-time view of a stream.
type Stats struct {
	Name       string
	Format     wave.Format
	BufferLen  int
	Buffered   int
	BufferFull int
	FileRead   int
	BytesRead  uint64
	ReadDone   bool
	Complete   bool
	Err        error
}

func (s *Stream) Stats() Stats {
	return Stats{
		Name:       s.name,
		Format:     s.format,
		BufferLen:  len(s.buf),
		Buffered:   s.Buffered(),
		BufferFull: s.BufferFullPercentage(),
		FileRead:   s.FileReadPercentage(),
		BytesRead:  s.bytesRead.Load(),
		ReadDone:   s.doneReading.Load(),
		Complete:   s.IsPlaybackComplete(),
		Err:        s.Err(),
	}
}
