// SPDX-License-Identifier: EPL-2.0

package stream

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"slices"
	"testing"
	"testing/fstest"
	"time"

	"github.com/ik5/wavdac/chunkio"
	"github.com/ik5/wavdac/internal/audiotest"
	"github.com/ik5/wavdac/internal/pcm"
	"github.com/ik5/wavdac/wave"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newStream(t *testing.T, data []byte, cfg Config) (*Stream, *audiotest.MemFile) {
	t.Helper()

	cfg.Logger = quietLogger()
	f := audiotest.NewMemFile(data)
	s, err := New(f, "test.wav", cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return s, f
}

// consume reads up to n frames, stopping early once playback is complete.
func consume(s *Stream, n int) []byte {
	var out []byte
	for range n {
		if s.IsPlaybackComplete() {
			break
		}
		out = append(out, s.Sample())
		s.Advance()
	}
	return out
}

// playable is how much can be consumed without the read cursor landing on
// the write cursor while the file is still being read, which the fill step
// would take for a full ring.
func playable(s *Stream) int {
	n := s.Buffered()
	if !s.IsFileReadComplete() {
		n--
	}
	return max(n, 0)
}

// drain plays the whole stream synchronously, refilling after each chunk.
func drain(t *testing.T, s *Stream, chunk int) []byte {
	t.Helper()

	var out []byte
	for range 10000 {
		if s.IsPlaybackComplete() {
			return out
		}
		if p := s.BufferFullPercentage(); p < 0 || p > 100 {
			t.Fatalf("BufferFullPercentage() = %d", p)
		}
		out = append(out, consume(s, min(chunk, playable(s)))...)
		if err := s.Step(); err != nil {
			t.Fatalf("Step() error = %v", err)
		}
	}
	t.Fatal("stream never completed")
	return nil
}

func TestBufferSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		byteRate uint32
		want     int
	}{
		{0, 4000},
		{8000, 4000},
		{8001, 8000},
		{11025, 8000},
		{16000, 8000},
		{22050, 16000},
		{44100, 32000},
		{88200, 64000},
		{176400, 100000},
		{192000, 100000},
		{200000, 100000},
	}

	for _, tt := range tests {
		got, err := BufferSize(tt.byteRate)
		if err != nil {
			t.Errorf("BufferSize(%d) error = %v", tt.byteRate, err)
			continue
		}
		if got != tt.want {
			t.Errorf("BufferSize(%d) = %d, want %d", tt.byteRate, got, tt.want)
		}
	}

	if _, err := BufferSize(200001); !errors.Is(err, ErrNoBufferSize) {
		t.Errorf("BufferSize(200001) error = %v, want ErrNoBufferSize", err)
	}
}

func TestNew_FirstFill(t *testing.T) {
	t.Parallel()

	payload := audiotest.Ramp(10000, 0)
	s, _ := newStream(t, audiotest.PCM8(8000, payload), Config{DisableRamp: true})

	if s.BufferLen() != 4000 {
		t.Fatalf("BufferLen() = %d, want 4000", s.BufferLen())
	}
	if got := s.write.Load(); got != 1600 {
		t.Errorf("write after first fill = %d, want 1600", got)
	}
	if got := s.read.Load(); got != 0 {
		t.Errorf("read after first fill = %d, want 0", got)
	}
	if !bytes.Equal(s.buf[:1600], payload[:1600]) {
		t.Error("first fill did not copy the start of the payload")
	}
	if got := s.BufferFullPercentage(); got != 40 {
		t.Errorf("BufferFullPercentage() = %d, want 40", got)
	}
	if got := s.FileReadPercentage(); got != 16 {
		t.Errorf("FileReadPercentage() = %d, want 16", got)
	}
	if s.IsFileReadComplete() || s.IsPlaybackComplete() {
		t.Error("stream reports completion after the first fill")
	}
}

func TestFill_WrapAndFull(t *testing.T) {
	t.Parallel()

	s, _ := newStream(t, audiotest.PCM8(8000, audiotest.Ramp(20000, 0)), Config{DisableRamp: true})

	consume(s, 1000)
	if err := s.Fill(); err != nil {
		t.Fatalf("Fill() error = %v", err)
	}

	// write > read: fills to the end, then up to the read cursor.
	if got := s.write.Load(); got != 1000 {
		t.Errorf("write = %d, want 1000", got)
	}
	if got := s.BufferFullPercentage(); got != 100 {
		t.Errorf("BufferFullPercentage() = %d, want 100", got)
	}

	// Equal cursors while reading means full: nothing to do.
	before := s.bytesRead.Load()
	if err := s.Fill(); err != nil {
		t.Fatalf("Fill() error = %v", err)
	}
	if s.bytesRead.Load() != before {
		t.Error("Fill() read into a full ring")
	}

	// read > write: a single read up to the read cursor.
	consume(s, 500)
	if err := s.Fill(); err != nil {
		t.Fatalf("Fill() error = %v", err)
	}
	if got := s.write.Load(); got != 1500 {
		t.Errorf("write = %d, want 1500", got)
	}
}

func TestStream_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, n := range []int{1, 37, 1600, 4000, 10007} {
		payload := audiotest.Ramp(n, 3)
		s, _ := newStream(t, audiotest.PCM8(8000, payload), Config{DisableRamp: true})

		got := drain(t, s, 1000)
		if !bytes.Equal(got, payload) {
			t.Errorf("n=%d: played %d bytes, want the %d payload bytes in order", n, len(got), n)
		}
		if s.LastByte() != payload[n-1] {
			t.Errorf("n=%d: LastByte() = %d, want %d", n, s.LastByte(), payload[n-1])
		}
		if !s.IsPlaybackComplete() || s.BufferFullPercentage() != 0 || s.FileReadPercentage() != 100 {
			t.Errorf("n=%d: final stats = %+v", n, s.Stats())
		}
	}
}

func TestStream_TrailingChunksNotPlayed(t *testing.T) {
	t.Parallel()

	data := audiotest.WAV{
		SampleRate: 8000, Channels: 1, Bits: 8,
		Data:  audiotest.Fill(100, 50),
		After: []audiotest.Chunk{{ID: "LIST", Data: audiotest.Fill(64, 255)}},
	}.Bytes()

	s, _ := newStream(t, data, Config{DisableRamp: true})
	got := drain(t, s, 1000)
	if !bytes.Equal(got, audiotest.Fill(100, 50)) {
		t.Errorf("played %v", got)
	}
}

func TestStream_RampIn(t *testing.T) {
	t.Parallel()

	s, _ := newStream(t, audiotest.PCM8(8000, audiotest.Fill(5000, 200)), Config{})

	var want []byte
	for v := 0; v < 200; v += 3 {
		want = append(want, byte(v))
	}
	if len(want) != 67 {
		t.Fatalf("staircase has %d steps, want 67", len(want))
	}
	want = append(want, 200)

	if got := s.buf[:len(want)]; !bytes.Equal(got, want) {
		t.Errorf("ramp-in = %v, want %v", got, want)
	}
	if got := s.write.Load(); got != uint32(len(want))+1600 {
		t.Errorf("write = %d, want %d", got, len(want)+1600)
	}
	if s.FileReadPercentage() != 32 {
		t.Errorf("FileReadPercentage() = %d, want 32", s.FileReadPercentage())
	}
}

func TestStream_RampInZeroDelta(t *testing.T) {
	t.Parallel()

	// A first sample below the step count gives a zero delta: no staircase.
	s, _ := newStream(t, audiotest.PCM8(8000, audiotest.Fill(100, 10)), Config{})
	if s.buf[0] != 10 {
		t.Errorf("first buffered byte = %d, want 10", s.buf[0])
	}

	got := drain(t, s, 1000)
	if !bytes.Equal(got, audiotest.Fill(100, 10)) {
		t.Errorf("played %v, want the payload only", got)
	}
}

func TestStream_SilenceWithRamps(t *testing.T) {
	t.Parallel()

	const payload = 80000 // 10 s at 8 kHz
	s, _ := newStream(t, audiotest.PCM8(8000, audiotest.Fill(payload, 127)), Config{RampOutGrace: time.Nanosecond})

	got := drain(t, s, 1000)

	const rampIn = 64 // 0, 2, ... 126
	for i := range rampIn {
		if got[i] != byte(2*i) {
			t.Fatalf("ramp-in[%d] = %d, want %d", i, got[i], 2*i)
		}
	}
	for i := rampIn; i < rampIn+payload; i++ {
		if got[i] != 127 {
			t.Fatalf("payload[%d] = %d, want 127", i-rampIn, got[i])
		}
	}

	tail := got[rampIn+payload:]
	if len(tail) > 63 {
		t.Fatalf("ramp-out has %d samples, want at most 63", len(tail))
	}
	prev := 128
	for i, v := range tail {
		if int(v) >= prev {
			t.Fatalf("ramp-out[%d] = %d, not below %d", i, v, prev)
		}
		prev = int(v)
	}

	if !s.IsPlaybackComplete() {
		t.Error("IsPlaybackComplete() = false after draining")
	}
}

func TestStream_RampOut(t *testing.T) {
	t.Parallel()

	s, _ := newStream(t, audiotest.PCM8(8000, audiotest.Fill(200, 124)), Config{RampOutGrace: time.Nanosecond})

	// 200 payload bytes fit in the first fill, so reading is already over.
	if !s.IsFileReadComplete() {
		t.Fatal("short file not fully read by the first fill")
	}
	time.Sleep(time.Millisecond)
	if err := s.Step(); err != nil {
		t.Fatal(err)
	}

	got := drain(t, s, 1000)

	// delta = 124 / 62 = 2, so 62 descending samples follow the payload.
	tail := got[len(got)-62:]
	for i, v := range tail {
		if want := byte(124 - 2*i); v != want {
			t.Fatalf("ramp-out[%d] = %d, want %d", i, v, want)
		}
	}
	if got[len(got)-63] != 124 {
		t.Errorf("sample before ramp-out = %d, want 124", got[len(got)-63])
	}
}

func TestStream_RampOutNoRoom(t *testing.T) {
	t.Parallel()

	// Ramp-in (63 bytes) and the first fill (1600) leave the write cursor at
	// 1663 of 4000. After 1000 samples are played, the next fill wraps and
	// the file ends 10 bytes short of the read cursor.
	const played = 1000
	payload := audiotest.Fill(1601+2337+played-10, 124)
	s, _ := newStream(t, audiotest.PCM8(8000, payload), Config{RampOutGrace: time.Nanosecond})

	got := consume(s, played)
	if err := s.Fill(); err != nil {
		t.Fatal(err)
	}
	if !s.IsFileReadComplete() {
		t.Fatal("file not fully read by the wrapping fill")
	}
	w := s.write.Load()
	if r := s.read.Load(); w != played-10 || r != played {
		t.Fatalf("cursors r=%d w=%d, want r=%d w=%d", r, w, played, played-10)
	}

	// The ramp needs 124/2 = 62 samples but only 9 are free.
	time.Sleep(time.Millisecond)
	if err := s.Step(); err != nil {
		t.Fatal(err)
	}
	if !s.rampOutDone {
		t.Fatal("ramp-out not attempted")
	}
	if s.write.Load() != w {
		t.Errorf("write moved from %d to %d without room for the ramp", w, s.write.Load())
	}

	got = append(got, consume(s, 10000)...)

	var want []byte
	for v := 0; v < 124; v += 2 {
		want = append(want, byte(v))
	}
	want = append(want, payload...)
	if !bytes.Equal(got, want) {
		t.Errorf("played %d bytes, want the %d bytes of ramp-in and payload only", len(got), len(want))
	}
	if !s.IsPlaybackComplete() {
		t.Error("IsPlaybackComplete() = false after draining")
	}
}

func TestStream_RampOutAfterDrain(t *testing.T) {
	t.Parallel()

	payload := audiotest.Fill(200, 124)
	s, _ := newStream(t, audiotest.PCM8(8000, payload), Config{RampOutGrace: time.Nanosecond})

	got := consume(s, 10000)
	if !s.IsPlaybackComplete() {
		t.Fatal("short file not drained")
	}
	w := s.write.Load()

	time.Sleep(time.Millisecond)
	if err := s.Step(); err != nil {
		t.Fatal(err)
	}
	if !s.rampOutDone {
		t.Fatal("ramp-out not attempted")
	}
	if s.write.Load() != w || !s.IsPlaybackComplete() {
		t.Errorf("ramp-out written after the buffer drained: write %d -> %d", w, s.write.Load())
	}
	if more := consume(s, 10); len(more) != 0 {
		t.Errorf("played %v after the drain", more)
	}
	if len(got) != 62+len(payload) {
		t.Errorf("played %d bytes, want %d", len(got), 62+len(payload))
	}
}

func TestStream_EOFMidFill(t *testing.T) {
	t.Parallel()

	payload := audiotest.Ramp(4137, 1)
	s, f := newStream(t, audiotest.PCM8(8000, payload), Config{DisableRamp: true})

	consume(s, 100)
	if err := s.Fill(); err != nil {
		t.Fatal(err)
	}
	if got := s.write.Load(); got != 100 {
		t.Fatalf("write after wrap fill = %d, want 100", got)
	}

	consume(s, 250)
	if err := s.Fill(); err != nil {
		t.Fatal(err)
	}

	if got := s.write.Load(); got != 137 {
		t.Errorf("write = %d, want 137", got)
	}
	if !s.IsFileReadComplete() {
		t.Error("IsFileReadComplete() = false after EOF")
	}
	if s.LastByte() != payload[4136] {
		t.Errorf("LastByte() = %d, want %d", s.LastByte(), payload[4136])
	}
	if s.IsPlaybackComplete() {
		t.Error("IsPlaybackComplete() = true with unplayed bytes")
	}

	reads := f.Reads()
	if got, want := reads[len(reads)-4:], []int{1600, 2400, 100, 37}; !slices.Equal(got, want) {
		t.Errorf("payload reads = %v, want %v", got, want)
	}

	// No more reads once done.
	if err := s.Fill(); err != nil {
		t.Fatal(err)
	}
	if len(f.Reads()) != len(reads) {
		t.Error("Fill() read after EOF")
	}
}

func TestStream_HardError(t *testing.T) {
	t.Parallel()

	data := audiotest.PCM8(8000, audiotest.Fill(10000, 90))
	f := audiotest.NewMemFile(data)
	f.FailAt = 44 + 3000 // header is 44 bytes

	s, err := New(f, "bad.wav", Config{DisableRamp: true, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Close()

	consume(s, 1500)
	err = s.Step()
	if !errors.Is(err, audiotest.ErrInjected) {
		t.Fatalf("Step() error = %v, want injected failure", err)
	}
	var cerr *chunkio.ChunkIOError
	if !errors.As(err, &cerr) || cerr.EOF {
		t.Errorf("Step() error %v is not a hard ChunkIOError", err)
	}
	if !errors.Is(s.Err(), audiotest.ErrInjected) {
		t.Errorf("Err() = %v", s.Err())
	}
	if !s.IsFileReadComplete() {
		t.Error("reading not ended by a hard failure")
	}

	// What was read before the failure still plays out.
	rest := drain(t, s, 1000)
	if len(rest) != 3000-1500 {
		t.Errorf("played %d bytes after failure, want %d", len(rest), 3000-1500)
	}
}

func TestNew_Errors(t *testing.T) {
	t.Parallel()

	t.Run("bad header closes file", func(t *testing.T) {
		t.Parallel()

		f := audiotest.NewMemFile([]byte("not a wave file at all"))
		_, err := New(f, "x.wav", Config{Logger: quietLogger()})
		if !errors.Is(err, wave.ErrShortHeader) && !errors.Is(err, wave.ErrNotRIFF) {
			t.Fatalf("New() error = %v", err)
		}
		if !f.Closed() {
			t.Error("file not closed after header failure")
		}
	})

	t.Run("failure during first fill", func(t *testing.T) {
		t.Parallel()

		f := audiotest.NewMemFile(audiotest.PCM8(8000, audiotest.Fill(5000, 1)))
		f.FailAt = 100
		_, err := New(f, "x.wav", Config{Logger: quietLogger()})
		if !errors.Is(err, audiotest.ErrInjected) {
			t.Fatalf("New() error = %v", err)
		}
		if !f.Closed() {
			t.Error("file not closed after fill failure")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		fsys := chunkio.FlashFileSystem{FS: fstest.MapFS{}}
		if _, err := Open(fsys, "nope.wav", Config{Logger: quietLogger()}); !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("Open() error = %v, want fs.ErrNotExist", err)
		}
	})
}

func TestStream_EmptyPayload(t *testing.T) {
	t.Parallel()

	s, _ := newStream(t, audiotest.PCM8(8000, nil), Config{})
	if !s.IsPlaybackComplete() {
		t.Error("empty payload not complete")
	}
	if s.FileReadPercentage() != 100 {
		t.Errorf("FileReadPercentage() = %d, want 100", s.FileReadPercentage())
	}
}

func TestStream_Stereo16(t *testing.T) {
	t.Parallel()

	samples := []int16{1000, 3000, -20000, -10000, 32767, 32767}
	s, _ := newStream(t, audiotest.PCM16(22050, 2, samples), Config{})

	if s.BufferLen() != 64000 {
		t.Errorf("BufferLen() = %d, want 64000", s.BufferLen())
	}

	got := drain(t, s, 1000)
	want := []byte{
		pcm.Int16ToUint8(2000),
		pcm.Int16ToUint8(-15000),
		pcm.Int16ToUint8(32767),
	}
	if !bytes.Equal(got, want) {
		t.Errorf("played %v, want %v", got, want)
	}
}

func TestStream_PartialTrailingFrame(t *testing.T) {
	t.Parallel()

	data := audiotest.WAV{SampleRate: 8000, Channels: 2, Bits: 16, Data: []byte{0, 1, 0, 1, 0, 2}}.Bytes()
	s, _ := newStream(t, data, Config{})

	got := drain(t, s, 10)
	if len(got) != 2 {
		t.Errorf("played %d frames, want 2 (one whole, one partial)", len(got))
	}
	if !s.IsPlaybackComplete() {
		t.Error("IsPlaybackComplete() = false")
	}
}

func TestStream_StartClose(t *testing.T) {
	t.Parallel()

	payload := audiotest.Ramp(30000, 0)
	f := audiotest.NewMemFile(audiotest.PCM8(8000, payload))
	s, err := New(f, "task.wav", Config{
		DisableRamp:  true,
		FillInterval: time.Millisecond,
		TaskPeriod:   time.Millisecond,
		Logger:       quietLogger(),
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}

	var got []byte
	deadline := time.Now().Add(5 * time.Second)
	for !s.IsPlaybackComplete() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out after %d bytes: %+v", len(got), s.Stats())
		}
		if playable(s) == 0 {
			time.Sleep(100 * time.Microsecond)
			continue
		}
		got = append(got, s.Sample())
		s.Advance()
	}

	if !bytes.Equal(got, payload) {
		t.Errorf("played %d bytes, want %d in order", len(got), len(payload))
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !f.Closed() {
		t.Error("file not closed")
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := s.Start(); !errors.Is(err, ErrClosed) {
		t.Errorf("Start() after Close error = %v, want ErrClosed", err)
	}
}

func BenchmarkStream_Drain(b *testing.B) {
	data := audiotest.PCM8(8000, audiotest.Ramp(40000, 0))
	log := quietLogger()

	for b.Loop() {
		s, err := New(audiotest.NewMemFile(data), "bench.wav", Config{DisableRamp: true, Logger: log})
		if err != nil {
			b.Fatal(err)
		}
		for !s.IsPlaybackComplete() {
			for range min(1000, playable(s)) {
				s.Sample()
				s.Advance()
			}
			s.Step()
		}
		s.Close()
	}
}
