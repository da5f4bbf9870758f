// SPDX-License-Identifier: EPL-2.0

package stream

import (
	"fmt"
	"log/slog"
	"time"
)

const (
	DefaultRampTime     = 500 * time.Millisecond
	DefaultFillInterval = 250 * time.Millisecond
	DefaultRampOutGrace = 10 * time.Millisecond
	DefaultTaskPeriod   = 10 * time.Millisecond
)

// Config tunes a Stream. Zero durations take the defaults above.
type Config struct {
	// RampTime sets how gently playback fades in from and out to zero.
	RampTime time.Duration
	// FillInterval is the minimum time between two fills by the task.
	FillInterval time.Duration
	// RampOutGrace is how long after the last read the ramp-out waits.
	RampOutGrace time.Duration
	// TaskPeriod is how often the fill task wakes up.
	TaskPeriod  time.Duration
	DisableRamp bool
	Logger      *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.RampTime <= 0 {
		c.RampTime = DefaultRampTime
	}
	if c.FillInterval <= 0 {
		c.FillInterval = DefaultFillInterval
	}
	if c.RampOutGrace <= 0 {
		c.RampOutGrace = DefaultRampOutGrace
	}
	if c.TaskPeriod <= 0 {
		c.TaskPeriod = DefaultTaskPeriod
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// bufferSizes maps the highest byte rate of each class to its buffer
// length, about half a second of audio.
var bufferSizes = [...]struct {
	byteRate uint32
	size     int
}{
	{8000, 4000},
	{16000, 8000},
	{32000, 16000},
	{64000, 32000},
	{128000, 64000},
	{200000, 100000},
}

// BufferSize returns the ring buffer length for a byte rate.
func BufferSize(byteRate uint32) (int, error) {
	for _, e := range bufferSizes {
		if byteRate <= e.byteRate {
			return e.size, nil
		}
	}
	return 0, fmt.Errorf("%w: %d", ErrNoBufferSize, byteRate)
}
