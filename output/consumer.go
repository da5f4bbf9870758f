// SPDX-License-Identifier: EPL-2.0

package output

import (
	"log/slog"
	"sync/atomic"
)

// Source is the consumer side of a stream.
type Source interface {
	IsPlaybackComplete() bool
	// Sample returns the frame at the read cursor as unsigned 8-bit mono.
	Sample() uint8
	// Advance moves the read cursor to the next frame.
	Advance()
}

type sourceRef struct{ Source }

// Consumer moves one sample per tick from the attached source to the
// device. It never blocks and never waits for data.
type Consumer struct {
	dev  *Device
	src  atomic.Pointer[sourceRef]
	errs atomic.Uint64
	log  *slog.Logger
}

func NewConsumer(dev *Device, log *slog.Logger) *Consumer {
	if log == nil {
		log = slog.Default()
	}
	return &Consumer{dev: dev, log: log.With("component", "consumer")}
}

// Attach makes src the source of the next tick.
func (c *Consumer) Attach(src Source) { c.src.Store(&sourceRef{src}) }

// Detach drops the source. A tick already running may still use it, so
// pause the driving task before releasing the source.
func (c *Consumer) Detach() { c.src.Store(nil) }

func (c *Consumer) Attached() bool { return c.src.Load() != nil }

func (c *Consumer) Device() *Device { return c.dev }

// Errors counts failed DAC writes.
func (c *Consumer) Errors() uint64 { return c.errs.Load() }

// Tick outputs the sample at the read cursor and advances it. With no
// source, or a finished one, it does nothing.
func (c *Consumer) Tick() {
	ref := c.src.Load()
	if ref == nil || ref.IsPlaybackComplete() {
		return
	}

	if err := c.dev.Emit(ref.Sample()); err != nil {
		if n := c.errs.Add(1); n == 1 || n%1000 == 0 {
			c.log.Warn("sample write failed", "err", err, "count", n)
		}
	}
	ref.Advance()
}
