// SPDX-License-Identifier: EPL-2.0

package output

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// initialLevel is what the DAC is assumed to hold before the first write.
const initialLevel = 0x7f

// DAC is an 8-bit sample output.
type DAC interface {
	WriteSample(v uint8) error
}

// Latcher is implemented by sinks that need one sample per tick rather
// than one per change, such as byte streams and recorders. Latch is called
// once per tick after any WriteSample.
type Latcher interface {
	Latch() error
}

// ErrRateMismatch is returned by sinks that cannot follow a change of
// sample rate.
var ErrRateMismatch = errors.New("output: sample rate mismatch")

// RateSetter is implemented by sinks that need the rate they are ticked
// at. SetSampleRate is called before the first sample of each file.
type RateSetter interface {
	SetSampleRate(hz int) error
}

// fixedRate accepts the first sample rate it is given and rejects any
// other after that.
type fixedRate struct {
	hz atomic.Int64
}

func (f *fixedRate) set(hz int) error {
	if f.hz.CompareAndSwap(0, int64(hz)) {
		return nil
	}
	if cur := f.hz.Load(); cur != int64(hz) {
		return fmt.Errorf("%w: %d Hz after %d Hz", ErrRateMismatch, hz, cur)
	}
	return nil
}

func (f *fixedRate) get() int { return int(f.hz.Load()) }

// Device owns the DAC and the volume table applied to everything written
// to it.
type Device struct {
	dac    DAC
	table  atomic.Pointer[VolumeTable]
	volume atomic.Int32
	writes atomic.Uint64

	// last is only touched by the goroutine calling Emit.
	last uint8
}

func NewDevice(dac DAC, volume int) *Device {
	d := &Device{dac: dac, last: initialLevel}
	d.SetVolume(volume)
	return d
}

// SetVolume rebuilds the volume table and returns the clamped volume.
// It is safe to call while samples are being emitted.
func (d *Device) SetVolume(v int) int {
	v = ClampVolume(v)
	d.table.Store(NewVolumeTable(v))
	d.volume.Store(int32(v))
	return v
}

func (d *Device) Volume() int { return int(d.volume.Load()) }

// Table returns a copy of the active volume table.
func (d *Device) Table() VolumeTable { return *d.table.Load() }

// Writes counts the samples that reached the DAC.
func (d *Device) Writes() uint64 { return d.writes.Load() }

func (d *Device) DAC() DAC { return d.dac }

// SetSampleRate passes the rate of the next samples to a RateSetter DAC.
func (d *Device) SetSampleRate(hz int) error {
	if rs, ok := d.dac.(RateSetter); ok {
		return rs.SetSampleRate(hz)
	}
	return nil
}

// Emit maps raw through the volume table and writes it if it differs from
// the last value written.
func (d *Device) Emit(raw uint8) error {
	v := d.table.Load()[raw]
	if v != d.last {
		if err := d.dac.WriteSample(v); err != nil {
			return err
		}
		d.last = v
		d.writes.Add(1)
	}

	if l, ok := d.dac.(Latcher); ok {
		return l.Latch()
	}
	return nil
}
