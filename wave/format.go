// SPDX-License-Identifier: EPL-2.0

package wave

import (
	"fmt"
	"time"
)

// MaxSampleRate is the highest sample rate the player accepts.
const MaxSampleRate = 48000

// Format is the parsed fmt chunk plus the size of the data payload.
type Format struct {
	Channels      uint16
	BitsPerSample uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	// DataSize is the payload length in bytes as declared by the data chunk.
	DataSize uint32
}

// Duration is the playing time of the payload.
func (f Format) Duration() time.Duration {
	if f.ByteRate == 0 {
		return 0
	}
	return time.Duration(uint64(f.DataSize) * uint64(time.Second) / uint64(f.ByteRate))
}

// IsMono8 reports whether the payload is 8-bit mono, the format the output
// plays without conversion.
func (f Format) IsMono8() bool {
	return f.Channels == 1 && f.BitsPerSample == 8
}

func (f Format) String() string {
	return fmt.Sprintf("%d Hz, %d-bit, %d ch, %d B/s, %d bytes (%s)",
		f.SampleRate, f.BitsPerSample, f.Channels, f.ByteRate, f.DataSize, f.Duration().Round(time.Millisecond))
}
