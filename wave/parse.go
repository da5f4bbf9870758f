// SPDX-License-Identifier: EPL-2.0

package wave

import (
	"encoding/binary"
	"fmt"
	"log/slog"

	"github.com/go-audio/riff"
	"github.com/ik5/wavdac/chunkio"
)

const (
	// prefixSize covers RIFF id, RIFF size, WAVE id, fmt id and fmt size.
	prefixSize     = 20
	chunkHeaderLen = 8
	maxFmtSize     = 1024
)

// ParseHeader reads the RIFF/WAVE header from f and leaves f positioned at
// the first payload byte. A nil logger uses slog.Default.
func ParseHeader(f chunkio.File, log *slog.Logger) (Format, error) {
	if log == nil {
		log = slog.Default()
	}

	var prefix [prefixSize]byte
	if res := f.Read(prefix[:]); !res.OK() {
		return Format{}, &HeaderParseError{Stage: "prefix", Err: fmt.Errorf("%w: %w", ErrShortHeader, res.Error("read", "prefix"))}
	}

	if [4]byte(prefix[0:4]) != riff.RiffID {
		return Format{}, &HeaderParseError{Stage: "prefix", Err: ErrNotRIFF}
	}
	if [4]byte(prefix[8:12]) != riff.WavFormatID {
		return Format{}, &HeaderParseError{Stage: "prefix", Err: ErrNotWAVE}
	}
	if [4]byte(prefix[12:16]) != riff.FmtID {
		return Format{}, &HeaderParseError{Stage: "prefix", Err: ErrNoFmtChunk}
	}

	fmtSize := binary.LittleEndian.Uint32(prefix[16:20])
	if fmtSize != 16 && fmtSize != 18 {
		log.Warn("unusual fmt chunk size", "size", fmtSize)
	}
	if fmtSize < 16 || fmtSize > maxFmtSize {
		return Format{}, &HeaderParseError{Stage: "fmt", Err: fmt.Errorf("%w: %d", ErrFmtSize, fmtSize)}
	}

	padded := int(fmtSize + fmtSize%2)
	body := make([]byte, padded+chunkHeaderLen)
	res := f.Read(body)
	fmtRead := res.OK() || (res.EOF() && res.N >= int(fmtSize))
	if !fmtRead {
		return Format{}, &HeaderParseError{Stage: "fmt", Err: fmt.Errorf("%w: %w", ErrShortHeader, res.Error("read", "fmt"))}
	}

	format, err := decodeFmt(body)
	if err != nil {
		return Format{}, &HeaderParseError{Stage: "fmt", Err: err}
	}
	if !res.OK() {
		// The file ends with the fmt chunk.
		return Format{}, &HeaderParseError{Stage: "chunks", Err: fmt.Errorf("%w: %w", ErrNoDataChunk, res.Error("read", "chunk header"))}
	}

	id := [4]byte(body[padded : padded+4])
	size := binary.LittleEndian.Uint32(body[padded+4:])

	var hdr [chunkHeaderLen]byte
	for id != riff.DataFormatID {
		log.Debug("skipping chunk", "id", string(id[:]), "size", size)

		if err := f.SeekRelative(int64(size) + int64(size%2)); err != nil {
			return Format{}, &HeaderParseError{Stage: "chunks", Err: fmt.Errorf("%w: skipping %q: %w", ErrNoDataChunk, id[:], err)}
		}
		if res := f.Read(hdr[:]); !res.OK() {
			return Format{}, &HeaderParseError{Stage: "chunks", Err: fmt.Errorf("%w: %w", ErrNoDataChunk, res.Error("read", "chunk header"))}
		}

		id = [4]byte(hdr[0:4])
		size = binary.LittleEndian.Uint32(hdr[4:])
	}

	format.DataSize = size
	return format, nil
}

func decodeFmt(b []byte) (Format, error) {
	tag := binary.LittleEndian.Uint16(b[0:])
	f := Format{
		Channels:      binary.LittleEndian.Uint16(b[2:]),
		SampleRate:    binary.LittleEndian.Uint32(b[4:]),
		ByteRate:      binary.LittleEndian.Uint32(b[8:]),
		BlockAlign:    binary.LittleEndian.Uint16(b[12:]),
		BitsPerSample: binary.LittleEndian.Uint16(b[14:]),
	}

	if tag != 1 {
		return Format{}, fmt.Errorf("%w: format tag %d", ErrNotPCM, tag)
	}
	if f.Channels < 1 || f.Channels > 2 {
		return Format{}, fmt.Errorf("%w: %d channels", ErrChannels, f.Channels)
	}
	if f.SampleRate == 0 || f.SampleRate > MaxSampleRate {
		return Format{}, fmt.Errorf("%w: %d Hz", ErrSampleRate, f.SampleRate)
	}
	if f.BitsPerSample != 8 && f.BitsPerSample != 16 {
		return Format{}, fmt.Errorf("%w: %d bits", ErrBitsPerSample, f.BitsPerSample)
	}

	frame := uint32(f.Channels) * uint32(f.BitsPerSample) / 8
	if want := f.SampleRate * frame; f.ByteRate != want {
		return Format{}, fmt.Errorf("%w: got %d, want %d", ErrByteRateMismatch, f.ByteRate, want)
	}
	if uint32(f.BlockAlign) != frame {
		return Format{}, fmt.Errorf("%w: got %d, want %d", ErrBlockAlignMismatch, f.BlockAlign, frame)
	}

	return f, nil
}
