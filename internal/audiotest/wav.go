// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"bytes"
	"encoding/binary"
)

// Chunk is an extra RIFF chunk placed around the data chunk.
type Chunk struct {
	ID   string
	Data []byte
}

// WAV describes a RIFF/WAVE file to build. Zero values for ByteRate,
// BlockAlign, FormatTag and FmtSize are derived from the other fields.
type WAV struct {
	SampleRate int
	Channels   int
	Bits       int

	FormatTag  uint16
	FmtSize    int
	ByteRate   uint32
	BlockAlign uint16

	// Before holds chunks placed between fmt and data.
	Before []Chunk
	// After holds chunks placed after data.
	After []Chunk
	Data  []byte
}

// Bytes encodes the file. Odd-sized chunks are padded as RIFF requires.
func (w WAV) Bytes() []byte {
	tag := w.FormatTag
	if tag == 0 {
		tag = 1
	}
	fmtSize := w.FmtSize
	if fmtSize == 0 {
		fmtSize = 16
	}
	blockAlign := w.BlockAlign
	if blockAlign == 0 {
		blockAlign = uint16(w.Channels * w.Bits / 8)
	}
	byteRate := w.ByteRate
	if byteRate == 0 {
		byteRate = uint32(w.SampleRate) * uint32(w.Channels*w.Bits/8)
	}

	body := new(bytes.Buffer)
	body.WriteString("WAVE")

	fmtBody := new(bytes.Buffer)
	binary.Write(fmtBody, binary.LittleEndian, tag)
	binary.Write(fmtBody, binary.LittleEndian, uint16(w.Channels))
	binary.Write(fmtBody, binary.LittleEndian, uint32(w.SampleRate))
	binary.Write(fmtBody, binary.LittleEndian, byteRate)
	binary.Write(fmtBody, binary.LittleEndian, blockAlign)
	binary.Write(fmtBody, binary.LittleEndian, uint16(w.Bits))
	for fmtBody.Len() < fmtSize {
		fmtBody.WriteByte(0)
	}
	writeChunk(body, "fmt ", fmtBody.Bytes()[:fmtSize])

	for _, c := range w.Before {
		writeChunk(body, c.ID, c.Data)
	}
	writeChunk(body, "data", w.Data)
	for _, c := range w.After {
		writeChunk(body, c.ID, c.Data)
	}

	out := new(bytes.Buffer)
	out.WriteString("RIFF")
	binary.Write(out, binary.LittleEndian, uint32(body.Len()))
	out.Write(body.Bytes())

	return out.Bytes()
}

func writeChunk(buf *bytes.Buffer, id string, data []byte) {
	buf.WriteString(id)
	binary.Write(buf, binary.LittleEndian, uint32(len(data)))
	buf.Write(data)
	if len(data)%2 == 1 {
		buf.WriteByte(0)
	}
}

// PCM8 builds an 8-bit mono file holding data.
func PCM8(sampleRate int, data []byte) []byte {
	return WAV{SampleRate: sampleRate, Channels: 1, Bits: 8, Data: data}.Bytes()
}

// PCM16 builds a 16-bit file holding interleaved samples.
func PCM16(sampleRate, channels int, samples []int16) []byte {
	data := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[2*i:], uint16(s))
	}
	return WAV{SampleRate: sampleRate, Channels: channels, Bits: 16, Data: data}.Bytes()
}

// Ramp returns n bytes counting up from start, wrapping at 256.
func Ramp(n int, start byte) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = start + byte(i)
	}
	return out
}

// Fill returns n copies of v.
func Fill(n int, v byte) []byte {
	return bytes.Repeat([]byte{v}, n)
}
