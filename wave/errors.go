// SPDX-License-Identifier: EPL-2.0

package wave

import (
	"errors"
	"fmt"
)

var (
	ErrShortHeader        = errors.New("header too short")
	ErrNotRIFF            = errors.New("missing RIFF marker")
	ErrNotWAVE            = errors.New("missing WAVE marker")
	ErrNoFmtChunk         = errors.New("missing fmt chunk")
	ErrFmtSize            = errors.New("unusable fmt chunk size")
	ErrNotPCM             = errors.New("only PCM format is supported")
	ErrChannels           = errors.New("only mono or stereo is supported")
	ErrSampleRate         = errors.New("sample rate out of range")
	ErrBitsPerSample      = errors.New("only 8 or 16 bits per sample is supported")
	ErrByteRateMismatch   = errors.New("byte rate does not match format")
	ErrBlockAlignMismatch = errors.New("block align does not match format")
	ErrNoDataChunk        = errors.New("no data chunk found")
)

// HeaderParseError reports which stage of header parsing failed.
type HeaderParseError struct {
	Stage string
	Err   error
}

func (e *HeaderParseError) Error() string {
	return fmt.Sprintf("wave header %s: %v", e.Stage, e.Err)
}

func (e *HeaderParseError) Unwrap() error { return e.Err }
