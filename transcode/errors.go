// SPDX-License-Identifier: EPL-2.0

package transcode

import "errors"

var (
	ErrUnknownFormat   = errors.New("transcode: no decoder for format")
	ErrInvalidDstSize  = errors.New("transcode: dst size must be a multiple of channels")
	ErrUnsupportedBits = errors.New("transcode: unsupported bit depth")
	ErrNotWAVE         = errors.New("transcode: not a WAVE file")
	ErrNotAIFF         = errors.New("transcode: not an AIFF file")
	ErrSampleRate      = errors.New("transcode: target sample rate out of range")
)
