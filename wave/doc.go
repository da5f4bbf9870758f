// SPDX-License-Identifier: EPL-2.0

// Package wave parses the RIFF/WAVE header of PCM files the player can
// stream: 8 or 16 bits, mono or stereo, up to 48 kHz.
//
// ParseHeader consumes the header through a chunkio.File and leaves the
// file positioned at the first payload byte. Chunks between fmt and data
// (LIST, fact, cue and friends) are skipped with relative seeks. Every
// failure is a *HeaderParseError wrapping one of the package sentinels:
//
//	format, err := wave.ParseHeader(f, logger)
//	if errors.Is(err, wave.ErrNotPCM) {
//	    // compressed file
//	}
package wave
