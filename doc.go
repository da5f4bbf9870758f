// SPDX-License-Identifier: EPL-2.0

// Package wavdac streams 8-bit mono WAVE files to an 8-bit DAC.
//
// The module is split the way the data flows:
//
//   - chunkio opens files and reads them in chunks, either from the OS or
//     from an fs.FS image such as embedded flash.
//   - wave parses a RIFF/WAVE header down to the start of the sample data.
//   - stream keeps a ring buffer of samples filled by a background task,
//     fading in from silence when playback starts and out to silence after
//     the last sample.
//   - output applies the volume table and writes to the DAC, paced at the
//     file's sample rate.
//   - player plays one file at a time; playlist sequences an optional intro
//     and a selected sound and switches the amplifier around them.
//   - control exposes the playlist over HTTP; transcode prepares other
//     audio formats as 8-bit mono WAVE files the stream can play.
//
// # Quick Start
//
// PlayFile plays a single file and returns when it is done:
//
//	rec := output.NewRecorder()
//	err := wavdac.PlayFile(ctx, chunkio.OSFileSystem{}, "bark.wav", rec, wavdac.Options{Volume: 80})
//
// Any type with a WriteSample(uint8) error method can be the DAC. Sinks that
// want a sample on every tick rather than only on changes also implement
// output.Latcher.
//
// # Preparing Files
//
// Only unsigned 8-bit mono PCM plays. Anything the transcode registry can
// decode converts in one call:
//
//	res, err := transcode.ConvertFile("in.mp3", "out.wav", transcode.Options{SampleRate: 8000})
//
// See the individual subpackages for more detailed documentation.
package wavdac
