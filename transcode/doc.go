// SPDX-License-Identifier: EPL-2.0

// Package transcode prepares audio for the player.
//
// The player streams uncompressed PCM WAVE and sounds best on 8-bit mono
// at a low rate. This package decodes WAV, MP3, Ogg Vorbis and AIFF into
// float32 Sources, resamples them with cubic interpolation, mixes them to
// mono and writes 8-bit mono WAVE files:
//
//	res, err := transcode.ConvertFile("bark.mp3", "bark.wav", transcode.Options{SampleRate: 8000})
//
// Sources compose, so a pipeline can also be built by hand:
//
//	src, _ := transcode.MP3Decoder{}.Decode(f)
//	mono := transcode.NewMonoMixer(transcode.NewResampler(src, 8000))
package transcode
