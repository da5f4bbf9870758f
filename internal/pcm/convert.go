// SPDX-License-Identifier: EPL-2.0

// Package pcm converts between the sample representations the player
// meets: unsigned 8-bit (silence at 128), signed 16-bit and float32 in
// [-1, 1].
package pcm

import "math"

// Silence8 is the unsigned 8-bit zero level.
const Silence8 = 128

// Float32ToUint8 clamps x to [-1, 1] and maps it onto unsigned 8-bit.
func Float32ToUint8(x float32) uint8 {
	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}

	v := int(math.Round(float64(x)*127)) + Silence8
	return uint8(min(max(v, 0), 255))
}

// Int16ToUint8 keeps the high byte of a signed 16-bit sample.
func Int16ToUint8(s int16) uint8 {
	return uint8((int32(s) >> 8) + Silence8)
}

// MixUint8 averages unsigned 8-bit samples from several channels.
func MixUint8(samples ...uint8) uint8 {
	if len(samples) == 0 {
		return Silence8
	}

	sum := 0
	for _, s := range samples {
		sum += int(s)
	}
	return uint8(sum / len(samples))
}

// MixInt16 averages signed 16-bit samples from several channels.
func MixInt16(samples ...int16) int16 {
	if len(samples) == 0 {
		return 0
	}

	sum := 0
	for _, s := range samples {
		sum += int(s)
	}
	return int16(sum / len(samples))
}
