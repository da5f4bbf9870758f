// SPDX-License-Identifier: EPL-2.0

package output

// MaxVolume is full scale; NewVolumeTable(MaxVolume) changes nothing but
// the one-step offset of the silence point.
const MaxVolume = 100

// VolumeTable maps a raw unsigned 8-bit sample to the value written to the
// DAC. Scaling happens around 127 so silence stays silence at any volume.
type VolumeTable [256]uint8

// ClampVolume limits v to [0, MaxVolume].
func ClampVolume(v int) int {
	return min(max(v, 0), MaxVolume)
}

// NewVolumeTable builds the table for volume v, clamped to [0, 100]:
// table[b] = (b-127)*v/100 + 128, limited to the byte range.
func NewVolumeTable(v int) *VolumeTable {
	v = ClampVolume(v)

	var t VolumeTable
	for b := range t {
		scaled := (b-127)*v/MaxVolume + 128
		t[b] = uint8(min(max(scaled, 0), 255))
	}
	return &t
}
