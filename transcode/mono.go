// SPDX-License-Identifier: EPL-2.0

package transcode

// MonoMixer averages the channels of its source into one.
type MonoMixer struct {
	src Source
	tmp []float32
}

func NewMonoMixer(src Source) *MonoMixer {
	return &MonoMixer{src: src}
}

func (m *MonoMixer) SampleRate() int { return m.src.SampleRate() }
func (m *MonoMixer) Channels() int   { return 1 }
func (m *MonoMixer) Close() error    { return m.src.Close() }

func (m *MonoMixer) ReadSamples(dst []float32) (int, error) {
	ch := m.src.Channels()
	if ch == 1 || len(dst) == 0 {
		return m.src.ReadSamples(dst)
	}

	need := len(dst) * ch
	if cap(m.tmp) < need {
		m.tmp = make([]float32, need)
	}
	m.tmp = m.tmp[:need]

	n, err := m.src.ReadSamples(m.tmp)
	frames := n / ch
	scale := 1 / float32(ch)

	for f := range frames {
		frame := m.tmp[f*ch : (f+1)*ch]
		if ch == 2 {
			dst[f] = (frame[0] + frame[1]) * 0.5
			continue
		}
		var sum float32
		for _, s := range frame {
			sum += s
		}
		dst[f] = sum * scale
	}
	return frames, err
}
