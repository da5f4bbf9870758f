// SPDX-License-Identifier: EPL-2.0

package transcode

import (
	"io"

	"github.com/go-audio/aiff"
)

// AIFFDecoder decodes AIFF files. AIFF 8-bit samples are signed.
type AIFFDecoder struct{}

func (AIFFDecoder) Decode(r io.Reader) (Source, error) {
	rs, err := seekable(r)
	if err != nil {
		return nil, err
	}

	dec := aiff.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrNotAIFF
	}
	dec.ReadInfo()

	format := dec.Format()
	if format == nil || format.NumChannels == 0 {
		return nil, ErrNotAIFF
	}
	return newIntSource(dec, format, int(dec.BitDepth), false)
}
