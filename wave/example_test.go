// SPDX-License-Identifier: EPL-2.0

package wave_test

import (
	"fmt"
	"io/fs"
	"testing/fstest"

	"github.com/ik5/wavdac/chunkio"
	"github.com/ik5/wavdac/internal/audiotest"
	"github.com/ik5/wavdac/wave"
)

func ExampleParseHeader() {
	sounds := chunkio.FlashFileSystem{FS: fstest.MapFS{
		"beep.wav": &fstest.MapFile{Data: audiotest.PCM8(8000, make([]byte, 4000)), Mode: fs.ModePerm},
	}}

	f, err := sounds.Open("beep.wav")
	if err != nil {
		fmt.Println(err)
		return
	}
	defer f.Close()

	format, err := wave.ParseHeader(f, nil)
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println(format)
	// Output: 8000 Hz, 8-bit, 1 ch, 8000 B/s, 4000 bytes (500ms)
}
