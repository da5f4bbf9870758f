// SPDX-License-Identifier: EPL-2.0

package wavdac

import (
	"context"
	"fmt"
	"time"

	"github.com/ik5/wavdac/chunkio"
	"github.com/ik5/wavdac/output"
	"github.com/ik5/wavdac/player"
)

// DefaultPollInterval is how often PlayFile checks for the end of playback.
const DefaultPollInterval = 10 * time.Millisecond

// Options tunes PlayFile.
type Options struct {
	// Volume is 0..100. Values outside the range are clamped.
	Volume int
	// PollInterval defaults to DefaultPollInterval.
	PollInterval time.Duration
	Player       player.Config
}

// PlayFile plays name from fsys through dac and returns once the file has
// played out or ctx is done. A stream that failed part way through reports
// its error after the output has faded to silence.
func PlayFile(ctx context.Context, fsys chunkio.FileSystem, name string, dac output.DAC, opts Options) error {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}

	p := player.New(fsys, output.NewDevice(dac, opts.Volume), opts.Player)
	defer p.Close()

	if err := p.Load(name); err != nil {
		return err
	}
	if err := p.Play(); err != nil {
		return fmt.Errorf("playing %s: %w", name, err)
	}

	ticker := time.NewTicker(opts.PollInterval)
	defer ticker.Stop()

	for !p.IsDonePlaying() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}

	if err := p.Err(); err != nil {
		return fmt.Errorf("playing %s: %w", name, err)
	}
	return nil
}
