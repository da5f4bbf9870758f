// SPDX-License-Identifier: EPL-2.0

package output

import (
	"sync"
	"time"

	"github.com/ik5/wavdac/scheduler"
)

// DefaultMaxBurst bounds how much audio a late pacer catches up on at once.
const DefaultMaxBurst = 100 * time.Millisecond

// Pacer calls tick at a sample rate from a coarse periodic task, catching
// up on the ticks that fell due since its last run.
type Pacer struct {
	tick     func()
	maxBurst time.Duration

	mu      sync.Mutex
	rate    int
	start   time.Time
	emitted int64
}

func NewPacer(tick func(), rate int) *Pacer {
	return &Pacer{tick: tick, rate: rate, maxBurst: DefaultMaxBurst}
}

// SetRate changes the tick rate and restarts the clock.
func (p *Pacer) SetRate(hz int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.rate = hz
	p.start = time.Time{}
	p.emitted = 0
}

func (p *Pacer) Rate() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.rate
}

// Reset restarts the clock so time spent paused is not caught up on.
func (p *Pacer) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.start = time.Time{}
	p.emitted = 0
}

// Run is a scheduler.RunFunc.
func (p *Pacer) Run(*scheduler.Task) {
	p.Advance(time.Now())
}

// Advance calls tick for every sample due at now and returns how many it
// called. The first call only starts the clock.
func (p *Pacer) Advance(now time.Time) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.rate <= 0 {
		return 0
	}
	if p.start.IsZero() {
		p.start = now
		return 0
	}

	d := now.Sub(p.start)
	rate := int64(p.rate)
	due := int64(d/time.Second)*rate + int64(d%time.Second)*rate/int64(time.Second)
	behind := due - p.emitted
	if limit := int64(p.maxBurst) * rate / int64(time.Second); behind > limit {
		behind = limit
		p.emitted = due - limit
	}

	for range behind {
		p.tick()
	}
	p.emitted += behind

	return int(behind)
}
