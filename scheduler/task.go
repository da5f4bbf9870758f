// SPDX-License-Identifier: EPL-2.0

package scheduler

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// DefaultPeriod is the delay between runs when none is configured.
	DefaultPeriod = 20 * time.Millisecond
	// idleWait is how often a paused loop wakes up on its own.
	idleWait = 50 * time.Millisecond
)

// RunFunc is the periodic work of a Task. It receives the task so it can
// use the elapsed timer or pause itself with PauseAsync.
type RunFunc func(t *Task)

// Task runs a RunFunc on its own goroutine once per period while started.
// Pause and Terminate wait until the loop confirms; they must not be called
// from inside the RunFunc of the same task.
type Task struct {
	name string
	run  RunFunc
	log  *slog.Logger

	mu      sync.Mutex
	enabled bool
	period  time.Duration

	wake     chan struct{}
	pauseReq chan struct{}
	quit     chan struct{}
	done     chan struct{}
	quitOnce sync.Once

	idle         atomic.Bool
	elapsedStart atomic.Int64
}

// New creates a task and its goroutine. The task stays idle until Start.
func New(name string, run RunFunc, log *slog.Logger) *Task {
	if log == nil {
		log = slog.Default()
	}

	t := &Task{
		name:     name,
		run:      run,
		log:      log.With("task", name),
		period:   DefaultPeriod,
		wake:     make(chan struct{}, 1),
		pauseReq: make(chan struct{}),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	t.elapsedStart.Store(time.Now().UnixNano())
	t.idle.Store(true)

	go t.loop()

	return t
}

func (t *Task) Name() string { return t.name }

// Start enables periodic runs. Starting a running task is a no-op.
func (t *Task) Start() {
	t.mu.Lock()
	t.enabled = true
	t.mu.Unlock()

	t.nudge()
}

// Pause disables runs and returns once any run in progress has finished.
func (t *Task) Pause() {
	t.PauseAsync()

	select {
	case t.pauseReq <- struct{}{}:
	case <-t.done:
	}
}

// PauseAsync disables runs without waiting. It is the form to use from
// inside the task's own RunFunc.
func (t *Task) PauseAsync() {
	t.mu.Lock()
	t.enabled = false
	t.mu.Unlock()
}

// Terminate stops the loop for good and returns once it has exited.
func (t *Task) Terminate() {
	t.quitOnce.Do(func() { close(t.quit) })
	<-t.done
}

// Done is closed once the loop has exited.
func (t *Task) Done() <-chan struct{} { return t.done }

// IsDead reports whether the loop has exited.
func (t *Task) IsDead() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// IsPaused reports whether the task is disabled and no run is in progress.
func (t *Task) IsPaused() bool {
	t.mu.Lock()
	enabled := t.enabled
	t.mu.Unlock()

	return !enabled && t.idle.Load()
}

// SetPeriod changes the delay between runs. Values below zero are treated
// as zero.
func (t *Task) SetPeriod(d time.Duration) {
	t.mu.Lock()
	t.period = max(d, 0)
	t.mu.Unlock()
}

func (t *Task) Period() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.period
}

// HasElapsed reports whether d has passed since the elapsed timer was last
// reset.
func (t *Task) HasElapsed(d time.Duration) bool {
	return time.Since(time.Unix(0, t.elapsedStart.Load())) >= d
}

func (t *Task) ResetElapsedTimer() {
	t.elapsedStart.Store(time.Now().UnixNano())
}

func (t *Task) nudge() {
	select {
	case t.wake <- struct{}{}:
	default:
	}
}

func (t *Task) loop() {
	defer close(t.done)
	defer t.log.Debug("task exited")

	timer := time.NewTimer(idleWait)
	defer timer.Stop()

	for {
		t.mu.Lock()
		enabled, period := t.enabled, t.period
		t.mu.Unlock()

		wait := idleWait
		if enabled {
			t.idle.Store(false)
			t.run(t)
			t.idle.Store(true)
			wait = period
		}

		timer.Reset(wait)
		select {
		case <-t.quit:
			return
		case <-t.pauseReq:
		case <-t.wake:
		case <-timer.C:
		}
	}
}
