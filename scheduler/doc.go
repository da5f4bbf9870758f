// SPDX-License-Identifier: EPL-2.0

// Package scheduler runs periodic work on dedicated goroutines.
//
// A Task calls its RunFunc once per period while started. Pause and
// Terminate block until the loop confirms that no run is in progress, so a
// caller can safely release whatever the RunFunc touches right after they
// return:
//
//	fill := scheduler.New("fill", func(t *scheduler.Task) {
//	    if t.HasElapsed(250 * time.Millisecond) {
//	        t.ResetElapsedTimer()
//	        refill()
//	    }
//	}, logger)
//	fill.SetPeriod(10 * time.Millisecond)
//	fill.Start()
//	...
//	fill.Terminate()
package scheduler
