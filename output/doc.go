// SPDX-License-Identifier: EPL-2.0

// Package output moves samples from a stream to an 8-bit DAC.
//
// A Device owns the DAC and the volume table; a Consumer pulls one sample
// per tick from the attached stream into the device; a Pacer issues those
// ticks at the sample rate from a scheduler task. The device only writes
// when the value changes, which is what a real DAC register wants. Sinks
// that need a sample on every tick (WriterDAC, Recorder, the speaker)
// implement Latcher and keep the last level themselves.
//
//	dev := output.NewDevice(output.NewRecorder(), 80)
//	consumer := output.NewConsumer(dev, logger)
//	consumer.Attach(s)
//	pacer := output.NewPacer(consumer.Tick, int(s.Format().SampleRate))
//	task := scheduler.New("output", pacer.Run, logger)
//	task.SetPeriod(time.Millisecond)
//	task.Start()
package output
