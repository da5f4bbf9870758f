// SPDX-License-Identifier: EPL-2.0

package playlist

import "log/slog"

// PowerSwitch turns the amplifier on and off.
type PowerSwitch interface {
	SetPower(on bool) error
}

// PowerFunc adapts a function to a PowerSwitch.
type PowerFunc func(on bool) error

func (f PowerFunc) SetPower(on bool) error { return f(on) }

// NoPower is used when there is no amplifier to control.
type NoPower struct{}

func (NoPower) SetPower(bool) error { return nil }

// LogPower only logs the requested state.
type LogPower struct {
	Log *slog.Logger
}

func (p LogPower) SetPower(on bool) error {
	log := p.Log
	if log == nil {
		log = slog.Default()
	}
	log.Info("amplifier power", "on", on)
	return nil
}

// ActiveLow drives a switch whose enable line is inverted.
type ActiveLow struct {
	Switch PowerSwitch
}

func (a ActiveLow) SetPower(on bool) error { return a.Switch.SetPower(!on) }
