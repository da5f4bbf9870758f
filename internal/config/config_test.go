// SPDX-License-Identifier: EPL-2.0

package config

import (
	"errors"
	"io"
	"slices"
	"testing"
	"time"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestParse_Defaults(t *testing.T) {
	t.Parallel()

	cfg, rest, err := Parse("play", nil, nil, io.Discard)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := Default()
	if cfg.Dir != want.Dir || cfg.Volume != 100 || cfg.Output != OutputSpeaker || cfg.RampTime != 500*time.Millisecond || cfg.SpeakerRate != 0 {
		t.Errorf("cfg = %+v", cfg)
	}
	if len(rest) != 0 || cfg.Origins != nil {
		t.Errorf("rest = %v, origins = %v", rest, cfg.Origins)
	}
}

func TestParse_EnvAndFlags(t *testing.T) {
	t.Parallel()

	env := envMap(map[string]string{
		"WAVDAC_DIR":          "/srv/sounds",
		"WAVDAC_VOLUME":       "40",
		"WAVDAC_RAMP":         "100ms",
		"WAVDAC_DEBUG":        "true",
		"WAVDAC_OUTPUT":       "null",
		"WAVDAC_CORS_ORIGINS": "http://a.local, ,http://b.local",
	})

	cfg, rest, err := Parse("serve", []string{"-volume", "70", "bark.wav"}, env, io.Discard)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Dir != "/srv/sounds" || cfg.RampTime != 100*time.Millisecond || !cfg.Debug || cfg.Output != OutputNull {
		t.Errorf("env not applied: %+v", cfg)
	}
	if cfg.Volume != 70 {
		t.Errorf("Volume = %d, flag should win over env", cfg.Volume)
	}
	if !slices.Equal(cfg.Origins, []string{"http://a.local", "http://b.local"}) {
		t.Errorf("Origins = %v", cfg.Origins)
	}
	if !slices.Equal(rest, []string{"bark.wav"}) {
		t.Errorf("rest = %v", rest)
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		env  map[string]string
		want error
	}{
		{"volume flag", []string{"-volume", "101"}, nil, ErrVolume},
		{"output", []string{"-output", "hdmi"}, nil, ErrOutput},
		{"power", []string{"-power", "relay"}, nil, ErrPower},
		{"rate", []string{"-rate", "96000"}, nil, ErrRate},
		{"speaker rate", nil, map[string]string{"WAVDAC_SPEAKER_RATE": "-1"}, ErrRate},
		{"env int", nil, map[string]string{"WAVDAC_VOLUME": "loud"}, ErrEnv},
		{"env duration", nil, map[string]string{"WAVDAC_SETTLE": "soon"}, ErrEnv},
		{"env bool", nil, map[string]string{"WAVDAC_NO_RAMP": "maybe"}, ErrEnv},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, _, err := Parse("play", tt.args, envMap(tt.env), io.Discard)
			if !errors.Is(err, tt.want) {
				t.Errorf("Parse() error = %v, want %v", err, tt.want)
			}
		})
	}

	if _, _, err := Parse("play", []string{"-nope"}, nil, io.Discard); err == nil {
		t.Error("unknown flag accepted")
	}
}
