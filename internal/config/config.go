// SPDX-License-Identifier: EPL-2.0

// Package config reads wavdac settings from command-line flags, falling
// back to WAVDAC_* environment variables and then to defaults.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"
)

const envPrefix = "WAVDAC_"

// Output sinks.
const (
	OutputSpeaker = "speaker"
	OutputNull    = "null"
	OutputStdout  = "stdout"
	OutputRecord  = "record"
)

// Amplifier power switches.
const (
	PowerNone   = "none"
	PowerLog    = "log"
	PowerLogLow = "log-low"
)

var (
	ErrVolume = errors.New("config: volume must be 0..100")
	ErrOutput = errors.New("config: unknown output")
	ErrPower  = errors.New("config: unknown power switch")
	ErrRate   = errors.New("config: sample rate must be 1..48000")
	ErrEnv    = errors.New("config: bad environment value")
)

type Config struct {
	Dir    string
	Addr   string
	Volume int
	Intro  string

	Output      string
	RecordPath  string
	SpeakerRate int
	// Rate is the sample rate prep converts to.
	Rate int

	RampTime     time.Duration
	FillInterval time.Duration
	Settle       time.Duration
	NoRamp       bool

	Power   string
	Origins []string

	Debug bool
}

func Default() Config {
	return Config{
		Dir:          ".",
		Addr:         ":8080",
		Volume:       100,
		Output:       OutputSpeaker,
		RecordPath:   "wavdac-out.wav",
		Rate:         8000,
		RampTime:     500 * time.Millisecond,
		FillInterval: 250 * time.Millisecond,
		Settle:       250 * time.Millisecond,
		Power:        PowerNone,
	}
}

// Parse reads the flags of the named subcommand from args. getenv supplies
// the environment fallbacks, usually os.Getenv. It returns the config and
// the arguments left after the flags.
func Parse(name string, args []string, getenv func(string) string, usage io.Writer) (Config, []string, error) {
	cfg := Default()
	env := envReader{getenv: getenv}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	if usage != nil {
		fs.SetOutput(usage)
	}

	fs.StringVar(&cfg.Dir, "dir", env.str("DIR", cfg.Dir), "directory holding the sound files")
	fs.StringVar(&cfg.Addr, "addr", env.str("ADDR", cfg.Addr), "control API listen address")
	fs.IntVar(&cfg.Volume, "volume", env.integer("VOLUME", cfg.Volume), "output volume, 0..100")
	fs.StringVar(&cfg.Intro, "intro", env.str("INTRO", cfg.Intro), "file played before every sound")
	fs.StringVar(&cfg.Output, "output", env.str("OUTPUT", cfg.Output), "sink: speaker, null, stdout or record")
	fs.StringVar(&cfg.RecordPath, "record", env.str("RECORD", cfg.RecordPath), "WAVE file written by the record sink")
	fs.IntVar(&cfg.SpeakerRate, "speaker-rate", env.integer("SPEAKER_RATE", cfg.SpeakerRate), "sample rate the sound card is opened at, 0 matches the first file")
	fs.IntVar(&cfg.Rate, "rate", env.integer("RATE", cfg.Rate), "sample rate prep converts to")
	fs.DurationVar(&cfg.RampTime, "ramp", env.duration("RAMP", cfg.RampTime), "fade in and out time")
	fs.DurationVar(&cfg.FillInterval, "fill-interval", env.duration("FILL_INTERVAL", cfg.FillInterval), "minimum time between buffer fills")
	fs.DurationVar(&cfg.Settle, "settle", env.duration("SETTLE", cfg.Settle), "wait after loading a file")
	fs.BoolVar(&cfg.NoRamp, "no-ramp", env.boolean("NO_RAMP", cfg.NoRamp), "disable fade in and out")
	fs.StringVar(&cfg.Power, "power", env.str("POWER", cfg.Power), "amplifier switch: none, log or log-low")
	origins := fs.String("cors-origins", env.str("CORS_ORIGINS", ""), "comma separated allowed origins, empty allows all")
	fs.BoolVar(&cfg.Debug, "debug", env.boolean("DEBUG", cfg.Debug), "debug logging")

	if err := errors.Join(env.errs...); err != nil {
		return cfg, nil, err
	}
	if err := fs.Parse(args); err != nil {
		return cfg, nil, err
	}

	cfg.Origins = splitList(*origins)
	if err := cfg.Validate(); err != nil {
		return cfg, nil, err
	}
	return cfg, fs.Args(), nil
}

func (c Config) Validate() error {
	if c.Volume < 0 || c.Volume > 100 {
		return fmt.Errorf("%w: %d", ErrVolume, c.Volume)
	}
	if c.Rate < 1 || c.Rate > 48000 {
		return fmt.Errorf("%w: %d", ErrRate, c.Rate)
	}
	if c.SpeakerRate < 0 || c.SpeakerRate > 48000 {
		return fmt.Errorf("%w: %d", ErrRate, c.SpeakerRate)
	}
	if !slices.Contains([]string{OutputSpeaker, OutputNull, OutputStdout, OutputRecord}, c.Output) {
		return fmt.Errorf("%w: %q", ErrOutput, c.Output)
	}
	if !slices.Contains([]string{PowerNone, PowerLog, PowerLogLow}, c.Power) {
		return fmt.Errorf("%w: %q", ErrPower, c.Power)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// envReader looks up WAVDAC_* variables and collects parse errors.
type envReader struct {
	getenv func(string) string
	errs   []error
}

func (e *envReader) lookup(key string) string {
	if e.getenv == nil {
		return ""
	}
	return e.getenv(envPrefix + key)
}

func (e *envReader) str(key, def string) string {
	if v := e.lookup(key); v != "" {
		return v
	}
	return def
}

func (e *envReader) integer(key string, def int) int {
	v := e.lookup(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%w: %s%s=%q", ErrEnv, envPrefix, key, v))
		return def
	}
	return n
}

func (e *envReader) boolean(key string, def bool) bool {
	v := e.lookup(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%w: %s%s=%q", ErrEnv, envPrefix, key, v))
		return def
	}
	return b
}

func (e *envReader) duration(key string, def time.Duration) time.Duration {
	v := e.lookup(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%w: %s%s=%q", ErrEnv, envPrefix, key, v))
		return def
	}
	return d
}
