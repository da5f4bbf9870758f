// SPDX-License-Identifier: EPL-2.0

// Command wavdac plays 8-bit WAVE files and serves a playlist over HTTP.
//
//	wavdac play [flags] file...
//	wavdac serve [flags]
//	wavdac prep [flags] in out
//	wavdac info file...
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/ik5/wavdac"
	"github.com/ik5/wavdac/chunkio"
	"github.com/ik5/wavdac/control"
	"github.com/ik5/wavdac/internal/config"
	"github.com/ik5/wavdac/output"
	"github.com/ik5/wavdac/output/speaker"
	"github.com/ik5/wavdac/player"
	"github.com/ik5/wavdac/playlist"
	"github.com/ik5/wavdac/stream"
	"github.com/ik5/wavdac/transcode"
	"github.com/ik5/wavdac/wave"
)

var version = "dev"

const usage = `usage: wavdac <command> [flags] [args]

commands:
  play   play files from -dir, with -intro before each
  serve  serve the playlist of -dir on -addr
  prep   convert an audio file to 8-bit mono WAVE at -rate
  info   print the format of WAVE files

Run wavdac <command> -h for the flags of a command.
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	commands := map[string]func(context.Context, config.Config, []string, io.Writer, *slog.Logger) error{
		"play":  playCmd,
		"serve": serveCmd,
		"prep":  prepCmd,
		"info":  infoCmd,
	}

	name := args[0]
	cmd, ok := commands[name]
	if !ok {
		if name == "version" || name == "-version" {
			fmt.Fprintln(stdout, "wavdac", version)
			return 0
		}
		fmt.Fprintf(stderr, "wavdac: unknown command %q\n\n%s", name, usage)
		return 2
	}

	cfg, rest, err := config.Parse(name, args[1:], os.Getenv, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(stderr, "wavdac:", err)
		return 2
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd(ctx, cfg, rest, stdout, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("command failed", "command", name, "err", err)
		return 1
	}
	return 0
}

// openSink returns the DAC named by cfg.Output and the function that
// releases it. The stdout sink writes to w. The speaker opens at
// cfg.SpeakerRate, or at the rate of the first of files that parses when
// that is 0.
func openSink(cfg config.Config, files []string, w io.Writer, log *slog.Logger) (output.DAC, func() error, error) {
	switch cfg.Output {
	case config.OutputSpeaker:
		s, err := speaker.New(speakerRate(cfg, files, log), speaker.DefaultLatency, log)
		if err != nil {
			return nil, nil, err
		}
		return s, func() error {
			if n := s.Dropped(); n > 0 {
				log.Warn("speaker fell behind", "dropped", n)
			}
			return s.Close()
		}, nil
	case config.OutputStdout:
		wd := output.NewWriterDAC(w)
		return wd, func() error {
			if rate := wd.SampleRate(); rate > 0 {
				log.Info("raw stream written", "sample_rate", rate)
			}
			return wd.Flush()
		}, nil
	case config.OutputRecord:
		rec := output.NewRecorder()
		return rec, func() error {
			log.Info("saving recording",
				"path", cfg.RecordPath,
				"samples", len(rec.Samples()),
				"sample_rate", rec.SampleRate(),
			)
			return rec.Save(cfg.RecordPath, 0)
		}, nil
	default:
		return &output.NullDAC{}, func() error { return nil }, nil
	}
}

func speakerRate(cfg config.Config, files []string, log *slog.Logger) int {
	if cfg.SpeakerRate > 0 {
		return cfg.SpeakerRate
	}
	for _, name := range files {
		format, err := readFormat(name, log)
		if err != nil {
			continue
		}
		log.Info("speaker rate follows file", "file", name, "sample_rate", format.SampleRate)
		return int(format.SampleRate)
	}
	return speaker.DefaultSampleRate
}

func powerSwitch(cfg config.Config, log *slog.Logger) playlist.PowerSwitch {
	switch cfg.Power {
	case config.PowerLog:
		return playlist.LogPower{Log: log}
	case config.PowerLogLow:
		return playlist.ActiveLow{Switch: playlist.LogPower{Log: log}}
	default:
		return playlist.NoPower{}
	}
}

func playerConfig(cfg config.Config, log *slog.Logger) player.Config {
	return player.Config{
		Stream: stream.Config{
			RampTime:     cfg.RampTime,
			FillInterval: cfg.FillInterval,
			DisableRamp:  cfg.NoRamp,
			Logger:       log,
		},
		Settle: cfg.Settle,
		Logger: log,
	}
}

func inDir(dir, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

func playCmd(ctx context.Context, cfg config.Config, files []string, stdout io.Writer, log *slog.Logger) (err error) {
	if len(files) == 0 {
		return errors.New("play: no files given")
	}

	var queue []string
	for _, name := range files {
		if cfg.Intro != "" {
			queue = append(queue, inDir(cfg.Dir, cfg.Intro))
		}
		queue = append(queue, inDir(cfg.Dir, name))
	}

	dac, release, err := openSink(cfg, queue, stdout, log)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, release())
	}()

	fsys := chunkio.OSFileSystem{}
	opts := wavdac.Options{Volume: cfg.Volume, Player: playerConfig(cfg, log)}

	for _, name := range queue {
		err := wavdac.PlayFile(ctx, fsys, name, dac, opts)
		switch {
		case errors.Is(err, output.ErrRateMismatch):
			log.Warn("skipping file", "file", name, "err", err)
		case err != nil:
			return err
		}
	}
	return nil
}

func serveCmd(ctx context.Context, cfg config.Config, _ []string, stdout io.Writer, log *slog.Logger) (err error) {
	fsys := chunkio.OSFileSystem{}
	names, err := fsys.List(cfg.Dir)
	if err != nil {
		return err
	}
	if cfg.Intro != "" {
		names = append([]string{inDir(cfg.Dir, cfg.Intro)}, names...)
	}

	dac, release, err := openSink(cfg, names, stdout, log)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, release())
	}()

	p := player.New(fsys, output.NewDevice(dac, cfg.Volume), playerConfig(cfg, log))
	defer p.Close()

	m := playlist.New(fsys, p, playlist.Config{Power: powerSwitch(cfg, log), Logger: log})
	defer m.Close()

	if err := m.AddFilesFrom(cfg.Dir); err != nil {
		return err
	}
	if cfg.Intro != "" {
		if err := m.SetIntroName(cfg.Intro); err != nil {
			return err
		}
	}
	m.Start()

	log.Info("wavdac starting",
		"version", version,
		"dir", cfg.Dir,
		"files", len(m.Files()),
		"addr", cfg.Addr,
		"output", cfg.Output,
	)

	router := control.NewRouter(control.NewHandler(m, version, log), cfg.Origins)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return control.Serve(ctx, cfg.Addr, router, log)
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("stopping playlist")
		// The manager pauses output and powers down before the player goes.
		return errors.Join(m.Close(), p.Close())
	})
	return g.Wait()
}

func prepCmd(_ context.Context, cfg config.Config, args []string, stdout io.Writer, log *slog.Logger) error {
	if len(args) != 2 {
		return errors.New("prep: want an input and an output file")
	}

	res, err := transcode.ConvertFile(args[0], args[1], transcode.Options{SampleRate: cfg.Rate})
	if err != nil {
		return err
	}
	if res.Clipped > 0 {
		log.Warn("samples clipped", "count", res.Clipped)
	}

	fmt.Fprintf(stdout, "%s: %d Hz %d ch -> %d Hz mono, %d samples\n",
		args[1], res.SourceRate, res.SourceChannels, res.SampleRate, res.Frames)
	return nil
}

func infoCmd(_ context.Context, cfg config.Config, files []string, stdout io.Writer, log *slog.Logger) error {
	if len(files) == 0 {
		return errors.New("info: no files given")
	}

	var errs []error
	for _, name := range files {
		format, err := readFormat(inDir(cfg.Dir, name), log)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		note := ""
		if !format.IsMono8() {
			note = " (plays downmixed, run prep for 8-bit mono)"
		}
		fmt.Fprintf(stdout, "%s: %s%s\n", name, format, note)
	}
	return errors.Join(errs...)
}

func readFormat(path string, log *slog.Logger) (wave.Format, error) {
	f, err := chunkio.OSFileSystem{}.Open(path)
	if err != nil {
		return wave.Format{}, err
	}
	defer f.Close()

	format, err := wave.ParseHeader(f, log)
	if err != nil {
		return wave.Format{}, fmt.Errorf("%s: %w", path, err)
	}
	return format, nil
}
