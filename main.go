package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexflint/go-arg"
	"github.com/juju/errors"
	"golang.org/x/sync/errgroup"

	"github.com/mrdg/phrasegen/audio"
	"github.com/mrdg/phrasegen/config"
	"github.com/mrdg/phrasegen/logger"
)

type renderCmd struct {
	Out      string `arg:"-o,--out" default:"out.wav" help:"WAV file to write"`
	Measures int    `arg:"-m,--measures" default:"8" help:"number of measures to render"`
}

type exportCmd struct {
	Out      string `arg:"-o,--out" default:"out.mid" help:"MIDI file to write"`
	Measures int    `arg:"-m,--measures" default:"8" help:"number of measures to export"`
}

type playCmd struct {
	Run      string `arg:"--run" help:"file with commands to run before the prompt"`
	NoPrompt bool   `arg:"--no-prompt" help:"play until interrupted without reading commands"`
}

type cli struct {
	Song     string     `arg:"-s,--song,required" help:"YAML song description"`
	LogLevel string     `arg:"--log-level" default:"info" help:"debug, info, warn or error"`
	Quiet    bool       `arg:"-q,--quiet" help:"do not log"`
	Render   *renderCmd `arg:"subcommand:render" help:"render the song to a WAV file"`
	Export   *exportCmd `arg:"subcommand:export" help:"write the song to a MIDI file"`
	Play     *playCmd   `arg:"subcommand:play" help:"play the song and read commands"`
}

func (cli) Description() string {
	return "phrasegen composes phrases from rhythm and melody sequences and plays them"
}

func main() {
	var args cli
	p := arg.MustParse(&args)
	if p.Subcommand() == nil {
		p.Fail("missing subcommand")
	}
	if err := logger.SetLevel(args.LogLevel); err != nil {
		p.Fail(err.Error())
	}
	if args.Quiet {
		logger.Discard()
	}

	if err := run(args); err != nil {
		logger.GetProjectLogger().Debug(errors.ErrorStack(err))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args cli) error {
	song, err := config.Load(args.Song)
	if err != nil {
		return err
	}
	switch {
	case args.Render != nil:
		return renderSong(song, args.Render.Out, args.Render.Measures)
	case args.Export != nil:
		return exportSong(song, args.Export.Out, args.Export.Measures)
	case args.Play != nil:
		return play(song, args.Play)
	}
	return nil
}

func play(song *config.Song, opts *playCmd) error {
	arr, err := song.Build()
	if err != nil {
		return err
	}
	eng, err := newEngine(arr)
	if err != nil {
		return err
	}
	env := &env{song: song, arr: arr, engine: eng}
	if opts.Run != "" {
		script, err := os.ReadFile(opts.Run)
		if err != nil {
			return errors.Trace(err)
		}
		if err := env.run(string(script), os.Stdout); err != nil {
			return errors.Annotatef(err, "run %s", opts.Run)
		}
	}

	sink, err := audio.NewSink(arr.Rate)
	if err != nil {
		return err
	}
	sink.AddProcessors(eng)
	if err := sink.Start(); err != nil {
		sink.Stop()
		return err
	}
	log := logger.GetProjectLogger()
	log.WithField("parts", len(arr.Parts)).Info("playing")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)
	if !opts.NoPrompt {
		g.Go(func() error {
			defer stop()
			return repl(ctx, env)
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		log.Info("stopping")
		return sink.Stop()
	})
	return g.Wait()
}
