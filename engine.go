package main

import (
	"os"
	"sync"

	"github.com/juju/errors"
	"github.com/sirupsen/logrus"
	kclock "k8s.io/utils/clock"

	"github.com/mrdg/phrasegen/audio"
	"github.com/mrdg/phrasegen/clock"
	"github.com/mrdg/phrasegen/config"
	"github.com/mrdg/phrasegen/event"
	"github.com/mrdg/phrasegen/logger"
	"github.com/mrdg/phrasegen/midifile"
	"github.com/mrdg/phrasegen/music"
)

const renderBufferSize = 512

// engine drives the composers of an arrangement from the number of rendered
// samples and mixes the output of its instruments. The same pipeline serves
// the sound card and offline rendering.
type engine struct {
	mu    sync.Mutex
	arr   *config.Arrangement
	clock *clock.SampleClock
	sink  audio.Sink
	log   *logrus.Entry
}

func newEngine(arr *config.Arrangement) (*engine, error) {
	clk, err := clock.NewSampleClock(arr.TimeSignature, arr.Tempo, arr.Rate)
	if err != nil {
		return nil, err
	}
	e := &engine{
		arr:   arr,
		clock: clk,
		log:   logger.GetProjectLogger().WithField("component", "engine"),
	}
	if err := listen(arr, clk.Ticks()); err != nil {
		return nil, err
	}
	arr.Connect()
	e.sink.AddTicker(clk)
	for _, inst := range arr.Instruments() {
		e.sink.AddProcessors(inst)
	}
	return e, nil
}

// Process renders one buffer. It implements audio.Processor so the engine
// can be added to a live sink.
func (e *engine) Process(out [][]float32) {
	e.mu.Lock()
	e.sink.Process(out)
	e.mu.Unlock()
}

// update runs f while no buffer is being rendered.
func (e *engine) update(f func() error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return f()
}

// setTempo changes the tempo of the clock and of every instrument. Both
// apply it from the next measure, and no buffer is rendered in between the
// updates, so they switch on the same sample.
func (e *engine) setTempo(bpm float64) error {
	return e.update(func() error {
		if err := e.clock.SetTempo(bpm); err != nil {
			return err
		}
		for _, inst := range e.arr.Instruments() {
			if err := inst.Set("tempo", bpm); err != nil {
				return err
			}
		}
		return nil
	})
}

// render renders the given number of measures at the current tempo and
// returns the first channel.
func (e *engine) render(measures int) ([]float64, error) {
	if measures <= 0 {
		return nil, errors.NotValidf("%d measures", measures)
	}
	total := measures * int(e.arr.TimeSignature.SamplesPerMeasure(e.clock.Tempo(), e.arr.Rate))

	out := make([]float64, 0, total)
	buf := [][]float32{make([]float32, renderBufferSize), make([]float32, renderBufferSize)}
	for len(out) < total {
		n := total - len(out)
		if n > renderBufferSize {
			n = renderBufferSize
		}
		chunk := [][]float32{buf[0][:n], buf[1][:n]}
		e.Process(chunk)
		for _, s := range chunk[0] {
			out = append(out, float64(s))
		}
	}
	e.log.WithFields(logrus.Fields{
		"measures": measures,
		"samples":  len(out),
	}).Info("rendered")
	return out, nil
}

// tracks composes the given number of measures without rendering audio.
// Every part publishes at most one phrase per measure; when a listening
// part publishes more than once, the last phrase counts. The composers
// are advanced, so arr should not be shared with an engine.
func tracks(arr *config.Arrangement, measures int) ([]midifile.Track, error) {
	if measures <= 0 {
		return nil, errors.NotValidf("%d measures", measures)
	}
	tpm := arr.TimeSignature.TicksPerMeasure()
	clk, err := clock.New(kclock.RealClock{}, clock.TicksPerSecond(arr.TimeSignature, arr.Tempo))
	if err != nil {
		return nil, err
	}
	if err := listen(arr, clk.Ticks()); err != nil {
		return nil, err
	}

	phrases := make([][]*music.Phrase, len(arr.Parts))
	for i, p := range arr.Parts {
		i := i
		phrases[i] = make([]*music.Phrase, measures)
		ch, err := event.Lookup[*music.Phrase](arr.Events, config.PhraseChannel(p.Name))
		if err != nil {
			return nil, err
		}
		unsubscribe := ch.Subscribe(func(ph *music.Phrase) {
			if m := clk.Next() / tpm; m < measures {
				phrases[i][m] = ph
			}
		})
		defer unsubscribe()
	}
	clk.Increment(measures * tpm)

	var out []midifile.Track
	for i, p := range arr.Parts {
		if p.Instrument == nil {
			continue
		}
		for m, ph := range phrases[i] {
			if ph == nil {
				phrases[i][m] = music.NewPhrase(nil, arr.TimeSignature)
			}
		}
		out = append(out, midifile.Track{Name: p.Name, Channel: p.Channel, Phrases: phrases[i]})
	}
	return out, nil
}

// listen registers ticks as the tick channel of arr and makes every
// composer follow it.
func listen(arr *config.Arrangement, ticks *event.Channel[int]) error {
	if err := event.Add(arr.Events, event.Tick, ticks); err != nil {
		return errors.Annotatef(err, "arrangement already driven")
	}
	for _, c := range arr.Composers() {
		c.Listen(ticks)
	}
	return nil
}

// renderSong builds song and renders the given number of measures to a WAV
// file.
func renderSong(song *config.Song, file string, measures int) error {
	arr, err := song.Build()
	if err != nil {
		return err
	}
	e, err := newEngine(arr)
	if err != nil {
		return err
	}
	samples, err := e.render(measures)
	if err != nil {
		return err
	}
	f, err := os.Create(file)
	if err != nil {
		return errors.Trace(err)
	}
	if err := audio.WriteWAV(f, samples, arr.Rate); err != nil {
		f.Close()
		return errors.Annotatef(err, "write %s", file)
	}
	return errors.Trace(f.Close())
}

// exportSong builds song and writes the given number of measures to a MIDI
// file.
func exportSong(song *config.Song, file string, measures int) error {
	arr, err := song.Build()
	if err != nil {
		return err
	}
	tr, err := tracks(arr, measures)
	if err != nil {
		return err
	}
	if err := midifile.WriteFile(file, arr.TimeSignature, arr.Tempo, tr); err != nil {
		return errors.Annotatef(err, "write %s", file)
	}
	logger.GetProjectLogger().WithFields(logrus.Fields{
		"file":     file,
		"measures": measures,
		"tracks":   len(tr),
	}).Info("exported")
	return nil
}
