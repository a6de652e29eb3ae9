package audio

import (
	"math"
	"sync/atomic"

	"github.com/juju/errors"
	"github.com/sirupsen/logrus"

	"github.com/mrdg/phrasegen/event"
	"github.com/mrdg/phrasegen/logger"
	"github.com/mrdg/phrasegen/music"
)

const (
	propLevel     = "level"
	propTempo     = "tempo"
	propTranspose = "transpose"

	// DefaultTempo is used when an InstrumentConfig has no tempo.
	DefaultTempo = 120.0

	queueSize = 16
)

type InstrumentConfig struct {
	Name string
	// Rate defaults to SampleRate.
	Rate  int
	Voice Voice
	// Props holds the instrument's settings. A new registry is created
	// when nil; voices that register settings should share it.
	Props *Props
	// Tempo in beats per minute, defaults to DefaultTempo.
	Tempo float64
	// Level in dB.
	Level float64
}

// Instrument plays a phrase in a loop. When the phrase has played to its
// end the instrument starts the most recently queued phrase, or replays the
// current one if nothing was queued.
type Instrument struct {
	*Props
	name      string
	rate      int
	voice     Voice
	level     *atomic.Value
	tempo     *atomic.Value
	transpose *atomic.Value

	mixer       *Mixer
	phrase      *music.Phrase
	pending     *music.Phrase
	queue       *phraseQueue
	remaining   int64
	phraseStart int64
	plays       int

	db   float64
	gain float64
	log  *logrus.Entry
}

// NewInstrument returns an instrument that starts with phrase. A nil phrase
// is allowed; the instrument is silent until one is queued.
func NewInstrument(cfg InstrumentConfig, phrase *music.Phrase) (*Instrument, error) {
	if cfg.Voice == nil {
		return nil, errors.NotValidf("nil voice")
	}
	if cfg.Rate == 0 {
		cfg.Rate = SampleRate
	}
	if cfg.Tempo == 0 {
		cfg.Tempo = DefaultTempo
	}
	if cfg.Props == nil {
		cfg.Props = NewProps()
	}
	mixer, err := NewMixer(cfg.Rate)
	if err != nil {
		return nil, err
	}
	level, err := cfg.Props.Register(propLevel, setLevel, cfg.Level)
	if err != nil {
		return nil, err
	}
	tempo, err := cfg.Props.Register(propTempo, setTempo, cfg.Tempo)
	if err != nil {
		return nil, err
	}
	transpose, err := cfg.Props.Register(propTranspose, setTranspose, 0)
	if err != nil {
		return nil, err
	}
	i := &Instrument{
		Props:     cfg.Props,
		name:      cfg.Name,
		rate:      cfg.Rate,
		voice:     cfg.Voice,
		level:     level,
		tempo:     tempo,
		transpose: transpose,
		mixer:     mixer,
		pending:   phrase,
		queue:     newPhraseQueue(queueSize),
		gain:      1,
		log:       logger.GetProjectLogger().WithField("instrument", cfg.Name),
	}
	i.updateGain()
	return i, nil
}

func (i *Instrument) Name() string { return i.name }

// Tempo returns the tempo in beats per minute. A new tempo takes effect when
// the next phrase starts.
func (i *Instrument) Tempo() float64 { return i.tempo.Load().(float64) }

// Phrase returns the phrase that is currently playing.
func (i *Instrument) Phrase() *music.Phrase { return i.phrase }

// PhraseStart returns the sample index at which the current phrase started.
func (i *Instrument) PhraseStart() int64 { return i.phraseStart }

// Plays returns how many times a phrase has been started.
func (i *Instrument) Plays() int { return i.plays }

// SetNextPhrase sets the phrase to play after the current one. It must be
// called from the goroutine that pulls samples; use Enqueue otherwise.
func (i *Instrument) SetNextPhrase(p *music.Phrase) {
	i.pending = p
}

// Enqueue queues the phrase to play after the current one. It is safe to
// call from one goroutine other than the one pulling samples. If several
// phrases are queued before the current phrase ends, only the last one is
// played.
func (i *Instrument) Enqueue(p *music.Phrase) {
	if !i.queue.push(p) {
		i.log.Warn("phrase queue full, dropping phrase")
	}
}

// Listen queues every phrase sent on phrases.
func (i *Instrument) Listen(phrases *event.Channel[*music.Phrase]) (unsubscribe func()) {
	return phrases.Subscribe(i.Enqueue)
}

func (i *Instrument) Next() float64 {
	if i.remaining <= 0 {
		i.advance()
	}
	v := i.mixer.Next()
	if i.phrase != nil {
		i.remaining--
	}
	return i.gain * v
}

// Process adds the next len(out[0]) samples to every channel of out.
func (i *Instrument) Process(out [][]float32) {
	if len(out) == 0 {
		return
	}
	i.updateGain()
	for n := range out[0] {
		s := float32(i.Next())
		for ch := range out {
			out[ch][n] += s
		}
	}
}

func (i *Instrument) updateGain() {
	db := i.level.Load().(float64)
	if db != i.db {
		i.db = db
		i.gain = math.Pow(10, db/20.0)
	}
}

func (i *Instrument) advance() {
	if p := i.queue.latest(); p != nil {
		i.pending = p
	}
	if i.pending != nil {
		i.phrase = i.pending
		i.pending = nil
	}
	if i.phrase == nil {
		return
	}
	i.updateGain()
	i.rebuild()
}

// rebuild adds the notes of the current phrase to the mixer, starting at the
// mixer's current time.
func (i *Instrument) rebuild() {
	var (
		tempo     = i.Tempo()
		ts        = i.phrase.TimeSignature()
		start     = i.mixer.Elapsed()
		transpose = i.transpose.Load().(int)
	)
	for _, n := range i.phrase.Notes() {
		n.Pitch += transpose
		src, err := i.voice(n, ts.Seconds(n.Duration, tempo))
		if err != nil {
			i.log.WithError(err).WithField("note", n.String()).Warn("skipping note")
			continue
		}
		i.mixer.Add(src, start+ts.Seconds(n.Start, tempo))
	}
	// measures are counted in whole samples, the way SampleClock counts
	// them, so phrases end on the sample where the next one is sent
	i.remaining = int64(i.phrase.Measures()) * ts.SamplesPerMeasure(tempo, i.rate)
	i.phraseStart = i.mixer.Samples()
	i.plays++
	i.log.WithFields(logrus.Fields{
		"notes":   i.phrase.Len(),
		"samples": i.remaining,
		"start":   i.phraseStart,
	}).Debug("phrase started")
}
