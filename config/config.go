// Package config reads song descriptions and builds the parts they describe.
package config

import (
	"math/rand"
	"os"
	"path/filepath"

	"github.com/juju/errors"
	"gopkg.in/yaml.v2"

	"github.com/mrdg/phrasegen/audio"
	"github.com/mrdg/phrasegen/composer"
	"github.com/mrdg/phrasegen/dub"
	"github.com/mrdg/phrasegen/event"
	"github.com/mrdg/phrasegen/melody"
	"github.com/mrdg/phrasegen/midifile"
	"github.com/mrdg/phrasegen/rhythm"
)

// Song is the YAML description of a song.
type Song struct {
	Tempo         float64    `yaml:"tempo"`
	TimeSignature TimeSig    `yaml:"time_signature"`
	SampleRate    int        `yaml:"sample_rate"`
	Seed          int64      `yaml:"seed"`
	Parts         []PartSpec `yaml:"parts"`

	// dir resolves relative sound paths.
	dir string
}

type TimeSig struct {
	Beats       int `yaml:"beats"`
	Note        int `yaml:"note"`
	Granularity int `yaml:"granularity"`
}

// PartSpec describes one part. A part either composes its own phrases from
// a rhythm and a melody (or a drum type), or listens to earlier parts
// through Mix or Switch.
type PartSpec struct {
	Name      string         `yaml:"name"`
	Rhythm    RhythmSpec     `yaml:"rhythm"`
	Melody    MelodySpec     `yaml:"melody"`
	Drum      string         `yaml:"drum"`
	Mix       []string       `yaml:"mix"`
	Switch    []string       `yaml:"switch"`
	Duration  int            `yaml:"duration"`
	Volume    float64        `yaml:"volume"`
	Stretch   *StretchSpec   `yaml:"stretch"`
	Voice     string         `yaml:"voice"`
	Preset    string         `yaml:"preset"`
	Level     float64        `yaml:"level"`
	Transpose int            `yaml:"transpose"`
	Sounds    map[int]string `yaml:"sounds"`
}

type RhythmSpec struct {
	Periodic   *PeriodicSpec         `yaml:"periodic"`
	Pattern    []int                 `yaml:"pattern"`
	Match      string                `yaml:"match"`
	Steps      int                   `yaml:"steps"`
	Triplets   bool                  `yaml:"triplets"`
	Parametric *RhythmParametricSpec `yaml:"parametric"`
}

type PeriodicSpec struct {
	Step  int `yaml:"step"`
	Start int `yaml:"start"`
}

type RhythmParametricSpec struct {
	Resolution int      `yaml:"resolution"`
	Density    float64  `yaml:"density"`
	Bias       *float64 `yaml:"bias"`
	Focus      *float64 `yaml:"focus"`
	Swing      *float64 `yaml:"swing"`
}

type MelodySpec struct {
	Cyclic     []int                 `yaml:"cyclic"`
	Key        int                   `yaml:"key"`
	Constant   *int                  `yaml:"constant"`
	RandomWalk *RandomWalkSpec       `yaml:"random_walk"`
	Parametric *MelodyParametricSpec `yaml:"parametric"`
}

type RandomWalkSpec struct {
	Key     int    `yaml:"key"`
	Scale   string `yaml:"scale"`
	MaxStep int    `yaml:"max_step"`
}

type MelodyParametricSpec struct {
	Key      int      `yaml:"key"`
	Length   int      `yaml:"length"`
	Scale    string   `yaml:"scale"`
	Unique   int      `yaml:"unique"`
	Min      int      `yaml:"min"`
	Max      int      `yaml:"max"`
	Ascend   *float64 `yaml:"ascend"`
	Attempts int      `yaml:"attempts"`
}

type StretchSpec struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

const defaultSteps = 16

// Load reads and parses the song at path.
func Load(path string) (*Song, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	song, err := Parse(data)
	if err != nil {
		return nil, errors.Annotatef(err, "song %s", path)
	}
	song.dir = filepath.Dir(path)
	return song, nil
}

// Parse parses a song and fills in defaults. Unknown fields are errors.
func Parse(data []byte) (*Song, error) {
	var song Song
	if err := yaml.UnmarshalStrict(data, &song); err != nil {
		return nil, errors.NewNotValid(err, "song")
	}
	if song.Tempo == 0 {
		song.Tempo = audio.DefaultTempo
	}
	if song.SampleRate == 0 {
		song.SampleRate = audio.SampleRate
	}
	ts := &song.TimeSignature
	if ts.Beats == 0 {
		ts.Beats = 4
	}
	if ts.Note == 0 {
		ts.Note = 4
	}
	if ts.Granularity == 0 {
		ts.Granularity = 32
	}
	if err := song.validate(); err != nil {
		return nil, err
	}
	return &song, nil
}

func (s *Song) validate() error {
	if s.Tempo <= 0 {
		return errors.NotValidf("tempo %v", s.Tempo)
	}
	if s.SampleRate <= 0 {
		return errors.NotValidf("sample rate %d", s.SampleRate)
	}
	if len(s.Parts) == 0 {
		return errors.NotValidf("song without parts")
	}
	seen := make(map[string]bool)
	for i, p := range s.Parts {
		if p.Name == "" {
			return errors.NotValidf("part %d without name", i)
		}
		if seen[p.Name] {
			return errors.NotValidf("duplicate part %q", p.Name)
		}
		for _, name := range append(append([]string(nil), p.Mix...), p.Switch...) {
			if !seen[name] {
				return errors.NotValidf("part %q listening to unknown or later part %q", p.Name, name)
			}
		}
		seen[p.Name] = true

		kinds := 0
		for _, set := range []bool{len(p.Mix) > 0, len(p.Switch) > 0, p.Drum != "" || !p.Rhythm.empty()} {
			if set {
				kinds++
			}
		}
		if kinds != 1 {
			return errors.NotValidf("part %q: need exactly one of rhythm, mix or switch", p.Name)
		}
	}
	return nil
}

func (r RhythmSpec) empty() bool {
	return r.Periodic == nil && len(r.Pattern) == 0 && r.Match == "" && r.Parametric == nil
}

// Part is a built part of an arrangement.
type Part struct {
	Name string
	// Composer is nil for parts that listen to other parts.
	Composer *composer.Composer
	// Switch is set for switch parts.
	Switch *composer.Switch
	// Source publishes the phrases the instrument plays.
	Source composer.Source
	// Instrument is nil when the part is silent.
	Instrument *audio.Instrument
	Channel    uint8
	// Steps and Triplets are the step size used for match expressions.
	Steps    int
	Triplets bool
}

// Arrangement holds the parts of a song, wired from composers to
// instruments.
type Arrangement struct {
	TimeSignature rhythm.TimeSignature
	Tempo         float64
	Rate          int
	Parts         []*Part
	// Events holds the phrase channel of every part under PhraseChannel.
	Events *event.Registry
}

// PhraseChannel returns the name under which the phrases of a part are
// registered.
func PhraseChannel(part string) string {
	return event.Phrase + "." + part
}

// Part returns the part with the given name.
func (a *Arrangement) Part(name string) (*Part, error) {
	for _, p := range a.Parts {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, errors.NotFoundf("part %q", name)
}

// Composers returns the composers of all parts that have one.
func (a *Arrangement) Composers() []*composer.Composer {
	var cs []*composer.Composer
	for _, p := range a.Parts {
		if p.Composer != nil {
			cs = append(cs, p.Composer)
		}
	}
	return cs
}

// Instruments returns the instruments of all audible parts.
func (a *Arrangement) Instruments() []*audio.Instrument {
	var is []*audio.Instrument
	for _, p := range a.Parts {
		if p.Instrument != nil {
			is = append(is, p.Instrument)
		}
	}
	return is
}

// Connect makes every instrument play the phrases of its part.
func (a *Arrangement) Connect() (disconnect func()) {
	var unsubscribe []func()
	for _, p := range a.Parts {
		if p.Instrument != nil {
			unsubscribe = append(unsubscribe, p.Instrument.Listen(p.Source.Phrases()))
		}
	}
	return func() {
		for _, u := range unsubscribe {
			u()
		}
	}
}

// Build constructs every part. Instruments are not connected and composers
// are not driven by any clock yet.
func (s *Song) Build() (*Arrangement, error) {
	ts, err := rhythm.NewTimeSignature(s.TimeSignature.Beats, s.TimeSignature.Note, s.TimeSignature.Granularity)
	if err != nil {
		return nil, errors.Trace(err)
	}
	arr := &Arrangement{
		TimeSignature: ts,
		Tempo:         s.Tempo,
		Rate:          s.SampleRate,
		Events:        event.NewRegistry(),
	}
	var channel uint8
	for i, spec := range s.Parts {
		rng := rand.New(rand.NewSource(s.Seed + int64(i)))
		p, err := s.buildPart(arr, spec, ts, rng)
		if err != nil {
			return nil, errors.Annotatef(err, "part %s", spec.Name)
		}
		if spec.Drum != "" {
			p.Channel = midifile.DrumChannel
		} else {
			// melodic parts share the other 15 channels
			if channel%16 == midifile.DrumChannel {
				channel++
			}
			p.Channel = channel % 16
			channel++
		}
		if err := event.Add(arr.Events, PhraseChannel(p.Name), p.Source.Phrases()); err != nil {
			return nil, err
		}
		arr.Parts = append(arr.Parts, p)
	}
	return arr, nil
}

func (s *Song) buildPart(arr *Arrangement, spec PartSpec, ts rhythm.TimeSignature, rng *rand.Rand) (*Part, error) {
	p := &Part{Name: spec.Name, Steps: spec.Rhythm.Steps, Triplets: spec.Rhythm.Triplets}
	if p.Steps == 0 {
		p.Steps = defaultSteps
	}
	switch {
	case len(spec.Mix) > 0:
		sources, err := arr.sources(spec.Mix)
		if err != nil {
			return nil, err
		}
		m, err := composer.NewMixer(sources...)
		if err != nil {
			return nil, err
		}
		p.Source = m
	case len(spec.Switch) > 0:
		sources, err := arr.sources(spec.Switch)
		if err != nil {
			return nil, err
		}
		sw, err := composer.NewSwitch(sources...)
		if err != nil {
			return nil, err
		}
		p.Switch = sw
		p.Source = sw
	default:
		c, err := buildComposer(spec, ts, rng)
		if err != nil {
			return nil, err
		}
		p.Composer = c
		p.Source = c
	}
	if spec.Stretch != nil {
		d, err := composer.NewNoteDuration(p.Source, spec.Stretch.Min, spec.Stretch.Max)
		if err != nil {
			return nil, err
		}
		p.Source = d
	}

	inst, err := s.buildInstrument(spec, arr, rng)
	if err != nil {
		return nil, err
	}
	p.Instrument = inst
	return p, nil
}

func (a *Arrangement) sources(names []string) ([]composer.Source, error) {
	var sources []composer.Source
	for _, name := range names {
		p, err := a.Part(name)
		if err != nil {
			return nil, err
		}
		sources = append(sources, p.Source)
	}
	return sources, nil
}

func buildComposer(spec PartSpec, ts rhythm.TimeSignature, rng *rand.Rand) (*composer.Composer, error) {
	intervals, err := BuildRhythm(spec.Name, spec.Rhythm, ts, rng)
	if err != nil {
		return nil, errors.Annotatef(err, "rhythm")
	}
	opts := composer.Options{
		Name:          spec.Name,
		TimeSignature: ts,
		Duration:      spec.Duration,
		Volume:        spec.Volume,
	}
	if spec.Drum != "" {
		t, err := composer.ParseDrumType(spec.Drum)
		if err != nil {
			return nil, err
		}
		return composer.NewDrum(intervals, t, kitFor(spec.Sounds), rng, opts)
	}
	mel, err := BuildMelody(spec.Melody, rng)
	if err != nil {
		return nil, errors.Annotatef(err, "melody")
	}
	return composer.New(intervals, mel, opts)
}

// kitFor restricts the default kit to the mapped sounds.
func kitFor(sounds map[int]string) composer.Kit {
	if len(sounds) == 0 {
		return composer.DefaultKit
	}
	kit := composer.Kit{}
	for pitch := range sounds {
		if d, ok := composer.DefaultKit[pitch]; ok {
			kit[pitch] = d
		}
	}
	return kit
}

// BuildRhythm constructs the interval sequence described by r.
func BuildRhythm(tag string, r RhythmSpec, ts rhythm.TimeSignature, rng *rand.Rand) (rhythm.Sequence, error) {
	switch {
	case r.Periodic != nil:
		return rhythm.NewPeriodic(tag, r.Periodic.Step, r.Periodic.Start)
	case len(r.Pattern) > 0:
		return rhythm.NewPattern(tag, ts, r.Pattern)
	case r.Match != "":
		expr, err := dub.ParseMatchExpr(r.Match)
		if err != nil {
			return nil, err
		}
		steps := r.Steps
		if steps == 0 {
			steps = defaultSteps
		}
		return expr.Sequence(tag, ts, steps, r.Triplets)
	case r.Parametric != nil:
		return rhythm.NewParametric(tag, ts, rhythm.ParametricOptions{
			Resolution: r.Parametric.Resolution,
			Density:    r.Parametric.Density,
			Bias:       r.Parametric.Bias,
			Focus:      r.Parametric.Focus,
			Swing:      r.Parametric.Swing,
		}, rng)
	}
	return nil, errors.NotValidf("empty rhythm")
}

// BuildMelody constructs the melody sequence described by m.
func BuildMelody(m MelodySpec, rng *rand.Rand) (melody.Sequence, error) {
	switch {
	case len(m.Cyclic) > 0:
		return melody.NewCyclic(m.Cyclic, m.Key)
	case m.Constant != nil:
		return melody.NewConstant(*m.Constant)
	case m.RandomWalk != nil:
		scale, err := scaleNamed(m.RandomWalk.Scale)
		if err != nil {
			return nil, err
		}
		return melody.NewRandomWalk(m.RandomWalk.Key, scale, m.RandomWalk.MaxStep, rng)
	case m.Parametric != nil:
		var scale melody.Intervals
		if m.Parametric.Scale != "" {
			s, err := scaleNamed(m.Parametric.Scale)
			if err != nil {
				return nil, err
			}
			scale = s
		}
		return melody.NewParametric(melody.ParametricOptions{
			Key:            m.Parametric.Key,
			Length:         m.Parametric.Length,
			Scale:          scale,
			UniqueNotes:    m.Parametric.Unique,
			MinNote:        m.Parametric.Min,
			MaxNote:        m.Parametric.Max,
			AscendFraction: m.Parametric.Ascend,
			Attempts:       m.Parametric.Attempts,
		}, rng)
	}
	return nil, errors.NotValidf("empty melody")
}

func scaleNamed(name string) (melody.Intervals, error) {
	if name == "" {
		name = "major"
	}
	iv, ok := melody.ScaleIntervals(name)
	if !ok {
		return nil, errors.NotValidf("scale %q", name)
	}
	return iv, nil
}

const voiceNone = "none"

func (s *Song) buildInstrument(spec PartSpec, arr *Arrangement, rng *rand.Rand) (*audio.Instrument, error) {
	voiceName := spec.Voice
	if voiceName == "" {
		switch {
		case len(spec.Sounds) > 0:
			voiceName = "sampler"
		case spec.Drum != "":
			voiceName = "pluck"
		default:
			voiceName = string(audio.Sine)
		}
	}
	if voiceName == voiceNone {
		return nil, nil
	}

	props := audio.NewProps()
	var (
		voice audio.Voice
		err   error
	)
	switch voiceName {
	case string(audio.Sine), string(audio.Square), string(audio.Saw):
		voice = audio.WaveVoice(audio.Waveform(voiceName), arr.Rate)
	case "pluck":
		voice = audio.PluckVoice(arr.Rate, rng)
	case "synth":
		voice, err = audio.SynthVoice(props, arr.Rate)
	case "sampler":
		mapping, lerr := s.loadSounds(spec.Sounds)
		if lerr != nil {
			return nil, lerr
		}
		voice, err = audio.TriggerPad(props, mapping, arr.Rate)
	default:
		return nil, errors.NotValidf("voice %q", voiceName)
	}
	if err != nil {
		return nil, err
	}

	inst, err := audio.NewInstrument(audio.InstrumentConfig{
		Name:  spec.Name,
		Rate:  arr.Rate,
		Voice: voice,
		Props: props,
		Tempo: arr.Tempo,
		Level: spec.Level,
	}, nil)
	if err != nil {
		return nil, err
	}
	if spec.Preset != "" {
		if err := audio.LoadPreset(spec.Preset, inst); err != nil {
			return nil, err
		}
	}
	if spec.Transpose != 0 {
		if err := inst.Set("transpose", spec.Transpose); err != nil {
			return nil, err
		}
	}
	return inst, nil
}

func (s *Song) loadSounds(files map[int]string) (audio.SoundMapping, error) {
	mapping := audio.SoundMapping{}
	for pitch, file := range files {
		if !filepath.IsAbs(file) && s.dir != "" {
			file = filepath.Join(s.dir, file)
		}
		snd, err := audio.LoadSound(file)
		if err != nil {
			return nil, err
		}
		mapping.Put(pitch, snd)
	}
	return mapping, nil
}
