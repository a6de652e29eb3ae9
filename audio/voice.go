package audio

import (
	"math"
	"math/rand"
	"sort"
	"sync/atomic"

	"github.com/juju/errors"

	"github.com/mrdg/phrasegen/music"
)

// Voice builds the source that plays a single note lasting the given number
// of seconds.
type Voice func(n music.Note, seconds float64) (Source, error)

// WaveVoice plays notes on an oscillator shaped by NoteEnvelope.
func WaveVoice(wave Waveform, rate int) Voice {
	return func(n music.Note, seconds float64) (Source, error) {
		osc, err := NewOsc(wave, midiToFreq(n.Pitch), rate)
		if err != nil {
			return nil, err
		}
		env, err := NewEnvelope(osc, NoteEnvelope(seconds), rate)
		if err != nil {
			return nil, err
		}
		return NewVolume(env, n.Volume), nil
	}
}

// PluckVoice plays notes on a plucked string.
func PluckVoice(rate int, rng *rand.Rand) Voice {
	return func(n music.Note, seconds float64) (Source, error) {
		p, err := NewPluck(midiToFreq(n.Pitch), rate, rng)
		if err != nil {
			return nil, err
		}
		env, err := NewEnvelope(p, NoteEnvelope(seconds), rate)
		if err != nil {
			return nil, err
		}
		return NewVolume(env, n.Volume), nil
	}
}

const (
	propCutoff     = "cutoff"
	propEnvAttack  = "env.attack"
	propEnvDecay   = "env.decay"
	propEnvSustain = "env.sustain"
	propEnvRelease = "env.release"
	propEnvCurve   = "env.curve"
	propOsc1Wave   = "osc1.wave"
	propOsc2Wave   = "osc2.wave"
)

// SynthVoice registers its settings on props and plays notes through two
// oscillators and a low-pass filter. The settings are read when a note is
// built, so changes apply from the next phrase on.
func SynthVoice(props *Props, rate int) (Voice, error) {
	if props == nil {
		return nil, errors.NotValidf("nil props")
	}
	var (
		cutoff     = props.MustRegister(propCutoff, setCutoff, 1000.0)
		envAttack  = props.MustRegister(propEnvAttack, setEnvParam, 0.01)
		envDecay   = props.MustRegister(propEnvDecay, setEnvParam, 0.1)
		envSustain = props.MustRegister(propEnvSustain, setFloat64(0, 1), 0.8)
		envRelease = props.MustRegister(propEnvRelease, setEnvParam, 0.1)
		envCurve   = props.MustRegister(propEnvCurve, setCurve, Curve("linear"))
		osc1Wave   = props.MustRegister(propOsc1Wave, setWaveform, Saw)
		osc2Wave   = props.MustRegister(propOsc2Wave, setWaveform, Square)
	)
	return func(n music.Note, seconds float64) (Source, error) {
		freq := midiToFreq(n.Pitch)
		osc1, err := NewOsc(osc1Wave.Load().(Waveform), freq, rate)
		if err != nil {
			return nil, err
		}
		osc2, err := NewOsc(osc2Wave.Load().(Waveform), freq, rate)
		if err != nil {
			return nil, err
		}
		curve, err := curveFunc(envCurve.Load().(Curve))
		if err != nil {
			return nil, err
		}
		p := EnvelopeParams{
			Curve:   curve,
			Attack:  envAttack.Load().(float64),
			Decay:   envDecay.Load().(float64),
			Release: envRelease.Load().(float64),
			Peak:    1,
			Level:   envSustain.Load().(float64),
		}
		p.Sustain = math.Max(0, seconds-p.Attack-p.Decay)
		filtered := NewLowpass(sum{osc1, osc2}, cutoff.Load().(float64), rate)
		env, err := NewEnvelope(filtered, p, rate)
		if err != nil {
			return nil, err
		}
		return NewVolume(env, 0.5*n.Volume), nil
	}, nil
}

type sum []Source

func (s sum) Next() float64 {
	var v float64
	for _, src := range s {
		v += src.Next()
	}
	return v
}

// SoundMapping assigns recorded sounds to pitches.
type SoundMapping map[int]*Sound

func (m SoundMapping) Put(pitch int, snd *Sound) { m[pitch] = snd }

// Pitches returns the mapped pitches in ascending order.
func (m SoundMapping) Pitches() []int {
	pitches := make([]int, 0, len(m))
	for p := range m {
		pitches = append(pitches, p)
	}
	sort.Ints(pitches)
	return pitches
}

// TriggerPad plays the sound mapped to each note's pitch from start to
// finish, regardless of the note's length. The mapping can be replaced
// through the sounds.map property. Every sound must be recorded at rate.
func TriggerPad(props *Props, mapping SoundMapping, rate int) (Voice, error) {
	if props == nil {
		return nil, errors.NotValidf("nil props")
	}
	if rate <= 0 {
		return nil, errors.NotValidf("sample rate %d", rate)
	}
	sounds, err := props.Register(PropSoundMap, setSoundMapping(rate), mapping)
	if err != nil {
		return nil, err
	}
	return func(n music.Note, _ float64) (Source, error) {
		snd := sounds.Load().(SoundMapping)[n.Pitch]
		if snd == nil {
			return nil, errors.NotFoundf("sound for pitch %d", n.Pitch)
		}
		return NewVolume(NewFileSource(snd), n.Volume), nil
	}, nil
}

const PropSoundMap = "sounds.map"

func setSoundMapping(rate int) setter {
	return func(v interface{}, dest *atomic.Value) error {
		m, ok := v.(SoundMapping)
		if !ok {
			return errors.NotValidf("value %v (not a sound mapping)", v)
		}
		if m == nil {
			m = SoundMapping{}
		}
		for _, pitch := range m.Pitches() {
			// sounds are played sample by sample, without resampling
			if snd := m[pitch]; snd.Rate() != rate {
				return errors.NotValidf("sound %q for pitch %d recorded at %d Hz (want %d Hz)",
					snd.File(), pitch, snd.Rate(), rate)
			}
		}
		dest.Store(m)
		return nil
	}
}
