package audio

import (
	"math"
	"sync/atomic"

	"github.com/juju/errors"
)

const twoPi = 2 * math.Pi

// Waveform names an oscillator shape.
type Waveform string

const (
	Sine   Waveform = "sine"
	Saw    Waveform = "saw"
	Square Waveform = "square"
	Off    Waveform = "off"
)

// waveFunc returns the value of a waveform at a position within its cycle,
// in [0, 1).
func waveFunc(w Waveform) (func(pos float64) float64, error) {
	switch w {
	case Sine:
		return func(pos float64) float64 { return math.Sin(twoPi * pos) }, nil
	case Saw:
		return func(pos float64) float64 { return 2*pos - 1 }, nil
	case Square:
		return func(pos float64) float64 {
			if pos < 0.5 {
				return 1.0
			}
			return -1.0
		}, nil
	case Off:
		return func(_ float64) float64 { return 0 }, nil
	}
	return nil, errors.NotValidf("waveform %q", w)
}

// Osc is an oscillator whose output is a pure function of elapsed time.
type Osc struct {
	wave  Waveform
	freq  float64
	cycle float64
	fn    func(float64) float64
	cur   cursor
}

func NewOsc(wave Waveform, freq float64, rate int) (*Osc, error) {
	if freq <= 0 || math.IsInf(freq, 0) || math.IsNaN(freq) {
		return nil, errors.NotValidf("frequency %v", freq)
	}
	fn, err := waveFunc(wave)
	if err != nil {
		return nil, err
	}
	cur, err := newCursor(rate)
	if err != nil {
		return nil, err
	}
	return &Osc{
		wave:  wave,
		freq:  freq,
		cycle: 1 / freq,
		fn:    fn,
		cur:   cur,
	}, nil
}

func NewSine(freq float64, rate int) (*Osc, error)   { return NewOsc(Sine, freq, rate) }
func NewSquare(freq float64, rate int) (*Osc, error) { return NewOsc(Square, freq, rate) }
func NewSaw(freq float64, rate int) (*Osc, error)    { return NewOsc(Saw, freq, rate) }

func (o *Osc) Next() float64 {
	t := o.cur.advance()
	if o.wave == Sine {
		return math.Sin(twoPi * o.freq * t)
	}
	return o.fn(math.Mod(t, o.cycle) / o.cycle)
}

func (o *Osc) Frequency() float64 { return o.freq }

func setWaveform(v interface{}, dest *atomic.Value) error {
	s, ok := v.(string)
	if !ok {
		if w, isWave := v.(Waveform); isWave {
			s, ok = string(w), true
		}
	}
	if !ok {
		return errors.NotValidf("value %v (not a string)", v)
	}
	if _, err := waveFunc(Waveform(s)); err != nil {
		return err
	}
	dest.Store(Waveform(s))
	return nil
}

// Lowpass filters a source with a biquad low-pass filter.
type Lowpass struct {
	src Source
	c   [5]float64

	// state
	y1, y2 float64 // y[n-1] y[n-2]
}

func NewLowpass(src Source, cutoff float64, rate int) *Lowpass {
	f := &Lowpass{src: src}
	f.calculateCoefficients(cutoff, float64(rate))
	return f
}

// Lowpass filter based on https://www.w3.org/2011/audio/audio-eq-cookbook.html
func (f *Lowpass) Next() float64 {
	in := f.src.Next()
	out := f.c[0]*in + f.y1
	f.y1 = f.c[1]*in - f.c[3]*out + f.y2
	f.y2 = f.c[2]*in - f.c[4]*out
	return out
}

func (f *Lowpass) calculateCoefficients(freq, rate float64) {
	omega := 2 * math.Pi * freq / rate
	cos := math.Cos(omega)
	sin := math.Sin(omega)

	const q = 1
	alpha := sin / (2. * q)

	b0 := (1 - cos) / 2
	b1 := 1 - cos
	b2 := b0
	a0 := 1 + alpha
	a1 := -2 * cos
	a2 := 1 - alpha

	f.c = [5]float64{b0 / a0, b1 / a0, b2 / a0, a1 / a0, a2 / a0}
}

func midiToFreq(note int) float64 {
	return math.Pow(2, float64(note-69)/12.0) * 440
}
