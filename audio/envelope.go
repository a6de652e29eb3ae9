package audio

import (
	"sync/atomic"

	"github.com/fogleman/ease"
	"github.com/juju/errors"
)

// EnvelopeParams describes an envelope. Attack, Decay, Sustain and Release
// are segment lengths in seconds. The amplitude rises from 0 to Peak during
// the attack, falls to Level during the decay, holds Level during the
// sustain and falls back to 0 during the release.
type EnvelopeParams struct {
	Attack  float64
	Decay   float64
	Sustain float64
	Release float64
	Peak    float64
	Level   float64

	// Curve shapes the progress through each moving segment. It defaults
	// to ease.Linear.
	Curve ease.Function
}

// Curve names the easing function of an envelope's moving segments.
type Curve string

var curves = map[Curve]ease.Function{
	"linear":       ease.Linear,
	"in-quad":      ease.InQuad,
	"out-quad":     ease.OutQuad,
	"in-out-quad":  ease.InOutQuad,
	"in-cubic":     ease.InCubic,
	"out-cubic":    ease.OutCubic,
	"in-quart":     ease.InQuart,
	"in-out-quart": ease.InOutQuart,
	"in-sine":      ease.InSine,
	"out-sine":     ease.OutSine,
	"in-out-sine":  ease.InOutSine,
}

func curveFunc(c Curve) (ease.Function, error) {
	f, ok := curves[c]
	if !ok {
		return nil, errors.NotValidf("envelope curve %q", c)
	}
	return f, nil
}

func setCurve(v interface{}, dest *atomic.Value) error {
	var c Curve
	switch s := v.(type) {
	case string:
		c = Curve(s)
	case Curve:
		c = s
	default:
		return errors.NotValidf("value %v (not a string)", v)
	}
	if _, err := curveFunc(c); err != nil {
		return err
	}
	dest.Store(c)
	return nil
}

// Envelope multiplies a source by an amplitude shape. Once the release has
// ended the envelope returns 0 and stops pulling from its source.
type Envelope struct {
	src   Source
	curve ease.Function
	peak  float64
	level float64

	// segment ends, measured from the start of the envelope
	attackEnd  float64
	decayEnd   float64
	sustainEnd float64
	releaseEnd float64

	cur      cursor
	finished bool
}

func NewEnvelope(src Source, p EnvelopeParams, rate int) (*Envelope, error) {
	if src == nil {
		return nil, errors.NotValidf("nil source")
	}
	for _, v := range []float64{p.Attack, p.Decay, p.Sustain, p.Release} {
		if v < 0 {
			return nil, errors.NotValidf("envelope segment %v", v)
		}
	}
	cur, err := newCursor(rate)
	if err != nil {
		return nil, err
	}
	curve := p.Curve
	if curve == nil {
		curve = ease.Linear
	}
	e := &Envelope{
		src:   src,
		curve: curve,
		peak:  p.Peak,
		level: p.Level,
		cur:   cur,
	}
	e.attackEnd = p.Attack
	e.decayEnd = e.attackEnd + p.Decay
	e.sustainEnd = e.decayEnd + p.Sustain
	e.releaseEnd = e.sustainEnd + p.Release
	return e, nil
}

// NoteEnvelope returns the shape used for a note of the given length in
// seconds. Long notes get a short attack and a long release; short notes
// sustain for half their length and release for the other half.
func NoteEnvelope(duration float64) EnvelopeParams {
	if duration >= 1 {
		return EnvelopeParams{
			Attack:  0.05,
			Sustain: duration - 0.95,
			Release: 0.9,
			Peak:    1,
			Level:   1,
		}
	}
	return EnvelopeParams{
		Sustain: duration / 2,
		Release: duration / 2,
		Peak:    1,
		Level:   1,
	}
}

func (e *Envelope) Next() float64 {
	if e.finished {
		return 0
	}
	gain := e.gain(e.cur.advance())
	if e.finished {
		return 0
	}
	return gain * e.src.Next()
}

func (e *Envelope) gain(t float64) float64 {
	switch {
	case t < e.attackEnd:
		return e.peak * e.curve(t/e.attackEnd)
	case t < e.decayEnd:
		progress := (t - e.attackEnd) / (e.decayEnd - e.attackEnd)
		return e.peak - (e.peak-e.level)*e.curve(progress)
	case t < e.sustainEnd:
		return e.level
	case t < e.releaseEnd:
		progress := (t - e.sustainEnd) / (e.releaseEnd - e.sustainEnd)
		return e.level * (1 - e.curve(progress))
	}
	e.finished = true
	return 0
}

// Done reports whether the envelope has reached the end of its release.
func (e *Envelope) Done() bool { return e.finished }

// Length returns the total length of the envelope in seconds.
func (e *Envelope) Length() float64 { return e.releaseEnd }
