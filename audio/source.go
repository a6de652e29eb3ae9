package audio

import (
	"math"

	"github.com/juju/errors"
)

// SampleRate is the default number of samples per second.
const SampleRate = 44100

// Source produces mono samples in [-1, 1], one per call. Sources only move
// forward; there is no seeking.
type Source interface {
	Next() float64
}

// Get returns the next n samples of src.
func Get(src Source, n int) []float64 {
	buf := make([]float64, n)
	Fill(src, buf)
	return buf
}

// Fill overwrites buf with the next len(buf) samples of src.
func Fill(src Source, buf []float64) {
	for i := range buf {
		buf[i] = src.Next()
	}
}

// cursor tracks the elapsed time of a source. The time is derived from an
// integer sample count so it does not accumulate rounding errors.
type cursor struct {
	rate float64
	n    int64
}

func newCursor(rate int) (cursor, error) {
	if rate <= 0 {
		return cursor{}, errors.NotValidf("sample rate %d", rate)
	}
	return cursor{rate: float64(rate)}, nil
}

// advance returns the time of the next sample and moves past it. The first
// sample is at time 0.
func (c *cursor) advance() float64 {
	t := float64(c.n) / c.rate
	c.n++
	return t
}

// elapsed returns the time of the next sample.
func (c *cursor) elapsed() float64 { return float64(c.n) / c.rate }

// Constant returns the same value forever.
type Constant float64

func (c Constant) Next() float64 { return float64(c) }

// Finisher is implemented by sources that end. Once Done reports true the
// source only returns silence.
type Finisher interface {
	Done() bool
}

func done(src Source) bool {
	f, ok := src.(Finisher)
	return ok && f.Done()
}

// Volume scales a source by a constant gain.
type Volume struct {
	src  Source
	gain float64
}

func NewVolume(src Source, gain float64) *Volume {
	return &Volume{src: src, gain: gain}
}

func (v *Volume) Next() float64 { return v.gain * v.src.Next() }

func (v *Volume) Done() bool { return done(v.src) }

// Delay is silent for a number of samples and then forwards its source.
type Delay struct {
	src   Source
	delay int64
	n     int64
}

// NewDelay returns a source that starts src after start seconds.
func NewDelay(src Source, start float64, rate int) (*Delay, error) {
	if rate <= 0 {
		return nil, errors.NotValidf("sample rate %d", rate)
	}
	if start < 0 {
		return nil, errors.NotValidf("start time %v", start)
	}
	return newDelaySamples(src, secondsToSamples(start, rate)), nil
}

func newDelaySamples(src Source, n int64) *Delay {
	if n < 0 {
		n = 0
	}
	return &Delay{src: src, delay: n}
}

func (d *Delay) Done() bool { return d.n >= d.delay && done(d.src) }

func (d *Delay) Next() float64 {
	if d.n < d.delay {
		d.n++
		return 0
	}
	return d.src.Next()
}

func secondsToSamples(sec float64, rate int) int64 {
	return int64(math.Round(sec * float64(rate)))
}
