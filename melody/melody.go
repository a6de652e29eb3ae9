// Package melody provides pitch sequences for composers.
package melody

import (
	"fmt"
	"math/rand"

	"github.com/juju/errors"
)

// Valid pitch range, C-1 to C8.
const (
	MinPitch = 0
	MaxPitch = 108
	MiddleC  = 60
)

// ErrPitchRange is the panic value (wrapped) raised when a sequence
// produces a pitch outside [MinPitch, MaxPitch].
var ErrPitchRange = errors.New("pitch out of range")

// Sequence is an unbounded source of pitches. Sequences cannot be restarted.
type Sequence interface {
	Next() int
}

// Next pulls the next pitch from seq and panics if it is out of range.
func Next(seq Sequence) int {
	p := seq.Next()
	if p < MinPitch || p > MaxPitch {
		panic(fmt.Errorf("melody: pitch %d: %w", p, ErrPitchRange))
	}
	return p
}

// Take returns the next n pitches of seq.
func Take(seq Sequence, n int) []int {
	pitches := make([]int, n)
	for i := range pitches {
		pitches[i] = Next(seq)
	}
	return pitches
}

func validPitch(p int) bool { return p >= MinPitch && p <= MaxPitch }

func (iv Intervals) validate() error {
	if len(iv) == 0 {
		return errors.NotValidf("empty scale")
	}
	for _, step := range iv {
		if step <= 0 {
			return errors.NotValidf("scale step %d", step)
		}
	}
	return nil
}

// Cyclic repeats a fixed list of pitches.
type Cyclic struct {
	pitches []int
	key     int
	index   int
}

// NewCyclic returns a sequence cycling through pitches. A key of 0 means
// the first pitch.
func NewCyclic(pitches []int, key int) (*Cyclic, error) {
	if len(pitches) == 0 {
		return nil, errors.NotValidf("empty pitch list")
	}
	for _, p := range pitches {
		if !validPitch(p) {
			return nil, errors.NotValidf("pitch %d", p)
		}
	}
	if key == 0 {
		key = pitches[0]
	}
	if !validPitch(key) {
		return nil, errors.NotValidf("key %d", key)
	}
	return &Cyclic{
		pitches: append([]int(nil), pitches...),
		key:     key,
	}, nil
}

func (c *Cyclic) Next() int {
	p := c.pitches[c.index]
	c.index = (c.index + 1) % len(c.pitches)
	return p
}

// Key returns the root note of the sequence.
func (c *Cyclic) Key() int { return c.key }

// Pitches returns the cycle.
func (c *Cyclic) Pitches() []int { return append([]int(nil), c.pitches...) }

// Constant always returns the same pitch.
type Constant int

func NewConstant(pitch int) (Constant, error) {
	if !validPitch(pitch) {
		return 0, errors.NotValidf("pitch %d", pitch)
	}
	return Constant(pitch), nil
}

func (c Constant) Next() int { return int(c) }

// RandomWalk walks through the notes of a scale, moving at most maxStep
// scale degrees at a time. The walk stops at the ends of the pitch range.
type RandomWalk struct {
	key     int
	notes   []int
	maxStep int
	index   int
	rng     *rand.Rand
}

// NewRandomWalk returns a random walk starting at key through every octave
// of the scale rooted at key. A nil scale means the major pentatonic.
func NewRandomWalk(key int, scale Intervals, maxStep int, rng *rand.Rand) (*RandomWalk, error) {
	if !validPitch(key) {
		return nil, errors.NotValidf("key %d", key)
	}
	if scale == nil {
		scale = MajorPentatonic
	}
	if err := scale.validate(); err != nil {
		return nil, err
	}
	if maxStep <= 0 {
		return nil, errors.NotValidf("max step %d", maxStep)
	}
	if rng == nil {
		return nil, errors.NotValidf("nil random source")
	}
	notes := NotesInKey(key, scale)
	index := -1
	for i, n := range notes {
		if n == key {
			index = i
			break
		}
	}
	if index < 0 {
		return nil, errors.NotValidf("key %d not in scale", key)
	}
	return &RandomWalk{
		key:     key,
		notes:   notes,
		maxStep: maxStep,
		index:   index,
		rng:     rng,
	}, nil
}

func (w *RandomWalk) Next() int {
	p := w.notes[w.index]
	w.index += w.rng.Intn(2*w.maxStep+1) - w.maxStep
	if w.index < 0 {
		w.index = 0
	}
	if w.index >= len(w.notes) {
		w.index = len(w.notes) - 1
	}
	return p
}

func (w *RandomWalk) Key() int { return w.key }
