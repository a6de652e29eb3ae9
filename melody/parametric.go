package melody

import (
	"math"
	"math/rand"
	"sort"

	"github.com/juju/errors"
)

// ParametricOptions configures NewParametric.
type ParametricOptions struct {
	Key    int
	Length int
	// Scale defaults to the major pentatonic.
	Scale Intervals
	// UniqueNotes is the number of distinct pitches in the cycle. Zero
	// leaves it unconstrained.
	UniqueNotes int
	// MinNote and MaxNote restrict the candidate pitches. A zero MaxNote
	// means MaxPitch.
	MinNote, MaxNote int
	// AscendFraction is the target fraction of consecutive pairs that
	// ascend. Nil accepts the first candidate.
	AscendFraction *float64
	// Attempts is the number of random candidates scored. Zero means 100.
	Attempts int
}

// Parametric cycles through a melody chosen from random candidates to best
// match the requested shape.
type Parametric struct {
	*Cyclic
	score float64
}

func NewParametric(opts ParametricOptions, rng *rand.Rand) (*Parametric, error) {
	if rng == nil {
		return nil, errors.NotValidf("nil random source")
	}
	if !validPitch(opts.Key) {
		return nil, errors.NotValidf("key %d", opts.Key)
	}
	if opts.Length <= 0 {
		return nil, errors.NotValidf("length %d", opts.Length)
	}
	attempts := opts.Attempts
	if attempts == 0 {
		attempts = 100
	}
	if attempts < 0 {
		return nil, errors.NotValidf("attempts %d", attempts)
	}
	scale := opts.Scale
	if scale == nil {
		scale = MajorPentatonic
	}
	if err := scale.validate(); err != nil {
		return nil, err
	}
	min, max := opts.MinNote, opts.MaxNote
	if max == 0 {
		max = MaxPitch
	}
	if !validPitch(min) || !validPitch(max) || min > max {
		return nil, errors.NotValidf("note range %d-%d", min, max)
	}
	unique := opts.UniqueNotes
	if unique < 0 || unique > opts.Length {
		return nil, errors.NotValidf("%d unique notes in %d", unique, opts.Length)
	}
	if a := opts.AscendFraction; a != nil && (*a < 0 || *a > 1 || math.IsNaN(*a)) {
		return nil, errors.NotValidf("ascend fraction %v", *a)
	}

	var candidates []int
	for _, n := range NotesInKey(opts.Key, scale) {
		if n >= min && n <= max {
			candidates = append(candidates, n)
		}
	}
	if len(candidates) == 0 {
		return nil, errors.NotValidf("no notes of the scale between %d and %d", min, max)
	}
	if unique > len(candidates) {
		return nil, errors.NotValidf("%d unique notes from %d candidates", unique, len(candidates))
	}

	var best []int
	bestScore := math.Inf(1)
	for i := 0; i < attempts; i++ {
		pitches := candidate(candidates, opts.Length, unique, rng)
		switch {
		case opts.AscendFraction != nil && *opts.AscendFraction == 0:
			sort.Sort(sort.Reverse(sort.IntSlice(pitches)))
		case opts.AscendFraction != nil && *opts.AscendFraction == 1:
			sort.Ints(pitches)
		default:
			rng.Shuffle(len(pitches), func(i, j int) {
				pitches[i], pitches[j] = pitches[j], pitches[i]
			})
		}
		var score float64
		if opts.Length > 1 && opts.AscendFraction != nil {
			score = math.Abs(ascendFraction(pitches) - *opts.AscendFraction)
		}
		if score < bestScore {
			best, bestScore = pitches, score
		}
	}

	cyc, err := NewCyclic(best, opts.Key)
	if err != nil {
		return nil, errors.Trace(err)
	}
	// NewCyclic treats key 0 as unset
	cyc.key = opts.Key
	return &Parametric{Cyclic: cyc, score: bestScore}, nil
}

// candidate draws length pitches. With unique > 0 it picks unique distinct
// candidates and fills the rest by repeating them.
func candidate(candidates []int, length, unique int, rng *rand.Rand) []int {
	pitches := make([]int, 0, length)
	if unique == 0 {
		for i := 0; i < length; i++ {
			pitches = append(pitches, candidates[rng.Intn(len(candidates))])
		}
		return pitches
	}
	for _, i := range rng.Perm(len(candidates))[:unique] {
		pitches = append(pitches, candidates[i])
	}
	for len(pitches) < length {
		pitches = append(pitches, pitches[rng.Intn(unique)])
	}
	return pitches
}

func ascendFraction(pitches []int) float64 {
	var ascends int
	for i := 1; i < len(pitches); i++ {
		if pitches[i-1] < pitches[i] {
			ascends++
		}
	}
	return float64(ascends) / float64(len(pitches)-1)
}

// Score returns the deviation of the chosen melody from the ascend target.
func (p *Parametric) Score() float64 { return p.score }
