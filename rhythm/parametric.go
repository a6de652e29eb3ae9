package rhythm

import (
	"math"
	"math/rand"

	"github.com/juju/errors"
)

// MaxParametricSlots bounds the exhaustive search of NewParametric. With 20
// slots the search visits at most C(20,10) = 184756 candidates.
const MaxParametricSlots = 20

// ParametricOptions holds the targets for NewParametric.
type ParametricOptions struct {
	// Resolution is the number of slots per beat. It must divide the
	// number of ticks per beat. Zero means 4.
	Resolution int

	// Density is the fraction of slots that carry an onset, in (0, 1].
	Density float64

	// Bias is the target excess of onsets in the second half of the
	// measure over the first half, relative to the number of onsets,
	// in [-1, 1]. Nil leaves bias unscored.
	Bias *float64

	// Focus is the target fraction of onsets that fall on a beat, in
	// [0, 1]. Nil leaves focus unscored.
	Focus *float64

	// Swing is the target fraction of onsets that fall between beats,
	// in [0, 1]. Nil leaves swing unscored.
	Swing *float64
}

// Parametric is a pattern sequence whose single-measure pattern was chosen
// by exhaustive search to best match the requested statistics.
type Parametric struct {
	slots   []bool
	score   float64
	offsets []int
	seq     *pattern
}

// NewParametric searches every onset vector with the requested density and
// keeps the one whose statistics deviate least from the targets. Ties are
// broken by a uniform choice made with rng.
func NewParametric(tag string, ts TimeSignature, opts ParametricOptions, rng *rand.Rand) (*Parametric, error) {
	if ts.IsZero() {
		return nil, errors.NotValidf("zero time signature")
	}
	if rng == nil {
		return nil, errors.NotValidf("nil random source")
	}
	res := opts.Resolution
	if res == 0 {
		res = 4
	}
	if res < 0 {
		return nil, errors.NotValidf("resolution %d", res)
	}
	if ts.TicksPerBeat()%res != 0 {
		return nil, errors.NotValidf("resolution %d for %d ticks per beat", res, ts.TicksPerBeat())
	}
	if opts.Density <= 0 || opts.Density > 1 {
		return nil, errors.NotValidf("density %v", opts.Density)
	}
	if err := checkTarget("bias", opts.Bias, -1, 1); err != nil {
		return nil, err
	}
	if err := checkTarget("focus", opts.Focus, 0, 1); err != nil {
		return nil, err
	}
	if err := checkTarget("swing", opts.Swing, 0, 1); err != nil {
		return nil, err
	}
	numSlots := res * ts.BeatsPerMeasure()
	if numSlots > MaxParametricSlots {
		return nil, errors.NotValidf("%d slots (maximum %d)", numSlots, MaxParametricSlots)
	}
	numTriggers := int(math.Round(opts.Density * float64(numSlots)))
	if numTriggers < 1 {
		numTriggers = 1
	}

	best, score := search(numSlots, numTriggers, func(active []int) float64 {
		return scorePattern(active, numSlots, res, opts)
	}, rng)

	p := &Parametric{
		slots: make([]bool, numSlots),
		score: score,
	}
	slotTicks := ts.TicksPerBeat() / res
	for _, slot := range best {
		p.slots[slot] = true
		p.offsets = append(p.offsets, slot*slotTicks)
	}
	seq, err := NewPattern(tag, ts, p.offsets)
	if err != nil {
		return nil, errors.Trace(err)
	}
	p.seq = seq.(*pattern)
	return p, nil
}

func checkTarget(name string, v *float64, min, max float64) error {
	if v == nil {
		return nil
	}
	if *v < min || *v > max || math.IsNaN(*v) {
		return errors.NotValidf("%s %v", name, *v)
	}
	return nil
}

// search enumerates all k-combinations of n slots in lexicographic order and
// returns one of the lowest scoring.
func search(n, k int, score func(active []int) float64, rng *rand.Rand) ([]int, float64) {
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	bestScore := math.Inf(1)
	var best [][]int
	for {
		s := score(idx)
		switch {
		case s < bestScore:
			bestScore = s
			best = append(best[:0], append([]int(nil), idx...))
		case s == bestScore:
			best = append(best, append([]int(nil), idx...))
		}

		// advance to the next combination
		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			break
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
	return best[rng.Intn(len(best))], bestScore
}

func scorePattern(active []int, numSlots, res int, opts ParametricOptions) float64 {
	var firstHalf, secondHalf, onBeat int
	for _, slot := range active {
		if slot < numSlots/2 {
			firstHalf++
		} else {
			secondHalf++
		}
		if slot%res == 0 {
			onBeat++
		}
	}
	n := float64(len(active))
	var score float64
	if opts.Bias != nil {
		bias := float64(secondHalf-firstHalf) / n
		score += math.Abs(bias - *opts.Bias)
	}
	focus := float64(onBeat) / n
	if opts.Focus != nil {
		score += math.Abs(focus - *opts.Focus)
	}
	if opts.Swing != nil {
		score += math.Abs((1 - focus) - *opts.Swing)
	}
	return score
}

// Next implements Sequence.
func (p *Parametric) Next() Event { return p.seq.Next() }

// Pattern returns the chosen onset vector, one entry per slot.
func (p *Parametric) Pattern() []bool { return append([]bool(nil), p.slots...) }

// Offsets returns the onset ticks of the chosen pattern within a measure.
func (p *Parametric) Offsets() []int { return append([]int(nil), p.offsets...) }

// Triggers returns the number of onsets per measure.
func (p *Parametric) Triggers() int { return len(p.offsets) }

// Score returns the deviation of the chosen pattern from the targets.
func (p *Parametric) Score() float64 { return p.score }
