package audio

import "github.com/juju/errors"

type mixerInput struct {
	src    Source
	weight float64
}

// Mixer sums its sources. Sources are added at a time on the mixer's own
// timeline, which starts at 0 with the first sample the mixer produces.
// Sources implementing Finisher leave the mix once they are done.
type Mixer struct {
	inputs  []mixerInput
	scaling float64
	rate    int
	n       int64
}

func NewMixer(rate int) (*Mixer, error) {
	if rate <= 0 {
		return nil, errors.NotValidf("sample rate %d", rate)
	}
	return &Mixer{scaling: 1, rate: rate}, nil
}

// SetScaling sets the gain applied to the sum of all sources.
func (m *Mixer) SetScaling(s float64) { m.scaling = s }

// Elapsed returns the mixer time of the next sample in seconds.
func (m *Mixer) Elapsed() float64 { return float64(m.n) / float64(m.rate) }

// Samples returns the number of samples produced so far.
func (m *Mixer) Samples() int64 { return m.n }

// Add starts src at time at on the mixer's timeline. A time in the past
// starts the source immediately.
func (m *Mixer) Add(src Source, at float64) {
	m.AddWeighted(src, at, 1)
}

// AddWeighted is like Add but scales the source by weight.
func (m *Mixer) AddWeighted(src Source, at float64, weight float64) {
	delay := secondsToSamples(at, m.rate) - m.n
	if delay > 0 {
		src = newDelaySamples(src, delay)
	}
	m.inputs = append(m.inputs, mixerInput{src: src, weight: weight})
}

// Len returns the number of sources in the mix.
func (m *Mixer) Len() int { return len(m.inputs) }

func (m *Mixer) Next() float64 {
	m.n++
	if len(m.inputs) == 0 {
		return 0
	}
	var sum float64
	live := m.inputs[:0]
	for _, in := range m.inputs {
		sum += in.weight * in.src.Next()
		if !done(in.src) {
			live = append(live, in)
		}
	}
	for i := len(live); i < len(m.inputs); i++ {
		m.inputs[i] = mixerInput{}
	}
	m.inputs = live
	return m.scaling * sum
}
