package audio

import (
	"math/rand"

	"github.com/juju/errors"
)

// Pluck is a Karplus-Strong plucked string: a delay line one period long,
// filled with noise, where every sample is replaced by the average of itself
// and its neighbour as it is played.
type Pluck struct {
	buf []float64
	pos int
}

func NewPluck(freq float64, rate int, rng *rand.Rand) (*Pluck, error) {
	if rate <= 0 {
		return nil, errors.NotValidf("sample rate %d", rate)
	}
	if rng == nil {
		return nil, errors.NotValidf("nil random source")
	}
	if freq <= 0 || freq > float64(rate) {
		return nil, errors.NotValidf("frequency %v at rate %d", freq, rate)
	}
	size := int(float64(rate) / freq)
	p := &Pluck{buf: make([]float64, size)}
	for i := range p.buf {
		p.buf[i] = 2*rng.Float64() - 1
	}
	return p, nil
}

func (p *Pluck) Next() float64 {
	next := (p.pos + 1) % len(p.buf)
	v := (p.buf[p.pos] + p.buf[next]) / 2
	p.buf[p.pos] = v
	p.pos = next
	return v
}
