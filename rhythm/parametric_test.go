package rhythm

import (
	"math/rand"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func float(f float64) *float64 { return &f }

func TestParametricFocus(t *testing.T) {
	t.Parallel()

	p, err := NewParametric("p", FourFour, ParametricOptions{
		Resolution: 4,
		Density:    0.25,
		Focus:      float(1),
	}, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	want := make([]bool, 16)
	for _, slot := range []int{0, 4, 8, 12} {
		want[slot] = true
	}
	assert.Equal(t, want, p.Pattern())
	assert.Equal(t, []int{0, 32, 64, 96}, p.Offsets())
	assert.Equal(t, 0.0, p.Score())
	assert.Equal(t, 128, LoopLength(p))
	assert.Equal(t, []int{0, 32, 64, 96, 128, 160, 192, 224}, Ticks(p, 8))
}

func TestParametricSwing(t *testing.T) {
	t.Parallel()

	p, err := NewParametric("p", FourFour, ParametricOptions{
		Resolution: 4,
		Density:    0.5,
		Swing:      float(1),
	}, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	assert.Equal(t, 8, p.Triggers())
	for slot, on := range p.Pattern() {
		if on {
			assert.NotZero(t, slot%4, "slot %d is on a beat", slot)
		}
	}
}

func TestParametricBias(t *testing.T) {
	t.Parallel()

	p, err := NewParametric("p", FourFour, ParametricOptions{
		Resolution: 4,
		Density:    0.25,
		Bias:       float(1),
	}, rand.New(rand.NewSource(2)))
	require.NoError(t, err)
	assert.Equal(t, 0.0, p.Score())
	for _, off := range p.Offsets() {
		assert.GreaterOrEqual(t, off, 64)
	}
}

func TestParametricDeterministic(t *testing.T) {
	t.Parallel()

	opts := ParametricOptions{Resolution: 2, Density: 0.5, Bias: float(0)}
	a, err := NewParametric("p", FourFour, opts, rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	b, err := NewParametric("p", FourFour, opts, rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	assert.Equal(t, a.Pattern(), b.Pattern())
}

func TestParametricMinimumTrigger(t *testing.T) {
	t.Parallel()

	p, err := NewParametric("p", TwoFour, ParametricOptions{
		Resolution: 1,
		Density:    0.01,
	}, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Equal(t, 1, p.Triggers())
}

func TestInvalidParametric(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(1))
	for name, opts := range map[string]ParametricOptions{
		"too many slots":  {Resolution: 8, Density: 0.5},
		"resolution":      {Resolution: 3, Density: 0.5},
		"zero density":    {Resolution: 4, Density: 0},
		"density above 1": {Resolution: 4, Density: 1.5},
		"bias":            {Resolution: 4, Density: 0.5, Bias: float(2)},
		"focus":           {Resolution: 4, Density: 0.5, Focus: float(-0.1)},
	} {
		_, err := NewParametric("p", FourFour, opts, rng)
		assert.True(t, errors.Is(err, errors.NotValid), name)
	}
	_, err := NewParametric("p", FourFour, ParametricOptions{Density: 0.5}, nil)
	assert.True(t, errors.Is(err, errors.NotValid))
}
