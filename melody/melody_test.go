package melody

import (
	"math/rand"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCyclic(t *testing.T) {
	t.Parallel()

	seq, err := NewCyclic([]int{60, 63, 65}, 0)
	require.NoError(t, err)
	assert.Equal(t, 60, seq.Key())
	assert.Equal(t, []int{60, 63, 65, 60, 63, 65, 60}, Take(seq, 7))
	// continues where the previous call stopped
	assert.Equal(t, []int{63, 65}, Take(seq, 2))

	seq, err = NewCyclic([]int{60, 63}, 48)
	require.NoError(t, err)
	assert.Equal(t, 48, seq.Key())
}

func TestInvalidCyclic(t *testing.T) {
	t.Parallel()

	_, err := NewCyclic(nil, 0)
	assert.True(t, errors.Is(err, errors.NotValid))
	_, err = NewCyclic([]int{60, 109}, 0)
	assert.True(t, errors.Is(err, errors.NotValid))
	_, err = NewCyclic([]int{-1}, 0)
	assert.True(t, errors.Is(err, errors.NotValid))
}

func TestConstant(t *testing.T) {
	t.Parallel()

	seq, err := NewConstant(36)
	require.NoError(t, err)
	assert.Equal(t, []int{36, 36, 36}, Take(seq, 3))

	_, err = NewConstant(200)
	assert.True(t, errors.Is(err, errors.NotValid))
}

type badSequence struct{}

func (badSequence) Next() int { return 120 }

func TestPitchRangePanics(t *testing.T) {
	t.Parallel()

	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		assert.True(t, errors.Is(err, ErrPitchRange))
	}()
	Next(badSequence{})
}

func TestRandomWalk(t *testing.T) {
	t.Parallel()

	seq, err := NewRandomWalk(MiddleC, MajorPentatonic, 2, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	notes := NotesInKey(MiddleC, MajorPentatonic)
	index := func(p int) int {
		for i, n := range notes {
			if n == p {
				return i
			}
		}
		t.Fatalf("pitch %d not in scale", p)
		return -1
	}

	pitches := Take(seq, 1000)
	assert.Equal(t, MiddleC, pitches[0])
	for i := 1; i < len(pitches); i++ {
		step := index(pitches[i]) - index(pitches[i-1])
		require.LessOrEqual(t, step, 2)
		require.GreaterOrEqual(t, step, -2)
	}
}

func TestRandomWalkClamps(t *testing.T) {
	t.Parallel()

	seq, err := NewRandomWalk(0, Chromatic, 8, rand.New(rand.NewSource(5)))
	require.NoError(t, err)
	for _, p := range Take(seq, 5000) {
		require.True(t, p >= MinPitch && p <= MaxPitch)
	}
}

func TestRandomWalkDeterministic(t *testing.T) {
	t.Parallel()

	a, err := NewRandomWalk(MiddleC, Major, 3, rand.New(rand.NewSource(9)))
	require.NoError(t, err)
	b, err := NewRandomWalk(MiddleC, Major, 3, rand.New(rand.NewSource(9)))
	require.NoError(t, err)
	assert.Equal(t, Take(a, 50), Take(b, 50))
}

func TestInvalidRandomWalk(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(1))
	_, err := NewRandomWalk(MiddleC, Major, 0, rng)
	assert.True(t, errors.Is(err, errors.NotValid))
	_, err = NewRandomWalk(61, Major, 2, rng)
	assert.NoError(t, err)
	_, err = NewRandomWalk(MiddleC, Intervals{}, 2, rng)
	assert.True(t, errors.Is(err, errors.NotValid))
	_, err = NewRandomWalk(MiddleC, Major, 2, nil)
	assert.True(t, errors.Is(err, errors.NotValid))
}

func TestScale(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []int{60, 62, 64, 65, 67, 69, 71}, Scale(60, Major, 7))
	assert.Equal(t, []int{60, 62, 63, 65, 67, 68, 70}, Scale(60, NaturalMinor, 7))
	assert.Equal(t, []int{60, 62, 64, 67, 69, 72}, Scale(60, MajorPentatonic, 6))

	notes := NotesInKey(MiddleC, Major)
	assert.Equal(t, 0, notes[0])
	assert.Contains(t, notes, 60)
	assert.Equal(t, 108, notes[len(notes)-1])
	assert.Len(t, NotesInKey(0, Chromatic), 109)
	assert.Len(t, NotesInKey(5, Chromatic), 104)

	iv, ok := ScaleIntervals("dorian")
	require.True(t, ok)
	assert.Equal(t, Dorian, iv)
	_, ok = ScaleIntervals("klingon")
	assert.False(t, ok)
	assert.Contains(t, ScaleNames(), "major_pentatonic")
}
