package music

import (
	"math/rand"
	"testing"

	"github.com/mrdg/phrasegen/rhythm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhraseEndTick(t *testing.T) {
	t.Parallel()

	ts := rhythm.FourFour
	for _, tc := range []struct {
		notes []Note
		want  int
	}{
		{nil, 128},
		{[]Note{{Pitch: 60, Start: 0, Duration: 16}}, 128},
		{[]Note{{Pitch: 60, Start: 96, Duration: 31}}, 128},
		{[]Note{{Pitch: 60, Start: 96, Duration: 32}}, 128},
		{[]Note{{Pitch: 60, Start: 96, Duration: 33}}, 256},
		{[]Note{{Pitch: 60, Start: 300, Duration: 1}, {Pitch: 62, Start: 0, Duration: 8}}, 384},
	} {
		p := NewPhrase(tc.notes, ts)
		assert.Equal(t, tc.want, p.EndTick(), "notes %v", tc.notes)
		assert.Equal(t, tc.want/128, p.Measures())
	}
}

func TestPhraseEndTickProperty(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(1))
	ts := rhythm.ThreeFour
	for i := 0; i < 200; i++ {
		var notes []Note
		for j := rng.Intn(6); j > 0; j-- {
			notes = append(notes, Note{
				Pitch:    rng.Intn(109),
				Start:    rng.Intn(500),
				Duration: 1 + rng.Intn(200),
			})
		}
		p := NewPhrase(notes, ts)
		end := p.EndTick()
		require.Zero(t, end%ts.TicksPerMeasure())
		require.GreaterOrEqual(t, end, ts.TicksPerMeasure())
		for _, n := range notes {
			require.GreaterOrEqual(t, end, n.End())
		}
	}
}

func TestPhraseEndSeconds(t *testing.T) {
	t.Parallel()

	p := NewPhrase(nil, rhythm.FourFour)
	assert.InDelta(t, 2.0, p.EndSeconds(120), 1e-12)
}

func TestPhraseCopiesNotes(t *testing.T) {
	t.Parallel()

	notes := []Note{{Pitch: 60, Start: 0, Duration: 16, Volume: 1}}
	p := NewPhrase(notes, rhythm.FourFour)
	notes[0].Pitch = 10
	assert.Equal(t, 60, p.Note(0).Pitch)

	got := p.Notes()
	got[0].Pitch = 11
	assert.Equal(t, 60, p.Note(0).Pitch)
	assert.Equal(t, "[60@0+16] end=128", p.String())
}
