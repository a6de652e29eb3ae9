package composer

import (
	"math/rand"
	"testing"

	"github.com/juju/errors"
	"github.com/mrdg/phrasegen/event"
	"github.com/mrdg/phrasegen/music"
	"github.com/mrdg/phrasegen/rhythm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource publishes phrases on demand.
type fakeSource struct {
	ch *event.Channel[*music.Phrase]
}

func newFakeSource() *fakeSource {
	return &fakeSource{ch: event.NewChannel[*music.Phrase](event.Phrase)}
}

func (s *fakeSource) Phrases() *event.Channel[*music.Phrase] { return s.ch }

func (s *fakeSource) send(notes ...music.Note) *music.Phrase {
	p := music.NewPhrase(notes, rhythm.FourFour)
	s.ch.Send(p)
	return p
}

func collect(src Source) *[]*music.Phrase {
	var got []*music.Phrase
	src.Phrases().Subscribe(func(p *music.Phrase) { got = append(got, p) })
	return &got
}

func TestMixer(t *testing.T) {
	t.Parallel()

	a, b := newFakeSource(), newFakeSource()
	m, err := NewMixer(a, b)
	require.NoError(t, err)
	got := collect(m)

	a.send(music.Note{Pitch: 60, Start: 0, Duration: 8}, music.Note{Pitch: 62, Start: 64, Duration: 8})
	require.Len(t, *got, 1)
	assert.Equal(t, []int{0, 64}, starts((*got)[0]))

	b.send(music.Note{Pitch: 36, Start: 32, Duration: 8}, music.Note{Pitch: 38, Start: 96, Duration: 8})
	require.Len(t, *got, 2)
	assert.Equal(t, []int{0, 32, 64, 96}, starts((*got)[1]))
	assert.Equal(t, []int{60, 36, 62, 38}, pitches((*got)[1]))

	m.Close()
	a.send()
	assert.Len(t, *got, 2)
}

func TestMixerComposers(t *testing.T) {
	t.Parallel()

	kick := newComposer(t, periodic(t, 64, 0), []int{36}, Options{})
	hat := newComposer(t, periodic(t, 32, 16), []int{42}, Options{})
	m, err := NewMixer(kick, hat)
	require.NoError(t, err)
	got := collect(m)

	kick.Tick(0)
	hat.Tick(0)
	require.Len(t, *got, 2)
	assert.Equal(t, []int{0, 16, 48, 64, 80, 112}, starts((*got)[1]))
}

func TestNoteDuration(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	d, err := NewNoteDuration(src, 4, 48)
	require.NoError(t, err)
	got := collect(d)

	src.send(
		music.Note{Pitch: 60, Start: 0, Duration: 1},
		music.Note{Pitch: 60, Start: 2, Duration: 1},
		music.Note{Pitch: 60, Start: 32, Duration: 1},
		music.Note{Pitch: 60, Start: 100, Duration: 1},
		music.Note{Pitch: 60, Start: 120, Duration: 3},
	)
	require.Len(t, *got, 1)
	var durations []int
	for _, n := range (*got)[0].Notes() {
		durations = append(durations, n.Duration)
	}
	assert.Equal(t, []int{4, 30, 48, 20, 3}, durations)

	_, err = NewNoteDuration(src, 0, 10)
	assert.True(t, errors.Is(err, errors.NotValid))
}

func TestSwitch(t *testing.T) {
	t.Parallel()

	a, b := newFakeSource(), newFakeSource()
	s, err := NewSwitch(a, b)
	require.NoError(t, err)
	require.NoError(t, s.Select(1))
	got := collect(s)

	// b has not published yet so a is forwarded
	pa := a.send(music.Note{Pitch: 60, Duration: 1})
	require.Len(t, *got, 1)
	assert.Same(t, pa, (*got)[0])

	pb := b.send(music.Note{Pitch: 70, Duration: 1})
	require.Len(t, *got, 2)
	assert.Same(t, pb, (*got)[1])

	a.send(music.Note{Pitch: 61, Duration: 1})
	require.Len(t, *got, 3)
	assert.Same(t, pb, (*got)[2])

	assert.True(t, errors.Is(s.Select(2), errors.NotValid))
	assert.Equal(t, 1, s.Selected())
}

func TestInvalidListeners(t *testing.T) {
	t.Parallel()

	_, err := NewMixer()
	assert.True(t, errors.Is(err, errors.NotValid))
	_, err = NewSwitch(nil)
	assert.True(t, errors.Is(err, errors.NotValid))
}

func TestDrum(t *testing.T) {
	t.Parallel()

	seq, err := rhythm.NewPattern("snare", rhythm.FourFour, []int{32, 96})
	require.NoError(t, err)
	c, err := NewDrum(seq, Snare, nil, nil, Options{})
	require.NoError(t, err)

	p := c.Next()
	assert.Equal(t, []int{32, 96}, starts(p))
	assert.Equal(t, []int{2, 2}, pitches(p))
	assert.Equal(t, 0.5, p.Note(0).Volume)

	seq, err = rhythm.NewPeriodic("hat", 16, 0)
	require.NoError(t, err)
	c, err = NewDrum(seq, HihatClosed, DefaultKit, rand.New(rand.NewSource(1)), Options{})
	require.NoError(t, err)
	hat := c.Next().Note(0).Pitch
	assert.Contains(t, []int{21, 31}, hat)

	_, err = NewDrum(seq, Bass, Kit{1: {Type: Click}}, nil, Options{})
	assert.True(t, errors.Is(err, errors.NotFound))
}

func TestKit(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []int{10, 12, 13}, DefaultKit.Notes(Bass))
	assert.Equal(t, []int{2, 4, 8, 11, 15, 17}, DefaultKit.Notes(Snare))

	dt, err := ParseDrumType("Hihat-Open")
	require.NoError(t, err)
	assert.Equal(t, HihatOpen, dt)
	assert.Equal(t, "hihat-open", dt.String())
	_, err = ParseDrumType("cowbell")
	assert.True(t, errors.Is(err, errors.NotValid))
}
