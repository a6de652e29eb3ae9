package main

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/mrdg/phrasegen/audio"
	"github.com/mrdg/phrasegen/config"
	"github.com/mrdg/phrasegen/music"
)

const testSong = `
tempo: 120
sample_rate: 1000
parts:
  - name: beep
    rhythm: {periodic: {step: 128}}
    melody: {constant: 69}
    duration: 16
  - name: lead
    rhythm: {pattern: [0, 64]}
    melody: {cyclic: [60, 67]}
    voice: synth
  - name: ghost
    rhythm: {periodic: {step: 32}}
    melody: {constant: 48}
    voice: none
  - name: pick
    switch: [beep, ghost]
    voice: square
    level: -12
`

func buildSong(t *testing.T) (*config.Song, *config.Arrangement) {
	t.Helper()
	song, err := config.Parse([]byte(testSong))
	require.NoError(t, err)
	arr, err := song.Build()
	require.NoError(t, err)
	return song, arr
}

func peak(samples []float64) float64 {
	var max float64
	for _, s := range samples {
		max = math.Max(max, math.Abs(s))
	}
	return max
}

func TestEngineRender(t *testing.T) {
	t.Parallel()

	_, arr := buildSong(t)
	// only the beep part is audible
	for _, p := range arr.Parts {
		if p.Name != "beep" {
			p.Instrument = nil
		}
	}
	e, err := newEngine(arr)
	require.NoError(t, err)

	samples, err := e.render(2)
	require.NoError(t, err)
	require.Len(t, samples, 4000)

	assert.Greater(t, peak(samples[:250]), 0.1)
	assert.Zero(t, peak(samples[300:2000]))
	assert.Greater(t, peak(samples[2000:2250]), 0.1)
	assert.Zero(t, peak(samples[2300:]))

	_, err = e.render(0)
	assert.Error(t, err)
}

func TestEngineTempo(t *testing.T) {
	t.Parallel()

	_, arr := buildSong(t)
	e, err := newEngine(arr)
	require.NoError(t, err)

	require.NoError(t, e.setTempo(240))
	assert.Equal(t, 240.0, e.clock.Tempo())
	for _, inst := range arr.Instruments() {
		assert.Equal(t, 240.0, inst.Tempo())
	}
	samples, err := e.render(1)
	require.NoError(t, err)
	assert.Len(t, samples, 1000)

	assert.Error(t, e.setTempo(0))
}

func TestEngineSplicesPhrasesAtMeasures(t *testing.T) {
	t.Parallel()

	// at 97 bpm a measure lasts 2474.2 samples
	song, err := config.Parse([]byte(`
tempo: 97
sample_rate: 1000
parts:
  - name: walk
    rhythm: {periodic: {step: 32}}
    melody: {cyclic: [60, 62, 64, 65, 67, 69, 71]}
`))
	require.NoError(t, err)
	arr, err := song.Build()
	require.NoError(t, err)
	part, err := arr.Part("walk")
	require.NoError(t, err)

	var published []*music.Phrase
	part.Source.Phrases().Subscribe(func(p *music.Phrase) {
		published = append(published, p)
	})
	e, err := newEngine(arr)
	require.NoError(t, err)

	const (
		measures = 300
		bufSize  = 512
	)
	total := measures * arr.TimeSignature.SamplesPerMeasure(arr.Tempo, arr.Rate)
	buf := [][]float32{make([]float32, bufSize), make([]float32, bufSize)}
	var (
		plays     int
		nextStart int64
	)
	for n := int64(0); n < total; n += bufSize {
		if n >= total/2 && e.clock.Tempo() == arr.Tempo {
			// 131 bpm: 1832.1 samples per measure
			require.NoError(t, e.setTempo(131))
		}
		e.Process(buf)
		inst := part.Instrument
		if inst.Plays() == plays {
			continue
		}
		plays = inst.Plays()
		require.LessOrEqual(t, plays, len(published))
		require.Same(t, published[plays-1], inst.Phrase(), "measure %d", plays-1)
		require.Equal(t, nextStart, inst.PhraseStart(), "measure %d", plays-1)
		nextStart += arr.TimeSignature.SamplesPerMeasure(inst.Tempo(), arr.Rate)
	}
	assert.Equal(t, len(published), plays)
	assert.Greater(t, plays, measures)
}

func TestTracks(t *testing.T) {
	t.Parallel()

	_, arr := buildSong(t)
	tr, err := tracks(arr, 3)
	require.NoError(t, err)
	require.Len(t, tr, 3)

	names := []string{tr[0].Name, tr[1].Name, tr[2].Name}
	assert.Equal(t, []string{"beep", "lead", "pick"}, names)
	for _, track := range tr {
		require.Len(t, track.Phrases, 3, track.Name)
	}
	assert.Equal(t, uint8(0), tr[0].Channel)
	assert.Equal(t, uint8(1), tr[1].Channel)

	lead := tr[1].Phrases[0]
	require.Equal(t, 2, lead.Len())
	assert.Equal(t, 60, lead.Note(0).Pitch)
	assert.Equal(t, 64, lead.Note(1).Start)
	// the switch follows its first source
	assert.Equal(t, 1, tr[2].Phrases[2].Len())
	assert.Equal(t, 69, tr[2].Phrases[2].Note(0).Pitch)

	_, err = tracks(arr, 0)
	assert.Error(t, err)
}

func TestRenderAndExportSong(t *testing.T) {
	t.Parallel()

	song, _ := buildSong(t)
	dir := t.TempDir()

	wavFile := filepath.Join(dir, "out.wav")
	require.NoError(t, renderSong(song, wavFile, 1))
	snd, err := audio.LoadSound(wavFile)
	require.NoError(t, err)
	assert.Equal(t, 2000, snd.Len())
	assert.Equal(t, 1000, snd.Rate())

	midFile := filepath.Join(dir, "out.mid")
	require.NoError(t, exportSong(song, midFile, 2))
	rd, err := smf.ReadFile(midFile)
	require.NoError(t, err)
	// tempo track plus one per audible part
	assert.Len(t, rd.Tracks, 4)
}

func TestArrangementDrivenOnce(t *testing.T) {
	t.Parallel()

	_, arr := buildSong(t)
	_, err := newEngine(arr)
	require.NoError(t, err)
	_, err = tracks(arr, 1)
	assert.True(t, errors.Is(err, errors.AlreadyExists))
}
