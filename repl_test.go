package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrdg/phrasegen/dub"
)

func newTestEnv(t *testing.T) *env {
	t.Helper()
	song, arr := buildSong(t)
	e, err := newEngine(arr)
	require.NoError(t, err)
	return &env{song: song, arr: arr, engine: e}
}

func TestEvalSettings(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	_, err := env.eval("tempo 90")
	require.NoError(t, err)
	assert.Equal(t, 90.0, env.engine.clock.Tempo())

	_, err = env.eval("level beep -6")
	require.NoError(t, err)
	v, err := env.getProp("beep", "level")
	require.NoError(t, err)
	assert.Equal(t, -6.0, v)

	_, err = env.eval("set lead cutoff 500")
	require.NoError(t, err)
	v, err = env.getProp("lead", "cutoff")
	require.NoError(t, err)
	assert.Equal(t, 500.0, v)

	_, err = env.eval("set lead osc1.wave sine")
	require.NoError(t, err)

	_, err = env.eval("preset lead soft-pad")
	require.NoError(t, err)
	v, err = env.getProp("lead", "env.release")
	require.NoError(t, err)
	assert.Equal(t, 1.5, v)

	result, err := env.eval("props lead")
	require.NoError(t, err)
	assert.Contains(t, string(result.(dub.String)), "cutoff")
}

func TestEvalErrors(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	_, err := env.eval("dance")
	assert.True(t, errors.Is(err, errors.NotFound))

	for _, input := range []string{
		"tempo",
		"tempo fast",
		"tempo 0",
		"level nobody 3",
		"level beep 30",
		"set ghost level 3",
		"set beep tempo 90",
		"preset beep lame-bass",
		"preset lead kazoo",
		"pattern pick '*",
		"pattern beep '*' 16 swing",
		"pattern beep '2,4 8",
		"select beep 1",
		"select pick 5",
		"show ghost",
	} {
		_, err := env.eval(input)
		assert.Error(t, err, input)
	}
}

func TestEvalPattern(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	_, err := env.eval("pattern beep '2,4' 8")
	require.NoError(t, err)
	beep, err := env.part("beep")
	require.NoError(t, err)
	assert.Equal(t, 8, beep.Steps)
	assert.False(t, beep.Triplets)

	p := beep.Composer.Next()
	require.Equal(t, 2, p.Len())
	assert.Equal(t, 32, p.Note(0).Start)
	assert.Equal(t, 96, p.Note(1).Start)
}

func TestEvalSelect(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	_, err := env.eval("select pick 1")
	require.NoError(t, err)
	pick, err := env.part("pick")
	require.NoError(t, err)
	assert.Equal(t, 1, pick.Switch.Selected())
}

func TestEvalShow(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	_, err := env.eval("show beep")
	assert.True(t, errors.Is(err, errors.NotFound), "nothing played yet")

	_, err = env.engine.render(1)
	require.NoError(t, err)
	result, err := env.eval("show beep")
	require.NoError(t, err)
	out := string(result.(dub.String))
	assert.Contains(t, out, "A4")
	assert.Equal(t, 1, strings.Count(out, "⬛️"))
}

func TestEvalListings(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	result, err := env.eval("parts")
	require.NoError(t, err)
	lines := strings.Split(string(result.(dub.String)), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[2], "silent")
	assert.Contains(t, lines[3], "switch")

	result, err = env.eval("help")
	require.NoError(t, err)
	assert.Contains(t, string(result.(dub.String)), "lame-bass")
}

func TestRunScript(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	var out bytes.Buffer
	script := `
# slow down
tempo 60

level beep -3
parts
`
	require.NoError(t, env.run(script, &out))
	assert.Equal(t, 60.0, env.engine.clock.Tempo())
	assert.Contains(t, out.String(), "beep")

	err := env.run("tempo 60\ntempo -1", &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestReadArgs(t *testing.T) {
	t.Parallel()

	var (
		s string
		f float64
		n int
	)
	args := []dub.Node{dub.String("x.wav"), dub.Int(3), dub.Int(4)}
	require.NoError(t, readArgs(args, &s, &f, &n))
	assert.Equal(t, "x.wav", s)
	assert.Equal(t, 3.0, f)
	assert.Equal(t, 4, n)

	assert.Error(t, readArgs(args, &s, &f))
	assert.Error(t, readArgs([]dub.Node{dub.Float(0.5)}, &n))
	assert.Error(t, readArgs([]dub.Node{dub.Int(1)}, &s))
}
