package main

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/juju/errors"
	"github.com/kr/pretty"

	"github.com/mrdg/phrasegen/audio"
	"github.com/mrdg/phrasegen/dub"
)

type command struct {
	name  string
	run   func(*env, []dub.Node) (dub.Node, error)
	arity int // -n means len(args) must be >= n
	help  string
}

var commands []command

func init() {
	commands = []command{
		{"tempo", tempoCommand, 1, "tempo <bpm>"},
		{"level", levelCommand, 2, "level <part> <db>"},
		{"preset", presetCommand, 2, "preset <part> <name>"},
		{"set", setCommand, 3, "set <part> <prop> <value>"},
		{"props", propsCommand, 1, "props <part>"},
		{"load-sound", loadSoundCommand, 3, `load-sound <part> "<file>" <pitch>`},
		{"pattern", patternCommand, -2, "pattern <part> '<match>' [steps] [triplets]"},
		{"select", selectCommand, 2, "select <part> <source>"},
		{"show", showCommand, 1, "show <part>"},
		{"parts", partsCommand, 0, "parts"},
		{"render", renderCommand, 2, `render "<file.wav>" <measures>`},
		{"export", exportCommand, 2, `export "<file.mid>" <measures>`},
		{"help", helpCommand, 0, "help"},
	}
}

func tempoCommand(env *env, args []dub.Node) (dub.Node, error) {
	var bpm float64
	if err := readArgs(args, &bpm); err != nil {
		return nil, err
	}
	return nil, env.engine.setTempo(bpm)
}

func levelCommand(env *env, args []dub.Node) (dub.Node, error) {
	var part string
	var db float64
	if err := readArgs(args, &part, &db); err != nil {
		return nil, err
	}
	return nil, env.setProp(part, "level", db)
}

func presetCommand(env *env, args []dub.Node) (dub.Node, error) {
	var part, name string
	if err := readArgs(args, &part, &name); err != nil {
		return nil, err
	}
	p, err := env.part(part)
	if err != nil {
		return nil, err
	}
	if p.Instrument == nil {
		return nil, errors.NotValidf("part %s without instrument", part)
	}
	return nil, audio.LoadPreset(name, p.Instrument)
}

func setCommand(env *env, args []dub.Node) (dub.Node, error) {
	var part, prop string
	if err := readArgs(args[:2], &part, &prop); err != nil {
		return nil, err
	}
	if prop == "tempo" {
		// instruments must follow the clock
		return nil, errors.NotValidf("setting the tempo of one part, use the tempo command")
	}
	switch v := args[2].(type) {
	case dub.Int:
		return nil, env.setProp(part, prop, float64(v))
	case dub.Float:
		return nil, env.setProp(part, prop, float64(v))
	case dub.String:
		return nil, env.setProp(part, prop, string(v))
	case dub.Identifier:
		return nil, env.setProp(part, prop, string(v))
	default:
		return nil, errors.NotValidf("property value %v", v)
	}
}

func propsCommand(env *env, args []dub.Node) (dub.Node, error) {
	var part string
	if err := readArgs(args, &part); err != nil {
		return nil, err
	}
	p, err := env.part(part)
	if err != nil {
		return nil, err
	}
	if p.Instrument == nil {
		return nil, errors.NotValidf("part %s without instrument", part)
	}
	values := map[string]interface{}{}
	for _, key := range p.Instrument.Keys() {
		if key == audio.PropSoundMap {
			continue
		}
		v, err := p.Instrument.Get(key)
		if err != nil {
			return nil, err
		}
		values[key] = v
	}
	return dub.String(pretty.Sprint(values)), nil
}

func loadSoundCommand(env *env, args []dub.Node) (dub.Node, error) {
	var part, file string
	var pitch int
	if err := readArgs(args, &part, &file, &pitch); err != nil {
		return nil, err
	}
	v, err := env.getProp(part, audio.PropSoundMap)
	if err != nil {
		return nil, err
	}
	sound, err := audio.LoadSound(file)
	if err != nil {
		return nil, err
	}
	mapping, ok := v.(audio.SoundMapping)
	if !ok {
		return nil, errors.NotValidf("sound mapping %v", v)
	}
	// copy the map so the audio thread never sees it change
	updated := audio.SoundMapping{}
	for k, snd := range mapping {
		updated.Put(k, snd)
	}
	updated.Put(pitch, sound)
	return nil, env.setProp(part, audio.PropSoundMap, updated)
}

func patternCommand(env *env, args []dub.Node) (dub.Node, error) {
	if len(args) > 4 {
		return nil, errors.NotValidf("%d arguments", len(args))
	}
	var (
		part string
		expr dub.MatchExpr
	)
	if err := readArgs(args[:2], &part, &expr); err != nil {
		return nil, err
	}
	p, err := env.part(part)
	if err != nil {
		return nil, err
	}
	if p.Composer == nil {
		return nil, errors.NotValidf("part %s without composer", part)
	}
	steps, triplets := p.Steps, false
	for _, arg := range args[2:] {
		switch v := arg.(type) {
		case dub.Int:
			steps = int(v)
		case dub.Identifier:
			if v != "triplets" {
				return nil, errors.NotValidf("option %s", v)
			}
			triplets = true
		default:
			return nil, errors.NotValidf("option %v", v)
		}
	}
	seq, err := expr.Sequence(p.Name, env.arr.TimeSignature, steps, triplets)
	if err != nil {
		return nil, err
	}
	return nil, env.engine.update(func() error {
		if err := p.Composer.SetIntervals(seq); err != nil {
			return err
		}
		p.Steps, p.Triplets = steps, triplets
		return nil
	})
}

func selectCommand(env *env, args []dub.Node) (dub.Node, error) {
	var part string
	var index int
	if err := readArgs(args, &part, &index); err != nil {
		return nil, err
	}
	p, err := env.part(part)
	if err != nil {
		return nil, err
	}
	if p.Switch == nil {
		return nil, errors.NotValidf("part %s is not a switch", part)
	}
	return nil, env.engine.update(func() error {
		return p.Switch.Select(index)
	})
}

func showCommand(env *env, args []dub.Node) (dub.Node, error) {
	var part string
	if err := readArgs(args, &part); err != nil {
		return nil, err
	}
	p, err := env.part(part)
	if err != nil {
		return nil, err
	}
	if p.Instrument == nil {
		return nil, errors.NotValidf("part %s without instrument", part)
	}
	var buf bytes.Buffer
	err = env.engine.update(func() error {
		phrase := p.Instrument.Phrase()
		if phrase == nil {
			return errors.NotFoundf("phrase for part %s", part)
		}
		renderPhrase(&buf, p.Name, phrase, p.Steps, p.Triplets)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dub.String(buf.String()), nil
}

func partsCommand(env *env, args []dub.Node) (dub.Node, error) {
	var lines []string
	for _, p := range env.arr.Parts {
		kind := "composer"
		switch {
		case p.Switch != nil:
			kind = "switch"
		case p.Composer == nil:
			kind = "mix"
		}
		sound := "silent"
		if p.Instrument != nil {
			sound = fmt.Sprintf("channel %d", p.Channel+1)
		}
		lines = append(lines, fmt.Sprintf("%-12s %-8s %s", p.Name, kind, sound))
	}
	return dub.String(strings.Join(lines, "\n")), nil
}

// renderCommand renders a freshly built copy of the song, so changes made
// in the session are not included.
func renderCommand(env *env, args []dub.Node) (dub.Node, error) {
	var file string
	var measures int
	if err := readArgs(args, &file, &measures); err != nil {
		return nil, err
	}
	return nil, renderSong(env.song, file, measures)
}

func exportCommand(env *env, args []dub.Node) (dub.Node, error) {
	var file string
	var measures int
	if err := readArgs(args, &file, &measures); err != nil {
		return nil, err
	}
	return nil, exportSong(env.song, file, measures)
}

func helpCommand(env *env, args []dub.Node) (dub.Node, error) {
	var lines []string
	for _, cmd := range commands {
		lines = append(lines, cmd.help)
	}
	sort.Strings(lines)
	lines = append(lines, "", "presets: "+strings.Join(audio.Presets(), ", "))
	return dub.String(strings.Join(lines, "\n")), nil
}
