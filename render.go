package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/mrdg/phrasegen/music"
	"github.com/mrdg/phrasegen/rhythm"
)

// stepsPerBeat returns the number of grid columns per beat for a step size
// given in notes per whole note.
func stepsPerBeat(ts rhythm.TimeSignature, stepSize int, triplets bool) int {
	perWhole := stepSize
	if triplets {
		perWhole = stepSize * 3 / 2
	}
	n := perWhole / ts.OneBeatNote()
	if n < 1 {
		n = 1
	}
	for ts.TicksPerBeat()%n != 0 {
		n--
	}
	return n
}

// renderPhrase draws the first measure of p as a grid with one row per
// pitch, highest pitch first.
func renderPhrase(w io.Writer, name string, p *music.Phrase, stepSize int, triplets bool) {
	ts := p.TimeSignature()
	var (
		perBeat      = stepsPerBeat(ts, stepSize, triplets)
		numSteps     = perBeat * ts.BeatsPerMeasure()
		ticksPerStep = ts.TicksPerBeat() / perBeat
	)

	rows := map[int][]bool{}
	for _, n := range p.Notes() {
		if n.Start >= ts.TicksPerMeasure() {
			continue
		}
		if rows[n.Pitch] == nil {
			rows[n.Pitch] = make([]bool, numSteps)
		}
		rows[n.Pitch][n.Start/ticksPerStep] = true
	}
	var pitches []int
	for pitch := range rows {
		pitches = append(pitches, pitch)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(pitches)))

	labelLen := len(name) + 1
	for _, pitch := range pitches {
		if l := len(pitchName(pitch)) + 1; l > labelLen {
			labelLen = l
		}
	}

	const spacePerStep = 4
	var icons []string
	for i := 1; i <= ts.BeatsPerMeasure(); i++ {
		icons = append(icons, numIcon(i))
	}
	spacing := perBeat*spacePerStep - 3
	beats := strings.Join(icons, strings.Repeat(" ", spacing))
	fmt.Fprintf(w, "%s %s\n", formatName(name, labelLen, colorGreen), beats)

	if len(pitches) == 0 {
		fmt.Fprintln(w, strings.Repeat(" ", labelLen)+" (silent)")
	}
	for _, pitch := range pitches {
		var steps string
		for _, on := range rows[pitch] {
			step := "⬜️"
			if on {
				step = "⬛️"
			}
			steps += step + "  "
		}
		fmt.Fprintf(w, "%s %s\n", formatName(pitchName(pitch), labelLen, colorBlue), strings.TrimRight(steps, " "))
	}

	var numbers string
	for step := 1; step <= numSteps; step++ {
		space := spacePerStep - 2
		if step < 10 {
			space++
		}
		numbers += strconv.Itoa(step) + strings.Repeat(" ", space)
	}
	numbers = colorize(strings.TrimRight(numbers, " "), colorMagenta)
	fmt.Fprintln(w, strings.Repeat(" ", labelLen)+" "+numbers)
}

func formatName(name string, max, color int) string {
	if len(name) > max {
		name = name[:max-1]
		name += "…"
	}
	if len(name) < max {
		name += strings.Repeat(" ", max-len(name))
	}
	return colorize(name, color)
}

var noteNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// pitchName returns the scientific name of a MIDI note number, e.g. 60 is
// C4.
func pitchName(pitch int) string {
	return fmt.Sprintf("%s%d", noteNames[pitch%12], pitch/12-1)
}

func numIcon(n int) string {
	// https://www.unicode.org/emoji/charts/full-emoji-list.html#0030_fe0f_20e3
	return string([]byte{48 + byte(n%10), 239, 184, 143, 226, 131, 163})
}

const (
	colorBlack = iota + 30
	colorRed
	colorGreen
	colorYellow
	colorBlue
	colorMagenta
)

func colorize(text string, color int) string {
	return fmt.Sprintf("\033[%dm%s\033[0m", color, text)
}
