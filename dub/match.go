package dub

import (
	"github.com/juju/errors"

	"github.com/mrdg/phrasegen/rhythm"
)

type matchItem struct {
	level   int
	matcher matcher
}

type matcher interface {
	match(i int) bool
}

type rangeMatch struct {
	start, end int
}

func (r rangeMatch) match(i int) bool {
	return (i >= r.start || r.start == -1) && (i <= r.end || r.end == -1)
}

var matchAll = rangeMatch{-1, -1}

type listMatch []int

func (l listMatch) match(i int) bool {
	for _, k := range l {
		if k == i {
			return true
		}
	}
	return false
}

// notesPerBeat returns the number of notes in a beat on the given level.
// With triplets the first subdivision splits a beat in three.
func notesPerBeat(level int, triplets bool) int {
	if level == 0 {
		return 1
	}
	if triplets {
		return 3 << (level - 1)
	}
	return 1 << level
}

// EvalMatchExpr returns one measure of steps, 1 for a selected step and 0
// otherwise. A measure has beats beats of the beatNote note value and is
// divided into steps of the stepSize note value, or of stepSize triplets.
// Beats are numbered from 1 across the measure; notes of deeper levels are
// numbered from 1 within their beat.
func EvalMatchExpr(expr MatchExpr, beats, beatNote, stepSize int, triplets bool) ([]int, error) {
	if beats <= 0 || beatNote <= 0 || stepSize <= 0 {
		return nil, errors.NotValidf("measure of %d/%d in steps of %d", beats, beatNote, stepSize)
	}
	if len(expr.matchers) == 0 {
		return nil, errors.NotValidf("empty match expression")
	}
	stepsPerWhole := stepSize
	if triplets {
		if stepSize%2 != 0 {
			return nil, errors.NotValidf("triplet step size %d", stepSize)
		}
		stepsPerWhole = stepSize * 3 / 2
	}
	if stepsPerWhole%beatNote != 0 {
		return nil, errors.NotValidf("step size %d for 1/%d beats", stepSize, beatNote)
	}
	stepsPerBeat := stepsPerWhole / beatNote
	seq := make([]int, beats*stepsPerBeat)

	for i := len(expr.matchers) - 1; i >= 0; i-- {
		item := expr.matchers[i]
		perBeat := notesPerBeat(item.level, triplets)
		if perBeat > stepsPerBeat || stepsPerBeat%perBeat != 0 {
			return nil, errors.NotValidf("level %d with %d steps per beat", item.level, stepsPerBeat)
		}
		skip := stepsPerBeat / perBeat

		for note, steps := 0, 0; note < len(seq); note += skip {
			noteNum := steps % perBeat
			if perBeat == 1 {
				noteNum = steps
			}
			steps++

			// note numbers start at 1
			if item.matcher.match(noteNum + 1) {
				if i == len(expr.matchers)-1 {
					seq[note] = 1
				}
			} else {
				for i := note; i < note+skip; i++ {
					seq[i] = 0
				}
			}
		}
	}
	return seq, nil
}

// Offsets evaluates expr over one measure of ts and returns the ticks of the
// selected steps.
func (expr MatchExpr) Offsets(ts rhythm.TimeSignature, stepSize int, triplets bool) ([]int, error) {
	seq, err := EvalMatchExpr(expr, ts.BeatsPerMeasure(), ts.OneBeatNote(), stepSize, triplets)
	if err != nil {
		return nil, err
	}
	stepsPerBeat := len(seq) / ts.BeatsPerMeasure()
	if ts.TicksPerBeat()%stepsPerBeat != 0 {
		return nil, errors.NotValidf("%d steps per beat with %d ticks per beat", stepsPerBeat, ts.TicksPerBeat())
	}
	ticksPerStep := ts.TicksPerBeat() / stepsPerBeat
	var offsets []int
	for i, v := range seq {
		if v != 0 {
			offsets = append(offsets, i*ticksPerStep)
		}
	}
	return offsets, nil
}

// Sequence returns a pattern sequence playing the steps selected by expr in
// every measure.
func (expr MatchExpr) Sequence(tag string, ts rhythm.TimeSignature, stepSize int, triplets bool) (rhythm.Sequence, error) {
	offsets, err := expr.Offsets(ts, stepSize, triplets)
	if err != nil {
		return nil, err
	}
	if len(offsets) == 0 {
		return nil, errors.NotValidf("match expression selecting no steps")
	}
	return rhythm.NewPattern(tag, ts, offsets)
}
