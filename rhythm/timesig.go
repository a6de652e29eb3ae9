// Package rhythm maps musical note lengths to integer ticks and provides
// the interval sequences that decide when notes start.
package rhythm

import (
	"math"

	"github.com/juju/errors"
)

// TimeSignature describes how a measure is divided into ticks. Values are
// immutable once constructed.
//
// A whole note is always exactly one measure long, whatever the numerator
// and denominator are.
type TimeSignature struct {
	beatsPerMeasure int
	oneBeatNote     int
	ticksPerBeat    int
	ticksPerMeasure int

	quarter      int
	eighth       int
	sixteenth    int
	thirtySecond int
	half         int
	whole        int

	eighthTriplet    int
	sixteenthTriplet int
}

var (
	FourFour  = MustTimeSignature(4, 4, 32)
	TwoFour   = MustTimeSignature(2, 4, 32)
	ThreeFour = MustTimeSignature(3, 4, 32)
	SixEight  = MustTimeSignature(6, 8, 32)
)

// NewTimeSignature returns a time signature with beatsPerMeasure beats of
// the given note type, each divided into granularity ticks.
func NewTimeSignature(beatsPerMeasure, oneBeatNote, granularity int) (TimeSignature, error) {
	if beatsPerMeasure <= 0 {
		return TimeSignature{}, errors.NotValidf("beats per measure %d", beatsPerMeasure)
	}
	if oneBeatNote <= 0 {
		return TimeSignature{}, errors.NotValidf("beat note %d", oneBeatNote)
	}
	if granularity <= 0 {
		return TimeSignature{}, errors.NotValidf("granularity %d", granularity)
	}
	ts := TimeSignature{
		beatsPerMeasure: beatsPerMeasure,
		oneBeatNote:     oneBeatNote,
		ticksPerBeat:    granularity,
		ticksPerMeasure: beatsPerMeasure * granularity,
	}
	ts.quarter = oneBeatNote * granularity / 4
	ts.eighth = ts.quarter / 2
	ts.sixteenth = ts.eighth / 2
	ts.thirtySecond = ts.sixteenth / 2
	ts.half = ts.quarter * 2
	ts.whole = ts.ticksPerMeasure
	ts.eighthTriplet = ts.quarter / 3
	ts.sixteenthTriplet = ts.eighth / 3
	return ts, nil
}

// MustTimeSignature is like NewTimeSignature but panics on invalid input.
func MustTimeSignature(beatsPerMeasure, oneBeatNote, granularity int) TimeSignature {
	ts, err := NewTimeSignature(beatsPerMeasure, oneBeatNote, granularity)
	if err != nil {
		panic(err)
	}
	return ts
}

func (ts TimeSignature) BeatsPerMeasure() int  { return ts.beatsPerMeasure }
func (ts TimeSignature) OneBeatNote() int      { return ts.oneBeatNote }
func (ts TimeSignature) TicksPerBeat() int     { return ts.ticksPerBeat }
func (ts TimeSignature) TicksPerMeasure() int  { return ts.ticksPerMeasure }
func (ts TimeSignature) Quarter() int          { return ts.quarter }
func (ts TimeSignature) Eighth() int           { return ts.eighth }
func (ts TimeSignature) Sixteenth() int        { return ts.sixteenth }
func (ts TimeSignature) ThirtySecond() int     { return ts.thirtySecond }
func (ts TimeSignature) Half() int             { return ts.half }
func (ts TimeSignature) Whole() int            { return ts.whole }
func (ts TimeSignature) EighthTriplet() int    { return ts.eighthTriplet }
func (ts TimeSignature) SixteenthTriplet() int { return ts.sixteenthTriplet }

// IsZero reports whether ts is the zero value rather than a constructed
// time signature.
func (ts TimeSignature) IsZero() bool { return ts.ticksPerMeasure == 0 }

// Seconds converts a tick count to seconds at the given tempo, where the
// tempo counts beats of the time signature per minute.
func (ts TimeSignature) Seconds(ticks int, bpm float64) float64 {
	return float64(ticks) / float64(ts.ticksPerBeat) * 60 / bpm
}

// SecondsPerMeasure returns the length of one measure at the given tempo.
func (ts TimeSignature) SecondsPerMeasure(bpm float64) float64 {
	return ts.Seconds(ts.ticksPerMeasure, bpm)
}

// SamplesPerMeasure returns the length of one measure rounded to whole
// samples, at least one. Sample-driven clocks and instruments both count
// measures in these units so they reach measure boundaries on the same
// sample.
func (ts TimeSignature) SamplesPerMeasure(bpm float64, rate int) int64 {
	n := int64(math.Round(ts.SecondsPerMeasure(bpm) * float64(rate)))
	if n < 1 {
		return 1
	}
	return n
}

// MeasureCeil returns the smallest multiple of the measure length that is
// greater than or equal to tick.
func (ts TimeSignature) MeasureCeil(tick int) int {
	tpm := ts.ticksPerMeasure
	return (tick + tpm - 1) / tpm * tpm
}
