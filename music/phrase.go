// Package music holds the notes and phrases passed from composers to
// instruments.
package music

import (
	"fmt"
	"strings"

	"github.com/mrdg/phrasegen/rhythm"
)

// Note is a single voiced pitch. Pitch counts semitones above C-1 (60 is
// middle C), Start and Duration are in ticks and Volume is in [0, 1].
type Note struct {
	Pitch    int
	Start    int
	Duration int
	Volume   float64
}

// End returns the tick at which the note stops sounding.
func (n Note) End() int { return n.Start + n.Duration }

func (n Note) String() string {
	return fmt.Sprintf("%d@%d+%d", n.Pitch, n.Start, n.Duration)
}

// Phrase is a batch of notes that starts at tick 0 and spans a whole number
// of measures. A phrase must not be modified once it has been handed out.
type Phrase struct {
	notes []Note
	ts    rhythm.TimeSignature
}

// NewPhrase returns a phrase holding a copy of notes.
func NewPhrase(notes []Note, ts rhythm.TimeSignature) *Phrase {
	return &Phrase{
		notes: append([]Note(nil), notes...),
		ts:    ts,
	}
}

// Notes returns a copy of the phrase's notes.
func (p *Phrase) Notes() []Note { return append([]Note(nil), p.notes...) }

func (p *Phrase) Len() int { return len(p.notes) }

// Note returns the i'th note.
func (p *Phrase) Note(i int) Note { return p.notes[i] }

func (p *Phrase) TimeSignature() rhythm.TimeSignature { return p.ts }

// EndTick returns the tick at which the phrase ends: the first measure
// boundary at or after the end of every note. Every phrase, including an
// empty one, spans at least one measure.
func (p *Phrase) EndTick() int {
	last := 0
	for _, n := range p.notes {
		if end := n.End(); end > last {
			last = end
		}
	}
	end := p.ts.MeasureCeil(last)
	if tpm := p.ts.TicksPerMeasure(); end < tpm {
		return tpm
	}
	return end
}

// EndSeconds returns the length of the phrase at the given tempo.
func (p *Phrase) EndSeconds(bpm float64) float64 {
	return p.ts.Seconds(p.EndTick(), bpm)
}

// Measures returns the number of measures the phrase spans.
func (p *Phrase) Measures() int {
	return p.EndTick() / p.ts.TicksPerMeasure()
}

func (p *Phrase) String() string {
	var b strings.Builder
	b.WriteString("[")
	for i, n := range p.notes {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(n.String())
	}
	fmt.Fprintf(&b, "] end=%d", p.EndTick())
	return b.String()
}
