// Package composer turns interval and melody sequences into measure-aligned
// phrases.
package composer

import (
	"fmt"

	"github.com/juju/errors"
	"github.com/mrdg/phrasegen/event"
	"github.com/mrdg/phrasegen/logger"
	"github.com/mrdg/phrasegen/melody"
	"github.com/mrdg/phrasegen/music"
	"github.com/mrdg/phrasegen/rhythm"
	"github.com/sirupsen/logrus"
)

// ErrMissedTick is the panic value (wrapped) raised when a composer is
// notified of a tick past the one it was waiting for.
var ErrMissedTick = errors.New("missed trigger tick")

// Source is anything that publishes phrases.
type Source interface {
	Phrases() *event.Channel[*music.Phrase]
}

// Options configures a Composer. Zero values select the defaults.
type Options struct {
	// Name identifies the composer in logs.
	Name string
	// TimeSignature defaults to 4/4.
	TimeSignature rhythm.TimeSignature
	// Duration is the length of every note in ticks. It defaults to an
	// eighth note.
	Duration int
	// Volume of every note. It defaults to 1.
	Volume float64
}

// Composer binds an interval sequence to a melody sequence and produces one
// measure long phrases, each starting at tick 0.
type Composer struct {
	intervals rhythm.Sequence
	melody    melody.Sequence

	name     string
	ts       rhythm.TimeSignature
	duration int
	volume   float64

	// currentTick is the absolute tick at which the next phrase starts.
	currentTick int
	// origin is the absolute tick at which intervals started.
	origin int
	// carry holds the phrase-relative onset pulled past the end of the
	// previous measure.
	carry *int

	phrases *event.Channel[*music.Phrase]
	log     *logrus.Entry
}

func New(intervals rhythm.Sequence, mel melody.Sequence, opts Options) (*Composer, error) {
	if intervals == nil {
		return nil, errors.NotValidf("nil interval sequence")
	}
	if mel == nil {
		return nil, errors.NotValidf("nil melody sequence")
	}
	ts := opts.TimeSignature
	if ts.IsZero() {
		ts = rhythm.FourFour
	}
	duration := opts.Duration
	if duration == 0 {
		duration = ts.Eighth()
	}
	if duration < 0 {
		return nil, errors.NotValidf("note duration %d", duration)
	}
	volume := opts.Volume
	if volume == 0 {
		volume = 1
	}
	if volume < 0 || volume > 1 {
		return nil, errors.NotValidf("volume %v", volume)
	}
	return &Composer{
		intervals: intervals,
		melody:    mel,
		name:      opts.Name,
		ts:        ts,
		duration:  duration,
		volume:    volume,
		phrases:   event.NewChannel[*music.Phrase](event.Phrase),
		log:       logger.GetProjectLogger().WithField("composer", opts.Name),
	}, nil
}

// Phrases returns the channel on which phrases are published.
func (c *Composer) Phrases() *event.Channel[*music.Phrase] { return c.phrases }

// CurrentTick returns the absolute tick at which the next phrase starts.
func (c *Composer) CurrentTick() int { return c.currentTick }

func (c *Composer) TimeSignature() rhythm.TimeSignature { return c.ts }

// Listen subscribes the composer to a tick channel.
func (c *Composer) Listen(ticks *event.Channel[int]) (unsubscribe func()) {
	return ticks.Subscribe(c.Tick)
}

// Tick handles a tick notification. When tick is the start of the next
// phrase, the phrase is generated and published. Earlier ticks are ignored.
// A later tick means the trigger was missed, which is a bug in the caller,
// and Tick panics.
func (c *Composer) Tick(tick int) {
	switch {
	case tick < c.currentTick:
		return
	case tick > c.currentTick:
		panic(fmt.Errorf("composer %s: got tick %d, waiting for %d: %w", c.name, tick, c.currentTick, ErrMissedTick))
	}
	p := c.Next()
	c.phrases.Send(p)
}

// SetIntervals replaces the interval sequence. The new sequence starts with
// the next phrase; an onset carried over from the old one is dropped.
func (c *Composer) SetIntervals(intervals rhythm.Sequence) error {
	if intervals == nil {
		return errors.NotValidf("nil interval sequence")
	}
	c.intervals = intervals
	c.origin = c.currentTick
	c.carry = nil
	return nil
}

// Next generates the next phrase and moves the composer past it without
// publishing it.
func (c *Composer) Next() *music.Phrase {
	tpm := c.ts.TicksPerMeasure()

	var onsets []int
	pull := true
	if c.carry != nil {
		tick := *c.carry
		c.carry = nil
		if tick < tpm {
			onsets = append(onsets, tick)
		} else {
			// still beyond this measure
			next := tick - tpm
			c.carry = &next
			pull = false
		}
	}
	for pull {
		tick := c.intervals.Next().Tick + c.origin - c.currentTick
		if tick < tpm {
			onsets = append(onsets, tick)
			continue
		}
		next := tick - tpm
		c.carry = &next
		pull = false
	}

	notes := make([]music.Note, 0, len(onsets))
	for _, tick := range onsets {
		duration := c.duration
		if tick+duration > tpm {
			duration = tpm - tick - 1
			if duration < 1 {
				duration = 1
			}
		}
		notes = append(notes, music.Note{
			Pitch:    melody.Next(c.melody),
			Start:    tick,
			Duration: duration,
			Volume:   c.volume,
		})
	}
	p := music.NewPhrase(notes, c.ts)
	c.log.WithFields(logrus.Fields{
		"tick":  c.currentTick,
		"notes": p.Len(),
	}).Debug("phrase")
	c.currentTick += p.EndTick()
	return p
}
