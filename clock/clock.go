// Package clock delivers tick notifications to composers, either paced
// against the wall clock or driven by the number of rendered samples.
package clock

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"github.com/juju/errors"
	"github.com/mrdg/phrasegen/event"
	"github.com/mrdg/phrasegen/logger"
	"github.com/mrdg/phrasegen/rhythm"
	kclock "k8s.io/utils/clock"
)

// TicksPerSecond returns the tick rate of a time signature at a tempo.
func TicksPerSecond(ts rhythm.TimeSignature, bpm float64) float64 {
	return bpm / 60 * float64(ts.TicksPerBeat())
}

// Clock sends ticks 0, 1, 2, ... on its channel. Ticks are delivered
// synchronously, one at a time.
type Clock struct {
	clk      kclock.Clock
	interval time.Duration
	ticks    *event.Channel[int]
	next     int
}

// New returns a clock paced by clk. Pass kclock.RealClock{} to follow the
// wall clock.
func New(clk kclock.Clock, ticksPerSecond float64) (*Clock, error) {
	if clk == nil {
		return nil, errors.NotValidf("nil clock")
	}
	if ticksPerSecond <= 0 || math.IsInf(ticksPerSecond, 0) || math.IsNaN(ticksPerSecond) {
		return nil, errors.NotValidf("%v ticks per second", ticksPerSecond)
	}
	return &Clock{
		clk:      clk,
		interval: time.Duration(float64(time.Second) / ticksPerSecond),
		ticks:    event.NewChannel[int](event.Tick),
	}, nil
}

func (c *Clock) Ticks() *event.Channel[int] { return c.ticks }

// Next returns the tick that will be sent next.
func (c *Clock) Next() int { return c.next }

// Increment sends the next n ticks immediately.
func (c *Clock) Increment(n int) {
	for i := 0; i < n; i++ {
		c.ticks.Send(c.next)
		c.next++
	}
}

// Run sends ticks until ctx is done. Each tick is scheduled relative to the
// start of Run, so slow listeners do not make the clock drift.
func (c *Clock) Run(ctx context.Context) error {
	log := logger.GetProjectLogger()
	log.WithField("interval", c.interval).Debug("clock started")
	start := c.clk.Now()
	first := c.next
	for {
		c.Increment(1)
		due := start.Add(time.Duration(c.next-first) * c.interval)
		select {
		case <-ctx.Done():
			log.WithField("tick", c.next).Debug("clock stopped")
			return nil
		case <-c.clk.After(due.Sub(c.clk.Now())):
		}
	}
}

// SampleClock converts rendered sample counts into ticks. It implements the
// Ticker interface of the audio sink, so ticks are sent from the audio
// callback before the buffer is rendered.
//
// Measures last rhythm.TimeSignature.SamplesPerMeasure samples, the same
// count instruments play a phrase for, and the first tick of a measure is
// sent with the buffer holding the measure's first sample. A tempo change
// takes effect at the next measure, when instruments pick it up too.
type SampleClock struct {
	ts    rhythm.TimeSignature
	rate  int
	bpm   atomic.Value
	ticks *event.Channel[int]

	samples      int64
	measure      int
	measureStart int64
	measureLen   int64
	next         int
}

func NewSampleClock(ts rhythm.TimeSignature, bpm float64, rate int) (*SampleClock, error) {
	if ts.IsZero() {
		return nil, errors.NotValidf("zero time signature")
	}
	if rate <= 0 {
		return nil, errors.NotValidf("sample rate %d", rate)
	}
	c := &SampleClock{
		ts:    ts,
		rate:  rate,
		ticks: event.NewChannel[int](event.Tick),
	}
	if err := c.SetTempo(bpm); err != nil {
		return nil, err
	}
	c.measureLen = ts.SamplesPerMeasure(bpm, rate)
	return c, nil
}

func (c *SampleClock) Ticks() *event.Channel[int] { return c.ticks }

// SetTempo changes the tempo from the next measure on. It is safe to call
// while the clock is running.
func (c *SampleClock) SetTempo(bpm float64) error {
	if bpm <= 0 || math.IsNaN(bpm) || math.IsInf(bpm, 0) {
		return errors.NotValidf("tempo %v", bpm)
	}
	c.bpm.Store(bpm)
	return nil
}

// Tempo returns the most recently set tempo.
func (c *SampleClock) Tempo() float64 { return c.bpm.Load().(float64) }

// Tick sends every tick that starts within the next numSamples samples.
func (c *SampleClock) Tick(numSamples int) {
	c.samples += int64(numSamples)
	tpm := c.ts.TicksPerMeasure()
	for {
		if c.next == (c.measure+1)*tpm {
			end := c.measureStart + c.measureLen
			if end >= c.samples {
				return
			}
			c.measure++
			c.measureStart = end
			c.measureLen = c.ts.SamplesPerMeasure(c.Tempo(), c.rate)
		}
		within := int64(c.next - c.measure*tpm)
		// first sample at or after the tick's exact position
		pos := c.measureStart + (within*c.measureLen+int64(tpm)-1)/int64(tpm)
		if pos >= c.samples {
			return
		}
		c.ticks.Send(c.next)
		c.next++
	}
}
