package rhythm

import (
	"container/heap"

	"github.com/juju/errors"
)

// Event is an onset produced by an interval sequence. Tags identify the
// sequences that produced the tick; a composite sequence merges the tags of
// sources that agree on the same tick.
type Event struct {
	Tags []string
	Tick int
}

// Sequence represents an unbounded source of onset ticks. Calling Next
// repeatedly yields successive ticks that never decrease. Sequences cannot
// be restarted.
type Sequence interface {
	Next() Event
}

// Take returns the next n events of seq.
func Take(seq Sequence, n int) []Event {
	events := make([]Event, n)
	for i := range events {
		events[i] = seq.Next()
	}
	return events
}

// Ticks returns the next n ticks of seq.
func Ticks(seq Sequence, n int) []int {
	ticks := make([]int, n)
	for i := range ticks {
		ticks[i] = seq.Next().Tick
	}
	return ticks
}

type periodic struct {
	tag  string
	step int
	next int
}

// NewPeriodic returns a sequence that emits startOn, startOn+step,
// startOn+2*step and so on.
func NewPeriodic(tag string, step, startOn int) (Sequence, error) {
	if step <= 0 {
		return nil, errors.NotValidf("step %d", step)
	}
	if startOn < 0 {
		return nil, errors.NotValidf("start tick %d", startOn)
	}
	return &periodic{tag: tag, step: step, next: startOn}, nil
}

func (p *periodic) Next() Event {
	tick := p.next
	p.next += p.step
	return Event{Tags: []string{p.tag}, Tick: tick}
}

// pattern implements Sequence for a repeating rhythm.
type pattern struct {
	tag     string
	offsets []int
	loop    int
	index   int
	base    int
}

// NewPattern returns a sequence that repeats the given onset offsets. The
// pattern loops every n measures, where n is the smallest number of whole
// measures that extends past the last offset. The offsets must be
// non-negative and strictly increasing; they are never reordered.
func NewPattern(tag string, ts TimeSignature, offsets []int) (Sequence, error) {
	if ts.IsZero() {
		return nil, errors.NotValidf("zero time signature")
	}
	if len(offsets) == 0 {
		return nil, errors.NotValidf("empty pattern")
	}
	if offsets[0] < 0 {
		return nil, errors.NotValidf("negative offset %d", offsets[0])
	}
	for i := 1; i < len(offsets); i++ {
		if offsets[i] <= offsets[i-1] {
			return nil, errors.NotValidf("offset %d (%d) out of sequence", i, offsets[i])
		}
	}
	last := offsets[len(offsets)-1]
	tpm := ts.TicksPerMeasure()
	return &pattern{
		tag:     tag,
		offsets: append([]int(nil), offsets...),
		loop:    (last/tpm + 1) * tpm,
	}, nil
}

func (p *pattern) Next() Event {
	tick := p.base + p.offsets[p.index]
	p.index++
	if p.index == len(p.offsets) {
		p.index = 0
		p.base += p.loop
	}
	return Event{Tags: []string{p.tag}, Tick: tick}
}

// LoopLength returns the number of ticks after which a pattern sequence
// repeats. It returns 0 for other sequences.
func LoopLength(seq Sequence) int {
	switch s := seq.(type) {
	case *pattern:
		return s.loop
	case *Parametric:
		return s.seq.loop
	}
	return 0
}

// sourceInfo holds the most recent event of one source of a composite.
type sourceInfo struct {
	source Sequence
	next   Event
	order  int
}

// sources implements a tick-ordered heap. Sources with equal ticks are
// ordered by their position in the composite so that merged tags are
// deterministic.
type sources []*sourceInfo

func (s sources) Len() int { return len(s) }

func (s sources) Less(i, j int) bool {
	if s[i].next.Tick != s[j].next.Tick {
		return s[i].next.Tick < s[j].next.Tick
	}
	return s[i].order < s[j].order
}

func (s sources) Swap(i, j int) { s[i], s[j] = s[j], s[i] }

func (s *sources) Push(x interface{}) {
	*s = append(*s, x.(*sourceInfo))
}

func (s *sources) Pop() interface{} {
	old := *s
	x := old[len(old)-1]
	*s = old[:len(old)-1]
	return x
}

type composite struct {
	heap sources
}

// NewComposite returns a sequence that emits the earliest tick of any of
// seqs. When several sources agree on a tick their tags are merged into a
// single event and all of them are advanced.
func NewComposite(seqs ...Sequence) (Sequence, error) {
	if len(seqs) == 0 {
		return nil, errors.NotValidf("empty composite")
	}
	c := &composite{}
	for i, seq := range seqs {
		if seq == nil {
			return nil, errors.NotValidf("nil sequence %d", i)
		}
		c.heap = append(c.heap, &sourceInfo{source: seq, next: seq.Next(), order: i})
	}
	heap.Init(&c.heap)
	return c, nil
}

func (c *composite) Next() Event {
	tick := c.heap[0].next.Tick
	var due []*sourceInfo
	for len(c.heap) > 0 && c.heap[0].next.Tick == tick {
		due = append(due, heap.Pop(&c.heap).(*sourceInfo))
	}
	ev := Event{Tick: tick}
	for _, src := range due {
		ev.Tags = append(ev.Tags, src.next.Tags...)
		next := src.source.Next()
		if next.Tick < tick {
			panic("rhythm: source has returned a decreasing tick")
		}
		src.next = next
		heap.Push(&c.heap, src)
	}
	return ev
}
