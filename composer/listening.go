package composer

import (
	"sort"

	"github.com/juju/errors"
	"github.com/mrdg/phrasegen/event"
	"github.com/mrdg/phrasegen/music"
)

// listener keeps the latest phrase of each of its sources and publishes a
// derived phrase every time one of them publishes.
type listener struct {
	sources []Source
	latest  []*music.Phrase
	phrases *event.Channel[*music.Phrase]
	unsubs  []func()
	derive  func() *music.Phrase
}

func newListener(sources []Source, derive func() *music.Phrase) (*listener, error) {
	if len(sources) == 0 {
		return nil, errors.NotValidf("listening composer without sources")
	}
	for i, src := range sources {
		if src == nil {
			return nil, errors.NotValidf("nil source %d", i)
		}
	}
	l := &listener{
		sources: sources,
		latest:  make([]*music.Phrase, len(sources)),
		phrases: event.NewChannel[*music.Phrase](event.Phrase),
		derive:  derive,
	}
	for i, src := range sources {
		i := i
		l.unsubs = append(l.unsubs, src.Phrases().Subscribe(func(p *music.Phrase) {
			l.latest[i] = p
			if out := l.derive(); out != nil {
				l.phrases.Send(out)
			}
		}))
	}
	return l, nil
}

func (l *listener) Phrases() *event.Channel[*music.Phrase] { return l.phrases }

// Close stops listening to the sources.
func (l *listener) Close() {
	for _, unsub := range l.unsubs {
		unsub()
	}
	l.unsubs = nil
}

// Mixer publishes the notes of the latest phrase of every source merged
// into one phrase.
type Mixer struct {
	*listener
}

func NewMixer(sources ...Source) (*Mixer, error) {
	m := &Mixer{}
	l, err := newListener(sources, m.mix)
	if err != nil {
		return nil, err
	}
	m.listener = l
	return m, nil
}

func (m *Mixer) mix() *music.Phrase {
	var (
		notes []music.Note
		first *music.Phrase
	)
	for _, p := range m.latest {
		if p == nil {
			continue
		}
		if first == nil {
			first = p
		}
		notes = append(notes, p.Notes()...)
	}
	if first == nil {
		return nil
	}
	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].Start < notes[j].Start
	})
	return music.NewPhrase(notes, first.TimeSignature())
}

// NoteDuration stretches every note of its source's phrases to last until
// the next note starts, within [min, max] ticks. The last note keeps its
// duration.
type NoteDuration struct {
	*listener
	min, max int
}

func NewNoteDuration(src Source, min, max int) (*NoteDuration, error) {
	if min < 1 || max < min {
		return nil, errors.NotValidf("duration range %d-%d", min, max)
	}
	d := &NoteDuration{min: min, max: max}
	l, err := newListener([]Source{src}, d.stretch)
	if err != nil {
		return nil, err
	}
	d.listener = l
	return d, nil
}

func (d *NoteDuration) stretch() *music.Phrase {
	p := d.latest[0]
	if p == nil {
		return nil
	}
	return d.Apply(p)
}

// Apply returns p with its note durations changed.
func (d *NoteDuration) Apply(p *music.Phrase) *music.Phrase {
	notes := p.Notes()
	for i := 0; i < len(notes)-1; i++ {
		gap := notes[i+1].Start - notes[i].Start
		switch {
		case gap <= d.min:
			notes[i].Duration = d.min
		case gap > d.max:
			notes[i].Duration = d.max
		default:
			notes[i].Duration = gap
		}
	}
	return music.NewPhrase(notes, p.TimeSignature())
}

// Switch forwards the phrases of one selected source. Until the selected
// source has published, the first source that has is used instead.
type Switch struct {
	*listener
	selected int
}

func NewSwitch(sources ...Source) (*Switch, error) {
	s := &Switch{}
	l, err := newListener(sources, s.pick)
	if err != nil {
		return nil, err
	}
	s.listener = l
	return s, nil
}

// Select chooses the source to forward.
func (s *Switch) Select(i int) error {
	if i < 0 || i >= len(s.sources) {
		return errors.NotValidf("source %d of %d", i, len(s.sources))
	}
	s.selected = i
	return nil
}

func (s *Switch) Selected() int { return s.selected }

func (s *Switch) pick() *music.Phrase {
	if p := s.latest[s.selected]; p != nil {
		return p
	}
	for _, p := range s.latest {
		if p != nil {
			return p
		}
	}
	return nil
}
