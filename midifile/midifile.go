// Package midifile exports phrases as Standard MIDI Files.
package midifile

import (
	"io"
	"math"
	"os"
	"sort"

	"github.com/juju/errors"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/mrdg/phrasegen/music"
	"github.com/mrdg/phrasegen/rhythm"
)

// PPQ is the resolution of written files in ticks per quarter note.
const PPQ = 960

// DrumChannel is the General MIDI percussion channel.
const DrumChannel uint8 = 9

// Track is a part of a song: its phrases are played back to back.
type Track struct {
	Name    string
	Channel uint8
	Phrases []*music.Phrase
}

type noteEvent struct {
	tick uint32
	on   bool
	key  uint8
	vel  uint8
}

// Write encodes tracks as a multi-track MIDI file. The first track of the
// file holds the time signature and tempo, where bpm counts beats of ts.
func Write(w io.Writer, ts rhythm.TimeSignature, bpm float64, tracks []Track) error {
	if ts.IsZero() {
		return errors.NotValidf("zero time signature")
	}
	if bpm <= 0 {
		return errors.NotValidf("tempo %v", bpm)
	}
	if ts.Quarter() == 0 {
		return errors.NotValidf("time signature %d/%d", ts.BeatsPerMeasure(), ts.OneBeatNote())
	}

	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(PPQ)

	var conductor smf.Track
	conductor.Add(0, smf.MetaMeter(uint8(ts.BeatsPerMeasure()), uint8(ts.OneBeatNote())))
	conductor.Add(0, smf.MetaTempo(quarterBPM(ts, bpm)))
	conductor.Close(0)
	if err := sm.Add(conductor); err != nil {
		return errors.Annotatef(err, "add tempo track")
	}

	for _, t := range tracks {
		track, err := encodeTrack(ts, t)
		if err != nil {
			return errors.Annotatef(err, "track %s", t.Name)
		}
		if err := sm.Add(track); err != nil {
			return errors.Annotatef(err, "add track %s", t.Name)
		}
	}
	_, err := sm.WriteTo(w)
	return errors.Trace(err)
}

// WriteFile is like Write but creates the file at path.
func WriteFile(path string, ts rhythm.TimeSignature, bpm float64, tracks []Track) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Trace(err)
	}
	if err := Write(f, ts, bpm, tracks); err != nil {
		f.Close()
		return err
	}
	return errors.Trace(f.Close())
}

func encodeTrack(ts rhythm.TimeSignature, t Track) (smf.Track, error) {
	var track smf.Track
	if t.Channel > 15 {
		return track, errors.NotValidf("channel %d", t.Channel)
	}
	if t.Name != "" {
		track.Add(0, smf.MetaTrackSequenceName(t.Name))
	}

	var (
		events []noteEvent
		offset int
	)
	for _, p := range t.Phrases {
		for _, n := range p.Notes() {
			if n.Pitch < 0 || n.Pitch > 127 {
				return track, errors.NotValidf("pitch %d", n.Pitch)
			}
			start := toPPQ(ts, offset+n.Start)
			end := toPPQ(ts, offset+n.End())
			if end <= start {
				end = start + 1
			}
			events = append(events,
				noteEvent{tick: start, on: true, key: uint8(n.Pitch), vel: velocity(n.Volume)},
				noteEvent{tick: end, key: uint8(n.Pitch)},
			)
		}
		offset += p.EndTick()
	}
	// note offs go first so a repeated key is not cut short
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].tick != events[j].tick {
			return events[i].tick < events[j].tick
		}
		return !events[i].on && events[j].on
	})

	var last uint32
	for _, ev := range events {
		delta := ev.tick - last
		last = ev.tick
		if ev.on {
			track.Add(delta, midi.NoteOn(t.Channel, ev.key, ev.vel))
		} else {
			track.Add(delta, midi.NoteOff(t.Channel, ev.key))
		}
	}
	var closing uint32
	if end := toPPQ(ts, offset); end > last {
		closing = end - last
	}
	track.Close(closing)
	return track, nil
}

func toPPQ(ts rhythm.TimeSignature, tick int) uint32 {
	return uint32(tick * PPQ / ts.Quarter())
}

// quarterBPM converts a tempo in beats of ts to quarter notes per minute.
func quarterBPM(ts rhythm.TimeSignature, bpm float64) float64 {
	return bpm * float64(ts.TicksPerBeat()) / float64(ts.Quarter())
}

func velocity(volume float64) uint8 {
	v := math.Round(volume * 127)
	if v < 1 {
		return 1
	}
	if v > 127 {
		return 127
	}
	return uint8(v)
}
