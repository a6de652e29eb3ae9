package composer

import (
	"math/rand"
	"sort"
	"strings"

	"github.com/juju/errors"
	"github.com/mrdg/phrasegen/melody"
	"github.com/mrdg/phrasegen/rhythm"
)

// DrumType is the kind of drum a kit note plays.
type DrumType int

const (
	Bass DrumType = iota + 1
	Snare
	TomSmall
	TomBig
	TomFloor
	HihatOpen
	HihatClosed
	Crash
	Ride
	Click
)

var drumNames = map[string]DrumType{
	"bass":         Bass,
	"snare":        Snare,
	"tom-small":    TomSmall,
	"tom-big":      TomBig,
	"tom-floor":    TomFloor,
	"hihat-open":   HihatOpen,
	"hihat-closed": HihatClosed,
	"crash":        Crash,
	"ride":         Ride,
	"click":        Click,
}

func ParseDrumType(s string) (DrumType, error) {
	t, ok := drumNames[strings.ToLower(s)]
	if !ok {
		return 0, errors.NotValidf("drum type %q", s)
	}
	return t, nil
}

func (t DrumType) String() string {
	for name, dt := range drumNames {
		if dt == t {
			return name
		}
	}
	return "unknown"
}

// Accent is how hard a kit sound was played.
type Accent int

const (
	Normal Accent = iota
	Quiet
	Loud
)

// Drum describes one sound of a kit.
type Drum struct {
	Type   DrumType
	Accent Accent
}

// Kit maps note numbers to drum sounds.
type Kit map[int]Drum

// DefaultKit describes the numbered sounds of the default drum sample set.
var DefaultKit = Kit{
	1:  {Type: Click},
	7:  {Type: Click},
	9:  {Type: Click},
	2:  {Type: Snare, Accent: Quiet},
	4:  {Type: Snare, Accent: Quiet},
	8:  {Type: Snare, Accent: Loud},
	11: {Type: Snare, Accent: Loud},
	15: {Type: Snare, Accent: Loud},
	17: {Type: Snare, Accent: Loud},
	10: {Type: Bass},
	12: {Type: Bass},
	13: {Type: Bass},
	24: {Type: TomSmall},
	25: {Type: TomSmall},
	27: {Type: TomSmall},
	18: {Type: TomBig},
	20: {Type: TomBig},
	22: {Type: TomFloor},
	19: {Type: HihatOpen},
	23: {Type: HihatOpen},
	21: {Type: HihatClosed},
	31: {Type: HihatClosed},
	26: {Type: Crash},
	32: {Type: Crash},
	34: {Type: Crash},
	28: {Type: Ride},
	30: {Type: Ride},
	36: {Type: Ride},
}

// Notes returns the notes of the kit that play drums of type t, in
// ascending order.
func (k Kit) Notes(t DrumType) []int {
	var notes []int
	for note, d := range k {
		if d.Type == t {
			notes = append(notes, note)
		}
	}
	sort.Ints(notes)
	return notes
}

// accentVolume maps accents to note volumes.
var accentVolume = map[Accent]float64{
	Quiet: 0.5,
	Loud:  1,
}

// NewDrum returns a composer that plays one sound of the kit on every onset
// of intervals. The sound is picked at random among the kit's notes for the
// drum type, or the lowest one if rng is nil. Quiet and loud sounds override
// the volume in opts.
func NewDrum(intervals rhythm.Sequence, t DrumType, kit Kit, rng *rand.Rand, opts Options) (*Composer, error) {
	if kit == nil {
		kit = DefaultKit
	}
	notes := kit.Notes(t)
	if len(notes) == 0 {
		return nil, errors.NotFoundf("%v drum in kit", t)
	}
	note := notes[0]
	if rng != nil {
		note = notes[rng.Intn(len(notes))]
	}
	if v, ok := accentVolume[kit[note].Accent]; ok {
		opts.Volume = v
	}
	pitch, err := melody.NewConstant(note)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return New(intervals, pitch, opts)
}
