package melody

import "sort"

const (
	semitone = 1
	tone     = 2
)

// Intervals is a scale formula: the steps in semitones between consecutive
// notes of the scale. Formulas repeat to continue the scale past one octave.
type Intervals []int

var (
	Major           = Intervals{tone, tone, semitone, tone, tone, tone, semitone}
	NaturalMinor    = Intervals{tone, semitone, tone, tone, semitone, tone, tone}
	HarmonicMinor   = Intervals{tone, semitone, tone, tone, semitone, tone + semitone, semitone}
	Dorian          = Intervals{tone, semitone, tone, tone, tone, semitone, tone}
	Lydian          = Intervals{tone, tone, tone, semitone, tone, tone, semitone}
	Mixolydian      = Intervals{tone, tone, semitone, tone, tone, semitone, tone}
	Aeolian         = Intervals{tone, semitone, tone, tone, semitone, tone, tone}
	Locrian         = Intervals{semitone, tone, tone, semitone, tone, tone, tone}
	MajorPentatonic = Intervals{tone, tone, tone + semitone, tone, tone + semitone}
	MinorPentatonic = Intervals{tone + semitone, tone, tone, tone + semitone, tone}
	Chromatic       = Intervals{semitone}
)

var scales = map[string]Intervals{
	"major":            Major,
	"natural_minor":    NaturalMinor,
	"harmonic_minor":   HarmonicMinor,
	"dorian":           Dorian,
	"lydian":           Lydian,
	"mixolydian":       Mixolydian,
	"aeolian":          Aeolian,
	"locrian":          Locrian,
	"major_pentatonic": MajorPentatonic,
	"minor_pentatonic": MinorPentatonic,
	"chromatic":        Chromatic,
}

// ScaleNames returns the names accepted by ScaleIntervals, sorted.
func ScaleNames() []string {
	var names []string
	for name := range scales {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ScaleIntervals returns the formula of a named scale.
func ScaleIntervals(name string) (Intervals, bool) {
	s, ok := scales[name]
	if !ok {
		return nil, false
	}
	return append(Intervals(nil), s...), true
}

// Scale returns n notes of the scale starting at root.
//
//	Scale(60, Major, 7) // [60 62 64 65 67 69 71]
func Scale(root int, intervals Intervals, n int) []int {
	if n <= 0 {
		return nil
	}
	notes := make([]int, n)
	notes[0] = root
	for i := 1; i < n; i++ {
		notes[i] = notes[i-1] + intervals[(i-1)%len(intervals)]
	}
	return notes
}

// NotesInKey returns every note of the scale, in every octave, that lies in
// the valid pitch range. The scale is rooted at the lowest octave of key.
func NotesInKey(key int, intervals Intervals) []int {
	root := ((key % 12) + 12) % 12
	var notes []int
	for i, n := 0, root; n <= MaxPitch; i++ {
		if n >= MinPitch {
			notes = append(notes, n)
		}
		n += intervals[i%len(intervals)]
	}
	return notes
}
