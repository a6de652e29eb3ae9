package audio

import (
	"sort"

	"github.com/juju/errors"
)

// Device is anything with settable properties, such as an Instrument.
type Device interface {
	Set(key string, val interface{}) error
	Get(key string) (interface{}, error)
}

type preset map[string]interface{}

var presets = map[string]preset{
	"lame-bass": {
		"level":       3.,
		"env.curve":   "out-quad",
		"env.decay":   0.1,
		"env.sustain": 0.,
		"osc1.wave":   "saw",
		"osc2.wave":   "saw",
		"cutoff":      900.0,
	},
	"soft-pad": {
		"env.attack":  0.4,
		"env.curve":   "in-out-sine",
		"env.decay":   0.2,
		"env.sustain": 0.7,
		"env.release": 1.5,
		"osc1.wave":   "sine",
		"osc2.wave":   "saw",
		"cutoff":      1200.0,
	},
	"square-lead": {
		"level":       -3.,
		"env.attack":  0.005,
		"env.release": 0.05,
		"osc1.wave":   "square",
		"osc2.wave":   "off",
		"cutoff":      4000.0,
	},
}

// Presets returns the names of the available presets.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadPreset applies the named preset to d. Keys are applied in sorted order
// and the first failing key stops the load.
func LoadPreset(name string, d Device) error {
	p, ok := presets[name]
	if !ok {
		return errors.NotFoundf("preset %q", name)
	}
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := d.Set(k, p[k]); err != nil {
			return errors.Annotatef(err, "preset %s", name)
		}
	}
	return nil
}
