package audio

import (
	"math"
	"sort"
	"sync/atomic"

	"github.com/juju/errors"
)

// Props stores instrument settings that can be updated from another
// goroutine without locks. All properties should be registered before any
// reads take place.
type Props struct {
	properties map[string]*atomic.Value
	setters    map[string]setter
}

func NewProps() *Props {
	return &Props{
		properties: make(map[string]*atomic.Value),
		setters:    make(map[string]setter),
	}
}

// Set updates the property with value. The key has to be registered first using Register.
func (p *Props) Set(key string, value interface{}) error {
	prop, ok := p.properties[key]
	if !ok {
		return errors.NotFoundf("property %s", key)
	}
	if err := p.setters[key](value, prop); err != nil {
		return errors.Annotatef(err, "set property %s", key)
	}
	return nil
}

func (p *Props) Get(key string) (interface{}, error) {
	prop, ok := p.properties[key]
	if !ok {
		return nil, errors.NotFoundf("property %s", key)
	}
	return prop.Load(), nil
}

// Keys returns the registered property names in sorted order.
func (p *Props) Keys() []string {
	keys := make([]string, 0, len(p.properties))
	for k := range p.properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Register adds a new property.
func (p *Props) Register(key string, set setter, init interface{}) (*atomic.Value, error) {
	if _, ok := p.properties[key]; ok {
		return nil, errors.AlreadyExistsf("property %s", key)
	}
	var prop atomic.Value
	if err := set(init, &prop); err != nil {
		return nil, errors.Annotatef(err, "register property %s", key)
	}
	p.properties[key] = &prop
	p.setters[key] = set
	return &prop, nil
}

func (p *Props) MustRegister(key string, set setter, init interface{}) *atomic.Value {
	if prop, err := p.Register(key, set, init); err != nil {
		panic(err)
	} else {
		return prop
	}
}

type setter func(val interface{}, dest *atomic.Value) error

var (
	setEnvParam = setFloat64(0, 15)
	setLevel    = setFloat64(-40, 10)
	setTempo    = setFloat64(1, 500)
	setCutoff   = setFloat64(20, 20000)

	setTranspose = setInt(-48, 48)
)

func setFloat64(min, max float64) setter {
	return func(v interface{}, dest *atomic.Value) error {
		var f float64
		switch n := v.(type) {
		case float64:
			f = n
		case int:
			f = float64(n)
		default:
			return errors.NotValidf("value %v (not a number)", v)
		}
		if f < min || f > max {
			return errors.NotValidf("value %v (range %v - %v)", f, min, max)
		}
		dest.Store(f)
		return nil
	}
}

func setInt(min, max int) setter {
	return func(v interface{}, dest *atomic.Value) error {
		var i int
		switch n := v.(type) {
		case float64:
			if n != math.Trunc(n) {
				return errors.NotValidf("value %v (not an integer)", v)
			}
			i = int(n)
		case int:
			i = n
		default:
			return errors.NotValidf("value %v (not an integer)", v)
		}
		if i < min || i > max {
			return errors.NotValidf("value %d (range %d - %d)", i, min, max)
		}
		dest.Store(i)
		return nil
	}
}
