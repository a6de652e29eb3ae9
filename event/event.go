// Package event wires components together with typed, named channels. A
// sender owns a channel and broadcasts to every subscribed listener; the
// sender never sees who is listening.
package event

import (
	"sync"

	"github.com/juju/errors"
)

// Channel names used across the project.
const (
	Tick   = "tick"
	Phrase = "phrase"
)

// Listener receives values sent on a channel.
type Listener[T any] func(T)

type subscription[T any] struct {
	id int
	fn Listener[T]
}

// Channel broadcasts values of type T to its listeners, synchronously and
// in subscription order.
type Channel[T any] struct {
	name string

	mu     sync.Mutex
	nextID int
	subs   []subscription[T]
}

func NewChannel[T any](name string) *Channel[T] {
	return &Channel[T]{name: name}
}

func (c *Channel[T]) Name() string { return c.name }

// Subscribe adds a listener. The returned function removes it again.
func (c *Channel[T]) Subscribe(fn Listener[T]) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.subs = append(c.subs, subscription[T]{id: id, fn: fn})
	return func() { c.remove(id) }
}

func (c *Channel[T]) remove(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, s := range c.subs {
		if s.id == id {
			c.subs = append(c.subs[:i:i], c.subs[i+1:]...)
			return
		}
	}
}

// Send delivers v to every listener. Listeners may subscribe or unsubscribe
// while being called; the change applies from the next Send.
func (c *Channel[T]) Send(v T) {
	c.mu.Lock()
	subs := c.subs
	c.mu.Unlock()
	for _, s := range subs {
		s.fn(v)
	}
}

// Len returns the number of listeners.
func (c *Channel[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}

// Registry owns channels by name.
type Registry struct {
	mu       sync.Mutex
	channels map[string]interface{}
}

func NewRegistry() *Registry {
	return &Registry{channels: make(map[string]interface{})}
}

// Register creates the named channel.
func Register[T any](r *Registry, name string) (*Channel[T], error) {
	c := NewChannel[T](name)
	if err := Add(r, name, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Add registers a channel owned by someone else under name.
func Add[T any](r *Registry, name string, c *Channel[T]) error {
	if c == nil {
		return errors.NotValidf("nil channel %q", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.channels[name]; ok {
		return errors.AlreadyExistsf("channel %q", name)
	}
	r.channels[name] = c
	return nil
}

// Lookup returns the named channel. It fails if the channel does not exist
// or carries a different type.
func Lookup[T any](r *Registry, name string) (*Channel[T], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.channels[name]
	if !ok {
		return nil, errors.NotFoundf("channel %q", name)
	}
	c, ok := v.(*Channel[T])
	if !ok {
		return nil, errors.NotValidf("channel %q with type %T", name, v)
	}
	return c, nil
}

// Names returns the registered channel names in no particular order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var names []string
	for name := range r.channels {
		names = append(names, name)
	}
	return names
}
