package audio

import (
	"sync/atomic"

	"github.com/mrdg/phrasegen/music"
)

// phraseQueue is a lock-free spsc queue of phrases.
type phraseQueue struct {
	phrases     []*music.Phrase
	read, write *uint32
}

func newPhraseQueue(size int) *phraseQueue {
	if size <= 0 || size&(size-1) != 0 {
		panic("phrase queue size must be a power of 2")
	}
	return &phraseQueue{
		phrases: make([]*music.Phrase, size),
		read:    new(uint32),
		write:   new(uint32),
	}
}

// push adds p to the queue. It reports false, dropping p, when the queue is
// full.
func (q *phraseQueue) push(p *music.Phrase) bool {
	write := atomic.LoadUint32(q.write)
	if write-atomic.LoadUint32(q.read) == uint32(len(q.phrases)) {
		return false
	}
	q.phrases[write%uint32(len(q.phrases))] = p
	atomic.StoreUint32(q.write, write+1)
	return true
}

// iter calls f for every queued phrase, oldest first, and empties the queue.
func (q *phraseQueue) iter(f func(*music.Phrase)) {
	read := atomic.LoadUint32(q.read)
	write := atomic.LoadUint32(q.write)
	for read != write {
		i := read % uint32(len(q.phrases))
		f(q.phrases[i])
		q.phrases[i] = nil
		read++
	}
	atomic.StoreUint32(q.read, read)
}

// latest empties the queue and returns the most recently pushed phrase, or
// nil if the queue was empty.
func (q *phraseQueue) latest() *music.Phrase {
	var last *music.Phrase
	q.iter(func(p *music.Phrase) { last = p })
	return last
}
