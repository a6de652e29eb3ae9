package audio

import (
	"github.com/gordonklaus/portaudio"
	"github.com/juju/errors"
)

const bufferSize = 512

// Processor adds its output to a buffer of stereo samples.
type Processor interface {
	Process([][]float32)
}

// Ticker is told how many samples are about to be rendered, before any
// Processor runs.
type Ticker interface {
	Tick(numSamples int)
}

// Sink plays processors on the default output device.
type Sink struct {
	processors []Processor
	tickers    []Ticker
	stream     *portaudio.Stream
}

func NewSink(rate int) (*Sink, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, errors.Annotatef(err, "initialize portaudio")
	}
	var s Sink
	stream, err := portaudio.OpenDefaultStream(0, 2, float64(rate), bufferSize, s.Process)
	if err != nil {
		portaudio.Terminate()
		return nil, errors.Annotatef(err, "open output stream")
	}
	s.stream = stream
	return &s, nil
}

func (s *Sink) Start() error {
	return errors.Trace(s.stream.Start())
}

func (s *Sink) Stop() error {
	err := s.stream.Close()
	portaudio.Terminate()
	return errors.Trace(err)
}

// AddProcessors must be called before Start.
func (s *Sink) AddProcessors(processors ...Processor) {
	s.processors = append(s.processors, processors...)
}

// AddTicker must be called before Start.
func (s *Sink) AddTicker(ticker Ticker) {
	s.tickers = append(s.tickers, ticker)
}

// Process renders one buffer. Tickers run first so that phrases they cause
// to be queued can start within the same buffer.
func (s *Sink) Process(samples [][]float32) {
	for i := range samples {
		for j := range samples[i] {
			samples[i][j] = 0.
		}
	}
	if len(samples) == 0 {
		return
	}
	for _, ticker := range s.tickers {
		ticker.Tick(len(samples[0]))
	}
	for _, p := range s.processors {
		p.Process(samples)
	}
	for i := range samples {
		for j := range samples[i] {
			samples[i][j] = clip(samples[i][j])
		}
	}
}

func clip(s float32) float32 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}
