package audio

import (
	"io"
	"math"
	"os"

	"github.com/juju/errors"
	"github.com/youpy/go-wav"
)

// Sound is a decoded mono recording.
type Sound struct {
	buf  []float64
	rate int
	file string
}

// NewSound wraps samples recorded at rate.
func NewSound(samples []float64, rate int) *Sound {
	return &Sound{buf: samples, rate: rate}
}

func (s *Sound) Len() int             { return len(s.buf) }
func (s *Sound) Rate() int            { return s.rate }
func (s *Sound) File() string         { return s.file }
func (s *Sound) Duration() float64    { return float64(len(s.buf)) / float64(s.rate) }
func (s *Sound) Sample(i int) float64 { return s.buf[i] }

// LoadSound reads a WAV file. Only the first channel is kept.
func LoadSound(file string) (*Sound, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer f.Close()

	snd, err := ReadSound(f)
	if err != nil {
		return nil, errors.Annotatef(err, "load %s", file)
	}
	snd.file = file
	return snd, nil
}

// ReadSound decodes WAV data. Only the first channel is kept.
func ReadSound(r interface {
	io.Reader
	io.ReaderAt
}) (*Sound, error) {
	wr := wav.NewReader(r)
	format, err := wr.Format()
	if err != nil {
		return nil, errors.Annotatef(err, "read wav format")
	}
	snd := Sound{rate: int(format.SampleRate)}
	for {
		samples, err := wr.ReadSamples()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Trace(err)
		}
		if len(samples) == 0 {
			break
		}
		for _, sample := range samples {
			snd.buf = append(snd.buf, wr.FloatValue(sample, 0))
		}
	}
	return &snd, nil
}

// FileSource plays a Sound once and is silent afterwards.
type FileSource struct {
	snd *Sound
	pos int
}

func NewFileSource(snd *Sound) *FileSource {
	return &FileSource{snd: snd}
}

func (f *FileSource) Next() float64 {
	if f.pos >= len(f.snd.buf) {
		return 0
	}
	v := f.snd.buf[f.pos]
	f.pos++
	return v
}

// Done reports whether every sample has been played.
func (f *FileSource) Done() bool { return f.pos >= len(f.snd.buf) }

// WriteWAV encodes samples as mono 16-bit PCM. Samples outside [-1, 1] are
// clipped.
func WriteWAV(w io.Writer, samples []float64, rate int) error {
	if rate <= 0 {
		return errors.NotValidf("sample rate %d", rate)
	}
	ww := wav.NewWriter(w, uint32(len(samples)), 1, uint32(rate), 16)
	out := make([]wav.Sample, len(samples))
	for i, s := range samples {
		out[i].Values[0] = toInt16(s)
	}
	return errors.Trace(ww.WriteSamples(out))
}

func toInt16(s float64) int {
	v := math.Round(s * math.MaxInt16)
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int(v)
}
