package audio

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"

	"github.com/danfragoso/termpod/logger"
)

const resampleQuality = 4

// OpenDefault returns an Opener for the system speaker at sampleRate.
func OpenDefault(sampleRate int) Opener {
	return func() (Output, error) {
		sr := beep.SampleRate(sampleRate)
		if err := speaker.Init(sr, sr.N(time.Second/4)); err != nil {
			return nil, fmt.Errorf("failed to init speaker: %w", err)
		}
		logger.Info("Audio output ready", logger.Int("sample_rate", sampleRate))
		return &speakerOutput{sampleRate: sr}, nil
	}
}

type speakerOutput struct {
	sampleRate beep.SampleRate
}

type stream struct {
	streamer beep.StreamSeekCloser
	format   beep.Format
}

func (s *stream) Close() error { return s.streamer.Close() }

func (o *speakerOutput) Decode(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".flac":
		streamer, format, err = flac.Decode(f)
	case ".ogg":
		streamer, format, err = vorbis.Decode(f)
	default:
		err = fmt.Errorf("unsupported format %q", ext)
	}
	if err != nil {
		f.Close()
		return nil, err
	}

	return &stream{streamer: streamer, format: format}, nil
}

func (o *speakerOutput) NewSink() (Sink, error) {
	ctrl := &beep.Ctrl{Paused: true}
	return &speakerSink{
		sampleRate: o.sampleRate,
		ctrl:       ctrl,
		volume:     &effects.Volume{Streamer: ctrl, Base: 2},
		done:       make(chan bool, 1),
	}, nil
}

func (o *speakerOutput) Close() error {
	speaker.Clear()
	speaker.Close()
	return nil
}

// speakerSink plays its sources back to back through one volume stage.
type speakerSink struct {
	sampleRate beep.SampleRate
	ctrl       *beep.Ctrl
	volume     *effects.Volume

	sources   []*stream
	streamers []beep.Streamer

	done chan bool
	once sync.Once
}

// SetVolume maps a linear level onto the base-2 exponent effects.Volume uses.
func (s *speakerSink) SetVolume(level float64) {
	speaker.Lock()
	defer speaker.Unlock()

	if level <= 0 {
		s.volume.Silent = true
		return
	}
	s.volume.Silent = false
	s.volume.Volume = math.Log2(level)
}

func (s *speakerSink) Append(src Source) {
	st, ok := src.(*stream)
	if !ok {
		logger.Error("Foreign source appended to speaker sink")
		return
	}

	var streamer beep.Streamer = st.streamer
	if st.format.SampleRate != s.sampleRate {
		streamer = beep.Resample(resampleQuality, st.format.SampleRate, s.sampleRate, st.streamer)
	}
	s.sources = append(s.sources, st)
	s.streamers = append(s.streamers, streamer)
}

func (s *speakerSink) Play() {
	seq := append(s.streamers, beep.Callback(func() {
		s.finish(true)
	}))

	speaker.Lock()
	s.ctrl.Streamer = beep.Seq(seq...)
	s.ctrl.Paused = false
	speaker.Unlock()

	speaker.Play(s.volume)
}

func (s *speakerSink) Stop() {
	speaker.Lock()
	s.ctrl.Streamer = nil
	speaker.Unlock()

	for _, src := range s.sources {
		src.Close()
	}
	s.sources = nil
	s.streamers = nil
	s.finish(false)
}

func (s *speakerSink) Wait() bool {
	return <-s.done
}

func (s *speakerSink) finish(drained bool) {
	s.once.Do(func() {
		s.done <- drained
	})
}
