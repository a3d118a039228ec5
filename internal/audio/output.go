package audio

import (
	"errors"
	"fmt"
	"path/filepath"
)

// ErrClosed is reported for commands sent after Shutdown.
var ErrClosed = errors.New("audio engine closed")

// DecodeError reports a file that could not be opened or decoded.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot play %s: %v", filepath.Base(e.Path), e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Source is a decoded stream ready to be appended to a sink.
type Source interface {
	Close() error
}

// Sink is a live output stream bound to the device.
type Sink interface {
	// SetVolume sets the linear gain in [0,1].
	SetVolume(level float64)
	Append(src Source)
	Play()
	// Stop halts output and releases the appended sources.
	Stop()
	// Wait blocks until the sink ends. It returns true when the appended
	// sources drained and false when Stop ended it.
	Wait() bool
}

// Output is an opened audio device.
type Output interface {
	Decode(path string) (Source, error)
	NewSink() (Sink, error)
	Close() error
}

// Opener opens the output device. The engine calls it from its worker.
type Opener func() (Output, error)
