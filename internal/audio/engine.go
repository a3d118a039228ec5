package audio

import (
	"sync"

	"github.com/danfragoso/termpod/logger"
)

const eventBuffer = 64

// Engine is the single owner of the output device. Commands go in through
// an unbounded mailbox and are executed one at a time by the worker; events
// come back on Events.
type Engine struct {
	mu      sync.Mutex
	pending []Command
	closed  bool
	wake    chan struct{}

	events chan Event
	done   chan struct{}
}

// Start launches the worker. open runs on the worker and its Output never
// leaves it.
func Start(open Opener) *Engine {
	e := &Engine{
		wake:   make(chan struct{}, 1),
		events: make(chan Event, eventBuffer),
		done:   make(chan struct{}),
	}
	go e.run(open)
	return e
}

// Send enqueues cmd and returns immediately. After Shutdown has been sent
// every command is rejected with ErrClosed.
func (e *Engine) Send(cmd Command) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		cmd.reply(ErrClosed)
		return
	}
	e.pending = append(e.pending, cmd)
	if cmd.Kind == CmdShutdown {
		e.closed = true
	}
	e.mu.Unlock()

	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// Events delivers playback feedback. Events are dropped when the buffer is
// full. The channel is never closed; select on Done as well.
func (e *Engine) Events() <-chan Event { return e.events }

// Done is closed once the worker has exited.
func (e *Engine) Done() <-chan struct{} { return e.done }

// Wait blocks until the worker has exited.
func (e *Engine) Wait() { <-e.done }

func (e *Engine) next() Command {
	for {
		e.mu.Lock()
		if len(e.pending) > 0 {
			cmd := e.pending[0]
			e.pending[0] = Command{}
			e.pending = e.pending[1:]
			e.mu.Unlock()
			return cmd
		}
		e.mu.Unlock()
		<-e.wake
	}
}

func (e *Engine) emit(ev Event) {
	select {
	case e.events <- ev:
	default:
		logger.Warn("Dropping audio event",
			logger.String("kind", ev.Kind.String()),
			logger.Uint64("seq", ev.Seq))
	}
}

func (e *Engine) run(open Opener) {
	defer close(e.done)

	w := &worker{engine: e, volume: 1}

	out, err := open()
	if err != nil {
		logger.Error("Failed to open audio output", logger.ErrorField(err))
		w.openErr = err
	} else {
		w.out = out
		defer func() {
			if err := out.Close(); err != nil {
				logger.Warn("Failed to close audio output", logger.ErrorField(err))
			}
		}()
	}

	for {
		cmd := e.next()
		logger.Debug("Audio command",
			logger.String("kind", cmd.Kind.String()),
			logger.String("path", cmd.Path))

		switch cmd.Kind {
		case CmdPlay:
			cmd.reply(w.play(cmd.Path, cmd.Seq))
		case CmdStop:
			w.stop()
			cmd.reply(nil)
		case CmdSetVolume:
			w.setVolume(cmd.Level)
			cmd.reply(nil)
		case CmdShutdown:
			w.stop()
			cmd.reply(nil)
			e.rejectPending()
			return
		}
	}
}

// rejectPending fails anything queued behind Shutdown.
func (e *Engine) rejectPending() {
	e.mu.Lock()
	rest := e.pending
	e.pending = nil
	e.mu.Unlock()

	for _, cmd := range rest {
		cmd.reply(ErrClosed)
	}
}

// worker holds the state that only the engine goroutine touches.
type worker struct {
	engine  *Engine
	out     Output
	openErr error
	sink    Sink
	volume  float64
}

func (w *worker) play(path string, seq uint64) error {
	if w.sink != nil {
		w.sink.Stop()
		w.sink = nil
	}

	if err := w.start(path, seq); err != nil {
		derr := &DecodeError{Path: path, Err: err}
		logger.Warn("Playback failed",
			logger.String("path", path),
			logger.ErrorField(err))
		w.engine.emit(Event{Kind: EventFailed, Seq: seq, Path: path, Err: derr})
		return derr
	}

	w.engine.emit(Event{Kind: EventStarted, Seq: seq, Path: path})
	return nil
}

func (w *worker) start(path string, seq uint64) error {
	if w.out == nil {
		return w.openErr
	}

	src, err := w.out.Decode(path)
	if err != nil {
		return err
	}

	sink, err := w.out.NewSink()
	if err != nil {
		src.Close()
		return err
	}

	sink.SetVolume(w.volume)
	sink.Append(src)
	sink.Play()
	w.sink = sink

	go func() {
		if sink.Wait() {
			w.engine.emit(Event{Kind: EventFinished, Seq: seq, Path: path})
		}
	}()
	return nil
}

func (w *worker) stop() {
	if w.sink != nil {
		w.sink.Stop()
	}
}

func (w *worker) setVolume(level float64) {
	if level < 0 {
		level = 0
	} else if level > 1 {
		level = 1
	}
	w.volume = level
	if w.sink != nil {
		w.sink.SetVolume(level)
	}
}
