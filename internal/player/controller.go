package player

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/danfragoso/termpod/internal/audio"
	"github.com/danfragoso/termpod/internal/library"
	"github.com/danfragoso/termpod/internal/queue"
	"github.com/danfragoso/termpod/logger"
)

// Engine accepts audio commands without blocking.
type Engine interface {
	Send(cmd audio.Command)
	Wait()
}

// Controller is the playback state machine. It owns the library index and
// the queue and is the only place that issues audio commands. It is driven
// from a single goroutine.
type Controller struct {
	lib    *library.Index
	queue  *queue.Queue
	engine Engine
	rng    *rand.Rand

	current int
	playing bool
	volume  float64
	seq     uint64
}

type Option func(*Controller)

// WithRand sets the source used by Shuffle.
func WithRand(r *rand.Rand) Option {
	return func(c *Controller) {
		c.rng = r
	}
}

// WithVolume sets the starting volume.
func WithVolume(v float64) Option {
	return func(c *Controller) {
		c.volume = clamp(v)
	}
}

// New builds a controller over lib and pushes the starting volume to the
// engine.
func New(lib *library.Index, engine Engine, opts ...Option) *Controller {
	c := &Controller{
		lib:    lib,
		queue:  queue.New(),
		engine: engine,
		volume: 1,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	c.engine.Send(audio.SetVolume(c.volume))
	return c
}

func (c *Controller) Library() *library.Index { return c.lib }

func (c *Controller) Playing() bool { return c.playing }

func (c *Controller) Volume() float64 { return c.volume }

// CurrentIndex returns the cursor position, or -1 with an empty library.
func (c *Controller) CurrentIndex() int {
	if c.lib.Len() == 0 {
		return -1
	}
	return c.current
}

// Current returns the track under the cursor, or nil.
func (c *Controller) Current() *library.Track {
	return c.lib.Track(c.current)
}

// PlayCurrent starts the track under the cursor. It does nothing with an
// empty library.
func (c *Controller) PlayCurrent() {
	track := c.lib.Track(c.current)
	if track == nil {
		return
	}

	c.seq++
	c.engine.Send(audio.Play(track.Path, c.seq))
	c.playing = true

	logger.Info("Playing track",
		logger.String("title", track.Title),
		logger.String("artist", track.Artist),
		logger.Int("position", c.current))
}

// Stop halts playback. Calling it while stopped is harmless.
func (c *Controller) Stop() {
	c.engine.Send(audio.Stop())
	c.playing = false
}

// Next moves to the front of the queue, or one track forward wrapping at
// the end. Queued tracks no longer in the library are skipped.
func (c *Controller) Next() {
	n := c.lib.Len()
	if n == 0 {
		return
	}

	if pos, ok := c.dequeue(); ok {
		c.current = pos
	} else {
		c.current = (c.current + 1) % n
	}

	if c.playing {
		c.PlayCurrent()
	}
}

func (c *Controller) dequeue() (int, bool) {
	for {
		path, ok := c.queue.DequeueOr("")
		if !ok {
			return 0, false
		}
		if pos := c.lib.Position(path); pos >= 0 {
			return pos, true
		}
		logger.Debug("Skipping queued track no longer in library", logger.String("path", path))
	}
}

// Previous moves one track back, wrapping to the last track.
func (c *Controller) Previous() {
	n := c.lib.Len()
	if n == 0 {
		return
	}

	if c.current > 0 {
		c.current--
	} else {
		c.current = n - 1
	}

	if c.playing {
		c.PlayCurrent()
	}
}

// Select moves the cursor to position and plays it.
func (c *Controller) Select(position int) error {
	if position < 0 || position >= c.lib.Len() {
		return fmt.Errorf("track %d: %w", position, library.ErrIndex)
	}
	c.current = position
	c.PlayCurrent()
	return nil
}

// SetVolume changes the volume by delta, clamped to [0,1]. The level is
// always sent so a later Play picks it up.
func (c *Controller) SetVolume(delta float64) {
	c.volume = clamp(c.volume + delta)
	c.engine.Send(audio.SetVolume(c.volume))
	logger.Debug("Volume changed", logger.Float64("volume", c.volume))
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Shuffle permutes the library and resets the cursor to the first track.
// Queued tracks are kept by identity and stay queued.
func (c *Controller) Shuffle() {
	c.lib.Shuffle(c.rng)
	c.current = 0
	logger.Debug("Library shuffled", logger.Int("tracks", c.lib.Len()))

	if c.playing {
		c.PlayCurrent()
	}
}

// AddToQueue queues the track at position. Out of range positions are
// dropped; the return value reports whether anything was queued.
func (c *Controller) AddToQueue(position int) bool {
	track := c.lib.Track(position)
	if track == nil {
		return false
	}
	c.queue.Enqueue(track.Path)
	return true
}

// RemoveFromQueue drops the i-th pending entry.
func (c *Controller) RemoveFromQueue(i int) error {
	return c.queue.RemoveAt(i)
}

func (c *Controller) ClearQueue() {
	c.queue.Clear()
}

// Queued reports whether the track at position is waiting in the queue.
func (c *Controller) Queued(position int) bool {
	track := c.lib.Track(position)
	return track != nil && c.queue.Contains(track.Path)
}

// EnqueuePlaylist queues every playlist entry that is in the library and
// returns how many were queued.
func (c *Controller) EnqueuePlaylist(path string) (int, error) {
	paths, err := library.ReadPlaylist(path)
	if err != nil {
		return 0, err
	}

	queued := 0
	for _, p := range paths {
		if c.lib.Position(p) < 0 {
			logger.Debug("Playlist entry not in library", logger.String("path", p))
			continue
		}
		c.queue.Enqueue(p)
		queued++
	}
	return queued, nil
}

func (c *Controller) AddDirectory(dir string) error {
	return c.mutate(func() error {
		return c.lib.AddDirectory(dir)
	})
}

func (c *Controller) RemoveDirectory(i int) error {
	return c.mutate(func() error {
		return c.lib.RemoveDirectory(i)
	})
}

func (c *Controller) RefreshDirectory(i int) error {
	return c.mutate(func() error {
		return c.lib.RefreshDirectory(i)
	})
}

// mutate runs a library change and then re-points the cursor at the track
// it was on. If that track is gone the cursor is clamped and playback
// stops. Queue entries for vanished tracks are dropped.
func (c *Controller) mutate(change func() error) error {
	var prev string
	if t := c.lib.Track(c.current); t != nil {
		prev = t.Path
	}

	err := change()

	if pos := c.lib.Position(prev); prev != "" && pos >= 0 {
		c.current = pos
	} else {
		if c.current >= c.lib.Len() {
			c.current = max(c.lib.Len()-1, 0)
		}
		if prev != "" && c.playing {
			c.Stop()
		}
	}

	if dropped := c.queue.Retain(func(path string) bool {
		return c.lib.Position(path) >= 0
	}); dropped > 0 {
		logger.Debug("Dropped queued tracks after library change", logger.Int("count", dropped))
	}
	return err
}

// HandleEvent applies engine feedback. Events from superseded Play commands
// are ignored. A failure stops playback and is returned for display; a
// natural end advances to the next track.
func (c *Controller) HandleEvent(ev audio.Event) error {
	if ev.Seq != c.seq {
		return nil
	}

	switch ev.Kind {
	case audio.EventFailed:
		c.playing = false
		return ev.Err
	case audio.EventFinished:
		if c.playing {
			c.Next()
		}
	}
	return nil
}

// Shutdown stops the engine and waits for its worker to exit.
func (c *Controller) Shutdown() {
	c.engine.Send(audio.Shutdown())
	c.engine.Wait()
}

// Snapshot is a read-only view of the player for rendering.
type Snapshot struct {
	Tracks  []*library.Track
	Dirs    []string
	Current int // -1 with an empty library
	Playing bool
	Volume  float64
	Queue   []*library.Track
}

func (c *Controller) Snapshot() Snapshot {
	tracks := c.lib.Tracks()
	snap := Snapshot{
		Tracks:  append([]*library.Track(nil), tracks...),
		Dirs:    append([]string(nil), c.lib.Dirs()...),
		Current: c.CurrentIndex(),
		Playing: c.playing,
		Volume:  c.volume,
	}

	for _, path := range c.queue.Items() {
		if pos := c.lib.Position(path); pos >= 0 {
			snap.Queue = append(snap.Queue, tracks[pos])
		}
	}
	return snap
}
