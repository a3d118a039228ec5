package player

import (
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/danfragoso/termpod/internal/audio"
	"github.com/danfragoso/termpod/internal/library"
	"github.com/danfragoso/termpod/internal/queue"
)

type recordingEngine struct {
	sent   []audio.Command
	waited bool
}

func (e *recordingEngine) Send(cmd audio.Command) { e.sent = append(e.sent, cmd) }
func (e *recordingEngine) Wait()                  { e.waited = true }

func (e *recordingEngine) reset() { e.sent = nil }

func (e *recordingEngine) last() audio.Command {
	if len(e.sent) == 0 {
		return audio.Command{Kind: -1}
	}
	return e.sent[len(e.sent)-1]
}

func noTags(string) (library.Metadata, error) { return library.Metadata{}, nil }

// writeFiles creates empty files under dir and returns dir.
func writeFiles(t *testing.T, dir string, names ...string) string {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func newController(t *testing.T, names ...string) (*Controller, *recordingEngine, string) {
	t.Helper()
	dir := writeFiles(t, t.TempDir(), names...)

	lib := library.NewIndex(library.WithMetadataReader(noTags))
	if len(names) > 0 {
		if err := lib.Scan([]string{dir}); err != nil {
			t.Fatalf("scan: %v", err)
		}
	}

	eng := &recordingEngine{}
	c := New(lib, eng, WithRand(rand.New(rand.NewSource(1))))
	eng.reset()
	return c, eng, dir
}

func threeTracks(t *testing.T) (*Controller, *recordingEngine, string) {
	return newController(t, "A - One.mp3", "B - Two.mp3", "C - Three.mp3")
}

func TestNewSendsStartingVolume(t *testing.T) {
	eng := &recordingEngine{}
	New(library.NewIndex(), eng, WithVolume(0.4))

	if len(eng.sent) != 1 || eng.sent[0].Kind != audio.CmdSetVolume || eng.sent[0].Level != 0.4 {
		t.Errorf("expected initial SetVolume(0.4), got %+v", eng.sent)
	}
}

func TestEmptyLibraryIsSafe(t *testing.T) {
	c, eng, _ := newController(t)

	c.PlayCurrent()
	c.Next()
	c.Previous()
	c.Shuffle()

	if c.Playing() {
		t.Error("expected playing to stay false")
	}
	for _, cmd := range eng.sent {
		if cmd.Kind == audio.CmdPlay {
			t.Errorf("unexpected play command %+v", cmd)
		}
	}
	if c.CurrentIndex() != -1 {
		t.Errorf("expected no current track, got %d", c.CurrentIndex())
	}
}

func TestPlayCurrent(t *testing.T) {
	c, eng, dir := threeTracks(t)

	c.PlayCurrent()
	if !c.Playing() {
		t.Error("expected playing")
	}
	cmd := eng.last()
	if cmd.Kind != audio.CmdPlay || cmd.Path != filepath.Join(dir, "A - One.mp3") {
		t.Errorf("unexpected command %+v", cmd)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	c, eng, _ := threeTracks(t)

	c.PlayCurrent()
	c.Stop()
	c.Stop()

	if c.Playing() {
		t.Error("expected stopped")
	}
	if eng.last().Kind != audio.CmdStop {
		t.Errorf("expected stop command, got %s", eng.last().Kind)
	}
}

func TestNextPreviousWrap(t *testing.T) {
	c, _, _ := threeTracks(t)

	c.current = 2
	c.Next()
	if c.CurrentIndex() != 0 {
		t.Errorf("next from last: got %d, want 0", c.CurrentIndex())
	}
	c.Previous()
	if c.CurrentIndex() != 2 {
		t.Errorf("previous from first: got %d, want 2", c.CurrentIndex())
	}
}

func TestNextPreviousAreInverses(t *testing.T) {
	c, _, _ := threeTracks(t)

	for i := 0; i < 3; i++ {
		c.current = i
		c.Next()
		c.Previous()
		if c.CurrentIndex() != i {
			t.Errorf("previous(next(%d)) = %d", i, c.CurrentIndex())
		}

		c.Previous()
		c.Next()
		if c.CurrentIndex() != i {
			t.Errorf("next(previous(%d)) = %d", i, c.CurrentIndex())
		}
	}
}

func TestNextWhilePlayingRestarts(t *testing.T) {
	c, eng, dir := threeTracks(t)

	c.PlayCurrent()
	c.Next()

	cmd := eng.last()
	if cmd.Kind != audio.CmdPlay || cmd.Path != filepath.Join(dir, "B - Two.mp3") {
		t.Errorf("expected play of second track, got %+v", cmd)
	}
}

func TestNextWhileStoppedSendsNothing(t *testing.T) {
	c, eng, _ := threeTracks(t)

	c.Next()
	c.Previous()
	if len(eng.sent) != 0 {
		t.Errorf("expected no commands, got %+v", eng.sent)
	}
}

func TestSetVolumeClamps(t *testing.T) {
	c, eng, _ := threeTracks(t)

	for i := 0; i < 3; i++ {
		c.SetVolume(1.0)
		if c.Volume() > 1.0 {
			t.Fatalf("volume exceeded 1: %v", c.Volume())
		}
	}
	if c.Volume() != 1.0 {
		t.Errorf("expected 1.0, got %v", c.Volume())
	}

	for i := 0; i < 3; i++ {
		c.SetVolume(-1.0)
		if c.Volume() < 0 {
			t.Fatalf("volume below 0: %v", c.Volume())
		}
	}
	if c.Volume() != 0 {
		t.Errorf("expected 0, got %v", c.Volume())
	}

	if len(eng.sent) != 6 {
		t.Errorf("expected a SetVolume per call, got %d commands", len(eng.sent))
	}
	for _, cmd := range eng.sent {
		if cmd.Kind != audio.CmdSetVolume {
			t.Errorf("unexpected command %s", cmd.Kind)
		}
	}
}

func TestAddToQueueOutOfRange(t *testing.T) {
	c, _, _ := threeTracks(t)

	c.AddToQueue(1)
	for _, pos := range []int{-1, 3, 100} {
		if c.AddToQueue(pos) {
			t.Errorf("position %d should be rejected", pos)
		}
	}
	if got := len(c.Snapshot().Queue); got != 1 {
		t.Errorf("queue length changed: got %d, want 1", got)
	}
}

func TestNextConsumesQueueFront(t *testing.T) {
	c, _, _ := threeTracks(t)

	c.AddToQueue(2)
	c.AddToQueue(1)
	c.Next()

	if c.CurrentIndex() != 2 {
		t.Errorf("expected queued position 2, got %d", c.CurrentIndex())
	}
	snap := c.Snapshot()
	if len(snap.Queue) != 1 || snap.Queue[0].Title != "Two" {
		t.Errorf("expected only the second entry left, got %v", snap.Queue)
	}

	c.Next()
	if c.CurrentIndex() != 1 {
		t.Errorf("expected queued position 1, got %d", c.CurrentIndex())
	}
	c.Next()
	if c.CurrentIndex() != 2 {
		t.Errorf("expected linear advance to 2, got %d", c.CurrentIndex())
	}
}

func TestShuffleScenario(t *testing.T) {
	c, _, dir := newController(t, "B - Song1.mp3", "A - Song2.mp3")
	original := map[string]bool{
		filepath.Join(dir, "B - Song1.mp3"): true,
		filepath.Join(dir, "A - Song2.mp3"): true,
	}

	c.current = 1
	c.Shuffle()

	if c.CurrentIndex() != 0 {
		t.Errorf("expected current 0, got %d", c.CurrentIndex())
	}
	if !original[c.Current().Path] {
		t.Errorf("unexpected track at 0: %s", c.Current().Path)
	}
	if c.Library().Len() != 2 {
		t.Errorf("shuffle changed library size to %d", c.Library().Len())
	}
}

func TestShuffleWhilePlayingRestartsAtZero(t *testing.T) {
	c, eng, _ := threeTracks(t)

	c.PlayCurrent()
	c.Shuffle()

	cmd := eng.last()
	if cmd.Kind != audio.CmdPlay || cmd.Path != c.Library().Track(0).Path {
		t.Errorf("expected play of new first track, got %+v", cmd)
	}
}

func TestQueueSurvivesShuffle(t *testing.T) {
	c, _, _ := threeTracks(t)

	c.AddToQueue(2)
	queued := c.Library().Track(2).Path
	c.Shuffle()
	c.Next()

	if c.Current().Path != queued {
		t.Errorf("expected queued track %s, got %s", queued, c.Current().Path)
	}
}

func TestSelect(t *testing.T) {
	c, eng, _ := threeTracks(t)

	if err := c.Select(5); !errors.Is(err, library.ErrIndex) {
		t.Errorf("expected ErrIndex, got %v", err)
	}
	if err := c.Select(1); err != nil {
		t.Fatalf("select: %v", err)
	}
	if c.CurrentIndex() != 1 || !c.Playing() {
		t.Errorf("expected playing position 1, got %d playing=%v", c.CurrentIndex(), c.Playing())
	}
	if eng.last().Path != c.Current().Path {
		t.Error("select should play the selected track")
	}
}

func TestRemoveFromQueue(t *testing.T) {
	c, _, _ := threeTracks(t)
	c.AddToQueue(0)
	c.AddToQueue(1)

	if err := c.RemoveFromQueue(4); !errors.Is(err, queue.ErrIndex) {
		t.Errorf("expected queue.ErrIndex, got %v", err)
	}
	if err := c.RemoveFromQueue(0); err != nil {
		t.Fatal(err)
	}
	snap := c.Snapshot()
	if len(snap.Queue) != 1 || snap.Queue[0].Title != "Two" {
		t.Errorf("unexpected queue %v", snap.Queue)
	}

	c.ClearQueue()
	if len(c.Snapshot().Queue) != 0 {
		t.Error("expected empty queue")
	}
}

func TestRemoveDirectoryStopsWhenCurrentGone(t *testing.T) {
	c, eng, _ := threeTracks(t)
	other := writeFiles(t, t.TempDir(), "D - Four.mp3")
	if err := c.AddDirectory(other); err != nil {
		t.Fatal(err)
	}

	c.AddToQueue(0)
	c.AddToQueue(3)
	c.PlayCurrent()
	eng.reset()

	if err := c.RemoveDirectory(0); err != nil {
		t.Fatal(err)
	}

	if c.Playing() {
		t.Error("expected playback to stop")
	}
	if eng.last().Kind != audio.CmdStop {
		t.Errorf("expected stop command, got %+v", eng.sent)
	}
	if c.CurrentIndex() != 0 {
		t.Errorf("expected cursor clamped to 0, got %d", c.CurrentIndex())
	}
	snap := c.Snapshot()
	if len(snap.Queue) != 1 || snap.Queue[0].Title != "Four" {
		t.Errorf("expected only the surviving queued track, got %v", snap.Queue)
	}
}

func TestRemoveDirectoryKeepsCurrentTrack(t *testing.T) {
	first := writeFiles(t, t.TempDir(), "A - One.mp3", "B - Two.mp3")
	second := writeFiles(t, t.TempDir(), "C - Three.mp3")

	lib := library.NewIndex(library.WithMetadataReader(noTags))
	if err := lib.Scan([]string{first, second}); err != nil {
		t.Fatal(err)
	}
	eng := &recordingEngine{}
	c := New(lib, eng)

	if err := c.Select(2); err != nil {
		t.Fatal(err)
	}
	eng.reset()

	if err := c.RemoveDirectory(0); err != nil {
		t.Fatal(err)
	}
	if !c.Playing() {
		t.Error("playback should continue")
	}
	if c.CurrentIndex() != 0 || c.Current().Title != "Three" {
		t.Errorf("cursor should follow the playing track, got %d", c.CurrentIndex())
	}
	if len(eng.sent) != 0 {
		t.Errorf("expected no commands, got %+v", eng.sent)
	}
}

func TestRemoveDirectoryBadIndex(t *testing.T) {
	c, _, _ := threeTracks(t)
	if err := c.RemoveDirectory(3); !errors.Is(err, library.ErrIndex) {
		t.Errorf("expected ErrIndex, got %v", err)
	}
	if c.Library().Len() != 3 {
		t.Error("library should be unchanged")
	}
}

func TestHandleEvent(t *testing.T) {
	t.Run("finished advances", func(t *testing.T) {
		c, eng, _ := threeTracks(t)
		c.PlayCurrent()
		seq := eng.last().Seq

		if err := c.HandleEvent(audio.Event{Kind: audio.EventFinished, Seq: seq}); err != nil {
			t.Fatal(err)
		}
		if c.CurrentIndex() != 1 || !c.Playing() {
			t.Errorf("expected playing position 1, got %d", c.CurrentIndex())
		}
		if eng.last().Seq == seq {
			t.Error("expected a new play command")
		}
	})

	t.Run("stale event ignored", func(t *testing.T) {
		c, eng, _ := threeTracks(t)
		c.PlayCurrent()
		old := eng.last().Seq
		c.Next()

		c.HandleEvent(audio.Event{Kind: audio.EventFinished, Seq: old})
		if c.CurrentIndex() != 1 {
			t.Errorf("stale event moved the cursor to %d", c.CurrentIndex())
		}
	})

	t.Run("finished after stop", func(t *testing.T) {
		c, eng, _ := threeTracks(t)
		c.PlayCurrent()
		seq := eng.last().Seq
		c.Stop()

		c.HandleEvent(audio.Event{Kind: audio.EventFinished, Seq: seq})
		if c.CurrentIndex() != 0 || c.Playing() {
			t.Error("stopped player should not advance")
		}
	})

	t.Run("failure surfaces", func(t *testing.T) {
		c, eng, _ := threeTracks(t)
		c.PlayCurrent()
		cmd := eng.last()

		derr := &audio.DecodeError{Path: cmd.Path, Err: errors.New("bad header")}
		err := c.HandleEvent(audio.Event{Kind: audio.EventFailed, Seq: cmd.Seq, Err: derr})

		var got *audio.DecodeError
		if !errors.As(err, &got) {
			t.Fatalf("expected DecodeError, got %v", err)
		}
		if c.Playing() {
			t.Error("failure should clear playing")
		}
	})
}

func TestEnqueuePlaylist(t *testing.T) {
	c, _, dir := threeTracks(t)

	m3u := filepath.Join(dir, "mix.m3u")
	content := "#EXTM3U\nC - Three.mp3\n/elsewhere/missing.mp3\nA - One.mp3\n"
	if err := os.WriteFile(m3u, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	n, err := c.EnqueuePlaylist(m3u)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("expected 2 queued, got %d", n)
	}
	snap := c.Snapshot()
	if len(snap.Queue) != 2 || snap.Queue[0].Title != "Three" || snap.Queue[1].Title != "One" {
		t.Errorf("unexpected queue %v", snap.Queue)
	}

	if _, err := c.EnqueuePlaylist(filepath.Join(dir, "nope.m3u")); err == nil {
		t.Error("expected error for missing playlist")
	}
}

func TestSnapshot(t *testing.T) {
	c, _, dir := threeTracks(t)
	c.PlayCurrent()
	c.SetVolume(-0.5)

	snap := c.Snapshot()
	if len(snap.Tracks) != 3 || len(snap.Dirs) != 1 || snap.Dirs[0] != dir {
		t.Errorf("unexpected snapshot %+v", snap)
	}
	if snap.Current != 0 || !snap.Playing || snap.Volume != 0.5 {
		t.Errorf("unexpected state %+v", snap)
	}

	snap.Tracks[0] = nil
	if c.Library().Track(0) == nil {
		t.Error("snapshot shares the library slice")
	}
}

func TestShutdownWaits(t *testing.T) {
	c, eng, _ := threeTracks(t)
	c.Shutdown()

	if eng.last().Kind != audio.CmdShutdown || !eng.waited {
		t.Error("expected shutdown command and wait")
	}
}

func TestQueued(t *testing.T) {
	c, _, _ := threeTracks(t)

	c.AddToQueue(1)
	if !c.Queued(1) || c.Queued(0) || c.Queued(7) {
		t.Error("only position 1 should be queued")
	}
	c.Next()
	if c.Queued(1) {
		t.Error("consumed entry should no longer be queued")
	}
}

func TestEnqueuePlaylistAgainstRelativeLibrary(t *testing.T) {
	root, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	writeFiles(t, filepath.Join(root, "Music"), "A - One.mp3", "B - Two.mp3")
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(root); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(prev) })

	lib := library.NewIndex(library.WithMetadataReader(noTags))
	if err := lib.Scan([]string{"Music"}); err != nil {
		t.Fatal(err)
	}
	c := New(lib, &recordingEngine{})

	m3u := filepath.Join(root, "Music", "mix.m3u")
	if err := os.WriteFile(m3u, []byte("B - Two.mp3\n"), 0644); err != nil {
		t.Fatal(err)
	}
	n, err := c.EnqueuePlaylist(m3u)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 || !c.Queued(1) {
		t.Errorf("expected the playlist entry queued, got %d", n)
	}
	if err := c.AddDirectory(filepath.Join(root, "Music")); !errors.Is(err, library.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}
