package queue

import (
	"errors"
	"testing"
)

func TestDequeueOrderIsFIFO(t *testing.T) {
	q := New()
	q.Enqueue("/m/a.mp3")
	q.Enqueue("/m/b.mp3")
	q.Enqueue("/m/c.mp3")

	want := []string{"/m/a.mp3", "/m/b.mp3", "/m/c.mp3"}
	for i, w := range want {
		got, ok := q.DequeueOr("fallback")
		if !ok {
			t.Fatalf("dequeue %d: expected an entry", i)
		}
		if got != w {
			t.Errorf("dequeue %d: got %q, want %q", i, got, w)
		}
	}
	if q.Len() != 0 {
		t.Errorf("expected empty queue, got len %d", q.Len())
	}
}

func TestDequeueOrFallback(t *testing.T) {
	q := New()
	got, ok := q.DequeueOr("/m/next.mp3")
	if ok {
		t.Error("expected ok=false on empty queue")
	}
	if got != "/m/next.mp3" {
		t.Errorf("got %q, want fallback", got)
	}
}

func TestDequeueConsumesExactlyFront(t *testing.T) {
	q := New()
	q.Enqueue("a")
	q.Enqueue("b")

	q.DequeueOr("")
	items := q.Items()
	if len(items) != 1 || items[0] != "b" {
		t.Errorf("expected [b], got %v", items)
	}
}

func TestRemoveAt(t *testing.T) {
	tests := []struct {
		name    string
		index   int
		want    []string
		wantErr bool
	}{
		{"front", 0, []string{"b", "c"}, false},
		{"middle", 1, []string{"a", "c"}, false},
		{"back", 2, []string{"a", "b"}, false},
		{"negative", -1, []string{"a", "b", "c"}, true},
		{"past end", 3, []string{"a", "b", "c"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := New()
			for _, p := range []string{"a", "b", "c"} {
				q.Enqueue(p)
			}

			err := q.RemoveAt(tt.index)
			if tt.wantErr {
				if !errors.Is(err, ErrIndex) {
					t.Errorf("expected ErrIndex, got %v", err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			got := q.Items()
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("item %d: got %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestRetain(t *testing.T) {
	q := New()
	for _, p := range []string{"a", "b", "a", "c"} {
		q.Enqueue(p)
	}

	dropped := q.Retain(func(p string) bool { return p != "a" })
	if dropped != 2 {
		t.Errorf("expected 2 dropped, got %d", dropped)
	}
	got := q.Items()
	if len(got) != 2 || got[0] != "b" || got[1] != "c" {
		t.Errorf("expected [b c], got %v", got)
	}
}

func TestItemsIsACopy(t *testing.T) {
	q := New()
	q.Enqueue("a")
	items := q.Items()
	items[0] = "z"
	if q.Items()[0] != "a" {
		t.Error("modifying Items() result changed the queue")
	}
}

func TestClearAndContains(t *testing.T) {
	q := New()
	q.Enqueue("a")
	if !q.Contains("a") {
		t.Error("expected queue to contain a")
	}
	q.Clear()
	if q.Len() != 0 || q.Contains("a") {
		t.Error("expected empty queue after Clear")
	}
}
