package queue

import (
	"sync"
	"testing"
)

type ref struct {
	Owner int
	Slot  int
}

func TestQueue_New(t *testing.T) {
	q := New[ref]()
	if q == nil {
		t.Fatal("expected non-nil queue")
	}
	if !q.Empty() {
		t.Error("expected empty queue")
	}
}

func TestQueue_PushKeepsOrder(t *testing.T) {
	q := New[ref]()
	if !q.Empty() {
		t.Error("new queue should be empty")
	}

	q.Push(ref{Owner: 0, Slot: 0}, ref{Owner: 1, Slot: 0})
	q.Push(ref{Owner: 2, Slot: 0})

	items := q.Items()
	if len(items) != 3 || items[0].Owner != 0 || items[2].Owner != 2 {
		t.Errorf("unexpected items: %+v", items)
	}
}

func TestQueue_ItemsIsACopy(t *testing.T) {
	q := New[ref]()
	q.Push(ref{Owner: 0, Slot: 1})

	items := q.Items()
	items[0].Slot = 99

	if got := q.Items()[0].Slot; got != 1 {
		t.Errorf("mutating the copy changed the queue: slot=%d", got)
	}
}

func TestQueue_Filter(t *testing.T) {
	q := New[ref]()
	q.Push(ref{0, 0}, ref{1, 0}, ref{0, 1}, ref{1, 1})

	got := q.Filter(func(r ref) bool { return r.Owner == 1 })
	if len(got) != 2 || got[0].Slot != 0 || got[1].Slot != 1 {
		t.Errorf("unexpected filter result: %+v", got)
	}
	if q.Len() != 4 {
		t.Errorf("filter must not remove, len=%d", q.Len())
	}
}

func TestQueue_RemoveFunc(t *testing.T) {
	q := New[ref]()
	q.Push(ref{0, 0}, ref{1, 0}, ref{0, 1}, ref{1, 1}, ref{0, 2})

	removed := q.RemoveFunc(func(r ref) bool { return r.Owner == 0 })
	if removed != 3 {
		t.Errorf("expected 3 removed, got %d", removed)
	}

	items := q.Items()
	if len(items) != 2 {
		t.Fatalf("expected 2 left, got %d", len(items))
	}
	for _, it := range items {
		if it.Owner != 1 {
			t.Errorf("unexpected survivor %+v", it)
		}
	}

	if n := q.RemoveFunc(func(ref) bool { return false }); n != 0 {
		t.Errorf("expected nothing removed, got %d", n)
	}
}

func TestQueue_ConcurrentPushAndRemove(t *testing.T) {
	q := New[ref]()
	var wg sync.WaitGroup

	for owner := 0; owner < 4; owner++ {
		wg.Add(1)
		go func(owner int) {
			defer wg.Done()
			for slot := 0; slot < 100; slot++ {
				q.Push(ref{Owner: owner, Slot: slot})
			}
		}(owner)
	}
	wg.Wait()

	if q.Len() != 400 {
		t.Fatalf("expected 400 items, got %d", q.Len())
	}

	for owner := 0; owner < 4; owner++ {
		wg.Add(1)
		go func(owner int) {
			defer wg.Done()
			q.RemoveFunc(func(r ref) bool { return r.Owner == owner })
		}(owner)
	}
	wg.Wait()

	if !q.Empty() {
		t.Errorf("expected empty queue, got %d", q.Len())
	}
}
