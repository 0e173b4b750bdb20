package gateway

import (
	"fmt"
	"sync"
	"testing"
)

func TestQueueFIFO(t *testing.T) {
	q := NewQueue()

	m1 := q.Push("m1")
	m2 := q.Push("m2")
	if m1.ID == m2.ID {
		t.Fatalf("messages share id %s", m1.ID)
	}
	if q.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", q.Len())
	}

	for _, want := range []string{"m1", "m2"} {
		got, ok := q.PopNonBlocking()
		if !ok {
			t.Fatalf("PopNonBlocking: empty, want %q", want)
		}
		if got.Body != want {
			t.Errorf("PopNonBlocking = %q, want %q", got.Body, want)
		}
	}

	if _, ok := q.PopNonBlocking(); ok {
		t.Error("PopNonBlocking on drained queue returned a message")
	}
}

func TestQueueConcurrentProducers(t *testing.T) {
	q := NewQueue()
	const producers, perProducer = 8, 200

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Go(func() {
			for i := 0; i < perProducer; i++ {
				q.Push(fmt.Sprintf("%d:%d", p, i))
			}
		})
	}

	// Single consumer drains while producers run.
	lastSeen := make(map[int]int)
	for p := 0; p < producers; p++ {
		lastSeen[p] = -1
	}
	total := 0
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	drain := func() {
		for {
			msg, ok := q.PopNonBlocking()
			if !ok {
				return
			}
			var p, i int
			if _, err := fmt.Sscanf(msg.Body, "%d:%d", &p, &i); err != nil {
				t.Fatalf("bad message %q: %v", msg.Body, err)
			}
			if i <= lastSeen[p] {
				t.Fatalf("producer %d: saw %d after %d", p, i, lastSeen[p])
			}
			lastSeen[p] = i
			total++
		}
	}

	for running := true; running; {
		select {
		case <-done:
			running = false
		default:
		}
		drain()
	}

	if total != producers*perProducer {
		t.Errorf("consumed %d messages, want %d", total, producers*perProducer)
	}
}

func TestResultSlotEmptyTakeIsIdempotent(t *testing.T) {
	r := NewResultSlot()

	for i := 0; i < 2; i++ {
		if v, ok := r.Take(); ok {
			t.Errorf("Take #%d on empty slot = %q, true", i+1, v)
		}
	}
}

func TestResultSlotSetTake(t *testing.T) {
	r := NewResultSlot()

	r.Set("x")
	if !r.Pending() {
		t.Error("Pending() = false after Set")
	}
	v, ok := r.Take()
	if !ok || v != "x" {
		t.Errorf("Take = %q, %v; want %q, true", v, ok, "x")
	}
	if _, ok := r.Take(); ok {
		t.Error("second Take returned a value")
	}
}

func TestResultSlotOverwrite(t *testing.T) {
	r := NewResultSlot()

	r.Set("old")
	r.Set("new")
	v, _ := r.Take()
	if v != "new" {
		t.Errorf("Take = %q, want %q", v, "new")
	}
}

func TestResultSlotEmptyStringIsAResult(t *testing.T) {
	r := NewResultSlot()

	r.Set("")
	v, ok := r.Take()
	if !ok || v != "" {
		t.Errorf("Take = %q, %v; want \"\", true", v, ok)
	}
}

func TestResultSlotClear(t *testing.T) {
	r := NewResultSlot()

	if r.Clear() {
		t.Error("Clear on empty slot reported a discard")
	}
	r.Set("stale")
	if !r.Clear() {
		t.Error("Clear did not report discarding the stale value")
	}
	if _, ok := r.Take(); ok {
		t.Error("Take after Clear returned a value")
	}
}

func TestResultSlotConcurrentAccess(t *testing.T) {
	r := NewResultSlot()

	var wg sync.WaitGroup
	var mu sync.Mutex
	taken := 0
	for i := 0; i < 100; i++ {
		wg.Go(func() { r.Set(fmt.Sprint(i)) })
		wg.Go(func() {
			if _, ok := r.Take(); ok {
				mu.Lock()
				taken++
				mu.Unlock()
			}
		})
		wg.Go(func() { r.Clear() })
	}
	wg.Wait()

	if taken > 100 {
		t.Errorf("took %d results from 100 sets", taken)
	}
}

func TestGatewayCallClearsStaleResult(t *testing.T) {
	g := New()

	g.SetResult("stale")
	msg := g.Call("ping")

	if _, ok := g.TakeResult(); ok {
		t.Error("stale result survived a new call")
	}
	head, ok := g.Queue().PopNonBlocking()
	if !ok || head.ID != msg.ID || head.Body != "ping" {
		t.Errorf("queue head = %+v, want %+v", head, msg)
	}
}

func TestGatewayResultAfterCallIsKept(t *testing.T) {
	g := New()

	g.Call("ping")
	g.SetResult("pong")

	v, ok := g.TakeResult()
	if !ok || v != "pong" {
		t.Errorf("TakeResult = %q, %v; want %q, true", v, ok, "pong")
	}
}
