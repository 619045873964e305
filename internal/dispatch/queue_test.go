package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/keysender/keysender/pkg/logger"
)

func closeQueue(t *testing.T, q *Queue) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := q.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestQueue_RunsInOrder(t *testing.T) {
	q := NewQueue(logger.NewNopLogger())
	var got []int
	for i := 0; i < 100; i++ {
		i := i
		q.Add(func() { got = append(got, i) })
	}
	closeQueue(t, q)

	if len(got) != 100 {
		t.Fatalf("expected 100 callbacks, got %d", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("callback %d ran at position %d", v, i)
		}
	}
}

func TestQueue_ConcurrentProducersKeepSubmissionOrder(t *testing.T) {
	q := NewQueue(logger.NewNopLogger())

	// Each producer records its sequence under the same lock it holds while
	// calling Add, so the record order is the submission order.
	var (
		mu        sync.Mutex
		submitted []int
		ran       []int
		next      int
		wg        sync.WaitGroup
	)
	for p := 0; p < 8; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				mu.Lock()
				n := next
				next++
				submitted = append(submitted, n)
				q.Add(func() { ran = append(ran, n) })
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	closeQueue(t, q)

	if len(ran) != len(submitted) {
		t.Fatalf("expected %d callbacks, got %d", len(submitted), len(ran))
	}
	for i := range submitted {
		if ran[i] != submitted[i] {
			t.Fatalf("position %d: submitted %d, ran %d", i, submitted[i], ran[i])
		}
	}
}

func TestQueue_PanicDoesNotStopWorker(t *testing.T) {
	log := logger.NewMockLogger()
	q := NewQueue(log)

	var ran []string
	q.Add(func() { ran = append(ran, "first") })
	q.Add(func() { panic("observer broke") })
	q.Add(func() { ran = append(ran, "third") })
	closeQueue(t, q)

	if len(ran) != 2 || ran[0] != "first" || ran[1] != "third" {
		t.Errorf("unexpected callbacks run: %v", ran)
	}
	st := q.Stats()
	if st.Processed != 3 {
		t.Errorf("expected 3 processed, got %d", st.Processed)
	}
	if st.Panicked != 1 {
		t.Errorf("expected 1 panicked, got %d", st.Panicked)
	}
	if len(log.ErrorCalls()) != 1 {
		t.Errorf("expected panic to be logged once, got %d", len(log.ErrorCalls()))
	}
}

func TestQueue_AddDoesNotBlockOnSlowCallback(t *testing.T) {
	q := NewQueue(logger.NewNopLogger())
	release := make(chan struct{})
	q.Add(func() { <-release })

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			q.Add(func() {})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Add blocked behind a slow callback")
	}
	close(release)
	closeQueue(t, q)
	if st := q.Stats(); st.Processed != 1001 {
		t.Errorf("expected 1001 processed, got %d", st.Processed)
	}
}

func TestQueue_AddAfterCloseIsDropped(t *testing.T) {
	log := logger.NewMockLogger()
	q := NewQueue(log)
	closeQueue(t, q)

	called := false
	q.Add(func() { called = true })
	time.Sleep(10 * time.Millisecond)

	if called {
		t.Error("callback added after Close should not run")
	}
	if st := q.Stats(); st.Dropped != 1 {
		t.Errorf("expected 1 dropped, got %d", st.Dropped)
	}
	if len(log.WarningCalls()) != 1 {
		t.Errorf("expected a warning for the dropped callback")
	}
}

func TestQueue_CloseHonorsContext(t *testing.T) {
	q := NewQueue(logger.NewNopLogger())
	release := make(chan struct{})
	q.Add(func() { <-release })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := q.Close(ctx); err != context.DeadlineExceeded {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
	close(release)
	closeQueue(t, q)
}

func TestQueue_CloseTwice(t *testing.T) {
	q := NewQueue(nil)
	closeQueue(t, q)
	closeQueue(t, q)
}
