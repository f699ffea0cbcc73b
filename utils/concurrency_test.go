package utils

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestStringSetNoDuplicates(t *testing.T) {
	s := NewStringSet()

	added := s.Add("bob99")
	if !added {
		t.Error("first Add should return true")
	}

	added = s.Add("bob99")
	if added {
		t.Error("second Add of same value should return false")
	}

	if !s.Add("alice") {
		t.Error("Add of a different value should return true")
	}
}

func TestStringSetConcurrency(t *testing.T) {
	s := NewStringSet()
	var added int64

	pool := NewWorkerPool(10)
	for i := 0; i < 100; i++ {
		pool.Submit(func() {
			if s.Add("same") {
				atomic.AddInt64(&added, 1)
			}
		})
	}
	pool.Wait()

	if added != 1 {
		t.Errorf("expected exactly 1 successful add, got %d", added)
	}
}

func TestWorkerPoolBoundsConcurrency(t *testing.T) {
	pool := NewWorkerPool(2)

	var mu sync.Mutex
	running, peak := 0, 0

	for i := 0; i < 8; i++ {
		pool.Submit(func() {
			mu.Lock()
			running++
			if running > peak {
				peak = running
			}
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)

			mu.Lock()
			running--
			mu.Unlock()
		})
	}
	pool.Wait()

	if peak > 2 {
		t.Errorf("peak concurrency: got %d, want <= 2", peak)
	}
}

func TestWorkerPoolMinimumSize(t *testing.T) {
	if got := NewWorkerPool(0).Size(); got != 1 {
		t.Errorf("NewWorkerPool(0).Size() = %d; want 1", got)
	}
}
