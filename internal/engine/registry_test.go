package engine

import (
	"sync"
	"testing"
	"time"
)

func TestRegistry_ResolveAndTake(t *testing.T) {
	reg := NewRegistry()
	id := reg.Register(KindNiche)

	t.Run("resolve pending succeeds once", func(t *testing.T) {
		res := &Result{Success: true, Payload: map[string]string{"niche": "fitness"}}
		if !reg.Resolve(id, KindNiche, res) {
			t.Fatal("expected first resolve to succeed")
		}
		if reg.Resolve(id, KindNiche, res) {
			t.Fatal("expected duplicate resolve to be rejected")
		}
	})

	t.Run("take pops exactly once", func(t *testing.T) {
		res := reg.Take(id)
		if res == nil {
			t.Fatal("expected a result")
		}
		if got := res.Payload["niche"]; got != "fitness" {
			t.Fatalf("payload = %q, want %q", got, "fitness")
		}
		if reg.Take(id) != nil {
			t.Fatal("expected second take to return nil")
		}
		if reg.PendingCount() != 0 {
			t.Fatalf("pending = %d, want 0", reg.PendingCount())
		}
	})
}

func TestRegistry_ResolveUnknownID(t *testing.T) {
	reg := NewRegistry()
	if reg.Resolve("nope", KindNiche, &Result{Success: true}) {
		t.Fatal("expected resolve of unknown id to be rejected")
	}
}

func TestRegistry_ResolveKindMismatch(t *testing.T) {
	reg := NewRegistry()
	id := reg.Register(KindNiche)
	if reg.Resolve(id, KindPost, &Result{Success: true}) {
		t.Fatal("expected kind mismatch to be rejected")
	}
	// The entry is untouched; the right kind still works.
	if !reg.Resolve(id, KindNiche, &Result{Success: true}) {
		t.Fatal("expected matching kind to succeed")
	}
}

func TestRegistry_ResolveNilResult(t *testing.T) {
	reg := NewRegistry()
	id := reg.Register(KindTopic)
	if reg.Resolve(id, KindTopic, nil) {
		t.Fatal("expected nil result to be rejected")
	}
}

func TestRegistry_FailWakesWaiter(t *testing.T) {
	reg := NewRegistry()
	id := reg.Register(KindPost)
	if !reg.Fail(id) {
		t.Fatal("expected fail to succeed on pending entry")
	}
	if reg.Fail(id) {
		t.Fatal("expected second fail to be rejected")
	}
	if reg.Resolve(id, KindPost, &Result{Success: true}) {
		t.Fatal("expected resolve after fail to be rejected")
	}
}

func TestRegistry_DropDiscardsLateCallback(t *testing.T) {
	reg := NewRegistry()
	id := reg.Register(KindNiche)
	reg.Drop(id)
	if reg.Resolve(id, KindNiche, &Result{Success: true}) {
		t.Fatal("expected resolve after drop to be rejected")
	}
	if reg.PendingCount() != 0 {
		t.Fatalf("pending = %d, want 0", reg.PendingCount())
	}
}

func TestRegistry_Sweep(t *testing.T) {
	reg := NewRegistry()
	old := reg.Register(KindNiche)
	reg.mu.Lock()
	reg.pending[old].createdAt = time.Now().Add(-10 * time.Minute)
	reg.mu.Unlock()
	fresh := reg.Register(KindTopic)

	if n := reg.Sweep(5 * time.Minute); n != 1 {
		t.Fatalf("swept %d, want 1", n)
	}
	if reg.Resolve(old, KindNiche, &Result{Success: true}) {
		t.Fatal("expected swept entry to reject resolution")
	}
	if !reg.Resolve(fresh, KindTopic, &Result{Success: true}) {
		t.Fatal("expected fresh entry to survive sweep")
	}
}

func TestRegistry_ConcurrentResolve(t *testing.T) {
	reg := NewRegistry()
	id := reg.Register(KindPost)

	const racers = 32
	var wins int64
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if reg.Resolve(id, KindPost, &Result{Success: true}) {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if wins != 1 {
		t.Fatalf("resolve won %d times, want exactly 1", wins)
	}
}
