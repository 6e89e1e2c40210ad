package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"telegram-content-assistant/internal/domain"
)

func TestWait_DeliversResolvedResult(t *testing.T) {
	reg := NewRegistry()
	id := reg.Register(KindNiche)

	go func() {
		time.Sleep(20 * time.Millisecond)
		reg.Resolve(id, KindNiche, &Result{Success: true, Payload: map[string]string{"niche": "yoga"}})
	}()

	res, err := reg.Wait(context.Background(), id, time.Second)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if res.Payload["niche"] != "yoga" {
		t.Fatalf("payload = %q, want %q", res.Payload["niche"], "yoga")
	}
	if reg.PendingCount() != 0 {
		t.Fatalf("pending = %d, want 0", reg.PendingCount())
	}
}

func TestWait_TimeoutRemovesEntry(t *testing.T) {
	reg := NewRegistry()
	id := reg.Register(KindPost)

	start := time.Now()
	_, err := reg.Wait(context.Background(), id, 50*time.Millisecond)
	elapsed := time.Since(start)

	if !errors.Is(err, domain.ErrExternalTimeout) {
		t.Fatalf("err = %v, want ErrExternalTimeout", err)
	}
	if elapsed < 50*time.Millisecond {
		t.Fatalf("returned after %v, before the timeout", elapsed)
	}
	if elapsed > 500*time.Millisecond {
		t.Fatalf("returned after %v, well past the timeout", elapsed)
	}
	// A callback arriving after the timeout is a late delivery on a dead id.
	if reg.Resolve(id, KindPost, &Result{Success: true}) {
		t.Fatal("expected late resolve to be rejected")
	}
}

func TestWait_FailedEntryReturnsImmediately(t *testing.T) {
	reg := NewRegistry()
	id := reg.Register(KindTopic)
	reg.Fail(id)

	start := time.Now()
	_, err := reg.Wait(context.Background(), id, 5*time.Second)
	if !errors.Is(err, domain.ErrDispatchFailed) {
		t.Fatalf("err = %v, want ErrDispatchFailed", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("failed entry waited %v, want fast return", elapsed)
	}
}

func TestWait_RejectedResult(t *testing.T) {
	reg := NewRegistry()
	id := reg.Register(KindNiche)
	reg.Resolve(id, KindNiche, &Result{Success: false})

	_, err := reg.Wait(context.Background(), id, time.Second)
	if !errors.Is(err, domain.ErrExternalRejected) {
		t.Fatalf("err = %v, want ErrExternalRejected", err)
	}
}

func TestWait_UnknownID(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Wait(context.Background(), "nope", 50*time.Millisecond)
	if !errors.Is(err, domain.ErrExternalTimeout) {
		t.Fatalf("err = %v, want ErrExternalTimeout", err)
	}
}

func TestWait_ContextCancellation(t *testing.T) {
	reg := NewRegistry()
	id := reg.Register(KindPost)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := reg.Wait(ctx, id, 5*time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if reg.Resolve(id, KindPost, &Result{Success: true}) {
		t.Fatal("expected resolve after cancellation to be rejected")
	}
}
