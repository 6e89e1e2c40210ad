package engine

import (
	"sync"
	"time"

	"telegram-content-assistant/internal/infra/metrics"

	"github.com/google/uuid"
)

// Kind identifies which callback route may resolve a pending request.
type Kind string

const (
	KindNiche Kind = "niche"
	KindTopic Kind = "topic"
	KindPost  Kind = "post"
)

// Result is the payload delivered by the external engine for one request.
// Fields are kind-specific ("niche", "adapted_topic", "generated_post").
type Result struct {
	Success bool
	Payload map[string]string
}

type status int

const (
	statusPending status = iota
	statusResolved
	statusFailed
)

type pendingRequest struct {
	kind      Kind
	createdAt time.Time
	status    status
	// done is closed exactly once, by resolve, fail or sweep. Waiters block
	// on it instead of polling.
	done chan struct{}
}

// Registry is the ground truth for in-flight engine requests. It owns every
// entry exclusively: callers hold only request ids, and all mutation goes
// through its methods under one mutex, so a resolve racing a sweep or a
// duplicate resolve from a retried external call cannot corrupt state or
// deliver a result twice.
type Registry struct {
	mu      sync.Mutex
	pending map[string]*pendingRequest
	results map[string]*Result
}

func NewRegistry() *Registry {
	return &Registry{
		pending: make(map[string]*pendingRequest),
		results: make(map[string]*Result),
	}
}

// Register mints a new request id for a job of the given kind.
func (r *Registry) Register(kind Kind) string {
	id := uuid.NewString()
	r.mu.Lock()
	r.pending[id] = &pendingRequest{
		kind:      kind,
		createdAt: time.Now(),
		status:    statusPending,
		done:      make(chan struct{}),
	}
	n := len(r.pending)
	r.mu.Unlock()
	metrics.SetPendingRequests(n)
	return id
}

// Resolve stores the delivered result for a live pending request and wakes its
// waiter. It returns false for an unknown, expired, already-resolved or
// kind-mismatched id; late and duplicate deliveries are safe no-ops.
func (r *Registry) Resolve(id string, kind Kind, res *Result) bool {
	if res == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	pr, ok := r.pending[id]
	if !ok || pr.status != statusPending || pr.kind != kind {
		return false
	}
	pr.status = statusResolved
	r.results[id] = res
	close(pr.done)
	return true
}

// Fail marks a pending request as failed (the engine never accepted the job)
// and wakes its waiter so it does not sit out the full deadline.
func (r *Registry) Fail(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	pr, ok := r.pending[id]
	if !ok || pr.status != statusPending {
		return false
	}
	pr.status = statusFailed
	close(pr.done)
	return true
}

// Take pops the result for id, removing both the result and the registry
// entry. A second call returns nil: delivery happens exactly once.
func (r *Registry) Take(id string) *Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.results[id]
	if !ok {
		return nil
	}
	delete(r.results, id)
	r.removeLocked(id)
	return res
}

// Drop removes an entry and any buffered result without delivering it. The
// waiter's timeout path uses it so a callback arriving afterwards hits the
// "unknown id" path in the receiver.
func (r *Registry) Drop(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.results, id)
	r.removeLocked(id)
}

// Sweep removes entries older than maxAge regardless of status, bounding
// memory under sustained callback loss. Returns the number removed.
func (r *Registry) Sweep(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int
	for id, pr := range r.pending {
		if pr.createdAt.Before(cutoff) {
			if pr.status == statusPending {
				close(pr.done)
			}
			delete(r.results, id)
			r.removeLocked(id)
			removed++
		}
	}
	return removed
}

// PendingCount reports the number of live entries, for the health endpoint.
func (r *Registry) PendingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// done returns the entry's wake-up channel and its current status. The second
// return is false when the id is unknown.
func (r *Registry) entry(id string) (<-chan struct{}, status, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pr, ok := r.pending[id]
	if !ok {
		return nil, 0, false
	}
	return pr.done, pr.status, true
}

func (r *Registry) statusOf(id string) (status, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pr, ok := r.pending[id]
	if !ok {
		return 0, false
	}
	return pr.status, true
}

func (r *Registry) removeLocked(id string) {
	if _, ok := r.pending[id]; !ok {
		return
	}
	delete(r.pending, id)
	metrics.SetPendingRequests(len(r.pending))
}
