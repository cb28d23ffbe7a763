// Package progress broadcasts job progress snapshots to in-process
// subscribers. The persisted snapshot remains the source of truth; the hub
// is a push-delivery optimization over it, so readers that miss pushed
// events fall back to polling the stored snapshot and reach the same
// terminal answer.
package progress

import (
	"sync"

	"github.com/google/uuid"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/types"
)

// subscriberBuffer is the per-subscriber channel capacity. When a consumer
// falls further behind than this, the oldest pending snapshot is dropped
// and the next delivered event carries Gap=true.
const subscriberBuffer = 16

// EventType distinguishes the kinds of events a subscriber receives.
type EventType string

// Event types.
const (
	EventSnapshot EventType = "snapshot"
	EventDone     EventType = "done"
)

// Event is one delivery to a subscriber. Gap reports that at least one
// intermediate snapshot was dropped because the subscriber was slow; the
// carried snapshot supersedes everything dropped, so this is a delivery
// gap, not an error.
type Event struct {
	Type     EventType
	Gap      bool
	Snapshot types.ProgressSnapshot
}

type subscriber struct {
	ch chan Event
}

type jobState struct {
	current    types.ProgressSnapshot
	hasCurrent bool
	subs       map[int]*subscriber
	nextID     int
}

// Hub fans out progress snapshots per job. Snapshots are delivered in
// sequence-number order; stale publishes (lower or equal seq) are ignored
// so a subscriber never observes progress going backwards.
type Hub struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*jobState
}

// NewHub creates an empty broadcast hub.
func NewHub() *Hub {
	return &Hub{
		jobs: make(map[uuid.UUID]*jobState),
	}
}

// Publish delivers a snapshot to every subscriber of its job. When the
// snapshot is terminal the subscribers receive a final done event and
// their streams close; the job's hub state is then released, leaving the
// persisted snapshot as the only record.
func (h *Hub) Publish(snap types.ProgressSnapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	st := h.jobs[snap.JobID]
	if st == nil {
		st = &jobState{subs: make(map[int]*subscriber)}
		h.jobs[snap.JobID] = st
	}
	if st.hasCurrent && snap.Seq <= st.current.Seq {
		return
	}
	st.current = snap
	st.hasCurrent = true

	evType := EventSnapshot
	if snap.Done() {
		evType = EventDone
	}
	for _, sub := range st.subs {
		deliver(sub, Event{Type: evType, Snapshot: snap})
	}

	if snap.Done() {
		for _, sub := range st.subs {
			close(sub.ch)
		}
		delete(h.jobs, snap.JobID)
	}
}

// deliver sends without blocking. A full channel drops its oldest pending
// event to make room and flags the gap on the event that replaces it.
func deliver(sub *subscriber, ev Event) {
	select {
	case sub.ch <- ev:
		return
	default:
	}
	select {
	case <-sub.ch:
	default:
	}
	ev.Gap = true
	select {
	case sub.ch <- ev:
	default:
	}
}

// Subscription is one subscriber's ordered stream of progress events. The
// channel closes after the job's done event, or on Cancel.
type Subscription struct {
	C <-chan Event

	hub   *Hub
	jobID uuid.UUID
	id    int
}

// Subscribe attaches a new subscriber to a job's progress stream. A
// subscriber joining after updates have been published immediately
// receives the current snapshot, so it never starts behind.
func (h *Hub) Subscribe(jobID uuid.UUID) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	st := h.jobs[jobID]
	if st == nil {
		st = &jobState{subs: make(map[int]*subscriber)}
		h.jobs[jobID] = st
	}

	sub := &subscriber{ch: make(chan Event, subscriberBuffer)}
	id := st.nextID
	st.nextID++
	st.subs[id] = sub

	if st.hasCurrent {
		sub.ch <- Event{Type: EventSnapshot, Snapshot: st.current}
	}

	return &Subscription{C: sub.ch, hub: h, jobID: jobID, id: id}
}

// Cancel detaches the subscriber and closes its channel. Safe to call
// after the stream already closed.
func (s *Subscription) Cancel() {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()

	st := s.hub.jobs[s.jobID]
	if st == nil {
		return
	}
	sub := st.subs[s.id]
	if sub == nil {
		return
	}
	delete(st.subs, s.id)
	close(sub.ch)
	if len(st.subs) == 0 && !st.hasCurrent {
		delete(s.hub.jobs, s.jobID)
	}
}

// Current returns the latest snapshot the hub has seen for a job. Reports
// false for unknown jobs and for jobs already finished and released;
// callers then read the persisted snapshot instead.
func (h *Hub) Current(jobID uuid.UUID) (types.ProgressSnapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	st := h.jobs[jobID]
	if st == nil || !st.hasCurrent {
		return types.ProgressSnapshot{}, false
	}
	return st.current, true
}
