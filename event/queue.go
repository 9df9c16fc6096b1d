package event

import "fmt"

// CollisionDecision tells the queue what to do when a new event lands on the
// same frame as an event already queued.
type CollisionDecision int

const (
	// InsertNewBeforeOld places the new event before the existing one.
	InsertNewBeforeOld CollisionDecision = iota
	// InsertNewAfterOld keeps scanning past the existing event; the new
	// event ends up after the whole equal-frame run unless a later decision
	// says otherwise.
	InsertNewAfterOld
	// IgnoreNew rejects the new event; the queue is left unchanged.
	IgnoreNew
	// ReplaceOld swaps the new payload into the existing event's position
	// and hands the old payload back to the caller.
	ReplaceOld
)

// CollisionPolicy decides the ordering of two events that share a frame. It
// may inspect the payloads (e.g. merge parameter changes, prefer note-off
// over note-on).
type CollisionPolicy[E any] func(old, new E) CollisionDecision

// AlwaysBefore inserts colliding events before existing ones.
func AlwaysBefore[E any](old, new E) CollisionDecision { return InsertNewBeforeOld }

// AlwaysAfter inserts colliding events after existing ones, preserving
// submission order.
func AlwaysAfter[E any](old, new E) CollisionDecision { return InsertNewAfterOld }

// AlwaysIgnore rejects colliding events.
func AlwaysIgnore[E any](old, new E) CollisionDecision { return IgnoreNew }

// AlwaysReplace replaces the existing event's payload with the new one.
func AlwaysReplace[E any](old, new E) CollisionDecision { return ReplaceOld }

// Queue is a capacity-bounded sequence of timed events held in
// non-decreasing frame order. All backing memory is allocated in NewQueue;
// Push, ForgetBefore, ShiftTime and Clear never allocate. A Queue is owned
// by a single rendering context and is not safe for concurrent use.
type Queue[E any] struct {
	events []Timed[E]
}

// NewQueue returns an empty queue that holds at most capacity events.
// Panics if capacity is not positive.
func NewQueue[E any](capacity int) *Queue[E] {
	if capacity <= 0 {
		panic(fmt.Sprintf("event: queue capacity must be positive, got %d", capacity))
	}
	return &Queue[E]{events: make([]Timed[E], 0, capacity)}
}

// Len returns the number of queued events.
func (q *Queue[E]) Len() int { return len(q.events) }

// Cap returns the configured capacity.
func (q *Queue[E]) Cap() int { return cap(q.events) }

// At returns the i-th queued event in frame order.
func (q *Queue[E]) At(i int) Timed[E] { return q.events[i] }

// SetAt overwrites the i-th queued event. The caller is responsible for
// keeping the frame order intact.
func (q *Queue[E]) SetAt(i int, ev Timed[E]) { q.events[i] = ev }

// First returns the earliest queued event.
func (q *Queue[E]) First() (Timed[E], bool) {
	if len(q.events) == 0 {
		var zero Timed[E]
		return zero, false
	}
	return q.events[0], true
}

// LastBefore returns the latest queued event with Frame < t.
func (q *Queue[E]) LastBefore(t uint32) (Timed[E], bool) {
	for i := len(q.events) - 1; i >= 0; i-- {
		if q.events[i].Frame < t {
			return q.events[i], true
		}
	}
	var zero Timed[E]
	return zero, false
}

// Push queues a new event at its frame-ordered position, consulting policy
// for every existing event that shares the new event's frame.
//
// When the queue is full, the earliest queued event is evicted to make room,
// but only if the new event's frame is strictly greater than the earliest
// one's; otherwise the new event is rejected. The earliest event is assumed
// to carry transient state while the newest may carry state meant to
// persist, so under pressure the old one is the safer loss.
//
// The returned event, when ok is true, is whatever Push displaced: the
// evicted earliest event, the rejected new event, or the old payload swapped
// out by a ReplaceOld decision. Callers that care (e.g. for diagnostics)
// must check ok; Push itself never fails.
func (q *Queue[E]) Push(newEvent Timed[E], policy CollisionPolicy[E]) (displaced Timed[E], ok bool) {
	var evicted Timed[E]
	haveEvicted := false
	if len(q.events) == cap(q.events) {
		if newEvent.Frame <= q.events[0].Frame {
			return newEvent, true
		}
		evicted = q.popFront()
		haveEvicted = true
	}

	insert := len(q.events)
scan:
	for i := range q.events {
		switch {
		case q.events[i].Frame < newEvent.Frame:
			// keep scanning
		case q.events[i].Frame > newEvent.Frame:
			insert = i
			break scan
		default:
			switch policy(q.events[i].Event, newEvent.Event) {
			case IgnoreNew:
				return newEvent, true
			case InsertNewBeforeOld:
				insert = i
				break scan
			case ReplaceOld:
				q.events[i].Event, newEvent.Event = newEvent.Event, q.events[i].Event
				return newEvent, true
			case InsertNewAfterOld:
				// keep scanning the equal-frame run
			}
		}
	}

	q.events = q.events[:len(q.events)+1]
	copy(q.events[insert+1:], q.events[insert:])
	q.events[insert] = newEvent
	return evicted, haveEvicted
}

// ForgetBefore removes every event with Frame < threshold. Events exactly at
// the threshold are retained.
func (q *Queue[E]) ForgetBefore(threshold uint32) {
	kept := 0
	for kept < len(q.events) && q.events[kept].Frame < threshold {
		kept++
	}
	if kept == 0 {
		return
	}
	n := copy(q.events, q.events[kept:])
	q.events = q.events[:n]
}

// ShiftTime subtracts newZero from every queued event's frame, re-basing the
// timeline for the next cycle. Every queued event must have Frame >= newZero:
// the caller must have consumed (via Split) or pruned everything earlier.
// Violations panic under the debugchecks build tag and silently wrap in
// release builds.
func (q *Queue[E]) ShiftTime(newZero uint32) {
	for i := range q.events {
		if checksEnabled && q.events[i].Frame < newZero {
			panic(fmt.Sprintf("event: ShiftTime(%d) with pending event at frame %d", newZero, q.events[i].Frame))
		}
		q.events[i].Frame -= newZero
	}
}

// Clear removes all events unconditionally, e.g. on transport stop.
func (q *Queue[E]) Clear() {
	q.events = q.events[:0]
}

func (q *Queue[E]) popFront() Timed[E] {
	ev := q.events[0]
	n := copy(q.events, q.events[1:])
	q.events = q.events[:n]
	return ev
}
