// Package sequence holds pre-scheduled event timelines and feeds them into a
// rendering cycle one buffer window at a time. Timelines use absolute frame
// positions; the cursor converts them to cycle-relative frames when feeding,
// which is the producer side of the queue's re-basing protocol.
package sequence

import (
	"sort"

	"github.com/cbegin/synthcore-go/event"
)

// Sequence is a frame-sorted timeline of raw MIDI events. Frames are
// absolute, counted from the start of playback.
type Sequence struct {
	events []event.Timed[event.RawMidiEvent]
}

// New builds a sequence from events with absolute frame positions. The input
// is copied and stably sorted, so equal-frame events keep their submission
// order.
func New(events []event.Timed[event.RawMidiEvent]) *Sequence {
	sorted := make([]event.Timed[event.RawMidiEvent], len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Frame < sorted[j].Frame
	})
	return &Sequence{events: sorted}
}

// FromDeltas builds a sequence from a delta-time stream, where each event
// carries the microseconds elapsed since the previous one. Conversion to
// frames rounds down at the given sample rate.
func FromDeltas(deltas []event.Delta[event.RawMidiEvent], sampleRate int) *Sequence {
	events := make([]event.Timed[event.RawMidiEvent], len(deltas))
	var elapsed uint64
	for i, d := range deltas {
		elapsed += d.MicrosSincePrevious
		frame := elapsed * uint64(sampleRate) / 1e6
		events[i] = event.At(uint32(frame), d.Event)
	}
	return &Sequence{events: events}
}

// Len returns the number of events.
func (s *Sequence) Len() int { return len(s.events) }

// Events returns the sorted timeline. The slice is owned by the sequence;
// treat it as read-only.
func (s *Sequence) Events() []event.Timed[event.RawMidiEvent] { return s.events }

// Duration returns the frame of the last event, or 0 for an empty sequence.
func (s *Sequence) Duration() uint32 {
	if len(s.events) == 0 {
		return 0
	}
	return s.events[len(s.events)-1].Frame
}

// Cursor returns a playback cursor positioned at the start.
func (s *Sequence) Cursor() *Cursor {
	return &Cursor{seq: s}
}

// Cursor walks a sequence one buffer window at a time.
type Cursor struct {
	seq  *Sequence
	next int
}

// Window emits every event with an absolute frame in [start, start+frames),
// re-based so the emitted Frame is relative to start. Windows must be walked
// in order; events before start that were never emitted are skipped.
func (c *Cursor) Window(start int64, frames int, emit func(event.Timed[event.RawMidiEvent])) {
	end := start + int64(frames)
	for c.next < len(c.seq.events) {
		ev := c.seq.events[c.next]
		if int64(ev.Frame) >= end {
			return
		}
		c.next++
		if int64(ev.Frame) < start {
			continue
		}
		emit(event.At(uint32(int64(ev.Frame)-start), ev.Event))
	}
}

// Done reports whether every event has been emitted or skipped.
func (c *Cursor) Done() bool { return c.next >= len(c.seq.events) }

// Rewind resets the cursor to the start of the sequence.
func (c *Cursor) Rewind() { c.next = 0 }
