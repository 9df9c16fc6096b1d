// Package event provides sample-accurate event scheduling for audio
// rendering: timed event values, a capacity-bounded time-ordered queue, and
// a buffer-splitting loop that interleaves rendering with event delivery.
//
// All steady-state operations (queueing, pruning, time shifting, splitting)
// are allocation-free, so they are safe to call from an audio callback.
package event

import "fmt"

// Timed pairs an event with a frame offset. Frame is relative to the start
// of the current processing cycle: Frame 6 means the event happens on the
// sixth frame of the buffer being rendered.
type Timed[E any] struct {
	Frame uint32
	Event E
}

// At returns ev scheduled at the given frame.
func At[E any](frame uint32, ev E) Timed[E] {
	return Timed[E]{Frame: frame, Event: ev}
}

// Indexed associates an event with a channel or voice index. The queue
// treats the payload as opaque, so Indexed events queue like any other.
type Indexed[E any] struct {
	Index int
	Event E
}

// Delta pairs an event with the time elapsed since the previous event in a
// stream, in microseconds. Delta streams come from hosts that deliver
// wall-clock-relative events; convert to frames before queueing.
type Delta[E any] struct {
	MicrosSincePrevious uint64
	Event               E
}

// Handler consumes one event at a time. The splitter calls it once per due
// event, in time order, immediately before rendering the following
// sub-range.
type Handler[E any] interface {
	HandleEvent(ev E)
}

// RawMidiEvent is a MIDI message of up to three bytes, stored inline. It is
// a plain value with no heap storage, so it can be copied freely between
// queues and voices.
type RawMidiEvent struct {
	data   [3]byte
	length uint8
}

// NewRawMidiEvent copies data into a RawMidiEvent. Returns false when data
// is not 1, 2 or 3 bytes long.
func NewRawMidiEvent(data []byte) (RawMidiEvent, bool) {
	if len(data) < 1 || len(data) > 3 {
		return RawMidiEvent{}, false
	}
	var ev RawMidiEvent
	ev.length = uint8(copy(ev.data[:], data))
	return ev, true
}

// MustRawMidiEvent is like NewRawMidiEvent but panics on invalid length.
func MustRawMidiEvent(data []byte) RawMidiEvent {
	ev, ok := NewRawMidiEvent(data)
	if !ok {
		panic(fmt.Sprintf("event: raw midi event must have length 1, 2 or 3, got %d", len(data)))
	}
	return ev
}

// Data returns the fixed 3-byte payload. Bytes beyond Len are zero.
func (e *RawMidiEvent) Data() [3]byte { return e.data }

// Bytes returns the logical payload. The slice aliases the event's storage.
func (e *RawMidiEvent) Bytes() []byte { return e.data[:e.length] }

// Len returns the logical length (1-3).
func (e *RawMidiEvent) Len() int { return int(e.length) }

func (e RawMidiEvent) String() string {
	switch e.length {
	case 1:
		return fmt.Sprintf("RawMidiEvent(%X)", e.data[0])
	case 2:
		return fmt.Sprintf("RawMidiEvent(%X %X)", e.data[0], e.data[1])
	default:
		return fmt.Sprintf("RawMidiEvent(%X %X %X)", e.data[0], e.data[1], e.data[2])
	}
}

// SysEx is a system-exclusive event: a non-owning view over externally-owned
// bytes. The view is only valid for the duration of the call that produced
// it; do not queue it or retain it past that call.
type SysEx struct {
	data []byte
}

// NewSysEx wraps data without copying.
func NewSysEx(data []byte) SysEx { return SysEx{data: data} }

// Data returns the viewed bytes. Same validity scope as the SysEx itself.
func (e SysEx) Data() []byte { return e.data }

func (e SysEx) String() string {
	return fmt.Sprintf("SysEx(% X)", e.data)
}
