// Package midi translates between gomidi messages and the fixed-size event
// payloads the scheduling core queues. It is the boundary where host- or
// driver-level MIDI notifications become queueable events; the core itself
// never interprets the bytes.
package midi

import (
	gomidi "gitlab.com/gomidi/midi/v2"

	"github.com/cbegin/synthcore-go/event"
)

// FromMessage converts a MIDI message into a queueable payload. Returns
// false for messages longer than three bytes (system exclusive data travels
// as event.SysEx instead).
func FromMessage(msg gomidi.Message) (event.RawMidiEvent, bool) {
	return event.NewRawMidiEvent(msg)
}

// Message converts a queued payload back into a gomidi message, e.g. to send
// it to an output port or to inspect it with gomidi's accessors.
func Message(ev event.RawMidiEvent) gomidi.Message {
	return gomidi.Message(ev.Bytes())
}

// NoteOn builds a note-on payload for the given channel (0-15), key and
// velocity.
func NoteOn(channel, key, velocity uint8) event.RawMidiEvent {
	return event.MustRawMidiEvent(gomidi.NoteOn(channel, key, velocity))
}

// NoteOff builds a note-off payload.
func NoteOff(channel, key uint8) event.RawMidiEvent {
	return event.MustRawMidiEvent(gomidi.NoteOff(channel, key))
}

// ControlChange builds a control-change payload.
func ControlChange(channel, controller, value uint8) event.RawMidiEvent {
	return event.MustRawMidiEvent(gomidi.ControlChange(channel, controller, value))
}

// PitchBend builds a pitch-bend payload. rel is the bend relative to center,
// in the range -8192 to 8191.
func PitchBend(channel uint8, rel int16) event.RawMidiEvent {
	return event.MustRawMidiEvent(gomidi.Pitchbend(channel, rel))
}
