package sequence

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cbegin/synthcore-go/event"
	"github.com/cbegin/synthcore-go/midi"
)

// A score file is a YAML list of timed events. Each event is positioned
// either by absolute frame or by delta_us (microseconds since the previous
// event, converted at the file's sample_rate), and carries exactly one
// payload: raw bytes or a symbolic note_on/note_off/cc/pitch_bend.
//
//	sample_rate: 48000
//	events:
//	  - frame: 0
//	    note_on: {channel: 0, key: 60, velocity: 100}
//	  - frame: 24000
//	    note_off: {channel: 0, key: 60}
//	  - delta_us: 500000
//	    raw: [0xB0, 0x07, 0x64]
type scoreFile struct {
	SampleRate int          `yaml:"sample_rate"`
	Events     []scoreEvent `yaml:"events"`
}

type scoreEvent struct {
	Frame   *uint32    `yaml:"frame"`
	DeltaUS *uint64    `yaml:"delta_us"`
	Raw     []int      `yaml:"raw"`
	NoteOn  *noteSpec  `yaml:"note_on"`
	NoteOff *noteSpec  `yaml:"note_off"`
	CC      *ccSpec    `yaml:"cc"`
	Bend    *bendSpec  `yaml:"pitch_bend"`
}

type noteSpec struct {
	Channel  uint8 `yaml:"channel"`
	Key      uint8 `yaml:"key"`
	Velocity uint8 `yaml:"velocity"`
}

type ccSpec struct {
	Channel    uint8 `yaml:"channel"`
	Controller uint8 `yaml:"controller"`
	Value      uint8 `yaml:"value"`
}

type bendSpec struct {
	Channel uint8 `yaml:"channel"`
	Value   int16 `yaml:"value"`
}

// LoadScoreFile reads a YAML score from disk. The fallbackRate is used for
// delta_us timing when the file does not declare a sample_rate.
func LoadScoreFile(path string, fallbackRate int) (*Sequence, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	seq, err := LoadScore(f, fallbackRate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return seq, nil
}

// LoadScore parses a YAML score.
func LoadScore(r io.Reader, fallbackRate int) (*Sequence, error) {
	var file scoreFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("parse score: %w", err)
	}
	rate := file.SampleRate
	if rate <= 0 {
		rate = fallbackRate
	}
	if rate <= 0 {
		return nil, fmt.Errorf("parse score: no sample rate")
	}

	events := make([]event.Timed[event.RawMidiEvent], 0, len(file.Events))
	var elapsedUS uint64
	var lastFrame uint32
	for i, se := range file.Events {
		payload, err := se.payload()
		if err != nil {
			return nil, fmt.Errorf("score event %d: %w", i, err)
		}
		frame, err := se.frame(rate, &elapsedUS, lastFrame)
		if err != nil {
			return nil, fmt.Errorf("score event %d: %w", i, err)
		}
		lastFrame = frame
		events = append(events, event.At(frame, payload))
	}
	return New(events), nil
}

func (se *scoreEvent) frame(rate int, elapsedUS *uint64, lastFrame uint32) (uint32, error) {
	switch {
	case se.Frame != nil && se.DeltaUS != nil:
		return 0, fmt.Errorf("both frame and delta_us set")
	case se.Frame != nil:
		// Absolute frames also advance the delta clock so the two styles mix.
		*elapsedUS = uint64(*se.Frame) * 1e6 / uint64(rate)
		return *se.Frame, nil
	case se.DeltaUS != nil:
		*elapsedUS += *se.DeltaUS
		frame := uint32(*elapsedUS * uint64(rate) / 1e6)
		if frame < lastFrame {
			frame = lastFrame
		}
		return frame, nil
	default:
		return 0, fmt.Errorf("neither frame nor delta_us set")
	}
}

func (se *scoreEvent) payload() (event.RawMidiEvent, error) {
	set := 0
	for _, present := range []bool{len(se.Raw) > 0, se.NoteOn != nil, se.NoteOff != nil, se.CC != nil, se.Bend != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return event.RawMidiEvent{}, fmt.Errorf("expected exactly one payload, got %d", set)
	}
	switch {
	case len(se.Raw) > 0:
		data := make([]byte, len(se.Raw))
		for i, b := range se.Raw {
			if b < 0 || b > 0xFF {
				return event.RawMidiEvent{}, fmt.Errorf("raw byte %d out of range: %d", i, b)
			}
			data[i] = byte(b)
		}
		ev, ok := event.NewRawMidiEvent(data)
		if !ok {
			return event.RawMidiEvent{}, fmt.Errorf("raw payload must be 1-3 bytes, got %d", len(data))
		}
		return ev, nil
	case se.NoteOn != nil:
		return midi.NoteOn(se.NoteOn.Channel, se.NoteOn.Key, se.NoteOn.Velocity), nil
	case se.NoteOff != nil:
		return midi.NoteOff(se.NoteOff.Channel, se.NoteOff.Key), nil
	case se.CC != nil:
		return midi.ControlChange(se.CC.Channel, se.CC.Controller, se.CC.Value), nil
	default:
		return midi.PitchBend(se.Bend.Channel, se.Bend.Value), nil
	}
}
