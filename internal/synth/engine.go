package synth

import (
	"math"

	"github.com/cbegin/synthcore-go/event"
)

const twoPi = math.Pi * 2

type Params struct {
	Polyphony  int
	AttackSec  float64
	ReleaseSec float64
	MasterGain float64
	// VibratoRateHz and VibratoSemis shape the mod-wheel vibrato. The wheel
	// (CC1) scales depth from zero up to VibratoSemis.
	VibratoRateHz float64
	VibratoSemis  float64
}

func DefaultParams() Params {
	return Params{
		Polyphony:     16,
		AttackSec:     0.004,
		ReleaseSec:    0.12,
		MasterGain:    0.35,
		VibratoRateHz: 5.5,
		VibratoSemis:  0.5,
	}
}

type envState int

const (
	envAttack envState = iota
	envSustain
	envRelease
	envOff
)

type voice struct {
	active   bool
	key      uint8
	channel  uint8
	phase    float64
	step     float64
	env      float64
	envState envState
	velocity float64
}

// Engine is a small polyphonic sine synth used to exercise the scheduling
// core. It consumes note-on, note-off, CC1 (mod-wheel vibrato) and CC7
// (channel volume) messages and renders the same mono sum to every output
// channel. Render and HandleEvent never allocate.
type Engine struct {
	sampleRate  float64
	params      Params
	voices      []voice
	attackStep  float64
	releaseStep float64
	level       float64
	gain        float64
	vibrato     vibratoLFO
}

func New(sampleRate int, params Params) *Engine {
	if params.Polyphony <= 0 {
		params.Polyphony = 16
	}
	e := &Engine{
		sampleRate: float64(sampleRate),
		params:     params,
		voices:     make([]voice, params.Polyphony),
		level:      1,
		gain:       params.MasterGain,
	}
	e.attackStep = envStep(params.AttackSec, e.sampleRate)
	e.releaseStep = envStep(params.ReleaseSec, e.sampleRate)
	e.vibrato.rateHz = params.VibratoRateHz
	return e
}

func envStep(seconds, sampleRate float64) float64 {
	if seconds <= 0 {
		return 1
	}
	return 1 / (seconds * sampleRate)
}

// SetMasterGain sets the output scalar applied after voice summing.
func (e *Engine) SetMasterGain(gain float64) {
	e.gain = gain
}

// ActiveVoiceCount returns the number of voices still sounding, including
// release tails.
func (e *Engine) ActiveVoiceCount() int {
	n := 0
	for i := range e.voices {
		if e.voices[i].active {
			n++
		}
	}
	return n
}

// HandleEvent consumes one raw MIDI message. Unknown messages are ignored.
func (e *Engine) HandleEvent(ev event.RawMidiEvent) {
	data := ev.Data()
	status := data[0] & 0xF0
	channel := data[0] & 0x0F
	switch {
	case status == 0x90 && ev.Len() == 3 && data[2] > 0:
		e.noteOn(channel, data[1], data[2])
	case status == 0x80 && ev.Len() >= 2,
		status == 0x90 && ev.Len() == 3: // running-status note-off (velocity 0)
		e.noteOff(channel, data[1])
	case status == 0xB0 && ev.Len() == 3 && data[1] == 1:
		e.vibrato.setDepth(float64(data[2]) / 127 * e.params.VibratoSemis)
	case status == 0xB0 && ev.Len() == 3 && data[1] == 7:
		e.level = float64(data[2]) / 127
	}
}

func (e *Engine) noteOn(channel, key, velocity uint8) {
	v := e.allocVoice()
	v.active = true
	v.key = key
	v.channel = channel
	v.phase = 0
	v.step = twoPi * keyFreq(key) / e.sampleRate
	v.env = 0
	v.envState = envAttack
	v.velocity = float64(velocity) / 127
}

func (e *Engine) noteOff(channel, key uint8) {
	for i := range e.voices {
		v := &e.voices[i]
		if v.active && v.key == key && v.channel == channel && v.envState != envRelease {
			v.envState = envRelease
		}
	}
}

// allocVoice returns a free voice, stealing the quietest one when all are
// busy.
func (e *Engine) allocVoice() *voice {
	quietest := &e.voices[0]
	for i := range e.voices {
		v := &e.voices[i]
		if !v.active {
			return v
		}
		if v.env < quietest.env {
			quietest = v
		}
	}
	return quietest
}

// Render sums all voices into every output channel for len(outputs[0])
// frames. Inputs are ignored; the engine is a pure source.
func (e *Engine) Render(inputs, outputs [][]float32) {
	if len(outputs) == 0 {
		return
	}
	frames := len(outputs[0])
	for f := 0; f < frames; f++ {
		pitchRatio := 1.0
		if offset := e.vibrato.sample(e.sampleRate); offset != 0 {
			pitchRatio = math.Exp2(offset / 12)
		}
		var sum float64
		for i := range e.voices {
			v := &e.voices[i]
			if !v.active {
				continue
			}
			switch v.envState {
			case envAttack:
				v.env += e.attackStep
				if v.env >= 1 {
					v.env = 1
					v.envState = envSustain
				}
			case envRelease:
				v.env -= e.releaseStep
				if v.env <= 0 {
					v.env = 0
					v.active = false
					v.envState = envOff
					continue
				}
			}
			sum += math.Sin(v.phase) * v.env * v.velocity
			v.phase += v.step * pitchRatio
			if v.phase >= twoPi {
				v.phase -= twoPi
			}
		}
		sample := float32(softClip(sum * e.gain * e.level))
		for ch := range outputs {
			outputs[ch][f] = sample
		}
	}
}

func keyFreq(key uint8) float64 {
	return 440 * math.Pow(2, (float64(key)-69)/12)
}

// softClip keeps the summed output inside [-1, 1] without the harshness of a
// hard clamp.
func softClip(x float64) float64 {
	return math.Tanh(x)
}
