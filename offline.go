package synthcore

import (
	"encoding/binary"
	"math"

	intsynth "github.com/cbegin/synthcore-go/internal/synth"
	"github.com/cbegin/synthcore-go/sequence"
)

// offlineBlockFrames is the cycle length used for offline rendering. Any
// positive value gives identical output; smaller blocks just run more
// cycles.
const offlineBlockFrames = 512

// RenderSequence renders a sequence offline through synth and returns
// interleaved stereo samples. A nil synth uses the built-in sine engine.
// Rendering continues for tailSec seconds after the last event so release
// envelopes are captured.
func RenderSequence(seq *sequence.Sequence, synth Synth, sampleRate int, tailSec float64, opts ...HostOption) []float32 {
	if synth == nil {
		synth = intsynth.New(sampleRate, intsynth.DefaultParams())
	}
	host := NewHost(opts...)
	cursor := seq.Cursor()

	total := int64(seq.Duration()) + 1 + int64(tailSec*float64(sampleRate))
	out := make([]float32, 0, total*2)
	planar := [][]float32{make([]float32, offlineBlockFrames), make([]float32, offlineBlockFrames)}

	for pos := int64(0); pos < total; pos += offlineBlockFrames {
		frames := offlineBlockFrames
		if remaining := total - pos; remaining < int64(frames) {
			frames = int(remaining)
		}
		outputs := [][]float32{planar[0][:frames], planar[1][:frames]}
		cursor.Window(pos, frames, host.Push)
		host.RunCycle(nil, outputs, synth)
		for i := 0; i < frames; i++ {
			out = append(out, outputs[0][i], outputs[1][i])
		}
	}
	return out
}

// EncodeWAVFloat32LE wraps interleaved samples in a RIFF/WAVE container
// using the IEEE-float format.
func EncodeWAVFloat32LE(samples []float32, sampleRate int, channels int) []byte {
	dataSize := len(samples) * 4
	byteRate := sampleRate * channels * 4
	blockAlign := channels * 4
	out := make([]byte, 44+dataSize)
	copy(out[0:], "RIFF")
	binary.LittleEndian.PutUint32(out[4:], uint32(36+dataSize))
	copy(out[8:], "WAVE")
	copy(out[12:], "fmt ")
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 3) // IEEE float
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:], 32)
	copy(out[36:], "data")
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[44+i*4:], math.Float32bits(s))
	}
	return out
}
