package synth

// vibratoLFO is a single low-frequency oscillator shared by every voice. It
// produces a triangle wave in [-depth, +depth] semitones, with depth driven
// by the mod wheel (CC1).
type vibratoLFO struct {
	depthSemis float64
	rateHz     float64
	phase      float64 // [0, 1)
}

func (l *vibratoLFO) setDepth(semitones float64) { l.depthSemis = semitones }

func (l *vibratoLFO) active() bool {
	return l.depthSemis != 0 && l.rateHz != 0
}

// sample advances the oscillator by one frame and returns the current pitch
// offset in semitones. Returns 0 when inactive.
func (l *vibratoLFO) sample(sampleRate float64) float64 {
	if !l.active() || sampleRate == 0 {
		return 0
	}
	var wave float64
	if l.phase < 0.5 {
		wave = 4*l.phase - 1
	} else {
		wave = 3 - 4*l.phase
	}
	l.phase += l.rateHz / sampleRate
	for l.phase >= 1 {
		l.phase -= 1
	}
	return wave * l.depthSemis
}

func (l *vibratoLFO) reset() {
	l.phase = 0
}
