package synthcore

import (
	"errors"
	"sync"
	"sync/atomic"

	intaudio "github.com/cbegin/synthcore-go/internal/audio"
	intsynth "github.com/cbegin/synthcore-go/internal/synth"
	"github.com/cbegin/synthcore-go/sequence"
)

type PlayerOption func(*playerConfig)

type playerConfig struct {
	synth    Synth
	loop     bool
	tailSec  float64
	hostOpts []HostOption
}

func defaultPlayerConfig() playerConfig {
	return playerConfig{tailSec: 0.5}
}

// WithSynth substitutes the renderer. The default is the built-in sine
// engine.
func WithSynth(synth Synth) PlayerOption {
	return func(cfg *playerConfig) { cfg.synth = synth }
}

// WithLoopPlayback restarts the sequence from the beginning once it has
// fully sounded out.
func WithLoopPlayback(enabled bool) PlayerOption {
	return func(cfg *playerConfig) { cfg.loop = enabled }
}

// WithReleaseTail sets how long to keep rendering after the last event
// before playback counts as ended, covering release envelopes.
func WithReleaseTail(seconds float64) PlayerOption {
	return func(cfg *playerConfig) { cfg.tailSec = seconds }
}

// WithHostOptions forwards options to the player's Host (queue capacity,
// collision policy, displaced-event diagnostics, ...).
func WithHostOptions(opts ...HostOption) PlayerOption {
	return func(cfg *playerConfig) { cfg.hostOpts = append(cfg.hostOpts, opts...) }
}

// Player plays sequences in real time through the audio driver, running one
// scheduling cycle per driver buffer.
type Player struct {
	mu         sync.Mutex
	sampleRate int
	cfg        playerConfig
	host       *Host
	audio      *intaudio.Player
	done       chan struct{}
}

func NewPlayer(sampleRate int, opts ...PlayerOption) (*Player, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	cfg := defaultPlayerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.synth == nil {
		cfg.synth = intsynth.New(sampleRate, intsynth.DefaultParams())
	}
	return &Player{
		sampleRate: sampleRate,
		cfg:        cfg,
		host:       NewHost(cfg.hostOpts...),
	}, nil
}

// Host returns the player's scheduling host, e.g. to Schedule live events on
// top of the playing sequence.
func (p *Player) Host() *Host { return p.host }

// Play starts (or replaces) playback of a sequence.
func (p *Player) Play(seq *sequence.Sequence) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Signal any existing Wait() that the previous playback was replaced.
	if p.done != nil {
		close(p.done)
	}
	p.done = make(chan struct{})
	p.host.Reset()

	source := &streamSource{
		host:   p.host,
		synth:  p.cfg.synth,
		cursor: seq.Cursor(),
		loop:   p.cfg.loop,
		tail:   int(p.cfg.tailSec * float64(p.sampleRate)),
	}
	done := p.done
	source.onEnded = func() { p.signalDone(done) }

	backend, err := intaudio.NewPlayer(p.sampleRate, source)
	if err != nil {
		return err
	}
	if p.audio != nil {
		_ = p.audio.Stop()
	}
	p.audio = backend
	p.audio.Play()
	return nil
}

func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio != nil {
		p.audio.Pause()
	}
}

func (p *Player) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio != nil {
		p.audio.Play()
	}
}

func (p *Player) Stop() error {
	p.mu.Lock()
	if p.audio == nil {
		p.mu.Unlock()
		return nil
	}
	err := p.audio.Stop()
	p.audio = nil
	done := p.done
	p.done = nil
	p.mu.Unlock()
	p.host.Reset()
	if done != nil {
		close(done)
	}
	return err
}

// Wait blocks until the current playback ends. With loop playback enabled it
// blocks until Stop. Returns immediately when nothing is playing.
func (p *Player) Wait() {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (p *Player) signalDone(done chan struct{}) {
	p.mu.Lock()
	if p.done == done {
		p.done = nil
	} else {
		// A later Play already replaced this playback; it owns the channel.
		done = nil
	}
	p.mu.Unlock()
	if done != nil {
		close(done)
	}
}

// voiceCounter is implemented by synths that can report lingering voices,
// letting playback wait for release tails to fade instead of a fixed tail.
type voiceCounter interface {
	ActiveVoiceCount() int
}

// streamSource runs one scheduling cycle per driver buffer: feed the window
// of due sequence events, split-render through the host, interleave to the
// stereo stream.
type streamSource struct {
	host     *Host
	synth    Synth
	cursor   *sequence.Cursor
	outs     [2][]float32
	pos      int64
	loop     bool
	tail     int
	tailLeft int
	onEnded  func()
	finished atomic.Bool
	ended    bool
}

func (s *streamSource) Process(dst []float32) {
	frames := len(dst) / 2
	if frames == 0 {
		return
	}
	if cap(s.outs[0]) < frames {
		s.outs[0] = make([]float32, frames)
		s.outs[1] = make([]float32, frames)
	}
	outputs := [][]float32{s.outs[0][:frames], s.outs[1][:frames]}

	s.cursor.Window(s.pos, frames, s.host.Push)
	s.host.RunCycle(nil, outputs, s.synth)
	for i := 0; i < frames; i++ {
		dst[2*i] = outputs[0][i]
		dst[2*i+1] = outputs[1][i]
	}
	s.pos += int64(frames)
	s.checkEnded(frames)
}

func (s *streamSource) checkEnded(frames int) {
	if s.ended || !s.cursor.Done() || s.host.Queue().Len() > 0 {
		s.tailLeft = 0
		return
	}
	if vc, ok := s.synth.(voiceCounter); ok && vc.ActiveVoiceCount() > 0 {
		s.tailLeft = 0
		return
	}
	s.tailLeft += frames
	if s.tailLeft < s.tail {
		return
	}
	if s.loop {
		s.cursor.Rewind()
		s.pos = 0
		s.tailLeft = 0
		return
	}
	s.ended = true
	s.finished.Store(true)
	if s.onEnded != nil {
		s.onEnded()
	}
}

func (s *streamSource) Finished() bool { return s.finished.Load() }
