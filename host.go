// Package synthcore schedules precisely-timed control events against
// per-buffer audio rendering. The core lives in the event and buffer
// packages; this package is the backend-adapter layer that owns a queue and
// runs rendering cycles against it, plus real-time (ebiten) and offline
// front ends.
package synthcore

import (
	"github.com/cbegin/synthcore-go/buffer"
	"github.com/cbegin/synthcore-go/event"
)

// Synth renders audio and consumes raw MIDI events with sample accuracy.
// Implementations receive each due event exactly once, immediately before
// the render call for the frames that follow it.
type Synth interface {
	event.Renderer[float32]
	event.Handler[event.RawMidiEvent]
}

type HostOption func(*hostConfig)

type hostConfig struct {
	queueCapacity int
	channelCap    int
	inboxSize     int
	policy        event.CollisionPolicy[event.RawMidiEvent]
	onDisplaced   func(event.Timed[event.RawMidiEvent])
}

func defaultHostConfig() hostConfig {
	return hostConfig{
		queueCapacity: 1024,
		channelCap:    8,
		inboxSize:     256,
		policy:        event.AlwaysAfter[event.RawMidiEvent],
	}
}

// WithQueueCapacity bounds the number of pending events. Size it to the
// worst case expected between two cycles; overflow evicts per the queue's
// pressure policy.
func WithQueueCapacity(capacity int) HostOption {
	return func(cfg *hostConfig) { cfg.queueCapacity = capacity }
}

// WithChannelCapacity sizes the scratch storages for the maximum number of
// input or output channels a cycle will see.
func WithChannelCapacity(channels int) HostOption {
	return func(cfg *hostConfig) { cfg.channelCap = channels }
}

// WithInboxSize sizes the cross-goroutine hand-off buffer used by Schedule.
func WithInboxSize(size int) HostOption {
	return func(cfg *hostConfig) { cfg.inboxSize = size }
}

// WithCollisionPolicy sets the policy applied when queued events share a
// frame. The default keeps submission order (insert-after).
func WithCollisionPolicy(policy event.CollisionPolicy[event.RawMidiEvent]) HostOption {
	return func(cfg *hostConfig) { cfg.policy = policy }
}

// WithDisplacedFunc installs a diagnostic callback invoked with every event
// the queue displaces or rejects under capacity pressure or replacement. It
// runs on the cycle goroutine; keep it brief.
func WithDisplacedFunc(f func(event.Timed[event.RawMidiEvent])) HostOption {
	return func(cfg *hostConfig) { cfg.onDisplaced = f }
}

// Host owns one rendering context: the event queue, the scratch slice
// storages and the inbox that hands events from other goroutines to the
// cycle. RunCycle, Push and Reset must be called from a single goroutine
// (the audio callback); Schedule may be called from anywhere.
type Host struct {
	queue       *event.Queue[event.RawMidiEvent]
	inStorage   *buffer.Storage[float32]
	outStorage  *buffer.Storage[float32]
	inbox       chan event.Timed[event.RawMidiEvent]
	policy      event.CollisionPolicy[event.RawMidiEvent]
	onDisplaced func(event.Timed[event.RawMidiEvent])
}

func NewHost(opts ...HostOption) *Host {
	cfg := defaultHostConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Host{
		queue:       event.NewQueue[event.RawMidiEvent](cfg.queueCapacity),
		inStorage:   buffer.NewStorage[float32](cfg.channelCap),
		outStorage:  buffer.NewStorage[float32](cfg.channelCap),
		inbox:       make(chan event.Timed[event.RawMidiEvent], cfg.inboxSize),
		policy:      cfg.policy,
		onDisplaced: cfg.onDisplaced,
	}
}

// Queue exposes the underlying event queue for maintenance calls
// (ForgetBefore, LastBefore, ...). Use it only from the cycle goroutine.
func (h *Host) Queue() *event.Queue[event.RawMidiEvent] { return h.queue }

// Schedule hands an event to the rendering cycle from any goroutine. Frame
// is relative to the start of the next cycle. Returns false when the inbox
// is full; Schedule never blocks, because the producing goroutine may be a
// UI thread and the consuming one an audio callback.
func (h *Host) Schedule(ev event.Timed[event.RawMidiEvent]) bool {
	select {
	case h.inbox <- ev:
		return true
	default:
		return false
	}
}

// Push queues an event directly, applying the host's collision policy and
// routing any displaced event to the diagnostic callback. Cycle goroutine
// only.
func (h *Host) Push(ev event.Timed[event.RawMidiEvent]) {
	if displaced, ok := h.queue.Push(ev, h.policy); ok && h.onDisplaced != nil {
		h.onDisplaced(displaced)
	}
}

// RunCycle processes one buffer: drains the inbox, dispatches every due
// event to synth at its exact frame with rendering in between, then re-bases
// the remaining events so their frames are relative to the next cycle's
// start. The buffer length is taken from the first input channel, or the
// first output channel when there are no inputs.
func (h *Host) RunCycle(inputs, outputs [][]float32, synth Synth) {
	h.drainInbox()
	event.Split(h.queue, h.inStorage, h.outStorage, inputs, outputs, synth, synth)
	frames := 0
	if len(inputs) > 0 {
		frames = len(inputs[0])
	} else if len(outputs) > 0 {
		frames = len(outputs[0])
	}
	h.queue.ShiftTime(uint32(frames))
}

// Reset drops every pending and in-flight event, e.g. on transport stop.
func (h *Host) Reset() {
	h.drainInbox()
	h.queue.Clear()
}

func (h *Host) drainInbox() {
	for {
		select {
		case ev := <-h.inbox:
			h.Push(ev)
		default:
			return
		}
	}
}
