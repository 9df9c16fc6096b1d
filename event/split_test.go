package event

import (
	"math/rand"
	"testing"

	"github.com/cbegin/synthcore-go/buffer"
)

// recorder captures the interleaving of render and event calls. Render
// copies input to output with an offset added so tests can verify which
// renderer call produced which output frames.
type recorder struct {
	calls  []string
	ranges [][2]int
	events []int
	offset float32
	pos    int
}

func (r *recorder) Render(inputs, outputs [][]float32) {
	length := 0
	if len(inputs) > 0 {
		length = len(inputs[0])
	} else if len(outputs) > 0 {
		length = len(outputs[0])
	}
	r.calls = append(r.calls, "render")
	r.ranges = append(r.ranges, [2]int{r.pos, r.pos + length})
	for ch := range outputs {
		for i := range outputs[ch] {
			var in float32
			if ch < len(inputs) {
				in = inputs[ch][i]
			}
			outputs[ch][i] = in + r.offset
		}
	}
	r.pos += length
}

func (r *recorder) HandleEvent(ev int) {
	r.calls = append(r.calls, "event")
	r.events = append(r.events, ev)
}

func chans(n, frames int) [][]float32 {
	out := make([][]float32, n)
	for i := range out {
		out[i] = make([]float32, frames)
	}
	return out
}

func TestSplitDispatchExample(t *testing.T) {
	q := queueOf(timedInts(
		[2]uint32{0, 1}, [2]uint32{0, 2}, [2]uint32{2, 3}, [2]uint32{2, 4}, [2]uint32{4, 5},
	), 8)
	inputs := [][]float32{{11, 12, 13, 14}, {21, 22, 23, 24}}
	outputs := chans(2, 4)
	rec := &recorder{offset: 100}

	Split(q, buffer.NewStorage[float32](2), buffer.NewStorage[float32](2), inputs, outputs, rec, rec)

	wantCalls := []string{"event", "event", "render", "event", "event", "render"}
	if len(rec.calls) != len(wantCalls) {
		t.Fatalf("expected calls %v, got %v", wantCalls, rec.calls)
	}
	for i := range wantCalls {
		if rec.calls[i] != wantCalls[i] {
			t.Fatalf("expected calls %v, got %v", wantCalls, rec.calls)
		}
	}
	if len(rec.events) != 4 || rec.events[0] != 1 || rec.events[1] != 2 || rec.events[2] != 3 || rec.events[3] != 4 {
		t.Fatalf("expected events [1 2 3 4], got %v", rec.events)
	}
	wantRanges := [][2]int{{0, 2}, {2, 4}}
	for i, want := range wantRanges {
		if rec.ranges[i] != want {
			t.Fatalf("expected ranges %v, got %v", wantRanges, rec.ranges)
		}
	}

	// The event at frame 4 is not due this cycle and stays untouched.
	assertQueue(t, q, timedInts([2]uint32{4, 5}))

	// Every output frame was produced exactly once, from the matching input.
	for ch := range outputs {
		for i := range outputs[ch] {
			want := inputs[ch][i] + 100
			if outputs[ch][i] != want {
				t.Fatalf("output[%d][%d]: expected %v, got %v", ch, i, want, outputs[ch][i])
			}
		}
	}
}

func TestSplitEmptyQueueRendersWholeBuffer(t *testing.T) {
	q := NewQueue[int](1)
	inputs := [][]float32{{1, 2, 3, 4}}
	outputs := chans(1, 4)
	rec := &recorder{}

	Split(q, buffer.NewStorage[float32](1), buffer.NewStorage[float32](1), inputs, outputs, rec, rec)

	if len(rec.calls) != 1 || rec.calls[0] != "render" {
		t.Fatalf("expected a single render call, got %v", rec.calls)
	}
	if rec.ranges[0] != [2]int{0, 4} {
		t.Fatalf("expected range [0,4), got %v", rec.ranges[0])
	}
}

func TestSplitLeavesEventsAtOrBeyondBufferLength(t *testing.T) {
	q := queueOf(timedInts([2]uint32{1, 10}, [2]uint32{4, 20}, [2]uint32{6, 30}), 4)
	inputs := [][]float32{make([]float32, 4)}
	outputs := chans(1, 4)
	rec := &recorder{}

	Split(q, buffer.NewStorage[float32](1), buffer.NewStorage[float32](1), inputs, outputs, rec, rec)

	if len(rec.events) != 1 || rec.events[0] != 10 {
		t.Fatalf("expected only the event at frame 1, got %v", rec.events)
	}
	assertQueue(t, q, timedInts([2]uint32{4, 20}, [2]uint32{6, 30}))
}

func TestSplitEventOnLastFrameRendersTrailingRange(t *testing.T) {
	q := queueOf(timedInts([2]uint32{3, 7}), 1)
	outputs := chans(1, 4)
	rec := &recorder{}

	Split(q, buffer.NewStorage[float32](0), buffer.NewStorage[float32](1), nil, outputs, rec, rec)

	wantRanges := [][2]int{{0, 3}, {3, 4}}
	if len(rec.ranges) != 2 || rec.ranges[0] != wantRanges[0] || rec.ranges[1] != wantRanges[1] {
		t.Fatalf("expected ranges %v, got %v", wantRanges, rec.ranges)
	}
	if len(rec.events) != 1 || rec.events[0] != 7 {
		t.Fatalf("expected event 7, got %v", rec.events)
	}
}

func TestSplitTakesLengthFromOutputsWhenNoInputs(t *testing.T) {
	q := NewQueue[int](1)
	outputs := chans(2, 8)
	rec := &recorder{offset: 5}

	Split(q, buffer.NewStorage[float32](0), buffer.NewStorage[float32](2), nil, outputs, rec, rec)

	for ch := range outputs {
		for i := range outputs[ch] {
			if outputs[ch][i] != 5 {
				t.Fatalf("output[%d][%d]: expected 5, got %v", ch, i, outputs[ch][i])
			}
		}
	}
}

// The rendered ranges must tile [0, length) with no gaps or overlaps for
// arbitrary event placements, and dispatch must be in ascending frame order.
func TestSplitRangesTileTheBufferUnderRandomLoad(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	const length = 32

	for trial := 0; trial < 200; trial++ {
		q := NewQueue[int](24)
		due := 0
		for i := 0; i < 24; i++ {
			frame := uint32(rng.Intn(length + 8))
			if frame < length {
				due++
			}
			q.Push(At(frame, i), AlwaysAfter)
		}
		inputs := [][]float32{make([]float32, length)}
		outputs := chans(1, length)
		rec := &recorder{}

		Split(q, buffer.NewStorage[float32](1), buffer.NewStorage[float32](1), inputs, outputs, rec, rec)

		if len(rec.events) != due {
			t.Fatalf("trial %d: expected %d dispatched events, got %d", trial, due, len(rec.events))
		}
		pos := 0
		for _, r := range rec.ranges {
			if r[0] != pos {
				t.Fatalf("trial %d: range starts at %d, expected %d (ranges %v)", trial, r[0], pos, rec.ranges)
			}
			if r[1] <= r[0] {
				t.Fatalf("trial %d: empty or inverted range %v", trial, r)
			}
			pos = r[1]
		}
		if pos != length {
			t.Fatalf("trial %d: ranges cover [0,%d), expected [0,%d)", trial, pos, length)
		}
		for i := 0; i < q.Len(); i++ {
			if q.At(i).Frame < length {
				t.Fatalf("trial %d: due event still queued: %+v", trial, q.At(i))
			}
		}
	}
}

type silentSynth struct{}

func (silentSynth) Render(inputs, outputs [][]float32) {}
func (silentSynth) HandleEvent(ev int)                 {}

func TestSplitDoesNotAllocate(t *testing.T) {
	q := NewQueue[int](32)
	inStorage := buffer.NewStorage[float32](2)
	outStorage := buffer.NewStorage[float32](2)
	inputs := chans(2, 64)
	outputs := chans(2, 64)
	var synth silentSynth

	allocs := testing.AllocsPerRun(100, func() {
		for i := 0; i < 8; i++ {
			q.Push(At(uint32(i*9), i), AlwaysAfter)
		}
		Split(q, inStorage, outStorage, inputs, outputs, synth, synth)
		q.ShiftTime(64)
		q.Clear()
	})
	if allocs != 0 {
		t.Fatalf("expected zero allocations during split, got %v", allocs)
	}
}

func BenchmarkSplit(b *testing.B) {
	q := NewQueue[int](64)
	inStorage := buffer.NewStorage[float32](2)
	outStorage := buffer.NewStorage[float32](2)
	inputs := chans(2, 256)
	outputs := chans(2, 256)
	var synth silentSynth

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		for j := 0; j < 16; j++ {
			q.Push(At(uint32(j*16), j), AlwaysAfter)
		}
		Split(q, inStorage, outStorage, inputs, outputs, synth, synth)
	}
}
