package event

import "github.com/cbegin/synthcore-go/buffer"

// Renderer produces output samples from input samples for one contiguous
// frame range. Within a single call, every input and output slice has the
// same length; that length varies between calls.
type Renderer[S any] interface {
	Render(inputs, outputs [][]S)
}

// Split processes one cycle's buffer, interleaving rendering with event
// delivery so that every event takes effect at exactly its scheduled frame.
//
// Every queued event with Frame < the buffer length is removed and handed to
// handler in ascending frame order; events sharing a frame are delivered
// consecutively. Between distinct event frames (and before the first, after
// the last) the renderer is called once with the matching input/output
// sub-ranges, so the rendered ranges tile [0, length) exactly, skipping
// empty ranges. Events at or beyond the buffer length stay queued for the
// next cycle.
//
// inStorage and outStorage must be two distinct Storages sized for the
// channel counts; they make the sub-range views allocation-free. The buffer
// length is taken from the first input channel, or the first output channel
// when there are no inputs; at least one channel is required.
func Split[E, S any](
	q *Queue[E],
	inStorage, outStorage *buffer.Storage[S],
	inputs, outputs [][]S,
	renderer Renderer[S],
	handler Handler[E],
) {
	var length int
	switch {
	case len(inputs) > 0:
		length = len(inputs[0])
	case len(outputs) > 0:
		length = len(outputs[0])
	default:
		panic("event: Split requires at least one input or output channel")
	}

	last := uint32(0)
	for len(q.events) > 0 {
		if q.events[0].Frame >= uint32(length) {
			break
		}
		ev := q.popFront()
		if ev.Frame == last {
			// Same boundary as the previous event: no intervening render.
			handler.HandleEvent(ev.Event)
			continue
		}
		renderRange(int(last), int(ev.Frame), inStorage, outStorage, inputs, outputs, renderer)
		handler.HandleEvent(ev.Event)
		last = ev.Frame
	}
	if int(last) < length {
		renderRange(int(last), length, inStorage, outStorage, inputs, outputs, renderer)
	}
}

func renderRange[S any](
	start, stop int,
	inStorage, outStorage *buffer.Storage[S],
	inputs, outputs [][]S,
	renderer Renderer[S],
) {
	in := buffer.Mid(inStorage, inputs, start, stop)
	out := buffer.Mid(outStorage, outputs, start, stop)
	renderer.Render(in.Slices(), out.Slices())
	out.Release()
	in.Release()
}
