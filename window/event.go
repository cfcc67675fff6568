package window

import (
	"sync"

	"github.com/gogpu/gpucontext"
)

// defaultEventLimit bounds the number of queued move events.
const defaultEventLimit = 256

// Event is a pointer event on the window's opaque area. The embedded
// PointerEvent carries window-local coordinates.
type Event struct {
	gpucontext.PointerEvent

	// ScreenX and ScreenY are the desktop coordinates of the pointer.
	ScreenX, ScreenY float64
}

// IsMove reports whether e is a pointer move.
func (e Event) IsMove() bool { return e.Type == gpucontext.PointerMove }

// eventQueue carries events by value from the native dispatch context to
// the frame loop. When full, the oldest move event is dropped; button
// events are never dropped.
type eventQueue struct {
	mu      sync.Mutex
	buf     []Event
	limit   int
	dropped uint64
}

func newEventQueue(limit int) *eventQueue {
	if limit <= 0 {
		limit = defaultEventLimit
	}
	return &eventQueue{limit: limit}
}

func (q *eventQueue) push(ev Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.buf) >= q.limit {
		i := q.oldestMove()
		switch {
		case i >= 0:
			q.buf = append(q.buf[:i], q.buf[i+1:]...)
			q.dropped++
		case ev.IsMove():
			q.dropped++
			return
		}
	}
	q.buf = append(q.buf, ev)
}

func (q *eventQueue) oldestMove() int {
	for i := range q.buf {
		if q.buf[i].IsMove() {
			return i
		}
	}
	return -1
}

// drain appends all queued events to dst and empties the queue.
func (q *eventQueue) drain(dst []Event) []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	dst = append(dst, q.buf...)
	q.buf = q.buf[:0]
	return dst
}

func (q *eventQueue) droppedCount() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
