package window

import (
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/stretchr/testify/assert"
)

func pointer(typ gpucontext.PointerEventType, x float64) Event {
	return Event{PointerEvent: gpucontext.PointerEvent{Type: typ, X: x}}
}

func TestEventQueueDropsOldestMove(t *testing.T) {
	q := newEventQueue(3)
	q.push(pointer(gpucontext.PointerMove, 1))
	q.push(pointer(gpucontext.PointerDown, 2))
	q.push(pointer(gpucontext.PointerMove, 3))
	q.push(pointer(gpucontext.PointerUp, 4))

	got := q.drain(nil)
	assert.Len(t, got, 3)
	assert.Equal(t, []float64{2, 3, 4}, []float64{got[0].X, got[1].X, got[2].X})
	assert.Equal(t, uint64(1), q.droppedCount())
	assert.Empty(t, q.drain(nil))
}

func TestEventQueueKeepsButtons(t *testing.T) {
	q := newEventQueue(2)
	q.push(pointer(gpucontext.PointerDown, 1))
	q.push(pointer(gpucontext.PointerUp, 2))
	q.push(pointer(gpucontext.PointerMove, 3))
	q.push(pointer(gpucontext.PointerDown, 4))

	got := q.drain(nil)
	assert.Len(t, got, 3)
	for _, ev := range got {
		assert.False(t, ev.IsMove())
	}
	assert.Equal(t, uint64(1), q.droppedCount())
}

func TestEventQueueDrainAppends(t *testing.T) {
	q := newEventQueue(0)
	q.push(pointer(gpucontext.PointerMove, 7))

	dst := []Event{pointer(gpucontext.PointerUp, 1)}
	dst = q.drain(dst)
	assert.Len(t, dst, 2)
	assert.Equal(t, 7.0, dst[1].X)
}
