package l6stability

import "github.com/banshee-data/touchd/internal/touch"

// History is a fixed-capacity FIFO of committed frames. Slots are recycled:
// committing a frame overwrites the contents of the oldest slot in place, so
// a steady-state stream does not reallocate.
type History struct {
	frames []touch.Frame
	head   int // slot of the oldest frame, next to be overwritten
}

// NewHistory creates a history holding capacity empty frames. Capacities
// below one are raised to one.
func NewHistory(capacity int) *History {
	return &History{frames: make([]touch.Frame, max(capacity, 1))}
}

// Len returns the number of retained frames. It is constant: empty slots
// count as empty frames.
func (h *History) Len() int {
	return len(h.frames)
}

// Oldest returns the frame that will be evicted by the next Commit.
func (h *History) Oldest() touch.Frame {
	return h.frames[h.head]
}

// Newest returns the most recently committed frame.
func (h *History) Newest() touch.Frame {
	return h.frames[(h.head+len(h.frames)-1)%len(h.frames)]
}

// Each calls fn for every retained frame, newest first, until fn returns
// false.
func (h *History) Each(fn func(touch.Frame) bool) {
	n := len(h.frames)
	for i := 1; i <= n; i++ {
		if !fn(h.frames[(h.head+n-i)%n]) {
			return
		}
	}
}

// Commit evicts the oldest frame and stores a copy of frame as the newest.
func (h *History) Commit(frame touch.Frame) {
	h.frames[h.head] = frame.CopyInto(h.frames[h.head])
	h.head = (h.head + 1) % len(h.frames)
}

// Reset empties every slot while keeping its capacity.
func (h *History) Reset() {
	for i := range h.frames {
		h.frames[i] = h.frames[i][:0]
	}
}
