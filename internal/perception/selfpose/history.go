package selfpose

// History is a fixed-depth ring indexed by cycles ago. It starts filled
// with zero values, so every index below its depth is always readable.
type History[T any] struct {
	buf  []T
	head int // index of the newest element
}

// NewHistory creates a ring of depth size (at least 1).
func NewHistory[T any](size int) *History[T] {
	if size < 1 {
		size = 1
	}
	return &History[T]{buf: make([]T, size)}
}

// Push stores v as the newest element, dropping the oldest.
func (h *History[T]) Push(v T) {
	h.head = (h.head + 1) % len(h.buf)
	h.buf[h.head] = v
}

// At returns the element pushed ago cycles before the newest one. Indices
// outside [0, depth) return the zero value.
func (h *History[T]) At(ago int) T {
	var zero T
	if ago < 0 || ago >= len(h.buf) {
		return zero
	}
	return h.buf[(h.head-ago+len(h.buf))%len(h.buf)]
}

// Depth returns the ring size.
func (h *History[T]) Depth() int { return len(h.buf) }

// Slice returns a copy of the ring, newest first.
func (h *History[T]) Slice() []T {
	out := make([]T, len(h.buf))
	for i := range out {
		out[i] = h.At(i)
	}
	return out
}
