package common

// Ring is a bounded FIFO that keeps the most recent values.
// Once full, each Push overwrites the oldest entry.
// Ring is not safe for concurrent use; callers own their synchronisation.
type Ring[T any] struct {
	buffer   []T
	size     int
	writePos int
	count    int
}

// NewRing creates a ring holding at most size values. A size below 1 is raised to 1.
func NewRing[T any](size int) *Ring[T] {
	if size < 1 {
		size = 1
	}
	return &Ring[T]{
		buffer: make([]T, size),
		size:   size,
	}
}

// Push appends v and reports whether an older value was evicted to make room.
func (r *Ring[T]) Push(v T) bool {
	r.buffer[r.writePos] = v
	r.writePos = (r.writePos + 1) % r.size
	if r.count < r.size {
		r.count++
		return false
	}
	return true
}

// At returns the i-th value counting from the oldest (0).
func (r *Ring[T]) At(i int) (T, bool) {
	var zero T
	if i < 0 || i >= r.count {
		return zero, false
	}
	return r.buffer[r.index(i)], true
}

// Values returns a copy of the contents, oldest first.
func (r *Ring[T]) Values() []T {
	out := make([]T, r.count)
	for i := range r.count {
		out[i] = r.buffer[r.index(i)]
	}
	return out
}

// Len returns the number of stored values.
func (r *Ring[T]) Len() int {
	return r.count
}

// Cap returns the maximum number of stored values.
func (r *Ring[T]) Cap() int {
	return r.size
}

// IsEmpty returns true if nothing has been pushed since creation or the last Clear
func (r *Ring[T]) IsEmpty() bool {
	return r.count == 0
}

// IsFull returns true if the next Push will evict
func (r *Ring[T]) IsFull() bool {
	return r.count == r.size
}

// Clear empties the ring
func (r *Ring[T]) Clear() {
	var zero T
	for i := range r.buffer {
		r.buffer[i] = zero
	}
	r.writePos = 0
	r.count = 0
}

// index maps a logical position (0 = oldest) to a slot in buffer
func (r *Ring[T]) index(i int) int {
	start := r.writePos - r.count
	if start < 0 {
		start += r.size
	}
	return (start + i) % r.size
}
