package monitor

import "sync"

// History is a bounded FIFO of snapshots, oldest first.
type History struct {
	mu    sync.RWMutex
	size  int
	items []Snapshot
}

// NewHistory creates a history keeping at most size snapshots.
func NewHistory(size int) *History {
	if size <= 0 {
		size = 1
	}
	return &History{size: size, items: make([]Snapshot, 0, size)}
}

// Add appends s, dropping the oldest entry when full.
func (h *History) Add(s Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.items) == h.size {
		copy(h.items, h.items[1:])
		h.items = h.items[:len(h.items)-1]
	}
	h.items = append(h.items, s)
}

// Len returns the number of stored snapshots.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.items)
}

// Points returns at most maxPoints snapshots evenly spread over the
// history. maxPoints <= 0 returns everything.
func (h *History) Points(maxPoints int) []Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if maxPoints <= 0 {
		maxPoints = len(h.items)
	}
	return Downsample(nil, h.items, maxPoints)
}

// Downsample decimates src to at most maxPoints elements.
// Destination-based: reuses dst if it has sufficient capacity, otherwise allocates new.
func Downsample[T any](dst []T, src []T, maxPoints int) []T {
	if len(src) <= maxPoints {
		if cap(dst) >= len(src) {
			dst = dst[:len(src)]
			copy(dst, src)
			return dst
		}
		result := make([]T, len(src))
		copy(result, src)
		return result
	}

	if cap(dst) >= maxPoints {
		dst = dst[:0]
	} else {
		dst = make([]T, 0, maxPoints)
	}

	step := float64(len(src)) / float64(maxPoints)
	for i := range maxPoints {
		idx := int(float64(i) * step)
		if idx < len(src) {
			dst = append(dst, src[idx])
		}
	}
	return dst
}
