package psi

// #region history

// History is a fixed-capacity ring buffer of States. When full, Push evicts
// the oldest entry. It is append-only and owned by a single Estimator.
type History struct {
	buf   []State
	start int
	size  int
}

// NewHistory allocates a ring buffer. A non-positive capacity falls back to
// the default of 100.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultConfig().HistoryCapacity
	}
	return &History{buf: make([]State, capacity)}
}

// Push appends s, evicting the oldest entry if the buffer is full.
func (h *History) Push(s State) {
	if h.size < len(h.buf) {
		h.buf[(h.start+h.size)%len(h.buf)] = s
		h.size++
		return
	}
	h.buf[h.start] = s
	h.start = (h.start + 1) % len(h.buf)
}

// Len returns the number of stored states.
func (h *History) Len() int { return h.size }

// Cap returns the buffer capacity.
func (h *History) Cap() int { return len(h.buf) }

// At returns the i-th state, oldest first. It panics if i is out of range.
func (h *History) At(i int) State {
	if i < 0 || i >= h.size {
		panic("psi: history index out of range")
	}
	return h.buf[(h.start+i)%len(h.buf)]
}

// Last returns up to n most recent states, oldest first.
func (h *History) Last(n int) []State {
	if n > h.size {
		n = h.size
	}
	if n <= 0 {
		return nil
	}
	out := make([]State, n)
	for i := 0; i < n; i++ {
		out[i] = h.At(h.size - n + i)
	}
	return out
}

// Snapshot returns every stored state, oldest first.
func (h *History) Snapshot() []State {
	return h.Last(h.size)
}

// #endregion history
