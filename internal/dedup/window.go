package dedup

// Window is a bounded set of recently delivered item fingerprints. It is an
// in-process defense against duplicate fingerprints within one lifetime; the
// authoritative idempotency check is the cursor plus the sink's own
// duplicate detection.
type Window struct {
	capacity int
	order    []string
	seen     map[string]struct{}
}

const defaultCapacity = 4096

// NewWindow returns a window holding at most capacity fingerprints.
func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Window{
		capacity: capacity,
		seen:     make(map[string]struct{}, capacity),
	}
}

// Seen reports whether the fingerprint is currently in the window.
func (w *Window) Seen(fp string) bool {
	_, ok := w.seen[fp]
	return ok
}

// Record adds the fingerprint to the window. When capacity is exceeded the
// oldest quarter of entries is evicted so memory stays bounded.
func (w *Window) Record(fp string) {
	if _, ok := w.seen[fp]; ok {
		return
	}
	if len(w.order) >= w.capacity {
		w.evictOldest()
	}
	w.seen[fp] = struct{}{}
	w.order = append(w.order, fp)
}

// Len returns the number of fingerprints currently held.
func (w *Window) Len() int {
	return len(w.order)
}

func (w *Window) evictOldest() {
	drop := w.capacity / 4
	if drop < 1 {
		drop = 1
	}
	if drop > len(w.order) {
		drop = len(w.order)
	}
	for _, fp := range w.order[:drop] {
		delete(w.seen, fp)
	}
	w.order = append(w.order[:0], w.order[drop:]...)
}
