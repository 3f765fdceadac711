package pool

import "github.com/vocdoni/shielded-pool/types"

// rootWindow tracks the current accumulator root plus the most recent
// RootWindowSize past roots, so requests proved against a slightly stale root
// still anchor. Older roots are evicted FIFO.
type rootWindow struct {
	current types.Hash32
	past    [types.RootWindowSize]types.Hash32
	count   int
	next    int
}

func newRootWindow(initial types.Hash32) *rootWindow {
	return &rootWindow{current: initial}
}

// Current returns the live root.
func (w *rootWindow) Current() types.Hash32 { return w.current }

// Known reports whether r is the current root or one of the retained past
// roots.
func (w *rootWindow) Known(r types.Hash32) bool {
	if r == w.current {
		return true
	}
	for i := 0; i < w.count; i++ {
		if w.past[i] == r {
			return true
		}
	}
	return false
}

// Push retires the current root into the past ring and installs r.
func (w *rootWindow) Push(r types.Hash32) {
	w.past[w.next] = w.current
	w.next = (w.next + 1) % types.RootWindowSize
	if w.count < types.RootWindowSize {
		w.count++
	}
	w.current = r
}

// Roots returns the retained past roots, most recent first.
func (w *rootWindow) Roots() []types.Hash32 {
	out := make([]types.Hash32, 0, w.count)
	for i := 1; i <= w.count; i++ {
		out = append(out, w.past[(w.next-i+types.RootWindowSize)%types.RootWindowSize])
	}
	return out
}

// Clone returns a copy of the window.
func (w *rootWindow) Clone() *rootWindow {
	c := *w
	return &c
}
