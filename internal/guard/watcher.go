package guard

import "sync"

// Watcher re-evaluates a guard on every render and reports a redirect as
// actionable only once per settled decision, so re-renders cannot loop.
type Watcher struct {
	guard *Guard

	mu    sync.Mutex
	last  Decision
	acted bool
}

func NewWatcher(g *Guard) *Watcher {
	return &Watcher{guard: g}
}

// Observe returns the current decision and whether the caller should perform
// its redirect now.
func (w *Watcher) Observe(s State) (Decision, bool) {
	d := w.guard.Decide(s)

	w.mu.Lock()
	defer w.mu.Unlock()
	if d.Outcome != Redirect {
		w.last, w.acted = d, false
		return d, false
	}
	if w.acted && w.last == d {
		return d, false
	}
	w.last, w.acted = d, true
	return d, true
}
