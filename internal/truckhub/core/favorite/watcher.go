package favorite

import (
	"sync"

	"github.com/truckwatch-io/truckwatch/internal/truckhub/core/model"
)

// Watcher tracks one user's view of the fleet between snapshots.
type Watcher struct {
	mu         sync.Mutex
	previous   model.Statuses
	suppressed model.Set
}

func NewWatcher() *Watcher {
	return &Watcher{}
}

// Observe records current and returns the favorite trucks to announce. The
// first observation only seeds the suppression set, so trucks that were
// already live when watching began are never announced.
func (w *Watcher) Observe(current model.Statuses, favorites model.Set) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	snapshot := cloneStatuses(current)
	if w.previous == nil {
		w.previous = snapshot
		w.suppressed = Seed(snapshot)
		return nil
	}

	res := Reconcile(w.previous, snapshot, favorites, w.suppressed)
	w.previous = snapshot
	w.suppressed = res.Suppressed
	return res.Notify
}

// Reset forgets the last snapshot. The next Observe is a first observation.
func (w *Watcher) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.previous = nil
	w.suppressed = nil
}

// Suppressed returns a copy of the current suppression set.
func (w *Watcher) Suppressed() model.Set {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.suppressed.Clone()
}

func cloneStatuses(s model.Statuses) model.Statuses {
	out := make(model.Statuses, len(s))
	for id, st := range s {
		out[id] = st
	}
	return out
}
