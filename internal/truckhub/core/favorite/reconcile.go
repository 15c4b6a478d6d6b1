package favorite

import (
	"maps"
	"slices"

	"github.com/truckwatch-io/truckwatch/internal/truckhub/core/model"
)

// Result is the outcome of one reconcile pass.
type Result struct {
	// Notify lists the favorite trucks that just went live, in id order.
	Notify []string
	// Suppressed is the suppression set to use for the next pass.
	Suppressed model.Set
}

// Reconcile compares two status snapshots and returns the favorite trucks
// that went live since previous and have not been announced in their
// current live episode. A truck leaves the suppression set once it is seen
// offline or is missing from current. None of the inputs are modified.
func Reconcile(previous, current model.Statuses, favorites, suppressed model.Set) Result {
	next := suppressed.Clone()
	var notify []string

	for _, id := range slices.Sorted(maps.Keys(current)) {
		wasLive := previous[id].IsLive()
		isLive := current[id].IsLive()

		if !wasLive && isLive && favorites.Has(id) && !next.Has(id) {
			notify = append(notify, id)
			next.Insert(id)
		}
		if !isLive && next.Has(id) {
			next.Delete(id)
		}
	}
	for _, id := range next.Sorted() {
		if _, ok := current[id]; !ok {
			next.Delete(id)
		}
	}
	return Result{Notify: notify, Suppressed: next}
}

// Seed returns the suppression set for a first observation: every truck that
// is already live.
func Seed(current model.Statuses) model.Set {
	return model.NewSet(current.Live()...)
}
