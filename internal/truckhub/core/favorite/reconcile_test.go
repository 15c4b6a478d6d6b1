package favorite

import (
	"slices"
	"testing"

	"github.com/truckwatch-io/truckwatch/internal/truckhub/core/model"
)

const (
	off    = model.StatusOffline
	mobile = model.StatusLiveMobile
	static = model.StatusLiveStatic
)

func TestReconcile(t *testing.T) {
	tests := []struct {
		name           string
		previous       model.Statuses
		current        model.Statuses
		favorites      model.Set
		suppressed     model.Set
		wantNotify     []string
		wantSuppressed []string
	}{
		{
			name:           "favorite goes live",
			previous:       model.Statuses{"1": off},
			current:        model.Statuses{"1": mobile},
			favorites:      model.NewSet("1"),
			wantNotify:     []string{"1"},
			wantSuppressed: []string{"1"},
		},
		{
			name:      "non favorite goes live",
			previous:  model.Statuses{"1": off},
			current:   model.Statuses{"1": static},
			favorites: model.NewSet("2"),
		},
		{
			name:           "already suppressed",
			previous:       model.Statuses{"1": off},
			current:        model.Statuses{"1": mobile},
			favorites:      model.NewSet("1"),
			suppressed:     model.NewSet("1"),
			wantSuppressed: []string{"1"},
		},
		{
			name:           "mode switch is not a new episode",
			previous:       model.Statuses{"1": mobile},
			current:        model.Statuses{"1": static},
			favorites:      model.NewSet("1"),
			suppressed:     model.NewSet("1"),
			wantSuppressed: []string{"1"},
		},
		{
			name:       "going offline clears suppression",
			previous:   model.Statuses{"1": mobile},
			current:    model.Statuses{"1": off},
			favorites:  model.NewSet("1"),
			suppressed: model.NewSet("1"),
		},
		{
			name:           "truck unknown before counts as offline",
			previous:       model.Statuses{},
			current:        model.Statuses{"1": mobile, "2": static},
			favorites:      model.NewSet("1", "2"),
			wantNotify:     []string{"1", "2"},
			wantSuppressed: []string{"1", "2"},
		},
		{
			name:       "removed truck leaves suppression",
			previous:   model.Statuses{"1": mobile},
			current:    model.Statuses{},
			favorites:  model.NewSet("1"),
			suppressed: model.NewSet("1"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var before []string
			if tt.suppressed != nil {
				before = tt.suppressed.Sorted()
			}
			favorites := tt.favorites.Sorted()
			got := Reconcile(tt.previous, tt.current, tt.favorites, tt.suppressed)
			if !slices.Equal(got.Notify, tt.wantNotify) {
				t.Errorf("notify = %v, want %v", got.Notify, tt.wantNotify)
			}
			if s := got.Suppressed.Sorted(); !slices.Equal(s, tt.wantSuppressed) {
				t.Errorf("suppressed = %v, want %v", s, tt.wantSuppressed)
			}
			if tt.suppressed != nil && !slices.Equal(tt.suppressed.Sorted(), before) {
				t.Errorf("input suppression set was modified")
			}
			if !slices.Equal(tt.favorites.Sorted(), favorites) {
				t.Errorf("input favorites were modified")
			}
		})
	}
}

func TestWatcherOneNotificationPerEpisode(t *testing.T) {
	w := NewWatcher()
	favs := model.NewSet("1")

	sequence := []model.Status{off, mobile, mobile, static, off, static, mobile, off}
	var total int
	for _, st := range sequence {
		total += len(w.Observe(model.Statuses{"1": st}, favs))
	}
	if total != 2 {
		t.Fatalf("notifications = %d, want 2", total)
	}
}

func TestWatcherNoNotificationOnMount(t *testing.T) {
	w := NewWatcher()
	favs := model.NewSet("1", "2")

	if got := w.Observe(model.Statuses{"1": mobile, "2": off}, favs); len(got) != 0 {
		t.Fatalf("first observation notified %v", got)
	}
	if got := w.Observe(model.Statuses{"1": mobile, "2": off}, favs); len(got) != 0 {
		t.Fatalf("unchanged snapshot notified %v", got)
	}
	if got := w.Observe(model.Statuses{"1": off, "2": static}, favs); !slices.Equal(got, []string{"2"}) {
		t.Fatalf("got %v, want [2]", got)
	}
	if got := w.Observe(model.Statuses{"1": mobile, "2": static}, favs); !slices.Equal(got, []string{"1"}) {
		t.Fatalf("got %v, want [1] after a full offline period", got)
	}
}

func TestWatcherRemovedTruckReturns(t *testing.T) {
	w := NewWatcher()
	favs := model.NewSet("1")

	w.Observe(model.Statuses{"1": off}, favs)
	if got := w.Observe(model.Statuses{"1": mobile}, favs); !slices.Equal(got, []string{"1"}) {
		t.Fatalf("got %v, want [1]", got)
	}
	w.Observe(model.Statuses{}, favs)
	if w.Suppressed().Has("1") {
		t.Fatal("removed truck still suppressed")
	}
	w.Observe(model.Statuses{"1": off}, favs)
	if got := w.Observe(model.Statuses{"1": static}, favs); !slices.Equal(got, []string{"1"}) {
		t.Fatalf("got %v, want [1] for the re-added truck", got)
	}
}

func TestWatcherReset(t *testing.T) {
	w := NewWatcher()
	favs := model.NewSet("1")

	w.Observe(model.Statuses{"1": off}, favs)
	w.Reset()
	if got := w.Observe(model.Statuses{"1": mobile}, favs); len(got) != 0 {
		t.Fatalf("observation after reset notified %v", got)
	}
	if !w.Suppressed().Has("1") {
		t.Fatal("live truck not seeded after reset")
	}
}

func TestWatcherFavoriteAddedWhileLive(t *testing.T) {
	w := NewWatcher()
	w.Observe(model.Statuses{"1": off}, model.NewSet())
	if got := w.Observe(model.Statuses{"1": mobile}, model.NewSet()); len(got) != 0 {
		t.Fatalf("non favorite notified %v", got)
	}
	// Favoriting a truck mid-episode does not announce it.
	if got := w.Observe(model.Statuses{"1": mobile}, model.NewSet("1")); len(got) != 0 {
		t.Fatalf("got %v", got)
	}
}
