package broadcast

import (
	"context"
	"errors"
	"testing"
	"time"

	testingclock "k8s.io/utils/clock/testing"

	"github.com/truckwatch-io/truckwatch/internal/truckhub/core/model"
)

var epoch = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// newFleet returns a controller with two trucks for owner o1 and one for o2,
// all offline.
func newFleet(t *testing.T) (*Controller, *testingclock.FakeClock) {
	t.Helper()
	clk := testingclock.NewFakeClock(epoch)
	c, err := NewController([]*model.Truck{
		{ID: "A", OwnerID: "o1", Profile: model.Profile{Name: "Taco Paradise"}},
		{ID: "B", OwnerID: "o1", Profile: model.Profile{Name: "Taco Paradise II"}},
		{ID: "C", OwnerID: "o2", Profile: model.Profile{Name: "Burger Boss"}},
	}, WithClock(clk))
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	return c, clk
}

func assertStatus(t *testing.T, c *Controller, want map[string]model.Status) {
	t.Helper()
	snap := c.Snapshot()
	for id, st := range want {
		if snap[id] != st {
			t.Errorf("truck %s: status = %s, want %s", id, snap[id], st)
		}
	}
}

// assertExclusive checks that no owner has more than one live truck.
func assertExclusive(t *testing.T, c *Controller) {
	t.Helper()
	live := map[string]string{}
	for _, tr := range c.Trucks() {
		if !tr.Status.IsLive() {
			if tr.BroadcastMode != model.ModeNone {
				t.Errorf("offline truck %s has mode %q", tr.ID, tr.BroadcastMode)
			}
			continue
		}
		if other, ok := live[tr.OwnerID]; ok {
			t.Fatalf("owner %s has trucks %s and %s live", tr.OwnerID, other, tr.ID)
		}
		live[tr.OwnerID] = tr.ID
	}
}

func TestStartStopScenario(t *testing.T) {
	ctx := context.Background()
	c, _ := newFleet(t)

	res, err := c.Start(ctx, "o1", "A", model.ModeMobile)
	if err != nil {
		t.Fatalf("start A: %v", err)
	}
	assertStatus(t, c, map[string]model.Status{"A": model.StatusLiveMobile, "B": model.StatusOffline})
	if len(res.Transitions) != 1 || res.Transitions[0].Event != EventStartMobile {
		t.Fatalf("transitions = %+v", res.Transitions)
	}
	if s := c.ActiveSession("o1"); s == nil || s.TruckID != "A" || s.Mode != model.ModeMobile {
		t.Fatalf("session = %+v", s)
	}

	res, err = c.Start(ctx, "o1", "B", model.ModeStatic)
	if err != nil {
		t.Fatalf("start B: %v", err)
	}
	assertStatus(t, c, map[string]model.Status{"A": model.StatusOffline, "B": model.StatusLiveStatic})
	assertExclusive(t, c)
	if len(res.Transitions) != 2 {
		t.Fatalf("expected preempt and start, got %+v", res.Transitions)
	}
	if res.Transitions[0].TruckID != "A" || res.Transitions[0].Event != EventPreempt {
		t.Errorf("first transition = %+v", res.Transitions[0])
	}
	if len(res.Ended) != 1 || res.Ended[0].TruckID != "A" || res.Ended[0].EndReason != model.EndReasonPreempted {
		t.Errorf("ended = %+v", res.Ended)
	}

	res, err = c.Stop(ctx, "o1")
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	assertStatus(t, c, map[string]model.Status{"A": model.StatusOffline, "B": model.StatusOffline})
	if c.ActiveSession("o1") != nil {
		t.Fatal("session still active after stop")
	}
	if len(res.Ended) != 1 || res.Ended[0].EndReason != model.EndReasonStopped {
		t.Errorf("ended = %+v", res.Ended)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	ctx := context.Background()
	c, _ := newFleet(t)
	if _, err := c.Start(ctx, "o2", "C", model.ModeStatic); err != nil {
		t.Fatal(err)
	}
	before := c.Snapshot()

	res, err := c.Stop(ctx, "o1")
	if err != nil {
		t.Fatal(err)
	}
	if res.Changed() || len(res.Ended) != 0 {
		t.Fatalf("stop without session changed state: %+v", res)
	}
	after := c.Snapshot()
	for id := range before {
		if before[id] != after[id] {
			t.Errorf("truck %s changed from %s to %s", id, before[id], after[id])
		}
	}

	if _, err := c.Stop(ctx, "o2"); err != nil {
		t.Fatal(err)
	}
	res, err = c.Stop(ctx, "o2")
	if err != nil || res.Changed() {
		t.Fatalf("second stop: %+v, %v", res, err)
	}
}

func TestModeSwitchKeepsSession(t *testing.T) {
	ctx := context.Background()
	c, clk := newFleet(t)

	first, err := c.Start(ctx, "o1", "A", model.ModeStatic)
	if err != nil {
		t.Fatal(err)
	}
	clk.Step(time.Minute)
	res, err := c.Start(ctx, "o1", "A", model.ModeMobile)
	if err != nil {
		t.Fatal(err)
	}
	assertStatus(t, c, map[string]model.Status{"A": model.StatusLiveMobile, "B": model.StatusOffline})
	assertExclusive(t, c)

	if len(res.Ended) != 0 {
		t.Fatalf("mode switch ended a session: %+v", res.Ended)
	}
	if res.Session.ID != first.Session.ID || res.Session.Mode != model.ModeMobile {
		t.Fatalf("session = %+v, want id %s in mobile mode", res.Session, first.Session.ID)
	}
	if !res.Session.StartedAt.Equal(epoch) {
		t.Errorf("started at %v, want %v", res.Session.StartedAt, epoch)
	}
	if got := res.Transitions[0]; got.From != model.StatusLiveStatic || got.To != model.StatusLiveMobile || !got.At.Equal(epoch.Add(time.Minute)) {
		t.Errorf("transition = %+v", got)
	}
}

func TestStartSameModeIsNoop(t *testing.T) {
	ctx := context.Background()
	c, _ := newFleet(t)
	if _, err := c.Start(ctx, "o1", "A", model.ModeMobile); err != nil {
		t.Fatal(err)
	}
	res, err := c.Start(ctx, "o1", "A", model.ModeMobile)
	if err != nil {
		t.Fatal(err)
	}
	if res.Changed() {
		t.Fatalf("unexpected transitions: %+v", res.Transitions)
	}
}

func TestStartRejectsInvalidReferences(t *testing.T) {
	ctx := context.Background()
	c, _ := newFleet(t)
	if _, err := c.Start(ctx, "o1", "A", model.ModeMobile); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		owner   string
		truck   string
		mode    model.BroadcastMode
		wantErr error
	}{
		{"unknown truck", "o1", "Z", model.ModeMobile, model.ErrTruckNotFound},
		{"foreign truck", "o1", "C", model.ModeMobile, model.ErrNotOwner},
		{"bad mode", "o1", "B", "flying", model.ErrInvalidMode},
		{"empty mode", "o1", "B", model.ModeNone, model.ErrInvalidMode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := c.Snapshot()
			_, err := c.Start(ctx, tt.owner, tt.truck, tt.mode)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			after := c.Snapshot()
			for id := range before {
				if before[id] != after[id] {
					t.Errorf("truck %s changed on failed start", id)
				}
			}
		})
	}
}

func TestExclusivityUnderCommandSequence(t *testing.T) {
	ctx := context.Background()
	c, _ := newFleet(t)

	steps := []struct {
		owner, truck string
		mode         model.BroadcastMode
		stop         bool
	}{
		{owner: "o1", truck: "A", mode: model.ModeMobile},
		{owner: "o2", truck: "C", mode: model.ModeStatic},
		{owner: "o1", truck: "B", mode: model.ModeMobile},
		{owner: "o1", truck: "B", mode: model.ModeStatic},
		{owner: "o1", truck: "A", mode: model.ModeStatic},
		{owner: "o1", stop: true},
		{owner: "o1", truck: "B", mode: model.ModeMobile},
		{owner: "o2", stop: true},
	}
	for i, s := range steps {
		var err error
		if s.stop {
			_, err = c.Stop(ctx, s.owner)
		} else {
			_, err = c.Start(ctx, s.owner, s.truck, s.mode)
		}
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		assertExclusive(t, c)
	}
	assertStatus(t, c, map[string]model.Status{"A": model.StatusOffline, "B": model.StatusLiveMobile, "C": model.StatusOffline})
}

func TestNewControllerSeeding(t *testing.T) {
	c, err := NewController([]*model.Truck{
		{ID: "1", OwnerID: "driver1", Status: model.StatusLiveMobile},
		{ID: "3", OwnerID: "driver3", Status: model.StatusLiveStatic},
		{ID: "5", OwnerID: "driver3"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if s := c.ActiveSession("driver3"); s == nil || s.TruckID != "3" || s.Mode != model.ModeStatic {
		t.Fatalf("seeded session = %+v", s)
	}
	tr, _ := c.Truck("5")
	if tr.Status != model.StatusOffline {
		t.Errorf("unseeded status = %s", tr.Status)
	}

	_, err = NewController([]*model.Truck{
		{ID: "1", OwnerID: "driver1", Status: model.StatusLiveMobile},
		{ID: "2", OwnerID: "driver1", Status: model.StatusLiveStatic},
	})
	if !errors.Is(err, model.ErrExclusivity) {
		t.Fatalf("err = %v, want ErrExclusivity", err)
	}

	_, err = NewController([]*model.Truck{{ID: "1", OwnerID: "d"}, {ID: "1", OwnerID: "d"}})
	if !errors.Is(err, model.ErrTruckExists) {
		t.Fatalf("err = %v, want ErrTruckExists", err)
	}
}

func TestFleetManagement(t *testing.T) {
	ctx := context.Background()
	c, _ := newFleet(t)

	added, err := c.AddTruck(&model.Truck{ID: "D", OwnerID: "o2", Status: model.StatusLiveMobile})
	if err != nil {
		t.Fatal(err)
	}
	if added.Status != model.StatusOffline {
		t.Fatalf("new truck status = %s", added.Status)
	}
	if _, err := c.AddTruck(&model.Truck{ID: "D", OwnerID: "o2"}); !errors.Is(err, model.ErrTruckExists) {
		t.Fatalf("err = %v", err)
	}

	if _, err := c.Start(ctx, "o2", "D", model.ModeMobile); err != nil {
		t.Fatal(err)
	}
	updated, err := c.UpdateProfile("o2", "D", model.Profile{Name: "Sushi Express", FoodType: "Sushi"})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Name != "Sushi Express" || updated.Status != model.StatusLiveMobile {
		t.Fatalf("updated = %+v", updated)
	}
	if _, err := c.UpdateProfile("o1", "D", model.Profile{}); !errors.Is(err, model.ErrNotOwner) {
		t.Fatalf("err = %v", err)
	}

	res, err := c.RemoveTruck(ctx, "o2", "D")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Ended) != 1 || res.Ended[0].EndReason != model.EndReasonRemoved {
		t.Fatalf("ended = %+v", res.Ended)
	}
	if c.ActiveSession("o2") != nil {
		t.Fatal("session survived truck removal")
	}
	if _, err := c.Truck("D"); !errors.Is(err, model.ErrTruckNotFound) {
		t.Fatalf("err = %v", err)
	}

	if err := c.SetRating("A", 4.5, 2); err != nil {
		t.Fatal(err)
	}
	a, _ := c.Truck("A")
	if a.Rating != 4.5 || a.ReviewCount != 2 {
		t.Fatalf("rating = %v/%d", a.Rating, a.ReviewCount)
	}
	if got := len(c.TrucksByOwner("o1")); got != 2 {
		t.Fatalf("TrucksByOwner = %d", got)
	}
}

func TestReturnedTrucksAreCopies(t *testing.T) {
	c, _ := newFleet(t)
	tr, _ := c.Truck("A")
	tr.Status = model.StatusLiveMobile
	if c.Snapshot()["A"] != model.StatusOffline {
		t.Fatal("mutating a returned truck changed the controller")
	}
}
