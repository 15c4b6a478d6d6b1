package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	testingclock "k8s.io/utils/clock/testing"

	"github.com/truckwatch-io/truckwatch/internal/truckhub/core/broadcast"
	"github.com/truckwatch-io/truckwatch/internal/truckhub/core/model"
	"github.com/truckwatch-io/truckwatch/internal/truckhub/store/memory"
)

var epoch = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// recorder captures everything the service publishes.
type recorder struct {
	mu            sync.Mutex
	transitions   []model.Transition
	notifications []*model.Notification
	archived      []*model.Session
	failNotify    bool
	doneContexts  int

	// When set, Notify signals entered and waits for release.
	entered chan struct{}
	release chan struct{}
}

func (r *recorder) PublishStatus(ctx context.Context, tr model.Transition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ctx.Err() != nil {
		r.doneContexts++
	}
	r.transitions = append(r.transitions, tr)
	return nil
}

func (r *recorder) Notify(ctx context.Context, n *model.Notification) error {
	if r.release != nil {
		r.entered <- struct{}{}
		<-r.release
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNotify {
		return errors.New("broker unavailable")
	}
	if ctx.Err() != nil {
		r.doneContexts++
	}
	r.notifications = append(r.notifications, n)
	return nil
}

func (r *recorder) Archive(_ context.Context, s *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.archived = append(r.archived, s)
	return nil
}

func (r *recorder) notified(userID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for _, n := range r.notifications {
		if n.UserID == userID {
			ids = append(ids, n.TruckID)
		}
	}
	return ids
}

type fixture struct {
	svc   *Service
	repo  *memory.Store
	rec   *recorder
	clock *testingclock.FakeClock
}

// newFixture seeds trucks A and B for driver1 (A live) and C for driver2,
// plus the two drivers and a consumer u1.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	clk := testingclock.NewFakeClock(epoch)

	ctrl, err := broadcast.NewController([]*model.Truck{
		{ID: "A", OwnerID: "driver1", Profile: model.Profile{Name: "Taco Paradise"}, Status: model.StatusLiveMobile},
		{ID: "B", OwnerID: "driver1", Profile: model.Profile{Name: "Taco Paradise II"}},
		{ID: "C", OwnerID: "driver2", Profile: model.Profile{Name: "Burger Boss"}},
	}, broadcast.WithClock(clk))
	if err != nil {
		t.Fatal(err)
	}

	repo := memory.New()
	for _, u := range []*model.User{
		{ID: "driver1", Email: "d1@example.com", Role: model.RoleDriverActive},
		{ID: "driver2", Email: "d2@example.com", Role: model.RoleDriverActive},
	} {
		if err := repo.User().Create(ctx, u); err != nil {
			t.Fatal(err)
		}
	}

	rec := &recorder{}
	svc := New(ctrl, repo,
		WithClock(clk),
		WithStatusPublisher(rec),
		WithNotificationPublisher(rec),
		WithSessionArchive(rec),
	)
	if _, err := svc.RegisterUser(ctx, &model.User{ID: "u1", Email: "john@example.com", FirstName: "John"}); err != nil {
		t.Fatal(err)
	}
	return &fixture{svc: svc, repo: repo, rec: rec, clock: clk}
}

func TestBroadcastNotifiesFavorites(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for _, id := range []string{"A", "B", "C"} {
		if _, err := f.svc.ToggleFavorite(ctx, "u1", id); err != nil {
			t.Fatal(err)
		}
	}

	// B preempts A; A was live before u1 started watching and is never announced.
	if _, err := f.svc.StartBroadcast(ctx, "driver1", "B", model.ModeStatic); err != nil {
		t.Fatal(err)
	}
	if got := f.rec.notified("u1"); len(got) != 1 || got[0] != "B" {
		t.Fatalf("notified = %v, want [B]", got)
	}
	if len(f.rec.transitions) != 2 || f.rec.transitions[0].TruckID != "A" || f.rec.transitions[1].TruckID != "B" {
		t.Fatalf("transitions = %+v", f.rec.transitions)
	}
	if len(f.rec.archived) != 1 || f.rec.archived[0].EndReason != model.EndReasonPreempted {
		t.Fatalf("archived = %+v", f.rec.archived)
	}

	// Switching mode stays in the same episode.
	if _, err := f.svc.StartBroadcast(ctx, "driver1", "B", model.ModeMobile); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.StartBroadcast(ctx, "driver2", "C", model.ModeMobile); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.StopBroadcast(ctx, "driver1"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.StartBroadcast(ctx, "driver1", "B", model.ModeStatic); err != nil {
		t.Fatal(err)
	}

	got := f.rec.notified("u1")
	want := []string{"B", "C", "B"}
	if len(got) != len(want) {
		t.Fatalf("notified = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("notified = %v, want %v", got, want)
		}
	}
	if n := f.rec.notifications[0]; n.TruckName != "Taco Paradise II" || n.Status != model.StatusLiveStatic || !n.CreatedAt.Equal(epoch) {
		t.Fatalf("notification = %+v", n)
	}
}

func TestNoNotificationWithoutWatcher(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if _, err := f.svc.ToggleFavorite(ctx, "u1", "C"); err != nil {
		t.Fatal(err)
	}
	f.svc.Unwatch("u1")
	if f.svc.Watching("u1") {
		t.Fatal("still watching after Unwatch")
	}
	if _, err := f.svc.StartBroadcast(ctx, "driver2", "C", model.ModeMobile); err != nil {
		t.Fatal(err)
	}
	if got := f.rec.notified("u1"); len(got) != 0 {
		t.Fatalf("notified = %v", got)
	}

	// Watching again while C is live seeds it as already announced.
	if err := f.svc.Watch(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.StartBroadcast(ctx, "driver2", "C", model.ModeStatic); err != nil {
		t.Fatal(err)
	}
	if got := f.rec.notified("u1"); len(got) != 0 {
		t.Fatalf("notified after remount = %v", got)
	}
}

func TestNotificationFailureDoesNotRollBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.rec.failNotify = true

	if _, err := f.svc.ToggleFavorite(ctx, "u1", "C"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.StartBroadcast(ctx, "driver2", "C", model.ModeMobile); err != nil {
		t.Fatalf("publish failure surfaced: %v", err)
	}
	tr, _ := f.svc.GetTruck("C")
	if tr.Status != model.StatusLiveMobile {
		t.Fatalf("status = %s", tr.Status)
	}
}

func TestDeliveryOutlivesCaller(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f.svc.mu.Lock()
	f.svc.commit(&outbox{
		ctx:           ctx,
		transitions:   []model.Transition{{TruckID: "C", From: model.StatusOffline, To: model.StatusLiveMobile}},
		notifications: []*model.Notification{{ID: "n1", UserID: "u1", TruckID: "C"}},
	})

	if got := f.rec.notified("u1"); len(got) != 1 || got[0] != "C" {
		t.Fatalf("notified = %v, want [C]", got)
	}
	if f.rec.doneContexts != 0 {
		t.Fatalf("%d deliveries saw a cancelled context", f.rec.doneContexts)
	}
}

func TestSlowPublisherDoesNotBlockMutations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	if _, err := f.svc.ToggleFavorite(ctx, "u1", "C"); err != nil {
		t.Fatal(err)
	}
	f.rec.entered = make(chan struct{})
	f.rec.release = make(chan struct{})

	started := make(chan error, 1)
	go func() {
		_, err := f.svc.StartBroadcast(ctx, "driver2", "C", model.ModeMobile)
		started <- err
	}()
	<-f.rec.entered

	toggled := make(chan error, 1)
	go func() {
		_, err := f.svc.ToggleFavorite(ctx, "u1", "A")
		toggled <- err
	}()
	select {
	case err := <-toggled:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("mutation blocked behind a pending delivery")
	}

	close(f.rec.release)
	if err := <-started; err != nil {
		t.Fatal(err)
	}
	if got := f.rec.notified("u1"); len(got) != 1 || got[0] != "C" {
		t.Fatalf("notified = %v, want [C]", got)
	}
}

func TestStartBroadcastErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if _, err := f.svc.StartBroadcast(ctx, "driver2", "A", model.ModeMobile); !errors.Is(err, model.ErrNotOwner) {
		t.Fatalf("err = %v, want ErrNotOwner", err)
	}
	if _, err := f.svc.StartBroadcast(ctx, "driver1", "Z", model.ModeMobile); !errors.Is(err, model.ErrTruckNotFound) {
		t.Fatalf("err = %v, want ErrTruckNotFound", err)
	}
	if len(f.rec.transitions) != 0 {
		t.Fatalf("failed starts published %+v", f.rec.transitions)
	}

	res, err := f.svc.StopBroadcast(ctx, "driver2")
	if err != nil || res.Changed() {
		t.Fatalf("stop without session: %+v, %v", res, err)
	}
}

func TestFleetOperations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if _, err := f.svc.AddTruck(ctx, "u1", &model.Truck{ID: "X"}); !errors.Is(err, model.ErrNotDriver) {
		t.Fatalf("err = %v, want ErrNotDriver", err)
	}
	added, err := f.svc.AddTruck(ctx, "driver2", &model.Truck{ID: "D", Profile: model.Profile{Name: "Sushi Express"}})
	if err != nil {
		t.Fatal(err)
	}
	if added.OwnerID != "driver2" || added.Status != model.StatusOffline {
		t.Fatalf("added = %+v", added)
	}
	if got := f.svc.ListTrucks("driver2"); len(got) != 2 {
		t.Fatalf("ListTrucks = %d", len(got))
	}
	if _, err := f.svc.UpdateTruck("driver2", "D", model.Profile{Name: "Sushi Express", FoodType: "Sushi"}); err != nil {
		t.Fatal(err)
	}

	if err := f.svc.RemoveTruck(ctx, "driver1", "A"); err != nil {
		t.Fatal(err)
	}
	if f.svc.ActiveSession("driver1") != nil {
		t.Fatal("session survived removal")
	}
	if len(f.rec.archived) != 1 || f.rec.archived[0].EndReason != model.EndReasonRemoved {
		t.Fatalf("archived = %+v", f.rec.archived)
	}
	if len(f.svc.ListTrucks("")) != 3 {
		t.Fatalf("ListTrucks = %v", f.svc.ListTrucks(""))
	}
}

func TestReaddedTruckIsAnnounced(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	if _, err := f.svc.ToggleFavorite(ctx, "u1", "B"); err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.StartBroadcast(ctx, "driver1", "B", model.ModeMobile); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.RemoveTruck(ctx, "driver1", "B"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.AddTruck(ctx, "driver1", &model.Truck{ID: "B", Profile: model.Profile{Name: "Taco Paradise II"}}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.StartBroadcast(ctx, "driver1", "B", model.ModeStatic); err != nil {
		t.Fatal(err)
	}

	got := f.rec.notified("u1")
	if len(got) != 2 || got[0] != "B" || got[1] != "B" {
		t.Fatalf("notified = %v, want [B B]", got)
	}
}

func TestFavorites(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if _, err := f.svc.ToggleFavorite(ctx, "u1", "Z"); !errors.Is(err, model.ErrTruckNotFound) {
		t.Fatalf("err = %v", err)
	}
	on, err := f.svc.ToggleFavorite(ctx, "u1", "C")
	if err != nil || !on {
		t.Fatalf("toggle on: %v, %v", on, err)
	}
	favs, err := f.svc.Favorites(ctx, "u1")
	if err != nil || len(favs) != 1 || favs[0].ID != "C" {
		t.Fatalf("favorites = %v, %v", favs, err)
	}
	on, err = f.svc.ToggleFavorite(ctx, "u1", "C")
	if err != nil || on {
		t.Fatalf("toggle off: %v, %v", on, err)
	}
	if _, err := f.svc.ToggleFavorite(ctx, "ghost", "C"); !errors.Is(err, model.ErrUserNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestRegisterUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if _, err := f.svc.RegisterUser(ctx, &model.User{Email: " "}); !errors.Is(err, model.ErrInvalidArgument) {
		t.Fatalf("err = %v", err)
	}
	if _, err := f.svc.RegisterUser(ctx, &model.User{Email: "x@example.com", Role: model.RoleDriverActive}); !errors.Is(err, model.ErrInvalidArgument) {
		t.Fatalf("err = %v", err)
	}
	if _, err := f.svc.RegisterUser(ctx, &model.User{ID: "u1", Email: "again@example.com"}); !errors.Is(err, model.ErrUserExists) {
		t.Fatalf("err = %v", err)
	}
	u, err := f.svc.RegisterUser(ctx, &model.User{Email: "jane@example.com", FirstName: "Jane"})
	if err != nil {
		t.Fatal(err)
	}
	if u.ID == "" || u.Role != model.RoleUser || !f.svc.Watching(u.ID) {
		t.Fatalf("registered = %+v", u)
	}
}

func TestDriverOnboarding(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if _, err := f.svc.ApproveDriver(ctx, "u1"); !errors.Is(err, model.ErrInvalidTransition) {
		t.Fatalf("approve without application: err = %v", err)
	}
	if _, err := f.svc.ApplyForDriver(ctx, "u1", "", "Taco Co"); !errors.Is(err, model.ErrInvalidArgument) {
		t.Fatalf("err = %v", err)
	}

	u, err := f.svc.ApplyForDriver(ctx, "u1", "D123", "Taco Co")
	if err != nil {
		t.Fatal(err)
	}
	if u.Role != model.RoleDriverPending || u.DriverInfo.VerificationStatus != model.VerificationPending {
		t.Fatalf("after apply = %+v", u)
	}
	if _, err := f.svc.ApplyForDriver(ctx, "u1", "D123", "Taco Co"); !errors.Is(err, model.ErrInvalidTransition) {
		t.Fatalf("second apply: err = %v", err)
	}

	u, err = f.svc.RejectDriver(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if u.Role != model.RoleUser || u.DriverInfo.VerificationStatus != model.VerificationRejected {
		t.Fatalf("after reject = %+v", u)
	}

	if _, err := f.svc.ApplyForDriver(ctx, "u1", "D124", "Taco Co"); err != nil {
		t.Fatal(err)
	}
	u, err = f.svc.ApproveDriver(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if u.Role != model.RoleDriverActive || u.DriverInfo.VerificationStatus != model.VerificationApproved {
		t.Fatalf("after approve = %+v", u)
	}
	stored, _ := f.svc.GetUser(ctx, "u1")
	if stored.Role != model.RoleDriverActive {
		t.Fatalf("stored role = %s", stored.Role)
	}
	if _, err := f.svc.AddTruck(ctx, "u1", &model.Truck{ID: "N"}); err != nil {
		t.Fatalf("approved driver cannot add truck: %v", err)
	}
}

func TestRequestLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if _, err := f.svc.SendRequest(ctx, "u1", "C", "hi", nil); !errors.Is(err, model.ErrTruckOffline) {
		t.Fatalf("err = %v, want ErrTruckOffline", err)
	}

	req, err := f.svc.SendRequest(ctx, "u1", "A", " Can you come to Mission District? ", &model.Location{Lat: 37.7749, Lng: -122.4194})
	if err != nil {
		t.Fatal(err)
	}
	if req.Status != model.RequestPending || req.OwnerID != "driver1" || req.TruckName != "Taco Paradise" || req.UserName != "John" {
		t.Fatalf("request = %+v", req)
	}

	if _, err := f.svc.AcknowledgeRequest(ctx, "driver2", req.ID); !errors.Is(err, model.ErrNotOwner) {
		t.Fatalf("err = %v, want ErrNotOwner", err)
	}
	f.clock.Step(time.Minute)
	acked, err := f.svc.AcknowledgeRequest(ctx, "driver1", req.ID)
	if err != nil {
		t.Fatal(err)
	}
	if acked.Status != model.RequestAcknowledged || !acked.UpdatedAt.Equal(epoch.Add(time.Minute)) {
		t.Fatalf("acknowledged = %+v", acked)
	}
	if _, err := f.svc.IgnoreRequest(ctx, "driver1", req.ID); !errors.Is(err, model.ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
	if _, err := f.svc.IgnoreRequest(ctx, "driver1", "missing"); !errors.Is(err, model.ErrRequestNotFound) {
		t.Fatalf("err = %v, want ErrRequestNotFound", err)
	}

	list, err := f.svc.RequestsForOwner(ctx, "driver1")
	if err != nil || len(list) != 1 || list[0].Status != model.RequestAcknowledged {
		t.Fatalf("RequestsForOwner = %v, %v", list, err)
	}
}

func TestExpireRequests(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	old, err := f.svc.SendRequest(ctx, "u1", "A", "first", nil)
	if err != nil {
		t.Fatal(err)
	}
	f.clock.Step(20 * time.Minute)
	fresh, err := f.svc.SendRequest(ctx, "u1", "A", "second", nil)
	if err != nil {
		t.Fatal(err)
	}

	f.clock.Step(15 * time.Minute)
	n, err := f.svc.ExpireRequests(ctx, 30*time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expired %d, want 1", n)
	}

	list, err := f.svc.RequestsForUser(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	status := map[string]model.RequestStatus{}
	for _, r := range list {
		status[r.ID] = r.Status
	}
	if status[old.ID] != model.RequestExpired || status[fresh.ID] != model.RequestPending {
		t.Fatalf("statuses = %v", status)
	}

	if n, _ := f.svc.ExpireRequests(ctx, 30*time.Minute); n != 0 {
		t.Fatalf("second sweep expired %d", n)
	}
}

func TestReviews(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	if _, err := f.svc.RegisterUser(ctx, &model.User{ID: "u2", Email: "jane@example.com"}); err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.SubmitReview(ctx, "u1", "A", 6, ""); !errors.Is(err, model.ErrInvalidRating) {
		t.Fatalf("err = %v", err)
	}
	if _, err := f.svc.SubmitReview(ctx, "u1", "A", 5, "Best tacos"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.SubmitReview(ctx, "u1", "A", 1, "changed my mind"); !errors.Is(err, model.ErrAlreadyReviewed) {
		t.Fatalf("err = %v", err)
	}
	if _, err := f.svc.SubmitReview(ctx, "u2", "A", 2, ""); err != nil {
		t.Fatal(err)
	}

	tr, _ := f.svc.GetTruck("A")
	if tr.Rating != 3.5 || tr.ReviewCount != 2 {
		t.Fatalf("aggregate = %v/%d", tr.Rating, tr.ReviewCount)
	}
	reviews, err := f.svc.Reviews(ctx, "A")
	if err != nil || len(reviews) != 2 {
		t.Fatalf("reviews = %v, %v", reviews, err)
	}
	if _, err := f.svc.Reviews(ctx, "Z"); !errors.Is(err, model.ErrTruckNotFound) {
		t.Fatalf("err = %v", err)
	}
}
