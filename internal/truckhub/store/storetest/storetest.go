// Package storetest holds the behavior every core.Repository implementation
// must share.
package storetest

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/truckwatch-io/truckwatch/internal/truckhub/core"
	"github.com/truckwatch-io/truckwatch/internal/truckhub/core/model"
)

var epoch = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// Run exercises a repository returned by newRepo. Every subtest gets a fresh
// repository.
func Run(t *testing.T, newRepo func(t *testing.T) core.Repository) {
	t.Run("Users", func(t *testing.T) { testUsers(t, newRepo(t)) })
	t.Run("Requests", func(t *testing.T) { testRequests(t, newRepo(t)) })
	t.Run("Reviews", func(t *testing.T) { testReviews(t, newRepo(t)) })
}

func testUsers(t *testing.T, repo core.Repository) {
	ctx := context.Background()
	users := repo.User()

	u := &model.User{
		ID:              "u1",
		Email:           "john@example.com",
		FirstName:       "John",
		HomeCity:        "San Francisco",
		FoodPreferences: []string{"Tacos", "Pizza"},
		Role:            model.RoleUser,
		Favorites:       []string{"1"},
	}
	if err := users.Create(ctx, u); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := users.Create(ctx, u); !errors.Is(err, model.ErrUserExists) {
		t.Fatalf("duplicate Create: err = %v, want ErrUserExists", err)
	}

	got, err := users.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Email != u.Email || got.HomeCity != u.HomeCity || !slices.Equal(got.FoodPreferences, u.FoodPreferences) || !slices.Equal(got.Favorites, u.Favorites) {
		t.Fatalf("Get = %+v, want %+v", got, u)
	}

	got.Role = model.RoleDriverPending
	got.DriverInfo = &model.DriverInfo{LicenseNumber: "D123", BusinessName: "Taco Co", VerificationStatus: model.VerificationPending}
	got.ToggleFavorite("2")
	if err := users.Update(ctx, got); err != nil {
		t.Fatalf("Update: %v", err)
	}
	again, err := users.Get(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if again.Role != model.RoleDriverPending || again.DriverInfo == nil || again.DriverInfo.BusinessName != "Taco Co" {
		t.Fatalf("updated user = %+v", again)
	}
	if !slices.Equal(again.Favorites, []string{"1", "2"}) {
		t.Fatalf("favorites = %v", again.Favorites)
	}

	if _, err := users.Get(ctx, "nobody"); !errors.Is(err, model.ErrUserNotFound) {
		t.Fatalf("Get unknown: err = %v", err)
	}
	if err := users.Update(ctx, &model.User{ID: "nobody"}); !errors.Is(err, model.ErrUserNotFound) {
		t.Fatalf("Update unknown: err = %v", err)
	}

	if err := users.Create(ctx, &model.User{ID: "u0", Email: "a@example.com", Role: model.RoleGuest}); err != nil {
		t.Fatal(err)
	}
	all, err := users.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all[0].ID != "u0" || all[1].ID != "u1" {
		t.Fatalf("List = %v", all)
	}
}

func testRequests(t *testing.T, repo core.Repository) {
	ctx := context.Background()
	requests := repo.Request()

	mk := func(id, user, owner string, age time.Duration) *model.Request {
		return &model.Request{
			ID:        id,
			UserID:    user,
			UserName:  "John",
			TruckID:   "1",
			TruckName: "Taco Paradise",
			OwnerID:   owner,
			Message:   "Can you come to Mission District?",
			Status:    model.RequestPending,
			CreatedAt: epoch.Add(-age),
			UpdatedAt: epoch.Add(-age),
		}
	}

	r1 := mk("r1", "u1", "driver1", 45*time.Minute)
	r1.Location = &model.Location{Lat: 37.7749, Lng: -122.4194}
	for _, r := range []*model.Request{r1, mk("r2", "u1", "driver1", 5*time.Minute), mk("r3", "u2", "driver2", time.Hour)} {
		if err := requests.Create(ctx, r); err != nil {
			t.Fatalf("Create %s: %v", r.ID, err)
		}
	}

	got, err := requests.Get(ctx, "r1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Location == nil || got.Location.Lat != 37.7749 || !got.CreatedAt.Equal(r1.CreatedAt) {
		t.Fatalf("Get = %+v", got)
	}

	byOwner, err := requests.ListByOwner(ctx, "driver1")
	if err != nil {
		t.Fatal(err)
	}
	if ids := requestIDs(byOwner); !slices.Equal(ids, []string{"r2", "r1"}) {
		t.Fatalf("ListByOwner = %v, want newest first", ids)
	}

	byUser, err := requests.ListByUser(ctx, "u2")
	if err != nil {
		t.Fatal(err)
	}
	if ids := requestIDs(byUser); !slices.Equal(ids, []string{"r3"}) {
		t.Fatalf("ListByUser = %v", ids)
	}

	if err := requests.UpdateStatus(ctx, "r3", model.RequestAcknowledged, epoch); err != nil {
		t.Fatal(err)
	}
	stale, err := requests.ListPendingBefore(ctx, epoch.Add(-30*time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if ids := requestIDs(stale); !slices.Equal(ids, []string{"r1"}) {
		t.Fatalf("ListPendingBefore = %v", ids)
	}

	if err := requests.UpdateStatus(ctx, "missing", model.RequestIgnored, epoch); !errors.Is(err, model.ErrRequestNotFound) {
		t.Fatalf("UpdateStatus unknown: err = %v", err)
	}
	if _, err := requests.Get(ctx, "missing"); !errors.Is(err, model.ErrRequestNotFound) {
		t.Fatalf("Get unknown: err = %v", err)
	}
}

func testReviews(t *testing.T, repo core.Repository) {
	ctx := context.Background()
	reviews := repo.Review()

	for i, r := range []*model.Review{
		{ID: "v1", TruckID: "1", UserID: "u1", Rating: 5, Comment: "great", CreatedAt: epoch},
		{ID: "v2", TruckID: "1", UserID: "u2", Rating: 3, CreatedAt: epoch.Add(time.Minute)},
		{ID: "v3", TruckID: "2", UserID: "u1", Rating: 4, CreatedAt: epoch},
	} {
		if err := reviews.Create(ctx, r); err != nil {
			t.Fatalf("Create #%d: %v", i, err)
		}
	}

	dup := &model.Review{ID: "v4", TruckID: "1", UserID: "u1", Rating: 1, CreatedAt: epoch}
	if err := reviews.Create(ctx, dup); !errors.Is(err, model.ErrAlreadyReviewed) {
		t.Fatalf("duplicate review: err = %v", err)
	}

	got, err := reviews.ListByTruck(ctx, "1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "v2" || got[1].Comment != "great" {
		t.Fatalf("ListByTruck = %+v", got)
	}
	if mean, n := model.MeanRating(got); mean != 4 || n != 2 {
		t.Fatalf("mean = %v over %d", mean, n)
	}

	none, err := reviews.ListByTruck(ctx, "9")
	if err != nil || len(none) != 0 {
		t.Fatalf("ListByTruck empty = %v, %v", none, err)
	}
}

func requestIDs(reqs []*model.Request) []string {
	ids := make([]string, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.ID)
	}
	return ids
}
