package fleet

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/truckwatch-io/truckwatch/internal/truckhub/core/broadcast"
	"github.com/truckwatch-io/truckwatch/internal/truckhub/core/model"
	"github.com/truckwatch-io/truckwatch/internal/truckhub/store/memory"
)

func TestDefaultSeed(t *testing.T) {
	seed, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	trucks, err := seed.Models()
	if err != nil {
		t.Fatal(err)
	}
	if len(trucks) != 4 {
		t.Fatalf("got %d trucks", len(trucks))
	}

	want := map[string]model.Status{
		"1": model.StatusLiveMobile,
		"2": model.StatusLiveMobile,
		"3": model.StatusLiveStatic,
		"4": model.StatusLiveMobile,
	}
	for _, tr := range trucks {
		if tr.Status != want[tr.ID] {
			t.Errorf("truck %s status = %s, want %s", tr.ID, tr.Status, want[tr.ID])
		}
		if tr.Name == "" || tr.OwnerID == "" {
			t.Errorf("truck %s incomplete: %+v", tr.ID, tr)
		}
	}
	if trucks[2].Name != "Pizza on Wheels" || trucks[2].Location.Lat != 37.7745 {
		t.Errorf("truck 3 = %+v", trucks[2])
	}

	// The seed must satisfy the one-live-truck-per-owner rule.
	if _, err := broadcast.NewController(trucks); err != nil {
		t.Fatalf("controller rejected the default seed: %v", err)
	}
}

func TestCreateUsersIsRepeatable(t *testing.T) {
	ctx := context.Background()
	seed, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	repo := memory.New()
	for i := 0; i < 2; i++ {
		if err := seed.CreateUsers(ctx, repo.User()); err != nil {
			t.Fatalf("pass %d: %v", i, err)
		}
	}
	u, err := repo.User().Get(ctx, "driver3")
	if err != nil {
		t.Fatal(err)
	}
	if u.Role != model.RoleDriverActive || u.DriverInfo == nil {
		t.Errorf("driver3 = %+v", u)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fleet.json")
	data := `{"trucks":[{"id":"7","ownerId":"o","name":"Gelato Go","foodType":"Ice cream","status":"offline"}]}`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	seed, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	trucks, err := seed.Models()
	if err != nil {
		t.Fatal(err)
	}
	if len(trucks) != 1 || trucks[0].Name != "Gelato Go" || trucks[0].Status != model.StatusOffline {
		t.Fatalf("trucks = %+v", trucks)
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := Parse([]byte("trucks:\n  - id: x\n    colour: red\n")); err == nil {
		t.Error("unknown field accepted")
	}

	seed, err := Parse([]byte("trucks:\n  - id: x\n    status: parked\n"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := seed.Models(); !errors.Is(err, model.ErrInvalidArgument) {
		t.Errorf("Models() error = %v", err)
	}
}
