// Package fleet loads the trucks and accounts the hub starts with.
package fleet

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"sigs.k8s.io/yaml"

	"github.com/truckwatch-io/truckwatch/internal/truckhub/core"
	"github.com/truckwatch-io/truckwatch/internal/truckhub/core/model"
	"github.com/truckwatch-io/truckwatch/pkg/log"
)

//go:embed seed.yaml
var defaultSeed []byte

// Seed is the initial state of the hub.
type Seed struct {
	Users  []*model.User `json:"users"`
	Trucks []Truck       `json:"trucks"`
}

// Truck is a seeded truck. Status accepts "live" as an alias of live-mobile
// and "static" as an alias of live-static.
type Truck struct {
	ID      string `json:"id"`
	OwnerID string `json:"ownerId"`
	model.Profile
	Status string  `json:"status"`
	Rating float64 `json:"rating"`
}

// Load reads a YAML or JSON seed from path, or the built-in seed when path
// is empty.
func Load(path string) (*Seed, error) {
	data := defaultSeed
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("failed to read fleet seed: %w", err)
		}
	}
	return Parse(data)
}

func Parse(data []byte) (*Seed, error) {
	var s Seed
	if err := yaml.UnmarshalStrict(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse fleet seed: %w", err)
	}
	return &s, nil
}

// ParseStatus maps a seeded status to a truck status.
func ParseStatus(s string) (model.Status, error) {
	switch s {
	case "", string(model.StatusOffline):
		return model.StatusOffline, nil
	case "live", string(model.StatusLiveMobile):
		return model.StatusLiveMobile, nil
	case "static", string(model.StatusLiveStatic):
		return model.StatusLiveStatic, nil
	default:
		return "", fmt.Errorf("%w: unknown truck status %q", model.ErrInvalidArgument, s)
	}
}

// Models returns the seeded trucks ready for the broadcast controller.
func (s *Seed) Models() ([]*model.Truck, error) {
	trucks := make([]*model.Truck, 0, len(s.Trucks))
	for _, t := range s.Trucks {
		status, err := ParseStatus(t.Status)
		if err != nil {
			return nil, fmt.Errorf("truck %s: %w", t.ID, err)
		}
		trucks = append(trucks, &model.Truck{
			ID:      t.ID,
			OwnerID: t.OwnerID,
			Profile: t.Profile,
			Status:  status,
			Rating:  t.Rating,
		})
	}
	return trucks, nil
}

// CreateUsers stores the seeded users. Users that already exist are left
// untouched so a persistent store keeps its changes across restarts.
func (s *Seed) CreateUsers(ctx context.Context, users core.UserRepository) error {
	for _, u := range s.Users {
		if u.Favorites == nil {
			u.Favorites = []string{}
		}
		err := users.Create(ctx, u)
		switch {
		case errors.Is(err, model.ErrUserExists):
			log.Debug("Seed user already exists", "userID", u.ID)
		case err != nil:
			return fmt.Errorf("failed to seed user %s: %w", u.ID, err)
		}
	}
	return nil
}
