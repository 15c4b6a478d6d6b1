package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/truckwatch-io/truckwatch/internal/truckhub/core/model"
	"github.com/truckwatch-io/truckwatch/pkg/log"
)

// ListTrucks returns every truck, or only the owner's when ownerID is set.
func (s *Service) ListTrucks(ownerID string) []*model.Truck {
	if ownerID != "" {
		return s.trucks.TrucksByOwner(ownerID)
	}
	return s.trucks.Trucks()
}

func (s *Service) GetTruck(id string) (*model.Truck, error) {
	return s.trucks.Truck(id)
}

// AddTruck registers a truck for an active driver.
func (s *Service) AddTruck(ctx context.Context, ownerID string, t *model.Truck) (*model.Truck, error) {
	if err := s.requireDriver(ctx, ownerID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t = t.Clone()
	t.OwnerID = ownerID
	added, err := s.trucks.AddTruck(t)
	if err != nil {
		return nil, fmt.Errorf("failed to add truck: %w", err)
	}
	log.Info("Truck added", "ownerID", ownerID, "truckID", added.ID, "name", added.Name)
	return added, nil
}

// UpdateTruck replaces the profile of one of the owner's trucks.
func (s *Service) UpdateTruck(ownerID, truckID string, p model.Profile) (*model.Truck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.trucks.UpdateProfile(ownerID, truckID, p)
}

// RemoveTruck deletes one of the owner's trucks, ending its broadcast if it
// is live.
func (s *Service) RemoveTruck(ctx context.Context, ownerID, truckID string) error {
	s.mu.Lock()
	res, err := s.trucks.RemoveTruck(ctx, ownerID, truckID)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	out := s.applyLocked(ctx, res)
	s.commit(out)

	log.Info("Truck removed", "ownerID", ownerID, "truckID", truckID)
	return nil
}

func (s *Service) requireDriver(ctx context.Context, userID string) error {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return fmt.Errorf("%w: %s", model.ErrNotDriver, userID)
		}
		return err
	}
	if u.Role != model.RoleDriverActive {
		return fmt.Errorf("%w: %s is %s", model.ErrNotDriver, userID, u.Role)
	}
	return nil
}
