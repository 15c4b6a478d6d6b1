package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/truckwatch-io/truckwatch/internal/truckhub/core/model"
	"github.com/truckwatch-io/truckwatch/pkg/log"
)

// RegisterUser creates a consumer account and starts watching its
// favorites. Driver roles are only reachable through onboarding.
func (s *Service) RegisterUser(ctx context.Context, u *model.User) (*model.User, error) {
	u = u.Clone()
	u.Email = strings.TrimSpace(u.Email)
	if u.Email == "" {
		return nil, fmt.Errorf("%w: email is required", model.ErrInvalidArgument)
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	switch u.Role {
	case "":
		u.Role = model.RoleUser
	case model.RoleUser, model.RoleGuest:
	default:
		return nil, fmt.Errorf("%w: cannot register with role %s", model.ErrInvalidArgument, u.Role)
	}
	u.DriverInfo = nil
	if u.Favorites == nil {
		u.Favorites = []string{}
	}

	if err := s.users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	if err := s.Watch(ctx, u.ID); err != nil {
		return nil, err
	}

	log.Info("User registered", "userID", u.ID, "role", u.Role)
	return u, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*model.User, error) {
	return s.users.Get(ctx, id)
}

// ToggleFavorite adds or removes a truck from the user's favorites and
// reports whether it is now a favorite.
func (s *Service) ToggleFavorite(ctx context.Context, userID, truckID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	if !u.HasFavorite(truckID) {
		if _, err := s.trucks.Truck(truckID); err != nil {
			return false, err
		}
	}

	favorited := u.ToggleFavorite(truckID)
	if err := s.users.Update(ctx, u); err != nil {
		return false, fmt.Errorf("failed to update favorites: %w", err)
	}
	return favorited, nil
}

// Favorites returns the user's favorite trucks that still exist.
func (s *Service) Favorites(ctx context.Context, userID string) ([]*model.Truck, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	trucks := make([]*model.Truck, 0, len(u.Favorites))
	for _, id := range u.Favorites {
		if t, err := s.trucks.Truck(id); err == nil {
			trucks = append(trucks, t)
		}
	}
	return trucks, nil
}

// ApplyForDriver records a driver application and moves the user to
// driver-pending.
func (s *Service) ApplyForDriver(ctx context.Context, userID, licenseNumber, businessName string) (*model.User, error) {
	licenseNumber = strings.TrimSpace(licenseNumber)
	businessName = strings.TrimSpace(businessName)
	if licenseNumber == "" || businessName == "" {
		return nil, fmt.Errorf("%w: license number and business name are required", model.ErrInvalidArgument)
	}

	return s.updateRole(ctx, userID, EventApply, func(u *model.User) {
		u.DriverInfo = &model.DriverInfo{
			LicenseNumber: licenseNumber,
			BusinessName:  businessName,
		}
	})
}

// ApproveDriver activates a pending driver.
func (s *Service) ApproveDriver(ctx context.Context, userID string) (*model.User, error) {
	return s.updateRole(ctx, userID, EventApprove, nil)
}

// RejectDriver turns a pending driver back into a regular user.
func (s *Service) RejectDriver(ctx context.Context, userID string) (*model.User, error) {
	return s.updateRole(ctx, userID, EventReject, nil)
}

func (s *Service) updateRole(ctx context.Context, userID, event string, prepare func(*model.User)) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if prepare != nil {
		prepare(u)
	}
	if err := onboard(ctx, u, event); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	log.Info("Driver onboarding", "userID", userID, "event", event, "role", u.Role)
	return u, nil
}
