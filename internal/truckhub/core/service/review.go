package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/truckwatch-io/truckwatch/internal/truckhub/core/model"
)

// SubmitReview stores a user's rating of a truck and refreshes the truck's
// aggregate. A user reviews a truck at most once.
func (s *Service) SubmitReview(ctx context.Context, userID, truckID string, rating int, comment string) (*model.Review, error) {
	if rating < model.MinRating || rating > model.MaxRating {
		return nil, fmt.Errorf("%w: got %d", model.ErrInvalidRating, rating)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.users.Get(ctx, userID); err != nil {
		return nil, err
	}
	if _, err := s.trucks.Truck(truckID); err != nil {
		return nil, err
	}

	r := &model.Review{
		ID:        uuid.NewString(),
		TruckID:   truckID,
		UserID:    userID,
		Rating:    rating,
		Comment:   strings.TrimSpace(comment),
		CreatedAt: s.clock.Now(),
	}
	if err := s.reviews.Create(ctx, r); err != nil {
		return nil, err
	}

	all, err := s.reviews.ListByTruck(ctx, truckID)
	if err != nil {
		return nil, fmt.Errorf("failed to load reviews: %w", err)
	}
	mean, count := model.MeanRating(all)
	if err := s.trucks.SetRating(truckID, mean, count); err != nil {
		return nil, err
	}
	return r, nil
}

// Reviews lists the reviews of a truck, newest first.
func (s *Service) Reviews(ctx context.Context, truckID string) ([]*model.Review, error) {
	if _, err := s.trucks.Truck(truckID); err != nil {
		return nil, err
	}
	return s.reviews.ListByTruck(ctx, truckID)
}

// RestoreRatings recomputes the rating of every truck that has stored
// reviews. Trucks without reviews keep the rating they were loaded with.
func (s *Service) RestoreRatings(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.trucks.Trucks() {
		all, err := s.reviews.ListByTruck(ctx, t.ID)
		if err != nil {
			return fmt.Errorf("failed to load reviews of truck %s: %w", t.ID, err)
		}
		if len(all) == 0 {
			continue
		}
		mean, count := model.MeanRating(all)
		if err := s.trucks.SetRating(t.ID, mean, count); err != nil {
			return err
		}
	}
	return nil
}
