package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/truckwatch-io/truckwatch/internal/pkg/metrics"
	"github.com/truckwatch-io/truckwatch/internal/truckhub/core/model"
	"github.com/truckwatch-io/truckwatch/pkg/log"
)

// SendRequest asks a live truck to come to the user.
func (s *Service) SendRequest(ctx context.Context, userID, truckID, message string, loc *model.Location) (*model.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	t, err := s.trucks.Truck(truckID)
	if err != nil {
		return nil, err
	}
	if !t.Status.IsLive() {
		return nil, fmt.Errorf("%w: %s", model.ErrTruckOffline, truckID)
	}

	now := s.clock.Now()
	req := &model.Request{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		UserName:  u.FirstName,
		TruckID:   t.ID,
		TruckName: t.Name,
		OwnerID:   t.OwnerID,
		Message:   strings.TrimSpace(message),
		Status:    model.RequestPending,
		Location:  loc,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	metrics.RequestsTotal.WithLabelValues(string(model.RequestPending)).Inc()
	log.Info("Request sent", "requestID", req.ID, "userID", userID, "truckID", truckID)
	return req, nil
}

// AcknowledgeRequest accepts a pending request addressed to one of the
// owner's trucks.
func (s *Service) AcknowledgeRequest(ctx context.Context, ownerID, requestID string) (*model.Request, error) {
	return s.transitionRequest(ctx, ownerID, requestID, EventAcknowledge)
}

// IgnoreRequest declines a pending request addressed to one of the owner's
// trucks.
func (s *Service) IgnoreRequest(ctx context.Context, ownerID, requestID string) (*model.Request, error) {
	return s.transitionRequest(ctx, ownerID, requestID, EventIgnore)
}

func (s *Service) transitionRequest(ctx context.Context, ownerID, requestID, event string) (*model.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: request %s, owner %s", model.ErrNotOwner, requestID, ownerID)
	}
	if err := s.setRequestStatus(ctx, req, event); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *Service) setRequestStatus(ctx context.Context, req *model.Request, event string) error {
	next, err := nextRequestStatus(ctx, req.Status, event)
	if err != nil {
		return err
	}
	now := s.clock.Now()
	if err := s.requests.UpdateStatus(ctx, req.ID, next, now); err != nil {
		return fmt.Errorf("failed to update request %s: %w", req.ID, err)
	}
	req.Status = next
	req.UpdatedAt = now
	metrics.RequestsTotal.WithLabelValues(string(next)).Inc()
	return nil
}

// ExpireRequests marks pending requests older than ttl as expired and
// returns how many were expired.
func (s *Service) ExpireRequests(ctx context.Context, ttl time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stale, err := s.requests.ListPendingBefore(ctx, s.clock.Now().Add(-ttl))
	if err != nil {
		return 0, fmt.Errorf("failed to list stale requests: %w", err)
	}
	expired := 0
	for _, req := range stale {
		if err := s.setRequestStatus(ctx, req, EventExpire); err != nil {
			log.Error(err, "Failed to expire request", "requestID", req.ID)
			continue
		}
		expired++
	}
	if expired > 0 {
		log.Info("Expired stale requests", "count", expired, "ttl", ttl)
	}
	return expired, nil
}

// RequestsForOwner lists requests addressed to the owner's trucks, newest
// first.
func (s *Service) RequestsForOwner(ctx context.Context, ownerID string) ([]*model.Request, error) {
	return s.requests.ListByOwner(ctx, ownerID)
}

// RequestsForUser lists the user's requests, newest first.
func (s *Service) RequestsForUser(ctx context.Context, userID string) ([]*model.Request, error) {
	if _, err := s.users.Get(ctx, userID); err != nil {
		return nil, err
	}
	return s.requests.ListByUser(ctx, userID)
}
