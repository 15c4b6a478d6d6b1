package service

import (
	"context"
	"fmt"

	"github.com/truckwatch-io/truckwatch/internal/pkg/metrics"
	"github.com/truckwatch-io/truckwatch/internal/truckhub/core/broadcast"
	"github.com/truckwatch-io/truckwatch/internal/truckhub/core/favorite"
	"github.com/truckwatch-io/truckwatch/internal/truckhub/core/model"
	"github.com/truckwatch-io/truckwatch/pkg/log"
)

// StartBroadcast puts truckID live in mode for ownerID. Other trucks of the
// owner go offline in the same step.
func (s *Service) StartBroadcast(ctx context.Context, ownerID, truckID string, mode model.BroadcastMode) (*broadcast.Result, error) {
	s.mu.Lock()
	res, err := s.trucks.Start(ctx, ownerID, truckID, mode)
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("failed to start broadcast: %w", err)
	}
	out := s.applyLocked(ctx, res)
	s.commit(out)

	log.Info("Broadcast started", "ownerID", ownerID, "truckID", truckID, "mode", mode, "transitions", len(res.Transitions))
	return res, nil
}

// StopBroadcast ends the owner's broadcast. It is a no-op when the owner is
// not broadcasting.
func (s *Service) StopBroadcast(ctx context.Context, ownerID string) (*broadcast.Result, error) {
	s.mu.Lock()
	res, err := s.trucks.Stop(ctx, ownerID)
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("failed to stop broadcast: %w", err)
	}
	out := s.applyLocked(ctx, res)
	s.commit(out)

	if res.Changed() {
		log.Info("Broadcast stopped", "ownerID", ownerID)
	}
	return res, nil
}

// ActiveSession returns the owner's running broadcast session, or nil.
func (s *Service) ActiveSession(ownerID string) *model.Session {
	return s.trucks.ActiveSession(ownerID)
}

// Watch starts tracking the user's favorites. The first observation is taken
// immediately, so trucks already live are never announced. Watching again
// starts over with a fresh observation.
func (s *Service) Watch(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}

	w, ok := s.watchers[userID]
	if !ok {
		w = favorite.NewWatcher()
		s.watchers[userID] = w
	}
	w.Reset()
	w.Observe(s.trucks.Snapshot(), user.FavoriteSet())
	metrics.WatchersActive.Set(float64(len(s.watchers)))
	return nil
}

// Unwatch stops tracking the user's favorites.
func (s *Service) Unwatch(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.watchers, userID)
	metrics.WatchersActive.Set(float64(len(s.watchers)))
}

// Watching reports whether the user has an active watcher.
func (s *Service) Watching(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.watchers[userID]
	return ok
}
