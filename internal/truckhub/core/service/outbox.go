package service

import (
	"context"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/truckwatch-io/truckwatch/internal/pkg/metrics"
	"github.com/truckwatch-io/truckwatch/internal/truckhub/core/broadcast"
	"github.com/truckwatch-io/truckwatch/internal/truckhub/core/model"
	"github.com/truckwatch-io/truckwatch/pkg/log"
)

// outbox collects the effects of one mutation for delivery once the
// critical section is over.
type outbox struct {
	ctx           context.Context
	transitions   []model.Transition
	notifications []*model.Notification
	ended         []*model.Session
}

func (o *outbox) empty() bool {
	return len(o.transitions) == 0 && len(o.notifications) == 0 && len(o.ended) == 0
}

// applyLocked turns a controller result into an outbox. When a truck
// changed status every watcher is reconciled against the new snapshot.
func (s *Service) applyLocked(ctx context.Context, res *broadcast.Result) *outbox {
	out := &outbox{
		ctx:         ctx,
		transitions: res.Transitions,
		ended:       res.Ended,
	}
	if !res.Changed() {
		return out
	}

	snapshot := s.trucks.Snapshot()
	for _, tr := range res.Transitions {
		metrics.BroadcastTransitionsTotal.WithLabelValues(tr.Event).Inc()
	}
	updateLiveGauge(snapshot)

	out.notifications = s.reconcileLocked(ctx, snapshot)
	return out
}

// reconcileLocked runs every watcher against snapshot, in user id order.
func (s *Service) reconcileLocked(ctx context.Context, snapshot model.Statuses) []*model.Notification {
	var notifications []*model.Notification
	now := s.clock.Now()

	for _, userID := range slices.Sorted(maps.Keys(s.watchers)) {
		user, err := s.users.Get(ctx, userID)
		if err != nil {
			log.Error(err, "Failed to load favorites for watcher", "userID", userID)
			continue
		}
		for _, truckID := range s.watchers[userID].Observe(snapshot, user.FavoriteSet()) {
			n := &model.Notification{
				ID:        uuid.NewString(),
				UserID:    userID,
				TruckID:   truckID,
				Status:    snapshot[truckID],
				CreatedAt: now,
			}
			if t, err := s.trucks.Truck(truckID); err == nil {
				n.TruckName = t.Name
			}
			notifications = append(notifications, n)
		}
	}
	return notifications
}

func updateLiveGauge(snapshot model.Statuses) {
	var mobile, static float64
	for _, st := range snapshot {
		switch st {
		case model.StatusLiveMobile:
			mobile++
		case model.StatusLiveStatic:
			static++
		}
	}
	metrics.LiveTrucks.WithLabelValues(string(model.ModeMobile)).Set(mobile)
	metrics.LiveTrucks.WithLabelValues(string(model.ModeStatic)).Set(static)
}

// DefaultDeliveryTimeout bounds the delivery of one mutation's outbox.
const DefaultDeliveryTimeout = 30 * time.Second

// commit queues the outbox, releases mu and delivers everything queued so
// far. Outboxes are queued under mu and drained in order under pubMu, so
// deliveries follow mutation order while mu stays free for other callers.
// Failures are logged and counted, never rolled back.
func (s *Service) commit(out *outbox) {
	if !out.empty() {
		s.queueMu.Lock()
		s.queue = append(s.queue, out)
		s.queueMu.Unlock()
	}
	s.mu.Unlock()

	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	s.queueMu.Lock()
	batch := s.queue
	s.queue = nil
	s.queueMu.Unlock()

	for _, o := range batch {
		s.deliver(o)
	}
}

// deliveryContext keeps the values of ctx but not its cancellation.
func (s *Service) deliveryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(context.WithoutCancel(ctx), s.deliveryTimeout)
}

func (s *Service) deliver(out *outbox) {
	ctx, cancel := s.deliveryContext(out.ctx)
	defer cancel()

	for _, tr := range out.transitions {
		if err := s.status.PublishStatus(ctx, tr); err != nil {
			metrics.PublishFailuresTotal.WithLabelValues("status").Inc()
			log.Error(err, "Failed to publish status transition", "truckID", tr.TruckID, "to", tr.To)
		}
	}
	for _, n := range out.notifications {
		if err := s.notifier.Notify(ctx, n); err != nil {
			metrics.NotificationsTotal.WithLabelValues("failed").Inc()
			metrics.PublishFailuresTotal.WithLabelValues("notification").Inc()
			log.Error(err, "Failed to deliver notification", "userID", n.UserID, "truckID", n.TruckID)
			continue
		}
		metrics.NotificationsTotal.WithLabelValues("sent").Inc()
		log.Debug("Notified user", "userID", n.UserID, "truckID", n.TruckID, "status", n.Status)
	}
	for _, sess := range out.ended {
		if err := s.archive.Archive(ctx, sess); err != nil {
			metrics.PublishFailuresTotal.WithLabelValues("archive").Inc()
			log.Error(err, "Failed to archive session", "sessionID", sess.ID, "ownerID", sess.OwnerID)
		}
	}
}
