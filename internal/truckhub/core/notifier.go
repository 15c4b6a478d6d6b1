package core

import (
	"context"

	"github.com/truckwatch-io/truckwatch/internal/truckhub/core/model"
)

// StatusPublisher announces truck status transitions to subscribers.
// Implemented by the MQTT notifier and the WebSocket hub.
type StatusPublisher interface {
	PublishStatus(ctx context.Context, tr model.Transition) error
}

// NotificationPublisher delivers favorite-truck notifications to a user.
type NotificationPublisher interface {
	Notify(ctx context.Context, n *model.Notification) error
}

// SessionArchive keeps ended broadcast sessions.
type SessionArchive interface {
	Archive(ctx context.Context, s *model.Session) error
}
