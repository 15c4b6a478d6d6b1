package notifier

import (
	"context"
	"errors"

	"github.com/truckwatch-io/truckwatch/internal/truckhub/core"
	"github.com/truckwatch-io/truckwatch/internal/truckhub/core/model"
)

// Fanout delivers to every sink and joins their errors. A failing sink does
// not stop delivery to the others.
type Fanout struct {
	status        []core.StatusPublisher
	notifications []core.NotificationPublisher
}

var (
	_ core.StatusPublisher       = (*Fanout)(nil)
	_ core.NotificationPublisher = (*Fanout)(nil)
)

func NewFanout() *Fanout {
	return &Fanout{}
}

// AddStatus adds a status sink.
func (f *Fanout) AddStatus(p core.StatusPublisher) *Fanout {
	f.status = append(f.status, p)
	return f
}

// AddNotifications adds a notification sink.
func (f *Fanout) AddNotifications(p core.NotificationPublisher) *Fanout {
	f.notifications = append(f.notifications, p)
	return f
}

func (f *Fanout) PublishStatus(ctx context.Context, tr model.Transition) error {
	var errs []error
	for _, p := range f.status {
		errs = append(errs, p.PublishStatus(ctx, tr))
	}
	return errors.Join(errs...)
}

func (f *Fanout) Notify(ctx context.Context, n *model.Notification) error {
	var errs []error
	for _, p := range f.notifications {
		errs = append(errs, p.Notify(ctx, n))
	}
	return errors.Join(errs...)
}
