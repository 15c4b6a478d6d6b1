package service

import (
	"context"
	"sync"
	"time"

	"k8s.io/utils/clock"

	"github.com/truckwatch-io/truckwatch/internal/truckhub/core"
	"github.com/truckwatch-io/truckwatch/internal/truckhub/core/broadcast"
	"github.com/truckwatch-io/truckwatch/internal/truckhub/core/favorite"
	"github.com/truckwatch-io/truckwatch/internal/truckhub/core/model"
)

// Service implements the use cases of the hub on top of the broadcast
// controller, the repositories and the outbound publishers.
//
// Every mutation and the reconcile pass that follows it run under mu, so a
// watcher never sees a half-applied broadcast change. Their outboxes are
// queued under mu and delivered after it is released, under pubMu, in
// mutation order.
type Service struct {
	mu      sync.Mutex
	pubMu   sync.Mutex
	queueMu sync.Mutex
	queue   []*outbox

	trucks   *broadcast.Controller
	users    core.UserRepository
	requests core.RequestRepository
	reviews  core.ReviewRepository

	status   core.StatusPublisher
	notifier core.NotificationPublisher
	archive  core.SessionArchive

	clock           clock.PassiveClock
	deliveryTimeout time.Duration
	watchers        map[string]*favorite.Watcher // userID -> watcher
}

type Option func(*Service)

// WithDeliveryTimeout bounds how long the publishers get for one mutation.
func WithDeliveryTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.deliveryTimeout = d
		}
	}
}

// WithClock sets the clock used for request, review and notification times.
func WithClock(c clock.PassiveClock) Option {
	return func(s *Service) { s.clock = c }
}

// WithStatusPublisher sets where status transitions are announced.
func WithStatusPublisher(p core.StatusPublisher) Option {
	return func(s *Service) { s.status = p }
}

// WithNotificationPublisher sets where favorite notifications are delivered.
func WithNotificationPublisher(p core.NotificationPublisher) Option {
	return func(s *Service) { s.notifier = p }
}

// WithSessionArchive sets where ended sessions are kept.
func WithSessionArchive(a core.SessionArchive) Option {
	return func(s *Service) { s.archive = a }
}

// New creates the hub service. Publishers default to no-ops.
func New(trucks *broadcast.Controller, repo core.Repository, opts ...Option) *Service {
	s := &Service{
		trucks:   trucks,
		users:    repo.User(),
		requests: repo.Request(),
		reviews:  repo.Review(),
		status:   nopPublisher{},
		notifier: nopPublisher{},
		archive:  nopPublisher{},
		clock:    clock.RealClock{},
		watchers: make(map[string]*favorite.Watcher),

		deliveryTimeout: DefaultDeliveryTimeout,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

type nopPublisher struct{}

func (nopPublisher) PublishStatus(context.Context, model.Transition) error { return nil }
func (nopPublisher) Notify(context.Context, *model.Notification) error     { return nil }
func (nopPublisher) Archive(context.Context, *model.Session) error         { return nil }
