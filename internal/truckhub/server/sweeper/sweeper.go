package sweeper

import (
	"context"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/truckwatch-io/truckwatch/pkg/log"
)

// Expirer expires pending requests older than ttl.
type Expirer interface {
	ExpireRequests(ctx context.Context, ttl time.Duration) (int, error)
}

// RequestSweeper periodically expires customer requests that no driver
// answered in time.
type RequestSweeper struct {
	expirer  Expirer
	ttl      time.Duration
	interval time.Duration
}

func New(e Expirer, ttl, interval time.Duration) *RequestSweeper {
	return &RequestSweeper{expirer: e, ttl: ttl, interval: interval}
}

// Start runs the sweep loop. It blocks until the context is cancelled.
func (s *RequestSweeper) Start(ctx context.Context) error {
	log.Info("Starting request sweeper", "ttl", s.ttl, "interval", s.interval)

	wait.UntilWithContext(ctx, s.sweep, s.interval)

	log.Info("Stopping request sweeper")
	return nil
}

func (s *RequestSweeper) sweep(ctx context.Context) {
	n, err := s.expirer.ExpireRequests(ctx, s.ttl)
	if err != nil {
		log.Error(err, "Request sweep failed")
		return
	}
	if n > 0 {
		log.Debug("Request sweep finished", "expired", n)
	}
}
