package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"github.com/truckwatch-io/truckwatch/internal/pkg/mqtt/paths"
	"github.com/truckwatch-io/truckwatch/internal/truckhub/core"
	"github.com/truckwatch-io/truckwatch/internal/truckhub/core/model"
	"github.com/truckwatch-io/truckwatch/pkg/log"
	pkgmqtt "github.com/truckwatch-io/truckwatch/pkg/mqtt"
	"github.com/truckwatch-io/truckwatch/pkg/mqtt/topic"
	"github.com/truckwatch-io/truckwatch/pkg/options"
)

const qosAtLeastOnce = 1

// MQTTNotifier publishes status transitions and notifications to the broker.
type MQTTNotifier struct {
	client   pkgmqtt.Client
	topics   *topic.Builder
	attempts uint
	delay    time.Duration
}

var (
	_ core.StatusPublisher       = (*MQTTNotifier)(nil)
	_ core.NotificationPublisher = (*MQTTNotifier)(nil)
)

// NewMQTTNotifier publishes through client, which the caller starts and
// stops.
func NewMQTTNotifier(client pkgmqtt.Client, opts *options.MqttOptions) *MQTTNotifier {
	attempts := opts.PublishAttempts
	if attempts == 0 {
		attempts = 1
	}
	return &MQTTNotifier{
		client:   client,
		topics:   topic.NewBuilder(opts.TopicRoot),
		attempts: attempts,
		delay:    opts.PublishRetryDelay,
	}
}

// PublishStatus sends the transition retained on {root}/truck/status/{truckID}
// so that late subscribers get the current status.
func (n *MQTTNotifier) PublishStatus(ctx context.Context, tr model.Transition) error {
	return n.publish(ctx, n.topics.Build(paths.TruckStatus, tr.TruckID), true, tr)
}

// Notify sends the notification on {root}/notify/{userID}.
func (n *MQTTNotifier) Notify(ctx context.Context, msg *model.Notification) error {
	return n.publish(ctx, n.topics.Build(paths.Notify, msg.UserID), false, msg)
}

func (n *MQTTNotifier) publish(ctx context.Context, dest string, retain bool, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode payload for %s: %w", dest, err)
	}

	err = retry.Do(
		func() error {
			return n.client.Publish(ctx, dest, qosAtLeastOnce, retain, payload)
		},
		retry.Attempts(n.attempts),
		retry.Delay(n.delay),
		retry.MaxDelay(5*time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(attempt uint, err error) {
			log.Warn("Retrying MQTT publish", "topic", dest, "attempt", attempt, "error", err)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", dest, err)
	}
	return nil
}
