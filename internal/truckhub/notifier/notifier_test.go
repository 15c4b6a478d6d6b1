package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/truckwatch-io/truckwatch/internal/truckhub/core/model"
	"github.com/truckwatch-io/truckwatch/pkg/mqtt/mqtttest"
	"github.com/truckwatch-io/truckwatch/pkg/options"
)

func newNotifier(client *mqtttest.Client) *MQTTNotifier {
	opts := options.NewMqttOptions()
	opts.PublishAttempts = 3
	opts.PublishRetryDelay = time.Millisecond
	return NewMQTTNotifier(client, opts)
}

func TestPublishStatus(t *testing.T) {
	client := mqtttest.NewClient()
	n := newNotifier(client)

	tr := model.Transition{TruckID: "1", OwnerID: "driver1", From: model.StatusOffline, To: model.StatusLiveMobile, Event: "start_mobile"}
	if err := n.PublishStatus(context.Background(), tr); err != nil {
		t.Fatal(err)
	}

	msgs := client.Published()
	if len(msgs) != 1 {
		t.Fatalf("published %d messages", len(msgs))
	}
	m := msgs[0]
	if m.Topic != "truckwatch/v1/truck/status/1" || !m.Retain || m.QoS != 1 {
		t.Fatalf("message = %+v", m)
	}
	var got model.Transition
	if err := json.Unmarshal(m.Payload, &got); err != nil {
		t.Fatal(err)
	}
	if got.To != model.StatusLiveMobile || got.TruckID != "1" {
		t.Fatalf("payload = %+v", got)
	}
}

func TestNotifyRetries(t *testing.T) {
	client := mqtttest.NewClient()
	client.PublishErr = errors.New("not connected")
	client.FailPublishes = 2
	n := newNotifier(client)

	err := n.Notify(context.Background(), &model.Notification{ID: "n1", UserID: "u1", TruckID: "1"})
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if client.Attempts != 3 {
		t.Fatalf("attempts = %d, want 3", client.Attempts)
	}
	msgs := client.Published()
	if len(msgs) != 1 || msgs[0].Topic != "truckwatch/v1/notify/u1" || msgs[0].Retain {
		t.Fatalf("published = %+v", msgs)
	}
}

func TestNotifyGivesUp(t *testing.T) {
	client := mqtttest.NewClient()
	client.PublishErr = errors.New("not connected")
	client.FailPublishes = 10
	n := newNotifier(client)

	if err := n.Notify(context.Background(), &model.Notification{UserID: "u1"}); err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if client.Attempts != 3 {
		t.Fatalf("attempts = %d, want 3", client.Attempts)
	}
}

type failing struct{ calls int }

func (f *failing) PublishStatus(context.Context, model.Transition) error {
	f.calls++
	return errors.New("down")
}

func (f *failing) Notify(context.Context, *model.Notification) error {
	f.calls++
	return errors.New("down")
}

func TestFanoutDeliversToAll(t *testing.T) {
	client := mqtttest.NewClient()
	bad := &failing{}
	f := NewFanout().AddStatus(bad).AddStatus(newNotifier(client)).AddNotifications(bad)

	if err := f.PublishStatus(context.Background(), model.Transition{TruckID: "1"}); err == nil {
		t.Fatal("expected joined error")
	}
	if len(client.Published()) != 1 || bad.calls != 1 {
		t.Fatalf("published=%d bad=%d", len(client.Published()), bad.calls)
	}
	if err := f.Notify(context.Background(), &model.Notification{}); err == nil || bad.calls != 2 {
		t.Fatalf("notify err=%v calls=%d", err, bad.calls)
	}
}
