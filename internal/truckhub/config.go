package truckhub

import (
	"context"
	"fmt"
	"os"

	"github.com/truckwatch-io/truckwatch/internal/truckhub/archive"
	"github.com/truckwatch-io/truckwatch/internal/truckhub/core/broadcast"
	"github.com/truckwatch-io/truckwatch/internal/truckhub/core/service"
	"github.com/truckwatch-io/truckwatch/internal/truckhub/fleet"
	"github.com/truckwatch-io/truckwatch/internal/truckhub/notifier"
	"github.com/truckwatch-io/truckwatch/internal/truckhub/server"
	"github.com/truckwatch-io/truckwatch/internal/truckhub/store"
	"github.com/truckwatch-io/truckwatch/internal/truckhub/stream"
	pkgmqtt "github.com/truckwatch-io/truckwatch/pkg/mqtt"
	"github.com/truckwatch-io/truckwatch/pkg/options"
)

type Config struct {
	HttpOptions  *options.HttpOptions
	GrpcOptions  *options.GrpcOptions
	MqttOptions  *options.MqttOptions
	S3Options    *options.S3Options
	StoreOptions *options.StoreOptions
	FleetOptions *options.FleetOptions
}

// NewTruckHub assembles the hub: repositories and the seeded fleet, the
// outbound adapters, the core service and the ingress servers.
func (cfg *Config) NewTruckHub(ctx context.Context) (*TruckHub, error) {
	seed, err := fleet.Load(cfg.FleetOptions.SeedFile)
	if err != nil {
		return nil, err
	}
	trucks, err := seed.Models()
	if err != nil {
		return nil, err
	}
	ctrl, err := broadcast.NewController(trucks)
	if err != nil {
		return nil, fmt.Errorf("failed to load fleet: %w", err)
	}

	repo, err := store.New(cfg.StoreOptions)
	if err != nil {
		return nil, err
	}
	if err := seed.CreateUsers(ctx, repo.User()); err != nil {
		_ = repo.Close()
		return nil, err
	}

	// The hub needs the service for its hooks and the service needs the hub
	// as a publisher.
	var svc *service.Service
	hub := stream.NewHub(stream.Hooks{
		OnConnect:    func(ctx context.Context, userID string) error { return svc.Watch(ctx, userID) },
		OnDisconnect: func(userID string) { svc.Unwatch(userID) },
	})

	fanout := notifier.NewFanout().AddStatus(hub).AddNotifications(hub)
	opts := []service.Option{
		service.WithStatusPublisher(fanout),
		service.WithNotificationPublisher(fanout),
	}

	var mqttClient pkgmqtt.Client
	if cfg.MqttOptions.Enabled {
		if mqttClient, err = newMQTTClient(cfg.MqttOptions); err != nil {
			_ = repo.Close()
			return nil, err
		}
		mqttNotifier := notifier.NewMQTTNotifier(mqttClient, cfg.MqttOptions)
		fanout.AddStatus(mqttNotifier).AddNotifications(mqttNotifier)
	}

	var sessionArchive *archive.MinIOArchive
	if cfg.S3Options.Enabled {
		if sessionArchive, err = archive.NewMinIOArchive(cfg.S3Options); err != nil {
			_ = repo.Close()
			return nil, err
		}
		opts = append(opts, service.WithSessionArchive(sessionArchive))
	}

	opts = append(opts, service.WithDeliveryTimeout(cfg.FleetOptions.DeliveryTimeout))
	svc = service.New(ctrl, repo, opts...)

	// Trucks come from the seed on every start while reviews may be
	// persisted, so ratings are rebuilt from the store.
	if err := svc.RestoreRatings(ctx); err != nil {
		_ = repo.Close()
		return nil, err
	}

	serverConfig := &server.Config{
		HttpOptions:  cfg.HttpOptions,
		GrpcOptions:  cfg.GrpcOptions,
		MqttOptions:  cfg.MqttOptions,
		FleetOptions: cfg.FleetOptions,
	}

	return &TruckHub{
		serverManager: server.NewManager(serverConfig, svc, hub, mqttClient),
		service:       svc,
		store:         repo,
		archive:       sessionArchive,
	}, nil
}

// newMQTTClient builds the broker client. Without an explicit client id,
// replicas of the same shared group get distinct ids from their hostname.
func newMQTTClient(opts *options.MqttOptions) (pkgmqtt.Client, error) {
	cfg := opts.ToClientConfig()
	if cfg.ClientID == "" {
		cfg.ClientID = clientID(opts.SharedGroup)
	}

	client, err := pkgmqtt.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create mqtt client: %w", err)
	}
	return client, nil
}

func clientID(group string) string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = fmt.Sprintf("pid%d", os.Getpid())
	}
	if group == "" {
		return "truckhub-" + hostname
	}
	return fmt.Sprintf("truckhub-%s-%s", group, hostname)
}
