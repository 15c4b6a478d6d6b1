package server

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/truckwatch-io/truckwatch/internal/truckhub/core/service"
	"github.com/truckwatch-io/truckwatch/internal/truckhub/server/grpc"
	"github.com/truckwatch-io/truckwatch/internal/truckhub/server/http"
	"github.com/truckwatch-io/truckwatch/internal/truckhub/server/mqtt"
	"github.com/truckwatch-io/truckwatch/internal/truckhub/server/sweeper"
	"github.com/truckwatch-io/truckwatch/internal/truckhub/stream"
	"github.com/truckwatch-io/truckwatch/pkg/log"
	pkgmqtt "github.com/truckwatch-io/truckwatch/pkg/mqtt"
	"github.com/truckwatch-io/truckwatch/pkg/mqtt/topic"
)

// Server defines the common interface for all sub-servers and background
// loops.
type Server interface {
	Start(ctx context.Context) error
}

// Manager manages the lifecycle of all protocol servers.
type Manager struct {
	servers []Server
}

// NewManager creates the sub-servers. The MQTT ingress only runs when
// mqttClient is set.
func NewManager(cfg *Config, svc *service.Service, hub *stream.Hub, mqttClient pkgmqtt.Client) *Manager {
	var (
		servers []Server
		checks  []http.ReadyFunc
	)

	if mqttClient != nil {
		builder := topic.NewBuilder(cfg.MqttOptions.TopicRoot)
		mqttSrv := mqtt.NewServer(mqttClient, builder, cfg.MqttOptions.SharedGroup, svc)
		servers = append(servers, mqttSrv)
		checks = append(checks, mqttSrv.Ready)
	}

	servers = append(servers,
		grpc.NewServer(cfg.GrpcOptions),
		http.NewServer(cfg.HttpOptions, svc, hub, checks...),
		sweeper.New(svc, cfg.FleetOptions.RequestTTL, cfg.FleetOptions.SweepInterval),
	)

	return &Manager{
		servers: servers,
	}
}

// Start launches all servers in parallel and waits for termination.
func (m *Manager) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, srv := range m.servers {
		g.Go(func() error {
			return srv.Start(ctx)
		})
	}

	log.Info("All servers starting...", "count", len(m.servers))
	return g.Wait()
}
