package mqtt

import (
	"context"
	"fmt"
	"time"

	"github.com/truckwatch-io/truckwatch/internal/pkg/mqtt/paths"
	"github.com/truckwatch-io/truckwatch/internal/truckhub/core/service"
	"github.com/truckwatch-io/truckwatch/pkg/log"
	pkgmqtt "github.com/truckwatch-io/truckwatch/pkg/mqtt"
	"github.com/truckwatch-io/truckwatch/pkg/mqtt/topic"
)

const qos = 1

// Server implements the MQTT ingress layer.
type Server struct {
	client pkgmqtt.Client
	topics *topic.Builder
	group  string
	svc    *service.Service
}

// NewServer creates the ingress server. Subscriptions are shared within
// group so several hub replicas split the command load.
func NewServer(client pkgmqtt.Client, builder *topic.Builder, group string, svc *service.Service) *Server {
	return &Server{
		client: client,
		topics: builder,
		group:  group,
		svc:    svc,
	}
}

// Start connects to the broker and subscribes to topics.
func (s *Server) Start(ctx context.Context) error {
	if err := s.client.Start(ctx); err != nil {
		return err
	}

	defer func() {
		log.Info("Disconnecting MQTT client...")
		// Use a fresh context so the DISCONNECT packet still goes out.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.client.Disconnect(shutdownCtx)
		log.Info("MQTT client disconnected")
	}()

	log.Info("Waiting for MQTT connection...")
	if err := s.client.AwaitConnection(ctx); err != nil {
		return err
	}
	log.Info("MQTT Connected")

	if err := s.initMQTTSubscriptions(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	return nil
}

// Ready reports whether the broker connection is up.
func (s *Server) Ready(context.Context) error {
	if !s.client.IsConnected() {
		return fmt.Errorf("mqtt client is not connected")
	}
	return nil
}

func (s *Server) initMQTTSubscriptions(ctx context.Context) error {
	subscriptions := map[string]HandlerFunc{
		paths.Broadcast: JSONAdapter[BroadcastCommand](s.handleBroadcast),
	}

	for segment, handler := range subscriptions {
		filter := s.topics.Shared(s.group).BuildWildcard(segment)
		if err := s.client.Subscribe(ctx, filter, qos, func(c context.Context, t string, p []byte) {
			id, ok := s.topics.ID(segment, t)
			if !ok {
				log.Warn("Ignoring message on unexpected topic", "topic", t)
				return
			}
			if handleErr := handler(c, id, p); handleErr != nil {
				log.Error(handleErr, "Handler execution failed", "topic", t)
			}
		}); err != nil {
			return fmt.Errorf("failed to subscribe to topic: %s, err: %w", filter, err)
		}
	}

	return nil
}
