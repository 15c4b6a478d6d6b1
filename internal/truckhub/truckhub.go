// Package truckhub wires the truck broadcast hub together.
package truckhub

import (
	"context"
	"fmt"

	"github.com/truckwatch-io/truckwatch/internal/truckhub/archive"
	"github.com/truckwatch-io/truckwatch/internal/truckhub/core/service"
	"github.com/truckwatch-io/truckwatch/internal/truckhub/server"
	"github.com/truckwatch-io/truckwatch/internal/truckhub/store"
	"github.com/truckwatch-io/truckwatch/pkg/log"
)

type TruckHub struct {
	serverManager *server.Manager
	service       *service.Service
	store         store.Store
	archive       *archive.MinIOArchive
}

// Run blocks until ctx is cancelled or a server fails.
func (h *TruckHub) Run(ctx context.Context) error {
	defer func() {
		if err := h.store.Close(); err != nil {
			log.Error(err, "Failed to close store")
		}
	}()

	if h.archive != nil {
		if err := h.archive.CheckBucket(ctx); err != nil {
			return fmt.Errorf("failed to prepare session archive: %w", err)
		}
	}

	log.Info("Truck hub running", "trucks", len(h.service.ListTrucks("")))
	return h.serverManager.Start(ctx)
}
