package mqtt

import (
	"context"
	"fmt"

	"github.com/truckwatch-io/truckwatch/internal/truckhub/core/model"
	"github.com/truckwatch-io/truckwatch/pkg/log"
)

// Broadcast command actions.
const (
	ActionStart = "start"
	ActionStop  = "stop"
)

// BroadcastCommand is the payload published by driver apps on
// {root}/broadcast/{ownerID}.
type BroadcastCommand struct {
	Action  string `json:"action"`
	TruckID string `json:"truckId,omitempty"`
	Mode    string `json:"mode,omitempty"`
}

func (s *Server) handleBroadcast(ctx context.Context, ownerID string, cmd *BroadcastCommand) error {
	switch cmd.Action {
	case ActionStart:
		mode, err := model.ParseMode(cmd.Mode)
		if err != nil {
			return err
		}
		if _, err := s.svc.StartBroadcast(ctx, ownerID, cmd.TruckID, mode); err != nil {
			return err
		}
	case ActionStop:
		if _, err := s.svc.StopBroadcast(ctx, ownerID); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown broadcast action %q", model.ErrInvalidArgument, cmd.Action)
	}

	log.Debug("Handled broadcast command", "ownerID", ownerID, "action", cmd.Action, "truckID", cmd.TruckID)
	return nil
}
