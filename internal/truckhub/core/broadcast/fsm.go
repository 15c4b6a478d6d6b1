package broadcast

import (
	"context"
	"fmt"
	"time"

	"github.com/looplab/fsm"

	fsmutil "github.com/truckwatch-io/truckwatch/internal/pkg/util/fsm"
	"github.com/truckwatch-io/truckwatch/internal/truckhub/core/model"
)

const (
	// EventStartMobile puts a truck live in mobile mode.
	EventStartMobile = "start_mobile"
	// EventStartStatic puts a truck live in static mode.
	EventStartStatic = "start_static"
	// EventStop ends the owner's broadcast.
	EventStop = "stop"
	// EventPreempt takes a sibling truck offline when another truck of the
	// same owner starts.
	EventPreempt = "preempt"
)

var (
	offline    = string(model.StatusOffline)
	liveMobile = string(model.StatusLiveMobile)
	liveStatic = string(model.StatusLiveStatic)

	truckEvents = fsm.Events{
		{Name: EventStartMobile, Src: []string{offline, liveStatic, liveMobile}, Dst: liveMobile},
		{Name: EventStartStatic, Src: []string{offline, liveMobile, liveStatic}, Dst: liveStatic},
		{Name: EventStop, Src: []string{liveMobile, liveStatic}, Dst: offline},
		{Name: EventPreempt, Src: []string{liveMobile, liveStatic}, Dst: offline},
	}
)

func startEvent(mode model.BroadcastMode) string {
	if mode == model.ModeStatic {
		return EventStartStatic
	}
	return EventStartMobile
}

// machine keeps a truck's Status and BroadcastMode in step with its state
// machine.
type machine struct {
	truck *model.Truck
	fsm   *fsm.FSM
}

func newMachine(t *model.Truck) *machine {
	m := &machine{truck: t}
	m.fsm = fsm.NewFSM(string(t.Status), truckEvents, fsm.Callbacks{
		"enter_state": fsmutil.WrapEvent(m.actionEnterState),
	})
	return m
}

func (m *machine) actionEnterState(_ context.Context, e *fsm.Event) error {
	st := model.Status(e.Dst)
	m.truck.Status = st
	m.truck.BroadcastMode = model.ModeOf(st)
	return nil
}

// fire applies event and returns the resulting transition, or nil when the
// truck was already in the destination state.
func (m *machine) fire(ctx context.Context, event string, at time.Time) (*model.Transition, error) {
	from := m.truck.Status
	fired, err := fsmutil.Fire(ctx, m.fsm, event)
	if err != nil {
		return nil, fmt.Errorf("%w: %s on truck %s in state %s: %v", model.ErrInvalidTransition, event, m.truck.ID, from, err)
	}
	if !fired {
		return nil, nil
	}
	return &model.Transition{
		TruckID: m.truck.ID,
		OwnerID: m.truck.OwnerID,
		From:    from,
		To:      m.truck.Status,
		Event:   event,
		At:      at,
	}, nil
}
