package service

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"

	fsmutil "github.com/truckwatch-io/truckwatch/internal/pkg/util/fsm"
	"github.com/truckwatch-io/truckwatch/internal/truckhub/core/model"
)

// Request lifecycle events. A request leaves pending exactly once.
const (
	EventAcknowledge = "acknowledge"
	EventIgnore      = "ignore"
	EventExpire      = "expire"
)

var requestEvents = fsm.Events{
	{Name: EventAcknowledge, Src: []string{string(model.RequestPending)}, Dst: string(model.RequestAcknowledged)},
	{Name: EventIgnore, Src: []string{string(model.RequestPending)}, Dst: string(model.RequestIgnored)},
	{Name: EventExpire, Src: []string{string(model.RequestPending)}, Dst: string(model.RequestExpired)},
}

// nextRequestStatus returns the status reached by firing event on a request
// in status from.
func nextRequestStatus(ctx context.Context, from model.RequestStatus, event string) (model.RequestStatus, error) {
	m := fsm.NewFSM(string(from), requestEvents, fsm.Callbacks{})
	if _, err := fsmutil.Fire(ctx, m, event); err != nil {
		return from, fmt.Errorf("%w: cannot %s a request that is %s", model.ErrInvalidTransition, event, from)
	}
	return model.RequestStatus(m.Current()), nil
}

// Driver onboarding events.
const (
	EventApply   = "apply"
	EventApprove = "approve"
	EventReject  = "reject"
)

var onboardingEvents = fsm.Events{
	{Name: EventApply, Src: []string{string(model.RoleUser)}, Dst: string(model.RoleDriverPending)},
	{Name: EventApprove, Src: []string{string(model.RoleDriverPending)}, Dst: string(model.RoleDriverActive)},
	{Name: EventReject, Src: []string{string(model.RoleDriverPending)}, Dst: string(model.RoleUser)},
}

// onboard fires event on the user's role and records the verification
// status that goes with the new role.
func onboard(ctx context.Context, u *model.User, event string) error {
	m := fsm.NewFSM(string(u.Role), onboardingEvents, fsm.Callbacks{
		"enter_" + string(model.RoleDriverPending): fsmutil.WrapEvent(func(_ context.Context, e *fsm.Event) error {
			return setVerification(u, model.VerificationPending)
		}),
		"enter_" + string(model.RoleDriverActive): fsmutil.WrapEvent(func(_ context.Context, e *fsm.Event) error {
			return setVerification(u, model.VerificationApproved)
		}),
		"after_" + EventReject: fsmutil.WrapEvent(func(_ context.Context, e *fsm.Event) error {
			return setVerification(u, model.VerificationRejected)
		}),
	})
	if _, err := fsmutil.Fire(ctx, m, event); err != nil {
		return fmt.Errorf("%w: cannot %s user %s with role %s", model.ErrInvalidTransition, event, u.ID, u.Role)
	}
	u.Role = model.Role(m.Current())
	return nil
}

func setVerification(u *model.User, v model.VerificationStatus) error {
	if u.DriverInfo == nil {
		return fmt.Errorf("%w: user %s has no driver application", model.ErrInvalidArgument, u.ID)
	}
	u.DriverInfo.VerificationStatus = v
	return nil
}
