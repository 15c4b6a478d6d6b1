package fsm

import (
	"context"
	"errors"

	"github.com/looplab/fsm"
)

// WrapEvent adapts a callback returning an error to a looplab callback. A
// non-nil error is stored on the event so that the transition is reported
// as failed to the caller of Event.
func WrapEvent(fn func(ctx context.Context, event *fsm.Event) error) fsm.Callback {
	return func(ctx context.Context, event *fsm.Event) {
		if err := fn(ctx, event); err != nil {
			event.Err = err
		}
	}
}

// Fire triggers event on m. A transition into the current state is not an
// error; fired reports whether the state changed.
func Fire(ctx context.Context, m *fsm.FSM, event string, args ...any) (fired bool, err error) {
	err = m.Event(ctx, event, args...)
	if err == nil {
		return true, nil
	}
	var noTransition fsm.NoTransitionError
	if errors.As(err, &noTransition) && noTransition.Err == nil {
		return false, nil
	}
	return false, err
}
