package broadcast

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"k8s.io/utils/clock"

	"github.com/truckwatch-io/truckwatch/internal/truckhub/core/model"
)

// Result describes what a command changed.
type Result struct {
	// Transitions lists the applied status changes, preempted siblings first.
	Transitions []model.Transition
	// Ended holds the sessions closed by the command.
	Ended []*model.Session
	// Session is the owner's active session after the command, if any.
	Session *model.Session
}

// Changed reports whether any truck changed status.
func (r *Result) Changed() bool {
	return len(r.Transitions) > 0
}

// Controller owns the truck collection and the per-owner broadcast sessions.
// It guarantees that an owner never has more than one live truck.
type Controller struct {
	mu       sync.Mutex
	clock    clock.PassiveClock
	trucks   map[string]*machine
	sessions map[string]*model.Session // ownerID -> active session
}

type Option func(*Controller)

// WithClock sets the clock used to stamp transitions and sessions.
func WithClock(c clock.PassiveClock) Option {
	return func(ctrl *Controller) { ctrl.clock = c }
}

// NewController seeds a controller with trucks. Live trucks get an active
// session each. Two live trucks of one owner are rejected with
// model.ErrExclusivity.
func NewController(trucks []*model.Truck, opts ...Option) (*Controller, error) {
	c := &Controller{
		clock:    clock.RealClock{},
		trucks:   make(map[string]*machine, len(trucks)),
		sessions: make(map[string]*model.Session),
	}
	for _, o := range opts {
		o(c)
	}

	now := c.clock.Now()
	for _, t := range trucks {
		if err := validateNew(t); err != nil {
			return nil, err
		}
		if _, ok := c.trucks[t.ID]; ok {
			return nil, fmt.Errorf("%w: %s", model.ErrTruckExists, t.ID)
		}

		tr := t.Clone()
		switch tr.Status {
		case "":
			tr.Status = model.StatusOffline
		case model.StatusOffline, model.StatusLiveMobile, model.StatusLiveStatic:
		default:
			return nil, fmt.Errorf("%w: truck %s has unknown status %q", model.ErrInvalidArgument, tr.ID, tr.Status)
		}
		tr.BroadcastMode = model.ModeOf(tr.Status)

		if tr.Status.IsLive() {
			if s, ok := c.sessions[tr.OwnerID]; ok {
				return nil, fmt.Errorf("%w: owner %s has trucks %s and %s live", model.ErrExclusivity, tr.OwnerID, s.TruckID, tr.ID)
			}
			c.sessions[tr.OwnerID] = &model.Session{
				ID:        uuid.NewString(),
				OwnerID:   tr.OwnerID,
				TruckID:   tr.ID,
				Mode:      tr.BroadcastMode,
				StartedAt: now,
			}
		}
		c.trucks[tr.ID] = newMachine(tr)
	}
	return c, nil
}

func validateNew(t *model.Truck) error {
	if t == nil || t.ID == "" {
		return fmt.Errorf("%w: truck id is required", model.ErrInvalidArgument)
	}
	if t.OwnerID == "" {
		return fmt.Errorf("%w: truck %s has no owner", model.ErrInvalidArgument, t.ID)
	}
	return nil
}

// owned returns the machine of truckID after checking that ownerID owns it.
func (c *Controller) owned(ownerID, truckID string) (*machine, error) {
	m, ok := c.trucks[truckID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrTruckNotFound, truckID)
	}
	if m.truck.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: truck %s, owner %s", model.ErrNotOwner, truckID, ownerID)
	}
	return m, nil
}

// siblings returns the other trucks of the owner in id order.
func (c *Controller) siblings(ownerID, truckID string) []*machine {
	var out []*machine
	for id, m := range c.trucks {
		if id != truckID && m.truck.OwnerID == ownerID {
			out = append(out, m)
		}
	}
	slices.SortFunc(out, func(a, b *machine) int { return cmp.Compare(a.truck.ID, b.truck.ID) })
	return out
}

// Start puts truckID live in mode and takes every other truck of ownerID
// offline in the same step. Starting a truck in the mode it already has is a
// no-op. Invalid references leave the collection unchanged.
func (c *Controller) Start(ctx context.Context, ownerID, truckID string, mode model.BroadcastMode) (*Result, error) {
	if mode != model.ModeMobile && mode != model.ModeStatic {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidMode, mode)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	target, err := c.owned(ownerID, truckID)
	if err != nil {
		return nil, err
	}

	now := c.clock.Now()
	res := &Result{}

	for _, m := range c.siblings(ownerID, truckID) {
		if !m.truck.Status.IsLive() {
			continue
		}
		tr, err := m.fire(ctx, EventPreempt, now)
		if err != nil {
			return nil, err
		}
		if tr != nil {
			res.Transitions = append(res.Transitions, *tr)
		}
	}

	tr, err := target.fire(ctx, startEvent(mode), now)
	if err != nil {
		return nil, err
	}
	if tr != nil {
		res.Transitions = append(res.Transitions, *tr)
	}

	session := c.sessions[ownerID]
	switch {
	case session != nil && session.TruckID == truckID:
		session.Mode = mode
	default:
		if session != nil {
			res.Ended = append(res.Ended, endSession(session, now, model.EndReasonPreempted))
		}
		session = &model.Session{
			ID:        uuid.NewString(),
			OwnerID:   ownerID,
			TruckID:   truckID,
			Mode:      mode,
			StartedAt: now,
		}
		c.sessions[ownerID] = session
	}
	res.Session = session.Clone()
	return res, nil
}

// Stop ends the owner's active broadcast. Without an active session it is a
// no-op and returns an empty result.
func (c *Controller) Stop(ctx context.Context, ownerID string) (*Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.stopLocked(ctx, ownerID, model.EndReasonStopped)
}

func (c *Controller) stopLocked(ctx context.Context, ownerID string, reason model.EndReason) (*Result, error) {
	res := &Result{}
	session, ok := c.sessions[ownerID]
	if !ok {
		return res, nil
	}

	now := c.clock.Now()
	if m, ok := c.trucks[session.TruckID]; ok {
		tr, err := m.fire(ctx, EventStop, now)
		if err != nil {
			return nil, err
		}
		if tr != nil {
			res.Transitions = append(res.Transitions, *tr)
		}
	}
	delete(c.sessions, ownerID)
	res.Ended = append(res.Ended, endSession(session, now, reason))
	return res, nil
}

func endSession(s *model.Session, now time.Time, reason model.EndReason) *model.Session {
	ended := s.Clone()
	ended.EndedAt = &now
	ended.EndReason = reason
	return ended
}

// Snapshot returns the current status of every truck.
func (c *Controller) Snapshot() model.Statuses {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(model.Statuses, len(c.trucks))
	for id, m := range c.trucks {
		out[id] = m.truck.Status
	}
	return out
}

// Trucks returns copies of all trucks ordered by id.
func (c *Controller) Trucks() []*model.Truck {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.collect(func(*model.Truck) bool { return true })
}

// TrucksByOwner returns copies of the owner's trucks ordered by id.
func (c *Controller) TrucksByOwner(ownerID string) []*model.Truck {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.collect(func(t *model.Truck) bool { return t.OwnerID == ownerID })
}

func (c *Controller) collect(keep func(*model.Truck) bool) []*model.Truck {
	out := make([]*model.Truck, 0, len(c.trucks))
	for _, m := range c.trucks {
		if keep(m.truck) {
			out = append(out, m.truck.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *model.Truck) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// Truck returns a copy of one truck.
func (c *Controller) Truck(id string) (*model.Truck, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.trucks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrTruckNotFound, id)
	}
	return m.truck.Clone(), nil
}

// ActiveSession returns the owner's active session or nil.
func (c *Controller) ActiveSession(ownerID string) *model.Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.sessions[ownerID].Clone()
}

// AddTruck registers a new truck. It always starts offline.
func (c *Controller) AddTruck(t *model.Truck) (*model.Truck, error) {
	if err := validateNew(t); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.trucks[t.ID]; ok {
		return nil, fmt.Errorf("%w: %s", model.ErrTruckExists, t.ID)
	}
	tr := t.Clone()
	tr.Status = model.StatusOffline
	tr.BroadcastMode = model.ModeNone
	tr.Rating, tr.ReviewCount = 0, 0
	c.trucks[tr.ID] = newMachine(tr)
	return tr.Clone(), nil
}

// UpdateProfile replaces the editable fields of a truck. Status is never
// touched.
func (c *Controller) UpdateProfile(ownerID, truckID string, p model.Profile) (*model.Truck, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, err := c.owned(ownerID, truckID)
	if err != nil {
		return nil, err
	}
	m.truck.Profile = p
	return m.truck.Clone(), nil
}

// RemoveTruck deletes a truck, ending its broadcast first when it is live.
func (c *Controller) RemoveTruck(ctx context.Context, ownerID, truckID string) (*Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.owned(ownerID, truckID); err != nil {
		return nil, err
	}

	res := &Result{}
	if s, ok := c.sessions[ownerID]; ok && s.TruckID == truckID {
		var err error
		if res, err = c.stopLocked(ctx, ownerID, model.EndReasonRemoved); err != nil {
			return nil, err
		}
	}
	delete(c.trucks, truckID)
	return res, nil
}

// SetRating stores the review aggregate of a truck.
func (c *Controller) SetRating(truckID string, rating float64, count int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.trucks[truckID]
	if !ok {
		return fmt.Errorf("%w: %s", model.ErrTruckNotFound, truckID)
	}
	m.truck.Rating = rating
	m.truck.ReviewCount = count
	return nil
}
