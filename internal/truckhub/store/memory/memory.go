// Package memory keeps the hub's repositories in process memory. Data is
// lost on restart.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/truckwatch-io/truckwatch/internal/truckhub/core"
	"github.com/truckwatch-io/truckwatch/internal/truckhub/core/model"
)

type Store struct {
	users    *userRepo
	requests *requestRepo
	reviews  *reviewRepo
}

var _ core.Repository = (*Store)(nil)

func New() *Store {
	return &Store{
		users:    &userRepo{items: make(map[string]*model.User)},
		requests: &requestRepo{items: make(map[string]*model.Request)},
		reviews:  &reviewRepo{byTruck: make(map[string][]*model.Review)},
	}
}

func (s *Store) User() core.UserRepository       { return s.users }
func (s *Store) Request() core.RequestRepository { return s.requests }
func (s *Store) Review() core.ReviewRepository   { return s.reviews }

func (s *Store) Close() error { return nil }

type userRepo struct {
	mu    sync.RWMutex
	items map[string]*model.User
}

func (r *userRepo) Get(_ context.Context, id string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrUserNotFound, id)
	}
	return u.Clone(), nil
}

func (r *userRepo) Create(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[u.ID]; ok {
		return fmt.Errorf("%w: %s", model.ErrUserExists, u.ID)
	}
	r.items[u.ID] = u.Clone()
	return nil
}

func (r *userRepo) Update(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[u.ID]; !ok {
		return fmt.Errorf("%w: %s", model.ErrUserNotFound, u.ID)
	}
	r.items[u.ID] = u.Clone()
	return nil
}

func (r *userRepo) List(_ context.Context) ([]*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.User, 0, len(r.items))
	for _, u := range r.items {
		out = append(out, u.Clone())
	}
	slices.SortFunc(out, func(a, b *model.User) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

type requestRepo struct {
	mu    sync.RWMutex
	items map[string]*model.Request
}

func cloneRequest(r *model.Request) *model.Request {
	c := *r
	if r.Location != nil {
		loc := *r.Location
		c.Location = &loc
	}
	return &c
}

func (r *requestRepo) Get(_ context.Context, id string) (*model.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	req, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrRequestNotFound, id)
	}
	return cloneRequest(req), nil
}

func (r *requestRepo) Create(_ context.Context, req *model.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[req.ID]; ok {
		return fmt.Errorf("%w: request %s already exists", model.ErrInvalidArgument, req.ID)
	}
	r.items[req.ID] = cloneRequest(req)
	return nil
}

func (r *requestRepo) UpdateStatus(_ context.Context, id string, status model.RequestStatus, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.items[id]
	if !ok {
		return fmt.Errorf("%w: %s", model.ErrRequestNotFound, id)
	}
	req.Status = status
	req.UpdatedAt = at
	return nil
}

func (r *requestRepo) ListByOwner(_ context.Context, ownerID string) ([]*model.Request, error) {
	return r.list(func(req *model.Request) bool { return req.OwnerID == ownerID }), nil
}

func (r *requestRepo) ListByUser(_ context.Context, userID string) ([]*model.Request, error) {
	return r.list(func(req *model.Request) bool { return req.UserID == userID }), nil
}

func (r *requestRepo) ListPendingBefore(_ context.Context, t time.Time) ([]*model.Request, error) {
	return r.list(func(req *model.Request) bool {
		return req.Status == model.RequestPending && req.CreatedAt.Before(t)
	}), nil
}

// list returns matching requests, newest first.
func (r *requestRepo) list(keep func(*model.Request) bool) []*model.Request {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*model.Request
	for _, req := range r.items {
		if keep(req) {
			out = append(out, cloneRequest(req))
		}
	}
	slices.SortFunc(out, func(a, b *model.Request) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

type reviewRepo struct {
	mu      sync.RWMutex
	byTruck map[string][]*model.Review
}

func (r *reviewRepo) Create(_ context.Context, review *model.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.byTruck[review.TruckID] {
		if existing.UserID == review.UserID {
			return fmt.Errorf("%w: user %s, truck %s", model.ErrAlreadyReviewed, review.UserID, review.TruckID)
		}
	}
	c := *review
	r.byTruck[review.TruckID] = append(r.byTruck[review.TruckID], &c)
	return nil
}

func (r *reviewRepo) ListByTruck(_ context.Context, truckID string) ([]*model.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.Review, 0, len(r.byTruck[truckID]))
	for _, review := range r.byTruck[truckID] {
		c := *review
		out = append(out, &c)
	}
	slices.SortFunc(out, func(a, b *model.Review) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}
