package core

import (
	"context"
	"time"

	"github.com/truckwatch-io/truckwatch/internal/truckhub/core/model"
)

// Repository groups the persistent stores of the hub.
type Repository interface {
	User() UserRepository
	Request() RequestRepository
	Review() ReviewRepository
}

// UserRepository stores user accounts and their favorites.
type UserRepository interface {
	// Get returns model.ErrUserNotFound for unknown ids.
	Get(ctx context.Context, id string) (*model.User, error)

	// Create returns model.ErrUserExists when the id is taken.
	Create(ctx context.Context, user *model.User) error

	// Update replaces the stored user.
	Update(ctx context.Context, user *model.User) error

	List(ctx context.Context) ([]*model.User, error)
}

// RequestRepository stores customer requests.
type RequestRepository interface {
	Get(ctx context.Context, id string) (*model.Request, error)
	Create(ctx context.Context, req *model.Request) error
	UpdateStatus(ctx context.Context, id string, status model.RequestStatus, at time.Time) error

	ListByOwner(ctx context.Context, ownerID string) ([]*model.Request, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Request, error)

	// ListPendingBefore returns pending requests created before t.
	ListPendingBefore(ctx context.Context, t time.Time) ([]*model.Request, error)
}

// ReviewRepository stores truck reviews.
type ReviewRepository interface {
	// Create returns model.ErrAlreadyReviewed when the user already reviewed
	// the truck.
	Create(ctx context.Context, review *model.Review) error
	ListByTruck(ctx context.Context, truckID string) ([]*model.Review, error)
}
