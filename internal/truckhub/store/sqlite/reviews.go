package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/truckwatch-io/truckwatch/internal/truckhub/core/model"
)

type reviewRow struct {
	ID        string `db:"id"`
	TruckID   string `db:"truck_id"`
	UserID    string `db:"user_id"`
	Rating    int    `db:"rating"`
	Comment   string `db:"comment"`
	CreatedAt int64  `db:"created_at"`
}

type reviewRepo struct {
	db *sqlx.DB
}

func (r *reviewRepo) Create(ctx context.Context, review *model.Review) error {
	res, err := r.db.NamedExecContext(ctx, `
		INSERT INTO reviews (id, truck_id, user_id, rating, comment, created_at)
		VALUES (:id, :truck_id, :user_id, :rating, :comment, :created_at)
		ON CONFLICT(truck_id, user_id) DO NOTHING`,
		reviewRow{
			ID:        review.ID,
			TruckID:   review.TruckID,
			UserID:    review.UserID,
			Rating:    review.Rating,
			Comment:   review.Comment,
			CreatedAt: review.CreatedAt.UnixNano(),
		})
	if err != nil {
		return fmt.Errorf("creating review: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: user %s, truck %s", model.ErrAlreadyReviewed, review.UserID, review.TruckID)
	}
	return nil
}

func (r *reviewRepo) ListByTruck(ctx context.Context, truckID string) ([]*model.Review, error) {
	var rows []reviewRow
	err := r.db.SelectContext(ctx, &rows,
		"SELECT * FROM reviews WHERE truck_id = ? ORDER BY created_at DESC, id", truckID)
	if err != nil {
		return nil, fmt.Errorf("querying reviews for truck %s: %w", truckID, err)
	}
	out := make([]*model.Review, 0, len(rows))
	for _, row := range rows {
		out = append(out, &model.Review{
			ID:        row.ID,
			TruckID:   row.TruckID,
			UserID:    row.UserID,
			Rating:    row.Rating,
			Comment:   row.Comment,
			CreatedAt: time.Unix(0, row.CreatedAt).UTC(),
		})
	}
	return out, nil
}
