package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/truckwatch-io/truckwatch/internal/truckhub/core/model"
)

// Times are stored as unix nanoseconds so that range queries compare
// numerically.
type requestRow struct {
	ID        string `db:"id"`
	UserID    string `db:"user_id"`
	UserName  string `db:"user_name"`
	TruckID   string `db:"truck_id"`
	TruckName string `db:"truck_name"`
	OwnerID   string `db:"owner_id"`
	Message   string `db:"message"`
	Status    string `db:"status"`
	Location  string `db:"location"`
	CreatedAt int64  `db:"created_at"`
	UpdatedAt int64  `db:"updated_at"`
}

func (r *requestRow) toModel() (*model.Request, error) {
	req := &model.Request{
		ID:        r.ID,
		UserID:    r.UserID,
		UserName:  r.UserName,
		TruckID:   r.TruckID,
		TruckName: r.TruckName,
		OwnerID:   r.OwnerID,
		Message:   r.Message,
		Status:    model.RequestStatus(r.Status),
		CreatedAt: time.Unix(0, r.CreatedAt).UTC(),
		UpdatedAt: time.Unix(0, r.UpdatedAt).UTC(),
	}
	if r.Location != "" {
		req.Location = &model.Location{}
		if err := json.Unmarshal([]byte(r.Location), req.Location); err != nil {
			return nil, fmt.Errorf("unmarshaling location of request %s: %w", r.ID, err)
		}
	}
	return req, nil
}

type requestRepo struct {
	db *sqlx.DB
}

func (r *requestRepo) Get(ctx context.Context, id string) (*model.Request, error) {
	var row requestRow
	err := r.db.GetContext(ctx, &row, "SELECT * FROM requests WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", model.ErrRequestNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting request %s: %w", id, err)
	}
	return row.toModel()
}

func (r *requestRepo) Create(ctx context.Context, req *model.Request) error {
	row := requestRow{
		ID:        req.ID,
		UserID:    req.UserID,
		UserName:  req.UserName,
		TruckID:   req.TruckID,
		TruckName: req.TruckName,
		OwnerID:   req.OwnerID,
		Message:   req.Message,
		Status:    string(req.Status),
		CreatedAt: req.CreatedAt.UnixNano(),
		UpdatedAt: req.UpdatedAt.UnixNano(),
	}
	if req.Location != nil {
		loc, err := json.Marshal(req.Location)
		if err != nil {
			return fmt.Errorf("marshaling location: %w", err)
		}
		row.Location = string(loc)
	}

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO requests (
			id, user_id, user_name, truck_id, truck_name, owner_id,
			message, status, location, created_at, updated_at
		) VALUES (
			:id, :user_id, :user_name, :truck_id, :truck_name, :owner_id,
			:message, :status, :location, :created_at, :updated_at
		)`, row)
	if err != nil {
		return fmt.Errorf("creating request %s: %w", req.ID, err)
	}
	return nil
}

func (r *requestRepo) UpdateStatus(ctx context.Context, id string, status model.RequestStatus, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE requests SET status = ?, updated_at = ? WHERE id = ?",
		string(status), at.UnixNano(), id,
	)
	if err != nil {
		return fmt.Errorf("updating request %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", model.ErrRequestNotFound, id)
	}
	return nil
}

func (r *requestRepo) ListByOwner(ctx context.Context, ownerID string) ([]*model.Request, error) {
	return r.list(ctx, "SELECT * FROM requests WHERE owner_id = ? ORDER BY created_at DESC, id", ownerID)
}

func (r *requestRepo) ListByUser(ctx context.Context, userID string) ([]*model.Request, error) {
	return r.list(ctx, "SELECT * FROM requests WHERE user_id = ? ORDER BY created_at DESC, id", userID)
}

func (r *requestRepo) ListPendingBefore(ctx context.Context, t time.Time) ([]*model.Request, error) {
	return r.list(ctx,
		"SELECT * FROM requests WHERE status = ? AND created_at < ? ORDER BY created_at DESC, id",
		string(model.RequestPending), t.UnixNano(),
	)
}

func (r *requestRepo) list(ctx context.Context, query string, args ...any) ([]*model.Request, error) {
	var rows []requestRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("querying requests: %w", err)
	}
	var out []*model.Request
	for i := range rows {
		req, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, nil
}
