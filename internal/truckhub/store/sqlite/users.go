package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/truckwatch-io/truckwatch/internal/truckhub/core/model"
)

type userRow struct {
	ID              string `db:"id"`
	Email           string `db:"email"`
	FirstName       string `db:"first_name"`
	HomeCity        string `db:"home_city"`
	FoodPreferences string `db:"food_preferences"`
	Role            string `db:"role"`
	DriverInfo      string `db:"driver_info"`
	Favorites       string `db:"favorites"`
}

func toUserRow(u *model.User) (*userRow, error) {
	row := &userRow{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		HomeCity:  u.HomeCity,
		Role:      string(u.Role),
	}
	prefs, err := json.Marshal(nonNil(u.FoodPreferences))
	if err != nil {
		return nil, fmt.Errorf("marshaling food preferences: %w", err)
	}
	favs, err := json.Marshal(nonNil(u.Favorites))
	if err != nil {
		return nil, fmt.Errorf("marshaling favorites: %w", err)
	}
	row.FoodPreferences, row.Favorites = string(prefs), string(favs)

	if u.DriverInfo != nil {
		info, err := json.Marshal(u.DriverInfo)
		if err != nil {
			return nil, fmt.Errorf("marshaling driver info: %w", err)
		}
		row.DriverInfo = string(info)
	}
	return row, nil
}

func (r *userRow) toModel() (*model.User, error) {
	u := &model.User{
		ID:        r.ID,
		Email:     r.Email,
		FirstName: r.FirstName,
		HomeCity:  r.HomeCity,
		Role:      model.Role(r.Role),
	}
	if err := json.Unmarshal([]byte(r.FoodPreferences), &u.FoodPreferences); err != nil {
		return nil, fmt.Errorf("unmarshaling food preferences of %s: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(r.Favorites), &u.Favorites); err != nil {
		return nil, fmt.Errorf("unmarshaling favorites of %s: %w", r.ID, err)
	}
	if len(u.FoodPreferences) == 0 {
		u.FoodPreferences = nil
	}
	if r.DriverInfo != "" {
		u.DriverInfo = &model.DriverInfo{}
		if err := json.Unmarshal([]byte(r.DriverInfo), u.DriverInfo); err != nil {
			return nil, fmt.Errorf("unmarshaling driver info of %s: %w", r.ID, err)
		}
	}
	return u, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

type userRepo struct {
	db *sqlx.DB
}

func (r *userRepo) Get(ctx context.Context, id string) (*model.User, error) {
	var row userRow
	err := r.db.GetContext(ctx, &row, "SELECT * FROM users WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", model.ErrUserNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting user %s: %w", id, err)
	}
	return row.toModel()
}

func (r *userRepo) Create(ctx context.Context, u *model.User) error {
	row, err := toUserRow(u)
	if err != nil {
		return err
	}
	res, err := r.db.NamedExecContext(ctx, `
		INSERT INTO users (id, email, first_name, home_city, food_preferences, role, driver_info, favorites)
		VALUES (:id, :email, :first_name, :home_city, :food_preferences, :role, :driver_info, :favorites)
		ON CONFLICT(id) DO NOTHING`, row)
	if err != nil {
		return fmt.Errorf("creating user %s: %w", u.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", model.ErrUserExists, u.ID)
	}
	return nil
}

func (r *userRepo) Update(ctx context.Context, u *model.User) error {
	row, err := toUserRow(u)
	if err != nil {
		return err
	}
	res, err := r.db.NamedExecContext(ctx, `
		UPDATE users SET
			email = :email, first_name = :first_name, home_city = :home_city,
			food_preferences = :food_preferences, role = :role,
			driver_info = :driver_info, favorites = :favorites
		WHERE id = :id`, row)
	if err != nil {
		return fmt.Errorf("updating user %s: %w", u.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", model.ErrUserNotFound, u.ID)
	}
	return nil
}

func (r *userRepo) List(ctx context.Context) ([]*model.User, error) {
	var rows []userRow
	if err := r.db.SelectContext(ctx, &rows, "SELECT * FROM users ORDER BY id"); err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	out := make([]*model.User, 0, len(rows))
	for i := range rows {
		u, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}
