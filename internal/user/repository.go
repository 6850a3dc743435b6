package user

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrNoDeviceToken = errors.New("user has no registered device")
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByID(ctx context.Context, id string) (*User, error) {
	query := `
		SELECT id, name, email, role, device_token, created_at
		FROM users
		WHERE id = $1
	`

	var user User
	err := r.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// DeviceToken returns the push token registered for the user.
func (r *repository) DeviceToken(ctx context.Context, id string) (string, error) {
	u, err := r.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	if !u.DeviceToken.Valid || u.DeviceToken.String == "" {
		return "", ErrNoDeviceToken
	}
	return u.DeviceToken.String, nil
}

func (r *repository) UpdateDeviceToken(ctx context.Context, id, token string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET device_token = $1 WHERE id = $2`, token, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}
