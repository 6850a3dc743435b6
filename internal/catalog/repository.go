package catalog

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrItemNotFound = errors.New("item not found")

type Repository interface {
	FindItem(ctx context.Context, id string) (*Item, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// FindItem looks the id up in courses first, then playlists.
func (r *repository) FindItem(ctx context.Context, id string) (*Item, error) {
	query := `
		SELECT id, item_type, title, teacher_id, price, currency, created_at FROM (
			SELECT id, 'course' AS item_type, title, teacher_id, price, currency, created_at, 0 AS rank
			FROM courses WHERE id = $1
			UNION ALL
			SELECT id, 'playlist' AS item_type, title, teacher_id, price, currency, created_at, 1 AS rank
			FROM playlists WHERE id = $1
		) items
		ORDER BY rank
		LIMIT 1
	`

	var item Item
	err := r.db.GetContext(ctx, &item, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}

	return &item, nil
}
