package purchase

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"coursepay/internal/db"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	ErrPurchaseNotFound  = errors.New("purchase not found")
	ErrPurchaseLocked    = errors.New("purchase is being processed elsewhere")
	ErrDuplicateSession  = errors.New("deposit session already recorded")
	ErrInvalidTransition = errors.New("purchase cannot move to the requested status")
	ErrAlreadyOwned      = errors.New("buyer already owns this item")
)

const purchaseColumns = `id, session_id, buyer_id, item_id, item_type, seller_id, amount, currency, status, processed, created_at, completed_at`

type Repository interface {
	CreatePending(ctx context.Context, p *Purchase) error
	GetBySessionID(ctx context.Context, sessionID string) (*Purchase, error)
	HasCompleted(ctx context.Context, buyerID, itemID string) (bool, error)
	MarkFailed(ctx context.Context, sessionID string) (bool, error)
	ListUnprocessed(ctx context.Context, limit int) ([]string, error)
	ListStalePending(ctx context.Context, before time.Time, limit int) ([]Purchase, error)

	LockBySessionTx(ctx context.Context, tx *sqlx.Tx, sessionID string, skipLocked bool) (*Purchase, error)
	HasOtherCompletedTx(ctx context.Context, tx *sqlx.Tx, p *Purchase) (bool, error)
	MarkCompletedTx(ctx context.Context, tx *sqlx.Tx, id int64) error
	MarkFailedTx(ctx context.Context, tx *sqlx.Tx, id int64) error
	MarkProcessedTx(ctx context.Context, tx *sqlx.Tx, id int64) error
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(conn *sqlx.DB) Repository {
	return &repository{db: conn}
}

func (r *repository) CreatePending(ctx context.Context, p *Purchase) error {
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO purchases (session_id, buyer_id, item_id, item_type, seller_id, amount, currency)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, status, processed, created_at`,
		p.SessionID, p.BuyerID, p.ItemID, p.ItemType, p.SellerID, p.Amount, p.Currency,
	).Scan(&p.ID, &p.Status, &p.Processed, &p.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateSession
		}
		return err
	}
	return nil
}

func (r *repository) GetBySessionID(ctx context.Context, sessionID string) (*Purchase, error) {
	var p Purchase
	err := r.db.GetContext(ctx, &p, `SELECT `+purchaseColumns+` FROM purchases WHERE session_id = $1`, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPurchaseNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) HasCompleted(ctx context.Context, buyerID, itemID string) (bool, error) {
	return db.Exists(ctx, r.db,
		`SELECT EXISTS(SELECT 1 FROM purchases WHERE buyer_id = $1 AND item_id = $2 AND status = 'completed')`,
		buyerID, itemID,
	)
}

// MarkFailed moves a pending purchase to failed. It reports false when the
// purchase was not pending.
func (r *repository) MarkFailed(ctx context.Context, sessionID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE purchases SET status = 'failed' WHERE session_id = $1 AND status = 'pending'`,
		sessionID,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *repository) ListUnprocessed(ctx context.Context, limit int) ([]string, error) {
	ids := []string{}
	err := r.db.SelectContext(ctx, &ids, `
		SELECT session_id
		FROM purchases
		WHERE status = 'completed' AND processed = FALSE
		ORDER BY created_at
		LIMIT $1
	`, limit)
	return ids, err
}

func (r *repository) ListStalePending(ctx context.Context, before time.Time, limit int) ([]Purchase, error) {
	purchases := []Purchase{}
	err := r.db.SelectContext(ctx, &purchases, `
		SELECT `+purchaseColumns+`
		FROM purchases
		WHERE status = 'pending' AND created_at < $1
		ORDER BY created_at
		LIMIT $2
	`, before, limit)
	return purchases, err
}

// LockBySessionTx selects the purchase FOR UPDATE. With skipLocked a row held
// by another transaction yields ErrPurchaseLocked instead of blocking.
func (r *repository) LockBySessionTx(ctx context.Context, tx *sqlx.Tx, sessionID string, skipLocked bool) (*Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE session_id = $1 FOR UPDATE`
	if skipLocked {
		query += ` SKIP LOCKED`
	}

	var p Purchase
	err := tx.GetContext(ctx, &p, query, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		if skipLocked {
			return nil, ErrPurchaseLocked
		}
		return nil, ErrPurchaseNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// HasOtherCompletedTx reports whether the buyer already completed another
// purchase of the same item.
func (r *repository) HasOtherCompletedTx(ctx context.Context, tx *sqlx.Tx, p *Purchase) (bool, error) {
	return db.Exists(ctx, tx,
		`SELECT EXISTS(SELECT 1 FROM purchases WHERE buyer_id = $1 AND item_id = $2 AND status = 'completed' AND id <> $3)`,
		p.BuyerID, p.ItemID, p.ID,
	)
}

// MarkCompletedTx returns ErrAlreadyOwned when a concurrent grant completed
// another purchase of the same item first.
func (r *repository) MarkCompletedTx(ctx context.Context, tx *sqlx.Tx, id int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE purchases SET status = 'completed', completed_at = NOW() WHERE id = $1 AND status = 'pending'`,
		id,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrAlreadyOwned
		}
		return err
	}
	return expectOne(res)
}

func (r *repository) MarkFailedTx(ctx context.Context, tx *sqlx.Tx, id int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE purchases SET status = 'failed' WHERE id = $1 AND status = 'pending'`,
		id,
	)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (r *repository) MarkProcessedTx(ctx context.Context, tx *sqlx.Tx, id int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE purchases SET processed = TRUE WHERE id = $1 AND status = 'completed' AND processed = FALSE`,
		id,
	)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return ErrInvalidTransition
	}
	return nil
}
