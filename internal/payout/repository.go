package payout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	ErrTransactionNotFound = errors.New("payout transaction not found")
	ErrDuplicateReference  = errors.New("client reference id already used")
	ErrAlreadySettled      = errors.New("payout transaction already settled")
)

const transactionColumns = `id, teacher_id, amount, currency, phone_number, provider,
	client_reference_id, status, failure_reason, created_at, updated_at`

type Repository interface {
	GetByClientReference(ctx context.Context, ref string) (*Transaction, error)
	ListPending(ctx context.Context, limit int) ([]Transaction, error)
	ListByTeacher(ctx context.Context, teacherID string, limit int) ([]Transaction, error)
	InsertTx(ctx context.Context, tx *sqlx.Tx, t *Transaction) error
	LockTx(ctx context.Context, tx *sqlx.Tx, id string) (*Transaction, error)
	SettleTx(ctx context.Context, tx *sqlx.Tx, id, status, reason string) error
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByClientReference(ctx context.Context, ref string) (*Transaction, error) {
	t := &Transaction{}
	err := r.db.GetContext(ctx, t,
		`SELECT `+transactionColumns+` FROM transactions WHERE client_reference_id = $1`, ref)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *repository) ListPending(ctx context.Context, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	out := []Transaction{}
	err := r.db.SelectContext(ctx, &out,
		`SELECT `+transactionColumns+`
		 FROM transactions
		 WHERE status = 'pending'
		 ORDER BY created_at
		 LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) ListByTeacher(ctx context.Context, teacherID string, limit int) ([]Transaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	out := []Transaction{}
	err := r.db.SelectContext(ctx, &out,
		`SELECT `+transactionColumns+`
		 FROM transactions
		 WHERE teacher_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`, teacherID, limit)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) InsertTx(ctx context.Context, tx *sqlx.Tx, t *Transaction) error {
	err := tx.QueryRowxContext(ctx,
		`INSERT INTO transactions (id, teacher_id, amount, currency, phone_number, provider, client_reference_id, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at, updated_at`,
		t.ID, t.TeacherID, t.Amount, t.Currency, t.PhoneNumber, t.Provider, t.ClientReferenceID, t.Status,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateReference
		}
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (r *repository) LockTx(ctx context.Context, tx *sqlx.Tx, id string) (*Transaction, error) {
	t := &Transaction{}
	err := tx.QueryRowxContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1 FOR UPDATE`, id,
	).StructScan(t)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// SettleTx moves a pending transaction to its final status.
func (r *repository) SettleTx(ctx context.Context, tx *sqlx.Tx, id, status, reason string) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE transactions
		 SET status = $1, failure_reason = NULLIF($2, ''), updated_at = NOW()
		 WHERE id = $3 AND status = 'pending'`,
		status, reason, id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return ErrAlreadySettled
	}
	return nil
}
