package wallet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"coursepay/internal/db"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrDuplicateEntry      = errors.New("wallet entry already applied")
	ErrZeroMovement        = errors.New("wallet movement amount must be non-zero")
)

const walletColumns = `teacher_id, balance, total_earned, currency, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, teacherID string) (*Wallet, error) {
	w := &Wallet{}
	err := r.db.GetContext(ctx, w, `SELECT `+walletColumns+` FROM wallets WHERE teacher_id = $1`, teacherID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrWalletNotFound
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

// Apply runs a single movement in its own transaction.
func (r *repository) Apply(ctx context.Context, m Movement) (*Wallet, error) {
	var out *Wallet
	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		w, err := r.ApplyTx(ctx, tx, m)
		out = w
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ApplyTx locks the seller's wallet row, applies the signed amount and records
// an entry, all inside tx. Positive movements create the wallet on first use.
// The balance never goes below zero.
func (r *repository) ApplyTx(ctx context.Context, tx *sqlx.Tx, m Movement) (*Wallet, error) {
	if m.Amount.IsZero() {
		return nil, ErrZeroMovement
	}

	w, err := r.lockTx(ctx, tx, m.TeacherID)
	if errors.Is(err, sql.ErrNoRows) {
		if m.Amount.IsNegative() {
			return nil, ErrWalletNotFound
		}
		currency := m.Currency
		if currency == "" {
			currency = "USD"
		}
		// A concurrent first credit may insert the row first; DO NOTHING waits
		// for it and the lock below picks up the committed row.
		_, err = tx.ExecContext(ctx,
			`INSERT INTO wallets (teacher_id, currency)
			 VALUES ($1, $2)
			 ON CONFLICT (teacher_id) DO NOTHING`,
			m.TeacherID, currency,
		)
		if err != nil {
			return nil, fmt.Errorf("create wallet %s: %w", m.TeacherID, err)
		}
		w, err = r.lockTx(ctx, tx, m.TeacherID)
	}
	if err != nil {
		return nil, fmt.Errorf("lock wallet %s: %w", m.TeacherID, err)
	}

	newBalance := w.Balance.Add(m.Amount)
	if newBalance.IsNegative() {
		return nil, ErrInsufficientBalance
	}
	totalEarned := w.TotalEarned
	if m.Earned {
		totalEarned = totalEarned.Add(m.Amount)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO wallet_entries (teacher_id, amount, kind, reference, balance_after)
		 VALUES ($1, $2, $3, $4, $5)`,
		m.TeacherID, m.Amount, m.Kind, m.Reference, newBalance,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrDuplicateEntry
		}
		return nil, fmt.Errorf("insert wallet entry: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE wallets
		 SET balance = $1, total_earned = $2, updated_at = NOW()
		 WHERE teacher_id = $3`,
		newBalance, totalEarned, m.TeacherID,
	)
	if err != nil {
		return nil, fmt.Errorf("update wallet: %w", err)
	}

	w.Balance = newBalance
	w.TotalEarned = totalEarned
	return w, nil
}

func (r *repository) lockTx(ctx context.Context, tx *sqlx.Tx, teacherID string) (*Wallet, error) {
	var w Wallet
	err := tx.QueryRowxContext(ctx,
		`SELECT `+walletColumns+`
		 FROM wallets
		 WHERE teacher_id = $1
		 FOR UPDATE`,
		teacherID,
	).StructScan(&w)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *repository) GetEntries(ctx context.Context, teacherID string, limit, offset int) ([]Entry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	entries := []Entry{}
	err := r.db.SelectContext(ctx, &entries, `
		SELECT id, teacher_id, amount, kind, reference, balance_after, created_at
		FROM wallet_entries
		WHERE teacher_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, teacherID, limit, offset)
	if err != nil {
		return nil, err
	}

	return entries, nil
}
