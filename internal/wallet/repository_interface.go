package wallet

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	Get(ctx context.Context, teacherID string) (*Wallet, error)
	GetEntries(ctx context.Context, teacherID string, limit, offset int) ([]Entry, error)
	ApplyTx(ctx context.Context, tx *sqlx.Tx, m Movement) (*Wallet, error)
	Apply(ctx context.Context, m Movement) (*Wallet, error)
}
