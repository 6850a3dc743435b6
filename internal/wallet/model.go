package wallet

import (
	"time"

	"github.com/shopspring/decimal"
)

// Entry kinds. Each (kind, reference) pair can be applied to a wallet only once.
const (
	KindSaleCredit   = "sale_credit"
	KindPayoutDebit  = "payout_debit"
	KindPayoutRefund = "payout_refund"
)

// Wallet holds a seller's withdrawable balance and lifetime earnings.
type Wallet struct {
	TeacherID   string          `db:"teacher_id" json:"teacherId"`
	Balance     decimal.Decimal `db:"balance" json:"balance"`
	TotalEarned decimal.Decimal `db:"total_earned" json:"totalEarned"`
	Currency    string          `db:"currency" json:"currency"`
	CreatedAt   time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updatedAt"`
}

type Entry struct {
	ID           int64           `db:"id" json:"id"`
	TeacherID    string          `db:"teacher_id" json:"teacherId"`
	Amount       decimal.Decimal `db:"amount" json:"amount"`
	Kind         string          `db:"kind" json:"kind"`
	Reference    string          `db:"reference" json:"reference"`
	BalanceAfter decimal.Decimal `db:"balance_after" json:"balanceAfter"`
	CreatedAt    time.Time       `db:"created_at" json:"createdAt"`
}

// Movement is a signed balance change. Earned movements also raise total_earned.
type Movement struct {
	TeacherID string
	Amount    decimal.Decimal
	Currency  string
	Kind      string
	Reference string
	Earned    bool
}
