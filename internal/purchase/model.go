package purchase

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Purchase records a buyer paying for one item through one deposit session.
type Purchase struct {
	ID          int64           `db:"id" json:"id"`
	SessionID   string          `db:"session_id" json:"sessionId"`
	BuyerID     string          `db:"buyer_id" json:"buyerId"`
	ItemID      string          `db:"item_id" json:"itemId"`
	ItemType    string          `db:"item_type" json:"itemType"`
	SellerID    string          `db:"seller_id" json:"sellerId"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Currency    string          `db:"currency" json:"currency"`
	Status      Status          `db:"status" json:"status"`
	Processed   bool            `db:"processed" json:"processed"`
	CreatedAt   time.Time       `db:"created_at" json:"createdAt"`
	CompletedAt sql.NullTime    `db:"completed_at" json:"-"`
}

type GrantResult struct {
	PurchaseID     int64           `json:"purchaseId"`
	SessionID      string          `json:"sessionId"`
	BuyerID        string          `json:"buyerId"`
	ItemID         string          `json:"itemId"`
	SellerID       string          `json:"sellerId"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Credited       decimal.Decimal `json:"credited"`
	AlreadyGranted bool            `json:"alreadyGranted"`
	// Duplicate is set when the buyer already owned the item through another
	// session. The session is marked failed and its payment needs a refund.
	Duplicate      bool            `json:"duplicate,omitempty"`
}

type SweepResult struct {
	Scanned  int `json:"scanned"`
	Credited int `json:"credited"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// SellerShare returns percent of amount, rounded to cents.
func SellerShare(amount, percent decimal.Decimal) decimal.Decimal {
	return amount.Mul(percent).Div(decimal.NewFromInt(100)).Round(2)
}
