package payout

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Transaction is a payout to a seller's mobile-money account. ID is the
// payout id sent to the provider.
type Transaction struct {
	ID                string          `db:"id" json:"id"`
	TeacherID         string          `db:"teacher_id" json:"teacherId"`
	Amount            decimal.Decimal `db:"amount" json:"amount"`
	Currency          string          `db:"currency" json:"currency"`
	PhoneNumber       string          `db:"phone_number" json:"phoneNumber"`
	Provider          string          `db:"provider" json:"provider"`
	ClientReferenceID string          `db:"client_reference_id" json:"clientReferenceId"`
	Status            string          `db:"status" json:"status"`
	FailureReason     sql.NullString  `db:"failure_reason" json:"-"`
	CreatedAt         time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updatedAt"`
}

type Request struct {
	TeacherID         string
	Amount            decimal.Decimal
	PhoneNumber       string
	Currency          string
	Provider          string
	ClientReferenceID string
}

type Result struct {
	PayoutID    string
	ExternalID  string
	Status      string
	Replayed    bool
	// Unconfirmed is set when the provider call ended without a definite
	// answer. The amount stays reserved until Reconcile settles it.
	Unconfirmed bool
}

type ReconcileResult struct {
	Scanned   int `json:"scanned"`
	Completed int `json:"completed"`
	Refunded  int `json:"refunded"`
	Pending   int `json:"pending"`
	Errors    int `json:"errors"`
}
