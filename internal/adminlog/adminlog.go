// Package adminlog keeps an append-only record of operational failures for
// administrators: provider outages, rejected payouts, undeliverable pushes.
package adminlog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"coursepay/internal/logger"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
)

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Event types.
const (
	TypeDepositProviderError = "deposit_provider_error"
	TypePayoutProviderError  = "payout_provider_error"
	TypePayoutRejected       = "payout_rejected"
	TypePayoutRefunded       = "payout_refunded"
	TypePayoutUnconfirmed    = "payout_unconfirmed"
	TypeGrantFailed          = "grant_failed"
	TypeDuplicatePayment     = "duplicate_payment"
	TypeNotificationFailed   = "notification_failed"
	TypeVideoProviderError   = "video_provider_error"
)

type Event struct {
	ID        int64          `db:"id" json:"id"`
	Type      string         `db:"type" json:"type"`
	Severity  Severity       `db:"severity" json:"severity"`
	Message   string         `db:"message" json:"message"`
	Context   types.JSONText `db:"context" json:"context"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
}

type Recorder interface {
	Record(ctx context.Context, typ string, severity Severity, message string, fields map[string]interface{})
}

type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Record logs the event and appends it to admin_events. Storage failures are
// logged and swallowed so callers can surface the original error.
func (s *Store) Record(ctx context.Context, typ string, severity Severity, message string, fields map[string]interface{}) {
	logger.WithFields(fields).Log(ctx, level(severity), message, "event_type", typ)

	if err := s.insert(ctx, typ, severity, message, fields); err != nil {
		logger.Error("failed to record admin event", "event_type", typ, "error", err)
	}
}

func (s *Store) insert(ctx context.Context, typ string, severity Severity, message string, fields map[string]interface{}) error {
	if fields == nil {
		fields = map[string]interface{}{}
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal context: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO admin_events (type, severity, message, context) VALUES ($1, $2, $3, $4)`,
		typ, string(severity), message, types.JSONText(raw),
	)
	return err
}

func (s *Store) List(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	events := []Event{}
	err := s.db.SelectContext(ctx, &events, `
		SELECT id, type, severity, message, context, created_at
		FROM admin_events
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return events, nil
}

func level(s Severity) slog.Level {
	switch s {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
