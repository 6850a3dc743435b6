package purchase

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"coursepay/internal/adminlog"
	"coursepay/internal/db"
	"coursepay/internal/events"
	"coursepay/internal/logger"
	"coursepay/internal/metrics"
	"coursepay/internal/wallet"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("coursepay/purchase")

// Notifier delivers a push to a user's device.
type Notifier interface {
	NotifyUser(ctx context.Context, userID, title, body string, data map[string]string) error
}

type GrantService struct {
	db           *sqlx.DB
	repo         Repository
	wallets      wallet.Repository
	sharePercent decimal.Decimal
	publisher    events.Publisher
	notifier     Notifier
	adminEvents  adminlog.Recorder
}

func NewGrantService(conn *sqlx.DB, repo Repository, wallets wallet.Repository, sharePercent decimal.Decimal,
	publisher events.Publisher, notifier Notifier, adminEvents adminlog.Recorder) *GrantService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &GrantService{
		db:           conn,
		repo:         repo,
		wallets:      wallets,
		sharePercent: sharePercent,
		publisher:    publisher,
		notifier:     notifier,
		adminEvents:  adminEvents,
	}
}

// GrantAccess completes the purchase behind sessionID and credits the seller's
// share, once. Repeated calls for the same session are no-ops.
func (s *GrantService) GrantAccess(ctx context.Context, sessionID string) (*GrantResult, error) {
	ctx, span := tracer.Start(ctx, "purchase.GrantAccess")
	defer span.End()
	span.SetAttributes(attribute.String("session_id", sessionID))

	res, err := s.grant(ctx, sessionID, false)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if !errors.Is(err, ErrPurchaseNotFound) && !errors.Is(err, ErrInvalidTransition) && s.adminEvents != nil {
			s.adminEvents.Record(ctx, adminlog.TypeGrantFailed, adminlog.SeverityCritical,
				"failed to grant access for paid deposit",
				map[string]interface{}{"sessionId": sessionID, "error": err.Error()})
		}
		return nil, err
	}

	s.afterGrant(ctx, res)
	span.SetAttributes(attribute.Bool("already_granted", res.AlreadyGranted))
	return res, nil
}

// AutoCredit credits sellers for completed purchases that were never
// processed. Rows locked by a concurrent grant are skipped.
func (s *GrantService) AutoCredit(ctx context.Context, limit int) (*SweepResult, error) {
	if limit <= 0 {
		limit = 50
	}

	ids, err := s.repo.ListUnprocessed(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list unprocessed purchases: %w", err)
	}

	out := &SweepResult{Scanned: len(ids)}
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}

		res, err := s.grant(ctx, id, true)
		switch {
		case errors.Is(err, ErrPurchaseLocked):
			out.Skipped++
			metrics.RecordAutoCredit("skipped")
		case err != nil:
			out.Failed++
			metrics.RecordAutoCredit("failed")
			logger.Error("auto-credit failed", "session_id", id, "error", err)
		case res.AlreadyGranted:
			out.Skipped++
			metrics.RecordAutoCredit("skipped")
		default:
			out.Credited++
			metrics.RecordAutoCredit("credited")
			s.afterGrant(ctx, res)
		}
	}

	logger.Info("auto-credit sweep finished",
		"scanned", out.Scanned, "credited", out.Credited, "skipped", out.Skipped, "failed", out.Failed)
	return out, nil
}

// grant retries once when a concurrent grant completed another purchase of
// the same item, so the second pass sees it and records a duplicate.
func (s *GrantService) grant(ctx context.Context, sessionID string, skipLocked bool) (*GrantResult, error) {
	res, err := s.grantOnce(ctx, sessionID, skipLocked)
	if errors.Is(err, ErrAlreadyOwned) {
		res, err = s.grantOnce(ctx, sessionID, skipLocked)
	}
	return res, err
}

func (s *GrantService) grantOnce(ctx context.Context, sessionID string, skipLocked bool) (*GrantResult, error) {
	var res *GrantResult

	err := db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		p, err := s.repo.LockBySessionTx(ctx, tx, sessionID, skipLocked)
		if err != nil {
			return err
		}

		res = &GrantResult{
			PurchaseID: p.ID,
			SessionID:  p.SessionID,
			BuyerID:    p.BuyerID,
			ItemID:     p.ItemID,
			SellerID:   p.SellerID,
			Amount:     p.Amount,
			Currency:   p.Currency,
			Credited:   decimal.Zero,
		}

		switch p.Status {
		case StatusFailed:
			return ErrInvalidTransition
		case StatusPending:
			owned, err := s.repo.HasOtherCompletedTx(ctx, tx, p)
			if err != nil {
				return err
			}
			if owned {
				res.AlreadyGranted = true
				res.Duplicate = true
				return s.repo.MarkFailedTx(ctx, tx, p.ID)
			}
			if err := s.repo.MarkCompletedTx(ctx, tx, p.ID); err != nil {
				return err
			}
		}

		if p.Processed {
			res.AlreadyGranted = true
			return nil
		}

		credit := SellerShare(p.Amount, s.sharePercent)
		if credit.IsPositive() {
			_, err = s.wallets.ApplyTx(ctx, tx, wallet.Movement{
				TeacherID: p.SellerID,
				Amount:    credit,
				Currency:  p.Currency,
				Kind:      wallet.KindSaleCredit,
				Reference: strconv.FormatInt(p.ID, 10),
				Earned:    true,
			})
			if err != nil {
				return fmt.Errorf("credit seller %s: %w", p.SellerID, err)
			}
		}

		if err := s.repo.MarkProcessedTx(ctx, tx, p.ID); err != nil {
			return err
		}

		res.Credited = credit
		return nil
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}

// afterGrant runs the side effects of a committed grant. None of them can fail it.
func (s *GrantService) afterGrant(ctx context.Context, res *GrantResult) {
	if res.Duplicate {
		metrics.RecordGrant("duplicate")
		logger.Warn("paid session for an item the buyer already owns",
			"session_id", res.SessionID, "buyer_id", res.BuyerID, "item_id", res.ItemID)
		if s.adminEvents != nil {
			s.adminEvents.Record(ctx, adminlog.TypeDuplicatePayment, adminlog.SeverityCritical,
				"buyer paid twice for the same item, refund the session",
				map[string]interface{}{
					"sessionId": res.SessionID,
					"buyerId":   res.BuyerID,
					"itemId":    res.ItemID,
					"amount":    res.Amount.StringFixed(2),
					"currency":  res.Currency,
				})
		}
		return
	}
	if res.AlreadyGranted {
		metrics.RecordGrant("already_granted")
		return
	}

	metrics.RecordGrant("granted")
	credited, _ := res.Credited.Float64()
	metrics.RecordSellerCredit(credited)
	logger.Info("access granted",
		"session_id", res.SessionID, "buyer_id", res.BuyerID, "item_id", res.ItemID,
		"seller_id", res.SellerID, "credited", res.Credited.StringFixed(2))

	if err := s.publisher.Publish(ctx, events.PurchaseCompleted, res); err != nil {
		logger.Warn("failed to publish purchase event", "session_id", res.SessionID, "error", err)
	}

	if s.notifier != nil {
		body := fmt.Sprintf("You earned %s %s from a new sale.", res.Credited.StringFixed(2), res.Currency)
		data := map[string]string{"type": "sale", "itemId": res.ItemID, "sessionId": res.SessionID}
		if err := s.notifier.NotifyUser(ctx, res.SellerID, "New sale", body, data); err != nil {
			logger.Debug("sale notification skipped", "seller_id", res.SellerID, "error", err)
		}
	}
}
