package payout

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"coursepay/internal/adminlog"
	"coursepay/internal/config"
	"coursepay/internal/db"
	"coursepay/internal/events"
	"coursepay/internal/logger"
	"coursepay/internal/metrics"
	"coursepay/internal/pawapay"
	"coursepay/internal/poller"
	"coursepay/internal/wallet"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("coursepay/payout")

var (
	ErrInvalidAmount       = errors.New("amount must be a positive number")
	ErrBelowMinimum        = errors.New("amount is below the minimum payout")
	ErrAboveMaximum        = errors.New("amount exceeds the maximum payout")
	ErrInvalidPhone        = errors.New("invalid mobile money phone number")
	ErrInsufficientBalance = errors.New("insufficient wallet balance")
	ErrProvider            = errors.New("payout provider error")
	ErrReferenceConflict   = errors.New("client reference belongs to a different payout")
)

// DefaultUnknownAfter is how long a payout the provider has no record of stays
// pending before it is refunded.
const DefaultUnknownAfter = time.Hour

// RejectedError is returned when the provider refuses a payout request.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string   { return "payout rejected: " + e.Reason }
func (e *RejectedError) Details() string { return e.Reason }

type Provider interface {
	CreatePayout(ctx context.Context, req pawapay.PayoutRequest) (*pawapay.PayoutResponse, error)
	GetPayoutStatus(ctx context.Context, payoutID string) (string, error)
}

type Config struct {
	Min          decimal.Decimal
	Max          decimal.Decimal
	PhoneRule    config.PhoneRule
	UnknownAfter time.Duration
}

type Service struct {
	db          *sqlx.DB
	repo        Repository
	wallets     wallet.Repository
	provider    Provider
	publisher   events.Publisher
	adminEvents adminlog.Recorder
	cfg         Config
	newID       func() string
	now         func() time.Time
}

func NewService(conn *sqlx.DB, repo Repository, wallets wallet.Repository, provider Provider,
	publisher events.Publisher, adminEvents adminlog.Recorder, cfg Config) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if cfg.UnknownAfter <= 0 {
		cfg.UnknownAfter = DefaultUnknownAfter
	}
	return &Service{
		db:          conn,
		repo:        repo,
		wallets:     wallets,
		provider:    provider,
		publisher:   publisher,
		adminEvents: adminEvents,
		cfg:         cfg,
		newID:       uuid.NewString,
		now:         time.Now,
	}
}

// validate checks the request fields in a fixed order and returns the
// normalized phone number.
func (s *Service) validate(req Request) (string, error) {
	if !req.Amount.IsPositive() {
		return "", ErrInvalidAmount
	}
	if req.Amount.LessThan(s.cfg.Min) {
		return "", fmt.Errorf("%w (%s)", ErrBelowMinimum, s.cfg.Min.StringFixed(2))
	}
	if req.Amount.GreaterThan(s.cfg.Max) {
		return "", fmt.Errorf("%w (%s)", ErrAboveMaximum, s.cfg.Max.StringFixed(2))
	}
	phone, ok := NormalizePhone(req.PhoneNumber, s.cfg.PhoneRule)
	if !ok {
		return "", fmt.Errorf("%w: expected %d digits starting with %s",
			ErrInvalidPhone, s.cfg.PhoneRule.Digits, s.cfg.PhoneRule.CallingCode)
	}
	return phone, nil
}

// Request reserves the amount on the seller's wallet and asks the provider to
// send it. A definite rejection refunds the reservation. When the outcome is
// unknown (timeout, 5xx) the payout stays pending for Reconcile.
func (s *Service) Request(ctx context.Context, req Request) (*Result, error) {
	ctx, span := tracer.Start(ctx, "payout.Request")
	defer span.End()
	span.SetAttributes(attribute.String("teacher_id", req.TeacherID))

	res, err := s.request(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return res, nil
}

func (s *Service) request(ctx context.Context, req Request) (*Result, error) {
	phone, err := s.validate(req)
	if err != nil {
		metrics.RecordPayout("invalid")
		return nil, err
	}

	if req.ClientReferenceID != "" {
		existing, err := s.repo.GetByClientReference(ctx, req.ClientReferenceID)
		if err == nil {
			return replay(existing, req)
		}
		if !errors.Is(err, ErrTransactionNotFound) {
			return nil, err
		}
	} else {
		req.ClientReferenceID = s.newID()
	}

	w, err := s.wallets.Get(ctx, req.TeacherID)
	if err != nil {
		return nil, err
	}
	if req.Amount.GreaterThan(w.Balance) {
		metrics.RecordPayout("insufficient_balance")
		return nil, ErrInsufficientBalance
	}

	currency := req.Currency
	if currency == "" {
		currency = w.Currency
	}
	t := &Transaction{
		ID:                s.newID(),
		TeacherID:         req.TeacherID,
		Amount:            req.Amount,
		Currency:          currency,
		PhoneNumber:       phone,
		Provider:          Correspondent(req.Provider),
		ClientReferenceID: req.ClientReferenceID,
		Status:            StatusPending,
	}

	err = db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if _, err := s.wallets.ApplyTx(ctx, tx, wallet.Movement{
			TeacherID: t.TeacherID,
			Amount:    t.Amount.Neg(),
			Currency:  t.Currency,
			Kind:      wallet.KindPayoutDebit,
			Reference: t.ID,
		}); err != nil {
			return err
		}
		return s.repo.InsertTx(ctx, tx, t)
	})
	switch {
	case errors.Is(err, wallet.ErrInsufficientBalance):
		metrics.RecordPayout("insufficient_balance")
		return nil, ErrInsufficientBalance
	case errors.Is(err, ErrDuplicateReference):
		existing, gerr := s.repo.GetByClientReference(ctx, req.ClientReferenceID)
		if gerr != nil {
			return nil, gerr
		}
		return replay(existing, req)
	case err != nil:
		return nil, fmt.Errorf("reserve payout: %w", err)
	}

	resp, err := s.provider.CreatePayout(ctx, pawapay.PayoutRequest{
		PayoutID:      t.ID,
		Amount:        t.Amount,
		Currency:      t.Currency,
		Correspondent: t.Provider,
		PhoneNumber:   t.PhoneNumber,
		Description:   "Teacher payout",
	})
	if err == nil && resp.Status == pawapay.PayoutRejected {
		err = &RejectedError{Reason: resp.Rejection()}
	}
	if err != nil && !definiteFailure(err) {
		s.unconfirmed(ctx, t, err)
		metrics.RecordPayout("unconfirmed")
		return &Result{PayoutID: t.ID, ExternalID: t.ClientReferenceID, Status: t.Status, Unconfirmed: true}, nil
	}
	if err != nil {
		s.fail(context.WithoutCancel(ctx), t, err)
		metrics.RecordPayout("provider_error")
		return nil, fmt.Errorf("%w: %w", ErrProvider, err)
	}

	logger.Info("payout requested", "payout_id", t.ID, "teacher_id", t.TeacherID, "amount", t.Amount.String())
	metrics.RecordPayout("requested")
	s.publish(ctx, events.PayoutRequested, t)

	return &Result{PayoutID: t.ID, ExternalID: t.ClientReferenceID, Status: t.Status}, nil
}

// definiteFailure reports whether the provider certainly did not accept the
// payout. Transport errors, timeouts and 5xx answers are not definite.
func definiteFailure(err error) bool {
	var rejected *RejectedError
	if errors.As(err, &rejected) {
		return true
	}
	var apiErr *pawapay.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.StatusCode
		return code >= 400 && code < 500 && code != http.StatusRequestTimeout && code != http.StatusConflict
	}
	return false
}

// unconfirmed keeps the reservation and leaves the payout pending.
func (s *Service) unconfirmed(ctx context.Context, t *Transaction, cause error) {
	logger.Warn("payout outcome unknown, left pending", "payout_id", t.ID, "teacher_id", t.TeacherID, "error", cause)
	if s.adminEvents != nil {
		s.adminEvents.Record(context.WithoutCancel(ctx), adminlog.TypePayoutUnconfirmed, adminlog.SeverityWarning,
			"payout provider call did not complete, awaiting reconciliation",
			map[string]interface{}{
				"payoutId":  t.ID,
				"teacherId": t.TeacherID,
				"amount":    t.Amount.String(),
				"error":     cause.Error(),
			})
	}
}

// fail refunds a reserved payout after the provider refused it.
func (s *Service) fail(ctx context.Context, t *Transaction, cause error) {
	typ := adminlog.TypePayoutProviderError
	var rejected *RejectedError
	if errors.As(cause, &rejected) {
		typ = adminlog.TypePayoutRejected
	}

	fields := map[string]interface{}{
		"payoutId":  t.ID,
		"teacherId": t.TeacherID,
		"amount":    t.Amount.String(),
		"error":     cause.Error(),
	}
	if s.adminEvents != nil {
		s.adminEvents.Record(ctx, typ, adminlog.SeverityError, "payout request failed", fields)
	}

	if err := s.refund(ctx, t.ID, cause.Error()); err != nil {
		logger.Error("failed to refund payout", "payout_id", t.ID, "error", err)
		if s.adminEvents != nil {
			fields["refundError"] = err.Error()
			s.adminEvents.Record(ctx, adminlog.TypePayoutRefunded, adminlog.SeverityCritical,
				"payout refund failed, wallet balance needs manual review", fields)
		}
		return
	}
	s.publish(ctx, events.PayoutFailed, t)
}

// refund credits the reserved amount back and marks the transaction failed.
// A transaction that is no longer pending is left alone.
func (s *Service) refund(ctx context.Context, payoutID, reason string) error {
	return db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		t, err := s.repo.LockTx(ctx, tx, payoutID)
		if err != nil {
			return err
		}
		if t.Status != StatusPending {
			return ErrAlreadySettled
		}
		if _, err := s.wallets.ApplyTx(ctx, tx, wallet.Movement{
			TeacherID: t.TeacherID,
			Amount:    t.Amount,
			Currency:  t.Currency,
			Kind:      wallet.KindPayoutRefund,
			Reference: t.ID,
		}); err != nil {
			return err
		}
		return s.repo.SettleTx(ctx, tx, t.ID, StatusFailed, reason)
	})
}

// Reconcile asks the provider for the status of pending payouts and settles
// the ones that reached a final state.
func (s *Service) Reconcile(ctx context.Context, limit int) (*ReconcileResult, error) {
	pending, err := s.repo.ListPending(ctx, limit)
	if err != nil {
		return nil, err
	}

	res := &ReconcileResult{Scanned: len(pending)}
	for i := range pending {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		t := &pending[i]

		status, err := s.provider.GetPayoutStatus(ctx, t.ID)
		if err != nil {
			logger.Warn("payout status check failed", "payout_id", t.ID, "error", err)
			res.Errors++
			continue
		}

		outcome := poller.Classify(status)
		if status == pawapay.PayoutNotFound && s.now().Sub(t.CreatedAt) >= s.cfg.UnknownAfter {
			outcome = poller.OutcomeFailure
		}

		switch outcome {
		case poller.OutcomeSuccess:
			err = db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
				return s.repo.SettleTx(ctx, tx, t.ID, StatusCompleted, "")
			})
			if err != nil && !errors.Is(err, ErrAlreadySettled) {
				logger.Error("failed to complete payout", "payout_id", t.ID, "error", err)
				res.Errors++
				continue
			}
			res.Completed++
			metrics.RecordPayout("completed")
			s.publish(ctx, events.PayoutCompleted, t)
		case poller.OutcomeFailure:
			err = s.refund(ctx, t.ID, "provider reported "+status)
			if err != nil && !errors.Is(err, ErrAlreadySettled) {
				logger.Error("failed to refund payout", "payout_id", t.ID, "error", err)
				res.Errors++
				continue
			}
			res.Refunded++
			metrics.RecordPayout("refunded")
			if s.adminEvents != nil {
				s.adminEvents.Record(ctx, adminlog.TypePayoutRefunded, adminlog.SeverityWarning,
					"payout failed at provider, balance refunded",
					map[string]interface{}{"payoutId": t.ID, "teacherId": t.TeacherID, "status": status})
			}
			s.publish(ctx, events.PayoutFailed, t)
		default:
			res.Pending++
		}
	}

	logger.Info("payout reconcile finished", "scanned", res.Scanned, "completed", res.Completed,
		"refunded", res.Refunded, "pending", res.Pending, "errors", res.Errors)
	return res, nil
}

func (s *Service) History(ctx context.Context, teacherID string, limit int) ([]Transaction, error) {
	return s.repo.ListByTeacher(ctx, teacherID, limit)
}

func (s *Service) publish(ctx context.Context, key string, t *Transaction) {
	err := s.publisher.Publish(ctx, key, map[string]interface{}{
		"payoutId":  t.ID,
		"teacherId": t.TeacherID,
		"amount":    t.Amount.StringFixed(2),
		"currency":  t.Currency,
	})
	if err != nil {
		logger.Warn("failed to publish payout event", "key", key, "payout_id", t.ID, "error", err)
	}
}

// replay returns the stored payout for a repeated client reference. The
// reference may only be reused for the same seller and amount.
func replay(t *Transaction, req Request) (*Result, error) {
	if t.TeacherID != req.TeacherID || !t.Amount.Equal(req.Amount) {
		return nil, ErrReferenceConflict
	}
	return &Result{PayoutID: t.ID, ExternalID: t.ClientReferenceID, Status: t.Status, Replayed: true}, nil
}
