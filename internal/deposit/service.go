package deposit

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"coursepay/internal/adminlog"
	"coursepay/internal/catalog"
	"coursepay/internal/logger"
	"coursepay/internal/metrics"
	"coursepay/internal/pawapay"
	"coursepay/internal/poller"
	"coursepay/internal/purchase"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount    = errors.New("amount must be greater than zero and within the allowed maximum")
	ErrInvalidCurrency  = errors.New("currency is required")
	ErrInvalidReturnURL = errors.New("returnUrl must be an absolute http(s) URL")
	ErrAmountMismatch   = errors.New("amount or currency does not match the item price")
	ErrAlreadyPurchased = errors.New("item already purchased")
	ErrProvider         = errors.New("payment provider error")
)

// Provider is the part of the payment provider used for deposits.
type Provider interface {
	CreatePaymentPage(ctx context.Context, req pawapay.PaymentPageRequest) (*pawapay.PaymentPageResponse, error)
	GetDepositStatus(ctx context.Context, depositID string) (string, error)
}

type Granter interface {
	GrantAccess(ctx context.Context, sessionID string) (*purchase.GrantResult, error)
}

type Config struct {
	MaxAmount    decimal.Decimal
	Country      string
	PollInterval time.Duration
	PollAttempts int
}

type Service struct {
	provider    Provider
	items       catalog.Repository
	purchases   purchase.Repository
	granter     Granter
	adminEvents adminlog.Recorder
	cfg         Config
	newID       func() string
}

func NewService(provider Provider, items catalog.Repository, purchases purchase.Repository, granter Granter,
	adminEvents adminlog.Recorder, cfg Config) *Service {
	return &Service{
		provider:    provider,
		items:       items,
		purchases:   purchases,
		granter:     granter,
		adminEvents: adminEvents,
		cfg:         cfg,
		newID:       uuid.NewString,
	}
}

type CreateRequest struct {
	BuyerID   string
	ItemID    string
	Amount    decimal.Decimal
	Currency  string
	ReturnURL string
}

type Session struct {
	SessionID  string
	PaymentURL string
}

// Create records a pending purchase under a fresh session id and opens a
// hosted payment page for it.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Session, error) {
	if !req.Amount.IsPositive() || req.Amount.GreaterThan(s.cfg.MaxAmount) {
		metrics.RecordDeposit("invalid")
		return nil, ErrInvalidAmount
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		metrics.RecordDeposit("invalid")
		return nil, ErrInvalidCurrency
	}
	returnURL, err := parseReturnURL(req.ReturnURL)
	if err != nil {
		metrics.RecordDeposit("invalid")
		return nil, err
	}

	item, err := s.items.FindItem(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}
	if !item.Price.Equal(req.Amount) || !strings.EqualFold(item.Currency, currency) {
		metrics.RecordDeposit("invalid")
		return nil, ErrAmountMismatch
	}

	owned, err := s.purchases.HasCompleted(ctx, req.BuyerID, req.ItemID)
	if err != nil {
		return nil, fmt.Errorf("check existing purchase: %w", err)
	}
	if owned {
		metrics.RecordDeposit("already_purchased")
		return nil, ErrAlreadyPurchased
	}

	sessionID := s.newID()
	p := &purchase.Purchase{
		SessionID: sessionID,
		BuyerID:   req.BuyerID,
		ItemID:    item.ID,
		ItemType:  item.Type,
		SellerID:  item.SellerID,
		Amount:    req.Amount,
		Currency:  currency,
	}
	if err := s.purchases.CreatePending(ctx, p); err != nil {
		return nil, fmt.Errorf("record pending purchase: %w", err)
	}

	q := returnURL.Query()
	q.Set("depositId", sessionID)
	returnURL.RawQuery = q.Encode()

	page, err := s.provider.CreatePaymentPage(ctx, pawapay.PaymentPageRequest{
		DepositID: sessionID,
		ReturnURL: returnURL.String(),
		Amount:    req.Amount,
		Country:   s.cfg.Country,
		Reason:    item.Title,
	})
	if err != nil {
		if _, markErr := s.purchases.MarkFailed(ctx, sessionID); markErr != nil {
			logger.Error("failed to mark purchase failed", "session_id", sessionID, "error", markErr)
		}
		metrics.RecordDeposit("provider_error")
		s.record(ctx, adminlog.TypeDepositProviderError, "payment page creation failed", map[string]interface{}{
			"sessionId": sessionID,
			"buyerId":   req.BuyerID,
			"itemId":    req.ItemID,
			"error":     err.Error(),
		})
		return nil, fmt.Errorf("%w: %w", ErrProvider, err)
	}

	metrics.RecordDeposit("created")
	logger.Info("deposit session created", "session_id", sessionID, "buyer_id", req.BuyerID, "item_id", req.ItemID)

	return &Session{SessionID: sessionID, PaymentURL: page.RedirectURL}, nil
}

type StatusResult struct {
	SessionID string         `json:"sessionId"`
	Status    string         `json:"status"`
	Outcome   poller.Outcome `json:"outcome"`
}

// Status asks the provider for the deposit state and settles the purchase
// when it is terminal: success grants access, failure marks it failed.
func (s *Service) Status(ctx context.Context, sessionID string) (*StatusResult, error) {
	status, err := s.checkStatus(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	res := &StatusResult{SessionID: sessionID, Status: status, Outcome: poller.Classify(status)}
	switch res.Outcome {
	case poller.OutcomeSuccess:
		if err := s.grant(ctx, sessionID, status); err != nil {
			return nil, err
		}
	case poller.OutcomeFailure:
		s.markFailed(ctx, sessionID)
	}

	return res, nil
}

// Await polls the provider until the deposit settles, the attempts run out,
// or ctx is cancelled.
func (s *Service) Await(ctx context.Context, sessionID string) (*poller.Result, error) {
	p := poller.New(s.cfg.PollInterval, s.cfg.PollAttempts, s.checkStatus, s.grant)

	res, err := p.Poll(ctx, sessionID)
	if err == nil && res.Outcome == poller.OutcomeFailure {
		s.markFailed(ctx, sessionID)
	}
	return res, err
}

type ReconcileResult struct {
	Scanned      int `json:"scanned"`
	Granted      int `json:"granted"`
	MarkedFailed int `json:"markedFailed"`
	StillPending int `json:"stillPending"`
	Errors       int `json:"errors"`
}

// ReconcilePending settles pending purchases older than age for buyers who
// left before polling finished.
func (s *Service) ReconcilePending(ctx context.Context, age time.Duration, limit int) (*ReconcileResult, error) {
	stale, err := s.purchases.ListStalePending(ctx, time.Now().Add(-age), limit)
	if err != nil {
		return nil, fmt.Errorf("list stale deposits: %w", err)
	}

	out := &ReconcileResult{Scanned: len(stale)}
	for _, p := range stale {
		if ctx.Err() != nil {
			break
		}

		res, err := s.Status(ctx, p.SessionID)
		if err != nil {
			out.Errors++
			logger.Warn("pending deposit reconciliation failed", "session_id", p.SessionID, "error", err)
			continue
		}
		switch res.Outcome {
		case poller.OutcomeSuccess:
			out.Granted++
		case poller.OutcomeFailure:
			out.MarkedFailed++
		default:
			out.StillPending++
		}
	}

	logger.Info("pending deposit reconciliation finished",
		"scanned", out.Scanned, "granted", out.Granted, "marked_failed", out.MarkedFailed, "errors", out.Errors)
	return out, nil
}

func (s *Service) checkStatus(ctx context.Context, sessionID string) (string, error) {
	raw, err := s.provider.GetDepositStatus(ctx, sessionID)
	if err != nil {
		metrics.RecordStatusCheck("error")
		return "", fmt.Errorf("%w: %w", ErrProvider, err)
	}

	status := strings.ToUpper(raw)
	metrics.RecordStatusCheck(string(poller.Classify(status)))
	return status, nil
}

func (s *Service) grant(ctx context.Context, sessionID, status string) error {
	_, err := s.granter.GrantAccess(ctx, sessionID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, purchase.ErrPurchaseNotFound):
		logger.Warn("provider reports a deposit with no local purchase", "session_id", sessionID, "status", status)
		return nil
	case errors.Is(err, purchase.ErrInvalidTransition):
		s.record(ctx, adminlog.TypeGrantFailed, "provider completed a deposit already marked failed", map[string]interface{}{
			"sessionId": sessionID,
			"status":    status,
		})
		return nil
	default:
		return fmt.Errorf("grant access: %w", err)
	}
}

func (s *Service) markFailed(ctx context.Context, sessionID string) {
	if _, err := s.purchases.MarkFailed(ctx, sessionID); err != nil {
		logger.Error("failed to mark purchase failed", "session_id", sessionID, "error", err)
	}
}

func (s *Service) record(ctx context.Context, typ, message string, fields map[string]interface{}) {
	if s.adminEvents != nil {
		s.adminEvents.Record(ctx, typ, adminlog.SeverityError, message, fields)
	}
}

func parseReturnURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrInvalidReturnURL
	}
	return u, nil
}
