// Package pawapay is a thin client over the PawaPay mobile-money REST API:
// hosted payment pages for deposits, payouts, and status lookups by id.
package pawapay

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"coursepay/internal/metrics"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

// StatusPending is reported when the provider has no record of a deposit yet.
const StatusPending = "PENDING"

// Payout acceptance states returned by POST /payouts.
const (
	PayoutAccepted  = "ACCEPTED"
	PayoutRejected  = "REJECTED"
	PayoutDuplicate = "DUPLICATE_IGNORED"
)

// PayoutNotFound is reported when the provider has no record of a payout.
const PayoutNotFound = "NOT_FOUND"

// APIError is a non-2xx answer from PawaPay. Body holds the raw response text.
type APIError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("pawapay %s failed with status %d: %s", e.Operation, e.StatusCode, e.Body)
}

func (e *APIError) Details() string {
	return e.Body
}

type Client struct {
	http *resty.Client
}

func NewClient(baseURL, apiToken string) *Client {
	http := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetAuthToken(apiToken).
		SetHeader("Accept", "application/json").
		SetTimeout(30 * time.Second)

	return &Client{http: http}
}

type PaymentPageRequest struct {
	DepositID string          `json:"depositId"`
	ReturnURL string          `json:"returnUrl"`
	Amount    decimal.Decimal `json:"-"`
	Country   string          `json:"country,omitempty"`
	Reason    string          `json:"reason,omitempty"`
}

type paymentPageBody struct {
	DepositID            string `json:"depositId"`
	ReturnURL            string `json:"returnUrl"`
	Amount               string `json:"amount"`
	Country              string `json:"country,omitempty"`
	Reason               string `json:"reason,omitempty"`
	StatementDescription string `json:"statementDescription,omitempty"`
}

type PaymentPageResponse struct {
	RedirectURL string `json:"redirectUrl"`
}

// CreatePaymentPage opens a hosted payment page session for a deposit.
func (c *Client) CreatePaymentPage(ctx context.Context, req PaymentPageRequest) (*PaymentPageResponse, error) {
	body := paymentPageBody{
		DepositID:            req.DepositID,
		ReturnURL:            req.ReturnURL,
		Amount:               req.Amount.String(),
		Country:              req.Country,
		Reason:               req.Reason,
		StatementDescription: statementDescription(req.Reason),
	}

	var out PaymentPageResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		Post("/v1/widget/sessions")
	if err != nil {
		metrics.RecordProviderError("pawapay", "create_payment_page")
		return nil, fmt.Errorf("pawapay create payment page: %w", err)
	}
	if resp.IsError() {
		return nil, apiError("create_payment_page", resp)
	}
	if out.RedirectURL == "" {
		metrics.RecordProviderError("pawapay", "create_payment_page")
		return nil, fmt.Errorf("pawapay create payment page: empty redirectUrl in %s", resp.String())
	}

	return &out, nil
}

type depositStatus struct {
	DepositID string `json:"depositId"`
	Status    string `json:"status"`
}

// GetDepositStatus returns the raw provider status for a deposit, uppercased.
func (c *Client) GetDepositStatus(ctx context.Context, depositID string) (string, error) {
	var out []depositStatus
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", depositID).
		SetResult(&out).
		Get("/deposits/{id}")
	if err != nil {
		metrics.RecordProviderError("pawapay", "deposit_status")
		return "", fmt.Errorf("pawapay deposit status: %w", err)
	}
	if resp.IsError() {
		return "", apiError("deposit_status", resp)
	}
	if len(out) == 0 {
		return StatusPending, nil
	}

	return strings.ToUpper(out[0].Status), nil
}

type PayoutRequest struct {
	PayoutID      string
	Amount        decimal.Decimal
	Currency      string
	Correspondent string
	PhoneNumber   string
	Description   string
}

type payoutBody struct {
	PayoutID             string    `json:"payoutId"`
	Amount               string    `json:"amount"`
	Currency             string    `json:"currency"`
	Correspondent        string    `json:"correspondent"`
	Recipient            recipient `json:"recipient"`
	CustomerTimestamp    string    `json:"customerTimestamp"`
	StatementDescription string    `json:"statementDescription"`
}

type recipient struct {
	Type    string `json:"type"`
	Address struct {
		Value string `json:"value"`
	} `json:"address"`
}

type PayoutResponse struct {
	PayoutID        string `json:"payoutId"`
	Status          string `json:"status"`
	Created         string `json:"created,omitempty"`
	RejectionReason *struct {
		RejectionCode    string `json:"rejectionCode"`
		RejectionMessage string `json:"rejectionMessage"`
	} `json:"rejectionReason,omitempty"`
}

// Rejection returns a readable rejection reason, or "" when the payout was not rejected.
func (r *PayoutResponse) Rejection() string {
	if r.Status != PayoutRejected {
		return ""
	}
	if r.RejectionReason == nil {
		return "payout rejected by provider"
	}
	return strings.TrimSpace(r.RejectionReason.RejectionCode + ": " + r.RejectionReason.RejectionMessage)
}

// CreatePayout initiates a transfer to a mobile-money account.
func (c *Client) CreatePayout(ctx context.Context, req PayoutRequest) (*PayoutResponse, error) {
	body := payoutBody{
		PayoutID:             req.PayoutID,
		Amount:               req.Amount.String(),
		Currency:             req.Currency,
		Correspondent:        req.Correspondent,
		CustomerTimestamp:    time.Now().UTC().Format(time.RFC3339),
		StatementDescription: statementDescription(req.Description),
	}
	body.Recipient.Type = "MSISDN"
	body.Recipient.Address.Value = req.PhoneNumber

	var out PayoutResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		Post("/payouts")
	if err != nil {
		metrics.RecordProviderError("pawapay", "create_payout")
		return nil, fmt.Errorf("pawapay create payout: %w", err)
	}
	if resp.IsError() {
		return nil, apiError("create_payout", resp)
	}

	out.Status = strings.ToUpper(out.Status)
	return &out, nil
}

type payoutStatus struct {
	PayoutID string `json:"payoutId"`
	Status   string `json:"status"`
}

// GetPayoutStatus returns the raw provider status for a payout, uppercased.
func (c *Client) GetPayoutStatus(ctx context.Context, payoutID string) (string, error) {
	var out []payoutStatus
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", payoutID).
		SetResult(&out).
		Get("/payouts/{id}")
	if err != nil {
		metrics.RecordProviderError("pawapay", "payout_status")
		return "", fmt.Errorf("pawapay payout status: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return PayoutNotFound, nil
	}
	if resp.IsError() {
		return "", apiError("payout_status", resp)
	}
	if len(out) == 0 {
		return PayoutNotFound, nil
	}

	return strings.ToUpper(out[0].Status), nil
}

func apiError(op string, resp *resty.Response) error {
	metrics.RecordProviderError("pawapay", op)
	return &APIError{
		Operation:  op,
		StatusCode: resp.StatusCode(),
		Body:       resp.String(),
	}
}

// PawaPay limits statement descriptions to 22 alphanumeric characters or spaces.
func statementDescription(s string) string {
	var b strings.Builder
	for _, r := range s {
		if b.Len() >= 22 {
			break
		}
		if r == ' ' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
