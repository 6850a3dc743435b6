package poller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"coursepay/internal/logger"
)

type Outcome string

const (
	OutcomePending Outcome = "pending"
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

const (
	DefaultInterval    = 3 * time.Second
	DefaultMaxAttempts = 20
)

var ErrTimeout = errors.New("status polling timed out")

// Classify maps a raw provider status onto an outcome. Unknown and empty
// statuses are pending.
func Classify(status string) Outcome {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "completed", "success":
		return OutcomeSuccess
	case "failed", "cancelled", "rejected", "expired", "error":
		return OutcomeFailure
	default:
		return OutcomePending
	}
}

// Checker returns the current raw status for id.
type Checker func(ctx context.Context, id string) (string, error)

// SuccessFunc runs once when a poll observes a success status.
type SuccessFunc func(ctx context.Context, id, status string) error

type Result struct {
	ID       string  `json:"id"`
	Status   string  `json:"status"`
	Outcome  Outcome `json:"outcome"`
	Attempts int     `json:"attempts"`
}

type Poller struct {
	Interval    time.Duration
	MaxAttempts int
	Check       Checker
	OnSuccess   SuccessFunc
}

func New(interval time.Duration, maxAttempts int, check Checker, onSuccess SuccessFunc) *Poller {
	return &Poller{
		Interval:    interval,
		MaxAttempts: maxAttempts,
		Check:       check,
		OnSuccess:   onSuccess,
	}
}

// Poll checks the status immediately and then once per interval until it
// reaches a terminal outcome, runs out of attempts, or ctx is done.
// A failure outcome is returned with a nil error; callers inspect Result.Outcome.
func (p *Poller) Poll(ctx context.Context, id string) (*Result, error) {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	res := &Result{ID: id, Outcome: OutcomePending}
	for {
		res.Attempts++

		status, err := p.Check(ctx, id)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return res, ctxErr
			}
			logger.Warn("status check failed", "id", id, "attempt", res.Attempts, "error", err)
		} else {
			res.Status = status
			res.Outcome = Classify(status)

			switch res.Outcome {
			case OutcomeSuccess:
				if p.OnSuccess != nil {
					if err := p.OnSuccess(ctx, id, status); err != nil {
						return res, fmt.Errorf("success handler for %s: %w", id, err)
					}
				}
				return res, nil
			case OutcomeFailure:
				return res, nil
			}
		}

		if res.Attempts >= maxAttempts {
			return res, ErrTimeout
		}

		select {
		case <-ctx.Done():
			return res, ctx.Err()
		case <-ticker.C:
		}
	}
}
