package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursepay_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coursepay_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	RateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursepay_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
		[]string{"path"},
	)

	DepositsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursepay_deposits_total",
			Help: "Deposit sessions by result",
		},
		[]string{"result"},
	)

	DepositStatusChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursepay_deposit_status_checks_total",
			Help: "Deposit status checks by classified outcome",
		},
		[]string{"outcome"},
	)

	PurchasesGrantedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursepay_purchases_granted_total",
			Help: "Access grants by result (granted, already_granted)",
		},
		[]string{"result"},
	)

	SellerCreditsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "coursepay_seller_credits_total",
			Help: "Total revenue-share amount credited to sellers",
		},
	)

	AutoCreditRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursepay_auto_credit_purchases_total",
			Help: "Purchases handled by the auto-credit sweep by result",
		},
		[]string{"result"},
	)

	PayoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursepay_payouts_total",
			Help: "Payout requests by result",
		},
		[]string{"result"},
	)

	ProviderErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursepay_provider_errors_total",
			Help: "Errors returned by external providers",
		},
		[]string{"provider", "operation"},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursepay_notifications_total",
			Help: "Push notifications by status",
		},
		[]string{"status"},
	)

	NotificationQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "coursepay_notification_queue_length",
			Help: "Current length of the push notification queue",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordRateLimited(path string) {
	RateLimitedTotal.WithLabelValues(path).Inc()
}

func RecordDeposit(result string) {
	DepositsTotal.WithLabelValues(result).Inc()
}

func RecordStatusCheck(outcome string) {
	DepositStatusChecksTotal.WithLabelValues(outcome).Inc()
}

func RecordGrant(result string) {
	PurchasesGrantedTotal.WithLabelValues(result).Inc()
}

func RecordSellerCredit(amount float64) {
	SellerCreditsTotal.Add(amount)
}

func RecordAutoCredit(result string) {
	AutoCreditRunsTotal.WithLabelValues(result).Inc()
}

func RecordPayout(result string) {
	PayoutsTotal.WithLabelValues(result).Inc()
}

func RecordProviderError(provider, operation string) {
	ProviderErrorsTotal.WithLabelValues(provider, operation).Inc()
}

func RecordNotification(status string) {
	NotificationsTotal.WithLabelValues(status).Inc()
}
