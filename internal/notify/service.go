package notify

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"coursepay/internal/adminlog"
	"coursepay/internal/logger"
	"coursepay/internal/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	queueKey       = "notifications"
	failedQueueKey = "notifications:failed"
	maxTries       = 3
)

var ErrInvalidMessage = errors.New("token, title and body are required")

type Job struct {
	Message
	Tries   int       `json:"tries"`
	Created time.Time `json:"created"`
}

// TokenLookup resolves a user's registered push token.
type TokenLookup interface {
	DeviceToken(ctx context.Context, userID string) (string, error)
}

// Service queues push notifications in Redis and delivers them from a worker loop.
type Service struct {
	redis      *redis.Client
	sender     Sender
	users      TokenLookup
	events     adminlog.Recorder
	retryDelay time.Duration
}

func New(rdb *redis.Client, sender Sender, users TokenLookup, events adminlog.Recorder) *Service {
	return &Service{
		redis:      rdb,
		sender:     sender,
		users:      users,
		events:     events,
		retryDelay: 5 * time.Second,
	}
}

func (s *Service) Enqueue(ctx context.Context, msg Message) error {
	if msg.Token == "" || msg.Title == "" || msg.Body == "" {
		return ErrInvalidMessage
	}

	data, err := json.Marshal(Job{Message: msg, Created: time.Now()})
	if err != nil {
		return err
	}

	if err := s.redis.LPush(ctx, queueKey, data).Err(); err != nil {
		logger.Error("failed to queue notification", "error", err)
		return err
	}

	metrics.RecordNotification("queued")
	logger.Debug("notification queued", "title", msg.Title)
	return nil
}

// NotifyUser queues a push to the user's registered device.
func (s *Service) NotifyUser(ctx context.Context, userID, title, body string, data map[string]string) error {
	token, err := s.users.DeviceToken(ctx, userID)
	if err != nil {
		return err
	}
	return s.Enqueue(ctx, Message{Token: token, Title: title, Body: body, Data: data})
}

// Start runs the delivery loop until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	logger.Info("notification worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("notification worker stopped")
			return
		default:
			s.processNext(ctx)
		}
	}
}

func (s *Service) processNext(ctx context.Context) {
	result, err := s.redis.BRPop(ctx, 2*time.Second, queueKey).Result()
	if err != nil {
		return
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		logger.Error("bad notification payload", "error", err)
		return
	}

	job.Tries++
	if err := s.sender.Send(ctx, job.Message); err != nil {
		logger.Warn("push delivery failed", "attempt", job.Tries, "error", err)

		if job.Tries < maxTries {
			s.wait(ctx)
			data, _ := json.Marshal(job)
			s.redis.LPush(context.Background(), queueKey, data)
			metrics.RecordNotification("retried")
		} else {
			s.saveFailed(ctx, job, err)
		}
		return
	}

	metrics.RecordNotification("sent")
}

func (s *Service) wait(ctx context.Context) {
	if s.retryDelay <= 0 {
		return
	}
	t := time.NewTimer(s.retryDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (s *Service) saveFailed(ctx context.Context, job Job, err error) {
	failed := map[string]interface{}{
		"job":   job,
		"error": err.Error(),
		"time":  time.Now(),
	}
	data, _ := json.Marshal(failed)
	s.redis.LPush(context.Background(), failedQueueKey, data)

	metrics.RecordNotification("failed")
	if s.events != nil {
		s.events.Record(ctx, adminlog.TypeNotificationFailed, adminlog.SeverityWarning,
			"push notification dropped after retries",
			map[string]interface{}{"title": job.Title, "tries": job.Tries, "error": err.Error()})
	}
}

// QueueLength reports the pending queue size and mirrors it into the gauge.
func (s *Service) QueueLength(ctx context.Context) int64 {
	length, _ := s.redis.LLen(ctx, queueKey).Result()
	metrics.NotificationQueueLength.Set(float64(length))
	return length
}

func (s *Service) Close() error {
	return s.redis.Close()
}
