package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"coursepay/internal/metrics"

	"github.com/go-resty/resty/v2"
)

type Message struct {
	Token string            `json:"token"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// FCMClient delivers pushes through the Firebase Cloud Messaging HTTP endpoint.
type FCMClient struct {
	http *resty.Client
}

func NewFCMClient(baseURL, serverKey string) *FCMClient {
	http := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetHeader("Authorization", "key="+serverKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(10 * time.Second)

	return &FCMClient{http: http}
}

type fcmRequest struct {
	To           string            `json:"to"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmResponse struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
	Results []struct {
		Error string `json:"error"`
	} `json:"results"`
}

func (c *FCMClient) Send(ctx context.Context, msg Message) error {
	var out fcmResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(fcmRequest{
			To:           msg.Token,
			Notification: fcmNotification{Title: msg.Title, Body: msg.Body},
			Data:         msg.Data,
		}).
		SetResult(&out).
		Post("/fcm/send")
	if err != nil {
		metrics.RecordProviderError("fcm", "send")
		return fmt.Errorf("fcm send: %w", err)
	}
	if resp.IsError() {
		metrics.RecordProviderError("fcm", "send")
		return fmt.Errorf("fcm send failed with status %d: %s", resp.StatusCode(), resp.String())
	}
	if out.Failure > 0 {
		reason := "unknown"
		if len(out.Results) > 0 && out.Results[0].Error != "" {
			reason = out.Results[0].Error
		}
		metrics.RecordProviderError("fcm", "send")
		return fmt.Errorf("fcm rejected message: %s", reason)
	}

	return nil
}
