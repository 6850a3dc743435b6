// Package video talks to Bunny Stream: creating video objects, signing
// direct TUS uploads and issuing expiring playback URLs.
package video

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"coursepay/internal/metrics"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultUploadEndpoint = "https://video.bunnycdn.com/tusupload"
	DefaultEmbedBaseURL   = "https://iframe.mediadelivery.net/embed"
)

type APIError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bunny %s failed with status %d: %s", e.Operation, e.StatusCode, e.Body)
}

func (e *APIError) Details() string {
	return e.Body
}

// UploadCredentials authorize a client to upload one video straight to Bunny.
type UploadCredentials struct {
	VideoID   string `json:"videoId"`
	LibraryID string `json:"libraryId"`
	Endpoint  string `json:"endpoint"`
	Signature string `json:"signature"`
	Expires   int64  `json:"expires"`
}

type Client struct {
	http      *resty.Client
	libraryID string
	apiKey    string
	tokenKey  string
	embedBase string
	now       func() time.Time
}

func NewClient(baseURL, libraryID, apiKey, tokenKey string) *Client {
	http := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetHeader("AccessKey", apiKey).
		SetHeader("Accept", "application/json").
		SetTimeout(30 * time.Second)

	return &Client{
		http:      http,
		libraryID: libraryID,
		apiKey:    apiKey,
		tokenKey:  tokenKey,
		embedBase: DefaultEmbedBaseURL,
		now:       time.Now,
	}
}

type createVideoResponse struct {
	GUID string `json:"guid"`
}

// CreateVideo registers an empty video object in the library and returns its guid.
func (c *Client) CreateVideo(ctx context.Context, title string) (string, error) {
	var out createVideoResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"title": title}).
		SetResult(&out).
		Post("/library/" + url.PathEscape(c.libraryID) + "/videos")
	if err != nil {
		metrics.RecordProviderError("bunny", "create_video")
		return "", fmt.Errorf("bunny create_video: %w", err)
	}
	if resp.IsError() {
		return "", apiError("create_video", resp)
	}
	if out.GUID == "" {
		metrics.RecordProviderError("bunny", "create_video")
		return "", &APIError{Operation: "create_video", StatusCode: resp.StatusCode(), Body: "response carried no guid"}
	}
	return out.GUID, nil
}

// UploadCredentials signs a TUS upload for videoID valid for ttl.
func (c *Client) UploadCredentials(videoID string, ttl time.Duration) UploadCredentials {
	expires := c.now().Add(ttl).Unix()
	return UploadCredentials{
		VideoID:   videoID,
		LibraryID: c.libraryID,
		Endpoint:  DefaultUploadEndpoint,
		Signature: sha256Hex(c.libraryID + c.apiKey + strconv.FormatInt(expires, 10) + videoID),
		Expires:   expires,
	}
}

// SignedPlaybackURL returns an embed URL protected by token authentication.
func (c *Client) SignedPlaybackURL(videoID string, ttl time.Duration) (string, time.Time) {
	expiresAt := c.now().Add(ttl).Truncate(time.Second)
	expires := strconv.FormatInt(expiresAt.Unix(), 10)

	q := url.Values{}
	q.Set("token", sha256Hex(c.tokenKey+videoID+expires))
	q.Set("expires", expires)

	u := c.embedBase + "/" + url.PathEscape(c.libraryID) + "/" + url.PathEscape(videoID) + "?" + q.Encode()
	return u, expiresAt
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func apiError(op string, resp *resty.Response) error {
	metrics.RecordProviderError("bunny", op)
	return &APIError{
		Operation:  op,
		StatusCode: resp.StatusCode(),
		Body:       resp.String(),
	}
}
