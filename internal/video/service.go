package video

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coursepay/internal/adminlog"
	"coursepay/internal/catalog"
	"coursepay/internal/logger"
)

var (
	ErrForbidden    = errors.New("no access to this item")
	ErrInvalidTitle = errors.New("title is required")
	ErrProvider     = errors.New("video provider error")
)

const (
	DefaultUploadTTL   = time.Hour
	DefaultPlaybackTTL = 2 * time.Hour
)

type Host interface {
	CreateVideo(ctx context.Context, title string) (string, error)
	UploadCredentials(videoID string, ttl time.Duration) UploadCredentials
	SignedPlaybackURL(videoID string, ttl time.Duration) (string, time.Time)
}

// Ownership reports whether a buyer holds a completed purchase of an item.
type Ownership interface {
	HasCompleted(ctx context.Context, buyerID, itemID string) (bool, error)
}

type Playback struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Service struct {
	host        Host
	items       catalog.Repository
	owners      Ownership
	adminEvents adminlog.Recorder
	uploadTTL   time.Duration
	playbackTTL time.Duration
}

func NewService(host Host, items catalog.Repository, owners Ownership, adminEvents adminlog.Recorder) *Service {
	return &Service{
		host:        host,
		items:       items,
		owners:      owners,
		adminEvents: adminEvents,
		uploadTTL:   DefaultUploadTTL,
		playbackTTL: DefaultPlaybackTTL,
	}
}

func (s *Service) CreateUpload(ctx context.Context, title string) (*UploadCredentials, error) {
	if title == "" {
		return nil, ErrInvalidTitle
	}

	videoID, err := s.host.CreateVideo(ctx, title)
	if err != nil {
		if s.adminEvents != nil {
			s.adminEvents.Record(ctx, adminlog.TypeVideoProviderError, adminlog.SeverityError,
				"failed to create video", map[string]interface{}{"title": title, "error": err.Error()})
		}
		return nil, fmt.Errorf("%w: %w", ErrProvider, err)
	}

	creds := s.host.UploadCredentials(videoID, s.uploadTTL)
	logger.Info("video upload signed", "video_id", videoID)
	return &creds, nil
}

// Playback issues a signed URL to the item's seller or to a buyer who
// completed a purchase of it.
func (s *Service) Playback(ctx context.Context, userID, itemID, videoID string) (*Playback, error) {
	item, err := s.items.FindItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if item.SellerID != userID {
		owned, err := s.owners.HasCompleted(ctx, userID, itemID)
		if err != nil {
			return nil, err
		}
		if !owned {
			return nil, ErrForbidden
		}
	}

	u, expiresAt := s.host.SignedPlaybackURL(videoID, s.playbackTTL)
	return &Playback{URL: u, ExpiresAt: expiresAt}, nil
}
