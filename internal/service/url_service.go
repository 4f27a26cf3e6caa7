package service

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/scissor-io/scissor/internal/metrics"
	"github.com/scissor-io/scissor/internal/model"
	"github.com/scissor-io/scissor/internal/repository"
	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

var (
	ErrInvalidURL = errors.New("invalid URL format")
	ErrKeyTaken   = errors.New("key already taken")
	ErrForbidden  = errors.New("operation not permitted")
)

const qrImageSize = 256

// ShortenInput is the payload for creating a short link. Key is only
// honored for paid accounts.
type ShortenInput struct {
	Name      string
	TargetURL string
	Key       string
}

type URLService struct {
	repo   repository.URLRepository
	users  repository.UserRepository
	logger *zap.Logger
}

func NewURLService(repo repository.URLRepository, users repository.UserRepository) *URLService {
	return &URLService{
		repo:   repo,
		users:  users,
		logger: zap.L().With(zap.String("component", "URLService")),
	}
}

// Shorten creates a short link for the calling account. Free accounts
// always get an auto-generated key regardless of what they submit; paid
// accounts get their submitted key only if it is non-empty and available.
func (s *URLService) Shorten(ctx context.Context, userID uuid.UUID, in ShortenInput) (*model.URL, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	target, ok := normalizeURL(in.TargetURL)
	if !ok {
		return nil, ErrInvalidURL
	}

	customKey := user.Paid && in.Key != ""
	if customKey {
		if !isValidKey(in.Key) {
			return nil, ErrInvalidURL
		}
		taken, err := s.repo.KeyExists(ctx, in.Key)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrKeyTaken
		}
	}

	for {
		key := in.Key
		if !customKey {
			var err error
			key, err = s.allocateKey(ctx, DefaultKeyLength)
			if err != nil {
				return nil, err
			}
		}

		link := &model.URL{
			Name:      in.Name,
			Key:       key,
			TargetURL: target,
			UserID:    user.ID,
		}

		err := s.repo.Create(ctx, link)
		if err == nil {
			metrics.ShortLinkCreatedTotal.WithLabelValues(keyOrigin(customKey)).Inc()
			s.logger.Info("short link created",
				zap.String("key", key),
				zap.String("username", user.Username),
			)
			return link, nil
		}
		if errors.Is(err, repository.ErrKeyExists) {
			// Lost an insert race. A custom key is the caller's to lose;
			// a generated one is simply drawn again.
			if customKey {
				return nil, ErrKeyTaken
			}
			continue
		}
		return nil, err
	}
}

// Resolve returns the target URL for an active key and counts the click.
func (s *URLService) Resolve(ctx context.Context, key string) (string, error) {
	link, err := s.repo.FindActiveByKey(ctx, key)
	if err != nil {
		return "", err
	}

	if err := s.repo.IncrementClicks(ctx, key); err != nil {
		// The link vanished between lookup and increment.
		return "", err
	}

	metrics.RedirectTotal.WithLabelValues("success").Inc()
	s.logger.Info("redirect", zap.String("key", key))
	return link.TargetURL, nil
}

// Delete soft-deletes a link. Only the owner or an administrator may do it;
// the key is never freed for reuse.
func (s *URLService) Delete(ctx context.Context, callerID uuid.UUID, callerIsAdmin bool, key string) error {
	link, err := s.repo.FindActiveByKey(ctx, key)
	if err != nil {
		return err
	}

	if !callerIsAdmin && link.UserID != callerID {
		return ErrForbidden
	}

	if err := s.repo.SoftDeleteByKey(ctx, key); err != nil {
		return err
	}
	s.logger.Info("short link deleted",
		zap.String("key", key),
		zap.String("deleted_by", callerID.String()),
	)
	return nil
}

// QRCode renders a PNG image of the link's target URL.
func (s *URLService) QRCode(ctx context.Context, key string) ([]byte, error) {
	link, err := s.repo.FindActiveByKey(ctx, key)
	if err != nil {
		return nil, err
	}

	png, err := qrcode.Encode(link.TargetURL, qrcode.Medium, qrImageSize)
	if err != nil {
		return nil, err
	}
	s.logger.Info("qrcode generated", zap.String("key", key))
	return png, nil
}

// ListByUser returns the user's link history, soft-deleted links included.
func (s *URLService) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.URL, error) {
	return s.repo.ListByUser(ctx, userID)
}

func keyOrigin(custom bool) string {
	if custom {
		return "custom"
	}
	return "generated"
}

// normalizeURL validates the target, defaulting the scheme to https when
// the caller omitted it.
func normalizeURL(rawURL string) (string, bool) {
	if rawURL == "" {
		return "", false
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		rawURL = "https://" + rawURL
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}
	return rawURL, true
}
