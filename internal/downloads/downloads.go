// Package downloads hands out short-lived links to version content.
package downloads

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/JaimeStill/casefile/internal/versions"
)

// Link is a signed download URL.
type Link struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Signer produces time-limited URLs for storage keys.
type Signer interface {
	SignURL(ctx context.Context, key, filename string, ttl time.Duration) (string, error)
}

// Finder looks up versions by id.
type Finder interface {
	Find(ctx context.Context, id uuid.UUID) (*versions.Version, error)
}

// Service signs download links for versions. Links are cached for half
// their lifetime so every link handed out stays valid for at least ttl/2.
type Service struct {
	finder Finder
	signer Signer
	ttl    time.Duration
	cache  *expirable.LRU[uuid.UUID, Link]
	logger *slog.Logger
	now    func() time.Time
}

// New creates a download service.
func New(finder Finder, signer Signer, cfg *Config, logger *slog.Logger) *Service {
	ttl := cfg.LinkTTLDuration()
	return &Service{
		finder: finder,
		signer: signer,
		ttl:    ttl,
		cache:  expirable.NewLRU[uuid.UUID, Link](cfg.CacheSize, nil, ttl/2),
		logger: logger.With("system", "downloads"),
		now:    time.Now,
	}
}

// Link returns a download link for the version. Deleted versions are not
// downloadable until restored.
func (s *Service) Link(ctx context.Context, id uuid.UUID) (Link, error) {
	v, err := s.finder.Find(ctx, id)
	if err != nil {
		return Link{}, err
	}
	if v.Retention == versions.RetentionDeleted {
		s.cache.Remove(id)
		return Link{}, fmt.Errorf("%w: version %s is deleted", versions.ErrInvalidState, id)
	}

	if link, ok := s.cache.Get(id); ok {
		return link, nil
	}

	expires := s.now().Add(s.ttl).UTC()
	url, err := s.signer.SignURL(ctx, v.StorageKey, v.Filename, s.ttl)
	if err != nil {
		return Link{}, fmt.Errorf("sign download: %w", err)
	}

	link := Link{URL: url, ExpiresAt: expires}
	s.cache.Add(id, link)
	s.logger.Debug("download link signed", "id", id, "expires_at", expires)
	return link, nil
}
