// Package thumbnail implements the on-demand resizing service: a request for
// (source, w, h) is served from the store when the deterministic key already
// exists, otherwise generated, stored for future reuse, and returned.
package thumbnail

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"image-pipeline/internal/domain"
	"image-pipeline/internal/resolver"
	"image-pipeline/internal/usecase/operations"

	"github.com/wb-go/wbf/zlog"
)

type Request struct {
	Source string
	Width  int
	Height int
}

type Result struct {
	Key      string
	Bytes    []byte
	CacheHit bool
	// RedirectURL is set instead of Bytes when a freshly generated thumbnail
	// can be served through the configured CDN front.
	RedirectURL string
}

type Service struct {
	store      fileRepository
	fetcher    sourceFetcher
	resolver   *resolver.Resolver
	production bool
	logger     *zlog.Zerolog
}

func NewService(store fileRepository, fetcher sourceFetcher, res *resolver.Resolver, production bool, logger *zlog.Zerolog) *Service {
	return &Service{
		store:      store,
		fetcher:    fetcher,
		resolver:   res,
		production: production,
		logger:     logger,
	}
}

// CacheKey is a pure function of the canonical source reference and requested
// box: no randomness, no timestamps. Identical inputs always map to the
// identical object key, which is what makes concurrent regeneration harmless.
func CacheKey(ref string, width, height int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%d", ref, width, height)))
	return fmt.Sprintf("%s%s-%dx%d.jpg", domain.ThumbnailKeyPrefix, hex.EncodeToString(sum[:])[:40], width, height)
}

func (s *Service) Render(ctx context.Context, req Request) (*Result, error) {
	src := s.resolver.Normalize(req.Source)
	if src == "" || strings.HasPrefix(src, "data:") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSource, req.Source)
	}
	if req.Width <= 0 || req.Height <= 0 ||
		req.Width > domain.MaxThumbnailDimension || req.Height > domain.MaxThumbnailDimension {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSource, req.Width, req.Height)
	}

	ref, remote := s.resolver.Source(src)
	if ref == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSource, req.Source)
	}

	// Without this check the endpoint is an open image-fetching proxy.
	// Skipped outside production to ease local development.
	if remote && s.production && !s.resolver.HostAllowed(ref) {
		return nil, fmt.Errorf("%w: %s", ErrHostNotAllowed, ref)
	}

	// Keyed on the canonical ref so a bare key and its own public URL share
	// one cache entry.
	key := CacheKey(ref, req.Width, req.Height)

	exists, err := s.store.Exists(ctx, key)
	if err != nil {
		return nil, err
	}
	if exists {
		// Always read-and-stream rather than redirecting to the storage
		// backend, which browsers may block cross-origin.
		data, err := s.store.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		s.logger.Debug().Str("key", key).Msg("Thumbnail cache hit")
		return &Result{Key: key, Bytes: data, CacheHit: true}, nil
	}

	var srcBytes []byte
	if remote {
		srcBytes, err = s.fetcher.Fetch(ctx, ref)
	} else {
		srcBytes, err = s.store.Get(ctx, ref)
	}
	if err != nil {
		return nil, err
	}

	data, err := s.generate(srcBytes, req.Width, req.Height)
	if err != nil {
		return nil, err
	}

	if err := s.store.Save(ctx, key, data, "image/jpeg"); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("key", key).
		Int("width", req.Width).
		Int("height", req.Height).
		Bool("remote_source", remote).
		Msg("Thumbnail generated")

	res := &Result{Key: key, Bytes: data}
	if cdn := s.resolver.CDNURL(key); cdn != "" {
		res.RedirectURL = cdn
	}
	return res, nil
}

// generate always fills the exact requested box, cropping as needed. This is
// deliberately a different policy from the eager transcoder's fit-inside
// resize; `<img>` consumers of this endpoint rely on exact-box output.
func (s *Service) generate(src []byte, width, height int) ([]byte, error) {
	img, err := operations.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", operations.ErrProcessing, err)
	}

	covered := operations.Cover(img, width, height)

	data, err := operations.EncodeJPEG(covered, domain.OnDemandJPEGQuality)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", operations.ErrProcessing, err)
	}
	return data, nil
}
