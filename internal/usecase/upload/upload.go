// Package upload owns the save-image flow: mint a base path, persist the
// source asset, derive the eager renditions, and announce the stored image.
package upload

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"image-pipeline/internal/domain"
	"image-pipeline/internal/usecase/transcoder"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

type Usecase struct {
	store      fileRepository
	transcoder *transcoder.Transcoder
	producer   eventProducer
	logger     *zlog.Zerolog
	retries    retry.Strategy
}

func NewUsecase(store fileRepository, tc *transcoder.Transcoder, producer eventProducer, logger *zlog.Zerolog, retries retry.Strategy) *Usecase {
	return &Usecase{
		store:      store,
		transcoder: tc,
		producer:   producer,
		logger:     logger,
		retries:    retries,
	}
}

// SaveImage persists the source bytes under a freshly minted base path and
// eagerly derives the four renditions beneath it. A "new image" always means
// a new base path; stored objects are never mutated in place.
func (u *Usecase) SaveImage(ctx context.Context, data []byte, filename, contentType string) (*domain.UploadResult, error) {
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}

	basePath := MintBasePath(filename)

	if err := u.store.Save(ctx, basePath, data, contentType); err != nil {
		u.logger.Error().Err(err).Str("base_path", basePath).Msg("Failed to save source asset")
		return nil, err
	}

	out, err := u.transcoder.DeriveVariants(ctx, data, basePath)
	if err != nil {
		return nil, err
	}

	for _, rendition := range out.Renditions {
		if err := u.store.Save(ctx, rendition.Key, rendition.Bytes, rendition.Format.ContentType()); err != nil {
			u.logger.Error().Err(err).Str("key", rendition.Key).Msg("Failed to save rendition")
			return nil, err
		}
	}

	u.publishStored(ctx, basePath, out)

	u.logger.Info().
		Str("base_path", basePath).
		Str("filename", filename).
		Int("renditions", len(out.Renditions)).
		Msg("Image stored")

	return &domain.UploadResult{
		Key:        basePath,
		Width:      out.SourceWidth,
		Height:     out.SourceHeight,
		Renditions: out.Renditions,
	}, nil
}

// SaveDataURI accepts a data: URI payload, as sent by the admin console's
// paste/crop flows.
func (u *Usecase) SaveDataURI(ctx context.Context, dataURI, filename string) (*domain.UploadResult, error) {
	data, contentType, err := ParseDataURI(dataURI)
	if err != nil {
		return nil, err
	}
	return u.SaveImage(ctx, data, filename, contentType)
}

// publishStored is fire-and-forget within the request: a broken broker must
// not fail an upload that already persisted correctly.
func (u *Usecase) publishStored(ctx context.Context, basePath string, out *transcoder.Output) {
	if u.producer == nil {
		return
	}

	keys := make([]string, 0, len(out.Renditions))
	for _, r := range out.Renditions {
		keys = append(keys, r.Key)
	}

	payload, err := json.Marshal(domain.ImageStoredEvent{
		BasePath:   basePath,
		Width:      out.SourceWidth,
		Height:     out.SourceHeight,
		Renditions: keys,
		StoredAt:   time.Now().UTC(),
	})
	if err != nil {
		u.logger.Error().Err(err).Str("base_path", basePath).Msg("Failed to marshal stored event")
		return
	}

	if err := u.producer.Send(ctx, u.retries, []byte(basePath), payload); err != nil {
		u.logger.Error().Err(err).Str("base_path", basePath).Msg("Failed to publish stored event")
	}
}

// MintBasePath derives a stable canonical key for a new asset:
// uploads/{unixSeconds}-{sanitizedName}. Unusable names fall back to a UUID.
func MintBasePath(filename string) string {
	name := sanitizeName(filename)
	if name == "" {
		name = uuid.New().String()
	}
	return fmt.Sprintf("%s%d-%s", domain.UploadKeyPrefix, time.Now().Unix(), name)
}

func sanitizeName(filename string) string {
	name := strings.ToLower(filepath.Base(strings.TrimSpace(filename)))
	if name == "." || name == "/" {
		return ""
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), "-.")
}

// ParseDataURI splits a data:<mediatype>;base64,<payload> string into bytes
// and content type.
func ParseDataURI(s string) ([]byte, string, error) {
	if !strings.HasPrefix(s, "data:") {
		return nil, "", fmt.Errorf("%w: missing data: prefix", ErrInvalidDataURI)
	}

	meta, payload, ok := strings.Cut(s[len("data:"):], ",")
	if !ok {
		return nil, "", fmt.Errorf("%w: missing payload separator", ErrInvalidDataURI)
	}

	contentType := meta
	base64Encoded := false
	if trimmed, found := strings.CutSuffix(meta, ";base64"); found {
		contentType = trimmed
		base64Encoded = true
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if !base64Encoded {
		return nil, "", fmt.Errorf("%w: only base64 payloads are supported", ErrInvalidDataURI)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}
	return data, contentType, nil
}
