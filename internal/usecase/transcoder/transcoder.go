// Package transcoder derives the fixed eager rendition set for an uploaded
// asset: {thumb-400, detail-800} x {jpeg, webp}.
package transcoder

import (
	"context"
	"fmt"
	"image"
	"sync"

	"image-pipeline/internal/domain"
	"image-pipeline/internal/usecase/operations"

	"github.com/wb-go/wbf/zlog"
)

// Output carries the derived renditions plus the upright source dimensions.
type Output struct {
	SourceWidth  int
	SourceHeight int
	Renditions   []domain.Rendition
}

type Transcoder struct {
	logger *zlog.Zerolog
}

func New(logger *zlog.Zerolog) *Transcoder {
	return &Transcoder{logger: logger}
}

type encodeResult struct {
	rendition domain.Rendition
	format    domain.ImageFormat
	err       error
}

// DeriveVariants decodes the source once and encodes all four renditions
// concurrently; the transforms share no mutable state. JPEG variants are the
// required baseline and fail the whole operation; WebP is best-effort
// enhancement and is omitted when its encoder rejects the source.
func (t *Transcoder) DeriveVariants(ctx context.Context, src []byte, basePath string) (*Output, error) {
	img, err := operations.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", operations.ErrProcessing, err)
	}

	bounds := img.Bounds()
	out := &Output{
		SourceWidth:  bounds.Dx(),
		SourceHeight: bounds.Dy(),
	}

	formats := []domain.ImageFormat{domain.FormatJPEG, domain.FormatWebP}
	results := make([]encodeResult, len(domain.EagerVariants)*len(formats))

	var wg sync.WaitGroup
	for vi, variant := range domain.EagerVariants {
		for fi, format := range formats {
			wg.Add(1)
			go func(idx int, variant domain.VariantSpec, format domain.ImageFormat) {
				defer wg.Done()
				rendition, encErr := encodeVariant(img, basePath, variant, format)
				results[idx] = encodeResult{rendition: rendition, format: format, err: encErr}
			}(vi*len(formats)+fi, variant, format)
		}
	}
	wg.Wait()

	for _, res := range results {
		if res.err == nil {
			out.Renditions = append(out.Renditions, res.rendition)
			continue
		}
		if res.format == domain.FormatWebP {
			t.logger.Warn().
				Err(res.err).
				Str("base_path", basePath).
				Msg("WebP variant skipped")
			continue
		}
		return nil, fmt.Errorf("%w: %v", operations.ErrProcessing, res.err)
	}

	t.logger.Info().
		Str("base_path", basePath).
		Int("source_width", out.SourceWidth).
		Int("source_height", out.SourceHeight).
		Int("renditions", len(out.Renditions)).
		Msg("Variants derived")

	return out, nil
}

func encodeVariant(img image.Image, basePath string, variant domain.VariantSpec, format domain.ImageFormat) (domain.Rendition, error) {
	fitted := operations.FitInside(img, variant.MaxWidth)

	var (
		data []byte
		err  error
	)
	switch format {
	case domain.FormatWebP:
		data, err = operations.EncodeWebP(fitted, domain.VariantWebPQuality)
	default:
		data, err = operations.EncodeJPEG(fitted, domain.VariantJPEGQuality)
	}
	if err != nil {
		return domain.Rendition{}, fmt.Errorf("encode %s as %s: %w", variant.Name, format, err)
	}

	width, height, err := operations.EncodedDimensions(data)
	if err != nil {
		return domain.Rendition{}, fmt.Errorf("read back %s dimensions: %w", variant.Name, err)
	}

	return domain.Rendition{
		Key:    variant.Key(basePath, format),
		Name:   variant.Name,
		Format: format,
		Width:  width,
		Height: height,
		Bytes:  data,
	}, nil
}
