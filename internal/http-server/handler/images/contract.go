package images

import (
	"context"

	"image-pipeline/internal/domain"
	"image-pipeline/internal/usecase/thumbnail"
)

type thumbnailService interface {
	Render(ctx context.Context, req thumbnail.Request) (*thumbnail.Result, error)
}

type uploadUsecase interface {
	SaveImage(ctx context.Context, data []byte, filename, contentType string) (*domain.UploadResult, error)
	SaveDataURI(ctx context.Context, dataURI, filename string) (*domain.UploadResult, error)
}
