package thumbnail

import "context"

type fileRepository interface {
	Exists(ctx context.Context, key string) (bool, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte, contentType string) error
}

type sourceFetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}
