package upload

import (
	"context"

	"github.com/wb-go/wbf/retry"
)

type fileRepository interface {
	Save(ctx context.Context, key string, data []byte, contentType string) error
}

type eventProducer interface {
	Send(ctx context.Context, strategy retry.Strategy, key, value []byte) error
}
