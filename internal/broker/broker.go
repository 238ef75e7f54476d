package broker

import (
	"context"

	"github.com/wb-go/wbf/retry"
)

// Producer publishes pipeline events for external collaborators. The upload
// flow treats it as optional; a nil producer disables publishing.
type Producer interface {
	Send(ctx context.Context, strategy retry.Strategy, key, value []byte) error
	Close() error
}
