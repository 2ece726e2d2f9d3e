package report

import (
	"context"
	"time"
)

// Store is the cache gateway. Implementations offer no locking; concurrent
// writers for the same key race and the last write wins.
type Store interface {
	Get(ctx context.Context, key string) (AnalysisReport, bool, error)
	Put(ctx context.Context, key string, rep AnalysisReport, ttl time.Duration) error
}

// Acquirer turns a URL into extracted article text, falling back to an
// archival snapshot when the live page is bot-blocked.
type Acquirer interface {
	Acquire(ctx context.Context, rawURL string) (AcquiredContent, error)
}

// Invoker calls the model service and returns the parsed, coerced report
// along with the identifier of the model that produced it.
type Invoker interface {
	Invoke(ctx context.Context, prompt string) (AnalysisReport, string, error)
}

// BlobStore archives raw artifacts and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// Publisher pushes report-created events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
