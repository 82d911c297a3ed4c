package llm

import (
	"context"
	"errors"
	"net"

	"github.com/artmatsak/grace/common/retry"
)

type retryingProvider struct {
	next Provider
	cfg  retry.Config
}

// WithRetry wraps p so that transient failures (rate limits, 5xx answers,
// network timeouts) are retried with exponential backoff. Other errors are
// returned on the first attempt.
func WithRetry(p Provider, cfg retry.Config) Provider {
	if cfg.ShouldRetry == nil {
		cfg.ShouldRetry = IsTransient
	}
	return &retryingProvider{next: p, cfg: cfg}
}

func (r *retryingProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	return retry.Value(ctx, r.cfg, func() (*CompletionResponse, error) {
		return r.next.Complete(ctx, req)
	})
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	if errors.Is(err, ErrRateLimit) || errors.Is(err, ErrUnavailable) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
