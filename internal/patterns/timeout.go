package patterns

import (
	"context"
	"time"
)

// DefaultTimeout is the default timeout for partner API requests
const DefaultTimeout = 10 * time.Second

// SlowServiceTimeout bounds payment submission, which the partner processes synchronously
const SlowServiceTimeout = 30 * time.Second

// WithTimeout derives a context that fails fast after duration. A zero duration
// leaves the parent's deadline in charge.
func WithTimeout(parent context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, duration)
}
