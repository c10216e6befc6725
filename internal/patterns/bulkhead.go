package patterns

import (
	"context"
	"fmt"
	"time"

	"github.com/ashendes/restaurant-ordering/internal/metrics"
)

// DefaultBulkheadWait is how long a caller waits for a free slot before being rejected
const DefaultBulkheadWait = 1 * time.Second

// Bulkhead implements the bulkhead pattern for resource isolation
type Bulkhead struct {
	semaphore chan struct{}
	name      string
	service   string
	wait      time.Duration
}

// NewBulkhead creates a new bulkhead with specified capacity
func NewBulkhead(size int, name, service string) *Bulkhead {
	if size < 1 {
		size = 1
	}
	return &Bulkhead{
		semaphore: make(chan struct{}, size),
		name:      name,
		service:   service,
		wait:      DefaultBulkheadWait,
	}
}

// WithWait overrides how long Execute waits for a slot
func (b *Bulkhead) WithWait(wait time.Duration) *Bulkhead {
	b.wait = wait
	return b
}

// Execute runs a function within the bulkhead's resource limits
func (b *Bulkhead) Execute(ctx context.Context, fn func() error) error {
	timer := time.NewTimer(b.wait)
	defer timer.Stop()

	select {
	case b.semaphore <- struct{}{}:
		metrics.BulkheadActiveRequests.WithLabelValues(b.service, b.name).Inc()

		defer func() {
			<-b.semaphore
			metrics.BulkheadActiveRequests.WithLabelValues(b.service, b.name).Dec()
		}()

		return fn()

	case <-ctx.Done():
		return ctx.Err()

	case <-timer.C:
		metrics.BulkheadRejectedRequests.WithLabelValues(b.service, b.name).Inc()
		return fmt.Errorf("bulkhead %s: timeout acquiring resource", b.name)
	}
}

// GetName returns the bulkhead name
func (b *Bulkhead) GetName() string {
	return b.name
}

// Capacity returns the number of concurrent slots
func (b *Bulkhead) Capacity() int {
	return cap(b.semaphore)
}
