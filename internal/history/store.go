package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/ashendes/restaurant-ordering/internal/metrics"
	"github.com/ashendes/restaurant-ordering/internal/models"
	log "github.com/sirupsen/logrus"
)

// DefaultKey is the fixed storage key the history lives under
const DefaultKey = "saved_orders"

// ErrCorruptHistory is returned when persisted history cannot be decoded
var ErrCorruptHistory = errors.New("persisted order history is corrupt")

// Backend persists the serialized history as one blob
type Backend interface {
	Name() string
	// Load returns nil data and no error when nothing has been stored yet
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// Store is the append-only, most-recent-first order ledger
type Store struct {
	backend Backend
	mu      sync.RWMutex
	records []models.OrderRecord
}

// NewStore loads the persisted history once
func NewStore(ctx context.Context, backend Backend) (*Store, error) {
	data, err := backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load order history from %s: %w", backend.Name(), err)
	}

	var records []models.OrderRecord
	if len(data) > 0 {
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptHistory, err)
		}
	}

	log.WithFields(log.Fields{
		"backend": backend.Name(),
		"orders":  len(records),
	}).Info("Order history loaded")

	return &Store{backend: backend, records: records}, nil
}

// Load returns the history, most recent first
func (s *Store) Load() []models.OrderRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.OrderRecord, len(s.records))
	for i, r := range s.records {
		out[i] = cloneRecord(r)
	}
	return out
}

// Len returns the number of committed orders
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Append prepends the record and persists the whole sequence. Memory changes
// only after the write succeeded.
func (s *Store) Append(ctx context.Context, record models.OrderRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]models.OrderRecord, 0, len(s.records)+1)
	next = append(next, cloneRecord(record))
	next = append(next, s.records...)

	data, err := json.Marshal(next)
	if err != nil {
		metrics.HistoryAppendsTotal.WithLabelValues(s.backend.Name(), "failed").Inc()
		return fmt.Errorf("encode order history: %w", err)
	}
	if err := s.backend.Save(ctx, data); err != nil {
		metrics.HistoryAppendsTotal.WithLabelValues(s.backend.Name(), "failed").Inc()
		log.WithFields(log.Fields{
			"order_id": record.ID,
			"backend":  s.backend.Name(),
		}).Error("Failed to persist order history: ", err)
		return fmt.Errorf("persist order history: %w", err)
	}

	s.records = next
	metrics.HistoryAppendsTotal.WithLabelValues(s.backend.Name(), "ok").Inc()
	return nil
}

func cloneRecord(r models.OrderRecord) models.OrderRecord {
	r.Items = append([]models.CartItem(nil), r.Items...)
	return r
}
