package order

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ashendes/restaurant-ordering/internal/metrics"
	"github.com/ashendes/restaurant-ordering/internal/models"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// State is the placement state machine position
type State int

const (
	StateIdle State = iota
	StateValidating
	StateSubmitting
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// PaymentGateway submits payment requests
type PaymentGateway interface {
	MakePayment(ctx context.Context, req models.PaymentRequest) (*models.PaymentResponse, error)
}

// HistoryAppender commits paid orders
type HistoryAppender interface {
	Append(ctx context.Context, record models.OrderRecord) error
}

// HistoryCommitError means the payment went through but the receipt could not
// be stored. The caller must surface TransactionID to the user.
type HistoryCommitError struct {
	TransactionID string
	Err           error
}

func (e *HistoryCommitError) Error() string {
	return fmt.Sprintf("payment %s succeeded but order history was not saved: %v", e.TransactionID, e.Err)
}

func (e *HistoryCommitError) Unwrap() error {
	return e.Err
}

// Service places orders for one cart. At most one placement runs at a time.
type Service struct {
	gateway PaymentGateway
	history HistoryAppender
	now     func() time.Time
	newID   func() string

	mu           sync.Mutex
	state        State
	onTransition func(from, to State)
}

// Option customizes a Service
type Option func(*Service)

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides the uuid order id generator
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// WithTransitionHook observes every state change
func WithTransitionHook(fn func(from, to State)) Option {
	return func(s *Service) { s.onTransition = fn }
}

func NewService(gateway PaymentGateway, history HistoryAppender, opts ...Option) *Service {
	s := &Service{
		gateway: gateway,
		history: history,
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
		state:   StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current placement state
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Service) transition(to State) {
	s.mu.Lock()
	from := s.state
	s.state = to
	hook := s.onTransition
	s.mu.Unlock()

	if hook != nil {
		hook(from, to)
	}
}

func (s *Service) begin() bool {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return false
	}
	s.state = StateValidating
	hook := s.onTransition
	s.mu.Unlock()

	if hook != nil {
		hook(StateIdle, StateValidating)
	}
	return true
}

func (s *Service) finish(outcome State) {
	s.transition(outcome)
	s.transition(StateIdle)
}

// PlaceOrder validates the cart, submits the payment and, on success, commits
// an OrderRecord to history. The cart passed in is never modified; clearing it
// is up to the caller.
func (s *Service) PlaceOrder(ctx context.Context, cart models.Cart, catalog *models.Catalog) (*models.OrderRecord, error) {
	if cart.IsEmpty() {
		metrics.OrdersTotal.WithLabelValues(models.OrderStatusEmptyCart).Inc()
		return nil, models.ErrEmptyCart
	}

	if !s.begin() {
		metrics.OrdersTotal.WithLabelValues(models.OrderStatusRejected).Inc()
		return nil, models.ErrPlacementInProgress
	}

	snapshot := cart.Snapshot()
	var index models.CuisineIndex
	if catalog != nil {
		index = catalog.Index
	}

	req, err := BuildPaymentRequest(snapshot, index)
	if err != nil {
		metrics.OrdersTotal.WithLabelValues(models.OrderStatusInvalidIDs).Inc()
		log.WithField("items", len(snapshot.Items)).Warn("Order validation failed: ", err)
		s.finish(StateFailed)
		return nil, err
	}

	s.transition(StateSubmitting)
	grandTotal := snapshot.GrandTotal()

	log.WithFields(log.Fields{
		"items":        req.TotalItems,
		"total_amount": req.TotalAmount,
	}).Info("Submitting payment")

	resp, err := s.gateway.MakePayment(ctx, req)
	if err != nil {
		metrics.OrdersTotal.WithLabelValues(models.OrderStatusFailed).Inc()
		log.WithField("total_amount", req.TotalAmount).Error("Payment failed: ", err)
		s.finish(StateFailed)
		return nil, fmt.Errorf("payment processing failed: %w", err)
	}

	record := models.OrderRecord{
		ID:            s.newID(),
		TransactionID: resp.TxnRefNo,
		Items:         snapshot.Items,
		GrandTotal:    grandTotal,
		Date:          s.now(),
	}

	if err := s.history.Append(ctx, record); err != nil {
		metrics.OrdersTotal.WithLabelValues(models.OrderStatusFailed).Inc()
		s.finish(StateFailed)
		return nil, &HistoryCommitError{TransactionID: resp.TxnRefNo, Err: err}
	}

	metrics.OrdersTotal.WithLabelValues(models.OrderStatusCompleted).Inc()
	metrics.PaymentAmount.Observe(grandTotal.InexactFloat64())

	log.WithFields(log.Fields{
		"order_id":       record.ID,
		"transaction_id": record.TransactionID,
		"grand_total":    grandTotal.String(),
	}).Info("Order completed successfully")

	s.finish(StateSucceeded)
	return &record, nil
}
