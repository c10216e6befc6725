package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ashendes/restaurant-ordering/internal/models"
	log "github.com/sirupsen/logrus"
)

var (
	ErrSessionClosed  = errors.New("session closed")
	ErrSuperseded     = errors.New("result superseded by a newer request")
	ErrUnknownDish    = errors.New("unknown dish")
	ErrUnknownCuisine = errors.New("unknown cuisine")
)

// CatalogLoader fetches catalog data off the coordination goroutine
type CatalogLoader interface {
	FetchCatalog(ctx context.Context) (*models.Catalog, error)
	FetchDishesForCuisine(ctx context.Context, cuisine models.Cuisine) ([]models.Dish, error)
}

// OrderPlacer places an order from a cart snapshot
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, cart models.Cart, catalog *models.Catalog) (*models.OrderRecord, error)
}

// HistoryReader exposes committed orders
type HistoryReader interface {
	Load() []models.OrderRecord
}

// Status is the order placement projection shown after a placement
type Status struct {
	LatestTransactionID string `json:"latest_transaction_id,omitempty"`
	LastOrderError      string `json:"last_order_error,omitempty"`
	LastCatalogError    string `json:"last_catalog_error,omitempty"`
}

// Session owns the cart, the loaded catalog and the placement status. Every
// read and write of that state runs on one goroutine; remote calls run on the
// caller's goroutine and hand their results back to it.
type Session struct {
	catalogs CatalogLoader
	placer   OrderPlacer
	history  HistoryReader

	tasks     chan func()
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once

	// owned by the loop goroutine
	cart        models.Cart
	catalog     *models.Catalog
	catalogGen  uint64
	status      Status
	placing     bool
	subscribers map[int]chan Event
	nextSubID   int
}

// New starts the coordination goroutine
func New(catalogs CatalogLoader, placer OrderPlacer, history HistoryReader) *Session {
	s := &Session{
		catalogs:    catalogs,
		placer:      placer,
		history:     history,
		tasks:       make(chan func()),
		done:        make(chan struct{}),
		stopped:     make(chan struct{}),
		subscribers: make(map[int]chan Event),
	}
	go s.run()
	return s
}

func (s *Session) run() {
	defer close(s.stopped)
	for {
		select {
		case task := <-s.tasks:
			task()
		case <-s.done:
			return
		}
	}
}

// exec runs fn on the coordination goroutine and waits for it
func (s *Session) exec(fn func()) error {
	finished := make(chan struct{})
	select {
	case s.tasks <- func() { fn(); close(finished) }:
	case <-s.done:
		return ErrSessionClosed
	}
	select {
	case <-finished:
		return nil
	case <-s.stopped:
		return ErrSessionClosed
	}
}

// Close stops the session. Results that arrive later are dropped.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		<-s.stopped
		for id, ch := range s.subscribers {
			close(ch)
			delete(s.subscribers, id)
		}
	})
}

// RefreshCatalog fetches the catalog and replaces the loaded one wholesale.
// A refresh that finishes after a newer one started is discarded.
func (s *Session) RefreshCatalog(ctx context.Context) (*models.Catalog, error) {
	var gen uint64
	if err := s.exec(func() {
		s.catalogGen++
		gen = s.catalogGen
	}); err != nil {
		return nil, err
	}

	catalog, fetchErr := s.catalogs.FetchCatalog(ctx)

	applied := false
	if err := s.exec(func() {
		if gen != s.catalogGen {
			return
		}
		applied = true
		if fetchErr != nil {
			s.status.LastCatalogError = fetchErr.Error()
			s.notify(Event{Type: EventCatalogFailed, Err: fetchErr})
			return
		}
		s.catalog = catalog
		s.status.LastCatalogError = ""
		s.notify(Event{Type: EventCatalogUpdated})
	}); err != nil {
		log.Debug("Dropping catalog result for closed session")
		return nil, err
	}

	if !applied {
		return nil, ErrSuperseded
	}
	if fetchErr != nil {
		return nil, fetchErr
	}
	return catalog, nil
}

// LoadCuisineDishes refreshes one cuisine's dishes through the filter endpoint
func (s *Session) LoadCuisineDishes(ctx context.Context, cuisineID string) ([]models.Dish, error) {
	var (
		target models.Cuisine
		found  bool
		gen    uint64
	)
	if err := s.exec(func() {
		gen = s.catalogGen
		target, found = s.catalog.CuisineByID(cuisineID)
	}); err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCuisine, cuisineID)
	}

	dishes, err := s.catalogs.FetchDishesForCuisine(ctx, target)
	if err != nil {
		return nil, err
	}

	if err := s.exec(func() {
		if gen != s.catalogGen || s.catalog == nil {
			return
		}
		s.catalog = withCuisineDishes(s.catalog, cuisineID, dishes)
		s.notify(Event{Type: EventDishesUpdated, CuisineID: cuisineID})
	}); err != nil {
		return nil, err
	}
	return dishes, nil
}

func withCuisineDishes(c *models.Catalog, cuisineID string, dishes []models.Dish) *models.Catalog {
	next := *c
	next.Cuisines = make([]models.Cuisine, len(c.Cuisines))
	copy(next.Cuisines, c.Cuisines)
	for i := range next.Cuisines {
		if next.Cuisines[i].ID == cuisineID {
			next.Cuisines[i].Dishes = append([]models.Dish(nil), dishes...)
		}
	}
	return &next
}

// AddDish adds one unit of a catalog dish to the cart
func (s *Session) AddDish(dishID string) (models.Cart, error) {
	return s.mutateCart(dishID, true, func(c *models.Cart, d models.Dish) { c.AddDish(d) })
}

// RemoveDish removes one unit of a dish from the cart
func (s *Session) RemoveDish(dishID string) (models.Cart, error) {
	return s.mutateCart(dishID, false, func(c *models.Cart, d models.Dish) { c.RemoveDish(d) })
}

// SetQuantity sets the quantity of a dish already in the cart
func (s *Session) SetQuantity(dishID string, quantity int) (models.Cart, error) {
	return s.mutateCart(dishID, false, func(c *models.Cart, d models.Dish) { c.SetQuantity(d, quantity) })
}

// ClearCart empties the cart, typically after a placed order was acknowledged
func (s *Session) ClearCart() error {
	return s.exec(func() {
		s.cart.Clear()
		s.notify(Event{Type: EventCartChanged})
	})
}

func (s *Session) mutateCart(dishID string, fromCatalog bool, fn func(*models.Cart, models.Dish)) (models.Cart, error) {
	var (
		out    models.Cart
		lookup error
	)
	err := s.exec(func() {
		d, ok := s.resolveDish(dishID, fromCatalog)
		if !ok {
			lookup = fmt.Errorf("%w: %s", ErrUnknownDish, dishID)
			return
		}
		fn(&s.cart, d)
		out = s.cart.Snapshot()
		s.notify(Event{Type: EventCartChanged})
	})
	if err != nil {
		return models.Cart{}, err
	}
	return out, lookup
}

func (s *Session) resolveDish(dishID string, fromCatalog bool) (models.Dish, bool) {
	for _, item := range s.cart.Items {
		if item.Dish.ID == dishID {
			return item.Dish, true
		}
	}
	if !fromCatalog {
		return models.Dish{}, false
	}
	return s.catalog.DishByID(dishID)
}

// PlaceOrder submits the current cart. The cart keeps its items so the caller
// can show them in a confirmation before calling ClearCart. A call made while
// another placement is in flight is rejected and leaves the status untouched.
func (s *Session) PlaceOrder(ctx context.Context) (*models.OrderRecord, error) {
	var (
		cart    models.Cart
		catalog *models.Catalog
		busy    bool
	)
	if err := s.exec(func() {
		if s.placing {
			busy = true
			return
		}
		s.placing = true
		cart = s.cart.Snapshot()
		catalog = s.catalog
		s.status.LastOrderError = ""
		s.status.LatestTransactionID = ""
	}); err != nil {
		return nil, err
	}
	if busy {
		return nil, models.ErrPlacementInProgress
	}

	record, placeErr := s.placer.PlaceOrder(ctx, cart, catalog)

	if err := s.exec(func() {
		s.placing = false
		switch {
		case errors.Is(placeErr, models.ErrPlacementInProgress):
		case placeErr != nil:
			s.status.LastOrderError = "Order failed: " + placeErr.Error()
			s.notify(Event{Type: EventOrderFailed, Err: placeErr})
		default:
			s.status.LatestTransactionID = record.TransactionID
			s.notify(Event{Type: EventOrderPlaced, Record: record})
		}
	}); err != nil {
		log.WithField("placed", placeErr == nil).Debug("Session closed before order result was applied")
	}

	return record, placeErr
}

// Cart returns a copy of the cart
func (s *Session) Cart() (models.Cart, error) {
	var out models.Cart
	err := s.exec(func() { out = s.cart.Snapshot() })
	return out, err
}

// Catalog returns the loaded catalog, nil before the first successful refresh.
// The returned value must be treated as read-only.
func (s *Session) Catalog() (*models.Catalog, error) {
	var out *models.Catalog
	err := s.exec(func() { out = s.catalog })
	return out, err
}

// Status returns the placement projection
func (s *Session) Status() (Status, error) {
	var out Status
	err := s.exec(func() { out = s.status })
	return out, err
}

// History returns committed orders, most recent first
func (s *Session) History() []models.OrderRecord {
	return s.history.Load()
}
