package session

import (
	"github.com/ashendes/restaurant-ordering/internal/models"
	log "github.com/sirupsen/logrus"
)

// EventType names a state change observed by subscribers
type EventType string

const (
	EventCatalogUpdated EventType = "catalog_updated"
	EventCatalogFailed  EventType = "catalog_failed"
	EventDishesUpdated  EventType = "dishes_updated"
	EventCartChanged    EventType = "cart_changed"
	EventOrderPlaced    EventType = "order_placed"
	EventOrderFailed    EventType = "order_failed"
)

type Event struct {
	Type      EventType
	CuisineID string
	Record    *models.OrderRecord
	Err       error
}

// Subscribe registers a consumer. Events are delivered in the order the
// session applied them; a consumer whose buffer is full misses events rather
// than stalling the session. The channel is closed by Close or by the returned
// cancel function.
func (s *Session) Subscribe(buffer int) (<-chan Event, func(), error) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	var id int
	if err := s.exec(func() {
		id = s.nextSubID
		s.nextSubID++
		s.subscribers[id] = ch
	}); err != nil {
		return nil, nil, err
	}

	cancel := func() {
		_ = s.exec(func() {
			if sub, ok := s.subscribers[id]; ok {
				close(sub)
				delete(s.subscribers, id)
			}
		})
	}
	return ch, cancel, nil
}

// notify must run on the loop goroutine
func (s *Session) notify(e Event) {
	for id, ch := range s.subscribers {
		select {
		case ch <- e:
		default:
			log.WithFields(log.Fields{"subscriber": id, "event": e.Type}).Warn("Dropping event for slow subscriber")
		}
	}
}
