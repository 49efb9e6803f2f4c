// Package notify is the notification hub: it persists messages for users and
// pushes them to whoever is listening right now.
package notify

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/lalith-99/dormlink/internal/models"
	"github.com/lalith-99/dormlink/internal/repository"
)

// Handler receives notifications for one user. It runs on the caller's
// goroutine and must not block for long.
type Handler func(models.Notification)

// Relay forwards notifications to other server instances.
type Relay interface {
	Publish(ctx context.Context, n models.Notification) error
}

// Hub keeps the live subscriptions of this process. Persisted notifications
// remain the source of truth; a user with no subscriber reads them later
// through the notification list.
type Hub struct {
	repo   repository.NotificationRepository
	logger *zap.Logger

	mu     sync.RWMutex
	subs   map[int64]map[uint64]Handler
	nextID uint64
	relay  Relay
}

func NewHub(repo repository.NotificationRepository, logger *zap.Logger) *Hub {
	return &Hub{
		repo:   repo,
		logger: logger.Named("notify"),
		subs:   make(map[int64]map[uint64]Handler),
	}
}

// SetRelay attaches a cross-instance relay. Passing nil detaches it.
func (h *Hub) SetRelay(r Relay) {
	h.mu.Lock()
	h.relay = r
	h.mu.Unlock()
}

// Subscribe registers fn for userID and returns the func that removes it.
// Calling the returned func more than once is harmless.
func (h *Hub) Subscribe(userID int64, fn Handler) (unsubscribe func()) {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[uint64]Handler)
	}
	h.subs[userID][id] = fn
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[userID], id)
			if len(h.subs[userID]) == 0 {
				delete(h.subs, userID)
			}
		})
	}
}

// Subscribers returns how many live handlers userID has in this process.
func (h *Hub) Subscribers(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}

// Notify persists the message and then hands it to the user's handlers.
// A handler never sees a message that failed to persist.
func (h *Hub) Notify(ctx context.Context, userID int64, message string) (*models.Notification, error) {
	n, err := h.repo.Create(ctx, userID, message)
	if err != nil {
		return nil, err
	}
	h.Dispatch(ctx, *n)
	return n, nil
}

// Dispatch delivers already-persisted notifications locally and then
// publishes them to the relay, if one is attached.
func (h *Hub) Dispatch(ctx context.Context, ns ...models.Notification) {
	h.mu.RLock()
	relay := h.relay
	h.mu.RUnlock()

	for _, n := range ns {
		h.Deliver(n)
		if relay == nil {
			continue
		}
		if err := relay.Publish(ctx, n); err != nil {
			h.logger.Warn("relay publish failed",
				zap.Int64("notification_id", n.ID),
				zap.Int64("user_id", n.UserID),
				zap.Error(err),
			)
		}
	}
}

// Deliver invokes the local handlers for n without persisting or relaying.
func (h *Hub) Deliver(n models.Notification) {
	h.mu.RLock()
	handlers := make([]Handler, 0, len(h.subs[n.UserID]))
	for _, fn := range h.subs[n.UserID] {
		handlers = append(handlers, fn)
	}
	h.mu.RUnlock()

	for _, fn := range handlers {
		h.invoke(fn, n)
	}
}

func (h *Hub) invoke(fn Handler, n models.Notification) {
	defer func() {
		if p := recover(); p != nil {
			h.logger.Error("notification handler panicked",
				zap.Int64("user_id", n.UserID),
				zap.Any("panic", p),
			)
		}
	}()
	fn(n)
}
