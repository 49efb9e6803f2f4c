package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lalith-99/dormlink/internal/models"
	"github.com/lalith-99/dormlink/internal/repository/memory"
)

type failingRepo struct{}

func (failingRepo) Create(context.Context, int64, string) (*models.Notification, error) {
	return nil, errors.New("disk full")
}

func (failingRepo) ListByUser(context.Context, int64) ([]models.Notification, error) {
	return nil, nil
}

func (failingRepo) SetStatus(context.Context, int64, int64, models.NotificationStatus) (bool, error) {
	return false, nil
}

type recordingRelay struct {
	published []models.Notification
}

func (r *recordingRelay) Publish(_ context.Context, n models.Notification) error {
	r.published = append(r.published, n)
	return nil
}

func TestNotifyPersistsThenDelivers(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	hub := NewHub(store.Repos().Notifications, zap.NewNop())

	var got []models.Notification
	unsubscribe := hub.Subscribe(5, func(n models.Notification) {
		// the message is already readable when the handler runs
		list, err := store.Repos().Notifications.ListByUser(ctx, 5)
		require.NoError(t, err)
		require.Len(t, list, len(got)+1)
		got = append(got, n)
	})

	_, err := hub.Notify(ctx, 5, "hello")
	require.NoError(t, err)
	_, err = hub.Notify(ctx, 6, "someone else")
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "hello", got[0].Message)
	assert.Equal(t, models.NotificationUnread, got[0].Status)

	unsubscribe()
	unsubscribe()
	assert.Equal(t, 0, hub.Subscribers(5))

	_, err = hub.Notify(ctx, 5, "nobody listening")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	list, err := store.Repos().Notifications.ListByUser(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestNotifyFailureSkipsHandlers(t *testing.T) {
	hub := NewHub(failingRepo{}, zap.NewNop())
	called := false
	hub.Subscribe(1, func(models.Notification) { called = true })

	_, err := hub.Notify(context.Background(), 1, "lost")
	assert.Error(t, err)
	assert.False(t, called)
}

func TestDispatchUsesRelayAndSurvivesPanics(t *testing.T) {
	hub := NewHub(failingRepo{}, zap.NewNop())
	relay := &recordingRelay{}
	hub.SetRelay(relay)

	var calls int
	hub.Subscribe(1, func(models.Notification) { panic("bad handler") })
	hub.Subscribe(1, func(models.Notification) { calls++ })
	assert.Equal(t, 2, hub.Subscribers(1))

	hub.Dispatch(context.Background(), models.Notification{ID: 10, UserID: 1, Message: "a"})

	assert.Equal(t, 1, calls)
	require.Len(t, relay.published, 1)
	assert.Equal(t, int64(10), relay.published[0].ID)

	hub.Deliver(models.Notification{ID: 11, UserID: 1})
	assert.Equal(t, 2, calls)
	assert.Len(t, relay.published, 1)
}
