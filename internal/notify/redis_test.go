package notify

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lalith-99/dormlink/internal/models"
)

type chanDeliverer chan models.Notification

func (c chanDeliverer) Deliver(n models.Notification) { c <- n }

func startRelay(t *testing.T, ctx context.Context, mr *miniredis.Miniredis) (*RedisRelay, chanDeliverer) {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	relay := NewRedisRelay(client, "", zap.NewNop())
	out := make(chanDeliverer, 4)
	go func() { _ = relay.Run(ctx, out) }()
	return relay, out
}

func TestRedisRelayForwardsForeignNotifications(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, fromA := startRelay(t, ctx, mr)
	_, fromB := startRelay(t, ctx, mr)

	probe := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer probe.Close()
	require.Eventually(t, func() bool {
		counts, err := probe.PubSubNumSub(ctx, DefaultChannel).Result()
		return err == nil && counts[DefaultChannel] == 2
	}, 2*time.Second, 10*time.Millisecond)

	sent := models.Notification{ID: 3, UserID: 9, Message: "Your carpool request has been accepted."}
	require.NoError(t, a.Publish(ctx, sent))

	select {
	case got := <-fromB:
		assert.Equal(t, sent.ID, got.ID)
		assert.Equal(t, sent.Message, got.Message)
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not forward the notification")
	}

	select {
	case <-fromA:
		t.Fatal("relay delivered its own echo")
	case <-time.After(100 * time.Millisecond):
	}
}
