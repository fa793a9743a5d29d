package redispub

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"stable-sharing/internal/ports/notify"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestPublisher_PublishesJSON(t *testing.T) {
	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("set TEST_INTEGRATION=1 to run against a redis container")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	addr, err := c.Endpoint(ctx, "")
	require.NoError(t, err)

	sub := redis.NewClient(&redis.Options{Addr: addr})
	defer sub.Close()
	ps := sub.Subscribe(ctx, "test.events")
	defer ps.Close()
	_, err = ps.Receive(ctx)
	require.NoError(t, err)

	pub, err := New(ctx, Config{Addr: addr, Channel: "test.events"})
	require.NoError(t, err)
	defer pub.Close()

	ev := notify.Event{
		Kind:         notify.EventConnectionAccepted,
		ConnectionID: "c-1",
		ActorID:      "u-1",
		TenantIDs:    []string{"t-1", "t-2"},
		At:           time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, pub.Notify(ctx, ev))

	msg, err := ps.ReceiveMessage(ctx)
	require.NoError(t, err)

	var got notify.Event
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	assert.Equal(t, ev, got)
}

func TestNewWithClient_DefaultChannel(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer rdb.Close()

	p := NewWithClient(rdb, " ")
	assert.Equal(t, DefaultChannel, p.channel)
}
