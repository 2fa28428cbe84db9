package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/gotransfer/internal/domain"
)

func testNotification() domain.Notification {
	return domain.Notification{
		AccountID:   "Id-1",
		Description: "Amount=10 transferred FromAccountId=Id-1, ToAccountId=Id-2",
		CreatedAt:   time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestLogSink_Deliver(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(zerolog.New(&buf))

	require.NoError(t, sink.Deliver(context.Background(), testNotification()))

	out := buf.String()
	assert.Contains(t, out, `"account_id":"Id-1"`)
	assert.Contains(t, out, "Amount=10 transferred FromAccountId=Id-1, ToAccountId=Id-2")
}

func TestRedisSink_Deliver(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	sub := client.Subscribe(ctx, "notifications")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	sink := NewRedisSink(client, "notifications")
	require.NoError(t, sink.Deliver(ctx, testNotification()))

	select {
	case msg := <-sub.Channel():
		var got domain.Notification
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, testNotification(), got)
	case <-time.After(2 * time.Second):
		t.Fatal("notification was not published")
	}
}

func TestRedisSink_DeliverFailsWhenRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	err := NewRedisSink(client, "notifications").Deliver(context.Background(), testNotification())
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "failed to publish notification"))
}
