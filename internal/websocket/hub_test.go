package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"freightchat/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func TestHubBroadcast(t *testing.T) {
	hub := startHub(t)
	a := &Client{Hub: hub, ID: uuid.New(), Send: make(chan []byte, 4)}
	b := &Client{Hub: hub, ID: uuid.New(), Send: make(chan []byte, 4)}
	hub.register <- a
	hub.register <- b
	require.Eventually(t, func() bool { return hub.Connections() == 2 }, time.Second, 5*time.Millisecond)

	hub.Broadcast("snapshot", map[string]string{"dialogue": "IDLE"})

	for _, c := range []*Client{a, b} {
		select {
		case raw := <-c.Send:
			var frame struct {
				Type string            `json:"type"`
				Data map[string]string `json:"data"`
			}
			require.NoError(t, json.Unmarshal(raw, &frame))
			assert.Equal(t, "snapshot", frame.Type)
			assert.Equal(t, "IDLE", frame.Data["dialogue"])
		case <-time.After(time.Second):
			t.Fatal("frame not delivered")
		}
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := startHub(t)
	slow := &Client{Hub: hub, ID: uuid.New(), Send: make(chan []byte)}
	hub.register <- slow
	require.Eventually(t, func() bool { return hub.Connections() == 1 }, time.Second, 5*time.Millisecond)

	hub.Broadcast("snapshot", nil)

	require.Eventually(t, func() bool { return hub.Connections() == 0 }, time.Second, 5*time.Millisecond)
	_, open := <-slow.Send
	assert.False(t, open)
}

func TestHubUnregisterIsIdempotent(t *testing.T) {
	hub := startHub(t)
	c := &Client{Hub: hub, ID: uuid.New(), Send: make(chan []byte, 1)}
	hub.register <- c
	hub.unregister <- c
	hub.unregister <- c

	require.Eventually(t, func() bool { return hub.Connections() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHubStoppedDoesNotBlock(t *testing.T) {
	hub := NewHub(logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	c := &Client{Hub: hub, ID: uuid.New(), Send: make(chan []byte, 1)}
	require.True(t, hub.join(c))
	require.Eventually(t, func() bool { return hub.Connections() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	<-stopped
	_, open := <-c.Send
	assert.False(t, open)

	returned := make(chan bool, 1)
	go func() {
		hub.leave(c)
		returned <- hub.join(&Client{Hub: hub, ID: uuid.New(), Send: make(chan []byte, 1)})
	}()
	select {
	case joined := <-returned:
		assert.False(t, joined)
	case <-time.After(time.Second):
		t.Fatal("hub calls blocked after shutdown")
	}
}
