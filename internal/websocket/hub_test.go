package websocket

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(hub *Hub, userID uint) *Client {
	return &Client{
		Hub:    hub,
		UserID: userID,
		Send:   make(chan []byte, 64),
	}
}

func TestHub_PushToUser_DeliversToAllDevices(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	phone := newTestClient(hub, 7)
	tablet := newTestClient(hub, 7)
	other := newTestClient(hub, 8)
	hub.register <- phone
	hub.register <- tablet
	hub.register <- other

	require.Eventually(t, func() bool {
		return hub.ConnectedUsers() == 2
	}, time.Second, 5*time.Millisecond)

	hub.PushToUser(7, map[string]interface{}{"type": "booking_confirmed"})

	for _, c := range []*Client{phone, tablet} {
		select {
		case msg := <-c.Send:
			assert.Contains(t, string(msg), "booking_confirmed")
		case <-time.After(time.Second):
			t.Fatal("expected a pushed message")
		}
	}
	assert.Empty(t, other.Send)
}

func TestHub_PushToUser_SkipsSlowClient(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	slow := &Client{Hub: hub, UserID: 3, Send: make(chan []byte)}
	hub.register <- slow

	require.Eventually(t, func() bool {
		return hub.ConnectedUsers() == 1
	}, time.Second, 5*time.Millisecond)

	// Nobody drains slow.Send; the push must return instead of blocking.
	done := make(chan struct{})
	go func() {
		hub.PushToUser(3, map[string]interface{}{"type": "booking_reminder"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("push blocked on a slow client")
	}
}

// A push racing a disconnect must never hit a closed channel.
func TestHub_PushToUser_ConcurrentWithDisconnect(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	const userID = 42

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			client := newTestClient(hub, userID)
			hub.register <- client
			go func(c *Client) {
				for range c.Send {
				}
			}(client)
			hub.unregister <- client
		}
		close(stop)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				hub.PushToUser(userID, map[string]interface{}{"type": "booking_reminder"})
			}
		}
	}()

	wg.Wait()

	require.Eventually(t, func() bool {
		return hub.ConnectedUsers() == 0
	}, time.Second, 5*time.Millisecond)
}
