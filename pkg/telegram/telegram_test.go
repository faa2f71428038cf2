package telegram

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func rateLimitedClient(now *time.Time) *Client {
	return &Client{
		sendLog: make(map[int64][]time.Time),
		now:     func() time.Time { return *now },
	}
}

func TestAllowEnforcesPerChatLimit(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	c := rateLimitedClient(&now)

	for i := 0; i < rateLimitCount; i++ {
		assert.True(t, c.allow(1), "message %d should pass", i+1)
	}
	assert.False(t, c.allow(1), "sixth message in the window is dropped")

	// Other chats have their own window.
	assert.True(t, c.allow(2))
}

func TestAllowWindowSlides(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	c := rateLimitedClient(&now)

	for i := 0; i < rateLimitCount; i++ {
		assert.True(t, c.allow(1))
	}
	assert.False(t, c.allow(1))

	// Once the window has passed, sends are admitted again.
	now = now.Add(rateLimitWindow + time.Second)
	assert.True(t, c.allow(1))
}
