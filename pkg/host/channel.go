package host

import (
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/code-payments/wallet-bridge/pkg/wallet"
)

const subscriberBufferSize = 16

// Channel is the host embedding channel. It keeps the latest component value
// for polling hosts and fans every value out to observing hosts.
type Channel struct {
	log *logrus.Entry

	mu          sync.RWMutex
	latest      []byte
	version     uint64
	ready       bool
	subscribers map[uint64]chan []byte
	nextID      uint64
}

func NewChannel() *Channel {
	c := &Channel{
		log:         logrus.StandardLogger().WithField("type", "host/channel"),
		subscribers: make(map[uint64]chan []byte),
	}
	c.latest, _ = json.Marshal(wallet.DefaultState())
	return c
}

// SetComponentValue publishes state to the host. A slow observer whose buffer
// is full loses its oldest pending value instead of blocking the publisher,
// so the latest value always reaches it.
func (c *Channel) SetComponentValue(state wallet.State) {
	value, err := json.Marshal(state)
	if err != nil {
		c.log.WithError(err).Warn("failed to marshal component value")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.latest = value
	c.version++

	// Sends happen only under mu, so after dropping one pending value there
	// is room for the new one.
	for id, ch := range c.subscribers {
		select {
		case ch <- value:
			continue
		default:
		}

		select {
		case <-ch:
			c.log.WithField("subscriber", id).Debug("dropping stale component value for slow subscriber")
		default:
		}
		select {
		case ch <- value:
		default:
		}
	}
}

// Latest returns the most recent component value and its version. The
// version increases by one on every published value.
func (c *Channel) Latest() ([]byte, uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latest, c.version
}

// Subscribe returns a channel that receives every subsequent value, starting
// with the current one. The returned cancel function closes the channel.
func (c *Channel) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, subscriberBufferSize)

	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.subscribers[id] = ch
	ch <- c.latest
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subscribers, id)
			close(ch)
			c.mu.Unlock()
		})
	}
}

// SetReady marks the component as ready to be displayed by the host.
func (c *Channel) SetReady() {
	c.mu.Lock()
	c.ready = true
	c.mu.Unlock()
}

func (c *Channel) IsReady() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

func (c *Channel) subscriberCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.subscribers)
}
