package memory

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/code-payments/wallet-bridge/pkg/wallet"
	"github.com/code-payments/wallet-bridge/pkg/wallet/adapter"
)

var errDeveloperInduced = errors.New("in memory wallet adapter: developer induced error")

// Client is an in memory adapter.Client used for testing. Connect and
// Disconnect emit events synchronously using the configured session.
type Client struct {
	*adapter.Emitter

	mu         sync.Mutex
	address    string
	connection wallet.Connection
	provider   wallet.Provider
	failNext   bool
	closed     bool
}

func NewClient(address string, connection wallet.Connection, provider wallet.Provider) *Client {
	return &Client{
		Emitter:    adapter.NewEmitter(),
		address:    address,
		connection: connection,
		provider:   provider,
	}
}

// NewFactory returns an adapter.Factory that always yields c.
func NewFactory(c *Client) adapter.Factory {
	return func(context.Context) (adapter.Client, error) {
		return c, nil
	}
}

// NewFailingFactory returns an adapter.Factory that fails the first n calls
// before yielding c.
func NewFailingFactory(c *Client, n int) adapter.Factory {
	var mu sync.Mutex
	return func(context.Context) (adapter.Client, error) {
		mu.Lock()
		defer mu.Unlock()

		if n > 0 {
			n--
			return nil, errDeveloperInduced
		}
		return c, nil
	}
}

// InduceError makes the next Connect or Disconnect fail.
func (c *Client) InduceError() {
	c.mu.Lock()
	c.failNext = true
	c.mu.Unlock()
}

func (c *Client) Connect(ctx context.Context) error {
	if err := c.check(); err != nil {
		return err
	}
	c.EmitConnect()
	return nil
}

func (c *Client) Disconnect(ctx context.Context) error {
	if err := c.check(); err != nil {
		return err
	}
	c.EmitDisconnect()
	return nil
}

// EmitConnect emits a connect event for the configured session, as a wallet
// would after an approval or an account switch.
func (c *Client) EmitConnect() {
	c.mu.Lock()
	event := adapter.Event{
		Type:       adapter.EventConnect,
		Address:    c.address,
		Connection: c.connection,
		Provider:   c.provider,
	}
	c.mu.Unlock()

	c.Emit(event)
}

// EmitConnectAs emits a connect event for a different session.
func (c *Client) EmitConnectAs(address string, connection wallet.Connection, provider wallet.Provider) {
	c.Emit(adapter.Event{
		Type:       adapter.EventConnect,
		Address:    address,
		Connection: connection,
		Provider:   provider,
	})
}

func (c *Client) EmitDisconnect() {
	c.Emit(adapter.Event{Type: adapter.EventDisconnect})
}

func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func (c *Client) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Client) check() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return adapter.ErrClosed
	}
	if c.failNext {
		c.failNext = false
		return errDeveloperInduced
	}
	return nil
}
