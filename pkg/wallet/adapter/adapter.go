package adapter

import (
	"context"

	"github.com/pkg/errors"

	"github.com/code-payments/wallet-bridge/pkg/wallet"
)

type EventType string

const (
	EventConnect    EventType = "connect"
	EventDisconnect EventType = "disconnect"
)

var (
	ErrNotConnected = errors.New("wallet not connected")
	ErrClosed       = errors.New("wallet adapter client closed")
)

// Event is emitted by a Client. Connect events carry the session handles;
// disconnect events carry nothing.
type Event struct {
	Type       EventType
	Address    string
	Connection wallet.Connection
	Provider   wallet.Provider
}

type Handler func(Event)

// Client is a wallet-adapter client. It owns the wallet handshake and
// reports the outcome through subscriptions.
type Client interface {
	// Connect starts the connection flow. Success is reported through a
	// connect event, which may be delivered before Connect returns.
	Connect(ctx context.Context) error

	// Disconnect ends the session. Success is reported through a disconnect
	// event.
	Disconnect(ctx context.Context) error

	// Subscribe registers handler for events of type t. The returned function
	// removes the registration and is safe to call more than once.
	Subscribe(t EventType, handler Handler) (unsubscribe func())

	// Close releases the client's resources.
	Close() error
}

// Factory creates a Client.
type Factory func(ctx context.Context) (Client, error)
