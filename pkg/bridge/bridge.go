package bridge

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/wallet-bridge/pkg/metrics"
	"github.com/code-payments/wallet-bridge/pkg/wallet"
	"github.com/code-payments/wallet-bridge/pkg/wallet/adapter"
)

const (
	metricsStructName = "bridge"

	stateChangeEventName = "WalletBridgeStateChange"
)

var (
	ErrNotInitialized = errors.New("wallet bridge not initialized")
	ErrClosed         = errors.New("wallet bridge closed")
)

// HostSink receives every wallet state change. It is the only channel to the
// host page, and the bridge never reads from it.
type HostSink interface {
	SetComponentValue(state wallet.State)
}

// HostSinkFunc adapts a function to a HostSink.
type HostSinkFunc func(state wallet.State)

func (f HostSinkFunc) SetComponentValue(state wallet.State) {
	f(state)
}

type Option func(*Bridge)

// WithAutoConnect connects the wallet as part of a successful Init.
func WithAutoConnect() Option {
	return func(b *Bridge) {
		b.autoConnect = true
	}
}

// Bridge owns a single wallet-adapter client and mirrors its connect and
// disconnect events into a wallet.State forwarded to the host.
type Bridge struct {
	log         *logrus.Entry
	factory     adapter.Factory
	sink        HostSink
	autoConnect bool

	// eventMu serializes state changes with their delivery to the sink, so
	// the host sees changes in the order they were applied.
	eventMu sync.Mutex

	mu            sync.RWMutex
	status        Status
	client        adapter.Client
	unsubscribers []func()
	state         wallet.State
	errString     string
	session       context.Context
	cancelSession context.CancelFunc

	// generation changes on every Init and Close. An Init that finds it
	// changed was superseded and must not install its client.
	generation uint64
}

func New(factory adapter.Factory, sink HostSink, opts ...Option) *Bridge {
	b := &Bridge{
		log:     logrus.StandardLogger().WithField("type", "bridge"),
		factory: factory,
		sink:    sink,
		state:   wallet.DefaultState(),
	}
	b.session, b.cancelSession = doneContext()

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Init creates the wallet-adapter client and registers the connect and
// disconnect subscriptions. It is a no-op while initializing or once
// initialized. On failure the error is recorded and a later Init retries.
func (b *Bridge) Init(ctx context.Context) error {
	b.mu.Lock()
	if b.status == StatusInitializing || b.status == StatusReady {
		b.mu.Unlock()
		return nil
	}
	b.status = StatusInitializing
	b.generation++
	generation := b.generation
	b.mu.Unlock()

	log := b.log.WithField("method", "Init")

	client, err := b.factory(ctx)
	if err != nil {
		err = errors.Wrap(err, "failed to initialize wallet adapter")
		log.WithError(err).Warn("initialization failed")

		b.mu.Lock()
		if b.generation == generation {
			b.status = StatusError
			b.errString = err.Error()
		}
		b.mu.Unlock()

		return err
	}

	// Subscribing outside mu lets a client deliver events from within
	// Subscribe.
	unsubscribers := []func(){
		client.Subscribe(adapter.EventConnect, b.onConnect),
		client.Subscribe(adapter.EventDisconnect, b.onDisconnect),
	}

	b.mu.Lock()
	if b.generation != generation {
		b.mu.Unlock()

		log.Debug("closed while initializing")
		for _, unsubscribe := range unsubscribers {
			unsubscribe()
		}
		if err := client.Close(); err != nil {
			log.WithError(err).Warn("failed to close abandoned wallet adapter")
		}
		return ErrClosed
	}
	b.client = client
	b.unsubscribers = unsubscribers
	b.status = StatusReady
	b.errString = ""
	b.mu.Unlock()

	log.Debug("initialized")

	// Publish the current state so the host has a value before any event.
	// It is read under eventMu so an event handled during subscription is
	// never overwritten by an older value.
	b.eventMu.Lock()
	b.sink.SetComponentValue(b.State())
	b.eventMu.Unlock()

	if b.autoConnect {
		// Failures are recorded in the error string.
		_ = b.Connect(ctx)
	}

	return nil
}

// Connect asks the client to connect the wallet. The resulting state change
// arrives through the connect subscription.
func (b *Bridge) Connect(ctx context.Context) error {
	return b.do(ctx, "Connect", "failed to connect wallet", adapter.Client.Connect)
}

// Disconnect asks the client to disconnect the wallet.
func (b *Bridge) Disconnect(ctx context.Context) error {
	return b.do(ctx, "Disconnect", "failed to disconnect wallet", adapter.Client.Disconnect)
}

func (b *Bridge) do(ctx context.Context, method, failure string, action func(adapter.Client, context.Context) error) error {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, method)
	defer tracer.End()

	b.mu.RLock()
	client := b.client
	b.mu.RUnlock()

	var err error
	if client == nil {
		err = ErrNotInitialized
	} else {
		err = action(client, ctx)
	}
	if err == nil {
		return nil
	}

	err = errors.Wrap(err, failure)
	b.log.WithField("method", method).WithError(err).Info(failure)
	tracer.OnError(err)

	b.mu.Lock()
	b.errString = err.Error()
	b.mu.Unlock()

	return err
}

func (b *Bridge) onConnect(e adapter.Event) {
	b.eventMu.Lock()
	defer b.eventMu.Unlock()

	session, cancel := context.WithCancel(context.Background())

	b.mu.Lock()
	b.cancelSession()
	b.session, b.cancelSession = session, cancel
	b.state = wallet.ConnectedState(e.Address, e.Connection, e.Provider)
	b.errString = ""
	state := b.state
	b.mu.Unlock()

	b.log.WithField("address", e.Address).Debug("wallet connected")
	metrics.RecordEvent(context.Background(), stateChangeEventName, map[string]interface{}{
		"event":     string(adapter.EventConnect),
		"connected": true,
	})

	b.sink.SetComponentValue(state)
}

func (b *Bridge) onDisconnect(adapter.Event) {
	b.eventMu.Lock()
	defer b.eventMu.Unlock()

	b.mu.Lock()
	b.cancelSession()
	b.state = wallet.DefaultState()
	state := b.state
	b.mu.Unlock()

	b.log.Debug("wallet disconnected")
	metrics.RecordEvent(context.Background(), stateChangeEventName, map[string]interface{}{
		"event":     string(adapter.EventDisconnect),
		"connected": false,
	})

	b.sink.SetComponentValue(state)
}

// State returns the latest wallet state snapshot.
func (b *Bridge) State() wallet.State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// Session returns the latest state together with a context that is cancelled
// when that session ends, either by disconnect, by a newer connect or by
// Close. Work started on behalf of the session should run under it.
func (b *Bridge) Session() (wallet.State, context.Context) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state, b.session
}

func (b *Bridge) Status() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}

// Error returns the user-visible error string, or "" when there is none.
func (b *Bridge) Error() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.errString
}

// Close releases the subscriptions and the client. The bridge returns to
// Uninitialized and may be initialized again.
func (b *Bridge) Close() error {
	b.eventMu.Lock()
	defer b.eventMu.Unlock()

	b.mu.Lock()
	unsubscribers := b.unsubscribers
	client := b.client
	b.unsubscribers = nil
	b.client = nil
	b.status = StatusUninitialized
	b.generation++
	b.state = wallet.DefaultState()
	b.cancelSession()
	b.mu.Unlock()

	for _, unsubscribe := range unsubscribers {
		unsubscribe()
	}

	if client == nil {
		return nil
	}
	return client.Close()
}

func doneContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx, cancel
}
