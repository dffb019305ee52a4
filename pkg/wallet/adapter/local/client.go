package local

import (
	"context"
	"crypto/ed25519"
	"sync"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/wallet-bridge/pkg/solana"
	"github.com/code-payments/wallet-bridge/pkg/wallet/adapter"
	localwallet "github.com/code-payments/wallet-bridge/pkg/wallet/local"
)

var ErrNoKeypair = errors.New("no keypair configured")

type client struct {
	*adapter.Emitter

	log          *logrus.Entry
	conf         *conf
	providerConf localwallet.ConfigProvider
	newRPCClient func(endpoint string) solana.Client

	mu        sync.Mutex
	connected bool
	closed    bool
}

// NewFactory returns an adapter.Factory for keypair-backed wallets. The
// keypair is loaded on Connect, so a bad configuration surfaces as a
// connect failure rather than an initialization failure.
func NewFactory(configProvider ConfigProvider, providerConfig localwallet.ConfigProvider) adapter.Factory {
	return func(ctx context.Context) (adapter.Client, error) {
		return newClient(configProvider, providerConfig, func(endpoint string) solana.Client {
			return solana.New(endpoint)
		}), nil
	}
}

func newClient(configProvider ConfigProvider, providerConfig localwallet.ConfigProvider, newRPCClient func(string) solana.Client) *client {
	return &client{
		Emitter:      adapter.NewEmitter(),
		log:          logrus.StandardLogger().WithField("type", "wallet/adapter/local"),
		conf:         configProvider(),
		providerConf: providerConfig,
		newRPCClient: newRPCClient,
	}
}

func (c *client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return adapter.ErrClosed
	}
	c.mu.Unlock()

	key, err := c.loadKey(ctx)
	if err != nil {
		return err
	}

	commitment, err := solana.CommitmentFromString(c.conf.commitment.Get(ctx))
	if err != nil {
		return err
	}

	endpoint := string(solana.EnvironmentFromCluster(c.conf.rpcEndpoint.Get(ctx)))
	rpc := c.newRPCClient(endpoint)
	provider := localwallet.NewProvider(rpc, key, commitment, c.providerConf)
	address := base58.Encode(provider.PublicKey())

	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()

	c.log.WithFields(logrus.Fields{
		"address":  address,
		"endpoint": endpoint,
	}).Info("wallet connected")

	c.Emit(adapter.Event{
		Type:       adapter.EventConnect,
		Address:    address,
		Connection: rpc,
		Provider:   provider,
	})

	return nil
}

func (c *client) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return adapter.ErrClosed
	}
	if !c.connected {
		c.mu.Unlock()
		return adapter.ErrNotConnected
	}
	c.connected = false
	c.mu.Unlock()

	c.log.Info("wallet disconnected")
	c.Emit(adapter.Event{Type: adapter.EventDisconnect})

	return nil
}

func (c *client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.connected = false
	c.Clear()

	return nil
}

func (c *client) loadKey(ctx context.Context) (ed25519.PrivateKey, error) {
	if encoded := c.conf.privateKey.Get(ctx); encoded != "" {
		return localwallet.ParsePrivateKey(encoded)
	}
	if path := c.conf.keypairPath.Get(ctx); path != "" {
		return localwallet.LoadKeypairFile(path)
	}
	return nil, ErrNoKeypair
}
