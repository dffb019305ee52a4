package memory

import (
	"context"
	"crypto/ed25519"
	"sync"

	"github.com/pkg/errors"

	"github.com/code-payments/wallet-bridge/pkg/solana"
)

// SendHook observes a signed transaction before the provider reports success.
// It can be used to simulate the on-chain effects of the transaction.
type SendHook func(txn *solana.Transaction) error

// Provider is an in memory wallet.Provider used for testing. It signs with a
// local key and verifies, but never submits, transactions.
type Provider struct {
	key ed25519.PrivateKey

	mu   sync.Mutex
	sent []solana.Transaction
	hook SendHook
	err  error
}

func NewProvider(key ed25519.PrivateKey) *Provider {
	return &Provider{key: key}
}

func NewRandomProvider() (*Provider, error) {
	_, key, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, err
	}
	return NewProvider(key), nil
}

func (p *Provider) PublicKey() ed25519.PublicKey {
	return p.key.Public().(ed25519.PublicKey)
}

func (p *Provider) OnSend(hook SendHook) {
	p.mu.Lock()
	p.hook = hook
	p.mu.Unlock()
}

// InduceError makes subsequent sends fail with err. A nil err clears it.
func (p *Provider) InduceError(err error) {
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
}

// Sent returns copies of the transactions sent so far.
func (p *Provider) Sent() []solana.Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]solana.Transaction(nil), p.sent...)
}

func (p *Provider) SignAndSendTransaction(ctx context.Context, txn *solana.Transaction, signers ...ed25519.PrivateKey) (solana.Signature, error) {
	if err := ctx.Err(); err != nil {
		return solana.Signature{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return solana.Signature{}, p.err
	}

	if err := txn.Sign(append([]ed25519.PrivateKey{p.key}, signers...)...); err != nil {
		return solana.Signature{}, errors.Wrap(err, "failed to sign transaction")
	}
	if err := txn.VerifySignatures(); err != nil {
		return solana.Signature{}, err
	}

	p.sent = append(p.sent, *txn)

	if p.hook != nil {
		if err := p.hook(txn); err != nil {
			return solana.Signature{}, err
		}
	}

	return txn.Signatures[0], nil
}
