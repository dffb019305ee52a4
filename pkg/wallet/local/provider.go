package local

import (
	"context"
	"crypto/ed25519"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/wallet-bridge/pkg/metrics"
	"github.com/code-payments/wallet-bridge/pkg/retry"
	"github.com/code-payments/wallet-bridge/pkg/retry/backoff"
	"github.com/code-payments/wallet-bridge/pkg/solana"
)

var (
	ErrNotConfirmed = errors.New("transaction not confirmed")
)

// Provider is a wallet.Provider backed by a keypair held in process. It
// submits through the RPC client and waits for the configured commitment.
type Provider struct {
	log        *logrus.Entry
	conf       *conf
	key        ed25519.PrivateKey
	client     solana.Client
	commitment solana.Commitment
}

func NewProvider(client solana.Client, key ed25519.PrivateKey, commitment solana.Commitment, configProvider ConfigProvider) *Provider {
	return &Provider{
		log:        logrus.StandardLogger().WithField("type", "wallet/local/provider"),
		conf:       configProvider(),
		key:        key,
		client:     client,
		commitment: commitment,
	}
}

func (p *Provider) PublicKey() ed25519.PublicKey {
	return p.key.Public().(ed25519.PublicKey)
}

func (p *Provider) SignAndSendTransaction(ctx context.Context, txn *solana.Transaction, signers ...ed25519.PrivateKey) (solana.Signature, error) {
	tracer := metrics.TraceMethodCall(ctx, "wallet/local/provider", "SignAndSendTransaction")
	defer tracer.End()

	if err := ctx.Err(); err != nil {
		return solana.Signature{}, err
	}

	if err := txn.Sign(append([]ed25519.PrivateKey{p.key}, signers...)...); err != nil {
		tracer.OnError(err)
		return solana.Signature{}, errors.Wrap(err, "failed to sign transaction")
	}
	if err := txn.VerifySignatures(); err != nil {
		tracer.OnError(err)
		return solana.Signature{}, err
	}

	tracer.AddAttribute("signature", base58.Encode(txn.Signature()))

	log := p.log.WithFields(logrus.Fields{
		"method":    "SignAndSendTransaction",
		"signature": base58.Encode(txn.Signature()),
		"payer":     base58.Encode(p.PublicKey()),
	})

	sig, err := p.client.SubmitTransaction(*txn, p.commitment)
	if err != nil {
		log.WithError(err).Info("failed to submit transaction")
		tracer.OnError(err)
		return sig, errors.Wrap(err, "failed to submit transaction")
	}

	start := time.Now()
	if err := p.waitForConfirmation(ctx, sig); err != nil {
		log.WithError(err).Info("transaction did not reach commitment")
		tracer.OnError(err)
		return sig, err
	}

	metrics.RecordDuration(ctx, "WalletProviderConfirmationLatency", time.Since(start))
	log.Debug("transaction confirmed")

	return sig, nil
}

func (p *Provider) waitForConfirmation(ctx context.Context, sig solana.Signature) error {
	interval := p.conf.confirmationPollInterval.Get(ctx)

	var txErr *solana.TransactionError
	_, err := retry.Retry(
		func() error {
			status, err := p.client.GetSignatureStatus(sig)
			if err != nil {
				return err
			}
			if status.ErrorResult != nil {
				txErr = status.ErrorResult
				return nil
			}
			if !status.Reached(p.commitment) {
				return ErrNotConfirmed
			}
			return nil
		},
		retry.RetriableErrors(ErrNotConfirmed, solana.ErrSignatureNotFound),
		retry.Limit(uint(p.conf.maxConfirmationPolls.Get(ctx))),
		retry.BackoffWithContext(ctx, backoff.Constant(interval), interval),
	)

	switch {
	case err == nil && txErr != nil:
		return errors.Wrapf(txErr, "transaction %s failed", sig.ToBase58())
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	}
	return errors.Wrapf(err, "failed waiting for %s", sig.ToBase58())
}

// RequestAirdrop funds the provider's account on clusters with a faucet and
// waits for the configured commitment.
func (p *Provider) RequestAirdrop(ctx context.Context, lamports uint64) (solana.Signature, error) {
	log := p.log.WithFields(logrus.Fields{
		"method":   "RequestAirdrop",
		"account":  base58.Encode(p.PublicKey()),
		"lamports": lamports,
	})

	sig, err := p.client.RequestAirdrop(p.PublicKey(), lamports, p.commitment)
	if err != nil {
		log.WithError(err).Info("failed to request airdrop")
		return sig, errors.Wrap(err, "failed to request airdrop")
	}

	if err := p.waitForConfirmation(ctx, sig); err != nil {
		log.WithError(err).Info("airdrop did not reach commitment")
		return sig, err
	}

	log.WithField("signature", sig.ToBase58()).Debug("airdrop confirmed")
	return sig, nil
}
