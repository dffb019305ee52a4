package interaction

import (
	"context"
	"crypto/ed25519"
	"time"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/wallet-bridge/pkg/metrics"
	"github.com/code-payments/wallet-bridge/pkg/solana"
	"github.com/code-payments/wallet-bridge/pkg/solana/counter"
	"github.com/code-payments/wallet-bridge/pkg/solana/system"
	"github.com/code-payments/wallet-bridge/pkg/wallet"
)

const (
	metricsStructName = "interaction.demonstrator"

	incrementSuccessEventName = "CounterIncrementSuccess"
	incrementFailureEventName = "CounterIncrementFailure"
	incrementLatencyName      = "CounterIncrementLatency"

	expectedCount = 1
)

// Result describes a completed allocate and increment run.
type Result struct {
	RunID     string
	Payer     ed25519.PublicKey
	Counter   ed25519.PublicKey
	Signature solana.Signature
	Count     uint8
}

// SessionSource yields the current wallet session and a context bound to its
// lifetime.
type SessionSource interface {
	Session() (wallet.State, context.Context)
}

// Demonstrator allocates a fresh counter account, increments it in the same
// transaction and verifies the result on chain.
type Demonstrator struct {
	log  *logrus.Entry
	conf *conf
}

func NewDemonstrator(configProvider ConfigProvider) *Demonstrator {
	return &Demonstrator{
		log:  logrus.StandardLogger().WithField("type", "interaction/demonstrator"),
		conf: configProvider(),
	}
}

// Run is the failure boundary used by the host server and the CLI. It runs
// IncrementCounter for the current session, cancelling it if the session
// ends, and logs and records any failure. Wallet state is never modified.
func (d *Demonstrator) Run(ctx context.Context, source SessionSource) (*Result, error) {
	state, session := source.Session()
	if !state.Connected || state.Provider == nil || state.Connection == nil {
		d.log.WithField("method", "Run").Info("no wallet connected")
		return nil, ErrNotConnected
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(session, cancel)
	defer stop()

	start := time.Now()
	result, err := d.IncrementCounter(sessionContext{Context: runCtx, session: session}, state.Provider, state.Connection)
	metrics.RecordDuration(ctx, incrementLatencyName, time.Since(start))

	if err != nil {
		d.log.WithFields(logrus.Fields{
			"method": "Run",
			"wallet": state.AddressString(),
		}).WithError(err).Warn("failure incrementing counter")

		metrics.RecordEvent(ctx, incrementFailureEventName, map[string]interface{}{
			"wallet": state.AddressString(),
			"error":  err.Error(),
		})
		return nil, err
	}

	metrics.RecordEvent(ctx, incrementSuccessEventName, map[string]interface{}{
		"wallet":    state.AddressString(),
		"run_id":    result.RunID,
		"signature": result.Signature.ToBase58(),
	})
	return result, nil
}

// sessionContext reports the session's error as soon as the session ends.
// Done still closes through the AfterFunc cancellation, which runs on its own
// goroutine and may lag behind the session.
type sessionContext struct {
	context.Context
	session context.Context
}

func (c sessionContext) Err() error {
	if err := c.session.Err(); err != nil {
		return err
	}
	return c.Context.Err()
}

// IncrementCounter creates a new counter account owned by the configured
// program and increments it in a single transaction paid for by provider.
// The steps run strictly in sequence and ctx is checked between them.
func (d *Demonstrator) IncrementCounter(ctx context.Context, provider wallet.Provider, conn wallet.Connection) (*Result, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "IncrementCounter")
	defer tracer.End()

	result, err := d.incrementCounter(ctx, provider, conn)
	if err != nil {
		tracer.OnError(err)
		return nil, err
	}

	tracer.AddAttributes(map[string]interface{}{
		"run_id":    result.RunID,
		"signature": result.Signature.ToBase58(),
	})
	return result, nil
}

func (d *Demonstrator) incrementCounter(ctx context.Context, provider wallet.Provider, conn wallet.Connection) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	payer := provider.PublicKey()

	log := d.log.WithFields(logrus.Fields{
		"method": "IncrementCounter",
		"run_id": runID,
		"payer":  base58.Encode(payer),
	})

	programID, err := counter.ParseProgramKey(d.conf.programId.Get(ctx))
	if err != nil {
		return nil, errors.Wrap(err, "invalid counter program id")
	}

	counterPub, counterKey, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate counter keypair")
	}
	log = log.WithField("counter", base58.Encode(counterPub))

	balance, err := conn.GetBalance(payer)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get payer balance")
	}
	minBalance := d.conf.minBalance.Get(ctx)
	if balance < minBalance {
		return nil, errors.Wrapf(ErrInsufficientBalance, "balance %d is below %d lamports", balance, minBalance)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rent, err := conn.GetMinimumBalanceForRentExemption(counter.AccountSize)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get rent exemption minimum")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	txn := solana.NewTransaction(
		payer,
		system.CreateAccount(payer, counterPub, programID, rent, counter.AccountSize),
		counter.NewIncrementInstruction(programID, counterPub),
	)

	blockhash, err := conn.GetLatestBlockhash(solana.CommitmentConfirmed)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get latest blockhash")
	}
	txn.SetBlockhash(blockhash)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sig, err := provider.SignAndSendTransaction(ctx, &txn, counterKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign and send transaction")
	}
	log = log.WithField("signature", sig.ToBase58())
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := conn.GetAccountInfo(counterPub, solana.CommitmentConfirmed)
	if err == solana.ErrNoAccountInfo {
		return nil, ErrCounterAccountNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "failed to get counter account")
	}

	var account counter.Account
	if err := account.Unmarshal(info.Data); err != nil {
		return nil, err
	}
	if account.Count != expectedCount {
		return nil, &VerificationError{Expected: expectedCount, Actual: account.Count}
	}

	log.Infof("[alloc+increment] count is: %d", account.Count)

	return &Result{
		RunID:     runID,
		Payer:     payer,
		Counter:   counterPub,
		Signature: sig,
		Count:     account.Count,
	}, nil
}
