package memory

import (
	"context"
	"crypto/ed25519"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/wallet-bridge/pkg/solana"
)

func TestConnection(t *testing.T) {
	conn := NewConnection()
	conn.SetBalance(100)
	conn.SetRentExemption(10)
	conn.SetBlockhash(solana.Blockhash{1})

	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	balance, err := conn.GetBalance(pub)
	require.NoError(t, err)
	assert.EqualValues(t, 100, balance)

	rent, err := conn.GetMinimumBalanceForRentExemption(8)
	require.NoError(t, err)
	assert.EqualValues(t, 10, rent)

	bh, err := conn.GetLatestBlockhash(solana.CommitmentConfirmed)
	require.NoError(t, err)
	assert.Equal(t, solana.Blockhash{1}, bh)

	_, err = conn.GetAccountInfo(pub, solana.CommitmentConfirmed)
	assert.Equal(t, solana.ErrNoAccountInfo, err)

	conn.SetAccount(pub, solana.AccountInfo{Data: []byte{1}})
	info, err := conn.GetAccountInfo(pub, solana.CommitmentConfirmed)
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, info.Data)

	induced := errors.New("induced")
	conn.InduceError(MethodGetBalance, induced)
	_, err = conn.GetBalance(pub)
	assert.Equal(t, induced, err)

	assert.Equal(t, 2, conn.CallCount(MethodGetBalance))
	assert.Equal(t, []string{
		MethodGetBalance,
		MethodGetMinimumBalanceForRentExemption,
		MethodGetLatestBlockhash,
		MethodGetAccountInfo,
		MethodGetAccountInfo,
		MethodGetBalance,
	}, conn.Calls())
}

func TestProvider(t *testing.T) {
	provider, err := NewRandomProvider()
	require.NoError(t, err)

	_, extra, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	extraPub := extra.Public().(ed25519.PublicKey)
	program, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	txn := solana.NewTransaction(
		provider.PublicKey(),
		solana.NewInstruction(program, nil, solana.NewAccountMeta(extraPub, true)),
	)

	var hooked bool
	provider.OnSend(func(txn *solana.Transaction) error {
		hooked = true
		return nil
	})

	// Missing the extra signer fails verification.
	_, err = provider.SignAndSendTransaction(context.Background(), &txn)
	assert.True(t, errors.Is(err, solana.ErrMissingSignature))

	sig, err := provider.SignAndSendTransaction(context.Background(), &txn, extra)
	require.NoError(t, err)
	assert.Equal(t, txn.Signatures[0], sig)
	assert.True(t, hooked)
	assert.Len(t, provider.Sent(), 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = provider.SignAndSendTransaction(ctx, &txn, extra)
	assert.Equal(t, context.Canceled, err)

	induced := errors.New("user rejected")
	provider.InduceError(induced)
	_, err = provider.SignAndSendTransaction(context.Background(), &txn, extra)
	assert.Equal(t, induced, err)
}
