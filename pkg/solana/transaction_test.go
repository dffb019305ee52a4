package solana

import (
	"crypto/ed25519"
	"encoding/base64"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Generated by the Solana SDK for the same keypair, program and accounts.
//
// Reference: https://github.com/solana-labs/solana/blob/14339dec0a960e8161d1165b6a8e5cfb73e78f23/sdk/src/transaction.rs#L523
const sdkGeneratedTransaction = "ATMfBMZ8phHEheLph8K9TJhRKhnE4qNZvWiXdUdJRmlTCRsQjWmW2CkQJeRHBCcsqFm2gynjL40M9mTe0Dxp4QIBAAEDfEya6wnC7f3Cv53qnOEywwIJ928rIdqAlfXYI1adXroBAQEEBQYHCAkJCQkJCQkJCQkJCQkJCQkIBwYFBAEBAQICAgQFBgcICQEBAQEBAQEBAQEBAQEBCQgHBgUEAgICAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAABAgIAAQMBAgM="

func TestTransaction_CrossImpl(t *testing.T) {
	keypair := ed25519.NewKeyFromSeed([]byte{48, 83, 2, 1, 1, 48, 5, 6, 3, 43, 101, 112, 4, 34, 4, 32, 255, 101, 36, 24, 124, 23,
		167, 21, 132, 204, 155, 5, 185, 58, 121, 75})
	programID := ed25519.PublicKey{2, 2, 2, 4, 5, 6, 7, 8, 9, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 9, 8, 7, 6, 5, 4,
		2, 2, 2}
	to := ed25519.PublicKey{1, 1, 1, 4, 5, 6, 7, 8, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 8, 7, 6, 5, 4, 1, 1, 1}

	tx := NewTransaction(
		public(keypair),
		NewInstruction(
			programID,
			[]byte{1, 2, 3},
			NewAccountMeta(public(keypair), true),
			NewAccountMeta(to, false),
		),
	)
	require.NoError(t, tx.Sign(keypair))
	assert.Equal(t, sdkGeneratedTransaction, base64.StdEncoding.EncodeToString(tx.Marshal()))

	var decoded Transaction
	require.NoError(t, decoded.Unmarshal(tx.Marshal()))
	assert.Equal(t, tx.Marshal(), decoded.Marshal())
	assert.NoError(t, decoded.VerifySignatures())
}

func TestTransaction_AccountOrdering(t *testing.T) {
	keys := generateKeys(t, 6)
	payer, program := keys[0], keys[1]
	keys = keys[2:]
	data := []byte{1, 2, 3}

	tx := NewTransaction(
		public(payer),
		NewInstruction(
			public(program),
			data,
			NewReadonlyAccountMeta(public(keys[0]), true),
			NewReadonlyAccountMeta(public(keys[1]), false),
			NewAccountMeta(public(keys[2]), false),
			NewAccountMeta(public(keys[3]), true),
		),
	)

	// Out of order on purpose; signature slots follow message order.
	require.NoError(t, tx.Sign(keys[0], keys[3], payer))

	require.Len(t, tx.Signatures, 3)
	require.Len(t, tx.Message.Accounts, 6)
	assert.EqualValues(t, 3, tx.Message.Header.NumSignatures)
	assert.EqualValues(t, 1, tx.Message.Header.NumReadonlySigned)
	assert.EqualValues(t, 2, tx.Message.Header.NumReadOnly)

	assert.Equal(t, public(payer), tx.Message.Accounts[0])
	assert.Equal(t, public(keys[3]), tx.Message.Accounts[1])
	assert.Equal(t, public(keys[0]), tx.Message.Accounts[2])
	assert.Equal(t, public(keys[2]), tx.Message.Accounts[3])
	assert.Equal(t, public(keys[1]), tx.Message.Accounts[4])
	assert.Equal(t, public(program), tx.Message.Accounts[5])

	assert.Equal(t, byte(5), tx.Message.Instructions[0].ProgramIndex)
	assert.Equal(t, data, tx.Message.Instructions[0].Data)
	assert.Equal(t, []byte{2, 4, 3, 1}, tx.Message.Instructions[0].Accounts)

	assert.Equal(t, []ed25519.PublicKey{public(payer), public(keys[3]), public(keys[0])}, tx.RequiredSigners())
	assert.NoError(t, tx.VerifySignatures())
}

func TestTransaction_DuplicateKeysArePromoted(t *testing.T) {
	keys := generateKeys(t, 3)
	payer, program, other := keys[0], keys[1], keys[2]

	tx := NewTransaction(
		public(payer),
		NewInstruction(
			public(program),
			nil,
			NewReadonlyAccountMeta(public(other), false),
			NewReadonlyAccountMeta(public(payer), false),
		),
		NewInstruction(
			public(program),
			nil,
			NewAccountMeta(public(other), false),
		),
	)

	require.Len(t, tx.Message.Accounts, 3)
	assert.EqualValues(t, 1, tx.Message.Header.NumSignatures)
	assert.EqualValues(t, 1, tx.Message.Header.NumReadOnly)
	assert.Equal(t, public(payer), tx.Message.Accounts[0])
	assert.Equal(t, public(other), tx.Message.Accounts[1])
	assert.Equal(t, public(program), tx.Message.Accounts[2])

	assert.Equal(t, []byte{1, 0}, tx.Message.Instructions[0].Accounts)
	assert.Equal(t, []byte{1}, tx.Message.Instructions[1].Accounts)
}

func TestTransaction_EmptyAccount(t *testing.T) {
	keys := generateKeys(t, 2)

	tx := NewTransaction(
		public(keys[0]),
		NewInstruction(
			public(keys[1]),
			[]byte{1, 2, 3},
			NewAccountMeta(nil, false),
		),
	)
	require.NoError(t, tx.Sign(keys[0]))

	var decoded Transaction
	require.NoError(t, decoded.Unmarshal(tx.Marshal()))
	assert.Equal(t, make([]byte, ed25519.PublicKeySize), []byte(decoded.Message.Accounts[1]))
}

func TestTransaction_Signing(t *testing.T) {
	keys := generateKeys(t, 4)
	payer, program, signer, stranger := keys[0], keys[1], keys[2], keys[3]

	tx := NewTransaction(
		public(payer),
		NewInstruction(
			public(program),
			nil,
			NewAccountMeta(public(signer), true),
		),
	)
	tx.SetBlockhash(Blockhash{1, 2, 3})

	assert.Error(t, tx.Sign(stranger))

	require.NoError(t, tx.Sign(payer))
	err := tx.VerifySignatures()
	assert.True(t, errors.Is(err, ErrMissingSignature))

	require.NoError(t, tx.Sign(signer))
	assert.NoError(t, tx.VerifySignatures())
	assert.Equal(t, tx.Signatures[0][:], tx.Signature())

	// Changing the message invalidates existing signatures
	tx.SetBlockhash(Blockhash{4, 5, 6})
	assert.Error(t, tx.VerifySignatures())
}

func TestTransaction_InvalidIndexes(t *testing.T) {
	keys := generateKeys(t, 2)
	newTx := func() Transaction {
		return NewTransaction(
			public(keys[0]),
			NewInstruction(
				public(keys[1]),
				nil,
				NewAccountMeta(public(keys[0]), true),
			),
		)
	}

	tx := newTx()
	tx.Message.Instructions[0].ProgramIndex = 2
	var decoded Transaction
	assert.Error(t, decoded.Unmarshal(tx.Marshal()))

	tx = newTx()
	tx.Message.Instructions[0].Accounts = []byte{2}
	assert.Error(t, decoded.Unmarshal(tx.Marshal()))

	assert.Error(t, decoded.Unmarshal([]byte{0}))
}

func generateKeys(t *testing.T, amount int) []ed25519.PrivateKey {
	keys := make([]ed25519.PrivateKey, amount)
	for i := 0; i < amount; i++ {
		_, priv, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)
		keys[i] = priv
	}
	return keys
}

func public(priv ed25519.PrivateKey) ed25519.PublicKey {
	return priv.Public().(ed25519.PublicKey)
}
