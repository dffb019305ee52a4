package wallet_test

import (
	"encoding/json"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/wallet-bridge/pkg/wallet"
	"github.com/code-payments/wallet-bridge/pkg/wallet/memory"
)

func TestDefaultState_JSON(t *testing.T) {
	state := wallet.DefaultState()
	assert.Nil(t, state.Address)
	assert.False(t, state.Connected)
	assert.Nil(t, state.Connection)
	assert.Nil(t, state.Provider)
	assert.Empty(t, state.AddressString())

	b, err := json.Marshal(state)
	require.NoError(t, err)
	assert.JSONEq(t, `{"address":null,"connected":false,"connection":null,"provider":null}`, string(b))
}

func TestConnectedState_JSON(t *testing.T) {
	provider, err := memory.NewRandomProvider()
	require.NoError(t, err)
	address := base58.Encode(provider.PublicKey())

	state := wallet.ConnectedState(address, memory.NewConnection(), provider)
	assert.True(t, state.Connected)
	assert.Equal(t, address, state.AddressString())

	b, err := json.Marshal(state)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"address": "`+address+`",
		"connected": true,
		"connection": {"endpoint": "memory://connection"},
		"provider": {"publicKey": "`+address+`"}
	}`, string(b))
}
