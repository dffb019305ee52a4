package host

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/wallet-bridge/pkg/wallet"
	walletmemory "github.com/code-payments/wallet-bridge/pkg/wallet/memory"
)

func TestChannel_Latest(t *testing.T) {
	c := NewChannel()

	value, version := c.Latest()
	assert.JSONEq(t, `{"address":null,"connected":false,"connection":null,"provider":null}`, string(value))
	assert.EqualValues(t, 0, version)

	provider, err := walletmemory.NewRandomProvider()
	require.NoError(t, err)
	c.SetComponentValue(wallet.ConnectedState("addr", walletmemory.NewConnection(), provider))

	value, version = c.Latest()
	assert.EqualValues(t, 1, version)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(value, &decoded))
	assert.Equal(t, "addr", decoded["address"])
	assert.Equal(t, true, decoded["connected"])

	c.SetComponentValue(wallet.DefaultState())
	_, version = c.Latest()
	assert.EqualValues(t, 2, version)
}

func TestChannel_Subscribe(t *testing.T) {
	c := NewChannel()

	values, cancel := c.Subscribe()
	assert.Equal(t, 1, c.subscriberCount())

	initial := <-values
	assert.Contains(t, string(initial), `"connected":false`)

	c.SetComponentValue(wallet.ConnectedState("addr", nil, nil))
	select {
	case value := <-values:
		assert.Contains(t, string(value), `"connected":true`)
	case <-time.After(time.Second):
		t.Fatal("expected value")
	}

	cancel()
	cancel()
	assert.Equal(t, 0, c.subscriberCount())

	_, ok := <-values
	assert.False(t, ok)
}

func TestChannel_SlowSubscriberDoesNotBlock(t *testing.T) {
	c := NewChannel()

	_, cancel := c.Subscribe()
	defer cancel()

	for i := 0; i < 4*subscriberBufferSize; i++ {
		c.SetComponentValue(wallet.DefaultState())
	}

	_, version := c.Latest()
	assert.EqualValues(t, 4*subscriberBufferSize, version)
}

func TestChannel_SlowSubscriberGetsLatest(t *testing.T) {
	c := NewChannel()

	values, cancel := c.Subscribe()
	defer cancel()

	const published = 3 * subscriberBufferSize
	for i := 0; i < published; i++ {
		c.SetComponentValue(wallet.ConnectedState(fmt.Sprintf("addr-%d", i), nil, nil))
	}

	var received [][]byte
	for len(received) < subscriberBufferSize {
		select {
		case value := <-values:
			received = append(received, value)
		case <-time.After(time.Second):
			t.Fatalf("expected %d buffered values, got %d", subscriberBufferSize, len(received))
		}
	}

	// Only the newest values are kept, in publish order
	for i, value := range received {
		expected := fmt.Sprintf(`"address":"addr-%d"`, published-subscriberBufferSize+i)
		assert.Contains(t, string(value), expected)
	}

	latest, _ := c.Latest()
	assert.Equal(t, latest, received[len(received)-1])
}

func TestChannel_Ready(t *testing.T) {
	c := NewChannel()
	assert.False(t, c.IsReady())

	c.SetReady()
	assert.True(t, c.IsReady())
}
