package cmd

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/wallet-bridge/pkg/app"
	"github.com/code-payments/wallet-bridge/pkg/solana"
	"github.com/code-payments/wallet-bridge/pkg/testutil"
	adaptermemory "github.com/code-payments/wallet-bridge/pkg/wallet/adapter/memory"
	walletmemory "github.com/code-payments/wallet-bridge/pkg/wallet/memory"
)

func TestParseSol(t *testing.T) {
	for input, expected := range map[string]uint64{
		"1":     solana.LamportsPerSol,
		"0.3":   300_000_000,
		"2.5":   2_500_000_000,
		"1e-09": 1,
	} {
		actual, err := parseSol(input)
		require.NoError(t, err, input)
		assert.Equal(t, expected, actual, input)
	}

	for _, input := range []string{"", "abc", "0", "-1"} {
		_, err := parseSol(input)
		assert.Error(t, err, input)
	}
}

func TestFormatSol(t *testing.T) {
	assert.Equal(t, "0.000000000", formatSol(0))
	assert.Equal(t, "1.500000000", formatSol(1_500_000_000))
	assert.Equal(t, "0.000000001", formatSol(1))
}

func TestBridgeApp(t *testing.T) {
	defer testutil.DisableLogging()()

	provider, err := walletmemory.NewRandomProvider()
	require.NoError(t, err)
	address := base58.Encode(provider.PublicKey())
	client := adaptermemory.NewClient(address, walletmemory.NewConnection(), provider)

	a := newBridgeApp(adaptermemory.NewFactory(client))
	require.NoError(t, a.Init(app.Config{"auto_connect": true}, nil))

	server := httptest.NewServer(a.HTTPHandler())
	defer server.Close()

	resp, err := http.Get(server.URL + "/v1/state")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Value struct {
			Address   string `json:"address"`
			Connected bool   `json:"connected"`
		} `json:"value"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Value.Connected)
	assert.Equal(t, address, body.Value.Address)

	a.Stop()
	a.Stop()

	select {
	case <-a.ShutdownChan():
	default:
		t.Fatal("expected shutdown channel to be closed")
	}
	assert.True(t, client.IsClosed())
}

func TestBridgeApp_InvalidConfig(t *testing.T) {
	a := newBridgeApp(nil)
	assert.Error(t, a.Init(app.Config{"auto_connect": "sometimes"}, nil))
}

type closerFunc func() error

func (f closerFunc) Close() error {
	return f()
}

func TestCloseBridge(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	log := logger.WithField("type", "cmd/test")

	var closed int
	closeBridge(log, closerFunc(func() error {
		closed++
		return nil
	}))
	assert.Equal(t, 1, closed)
	assert.Empty(t, hook.AllEntries())

	closeBridge(log, closerFunc(func() error {
		closed++
		return errors.New("adapter unavailable")
	}))
	assert.Equal(t, 2, closed)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "failed to close wallet bridge", entry.Message)
	assert.EqualError(t, entry.Data[logrus.ErrorKey].(error), "adapter unavailable")
}
