package interaction

import (
	"context"
	"strings"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/wallet-bridge/pkg/bridge"
	"github.com/code-payments/wallet-bridge/pkg/solana"
	"github.com/code-payments/wallet-bridge/pkg/solana/counter"
	"github.com/code-payments/wallet-bridge/pkg/solana/system"
	"github.com/code-payments/wallet-bridge/pkg/testutil"
	"github.com/code-payments/wallet-bridge/pkg/wallet"
	adaptermemory "github.com/code-payments/wallet-bridge/pkg/wallet/adapter/memory"
	walletmemory "github.com/code-payments/wallet-bridge/pkg/wallet/memory"
)

const rentExemption = 890880

type testEnv struct {
	demonstrator *Demonstrator
	provider     *walletmemory.Provider
	conn         *walletmemory.Connection
	logs         *logtest.Hook
}

func setup(t *testing.T) *testEnv {
	provider, err := walletmemory.NewRandomProvider()
	require.NoError(t, err)

	var blockhash solana.Blockhash
	copy(blockhash[:], "abc")

	conn := walletmemory.NewConnection()
	conn.SetBalance(10 * solana.LamportsPerSol)
	conn.SetRentExemption(rentExemption)
	conn.SetBlockhash(blockhash)

	hook := logtest.NewGlobal()
	t.Cleanup(hook.Reset)

	return &testEnv{
		demonstrator: NewDemonstrator(withManualTestOverrides(&testOverrides{
			minBalance: solana.LamportsPerSol / 100,
		})),
		provider: provider,
		conn:     conn,
		logs:     hook,
	}
}

// simulateChain makes the provider write data to the counter account created
// by each sent transaction.
func (e *testEnv) simulateChain(data []byte) {
	e.provider.OnSend(func(txn *solana.Transaction) error {
		increment, err := counter.DecompileIncrement(txn.Message, 1, counter.ProgramKey)
		if err != nil {
			return err
		}
		e.conn.SetAccount(increment.Account, solana.AccountInfo{
			Data:  data,
			Owner: counter.ProgramKey,
		})
		return nil
	})
}

func (e *testEnv) successLogged() bool {
	for _, entry := range e.logs.AllEntries() {
		if strings.Contains(entry.Message, "count is:") {
			return true
		}
	}
	return false
}

func TestIncrementCounter_HappyPath(t *testing.T) {
	env := setup(t)
	env.simulateChain([]byte{1, 0, 0, 0, 0, 0, 0, 0})

	result, err := env.demonstrator.IncrementCounter(context.Background(), env.provider, env.conn)
	require.NoError(t, err)
	assert.EqualValues(t, 1, result.Count)
	assert.Equal(t, env.provider.PublicKey(), result.Payer)
	assert.NotEmpty(t, result.RunID)

	var found bool
	for _, entry := range env.logs.AllEntries() {
		if entry.Message == "[alloc+increment] count is: 1" {
			found = true
			assert.Equal(t, logrus.InfoLevel, entry.Level)
			assert.Equal(t, base58.Encode(result.Counter), entry.Data["counter"])
		}
	}
	assert.True(t, found)

	assert.Equal(t, []string{
		walletmemory.MethodGetBalance,
		walletmemory.MethodGetMinimumBalanceForRentExemption,
		walletmemory.MethodGetLatestBlockhash,
		walletmemory.MethodGetAccountInfo,
	}, env.conn.Calls())

	sent := env.provider.Sent()
	require.Len(t, sent, 1)
	txn := sent[0]

	assert.NoError(t, txn.VerifySignatures())
	assert.Len(t, txn.Signatures, 2)
	assert.Equal(t, result.Signature, txn.Signatures[0])
	assert.EqualValues(t, env.provider.PublicKey(), txn.Message.Accounts[0])

	var expectedBlockhash solana.Blockhash
	copy(expectedBlockhash[:], "abc")
	assert.Equal(t, expectedBlockhash, txn.Message.RecentBlockhash)

	require.Len(t, txn.Message.Instructions, 2)

	create, err := system.DecompileCreateAccount(txn.Message, 0)
	require.NoError(t, err)
	assert.Equal(t, env.provider.PublicKey(), create.Funder)
	assert.Equal(t, result.Counter, create.Address)
	assert.Equal(t, counter.ProgramKey, create.Owner)
	assert.EqualValues(t, rentExemption, create.Lamports)
	assert.EqualValues(t, counter.AccountSize, create.Size)

	increment, err := counter.DecompileIncrement(txn.Message, 1, counter.ProgramKey)
	require.NoError(t, err)
	assert.Equal(t, result.Counter, increment.Account)
}

func TestIncrementCounter_FreshCounterPerRun(t *testing.T) {
	env := setup(t)
	env.simulateChain([]byte{1, 0, 0, 0, 0, 0, 0, 0})

	first, err := env.demonstrator.IncrementCounter(context.Background(), env.provider, env.conn)
	require.NoError(t, err)
	second, err := env.demonstrator.IncrementCounter(context.Background(), env.provider, env.conn)
	require.NoError(t, err)

	assert.NotEqual(t, first.Counter, second.Counter)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestIncrementCounter_InsufficientBalance(t *testing.T) {
	env := setup(t)
	env.conn.SetBalance(solana.LamportsPerSol/100 - 1)

	_, err := env.demonstrator.IncrementCounter(context.Background(), env.provider, env.conn)
	assert.True(t, errors.Is(err, ErrInsufficientBalance))

	assert.Equal(t, []string{walletmemory.MethodGetBalance}, env.conn.Calls())
	assert.Zero(t, env.conn.CallCount(walletmemory.MethodGetLatestBlockhash))
	assert.Zero(t, env.conn.CallCount(walletmemory.MethodGetAccountInfo))
	assert.Empty(t, env.provider.Sent())
}

func TestIncrementCounter_ExactMinimumBalance(t *testing.T) {
	env := setup(t)
	env.conn.SetBalance(solana.LamportsPerSol / 100)
	env.simulateChain([]byte{1, 0, 0, 0, 0, 0, 0, 0})

	_, err := env.demonstrator.IncrementCounter(context.Background(), env.provider, env.conn)
	assert.NoError(t, err)
}

func TestIncrementCounter_AccountNotFound(t *testing.T) {
	env := setup(t)

	_, err := env.demonstrator.IncrementCounter(context.Background(), env.provider, env.conn)
	assert.Equal(t, ErrCounterAccountNotFound, err)
	assert.False(t, env.successLogged())
	assert.Len(t, env.provider.Sent(), 1)
}

func TestIncrementCounter_UnexpectedCount(t *testing.T) {
	for _, count := range []byte{0, 2} {
		env := setup(t)
		env.simulateChain([]byte{count, 0, 0, 0, 0, 0, 0, 0})

		_, err := env.demonstrator.IncrementCounter(context.Background(), env.provider, env.conn)
		require.Error(t, err)

		verificationErr, ok := err.(*VerificationError)
		require.True(t, ok)
		assert.EqualValues(t, 1, verificationErr.Expected)
		assert.EqualValues(t, count, verificationErr.Actual)
		assert.False(t, env.successLogged())
	}
}

func TestIncrementCounter_InvalidAccountSize(t *testing.T) {
	env := setup(t)
	env.simulateChain([]byte{1, 0, 0, 0})

	_, err := env.demonstrator.IncrementCounter(context.Background(), env.provider, env.conn)
	assert.True(t, errors.Is(err, counter.ErrInvalidAccountSize))
	assert.False(t, env.successLogged())
}

func TestIncrementCounter_StepFailures(t *testing.T) {
	induced := errors.New("induced")

	for _, method := range []string{
		walletmemory.MethodGetBalance,
		walletmemory.MethodGetMinimumBalanceForRentExemption,
		walletmemory.MethodGetLatestBlockhash,
		walletmemory.MethodGetAccountInfo,
	} {
		env := setup(t)
		env.simulateChain([]byte{1, 0, 0, 0, 0, 0, 0, 0})
		env.conn.InduceError(method, induced)

		_, err := env.demonstrator.IncrementCounter(context.Background(), env.provider, env.conn)
		assert.Equal(t, induced, errors.Cause(err), method)
		assert.False(t, env.successLogged())
	}

	env := setup(t)
	env.provider.InduceError(induced)

	_, err := env.demonstrator.IncrementCounter(context.Background(), env.provider, env.conn)
	assert.Equal(t, induced, errors.Cause(err))
	assert.Zero(t, env.conn.CallCount(walletmemory.MethodGetAccountInfo))
}

func TestIncrementCounter_CustomProgram(t *testing.T) {
	env := setup(t)

	program := counter.ProgramKey
	program = append([]byte(nil), program...)
	program[0] ^= 0xff

	env.demonstrator = NewDemonstrator(withManualTestOverrides(&testOverrides{
		programId:  base58.Encode(program),
		minBalance: 1,
	}))

	_, err := env.demonstrator.IncrementCounter(context.Background(), env.provider, env.conn)
	assert.Equal(t, ErrCounterAccountNotFound, err)

	sent := env.provider.Sent()
	require.Len(t, sent, 1)
	_, err = counter.DecompileIncrement(sent[0].Message, 1, program)
	assert.NoError(t, err)

	env.demonstrator = NewDemonstrator(withManualTestOverrides(&testOverrides{
		programId:  "not a key",
		minBalance: 1,
	}))
	_, err = env.demonstrator.IncrementCounter(context.Background(), env.provider, env.conn)
	assert.Error(t, err)
}

type staticSession struct {
	state wallet.State
	ctx   context.Context
}

func (s staticSession) Session() (wallet.State, context.Context) {
	return s.state, s.ctx
}

func TestRun(t *testing.T) {
	defer testutil.DisableLogging()()

	env := setup(t)
	env.simulateChain([]byte{1, 0, 0, 0, 0, 0, 0, 0})

	address := base58.Encode(env.provider.PublicKey())
	session := staticSession{
		state: wallet.ConnectedState(address, env.conn, env.provider),
		ctx:   context.Background(),
	}

	result, err := env.demonstrator.Run(context.Background(), session)
	require.NoError(t, err)
	assert.EqualValues(t, 1, result.Count)

	_, err = env.demonstrator.Run(context.Background(), staticSession{state: wallet.DefaultState(), ctx: context.Background()})
	assert.Equal(t, ErrNotConnected, err)
}

func TestRun_FailureIsLogged(t *testing.T) {
	env := setup(t)
	env.conn.SetBalance(0)

	address := base58.Encode(env.provider.PublicKey())
	session := staticSession{
		state: wallet.ConnectedState(address, env.conn, env.provider),
		ctx:   context.Background(),
	}

	_, err := env.demonstrator.Run(context.Background(), session)
	assert.True(t, errors.Is(err, ErrInsufficientBalance))

	entry := env.logs.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "failure incrementing counter", entry.Message)
	assert.Equal(t, address, entry.Data["wallet"])
}

func TestRun_SessionEnded(t *testing.T) {
	defer testutil.DisableLogging()()

	env := setup(t)
	env.simulateChain([]byte{1, 0, 0, 0, 0, 0, 0, 0})

	ended, cancel := context.WithCancel(context.Background())
	cancel()

	address := base58.Encode(env.provider.PublicKey())
	session := staticSession{
		state: wallet.ConnectedState(address, env.conn, env.provider),
		ctx:   ended,
	}

	_, err := env.demonstrator.Run(context.Background(), session)
	assert.Equal(t, context.Canceled, errors.Cause(err))
	assert.Empty(t, env.provider.Sent())
}

func TestRun_DisconnectWhileSending(t *testing.T) {
	defer testutil.DisableLogging()()

	env := setup(t)

	address := base58.Encode(env.provider.PublicKey())
	client := adaptermemory.NewClient(address, env.conn, env.provider)
	b := bridge.New(adaptermemory.NewFactory(client), bridge.HostSinkFunc(func(wallet.State) {}))
	defer b.Close()

	require.NoError(t, b.Init(context.Background()))
	require.NoError(t, b.Connect(context.Background()))

	// The wallet goes away after the transaction is submitted but before the
	// counter account is read back.
	env.provider.OnSend(func(txn *solana.Transaction) error {
		increment, err := counter.DecompileIncrement(txn.Message, 1, counter.ProgramKey)
		if err != nil {
			return err
		}
		env.conn.SetAccount(increment.Account, solana.AccountInfo{
			Data:  []byte{1, 0, 0, 0, 0, 0, 0, 0},
			Owner: counter.ProgramKey,
		})
		client.EmitDisconnect()
		return nil
	})

	_, err := env.demonstrator.Run(context.Background(), b)
	assert.Equal(t, context.Canceled, errors.Cause(err))
	assert.Len(t, env.provider.Sent(), 1)
	assert.Equal(t, 0, env.conn.CallCount(walletmemory.MethodGetAccountInfo))
	assert.False(t, b.State().Connected)
}

func TestRun_DisconnectBeforeSending(t *testing.T) {
	defer testutil.DisableLogging()()

	env := setup(t)

	address := base58.Encode(env.provider.PublicKey())
	client := adaptermemory.NewClient(address, env.conn, env.provider)
	b := bridge.New(adaptermemory.NewFactory(client), bridge.HostSinkFunc(func(wallet.State) {}))
	defer b.Close()

	require.NoError(t, b.Init(context.Background()))
	require.NoError(t, b.Connect(context.Background()))

	state, session := b.Session()
	require.True(t, state.Connected)

	// Capture the session, then end it before the run starts
	client.EmitDisconnect()

	_, err := env.demonstrator.Run(context.Background(), staticSession{state: state, ctx: session})
	assert.Equal(t, context.Canceled, errors.Cause(err))
	assert.Empty(t, env.provider.Sent())
}
