package memory

import (
	"crypto/ed25519"
	"sync"

	"github.com/mr-tron/base58"

	"github.com/code-payments/wallet-bridge/pkg/solana"
)

const (
	MethodGetBalance                        = "getBalance"
	MethodGetMinimumBalanceForRentExemption = "getMinimumBalanceForRentExemption"
	MethodGetLatestBlockhash                = "getLatestBlockhash"
	MethodGetAccountInfo                    = "getAccountInfo"
)

// Connection is an in memory wallet.Connection used for testing. Every call
// is recorded by method name.
type Connection struct {
	mu sync.Mutex

	balance       uint64
	rentExemption uint64
	blockhash     solana.Blockhash
	accounts      map[string]solana.AccountInfo

	induced map[string]error
	calls   []string
}

func NewConnection() *Connection {
	return &Connection{
		accounts: make(map[string]solana.AccountInfo),
		induced:  make(map[string]error),
	}
}

func (c *Connection) SetBalance(lamports uint64) {
	c.mu.Lock()
	c.balance = lamports
	c.mu.Unlock()
}

func (c *Connection) SetRentExemption(lamports uint64) {
	c.mu.Lock()
	c.rentExemption = lamports
	c.mu.Unlock()
}

func (c *Connection) SetBlockhash(bh solana.Blockhash) {
	c.mu.Lock()
	c.blockhash = bh
	c.mu.Unlock()
}

func (c *Connection) SetAccount(account ed25519.PublicKey, info solana.AccountInfo) {
	c.mu.Lock()
	c.accounts[base58.Encode(account)] = info
	c.mu.Unlock()
}

// InduceError makes every subsequent call to method fail with err.
func (c *Connection) InduceError(method string, err error) {
	c.mu.Lock()
	c.induced[method] = err
	c.mu.Unlock()
}

// Calls returns the method names called so far, in order.
func (c *Connection) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]string(nil), c.calls...)
}

// CallCount returns how many times method was called.
func (c *Connection) CallCount(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var n int
	for _, m := range c.calls {
		if m == method {
			n++
		}
	}
	return n
}

func (c *Connection) Endpoint() string {
	return "memory://connection"
}

func (c *Connection) record(method string) error {
	c.calls = append(c.calls, method)
	return c.induced[method]
}

func (c *Connection) GetBalance(_ ed25519.PublicKey) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.record(MethodGetBalance); err != nil {
		return 0, err
	}
	return c.balance, nil
}

func (c *Connection) GetMinimumBalanceForRentExemption(_ uint64) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.record(MethodGetMinimumBalanceForRentExemption); err != nil {
		return 0, err
	}
	return c.rentExemption, nil
}

func (c *Connection) GetLatestBlockhash(_ solana.Commitment) (solana.Blockhash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.record(MethodGetLatestBlockhash); err != nil {
		return solana.Blockhash{}, err
	}
	return c.blockhash, nil
}

func (c *Connection) GetAccountInfo(account ed25519.PublicKey, _ solana.Commitment) (solana.AccountInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.record(MethodGetAccountInfo); err != nil {
		return solana.AccountInfo{}, err
	}

	info, ok := c.accounts[base58.Encode(account)]
	if !ok {
		return solana.AccountInfo{}, solana.ErrNoAccountInfo
	}
	return info, nil
}
