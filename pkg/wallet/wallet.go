package wallet

import (
	"context"
	"crypto/ed25519"

	"github.com/code-payments/wallet-bridge/pkg/solana"
)

// Provider is the connected wallet's signing capability. Signing schemes stay
// inside the wallet; callers only hand over unsigned transactions.
type Provider interface {
	PublicKey() ed25519.PublicKey

	// SignAndSendTransaction has the wallet sign txn as fee payer, adds the
	// signatures of any extra signers, submits it and waits for confirmation.
	SignAndSendTransaction(ctx context.Context, txn *solana.Transaction, signers ...ed25519.PrivateKey) (solana.Signature, error)
}

// Connection is the subset of the RPC client the wallet session exposes.
type Connection interface {
	GetBalance(ed25519.PublicKey) (uint64, error)
	GetMinimumBalanceForRentExemption(size uint64) (uint64, error)
	GetLatestBlockhash(solana.Commitment) (solana.Blockhash, error)
	GetAccountInfo(ed25519.PublicKey, solana.Commitment) (solana.AccountInfo, error)
}

// Endpointer is implemented by connections that know their RPC URL.
type Endpointer interface {
	Endpoint() string
}
