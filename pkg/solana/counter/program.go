package counter

import (
	"bytes"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/wallet-bridge/pkg/solana"
)

// ProgramKey is the address of the deployed counter program.
//
// Current key: Cb5aXEgXptKqHHWLifvXu5BeAuVLjojQ5ypq6CfQj1hy
var ProgramKey = mustDecodeKey("Cb5aXEgXptKqHHWLifvXu5BeAuVLjojQ5ypq6CfQj1hy")

const commandIncrement byte = 0

// NewIncrementInstruction increments the counter stored in the account. The
// account is written but does not sign.
func NewIncrementInstruction(program, account ed25519.PublicKey) solana.Instruction {
	// # Account references
	//   0. [WRITE] Counter account
	return solana.NewInstruction(
		program,
		[]byte{commandIncrement},
		solana.NewAccountMeta(account, false),
	)
}

type DecompiledIncrement struct {
	Account ed25519.PublicKey
}

func DecompileIncrement(m solana.Message, index int, program ed25519.PublicKey) (*DecompiledIncrement, error) {
	if index >= len(m.Instructions) {
		return nil, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]

	if !bytes.Equal(m.Accounts[i.ProgramIndex], program) {
		return nil, solana.ErrIncorrectProgram
	}
	if !bytes.Equal(i.Data, []byte{commandIncrement}) {
		return nil, solana.ErrIncorrectInstruction
	}
	if len(i.Accounts) != 1 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}

	return &DecompiledIncrement{
		Account: m.Accounts[i.Accounts[0]],
	}, nil
}

// ParseProgramKey decodes a base58 program address.
func ParseProgramKey(s string) (ed25519.PublicKey, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return nil, errors.Wrap(err, "invalid base58 program key")
	}
	if len(b) != ed25519.PublicKeySize {
		return nil, errors.Errorf("invalid program key length: %d", len(b))
	}
	return b, nil
}

func mustDecodeKey(s string) ed25519.PublicKey {
	key, err := ParseProgramKey(s)
	if err != nil {
		panic(err)
	}
	return key
}
