package local

import (
	"crypto/ed25519"
	"encoding/json"
	"os"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

// LoadKeypairFile reads a keypair in the Solana CLI format: a JSON array of
// the 64 private key bytes.
func LoadKeypairFile(path string) (ed25519.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read keypair file %s", path)
	}

	var values []int
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, errors.Wrapf(err, "invalid keypair file %s", path)
	}
	if len(values) != ed25519.PrivateKeySize {
		return nil, errors.Errorf("invalid keypair length in %s: %d", path, len(values))
	}

	key := make([]byte, ed25519.PrivateKeySize)
	for i, v := range values {
		if v < 0 || v > 255 {
			return nil, errors.Errorf("invalid keypair byte at %d in %s", i, path)
		}
		key[i] = byte(v)
	}

	return checkKeypair(key)
}

// ParsePrivateKey decodes a base58 private key. Both the 64 byte keypair form
// and the 32 byte seed form are accepted.
func ParsePrivateKey(s string) (ed25519.PrivateKey, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return nil, errors.Wrap(err, "invalid base58 private key")
	}

	switch len(raw) {
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(raw), nil
	case ed25519.PrivateKeySize:
		return checkKeypair(raw)
	}
	return nil, errors.Errorf("invalid private key length: %d", len(raw))
}

// checkKeypair rejects keypairs whose public half does not match the seed.
func checkKeypair(raw []byte) (ed25519.PrivateKey, error) {
	key := ed25519.NewKeyFromSeed(raw[:ed25519.SeedSize])
	if !key.Public().(ed25519.PublicKey).Equal(ed25519.PublicKey(raw[ed25519.SeedSize:])) {
		return nil, errors.New("keypair public key does not match private key")
	}
	return key, nil
}
