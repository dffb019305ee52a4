package counter

import (
	"github.com/pkg/errors"
)

// AccountSize is the number of bytes the program expects to own.
const AccountSize = 8

var ErrInvalidAccountSize = errors.New("need exactly 8 bytes to deserialize counter")

// Account is the counter program's account state. Only the first byte of
// the account buffer carries the count.
type Account struct {
	Count uint8
}

func (a *Account) Unmarshal(data []byte) error {
	if len(data) != AccountSize {
		return errors.Wrapf(ErrInvalidAccountSize, "got %d", len(data))
	}

	a.Count = data[0]
	return nil
}

func (a Account) Marshal() []byte {
	b := make([]byte, AccountSize)
	b[0] = a.Count
	return b
}
