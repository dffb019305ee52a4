package interaction

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrInsufficientBalance    = errors.New("insufficient balance")
	ErrCounterAccountNotFound = errors.New("counter account not found")
	ErrNotConnected           = errors.New("wallet not connected")
)

// VerificationError indicates the counter account did not hold the expected
// count after the transaction. This points at a mismatch between the client
// and the deployed program.
type VerificationError struct {
	Expected uint8
	Actual   uint8
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("unexpected counter value: expected %d, got %d", e.Expected, e.Actual)
}
