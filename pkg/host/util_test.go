package host

import (
	"context"
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/code-payments/wallet-bridge/pkg/bridge"
	"github.com/code-payments/wallet-bridge/pkg/interaction"
	"github.com/code-payments/wallet-bridge/pkg/wallet/adapter"
)

func TestHandleErrorInWebContext(t *testing.T) {
	for _, tc := range []struct {
		err      error
		code     int
		expected string
	}{
		{nil, http.StatusOK, ""},
		{bridge.ErrNotInitialized, http.StatusServiceUnavailable, bridge.ErrNotInitialized.Error()},
		{interaction.ErrNotConnected, http.StatusConflict, interaction.ErrNotConnected.Error()},
		{errors.Wrap(adapter.ErrNotConnected, "disconnect"), http.StatusConflict, interaction.ErrNotConnected.Error()},
		{errors.Wrap(interaction.ErrInsufficientBalance, "balance 0"), http.StatusPaymentRequired, interaction.ErrInsufficientBalance.Error()},
		{interaction.ErrCounterAccountNotFound, http.StatusBadGateway, interaction.ErrCounterAccountNotFound.Error()},
		{errors.Wrap(&interaction.VerificationError{Expected: 1, Actual: 2}, "verify"), http.StatusBadGateway, "unexpected counter value: expected 1, got 2"},
		{context.DeadlineExceeded, http.StatusRequestTimeout, "request timed out"},
		{errors.New("rpc node exploded"), http.StatusInternalServerError, "internal server error"},
	} {
		code, err := HandleErrorInWebContext(tc.err)
		assert.Equal(t, tc.code, code)
		if tc.err == nil {
			assert.NoError(t, err)
			continue
		}
		assert.EqualError(t, err, tc.expected)
	}
}

func TestGenericApiResponseBody(t *testing.T) {
	body := NewGenericApiSuccessResponseBody()
	body["count"] = 1
	assert.JSONEq(t, `{"success":true,"count":1}`, body.ToString())

	body = NewGenericApiFailureResponseBody(errors.New("nope"))
	assert.JSONEq(t, `{"success":false,"error":"nope"}`, body.ToString())
}
