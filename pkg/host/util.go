package host

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"

	"github.com/code-payments/wallet-bridge/pkg/bridge"
	"github.com/code-payments/wallet-bridge/pkg/interaction"
	"github.com/code-payments/wallet-bridge/pkg/wallet/adapter"
)

const (
	successJsonKey = "success"
	errorJsonKey   = "error"
)

type GenericApiResponseBody map[string]any

func NewGenericApiSuccessResponseBody() GenericApiResponseBody {
	return map[string]any{
		successJsonKey: true,
	}
}

func NewGenericApiFailureResponseBody(err error) GenericApiResponseBody {
	return map[string]any{
		successJsonKey: false,
		errorJsonKey:   err.Error(),
	}
}

func (b *GenericApiResponseBody) ToString() string {
	marshalled, _ := json.Marshal(b)
	return string(marshalled)
}

// HandleErrorInWebContext maps a bridge or interaction error to the status
// code and error that is safe to return to the host.
func HandleErrorInWebContext(err error) (int, error) {
	if err == nil {
		return http.StatusOK, nil
	}

	var verificationErr *interaction.VerificationError
	switch {
	case errors.Is(err, bridge.ErrNotInitialized):
		return http.StatusServiceUnavailable, bridge.ErrNotInitialized
	case errors.Is(err, interaction.ErrNotConnected), errors.Is(err, adapter.ErrNotConnected):
		return http.StatusConflict, interaction.ErrNotConnected
	case errors.Is(err, interaction.ErrInsufficientBalance):
		return http.StatusPaymentRequired, interaction.ErrInsufficientBalance
	case errors.As(err, &verificationErr):
		return http.StatusBadGateway, verificationErr
	case errors.Is(err, interaction.ErrCounterAccountNotFound):
		return http.StatusBadGateway, interaction.ErrCounterAccountNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout, errors.New("request timed out")
	default:
		return http.StatusInternalServerError, errors.New("internal server error")
	}
}
