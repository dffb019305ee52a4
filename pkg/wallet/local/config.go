package local

import (
	"time"

	"github.com/code-payments/wallet-bridge/pkg/config"
	"github.com/code-payments/wallet-bridge/pkg/config/env"
	"github.com/code-payments/wallet-bridge/pkg/config/memory"
	"github.com/code-payments/wallet-bridge/pkg/config/wrapper"
)

const (
	envConfigPrefix = "WALLET_PROVIDER_"

	ConfirmationPollIntervalConfigEnvName = envConfigPrefix + "CONFIRMATION_POLL_INTERVAL"
	defaultConfirmationPollInterval       = 500 * time.Millisecond

	MaxConfirmationPollsConfigEnvName = envConfigPrefix + "MAX_CONFIRMATION_POLLS"
	defaultMaxConfirmationPolls       = 120
)

type conf struct {
	confirmationPollInterval config.Duration
	maxConfirmationPolls     config.Uint64
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			confirmationPollInterval: env.NewDurationConfig(ConfirmationPollIntervalConfigEnvName, defaultConfirmationPollInterval),
			maxConfirmationPolls:     env.NewUint64Config(MaxConfirmationPollsConfigEnvName, defaultMaxConfirmationPolls),
		}
	}
}

type testOverrides struct {
	confirmationPollInterval time.Duration
	maxConfirmationPolls     uint64
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	return func() *conf {
		return &conf{
			confirmationPollInterval: wrapper.NewDurationConfig(memory.NewConfig(overrides.confirmationPollInterval), defaultConfirmationPollInterval),
			maxConfirmationPolls:     wrapper.NewUint64Config(memory.NewConfig(overrides.maxConfirmationPolls), defaultMaxConfirmationPolls),
		}
	}
}
