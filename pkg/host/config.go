package host

import (
	"time"

	"github.com/code-payments/wallet-bridge/pkg/config"
	"github.com/code-payments/wallet-bridge/pkg/config/env"
	"github.com/code-payments/wallet-bridge/pkg/config/memory"
	"github.com/code-payments/wallet-bridge/pkg/config/wrapper"
)

const (
	envConfigPrefix = "HOST_SERVER_"

	// AllowedOriginsConfigEnvName is a comma separated list of origins that
	// may embed the component.
	AllowedOriginsConfigEnvName = envConfigPrefix + "ALLOWED_ORIGINS"
	defaultAllowedOrigins       = "*"

	ActionsPerSecondConfigEnvName = envConfigPrefix + "ACTIONS_PER_SECOND"
	defaultActionsPerSecond       = 2

	ActionBurstConfigEnvName = envConfigPrefix + "ACTION_BURST"
	defaultActionBurst       = 5

	IncrementTimeoutConfigEnvName = envConfigPrefix + "INCREMENT_TIMEOUT"
	defaultIncrementTimeout       = 2 * time.Minute

	StreamPingPeriodConfigEnvName = envConfigPrefix + "STREAM_PING_PERIOD"
	defaultStreamPingPeriod       = 30 * time.Second

	StreamWriteTimeoutConfigEnvName = envConfigPrefix + "STREAM_WRITE_TIMEOUT"
	defaultStreamWriteTimeout       = 10 * time.Second
)

type conf struct {
	allowedOrigins     config.String
	actionsPerSecond   config.Uint64
	actionBurst        config.Uint64
	incrementTimeout   config.Duration
	streamPingPeriod   config.Duration
	streamWriteTimeout config.Duration
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			allowedOrigins:     env.NewStringConfig(AllowedOriginsConfigEnvName, defaultAllowedOrigins),
			actionsPerSecond:   env.NewUint64Config(ActionsPerSecondConfigEnvName, defaultActionsPerSecond),
			actionBurst:        env.NewUint64Config(ActionBurstConfigEnvName, defaultActionBurst),
			incrementTimeout:   env.NewDurationConfig(IncrementTimeoutConfigEnvName, defaultIncrementTimeout),
			streamPingPeriod:   env.NewDurationConfig(StreamPingPeriodConfigEnvName, defaultStreamPingPeriod),
			streamWriteTimeout: env.NewDurationConfig(StreamWriteTimeoutConfigEnvName, defaultStreamWriteTimeout),
		}
	}
}

type testOverrides struct {
	allowedOrigins   string
	actionsPerSecond uint64
	actionBurst      uint64
	incrementTimeout time.Duration
	streamPingPeriod time.Duration
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	return func() *conf {
		return &conf{
			allowedOrigins:     wrapper.NewStringConfig(memory.NewConfig(valueOrNil(overrides.allowedOrigins)), defaultAllowedOrigins),
			actionsPerSecond:   wrapper.NewUint64Config(memory.NewConfig(valueOrNil(overrides.actionsPerSecond)), defaultActionsPerSecond),
			actionBurst:        wrapper.NewUint64Config(memory.NewConfig(valueOrNil(overrides.actionBurst)), defaultActionBurst),
			incrementTimeout:   wrapper.NewDurationConfig(memory.NewConfig(valueOrNil(overrides.incrementTimeout)), defaultIncrementTimeout),
			streamPingPeriod:   wrapper.NewDurationConfig(memory.NewConfig(valueOrNil(overrides.streamPingPeriod)), defaultStreamPingPeriod),
			streamWriteTimeout: wrapper.NewDurationConfig(memory.NewConfig(nil), defaultStreamWriteTimeout),
		}
	}
}

// valueOrNil treats zero overrides as unset
func valueOrNil[T comparable](v T) interface{} {
	var zero T
	if v == zero {
		return nil
	}
	return v
}
