package interaction

import (
	"github.com/code-payments/wallet-bridge/pkg/config"
	"github.com/code-payments/wallet-bridge/pkg/config/env"
	"github.com/code-payments/wallet-bridge/pkg/config/memory"
	"github.com/code-payments/wallet-bridge/pkg/config/wrapper"
	"github.com/code-payments/wallet-bridge/pkg/solana"
)

const (
	envConfigPrefix = "INTERACTION_SERVICE_"

	ProgramIdConfigEnvName = envConfigPrefix + "PROGRAM_ID"
	defaultProgramId       = "Cb5aXEgXptKqHHWLifvXu5BeAuVLjojQ5ypq6CfQj1hy"

	// MinBalanceConfigEnvName is the payer balance, in lamports, below which
	// no transaction is attempted.
	MinBalanceConfigEnvName = envConfigPrefix + "MIN_BALANCE"
	defaultMinBalance       = solana.LamportsPerSol / 100
)

type conf struct {
	programId  config.String
	minBalance config.Uint64
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			programId:  env.NewStringConfig(ProgramIdConfigEnvName, defaultProgramId),
			minBalance: env.NewUint64Config(MinBalanceConfigEnvName, defaultMinBalance),
		}
	}
}

type testOverrides struct {
	programId  string
	minBalance uint64
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	return func() *conf {
		var programId interface{}
		if overrides.programId != "" {
			programId = overrides.programId
		}

		return &conf{
			programId:  wrapper.NewStringConfig(memory.NewConfig(programId), defaultProgramId),
			minBalance: wrapper.NewUint64Config(memory.NewConfig(overrides.minBalance), defaultMinBalance),
		}
	}
}
