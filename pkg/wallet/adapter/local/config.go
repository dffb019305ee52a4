package local

import (
	"github.com/code-payments/wallet-bridge/pkg/config"
	"github.com/code-payments/wallet-bridge/pkg/config/env"
	"github.com/code-payments/wallet-bridge/pkg/config/memory"
	"github.com/code-payments/wallet-bridge/pkg/config/wrapper"
	"github.com/code-payments/wallet-bridge/pkg/solana"
)

const (
	envConfigPrefix = "WALLET_ADAPTER_"

	// RpcEndpointConfigEnvName accepts either a cluster moniker (devnet,
	// testnet, mainnet-beta) or a full URL.
	RpcEndpointConfigEnvName = envConfigPrefix + "RPC_ENDPOINT"
	defaultRpcEndpoint       = string(solana.EnvironmentProd)

	KeypairPathConfigEnvName = envConfigPrefix + "KEYPAIR_PATH"
	defaultKeypairPath       = ""

	PrivateKeyConfigEnvName = envConfigPrefix + "PRIVATE_KEY"
	defaultPrivateKey       = ""

	CommitmentConfigEnvName = envConfigPrefix + "COMMITMENT"
	defaultCommitment       = "confirmed"
)

type conf struct {
	rpcEndpoint config.String
	keypairPath config.String
	privateKey  config.String
	commitment  config.String
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			rpcEndpoint: env.NewStringConfig(RpcEndpointConfigEnvName, defaultRpcEndpoint),
			keypairPath: env.NewStringConfig(KeypairPathConfigEnvName, defaultKeypairPath),
			privateKey:  env.NewStringConfig(PrivateKeyConfigEnvName, defaultPrivateKey),
			commitment:  env.NewStringConfig(CommitmentConfigEnvName, defaultCommitment),
		}
	}
}

// Overrides pins config values, for tests and for the CLI's flags.
type Overrides struct {
	RpcEndpoint string
	KeypairPath string
	PrivateKey  string
	Commitment  string
}

// WithOverrides returns configuration with the provided values. Empty values
// fall back to the defaults.
func WithOverrides(overrides *Overrides) ConfigProvider {
	return func() *conf {
		return &conf{
			rpcEndpoint: wrapper.NewStringConfig(memory.NewConfig(nonEmpty(overrides.RpcEndpoint)), defaultRpcEndpoint),
			keypairPath: wrapper.NewStringConfig(memory.NewConfig(nonEmpty(overrides.KeypairPath)), defaultKeypairPath),
			privateKey:  wrapper.NewStringConfig(memory.NewConfig(nonEmpty(overrides.PrivateKey)), defaultPrivateKey),
			commitment:  wrapper.NewStringConfig(memory.NewConfig(nonEmpty(overrides.Commitment)), defaultCommitment),
		}
	}
}

// nonEmpty maps "" to nil so the in memory config reports no value.
func nonEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
