package solana

type Environment string

const (
	EnvironmentDev  Environment = "https://api.devnet.solana.com"
	EnvironmentTest Environment = "https://api.testnet.solana.com"
	EnvironmentProd Environment = "https://api.mainnet-beta.solana.com"
)

// LamportsPerSol is the number of lamports in one SOL.
const LamportsPerSol uint64 = 1_000_000_000

// EnvironmentFromCluster maps a cluster moniker (devnet, testnet, mainnet-beta)
// to its public RPC endpoint. Anything else is treated as a custom endpoint URL.
func EnvironmentFromCluster(cluster string) Environment {
	switch cluster {
	case "devnet":
		return EnvironmentDev
	case "testnet":
		return EnvironmentTest
	case "mainnet", "mainnet-beta":
		return EnvironmentProd
	}
	return Environment(cluster)
}
