package cmd

import (
	"context"
	"crypto/ed25519"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/code-payments/wallet-bridge/pkg/app"
	"github.com/code-payments/wallet-bridge/pkg/solana"
	adapterlocal "github.com/code-payments/wallet-bridge/pkg/wallet/adapter/local"
	localwallet "github.com/code-payments/wallet-bridge/pkg/wallet/local"
)

var (
	configPath  string
	rpcEndpoint string
	keypairPath string
	privateKey  string
	commitment  string

	rootCmd = &cobra.Command{
		Use:   "wallet-bridge",
		Short: "Solana wallet bridge and counter demonstration",
	}
)

func init() {
	rootCmd.AddCommand(
		serveCmd,
		incrementCmd,
		airdropCmd,
		balanceCmd,
	)

	rootCmd.PersistentFlags().StringVar(
		&configPath,
		"config",
		"config.yaml",
		"configuration file path",
	)
	rootCmd.PersistentFlags().StringVar(
		&rpcEndpoint,
		"rpc",
		os.Getenv(adapterlocal.RpcEndpointConfigEnvName),
		"cluster moniker (devnet, testnet, mainnet-beta) or rpc url",
	)
	rootCmd.PersistentFlags().StringVar(
		&keypairPath,
		"keypair",
		os.Getenv(adapterlocal.KeypairPathConfigEnvName),
		"path to a keypair file",
	)
	rootCmd.PersistentFlags().StringVar(
		&privateKey,
		"private-key",
		os.Getenv(adapterlocal.PrivateKeyConfigEnvName),
		"base58 encoded private key, takes precedence over --keypair",
	)
	rootCmd.PersistentFlags().StringVar(
		&commitment,
		"commitment",
		os.Getenv(adapterlocal.CommitmentConfigEnvName),
		"commitment to wait for (processed, confirmed, finalized)",
	)

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
}

func Execute() error {
	return rootCmd.Execute()
}

func adapterConfig() adapterlocal.ConfigProvider {
	return adapterlocal.WithOverrides(&adapterlocal.Overrides{
		RpcEndpoint: rpcEndpoint,
		KeypairPath: keypairPath,
		PrivateKey:  privateKey,
		Commitment:  commitment,
	})
}

// configureLogger applies the logging section of the config file for one
// shot commands.
func configureLogger() error {
	config, err := app.LoadConfig(configPath)
	if err != nil {
		return err
	}
	app.ConfigureLogger(config)
	return nil
}

func rpcClient() solana.Client {
	endpoint := rpcEndpoint
	if endpoint == "" {
		endpoint = string(solana.EnvironmentProd)
	}
	return solana.New(string(solana.EnvironmentFromCluster(endpoint)))
}

func parseCommitment() (solana.Commitment, error) {
	if commitment == "" {
		return solana.CommitmentConfirmed, nil
	}
	return solana.CommitmentFromString(commitment)
}

func loadKey() (ed25519.PrivateKey, error) {
	switch {
	case privateKey != "":
		return localwallet.ParsePrivateKey(privateKey)
	case keypairPath != "":
		return localwallet.LoadKeypairFile(keypairPath)
	}
	return nil, adapterlocal.ErrNoKeypair
}

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

func closeBridge(log *logrus.Entry, b io.Closer) {
	if err := b.Close(); err != nil {
		log.WithError(err).Warn("failed to close wallet bridge")
	}
}
