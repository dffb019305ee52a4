package cmd

import (
	"fmt"
	"math"
	"strconv"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/code-payments/wallet-bridge/pkg/solana"
	localwallet "github.com/code-payments/wallet-bridge/pkg/wallet/local"
)

var airdropCmd = &cobra.Command{
	Use:   "airdrop [sol]",
	Short: "Request an airdrop to the configured keypair (devnet and testnet only)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := configureLogger(); err != nil {
			return err
		}

		lamports := solana.LamportsPerSol
		if len(args) > 0 {
			var err error
			if lamports, err = parseSol(args[0]); err != nil {
				return err
			}
		}

		key, err := loadKey()
		if err != nil {
			return err
		}
		c, err := parseCommitment()
		if err != nil {
			return err
		}

		ctx, cancel := signalContext(cmd)
		defer cancel()

		provider := localwallet.NewProvider(rpcClient(), key, c, localwallet.WithEnvConfigs())
		sig, err := provider.RequestAirdrop(ctx, lamports)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "airdropped %d lamports to %s: %s\n", lamports, base58.Encode(provider.PublicKey()), sig.ToBase58())
		return nil
	},
}

// parseSol converts a decimal SOL amount into lamports.
func parseSol(s string) (uint64, error) {
	sol, err := strconv.ParseFloat(s, 64)
	if err != nil || sol <= 0 {
		return 0, errors.Errorf("invalid sol amount: %s", s)
	}
	return uint64(math.Round(sol * float64(solana.LamportsPerSol))), nil
}
