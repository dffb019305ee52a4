package cmd

import (
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/code-payments/wallet-bridge/pkg/solana"
)

var balanceCmd = &cobra.Command{
	Use:   "balance [address]",
	Short: "Print the balance of an address, or of the configured keypair",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := configureLogger(); err != nil {
			return err
		}

		var account ed25519.PublicKey
		if len(args) > 0 {
			decoded, err := base58.Decode(args[0])
			if err != nil || len(decoded) != ed25519.PublicKeySize {
				return errors.Errorf("invalid address: %s", args[0])
			}
			account = decoded
		} else {
			key, err := loadKey()
			if err != nil {
				return err
			}
			account = key.Public().(ed25519.PublicKey)
		}

		lamports, err := rpcClient().GetBalance(account)
		if err != nil {
			return errors.Wrap(err, "failed to get balance")
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d lamports (%s SOL)\n", base58.Encode(account), lamports, formatSol(lamports))
		return nil
	},
}

func formatSol(lamports uint64) string {
	return fmt.Sprintf("%d.%09d", lamports/solana.LamportsPerSol, lamports%solana.LamportsPerSol)
}
