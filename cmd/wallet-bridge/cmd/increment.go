package cmd

import (
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/code-payments/wallet-bridge/pkg/bridge"
	"github.com/code-payments/wallet-bridge/pkg/interaction"
	"github.com/code-payments/wallet-bridge/pkg/wallet"
	adapterlocal "github.com/code-payments/wallet-bridge/pkg/wallet/adapter/local"
	localwallet "github.com/code-payments/wallet-bridge/pkg/wallet/local"
)

var incrementCmd = &cobra.Command{
	Use:   "increment",
	Short: "Allocate a counter account, increment it and verify the count",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := configureLogger(); err != nil {
			return err
		}

		ctx, cancel := signalContext(cmd)
		defer cancel()

		out := cmd.OutOrStdout()
		sink := bridge.HostSinkFunc(func(state wallet.State) {
			if state.Connected {
				fmt.Fprintf(out, "wallet: %s\n", state.AddressString())
			}
		})

		b := bridge.New(adapterlocal.NewFactory(adapterConfig(), localwallet.WithEnvConfigs()), sink)
		defer closeBridge(logrus.StandardLogger().WithField("type", "cmd/increment"), b)

		if err := b.Init(ctx); err != nil {
			return err
		}
		if err := b.Connect(ctx); err != nil {
			return err
		}

		result, err := interaction.NewDemonstrator(interaction.WithEnvConfigs()).Run(ctx, b)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "run:       %s\n", result.RunID)
		fmt.Fprintf(out, "counter:   %s\n", base58.Encode(result.Counter))
		fmt.Fprintf(out, "signature: %s\n", result.Signature.ToBase58())
		fmt.Fprintf(out, "count:     %d\n", result.Count)

		return b.Disconnect(ctx)
	},
}
