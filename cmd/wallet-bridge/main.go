// wallet-bridge serves the wallet connection component to its host page and
// runs the counter demonstration from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/code-payments/wallet-bridge/cmd/wallet-bridge/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "wallet-bridge exited with error: %+v\n", err)
		os.Exit(1)
	}
	os.Exit(0)
}
