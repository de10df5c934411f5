// Package cli wires the gateway's commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	debug      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "xrplrest",
	Short: "xrplrest - order submission REST gateway for the XRP Ledger",
	Long: `xrplrest fronts a rippled node with a simplified REST interface for
placing and cancelling offers. Requests are translated into signed ledger
transactions, submitted over the node's WebSocket API, and answered either
as provisionally accepted or, on request, only once the transaction has
been seen in a validated ledger.`,
	Version: "0.1.0-dev",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "", "configuration file path")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable normally suppressed debug logging")
}
