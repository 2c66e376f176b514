package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"chain-reverse-resolver/internal/domain/entity"
)

var (
	chainFlag    uint64
	coinTypeFlag string
	configPath   string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "revname",
	Short: "Reverse resolve addresses to primary names across chains",
	Long: `revname works with ENSIP-19 reverse names.

It derives coin types, reverse namespaces and reverse names offline, and
resolves primary names through a resolver configured like cmd/resolver
(configs/config.yaml or REVERSE_RESOLVER_* env vars).`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().Uint64VarP(&chainFlag, "chain", "c", 0, "EVM chain id. Ignored when --coin-type is set.")
	rootCmd.PersistentFlags().StringVarP(&coinTypeFlag, "coin-type", "t", "", "coin type, decimal or 0x-prefixed hex.")
}

// selectedCoinType reads --coin-type, falling back to the coin type of --chain.
func selectedCoinType() (entity.CoinType, error) {
	if coinTypeFlag != "" {
		v, err := strconv.ParseUint(coinTypeFlag, 0, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid coin type %q: %w", coinTypeFlag, err)
		}
		return entity.CoinType(v), nil
	}
	return entity.CoinTypeFromChain(chainFlag)
}
