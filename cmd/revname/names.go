package main

import (
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"chain-reverse-resolver/internal/domain/entity"
)

var namespaceCmd = &cobra.Command{
	Use:   "namespace",
	Short: "Print the reverse namespace and its node for the selected coin type",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		coinType, err := selectedCoinType()
		if err != nil {
			return err
		}
		ns := entity.ReverseNamespace(coinType)
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ns, entity.NameHash(ns).Hex())
		return nil
	},
}

var reverseNameCmd = &cobra.Command{
	Use:   "reverse-name [addresses]",
	Short: "Print the reverse name of each address under the selected coin type",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		coinType, err := selectedCoinType()
		if err != nil {
			return err
		}
		for _, raw := range args {
			if !common.IsHexAddress(raw) {
				return fmt.Errorf("%q is not an address", raw)
			}
			name := entity.ReverseName(common.HexToAddress(raw), coinType)
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", name, entity.NameHash(name).Hex())
		}
		return nil
	},
}

var coinTypeCmd = &cobra.Command{
	Use:   "coin-type [chain id]",
	Short: "Convert an EVM chain id to its coin type and back",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		chainID, err := strconv.ParseUint(args[0], 0, 64)
		if err != nil {
			return fmt.Errorf("invalid chain id %q: %w", args[0], err)
		}
		coinType, err := entity.CoinTypeFromChain(chainID)
		if err != nil {
			return err
		}
		back, err := entity.ChainFromCoinType(coinType)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "chain %d => coin type %d (%s) => chain %d\n", chainID, uint64(coinType), coinType, back)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(namespaceCmd, reverseNameCmd, coinTypeCmd)
}
