package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"chain-reverse-resolver/internal/bootstrap"
	"chain-reverse-resolver/internal/config"
	"chain-reverse-resolver/internal/logger"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [addresses]",
	Short: "Resolve the primary name of each address through the configured gateways",
	Long: `Resolve runs resolveNames for all given addresses in one batch, so the
gateway sees a single commit. Names are printed in input order, one per line;
an address without a name prints an empty name.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addrs := make([]common.Address, len(args))
		for i, raw := range args {
			if !common.IsHexAddress(raw) {
				return fmt.Errorf("%q is not an address", raw)
			}
			addrs[i] = common.HexToAddress(raw)
		}

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("chain") {
			cfg.Resolver.ChainID = chainFlag
			cfg.Resolver.CoinType = 0
		}
		if coinTypeFlag != "" {
			coinType, err := selectedCoinType()
			if err != nil {
				return err
			}
			cfg.Resolver.CoinType = uint64(coinType)
		}

		log, err := logger.NewLogger(cfg.Logger)
		if err != nil {
			return err
		}
		defer log.Sync()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		if cfg.Resolver.RequestTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.Resolver.RequestTimeout)
			defer cancel()
		}

		res, err := bootstrap.NewResolver(ctx, *cfg, log)
		if err != nil {
			return err
		}
		defer res.Close()

		names, err := res.Service.ResolveNames(ctx, addrs)
		if err != nil {
			log.Debug("Resolution failed", zap.Error(err))
			return err
		}
		for i, name := range names {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", addrs[i].Hex(), name)
		}
		return nil
	},
}

func init() {
	resolveCmd.Flags().StringVar(&configPath, "config", "configs", "directory holding config.yaml")
	rootCmd.AddCommand(resolveCmd)
}
