// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"io"
	"math/big"

	log "github.com/luxfi/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/parsdao/lxbin/lxbin"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "binsim",
		Short:         "Simulate LXBin liquidity and swaps offline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newPricesCmd())
	return root
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Execute a scenario file step by step",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scenario, err := LoadScenario(args[0])
			if err != nil {
				return err
			}
			sim, err := newSimulator(scenario, cmd.OutOrStdout(), log.NewTestLogger(log.InfoLevel))
			if err != nil {
				return err
			}
			return sim.Run()
		},
	}
}

func newPricesCmd() *cobra.Command {
	var (
		step     uint32
		from, to int32
	)
	cmd := &cobra.Command{
		Use:   "prices",
		Short: "Print the bin price table for a bin step",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printPrices(cmd.OutOrStdout(), step, from, to)
		},
	}
	cmd.Flags().Uint32Var(&step, "step", 10, "bin step in basis points")
	cmd.Flags().Int32Var(&from, "from", -10, "first bin id")
	cmd.Flags().Int32Var(&to, "to", 10, "last bin id")
	return cmd
}

func printPrices(w io.Writer, step uint32, from, to int32) error {
	if from > to {
		return fmt.Errorf("empty bin range [%d, %d]", from, to)
	}
	if step == 0 || step >= lxbin.BasisPoints {
		return fmt.Errorf("%w: %d", lxbin.ErrInvalidBinStep, step)
	}
	fmt.Fprintf(w, "%8s  %s\n", "bin", "price (Y per X)")
	for id := int64(from); id <= int64(to); id++ {
		price, err := lxbin.PriceFromBin(step, int32(id), false)
		if err != nil {
			return fmt.Errorf("bin %d: %w", id, err)
		}
		fmt.Fprintf(w, "%8d  %s\n", id, formatPrice(price))
	}
	return nil
}

// formatPrice renders an 18-decimal fixed-point value.
func formatPrice(price *big.Int) string {
	return decimal.NewFromBigInt(price, -18).StringFixed(8)
}
