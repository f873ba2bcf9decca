package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmagro/eth-generic-provider/internal/address"
	"github.com/dmagro/eth-generic-provider/internal/format"
	"github.com/dmagro/eth-generic-provider/internal/provider"
	"github.com/dmagro/eth-generic-provider/internal/rpc"
)

func balanceCmd() *cobra.Command {
	var (
		decimals int
		block    string
	)

	cmd := &cobra.Command{
		Use:   "balance <token> <address>",
		Short: "Query an ERC-20 balance",
		Long: `Call balanceOf on a token contract. <token> is a known symbol (usdc, usdt)
or a contract address.

Examples:
  provider balance usdc 0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045
  provider balance 0x6B175474E89094C44Da98b954EedeAC495271d0F 0xd8dA... --decimals 18`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := resolveToken(args[0], decimals)
			if err != nil {
				return err
			}
			return runBalance(token, args[1], rpc.NormalizeBlockArg(block))
		},
	}

	cmd.Flags().IntVar(&decimals, "decimals", 18, "Decimals for tokens given by address")
	cmd.Flags().StringVar(&block, "block", "latest", "Block number or tag")
	return cmd
}

func resolveToken(arg string, decimals int) (rpc.Token, error) {
	if t, ok := rpc.KnownTokens[strings.ToLower(arg)]; ok {
		return t, nil
	}
	addr, err := address.Normalize(arg)
	if err != nil || addr == "" {
		return rpc.Token{}, fmt.Errorf("unknown token %q (expected usdc, usdt or a contract address)", arg)
	}
	return rpc.Token{Symbol: "TOKEN", Address: addr, Decimals: decimals}, nil
}

func runBalance(token rpc.Token, holder, block string) error {
	holder, err := address.Normalize(holder)
	if err != nil {
		return fmt.Errorf("invalid address: %w", err)
	}
	calldata, err := rpc.EncodeBalanceOfCalldata(holder)
	if err != nil {
		return fmt.Errorf("failed to encode calldata: %w", err)
	}

	p, e, err := newProvider()
	if err != nil {
		return err
	}

	ctx, cancel := requestContext()
	defer cancel()

	start := time.Now()
	resp, err := p.Call(ctx, provider.MethodCall, provider.TxParams{To: token.Address, Data: calldata}, block)
	if err != nil {
		return err
	}
	latency := time.Since(start)

	raw, err := resp.String()
	if err != nil {
		return err
	}
	balance, err := rpc.DecodeUint256(raw)
	if err != nil {
		return fmt.Errorf("failed to decode balance: %w", err)
	}

	if jsonOutput() {
		return format.WriteJSON(os.Stdout, map[string]interface{}{
			"contract":       token.Address,
			"symbol":         token.Symbol,
			"address":        holder,
			"block":          block,
			"rawValue":       balance.String(),
			"formattedValue": rpc.FormatTokenAmount(balance, token.Decimals, token.Symbol),
			"endpoint":       e.Name,
			"latencyMs":      latency.Milliseconds(),
		})
	}
	format.FormatBalance(os.Stdout, token, holder, balance, e.Name, latency)
	return nil
}
