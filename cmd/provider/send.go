package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/dmagro/eth-generic-provider/internal/address"
	"github.com/dmagro/eth-generic-provider/internal/format"
	"github.com/dmagro/eth-generic-provider/internal/provider"
	"github.com/dmagro/eth-generic-provider/internal/rpc"
)

// txFlags are the transaction fields shared by send and estimate.
type txFlags struct {
	from     string
	to       string
	value    string
	data     string
	gas      string
	gasPrice string
	nonce    string
}

func (f *txFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.from, "from", "", "Sender (default: provider.account_id)")
	cmd.Flags().StringVar(&f.to, "to", "", "Recipient or contract address")
	cmd.Flags().StringVar(&f.value, "value", "", "Value in wei (decimal or 0x hex)")
	cmd.Flags().StringVar(&f.data, "data", "", "Calldata (0x hex)")
	cmd.Flags().StringVar(&f.gas, "gas", "", "Gas limit (estimated when empty)")
	cmd.Flags().StringVar(&f.gasPrice, "gas-price", "", "Gas price in wei (queried when empty)")
	cmd.Flags().StringVar(&f.nonce, "nonce", "", "Nonce (node decides when empty)")
}

// params converts the flags to wire form: addresses normalized, quantities
// as 0x hex.
func (f *txFlags) params() (provider.TxParams, error) {
	var tx provider.TxParams
	var err error

	if tx.From, err = address.Normalize(f.from); err != nil {
		return tx, fmt.Errorf("--from: %w", err)
	}
	if tx.To, err = address.Normalize(f.to); err != nil {
		return tx, fmt.Errorf("--to: %w", err)
	}
	if f.data != "" {
		if _, err := hexutil.Decode(f.data); err != nil {
			return tx, fmt.Errorf("--data: %w", err)
		}
		tx.Data = f.data
	}
	for _, q := range []struct {
		flag string
		in   string
		out  *string
	}{
		{"--value", f.value, &tx.Value},
		{"--gas", f.gas, &tx.Gas},
		{"--gas-price", f.gasPrice, &tx.GasPrice},
		{"--nonce", f.nonce, &tx.Nonce},
	} {
		if *q.out, err = quantity(q.in); err != nil {
			return tx, fmt.Errorf("%s: %w", q.flag, err)
		}
	}
	return tx, nil
}

// quantity accepts decimal or 0x hex and returns 0x hex; "" stays "".
func quantity(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := rpc.ParseHexBigInt(s)
		if err != nil {
			return "", err
		}
		return hexutil.EncodeBig(v), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return "", fmt.Errorf("invalid quantity %q", s)
	}
	return hexutil.EncodeBig(v), nil
}

func sendCmd() *cobra.Command {
	var (
		tx   txFlags
		wait bool
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Submit a transaction with gas autofill",
		Long: `Submit eth_sendTransaction from the configured account. Gas and gas price
are estimated and scaled by provider.gas_multiplier unless given.

Examples:
  provider send --to 0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed --value 1000000000000000
  provider send --to 0x5aAe... --data 0xa9059cbb... --wait`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(&tx, wait)
		},
	}

	tx.bind(cmd)
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for provider.required_confirmations")
	return cmd
}

func runSend(f *txFlags, wait bool) error {
	tx, err := f.params()
	if err != nil {
		return err
	}
	p, e, err := newProvider()
	if err != nil {
		return err
	}

	ctx, cancel := requestContext()
	defer cancel()

	m, err := p.SendTransaction(ctx, tx)
	if err != nil {
		return err
	}

	if !wait {
		if jsonOutput() {
			return format.WriteJSON(os.Stdout, map[string]string{"endpoint": e.Name, "transactionHash": m.ID()})
		}
		fmt.Printf("%s %s\n", format.Green("✓ submitted"), m.ID())
		return nil
	}

	if !jsonOutput() {
		fmt.Printf("%s %s, waiting for %d confirmation(s)...\n", format.Green("✓ submitted"), m.ID(), p.RequiredConfirmations())
	}

	// mining is not bounded by the request timeout
	waitCtx, stop := signalContext()
	defer stop()

	receipt, err := m.Complete(waitCtx)
	if err != nil {
		return err
	}
	if jsonOutput() {
		return format.WriteJSON(os.Stdout, receipt)
	}
	fmt.Printf("%s block %s, gas used %s\n", format.Green("✓ mined"), receipt.BlockNumber, receipt.GasUsed)
	return nil
}

func estimateCmd() *cobra.Command {
	var tx txFlags

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Show the gas and gas price a send would use",
		Long: `Run the cost estimation send performs, without submitting anything.

Examples:
  provider estimate --to 0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed --value 1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEstimate(&tx)
		},
	}

	tx.bind(cmd)
	return cmd
}

func runEstimate(f *txFlags) error {
	tx, err := f.params()
	if err != nil {
		return err
	}
	p, _, err := newProvider()
	if err != nil {
		return err
	}
	if tx.From == "" {
		tx.From = p.AccountID()
	}

	ctx, cancel := requestContext()
	defer cancel()

	filled, err := estimate(ctx, p, tx)
	if err != nil {
		return err
	}

	if jsonOutput() {
		return format.WriteJSON(os.Stdout, map[string]interface{}{
			"multiplier": p.GasMultiplier().String(),
			"params":     filled,
		})
	}
	format.FormatEstimate(os.Stdout, p.GasMultiplier().String(), []format.Cost{
		{Field: "gas", Sent: filled.Gas, Estimated: tx.Gas == ""},
		{Field: "gasPrice", Sent: filled.GasPrice, Estimated: tx.GasPrice == ""},
	})
	return nil
}

func estimate(ctx context.Context, p *provider.Provider, tx provider.TxParams) (provider.TxParams, error) {
	params, err := p.Estimate(ctx, tx)
	if err != nil {
		return provider.TxParams{}, err
	}
	return params[0].(provider.TxParams), nil
}
