package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmagro/eth-generic-provider/internal/events"
	"github.com/dmagro/eth-generic-provider/internal/format"
	"github.com/dmagro/eth-generic-provider/internal/provider"
)

func accountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "account [address]",
		Short: "Show the provider identity, optionally switching account",
		Long: `Print the normalized account, unsafe recipients, order gateway and policy
settings. With an address, switch to it first and show the ACCOUNT_CHANGE
event it produces.

Examples:
  provider account
  provider account 0xd8da6bf26964af9d7eed9e03e53415d37aa96045`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			next := ""
			if len(args) == 1 {
				next = args[0]
			}
			return runAccount(next)
		},
	}
}

func runAccount(next string) error {
	p, _, err := newProvider()
	if err != nil {
		return err
	}

	var previous, announced string
	if next != "" {
		p.Once(events.AccountChange, func(v string) {
			previous = p.AccountID()
			announced = v
		})
		if err := p.SetAccountID(next); err != nil {
			return err
		}
	}

	if jsonOutput() {
		out := identity(p)
		if next != "" {
			out["change"] = map[string]string{"previous": previous, "announced": announced}
		}
		return format.WriteJSON(os.Stdout, out)
	}

	if next != "" {
		fmt.Printf("  %s %s → %s\n\n", format.Yellow(events.AccountChange.String()), orNone(previous), announced)
	}
	for _, row := range [][2]string{
		{"Account:", orNone(p.AccountID())},
		{"Sign method:", p.SignMethod().String()},
		{"Unsafe recipients:", orNone(strings.Join(p.UnsafeRecipientIDs(), ", "))},
		{"Order gateway:", orNone(p.OrderGatewayID())},
		{"Asset ledger:", p.AssetLedgerSource()},
		{"Value ledger:", p.ValueLedgerSource()},
		{"Confirmations:", fmt.Sprint(p.RequiredConfirmations())},
		{"Gas multiplier:", p.GasMultiplier().String()},
	} {
		fmt.Printf("  %s %s\n", format.Cyan(fmt.Sprintf("%-19s", row[0])), row[1])
	}
	return nil
}

func identity(p *provider.Provider) map[string]interface{} {
	return map[string]interface{}{
		"accountId":             p.AccountID(),
		"signMethod":            p.SignMethod().String(),
		"unsafeRecipientIds":    p.UnsafeRecipientIDs(),
		"orderGatewayId":        p.OrderGatewayID(),
		"assetLedgerSource":     p.AssetLedgerSource(),
		"valueLedgerSource":     p.ValueLedgerSource(),
		"requiredConfirmations": p.RequiredConfirmations(),
		"gasMultiplier":         p.GasMultiplier().String(),
	}
}

func orNone(s string) string {
	if s == "" {
		return format.Dim("(none)")
	}
	return s
}
