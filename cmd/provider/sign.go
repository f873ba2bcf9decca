package main

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/dmagro/eth-generic-provider/internal/format"
)

func signCmd() *cobra.Command {
	var text bool

	cmd := &cobra.Command{
		Use:   "sign <data>",
		Short: "Sign a message with the configured account",
		Long: `Sign data with provider.account_id using provider.sign_method
(eth_sign or personal_sign). The node must hold the unlocked key.

Examples:
  provider sign 0xdeadbeef
  provider sign --text "hello"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data := args[0]
			if text {
				data = hexutil.Encode([]byte(data))
			} else if _, err := hexutil.Decode(data); err != nil {
				return fmt.Errorf("data must be 0x hex (use --text for plain text): %w", err)
			}
			return runSign(data)
		},
	}

	cmd.Flags().BoolVar(&text, "text", false, "Treat data as UTF-8 text")
	return cmd
}

func runSign(data string) error {
	p, _, err := newProvider()
	if err != nil {
		return err
	}

	ctx, cancel := requestContext()
	defer cancel()

	sig, err := p.Sign(ctx, data)
	if err != nil {
		return err
	}

	if jsonOutput() {
		return format.WriteJSON(os.Stdout, map[string]string{
			"account":   p.AccountID(),
			"method":    p.SignMethod().String(),
			"data":      data,
			"signature": sig,
		})
	}
	fmt.Printf("  %s   %s\n", format.Cyan("Account:"), p.AccountID())
	fmt.Printf("  %s    %s\n", format.Cyan("Method:"), p.SignMethod())
	fmt.Printf("  %s %s\n", format.Cyan("Signature:"), format.Green(sig))
	return nil
}
