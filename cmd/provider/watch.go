package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dmagro/eth-generic-provider/internal/address"
	"github.com/dmagro/eth-generic-provider/internal/events"
	"github.com/dmagro/eth-generic-provider/internal/format"
	"github.com/dmagro/eth-generic-provider/internal/logger"
	"github.com/dmagro/eth-generic-provider/internal/provider"
)

func watchCmd() *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print network and account changes until Ctrl+C",
		Long: `Poll net_version and eth_accounts on the selected endpoint and print a
line for every NETWORK_CHANGE and ACCOUNT_CHANGE event.

Examples:
  provider watch
  provider watch --interval 2s --endpoint local`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval <= 0 {
				interval = cfg.Defaults.WatchInterval
			}
			return runWatch(interval)
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "Poll interval (0 = defaults.watch_interval)")
	return cmd
}

func runWatch(interval time.Duration) error {
	p, e, err := newProvider()
	if err != nil {
		return err
	}

	show := func(kind events.Kind) events.Handler {
		return func(value string) {
			if jsonOutput() {
				_ = format.WriteJSON(os.Stdout, map[string]string{
					"time":  time.Now().Format(time.RFC3339),
					"event": kind.String(),
					"value": value,
				})
				return
			}
			format.FormatEvent(os.Stdout, time.Now(), kind.String(), value)
		}
	}
	p.On(events.NetworkChange, show(events.NetworkChange))
	p.On(events.AccountChange, show(events.AccountChange))

	ctx, stop := signalContext()
	defer stop()

	if !jsonOutput() {
		fmt.Printf("%s %s every %s (Ctrl+C to stop)\n\n", format.Bold("Watching"), e.Name, interval)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return p.WatchNetwork(gctx, interval)
	})
	g.Go(func() error {
		return watchAccounts(gctx, p, interval)
	})
	return g.Wait()
}

// watchAccounts follows the node's first unlocked account, the way a wallet
// reports account switches.
func watchAccounts(ctx context.Context, p *provider.Provider, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		resp, err := p.Call(ctx, "eth_accounts")
		if err == nil {
			var accounts []string
			if err := resp.Decode(&accounts); err != nil {
				logger.Warn("unexpected eth_accounts result", zap.Error(err))
			} else {
				next := ""
				if len(accounts) > 0 {
					next = accounts[0]
				}
				if !sameAccount(p.AccountID(), next) {
					if err := p.SetAccountID(next); err != nil {
						logger.Warn("node reported an invalid account", zap.String("account", next), zap.Error(err))
					}
				}
			}
		} else if ctx.Err() == nil {
			logger.Warn("account poll failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func sameAccount(current, next string) bool {
	if current == "" || next == "" {
		return current == next
	}
	return address.Equal(current, next)
}
