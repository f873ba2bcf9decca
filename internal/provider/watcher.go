package provider

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dmagro/eth-generic-provider/internal/events"
)

// DefaultWatchInterval is used by WatchNetwork for non-positive intervals.
const DefaultWatchInterval = 5 * time.Second

// RefreshNetwork queries net_version once. When the result differs from
// NetworkID it emits NetworkChange with the new value and then commits it,
// the same order SetAccountID uses.
func (p *Provider) RefreshNetwork(ctx context.Context) (version string, changed bool, err error) {
	version, err = p.GetNetworkVersion(ctx)
	if err != nil {
		return "", false, err
	}
	if version == p.NetworkID() {
		return version, false, nil
	}

	p.events.Emit(events.NetworkChange, version)

	p.mu.Lock()
	p.networkID = version
	p.mu.Unlock()
	return version, true, nil
}

// WatchNetwork polls the network version until ctx is done. Poll failures
// are logged and the next tick tries again.
func (p *Provider) WatchNetwork(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultWatchInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if version, changed, err := p.RefreshNetwork(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.log.Warn("network poll failed", zap.Error(err))
		} else if changed {
			p.log.Info("network changed", zap.String("network", version))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
