// Package provider is the client-side request pipeline to a ledger node.
//
// A Provider owns the connection to one endpoint, numbers every outbound
// call, fills missing transaction cost fields before submission, classifies
// every failure into an rpc.Kind and publishes account and network changes
// to subscribers.
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dmagro/eth-generic-provider/internal/address"
	"github.com/dmagro/eth-generic-provider/internal/events"
	"github.com/dmagro/eth-generic-provider/internal/rpc"
)

var (
	// ErrNoAccount is returned by operations that need an active account.
	ErrNoAccount = errors.New("no account set")
	// ErrUnsupportedSignMethod is returned by Sign for sign methods that
	// cannot be served through the node.
	ErrUnsupportedSignMethod = errors.New("unsupported sign method")
)

// Provider is safe for concurrent use.
type Provider struct {
	client    rpc.Transport
	seq       rpc.Sequencer
	events    events.Channel
	estimator *Estimator
	log       *zap.Logger

	signMethod            SignMethod
	assetLedgerSource     string
	valueLedgerSource     string
	requiredConfirmations int
	pollInterval          time.Duration

	mu                 sync.RWMutex
	accountID          string
	networkID          string
	unsafeRecipientIDs []string
	orderGatewayID     string
}

// New validates opts and returns a Provider. Identity fields are normalized
// here without emitting change events.
func New(opts Options) (*Provider, error) {
	opts.applyDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	accountID, err := address.Normalize(opts.AccountID)
	if err != nil {
		return nil, fmt.Errorf("account id: %w", err)
	}
	unsafe, err := address.NormalizeAll(opts.UnsafeRecipientIDs)
	if err != nil {
		return nil, fmt.Errorf("unsafe recipient ids: %w", err)
	}
	gateway, err := address.Normalize(opts.OrderGatewayID)
	if err != nil {
		return nil, fmt.Errorf("order gateway id: %w", err)
	}

	p := &Provider{
		client:                opts.Client,
		log:                   opts.Logger,
		signMethod:            opts.SignMethod,
		assetLedgerSource:     opts.AssetLedgerSource,
		valueLedgerSource:     opts.ValueLedgerSource,
		requiredConfirmations: opts.RequiredConfirmations,
		pollInterval:          opts.PollInterval,
		accountID:             accountID,
		unsafeRecipientIDs:    unsafe,
		orderGatewayID:        gateway,
	}
	p.estimator = NewEstimator(p, opts.GasMultiplier, opts.Logger)
	return p, nil
}

// Post is the general entry point. eth_sendTransaction calls with at least
// one parameter get their missing gas and gas price filled first; every
// other method goes straight to Send.
func (p *Provider) Post(ctx context.Context, req rpc.Request) (*rpc.Response, error) {
	if req.Method == MethodSendTransaction && len(req.Params) > 0 {
		params, err := p.estimator.Fill(ctx, req.Params)
		if err != nil {
			return nil, err
		}
		req.Params = params
	}
	return p.Send(ctx, req)
}

// Send delivers req as is. It assigns an id when req.ID is zero, fills the
// protocol version and an empty parameter list, and returns every failure as
// a *rpc.ClassifiedError. No retries.
func (p *Provider) Send(ctx context.Context, req rpc.Request) (*rpc.Response, error) {
	if req.ID == 0 {
		req.ID = p.seq.Next()
	}
	if req.JSONRPC == "" {
		req.JSONRPC = rpc.Version
	}
	if req.Params == nil {
		req.Params = []interface{}{}
	}

	start := time.Now()
	resp, err := p.client.Send(ctx, &req)
	latency := time.Since(start)

	var ce *rpc.ClassifiedError
	switch {
	case err != nil:
		ce = rpc.Classify(&rpc.TransportFailure{Err: err})
	case resp == nil:
		ce = rpc.Classify(&rpc.TransportFailure{Err: errors.New("empty response")})
	case resp.Error != nil:
		ce = rpc.Classify(resp.Error)
	case resp.ID != req.ID:
		ce = rpc.Classify(&rpc.AnomalyError{Want: req.ID, Got: resp.ID})
	}

	if ce != nil {
		p.log.Warn("rpc request failed",
			zap.String("method", req.Method),
			zap.Uint64("id", req.ID),
			zap.Duration("latency", latency),
			zap.String("kind", string(ce.Kind)),
			zap.Int("code", ce.Code),
			zap.String("message", ce.Message),
		)
		return nil, ce
	}

	p.log.Debug("rpc request",
		zap.String("method", req.Method),
		zap.Uint64("id", req.ID),
		zap.Duration("latency", latency),
	)
	return resp, nil
}

// Call is Post with positional params.
func (p *Provider) Call(ctx context.Context, method string, params ...interface{}) (*rpc.Response, error) {
	if params == nil {
		params = []interface{}{}
	}
	return p.Post(ctx, rpc.Request{Method: method, Params: params})
}

// GetNetworkVersion returns the raw net_version result.
func (p *Provider) GetNetworkVersion(ctx context.Context) (string, error) {
	resp, err := p.Send(ctx, rpc.Request{Method: MethodNetVersion})
	if err != nil {
		return "", err
	}
	if s, err := resp.String(); err == nil {
		return s, nil
	}
	// some nodes answer with a bare number
	return strings.TrimSpace(string(resp.Result)), nil
}

// Estimate returns params with gas and gas price filled the way Post would
// fill them, without sending anything else.
func (p *Provider) Estimate(ctx context.Context, params ...interface{}) ([]interface{}, error) {
	return p.estimator.Fill(ctx, params)
}

// AccountID returns the active account, or "" when none is set.
func (p *Provider) AccountID() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.accountID
}

// SetAccountID normalizes id, emits AccountChange with the normalized value
// and then commits it. Handlers calling AccountID observe the previous
// account. An invalid id fails without emitting or changing state.
func (p *Provider) SetAccountID(id string) error {
	normalized, err := address.Normalize(id)
	if err != nil {
		return err
	}

	// emit without the lock so handlers can read identity
	p.events.Emit(events.AccountChange, normalized)

	p.mu.Lock()
	p.accountID = normalized
	p.mu.Unlock()
	return nil
}

// UnsafeRecipientIDs returns a copy of the unsafe recipient list.
func (p *Provider) UnsafeRecipientIDs() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.unsafeRecipientIDs...)
}

// SetUnsafeRecipientIDs replaces the list. One malformed entry rejects the
// whole assignment and the previous list stays in place.
func (p *Provider) SetUnsafeRecipientIDs(ids []string) error {
	normalized, err := address.NormalizeAll(ids)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.unsafeRecipientIDs = normalized
	p.mu.Unlock()
	return nil
}

// IsUnsafeRecipient reports whether id is in the unsafe recipient list.
func (p *Provider) IsUnsafeRecipient(id string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, u := range p.unsafeRecipientIDs {
		if address.Equal(u, id) {
			return true
		}
	}
	return false
}

func (p *Provider) OrderGatewayID() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.orderGatewayID
}

func (p *Provider) SetOrderGatewayID(id string) error {
	normalized, err := address.Normalize(id)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.orderGatewayID = normalized
	p.mu.Unlock()
	return nil
}

// NetworkID is the last network version seen by WatchNetwork or
// RefreshNetwork, "" before the first successful poll.
func (p *Provider) NetworkID() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.networkID
}

func (p *Provider) On(kind events.Kind, h events.Handler) events.Subscription {
	return p.events.On(kind, h)
}

func (p *Provider) Once(kind events.Kind, h events.Handler) events.Subscription {
	return p.events.Once(kind, h)
}

// Off removes subs, or every handler of kind when subs is empty.
func (p *Provider) Off(kind events.Kind, subs ...events.Subscription) {
	p.events.Off(kind, subs...)
}

func (p *Provider) SignMethod() SignMethod { return p.signMethod }
func (p *Provider) AssetLedgerSource() string { return p.assetLedgerSource }
func (p *Provider) ValueLedgerSource() string { return p.valueLedgerSource }
func (p *Provider) RequiredConfirmations() int { return p.requiredConfirmations }
func (p *Provider) GasMultiplier() decimal.Decimal { return p.estimator.Multiplier() }
func (p *Provider) LastRequestID() uint64 { return p.seq.Last() }
