package provider

import (
	"context"
	"fmt"

	"github.com/dmagro/eth-generic-provider/internal/rpc"
)

// Sign signs a 0x-hex payload with the active account. Only the node-backed
// methods eth_sign and personal_sign are served here; hardware and typed
// data signing need a wallet on the caller's side.
func (p *Provider) Sign(ctx context.Context, data string) (string, error) {
	account := p.AccountID()
	if account == "" {
		return "", ErrNoAccount
	}

	var req rpc.Request
	switch p.signMethod {
	case SignEthSign:
		req = rpc.Request{Method: MethodSign, Params: []interface{}{account, data}}
	case SignPersonal:
		// personal_sign takes the payload first
		req = rpc.Request{Method: MethodPersonalSign, Params: []interface{}{data, account}}
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedSignMethod, p.signMethod)
	}

	resp, err := p.Send(ctx, req)
	if err != nil {
		return "", err
	}
	sig, err := resp.String()
	if err != nil {
		return "", rpc.Classify(&rpc.TransportFailure{Err: err})
	}
	return sig, nil
}
