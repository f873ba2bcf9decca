package provider

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/dmagro/eth-generic-provider/internal/address"
	"github.com/dmagro/eth-generic-provider/internal/events"
	"github.com/dmagro/eth-generic-provider/internal/rpc"
)

func TestNewDefaults(t *testing.T) {
	p := newTestProvider(t, newFakeNode())

	assert.Equal(t, "", p.AccountID())
	assert.Equal(t, SignEthSign, p.SignMethod())
	assert.Equal(t, DefaultAssetLedgerSource, p.AssetLedgerSource())
	assert.Equal(t, DefaultValueLedgerSource, p.ValueLedgerSource())
	assert.Equal(t, 1, p.RequiredConfirmations())
	assert.True(t, p.GasMultiplier().Equal(decimal.RequireFromString("1.1")))
	assert.Empty(t, p.UnsafeRecipientIDs())
	assert.Equal(t, "", p.NetworkID())
}

func TestNewNormalizesIdentity(t *testing.T) {
	p := newTestProvider(t, newFakeNode(), func(o *Options) {
		o.AccountID = vitalikLower
		o.UnsafeRecipientIDs = []string{otherLower}
		o.OrderGatewayID = otherLower
		o.RequiredConfirmations = 3
	})

	assert.Equal(t, vitalik, p.AccountID())
	assert.Equal(t, []string{other}, p.UnsafeRecipientIDs())
	assert.Equal(t, other, p.OrderGatewayID())
	assert.Equal(t, 3, p.RequiredConfirmations())
}

func TestNewRejectsBadOptions(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"no client", Options{}},
		{"bad account", Options{Client: newFakeNode(), AccountID: "0x123"}},
		{"bad unsafe recipient", Options{Client: newFakeNode(), UnsafeRecipientIDs: []string{vitalik, "nope"}}},
		{"bad gateway", Options{Client: newFakeNode(), OrderGatewayID: "gateway"}},
		{"multiplier below one", Options{Client: newFakeNode(), GasMultiplier: decimal.RequireFromString("0.9")}},
		{"unknown sign method", Options{Client: newFakeNode(), SignMethod: SignMethod(42)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts)
			assert.Error(t, err)
		})
	}
}

func TestSendAssignsIncreasingIDs(t *testing.T) {
	node := newFakeNode()
	p := newTestProvider(t, node)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := p.Send(ctx, rpc.Request{Method: "eth_chainId"})
		require.NoError(t, err)
	}

	reqs := node.requests()
	require.Len(t, reqs, 3)
	for i, r := range reqs {
		assert.Equal(t, uint64(i+1), r.ID)
		assert.Equal(t, rpc.Version, r.JSONRPC)
		assert.NotNil(t, r.Params)
		assert.Empty(t, r.Params)
	}
	assert.Equal(t, uint64(3), p.LastRequestID())
}

func TestSendConcurrentIDsAreUnique(t *testing.T) {
	node := newFakeNode()
	p := newTestProvider(t, node)

	const n = 100
	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < n; i++ {
		g.Go(func() error {
			_, err := p.Post(ctx, rpc.Request{Method: "eth_blockNumber"})
			return err
		})
	}
	require.NoError(t, g.Wait())

	ids := make([]int, 0, n)
	for _, r := range node.requests() {
		ids = append(ids, int(r.ID))
	}
	sort.Ints(ids)
	for i, id := range ids {
		assert.Equal(t, i+1, id)
	}
}

func TestSendKeepsCallerID(t *testing.T) {
	node := newFakeNode()
	p := newTestProvider(t, node)

	resp, err := p.Send(context.Background(), rpc.Request{ID: 77, Method: "eth_chainId"})
	require.NoError(t, err)
	assert.Equal(t, uint64(77), resp.ID)
	assert.Equal(t, uint64(77), node.requests()[0].ID)
}

func TestSendIDMismatchIsAnomaly(t *testing.T) {
	node := newFakeNode()
	node.on("eth_chainId", func(req *rpc.Request) (*rpc.Response, error) {
		return &rpc.Response{ID: req.ID + 1, Result: []byte(`"0x1"`)}, nil
	})
	p := newTestProvider(t, node)

	resp, err := p.Send(context.Background(), rpc.Request{Method: "eth_chainId"})
	assert.Nil(t, resp)
	require.Error(t, err)
	assert.True(t, errors.Is(err, rpc.ErrProtocolAnomaly))
	assert.Contains(t, err.Error(), "sent 1, received 2")
}

func TestSendTransportFailure(t *testing.T) {
	p := newTestProvider(t, rpc.TransportFunc(func(context.Context, *rpc.Request) (*rpc.Response, error) {
		return nil, errors.New("connection refused")
	}))

	_, err := p.Send(context.Background(), rpc.Request{Method: "eth_chainId"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, rpc.ErrTransport))
	assert.Equal(t, rpc.KindTransport, rpc.KindOf(err))
}

func TestSendNilResponseIsTransportFailure(t *testing.T) {
	p := newTestProvider(t, rpc.TransportFunc(func(context.Context, *rpc.Request) (*rpc.Response, error) {
		return nil, nil
	}))

	_, err := p.Send(context.Background(), rpc.Request{Method: "eth_chainId"})
	assert.True(t, errors.Is(err, rpc.ErrTransport))
}

func TestSendClassifiesNodeErrors(t *testing.T) {
	tests := []struct {
		code    int
		message string
		want    error
	}{
		{3, "execution reverted: not owner", rpc.ErrExecutionReverted},
		{-32000, "insufficient funds for gas * price + value", rpc.ErrInsufficientFunds},
		{-32000, "nonce too low", rpc.ErrNonceTooLow},
		{-32000, "unknown account", rpc.ErrUnauthorized},
		{4001, "User rejected the request.", rpc.ErrUnauthorized},
		{-32601, "the method eth_foo does not exist", rpc.ErrUnknownProtocolError},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			node := newFakeNode()
			node.fail("eth_call", tt.code, tt.message)
			p := newTestProvider(t, node)

			_, err := p.Post(context.Background(), rpc.Request{Method: "eth_call"})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)

			var ce *rpc.ClassifiedError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.code, ce.Code)
			assert.Equal(t, tt.message, ce.Message)
		})
	}
}

func TestPostFillsGasAndGasPrice(t *testing.T) {
	node := newFakeNode()
	node.reply(MethodEstimateGas, `"0x186a0"`) // 100000
	node.reply(MethodGasPrice, `"0x14"`)       // 20
	node.reply(MethodSendTransaction, `"0xabc"`)
	p := newTestProvider(t, node)

	tx := TxParams{From: vitalik, To: other, Data: "0x01"}
	resp, err := p.Post(context.Background(), rpc.Request{Method: MethodSendTransaction, Params: []interface{}{tx}})
	require.NoError(t, err)

	hash, err := resp.String()
	require.NoError(t, err)
	assert.Equal(t, "0xabc", hash)

	reqs := node.requests()
	require.Equal(t, []string{MethodEstimateGas, MethodGasPrice, MethodSendTransaction}, node.methods())

	// simulation sees the same params as the real call
	assert.Equal(t, []interface{}{tx}, reqs[0].Params)
	assert.Empty(t, reqs[1].Params)

	sent := reqs[2].Params[0].(TxParams)
	assert.Equal(t, "0x1adb0", sent.Gas)
	assert.Equal(t, "0x16", sent.GasPrice)
	assert.Equal(t, vitalik, sent.From)
	assert.Equal(t, "0x01", sent.Data)

	// every sub-query got its own id
	assert.Equal(t, uint64(1), reqs[0].ID)
	assert.Equal(t, uint64(2), reqs[1].ID)
	assert.Equal(t, uint64(3), reqs[2].ID)
}

func TestPostKeepsExplicitGas(t *testing.T) {
	node := newFakeNode()
	node.reply(MethodGasPrice, `"0x14"`)
	node.reply(MethodSendTransaction, `"0xabc"`)
	p := newTestProvider(t, node)

	params := map[string]interface{}{"from": vitalik, "gas": "0xc350"}
	_, err := p.Post(context.Background(), rpc.Request{Method: MethodSendTransaction, Params: []interface{}{params}})
	require.NoError(t, err)

	assert.Equal(t, []string{MethodGasPrice, MethodSendTransaction}, node.methods())
	sent := node.requests()[1].Params[0].(map[string]interface{})
	assert.Equal(t, "0xc350", sent["gas"])
	assert.Equal(t, "0x16", sent["gasPrice"])

	// caller's map is untouched
	_, hasPrice := params["gasPrice"]
	assert.False(t, hasPrice)
}

func TestPostWithBothCostFieldsSkipsEstimation(t *testing.T) {
	node := newFakeNode()
	node.reply(MethodSendTransaction, `"0xabc"`)
	p := newTestProvider(t, node)

	tx := &TxParams{From: vitalik, Gas: "0x5208", GasPrice: "0x1"}
	_, err := p.Post(context.Background(), rpc.Request{Method: MethodSendTransaction, Params: []interface{}{tx}})
	require.NoError(t, err)

	assert.Equal(t, []string{MethodSendTransaction}, node.methods())
	assert.Same(t, tx, node.requests()[0].Params[0])
}

func TestPostEstimationFailureAborts(t *testing.T) {
	node := newFakeNode()
	node.fail(MethodEstimateGas, -32000, "execution reverted")
	node.reply(MethodGasPrice, `"0x14"`)
	p := newTestProvider(t, node)

	_, err := p.Post(context.Background(), rpc.Request{Method: MethodSendTransaction, Params: []interface{}{TxParams{From: vitalik}}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, rpc.ErrExecutionReverted))
	assert.Equal(t, []string{MethodEstimateGas}, node.methods())
}

func TestPostGasPriceFailureAborts(t *testing.T) {
	node := newFakeNode()
	node.reply(MethodEstimateGas, `"0x5208"`)
	node.on(MethodGasPrice, func(*rpc.Request) (*rpc.Response, error) {
		return nil, context.DeadlineExceeded
	})
	p := newTestProvider(t, node)

	_, err := p.Post(context.Background(), rpc.Request{Method: MethodSendTransaction, Params: []interface{}{TxParams{From: vitalik}}})
	assert.True(t, errors.Is(err, rpc.ErrTransport))
	assert.NotContains(t, node.methods(), MethodSendTransaction)
}

func TestPostWithoutParamsPassesThrough(t *testing.T) {
	node := newFakeNode()
	p := newTestProvider(t, node)

	_, err := p.Post(context.Background(), rpc.Request{Method: MethodSendTransaction})
	require.NoError(t, err)
	assert.Equal(t, []string{MethodSendTransaction}, node.methods())
}

func TestPostOtherMethodsPassThrough(t *testing.T) {
	node := newFakeNode()
	p := newTestProvider(t, node)

	tx := TxParams{From: vitalik, To: other}
	_, err := p.Call(context.Background(), MethodCall, tx, "latest")
	require.NoError(t, err)

	reqs := node.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, []interface{}{tx, "latest"}, reqs[0].Params)
}

func TestGetNetworkVersion(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"string", `"1"`, "1"},
		{"number", `5`, "5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := newFakeNode()
			node.reply(MethodNetVersion, tt.raw)
			p := newTestProvider(t, node)

			v, err := p.GetNetworkVersion(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
			assert.Empty(t, node.requests()[0].Params)
		})
	}
}

func TestSetAccountIDNotifiesBeforeCommit(t *testing.T) {
	p := newTestProvider(t, newFakeNode(), func(o *Options) { o.AccountID = other })

	var payload, seen string
	p.On(events.AccountChange, func(v string) {
		payload = v
		seen = p.AccountID()
	})

	require.NoError(t, p.SetAccountID(vitalikLower))
	assert.Equal(t, vitalik, payload)
	assert.Equal(t, other, seen)
	assert.Equal(t, vitalik, p.AccountID())
}

func TestSetAccountIDInvalidLeavesState(t *testing.T) {
	p := newTestProvider(t, newFakeNode(), func(o *Options) { o.AccountID = vitalik })

	calls := 0
	p.On(events.AccountChange, func(string) { calls++ })

	err := p.SetAccountID("0xnot-an-address")
	assert.True(t, errors.Is(err, address.ErrInvalidAddress))
	assert.Equal(t, 0, calls)
	assert.Equal(t, vitalik, p.AccountID())
}

func TestSetAccountIDClear(t *testing.T) {
	p := newTestProvider(t, newFakeNode(), func(o *Options) { o.AccountID = vitalik })

	got := "unset"
	p.Once(events.AccountChange, func(v string) { got = v })

	require.NoError(t, p.SetAccountID(""))
	assert.Equal(t, "", got)
	assert.Equal(t, "", p.AccountID())
}

func TestSetAccountIDHandlerMaySetAgain(t *testing.T) {
	p := newTestProvider(t, newFakeNode())

	p.Once(events.AccountChange, func(string) {
		require.NoError(t, p.SetAccountID(other))
	})
	require.NoError(t, p.SetAccountID(vitalik))

	// the outer commit lands last
	assert.Equal(t, vitalik, p.AccountID())
}

func TestUnsafeRecipientIDsAllOrNothing(t *testing.T) {
	p := newTestProvider(t, newFakeNode())

	require.NoError(t, p.SetUnsafeRecipientIDs([]string{vitalikLower}))
	assert.Equal(t, []string{vitalik}, p.UnsafeRecipientIDs())
	assert.True(t, p.IsUnsafeRecipient(vitalikLower))
	assert.False(t, p.IsUnsafeRecipient(other))

	err := p.SetUnsafeRecipientIDs([]string{other, "0x12"})
	assert.True(t, errors.Is(err, address.ErrInvalidAddress))
	assert.Equal(t, []string{vitalik}, p.UnsafeRecipientIDs())

	// the returned slice is a copy
	ids := p.UnsafeRecipientIDs()
	ids[0] = other
	assert.Equal(t, []string{vitalik}, p.UnsafeRecipientIDs())
}

func TestOrderGatewayID(t *testing.T) {
	p := newTestProvider(t, newFakeNode())

	require.NoError(t, p.SetOrderGatewayID(otherLower))
	assert.Equal(t, other, p.OrderGatewayID())
	assert.Error(t, p.SetOrderGatewayID("0xzz"))
	assert.Equal(t, other, p.OrderGatewayID())
}

func TestOffRemovesAllHandlers(t *testing.T) {
	p := newTestProvider(t, newFakeNode())

	calls := 0
	p.On(events.AccountChange, func(string) { calls++ })
	p.On(events.AccountChange, func(string) { calls++ })
	p.Off(events.AccountChange)

	require.NoError(t, p.SetAccountID(vitalik))
	assert.Equal(t, 0, calls)
}

func TestOffWithoutHandlers(t *testing.T) {
	a := newTestProvider(t, newFakeNode())
	b := newTestProvider(t, newFakeNode())

	nilSub := a.On(events.AccountChange, nil)
	foreign := a.On(events.NetworkChange, func(string) {})

	assert.NotPanics(t, func() {
		a.Off(events.AccountChange, nilSub)
		b.Off(events.NetworkChange, foreign)
	})
	assert.Equal(t, 1, a.events.Count(events.NetworkChange))
}
