package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmagro/eth-generic-provider/internal/rpc"
)

func TestSign(t *testing.T) {
	tests := []struct {
		method     SignMethod
		wantMethod string
		wantParams []interface{}
	}{
		{SignEthSign, MethodSign, []interface{}{vitalik, "0xdeadbeef"}},
		{SignPersonal, MethodPersonalSign, []interface{}{"0xdeadbeef", vitalik}},
	}

	for _, tt := range tests {
		t.Run(tt.method.String(), func(t *testing.T) {
			node := newFakeNode()
			node.reply(tt.wantMethod, `"0x5151"`)
			p := newTestProvider(t, node, func(o *Options) {
				o.AccountID = vitalikLower
				o.SignMethod = tt.method
			})

			sig, err := p.Sign(context.Background(), "0xdeadbeef")
			require.NoError(t, err)
			assert.Equal(t, "0x5151", sig)

			reqs := node.requests()
			require.Len(t, reqs, 1)
			assert.Equal(t, tt.wantMethod, reqs[0].Method)
			assert.Equal(t, tt.wantParams, reqs[0].Params)
		})
	}
}

func TestSignUnsupportedMethod(t *testing.T) {
	for _, m := range []SignMethod{SignTrezor, SignEIP712} {
		node := newFakeNode()
		p := newTestProvider(t, node, func(o *Options) {
			o.AccountID = vitalik
			o.SignMethod = m
		})

		_, err := p.Sign(context.Background(), "0x00")
		assert.ErrorIs(t, err, ErrUnsupportedSignMethod)
		assert.Empty(t, node.requests())
	}
}

func TestSignWithoutAccount(t *testing.T) {
	p := newTestProvider(t, newFakeNode())
	_, err := p.Sign(context.Background(), "0x00")
	assert.ErrorIs(t, err, ErrNoAccount)
}

func TestSignRejectedByWallet(t *testing.T) {
	node := newFakeNode()
	node.fail(MethodSign, 4001, "User denied message signature")
	p := newTestProvider(t, node, func(o *Options) { o.AccountID = vitalik })

	_, err := p.Sign(context.Background(), "0x00")
	assert.True(t, errors.Is(err, rpc.ErrUnauthorized))
}

func TestParseSignMethod(t *testing.T) {
	tests := []struct {
		in      string
		want    SignMethod
		wantErr bool
	}{
		{"", SignEthSign, false},
		{"eth_sign", SignEthSign, false},
		{" Personal_Sign ", SignPersonal, false},
		{"trezor", SignTrezor, false},
		{"eip712", SignEIP712, false},
		{"ledger", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseSignMethod(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		if tt.in != "" {
			assert.Equal(t, got, mustParse(t, got.String()))
		}
	}
	assert.Equal(t, "SignMethod(9)", SignMethod(9).String())
}

func mustParse(t *testing.T, s string) SignMethod {
	t.Helper()
	m, err := ParseSignMethod(s)
	require.NoError(t, err)
	return m
}
