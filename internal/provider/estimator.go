package provider

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dmagro/eth-generic-provider/internal/rpc"
)

// Method names the provider treats specially.
const (
	MethodSendTransaction       = "eth_sendTransaction"
	MethodEstimateGas           = "eth_estimateGas"
	MethodGasPrice              = "eth_gasPrice"
	MethodNetVersion            = "net_version"
	MethodBlockNumber           = "eth_blockNumber"
	MethodGetTransactionReceipt = "eth_getTransactionReceipt"
	MethodCall                  = "eth_call"
	MethodSign                  = "eth_sign"
	MethodPersonalSign          = "personal_sign"
)

// TxParams is the parameter object of eth_sendTransaction. Quantities are
// 0x-hex strings as they go on the wire; an empty string is "unset" and is
// omitted from the request.
type TxParams struct {
	From     string `json:"from,omitempty"`
	To       string `json:"to,omitempty"`
	Data     string `json:"data,omitempty"`
	Value    string `json:"value,omitempty"`
	Gas      string `json:"gas,omitempty"`
	GasPrice string `json:"gasPrice,omitempty"`
	Nonce    string `json:"nonce,omitempty"`
}

// Sender is the low-level path the estimator issues its queries on.
type Sender interface {
	Send(ctx context.Context, req rpc.Request) (*rpc.Response, error)
}

// Estimator fills missing gas and gas price on state-changing calls.
type Estimator struct {
	sender     Sender
	multiplier decimal.Decimal
	log        *zap.Logger
}

// NewEstimator creates an estimator that scales every estimate by multiplier
// and rounds up.
func NewEstimator(sender Sender, multiplier decimal.Decimal, log *zap.Logger) *Estimator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Estimator{sender: sender, multiplier: multiplier, log: log}
}

// Multiplier returns the safety factor in use.
func (e *Estimator) Multiplier() decimal.Decimal { return e.multiplier }

// Apply scales v by the multiplier, rounding up to a whole unit.
func (e *Estimator) Apply(v *big.Int) *big.Int {
	return decimal.NewFromBigInt(v, 0).Mul(e.multiplier).Ceil().BigInt()
}

// Fill returns params with the cost fields of params[0] completed.
//
// Fields the caller already set are never touched, and when both are set no
// query is made. The caller's params and parameter object are not modified;
// a filled copy is returned. If an estimation query fails its classified
// error is returned and nothing else happens.
func (e *Estimator) Fill(ctx context.Context, params []interface{}) ([]interface{}, error) {
	if len(params) == 0 {
		return params, nil
	}
	gasSet, priceSet, ok := costFields(params[0])
	if !ok || (gasSet && priceSet) {
		return params, nil
	}

	var gas, gasPrice string
	if !gasSet {
		// simulate with exactly the params of the real call
		est, err := e.query(ctx, MethodEstimateGas, params)
		if err != nil {
			return nil, err
		}
		gas = hexutil.EncodeBig(e.Apply(est))
		e.log.Debug("filled gas", zap.String("estimate", est.String()), zap.String("gas", gas))
	}
	if !priceSet {
		// eth_gasPrice takes no arguments; geth rejects extra ones
		est, err := e.query(ctx, MethodGasPrice, []interface{}{})
		if err != nil {
			return nil, err
		}
		gasPrice = hexutil.EncodeBig(e.Apply(est))
		e.log.Debug("filled gas price", zap.String("estimate", est.String()), zap.String("gasPrice", gasPrice))
	}

	out := make([]interface{}, len(params))
	copy(out, params)
	out[0] = withCost(params[0], gas, gasPrice)
	return out, nil
}

func (e *Estimator) query(ctx context.Context, method string, params []interface{}) (*big.Int, error) {
	resp, err := e.sender.Send(ctx, rpc.Request{Method: method, Params: params})
	if err != nil {
		return nil, err
	}
	v, err := rpc.ParseQuantity(resp.Result)
	if err != nil {
		// a reply that is not a quantity is a malformed payload
		return nil, rpc.Classify(&rpc.TransportFailure{Err: fmt.Errorf("%s: %w", method, err)})
	}
	return v, nil
}

// costFields reports which cost fields of a parameter object are present.
// ok is false for shapes the estimator does not understand; those are
// passed through untouched.
func costFields(v interface{}) (gasSet, priceSet, ok bool) {
	switch tx := v.(type) {
	case TxParams:
		return tx.Gas != "", tx.GasPrice != "", true
	case *TxParams:
		if tx == nil {
			return false, false, false
		}
		return tx.Gas != "", tx.GasPrice != "", true
	case map[string]interface{}:
		// a key present with a null value counts as set
		_, gasSet = tx["gas"]
		_, priceSet = tx["gasPrice"]
		return gasSet, priceSet, true
	}
	return false, false, false
}

// withCost returns a copy of v with the non-empty values set.
func withCost(v interface{}, gas, gasPrice string) interface{} {
	switch tx := v.(type) {
	case TxParams:
		return fillTx(tx, gas, gasPrice)
	case *TxParams:
		filled := fillTx(*tx, gas, gasPrice)
		return &filled
	case map[string]interface{}:
		filled := make(map[string]interface{}, len(tx)+2)
		for k, val := range tx {
			filled[k] = val
		}
		if gas != "" {
			filled["gas"] = gas
		}
		if gasPrice != "" {
			filled["gasPrice"] = gasPrice
		}
		return filled
	}
	return v
}

func fillTx(tx TxParams, gas, gasPrice string) TxParams {
	if gas != "" {
		tx.Gas = gas
	}
	if gasPrice != "" {
		tx.GasPrice = gasPrice
	}
	return tx
}
