package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dmagro/eth-generic-provider/internal/rpc"
)

// Receipt is the subset of eth_getTransactionReceipt a Mutation reports.
type Receipt struct {
	TransactionHash   string          `json:"transactionHash"`
	BlockHash         string          `json:"blockHash"`
	BlockNumber       string          `json:"blockNumber"`
	From              string          `json:"from"`
	To                string          `json:"to"`
	ContractAddress   string          `json:"contractAddress"`
	GasUsed           string          `json:"gasUsed"`
	EffectiveGasPrice string          `json:"effectiveGasPrice"`
	Status            string          `json:"status"`
	Logs              json.RawMessage `json:"logs"`
}

// Reverted reports a receipt with status 0x0. Pre-Byzantium receipts carry
// no status and are never reported as reverted.
func (r *Receipt) Reverted() bool {
	return r.Status == "0x0"
}

// Mutation is a submitted transaction waiting to be mined.
type Mutation struct {
	provider *Provider
	id       string
}

// NewMutation wraps an already submitted transaction hash.
func (p *Provider) NewMutation(id string) *Mutation {
	return &Mutation{provider: p, id: id}
}

// ID returns the transaction hash.
func (m *Mutation) ID() string { return m.id }

// Receipt fetches the receipt once. A nil receipt and nil error mean the
// transaction is still pending.
func (m *Mutation) Receipt(ctx context.Context) (*Receipt, error) {
	resp, err := m.provider.Send(ctx, rpc.Request{
		Method: MethodGetTransactionReceipt,
		Params: []interface{}{m.id},
	})
	if err != nil {
		return nil, err
	}
	if resp.IsNull() {
		return nil, nil
	}
	var receipt Receipt
	if err := resp.Decode(&receipt); err != nil {
		return nil, rpc.Classify(&rpc.TransportFailure{Err: err})
	}
	return &receipt, nil
}

// Confirmations returns how many blocks, counting the including one, are on
// top of the transaction. Zero means pending.
func (m *Mutation) Confirmations(ctx context.Context) (uint64, *Receipt, error) {
	receipt, err := m.Receipt(ctx)
	if err != nil || receipt == nil || receipt.BlockNumber == "" {
		return 0, receipt, err
	}
	included, err := rpc.ParseHexUint64(receipt.BlockNumber)
	if err != nil {
		return 0, receipt, rpc.Classify(&rpc.TransportFailure{Err: fmt.Errorf("receipt block number: %w", err)})
	}

	resp, err := m.provider.Send(ctx, rpc.Request{Method: MethodBlockNumber})
	if err != nil {
		return 0, receipt, err
	}
	head, err := rpc.ParseQuantity(resp.Result)
	if err != nil {
		return 0, receipt, rpc.Classify(&rpc.TransportFailure{Err: fmt.Errorf("block number: %w", err)})
	}
	if !head.IsUint64() || head.Uint64() < included {
		// node behind the one that served the receipt
		return 0, receipt, nil
	}
	return head.Uint64() - included + 1, receipt, nil
}

// Complete polls until the transaction has the provider's required number
// of confirmations and returns its receipt. A reverted transaction fails
// with rpc.ErrExecutionReverted as soon as its receipt is seen. Complete
// stops when ctx is done.
func (m *Mutation) Complete(ctx context.Context) (*Receipt, error) {
	required := uint64(m.provider.RequiredConfirmations())
	ticker := time.NewTicker(m.provider.pollInterval)
	defer ticker.Stop()

	for {
		confirmations, receipt, err := m.Confirmations(ctx)
		if err != nil {
			return nil, err
		}
		if receipt != nil && receipt.Reverted() {
			return receipt, &rpc.ClassifiedError{
				Kind:    rpc.KindExecutionReverted,
				Message: fmt.Sprintf("transaction %s reverted in block %s", m.id, receipt.BlockNumber),
				Payload: receipt,
			}
		}
		if confirmations >= required {
			m.provider.log.Debug("mutation complete",
				zap.String("tx", m.id),
				zap.Uint64("confirmations", confirmations),
			)
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, rpc.Classify(ctx.Err())
		case <-ticker.C:
		}
	}
}

// SendTransaction submits tx through Post, so missing gas and gas price are
// filled first. From defaults to the active account.
func (p *Provider) SendTransaction(ctx context.Context, tx TxParams) (*Mutation, error) {
	if tx.From == "" {
		tx.From = p.AccountID()
	}
	if tx.From == "" {
		return nil, ErrNoAccount
	}

	resp, err := p.Post(ctx, rpc.Request{Method: MethodSendTransaction, Params: []interface{}{tx}})
	if err != nil {
		return nil, err
	}
	hash, err := resp.String()
	if err != nil {
		return nil, rpc.Classify(&rpc.TransportFailure{Err: err})
	}
	return p.NewMutation(hash), nil
}
