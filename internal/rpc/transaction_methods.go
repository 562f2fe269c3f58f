package rpc

import (
	"encoding/base64"
	"encoding/json"

	"github.com/LeJamon/goOCR2/internal/core/tx"
)

// TxParams carries a base64 msgpack transaction.
type TxParams struct {
	Tx string `json:"tx"`
}

func parseTransaction(params json.RawMessage) (*tx.Transaction, *RpcError) {
	var p TxParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.Tx == "" {
		return nil, RpcErrorInvalidParams("Missing field 'tx'")
	}
	raw, err := base64.StdEncoding.DecodeString(p.Tx)
	if err != nil {
		return nil, RpcErrorTxMalformed("tx is not valid base64")
	}
	t, err := tx.DecodeTransaction(raw)
	if err != nil {
		return nil, RpcErrorTxMalformed(err.Error())
	}
	return t, nil
}

// SubmitMethod handles the submit method. Engine failures are reported in
// engine_result, not as RPC errors.
type SubmitMethod struct{ backend Backend }

func (m *SubmitMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	t, rpcErr := parseTransaction(params)
	if rpcErr != nil {
		return nil, rpcErr
	}
	res, err := m.backend.Submit(ctx.Context, t)
	if err != nil {
		return nil, RpcErrorInternal(err.Error())
	}
	return NewResult(res), nil
}

// SimulateMethod handles the simulate method
type SimulateMethod struct{ backend Backend }

func (m *SimulateMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	t, rpcErr := parseTransaction(params)
	if rpcErr != nil {
		return nil, rpcErr
	}
	return NewResult(m.backend.Simulate(t)), nil
}
