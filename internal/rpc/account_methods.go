package rpc

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"

	"github.com/LeJamon/goOCR2/internal/core/ledger/keylet"
	"github.com/LeJamon/goOCR2/internal/core/tx"
	"github.com/LeJamon/goOCR2/internal/core/tx/ocr2"
	"github.com/LeJamon/goOCR2/internal/core/types"
)

func parseAddress(field, value string) (types.Address, *RpcError) {
	if value == "" {
		return types.Address{}, RpcErrorInvalidParams("Missing field '" + field + "'")
	}
	addr, err := types.ParseAddress(value)
	if err != nil {
		return types.Address{}, RpcErrorActMalformed(field + ": " + err.Error())
	}
	return addr, nil
}

// AccountInfoParams is the body of account_info.
type AccountInfoParams struct {
	Address string `json:"address"`
}

// AccountInfoMethod handles the account_info method
type AccountInfoMethod struct{ backend Backend }

func (m *AccountInfoMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var p AccountInfoParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	addr, rpcErr := parseAddress("address", p.Address)
	if rpcErr != nil {
		return nil, rpcErr
	}

	a, err := m.backend.Read(keylet.Account(addr))
	if err != nil {
		return nil, RpcErrorInternal(err.Error())
	}
	if a == nil {
		return nil, RpcErrorActNotFound(p.Address)
	}

	return map[string]interface{}{
		"address":  addr.String(),
		"owner":    a.Owner.String(),
		"lamports": a.Lamports,
		"nonce":    a.Nonce,
		"space":    len(a.Data),
		"type":     a.Type().String(),
		"data":     base64.StdEncoding.EncodeToString(a.Data),
	}, nil
}

// AggregatorInfoParams is the body of aggregator_info.
type AggregatorInfoParams struct {
	State string `json:"state"`
}

// AggregatorInfoMethod handles the aggregator_info method
type AggregatorInfoMethod struct{ backend Backend }

func (m *AggregatorInfoMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var p AggregatorInfoParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	addr, rpcErr := parseAddress("state", p.State)
	if rpcErr != nil {
		return nil, rpcErr
	}

	s, err := ocr2.ReadState(m.backend, addr)
	if err != nil {
		if errors.Is(err, tx.ErrNotFound) {
			return nil, RpcErrorActNotFound(p.State)
		}
		return nil, RpcErrorInternal(err.Error())
	}

	oracles := make([]map[string]interface{}, len(s.Oracles))
	for i, o := range s.Oracles {
		oracles[i] = map[string]interface{}{
			"signer":         o.Signer.String(),
			"transmitter":    o.Transmitter.String(),
			"payee":          o.Payee.String(),
			"from_round_id":  o.FromRoundID,
			"payment_gjuels": o.PaymentGjuels,
		}
	}

	return map[string]interface{}{
		"state":                addr.String(),
		"owner":                s.Owner.String(),
		"feed":                 s.Feed.String(),
		"config_digest":        hex.EncodeToString(s.Config.LatestConfigDigest[:]),
		"config_count":         s.Config.ConfigCount,
		"f":                    s.Config.F,
		"epoch":                s.Config.Epoch,
		"round":                s.Config.Round,
		"latest_round_id":      s.Config.LatestAggregatorRoundID,
		"latest_transmitter":   s.Config.LatestTransmitter.String(),
		"min_answer":           s.Config.MinAnswer.String(),
		"max_answer":           s.Config.MaxAnswer.String(),
		"billing":              s.Config.Billing,
		"token_mint":           s.Config.TokenMint.String(),
		"token_vault":          s.Config.TokenVault.String(),
		"offchain_version":     s.OffchainConfig.Version,
		"offchain_config_size": len(s.OffchainConfig.Data),
		"total_owed_gjuels":    s.TotalOwed().String(),
		"oracles":              oracles,
	}, nil
}
