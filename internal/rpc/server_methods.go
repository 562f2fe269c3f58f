package rpc

import (
	"encoding/json"
)

// ServerInfoMethod handles the server_info method
type ServerInfoMethod struct{ backend Backend }

func (m *ServerInfoMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	return map[string]interface{}{"info": m.backend.Info()}, nil
}

// PingMethod handles the ping method
type PingMethod struct{}

func (m *PingMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	return map[string]interface{}{}, nil
}
