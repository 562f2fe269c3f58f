// Package rpc serves the JSON-RPC and WebSocket interfaces of the node.
package rpc

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/LeJamon/goOCR2/internal/log"
)

// DefaultMaxRequestBytes bounds a request body.
const DefaultMaxRequestBytes = 1 << 20

// Server handles HTTP JSON-RPC requests
type Server struct {
	registry *MethodRegistry
	backend  Backend
	maxBytes int64
	logger   zerolog.Logger
}

// NewServer creates a new RPC server on top of backend
func NewServer(backend Backend, maxRequestBytes int64) *Server {
	if maxRequestBytes <= 0 {
		maxRequestBytes = DefaultMaxRequestBytes
	}
	server := &Server{
		registry: NewMethodRegistry(),
		backend:  backend,
		maxBytes: maxRequestBytes,
		logger:   log.Component("rpc"),
	}

	server.registerAllMethods()

	return server
}

// Registry exposes the method registry, shared with the WebSocket server.
func (s *Server) Registry() *MethodRegistry {
	return s.registry
}

// ServeHTTP implements http.Handler interface
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Content-Type", "application/json")

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		s.handleGetRequest(w, r)
	case http.MethodPost:
		s.handlePostRequest(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleGetRequest answers GET /?command=name for parameterless methods.
func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	method := r.URL.Query().Get("command")
	if method == "" {
		method = "server_info"
	}

	ctx := &RpcContext{Context: r.Context(), ClientIP: getClientIP(r)}
	result, rpcErr := s.executeMethod(method, nil, ctx)
	s.writeResponse(w, map[string]interface{}{"command": method}, result, rpcErr)
}

// handlePostRequest processes POST requests with a JSON-RPC payload
func (s *Server) handlePostRequest(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeResponse(w, nil, nil, RpcErrorInvalidParams("Request body too large"))
			return
		}
		s.writeResponse(w, nil, nil, RpcErrorInternal("Failed to read request body"))
		return
	}

	var request Request
	if err := json.Unmarshal(body, &request); err != nil {
		s.writeResponse(w, nil, nil, NewRpcError(RpcPARSE_ERROR, "jsonInvalid", "jsonInvalid", "Invalid JSON: "+err.Error()))
		return
	}
	if request.Method == "" {
		s.writeResponse(w, nil, nil, RpcErrorMissingCommand())
		return
	}

	// params is an array holding one object
	var params json.RawMessage
	if len(request.Params) > 0 {
		params = request.Params[0]
	}

	ctx := &RpcContext{Context: r.Context(), ClientIP: getClientIP(r)}
	result, rpcErr := s.executeMethod(request.Method, params, ctx)

	requestObj := map[string]interface{}{}
	if params != nil {
		_ = json.Unmarshal(params, &requestObj)
	}
	requestObj["command"] = request.Method

	s.writeResponse(w, requestObj, result, rpcErr)
}

// executeMethod executes an RPC method with the given parameters
func (s *Server) executeMethod(method string, params json.RawMessage, ctx *RpcContext) (interface{}, *RpcError) {
	handler, exists := s.registry.Get(method)
	if !exists {
		return nil, RpcErrorMethodNotFound(method)
	}

	result, rpcErr := handler.Handle(ctx, params)
	if rpcErr != nil {
		s.logger.Debug().Str("method", method).Str("client", ctx.ClientIP).Str("error", rpcErr.ErrorString).Msg("rpc failed")
	}
	return result, rpcErr
}

// writeResponse writes a response. Both outcomes carry result.status; error
// responses echo the request.
func (s *Server) writeResponse(w http.ResponseWriter, request interface{}, result interface{}, rpcErr *RpcError) {
	var resultObj map[string]interface{}
	if rpcErr != nil {
		resultObj = map[string]interface{}{
			"status":        "error",
			"error":         rpcErr.ErrorString,
			"error_code":    rpcErr.Code,
			"error_message": rpcErr.Message,
		}
		if request != nil {
			resultObj["request"] = request
		}
	} else {
		resultObj = toObject(result)
		resultObj["status"] = "success"
	}

	responseData, err := json.Marshal(map[string]interface{}{"result": resultObj})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to marshal response")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(responseData)
}

// toObject turns a handler result into a JSON object so that status can be
// added next to its fields. Non-object results are wrapped under "data".
func toObject(result interface{}) map[string]interface{} {
	if m, ok := result.(map[string]interface{}); ok {
		return m
	}
	raw, err := json.Marshal(result)
	if err == nil {
		var m map[string]interface{}
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if dec.Decode(&m) == nil && m != nil {
			return m
		}
	}
	return map[string]interface{}{"data": result}
}

// getClientIP extracts the client IP from the request
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
