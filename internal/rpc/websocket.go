package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/LeJamon/goOCR2/internal/core/tx"
	"github.com/LeJamon/goOCR2/internal/core/types"
	"github.com/LeJamon/goOCR2/internal/indexer"
	"github.com/LeJamon/goOCR2/internal/log"
)

// Connection limits
const (
	maxMessageSize = 512 * 1024
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	writeWait      = 10 * time.Second
	sendBuffer     = 256
)

// WebSocketServer handles WebSocket connections for commands and
// subscriptions
type WebSocketServer struct {
	upgrader         websocket.Upgrader
	methodRegistry   *MethodRegistry
	connections      map[string]*WebSocketConnection
	connectionsMutex sync.RWMutex
	nextID           atomic.Uint64
	logger           zerolog.Logger
}

// WebSocketConnection represents a single WebSocket connection
type WebSocketConnection struct {
	ID      string
	conn    *websocket.Conn
	streams map[SubscriptionType]bool
	feeds   map[types.Address]bool
	sendChannel chan []byte
	mutex     sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewWebSocketServer creates a WebSocket server answering commands from
// registry.
func NewWebSocketServer(registry *MethodRegistry) *WebSocketServer {
	return &WebSocketServer{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		methodRegistry: registry,
		connections:    make(map[string]*WebSocketConnection),
		logger:         log.Component("websocket"),
	}
}

// ServeHTTP handles WebSocket upgrade requests
func (ws *WebSocketServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		ws.logger.Debug().Err(err).Msg("upgrade failed")
		return
	}

	// The connection outlives the request.
	ctx, cancel := context.WithCancel(context.Background())
	wsConn := &WebSocketConnection{
		ID:          fmt.Sprintf("conn_%d", ws.nextID.Add(1)),
		conn:        conn,
		streams:     make(map[SubscriptionType]bool),
		feeds:       make(map[types.Address]bool),
		sendChannel: make(chan []byte, sendBuffer),
		ctx:         ctx,
		cancel:      cancel,
	}

	ws.connectionsMutex.Lock()
	ws.connections[wsConn.ID] = wsConn
	ws.connectionsMutex.Unlock()

	ws.logger.Debug().Str("conn", wsConn.ID).Str("remote", conn.RemoteAddr().String()).Msg("connection opened")

	go ws.handleConnection(wsConn)
	go ws.handleSend(wsConn)
}

// handleConnection reads messages until the peer goes away
func (ws *WebSocketServer) handleConnection(wsConn *WebSocketConnection) {
	defer ws.closeConnection(wsConn)

	wsConn.conn.SetReadLimit(maxMessageSize)
	_ = wsConn.conn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.conn.SetPongHandler(func(string) error {
		return wsConn.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := wsConn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				ws.logger.Debug().Err(err).Str("conn", wsConn.ID).Msg("read failed")
			}
			return
		}
		ws.handleMessage(wsConn, message)
	}
}

// handleSend writes queued messages and keeps the connection alive
func (ws *WebSocketServer) handleSend(wsConn *WebSocketConnection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ws.closeConnection(wsConn)
	}()

	for {
		select {
		case <-wsConn.ctx.Done():
			_ = wsConn.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case message := <-wsConn.sendChannel:
			_ = wsConn.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				ws.logger.Debug().Err(err).Str("conn", wsConn.ID).Msg("send failed")
				return
			}
		case <-ticker.C:
			_ = wsConn.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage processes a single command. Commands carry their
// parameters at the top level next to "command" and "id".
func (ws *WebSocketServer) handleMessage(wsConn *WebSocketConnection, message []byte) {
	var cmdMap map[string]json.RawMessage
	if err := json.Unmarshal(message, &cmdMap); err != nil {
		ws.sendError(wsConn, NewRpcError(RpcPARSE_ERROR, "jsonInvalid", "jsonInvalid", "Invalid JSON: "+err.Error()), nil)
		return
	}

	var id interface{}
	if raw, ok := cmdMap["id"]; ok {
		_ = json.Unmarshal(raw, &id)
	}

	var command string
	if raw, ok := cmdMap["command"]; ok {
		_ = json.Unmarshal(raw, &command)
	}
	if command == "" {
		ws.sendError(wsConn, RpcErrorMissingCommand(), id)
		return
	}

	delete(cmdMap, "command")
	delete(cmdMap, "id")
	var params json.RawMessage
	if len(cmdMap) > 0 {
		params, _ = json.Marshal(cmdMap)
	}

	switch command {
	case "subscribe":
		ws.handleSubscribe(wsConn, id, params, true)
		return
	case "unsubscribe":
		ws.handleSubscribe(wsConn, id, params, false)
		return
	}

	handler, exists := ws.methodRegistry.Get(command)
	if !exists {
		ws.sendError(wsConn, RpcErrorMethodNotFound(command), id)
		return
	}

	ctx := &RpcContext{Context: wsConn.ctx, ClientIP: wsConn.conn.RemoteAddr().String()}
	result, rpcErr := handler.Handle(ctx, params)
	if rpcErr != nil {
		ws.sendError(wsConn, rpcErr, id)
		return
	}
	ws.sendResponse(wsConn, WebSocketResponse{Type: "response", ID: id, Status: "success", Result: result})
}

// handleSubscribe adds or removes streams. Feeds narrow the transmissions
// stream; without feeds every feed is delivered.
func (ws *WebSocketServer) handleSubscribe(wsConn *WebSocketConnection, id interface{}, params json.RawMessage, subscribe bool) {
	var request SubscriptionRequest
	if err := decodeParams(params, &request); err != nil {
		ws.sendError(wsConn, err, id)
		return
	}
	if len(request.Streams) == 0 && len(request.Feeds) == 0 {
		ws.sendError(wsConn, RpcErrorInvalidParams("Missing field 'streams'"), id)
		return
	}
	for _, s := range request.Streams {
		if !knownStreams[s] {
			ws.sendError(wsConn, RpcErrorStreamMalformed("Unknown stream: "+string(s)), id)
			return
		}
	}
	feeds := make([]types.Address, 0, len(request.Feeds))
	for _, f := range request.Feeds {
		addr, err := types.ParseAddress(f)
		if err != nil {
			ws.sendError(wsConn, RpcErrorActMalformed("feeds: "+err.Error()), id)
			return
		}
		feeds = append(feeds, addr)
	}

	wsConn.mutex.Lock()
	for _, s := range request.Streams {
		if subscribe {
			wsConn.streams[s] = true
		} else {
			delete(wsConn.streams, s)
		}
	}
	for _, f := range feeds {
		if subscribe {
			wsConn.feeds[f] = true
		} else {
			delete(wsConn.feeds, f)
		}
	}
	wsConn.mutex.Unlock()

	ws.sendResponse(wsConn, WebSocketResponse{Type: "response", ID: id, Status: "success", Result: map[string]interface{}{}})
}

// sendResponse sends a WebSocket response
func (ws *WebSocketServer) sendResponse(wsConn *WebSocketConnection, response WebSocketResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		ws.logger.Error().Err(err).Msg("failed to marshal response")
		return
	}
	ws.enqueue(wsConn, data)
}

// sendError sends an error response with flat error fields
func (ws *WebSocketServer) sendError(wsConn *WebSocketConnection, rpcErr *RpcError, id interface{}) {
	response := map[string]interface{}{
		"type":          "response",
		"status":        "error",
		"error":         rpcErr.ErrorString,
		"error_code":    rpcErr.Code,
		"error_message": rpcErr.Message,
	}
	if id != nil {
		response["id"] = id
	}

	data, err := json.Marshal(response)
	if err != nil {
		ws.logger.Error().Err(err).Msg("failed to marshal error response")
		return
	}
	ws.enqueue(wsConn, data)
}

// enqueue queues data for wsConn. A connection whose buffer is full is
// dropped.
func (ws *WebSocketServer) enqueue(wsConn *WebSocketConnection, data []byte) {
	select {
	case wsConn.sendChannel <- data:
	case <-wsConn.ctx.Done():
	default:
		ws.logger.Warn().Str("conn", wsConn.ID).Msg("send buffer full, closing connection")
		ws.closeConnection(wsConn)
	}
}

// closeConnection closes a WebSocket connection
func (ws *WebSocketServer) closeConnection(wsConn *WebSocketConnection) {
	wsConn.closeOnce.Do(func() {
		wsConn.cancel()

		ws.connectionsMutex.Lock()
		delete(ws.connections, wsConn.ID)
		ws.connectionsMutex.Unlock()

		// Give the writer a chance to send the close frame.
		time.AfterFunc(writeWait, func() { _ = wsConn.conn.Close() })
		ws.logger.Debug().Str("conn", wsConn.ID).Msg("connection closed")
	})
}

// Close disconnects every client.
func (ws *WebSocketServer) Close() {
	ws.connectionsMutex.RLock()
	conns := make([]*WebSocketConnection, 0, len(ws.connections))
	for _, c := range ws.connections {
		conns = append(conns, c)
	}
	ws.connectionsMutex.RUnlock()

	for _, c := range conns {
		ws.closeConnection(c)
	}
}

// SubscriberCount returns how many connections receive stream.
func (ws *WebSocketServer) SubscriberCount(stream SubscriptionType) int {
	ws.connectionsMutex.RLock()
	defer ws.connectionsMutex.RUnlock()

	n := 0
	for _, c := range ws.connections {
		c.mutex.RLock()
		if c.streams[stream] {
			n++
		}
		c.mutex.RUnlock()
	}
	return n
}

// PublishResult pushes a committed transaction to "transactions"
// subscribers and each of its transmissions to "transmissions"
// subscribers. Results that were not applied successfully are ignored.
func (ws *WebSocketServer) PublishResult(res tx.ApplyResult) {
	if !res.Applied || !res.Result.IsSuccess() {
		return
	}
	ws.broadcast(SubTransactions, nil, TransactionEvent{Type: "transaction", Result: NewResult(res)})

	evs, err := indexer.Transmissions(res)
	if err != nil {
		ws.logger.Error().Err(err).Msg("failed to decode transmissions")
	}
	for _, ev := range evs {
		feed := ev.Feed
		ws.broadcast(SubTransmissions, &feed, NewTransmissionEvent(ev, res.TxHash))
	}
}

// broadcast sends message to every connection subscribed to stream. When
// feed is set, connections filtering on other feeds are skipped.
func (ws *WebSocketServer) broadcast(stream SubscriptionType, feed *types.Address, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		ws.logger.Error().Err(err).Msg("failed to marshal broadcast message")
		return
	}

	ws.connectionsMutex.RLock()
	targets := make([]*WebSocketConnection, 0, len(ws.connections))
	for _, c := range ws.connections {
		c.mutex.RLock()
		ok := c.streams[stream] && (feed == nil || len(c.feeds) == 0 || c.feeds[*feed])
		c.mutex.RUnlock()
		if ok {
			targets = append(targets, c)
		}
	}
	ws.connectionsMutex.RUnlock()

	for _, c := range targets {
		ws.enqueue(c, data)
	}
}
