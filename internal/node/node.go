// Package node assembles the ledger engine, the round index and the network
// listeners into a running ocr2d process.
package node

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/LeJamon/goOCR2/internal/config"
	"github.com/LeJamon/goOCR2/internal/core/ledger/keylet"
	"github.com/LeJamon/goOCR2/internal/core/tx"
	"github.com/LeJamon/goOCR2/internal/core/types"
	"github.com/LeJamon/goOCR2/internal/di"
	grpcserver "github.com/LeJamon/goOCR2/internal/grpc"
	"github.com/LeJamon/goOCR2/internal/indexer"
	"github.com/LeJamon/goOCR2/internal/log"
	"github.com/LeJamon/goOCR2/internal/rpc"
	"github.com/LeJamon/goOCR2/internal/storage/relationaldb"
	"github.com/LeJamon/goOCR2/internal/storage/statestore"
)

// Version is reported by server_info and the version command.
var Version = "0.1.0-dev"

// Node owns every service of a running ocr2d instance.
type Node struct {
	config    *config.Config
	container *di.Container
	state     *statestore.Store
	engine    *tx.Engine
	index     relationaldb.RoundRepository
	indexer   *indexer.Indexer

	rpc  *rpc.Server
	ws   *rpc.WebSocketServer
	grpc *grpcserver.Server

	mu        sync.Mutex
	listeners map[string]net.Listener
	started   time.Time
	logger    zerolog.Logger
}

var _ rpc.Backend = (*Node)(nil)

// Listener names used by Addr.
const (
	ListenerHTTP = "http"
	ListenerWS   = "ws"
	ListenerGRPC = "grpc"
)

// New opens the state store and the optional round index described by cfg.
// A nil clock uses the system clock.
func New(cfg *config.Config, clock tx.Clock) (*Node, error) {
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}

	container := di.New()
	provider := di.NewProvider(container, cfg, clock)
	if err := provider.RegisterAll(); err != nil {
		return nil, err
	}

	n := &Node{
		config:    cfg,
		container: container,
		listeners: make(map[string]net.Listener),
		started:   time.Now(),
		logger:    log.Component("node"),
	}

	var err error
	if n.engine, err = provider.GetEngine(); err != nil {
		container.Close()
		return nil, fmt.Errorf("open state: %w", err)
	}
	if n.state, err = di.Resolve[*statestore.Store](container, di.ServiceStateStore); err != nil {
		container.Close()
		return nil, fmt.Errorf("open state: %w", err)
	}
	if n.index, err = provider.GetRoundIndex(); err != nil {
		container.Close()
		return nil, fmt.Errorf("open round index: %w", err)
	}
	if n.indexer, err = provider.GetIndexer(); err != nil {
		container.Close()
		return nil, fmt.Errorf("open round index: %w", err)
	}

	n.rpc = rpc.NewServer(n, cfg.Server.MaxRequestBytes)
	n.ws = rpc.NewWebSocketServer(n.rpc.Registry())

	if cfg.Server.GRPCAddr != "" {
		grpcCfg := grpcserver.DefaultServerConfig()
		grpcCfg.Address = cfg.Server.GRPCAddr
		if n.grpc, err = grpcserver.NewServer(grpcCfg, n.engine); err != nil {
			container.Close()
			return nil, err
		}
	}
	return n, nil
}

// Engine returns the transaction engine.
func (n *Node) Engine() *tx.Engine { return n.engine }

// State returns the account store backing the engine.
func (n *Node) State() *statestore.Store { return n.state }

// Registry returns the JSON-RPC methods served by the node.
func (n *Node) Registry() *rpc.MethodRegistry { return n.rpc.Registry() }

// Read returns a committed account.
func (n *Node) Read(k keylet.Keylet) (*tx.Account, error) {
	return n.engine.Read(k)
}

// Submit applies t, indexes its transmissions and publishes it to
// subscribers. Index failures are logged; the transaction stays committed.
func (n *Node) Submit(ctx context.Context, t *tx.Transaction) (tx.ApplyResult, error) {
	res := n.engine.Apply(t)
	n.logger.Debug().
		Str("tx", hex.EncodeToString(res.TxHash[:])).
		Str("result", res.Result.String()).
		Uint64("slot", res.Slot).
		Msg("transaction submitted")

	if n.indexer != nil {
		if _, err := n.indexer.Index(ctx, res); err != nil {
			n.logger.Error().Err(err).Str("tx", hex.EncodeToString(res.TxHash[:])).Msg("failed to index transaction")
		}
	}
	n.ws.PublishResult(res)
	return res, nil
}

// Simulate runs t without committing.
func (n *Node) Simulate(t *tx.Transaction) tx.ApplyResult {
	return n.engine.Simulate(t)
}

// RoundHistory returns indexed rounds of feed, newest first.
func (n *Node) RoundHistory(ctx context.Context, feed types.Address, limit int) ([]relationaldb.RoundRecord, error) {
	if n.index == nil {
		return nil, rpc.ErrIndexDisabled
	}
	return n.index.LatestRounds(ctx, feed, limit)
}

// Info reports the node status.
func (n *Node) Info() rpc.ServerInfo {
	engineCfg := n.engine.Config()
	return rpc.ServerInfo{
		BuildVersion:         Version,
		Slot:                 n.engine.Slot(),
		Uptime:               uint64(time.Since(n.started).Seconds()),
		StateBackend:         n.config.Database.Backend,
		IndexDriver:          n.indexDriver(),
		LamportsPerSignature: engineCfg.LamportsPerSignature,
		RentPerByte:          engineCfg.RentPerByte,
		Subscribers:          n.ws.SubscriberCount(rpc.SubTransmissions),
	}
}

func (n *Node) indexDriver() string {
	if !n.config.Index.Enabled() {
		return config.IndexDriverNone
	}
	return n.config.Index.Driver
}

// Handler returns the HTTP handler of the JSON-RPC listener. It also serves
// WebSocket upgrades on /ws.
func (n *Node) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", n.rpc)
	mux.Handle("/rpc", n.rpc)
	mux.Handle("/ws", n.ws)
	mux.HandleFunc("/health", n.health)
	return mux
}

func (n *Node) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","service":"ocr2d","slot":%d}`, n.engine.Slot())
}

// Listen binds every configured listener. Listeners already bound are kept.
func (n *Node) Listen() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	bind := func(name, addr string) error {
		if addr == "" || n.listeners[name] != nil {
			return nil
		}
		l, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("listen %s on %s: %w", name, addr, err)
		}
		n.listeners[name] = l
		return nil
	}

	s := n.config.Server
	if err := bind(ListenerHTTP, s.HTTPAddr); err != nil {
		return err
	}
	if err := bind(ListenerWS, s.WSAddr); err != nil {
		return err
	}
	if n.grpc != nil {
		return bind(ListenerGRPC, s.GRPCAddr)
	}
	return nil
}

// Addr returns the bound address of a listener, or an empty string.
func (n *Node) Addr(name string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if l := n.listeners[name]; l != nil {
		return l.Addr().String()
	}
	return ""
}

// Run binds the listeners and serves until ctx is cancelled or a listener
// fails. It then shuts every listener down.
func (n *Node) Run(ctx context.Context) error {
	if err := n.Listen(); err != nil {
		return err
	}

	n.mu.Lock()
	listeners := make(map[string]net.Listener, len(n.listeners))
	for name, l := range n.listeners {
		listeners[name] = l
	}
	n.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	var servers []*http.Server

	if l := listeners[ListenerHTTP]; l != nil {
		servers = append(servers, n.serveHTTP(g, ListenerHTTP, l, n.Handler()))
	}
	if l := listeners[ListenerWS]; l != nil {
		servers = append(servers, n.serveHTTP(g, ListenerWS, l, n.ws))
	}
	if l := listeners[ListenerGRPC]; l != nil {
		g.Go(func() error {
			err := n.grpc.Serve(l)
			if errors.Is(err, grpc.ErrServerStopped) {
				return nil
			}
			return err
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		n.logger.Info().Msg("shutting down listeners")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), n.config.Server.ShutdownTimeout)
		defer cancel()

		n.ws.Close()
		var errs []error
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, err)
			}
		}
		if n.grpc != nil {
			n.grpc.Stop()
		}
		return errors.Join(errs...)
	})

	err := g.Wait()

	n.mu.Lock()
	n.listeners = make(map[string]net.Listener)
	n.mu.Unlock()
	return err
}

func (n *Node) serveHTTP(g *errgroup.Group, name string, l net.Listener, h http.Handler) *http.Server {
	srv := &http.Server{
		Handler:      h,
		ReadTimeout:  n.config.Server.ReadTimeout,
		WriteTimeout: n.config.Server.WriteTimeout,
	}
	g.Go(func() error {
		n.logger.Info().Str("listener", name).Str("addr", l.Addr().String()).Msg("listening")
		if err := srv.Serve(l); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s listener: %w", name, err)
		}
		return nil
	})
	return srv
}

// Close releases the state store and the round index. It must be called
// after Run returns.
func (n *Node) Close() error {
	n.mu.Lock()
	for _, l := range n.listeners {
		l.Close()
	}
	n.listeners = make(map[string]net.Listener)
	n.mu.Unlock()
	return n.container.Close()
}
