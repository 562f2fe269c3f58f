package rpc

// registerAllMethods registers every RPC method. The WebSocket server shares
// this registry.
func (s *Server) registerAllMethods() {
	// Server information
	s.registry.Register("server_info", &ServerInfoMethod{s.backend})
	s.registry.Register("ping", &PingMethod{})

	// Transactions
	s.registry.Register("submit", &SubmitMethod{s.backend})
	s.registry.Register("simulate", &SimulateMethod{s.backend})

	// State
	s.registry.Register("account_info", &AccountInfoMethod{s.backend})
	s.registry.Register("aggregator_info", &AggregatorInfoMethod{s.backend})

	// Feeds
	s.registry.Register("query", &QueryMethod{feedReader{s.backend}})
	s.registry.Register("feed_info", &FeedInfoMethod{feedReader{s.backend}})
	s.registry.Register("round_history", &RoundHistoryMethod{feedReader{s.backend}})
}
