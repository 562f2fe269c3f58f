package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/LeJamon/goOCR2/internal/config"
	"github.com/LeJamon/goOCR2/internal/node"
	"github.com/LeJamon/goOCR2/internal/rpc"
)

var (
	rpcNode    string
	rpcTimeout time.Duration
)

// rpcCmd represents the rpc command group
var rpcCmd = &cobra.Command{
	Use:   "rpc",
	Short: "RPC client commands",
	Long: `Execute RPC commands against a running node with --node, or locally by
calling the same handlers used by the server on the configured state.`,
}

func init() {
	rootCmd.AddCommand(rpcCmd)
	rpcCmd.PersistentFlags().StringVar(&rpcNode, "node", "", "JSON-RPC URL of a running node")
	rpcCmd.PersistentFlags().DurationVar(&rpcTimeout, "timeout", 10*time.Second, "request timeout")

	rpcCmd.AddCommand(
		callCmd,
		serverInfoCmd,
		accountInfoCmd,
		aggregatorInfoCmd,
		feedInfoCmd,
		queryCmd,
		roundHistoryCmd,
	)
}

// executeMethod calls method remotely or on a local node and prints the result
func executeMethod(cmd *cobra.Command, method string, params interface{}) error {
	ctx, cancel := context.WithTimeout(commandContext(cmd), rpcTimeout)
	defer cancel()

	var (
		result interface{}
		err    error
	)
	if rpcNode != "" {
		result, err = callRemote(ctx, rpcNode, method, params)
	} else {
		result, err = callLocal(ctx, loadedConfig, method, params)
	}
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), result)
}

// callLocal opens the configured state and calls the method handler directly.
func callLocal(ctx context.Context, cfg *config.Config, method string, params interface{}) (interface{}, error) {
	n, err := node.New(cfg, nil)
	if err != nil {
		return nil, err
	}
	defer n.Close()

	handler, exists := n.Registry().Get(method)
	if !exists {
		return nil, fmt.Errorf("unknown method: %s", method)
	}

	var paramBytes json.RawMessage
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal parameters: %w", err)
		}
		paramBytes = raw
	}

	result, rpcErr := handler.Handle(&rpc.RpcContext{Context: ctx, ClientIP: "127.0.0.1"}, paramBytes)
	if rpcErr != nil {
		return nil, fmt.Errorf("RPC error [%d]: %s", rpcErr.Code, rpcErr.Message)
	}
	return result, nil
}

// callRemote posts a JSON-RPC request to url and returns the result object.
func callRemote(ctx context.Context, url, method string, params interface{}) (map[string]interface{}, error) {
	req := rpc.Request{Method: method, ID: 1}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal parameters: %w", err)
		}
		req.Params = []json.RawMessage{raw}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", method, err)
	}
	defer resp.Body.Close()

	var out struct {
		Result map[string]interface{} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", method, err)
	}
	if out.Result["status"] == "error" {
		return nil, fmt.Errorf("RPC error [%v]: %v", out.Result["error_code"], out.Result["error_message"])
	}
	return out.Result, nil
}

var callCmd = &cobra.Command{
	Use:   "call <method> [json params]",
	Short: "Call any RPC method",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var params interface{}
		if len(args) == 2 {
			params = json.RawMessage(args[1])
			if !json.Valid(params.(json.RawMessage)) {
				return fmt.Errorf("params are not valid JSON")
			}
		}
		return executeMethod(cmd, args[0], params)
	},
}

var serverInfoCmd = &cobra.Command{
	Use:   "server_info",
	Short: "Get server information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeMethod(cmd, "server_info", nil)
	},
}

var accountInfoCmd = &cobra.Command{
	Use:   "account_info <address>",
	Short: "Get account information",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeMethod(cmd, "account_info", map[string]interface{}{"address": args[0]})
	},
}

var aggregatorInfoCmd = &cobra.Command{
	Use:   "aggregator_info <state>",
	Short: "Get the configuration and billing of an aggregator",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeMethod(cmd, "aggregator_info", map[string]interface{}{"state": args[0]})
	},
}

var feedInfoCmd = &cobra.Command{
	Use:   "feed_info <feed>",
	Short: "Get the header and latest round of a feed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeMethod(cmd, "feed_info", map[string]interface{}{"feed": args[0]})
	},
}

var queryCmd = &cobra.Command{
	Use:   "query <feed> <scope> [round id]",
	Short: "Run a store query (version, decimals, description, round_data, latest_round_data, aggregator)",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		params := map[string]interface{}{"feed": args[0], "scope": args[1]}
		if len(args) == 3 {
			id, err := strconv.ParseUint(args[2], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid round id: %w", err)
			}
			params["roundId"] = id
		}
		return executeMethod(cmd, "query", params)
	},
}

var roundHistoryCmd = &cobra.Command{
	Use:   "round_history <feed> [limit]",
	Short: "List recent rounds of a feed, newest first",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		params := map[string]interface{}{"feed": args[0]}
		if len(args) == 2 {
			limit, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid limit: %w", err)
			}
			params["limit"] = limit
		}
		return executeMethod(cmd, "round_history", params)
	},
}
